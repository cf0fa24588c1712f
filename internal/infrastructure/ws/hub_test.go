package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ot-api/internal/application/notify"
)

// registerTestClient conecta al hub un cliente sin conexión real: las
// aserciones leen directamente de su buffer de envío.
func registerTestClient(h *Hub, buffer int) *client {
	c := &client{send: make(chan []byte, buffer)}
	h.register <- c
	return c
}

func waitEvent(t *testing.T, c *client) Event {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "el buffer del cliente se cerró antes de recibir el evento")
		var evt Event
		require.NoError(t, json.Unmarshal(data, &evt))
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("el cliente no recibió ningún evento")
		return Event{}
	}
}

func waitClosed(t *testing.T, c *client) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("el buffer del cliente lento nunca se cerró")
		}
	}
}

func TestHub_DifundeEventosATodosLosClientes(t *testing.T) {
	h := NewHub()
	a := registerTestClient(h, sendBuffer)
	b := registerTestClient(h, sendBuffer)

	h.WorkOrderStatusChanged(notify.WorkOrderStatusEvent{
		WorkOrderID: "wo1",
		OrderNumber: "OT-20260828-0001",
		OldStatus:   "SUBMITTED",
		NewStatus:   "APPROVED",
	})

	for _, c := range []*client{a, b} {
		evt := waitEvent(t, c)
		assert.Equal(t, "work_order_status_changed", evt.Type)
	}
}

func TestHub_ClienteLentoNoBloqueaLaDifusion(t *testing.T) {
	h := NewHub()
	slow := registerTestClient(h, 1)
	fast := registerTestClient(h, sendBuffer)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			h.LowStock(notify.LowStockEvent{ProductID: "p1"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("la difusión se bloqueó con un cliente lento conectado")
	}

	evt := waitEvent(t, fast)
	assert.Equal(t, "low_stock", evt.Type, "el cliente rápido sigue recibiendo eventos")

	// El lento no drena su buffer: el hub lo da de baja y cierra su canal.
	waitClosed(t, slow)
}
