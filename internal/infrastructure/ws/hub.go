// Package ws difunde eventos del dominio a clientes WebSocket conectados.
// Implementa notify.Notifier: emitir nunca bloquea al caller. Los eventos
// pasan por una cola y cada cliente tiene su propio buffer de envío; un
// cliente lento o caído se descarta en lugar de frenar la difusión.
package ws

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/almacen-ot-api/internal/application/notify"
)

var _ notify.Notifier = (*Hub)(nil)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
	queueSize  = 64
)

// Event es el payload que se difunde a todos los clientes conectados.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client envuelve una conexión con su buffer de envío. Solo writePump escribe
// sobre la conexión.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub mantiene los clientes conectados y difunde eventos. Un único goroutine
// (run) es dueño del mapa de clientes: altas, bajas y difusión se serializan
// por canales, sin locks.
type Hub struct {
	register   chan *client
	unregister chan *client
	events     chan []byte
	clients    map[*client]struct{}
}

// NewHub crea el hub y arranca su goroutine de difusión.
func NewHub() *Hub {
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan []byte, queueSize),
		clients:    make(map[*client]struct{}),
	}
	go h.run()
	return h
}

// WorkOrderStatusChanged difunde una transición de estado de orden de trabajo.
func (h *Hub) WorkOrderStatusChanged(evt notify.WorkOrderStatusEvent) {
	h.emit(Event{Type: "work_order_status_changed", Payload: evt})
}

// LowStock difunde una alerta de stock bajo.
func (h *Hub) LowStock(evt notify.LowStockEvent) {
	h.emit(Event{Type: "low_stock", Payload: evt})
}

// emit encola el evento sin bloquear: si la cola está llena se descarta (la
// entrega es best-effort por contrato).
func (h *Hub) emit(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Msg("ws: marshal de evento")
		return
	}
	select {
	case h.events <- data:
	default:
		log.Warn().Str("type", evt.Type).Msg("ws: cola llena, evento descartado")
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			log.Debug().Int("clients", len(h.clients)).Msg("ws: cliente conectado")
		case c := <-h.unregister:
			h.drop(c)
		case data := <-h.events:
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// buffer lleno: el cliente no drena, se descarta
					h.drop(c)
				}
			}
		}
	}
}

// drop da de baja un cliente y cierra su buffer (idempotente: un cliente lento
// descartado en difusión puede llegar después por unregister).
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	log.Debug().Int("clients", len(h.clients)).Msg("ws: cliente desconectado")
}

// Handler devuelve el handler Fiber para la ruta /ws. El goroutine de lectura
// solo detecta cierre; writePump drena el buffer y mantiene la conexión viva
// con pings.
func (h *Hub) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
		h.register <- c
		go c.writePump()

		defer func() {
			h.unregister <- c
			_ = conn.Close()
		}()
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
