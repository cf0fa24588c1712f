package workorder

import (
	"fmt"
	"time"
)

// orderNumberPrefix devuelve el prefijo con ámbito de fecha ("OT-20250828-").
func orderNumberPrefix(date time.Time) string {
	return "OT-" + date.Format("20060102") + "-"
}

// formatOrderNumber arma el número consecutivo ("OT-20250828-0007").
// El número es inmutable una vez asignado.
func formatOrderNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}
