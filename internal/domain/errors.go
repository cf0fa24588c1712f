package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrUserNotFound        = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists  = errors.New("el email ya está registrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrInvalidState        = errors.New("transición inválida desde el estado actual")
	ErrBusinessRule        = errors.New("violación de regla de negocio")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia: la versión leída ya no coincide")
	ErrInsufficientStock   = errors.New("stock insuficiente")
)

// InsufficientStockError lleva las cantidades disponible y solicitada para que
// el caller las presente al usuario. errors.Is(err, ErrInsufficientStock) retorna true.
type InsufficientStockError struct {
	ProductID string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: disponible %s, solicitado %s",
		e.ProductID, e.Available.String(), e.Requested.String())
}

// Is permite comparar contra el sentinel ErrInsufficientStock con errors.Is.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
