package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor" // aprueba/rechaza órdenes de trabajo
	RoleTecnico    = "tecnico"    // ejecuta órdenes asignadas
	RoleBodeguero  = "bodeguero"  // registra movimientos de stock
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, supervisor, tecnico, bodeguero
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole valida el valor de rol.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleTecnico, RoleBodeguero:
		return true
	}
	return false
}
