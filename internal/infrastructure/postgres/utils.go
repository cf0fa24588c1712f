package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Código SQLSTATE de unique_violation.
const codeUniqueViolation = "23505"

// isUniqueViolation reporta si err proviene de una violación de constraint
// único: SKU de producto, número de orden o email de usuario duplicados.
// Solo se inspecciona el error tipado de pgconn; no hay fallback por texto.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
