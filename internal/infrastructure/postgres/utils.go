package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation  = "23505"
	codeLockNotAvailable = "55P03"
	codeDeadlock         = "40P01"
	codeCheckViolation   = "23514"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return pgCode(err) == codeUniqueViolation || strings.Contains(err.Error(), codeUniqueViolation)
}

// isLockNotAvailable: se agotó lock_timeout esperando una fila, o Postgres abortó por interbloqueo.
func isLockNotAvailable(err error) bool {
	code := pgCode(err)
	return code == codeLockNotAvailable || code == codeDeadlock
}

// isCheckViolation: la base rechazó una fila que rompe held >= 0 u on_hand >= held.
func isCheckViolation(err error) bool {
	return pgCode(err) == codeCheckViolation
}
