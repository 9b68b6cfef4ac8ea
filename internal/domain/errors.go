package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrDuplicate               = errors.New("recurso duplicado")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrInsufficientReservation = errors.New("cantidad reservada insuficiente")
	ErrVersionConflict         = errors.New("versión desactualizada del ítem")
	ErrInvalidState            = errors.New("transición de estado inválida")
	ErrLockTimeout             = errors.New("tiempo de espera de bloqueo agotado")
	ErrInternal                = errors.New("error interno")
)

// InsufficientStockError detalla una reserva o salida rechazada por falta de disponible.
// errors.Is(err, ErrInsufficientStock) es verdadero para este tipo.
type InsufficientStockError struct {
	SKU       string
	Location  string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s@%s: solicitado %s, disponible %s",
		e.SKU, e.Location, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IsBusiness indica si err pertenece a la taxonomía de dominio (se devuelve tal cual al llamador).
func IsBusiness(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrDuplicate, ErrInsufficientStock,
		ErrInsufficientReservation, ErrVersionConflict, ErrInvalidState,
		ErrLockTimeout, ErrInternal,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
