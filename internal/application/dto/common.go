package dto

// CursorPageRequest paginación por cursor opaco para listados del ledger.
type CursorPageRequest struct {
	Cursor string `query:"cursor"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=200"`
}

// DefaultPage aplica el límite por defecto si Limit es cero.
func (p *CursorPageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details campos inválidos (validación) o cantidades en conflicto (stock insuficiente).
	Details map[string]string `json:"details,omitempty"`
}
