package dto

// PageRequest paginación para listados (query params page y limit).
type PageRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

// DefaultPage aplica valores por defecto y topes.
func (p *PageRequest) DefaultPage() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}

// Offset deriva el offset del par page/limit.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StockErrorResponse error de stock insuficiente con el detalle del producto.
type StockErrorResponse struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int64  `json:"available"`
	Requested   int64  `json:"requested"`
}
