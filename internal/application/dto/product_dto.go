package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest datos para crear un producto.
// Branch solo lo respetan los admin; para no-admin se fuerza la sucursal del token.
type CreateProductRequest struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Barcode     string          `json:"barcode"`
	Price       decimal.Decimal `json:"price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Stock       int64           `json:"stock"`
	MinStock    int64           `json:"min_stock"`
	MaxStock    int64           `json:"max_stock"`
	Branch      string          `json:"branch"`
}

// UpdateProductRequest campos actualizables. Stock no está: solo muta vía movimientos.
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Barcode     *string          `json:"barcode"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	MinStock    *int64           `json:"min_stock"`
	MaxStock    *int64           `json:"max_stock"`
}

// ListProductsQuery filtros de listado (GET /products).
type ListProductsQuery struct {
	Branch   string `query:"branch"`
	Category string `query:"category"`
	Search   string `query:"search"`
	PageRequest
}

// ProductResponse representación pública del producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	Branch      string          `json:"branch"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Stock       int64           `json:"stock"`
	MinStock    int64           `json:"min_stock"`
	MaxStock    int64           `json:"max_stock"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse listado paginado.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
