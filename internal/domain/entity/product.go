package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo, con scope por sucursal (Branch).
// Stock nunca es negativo y solo se modifica vía el libro de movimientos (ledger);
// los updates de catálogo no lo tocan. Borrado lógico con IsActive.
type Product struct {
	ID          string
	Branch      string // sucursal propietaria
	SKU         string // único por sucursal
	Name        string
	Description string
	Category    string
	Barcode     string
	Price       decimal.Decimal // precio de venta
	CostPrice   decimal.Decimal // costo de adquisición
	Stock       int64           // invariante: >= 0
	MinStock    int64
	MaxStock    int64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
