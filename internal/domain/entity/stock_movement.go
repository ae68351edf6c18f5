package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeIn       = "in"       // entrada
	MovementTypeOut      = "out"      // salida
	MovementTypeTransfer = "transfer" // entre sucursales
)

// StockMovement es una entrada del libro de movimientos, append-only.
// Invariante lógico: el Stock de cada producto equivale al neto de sus movimientos.
type StockMovement struct {
	ID        string
	ProductID string
	Branch    string
	Type      string // in, out, transfer
	Quantity  int64  // siempre positivo; el signo lo da Type
	Reason    string // venta, reposición, ajuste, traslado...
	Reference string // p. ej. número de factura
	CreatedBy string // UserID
	CreatedAt time.Time
}
