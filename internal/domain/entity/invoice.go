package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de pago de una factura. Es el único campo que muta después de creada;
// lo recalcula el motor de conciliación a partir del agregado de pagos crédito.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPartial  = "partial"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// Invoice representa la cabecera de una factura de venta.
// Number tiene formato INV-%06d, único y estrictamente creciente.
type Invoice struct {
	ID            string
	Number        string
	Branch        string
	CustomerName  string
	Items         []InvoiceItem
	Subtotal      decimal.Decimal // == Σ Items[i].Total
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal // == Subtotal + Tax - Discount
	PaymentMethod string
	PaymentStatus string
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvoiceItem es una línea de la factura.
// Total = Quantity*UnitPrice - Discount, nunca negativo.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	ProductID   string
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}
