package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de pago. Solo los crédito suman al pagado de una factura;
// los débito nunca afectan el estado de pago.
const (
	PaymentTypeCredit = "credit"
	PaymentTypeDebit  = "debit"
)

// Payment es un registro de pago, append-only: nunca se actualiza ni se borra.
// InvoiceID es opcional; un pago sin factura no afecta el estado de ninguna factura.
type Payment struct {
	ID            string
	InvoiceID     string // vacío = pago no vinculado
	Amount        decimal.Decimal // > 0
	PaymentType   string // credit | debit
	PaymentMethod string
	Reference     string
	Notes         string
	Branch        string
	CreatedBy     string
	CreatedAt     time.Time
}
