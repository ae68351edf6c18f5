package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia para Payment (append-only).
// SumCreditsByInvoice es el agregado completo sobre pagos crédito vinculados a la
// factura; la conciliación SIEMPRE usa este agregado, nunca un contador incremental.
type PaymentRepository interface {
	Create(payment *entity.Payment) error
	GetByID(id string) (*entity.Payment, error)
	SumCreditsByInvoice(invoiceID string) (decimal.Decimal, error)
	ListByInvoice(invoiceID string) ([]*entity.Payment, error)
	ListByBranch(branch string, limit, offset int) ([]*entity.Payment, error)
}
