package billing

import (
	"context"
	"time"

	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

// BillingTxRunner ejecuta fn en una transacción con los repositorios que necesita
// la creación de facturas: productos, movimientos, facturas y consecutivos, todos
// atados a la misma transacción. Commit si fn retorna nil, Rollback si no; el
// rollback es el mecanismo de compensación ante un fallo parcial.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		invoiceRepo repository.InvoiceRepository,
		counterRepo repository.CounterRepository,
	) error) error
}

// PaymentsTxRunner ejecuta fn en una transacción con pagos y facturas, para que
// el registro del pago y la reconciliación del estado queden en una unidad.
type PaymentsTxRunner interface {
	RunPayments(ctx context.Context, fn func(
		paymentRepo repository.PaymentRepository,
		invoiceRepo repository.InvoiceRepository,
	) error) error
}

// StockLedger es el contrato mínimo del libro de inventario que usa la facturación:
// decremento condicional + registro de salida en la transacción del caller.
// Lo implementa *inventory.StockLedger.
type StockLedger interface {
	DecrementInTx(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		product *entity.Product,
		quantity int64,
		movementType, reason, reference, actor string,
		now time.Time,
	) (*entity.Product, error)
}

// InvoicePDFGenerator produce la representación PDF de una factura.
// Colaborador externo: consume el payload, devuelve bytes.
type InvoicePDFGenerator interface {
	Generate(invoice *entity.Invoice) ([]byte, error)
}
