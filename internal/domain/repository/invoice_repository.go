package repository

import "github.com/jhoicas/pos-sucursales/internal/domain/entity"

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
// Después de creada, solo UpdatePaymentStatus muta la factura.
//
// GetByIDForUpdate bloquea la fila de la factura dentro de la transacción del
// caller: los pagos concurrentes sobre la misma factura se serializan y el
// último en reconciliar ve el agregado completo.
type InvoiceRepository interface {
	Create(invoice *entity.Invoice) error
	CreateItem(item *entity.InvoiceItem) error
	GetByID(id string) (*entity.Invoice, error)
	GetByIDForUpdate(id string) (*entity.Invoice, error)
	GetItemsByInvoiceID(invoiceID string) ([]entity.InvoiceItem, error)
	ListByBranch(branch string, limit, offset int) ([]*entity.Invoice, error)
	UpdatePaymentStatus(id, status string) error
}
