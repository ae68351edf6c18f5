package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository sobre PostgreSQL.
type InvoiceRepo struct {
	q Querier
}

func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, number, branch, customer_name, subtotal, tax, discount, total,
	payment_method, payment_status, notes, created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.Branch, &inv.CustomerName,
		&inv.Subtotal, &inv.Tax, &inv.Discount, &inv.Total,
		&inv.PaymentMethod, &inv.PaymentStatus, &inv.Notes, &inv.CreatedBy,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create persiste la cabecera. Number único: duplicado → ErrDuplicate (no debería
// ocurrir con el consecutivo atómico, pero la constraint es la red de seguridad).
func (r *InvoiceRepo) Create(invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (id, number, branch, customer_name, subtotal, tax, discount, total,
			payment_method, payment_status, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		invoice.ID, invoice.Number, invoice.Branch, invoice.CustomerName,
		invoice.Subtotal, invoice.Tax, invoice.Discount, invoice.Total,
		invoice.PaymentMethod, invoice.PaymentStatus, invoice.Notes, invoice.CreatedBy,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de la factura.
func (r *InvoiceRepo) CreateItem(item *entity.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (id, invoice_id, product_id, product_name,
			quantity, unit_price, discount, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.InvoiceID, item.ProductID, item.ProductName,
		item.Quantity, item.UnitPrice, item.Discount, item.Total,
	)
	if err != nil {
		return fmt.Errorf("insert invoice item: %w", err)
	}
	return nil
}

// GetByID obtiene la factura con sus líneas. (nil, nil) si no existe.
func (r *InvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	items, err := r.GetItemsByInvoiceID(inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

// GetByIDForUpdate obtiene la factura bloqueando su fila (FOR UPDATE). Solo tiene
// sentido dentro de una transacción; serializa las reconciliaciones concurrentes
// sobre la misma factura. No carga las líneas. (nil, nil) si no existe.
func (r *InvoiceRepo) GetByIDForUpdate(id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	inv, err := scanInvoice(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice for update: %w", err)
	}
	return inv, nil
}

// GetItemsByInvoiceID obtiene las líneas de una factura.
func (r *InvoiceRepo) GetItemsByInvoiceID(invoiceID string) ([]entity.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, product_id, product_name, quantity, unit_price, discount, total
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	var items []entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.Discount, &it.Total); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice items: %w", err)
	}
	return items, nil
}

// ListByBranch lista facturas de una sucursal, más recientes primero. Branch
// vacío lista todas (solo admin llega aquí sin sucursal).
func (r *InvoiceRepo) ListByBranch(branch string, limit, offset int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []any{}
	if branch != "" {
		query += " WHERE branch = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3"
		args = append(args, branch, limit, offset)
	} else {
		query += " ORDER BY created_at DESC LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return list, nil
}

// UpdatePaymentStatus actualiza el único campo mutable de la factura.
func (r *InvoiceRepo) UpdatePaymentStatus(id, status string) error {
	query := `UPDATE invoices SET payment_status = $2, updated_at = now() WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query, id, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
