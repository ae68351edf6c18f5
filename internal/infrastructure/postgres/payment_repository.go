package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo implementación de PaymentRepository sobre PostgreSQL.
// La tabla es append-only: no hay UPDATE ni DELETE.
type PaymentRepo struct {
	q Querier
}

func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `id, invoice_id, amount, payment_type, payment_method,
	reference, notes, branch, created_by, created_at`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	var invoiceID *string
	err := row.Scan(
		&p.ID, &invoiceID, &p.Amount, &p.PaymentType, &p.PaymentMethod,
		&p.Reference, &p.Notes, &p.Branch, &p.CreatedBy, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if invoiceID != nil {
		p.InvoiceID = *invoiceID
	}
	return &p, nil
}

func (r *PaymentRepo) Create(payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, invoice_id, amount, payment_type, payment_method,
			reference, notes, branch, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		payment.ID, nullIfEmpty(payment.InvoiceID), payment.Amount,
		payment.PaymentType, payment.PaymentMethod, payment.Reference,
		payment.Notes, payment.Branch, payment.CreatedBy, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) GetByID(id string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// SumCreditsByInvoice agregado completo de pagos crédito vinculados a la
// factura. Siempre recalcula desde el store (idempotente y convergente por
// construcción); los débito quedan fuera por el predicado.
func (r *PaymentRepo) SumCreditsByInvoice(invoiceID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE invoice_id = $1 AND payment_type = 'credit'`
	var sum decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, invoiceID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum credits: %w", err)
	}
	return sum, nil
}

func (r *PaymentRepo) ListByInvoice(invoiceID string) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE invoice_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments by invoice: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *PaymentRepo) ListByBranch(branch string, limit, offset int) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`
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
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]*entity.Payment, error) {
	var list []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return list, nil
}
