package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-sucursales/internal/application/dto"
	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/auth"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

// PaymentUseCase registra pagos (append-only) y reconcilia el estado de pago de
// la factura vinculada. La reconciliación SIEMPRE recalcula desde el agregado
// completo de pagos crédito, nunca desde un delta incremental: es idempotente y
// converge al valor correcto bajo pagos concurrentes o replays.
type PaymentUseCase struct {
	txRunner    PaymentsTxRunner
	paymentRepo repository.PaymentRepository
	invoiceRepo repository.InvoiceRepository
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(
	txRunner PaymentsTxRunner,
	paymentRepo repository.PaymentRepository,
	invoiceRepo repository.InvoiceRepository,
) *PaymentUseCase {
	return &PaymentUseCase{
		txRunner:    txRunner,
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
	}
}

// RecordPayment valida, persiste el pago y, si viene vinculado a una factura,
// reconcilia su estado dentro de la misma transacción.
func (uc *PaymentUseCase) RecordPayment(ctx context.Context, identity *auth.Identity, in dto.CreatePaymentRequest) (*dto.PaymentResponse, error) {
	if identity == nil {
		return nil, domain.ErrUnauthorized
	}
	if !identity.HasPermission(auth.PermBillingPayments) {
		return nil, domain.ErrForbidden
	}
	if !in.Amount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if in.PaymentType != entity.PaymentTypeCredit && in.PaymentType != entity.PaymentTypeDebit {
		return nil, domain.ErrInvalidInput
	}

	branch := in.Branch
	if !identity.IsAdmin() {
		branch = identity.Branch
	}

	// Si referencia una factura, debe existir y (para no-admin) pertenecer a la
	// sucursal del creador.
	if in.Invoice != "" {
		inv, err := uc.invoiceRepo.GetByID(in.Invoice)
		if err != nil {
			return nil, err
		}
		if inv == nil {
			return nil, domain.ErrNotFound
		}
		if !identity.CanAccessBranch(inv.Branch) {
			return nil, domain.ErrForbidden
		}
		if branch == "" {
			branch = inv.Branch
		}
	}
	if branch == "" {
		return nil, domain.ErrInvalidInput
	}

	payment := &entity.Payment{
		ID:            uuid.New().String(),
		InvoiceID:     in.Invoice,
		Amount:        in.Amount,
		PaymentType:   in.PaymentType,
		PaymentMethod: in.PaymentMethod,
		Reference:     in.Reference,
		Notes:         in.Notes,
		Branch:        branch,
		CreatedBy:     identity.UserID,
		CreatedAt:     time.Now(),
	}

	err := uc.txRunner.RunPayments(ctx, func(
		paymentRepo repository.PaymentRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		if err := paymentRepo.Create(payment); err != nil {
			return err
		}
		if payment.InvoiceID == "" {
			// Pagos sin factura nunca afectan el estado de ninguna factura.
			return nil
		}
		return reconcileInTx(paymentRepo, invoiceRepo, payment.InvoiceID)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(payment), nil
}

// Reconcile recalcula el estado de pago de una factura desde el agregado completo.
// Re-ejecutable: correr dos veces sin pagos nuevos produce el mismo estado.
func (uc *PaymentUseCase) Reconcile(ctx context.Context, invoiceID string) error {
	return uc.txRunner.RunPayments(ctx, func(
		paymentRepo repository.PaymentRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		return reconcileInTx(paymentRepo, invoiceRepo, invoiceID)
	})
}

// reconcileInTx aplica la regla: remaining <= 0 → paid; pagado 0 → pending;
// si no → partial. Solo suman los pagos crédito; refunded es terminal y no se toca.
// Bloquea la fila de la factura antes de sumar: dos pagos concurrentes sobre la
// misma factura se serializan y el último en entrar suma con el pago del otro ya
// visible, así el estado final nunca queda por detrás del agregado.
func reconcileInTx(paymentRepo repository.PaymentRepository, invoiceRepo repository.InvoiceRepository, invoiceID string) error {
	inv, err := invoiceRepo.GetByIDForUpdate(invoiceID)
	if err != nil {
		return err
	}
	if inv == nil {
		return domain.ErrNotFound
	}
	if inv.PaymentStatus == entity.PaymentStatusRefunded {
		return nil
	}
	paid, err := paymentRepo.SumCreditsByInvoice(invoiceID)
	if err != nil {
		return err
	}
	status := PaymentStatusFor(inv.Total, paid)
	if status == inv.PaymentStatus {
		return nil
	}
	return invoiceRepo.UpdatePaymentStatus(invoiceID, status)
}

// PaymentStatusFor es la función pura (total, Σ créditos) → estado de pago.
func PaymentStatusFor(total, paid decimal.Decimal) string {
	remaining := total.Sub(paid)
	switch {
	case remaining.LessThanOrEqual(decimal.Zero):
		return entity.PaymentStatusPaid
	case paid.LessThanOrEqual(decimal.Zero):
		return entity.PaymentStatusPending
	default:
		return entity.PaymentStatusPartial
	}
}

// ListPayments lista pagos de la sucursal efectiva.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, identity *auth.Identity, branch string, page dto.PageRequest) (*dto.PaymentListResponse, error) {
	if !identity.HasPermission(auth.PermReadPayments) {
		return nil, domain.ErrForbidden
	}
	if !identity.IsAdmin() {
		branch = identity.Branch
	}
	page.DefaultPage()
	list, err := uc.paymentRepo.ListByBranch(branch, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toPaymentResponse(p))
	}
	return &dto.PaymentListResponse{
		Items: items,
		Page:  dto.PageResponse{Page: page.Page, Limit: page.Limit},
	}, nil
}

func toPaymentResponse(p *entity.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		Amount:        p.Amount,
		PaymentType:   p.PaymentType,
		PaymentMethod: p.PaymentMethod,
		Reference:     p.Reference,
		Notes:         p.Notes,
		Branch:        p.Branch,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}
}
