package billing_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sucursales/internal/application/billing"
	"github.com/jhoicas/pos-sucursales/internal/application/dto"
	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/auth"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
)

func cashierIdentity() *auth.Identity {
	return &auth.Identity{
		UserID:      testUserID,
		Role:        "user",
		Permissions: []string{auth.PermBillingPayments, auth.PermReadPayments},
		Branch:      testBranch,
	}
}

func seedInvoice(s *memStore, id string, total int64) *entity.Invoice {
	inv := &entity.Invoice{
		ID:            id,
		Number:        "INV-000001",
		Branch:        testBranch,
		Total:         decimal.NewFromInt(total),
		PaymentStatus: entity.PaymentStatusPending,
	}
	s.invoices[id] = inv
	return inv
}

func newPaymentUC(s *memStore) *billing.PaymentUseCase {
	return billing.NewPaymentUseCase(&memTxRunner{s}, &memPaymentRepo{s}, &memInvoiceRepo{s})
}

func pay(t *testing.T, uc *billing.PaymentUseCase, in dto.CreatePaymentRequest) *dto.PaymentResponse {
	t.Helper()
	out, err := uc.RecordPayment(context.Background(), cashierIdentity(), in)
	require.NoError(t, err)
	return out
}

func TestRecordPayment_PendingPartialPaid(t *testing.T) {
	s := newMemStore()
	seedInvoice(s, "inv1", 100)
	uc := newPaymentUC(s)

	// 40 de 100 → partial.
	pay(t, uc, dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(40), PaymentType: entity.PaymentTypeCredit, Invoice: "inv1",
	})
	assert.Equal(t, entity.PaymentStatusPartial, s.invoices["inv1"].PaymentStatus)

	// 40+60 = 100 → paid.
	pay(t, uc, dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(60), PaymentType: entity.PaymentTypeCredit, Invoice: "inv1",
	})
	assert.Equal(t, entity.PaymentStatusPaid, s.invoices["inv1"].PaymentStatus)
}

func TestRecordPayment_PagosConcurrentesConvergenAPaid(t *testing.T) {
	s := newMemStore()
	seedInvoice(s, "inv1", 100)
	uc := newPaymentUC(s)

	// Dos pagos simultáneos que juntos cubren el total. La reconciliación
	// bloquea la fila de la factura antes de sumar, así que el último en entrar
	// ya ve el pago del otro y el estado final nunca queda por detrás del
	// agregado (paid, no partial).
	var wg sync.WaitGroup
	for _, amount := range []int64{40, 60} {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			_, err := uc.RecordPayment(context.Background(), cashierIdentity(), dto.CreatePaymentRequest{
				Amount: decimal.NewFromInt(amount), PaymentType: entity.PaymentTypeCredit, Invoice: "inv1",
			})
			assert.NoError(t, err)
		}(amount)
	}
	wg.Wait()

	assert.Equal(t, entity.PaymentStatusPaid, s.invoices["inv1"].PaymentStatus)
	assert.Len(t, s.payments, 2)
}

func TestRecordPayment_SobrepagoEsPaid(t *testing.T) {
	s := newMemStore()
	seedInvoice(s, "inv1", 100)
	uc := newPaymentUC(s)

	pay(t, uc, dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(150), PaymentType: entity.PaymentTypeCredit, Invoice: "inv1",
	})
	assert.Equal(t, entity.PaymentStatusPaid, s.invoices["inv1"].PaymentStatus)
}

func TestRecordPayment_DebitoNoAfectaEstado(t *testing.T) {
	s := newMemStore()
	seedInvoice(s, "inv1", 100)
	uc := newPaymentUC(s)

	pay(t, uc, dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(100), PaymentType: entity.PaymentTypeDebit, Invoice: "inv1",
	})
	assert.Equal(t, entity.PaymentStatusPending, s.invoices["inv1"].PaymentStatus,
		"los pagos débito jamás suman al pagado")
	assert.Len(t, s.payments, 1, "el débito sí queda registrado")
}

func TestRecordPayment_SinFacturaNoReconciliaNada(t *testing.T) {
	s := newMemStore()
	seedInvoice(s, "inv1", 100)
	uc := newPaymentUC(s)

	pay(t, uc, dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(100), PaymentType: entity.PaymentTypeCredit, Branch: testBranch,
	})
	assert.Equal(t, entity.PaymentStatusPending, s.invoices["inv1"].PaymentStatus,
		"un pago sin factura no afecta el estado de ninguna factura")
}

func TestRecordPayment_Validaciones(t *testing.T) {
	s := newMemStore()
	seedInvoice(s, "inv1", 100)
	uc := newPaymentUC(s)
	ctx := context.Background()

	// Monto cero o negativo.
	_, err := uc.RecordPayment(ctx, cashierIdentity(), dto.CreatePaymentRequest{
		Amount: decimal.Zero, PaymentType: entity.PaymentTypeCredit, Invoice: "inv1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Tipo desconocido.
	_, err = uc.RecordPayment(ctx, cashierIdentity(), dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(10), PaymentType: "transferencia", Invoice: "inv1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Factura inexistente.
	_, err = uc.RecordPayment(ctx, cashierIdentity(), dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(10), PaymentType: entity.PaymentTypeCredit, Invoice: "no-existe",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Sin permiso.
	soloLectura := &auth.Identity{UserID: "u2", Role: "user", Permissions: []string{auth.PermReadPayments}, Branch: testBranch}
	_, err = uc.RecordPayment(ctx, soloLectura, dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(10), PaymentType: entity.PaymentTypeCredit, Invoice: "inv1",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Factura de otra sucursal.
	s.invoices["inv1"].Branch = "sucursal-sur"
	_, err = uc.RecordPayment(ctx, cashierIdentity(), dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(10), PaymentType: entity.PaymentTypeCredit, Invoice: "inv1",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReconcile_Idempotente(t *testing.T) {
	s := newMemStore()
	seedInvoice(s, "inv1", 100)
	uc := newPaymentUC(s)

	pay(t, uc, dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(40), PaymentType: entity.PaymentTypeCredit, Invoice: "inv1",
	})
	require.Equal(t, entity.PaymentStatusPartial, s.invoices["inv1"].PaymentStatus)

	// Reconciliar dos veces sin pagos nuevos no cambia nada: siempre se
	// recalcula desde el agregado completo.
	require.NoError(t, uc.Reconcile(context.Background(), "inv1"))
	require.NoError(t, uc.Reconcile(context.Background(), "inv1"))
	assert.Equal(t, entity.PaymentStatusPartial, s.invoices["inv1"].PaymentStatus)
}

func TestReconcile_RefundedEsTerminal(t *testing.T) {
	s := newMemStore()
	inv := seedInvoice(s, "inv1", 100)
	inv.PaymentStatus = entity.PaymentStatusRefunded
	uc := newPaymentUC(s)

	// Incluso pagando el total, refunded no se toca.
	pay(t, uc, dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(100), PaymentType: entity.PaymentTypeCredit, Invoice: "inv1",
	})
	assert.Equal(t, entity.PaymentStatusRefunded, s.invoices["inv1"].PaymentStatus)
}

func TestPaymentStatusFor(t *testing.T) {
	total := decimal.NewFromInt(100)
	cases := []struct {
		paid int64
		want string
	}{
		{0, entity.PaymentStatusPending},
		{-10, entity.PaymentStatusPending},
		{1, entity.PaymentStatusPartial},
		{99, entity.PaymentStatusPartial},
		{100, entity.PaymentStatusPaid},
		{150, entity.PaymentStatusPaid},
	}
	for _, c := range cases {
		got := billing.PaymentStatusFor(total, decimal.NewFromInt(c.paid))
		assert.Equal(t, c.want, got, "pagado %d de 100", c.paid)
	}
}

func TestListPayments_SucursalEfectiva(t *testing.T) {
	s := newMemStore()
	seedInvoice(s, "inv1", 100)
	uc := newPaymentUC(s)

	pay(t, uc, dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(40), PaymentType: entity.PaymentTypeCredit, Invoice: "inv1",
	})

	// No-admin siempre ve su propia sucursal aunque pida otra.
	out, err := uc.ListPayments(context.Background(), cashierIdentity(), "sucursal-sur", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, testBranch, out.Items[0].Branch)
}
