package billing_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/pos-sucursales/internal/application/billing"
	"github.com/jhoicas/pos-sucursales/internal/application/dto"
	"github.com/jhoicas/pos-sucursales/internal/application/inventory"
	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/auth"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
)

const (
	testBranch = "sucursal-norte"
	testUserID = "00000000-0000-0000-0000-000000000001"
)

func sellerIdentity() *auth.Identity {
	return &auth.Identity{
		UserID:      testUserID,
		Role:        "user",
		Permissions: []string{auth.PermBillingCreate, auth.PermReadInvoices},
		Branch:      testBranch,
	}
}

func seedProduct(s *memStore, id, sku string, price int64, stock int64) *entity.Product {
	p := &entity.Product{
		ID:       id,
		Branch:   testBranch,
		SKU:      sku,
		Name:     "Producto " + sku,
		Price:    decimal.NewFromInt(price),
		Stock:    stock,
		IsActive: true,
	}
	s.products[id] = p
	return p
}

func newBillingUC(s *memStore) *appinv.CreateInvoiceUseCase {
	return appinv.NewCreateInvoiceUseCase(
		&memTxRunner{s},
		inventory.NewStockLedger(),
		&memProductRepo{s},
		&memInvoiceRepo{s},
	)
}

func TestCreateInvoice_FlujoCompleto(t *testing.T) {
	s := newMemStore()
	seedProduct(s, "p1", "SKU-1", 1000, 10)
	seedProduct(s, "p2", "SKU-2", 500, 4)
	uc := newBillingUC(s)

	out, err := uc.CreateInvoice(context.Background(), sellerIdentity(), dto.CreateInvoiceRequest{
		Customer: "Cliente Uno",
		Items: []dto.InvoiceItemRequest{
			// p1 al precio del catálogo; p2 con descuento de línea
			{Product: "p1", Quantity: 2},
			{Product: "p2", Quantity: 3, Discount: decimal.NewFromInt(100)},
		},
		Tax:      decimal.NewFromInt(200),
		Discount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	// Identidades aritméticas: subtotal = Σ líneas; total = subtotal + tax - discount.
	// Línea 1: 2*1000 = 2000; línea 2: 3*500 - 100 = 1400.
	assert.True(t, out.Subtotal.Equal(decimal.NewFromInt(3400)), "subtotal: %s", out.Subtotal)
	assert.True(t, out.Total.Equal(decimal.NewFromInt(3550)), "total: %s", out.Total)
	assert.Equal(t, entity.PaymentStatusPending, out.PaymentStatus)
	assert.Equal(t, "INV-000001", out.Number)
	assert.Equal(t, testBranch, out.Branch)
	assert.Len(t, out.Items, 2)

	// El stock se descontó y cada línea dejó su salida en el libro.
	assert.Equal(t, int64(8), s.products["p1"].Stock)
	assert.Equal(t, int64(1), s.products["p2"].Stock)
	require.Len(t, s.movements, 2)
	for _, m := range s.movements {
		assert.Equal(t, entity.MovementTypeOut, m.Type)
		assert.Equal(t, out.Number, m.Reference)
		assert.Equal(t, "venta", m.Reason)
	}
}

func TestCreateInvoice_DescuentaEnOrdenCanonicoDeProducto(t *testing.T) {
	s := newMemStore()
	seedProduct(s, "p1", "SKU-1", 1000, 10)
	seedProduct(s, "p2", "SKU-2", 500, 10)
	seedProduct(s, "p3", "SKU-3", 300, 10)
	uc := newBillingUC(s)

	// Ítems en orden arbitrario: los decrementos deben aplicarse ordenados por
	// producto, para que dos facturas concurrentes con los mismos productos
	// tomen los locks de fila en el mismo orden y no se bloqueen entre sí.
	_, err := uc.CreateInvoice(context.Background(), sellerIdentity(), dto.CreateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{
			{Product: "p3", Quantity: 1},
			{Product: "p1", Quantity: 1},
			{Product: "p2", Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, s.movements, 3)
	got := []string{s.movements[0].ProductID, s.movements[1].ProductID, s.movements[2].ProductID}
	assert.Equal(t, []string{"p1", "p2", "p3"}, got)
}

func TestCreateInvoice_NumeracionMonotona(t *testing.T) {
	s := newMemStore()
	seedProduct(s, "p1", "SKU-1", 1000, 100)
	uc := newBillingUC(s)

	for i, want := range []string{"INV-000001", "INV-000002", "INV-000003"} {
		out, err := uc.CreateInvoice(context.Background(), sellerIdentity(), dto.CreateInvoiceRequest{
			Items: []dto.InvoiceItemRequest{{Product: "p1", Quantity: 1}},
		})
		require.NoError(t, err, "factura %d", i+1)
		assert.Equal(t, want, out.Number)
	}
}

func TestCreateInvoice_StockInsuficiente_SinMutacion(t *testing.T) {
	s := newMemStore()
	seedProduct(s, "p1", "SKU-1", 1000, 2)
	uc := newBillingUC(s)

	_, err := uc.CreateInvoice(context.Background(), sellerIdentity(), dto.CreateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{{Product: "p1", Quantity: 5}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p1", stockErr.ProductID)
	assert.Equal(t, int64(2), stockErr.Available)
	assert.Equal(t, int64(5), stockErr.Requested)

	// Nada mutó: ni stock, ni factura, ni movimientos.
	assert.Equal(t, int64(2), s.products["p1"].Stock)
	assert.Empty(t, s.invoices)
	assert.Empty(t, s.movements)
}

func TestCreateInvoice_ProductoRepetidoAgregaCantidades(t *testing.T) {
	// Dos líneas del mismo producto: la validación debe sumar 2+2=4 > 3.
	s := newMemStore()
	seedProduct(s, "p1", "SKU-1", 1000, 3)
	uc := newBillingUC(s)

	_, err := uc.CreateInvoice(context.Background(), sellerIdentity(), dto.CreateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{
			{Product: "p1", Quantity: 2},
			{Product: "p1", Quantity: 2},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(3), s.products["p1"].Stock)
}

func TestCreateInvoice_DescuentoMayorQueLinea(t *testing.T) {
	s := newMemStore()
	seedProduct(s, "p1", "SKU-1", 100, 10)
	uc := newBillingUC(s)

	_, err := uc.CreateInvoice(context.Background(), sellerIdentity(), dto.CreateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{
			{Product: "p1", Quantity: 1, Discount: decimal.NewFromInt(500)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput,
		"descuento mayor al valor de la línea es error de datos, no cargo negativo")
}

func TestCreateInvoice_SinPermiso(t *testing.T) {
	s := newMemStore()
	seedProduct(s, "p1", "SKU-1", 1000, 10)
	uc := newBillingUC(s)

	id := &auth.Identity{UserID: testUserID, Role: "user", Permissions: []string{auth.PermReadInvoices}, Branch: testBranch}
	_, err := uc.CreateInvoice(context.Background(), id, dto.CreateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{{Product: "p1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateInvoice_NoAdminIgnoraSucursalDelRequest(t *testing.T) {
	s := newMemStore()
	seedProduct(s, "p1", "SKU-1", 1000, 10)
	uc := newBillingUC(s)

	// El cliente pide otra sucursal; para no-admin se estampa la del token.
	out, err := uc.CreateInvoice(context.Background(), sellerIdentity(), dto.CreateInvoiceRequest{
		Branch: "sucursal-sur",
		Items:  []dto.InvoiceItemRequest{{Product: "p1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, testBranch, out.Branch)
}

func TestCreateInvoice_ProductoDeOtraSucursal(t *testing.T) {
	s := newMemStore()
	p := seedProduct(s, "p1", "SKU-1", 1000, 10)
	p.Branch = "sucursal-sur"
	uc := newBillingUC(s)

	_, err := uc.CreateInvoice(context.Background(), sellerIdentity(), dto.CreateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{{Product: "p1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Dos facturas concurrentes de 3 unidades contra stock 5: exactamente una gana,
// el stock queda en 2 y el libro registra una sola salida.
func TestCreateInvoice_CarreraPorElStock(t *testing.T) {
	s := newMemStore()
	seedProduct(s, "p1", "SKU-1", 1000, 5)
	uc := newBillingUC(s)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.CreateInvoice(context.Background(), sellerIdentity(), dto.CreateInvoiceRequest{
				Items: []dto.InvoiceItemRequest{{Product: "p1", Quantity: 3}},
			})
		}(i)
	}
	wg.Wait()

	var oks, fails int
	for _, err := range errs {
		if err == nil {
			oks++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			fails++
		}
	}
	assert.Equal(t, 1, oks, "exactamente una factura debe ganar")
	assert.Equal(t, 1, fails)
	assert.Equal(t, int64(2), s.products["p1"].Stock)
	assert.Len(t, s.invoices, 1)
	assert.Len(t, s.movements, 1)
}

func TestGetInvoice_ControlDeSucursal(t *testing.T) {
	s := newMemStore()
	seedProduct(s, "p1", "SKU-1", 1000, 10)
	uc := newBillingUC(s)

	out, err := uc.CreateInvoice(context.Background(), sellerIdentity(), dto.CreateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{{Product: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	// Misma sucursal: ok, con líneas.
	got, err := uc.GetInvoice(context.Background(), sellerIdentity(), out.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	// Otra sucursal: denegado aunque la factura exista.
	otro := &auth.Identity{UserID: "u2", Role: "user", Permissions: []string{auth.PermReadInvoices}, Branch: "sucursal-sur"}
	_, err = uc.GetInvoice(context.Background(), otro, out.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Admin: siempre.
	admin := &auth.Identity{UserID: "a1", Role: auth.RoleAdmin}
	_, err = uc.GetInvoice(context.Background(), admin, out.ID)
	assert.NoError(t, err)

	// Inexistente: not found.
	_, err = uc.GetInvoice(context.Background(), sellerIdentity(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
