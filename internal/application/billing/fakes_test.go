package billing_test

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

// memStore es un store en memoria con semántica transaccional por snapshot:
// los runners serializan las transacciones con txMu y, ante error de fn,
// restauran el estado previo (el equivalente del ROLLBACK de PostgreSQL).
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	products  map[string]*entity.Product
	movements []*entity.StockMovement
	invoices  map[string]*entity.Invoice
	items     map[string][]entity.InvoiceItem
	payments  []*entity.Payment
	counters  map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]*entity.Product{},
		invoices: map[string]*entity.Invoice{},
		items:    map[string][]entity.InvoiceItem{},
		counters: map[string]int64{},
	}
}

type memSnapshot struct {
	products  map[string]*entity.Product
	movements []*entity.StockMovement
	invoices  map[string]*entity.Invoice
	items     map[string][]entity.InvoiceItem
	payments  []*entity.Payment
	counters  map[string]int64
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		products:  make(map[string]*entity.Product, len(s.products)),
		movements: append([]*entity.StockMovement(nil), s.movements...),
		invoices:  make(map[string]*entity.Invoice, len(s.invoices)),
		items:     make(map[string][]entity.InvoiceItem, len(s.items)),
		payments:  append([]*entity.Payment(nil), s.payments...),
		counters:  make(map[string]int64, len(s.counters)),
	}
	for id, p := range s.products {
		cp := *p
		snap.products[id] = &cp
	}
	for id, inv := range s.invoices {
		cp := *inv
		snap.invoices[id] = &cp
	}
	for id, list := range s.items {
		snap.items[id] = append([]entity.InvoiceItem(nil), list...)
	}
	for name, v := range s.counters {
		snap.counters[name] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.movements = snap.movements
	s.invoices = snap.invoices
	s.items = snap.items
	s.payments = snap.payments
	s.counters = snap.counters
}

// ── ProductRepository ─────────────────────────────────────────────────────────

type memProductRepo struct{ s *memStore }

var _ repository.ProductRepository = (*memProductRepo)(nil)

func (r *memProductRepo) Create(p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.products {
		if existing.IsActive && existing.Branch == p.Branch && existing.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) GetByBranchAndSKU(branch, sku string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.IsActive && p.Branch == branch && p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) Update(p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *p
	cp.Stock = existing.Stock // el stock solo muta vía Increment/Decrement
	r.s.products[p.ID] = &cp
	return nil
}

func (r *memProductRepo) SoftDelete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || !p.IsActive {
		return domain.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (r *memProductRepo) List(filter repository.ProductFilter) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.s.products {
		if !p.IsActive {
			continue
		}
		if filter.Branch != "" && p.Branch != filter.Branch {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), filter.Search) &&
			!strings.Contains(strings.ToLower(p.SKU), filter.Search) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memProductRepo) ListLowStock(branch string) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.s.products {
		if !p.IsActive || p.MinStock <= 0 || p.Stock > p.MinStock {
			continue
		}
		if branch != "" && p.Branch != branch {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// DecrementStock replica la escritura condicional atómica del store real.
func (r *memProductRepo) DecrementStock(productID string, quantity int64) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok || !p.IsActive || p.Stock < quantity {
		return nil, nil
	}
	p.Stock -= quantity
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) IncrementStock(productID string, quantity int64) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok || !p.IsActive {
		return nil, nil
	}
	p.Stock += quantity
	cp := *p
	return &cp, nil
}

// ── StockMovementRepository ───────────────────────────────────────────────────

type memMovementRepo struct{ s *memStore }

var _ repository.StockMovementRepository = (*memMovementRepo)(nil)

func (r *memMovementRepo) Create(m *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *memMovementRepo) ListByProduct(productID string, limit, offset int) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID == productID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMovementRepo) ListByBranch(branch string, limit, offset int) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if branch == "" || m.Branch == branch {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ── InvoiceRepository ─────────────────────────────────────────────────────────

type memInvoiceRepo struct{ s *memStore }

var _ repository.InvoiceRepository = (*memInvoiceRepo)(nil)

func (r *memInvoiceRepo) Create(inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.invoices {
		if existing.Number == inv.Number {
			return domain.ErrDuplicate
		}
	}
	cp := *inv
	cp.Items = nil
	r.s.invoices[inv.ID] = &cp
	return nil
}

func (r *memInvoiceRepo) CreateItem(item *entity.InvoiceItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[item.InvoiceID] = append(r.s.items[item.InvoiceID], *item)
	return nil
}

func (r *memInvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	cp.Items = append([]entity.InvoiceItem(nil), r.s.items[id]...)
	return &cp, nil
}

// GetByIDForUpdate en el fake equivale a GetByID: txMu ya serializa las
// transacciones, que es justo lo que el lock de fila garantiza en el store real.
func (r *memInvoiceRepo) GetByIDForUpdate(id string) (*entity.Invoice, error) {
	inv, err := r.GetByID(id)
	if err != nil || inv == nil {
		return inv, err
	}
	inv.Items = nil
	return inv, nil
}

func (r *memInvoiceRepo) GetItemsByInvoiceID(invoiceID string) ([]entity.InvoiceItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]entity.InvoiceItem(nil), r.s.items[invoiceID]...), nil
}

func (r *memInvoiceRepo) ListByBranch(branch string, limit, offset int) ([]*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.s.invoices {
		if branch == "" || inv.Branch == branch {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) UpdatePaymentStatus(id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.PaymentStatus = status
	return nil
}

// ── PaymentRepository ─────────────────────────────────────────────────────────

type memPaymentRepo struct{ s *memStore }

var _ repository.PaymentRepository = (*memPaymentRepo)(nil)

func (r *memPaymentRepo) Create(p *entity.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.payments = append(r.s.payments, &cp)
	return nil
}

func (r *memPaymentRepo) GetByID(id string) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

// SumCreditsByInvoice replica el agregado SQL: solo créditos vinculados.
func (r *memPaymentRepo) SumCreditsByInvoice(invoiceID string) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, p := range r.s.payments {
		if p.InvoiceID == invoiceID && p.PaymentType == entity.PaymentTypeCredit {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *memPaymentRepo) ListByInvoice(invoiceID string) ([]*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Payment
	for _, p := range r.s.payments {
		if p.InvoiceID == invoiceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) ListByBranch(branch string, limit, offset int) ([]*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Payment
	for _, p := range r.s.payments {
		if branch == "" || p.Branch == branch {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ── CounterRepository ─────────────────────────────────────────────────────────

type memCounterRepo struct{ s *memStore }

var _ repository.CounterRepository = (*memCounterRepo)(nil)

func (r *memCounterRepo) Next(name string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.counters[name]++
	return r.s.counters[name], nil
}

// ── Tx runners ────────────────────────────────────────────────────────────────

type memTxRunner struct{ s *memStore }

func (r *memTxRunner) RunBilling(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	invoiceRepo repository.InvoiceRepository,
	counterRepo repository.CounterRepository,
) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	snap := r.s.snapshot()
	err := fn(&memProductRepo{r.s}, &memMovementRepo{r.s}, &memInvoiceRepo{r.s}, &memCounterRepo{r.s})
	if err != nil {
		r.s.restore(snap)
	}
	return err
}

func (r *memTxRunner) RunPayments(ctx context.Context, fn func(
	paymentRepo repository.PaymentRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	snap := r.s.snapshot()
	err := fn(&memPaymentRepo{r.s}, &memInvoiceRepo{r.s})
	if err != nil {
		r.s.restore(snap)
	}
	return err
}
