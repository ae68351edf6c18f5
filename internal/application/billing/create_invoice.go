package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-sucursales/internal/application/dto"
	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/auth"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

// CreateInvoiceUseCase crea una factura y descuenta el inventario en una sola
// transacción: consecutivo atómico, validación de disponibilidad de TODOS los
// ítems antes de mutar nada, persistencia de la factura y decrementos
// condicionales por ítem. Cualquier fallo hace rollback completo: nunca queda
// stock descontado sin factura ni factura sin sus salidas en el libro.
type CreateInvoiceUseCase struct {
	txRunner    BillingTxRunner
	ledger      StockLedger
	productRepo repository.ProductRepository
	invoiceRepo repository.InvoiceRepository
}

// NewCreateInvoiceUseCase construye el caso de uso.
func NewCreateInvoiceUseCase(
	txRunner BillingTxRunner,
	ledger StockLedger,
	productRepo repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{
		txRunner:    txRunner,
		ledger:      ledger,
		productRepo: productRepo,
		invoiceRepo: invoiceRepo,
	}
}

// razón estándar de los movimientos de salida generados por facturas.
const saleReason = "venta"

// CreateInvoice ejecuta el flujo completo de facturación.
func (uc *CreateInvoiceUseCase) CreateInvoice(ctx context.Context, identity *auth.Identity, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if identity == nil {
		return nil, domain.ErrUnauthorized
	}
	if !identity.HasPermission(auth.PermBillingCreate) {
		return nil, domain.ErrForbidden
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	// Sucursal efectiva: no-admin siempre factura en su propia sucursal;
	// lo que venga del cliente se descarta.
	branch := in.Branch
	if !identity.IsAdmin() {
		branch = identity.Branch
	}
	if branch == "" {
		return nil, domain.ErrInvalidInput
	}

	// Validación de productos fuera de la transacción (solo lectura).
	productsByID := make(map[string]*entity.Product, len(in.Items))
	for i := range in.Items {
		item := &in.Items[i]
		if item.Product == "" || item.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		if item.Price.IsNegative() || item.Discount.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		if _, seen := productsByID[item.Product]; seen {
			continue
		}
		product, err := uc.productRepo.GetByID(item.Product)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, domain.ErrNotFound
		}
		if product.Branch != branch {
			return nil, domain.ErrForbidden
		}
		productsByID[item.Product] = product
	}

	// Totales por línea: lineTotal = qty*precio - descuento. Un descuento mayor
	// al valor de la línea es un error de datos, no un cargo negativo.
	now := time.Now()
	items := make([]entity.InvoiceItem, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, reqItem := range in.Items {
		product := productsByID[reqItem.Product]
		unitPrice := reqItem.Price
		if unitPrice.IsZero() {
			unitPrice = product.Price
		}
		lineTotal := decimal.NewFromInt(reqItem.Quantity).Mul(unitPrice).Sub(reqItem.Discount)
		if lineTotal.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		subtotal = subtotal.Add(lineTotal)
		items = append(items, entity.InvoiceItem{
			ID:          uuid.New().String(),
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    reqItem.Quantity,
			UnitPrice:   unitPrice,
			Discount:    reqItem.Discount,
			Total:       lineTotal,
		})
	}
	if in.Tax.IsNegative() || in.Discount.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	total := subtotal.Add(in.Tax).Sub(in.Discount)
	if total.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	// Cantidad requerida por producto (un mismo producto puede ir en varias líneas).
	required := make(map[string]int64, len(productsByID))
	for _, item := range items {
		required[item.ProductID] += item.Quantity
	}

	inv := &entity.Invoice{
		ID:            uuid.New().String(),
		Branch:        branch,
		CustomerName:  in.Customer,
		Subtotal:      subtotal,
		Tax:           in.Tax,
		Discount:      in.Discount,
		Total:         total,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: entity.PaymentStatusPending,
		Notes:         in.Notes,
		CreatedBy:     identity.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := uc.txRunner.RunBilling(ctx, func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		invoiceRepo repository.InvoiceRepository,
		counterRepo repository.CounterRepository,
	) error {
		// 1) Consecutivo: incremento-y-lectura atómico en el store. Nunca
		// "count de facturas + 1": dos creadores concurrentes chocarían.
		seq, err := counterRepo.Next(repository.CounterInvoiceNumber)
		if err != nil {
			return fmt.Errorf("consecutivo de factura: %w", err)
		}
		inv.Number = fmt.Sprintf("INV-%06d", seq)

		// 2) Fase de validación: disponibilidad de TODOS los ítems contra el
		// snapshot actual, sin mutar nada. Evita compensaciones en el caso común.
		for productID, qty := range required {
			current, err := productRepo.GetByID(productID)
			if err != nil {
				return err
			}
			if current == nil || !current.IsActive {
				return domain.ErrNotFound
			}
			if current.Stock < qty {
				return &domain.InsufficientStockError{
					ProductID:   productID,
					ProductName: current.Name,
					Available:   current.Stock,
					Requested:   qty,
				}
			}
		}

		// 3) Persistir cabecera y líneas.
		if err := invoiceRepo.Create(inv); err != nil {
			return fmt.Errorf("guardar factura: %w", err)
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
			if err := invoiceRepo.CreateItem(&items[i]); err != nil {
				return fmt.Errorf("guardar línea de factura: %w", err)
			}
		}

		// 4) Fase de commit: decremento condicional por ítem vía el ledger, en
		// orden canónico por producto para que dos facturas concurrentes con los
		// mismos productos adquieran los locks de fila en el mismo orden.
		// Si una carrera entre validación y commit deja algún decremento en cero
		// filas, el error aborta la transacción y el rollback compensa los
		// decrementos ya aplicados y la factura persistida.
		order := make([]int, len(items))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return items[order[a]].ProductID < items[order[b]].ProductID
		})
		for _, i := range order {
			product := productsByID[items[i].ProductID]
			if _, err := uc.ledger.DecrementInTx(productRepo, movementRepo, product,
				items[i].Quantity, entity.MovementTypeOut, saleReason, inv.Number,
				identity.UserID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.Items = items
	return toInvoiceResponse(inv), nil
}

// GetInvoice obtiene una factura por ID con sus líneas, con control de sucursal.
func (uc *CreateInvoiceUseCase) GetInvoice(ctx context.Context, identity *auth.Identity, id string) (*dto.InvoiceResponse, error) {
	if !identity.HasPermission(auth.PermReadInvoices) {
		return nil, domain.ErrForbidden
	}
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if !identity.CanAccessBranch(inv.Branch) {
		return nil, domain.ErrForbidden
	}
	items, err := uc.invoiceRepo.GetItemsByInvoiceID(id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return toInvoiceResponse(inv), nil
}

// ListInvoices lista facturas de la sucursal efectiva.
func (uc *CreateInvoiceUseCase) ListInvoices(ctx context.Context, identity *auth.Identity, branch string, page dto.PageRequest) (*dto.InvoiceListResponse, error) {
	if !identity.HasPermission(auth.PermReadInvoices) {
		return nil, domain.ErrForbidden
	}
	if !identity.IsAdmin() {
		branch = identity.Branch
	}
	page.DefaultPage()
	list, err := uc.invoiceRepo.ListByBranch(branch, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		items = append(items, *toInvoiceResponse(inv))
	}
	return &dto.InvoiceListResponse{
		Items: items,
		Page:  dto.PageResponse{Page: page.Page, Limit: page.Limit},
	}, nil
}

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number,
		Branch:        inv.Branch,
		CustomerName:  inv.CustomerName,
		Subtotal:      inv.Subtotal,
		Tax:           inv.Tax,
		Discount:      inv.Discount,
		Total:         inv.Total,
		PaymentMethod: inv.PaymentMethod,
		PaymentStatus: inv.PaymentStatus,
		Notes:         inv.Notes,
		CreatedBy:     inv.CreatedBy,
		CreatedAt:     inv.CreatedAt,
		Items:         make([]dto.InvoiceItemResponse, 0, len(inv.Items)),
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			Total:       item.Total,
		})
	}
	return resp
}
