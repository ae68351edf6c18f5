package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-sucursales/internal/application/dto"
	"github.com/jhoicas/pos-sucursales/internal/application/inventory"
	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/auth"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
	"github.com/jhoicas/pos-sucursales/pkg/normalize"
	"github.com/jhoicas/pos-sucursales/pkg/qr"
)

// ProductUseCase es la capa de acceso al catálogo, con scope por sucursal.
// Toda operación resuelve primero la sucursal efectiva: admin ve/afecta todas
// (o el filtro explícito); no-admin queda forzado a la sucursal de su identidad
// y cualquier sucursal enviada por el cliente se descarta. Stock no se toca aquí:
// solo muta vía el libro de movimientos.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner inventory.TxRunner
	ledger   *inventory.StockLedger
}

// NewProductUseCase construye el caso de uso. El txRunner y el ledger solo se
// usan para registrar el stock inicial de un producto nuevo en el libro.
func NewProductUseCase(repo repository.ProductRepository, txRunner inventory.TxRunner, ledger *inventory.StockLedger) *ProductUseCase {
	return &ProductUseCase{repo: repo, txRunner: txRunner, ledger: ledger}
}

// effectiveBranch resuelve la sucursal efectiva de una operación.
func effectiveBranch(identity *auth.Identity, requested string) (string, error) {
	if identity == nil {
		return "", domain.ErrUnauthorized
	}
	if identity.IsAdmin() {
		return requested, nil // vacío = todas las sucursales
	}
	if identity.Branch == "" {
		return "", domain.ErrForbidden
	}
	return identity.Branch, nil
}

// Create crea un producto en la sucursal efectiva. SKU único por sucursal:
// duplicado → ErrDuplicate, sin mutación. El stock inicial entra al libro como
// movimiento tipo in en la misma transacción que el producto.
func (uc *ProductUseCase) Create(ctx context.Context, identity *auth.Identity, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !identity.HasPermission(auth.PermWriteProducts) {
		return nil, domain.ErrForbidden
	}
	branch, err := effectiveBranch(identity, in.Branch)
	if err != nil {
		return nil, err
	}
	if branch == "" {
		return nil, domain.ErrInvalidInput // admin debe indicar la sucursal al crear
	}
	if in.SKU == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Price.IsNegative() || in.CostPrice.IsNegative() || in.Stock < 0 || in.MinStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.MaxStock > 0 && in.MaxStock < in.MinStock {
		return nil, domain.ErrInvalidInput
	}

	existing, err := uc.repo.GetByBranchAndSKU(branch, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		Branch:      branch,
		SKU:         in.SKU,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Barcode:     in.Barcode,
		Price:       in.Price,
		CostPrice:   in.CostPrice,
		Stock:       0,
		MinStock:    in.MinStock,
		MaxStock:    in.MaxStock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
	) error {
		if err := productRepo.Create(product); err != nil {
			return err
		}
		if in.Stock > 0 {
			// El libro arranca consistente: stock inicial = primer movimiento in.
			updated, err := uc.ledger.IncrementInTx(productRepo, movementRepo, product,
				in.Stock, entity.MovementTypeIn, "stock inicial", "", identity.UserID, now)
			if err != nil {
				return err
			}
			product.Stock = updated.Stock
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto con control de sucursal.
func (uc *ProductUseCase) GetByID(identity *auth.Identity, id string) (*dto.ProductResponse, error) {
	if !identity.HasPermission(auth.PermReadProducts) {
		return nil, domain.ErrForbidden
	}
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, domain.ErrNotFound
	}
	if !identity.CanAccessBranch(product.Branch) {
		return nil, domain.ErrForbidden
	}
	return toProductResponse(product), nil
}

// List lista productos de la sucursal efectiva con filtros de categoría y
// búsqueda de texto (sin acentos) sobre name/sku/barcode/description.
func (uc *ProductUseCase) List(identity *auth.Identity, in dto.ListProductsQuery) (*dto.ProductListResponse, error) {
	if !identity.HasPermission(auth.PermReadProducts) {
		return nil, domain.ErrForbidden
	}
	branch, err := effectiveBranch(identity, in.Branch)
	if err != nil {
		return nil, err
	}
	in.DefaultPage()
	list, err := uc.repo.List(repository.ProductFilter{
		Branch:   branch,
		Category: in.Category,
		Search:   normalize.SearchTerm(in.Search),
		Limit:    in.Limit,
		Offset:   in.Offset(),
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Page: in.Page, Limit: in.Limit},
	}, nil
}

// ListLowStock lista productos en o por debajo de su stock mínimo (reposición).
func (uc *ProductUseCase) ListLowStock(identity *auth.Identity, branch string) ([]dto.ProductResponse, error) {
	if !identity.HasPermission(auth.PermReadProducts) {
		return nil, domain.ErrForbidden
	}
	effective, err := effectiveBranch(identity, branch)
	if err != nil {
		return nil, err
	}
	list, err := uc.repo.ListLowStock(effective)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return items, nil
}

// Update actualiza campos de catálogo. Nunca toca Stock.
func (uc *ProductUseCase) Update(identity *auth.Identity, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if !identity.HasPermission(auth.PermWriteProducts) {
		return nil, domain.ErrForbidden
	}
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, domain.ErrNotFound
	}
	if !identity.CanAccessBranch(product.Branch) {
		return nil, domain.ErrForbidden
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Barcode != nil {
		product.Barcode = *in.Barcode
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.Price = *in.Price
	}
	if in.CostPrice != nil {
		if in.CostPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.CostPrice = *in.CostPrice
	}
	if in.MinStock != nil {
		product.MinStock = *in.MinStock
	}
	if in.MaxStock != nil {
		product.MaxStock = *in.MaxStock
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Delete desactiva el producto (borrado lógico). Nunca hay borrado físico.
func (uc *ProductUseCase) Delete(identity *auth.Identity, id string) error {
	if !identity.HasPermission(auth.PermDeleteProducts) {
		return domain.ErrForbidden
	}
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return domain.ErrNotFound
	}
	if !identity.CanAccessBranch(product.Branch) {
		return domain.ErrForbidden
	}
	return uc.repo.SoftDelete(id)
}

// QRPayload construye el payload QR JSON del producto para el encoder externo.
func (uc *ProductUseCase) QRPayload(identity *auth.Identity, id string) ([]byte, error) {
	if !identity.HasPermission(auth.PermReadProducts) {
		return nil, domain.ErrForbidden
	}
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, domain.ErrNotFound
	}
	if !identity.CanAccessBranch(product.Branch) {
		return nil, domain.ErrForbidden
	}
	if !product.Price.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	return qr.Encode(qr.ProductPayload{
		Type:   qr.PayloadTypeProduct,
		ID:     product.ID,
		SKU:    product.SKU,
		Name:   product.Name,
		Price:  product.Price,
		Branch: product.Branch,
	})
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		Branch:      p.Branch,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Barcode:     p.Barcode,
		Price:       p.Price,
		CostPrice:   p.CostPrice,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		MaxStock:    p.MaxStock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
