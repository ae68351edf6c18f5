package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/pos-sucursales/internal/application/dto"
	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/auth"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

// RegisterMovementUseCase registra movimientos manuales de inventario
// (in, out, transfer) de forma transaccional a través del StockLedger.
type RegisterMovementUseCase struct {
	txRunner     TxRunner
	ledger       *StockLedger
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	ledger *StockLedger,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:     txRunner,
		ledger:       ledger,
		productRepo:  productRepo,
		movementRepo: movementRepo,
	}
}

// RegisterMovement valida identidad, producto y sucursal, y aplica el movimiento
// dentro de una transacción. transfer descuenta del producto origen y suma al
// producto equivalente de la sucursal destino, con dos registros en el libro.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, identity *auth.Identity, in dto.RegisterMovementRequest) error {
	if !identity.HasPermission(auth.PermWriteInventory) {
		return domain.ErrForbidden
	}
	if in.Product == "" || in.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	switch in.Type {
	case entity.MovementTypeIn, entity.MovementTypeOut:
	case entity.MovementTypeTransfer:
		if in.ToProduct == "" || in.ToProduct == in.Product {
			return domain.ErrInvalidInput
		}
	default:
		return domain.ErrInvalidInput
	}

	product, err := uc.productRepo.GetByID(in.Product)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return domain.ErrNotFound
	}
	if !identity.CanAccessBranch(product.Branch) {
		return domain.ErrForbidden
	}

	var dest *entity.Product
	if in.Type == entity.MovementTypeTransfer {
		dest, err = uc.productRepo.GetByID(in.ToProduct)
		if err != nil {
			return err
		}
		if dest == nil || !dest.IsActive {
			return domain.ErrNotFound
		}
		if !identity.CanAccessBranch(dest.Branch) {
			return domain.ErrForbidden
		}
	}

	now := time.Now()
	return uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
	) error {
		switch in.Type {
		case entity.MovementTypeIn:
			_, err := uc.ledger.IncrementInTx(productRepo, movementRepo, product,
				in.Quantity, entity.MovementTypeIn, in.Reason, in.Reference, identity.UserID, now)
			return err
		case entity.MovementTypeOut:
			_, err := uc.ledger.DecrementInTx(productRepo, movementRepo, product,
				in.Quantity, entity.MovementTypeOut, in.Reason, in.Reference, identity.UserID, now)
			return err
		case entity.MovementTypeTransfer:
			// Salida en origen y entrada en destino, misma transacción.
			if _, err := uc.ledger.DecrementInTx(productRepo, movementRepo, product,
				in.Quantity, entity.MovementTypeTransfer, in.Reason, in.Reference, identity.UserID, now); err != nil {
				return err
			}
			if _, err := uc.ledger.IncrementInTx(productRepo, movementRepo, dest,
				in.Quantity, entity.MovementTypeTransfer, in.Reason, in.Reference, identity.UserID, now); err != nil {
				return err
			}
			return nil
		}
		return domain.ErrInvalidInput
	})
}

// ListByProduct lista el libro de movimientos de un producto (auditoría).
func (uc *RegisterMovementUseCase) ListByProduct(identity *auth.Identity, productID string, page dto.PageRequest) (*dto.MovementListResponse, error) {
	if !identity.HasPermission(auth.PermReadInventory) {
		return nil, domain.ErrForbidden
	}
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if !identity.CanAccessBranch(product.Branch) {
		return nil, domain.ErrForbidden
	}
	page.DefaultPage()
	list, err := uc.movementRepo.ListByProduct(productID, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Page: page.Page, Limit: page.Limit},
	}, nil
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		Branch:    m.Branch,
		Type:      m.Type,
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		Reference: m.Reference,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}
