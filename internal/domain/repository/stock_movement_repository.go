package repository

import "github.com/jhoicas/pos-sucursales/internal/domain/entity"

// StockMovementRepository define el puerto de persistencia para el libro de
// movimientos de inventario (append-only; sin update ni delete).
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	ListByProduct(productID string, limit, offset int) ([]*entity.StockMovement, error)
	ListByBranch(branch string, limit, offset int) ([]*entity.StockMovement, error)
}
