package inventory

import (
	"context"

	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción del store con repositorios de
// producto y movimientos atados a la misma transacción. Commit si fn retorna nil,
// Rollback en caso contrario.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
	) error) error
}
