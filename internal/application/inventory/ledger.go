package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

// StockLedger es el libro de inventario: toda mutación de stock pasa por aquí y
// deja exactamente un registro en stock_movements. El decremento es una escritura
// condicional atómica en el store ("stock = stock - n WHERE stock >= n"); cero
// filas afectadas significa stock insuficiente, nunca se lee-y-escribe.
type StockLedger struct{}

// NewStockLedger construye el ledger. No guarda estado: opera sobre los
// repositorios de la transacción que le pasa el caller.
func NewStockLedger() *StockLedger {
	return &StockLedger{}
}

// DecrementInTx descuenta quantity del producto y registra el movimiento de salida,
// ambos en la transacción del caller. Si la escritura condicional no afecta filas
// retorna *domain.InsufficientStockError con el disponible releído; la transacción
// del caller hace rollback y ninguna de las dos escrituras queda a medias.
func (l *StockLedger) DecrementInTx(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	product *entity.Product,
	quantity int64,
	movementType, reason, reference, actor string,
	now time.Time,
) (*entity.Product, error) {
	if product == nil || quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if movementType == "" {
		movementType = entity.MovementTypeOut
	}
	updated, err := productRepo.DecrementStock(product.ID, quantity)
	if err != nil {
		return nil, fmt.Errorf("decrementar stock: %w", err)
	}
	if updated == nil {
		// La condición stock >= quantity no se cumplió: releer el disponible
		// solo para informar al caller; no hubo mutación.
		available := product.Stock
		if current, err := productRepo.GetByID(product.ID); err == nil && current != nil {
			available = current.Stock
		}
		return nil, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   available,
			Requested:   quantity,
		}
	}
	mov := &entity.StockMovement{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		Branch:    product.Branch,
		Type:      movementType,
		Quantity:  quantity,
		Reason:    reason,
		Reference: reference,
		CreatedBy: actor,
		CreatedAt: now,
	}
	if err := movementRepo.Create(mov); err != nil {
		// Stock ya decrementado sin su registro en el libro: inconsistencia fatal.
		// Se propaga para que la transacción haga rollback de ambas escrituras.
		return nil, fmt.Errorf("libro de movimientos desincronizado tras decremento de %s: %w", product.ID, err)
	}
	return updated, nil
}

// IncrementInTx suma quantity al producto (reposiciones, correcciones, traslados
// entrantes) y registra el movimiento. Sin chequeo de insuficiencia; solo se exige
// quantity > 0, con lo que el resultado nunca es negativo.
func (l *StockLedger) IncrementInTx(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	product *entity.Product,
	quantity int64,
	movementType, reason, reference, actor string,
	now time.Time,
) (*entity.Product, error) {
	if product == nil || quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if movementType == "" {
		movementType = entity.MovementTypeIn
	}
	updated, err := productRepo.IncrementStock(product.ID, quantity)
	if err != nil {
		return nil, fmt.Errorf("incrementar stock: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}
	mov := &entity.StockMovement{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		Branch:    product.Branch,
		Type:      movementType,
		Quantity:  quantity,
		Reason:    reason,
		Reference: reference,
		CreatedBy: actor,
		CreatedAt: now,
	}
	if err := movementRepo.Create(mov); err != nil {
		return nil, fmt.Errorf("libro de movimientos desincronizado tras incremento de %s: %w", product.ID, err)
	}
	return updated, nil
}
