package repository

import "github.com/jhoicas/pos-sucursales/internal/domain/entity"

// ProductFilter filtros para listar productos.
// Branch vacío = todas las sucursales (solo tiene sentido para admin; los casos de
// uso lo fuerzan a la sucursal de la identidad para no-admin).
type ProductFilter struct {
	Branch   string
	Category string
	Search   string // busca en name, sku, barcode y description (sin acentos)
	Limit    int
	Offset   int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
//
// DecrementStock e IncrementStock son las únicas vías de mutación de Stock y deben
// ser escrituras condicionales atómicas en el store: DecrementStock aplica
// "stock = stock - qty WHERE stock >= qty" y devuelve (nil, nil) si ninguna fila
// fue afectada (stock insuficiente o producto inactivo). Nunca leer-y-escribir.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByBranchAndSKU(branch, sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	SoftDelete(id string) error
	List(filter ProductFilter) ([]*entity.Product, error)
	ListLowStock(branch string) ([]*entity.Product, error)
	DecrementStock(productID string, quantity int64) (*entity.Product, error)
	IncrementStock(productID string, quantity int64) (*entity.Product, error)
}
