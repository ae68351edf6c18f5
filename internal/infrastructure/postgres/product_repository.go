package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación de ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, branch, sku, name, description, category, barcode,
	price, cost_price, stock, min_stock, max_stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.Branch, &p.SKU, &p.Name, &p.Description, &p.Category, &p.Barcode,
		&p.Price, &p.CostPrice, &p.Stock, &p.MinStock, &p.MaxStock, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un producto nuevo. SKU duplicado en la sucursal → ErrDuplicate.
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO products (id, branch, sku, name, description, category, barcode,
			price, cost_price, stock, min_stock, max_stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.Branch, product.SKU, product.Name, product.Description,
		product.Category, product.Barcode, product.Price, product.CostPrice,
		product.Stock, product.MinStock, product.MaxStock, product.IsActive,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID. (nil, nil) si no existe.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByBranchAndSKU obtiene un producto activo por sucursal y SKU.
func (r *ProductRepo) GetByBranchAndSKU(branch, sku string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE branch = $1 AND sku = $2 AND is_active`
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, branch, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by sku: %w", err)
	}
	return p, nil
}

// Update actualiza campos de catálogo. Stock queda fuera: solo muta vía
// DecrementStock/IncrementStock.
func (r *ProductRepo) Update(product *entity.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, category = $4, barcode = $5,
		    price = $6, cost_price = $7, min_stock = $8, max_stock = $9, updated_at = $10
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		product.ID, product.Name, product.Description, product.Category, product.Barcode,
		product.Price, product.CostPrice, product.MinStock, product.MaxStock, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete desactiva el producto (is_active = false). Sin borrado físico.
func (r *ProductRepo) SoftDelete(id string) error {
	query := `UPDATE products SET is_active = false, updated_at = now() WHERE id = $1 AND is_active`
	cmd, err := r.q.Exec(context.Background(), query, id)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos activos con filtros de sucursal, categoría y búsqueda de
// texto sin acentos (las columnas se normalizan con unaccent+lower en el índice).
func (r *ProductRepo) List(filter repository.ProductFilter) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active`
	args := []any{}
	n := 0
	if filter.Branch != "" {
		n++
		query += fmt.Sprintf(" AND branch = $%d", n)
		args = append(args, filter.Branch)
	}
	if filter.Category != "" {
		n++
		query += fmt.Sprintf(" AND category = $%d", n)
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		n++
		query += fmt.Sprintf(` AND (lower(unaccent(name)) LIKE $%d
			OR lower(sku) LIKE $%d
			OR lower(barcode) LIKE $%d
			OR lower(unaccent(description)) LIKE $%d)`, n, n, n, n)
		args = append(args, "%"+filter.Search+"%")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListLowStock lista productos activos con stock en o por debajo del mínimo.
func (r *ProductRepo) ListLowStock(branch string) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE is_active AND min_stock > 0 AND stock <= min_stock`
	args := []any{}
	if branch != "" {
		query += " AND branch = $1"
		args = append(args, branch)
	}
	query += " ORDER BY stock"
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// DecrementStock aplica el decremento condicional atómico: una sola sentencia
// evaluada por el store, "stock = stock - n WHERE stock >= n". Cero filas
// afectadas (stock insuficiente, producto inexistente o inactivo) → (nil, nil).
// Dos facturas concurrentes por la última unidad jamás pueden ganar ambas.
func (r *ProductRepo) DecrementStock(productID string, quantity int64) (*entity.Product, error) {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND is_active AND stock >= $2
		RETURNING ` + productColumns
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, productID, quantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	return p, nil
}

// IncrementStock suma quantity al stock. (nil, nil) si el producto no existe o
// está inactivo.
func (r *ProductRepo) IncrementStock(productID string, quantity int64) (*entity.Product, error) {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING ` + productColumns
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, productID, quantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("increment stock: %w", err)
	}
	return p, nil
}

func collectProducts(rows pgx.Rows) ([]*entity.Product, error) {
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return list, nil
}
