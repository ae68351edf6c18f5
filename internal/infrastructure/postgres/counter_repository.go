package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo secuencias nombradas sobre la tabla counters.
type CounterRepo struct {
	q Querier
}

func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

// Next incrementa y lee en una sola sentencia atómica. El upsert crea la
// secuencia en 1 la primera vez; bajo concurrencia cada llamada recibe un valor
// distinto (el lock de fila serializa el incremento).
func (r *CounterRepo) Next(name string) (int64, error) {
	query := `
		INSERT INTO counters (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value`
	var value int64
	if err := r.q.QueryRow(context.Background(), query, name).Scan(&value); err != nil {
		return 0, fmt.Errorf("next counter %s: %w", name, err)
	}
	return value, nil
}
