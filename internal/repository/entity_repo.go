package repository

import (
	"context"
	"fmt"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/tabular"
)

// EntityRepository reads and writes rows of the back-office entity tables.
// Table names are checked against the schema registry by callers.
type EntityRepository struct {
	store tabular.Store
}

func NewEntityRepository(store tabular.Store) *EntityRepository {
	return &EntityRepository{store: store}
}

func (r *EntityRepository) List(ctx context.Context, table string) ([]tabular.Row, error) {
	rows, err := r.store.Select(ctx, table, tabular.Query{
		Order: []tabular.Order{{Column: "created_at", Desc: true}, {Column: "id", Desc: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	if rows == nil {
		rows = []tabular.Row{}
	}
	return rows, nil
}

func (r *EntityRepository) Get(ctx context.Context, table string, pk string, id string) (tabular.Row, error) {
	rows, err := r.store.Select(ctx, table, tabular.Query{
		Filter: tabular.Where(tabular.Eq(pk, id)),
		Limit:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", table, id, err)
	}
	if len(rows) == 0 {
		return nil, model.ErrRowNotFound
	}
	return rows[0], nil
}

// Exists reports whether any row of table has column equal to value.
func (r *EntityRepository) Exists(ctx context.Context, table string, column string, value any) (bool, error) {
	n, err := r.store.Count(ctx, table, tabular.Where(tabular.Eq(column, value)))
	if err != nil {
		return false, fmt.Errorf("check %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}

func (r *EntityRepository) Create(ctx context.Context, table string, row tabular.Row) (tabular.Row, error) {
	inserted, err := r.store.Insert(ctx, table, row)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	return inserted, nil
}

func (r *EntityRepository) Delete(ctx context.Context, table string, pk string, id string) error {
	n, err := r.store.Delete(ctx, table, tabular.Where(tabular.Eq(pk, id)))
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return model.ErrRowNotFound
	}
	return nil
}
