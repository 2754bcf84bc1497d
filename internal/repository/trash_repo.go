package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/tabular"
)

const trashTable = "trash"

// TrashRepository is the archive store. An empty origin argument means
// every origin and never becomes a predicate.
type TrashRepository struct {
	store tabular.Store
}

func NewTrashRepository(store tabular.Store) *TrashRepository {
	return &TrashRepository{store: store}
}

func (r *TrashRepository) Create(ctx context.Context, record model.ArchivedRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Payload == nil {
		record.Payload = map[string]any{}
	}

	_, err := r.store.Insert(ctx, trashTable, tabular.Row{
		"id":             record.ID,
		"original_table": record.OriginTable,
		"original_id":    record.OriginID,
		"data":           record.Payload,
		"deleted_at":     record.DeletedAt.UTC(),
		"deleted_by":     record.DeletedBy,
	})
	if err != nil {
		return fmt.Errorf("create trash record: %w", err)
	}
	return nil
}

func (r *TrashRepository) FindByID(ctx context.Context, id string) (model.ArchivedRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.ArchivedRecord{}, model.ErrTrashItemNotFound
	}

	rows, err := r.store.Select(ctx, trashTable, tabular.Query{
		Filter: tabular.Where(tabular.Eq("id", id)),
		Limit:  1,
	})
	if err != nil {
		return model.ArchivedRecord{}, fmt.Errorf("find trash by id: %w", err)
	}
	if len(rows) == 0 {
		return model.ArchivedRecord{}, model.ErrTrashItemNotFound
	}
	return recordFromRow(rows[0])
}

// List returns entries newest first; ties fall back to id so the order is
// stable between calls.
func (r *TrashRepository) List(ctx context.Context, origin string) ([]model.ArchivedRecord, error) {
	rows, err := r.store.Select(ctx, trashTable, tabular.Query{
		Filter: originFilter(origin),
		Order: []tabular.Order{
			{Column: "deleted_at", Desc: true},
			{Column: "id", Desc: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}

	records := make([]model.ArchivedRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Claim reads and removes one entry. Inside a transaction it guarantees
// that only one caller ever receives a given entry.
func (r *TrashRepository) Claim(ctx context.Context, id string) (model.ArchivedRecord, error) {
	rec, err := r.FindByID(ctx, id)
	if err != nil {
		return model.ArchivedRecord{}, err
	}
	if err := r.Delete(ctx, id); err != nil {
		return model.ArchivedRecord{}, err
	}
	return rec, nil
}

func (r *TrashRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.ErrTrashItemNotFound
	}

	n, err := r.store.Delete(ctx, trashTable, tabular.Where(tabular.Eq("id", id)))
	if err != nil {
		return fmt.Errorf("delete trash record: %w", err)
	}
	if n == 0 {
		return model.ErrTrashItemNotFound
	}
	return nil
}

func (r *TrashRepository) DeleteAll(ctx context.Context, origin string) (int64, error) {
	n, err := r.store.Delete(ctx, trashTable, originFilter(origin))
	if err != nil {
		return 0, fmt.Errorf("empty trash records: %w", err)
	}
	return n, nil
}

func (r *TrashRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := r.store.Delete(ctx, trashTable, tabular.Where(tabular.Lt("deleted_at", cutoff.UTC())))
	if err != nil {
		return 0, fmt.Errorf("delete expired trash records: %w", err)
	}
	return n, nil
}

func originFilter(origin string) tabular.Filter {
	if origin == "" {
		return nil
	}
	return tabular.Where(tabular.Eq("original_table", origin))
}

func recordFromRow(row tabular.Row) (model.ArchivedRecord, error) {
	rec := model.ArchivedRecord{
		ID:          asString(row["id"]),
		OriginTable: asString(row["original_table"]),
		OriginID:    asString(row["original_id"]),
		DeletedAt:   asTime(row["deleted_at"]),
	}

	if err := decodeJSON(row["data"], &rec.Payload); err != nil {
		return model.ArchivedRecord{}, fmt.Errorf("decode trash payload %s: %w", rec.ID, err)
	}
	if rec.Payload == nil {
		rec.Payload = map[string]any{}
	}
	if err := decodeJSON(row["deleted_by"], &rec.DeletedBy); err != nil {
		return model.ArchivedRecord{}, fmt.Errorf("decode trash actor %s: %w", rec.ID, err)
	}
	return rec, nil
}
