package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-resell-backoffice/internal/cache"
	"go-resell-backoffice/internal/event"
	"go-resell-backoffice/internal/metrics"
	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/repository"
	"go-resell-backoffice/internal/schema"
	"go-resell-backoffice/internal/tabular"
)

// FilterAll selects every origin. It is never sent to storage as a value.
const FilterAll = "all"

type TrashService struct {
	store    tabular.Store
	registry *schema.Registry
	trash    *repository.TrashRepository
	entities *repository.EntityRepository
	listings listingCache
	bus      event.Bus
	audit    *AuditService
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewTrashService wires the trash operations. listings, bus, audit and m
// may be nil.
func NewTrashService(store tabular.Store, registry *schema.Registry, listings cache.ListingCache, bus event.Bus, audit *AuditService, m *metrics.Metrics) *TrashService {
	return &TrashService{
		store:    store,
		registry: registry,
		trash:    repository.NewTrashRepository(store),
		entities: repository.NewEntityRepository(store),
		listings: listingCache{cache: listings, metrics: m},
		bus:      bus,
		audit:    audit,
		metrics:  m,
		now:      time.Now,
	}
}

// ParseFilter canonicalizes a listing filter. The empty string and "all"
// both select every origin and come back as "".
func (s *TrashService) ParseFilter(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" || trimmed == FilterAll {
		return "", nil
	}
	origin, ok := s.registry.Lookup(trimmed)
	if !ok {
		return "", fmt.Errorf("%w: unknown trash filter %q", model.ErrInvalidInput, raw)
	}
	return origin.Table(), nil
}

func (s *TrashService) Origins() []model.OriginOption {
	kinds := s.registry.Kinds()
	options := make([]model.OriginOption, 0, len(kinds)+1)
	options = append(options, model.OriginOption{Value: FilterAll, DisplayName: "Todos"})
	for _, kind := range kinds {
		options = append(options, model.OriginOption{Value: string(kind), DisplayName: s.registry.DisplayName(string(kind))})
	}
	return options
}

// List returns archived records newest first, decorated with display names
// and labels.
func (s *TrashService) List(ctx context.Context, filter string) (model.TrashListData, error) {
	origin, err := s.ParseFilter(filter)
	if err != nil {
		return model.TrashListData{}, err
	}

	key := origin
	if key == "" {
		key = FilterAll
	}

	var data model.TrashListData
	err = s.listings.load(ctx, cache.ScopeTrash, key, &data, func() (any, error) {
		records, err := s.trash.List(ctx, origin)
		if err != nil {
			return nil, err
		}

		items := make([]model.TrashItem, 0, len(records))
		for _, rec := range records {
			items = append(items, model.TrashItem{
				ArchivedRecord: rec,
				DisplayName:    s.registry.DisplayName(rec.OriginTable),
				Label:          s.registry.Label(rec.OriginTable, rec.OriginID, rec.Payload),
			})
		}
		return model.TrashListData{Filter: key, Items: items}, nil
	})
	if err != nil {
		return model.TrashListData{}, err
	}
	return data, nil
}

// Archive moves a row the caller already holds into the trash. The
// dependents check, the archive write and the origin delete share one
// transaction and commit together or not at all.
func (s *TrashService) Archive(ctx context.Context, origin *schema.Origin, row map[string]any, deletedAt time.Time, actor model.AuditActor) (model.ArchivedRecord, error) {
	originID := fmt.Sprint(row[origin.PrimaryKey])
	if row[origin.PrimaryKey] == nil || originID == "" {
		return model.ArchivedRecord{}, fmt.Errorf("%w: %s row without %s", model.ErrInvalidInput, origin.Table(), origin.PrimaryKey)
	}

	record := model.ArchivedRecord{
		ID:          uuid.NewString(),
		OriginTable: origin.Table(),
		OriginID:    originID,
		Payload:     row,
		DeletedAt:   deletedAt.UTC(),
		DeletedBy:   actor,
	}

	err := s.store.InTx(ctx, func(tx tabular.Store) error {
		if err := s.checkDependents(ctx, tx, origin, originID); err != nil {
			return err
		}
		trash := repository.NewTrashRepository(tx)
		if err := trash.Create(ctx, record); err != nil {
			return err
		}
		return repository.NewEntityRepository(tx).Delete(ctx, origin.Table(), origin.PrimaryKey, originID)
	})
	if err != nil {
		return model.ArchivedRecord{}, err
	}
	return record, nil
}

// checkDependents refuses to archive a row that other rows still reference.
// The foreign keys would reject the delete anyway; this names the dependent
// table for the operator.
func (s *TrashService) checkDependents(ctx context.Context, tx tabular.Store, origin *schema.Origin, originID string) error {
	entities := repository.NewEntityRepository(tx)
	for _, dep := range s.registry.Dependents(origin.Table()) {
		depOrigin, ok := s.registry.Lookup(string(dep.Origin))
		if !ok {
			continue
		}
		exists, err := entities.Exists(ctx, depOrigin.Table(), dep.Column, originID)
		if err != nil {
			return err
		}
		if exists {
			return &DependentRowsError{Dependent: depOrigin}
		}
	}
	return nil
}

// SoftDelete archives the live row table/id and removes it from its table.
func (s *TrashService) SoftDelete(ctx context.Context, table string, id string, actor model.AuditActor) (result model.DeleteResult, err error) {
	started := time.Now()
	resource := table + "/" + id
	var before any
	defer func() {
		s.finish(ctx, "delete", started, actor, resource, before, nil, err)
	}()

	origin, ok := s.registry.Lookup(table)
	if !ok {
		return model.DeleteResult{}, fmt.Errorf("%w: %s", model.ErrUnknownTable, table)
	}

	row, err := s.entities.Get(ctx, origin.Table(), origin.PrimaryKey, id)
	if err != nil {
		return model.DeleteResult{}, err
	}
	before = row

	record, err := s.Archive(ctx, origin, row, s.now(), actor)
	var depErr *DependentRowsError
	if errors.As(err, &depErr) {
		return model.DeleteResult{}, depErr
	}
	if err != nil {
		return model.DeleteResult{}, fmt.Errorf("soft delete %s: %w", resource, err)
	}

	s.listings.invalidate(ctx, cache.ScopeTrash, cache.TableScope(origin.Table()))
	s.publish(event.TypeTrashArchived, origin.Table(), actor, record)

	label := origin.Label(record.OriginID, record.Payload)
	return model.DeleteResult{Record: record, Notification: deletedNotification(origin, label)}, nil
}

// Restore moves an archived row back into its origin table. A row the
// table rejects leaves the entry in the trash for a later retry.
func (s *TrashService) Restore(ctx context.Context, id string, actor model.AuditActor) (result model.RestoreResult, err error) {
	started := time.Now()
	resource := "trash/" + id
	var before, after any
	defer func() {
		s.finish(ctx, "restore", started, actor, resource, before, after, err)
	}()

	record, err := s.trash.FindByID(ctx, id)
	if err != nil {
		return model.RestoreResult{}, err
	}
	before = record
	resource = record.OriginTable + "/" + record.OriginID

	origin, ok := s.registry.Lookup(record.OriginTable)
	if !ok {
		return model.RestoreResult{}, fmt.Errorf("%w: %w: %s", model.ErrConstraintViolation, model.ErrUnknownTable, record.OriginTable)
	}

	row, err := s.registry.Prepare(origin.Table(), record.Payload)
	if err != nil {
		return model.RestoreResult{}, fmt.Errorf("restore %s: %w", resource, err)
	}
	if _, present := row[origin.PrimaryKey]; !present {
		row[origin.PrimaryKey] = record.OriginID
	}

	var inserted tabular.Row
	err = s.store.InTx(ctx, func(tx tabular.Store) error {
		if _, err := repository.NewTrashRepository(tx).Claim(ctx, id); err != nil {
			return err
		}
		var insertErr error
		inserted, insertErr = tx.Insert(ctx, origin.Table(), row)
		return insertErr
	})
	if err != nil {
		return model.RestoreResult{}, fmt.Errorf("restore %s: %w", resource, err)
	}
	after = inserted

	s.listings.invalidate(ctx, cache.ScopeTrash, cache.TableScope(origin.Table()))
	s.publish(event.TypeTrashRestored, origin.Table(), actor, record)

	return model.RestoreResult{
		Record:       record,
		Row:          inserted,
		Notification: restoredNotification(origin),
	}, nil
}

// PurgeOne permanently removes one archive entry.
func (s *TrashService) PurgeOne(ctx context.Context, id string, actor model.AuditActor) (result model.PurgeResult, err error) {
	started := time.Now()
	resource := "trash/" + id
	var before any
	defer func() {
		s.finish(ctx, "purge", started, actor, resource, before, nil, err)
	}()

	record, err := s.trash.FindByID(ctx, id)
	if err != nil {
		return model.PurgeResult{}, err
	}
	before = record

	if err := s.trash.Delete(ctx, id); err != nil {
		return model.PurgeResult{}, err
	}

	s.listings.invalidate(ctx, cache.ScopeTrash)
	s.publish(event.TypeTrashPurged, record.OriginTable, actor, record)

	return model.PurgeResult{DeletedCount: 1, Notification: purgedNotification()}, nil
}

// PurgeAll permanently removes every entry matching filter in a single
// statement. "all" removes the whole archive.
func (s *TrashService) PurgeAll(ctx context.Context, filter string, actor model.AuditActor) (result model.PurgeResult, err error) {
	started := time.Now()
	resource := "trash?table=" + filter
	defer func() {
		var after any
		if err == nil {
			after = map[string]any{"deleted_count": result.DeletedCount}
		}
		s.finish(ctx, "empty", started, actor, resource, nil, after, err)
	}()

	origin, err := s.ParseFilter(filter)
	if err != nil {
		return model.PurgeResult{}, err
	}

	n, err := s.trash.DeleteAll(ctx, origin)
	if err != nil {
		return model.PurgeResult{}, err
	}

	s.listings.invalidate(ctx, cache.ScopeTrash)
	s.publish(event.TypeTrashEmptied, origin, actor, map[string]any{"deleted_count": n})

	key, displayName := FilterAll, ""
	if origin != "" {
		key, displayName = origin, s.registry.DisplayName(origin)
	}
	return model.PurgeResult{
		Filter:       key,
		DeletedCount: n,
		Notification: emptiedNotification(n, displayName),
	}, nil
}

// Sweep purges entries archived more than retention ago.
func (s *TrashService) Sweep(ctx context.Context, retention time.Duration) (n int64, err error) {
	started := time.Now()
	actor := model.AuditActor{Username: "system", Role: "system"}
	defer func() {
		if n > 0 || err != nil {
			s.finish(ctx, "sweep", started, actor, "trash", nil, map[string]any{"deleted_count": n}, err)
		}
	}()

	if retention <= 0 {
		return 0, fmt.Errorf("%w: retention must be positive", model.ErrInvalidInput)
	}

	n, err = s.trash.DeleteOlderThan(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.listings.invalidate(ctx, cache.ScopeTrash)
		s.publish(event.TypeTrashExpired, "", actor, map[string]any{"deleted_count": n})
	}
	return n, nil
}

// StartSweeper runs Sweep every interval until ctx is done. A zero interval
// or retention disables it.
func (s *TrashService) StartSweeper(ctx context.Context, retention time.Duration, interval time.Duration) {
	if retention <= 0 || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.Sweep(ctx, retention)
				if err != nil {
					slog.Error("trash retention sweep failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("trash retention sweep", "purged", n, "retention", retention.String())
				}
			}
		}
	}()
}

func (s *TrashService) publish(typ event.Type, origin string, actor model.AuditActor, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(typ, origin, actor.UserID, payload))
}

func (s *TrashService) finish(ctx context.Context, operation string, started time.Time, actor model.AuditActor, resource string, before any, after any, err error) {
	s.metrics.ObserveOperation(operation, started, err)

	if err != nil && !errors.Is(err, model.ErrTrashItemNotFound) && !errors.Is(err, model.ErrInvalidInput) {
		slog.Warn("trash operation failed", "operation", operation, "resource", resource, "error", err)
	}
	s.audit.Record(ctx, model.AuditEntry{
		Action:   "trash." + operation,
		Actor:    actor,
		Resource: resource,
		Before:   before,
		After:    after,
	}, err)
}
