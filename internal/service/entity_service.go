package service

import (
	"context"
	"fmt"
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

// EntityService lists and creates rows of the registered entity tables.
// Deletion goes through TrashService.SoftDelete.
type EntityService struct {
	registry *schema.Registry
	entities *repository.EntityRepository
	listings listingCache
	bus      event.Bus
	audit    *AuditService
	metrics  *metrics.Metrics
}

func NewEntityService(store tabular.Store, registry *schema.Registry, listings cache.ListingCache, bus event.Bus, audit *AuditService, m *metrics.Metrics) *EntityService {
	return &EntityService{
		registry: registry,
		entities: repository.NewEntityRepository(store),
		listings: listingCache{cache: listings, metrics: m},
		bus:      bus,
		audit:    audit,
		metrics:  m,
	}
}

func (s *EntityService) lookup(table string) (*schema.Origin, error) {
	origin, ok := s.registry.Lookup(table)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownTable, table)
	}
	return origin, nil
}

func (s *EntityService) List(ctx context.Context, table string) ([]map[string]any, error) {
	origin, err := s.lookup(table)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	err = s.listings.load(ctx, cache.TableScope(origin.Table()), "list", &rows, func() (any, error) {
		return s.entities.List(ctx, origin.Table())
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// Create validates row against the table schema before inserting it.
func (s *EntityService) Create(ctx context.Context, table string, row map[string]any, actor model.AuditActor) (result model.CreateResult, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveOperation("create", started, err)
		entry := model.AuditEntry{Action: "entity.create", Actor: actor, Resource: table}
		if result.Row != nil {
			entry.After = result.Row
		}
		s.audit.Record(ctx, entry, err)
	}()

	origin, err := s.lookup(table)
	if err != nil {
		return model.CreateResult{}, err
	}
	if row == nil {
		return model.CreateResult{}, fmt.Errorf("%w: row is required", model.ErrInvalidInput)
	}

	fields := make(map[string]any, len(row)+1)
	for k, v := range row {
		fields[k] = v
	}
	if _, ok := fields[origin.PrimaryKey]; !ok {
		fields[origin.PrimaryKey] = uuid.NewString()
	}

	prepared, err := s.registry.Prepare(origin.Table(), fields)
	if err != nil {
		return model.CreateResult{}, err
	}

	inserted, err := s.entities.Create(ctx, origin.Table(), prepared)
	if err != nil {
		return model.CreateResult{}, err
	}

	s.listings.invalidate(ctx, cache.TableScope(origin.Table()))
	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeEntityCreated, origin.Table(), actor.UserID, inserted))
	}

	return model.CreateResult{
		Table:        origin.Table(),
		Row:          inserted,
		Notification: createdNotification(origin),
	}, nil
}
