package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/tabular"
)

const auditTable = "audit_entries"

type AuditRepository struct {
	store tabular.Store
}

func NewAuditRepository(store tabular.Store) *AuditRepository {
	return &AuditRepository{store: store}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	occurredAt, err := tabular.ParseTime(entry.OccurredAt)
	if err != nil || occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	row := tabular.Row{
		"id":             uuid.NewString(),
		"action":         entry.Action,
		"occurred_at":    occurredAt,
		"actor_user_id":  entry.Actor.UserID,
		"actor_username": entry.Actor.Username,
		"actor_role":     entry.Actor.Role,
		"actor_ip":       entry.Actor.IP,
		"status":         entry.Status,
		"resource":       entry.Resource,
		"error_text":     entry.Error,
	}
	if entry.Before != nil {
		row["before_data"] = entry.Before
	}
	if entry.After != nil {
		row["after_data"] = entry.After
	}

	if _, err := r.store.Insert(ctx, auditTable, row); err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	filter := tabular.Filter{}
	if action := strings.TrimSpace(query.Action); action != "" {
		filter = append(filter, tabular.Eq("action", strings.ToLower(action)))
	}
	if actorID := strings.TrimSpace(query.ActorID); actorID != "" {
		filter = append(filter, tabular.Eq("actor_user_id", actorID))
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		filter = append(filter, tabular.Eq("status", strings.ToLower(status)))
	}
	if resource := strings.TrimSpace(query.Resource); resource != "" {
		filter = append(filter, tabular.Eq("resource", resource))
	}

	total, err := r.store.Count(ctx, auditTable, filter)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (int(total) + query.Limit - 1) / query.Limit
	}
	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: int(total), TotalPages: totalPages}

	rows, err := r.store.Select(ctx, auditTable, tabular.Query{
		Filter: filter,
		Order:  []tabular.Order{{Column: "occurred_at", Desc: true}, {Column: "id", Desc: true}},
		Limit:  query.Limit,
		Offset: (query.Page - 1) * query.Limit,
	})
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}

	entries := make([]model.AuditEntry, 0, len(rows))
	for _, row := range rows {
		e := model.AuditEntry{
			ID:         asString(row["id"]),
			Action:     asString(row["action"]),
			OccurredAt: asTime(row["occurred_at"]).Format(time.RFC3339Nano),
			Actor: model.AuditActor{
				UserID:   asString(row["actor_user_id"]),
				Username: asString(row["actor_username"]),
				Role:     asString(row["actor_role"]),
				IP:       asString(row["actor_ip"]),
			},
			Status:   asString(row["status"]),
			Resource: asString(row["resource"]),
			Error:    asString(row["error_text"]),
		}

		var before, after any
		if jsonErr := decodeJSON(row["before_data"], &before); jsonErr == nil {
			e.Before = before
		}
		if jsonErr := decodeJSON(row["after_data"], &after); jsonErr == nil {
			e.After = after
		}

		entries = append(entries, e)
	}

	return entries, meta, nil
}
