package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/tabular"
)

const identityTable = "auth_identities"

type IdentityRepository struct {
	store tabular.Store
}

func NewIdentityRepository(store tabular.Store) *IdentityRepository {
	return &IdentityRepository{store: store}
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (model.Identity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Identity{}, model.ErrIdentityNotFound
	}
	return r.findOne(ctx, tabular.Eq("id", id))
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (model.Identity, error) {
	return r.findOne(ctx, tabular.Eq("email", normalizeEmail(email)))
}

func (r *IdentityRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.store.Count(ctx, identityTable, nil)
	if err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return n, nil
}

func (r *IdentityRepository) Create(ctx context.Context, identity model.Identity) (model.Identity, error) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}
	identity.Email = normalizeEmail(identity.Email)

	_, err := r.store.Insert(ctx, identityTable, tabular.Row{
		"id":            identity.ID,
		"email":         identity.Email,
		"name":          identity.Name,
		"password_hash": identity.PasswordHash,
		"role":          identity.Role,
		"created_at":    identity.CreatedAt,
	})
	if errors.Is(err, model.ErrConstraintViolation) {
		return model.Identity{}, model.ErrIdentityExists
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("create identity: %w", err)
	}
	return identity, nil
}

func (r *IdentityRepository) findOne(ctx context.Context, cond tabular.Cond) (model.Identity, error) {
	rows, err := r.store.Select(ctx, identityTable, tabular.Query{Filter: tabular.Where(cond), Limit: 1})
	if err != nil {
		return model.Identity{}, fmt.Errorf("find identity: %w", err)
	}
	if len(rows) == 0 {
		return model.Identity{}, model.ErrIdentityNotFound
	}

	row := rows[0]
	return model.Identity{
		ID:           asString(row["id"]),
		Email:        asString(row["email"]),
		Name:         asString(row["name"]),
		PasswordHash: asString(row["password_hash"]),
		Role:         asString(row["role"]),
		CreatedAt:    asTime(row["created_at"]),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
