package repository

import (
	"context"
	"fmt"
	"time"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/tabular"
)

const refreshTokenTable = "refresh_tokens"

type TokenRepository struct {
	store tabular.Store
}

func NewTokenRepository(store tabular.Store) *TokenRepository {
	return &TokenRepository{store: store}
}

func (r *TokenRepository) Store(ctx context.Context, token string, identityID string, expiresAt time.Time) error {
	_, err := r.store.Insert(ctx, refreshTokenTable, tabular.Row{
		"token":       token,
		"identity_id": identityID,
		"created_at":  time.Now().UTC(),
		"expires_at":  expiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Validate returns the owning identity of an unexpired token.
func (r *TokenRepository) Validate(ctx context.Context, token string) (string, error) {
	rows, err := r.store.Select(ctx, refreshTokenTable, tabular.Query{
		Filter: tabular.Where(tabular.Eq("token", token)),
		Limit:  1,
	})
	if err != nil {
		return "", fmt.Errorf("validate refresh token: %w", err)
	}
	if len(rows) == 0 || !asTime(rows[0]["expires_at"]).After(time.Now().UTC()) {
		return "", model.ErrTokenNotFound
	}
	return asString(rows[0]["identity_id"]), nil
}

func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	if _, err := r.store.Delete(ctx, refreshTokenTable, tabular.Where(tabular.Eq("token", token))); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) RevokeAllForIdentity(ctx context.Context, identityID string) error {
	if _, err := r.store.Delete(ctx, refreshTokenTable, tabular.Where(tabular.Eq("identity_id", identityID))); err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return nil
}

func (r *TokenRepository) CleanExpired(ctx context.Context) (int64, error) {
	n, err := r.store.Delete(ctx, refreshTokenTable, tabular.Where(tabular.Lt("expires_at", time.Now().UTC())))
	if err != nil {
		return 0, fmt.Errorf("clean expired tokens: %w", err)
	}
	return n, nil
}
