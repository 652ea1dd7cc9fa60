package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
)

type grantRepository struct {
	BaseRepository
}

func (r *grantRepository) Upsert(ctx context.Context, grant *model.PermissionGrant) error {
	query := `
		INSERT INTO grants (patient, grantee, level, expires_at, purpose, active, granted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (patient, grantee) DO UPDATE SET
			level = EXCLUDED.level,
			expires_at = EXCLUDED.expires_at,
			purpose = EXCLUDED.purpose,
			active = EXCLUDED.active,
			granted_at = EXCLUDED.granted_at
	`

	_, err := r.GetDB().ExecContext(ctx, query,
		grant.Patient,
		grant.Grantee,
		grant.Level,
		grant.ExpiresAt,
		grant.Purpose,
		grant.Active,
		grant.GrantedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert grant: %w", err)
	}
	return nil
}

func (r *grantRepository) Get(ctx context.Context, patient, grantee model.Principal) (*model.PermissionGrant, error) {
	query := `SELECT * FROM grants WHERE patient = $1 AND grantee = $2`

	var grant model.PermissionGrant
	if err := r.GetDB().GetContext(ctx, &grant, query, patient, grantee); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	return &grant, nil
}

func (r *grantRepository) Deactivate(ctx context.Context, patient, grantee model.Principal) error {
	query := `UPDATE grants SET active = FALSE WHERE patient = $1 AND grantee = $2`

	result, err := r.GetDB().ExecContext(ctx, query, patient, grantee)
	if err != nil {
		return fmt.Errorf("failed to deactivate grant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
