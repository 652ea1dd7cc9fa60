package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
)

type entityRepository struct {
	BaseRepository
}

func (r *entityRepository) Create(ctx context.Context, record *model.EntityRecord) error {
	query := `
		INSERT INTO entities (principal, entity_type, registered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (principal) DO NOTHING
	`

	result, err := r.GetDB().ExecContext(ctx, query,
		record.Principal,
		record.EntityType,
		record.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrDuplicate
	}
	return nil
}

func (r *entityRepository) Get(ctx context.Context, principal model.Principal) (*model.EntityRecord, error) {
	query := `SELECT * FROM entities WHERE principal = $1`

	var record model.EntityRecord
	if err := r.GetDB().GetContext(ctx, &record, query, principal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return &record, nil
}
