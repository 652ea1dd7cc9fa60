package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
)

type documentRepository struct {
	BaseRepository
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) (int64, error) {
	var id int64

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO documents (
				patient, content_hash, document_type, description,
				created_by, created_at, is_active
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`

		if err := tx.GetContext(ctx, &id, query,
			doc.Patient,
			doc.ContentHash,
			doc.DocumentType,
			doc.Description,
			doc.CreatedBy,
			doc.CreatedAt,
			doc.IsActive,
		); err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}

		tagQuery := `
			INSERT INTO document_tags (document_id, position, tag)
			VALUES ($1, $2, $3)
		`
		for i, tag := range doc.Tags {
			if _, err := tx.ExecContext(ctx, tagQuery, id, i, tag); err != nil {
				return fmt.Errorf("failed to insert document tag: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	doc.ID = id
	return id, nil
}

func (r *documentRepository) Get(ctx context.Context, id int64) (*model.Document, error) {
	query := `SELECT * FROM documents WHERE id = $1 AND is_active`

	var doc model.Document
	if err := r.GetDB().GetContext(ctx, &doc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	tags, err := r.Tags(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Tags = tags

	return &doc, nil
}

func (r *documentRepository) Tags(ctx context.Context, id int64) ([]string, error) {
	exists := `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1 AND is_active)`
	var ok bool
	if err := r.GetDB().GetContext(ctx, &ok, exists, id); err != nil {
		return nil, fmt.Errorf("failed to check document: %w", err)
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	query := `
		SELECT tag FROM document_tags
		WHERE document_id = $1
		ORDER BY position
	`

	tags := []string{}
	if err := r.GetDB().SelectContext(ctx, &tags, query, id); err != nil {
		return nil, fmt.Errorf("failed to get document tags: %w", err)
	}
	return tags, nil
}

func (r *documentRepository) ListByPatient(ctx context.Context, patient model.Principal) ([]int64, error) {
	query := `
		SELECT id FROM documents
		WHERE patient = $1 AND is_active
		ORDER BY id
	`

	ids := []int64{}
	if err := r.GetDB().SelectContext(ctx, &ids, query, patient); err != nil {
		return nil, fmt.Errorf("failed to list patient documents: %w", err)
	}
	return ids, nil
}

func (r *documentRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM documents WHERE is_active`

	var count int64
	if err := r.GetDB().GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
