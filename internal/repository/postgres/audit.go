package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/records-api/internal/model"
)

type auditRepository struct {
	BaseRepository
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Serialize appends per patient so the hash chain never forks.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, entry.Patient); err != nil {
			return fmt.Errorf("failed to lock patient trail: %w", err)
		}

		var prev []byte
		lastQuery := `
			SELECT digest FROM audit_entries
			WHERE patient = $1
			ORDER BY id DESC
			LIMIT 1
		`
		if err := tx.GetContext(ctx, &prev, lastQuery, entry.Patient); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to get last digest: %w", err)
			}
		}

		if err := entry.Seal(prev); err != nil {
			return err
		}

		query := `
			INSERT INTO audit_entries (
				patient, action, performer, document_id, details,
				created_at, prev_digest, digest
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		if err := tx.GetContext(ctx, &entry.ID, query,
			entry.Patient,
			entry.Action,
			entry.Performer,
			entry.DocumentID,
			entry.Details,
			entry.Timestamp,
			entry.PrevDigest,
			entry.Digest,
		); err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}
		return nil
	})
}

func (r *auditRepository) ListByPatient(ctx context.Context, patient model.Principal, offset, limit int) ([]*model.AuditEntry, error) {
	query := `
		SELECT * FROM audit_entries
		WHERE patient = $1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`

	entries := []*model.AuditEntry{}
	if err := r.GetDB().SelectContext(ctx, &entries, query, patient, offset, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

func (r *auditRepository) Trail(ctx context.Context, patient model.Principal) ([]*model.AuditEntry, error) {
	query := `
		SELECT * FROM audit_entries
		WHERE patient = $1
		ORDER BY id
	`

	entries := []*model.AuditEntry{}
	if err := r.GetDB().SelectContext(ctx, &entries, query, patient); err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}
	return entries, nil
}

func (r *auditRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM audit_entries`

	var count int64
	if err := r.GetDB().GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return count, nil
}
