package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/records-api/internal/model"
)

// Sentinel errors returned by store implementations. Services translate
// these into the caller-facing error taxonomy.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// EntityRepository stores entity registrations. A principal's type is
// write-once: Create fails with ErrDuplicate if the principal already has one.
type EntityRepository interface {
	Create(ctx context.Context, record *model.EntityRecord) error
	Get(ctx context.Context, principal model.Principal) (*model.EntityRecord, error)
}

// GrantRepository stores permission grants keyed by (patient, grantee).
type GrantRepository interface {
	// Upsert creates or overwrites the grant for (grant.Patient, grant.Grantee).
	Upsert(ctx context.Context, grant *model.PermissionGrant) error
	Get(ctx context.Context, patient, grantee model.Principal) (*model.PermissionGrant, error)
	// Deactivate marks the grant inactive. Returns ErrNotFound when no grant
	// exists for the pair; callers decide whether that is an error.
	Deactivate(ctx context.Context, patient, grantee model.Principal) error
}

// DocumentRepository stores document metadata and the per-patient index.
type DocumentRepository interface {
	// Create assigns the next sequential id, persists the document with its
	// tags and appends the id to the patient's index, all atomically.
	Create(ctx context.Context, doc *model.Document) (int64, error)
	// Get returns an active document. Ids that were never assigned and ids
	// of deactivated documents both yield ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Document, error)
	Tags(ctx context.Context, id int64) ([]string, error)
	// ListByPatient returns active document ids in creation order.
	ListByPatient(ctx context.Context, patient model.Principal) ([]int64, error)
	Count(ctx context.Context) (int64, error)
}

// AuditRepository stores the append-only ledger. Append assigns the next id,
// seals the entry into the patient's hash chain and persists it atomically.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	// ListByPatient returns up to limit entries of the patient's trail in
	// creation order, starting at offset. Out-of-range offsets yield an
	// empty slice.
	ListByPatient(ctx context.Context, patient model.Principal, offset, limit int) ([]*model.AuditEntry, error)
	// Trail returns the patient's complete trail in creation order.
	Trail(ctx context.Context, patient model.Principal) ([]*model.AuditEntry, error)
	Count(ctx context.Context) (int64, error)
}

// Store bundles the logical tables of the core. Implementations must make
// every mutating method an atomic transition: concurrent readers never
// observe a half-applied state.
type Store interface {
	Entities() EntityRepository
	Grants() GrantRepository
	Documents() DocumentRepository
	Audit() AuditRepository
}
