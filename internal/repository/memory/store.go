package memory

import (
	"sync"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
)

type grantKey struct {
	patient model.Principal
	grantee model.Principal
}

// Store is the in-memory reference implementation of repository.Store. All
// tables share one RWMutex: mutating operations take the write lock for the
// whole transition, reads take the read lock and copy out, so every observer
// sees a consistent snapshot.
type Store struct {
	mu sync.RWMutex

	entities map[model.Principal]model.EntityRecord
	grants   map[grantKey]model.PermissionGrant

	documents      map[int64]model.Document
	documentTags   map[int64][]string
	patientDocs    map[model.Principal][]int64
	nextDocumentID int64

	entries      []model.AuditEntry
	patientTrail map[model.Principal][]int64
	nextAuditID  int64
}

func NewStore() *Store {
	return &Store{
		entities:       make(map[model.Principal]model.EntityRecord),
		grants:         make(map[grantKey]model.PermissionGrant),
		documents:      make(map[int64]model.Document),
		documentTags:   make(map[int64][]string),
		patientDocs:    make(map[model.Principal][]int64),
		nextDocumentID: 1,
		patientTrail:   make(map[model.Principal][]int64),
		nextAuditID:    1,
	}
}

func (s *Store) Entities() repository.EntityRepository {
	return &entityRepository{store: s}
}

func (s *Store) Grants() repository.GrantRepository {
	return &grantRepository{store: s}
}

func (s *Store) Documents() repository.DocumentRepository {
	return &documentRepository{store: s}
}

func (s *Store) Audit() repository.AuditRepository {
	return &auditRepository{store: s}
}
