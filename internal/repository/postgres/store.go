package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/records-api/internal/repository"
)

// Store is the durable implementation of repository.Store. Atomicity of
// mutating transitions comes from database transactions.
type Store struct {
	base BaseRepository
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{base: NewBaseRepository(db)}
}

func (s *Store) Entities() repository.EntityRepository {
	return &entityRepository{s.base}
}

func (s *Store) Grants() repository.GrantRepository {
	return &grantRepository{s.base}
}

func (s *Store) Documents() repository.DocumentRepository {
	return &documentRepository{s.base}
}

func (s *Store) Audit() repository.AuditRepository {
	return &auditRepository{s.base}
}
