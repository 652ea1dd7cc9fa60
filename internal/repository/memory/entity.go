package memory

import (
	"context"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
)

type entityRepository struct {
	store *Store
}

func (r *entityRepository) Create(ctx context.Context, record *model.EntityRecord) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entities[record.Principal]; exists {
		return repository.ErrDuplicate
	}
	s.entities[record.Principal] = *record
	return nil
}

func (r *entityRepository) Get(ctx context.Context, principal model.Principal) (*model.EntityRecord, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.entities[principal]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}
