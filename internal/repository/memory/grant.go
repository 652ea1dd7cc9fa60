package memory

import (
	"context"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
)

type grantRepository struct {
	store *Store
}

func (r *grantRepository) Upsert(ctx context.Context, grant *model.PermissionGrant) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grants[grantKey{patient: grant.Patient, grantee: grant.Grantee}] = *grant
	return nil
}

func (r *grantRepository) Get(ctx context.Context, patient, grantee model.Principal) (*model.PermissionGrant, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, ok := s.grants[grantKey{patient: patient, grantee: grantee}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &grant, nil
}

func (r *grantRepository) Deactivate(ctx context.Context, patient, grantee model.Principal) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey{patient: patient, grantee: grantee}
	grant, ok := s.grants[key]
	if !ok {
		return repository.ErrNotFound
	}
	grant.Active = false
	s.grants[key] = grant
	return nil
}
