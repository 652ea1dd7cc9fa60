package memory

import (
	"context"

	"github.com/jwalitptl/records-api/internal/model"
)

type auditRepository struct {
	store *Store
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev []byte
	trail := s.patientTrail[entry.Patient]
	if len(trail) > 0 {
		prev = s.entries[trail[len(trail)-1]-1].Digest
	}
	if err := entry.Seal(prev); err != nil {
		return err
	}

	entry.ID = s.nextAuditID
	s.nextAuditID++

	s.entries = append(s.entries, *entry)
	s.patientTrail[entry.Patient] = append(trail, entry.ID)
	return nil
}

func (r *auditRepository) ListByPatient(ctx context.Context, patient model.Principal, offset, limit int) ([]*model.AuditEntry, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail := s.patientTrail[patient]
	if offset >= len(trail) {
		return []*model.AuditEntry{}, nil
	}

	end := offset + limit
	if end > len(trail) {
		end = len(trail)
	}

	entries := make([]*model.AuditEntry, 0, end-offset)
	for _, id := range trail[offset:end] {
		entry := s.entries[id-1]
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (r *auditRepository) Trail(ctx context.Context, patient model.Principal) ([]*model.AuditEntry, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail := s.patientTrail[patient]
	entries := make([]*model.AuditEntry, 0, len(trail))
	for _, id := range trail {
		entry := s.entries[id-1]
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (r *auditRepository) Count(ctx context.Context) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.entries)), nil
}
