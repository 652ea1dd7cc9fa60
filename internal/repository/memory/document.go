package memory

import (
	"context"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
)

type documentRepository struct {
	store *Store
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextDocumentID
	s.nextDocumentID++

	stored := *doc
	stored.ID = id
	stored.Tags = nil
	s.documents[id] = stored

	tags := make([]string, len(doc.Tags))
	copy(tags, doc.Tags)
	s.documentTags[id] = tags

	s.patientDocs[doc.Patient] = append(s.patientDocs[doc.Patient], id)

	doc.ID = id
	return id, nil
}

func (r *documentRepository) Get(ctx context.Context, id int64) (*model.Document, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok || !doc.IsActive {
		return nil, repository.ErrNotFound
	}

	doc.Tags = append([]string(nil), s.documentTags[id]...)
	return &doc, nil
}

func (r *documentRepository) Tags(ctx context.Context, id int64) ([]string, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok || !doc.IsActive {
		return nil, repository.ErrNotFound
	}
	return append([]string(nil), s.documentTags[id]...), nil
}

func (r *documentRepository) ListByPatient(ctx context.Context, patient model.Principal) ([]int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.patientDocs[patient]))
	for _, id := range s.patientDocs[patient] {
		if doc, ok := s.documents[id]; ok && doc.IsActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *documentRepository) Count(ctx context.Context) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, doc := range s.documents {
		if doc.IsActive {
			count++
		}
	}
	return count, nil
}
