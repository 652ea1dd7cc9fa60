package records

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
	apperrors "github.com/jwalitptl/records-api/pkg/errors"
	"github.com/jwalitptl/records-api/pkg/logger"
	"github.com/jwalitptl/records-api/pkg/metrics"
)

// WriterPrincipal is the identity the document registry appends to the
// audit ledger under. It must be bound on the ledger before documents can
// be added.
const WriterPrincipal model.Principal = "document-registry"

// AccessChecker is the slice of the policy store the registry needs.
type AccessChecker interface {
	CheckPermission(ctx context.Context, patient, grantee model.Principal, requiredLevel model.AccessLevel) (bool, error)
}

// Ledger is the slice of the audit ledger the registry needs.
type Ledger interface {
	Append(ctx context.Context, writer model.Principal, entry *model.AuditEntry) error
}

// Service is the document registry: metadata for medical documents, gated
// by the policy store. Document bytes live in an external content store.
type Service struct {
	docs   repository.DocumentRepository
	access AccessChecker
	ledger Ledger
	logger *logger.Logger

	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store repository.Store, access AccessChecker, ledger Ledger, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		docs:   store.Documents(),
		access: access,
		ledger: ledger,
		logger: log.WithComponent("records"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddDocument registers document metadata for a patient. The caller must
// hold at least WRITE on the patient's records. Returns the assigned id.
func (s *Service) AddDocument(ctx context.Context, caller, patient model.Principal, contentHash, documentType, description string, tags []string) (int64, error) {
	if contentHash == "" {
		return 0, apperrors.BadRequest("content hash must not be empty", nil)
	}
	if documentType == "" {
		return 0, apperrors.BadRequest("document type must not be empty", nil)
	}

	allowed, err := s.access.CheckPermission(ctx, patient, caller, model.AccessLevelWrite)
	if err != nil {
		return 0, err
	}
	if !allowed {
		if s.metrics != nil {
			s.metrics.AuthzDenied.WithLabelValues("add_document").Inc()
		}
		return 0, apperrors.Unauthorized("caller lacks write access to the patient's records")
	}

	doc := &model.Document{
		Patient:      patient,
		ContentHash:  contentHash,
		DocumentType: documentType,
		Description:  description,
		CreatedBy:    caller,
		CreatedAt:    s.now(),
		IsActive:     true,
		Tags:         tags,
	}
	id, err := s.docs.Create(ctx, doc)
	if err != nil {
		return 0, apperrors.Internal(err)
	}

	entry := &model.AuditEntry{
		Patient:    patient,
		Action:     model.AuditActionDocumentAdded,
		Performer:  caller,
		DocumentID: id,
		Details:    fmt.Sprintf("type=%s", documentType),
	}
	if err := s.ledger.Append(ctx, WriterPrincipal, entry); err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.DocumentsAdded.Inc()
	}
	s.logger.Info("document added", "document_id", id, "patient", patient.String(), "created_by", caller.String())
	return id, nil
}

// GetDocument returns a document's metadata. The caller must hold READ on
// the owning patient's records, or be the document's creator.
func (s *Service) GetDocument(ctx context.Context, caller model.Principal, id int64) (*model.Document, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("document", err)
		}
		return nil, apperrors.Internal(err)
	}

	if caller != doc.CreatedBy {
		allowed, err := s.access.CheckPermission(ctx, doc.Patient, caller, model.AccessLevelRead)
		if err != nil {
			return nil, err
		}
		if !allowed {
			if s.metrics != nil {
				s.metrics.AuthzDenied.WithLabelValues("get_document").Inc()
			}
			return nil, apperrors.Unauthorized("caller lacks read access to the patient's records")
		}
	}

	if s.metrics != nil {
		s.metrics.DocumentReads.Inc()
	}
	return doc, nil
}

// GetDocumentTags returns a document's tags in insertion order. Listing
// tags leaks no document contents, so no read gate applies.
func (s *Service) GetDocumentTags(ctx context.Context, id int64) ([]string, error) {
	tags, err := s.docs.Tags(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("document", err)
		}
		return nil, apperrors.Internal(err)
	}
	return tags, nil
}

// GetPatientDocuments returns the patient's active document ids in creation
// order. The index is not content; read gating happens at GetDocument.
func (s *Service) GetPatientDocuments(ctx context.Context, patient model.Principal) ([]int64, error) {
	ids, err := s.docs.ListByPatient(ctx, patient)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return ids, nil
}

// GetTotalDocuments returns the count of active documents.
func (s *Service) GetTotalDocuments(ctx context.Context) (int64, error) {
	count, err := s.docs.Count(ctx)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return count, nil
}
