package audit

import (
	"context"
	"sync"
	"time"

	"github.com/jwalitptl/records-api/internal/alert"
	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
	apperrors "github.com/jwalitptl/records-api/pkg/errors"
	"github.com/jwalitptl/records-api/pkg/logger"
	"github.com/jwalitptl/records-api/pkg/messaging"
	"github.com/jwalitptl/records-api/pkg/metrics"
)

// MaxPageSize bounds GetAuditTrail pagination.
const MaxPageSize = 100

// EventChannel is the redis channel appended entries are published to.
const EventChannel = "audit.entries"

// Service is the audit ledger. Only two writers may append: the policy store
// (bound at construction) and the document registry (bound once through
// SetRecordsWriter). Everything else reads.
type Service struct {
	repo   repository.AuditRepository
	logger *logger.Logger

	admin        model.Principal
	policyWriter model.Principal

	mu            sync.RWMutex
	recordsWriter model.Principal

	broker  messaging.Publisher
	alerts  *alert.Mailer
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

// WithBroker enables best-effort publication of appended entries.
func WithBroker(broker messaging.Publisher) Option {
	return func(s *Service) { s.broker = broker }
}

// WithAlerts enables ops mail on rejected appends.
func WithAlerts(alerts *alert.Mailer) Option {
	return func(s *Service) { s.alerts = alerts }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the ledger. admin is the principal allowed to perform
// the one-time records writer binding; policyWriter is the policy store's
// writer identity.
func NewService(repo repository.AuditRepository, log *logger.Logger, admin, policyWriter model.Principal, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		logger:       log.WithComponent("audit"),
		admin:        admin,
		policyWriter: policyWriter,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRecordsWriter binds the document registry's writer identity. The
// binding is write-once so the trusted writer set cannot be hijacked later.
func (s *Service) SetRecordsWriter(ctx context.Context, caller, writer model.Principal) error {
	if caller != s.admin {
		return apperrors.Unauthorized("only the ledger administrator may bind the records writer")
	}
	if writer == "" {
		return apperrors.BadRequest("records writer must not be empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordsWriter != "" {
		return apperrors.AlreadyConfigured("records writer")
	}
	s.recordsWriter = writer

	s.logger.Info("records writer bound", "writer", writer.String())
	return nil
}

func (s *Service) trusted(writer model.Principal) bool {
	if writer == s.policyWriter && writer != "" {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordsWriter != "" && writer == s.recordsWriter
}

// Append records one entry. The repository assigns the id and seals the
// entry into the patient's hash chain atomically; publication to the broker
// happens after the commit and never fails the operation.
func (s *Service) Append(ctx context.Context, writer model.Principal, entry *model.AuditEntry) error {
	if !s.trusted(writer) {
		if s.metrics != nil {
			s.metrics.AuditAppendsRejected.Inc()
		}
		s.logger.Warn("rejected audit append from untrusted writer", "writer", writer.String(), "action", entry.Action)
		if s.alerts != nil {
			s.alerts.UntrustedWriter(writer.String(), entry.Action)
		}
		return apperrors.Unauthorized("caller is not a trusted audit writer")
	}

	entry.Timestamp = s.now()
	if err := s.repo.Append(ctx, entry); err != nil {
		return apperrors.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.AuditEntriesAppended.Inc()
	}

	if s.broker != nil {
		if err := s.broker.Publish(ctx, EventChannel, entry); err != nil {
			if s.metrics != nil {
				s.metrics.AuditPublishFailures.Inc()
			}
			s.logger.Warn("failed to publish audit entry", "entry_id", entry.ID)
		}
	}

	return nil
}

// GetAuditTrail returns up to limit entries of the patient's trail in
// creation order. Offsets beyond the trail yield an empty slice.
func (s *Service) GetAuditTrail(ctx context.Context, patient model.Principal, offset, limit int) ([]*model.AuditEntry, error) {
	if offset < 0 {
		return nil, apperrors.BadRequest("offset must not be negative", nil)
	}
	if limit <= 0 || limit > MaxPageSize {
		return nil, apperrors.BadRequest("limit must be between 1 and 100", nil)
	}

	entries, err := s.repo.ListByPatient(ctx, patient, offset, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

// GetTotalEntries returns the global entry count.
func (s *Service) GetTotalEntries(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return count, nil
}

// VerifyTrail walks the patient's chain recomputing every digest. Returns
// false on the first broken link.
func (s *Service) VerifyTrail(ctx context.Context, patient model.Principal) (bool, error) {
	entries, err := s.repo.Trail(ctx, patient)
	if err != nil {
		return false, apperrors.Internal(err)
	}

	var prev []byte
	for _, entry := range entries {
		ok, err := entry.VerifyAgainst(prev)
		if err != nil {
			return false, apperrors.Internal(err)
		}
		if !ok {
			if s.metrics != nil {
				s.metrics.AuditVerifications.WithLabelValues("broken").Inc()
			}
			s.logger.Warn("audit trail verification failed", "patient", patient.String(), "entry_id", entry.ID)
			if s.alerts != nil {
				s.alerts.BrokenTrail(patient.String(), entry.ID)
			}
			return false, nil
		}
		prev = entry.Digest
	}

	if s.metrics != nil {
		s.metrics.AuditVerifications.WithLabelValues("ok").Inc()
	}
	return true, nil
}
