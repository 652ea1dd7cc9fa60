package access

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
	apperrors "github.com/jwalitptl/records-api/pkg/errors"
	"github.com/jwalitptl/records-api/pkg/logger"
	"github.com/jwalitptl/records-api/pkg/metrics"
)

// WriterPrincipal is the identity the policy store appends to the audit
// ledger under.
const WriterPrincipal model.Principal = "policy-store"

// Ledger is the slice of the audit ledger the policy store needs.
type Ledger interface {
	Append(ctx context.Context, writer model.Principal, entry *model.AuditEntry) error
}

// Service is the identity and policy store: entity registrations,
// permission grants and authorization queries.
type Service struct {
	entities  repository.EntityRepository
	grants    repository.GrantRepository
	ledger    Ledger
	registrar model.Principal
	logger    *logger.Logger

	// Entity types are write-once, so cached lookups never go stale.
	typeCache *cache.Cache

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

func NewService(store repository.Store, ledger Ledger, registrar model.Principal, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		entities:  store.Entities(),
		grants:    store.Grants(),
		ledger:    ledger,
		registrar: registrar,
		logger:    log.WithComponent("access"),
		typeCache: cache.New(cache.NoExpiration, 0),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterPatient self-registers the caller as a patient. Re-registration
// of an already-registered principal is rejected, consistent with
// RegisterEntity.
func (s *Service) RegisterPatient(ctx context.Context, caller model.Principal) error {
	if caller == "" {
		return apperrors.BadRequest("caller principal must not be empty", nil)
	}

	record := &model.EntityRecord{
		Principal:    caller,
		EntityType:   model.EntityTypePatient,
		RegisteredAt: s.now(),
	}
	if err := s.entities.Create(ctx, record); err != nil {
		if err == repository.ErrDuplicate {
			return apperrors.AlreadyRegistered(caller.String())
		}
		return apperrors.Internal(err)
	}

	s.typeCache.Set(caller.String(), model.EntityTypePatient, cache.NoExpiration)
	if s.metrics != nil {
		s.metrics.EntitiesRegistered.WithLabelValues(model.EntityTypePatient.String()).Inc()
	}
	s.logger.Info("patient registered", "principal", caller.String())
	return nil
}

// RegisterEntity registers target as a doctor, insurer or auditor. Only the
// designated registrar may call it.
func (s *Service) RegisterEntity(ctx context.Context, caller, target model.Principal, entityType model.EntityType) error {
	if caller != s.registrar {
		return apperrors.Unauthorized("only the registrar may register entities")
	}
	if target == "" {
		return apperrors.BadRequest("target principal must not be empty", nil)
	}
	if !entityType.Registrable() {
		return apperrors.InvalidEntityType(fmt.Sprintf("entity type %d is not registrable", entityType))
	}

	record := &model.EntityRecord{
		Principal:    target,
		EntityType:   entityType,
		RegisteredAt: s.now(),
	}
	if err := s.entities.Create(ctx, record); err != nil {
		if err == repository.ErrDuplicate {
			return apperrors.AlreadyRegistered(target.String())
		}
		return apperrors.Internal(err)
	}

	s.typeCache.Set(target.String(), entityType, cache.NoExpiration)
	if s.metrics != nil {
		s.metrics.EntitiesRegistered.WithLabelValues(entityType.String()).Inc()
	}
	s.logger.Info("entity registered", "principal", target.String(), "entity_type", entityType.String())
	return nil
}

// GrantAccess creates or overwrites the (caller, grantee) grant. Only a
// registered patient may grant, and only on their own behalf.
func (s *Service) GrantAccess(ctx context.Context, caller, grantee model.Principal, level model.AccessLevel, expiresAt int64, purpose string) error {
	entityType, err := s.GetEntityType(ctx, caller)
	if err != nil {
		return err
	}
	if entityType != model.EntityTypePatient {
		if s.metrics != nil {
			s.metrics.AuthzDenied.WithLabelValues("grant_access").Inc()
		}
		return apperrors.Unauthorized("caller is not a registered patient")
	}
	if grantee == "" {
		return apperrors.BadRequest("grantee principal must not be empty", nil)
	}
	if !level.Valid() {
		return apperrors.InvalidLevel(fmt.Sprintf("access level %d is out of range", level))
	}
	now := s.now()
	if expiresAt != 0 && expiresAt <= now.Unix() {
		return apperrors.InvalidExpiry("expiry is already in the past")
	}

	grant := &model.PermissionGrant{
		Patient:   caller,
		Grantee:   grantee,
		Level:     level,
		ExpiresAt: expiresAt,
		Purpose:   purpose,
		Active:    true,
		GrantedAt: now,
	}
	if err := s.grants.Upsert(ctx, grant); err != nil {
		return apperrors.Internal(err)
	}

	entry := &model.AuditEntry{
		Patient:   caller,
		Action:    model.AuditActionGrant,
		Performer: caller,
		Details:   fmt.Sprintf("grantee=%s level=%s", grantee, level),
	}
	if err := s.ledger.Append(ctx, WriterPrincipal, entry); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.GrantsIssued.Inc()
	}
	s.logger.Info("access granted", "patient", caller.String(), "grantee", grantee.String(), "level", level.String())
	return nil
}

// RevokeAccess deactivates the (caller, grantee) grant. Revoking a grant
// that never existed succeeds; revocation is idempotent.
func (s *Service) RevokeAccess(ctx context.Context, caller, grantee model.Principal) error {
	entityType, err := s.GetEntityType(ctx, caller)
	if err != nil {
		return err
	}
	if entityType != model.EntityTypePatient {
		if s.metrics != nil {
			s.metrics.AuthzDenied.WithLabelValues("revoke_access").Inc()
		}
		return apperrors.Unauthorized("caller is not a registered patient")
	}
	if grantee == "" {
		return apperrors.BadRequest("grantee principal must not be empty", nil)
	}

	if err := s.grants.Deactivate(ctx, caller, grantee); err != nil {
		if err != repository.ErrNotFound {
			return apperrors.Internal(err)
		}
	}

	entry := &model.AuditEntry{
		Patient:   caller,
		Action:    model.AuditActionRevoke,
		Performer: caller,
		Details:   fmt.Sprintf("grantee=%s", grantee),
	}
	if err := s.ledger.Append(ctx, WriterPrincipal, entry); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.GrantsRevoked.Inc()
	}
	s.logger.Info("access revoked", "patient", caller.String(), "grantee", grantee.String())
	return nil
}

// CheckPermission reports whether grantee holds at least requiredLevel on
// the patient's records. Self access is always FULL. Expiry is evaluated
// lazily; expired grants answer false without being deleted.
func (s *Service) CheckPermission(ctx context.Context, patient, grantee model.Principal, requiredLevel model.AccessLevel) (bool, error) {
	if !requiredLevel.Valid() {
		return false, apperrors.InvalidLevel(fmt.Sprintf("access level %d is out of range", requiredLevel))
	}
	if patient != "" && patient == grantee {
		return true, nil
	}

	grant, err := s.grants.Get(ctx, patient, grantee)
	if err != nil {
		if err == repository.ErrNotFound {
			s.countCheck(false)
			return false, nil
		}
		return false, apperrors.Internal(err)
	}

	allowed := grant.LiveAt(s.now()) && grant.Level.Covers(requiredLevel)
	s.countCheck(allowed)
	return allowed, nil
}

// GetEntityType returns the principal's registered type, or the
// unregistered sentinel. Absence is a checkable state, not an error.
func (s *Service) GetEntityType(ctx context.Context, principal model.Principal) (model.EntityType, error) {
	if cached, ok := s.typeCache.Get(principal.String()); ok {
		return cached.(model.EntityType), nil
	}

	record, err := s.entities.Get(ctx, principal)
	if err != nil {
		if err == repository.ErrNotFound {
			return model.EntityTypeUnregistered, nil
		}
		return model.EntityTypeUnregistered, apperrors.Internal(err)
	}

	s.typeCache.Set(principal.String(), record.EntityType, cache.NoExpiration)
	return record.EntityType, nil
}

func (s *Service) countCheck(allowed bool) {
	if s.metrics == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	s.metrics.PermissionChecks.WithLabelValues(outcome).Inc()
}
