package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Policy store metrics
	GrantsIssued       prometheus.Counter
	GrantsRevoked      prometheus.Counter
	PermissionChecks   *prometheus.CounterVec
	AuthzDenied        *prometheus.CounterVec
	EntitiesRegistered *prometheus.CounterVec

	// Document registry metrics
	DocumentsAdded prometheus.Counter
	DocumentReads  prometheus.Counter

	// Audit ledger metrics
	AuditEntriesAppended prometheus.Counter
	AuditAppendsRejected prometheus.Counter
	AuditPublishFailures prometheus.Counter
	AuditVerifications   *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		GrantsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grants_issued_total",
			Help:      "Total number of permission grants created or overwritten",
		}),
		GrantsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grants_revoked_total",
			Help:      "Total number of permission grants revoked",
		}),
		PermissionChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_checks_total",
			Help:      "Permission checks by outcome",
		}, []string{"outcome"}),
		AuthzDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_denied_total",
			Help:      "Operations rejected for missing permissions",
		}, []string{"operation"}),
		EntitiesRegistered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_registered_total",
			Help:      "Entity registrations by type",
		}, []string{"entity_type"}),
		DocumentsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_added_total",
			Help:      "Total number of documents registered",
		}),
		DocumentReads: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_reads_total",
			Help:      "Total number of authorized document reads",
		}),
		AuditEntriesAppended: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_appended_total",
			Help:      "Total number of audit entries appended",
		}),
		AuditAppendsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_appends_rejected_total",
			Help:      "Audit appends rejected for untrusted writers",
		}),
		AuditPublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_publish_failures_total",
			Help:      "Best-effort audit event publications that failed",
		}),
		AuditVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_verifications_total",
			Help:      "Audit trail verifications by outcome",
		}, []string{"outcome"}),
	}
}
