package audit_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
	"github.com/jwalitptl/records-api/internal/repository/memory"
	"github.com/jwalitptl/records-api/internal/service/audit"
	apperrors "github.com/jwalitptl/records-api/pkg/errors"
	"github.com/jwalitptl/records-api/pkg/logger"
)

const (
	admin         = model.Principal("ledger-admin")
	policyWriter  = model.Principal("policy-store")
	recordsWriter = model.Principal("document-registry")
	patient       = model.Principal("patient-1")
)

func newLedger(t *testing.T, repo repository.AuditRepository) *audit.Service {
	t.Helper()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	now := time.Unix(1700000000, 0)
	return audit.NewService(repo, log, admin, policyWriter,
		audit.WithClock(func() time.Time { return now }))
}

func grantEntry(p model.Principal) *model.AuditEntry {
	return &model.AuditEntry{
		Patient:   p,
		Action:    model.AuditActionGrant,
		Performer: p,
		Details:   "grantee=doctor-1 level=WRITE",
	}
}

func TestAppendRejectsUntrustedWriter(t *testing.T) {
	store := memory.NewStore()
	ledger := newLedger(t, store.Audit())
	ctx := context.Background()

	err := ledger.Append(ctx, model.Principal("intruder"), grantEntry(patient))
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	// The records writer is untrusted until bound.
	err = ledger.Append(ctx, recordsWriter, grantEntry(patient))
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	total, err := ledger.GetTotalEntries(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSetRecordsWriter(t *testing.T) {
	store := memory.NewStore()
	ledger := newLedger(t, store.Audit())
	ctx := context.Background()

	err := ledger.SetRecordsWriter(ctx, model.Principal("not-admin"), recordsWriter)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	err = ledger.SetRecordsWriter(ctx, admin, model.Principal(""))
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	require.NoError(t, ledger.SetRecordsWriter(ctx, admin, recordsWriter))

	err = ledger.SetRecordsWriter(ctx, admin, model.Principal("another"))
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyConfigured), "the binding is write-once")

	// Once bound, the records writer may append.
	require.NoError(t, ledger.Append(ctx, recordsWriter, &model.AuditEntry{
		Patient:    patient,
		Action:     model.AuditActionDocumentAdded,
		Performer:  model.Principal("doctor-1"),
		DocumentID: 1,
	}))
}

func TestAppendAssignsIDAndSealsChain(t *testing.T) {
	store := memory.NewStore()
	ledger := newLedger(t, store.Audit())
	ctx := context.Background()

	first := grantEntry(patient)
	require.NoError(t, ledger.Append(ctx, policyWriter, first))
	second := grantEntry(patient)
	require.NoError(t, ledger.Append(ctx, policyWriter, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Empty(t, first.PrevDigest, "the chain head links to nothing")
	assert.Equal(t, first.Digest, second.PrevDigest)
	assert.NotEmpty(t, second.Digest)
}

func TestGetAuditTrailPagination(t *testing.T) {
	store := memory.NewStore()
	ledger := newLedger(t, store.Audit())
	ctx := context.Background()
	other := model.Principal("patient-2")

	for i := 0; i < 5; i++ {
		require.NoError(t, ledger.Append(ctx, policyWriter, grantEntry(patient)))
	}
	require.NoError(t, ledger.Append(ctx, policyWriter, grantEntry(other)))

	entries, err := ledger.GetAuditTrail(ctx, patient, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, entry := range entries {
		assert.Equal(t, int64(i+1), entry.ID, "trail is in creation order")
		assert.Equal(t, patient, entry.Patient)
	}

	entries, err = ledger.GetAuditTrail(ctx, patient, 3, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(4), entries[0].ID)

	entries, err = ledger.GetAuditTrail(ctx, patient, 1000, 10)
	require.NoError(t, err)
	assert.Empty(t, entries, "offsets beyond the trail are not an error")

	_, err = ledger.GetAuditTrail(ctx, patient, -1, 10)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	_, err = ledger.GetAuditTrail(ctx, patient, 0, 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	_, err = ledger.GetAuditTrail(ctx, patient, 0, audit.MaxPageSize+1)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	total, err := ledger.GetTotalEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total, "the count is global, not per patient")
}

func TestVerifyTrail(t *testing.T) {
	store := memory.NewStore()
	ledger := newLedger(t, store.Audit())
	ctx := context.Background()

	ok, err := ledger.VerifyTrail(ctx, patient)
	require.NoError(t, err)
	assert.True(t, ok, "an empty trail is vacuously intact")

	for i := 0; i < 4; i++ {
		require.NoError(t, ledger.Append(ctx, policyWriter, grantEntry(patient)))
	}

	ok, err = ledger.VerifyTrail(ctx, patient)
	require.NoError(t, err)
	assert.True(t, ok)
}

// tamperedRepo serves a trail with one entry's body rewritten after sealing,
// standing in for a store whose rows were edited out of band.
type tamperedRepo struct {
	repository.AuditRepository
	tamperIndex int
}

func (r *tamperedRepo) Trail(ctx context.Context, p model.Principal) ([]*model.AuditEntry, error) {
	entries, err := r.AuditRepository.Trail(ctx, p)
	if err != nil {
		return nil, err
	}
	if r.tamperIndex < len(entries) {
		entries[r.tamperIndex].Details = "grantee=attacker level=FULL"
	}
	return entries, nil
}

func TestVerifyTrailDetectsTampering(t *testing.T) {
	store := memory.NewStore()
	ledger := newLedger(t, store.Audit())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.Append(ctx, policyWriter, grantEntry(patient)))
	}

	tampered := newLedger(t, &tamperedRepo{AuditRepository: store.Audit(), tamperIndex: 1})
	ok, err := tampered.VerifyTrail(ctx, patient)
	require.NoError(t, err, "a broken chain is a verdict, not an error")
	assert.False(t, ok)
}
