package records_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository/memory"
	"github.com/jwalitptl/records-api/internal/service/access"
	"github.com/jwalitptl/records-api/internal/service/audit"
	"github.com/jwalitptl/records-api/internal/service/records"
	apperrors "github.com/jwalitptl/records-api/pkg/errors"
	"github.com/jwalitptl/records-api/pkg/logger"
)

const (
	admin     = model.Principal("ledger-admin")
	registrar = model.Principal("registrar")
	patient   = model.Principal("patient-1")
	doctor    = model.Principal("doctor-1")
	insurer   = model.Principal("insurer-1")
	stranger  = model.Principal("stranger-1")
)

type testEnv struct {
	svc    *records.Service
	access *access.Service
	ledger *audit.Service
	now    time.Time
}

// newTestEnv wires the full core over the in-memory store, with the patient
// registered and the records writer bound.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{now: time.Unix(1700000000, 0)}
	clock := func() time.Time { return env.now }

	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	store := memory.NewStore()

	env.ledger = audit.NewService(store.Audit(), log, admin, access.WriterPrincipal, audit.WithClock(clock))
	require.NoError(t, env.ledger.SetRecordsWriter(context.Background(), admin, records.WriterPrincipal))

	env.access = access.NewService(store, env.ledger, registrar, log, access.WithClock(clock))
	env.svc = records.NewService(store, env.access, env.ledger, log, records.WithClock(clock))

	require.NoError(t, env.access.RegisterPatient(context.Background(), patient))
	return env
}

func TestAddDocumentRequiresWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AddDocument(ctx, doctor, patient, "hash-1", "lab-report", "", nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	total, err := env.svc.GetTotalDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, total, "denied add must leave no trace")

	// READ is not enough to write.
	require.NoError(t, env.access.GrantAccess(ctx, patient, insurer, model.AccessLevelRead, 0, "claim"))
	_, err = env.svc.AddDocument(ctx, insurer, patient, "hash-1", "lab-report", "", nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestAddDocumentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AddDocument(ctx, patient, patient, "", "lab-report", "", nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	_, err = env.svc.AddDocument(ctx, patient, patient, "hash-1", "", "", nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestAddDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.access.GrantAccess(ctx, patient, doctor, model.AccessLevelWrite, 0, "treatment"))

	id, err := env.svc.AddDocument(ctx, doctor, patient, "hash-1", "lab-report", "blood panel", []string{"lab", "2026"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id, "ids are sequential from 1")

	total, err := env.svc.GetTotalDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	ids, err := env.svc.GetPatientDocuments(ctx, patient)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	// GRANT entry followed by the DOCUMENT_ADDED entry.
	entries, err := env.ledger.GetAuditTrail(ctx, patient, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.AuditActionDocumentAdded, entries[1].Action)
	assert.Equal(t, doctor, entries[1].Performer)
	assert.Equal(t, id, entries[1].DocumentID)
}

func TestSelfAddAndRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.AddDocument(ctx, patient, patient, "hash-1", "note", "self-reported symptoms", nil)
	require.NoError(t, err, "self access is implicit FULL")

	doc, err := env.svc.GetDocument(ctx, patient, id)
	require.NoError(t, err)
	assert.Equal(t, patient, doc.Patient)
	assert.Equal(t, "hash-1", doc.ContentHash)
	assert.Equal(t, "note", doc.DocumentType)
}

func TestGetDocumentAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.access.GrantAccess(ctx, patient, doctor, model.AccessLevelWrite, 0, "treatment"))
	require.NoError(t, env.access.GrantAccess(ctx, patient, insurer, model.AccessLevelRead, 0, "claim"))

	id, err := env.svc.AddDocument(ctx, doctor, patient, "hash-1", "lab-report", "", nil)
	require.NoError(t, err)

	_, err = env.svc.GetDocument(ctx, insurer, id)
	require.NoError(t, err, "READ grant suffices to read")

	_, err = env.svc.GetDocument(ctx, stranger, id)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = env.svc.GetDocument(ctx, doctor, 99)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreatorRetainsReadAfterRevoke(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.access.GrantAccess(ctx, patient, doctor, model.AccessLevelWrite, 0, "treatment"))
	id, err := env.svc.AddDocument(ctx, doctor, patient, "hash-1", "lab-report", "", nil)
	require.NoError(t, err)

	require.NoError(t, env.access.RevokeAccess(ctx, patient, doctor))

	doc, err := env.svc.GetDocument(ctx, doctor, id)
	require.NoError(t, err, "the creator can always read their own document")
	assert.Equal(t, doctor, doc.CreatedBy)

	// But no fresh write: the revoke closed the grant.
	_, err = env.svc.AddDocument(ctx, doctor, patient, "hash-2", "lab-report", "", nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestPatientDocumentsOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i, hash := range []string{"h1", "h2", "h3"} {
		id, err := env.svc.AddDocument(ctx, patient, patient, hash, "note", "", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	ids, err := env.svc.GetPatientDocuments(ctx, patient)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = env.svc.GetPatientDocuments(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, ids, "unknown patients have an empty index")
}

func TestDocumentTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.AddDocument(ctx, patient, patient, "hash-1", "imaging", "", []string{"mri", "head", "urgent"})
	require.NoError(t, err)

	tags, err := env.svc.GetDocumentTags(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"mri", "head", "urgent"}, tags, "insertion order is preserved")

	_, err = env.svc.GetDocumentTags(ctx, 42)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	id, err = env.svc.AddDocument(ctx, patient, patient, "hash-2", "note", "", nil)
	require.NoError(t, err)
	tags, err = env.svc.GetDocumentTags(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestExpiredGrantBlocksAdd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.access.GrantAccess(ctx, patient, doctor, model.AccessLevelWrite, env.now.Unix()+60, "consult"))

	_, err := env.svc.AddDocument(ctx, doctor, patient, "hash-1", "note", "", nil)
	require.NoError(t, err)

	env.now = env.now.Add(time.Hour)

	_, err = env.svc.AddDocument(ctx, doctor, patient, "hash-2", "note", "", nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized), "expiry is enforced at use time")
}
