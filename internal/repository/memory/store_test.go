package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
	"github.com/jwalitptl/records-api/internal/repository/memory"
)

func TestEntityCreateIsWriteOnce(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	record := &model.EntityRecord{Principal: "p1", EntityType: model.EntityTypePatient, RegisteredAt: time.Now()}
	require.NoError(t, store.Entities().Create(ctx, record))

	record.EntityType = model.EntityTypeDoctor
	err := store.Entities().Create(ctx, record)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := store.Entities().Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.EntityTypePatient, got.EntityType, "the original registration survives")

	_, err = store.Entities().Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGrantUpsertAndDeactivate(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.Grants().Deactivate(ctx, "p1", "d1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Grants().Upsert(ctx, &model.PermissionGrant{
		Patient: "p1", Grantee: "d1", Level: model.AccessLevelFull, Active: true,
	}))
	require.NoError(t, store.Grants().Upsert(ctx, &model.PermissionGrant{
		Patient: "p1", Grantee: "d1", Level: model.AccessLevelRead, Active: true,
	}))

	grant, err := store.Grants().Get(ctx, "p1", "d1")
	require.NoError(t, err)
	assert.Equal(t, model.AccessLevelRead, grant.Level, "upsert replaces the whole row")

	require.NoError(t, store.Grants().Deactivate(ctx, "p1", "d1"))
	grant, err = store.Grants().Get(ctx, "p1", "d1")
	require.NoError(t, err)
	assert.False(t, grant.Active, "deactivation keeps the row")
}

func TestDocumentCreateCopiesTags(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	tags := []string{"a", "b"}
	id, err := store.Documents().Create(ctx, &model.Document{
		Patient: "p1", ContentHash: "h1", DocumentType: "note", IsActive: true, Tags: tags,
	})
	require.NoError(t, err)

	tags[0] = "mutated"

	got, err := store.Documents().Tags(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got, "the store holds its own copy")
}

func TestDocumentSequentialIDsAcrossPatients(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	for i, patient := range []model.Principal{"p1", "p2", "p1"} {
		id, err := store.Documents().Create(ctx, &model.Document{
			Patient: patient, ContentHash: "h", DocumentType: "note", IsActive: true,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id, "the counter is global")
	}

	ids, err := store.Documents().ListByPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	count, err := store.Documents().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestAuditChainsArePerPatient(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	appendFor := func(patient model.Principal) *model.AuditEntry {
		entry := &model.AuditEntry{
			Patient: patient, Action: model.AuditActionGrant, Performer: patient,
			Timestamp: time.Unix(1700000000, 0),
		}
		require.NoError(t, store.Audit().Append(ctx, entry))
		return entry
	}

	a1 := appendFor("p1")
	b1 := appendFor("p2")
	a2 := appendFor("p1")

	assert.Empty(t, a1.PrevDigest)
	assert.Empty(t, b1.PrevDigest, "p2's head ignores p1's chain")
	assert.Equal(t, a1.Digest, a2.PrevDigest, "p1's second entry links past the interleaved p2 entry")

	trail, err := store.Audit().Trail(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, []int64{a1.ID, a2.ID}, []int64{trail[0].ID, trail[1].ID})
}

func TestAuditTrailReturnsCopies(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	entry := &model.AuditEntry{Patient: "p1", Action: model.AuditActionGrant, Performer: "p1"}
	require.NoError(t, store.Audit().Append(ctx, entry))

	trail, err := store.Audit().Trail(ctx, "p1")
	require.NoError(t, err)
	trail[0].Details = "edited"

	trail, err = store.Audit().Trail(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, trail[0].Details, "callers cannot reach the stored entry")
}
