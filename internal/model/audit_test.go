package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() *AuditEntry {
	return &AuditEntry{
		Patient:   "patient-1",
		Action:    AuditActionGrant,
		Performer: "patient-1",
		Details:   "grantee=doctor-1 level=WRITE",
		Timestamp: time.Unix(1700000000, 0),
	}
}

func TestComputeDigestIsDeterministic(t *testing.T) {
	entry := sampleEntry()

	d1, err := entry.ComputeDigest(nil)
	require.NoError(t, err)
	d2, err := entry.ComputeDigest(nil)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 32)
}

func TestDigestExcludesID(t *testing.T) {
	a, b := sampleEntry(), sampleEntry()
	a.ID = 1
	b.ID = 42

	da, err := a.ComputeDigest(nil)
	require.NoError(t, err)
	db, err := b.ComputeDigest(nil)
	require.NoError(t, err)
	assert.Equal(t, da, db, "the digest must be computable before the store assigns an id")
}

func TestDigestCoversBodyAndLink(t *testing.T) {
	base, err := sampleEntry().ComputeDigest(nil)
	require.NoError(t, err)

	changed := sampleEntry()
	changed.Details = "grantee=doctor-1 level=FULL"
	d, err := changed.ComputeDigest(nil)
	require.NoError(t, err)
	assert.NotEqual(t, base, d)

	linked, err := sampleEntry().ComputeDigest([]byte("prev"))
	require.NoError(t, err)
	assert.NotEqual(t, base, linked)
}

func TestSealAndVerify(t *testing.T) {
	first := sampleEntry()
	require.NoError(t, first.Seal(nil))

	second := sampleEntry()
	second.Action = AuditActionRevoke
	require.NoError(t, second.Seal(first.Digest))

	ok, err := first.VerifyAgainst(nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.VerifyAgainst(first.Digest)
	require.NoError(t, err)
	assert.True(t, ok)

	// A rewritten body fails verification even with the link intact.
	second.Details = "edited"
	ok, err = second.VerifyAgainst(first.Digest)
	require.NoError(t, err)
	assert.False(t, ok)

	// A relinked entry fails on the prev comparison.
	ok, err = first.VerifyAgainst([]byte("other"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantLiveAt(t *testing.T) {
	now := time.Unix(1700000000, 0)

	grant := &PermissionGrant{Active: true, ExpiresAt: 0}
	assert.True(t, grant.LiveAt(now), "zero expiry never expires")

	grant = &PermissionGrant{Active: true, ExpiresAt: now.Unix() + 1}
	assert.True(t, grant.LiveAt(now))

	grant = &PermissionGrant{Active: true, ExpiresAt: now.Unix()}
	assert.False(t, grant.LiveAt(now), "expiry boundary is exclusive")

	grant = &PermissionGrant{Active: false, ExpiresAt: 0}
	assert.False(t, grant.LiveAt(now))
}

func TestAccessLevelCovers(t *testing.T) {
	assert.True(t, AccessLevelFull.Covers(AccessLevelRead))
	assert.True(t, AccessLevelWrite.Covers(AccessLevelWrite))
	assert.False(t, AccessLevelRead.Covers(AccessLevelWrite))
	assert.False(t, AccessLevel(5).Valid())
	assert.False(t, AccessLevel(-1).Valid())
}

func TestEntityTypeRegistrable(t *testing.T) {
	assert.False(t, EntityTypePatient.Registrable(), "patients self-register")
	assert.True(t, EntityTypeDoctor.Registrable())
	assert.True(t, EntityTypeInsurance.Registrable())
	assert.True(t, EntityTypeAuditor.Registrable())
	assert.False(t, EntityTypeUnregistered.Registrable())
}
