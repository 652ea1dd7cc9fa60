package model

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

const (
	AuditActionGrant         = "GRANT"
	AuditActionRevoke        = "REVOKE"
	AuditActionDocumentAdded = "DOCUMENT_ADDED"
)

// AuditEntry is one immutable record of an authorized state-changing action.
// Entries form a per-patient hash chain: Digest covers the entry body and the
// digest of the patient's previous entry, so any rewrite of history breaks
// every later digest in that patient's trail.
type AuditEntry struct {
	ID         int64     `db:"id" json:"id"`
	Patient    Principal `db:"patient" json:"patient"`
	Action     string    `db:"action" json:"action"`
	Performer  Principal `db:"performer" json:"performer"`
	DocumentID int64     `db:"document_id" json:"document_id,omitempty"` // 0 when not document-scoped
	Details    string    `db:"details" json:"details,omitempty"`
	Timestamp  time.Time `db:"created_at" json:"timestamp"`
	PrevDigest []byte    `db:"prev_digest" json:"prev_digest"`
	Digest     []byte    `db:"digest" json:"digest"`
}

// auditEntryBody is the canonical form hashed into the chain. The stored id
// is excluded so the digest can be computed before the store assigns one.
type auditEntryBody struct {
	Patient    string `cbor:"1,keyasint"`
	Action     string `cbor:"2,keyasint"`
	Performer  string `cbor:"3,keyasint"`
	DocumentID int64  `cbor:"4,keyasint"`
	Details    string `cbor:"5,keyasint"`
	Timestamp  int64  `cbor:"6,keyasint"`
	PrevDigest []byte `cbor:"7,keyasint"`
}

var auditEncMode cbor.EncMode

func init() {
	var err error
	auditEncMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// ComputeDigest returns the chain digest of the entry body linked to prev.
func (e *AuditEntry) ComputeDigest(prev []byte) ([]byte, error) {
	body := auditEntryBody{
		Patient:    string(e.Patient),
		Action:     e.Action,
		Performer:  string(e.Performer),
		DocumentID: e.DocumentID,
		Details:    e.Details,
		Timestamp:  e.Timestamp.Unix(),
		PrevDigest: prev,
	}
	enc, err := auditEncMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit entry: %w", err)
	}
	sum := blake3.Sum256(enc)
	return sum[:], nil
}

// Seal links the entry to the previous digest and fixes its own digest.
func (e *AuditEntry) Seal(prev []byte) error {
	digest, err := e.ComputeDigest(prev)
	if err != nil {
		return err
	}
	e.PrevDigest = prev
	e.Digest = digest
	return nil
}

// VerifyAgainst recomputes the digest from the stored body and prev link.
func (e *AuditEntry) VerifyAgainst(prev []byte) (bool, error) {
	if !bytes.Equal(e.PrevDigest, prev) {
		return false, nil
	}
	digest, err := e.ComputeDigest(prev)
	if err != nil {
		return false, err
	}
	return bytes.Equal(digest, e.Digest), nil
}
