package model

import "time"

// AccessLevel is totally ordered: READ < WRITE < FULL. A grant at a given
// level satisfies checks at that level and every level below it.
type AccessLevel int

const (
	AccessLevelRead  AccessLevel = 0
	AccessLevelWrite AccessLevel = 1
	AccessLevelFull  AccessLevel = 2
)

func (l AccessLevel) Valid() bool {
	return l >= AccessLevelRead && l <= AccessLevelFull
}

// Covers reports whether a grant at level l satisfies required.
func (l AccessLevel) Covers(required AccessLevel) bool {
	return l >= required
}

func (l AccessLevel) String() string {
	switch l {
	case AccessLevelRead:
		return "READ"
	case AccessLevelWrite:
		return "WRITE"
	case AccessLevelFull:
		return "FULL"
	default:
		return "INVALID"
	}
}

// PermissionGrant is a patient-authored, revocable permission for one
// grantee. Keyed by (patient, grantee); granting again overwrites.
type PermissionGrant struct {
	Patient   Principal   `db:"patient" json:"patient"`
	Grantee   Principal   `db:"grantee" json:"grantee"`
	Level     AccessLevel `db:"level" json:"level"`
	ExpiresAt int64       `db:"expires_at" json:"expires_at"` // unix seconds, 0 means never
	Purpose   string      `db:"purpose" json:"purpose"`
	Active    bool        `db:"active" json:"active"`
	GrantedAt time.Time   `db:"granted_at" json:"granted_at"`
}

// LiveAt evaluates liveness lazily. Expired grants stay stored; every check
// recomputes from ExpiresAt.
func (g *PermissionGrant) LiveAt(now time.Time) bool {
	if !g.Active {
		return false
	}
	return g.ExpiresAt == 0 || g.ExpiresAt > now.Unix()
}
