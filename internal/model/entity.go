package model

import "time"

// Principal is an opaque caller identity. Principals are supplied by the
// authentication layer; the core never mints or verifies them.
type Principal string

func (p Principal) String() string { return string(p) }

// EntityType is the role a principal was registered with. A principal holds
// at most one type for its lifetime.
type EntityType int

const (
	EntityTypePatient   EntityType = 0
	EntityTypeDoctor    EntityType = 1
	EntityTypeInsurance EntityType = 2
	EntityTypeAuditor   EntityType = 3

	// EntityTypeUnregistered is the sentinel returned for principals that
	// were never registered. Absence is a checkable state, not an error.
	EntityTypeUnregistered EntityType = -1
)

// Registrable reports whether the type can be assigned through
// administrative registration. Patients self-register.
func (t EntityType) Registrable() bool {
	return t == EntityTypeDoctor || t == EntityTypeInsurance || t == EntityTypeAuditor
}

func (t EntityType) String() string {
	switch t {
	case EntityTypePatient:
		return "PATIENT"
	case EntityTypeDoctor:
		return "DOCTOR"
	case EntityTypeInsurance:
		return "INSURANCE"
	case EntityTypeAuditor:
		return "AUDITOR"
	default:
		return "UNREGISTERED"
	}
}

type EntityRecord struct {
	Principal    Principal  `db:"principal" json:"principal"`
	EntityType   EntityType `db:"entity_type" json:"entity_type"`
	RegisteredAt time.Time  `db:"registered_at" json:"registered_at"`
}
