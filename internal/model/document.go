package model

import "time"

// Document is metadata for one medical document. The bytes live in an
// external content-addressed store; ContentHash is an opaque reference the
// core never dereferences. Immutable once created except for IsActive.
type Document struct {
	ID           int64     `db:"id" json:"id"`
	Patient      Principal `db:"patient" json:"patient"`
	ContentHash  string    `db:"content_hash" json:"content_hash"`
	DocumentType string    `db:"document_type" json:"document_type"`
	Description  string    `db:"description" json:"description"`
	CreatedBy    Principal `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	IsActive     bool      `db:"is_active" json:"is_active"`

	Tags []string `db:"-" json:"tags"`
}
