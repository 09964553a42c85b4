package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType represents the kind of uploaded document
type DocumentType string

const (
	DocumentTypePDF   DocumentType = "pdf"
	DocumentTypeImage DocumentType = "image"
	DocumentTypeText  DocumentType = "text"
)

// Document represents an uploaded study document. The bytes live in the
// blob store under StorageRef; this record only tracks metadata.
type Document struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	Name       string       `json:"name"`
	Type       DocumentType `json:"type"`
	StorageRef string       `json:"uri"`
	Size       *int64       `json:"size,omitempty"` // bytes
	UploadedAt time.Time    `json:"upload_date"`
}
