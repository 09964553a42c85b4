package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aldenhq/alden-api/internal/models"
	"github.com/google/uuid"
)

// DocumentRepository handles document database operations
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new document record
func (r *DocumentRepository) Create(ctx context.Context, document *models.Document) error {
	query := `
		INSERT INTO documents (id, user_id, name, type, storage_ref, size_bytes, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING uploaded_at
	`

	err := r.db.QueryRowContext(ctx, query,
		document.ID,
		document.UserID,
		document.Name,
		document.Type,
		document.StorageRef,
		document.Size,
		time.Now().UTC(),
	).Scan(&document.UploadedAt)

	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID, scoped to the owning user
func (r *DocumentRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Document, error) {
	query := `
		SELECT id, user_id, name, type, storage_ref, size_bytes, uploaded_at
		FROM documents
		WHERE id = $1 AND user_id = $2
	`

	document, err := scanDocumentRow(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document: %w", ErrNotFound)
	}
	return document, err
}

// ListByUser retrieves all documents for a user, most recent upload first
func (r *DocumentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	query := `
		SELECT id, user_id, name, type, storage_ref, size_bytes, uploaded_at
		FROM documents
		WHERE user_id = $1
		ORDER BY uploaded_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		document, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return documents, nil
}

// Delete deletes a document record
func (r *DocumentRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("document: %w", ErrNotFound)
	}

	return nil
}

func scanDocumentRow(row rowScanner) (*models.Document, error) {
	document := &models.Document{}
	var size sql.NullInt64

	err := row.Scan(
		&document.ID,
		&document.UserID,
		&document.Name,
		&document.Type,
		&document.StorageRef,
		&size,
		&document.UploadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	if size.Valid {
		document.Size = &size.Int64
	}

	return document, nil
}
