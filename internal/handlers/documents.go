package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/middleware"
	"github.com/aldenhq/alden-api/internal/models"
	"github.com/aldenhq/alden-api/internal/request"
	"github.com/aldenhq/alden-api/internal/storage"
	"github.com/aldenhq/alden-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ExtractionPlaceholder is returned as content for document types that do
// not have text extraction implemented.
const ExtractionPlaceholder = "Content extraction not implemented for this document type"

// documentTypeByContentType maps accepted upload MIME types to document types
var documentTypeByContentType = map[string]models.DocumentType{
	"application/pdf": models.DocumentTypePDF,
	"image/jpeg":      models.DocumentTypeImage,
	"image/png":       models.DocumentTypeImage,
	"text/plain":      models.DocumentTypeText,
}

// DocumentHandler handles document upload and retrieval requests
type DocumentHandler struct {
	documents database.DocumentRepositoryInterface
	blobs     storage.BlobStore
	logger    *zap.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents database.DocumentRepositoryInterface, blobs storage.BlobStore, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{documents: documents, blobs: blobs, logger: logger}
}

// RegisterRoutes registers document routes on the given router.
// The router should already have the /documents prefix.
func (h *DocumentHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/upload", h.Upload).Methods("POST")
	r.HandleFunc("", h.ListDocuments).Methods("GET")
	r.HandleFunc("/{id}", h.DeleteDocument).Methods("DELETE")
	r.HandleFunc("/{id}/content", h.GetContent).Methods("GET")
}

// ContentResponse represents extracted document content
type ContentResponse struct {
	DocumentID uuid.UUID           `json:"document_id"`
	Type       models.DocumentType `json:"type"`
	Content    string              `json:"content"`
}

// Upload accepts a multipart file upload and stores it
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if err := r.ParseMultipartForm(middleware.MaxUploadSize); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Missing file field")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("upload_file_close_failed", zap.Error(closeErr))
		}
	}()

	contentType := header.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	docType, ok := documentTypeByContentType[contentType]
	if !ok {
		respondJSONError(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Only PDF, JPEG, PNG and plain text uploads are supported")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, middleware.MaxUploadSize+1))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to read upload")
		return
	}
	if int64(len(data)) > middleware.MaxUploadSize {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Upload exceeds maximum size")
		return
	}
	if len(data) == 0 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Uploaded file is empty")
		return
	}

	name := validation.SanitizeText(header.Filename)
	if name == "" {
		name = "document"
	}

	reference, err := h.blobs.Store(r.Context(), data, name)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store document")
		return
	}

	size := int64(len(data))
	document := &models.Document{
		ID:         uuid.New(),
		UserID:     user.ID,
		Name:       name,
		Type:       docType,
		StorageRef: reference,
		Size:       &size,
	}
	if err := h.documents.Create(r.Context(), document); err != nil {
		// Keep blobs and records consistent when the insert fails.
		if cleanupErr := h.blobs.Delete(r.Context(), reference); cleanupErr != nil {
			h.logger.Warn("upload_blob_cleanup_failed",
				zap.String("reference", reference),
				zap.Error(cleanupErr))
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save document")
		return
	}

	respondJSON(w, http.StatusCreated, document)
}

// ListDocuments lists the user's uploaded documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	documents, err := h.documents.ListByUser(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve documents")
		return
	}

	respondJSON(w, http.StatusOK, documents)
}

// DeleteDocument removes a document record and its stored bytes
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid document ID")
		return
	}

	document, err := h.documents.GetByID(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Document not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve document")
		return
	}

	if err := h.blobs.Delete(r.Context(), document.StorageRef); err != nil && !errors.Is(err, storage.ErrNotFound) {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete document")
		return
	}

	if err := h.documents.Delete(r.Context(), id, user.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete document")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetContent returns text content for text documents. Other types get an
// explicit placeholder until extraction is implemented.
func (h *DocumentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid document ID")
		return
	}

	document, err := h.documents.GetByID(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Document not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve document")
		return
	}

	response := ContentResponse{DocumentID: document.ID, Type: document.Type}
	if document.Type == models.DocumentTypeText {
		data, err := h.blobs.Retrieve(r.Context(), document.StorageRef)
		if err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to read document content")
			return
		}
		response.Content = string(data)
	} else {
		response.Content = ExtractionPlaceholder
	}

	respondJSON(w, http.StatusOK, response)
}
