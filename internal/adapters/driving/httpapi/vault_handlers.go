package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driving"
	"github.com/custodia-labs/vaultd/internal/logger"
)

// allowedTypes lists the upload extensions the extractors can handle,
// in the order shown in the rejection message.
var allowedTypes = []string{"pdf", "docx", "doc", "txt", "md", "markdown"}

// uploadResponse is the upload endpoint's payload.
type uploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// handleUpload accepts a multipart upload, stores it under a generated
// name, and schedules ingestion. The response reports "processing" even
// though the record starts pending: the pipeline is already scheduled.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = domain.ErrFileTooLarge
		} else {
			err = fmt.Errorf("%w: missing file part", domain.ErrInvalidInput)
		}
		s.rejectUpload(w, "", err)
		return
	}
	defer file.Close()

	ext := fileExtension(header.Filename)
	if err := s.validateUpload(header); err != nil {
		s.rejectUpload(w, ext, err)
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not store upload.")
		return
	}
	storedPath := filepath.Join(s.cfg.UploadDir, uuid.New().String()+"."+ext)
	size, err := saveUpload(storedPath, file)
	if err != nil {
		logger.Warn("Upload: save failed: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Could not store upload.")
		return
	}

	id, err := s.vault.Ingest(r.Context(), driving.IngestRequest{
		FilePath:     storedPath,
		OriginalName: header.Filename,
		FileType:     ext,
		FileSize:     size,
	})
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not schedule ingestion.")
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		ID:       id,
		Filename: header.Filename,
		Status:   "processing",
		Message:  "Document uploaded and being processed. Check status via /api/vault/documents/{id}",
	})
}

// handleListDocuments returns every document record.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.vault.List(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not list documents.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(docs),
	})
}

// handleGetDocument returns one document record.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.vault.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Document not found")
			return
		}
		writeDetail(w, http.StatusInternalServerError, "Could not load document.")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument removes a document and its vectors.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ok, err := s.vault.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not delete document.")
		return
	}
	if !ok {
		writeDetail(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

// handleStats returns vault aggregates.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.vault.Stats(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not compute stats.")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validateUpload enforces the extension allow-list and the size cap.
func (s *Server) validateUpload(header *multipart.FileHeader) error {
	if !isAllowedType(fileExtension(header.Filename)) {
		return domain.ErrUnsupportedType
	}
	if header.Size > s.cfg.MaxFileSize {
		return domain.ErrFileTooLarge
	}
	return nil
}

// rejectUpload maps upload validation sentinels to HTTP status codes and
// the API's detail strings.
func (s *Server) rejectUpload(w http.ResponseWriter, ext string, err error) {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		writeDetail(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large. Max size: %dMB", s.cfg.MaxFileSize>>20))
	case errors.Is(err, domain.ErrUnsupportedType):
		writeDetail(w, http.StatusBadRequest,
			fmt.Sprintf("File type '.%s' not supported. Allowed: %s", ext, strings.Join(allowedTypes, ", ")))
	default:
		writeDetail(w, http.StatusBadRequest, "A file upload is required.")
	}
}

// saveUpload streams the upload to disk and returns the byte count.
func saveUpload(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	size, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return size, nil
}

// fileExtension returns the lower-cased extension without the dot, or ""
// when the name has none.
func fileExtension(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimPrefix(strings.ToLower(ext), ".")
}

// isAllowedType reports whether the extension is accepted for upload.
func isAllowedType(ext string) bool {
	for _, t := range allowedTypes {
		if ext == t {
			return true
		}
	}
	return false
}
