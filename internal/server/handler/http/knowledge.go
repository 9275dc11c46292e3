package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/metrics"
	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/service"
)

// maxUploadMemory bounds the part of a document upload kept in memory.
const maxUploadMemory = 32 << 20

// KnowledgeService defines the index and document operations
// required by the KnowledgeHandler.
type KnowledgeService interface {
	ListIndexes(ctx context.Context) ([]string, error)
	CreateIndex(ctx context.Context, userID, name string) error
	DeleteIndex(ctx context.Context, name string) error
	ListDocuments(ctx context.Context, index string) ([]models.Document, error)
	AddDocuments(ctx context.Context, index string, files []service.File) (models.AddDocumentsResponse, error)
	DeleteDocument(ctx context.Context, index, fileName string) error
}

// KnowledgeHandler handles HTTP requests for indexes and documents.
// Every endpoint requires an admin account.
type KnowledgeHandler struct {
	KnowledgeService KnowledgeService
	AuthService      AuthService
	Log              *zap.Logger
}

// ListIndexes handles GET /api/http_ai_search_list_indexes?user_id=.
func (h *KnowledgeHandler) ListIndexes(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w, r, r.URL.Query().Get("user_id")) {
		return
	}
	names, err := h.KnowledgeService.ListIndexes(r.Context())
	if err != nil {
		h.fail(w, "list indexes", err)
		return
	}
	writeJSON(w, http.StatusOK, models.IndexesResponse{Indexes: names})
}

// CreateIndex handles POST /api/http_ai_search_create_index.
func (h *KnowledgeHandler) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var req models.IndexRequest
	if !decode(w, r, &req, errUserRequired) || !h.admin(w, r, req.UserID) {
		return
	}
	if err := h.KnowledgeService.CreateIndex(r.Context(), req.UserID, req.IndexName); err != nil {
		h.fail(w, "create index", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteIndex handles POST /api/http_ai_search_delete_index.
func (h *KnowledgeHandler) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	var req models.IndexRequest
	if !decode(w, r, &req, errUserRequired) || !h.admin(w, r, req.UserID) {
		return
	}
	if err := h.KnowledgeService.DeleteIndex(r.Context(), req.IndexName); err != nil {
		h.fail(w, "delete index", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListDocuments handles GET /api/http_ai_search_list_documents?user_id=&index_name=.
// The response holds one row per stored chunk.
func (h *KnowledgeHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !h.admin(w, r, q.Get("user_id")) {
		return
	}
	docs, err := h.KnowledgeService.ListDocuments(r.Context(), q.Get("index_name"))
	if err != nil {
		h.fail(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, models.DocumentsResponse{Documents: docs})
}

// AddDocuments handles POST /api/http_ai_search_add_documents, a multipart
// form with user_id, index_name and the files as file0..fileN.
func (h *KnowledgeHandler) AddDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	if !h.admin(w, r, r.FormValue("user_id")) {
		return
	}
	files, err := formFiles(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files")
		return
	}

	res, err := h.KnowledgeService.AddDocuments(r.Context(), r.FormValue("index_name"), files)
	if err != nil {
		h.fail(w, "add documents", err)
		return
	}
	metrics.ChunksIngested.Add(float64(res.Chunks))
	writeJSON(w, http.StatusOK, res)
}

// DeleteDocument handles POST /api/http_ai_search_delete_document.
func (h *KnowledgeHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteDocumentRequest
	if !decode(w, r, &req, errUserRequired) || !h.admin(w, r, req.UserID) {
		return
	}
	if err := h.KnowledgeService.DeleteDocument(r.Context(), req.IndexName, req.FileName); err != nil {
		h.fail(w, "delete document", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// formFiles reads the fileN parts in numeric order.
func formFiles(r *http.Request) ([]service.File, error) {
	type part struct {
		n    int
		name string
	}
	var parts []part
	for field := range r.MultipartForm.File {
		n, err := strconv.Atoi(strings.TrimPrefix(field, "file"))
		if !strings.HasPrefix(field, "file") || err != nil {
			continue
		}
		parts = append(parts, part{n, field})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	files := make([]service.File, 0, len(parts))
	for _, p := range parts {
		for _, fh := range r.MultipartForm.File[p.name] {
			f, err := fh.Open()
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
			}
			files = append(files, service.File{Name: fh.Filename, Data: data})
		}
	}
	return files, nil
}

// admin writes the rejection and returns false unless userID is an admin.
func (h *KnowledgeHandler) admin(w http.ResponseWriter, r *http.Request, userID string) bool {
	if userID == "" {
		writeError(w, http.StatusBadRequest, errUserRequired)
		return false
	}
	role, err := h.AuthService.Role(r.Context(), userID)
	switch {
	case errors.Is(err, service.ErrUnknownUser):
		writeError(w, http.StatusForbidden, "admin role required")
		return false
	case err != nil:
		h.fail(w, "resolve role", err)
		return false
	case role != models.RoleAdmin:
		writeError(w, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}

func (h *KnowledgeHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrIndexExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrIndexNotFound), errors.Is(err, service.ErrDocumentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnsupportedDocument):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	default:
		if h.Log != nil {
			h.Log.Error(op+" failed", zap.Error(err))
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
