package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/domain/repositories"
	"opsdesk/internal/httputil"
	"opsdesk/internal/service"
)

// DocumentHandler serves one document kind's HTTP surface. The same handler
// type backs every kind; only the kind (and mount path) differs.
type DocumentHandler struct {
	kind   models.Kind
	svc    *service.DocumentService
	logger *slog.Logger
}

// NewDocumentHandler creates a handler bound to one document kind.
func NewDocumentHandler(kind models.Kind, svc *service.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{kind: kind, svc: svc, logger: logger}
}

// Register mounts the handler's routes under basePath, e.g. /api/quotations.
func (h *DocumentHandler) Register(mux *http.ServeMux, basePath string) {
	mux.HandleFunc("POST "+basePath, h.Create)
	mux.HandleFunc("GET "+basePath, h.List)
	mux.HandleFunc("GET "+basePath+"/summary", h.Summary)
	mux.HandleFunc("GET "+basePath+"/{id}", h.Get)
	mux.HandleFunc("PUT "+basePath+"/{id}", h.Update)
	mux.HandleFunc("DELETE "+basePath+"/{id}", h.Delete)
	mux.HandleFunc("POST "+basePath+"/{id}/restore", h.Restore)
}

func (h *DocumentHandler) documentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid document id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST {base}.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Kind = h.kind

	doc, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// Get handles GET {base}/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.Get(r.Context(), h.kind, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// List handles GET {base}?limit=&offset=&include_deleted=.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := repositories.ListOptions{}
	if v := r.URL.Query().Get("limit"); v != "" {
		opts.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		opts.Offset, _ = strconv.Atoi(v)
	}
	opts.IncludeDeleted = r.URL.Query().Get("include_deleted") == "true"

	docs, err := h.svc.List(r.Context(), h.kind, opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

// Update handles PUT {base}/{id}.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	var req service.UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Kind = h.kind

	doc, err := h.svc.Update(r.Context(), h.kind, id, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Delete handles DELETE {base}/{id} (soft delete).
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	if err := h.svc.SoftDelete(r.Context(), h.kind, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST {base}/{id}/restore.
func (h *DocumentHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.Restore(r.Context(), h.kind, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Summary handles GET {base}/summary?year=. Defaults to the current year.
func (h *DocumentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	year := time.Now().UTC().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = parsed
	}

	summary, err := h.svc.YearlySummary(r.Context(), h.kind, year)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, summary)
}

// Health is a simple health check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
