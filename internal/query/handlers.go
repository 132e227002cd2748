// Package query is the read-only HTTP surface over stored reports.
package query

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
	"github.com/Lllllllleong/pdfreportflow/internal/report"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// errorResponse is the body of every non-200 reply.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handler serves report lookups and listings.
type Handler struct {
	store report.Store
}

func NewHandler(store report.Store) *Handler {
	return &Handler{store: store}
}

// RegisterHTTP mounts the read endpoints on a chi router. The report route
// ends in a wildcard because blob names may contain slashes.
func (h *Handler) RegisterHTTP(r chi.Router) {
	r.Get("/reports/{container}", h.listReports)
	r.Get("/reports/{container}/*", h.getReport)
}

// getReport returns the stored report JSON for one document, or 404.
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	container := chi.URLParam(r, "container")
	id := models.DocumentIdentity{Container: container, BlobName: chi.URLParam(r, "*")}

	rep, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Report not found", Details: err.Error()})
			return
		}
		slog.Error("Failed to query report.", "container", container, "blobName", id.BlobName, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to query reports.", Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// listReports returns up to `top` summaries for a container, newest first.
// A malformed top falls back to the default silently.
func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	container := chi.URLParam(r, "container")

	summaries, err := h.store.List(r.Context(), container, parseTop(r.URL.Query().Get("top")))
	if err != nil {
		slog.Error("Failed to list reports.", "container", container, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to query reports.", Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// parseTop clamps the requested page size to [1, maxListLimit].
func parseTop(raw string) int {
	top := defaultListLimit
	if raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			top = parsed
		}
	}
	if top < 1 {
		top = 1
	}
	if top > maxListLimit {
		top = maxListLimit
	}
	return top
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}
