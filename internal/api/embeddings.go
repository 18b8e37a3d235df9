package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daybook-edu/daybook/internal/events"
	"github.com/daybook-edu/daybook/internal/middleware"
	"github.com/daybook-edu/daybook/internal/semantic"
	"github.com/daybook-edu/daybook/internal/store"
)

// EmbeddingsHandler exposes the embedding engine over HTTP.
type EmbeddingsHandler struct {
	svc          *semantic.Service
	expectations semantic.ExpectationSource
	publisher    *events.Publisher
}

// NewEmbeddingsHandler creates a new EmbeddingsHandler. publisher may be nil
// when the event bus is not configured.
func NewEmbeddingsHandler(svc *semantic.Service, expectations semantic.ExpectationSource, publisher *events.Publisher) *EmbeddingsHandler {
	return &EmbeddingsHandler{
		svc:          svc,
		expectations: expectations,
		publisher:    publisher,
	}
}

// Status handles GET /embeddings/status.
func (h *EmbeddingsHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Available() {
		writeJSON(w, http.StatusOK, map[string]any{
			"available": false,
			"message":   "Embedding service is not configured. Set OPENAI_API_KEY to enable semantic search.",
		})
		return
	}

	status, err := h.svc.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute embedding status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GenerateRequest is the request body for bulk generation.
type GenerateRequest struct {
	ForceRegenerate bool `json:"force_regenerate"`
}

// Generate handles POST /embeddings/generate (admin gated).
func (h *EmbeddingsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Available() {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Embedding service is not configured")
		return
	}

	var req GenerateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	generated, err := h.svc.GenerateMissing(r.Context(), req.ForceRegenerate, nil)
	if err != nil {
		if errors.Is(err, semantic.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Embedding service is not configured")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Embedding generation failed")
		return
	}

	if h.publisher != nil {
		_ = h.publisher.EmbeddingsGenerated(r.Context(), generated, req.ForceRegenerate)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"generated": generated,
		"message":   "Embedding generation complete",
	})
}

// Similar handles GET /embeddings/similar/{id}.
func (h *EmbeddingsHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid expectation id")
		return
	}

	opts := searchOptionsFromQuery(r)
	matches, err := h.svc.FindSimilarTo(r.Context(), id, opts)
	if err != nil {
		if errors.Is(err, semantic.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Similarity search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": matches})
}

// SearchRequest is the request body for free-text similarity search.
type SearchRequest struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// Search handles POST /embeddings/search.
func (h *EmbeddingsHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Query is required")
		return
	}
	if !h.svc.Available() {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Embedding service is not configured")
		return
	}

	matches, err := h.svc.SearchByText(r.Context(), req.Query, semantic.SearchOptions{
		Threshold: req.Threshold,
		Limit:     req.Limit,
	})
	if err != nil {
		if errors.Is(err, semantic.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Query is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Search failed")
		return
	}

	if h.publisher != nil {
		_ = h.publisher.SearchPerformed(r.Context(), middleware.ClientIDFromContext(r.Context()), len(matches))
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": matches})
}

// GenerateOne handles POST /embeddings/expectations/{id} (admin gated):
// generates (or returns the cached) embedding for a single expectation.
func (h *EmbeddingsHandler) GenerateOne(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid expectation id")
		return
	}

	exp, err := h.expectations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Expectation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load expectation")
		return
	}

	rec, err := h.svc.GetOrCreate(r.Context(), exp)
	if err != nil {
		if errors.Is(err, semantic.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Embedding service is not configured")
			return
		}
		writeError(w, http.StatusBadGateway, "EMBEDDING_FAILED", "Could not generate embedding")
		return
	}

	writeSuccess(w, http.StatusOK, rec)
}

func searchOptionsFromQuery(r *http.Request) semantic.SearchOptions {
	var opts semantic.SearchOptions
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := q.Get("threshold"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opts.Threshold = &f
		}
	}
	return opts
}
