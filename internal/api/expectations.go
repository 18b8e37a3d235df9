package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daybook-edu/daybook/internal/events"
	"github.com/daybook-edu/daybook/internal/store"
)

// ExpectationsHandler provides the minimal expectation surface that feeds
// the embedding engine; the full curriculum CRUD lives in the planner app.
type ExpectationsHandler struct {
	expectations *store.ExpectationStore
	publisher    *events.Publisher
}

// NewExpectationsHandler creates a new ExpectationsHandler.
func NewExpectationsHandler(expectations *store.ExpectationStore, publisher *events.Publisher) *ExpectationsHandler {
	return &ExpectationsHandler{expectations: expectations, publisher: publisher}
}

// Create handles POST /expectations. Creation publishes an event; the event
// subscriber embeds the new expectation asynchronously.
func (h *ExpectationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input store.ExpectationCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if input.Code == "" || input.Description == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Code and description are required")
		return
	}
	if input.Subject == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Subject is required")
		return
	}

	exp, err := h.expectations.Create(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create expectation")
		return
	}

	if h.publisher != nil {
		_ = h.publisher.ExpectationCreated(r.Context(), exp)
	}

	writeSuccess(w, http.StatusCreated, exp)
}

// List handles GET /expectations.
func (h *ExpectationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ExpectationFilter{Limit: 100}

	if v := q.Get("subject"); v != "" {
		filter.Subject = &v
	}
	if v := q.Get("grade"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Grade = &n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	expectations, err := h.expectations.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list expectations")
		return
	}
	writeSuccess(w, http.StatusOK, expectations)
}

// Get handles GET /expectations/{id}.
func (h *ExpectationsHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	writeSuccess(w, http.StatusOK, exp)
}
