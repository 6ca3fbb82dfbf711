package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/leadpilot-crm/internal/tenancy"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

// Handler handles HTTP requests for leads
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// CreateLead handles POST /leads
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode lead request", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = userID

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.respondError(w, err, "failed to create lead", "user_id", userID)
		return
	}

	h.logger.Info("lead created", "lead_id", lead.ID, "user_id", userID, "status", lead.Status)
	WriteJSON(w, http.StatusCreated, lead)
}

// ListLeads handles GET /leads
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	filter := ListLeadsFilter{
		Limit:  50,
		Offset: 0,
		Status: r.URL.Query().Get("status"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 500 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	list, err := h.repo.ListByUser(r.Context(), userID, filter)
	if err != nil {
		h.respondError(w, err, "failed to list leads", "user_id", userID)
		return
	}

	WriteJSON(w, http.StatusOK, ListLeadsResponse{
		Leads:  list,
		Count:  len(list),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

// GetLead handles GET /leads/{leadID}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	leadID := chi.URLParam(r, "leadID")

	lead, err := h.repo.GetByID(r.Context(), userID, leadID)
	if err != nil {
		h.respondError(w, err, "failed to get lead", "lead_id", leadID)
		return
	}
	WriteJSON(w, http.StatusOK, lead)
}

// UpdateLead handles PATCH /leads/{leadID}
func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	leadID := chi.URLParam(r, "leadID")

	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.repo.Update(r.Context(), userID, leadID, &req)
	if err != nil {
		h.respondError(w, err, "failed to update lead", "lead_id", leadID)
		return
	}

	h.logger.Info("lead updated", "lead_id", lead.ID, "status", lead.Status)
	WriteJSON(w, http.StatusOK, lead)
}

// DeleteLead handles DELETE /leads/{leadID}
func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	leadID := chi.URLParam(r, "leadID")

	if err := h.repo.Delete(r.Context(), userID, leadID); err != nil {
		h.respondError(w, err, "failed to delete lead", "lead_id", leadID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, append(attrs, "error", err)...)
		WriteError(w, status, "internal server error")
		return
	}
	WriteError(w, status, err.Error())
}

// StatusForError maps lead errors to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrLeadNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMissingUserID):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrNegativeValue),
		errors.Is(err, ErrInvalidTimestamp):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error body.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
