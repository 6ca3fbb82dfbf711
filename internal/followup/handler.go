package followup

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/tenancy"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

// Handler exposes follow-up drafting and sending over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Draft handles POST /leads/{leadID}/followup/draft
func (h *Handler) Draft(w http.ResponseWriter, r *http.Request) {
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		leads.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	leadID := chi.URLParam(r, "leadID")

	email, err := h.service.DraftByID(r.Context(), userID, leadID)
	if err != nil {
		h.respondError(w, err, leadID)
		return
	}
	leads.WriteJSON(w, http.StatusOK, email)
}

// Send handles POST /leads/{leadID}/followup/send
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		leads.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	leadID := chi.URLParam(r, "leadID")

	result, err := h.service.SendByID(r.Context(), userID, leadID)
	if err != nil {
		h.respondError(w, err, leadID)
		return
	}
	leads.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, leadID string) {
	switch {
	case errors.Is(err, ErrMissingEmail):
		leads.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrEmailDisabled):
		leads.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		status := leads.StatusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("followup request failed", "lead_id", leadID, "error", err)
			leads.WriteError(w, status, "internal server error")
			return
		}
		leads.WriteError(w, status, err.Error())
	}
}
