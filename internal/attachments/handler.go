package attachments

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/tenancy"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

const maxUploadBytes = 20 << 20

// LeadGetter is used to confirm the caller owns the lead.
type LeadGetter interface {
	GetByID(ctx context.Context, userID, id string) (*leads.Lead, error)
}

// Handler serves lead attachments.
type Handler struct {
	store  *Store
	leads  LeadGetter
	logger *logging.Logger
}

func NewHandler(store *Store, leadsRepo LeadGetter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, leads: leadsRepo, logger: logger}
}

// Upload handles POST /leads/{leadID}/attachments (multipart field "file").
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, leadID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		leads.WriteError(w, http.StatusBadRequest, "multipart field \"file\" required")
		return
	}
	defer file.Close()

	att, err := h.store.Upload(r.Context(), userID, leadID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.respondError(w, err, leadID)
		return
	}
	att.Size = header.Size
	leads.WriteJSON(w, http.StatusCreated, att)
}

// List handles GET /leads/{leadID}/attachments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, leadID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	list, err := h.store.List(r.Context(), userID, leadID)
	if err != nil {
		h.respondError(w, err, leadID)
		return
	}
	leads.WriteJSON(w, http.StatusOK, map[string]any{"attachments": list})
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		leads.WriteError(w, http.StatusUnauthorized, "missing user context")
		return "", "", false
	}
	leadID := chi.URLParam(r, "leadID")
	if !h.store.Enabled() {
		leads.WriteError(w, http.StatusServiceUnavailable, ErrDisabled.Error())
		return "", "", false
	}
	if _, err := h.leads.GetByID(r.Context(), userID, leadID); err != nil {
		h.respondError(w, err, leadID)
		return "", "", false
	}
	return userID, leadID, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error, leadID string) {
	switch {
	case errors.Is(err, ErrDisabled):
		leads.WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrInvalidName):
		leads.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		status := leads.StatusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("attachment request failed", "lead_id", leadID, "error", err)
			leads.WriteError(w, status, "internal server error")
			return
		}
		leads.WriteError(w, status, err.Error())
	}
}
