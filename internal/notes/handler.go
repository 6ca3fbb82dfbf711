package notes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/tenancy"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

// Handler serves note extraction.
type Handler struct {
	extractor *Extractor
	repo      leads.Repository
	logger    *logging.Logger
}

func NewHandler(extractor *Extractor, repo leads.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{extractor: extractor, repo: repo, logger: logger}
}

type extractRequest struct {
	Notes string `json:"notes"`
}

// ExtractResponse carries the draft and, when saved, the created lead.
type ExtractResponse struct {
	Draft *LeadDraft  `json:"draft"`
	Lead  *leads.Lead `json:"lead,omitempty"`
}

// Extract handles POST /leads/extract[?save=true]
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		leads.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var req extractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		leads.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	save, _ := strconv.ParseBool(r.URL.Query().Get("save"))

	draft, err := h.extractor.Extract(r.Context(), req.Notes)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !save {
		leads.WriteJSON(w, http.StatusOK, ExtractResponse{Draft: draft})
		return
	}

	lead, err := h.repo.Create(r.Context(), draft.CreateRequest(userID, req.Notes))
	if err != nil {
		status := leads.StatusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("failed to save extracted lead", "user_id", userID, "error", err)
			leads.WriteError(w, status, "internal server error")
			return
		}
		leads.WriteError(w, status, err.Error())
		return
	}
	h.logger.Info("lead created from notes", "lead_id", lead.ID, "user_id", userID)
	leads.WriteJSON(w, http.StatusCreated, ExtractResponse{Draft: draft, Lead: lead})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyNotes), errors.Is(err, ErrNotesTooLong):
		leads.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnparseable), errors.Is(err, ErrMissingName):
		leads.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNoLLM):
		leads.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("notes extraction failed", "error", err)
		leads.WriteError(w, http.StatusBadGateway, "extraction failed")
	}
}
