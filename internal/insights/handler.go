// Package insights serves the scoring and mission engines over HTTP for the
// calling user's pipeline.
package insights

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/missions"
	"github.com/wolfman30/leadpilot-crm/internal/observability/metrics"
	"github.com/wolfman30/leadpilot-crm/internal/scoring"
	"github.com/wolfman30/leadpilot-crm/internal/tenancy"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

// pageSize bounds each repository read while loading a whole pipeline.
const pageSize = 500

// Handler serves priorities, missions and the pipeline summary.
type Handler struct {
	repo      leads.Repository
	generator *missions.Generator
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewHandler(repo leads.Repository, m *metrics.LeadMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:      repo,
		generator: missions.NewGenerator(logger),
		metrics:   m,
		logger:    logger.Component("insights"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time used when ?at= is absent.
func (h *Handler) SetClock(now func() time.Time) {
	if now != nil {
		h.now = now
	}
}

// PrioritiesResponse is the ranked pipeline.
type PrioritiesResponse struct {
	Priorities []scoring.AIAnalysis `json:"priorities"`
	Top        *scoring.AIAnalysis  `json:"top,omitempty"`
	Count      int                  `json:"count"`
	Total      int                  `json:"total"`
}

// MissionsResponse lists missions evaluated at a point in time.
type MissionsResponse struct {
	Missions []missions.Mission `json:"missions"`
	Count    int                `json:"count"`
	At       time.Time          `json:"at"`
}

// Priorities handles GET /leads/priorities
func (h *Handler) Priorities(w http.ResponseWriter, r *http.Request) {
	list, ok := h.load(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			leads.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	analyses := scoring.AnalyzeLeads(list)
	h.metrics.ObserveAnalyses(len(analyses))
	ranked := scoring.Rank(analyses)

	resp := PrioritiesResponse{Total: len(ranked)}
	if top, ok := scoring.Top(analyses); ok {
		resp.Top = &top
	}
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	resp.Priorities = ranked
	resp.Count = len(ranked)
	leads.WriteJSON(w, http.StatusOK, resp)
}

// Missions handles GET /leads/missions
func (h *Handler) Missions(w http.ResponseWriter, r *http.Request) {
	at := h.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		ts := leads.ParseTimestamp(raw)
		if !ts.IsValid() {
			leads.WriteError(w, http.StatusBadRequest, "at must be an RFC3339 timestamp")
			return
		}
		at = ts.Time()
	}

	list, ok := h.load(w, r)
	if !ok {
		return
	}

	out := h.generator.Generate(list, at)
	for _, m := range out {
		h.metrics.ObserveMission(string(m.Type))
	}
	if out == nil {
		out = []missions.Mission{}
	}
	leads.WriteJSON(w, http.StatusOK, MissionsResponse{Missions: out, Count: len(out), At: at})
}

// Summary handles GET /leads/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	list, ok := h.load(w, r)
	if !ok {
		return
	}
	analyses := scoring.AnalyzeLeads(list)
	h.metrics.ObserveAnalyses(len(analyses))
	leads.WriteJSON(w, http.StatusOK, scoring.Summarize(list, analyses))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) ([]leads.Lead, bool) {
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		leads.WriteError(w, http.StatusUnauthorized, "missing user context")
		return nil, false
	}
	list, err := loadPipeline(r.Context(), h.repo, userID)
	if err != nil {
		h.logger.Error("failed to load pipeline", "user_id", userID, "error", err)
		leads.WriteError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return list, true
}

// loadPipeline reads every lead owned by userID, oldest first.
func loadPipeline(ctx context.Context, repo leads.Repository, userID string) ([]leads.Lead, error) {
	var out []leads.Lead
	for offset := 0; ; offset += pageSize {
		page, err := repo.ListByUser(ctx, userID, leads.ListLeadsFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("insights: list leads: %w", err)
		}
		for _, l := range page {
			out = append(out, *l)
		}
		if len(page) < pageSize {
			return out, nil
		}
	}
}
