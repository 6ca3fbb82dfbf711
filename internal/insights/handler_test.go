package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/missions"
	"github.com/wolfman30/leadpilot-crm/internal/observability/metrics"
	"github.com/wolfman30/leadpilot-crm/internal/scoring"
	"github.com/wolfman30/leadpilot-crm/internal/tenancy"
)

var created = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type seeded struct {
	repo               *leads.InMemoryRepository
	ana, ben, cara, zo string
}

func seed(t *testing.T) seeded {
	t.Helper()
	repo := leads.NewInMemoryRepository()
	repo.SetClock(func() time.Time { return created })
	ctx := context.Background()

	create := func(req leads.CreateLeadRequest) string {
		lead, err := repo.Create(ctx, &req)
		require.NoError(t, err)
		return lead.ID
	}
	return seeded{
		repo: repo,
		ana:  create(leads.CreateLeadRequest{UserID: "u1", Name: "Ana", Status: "qualified", LeadType: "hot", Score: 60, PotentialValue: 1000}),
		ben:  create(leads.CreateLeadRequest{UserID: "u1", Name: "Ben", Status: "contacted", Score: 10}),
		cara: create(leads.CreateLeadRequest{UserID: "u1", Name: "Cara", Score: 50, PotentialValue: 500,
			NextFollowupAt: leads.NewTimestamp(time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC))}),
		zo: create(leads.CreateLeadRequest{UserID: "u2", Name: "Zo", Status: "qualified", Score: 90}),
	}
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user := req.Header.Get("X-User-Id"); user != "" {
				req = req.WithContext(tenancy.WithUserID(req.Context(), user))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/leads/priorities", h.Priorities)
	r.Get("/leads/missions", h.Missions)
	r.Get("/leads/summary", h.Summary)
	return r
}

func get(t *testing.T, h http.Handler, path, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPrioritiesRanksCallerLeads(t *testing.T) {
	s := seed(t)
	router := newRouter(NewHandler(s.repo, nil, nil))

	rec := get(t, router, "/leads/priorities", "u1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PrioritiesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Priorities, 3)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, []string{s.ana, s.cara, s.ben},
		[]string{resp.Priorities[0].ID, resp.Priorities[1].ID, resp.Priorities[2].ID})

	top := resp.Priorities[0]
	assert.Equal(t, 90.0, top.Probability)
	assert.Equal(t, 80.0, top.Urgency)
	assert.Equal(t, 900.0, top.ExpectedRevenue)
	assert.InDelta(t, 114.0, top.PriorityScore, 1e-9)
	assert.Equal(t, scoring.ActionCloseNow, top.Action)
	require.NotNil(t, resp.Top)
	assert.Equal(t, s.ana, resp.Top.ID)
}

func TestPrioritiesLimit(t *testing.T) {
	s := seed(t)
	router := newRouter(NewHandler(s.repo, nil, nil))

	rec := get(t, router, "/leads/priorities?limit=1", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PrioritiesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, s.ana, resp.Priorities[0].ID)

	assert.Equal(t, http.StatusBadRequest, get(t, router, "/leads/priorities?limit=0", "u1").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/leads/priorities?limit=x", "u1").Code)
}

func TestPrioritiesEmptyPipeline(t *testing.T) {
	router := newRouter(NewHandler(leads.NewInMemoryRepository(), nil, nil))

	rec := get(t, router, "/leads/priorities", "nobody")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PrioritiesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Priorities)
	assert.Nil(t, resp.Top)
}

func TestMissionsAtTimestamp(t *testing.T) {
	s := seed(t)
	router := newRouter(NewHandler(s.repo, nil, nil))

	rec := get(t, router, "/leads/missions?at=2024-06-10T00:00:00Z", "u1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MissionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []missions.Mission{
		{Type: missions.TypeClose, Text: "Try closing Ana", LeadID: s.ana},
		{Type: missions.TypeRevive, Text: "Revive Ben (inactive)", LeadID: s.ben},
		{Type: missions.TypeFollowup, Text: "Follow up with Cara", LeadID: s.cara},
	}, resp.Missions)
	assert.Equal(t, 3, resp.Count)
	assert.True(t, resp.At.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)))
}

func TestMissionsDefaultsToClock(t *testing.T) {
	s := seed(t)
	h := NewHandler(s.repo, nil, nil)
	h.SetClock(func() time.Time { return created.Add(24 * time.Hour) })

	rec := get(t, newRouter(h), "/leads/missions", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp MissionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Missions, 1)
	assert.Equal(t, missions.TypeClose, resp.Missions[0].Type)
}

func TestMissionsRejectsBadTimestamp(t *testing.T) {
	router := newRouter(NewHandler(leads.NewInMemoryRepository(), nil, nil))
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/leads/missions?at=yesterday", "u1").Code)
}

func TestSummary(t *testing.T) {
	s := seed(t)
	reg := prometheus.NewRegistry()
	router := newRouter(NewHandler(s.repo, metrics.NewLeadMetrics(reg), nil))

	rec := get(t, router, "/leads/summary", "u1")
	require.Equal(t, http.StatusOK, rec.Code)

	var sum scoring.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sum))
	assert.Equal(t, 3, sum.TotalLeads)
	assert.Equal(t, map[string]int{"qualified": 1, "contacted": 1, "new": 1}, sum.ByStatus)
	assert.Equal(t, map[string]int{scoring.UrgencyHigh: 1, scoring.UrgencyMedium: 1, scoring.UrgencyLow: 1}, sum.ByUrgency)
	assert.Equal(t, 1500.0, sum.TotalPotentialValue)
	assert.Equal(t, 1000.0, sum.TotalExpectedRevenue)
	require.NotNil(t, sum.Top)
	assert.Equal(t, s.ana, sum.Top.ID)

	families, err := reg.Gather()
	require.NoError(t, err)
	var analyses float64
	for _, f := range families {
		if f.GetName() == "leadpilot_scoring_analyses_total" {
			analyses = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 3.0, analyses)
}

func TestHandlersRequireUser(t *testing.T) {
	router := newRouter(NewHandler(leads.NewInMemoryRepository(), nil, nil))
	for _, path := range []string{"/leads/priorities", "/leads/missions", "/leads/summary"} {
		assert.Equal(t, http.StatusUnauthorized, get(t, router, path, "").Code, path)
	}
}

type failingRepository struct {
	leads.Repository
}

func (failingRepository) ListByUser(context.Context, string, leads.ListLeadsFilter) ([]*leads.Lead, error) {
	return nil, errors.New("connection refused")
}

func TestHandlersRepositoryFailure(t *testing.T) {
	router := newRouter(NewHandler(failingRepository{}, nil, nil))
	rec := get(t, router, "/leads/summary", "u1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestLoadPipelinePagesThroughLargeAccounts(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	ctx := context.Background()
	for i := 0; i < pageSize+3; i++ {
		_, err := repo.Create(ctx, &leads.CreateLeadRequest{UserID: "big", Name: fmt.Sprintf("Lead %d", i)})
		require.NoError(t, err)
	}

	list, err := loadPipeline(ctx, repo, "big")
	require.NoError(t, err)
	require.Len(t, list, pageSize+3)
	assert.Equal(t, "Lead 0", list[0].Name)
	assert.Equal(t, fmt.Sprintf("Lead %d", pageSize+2), list[pageSize+2].Name)
}
