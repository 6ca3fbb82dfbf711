package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/leadpilot-crm/internal/leads"
)

const epsilon = 1e-9

func TestAnalyzeEndToEnd(t *testing.T) {
	got := AnalyzeLeads([]leads.Lead{{
		ID:             "A",
		Status:         "qualified",
		Score:          10,
		PotentialValue: 1000,
		LeadType:       "hot",
	}})
	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, "A", a.ID)
	assert.InDelta(t, 90, a.Probability, epsilon)
	assert.InDelta(t, 30, a.Urgency, epsilon)
	assert.InDelta(t, 900, a.ExpectedRevenue, epsilon)
	assert.InDelta(t, 99, a.PriorityScore, epsilon)
	assert.Equal(t, ActionCloseNow, a.Action)
}

func TestAnalyzeBaseProbability(t *testing.T) {
	tests := []struct {
		status   string
		leadType string
		want     float64
	}{
		{"new", "", 20},
		{"new", "warm", 20},
		{"new", "hot", 40},
		{"contacted", "", 40},
		{"contacted", "hot", 60},
		{"qualified", "", 70},
		{"qualified", "hot", 90},
		{" Qualified ", "HOT", 90},
		{"proposal", "", 20},
		{"lost", "", 20},
		{"", "", 20},
		{"mystery", "hot", 40},
	}
	for _, tt := range tests {
		t.Run(tt.status+"/"+tt.leadType, func(t *testing.T) {
			a := Analyze(leads.Lead{Status: tt.status, LeadType: tt.leadType})
			assert.InDelta(t, tt.want, a.Probability, epsilon)
		})
	}
}

func TestAnalyzeFormulas(t *testing.T) {
	inputs := []leads.Lead{
		{Status: "new", Score: 0, PotentialValue: 0},
		{Status: "new", Score: 35, PotentialValue: 250},
		{Status: "contacted", Score: 90, PotentialValue: 10000},
		{Status: "qualified", Score: 55.5, PotentialValue: 1234.56, LeadType: "hot"},
		{Status: "closed", Score: 100, PotentialValue: 50},
	}
	for _, lead := range inputs {
		a := Analyze(lead)
		wantUrgency := math.Min(100, lead.Score+lead.PotentialValue/50)
		assert.InDelta(t, wantUrgency, a.Urgency, epsilon)
		assert.LessOrEqual(t, a.Urgency, 100.0)
		assert.InDelta(t, lead.PotentialValue*a.Probability/100, a.ExpectedRevenue, epsilon)
		assert.InDelta(t, 0.5*a.Probability+0.3*a.Urgency+a.ExpectedRevenue/20, a.PriorityScore, epsilon)
		assert.GreaterOrEqual(t, a.Probability, 0.0)
		assert.LessOrEqual(t, a.Probability, 100.0)
		assert.GreaterOrEqual(t, a.ExpectedRevenue, 0.0)
	}
}

func TestActionThresholds(t *testing.T) {
	assert.Equal(t, ActionCloseNow, actionFor(80.5))
	assert.Equal(t, ActionBookCall, actionFor(80))
	assert.Equal(t, ActionBookCall, actionFor(50.01))
	assert.Equal(t, ActionFollowUp, actionFor(50))
	assert.Equal(t, ActionFollowUp, actionFor(0))

	assert.Equal(t, ActionBookCall, Analyze(leads.Lead{Status: "qualified"}).Action)
	assert.Equal(t, ActionBookCall, Analyze(leads.Lead{Status: "contacted", LeadType: "hot"}).Action)
	assert.Equal(t, ActionFollowUp, Analyze(leads.Lead{Status: "contacted"}).Action)
}

func TestNegativeInputsAreClamped(t *testing.T) {
	a := Analyze(leads.Lead{Status: "qualified", Score: -40, PotentialValue: -5000})
	assert.Equal(t, 0.0, a.Urgency)
	assert.Equal(t, 0.0, a.ExpectedRevenue)
	assert.InDelta(t, 35, a.PriorityScore, epsilon)

	nan := Analyze(leads.Lead{Score: math.NaN(), PotentialValue: math.NaN()})
	assert.Equal(t, 0.0, nan.Urgency)
	assert.Equal(t, 0.0, nan.ExpectedRevenue)
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 100.0, clampPercent(110))
	assert.Equal(t, 0.0, clampPercent(-1))
	assert.Equal(t, 55.0, clampPercent(55))
	assert.Equal(t, 0.0, clampPercent(math.NaN()))
}

func TestAnalyzeLeadsPreservesOrderAndIsIdempotent(t *testing.T) {
	input := []leads.Lead{
		{ID: "low", Status: "new", Score: 5},
		{ID: "high", Status: "qualified", Score: 80, PotentialValue: 9000, LeadType: "hot"},
		{ID: "mid", Status: "contacted", Score: 40, PotentialValue: 500},
	}
	first := AnalyzeLeads(input)
	second := AnalyzeLeads(input)
	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, "low", first[0].ID)
	assert.Equal(t, "high", first[1].ID)
	assert.Equal(t, "mid", first[2].ID)

	assert.Empty(t, AnalyzeLeads(nil))
}
