// Package scoring ranks leads by how likely and how valuable a near-term
// close is. Everything here is a pure function of the lead fields.
package scoring

import (
	"math"

	"github.com/wolfman30/leadpilot-crm/internal/leads"
)

const (
	// Base conversion probability by pipeline status, in percent.
	probabilityNew       = 20.0
	probabilityContacted = 40.0
	probabilityQualified = 70.0
	probabilityDefault   = probabilityNew

	// hotLeadBonus is added to the probability of leads typed "hot".
	hotLeadBonus = 20.0

	// Every urgencyValueDivisor units of potential value add one urgency point.
	urgencyValueDivisor = 50.0
	urgencyCap          = 100.0

	weightProbability = 0.5
	weightUrgency     = 0.3
	// Expected revenue contributes one priority point per revenueDivisor units.
	revenueDivisor = 20.0

	// Action thresholds are strict: a probability of exactly 80 books a call.
	closeNowThreshold = 80.0
	bookCallThreshold = 50.0
)

// Recommended next steps.
const (
	ActionCloseNow = "Close deal now"
	ActionBookCall = "Book call"
	ActionFollowUp = "Follow up"
)

// AIAnalysis is the scorer's verdict for one lead.
type AIAnalysis struct {
	ID              string  `json:"id"`
	Probability     float64 `json:"probability"`
	Urgency         float64 `json:"urgency"`
	ExpectedRevenue float64 `json:"expectedRevenue"`
	PriorityScore   float64 `json:"priorityScore"`
	Action          string  `json:"action"`
}

// AnalyzeLeads scores every lead. The result has one entry per input, in
// input order; callers sort with Rank when they need a priority list.
func AnalyzeLeads(list []leads.Lead) []AIAnalysis {
	out := make([]AIAnalysis, len(list))
	for i, lead := range list {
		out[i] = Analyze(lead)
	}
	return out
}

// Analyze scores a single lead. Missing numbers count as zero and an
// unrecognized status gets the baseline probability, so it never fails.
func Analyze(lead leads.Lead) AIAnalysis {
	score := nonNegative(lead.Score)
	value := nonNegative(lead.PotentialValue)

	probability := baseProbability(lead.Status)
	if lead.IsHot() {
		probability += hotLeadBonus
	}
	probability = clampPercent(probability)

	urgency := math.Min(urgencyCap, score+value/urgencyValueDivisor)
	expectedRevenue := value * probability / 100
	priority := weightProbability*probability + weightUrgency*urgency + expectedRevenue/revenueDivisor

	return AIAnalysis{
		ID:              lead.ID,
		Probability:     probability,
		Urgency:         urgency,
		ExpectedRevenue: expectedRevenue,
		PriorityScore:   priority,
		Action:          actionFor(probability),
	}
}

func baseProbability(status string) float64 {
	switch leads.NormalizeStatus(status) {
	case leads.StatusNew:
		return probabilityNew
	case leads.StatusContacted:
		return probabilityContacted
	case leads.StatusQualified:
		return probabilityQualified
	default:
		return probabilityDefault
	}
}

func actionFor(probability float64) string {
	switch {
	case probability > closeNowThreshold:
		return ActionCloseNow
	case probability > bookCallThreshold:
		return ActionBookCall
	default:
		return ActionFollowUp
	}
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
