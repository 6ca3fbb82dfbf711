package scoring

import (
	"github.com/wolfman30/leadpilot-crm/internal/leads"
)

// Summary aggregates a user's pipeline.
type Summary struct {
	TotalLeads           int            `json:"total_leads"`
	ByStatus             map[string]int `json:"by_status"`
	ByUrgency            map[string]int `json:"by_urgency"`
	ByAction             map[string]int `json:"by_action"`
	TotalPotentialValue  float64        `json:"total_potential_value"`
	TotalExpectedRevenue float64        `json:"total_expected_revenue"`
	Top                  *AIAnalysis    `json:"top,omitempty"`
}

// Summarize builds a Summary from leads and their analyses. analyses must
// be the AnalyzeLeads output for list; extra entries on either side are ignored.
func Summarize(list []leads.Lead, analyses []AIAnalysis) Summary {
	s := Summary{
		ByStatus:  map[string]int{},
		ByUrgency: map[string]int{},
		ByAction:  map[string]int{},
	}
	n := len(list)
	if len(analyses) < n {
		n = len(analyses)
	}
	s.TotalLeads = n
	for i := 0; i < n; i++ {
		status := leads.NormalizeStatus(list[i].Status)
		if status == "" {
			status = leads.StatusNew
		}
		s.ByStatus[status]++
		s.TotalPotentialValue += nonNegative(list[i].PotentialValue)

		a := analyses[i]
		s.ByUrgency[UrgencyLabel(a.Urgency)]++
		s.ByAction[a.Action]++
		s.TotalExpectedRevenue += a.ExpectedRevenue
	}
	if top, ok := Top(analyses[:n]); ok {
		s.Top = &top
	}
	return s
}
