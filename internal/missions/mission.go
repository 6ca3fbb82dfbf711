// Package missions turns a lead collection into concrete next actions for
// the sales user: follow-ups that are due, stale leads to revive, and
// qualified leads worth closing.
package missions

import (
	"io"
	"time"

	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

// Type identifies the rule that produced a mission.
type Type string

const (
	TypeFollowup Type = "followup"
	TypeRevive   Type = "revive"
	TypeClose    Type = "close"
)

const (
	followupMinScore = 30.0
	closeMinScore    = 40.0
	// reviveAfterDays is measured from created_at, not last contact.
	reviveAfterDays = 3.0
)

// Mission is an action recommendation tied to one lead.
type Mission struct {
	Type   Type   `json:"type"`
	Text   string `json:"text"`
	LeadID string `json:"leadId"`
}

// Generator evaluates the mission rules. Leads whose timestamps cannot be
// parsed are reported on the logger and skipped for the affected rule only.
type Generator struct {
	logger *logging.Logger
}

// NewGenerator returns a Generator that reports diagnostics to logger.
func NewGenerator(logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Generator{logger: logger.Component("missions")}
}

var silent = &Generator{logger: logging.NewWithWriter("error", io.Discard)}

// Generate evaluates the rules without diagnostics output.
func Generate(list []leads.Lead, now time.Time) []Mission {
	return silent.Generate(list, now)
}

// Generate returns the missions for list at now. For each lead in input
// order the rules run as followup, revive, close; a lead can match several.
func (g *Generator) Generate(list []leads.Lead, now time.Time) []Mission {
	now = now.UTC()
	out := []Mission{}
	for i := range list {
		out = append(out, g.forLead(&list[i], now)...)
	}
	return out
}

func (g *Generator) forLead(lead *leads.Lead, now time.Time) []Mission {
	var out []Mission
	status := leads.NormalizeStatus(lead.Status)

	if lead.Score >= followupMinScore && !leads.IsClosed(status) {
		if m, ok := g.followup(lead, now); ok {
			out = append(out, m)
		}
	}
	if status == leads.StatusContacted {
		if m, ok := g.revive(lead, now); ok {
			out = append(out, m)
		}
	}
	if status == leads.StatusQualified && lead.Score >= closeMinScore {
		out = append(out, Mission{Type: TypeClose, Text: "Try closing " + lead.Name, LeadID: lead.ID})
	}
	return out
}

func (g *Generator) followup(lead *leads.Lead, now time.Time) (Mission, bool) {
	due := lead.NextFollowupAt
	if due.Invalid() {
		g.logger.Warn("skipping followup rule: unparsable timestamp",
			"lead_id", lead.ID, "field", "next_followup_at", "value", due.Raw())
		return Mission{}, false
	}
	if !due.IsValid() || due.Time().After(now) {
		return Mission{}, false
	}
	return Mission{Type: TypeFollowup, Text: "Follow up with " + lead.Name, LeadID: lead.ID}, true
}

func (g *Generator) revive(lead *leads.Lead, now time.Time) (Mission, bool) {
	created := lead.CreatedAt
	if created.Invalid() {
		g.logger.Warn("skipping revive rule: unparsable timestamp",
			"lead_id", lead.ID, "field", "created_at", "value", created.Raw())
		return Mission{}, false
	}
	if !created.IsValid() {
		return Mission{}, false
	}
	days := now.Sub(created.Time()).Hours() / 24
	if days <= reviveAfterDays {
		return Mission{}, false
	}
	return Mission{Type: TypeRevive, Text: "Revive " + lead.Name + " (inactive)", LeadID: lead.ID}, true
}
