// Package followup drafts and sends follow-up emails to leads.
package followup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/llm"
	"github.com/wolfman30/leadpilot-crm/internal/observability/metrics"
	"github.com/wolfman30/leadpilot-crm/internal/scoring"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("leadpilot.internal.followup")

// Draft sources.
const (
	SourceLLM      = "llm"
	SourceTemplate = "template"
)

const draftSystemPrompt = `You write short, friendly B2B sales follow-up emails.
Reply with the subject on the first line as "Subject: <text>", a blank line, then the plain-text body.
Keep the body under 120 words. Do not invent facts, prices, or meeting times.`

// Email is a drafted follow-up.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Source  string `json:"source"`
}

// Composer drafts follow-up emails with the LLM and falls back to a fixed
// template when the model is unavailable or its answer is unusable.
type Composer struct {
	llm        llm.Client
	senderName string
	metrics    *metrics.LeadMetrics
	logger     *logging.Logger
}

// NewComposer returns a Composer. client may be nil to always use the template.
func NewComposer(client llm.Client, senderName string, m *metrics.LeadMetrics, logger *logging.Logger) *Composer {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(senderName) == "" {
		senderName = "The team"
	}
	return &Composer{llm: client, senderName: senderName, metrics: m, logger: logger}
}

// Draft writes a follow-up for lead informed by its analysis.
func (c *Composer) Draft(ctx context.Context, lead *leads.Lead, analysis scoring.AIAnalysis) (Email, error) {
	if lead == nil {
		return Email{}, errors.New("followup: lead required")
	}
	ctx, span := tracer.Start(ctx, "followup.draft")
	defer span.End()
	span.SetAttributes(
		attribute.String("leadpilot.lead_id", lead.ID),
		attribute.String("leadpilot.action", analysis.Action),
	)

	if c.llm == nil {
		return c.template(lead, analysis), nil
	}

	start := time.Now()
	resp, err := c.llm.Complete(ctx, llm.UserPrompt(draftSystemPrompt, c.prompt(lead, analysis), 400, 0.4))
	c.metrics.ObserveLLM("draft", err, time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Email{}, ctxErr
		}
		c.logger.Warn("followup draft: llm failed, using template", "lead_id", lead.ID, "error", err)
		return c.template(lead, analysis), nil
	}

	email, ok := parseDraft(resp.Text)
	if !ok {
		c.logger.Warn("followup draft: unusable llm output, using template", "lead_id", lead.ID)
		return c.template(lead, analysis), nil
	}
	return email, nil
}

func (c *Composer) prompt(lead *leads.Lead, analysis scoring.AIAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lead name: %s\n", lead.Name)
	if lead.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", lead.Company)
	}
	fmt.Fprintf(&b, "Pipeline status: %s\n", leads.NormalizeStatus(lead.Status))
	fmt.Fprintf(&b, "Recommended next step: %s\n", analysis.Action)
	if strings.TrimSpace(lead.Notes) != "" {
		fmt.Fprintf(&b, "Notes from the sales rep:\n%s\n", strings.TrimSpace(lead.Notes))
	}
	fmt.Fprintf(&b, "Sign the email as: %s\n", c.senderName)
	return b.String()
}

// parseDraft expects "Subject: ..." on the first non-empty line.
func parseDraft(text string) (Email, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Email{}, false
	}
	first, rest, _ := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)
	if len(first) < len("subject:") || !strings.EqualFold(first[:len("subject:")], "subject:") {
		return Email{}, false
	}
	subject := strings.TrimSpace(first[len("subject:"):])
	body := plainText(strings.TrimSpace(rest))
	if subject == "" || body == "" {
		return Email{}, false
	}
	return Email{Subject: subject, Body: body, Source: SourceLLM}, true
}

func (c *Composer) template(lead *leads.Lead, analysis scoring.AIAnalysis) Email {
	name := firstName(lead.Name)
	var subject, ask string
	switch analysis.Action {
	case scoring.ActionCloseNow:
		subject = "Ready to move forward?"
		ask = "It sounds like we're close. Would you like me to send over the paperwork so we can get started?"
	case scoring.ActionBookCall:
		subject = "Quick call this week?"
		ask = "Would you have 20 minutes this week for a quick call to go over next steps?"
	default:
		subject = "Following up"
		ask = "I wanted to check in and see whether you had any questions I can help with."
	}
	if lead.Company != "" {
		subject += " (" + lead.Company + ")"
	}
	body := fmt.Sprintf("Hi %s,\n\n%s\n\nBest,\n%s", name, ask, c.senderName)
	return Email{Subject: subject, Body: body, Source: SourceTemplate}
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
