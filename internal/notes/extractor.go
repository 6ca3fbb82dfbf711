// Package notes turns a sales rep's free-text notes into a structured lead.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/llm"
	"github.com/wolfman30/leadpilot-crm/internal/observability/metrics"
	"github.com/wolfman30/leadpilot-crm/internal/scoring"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("leadpilot.internal.notes")

const maxNotesLength = 8000

var (
	ErrEmptyNotes    = errors.New("notes: notes are empty")
	ErrNotesTooLong  = errors.New("notes: notes too long")
	ErrNoLLM         = errors.New("notes: extraction unavailable")
	ErrUnparseable   = errors.New("notes: model output could not be parsed")
	ErrMissingName   = errors.New("notes: no name found in notes")
)

const extractSystemPrompt = `You extract CRM lead records from a salesperson's notes.
Return only a JSON object with these keys:
name, email, phone, company, status (one of new, contacted, qualified, proposal, closed, lost),
score (0-100 likelihood the lead buys), score_scale ("100" or "10"), potential_value (number),
lead_type ("hot", "warm" or "cold"), next_followup_at (ISO-8601 or null), summary (one sentence).
Use null for anything the notes do not say.`

// LeadDraft is the structured view of a set of notes.
type LeadDraft struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Company        string          `json:"company"`
	Status         string          `json:"status"`
	Score          float64         `json:"score"`
	PotentialValue float64         `json:"potential_value"`
	LeadType       string          `json:"lead_type"`
	NextFollowupAt leads.Timestamp `json:"next_followup_at"`
	Summary        string          `json:"summary"`
}

// CreateRequest converts the draft into a lead creation request for userID.
func (d *LeadDraft) CreateRequest(userID, rawNotes string) *leads.CreateLeadRequest {
	notes := strings.TrimSpace(rawNotes)
	if d.Summary != "" {
		notes = d.Summary + "\n\n" + notes
	}
	return &leads.CreateLeadRequest{
		UserID:         userID,
		Name:           d.Name,
		Email:          d.Email,
		Phone:          d.Phone,
		Company:        d.Company,
		Status:         d.Status,
		Score:          d.Score,
		PotentialValue: d.PotentialValue,
		LeadType:       d.LeadType,
		Urgency:        scoring.UrgencyLabel(scoring.Analyze(leads.Lead{Score: d.Score, PotentialValue: d.PotentialValue}).Urgency),
		Notes:          notes,
		NextFollowupAt: d.NextFollowupAt,
	}
}

// rawDraft mirrors the model's JSON. Numbers may arrive as strings.
type rawDraft struct {
	Name           *string         `json:"name"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	Company        *string         `json:"company"`
	Status         *string         `json:"status"`
	Score          json.RawMessage `json:"score"`
	ScoreScale     json.RawMessage `json:"score_scale"`
	PotentialValue json.RawMessage `json:"potential_value"`
	LeadType       *string         `json:"lead_type"`
	NextFollowupAt leads.Timestamp `json:"next_followup_at"`
	Summary        *string         `json:"summary"`
}

// Extractor calls the LLM to structure notes.
type Extractor struct {
	llm     llm.Client
	metrics *metrics.LeadMetrics
	logger  *logging.Logger
}

func NewExtractor(client llm.Client, m *metrics.LeadMetrics, logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{llm: client, metrics: m, logger: logger}
}

// Extract returns a draft for notes. Scores on a 1-10 scale are converted
// to 0-100 and unknown statuses fall back to "new".
func (e *Extractor) Extract(ctx context.Context, notes string) (*LeadDraft, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrEmptyNotes
	}
	if len(notes) > maxNotesLength {
		return nil, ErrNotesTooLong
	}
	if e.llm == nil {
		return nil, ErrNoLLM
	}

	ctx, span := tracer.Start(ctx, "notes.extract")
	defer span.End()
	span.SetAttributes(attribute.Int("leadpilot.notes.length", len(notes)))

	start := time.Now()
	resp, err := e.llm.Complete(ctx, llm.UserPrompt(extractSystemPrompt, notes, 600, 0))
	e.metrics.ObserveLLM("extract", err, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm call failed")
		return nil, fmt.Errorf("notes: extract: %w", err)
	}

	draft, err := parseDraft(resp.Text)
	if err != nil {
		span.SetStatus(codes.Error, "unparseable output")
		e.logger.Warn("notes extraction returned unusable output", "error", err)
		return nil, err
	}
	if draft.NextFollowupAt.Invalid() {
		e.logger.Warn("notes extraction: dropping unparsable follow-up date", "value", draft.NextFollowupAt.Raw())
		draft.NextFollowupAt = leads.Timestamp{}
	}
	return draft, nil
}

func parseDraft(text string) (*LeadDraft, error) {
	obj, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, ErrUnparseable
	}
	var raw rawDraft
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	draft := &LeadDraft{
		Name:           str(raw.Name),
		Email:          str(raw.Email),
		Phone:          str(raw.Phone),
		Company:        str(raw.Company),
		LeadType:       strings.ToLower(str(raw.LeadType)),
		NextFollowupAt: raw.NextFollowupAt,
		Summary:        str(raw.Summary),
		PotentialValue: nonNegative(number(raw.PotentialValue)),
	}
	if draft.Name == "" {
		return nil, ErrMissingName
	}

	status := leads.NormalizeStatus(str(raw.Status))
	if !leads.IsKnownStatus(status) {
		status = leads.StatusNew
	}
	draft.Status = status

	draft.Score = scoring.NormalizeScore(number(raw.Score), scoreScale(raw.ScoreScale))
	return draft, nil
}

func scoreScale(raw json.RawMessage) scoring.Scale {
	if len(raw) == 0 {
		return scoring.ScalePercent
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return scoring.ParseScale(s)
	}
	if n := number(raw); n == 10 {
		return scoring.ScaleTen
	}
	return scoring.ScalePercent
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// number reads a JSON number or numeric string, stripping currency noise.
func number(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.NewReplacer("$", "", ",", "", "€", "", "£", "").Replace(strings.TrimSpace(s))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
