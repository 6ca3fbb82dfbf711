package followup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/notify"
	"github.com/wolfman30/leadpilot-crm/internal/observability/metrics"
	"github.com/wolfman30/leadpilot-crm/internal/scoring"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

var (
	// ErrMissingEmail is returned when a lead has no address to write to.
	ErrMissingEmail = errors.New("followup: lead has no email")
	// ErrEmailDisabled is returned when no sender is configured.
	ErrEmailDisabled = errors.New("followup: email sending disabled")
)

// Result describes a sent follow-up.
type Result struct {
	Email Email       `json:"email"`
	Lead  *leads.Lead `json:"lead"`
}

// Service drafts, sends and records follow-up emails.
type Service struct {
	repo     leads.Repository
	composer *Composer
	sender   notify.EmailSender
	metrics  *metrics.LeadMetrics
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(repo leads.Repository, composer *Composer, sender notify.EmailSender, m *metrics.LeadMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("followup: lead repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if composer == nil {
		composer = NewComposer(nil, "", m, logger)
	}
	return &Service{
		repo:     repo,
		composer: composer,
		sender:   sender,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DraftByID drafts a follow-up for the caller's lead without sending it.
func (s *Service) DraftByID(ctx context.Context, userID, leadID string) (Email, error) {
	lead, err := s.repo.GetByID(ctx, userID, leadID)
	if err != nil {
		return Email{}, err
	}
	return s.composer.Draft(ctx, lead, scoring.Analyze(*lead))
}

// SendByID loads the caller's lead and sends it a follow-up.
func (s *Service) SendByID(ctx context.Context, userID, leadID string) (*Result, error) {
	lead, err := s.repo.GetByID(ctx, userID, leadID)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, lead)
}

// Send emails lead. It satisfies the mission dispatcher's sender.
func (s *Service) Send(ctx context.Context, lead *leads.Lead) error {
	_, err := s.send(ctx, lead)
	return err
}

func (s *Service) send(ctx context.Context, lead *leads.Lead) (*Result, error) {
	if lead == nil {
		return nil, errors.New("followup: lead required")
	}
	if strings.TrimSpace(lead.Email) == "" {
		s.metrics.ObserveFollowup("skipped")
		return nil, ErrMissingEmail
	}
	if s.sender == nil {
		s.metrics.ObserveFollowup("skipped")
		return nil, ErrEmailDisabled
	}

	email, err := s.composer.Draft(ctx, lead, scoring.Analyze(*lead))
	if err != nil {
		s.metrics.ObserveFollowup("failed")
		return nil, fmt.Errorf("followup: draft: %w", err)
	}

	if err := s.sender.Send(ctx, notify.EmailMessage{
		To:      lead.Email,
		ToName:  lead.Name,
		Subject: email.Subject,
		Body:    email.Body,
	}); err != nil {
		s.metrics.ObserveFollowup("failed")
		return nil, fmt.Errorf("followup: send: %w", err)
	}
	s.metrics.ObserveFollowup("sent")

	now := s.now()
	contacted := leads.NewTimestamp(now)
	update := &leads.UpdateLeadRequest{LastContacted: &contacted}
	// A due follow-up has been served; a future one stays scheduled.
	if due := lead.NextFollowupAt; due.Invalid() || (due.IsValid() && !due.Time().After(now)) {
		cleared := leads.Timestamp{}
		update.NextFollowupAt = &cleared
	}
	if leads.NormalizeStatus(lead.Status) == leads.StatusNew {
		status := leads.StatusContacted
		update.Status = &status
	}
	updated, err := s.repo.Update(ctx, lead.UserID, lead.ID, update)
	if err != nil {
		// Email already sent; only log the bookkeeping failure.
		s.logger.Error("followup: failed to record contact", "lead_id", lead.ID, "error", err)
		updated = lead
	}

	s.logger.Info("followup email sent", "lead_id", lead.ID, "user_id", lead.UserID, "source", email.Source)
	return &Result{Email: email, Lead: updated}, nil
}

// SetClock overrides the time source used for last_contacted.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}
