package missions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/observability/metrics"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

// LeadLister is the subset of leads.Repository the dispatcher reads from.
type LeadLister interface {
	ListAll(ctx context.Context) ([]*leads.Lead, error)
}

// FollowupSender emails a lead. Implemented by followup.Service.
type FollowupSender interface {
	Send(ctx context.Context, lead *leads.Lead) error
}

// DispatcherConfig controls optional dispatcher behavior.
type DispatcherConfig struct {
	// AutoFollowupEmails sends an email for every new followup mission on a
	// lead with an address.
	AutoFollowupEmails bool
}

// DispatchResult summarizes one pass.
type DispatchResult struct {
	Leads     int
	Generated int
	New       int
	Skipped   int
	Emailed   int
	Failed    int
}

// Dispatcher periodically turns the full lead book into missions and acts
// on the ones not yet handled today.
type Dispatcher struct {
	repo      LeadLister
	generator *Generator
	ledger    Ledger
	sender    FollowupSender
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
	cfg       DispatcherConfig
	now       func() time.Time
}

// NewDispatcher wires a dispatcher. sender and m may be nil; a nil ledger
// falls back to an in-memory one.
func NewDispatcher(repo LeadLister, ledger Ledger, sender FollowupSender, m *metrics.LeadMetrics, cfg DispatcherConfig, logger *logging.Logger) *Dispatcher {
	if repo == nil {
		panic("missions: lead repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	return &Dispatcher{
		repo:      repo,
		generator: NewGenerator(logger),
		ledger:    ledger,
		sender:    sender,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the dispatcher's time source.
func (d *Dispatcher) SetClock(now func() time.Time) {
	if now != nil {
		d.now = now
	}
}

// RunOnce performs a single dispatch pass.
func (d *Dispatcher) RunOnce(ctx context.Context) (DispatchResult, error) {
	start := time.Now()
	defer func() { d.metrics.ObserveDispatchDuration(time.Since(start).Seconds()) }()

	var res DispatchResult
	ptrs, err := d.repo.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("missions: list leads: %w", err)
	}
	list := make([]leads.Lead, 0, len(ptrs))
	byID := make(map[string]*leads.Lead, len(ptrs))
	for _, l := range ptrs {
		if l == nil {
			continue
		}
		list = append(list, *l)
		byID[l.ID] = l
	}
	res.Leads = len(list)

	now := d.now()
	generated := d.generator.Generate(list, now)
	res.Generated = len(generated)

	for _, m := range generated {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		d.metrics.ObserveMission(string(m.Type))

		first, err := d.ledger.MarkDispatched(ctx, m, now)
		if err != nil {
			res.Failed++
			d.metrics.ObserveDispatch(string(m.Type), "failed")
			d.logger.Error("mission dispatcher: ledger failed", "lead_id", m.LeadID, "type", m.Type, "error", err)
			continue
		}
		if !first {
			res.Skipped++
			d.metrics.ObserveDispatch(string(m.Type), "skipped")
			continue
		}
		res.New++

		if m.Type == TypeFollowup && d.cfg.AutoFollowupEmails && d.sender != nil {
			lead := byID[m.LeadID]
			if lead != nil && strings.TrimSpace(lead.Email) != "" {
				if err := d.sender.Send(ctx, lead); err != nil {
					res.Failed++
					d.metrics.ObserveDispatch(string(m.Type), "failed")
					d.logger.Error("mission dispatcher: followup email failed", "lead_id", m.LeadID, "error", err)
					if err := d.ledger.Release(ctx, m, now); err != nil {
						d.logger.Error("mission dispatcher: ledger release failed", "lead_id", m.LeadID, "type", m.Type, "error", err)
					}
					continue
				}
				res.Emailed++
			}
		}
		d.metrics.ObserveDispatch(string(m.Type), "sent")
		d.logger.Info("mission dispatched", "lead_id", m.LeadID, "user_id", userOf(byID[m.LeadID]), "type", m.Type, "text", m.Text)
	}
	return res, nil
}

// Run calls RunOnce every interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("missions: interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := d.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			d.logger.Error("mission dispatcher: pass failed", "error", err)
		} else if err == nil {
			d.logger.Info("mission dispatcher: pass complete",
				"leads", res.Leads, "generated", res.Generated, "new", res.New,
				"skipped", res.Skipped, "emailed", res.Emailed, "failed", res.Failed)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func userOf(lead *leads.Lead) string {
	if lead == nil {
		return ""
	}
	return lead.UserID
}
