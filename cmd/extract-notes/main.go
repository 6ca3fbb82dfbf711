// Command extract-notes runs the configured LLM providers against a notes
// file (or stdin) and prints the structured lead draft with its score. It
// is the quickest way to check provider credentials and prompt changes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wolfman30/leadpilot-crm/cmd/mainconfig"
	"github.com/wolfman30/leadpilot-crm/internal/app/bootstrap"
	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/llm"
	"github.com/wolfman30/leadpilot-crm/internal/notes"
	"github.com/wolfman30/leadpilot-crm/internal/scoring"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

type output struct {
	Draft    *notes.LeadDraft   `json:"draft"`
	Analysis scoring.AIAnalysis `json:"analysis"`
	Urgency  string             `json:"urgency"`
	Elapsed  string             `json:"elapsed"`
}

func main() {
	cfg, logger := mainconfig.Setup("notes extraction check")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	client, closeLLM, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	defer closeLLM()

	raw, err := readNotes(os.Args[1:], os.Stdin)
	if err != nil {
		logger.Error("failed to read notes", "error", err)
		os.Exit(1)
	}

	out, err := extract(ctx, client, raw, logger)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func readNotes(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func extract(ctx context.Context, client llm.Client, raw string, logger *logging.Logger) (*output, error) {
	if client == nil {
		return nil, errors.New("no LLM provider configured; set BEDROCK_MODEL_ID or GEMINI_API_KEY")
	}
	start := time.Now()
	draft, err := notes.NewExtractor(client, nil, logger).Extract(ctx, raw)
	if err != nil {
		return nil, err
	}
	analysis := scoring.Analyze(leads.Lead{
		Name:           draft.Name,
		Status:         draft.Status,
		Score:          draft.Score,
		PotentialValue: draft.PotentialValue,
		LeadType:       draft.LeadType,
	})
	return &output{
		Draft:    draft,
		Analysis: analysis,
		Urgency:  scoring.UrgencyLabel(analysis.Urgency),
		Elapsed:  time.Since(start).Round(time.Millisecond).String(),
	}, nil
}
