package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/leadpilot-crm/internal/config"
	"github.com/wolfman30/leadpilot-crm/internal/llm"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

const (
	providerBedrock = "bedrock"
	providerGemini  = "gemini"
)

// BuildLLMClient wires the configured providers. LLM_PRIMARY picks which one
// is tried first; the other, when configured, becomes the fallback. It
// returns a nil client when neither provider is configured, in which case
// note extraction is disabled and follow-ups use templates.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (llm.Client, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var bedrock, gemini llm.Client
	cleanup := noop

	if model := strings.TrimSpace(cfg.BedrockModelID); model != "" {
		bedrock = llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), model)
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		gemini = client
		cleanup = func() { _ = client.Close() }
	}

	primary, fallback := bedrock, gemini
	primaryName := providerBedrock
	if cfg.LLMPrimary == providerGemini {
		primary, fallback = gemini, bedrock
		primaryName = providerGemini
	}
	if primary == nil {
		primary, fallback = fallback, nil
		if primaryName == providerBedrock {
			primaryName = providerGemini
		} else {
			primaryName = providerBedrock
		}
	}
	if primary == nil {
		logger.Warn("no LLM provider configured; note extraction disabled")
		return nil, cleanup, nil
	}

	logger.Info("llm client configured", "primary", primaryName, "fallback", fallback != nil)
	return llm.NewFallbackClient(primary, fallback, logger), cleanup, nil
}
