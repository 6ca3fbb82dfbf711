package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/leadpilot-crm/cmd/mainconfig"
	"github.com/wolfman30/leadpilot-crm/internal/app/bootstrap"
	appconfig "github.com/wolfman30/leadpilot-crm/internal/config"
	"github.com/wolfman30/leadpilot-crm/internal/followup"
	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/llm"
	"github.com/wolfman30/leadpilot-crm/internal/missions"
	"github.com/wolfman30/leadpilot-crm/internal/observability/metrics"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

func main() {
	cfg, logger := mainconfig.Setup("leadpilot mission worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	repo, closeRepo, err := bootstrap.BuildLeadsRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize lead store", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	var llmClient llm.Client
	if cfg.AutoFollowupEmails {
		client, closeLLM, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, logger)
		if err != nil {
			logger.Error("failed to initialize LLM client", "error", err)
			os.Exit(1)
		}
		defer closeLLM()
		llmClient = client
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewLeadMetrics(reg)
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	dispatcher := buildDispatcher(cfg, awsCfg, repo, redisClient, llmClient, m, logger)
	logger.Info("mission dispatcher running", "interval", cfg.MissionInterval.String(), "auto_followups", cfg.AutoFollowupEmails)
	if err := dispatcher.Run(ctx, cfg.MissionInterval); err != nil {
		logger.Error("mission dispatcher failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	logger.Info("mission worker stopped")
}

func buildDispatcher(
	cfg *appconfig.Config,
	awsCfg aws.Config,
	repo leads.Repository,
	redisClient *redis.Client,
	llmClient llm.Client,
	m *metrics.LeadMetrics,
	logger *logging.Logger,
) *missions.Dispatcher {
	var sender missions.FollowupSender
	if cfg.AutoFollowupEmails {
		composer := followup.NewComposer(llmClient, cfg.SenderName, m, logger)
		sender = followup.NewService(repo, composer, bootstrap.BuildEmailSender(cfg, awsCfg, logger), m, logger)
	}
	return missions.NewDispatcher(
		repo,
		bootstrap.BuildMissionLedger(redisClient, cfg, logger),
		sender,
		m,
		missions.DispatcherConfig{AutoFollowupEmails: cfg.AutoFollowupEmails},
		logger,
	)
}
