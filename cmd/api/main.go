package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/leadpilot-crm/cmd/mainconfig"
	"github.com/wolfman30/leadpilot-crm/internal/api/router"
	"github.com/wolfman30/leadpilot-crm/internal/app/bootstrap"
	"github.com/wolfman30/leadpilot-crm/internal/attachments"
	appconfig "github.com/wolfman30/leadpilot-crm/internal/config"
	"github.com/wolfman30/leadpilot-crm/internal/followup"
	httpmiddleware "github.com/wolfman30/leadpilot-crm/internal/http/middleware"
	"github.com/wolfman30/leadpilot-crm/internal/insights"
	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/llm"
	"github.com/wolfman30/leadpilot-crm/internal/notes"
	"github.com/wolfman30/leadpilot-crm/internal/observability/metrics"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

func main() {
	cfg, logger := mainconfig.Setup("leadpilot API server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	leadsRepo, closeRepo, err := bootstrap.BuildLeadsRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize lead store", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	llmClient, closeLLM, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	defer closeLLM()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	metricsHandler, leadMetrics := setupMetrics()
	limiter := httpmiddleware.NewRateLimiter(cfg.ExtractRateLimit, cfg.ExtractRateBurst)
	go limiter.RunCleanup(ctx)

	routerCfg := buildRouterConfig(cfg, awsCfg, leadsRepo, llmClient, leadMetrics, logger)
	routerCfg.MetricsHandler = metricsHandler
	routerCfg.ExtractLimiter = limiter
	routerCfg.ReadinessChecks = readinessChecks(leadsRepo, redisClient)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics builds a dedicated registry with runtime collectors.
func setupMetrics() (http.Handler, *metrics.LeadMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), metrics.NewLeadMetrics(reg)
}

func buildRouterConfig(
	cfg *appconfig.Config,
	awsCfg aws.Config,
	repo leads.Repository,
	llmClient llm.Client,
	m *metrics.LeadMetrics,
	logger *logging.Logger,
) *router.Config {
	composer := followup.NewComposer(llmClient, cfg.SenderName, m, logger)
	followupService := followup.NewService(repo, composer, bootstrap.BuildEmailSender(cfg, awsCfg, logger), m, logger)
	store := bootstrap.BuildAttachmentStore(cfg, awsCfg, logger)

	return &router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(repo, logger),
		InsightsHandler:    insights.NewHandler(repo, m, logger),
		NotesHandler:       notes.NewHandler(notes.NewExtractor(llmClient, m, logger), repo, logger),
		FollowupHandler:    followup.NewHandler(followupService, logger),
		AttachmentsHandler: attachments.NewHandler(store, repo, logger),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthSecret:         cfg.AuthJWTSecret,
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func readinessChecks(repo leads.Repository, redisClient *redis.Client) map[string]router.ReadinessCheck {
	checks := map[string]router.ReadinessCheck{}
	if p, ok := repo.(pinger); ok {
		checks["postgres"] = p.Ping
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	return checks
}
