package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/leadpilot-crm/internal/attachments"
	"github.com/wolfman30/leadpilot-crm/internal/followup"
	httpmiddleware "github.com/wolfman30/leadpilot-crm/internal/http/middleware"
	"github.com/wolfman30/leadpilot-crm/internal/insights"
	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/notes"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck reports whether a backing dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	InsightsHandler    *insights.Handler
	NotesHandler       *notes.Handler
	FollowupHandler    *followup.Handler
	AttachmentsHandler *attachments.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	AuthSecret         string

	// ExtractLimiter throttles LLM-backed note extraction per user (optional).
	ExtractLimiter *httpmiddleware.RateLimiter

	ReadinessChecks map[string]ReadinessCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		public.Get("/ready", ready(cfg.ReadinessChecks, cfg.Logger))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Sales user routes
	r.Route("/leads", func(api chi.Router) {
		api.Use(httpmiddleware.RequireUser(cfg.AuthSecret, cfg.Logger))

		if cfg.LeadsHandler != nil {
			api.Post("/", cfg.LeadsHandler.CreateLead)
			api.Get("/", cfg.LeadsHandler.ListLeads)
		}
		if cfg.InsightsHandler != nil {
			api.Get("/priorities", cfg.InsightsHandler.Priorities)
			api.Get("/missions", cfg.InsightsHandler.Missions)
			api.Get("/summary", cfg.InsightsHandler.Summary)
		}
		if cfg.NotesHandler != nil {
			extract := http.Handler(http.HandlerFunc(cfg.NotesHandler.Extract))
			if cfg.ExtractLimiter != nil {
				extract = cfg.ExtractLimiter.Middleware(extract)
			}
			api.Method(http.MethodPost, "/extract", extract)
		}

		api.Route("/{leadID}", func(lead chi.Router) {
			if cfg.LeadsHandler != nil {
				lead.Get("/", cfg.LeadsHandler.GetLead)
				lead.Patch("/", cfg.LeadsHandler.UpdateLead)
				lead.Delete("/", cfg.LeadsHandler.DeleteLead)
			}
			if cfg.FollowupHandler != nil {
				lead.Post("/followup/draft", cfg.FollowupHandler.Draft)
				lead.Post("/followup/send", cfg.FollowupHandler.Send)
			}
			if cfg.AttachmentsHandler != nil {
				lead.Post("/attachments", cfg.AttachmentsHandler.Upload)
				lead.Get("/attachments", cfg.AttachmentsHandler.List)
			}
		})
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	leads.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready runs every check and answers 503 if any fails.
func ready(checks map[string]ReadinessCheck, logger *logging.Logger) http.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := http.StatusOK
		results := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("readiness check failed", "check", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		leads.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": results})
	}
}
