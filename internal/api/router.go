package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/perceptlab/percept/internal/api/handlers"
	mw "github.com/perceptlab/percept/internal/api/middleware"
	"github.com/perceptlab/percept/internal/buildconfig"
	"github.com/perceptlab/percept/internal/config"
	"github.com/perceptlab/percept/internal/domain"
	"github.com/perceptlab/percept/internal/embedding"
	"github.com/perceptlab/percept/internal/llm"
	"github.com/perceptlab/percept/internal/service"
	"github.com/perceptlab/percept/internal/store"
	"github.com/perceptlab/percept/internal/waves"
	"go.uber.org/zap"
)

// App holds the router and the wired analysis stack.
type App struct {
	Router       *chi.Mux
	Analysis     *service.AnalysisService
	Registry     *service.Registry
	Detector     *service.Detector
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires stores, provider clients, the wave catalog and the detector
// into a ready router. db may be nil; analysis then runs without
// persistence.
func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	var profileStore domain.ProfileStore
	var findingStore domain.FindingStore
	if db != nil {
		profileStore = store.NewProfileStore(db)
		findingStore = store.NewFindingStore(db)
	}

	// External clients via provider factory
	visionProvider := config.VisionProvider()
	embeddingProvider := config.EmbeddingProvider()

	visionClient, err := llm.NewClient(visionProvider, config.VisionAPIKey())
	if err != nil {
		logger.Warn("vision client initialization failed", zap.String("provider", visionProvider), zap.Error(err))
	} else {
		logger.Info("vision client initialized", zap.String("provider", visionProvider))
	}

	embeddingClient, err := embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed", zap.String("provider", embeddingProvider), zap.Error(err))
	} else {
		logger.Info("embedding client initialized", zap.String("provider", embeddingProvider))
	}

	// Wave catalog, registry, detector
	registry := service.NewRegistry(waves.DefaultManifests())
	detector := service.NewDetector(logger)
	if rulesFile := config.RulesFile(); rulesFile != "" {
		rules, err := service.LoadRulesFile(rulesFile)
		if err != nil {
			logger.Warn("failed to load rules file", zap.String("path", rulesFile), zap.Error(err))
		} else {
			for _, rule := range rules {
				detector.AddRule(rule)
			}
			logger.Info("loaded contradiction rules", zap.String("path", rulesFile), zap.Int("count", len(rules)))
		}
	}

	waveSet := waves.DefaultWaves(visionClient, visionClient, logger)
	analysisSvc := service.NewAnalysisService(waveSet, registry, detector, profileStore, findingStore, embeddingClient, logger)

	// Handlers
	analyzeHandler := handlers.NewAnalyzeHandler(analysisSvc)
	profileHandler := handlers.NewProfileHandler(analysisSvc)
	waveHandler := handlers.NewWaveHandler(registry)
	ruleHandler := handlers.NewRuleHandler(detector)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Analysis:  analysisSvc,
		Registry:  registry,
		Detector:  detector,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Post("/analyze", analyzeHandler.Analyze)

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", profileHandler.List)
			r.Post("/search", profileHandler.Search)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", profileHandler.GetByID)
				r.Delete("/", profileHandler.Delete)
				r.Get("/findings", profileHandler.GetFindings)
				r.Post("/detect", profileHandler.Redetect)
			})
		})

		r.Get("/findings", profileHandler.ListFindings)

		r.Route("/waves", func(r chi.Router) {
			r.Get("/", waveHandler.List)
			r.Get("/resolve", waveHandler.Resolve)
			r.Get("/orphans", waveHandler.Orphans)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", ruleHandler.List)
			r.Post("/", ruleHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ruleHandler.GetByID)
				r.Delete("/", ruleHandler.Delete)
				r.Post("/enable", ruleHandler.SetEnabled)
			})
		})
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that do not need the App.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]string{
			"status":  "ok",
			"version": buildconfig.Version(),
		}

		w.Header().Set("Content-Type", "application/json")

		if db == nil {
			resp["database"] = "disabled"
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		if err := db.Ping(r.Context()); err != nil {
			resp["status"] = "error"
			resp["error"] = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		resp["database"] = "ok"
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.ProfileStore    = (*store.ProfileStore)(nil)
	_ domain.FindingStore    = (*store.FindingStore)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.VisionClient    = (*llm.OpenAIClient)(nil)
	_ domain.VisionClient    = (*llm.AnthropicClient)(nil)
	_ domain.VisionClient    = (*llm.GeminiClient)(nil)
	_ domain.VisionClient    = (*llm.MockClient)(nil)
	_ domain.LLMClient       = (*llm.OpenAIClient)(nil)
	_ domain.LLMClient       = (*llm.AnthropicClient)(nil)
	_ domain.LLMClient       = (*llm.GeminiClient)(nil)
	_ domain.LLMClient       = (*llm.MockClient)(nil)
)
