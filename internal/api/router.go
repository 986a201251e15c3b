// Package api provides the HTTP API for LevelUp.
package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/api/handler"
	"github.com/levelup/levelup/internal/api/middleware"
	"github.com/levelup/levelup/internal/auth"
	"github.com/levelup/levelup/internal/classifier"
	"github.com/levelup/levelup/internal/dailylog"
	"github.com/levelup/levelup/internal/featureflags"
	"github.com/levelup/levelup/internal/profile"
	"github.com/levelup/levelup/internal/provider/resilience"
	"github.com/levelup/levelup/internal/waitlist"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// CORSAllowedOrigins lists the web front ends allowed to call the API.
	CORSAllowedOrigins []string

	// RequireTLS rejects plain-HTTP requests forwarded by the load balancer.
	RequireTLS bool

	// Storage is pinged by the readiness and status endpoints. Optional.
	Storage     handler.Pinger
	StorageName string

	AuthService        *auth.Service
	ProfileService     *profile.Service
	DailyLogService    *dailylog.Service
	WaitlistService    *waitlist.Service
	FeatureFlagService *featureflags.Service

	// Classifier is optional. Without it image analysis answers 503.
	Classifier *classifier.Service
	Registry   *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "levelup-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))           // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))         // Panic recovery
	r.Use(chimiddleware.RealIP)                    // Real IP extraction
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins)) // Browser front end
	r.Use(middleware.SecurityHeaders)              // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))   // TLS enforcement
	r.Use(middleware.ContentTypeJSON)              // JSON content type

	var analyzer handler.ImageAnalyzer
	if cfg.Classifier != nil {
		analyzer = cfg.Classifier
	}

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:      cfg.Version,
		BuildTime:    cfg.BuildTime,
		Storage:      cfg.Storage,
		StorageName:  cfg.StorageName,
		Registry:     cfg.Registry,
		FeatureFlags: cfg.FeatureFlagService,
	})
	calculatorHandler := handler.NewCalculatorHandler()
	metadataHandler := handler.NewMetadataHandler()
	foodHandler := handler.NewFoodHandler(analyzer)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService)
	dailyLogHandler := handler.NewDailyLogHandler(cfg.DailyLogService, cfg.ProfileService)
	waitlistHandler := handler.NewWaitlistHandler(cfg.WaitlistService)
	adminHandler := handler.NewAdminHandler(handler.AdminConfig{
		Auth:     cfg.AuthService,
		Waitlist: cfg.WaitlistService,
		Clearers: []handler.DataClearer{
			{Name: "profile", Clear: cfg.ProfileService.Clear},
			{Name: "daily logs", Clear: func(ctx context.Context) error {
				_, err := cfg.DailyLogService.Clear(ctx)
				return err
			}},
			{Name: "waitlist", Clear: cfg.WaitlistService.Clear},
		},
	})
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	adminOnly := middleware.AdminOnly(cfg.AuthService)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// Liveness alias for platforms that probe /health.
	r.Get("/health", opsHandler.HealthCheck)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint is admin only
			r.With(adminOnly).Get("/status", opsHandler.SystemStatus)
		})

		// Photo analysis calls a paid provider - strict rate limiting
		r.With(expensiveRateLimit, middleware.RequireContentType("multipart/form-data")).
			Post("/foods/analyze", foodHandler.AnalyzeImage)

		// Public JSON endpoints - standard rate limiting
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Use(middleware.RequireJSON)

			r.Post("/calculator/estimate", calculatorHandler.Estimate)
			r.Get("/metadata/enums", metadataHandler.GetEnums)

			r.Get("/foods", foodHandler.ListFoods)
			r.Post("/foods/resolve", foodHandler.ResolveFood)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.GetProfile)
				r.Put("/", profileHandler.Onboard)
				r.Patch("/", profileHandler.UpdateProfile)
				r.Delete("/", profileHandler.DeleteProfile)
			})

			r.Route("/logs", func(r chi.Router) {
				r.Get("/", dailyLogHandler.ListLogs)
				r.Route("/{date}", func(r chi.Router) {
					r.Get("/", dailyLogHandler.GetLog)
					r.Put("/", dailyLogHandler.UpdateLog)
					r.Get("/summary", dailyLogHandler.GetSummary)
					r.Post("/meals/{mealType}", dailyLogHandler.AddMeal)
					r.Delete("/meals/{mealType}/{mealId}", dailyLogHandler.RemoveMeal)
				})
			})

			r.Post("/waitlist", waitlistHandler.Signup)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireJSON)

			// Login is public - strict rate limiting
			r.With(authRateLimit).Post("/login", adminHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Use(middleware.RateLimitByAdmin(middleware.StandardRateLimit)) // 100 req/min per admin

				r.Get("/waitlist", adminHandler.ListWaitlist)
				r.Get("/waitlist.csv", adminHandler.ExportWaitlist)
				r.Delete("/waitlist", adminHandler.ClearWaitlist)
				r.Delete("/data", adminHandler.ClearData)

				// Feature flags management
				r.Route("/feature-flags", func(r chi.Router) {
					r.Get("/", featureFlagsHandler.ListFeatureFlags)
					r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
					r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
				})
			})
		})
	})

	return r
}
