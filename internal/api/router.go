package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/admin"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/audit"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/cache"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/config"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/repository"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/service"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/storage"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/ws"
)

const (
	// multipart framing on top of the image itself
	bodyLimitSlack = 1024 * 1024

	cacheSweepInterval = 5 * time.Minute
	adminTokenTTL      = 24 * time.Hour
)

// Database is the part of *pgxpool.Pool the API uses
type Database interface {
	repository.PgxPool
	Ping(ctx context.Context) error
}

type Dependencies struct {
	DB       Database
	Pipeline *pipeline.Pipeline
	Store    storage.Store
	Config   *config.Config
}

type Router struct {
	app          *fiber.App
	logger       *slog.Logger
	deps         *Dependencies
	rateLimiter  *middleware.RateLimiter
	wsHub        *ws.Hub
	cancelHub    context.CancelFunc
	cancelSweep  context.CancelFunc
	shutdownDone bool
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	bodyLimit := handler.DefaultMaxImageBytes + bodyLimitSlack
	if deps != nil && deps.Config != nil && deps.Config.MaxUploadBytes() > 0 {
		bodyLimit = deps.Config.MaxUploadBytes() + bodyLimitSlack
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "SelfieLens API",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	if r.deps == nil {
		healthHandler := handler.NewHealthHandler(nil, nil)
		r.app.Get("/health", healthHandler.Health)
		r.app.Get("/ready", healthHandler.Ready)
		return
	}

	cfg := r.deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	if r.deps.Pipeline == nil {
		r.deps.Pipeline = pipeline.New(nil, pipeline.WithLogger(r.logger))
	}

	healthHandler := handler.NewHealthHandler(r.deps.DB, r.deps.Pipeline)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if local, ok := r.deps.Store.(*storage.LocalStore); ok {
		r.app.Static(storage.LocalURLPrefix, local.Dir())
	}

	// Live feed hub
	r.wsHub = ws.NewHub()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	r.cancelHub = hubCancel
	go r.wsHub.Run(hubCtx)

	// Repositories
	userRepo := repository.NewUserRepository(r.deps.DB)
	analysisRepo := repository.NewAnalysisRepository(r.deps.DB)
	eventRepo := repository.NewEventRepository(r.deps.DB)

	// Analytics cache and its expiry sweeper
	pgCache := cache.NewPGCache(r.deps.DB)
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	r.cancelSweep = sweepCancel
	go cache.NewSweeper(pgCache, r.logger, cacheSweepInterval).Run(sweepCtx)

	// Services
	selfieService := service.NewSelfieService(userRepo, analysisRepo, eventRepo, r.deps.Pipeline, r.logger).
		WithPublisher(r.wsHub)
	if r.deps.Store != nil {
		selfieService.WithStore(r.deps.Store)
	}
	eventService := service.NewEventService(eventRepo, r.logger).WithPublisher(r.wsHub)

	// Public routes, rate limited per client IP
	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    cfg.RateLimitMax,
		Window: cfg.RateLimitWindow,
	})

	apiGroup := r.app.Group("/api")

	selfieHandler := handler.NewSelfieHandler(selfieService, eventService, cfg.MaxUploadBytes(), r.logger)
	selfieGroup := apiGroup.Group("/selfie", r.rateLimiter.Handler())
	selfieGroup.Post("/analyze", selfieHandler.Analyze)
	selfieGroup.Post("/event", selfieHandler.Event)

	analyzeHandler := handler.NewAnalyzeHandler(nil, cfg.MaxUploadBytes())
	analyzeGroup := apiGroup.Group("/analyze", r.rateLimiter.Handler())
	analyzeGroup.Post("/metrics", analyzeHandler.Metrics)
	analyzeGroup.Post("/classify", analyzeHandler.Classify)

	// Admin routes
	dashboard := admin.NewService(userRepo, analysisRepo, eventRepo, pgCache, cfg.AnalyticsCacheTTL, r.logger)
	r.setupAdminRoutes(apiGroup.Group("/admin"), dashboard, cfg)
}

func (r *Router) setupAdminRoutes(adminGroup fiber.Router, dashboard admin.DashboardService, cfg *config.Config) {
	if cfg.AdminJWTSecret != "" {
		jwtService := admin.NewJWTService(cfg.AdminJWTSecret, admin.DefaultIssuer, adminTokenTTL)
		adminGroup.Use(middleware.AdminAuth(middleware.AdminAuthDependencies{
			JWTService: jwtService,
			Logger:     r.logger,
		}))
	} else {
		r.logger.Warn("ADMIN_JWT_SECRET not set, admin routes are unauthenticated")
	}
	adminGroup.Use(middleware.AdminAudit(audit.NewSlogLogger(r.logger)))

	adminHandler := handler.NewAdminHandler(dashboard)

	adminGroup.Get("/users", adminHandler.ListUsers)
	adminGroup.Get("/users/:uid", adminHandler.GetUser)
	adminGroup.Get("/analytics", adminHandler.Analytics)
	adminGroup.Get("/analyses/:id/similar", adminHandler.SimilarAnalyses)

	// WebSocket live feed
	adminGroup.Get("/live", ws.UpgradeMiddleware(), ws.Handler(r.wsHub))
}

func (r *Router) App() *fiber.App {
	return r.app
}

// Hub exposes the live feed hub, nil until Setup runs with dependencies
func (r *Router) Hub() *ws.Hub {
	return r.wsHub
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

// Shutdown stops background goroutines and drains the HTTP server
func (r *Router) Shutdown() error {
	return r.ShutdownWithContext(context.Background())
}

func (r *Router) ShutdownWithContext(ctx context.Context) error {
	if r.shutdownDone {
		return nil
	}
	r.shutdownDone = true

	// Stop WebSocket hub
	if r.cancelHub != nil {
		r.cancelHub()
	}

	// Stop cache sweeper
	if r.cancelSweep != nil {
		r.cancelSweep()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.ShutdownWithContext(ctx)
}
