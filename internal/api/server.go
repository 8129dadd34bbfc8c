// Package api serves the mock-response flows over HTTP.
package api

import (
	"context"
	"sync"
	"time"

	"mock-response-service/internal/codestore"
	"mock-response-service/internal/common/config"
	"mock-response-service/internal/common/logger"
	"mock-response-service/internal/storage"
	"mock-response-service/internal/template"
	"mock-response-service/internal/workers/mock/authorize"
	generateresponse "mock-response-service/internal/workers/mock/generate-response"
	"mock-response-service/pkg/registry"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Dependencies are built once in main and shared with the Zeebe workers.
type Dependencies struct {
	Store     storage.Store
	Catalog   *registry.Registry
	Generator *generateresponse.Handler
	Authorize *authorize.Service
	Codes     codestore.Store
	Renderer  *template.Renderer
}

type Server struct {
	app    *fiber.App
	config *config.Config
	deps   Dependencies
	logger logger.Logger
}

// httpMetrics registers on the default Prometheus registry, which allows one
// instance per process.
var httpMetrics = sync.OnceValue(func() *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New("mock-response-service")
})

func NewServer(cfg *config.Config, deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if deps.Renderer == nil {
		deps.Renderer = template.NewRenderer(nil, log)
	}
	if deps.Catalog == nil {
		deps.Catalog = registry.NewStaticRegistry(nil)
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}

	// Immutable: parked sessions and issued codes keep request values after
	// the handler returns, so they must not alias fasthttp's reused buffers.
	s.app = fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ReadTimeout:           config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:          config.GetDuration(cfg.Server.WriteTimeout),
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          ErrorHandler(s.logger),
	})

	s.app.Use(recover.New())
	if cfg.Logging.Level == "debug" {
		s.app.Use(fiberlogger.New())
	}

	prometheus := httpMetrics()
	prometheus.RegisterAt(s.app, "/metrics")
	s.app.Use(prometheus.Middleware)

	s.app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/ready", s.handleReady)

	api := s.app.Group("/api")
	api.Get("/services", s.handleServices)
	api.Post("/generate-response", s.handleGenerateResponse)
	api.Get("/responses/:userId", s.handleResponsesByUser)
	api.Get("/mocks/:service/:userId", s.handleMockPayload)

	oauth := s.app.Group("/oauth2/v1")
	oauth.Get("/authorize", s.handleAuthorize)
	oauth.Post("/authorize", s.handleAuthorizeSubmit)
	oauth.Post("/token", s.handleToken)
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.config.Server.Address})
	return s.app.Listen(s.config.Server.Address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(c *fiber.Ctx) error {
	if s.deps.Store == nil || s.deps.Generator == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not_ready"})
	}
	collections := map[string]int{}
	for _, name := range s.deps.Store.Collections() {
		collections[name] = s.deps.Store.Count(name)
	}
	return c.JSON(fiber.Map{
		"status":      "ready",
		"collections": collections,
		"services":    len(s.deps.Catalog.Catalog().Services),
	})
}
