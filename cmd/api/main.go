package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"otikaapi/docs"
	"otikaapi/internal/config"
	"otikaapi/internal/database"
	handlers "otikaapi/internal/http/handler"
	"otikaapi/internal/http/middleware"
	"otikaapi/internal/logging"
	tracing "otikaapi/internal/otel"
	"otikaapi/internal/repository"
	"otikaapi/internal/schema"
	"otikaapi/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title OTIKA API
// @version 1.0
// @description Backend for OTIKA Digital Agency site
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Location)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log)
	if err != nil {
		fatal(log, "tracing_init_failed", err)
	}

	// The API still serves without a store; data routes then answer 503.
	store, backend, err := database.OpenStore(ctx, cfg.Database, log)
	if err != nil {
		log.Error("store_open_failed", err, map[string]any{"backend": string(backend)})
		store = nil
	}

	registry := schema.Default()
	if store != nil {
		if err := service.EnsureIndexes(ctx, registry, store); err != nil {
			log.Error("ensure_indexes_failed", err, map[string]any{"backend": string(backend)})
		}
		log.Info("store_ready", map[string]any{"backend": string(backend), "database": store.Name()})
	} else {
		log.Warn("store_not_configured", nil)
	}

	docSvc := service.NewDocumentService(registry, store)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		fatal(log, "metrics_init_failed", err)
	}

	leadLimiter := middleware.NewRateLimiter(cfg.LeadLimit.RPS, cfg.LeadLimit.Burst)
	leadLimiter.StartJanitor(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(log),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		ExposeHeaders: middleware.RequestIDHeader + "," + fiber.HeaderRetryAfter,
	}))
	// RequestID must run before Logger so every access line carries request_id
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	app.Get(middleware.MetricsPath, middleware.MetricsHandler(reg))

	handlers.RegisterRoutes(app, handlers.Dependencies{
		Service:     docSvc,
		Store:       store,
		Database:    cfg.Database,
		LeadLimiter: leadLimiter.Handler(),
		Log:         log,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server_starting", map[string]any{"addr": addr, "backend": string(backend)})
		serveErr <- app.Listen(addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error("server_failed", err, map[string]any{"addr": addr})
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server_shutdown_failed", err, nil)
	}
	closeStore(shutdownCtx, log, store)
	if err := shutdownTracing(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("tracing_shutdown_failed", err, nil)
	}

	log.Info("server_stopped", nil)
}

func closeStore(ctx context.Context, log *logging.Logger, store repository.DocumentStore) {
	if store == nil {
		return
	}
	if err := store.Close(ctx); err != nil {
		log.Error("store_close_failed", err, nil)
	}
}

func fatal(log *logging.Logger, msg string, err error) {
	log.Error(msg, err, nil)
	os.Exit(1)
}
