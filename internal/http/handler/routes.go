package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"otikaapi/internal/apperr"
	"otikaapi/internal/config"
	"otikaapi/internal/diagnostics"
	"otikaapi/internal/logging"
	"otikaapi/internal/model"
	"otikaapi/internal/repository"
	"otikaapi/internal/schema"
	"otikaapi/internal/service"
)

const defaultListLimit = 20

// Dependencies are the collaborators the HTTP layer needs. Store may be nil
// when no database is configured.
type Dependencies struct {
	Service     service.DocumentService
	Store       repository.DocumentStore
	Database    config.DatabaseConfig
	LeadLimiter fiber.Handler
	Log         *logging.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Dependencies) {
	if d.Log == nil {
		d.Log = logging.Default()
	}

	app.Get("/", Root())
	app.Get("/api/hello", Hello())

	leadHandlers := []fiber.Handler{CreateLead(d.Service, d.Log)}
	if d.LeadLimiter != nil {
		leadHandlers = append([]fiber.Handler{d.LeadLimiter}, leadHandlers...)
	}
	app.Post("/api/leads", leadHandlers...)

	app.Get("/api/projects", ListProjects(d.Service, d.Log))
	app.Post("/api/projects", CreateProject(d.Service, d.Log))

	app.Get("/schema", Schemas(d.Service, d.Log))
	app.Get("/test", Diagnostics(d.Store, d.Database))

	app.Get("/health", HealthCheck(d.Store))
	app.Get("/healthz", LivenessCheck())
}

type rootResponse struct {
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createdResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// Root godoc
// @Summary Service metadata
// @Tags meta
// @Produce json
// @Success 200 {object} rootResponse
// @Router / [get]
func Root() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(rootResponse{
			Message:   "OTIKA API is running",
			Endpoints: []string{"/api/hello", "/api/leads", "/api/projects", "/schema", "/test"},
		})
	}
}

// Hello godoc
// @Summary Greeting
// @Tags meta
// @Produce json
// @Success 200 {object} messageResponse
// @Router /api/hello [get]
func Hello() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(messageResponse{Message: "Hello from the OTIKA backend API!"})
	}
}

// CreateLead godoc
// @Summary Submit a lead
// @Tags leads
// @Accept json
// @Produce json
// @Param lead body model.Lead true "Lead"
// @Success 200 {object} createdResponse
// @Failure 422 {object} errorPayload
// @Failure 429 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /api/leads [post]
func CreateLead(svc service.DocumentService, log *logging.Logger) fiber.Handler {
	return create(svc, log, schema.Lead)
}

// CreateProject godoc
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Param project body model.Project true "Project"
// @Success 200 {object} createdResponse
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /api/projects [post]
func CreateProject(svc service.DocumentService, log *logging.Logger) fiber.Handler {
	return create(svc, log, schema.Project)
}

func create(svc service.DocumentService, log *logging.Logger, entity string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := svc.Create(c.UserContext(), entity, c.Body())
		if err != nil {
			return writeAppError(c, log, err)
		}
		return c.JSON(createdResponse{Status: "ok", ID: id})
	}
}

// ListProjects godoc
// @Summary List projects
// @Description Returns projects in insertion order. limit=0 returns all of them.
// @Tags projects
// @Produce json
// @Param limit query int false "Maximum number of projects" default(20)
// @Success 200 {array} object
// @Failure 422 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /api/projects [get]
func ListProjects(svc service.DocumentService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := defaultListLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return writeAppError(c, log, apperr.Validation([]apperr.Violation{
					{Field: "limit", Message: "value is not a valid integer"},
				}))
			}
			limit = n
		}

		items, err := svc.List(c.UserContext(), schema.Project, limit)
		if err != nil {
			return writeAppError(c, log, err)
		}
		if items == nil {
			items = []model.Record{}
		}
		return c.JSON(items)
	}
}

// Schemas godoc
// @Summary Entity schemas
// @Tags meta
// @Produce json
// @Success 200 {array} service.SchemaEntry
// @Router /schema [get]
func Schemas(svc service.DocumentService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := svc.Schemas()
		if err != nil {
			return writeAppError(c, log, err)
		}
		return c.JSON(entries)
	}
}

// Diagnostics godoc
// @Summary Database diagnostics
// @Description Best-effort report of store connectivity. Always 200.
// @Tags meta
// @Produce json
// @Success 200 {object} diagnostics.Report
// @Router /test [get]
func Diagnostics(store repository.DocumentStore, db config.DatabaseConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(diagnostics.Run(c.UserContext(), store, db))
	}
}

// HealthCheck godoc
// @Summary Readiness check
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(store repository.DocumentStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if store == nil {
			return writeError(c, fiber.StatusServiceUnavailable, string(apperr.KindUnavailable), "document store not configured", nil)
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, string(apperr.KindUnavailable), "dependency unavailable", nil)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessCheck godoc
// @Summary Liveness check
// @Tags meta
// @Success 200
// @Router /healthz [get]
func LivenessCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
