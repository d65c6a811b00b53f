// Package main provides the Modelflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/modelflow/modelflow/pkg/contextaccess"
	"github.com/modelflow/modelflow/pkg/eventbus"
	"github.com/modelflow/modelflow/pkg/orchestration"
	"github.com/modelflow/modelflow/pkg/persistence"
	"github.com/modelflow/modelflow/pkg/registry"
	"github.com/modelflow/modelflow/pkg/validation"
	"github.com/modelflow/modelflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	stateStore  orchestration.Store
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	stateStore orchestration.Store,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		stateStore:  stateStore,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	engine := orchestration.NewEngine(
		a.stateStore,
		registry.NewExecutor(a.registry, a.logger),
		contextaccess.NewMemoryService(),
		a.logger,
		orchestration.WithEventBus(a.eventBus),
	)

	handlers := web.NewAPIHandlers(a.persistence, engine, a.validate, validation.NewValidator(), a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Modelflow API")
	})

	m := app.Group("/models")
	m.Get("/", handlers.GetModels)
	m.Post("/", handlers.CreateModel)
	m.Get("/:id", handlers.GetModel)
	m.Patch("/:id", handlers.UpdateModel)
	m.Delete("/:id", handlers.DeleteModel)
	m.Post("/:id/publish", handlers.PublishModel)

	o := app.Group("/orchestrations")
	o.Post("/", handlers.StartOrchestration)
	o.Get("/:id", handlers.GetOrchestration)
	o.Post("/:id/pause", handlers.PauseOrchestration)
	o.Post("/:id/resume", handlers.ResumeOrchestration)
	o.Get("/:id/results", handlers.GetOrchestrationResults)

	app.Get("/action-types", handlers.GetActionTypes)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
