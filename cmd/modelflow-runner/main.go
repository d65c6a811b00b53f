package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/modelflow/modelflow/pkg/cmd"
	"github.com/modelflow/modelflow/pkg/config"
	"github.com/modelflow/modelflow/pkg/log"
	"github.com/modelflow/modelflow/pkg/orchestration"
	"github.com/modelflow/modelflow/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "modelflow-runner",
		EnableShellCompletion: true,
		Usage:                 "Run scheduled function model orchestrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "runner-id",
				Aliases: []string{"id"},
				Usage:   "Custom runner ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("RUNNER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "state-store-url",
				Usage:   "Orchestration state store URL (redis:// or memory)",
				Value:   "memory",
				Sources: cli.EnvVars("STATE_STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export orchestration traces over OTLP",
				Value:   false,
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "models-file",
				Usage:   "Path to a YAML file of function models to seed on startup",
				Value:   "",
				Sources: cli.EnvVars("MODELS_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			runnerID := command.String("runner-id")
			if runnerID == "" {
				runnerID = "runner-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("modelflow-runner").With("runner_id", runnerID)

			logger.InfoContext(ctx, "Initializing Modelflow Runner")

			registry := cmd.NewRegistry(logger)

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			stateStore := cmd.NewStateStore(command.String("state-store-url"), logger)

			if seedPath := command.String("models-file"); seedPath != "" {
				seeded, err := config.LoadSeedModels(seedPath)
				if err != nil {
					return err
				}

				for _, model := range seeded {
					err = persistence.SaveModel(ctx, model)
					if err != nil {
						return err
					}
				}

				logger.InfoContext(ctx, "Seeded function models", "count", len(seeded))
			}

			var engineOpts []orchestration.Option

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "modelflow-runner")
				if err != nil {
					return err
				}

				engineOpts = append(engineOpts, orchestration.WithTracer(tracer))
			}

			runner := NewRunnerManager(
				runnerID,
				persistence,
				stateStore,
				eventBus,
				logger,
				registry,
				engineOpts...,
			)

			err := runner.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start runner", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
