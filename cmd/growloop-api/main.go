package main

import (
	"context"
	"os"
	"time"

	"github.com/growloop/growloop/pkg/ai"
	"github.com/growloop/growloop/pkg/cmd"
	"github.com/growloop/growloop/pkg/log"
	"github.com/growloop/growloop/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9080

func main() {
	command := &cli.Command{
		Name:                  "growloop-api",
		Usage:                 "Run workflows and serve the extension worker protocol",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL (postgres://... or a file store root)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "ai-provider",
				Usage:   "AI provider id (openai, anthropic, gemini)",
				Value:   "openai",
				Sources: cli.EnvVars("AI_PROVIDER"),
			},
			&cli.StringFlag{
				Name:     "ai-base-url",
				Usage:    "Base URL of the AI gateway",
				Required: true,
				Sources:  cli.EnvVars("AI_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "ai-model",
				Usage:   "Model identifier passed through to the provider",
				Sources: cli.EnvVars("AI_MODEL"),
			},
			&cli.StringFlag{
				Name:    "openai-key",
				Usage:   "OpenAI API key",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "anthropic-key",
				Usage:   "Anthropic API key",
				Sources: cli.EnvVars("ANTHROPIC_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "gemini-key",
				Usage:   "Gemini API key",
				Sources: cli.EnvVars("GEMINI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the per-step advisory lock (empty disables locking)",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				Sources: cli.EnvVars("REDIS_DB"),
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

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Growloop API")

			tracer, err := otelhelper.NewTracer(ctx, "growloop-api")
			if err != nil {
				return err
			}

			generator, err := ai.NewHTTPProvider(ai.HTTPProviderConfig{
				Provider: ai.ProviderID(command.String("ai-provider")),
				BaseURL:  command.String("ai-base-url"),
				Model:    command.String("ai-model"),
				Credentials: ai.Credentials{
					ai.ProviderOpenAI:    command.String("openai-key"),
					ai.ProviderAnthropic: command.String("anthropic-key"),
					ai.ProviderGemini:    command.String("gemini-key"),
				},
				Timeout: 90 * time.Second,
			}, logger)
			if err != nil {
				return err
			}

			registry := cmd.NewRegistry(logger, generator, tracer)
			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			locker := cmd.NewLocker(
				command.String("redis-addr"),
				command.String("redis-password"),
				int(command.Int("redis-db")),
				logger,
			)

			api := NewAPI(logger, persistence, registry, eventBus, locker, generator, tracer)

			if err := api.Start(int(command.Int("port"))); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
