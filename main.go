package main

import (
	"context"
	"os"
	"strings"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/karthikraju391/go-nats-chat-coordinator/config"
	"github.com/karthikraju391/go-nats-chat-coordinator/coordinator"
	"github.com/karthikraju391/go-nats-chat-coordinator/handlers"
	"github.com/karthikraju391/go-nats-chat-coordinator/nats_service"
)

func main() {
	var configPath, logLevel string

	rootCmd := &cobra.Command{
		Use:   "chat-coordinator",
		Short: "Presence, room membership and message routing for multi-room chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			setupLogging(cfg.LogLevel)
			return serve(cfg)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("chat-coordinator failed")
		os.Exit(1)
	}
}

func setupLogging(level string) {
	log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func serve(cfg config.Config) error {
	// --- Initialize NATS Service ---
	natsSvc, err := nats_service.NewNatsService(cfg)
	if err != nil {
		return errors.Wrap(err, "initialize NATS service")
	}

	// --- Initialize Coordinator ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	coord := coordinator.New(natsSvc,
		coordinator.WithLogger(log.With().Str("component", "coordinator").Logger()),
		coordinator.WithMetrics(coordinator.NewMetrics(reg)),
	)
	runCtx, stopCoordinator := context.WithCancel(context.Background())
	go func() {
		if err := coord.Run(runCtx); err != nil {
			log.Error().Err(err).Msg("coordinator stopped")
		}
	}()

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ClientURL,
		AllowMethods:     "GET,POST,DELETE",
		AllowCredentials: true,
	}))
	handlers.RegisterRoutes(app,
		handlers.NewRoomHandler(coord, natsSvc),
		handlers.NewGateway(runCtx, coord, natsSvc, cfg),
		reg,
	)

	// --- Start Server ---
	go func() {
		log.Info().Str("addr", cfg.ServerAddr).Msg("starting server")
		if err := app.Listen(cfg.ServerAddr); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// --- Graceful Shutdown ---
	// operations run concurrently, so each one waits for the layer above it
	httpStopped := make(chan struct{})
	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"fiber": func(ctx context.Context) error {
			defer close(httpStopped)
			return app.ShutdownWithContext(ctx)
		},
		"coordinator": func(ctx context.Context) error {
			select {
			case <-httpStopped:
			case <-ctx.Done():
			}
			stopCoordinator()
			select {
			case <-coord.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		"nats": func(ctx context.Context) error {
			select {
			case <-coord.Done():
			case <-ctx.Done():
			}
			natsSvc.Close()
			return nil
		},
	})
	exitCode := <-wait
	log.Info().Int("code", exitCode).Msg("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}
