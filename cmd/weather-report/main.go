package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/weather-telegram-report/internal/api/http"
	"github.com/i474232898/weather-telegram-report/internal/config"
	"github.com/i474232898/weather-telegram-report/internal/logging"
	"github.com/i474232898/weather-telegram-report/internal/notify"
	"github.com/i474232898/weather-telegram-report/internal/report"
	"github.com/i474232898/weather-telegram-report/internal/scheduler"
	"github.com/i474232898/weather-telegram-report/internal/store"
	"github.com/i474232898/weather-telegram-report/internal/weather"
	"github.com/i474232898/weather-telegram-report/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No chat can be notified without a valid configuration.
		boot := logging.New("info", "console")
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	location := weather.ResolveLocation(cfg.Timezone, log)

	// Shared HTTP client for outbound provider and Telegram calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	provider, err := providers.Create(cfg.Provider, cfg.OpenWeatherAPIKey, providers.Options{
		Client:     httpClient,
		MaxRetries: cfg.HTTPMaxRetries,
		Logger:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create weather provider")
	}
	if cfg.GoogleGeocoderAPIKey != "" {
		provider = providers.WithGoogleGeocoder(provider, cfg.GoogleGeocoderAPIKey)
	}

	readings := store.NewReadingStore(cfg.ReadingsPath(), cfg.RetentionDays, log)
	forecasts := store.NewForecastStore(cfg.ForecastsPath(), cfg.RetentionDays, log)

	assembler := report.NewAssembler(provider, readings, forecasts, cfg.City, location, log)
	notifier := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, httpClient, cfg.HTTPMaxRetries, log)
	runner := report.NewRunner(assembler, notifier, cfg.ForecastSlots, log)

	log.Info().
		Str("provider", provider.Name()).
		Str("city", cfg.City).
		Str("timezone", location.String()).
		Str("mode", cfg.RunMode).
		Msg("starting weather report")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMode == config.RunDaemon {
		runDaemon(ctx, cfg, runner, readings, forecasts, location, log)
		return
	}

	if err := runner.Run(ctx, cfg.ReportType); err != nil {
		stop()
		os.Exit(1)
	}
}

func runDaemon(
	ctx context.Context,
	cfg *config.AppConfig,
	runner *report.Runner,
	readings *store.ReadingStore,
	forecasts *store.ForecastStore,
	location *time.Location,
	log zerolog.Logger,
) {
	sched := scheduler.New(runner, location, cfg.MorningTime, cfg.EveningTime, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-report",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpapi.RequestLogger(log))

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Readings:  readings,
		Forecasts: forecasts,
		Location:  location,
		City:      cfg.City,
		NextRuns:  sched.NextRuns,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("status server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("status server listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("stopped")
}
