package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zapislon/internal/api"
	"zapislon/internal/booking"
	"zapislon/internal/cache"
	"zapislon/internal/config"
	"zapislon/internal/db"
	"zapislon/internal/metrics"
	"zapislon/internal/report"
	"zapislon/internal/schedule"
	"zapislon/internal/slots"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("ZAPISLON_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	database, err := db.New(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	availCache := cache.New(rdb, cfg.CacheTTL(), &logger)

	schedules := schedule.NewStore(database, &logger)
	calculator := slots.NewCalculator(schedules, database)

	rules := booking.Rules{
		MinAdvance: cfg.BookingMinAdvance(),
		MaxAdvance: cfg.BookingMaxAdvance(),
	}
	bookings := booking.NewService(database, database, schedules, availCache, rules, cfg.LockWait(), &logger)
	reports := report.NewExporter(database)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	server := api.NewHTTPServer(database, schedules, calculator, bookings, availCache, reports, api.Options{
		Port:               cfg.Server.Port,
		GranularityMinutes: cfg.Booking.GranularityMinutes,
		PrometheusEnabled:  cfg.Monitoring.PrometheusEnabled,
		RatePerSecond:      cfg.RateLimit.RequestsPerSecond,
		RateBurst:          cfg.RateLimit.Burst,
		Redis:              rdb,
	}, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Backup.Enabled {
		backupper := db.NewBackupper(cfg.Database.Path, db.BackupOptions{
			StoragePath:   cfg.Backup.StoragePath,
			Interval:      cfg.BackupInterval(),
			RetentionDays: cfg.Backup.RetentionDays,
		}, &logger)
		go backupper.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
