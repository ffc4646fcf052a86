// Command pointsbot runs the Discord points economy bot: the gateway
// adapter, the dashboard API, and the milestone sweep scheduler in one
// process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/pointsbot/pointsbot/internal/api/dashboard"
	"github.com/pointsbot/pointsbot/internal/bot"
	"github.com/pointsbot/pointsbot/internal/cache"
	"github.com/pointsbot/pointsbot/internal/config"
	"github.com/pointsbot/pointsbot/internal/repository"
	"github.com/pointsbot/pointsbot/internal/service/economy"
	"github.com/pointsbot/pointsbot/internal/service/leaderboard"
	"github.com/pointsbot/pointsbot/internal/service/milestones"
	"github.com/pointsbot/pointsbot/internal/service/scheduler"
	"github.com/pointsbot/pointsbot/internal/service/settings"
	"github.com/pointsbot/pointsbot/internal/service/triggers"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// A missing .env is fine; container deployments set real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Bot exited with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var claimCache cache.Cache
	if cfg.Database.Redis.Host != "" {
		redisCache, err := cache.NewRedis(&cfg.Database.Redis, log)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Redis connection")
			}
		}()
		claimCache = redisCache
	} else {
		log.Info().Msg("Redis not configured, claim cache disabled")
	}

	accountRepo := repository.NewAccountRepository(db)
	triggerRepo := repository.NewTriggerRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	settingsRepo := repository.NewSettingsRepository(db, cfg.Economy)

	economyService := economy.NewService(accountRepo, settingsRepo, claimCache, nil, log)
	triggerService := triggers.NewService(triggerRepo, log)
	milestoneService := milestones.NewService(milestoneRepo, log)
	settingsService := settings.NewService(settingsRepo, log)
	leaderboardService := leaderboard.NewService(accountRepo, settingsRepo, log)

	discordBot, err := bot.New(
		cfg,
		economyService,
		triggerService,
		milestoneService,
		settingsService,
		leaderboardService,
		log,
	)
	if err != nil {
		return err
	}

	sweepService := scheduler.NewService(cfg, accountRepo, milestoneRepo, discordBot, log)

	var server *http.Server
	if cfg.Server.Enabled {
		if cfg.Server.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := gin.New()
		router.Use(gin.Recovery())

		handler := dashboard.NewHandler(leaderboardService, economyService, settingsService, db, log)
		handler.RegisterRoutes(router, &cfg.Metrics)

		server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Int("port", cfg.Server.Port).Msg("Dashboard server listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Dashboard server failed")
			}
		}()
	}

	if err := discordBot.Start(); err != nil {
		return err
	}
	defer discordBot.Stop()

	if err := sweepService.Start(); err != nil {
		return err
	}
	defer sweepService.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Dashboard server shutdown failed")
		}
	}
	return nil
}
