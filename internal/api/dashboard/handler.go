// Package dashboard provides REST API handlers for the points economy
// dashboard. It exposes read-only endpoints for guild leaderboards,
// individual balances, and guild settings.
package dashboard

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pointsbot/pointsbot/internal/config"
	"github.com/pointsbot/pointsbot/internal/models"
	"github.com/pointsbot/pointsbot/internal/repository"
	"github.com/pointsbot/pointsbot/internal/service/economy"
	"github.com/pointsbot/pointsbot/internal/service/leaderboard"
	"github.com/pointsbot/pointsbot/internal/service/settings"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

// LeaderboardService interface for leaderboard operations.
type LeaderboardService interface {
	Top(guildID string, limit int) ([]leaderboard.Entry, error)
	UserRank(guildID, userID string) (int, error)
}

// EconomyService interface for balance reads.
type EconomyService interface {
	Balance(guildID, userID string) (int64, error)
}

// SettingsService interface for guild settings reads.
type SettingsService interface {
	Get(guildID string) (*models.GuildSettings, error)
}

// HealthChecker reports storage connectivity.
type HealthChecker interface {
	Health() error
}

// Handler handles dashboard API requests.
type Handler struct {
	leaderboardService LeaderboardService
	economyService     EconomyService
	settingsService    SettingsService
	db                 HealthChecker
	log                *logger.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(
	leaderboardService *leaderboard.Service,
	economyService *economy.Service,
	settingsService *settings.Service,
	db *repository.DB,
	log *logger.Logger,
) *Handler {
	return NewHandlerWithInterfaces(leaderboardService, economyService, settingsService, db, log)
}

// NewHandlerWithInterfaces creates a new dashboard handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(
	leaderboardService LeaderboardService,
	economyService EconomyService,
	settingsService SettingsService,
	db HealthChecker,
	log *logger.Logger,
) *Handler {
	return &Handler{
		leaderboardService: leaderboardService,
		economyService:     economyService,
		settingsService:    settingsService,
		db:                 db,
		log:                log,
	}
}

// RegisterRoutes mounts the dashboard endpoints on the router.
func (h *Handler) RegisterRoutes(router *gin.Engine, metricsCfg *config.MetricsConfig) {
	router.GET("/health", h.Health)
	if metricsCfg.Enabled {
		router.GET(metricsCfg.Path, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	api.GET("/guilds/:guild_id/leaderboard", h.GetGuildLeaderboard)
	api.GET("/guilds/:guild_id/users/:user_id", h.GetUserBalance)
	api.GET("/guilds/:guild_id/settings", h.GetGuildSettings)
}

// GetGuildLeaderboard returns the guild's leaderboard.
// GET /api/v1/guilds/:guild_id/leaderboard?limit=10.
func (h *Handler) GetGuildLeaderboard(c *gin.Context) {
	guildID := c.Param("guild_id")

	limit, err := h.parseLimit(c, 0)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.leaderboardService.Top(guildID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("guild_id", guildID).Msg("Failed to get guild leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	h.log.Info().
		Str("guild_id", guildID).
		Int("limit", limit).
		Int("entries", len(entries)).
		Msg("Retrieved guild leaderboard")

	c.JSON(http.StatusOK, gin.H{
		"guild_id":      guildID,
		"leaderboard":   entries,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// GetUserBalance returns a member's balance and rank within the guild.
// GET /api/v1/guilds/:guild_id/users/:user_id.
func (h *Handler) GetUserBalance(c *gin.Context) {
	guildID := c.Param("guild_id")
	userID := c.Param("user_id")

	balance, err := h.economyService.Balance(guildID, userID)
	if err != nil {
		h.log.Error().Err(err).
			Str("guild_id", guildID).
			Str("user_id", userID).
			Msg("Failed to get user balance")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve balance")
		return
	}

	rank, err := h.leaderboardService.UserRank(guildID, userID)
	if err != nil {
		h.log.Error().Err(err).
			Str("guild_id", guildID).
			Str("user_id", userID).
			Msg("Failed to get user rank")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve rank")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"guild_id":     guildID,
		"user_id":      userID,
		"balance":      balance,
		"rank":         rank,
		"generated_at": time.Now().UTC(),
	})
}

// GetGuildSettings returns the guild's effective settings.
// GET /api/v1/guilds/:guild_id/settings.
func (h *Handler) GetGuildSettings(c *gin.Context) {
	guildID := c.Param("guild_id")

	guildSettings, err := h.settingsService.Get(guildID)
	if err != nil {
		h.log.Error().Err(err).Str("guild_id", guildID).Msg("Failed to get guild settings")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"guild_id":     guildID,
		"settings":     guildSettings,
		"generated_at": time.Now().UTC(),
	})
}

// Health reports process and storage health.
// GET /health.
func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Health(); err != nil {
		h.log.Error().Err(err).Msg("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}

	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}

	if limit > 1000 {
		return 0, fmt.Errorf("limit cannot exceed 1000")
	}

	return limit, nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
