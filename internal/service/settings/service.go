// Package settings manages per-guild configuration: the active
// channel and the tunable economy parameters.
package settings

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pointsbot/pointsbot/internal/models"
	"github.com/pointsbot/pointsbot/internal/repository"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

// Errors reported by SetKey.
var (
	ErrUnknownConfigKey = errors.New("unknown config key")
	ErrInvalidValue     = errors.New("invalid config value")
)

// Config keys accepted by SetKey.
const (
	KeyDailyReward         = "DAILY_REWARD"
	KeyDailyCooldownHours  = "DAILY_COOLDOWN_HOURS"
	KeyGambleWinChance     = "GAMBLE_WIN_CHANCE"
	KeyGambleMultiplier    = "GAMBLE_MULTIPLIER"
	KeyLeaderboardTop      = "LEADERBOARD_TOP"
	KeyRespondWrongChannel = "RESPOND_WRONG_CHANNEL"
)

// Keys lists the accepted config keys in display order.
var Keys = []string{
	KeyDailyReward,
	KeyDailyCooldownHours,
	KeyGambleWinChance,
	KeyGambleMultiplier,
	KeyLeaderboardTop,
	KeyRespondWrongChannel,
}

// SettingsRepository interface for guild settings storage.
type SettingsRepository interface {
	GetOrCreate(guildID string) (*models.GuildSettings, error)
	Save(settings *models.GuildSettings) error
}

// Service handles guild settings reads and updates.
type Service struct {
	repo SettingsRepository
	log  *logger.Logger
}

// NewService creates a new settings service.
func NewService(repo *repository.SettingsRepository, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(repo, log)
}

// NewServiceWithInterfaces creates a new settings service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(repo SettingsRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Get returns the guild's settings, creating the row with defaults on
// first access.
func (s *Service) Get(guildID string) (*models.GuildSettings, error) {
	return s.repo.GetOrCreate(guildID)
}

// SetChannel marks channelID as the guild's active channel. An empty
// channelID deactivates the bot for the guild.
func (s *Service) SetChannel(guildID, channelID string) error {
	settings, err := s.repo.GetOrCreate(guildID)
	if err != nil {
		return err
	}
	settings.ChannelID = channelID
	if err := s.repo.Save(settings); err != nil {
		return err
	}
	s.log.Info().
		Str("guild_id", guildID).
		Str("channel_id", channelID).
		Msg("Active channel updated")
	return nil
}

// SetKey parses raw and stores it under the named config key. Key
// lookup is exact; callers pass the uppercase names exposed to
// operators. Nothing is read or written until both the key and the
// value have been accepted.
func (s *Service) SetKey(guildID, key, raw string) error {
	apply, err := parseKeyValue(key, raw)
	if err != nil {
		return err
	}

	settings, err := s.repo.GetOrCreate(guildID)
	if err != nil {
		return err
	}
	apply(settings)

	if err := s.repo.Save(settings); err != nil {
		return err
	}
	s.log.Info().
		Str("guild_id", guildID).
		Str("key", key).
		Str("value", raw).
		Msg("Guild config updated")
	return nil
}

// parseKeyValue validates key and raw together and returns the setter
// that applies the parsed value. An unknown key is rejected before the
// value is looked at.
func parseKeyValue(key, raw string) (func(*models.GuildSettings), error) {
	switch key {
	case KeyRespondWrongChannel:
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, raw)
		}
		return func(gs *models.GuildSettings) { gs.RespondWrongChannel = enabled }, nil
	case KeyDailyReward, KeyDailyCooldownHours, KeyGambleWinChance,
		KeyGambleMultiplier, KeyLeaderboardTop:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, raw)
	}

	switch key {
	case KeyDailyReward:
		if value <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive", ErrInvalidValue, key)
		}
		return func(gs *models.GuildSettings) { gs.DailyReward = value }, nil
	case KeyDailyCooldownHours:
		if value <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive", ErrInvalidValue, key)
		}
		return func(gs *models.GuildSettings) { gs.DailyCooldownHours = int(value) }, nil
	case KeyGambleWinChance:
		if value < 0 || value > 100 {
			return nil, fmt.Errorf("%w: %s must be between 0 and 100", ErrInvalidValue, key)
		}
		return func(gs *models.GuildSettings) { gs.GambleWinChance = int(value) }, nil
	case KeyGambleMultiplier:
		if value < 1 {
			return nil, fmt.Errorf("%w: %s must be at least 1", ErrInvalidValue, key)
		}
		return func(gs *models.GuildSettings) { gs.GambleMultiplier = int(value) }, nil
	case KeyLeaderboardTop:
		if value <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive", ErrInvalidValue, key)
		}
		return func(gs *models.GuildSettings) { gs.LeaderboardTop = int(value) }, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
}
