package repository

import (
	"fmt"

	"github.com/pointsbot/pointsbot/internal/config"
	"github.com/pointsbot/pointsbot/internal/models"
)

// SettingsRepository handles per-guild settings database operations.
type SettingsRepository struct {
	db       *DB
	defaults config.EconomyConfig
}

// NewSettingsRepository creates a new settings repository. The
// defaults are applied to rows created lazily and backfilled into
// rows whose keys predate the current schema.
func NewSettingsRepository(db *DB, defaults config.EconomyConfig) *SettingsRepository {
	return &SettingsRepository{db: db, defaults: defaults}
}

// GetOrCreate returns the guild's settings, creating a defaulted row
// on first reference. Zero-valued numeric keys are backfilled from
// the defaults so readers never see an unset key.
func (r *SettingsRepository) GetOrCreate(guildID string) (*models.GuildSettings, error) {
	var settings models.GuildSettings
	err := r.db.
		Where(models.GuildSettings{GuildID: guildID}).
		Attrs(r.defaultSettings(guildID)).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create guild settings: %w", err)
	}
	r.backfill(&settings)
	return &settings, nil
}

// Save persists the settings row.
func (r *SettingsRepository) Save(settings *models.GuildSettings) error {
	if err := r.db.Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save guild settings: %w", err)
	}
	return nil
}

// GuildIDs returns every guild with a settings row.
func (r *SettingsRepository) GuildIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&models.GuildSettings{}).Pluck("guild_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	return ids, nil
}

func (r *SettingsRepository) defaultSettings(guildID string) models.GuildSettings {
	return models.GuildSettings{
		GuildID:             guildID,
		DailyReward:         r.defaults.DailyReward,
		DailyCooldownHours:  r.defaults.DailyCooldownHours,
		GambleWinChance:     r.defaults.GambleWinChance,
		GambleMultiplier:    r.defaults.GambleMultiplier,
		LeaderboardTop:      r.defaults.LeaderboardTop,
		RespondWrongChannel: true,
	}
}

// backfill fills zero-valued keys from defaults. Rows written before a
// key existed keep working without a migration.
func (r *SettingsRepository) backfill(s *models.GuildSettings) {
	if s.DailyReward == 0 {
		s.DailyReward = r.defaults.DailyReward
	}
	if s.DailyCooldownHours == 0 {
		s.DailyCooldownHours = r.defaults.DailyCooldownHours
	}
	// GambleWinChance is deliberately not backfilled: zero is a valid
	// setting (the house always wins); its column carries a schema
	// default instead.
	if s.GambleMultiplier == 0 {
		s.GambleMultiplier = r.defaults.GambleMultiplier
	}
	if s.LeaderboardTop == 0 {
		s.LeaderboardTop = r.defaults.LeaderboardTop
	}
}
