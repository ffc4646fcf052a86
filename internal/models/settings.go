package models

import "time"

// GuildSettings holds the per-guild tunables. A row is created lazily
// with process-level defaults the first time a guild is referenced;
// zero-valued keys are backfilled from defaults on every read so that
// rows written by older versions keep working.
type GuildSettings struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	GuildID             string    `gorm:"uniqueIndex;not null;size:32" json:"guild_id"`
	ChannelID           string    `gorm:"size:32" json:"channel_id"` // empty means the bot is inactive in the guild
	DailyReward         int64     `gorm:"not null" json:"daily_reward"`
	DailyCooldownHours  int       `gorm:"not null" json:"daily_cooldown_hours"`
	GambleWinChance     int       `gorm:"not null;default:50" json:"gamble_win_chance"` // percent, 0..100
	GambleMultiplier    int       `gorm:"not null" json:"gamble_multiplier"`
	LeaderboardTop      int       `gorm:"not null" json:"leaderboard_top"`
	RespondWrongChannel bool      `gorm:"not null;default:true" json:"respond_wrong_channel"`
	UpdatedAt           time.Time `json:"updated_at"`
	CreatedAt           time.Time `json:"created_at"`
}

// TableName specifies the table name for GuildSettings model.
func (GuildSettings) TableName() string {
	return "guild_settings"
}

// CooldownDuration returns the daily claim window as a duration.
func (s *GuildSettings) CooldownDuration() time.Duration {
	return time.Duration(s.DailyCooldownHours) * time.Hour
}
