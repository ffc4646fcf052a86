package models

import "time"

// Trigger rule categories.
const (
	TriggerAdd    = "add"
	TriggerRemove = "remove"
)

// TriggerRule maps a phrase to a point delta within a guild. Matching
// is case-insensitive substring containment against the full message
// text; rules are evaluated in insertion order and the first match
// wins. Duplicate phrases are allowed, later duplicates are simply
// unreachable.
type TriggerRule struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GuildID   string    `gorm:"index;not null;size:32;uniqueIndex:idx_trigger_guild_position" json:"guild_id"`
	Phrase    string    `gorm:"not null;size:255" json:"phrase"`
	Points    int64     `gorm:"not null" json:"points"`
	Category  string    `gorm:"not null;size:10" json:"category"` // "add" or "remove"
	Position  int       `gorm:"not null;uniqueIndex:idx_trigger_guild_position" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for TriggerRule model.
func (TriggerRule) TableName() string {
	return "trigger_rules"
}

// Delta returns the signed balance change the rule applies.
func (r *TriggerRule) Delta() int64 {
	if r.Category == TriggerRemove {
		return -r.Points
	}
	return r.Points
}
