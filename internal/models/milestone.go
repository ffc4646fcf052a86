package models

import "time"

// Milestone is a point threshold that unlocks a named role within a
// guild. Milestones carry no fired/unfired state; they are
// re-evaluated against balances on every balance change.
type Milestone struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GuildID   string    `gorm:"index;not null;size:32" json:"guild_id"`
	Threshold int64     `gorm:"not null" json:"threshold"`
	RoleName  string    `gorm:"not null;size:100" json:"role_name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Milestone model.
func (Milestone) TableName() string {
	return "milestones"
}
