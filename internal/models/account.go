// Package models defines domain models for the guild points economy.
package models

import "time"

// Account is a guild-scoped user balance. Accounts are created lazily
// at zero on first read or write and are never deleted, only reset.
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GuildID   string    `gorm:"uniqueIndex:idx_accounts_guild_user;not null;size:32" json:"guild_id"`
	UserID    string    `gorm:"uniqueIndex:idx_accounts_guild_user;not null;size:32" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Account model.
func (Account) TableName() string {
	return "accounts"
}

// ClaimRecord stores the timestamp of a user's last successful daily
// claim. A missing row means the user has never claimed.
type ClaimRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GuildID   string    `gorm:"uniqueIndex:idx_claims_guild_user;not null;size:32" json:"guild_id"`
	UserID    string    `gorm:"uniqueIndex:idx_claims_guild_user;not null;size:32" json:"user_id"`
	LastClaim time.Time `gorm:"not null" json:"last_claim"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for ClaimRecord model.
func (ClaimRecord) TableName() string {
	return "claim_records"
}
