package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pointsbot/pointsbot/internal/models"
)

// AccountRepository handles balance and claim-record database operations.
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetOrCreate returns the account for (guild, user), creating a
// zero-balance row on first reference.
func (r *AccountRepository) GetOrCreate(guildID, userID string) (*models.Account, error) {
	var account models.Account
	err := r.db.
		Where(models.Account{GuildID: guildID, UserID: userID}).
		FirstOrCreate(&account).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create account: %w", err)
	}
	return &account, nil
}

// UpdateBalance persists a new balance for (guild, user). The row must
// already exist; callers go through GetOrCreate first.
func (r *AccountRepository) UpdateBalance(guildID, userID string, balance int64) error {
	res := r.db.Model(&models.Account{}).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Update("balance", balance)
	if res.Error != nil {
		return fmt.Errorf("failed to update balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s/%s does not exist", guildID, userID)
	}
	return nil
}

// Top returns the highest-balance accounts of a guild in descending order.
func (r *AccountRepository) Top(guildID string, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.
		Where("guild_id = ?", guildID).
		Order("balance DESC, user_id ASC").
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	return accounts, nil
}

// ListByGuild returns every account of a guild in leaderboard order.
func (r *AccountRepository) ListByGuild(guildID string) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.
		Where("guild_id = ?", guildID).
		Order("balance DESC, user_id ASC").
		Find(&accounts).Error
	return accounts, err
}

// LastClaim returns the timestamp of the user's last successful daily
// claim, or nil if the user has never claimed.
func (r *AccountRepository) LastClaim(guildID, userID string) (*time.Time, error) {
	var record models.ClaimRecord
	err := r.db.
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read claim record: %w", err)
	}
	return &record.LastClaim, nil
}

// RecordClaim upserts the claim timestamp for (guild, user).
func (r *AccountRepository) RecordClaim(guildID, userID string, at time.Time) error {
	record := models.ClaimRecord{GuildID: guildID, UserID: userID, LastClaim: at}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_claim", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to record claim: %w", err)
	}
	return nil
}
