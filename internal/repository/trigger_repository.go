package repository

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/pointsbot/pointsbot/internal/models"
)

// TriggerRepository handles trigger rule database operations.
type TriggerRepository struct {
	db *DB

	// serializes Append so concurrent admin writes cannot compute the
	// same position; the unique (guild_id, position) index backs this
	// up at the database level
	mu sync.Mutex
}

// NewTriggerRepository creates a new trigger repository.
func NewTriggerRepository(db *DB) *TriggerRepository {
	return &TriggerRepository{db: db}
}

// ListByGuild returns a guild's trigger rules in insertion order.
func (r *TriggerRepository) ListByGuild(guildID string) ([]models.TriggerRule, error) {
	var rules []models.TriggerRule
	err := r.db.
		Where("guild_id = ?", guildID).
		Order("position ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trigger rules: %w", err)
	}
	return rules, nil
}

// Append adds a rule at the end of the guild's list.
func (r *TriggerRepository) Append(rule *models.TriggerRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxPos int
	err := r.db.Model(&models.TriggerRule{}).
		Where("guild_id = ?", rule.GuildID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPos).Error
	if err != nil {
		return fmt.Errorf("failed to determine rule position: %w", err)
	}
	rule.Position = maxPos + 1

	if err := r.db.Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create trigger rule: %w", err)
	}
	return nil
}

// RemoveByPhrase deletes the first rule whose phrase equals the
// argument case-insensitively. Returns false when no rule matched.
func (r *TriggerRepository) RemoveByPhrase(guildID, phrase string) (bool, error) {
	var rule models.TriggerRule
	err := r.db.
		Where("guild_id = ? AND LOWER(phrase) = LOWER(?)", guildID, phrase).
		Order("position ASC, id ASC").
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find trigger rule: %w", err)
	}

	if err := r.db.Delete(&rule).Error; err != nil {
		return false, fmt.Errorf("failed to delete trigger rule: %w", err)
	}
	return true, nil
}
