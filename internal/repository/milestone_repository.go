package repository

import (
	"fmt"

	"github.com/pointsbot/pointsbot/internal/models"
)

// MilestoneRepository handles milestone database operations.
type MilestoneRepository struct {
	db *DB
}

// NewMilestoneRepository creates a new milestone repository.
func NewMilestoneRepository(db *DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// ListByGuild returns a guild's milestones ordered by threshold.
func (r *MilestoneRepository) ListByGuild(guildID string) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.
		Where("guild_id = ?", guildID).
		Order("threshold ASC").
		Find(&milestones).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}

// Create adds a milestone.
func (r *MilestoneRepository) Create(milestone *models.Milestone) error {
	if err := r.db.Create(milestone).Error; err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}
	return nil
}

// RemoveByThreshold deletes every milestone of the guild at the given
// threshold. Returns false when nothing was deleted.
func (r *MilestoneRepository) RemoveByThreshold(guildID string, threshold int64) (bool, error) {
	res := r.db.
		Where("guild_id = ? AND threshold = ?", guildID, threshold).
		Delete(&models.Milestone{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete milestone: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GuildIDs returns every guild that has at least one milestone
// configured. Used by the periodic sweep.
func (r *MilestoneRepository) GuildIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&models.Milestone{}).
		Distinct("guild_id").
		Pluck("guild_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list milestone guilds: %w", err)
	}
	return ids, nil
}
