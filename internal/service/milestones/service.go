// Package milestones provides balance-threshold evaluation and
// milestone management services.
package milestones

import (
	"errors"

	prommetrics "github.com/pointsbot/pointsbot/internal/metrics"
	"github.com/pointsbot/pointsbot/internal/models"
	"github.com/pointsbot/pointsbot/internal/repository"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

// ErrInvalidThreshold is returned for non-positive thresholds.
var ErrInvalidThreshold = errors.New("milestone threshold must be positive")

// MilestoneRepository interface for milestone operations.
type MilestoneRepository interface {
	ListByGuild(guildID string) ([]models.Milestone, error)
	Create(m *models.Milestone) error
	RemoveByThreshold(guildID string, threshold int64) (bool, error)
}

// Service handles milestone management and unlock evaluation.
type Service struct {
	repo MilestoneRepository
	log  *logger.Logger
}

// NewService creates a new milestone service.
func NewService(repo *repository.MilestoneRepository, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(repo, log)
}

// NewServiceWithInterfaces creates a new milestone service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(repo MilestoneRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// NewlyUnlocked returns the milestones whose threshold lies in the
// half-open interval (oldBalance, newBalance]. A threshold equal to
// the old balance was already unlocked and is not reported again;
// a threshold equal to the new balance is. Decreasing balances never
// unlock anything and previously unlocked milestones are never
// revoked.
func NewlyUnlocked(milestones []models.Milestone, oldBalance, newBalance int64) []models.Milestone {
	if newBalance <= oldBalance {
		return nil
	}
	var unlocked []models.Milestone
	for _, m := range milestones {
		if m.Threshold > oldBalance && m.Threshold <= newBalance {
			unlocked = append(unlocked, m)
		}
	}
	return unlocked
}

// Evaluate loads the guild's milestones and returns those crossed by
// a balance change from oldBalance to newBalance.
func (s *Service) Evaluate(guildID string, oldBalance, newBalance int64) ([]models.Milestone, error) {
	if newBalance <= oldBalance {
		return nil, nil
	}
	milestones, err := s.repo.ListByGuild(guildID)
	if err != nil {
		return nil, err
	}
	unlocked := NewlyUnlocked(milestones, oldBalance, newBalance)
	for _, m := range unlocked {
		prommetrics.RecordMilestoneUnlocked(guildID)
		s.log.Info().
			Str("guild_id", guildID).
			Int64("threshold", m.Threshold).
			Str("role", m.RoleName).
			Msg("Milestone unlocked")
	}
	return unlocked, nil
}

// Add registers a milestone for the guild. Multiple milestones may
// share a threshold; each carries its own role.
func (s *Service) Add(guildID string, threshold int64, roleName string) error {
	if threshold <= 0 {
		return ErrInvalidThreshold
	}
	m := &models.Milestone{
		GuildID:   guildID,
		Threshold: threshold,
		RoleName:  roleName,
	}
	if err := s.repo.Create(m); err != nil {
		return err
	}
	s.log.Info().
		Str("guild_id", guildID).
		Int64("threshold", threshold).
		Str("role", roleName).
		Msg("Milestone added")
	return nil
}

// Remove deletes the guild's milestones at the given threshold.
// Returns false when none existed.
func (s *Service) Remove(guildID string, threshold int64) (bool, error) {
	removed, err := s.repo.RemoveByThreshold(guildID, threshold)
	if err != nil {
		return false, err
	}
	if removed {
		s.log.Info().
			Str("guild_id", guildID).
			Int64("threshold", threshold).
			Msg("Milestone removed")
	}
	return removed, nil
}

// List returns the guild's milestones in ascending threshold order.
func (s *Service) List(guildID string) ([]models.Milestone, error) {
	return s.repo.ListByGuild(guildID)
}
