// Package leaderboard provides per-guild balance ranking.
package leaderboard

import (
	"fmt"

	prommetrics "github.com/pointsbot/pointsbot/internal/metrics"
	"github.com/pointsbot/pointsbot/internal/models"
	"github.com/pointsbot/pointsbot/internal/repository"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

// AccountRepository interface for account operations.
type AccountRepository interface {
	Top(guildID string, limit int) ([]models.Account, error)
	ListByGuild(guildID string) ([]models.Account, error)
}

// SettingsProvider supplies the guild's configured leaderboard size.
type SettingsProvider interface {
	GetOrCreate(guildID string) (*models.GuildSettings, error)
}

// Entry represents a single entry in a guild leaderboard.
type Entry struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
	Rank    int    `json:"rank"`
}

// Service handles leaderboard generation and user ranking.
type Service struct {
	accountRepo  AccountRepository
	settingsRepo SettingsProvider
	log          *logger.Logger
}

// NewService creates a new leaderboard service with concrete repository types.
func NewService(
	accountRepo *repository.AccountRepository,
	settingsRepo *repository.SettingsRepository,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(accountRepo, settingsRepo, log)
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	accountRepo AccountRepository,
	settingsRepo SettingsProvider,
	log *logger.Logger,
) *Service {
	return &Service{
		accountRepo:  accountRepo,
		settingsRepo: settingsRepo,
		log:          log,
	}
}

// Top returns up to limit entries ranked by balance descending, ties
// broken by user ID ascending. A non-positive limit falls back to the
// guild's configured leaderboard size.
func (s *Service) Top(guildID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		settings, err := s.settingsRepo.GetOrCreate(guildID)
		if err != nil {
			return nil, fmt.Errorf("failed to load guild settings: %w", err)
		}
		limit = settings.LeaderboardTop
	}

	accounts, err := s.accountRepo.Top(guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top accounts: %w", err)
	}

	entries := make([]Entry, 0, len(accounts))
	for i, acc := range accounts {
		entries = append(entries, Entry{
			UserID:  acc.UserID,
			Balance: acc.Balance,
			Rank:    i + 1,
		})
	}

	if len(entries) > 0 {
		prommetrics.SetTopBalance(guildID, entries[0].Balance)
	}
	return entries, nil
}

// UserRank returns the user's rank within the guild, counting every
// account. Returns 0 when the user has no account.
func (s *Service) UserRank(guildID, userID string) (int, error) {
	accounts, err := s.accountRepo.ListByGuild(guildID)
	if err != nil {
		return 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	for i, acc := range accounts {
		if acc.UserID == userID {
			return i + 1, nil
		}
	}
	return 0, nil
}
