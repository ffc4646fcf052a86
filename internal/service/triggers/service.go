// Package triggers owns the per-guild phrase-to-points rules and
// their evaluation against inbound message text.
package triggers

import (
	"errors"
	"strings"

	"github.com/pointsbot/pointsbot/internal/models"
	"github.com/pointsbot/pointsbot/internal/repository"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

// Validation errors reported before any mutation.
var (
	ErrEmptyPhrase     = errors.New("trigger phrase must not be empty")
	ErrInvalidPoints   = errors.New("trigger points must be positive")
	ErrInvalidCategory = errors.New("trigger category must be add or remove")
)

// TriggerRepository interface for trigger rule storage.
type TriggerRepository interface {
	ListByGuild(guildID string) ([]models.TriggerRule, error)
	Append(rule *models.TriggerRule) error
	RemoveByPhrase(guildID, phrase string) (bool, error)
}

// Service handles trigger rule management and message matching.
type Service struct {
	repo TriggerRepository
	log  *logger.Logger
}

// NewService creates a new trigger service.
func NewService(repo *repository.TriggerRepository, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(repo, log)
}

// NewServiceWithInterfaces creates a new trigger service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(repo TriggerRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Match scans the guild's rules in insertion order and returns the
// first whose phrase is a case-insensitive substring of the message,
// or nil when none matches. Substring matching is deliberately loose:
// any occurrence of the phrase anywhere in the message fires the
// rule, so saying the magic words always works.
func (s *Service) Match(guildID, messageText string) (*models.TriggerRule, error) {
	rules, err := s.repo.ListByGuild(guildID)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(messageText)
	for i := range rules {
		if strings.Contains(lower, strings.ToLower(rules[i].Phrase)) {
			return &rules[i], nil
		}
	}
	return nil, nil
}

// AddRule appends a rule to the guild's list. Duplicate phrases are
// permitted; first-match-wins makes later duplicates unreachable.
func (s *Service) AddRule(guildID, phrase string, points int64, category string) error {
	if strings.TrimSpace(phrase) == "" {
		return ErrEmptyPhrase
	}
	if points <= 0 {
		return ErrInvalidPoints
	}
	if category != models.TriggerAdd && category != models.TriggerRemove {
		return ErrInvalidCategory
	}

	rule := &models.TriggerRule{
		GuildID:  guildID,
		Phrase:   phrase,
		Points:   points,
		Category: category,
	}
	if err := s.repo.Append(rule); err != nil {
		return err
	}

	s.log.Info().
		Str("guild_id", guildID).
		Str("phrase", phrase).
		Int64("points", points).
		Str("category", category).
		Msg("Trigger rule added")
	return nil
}

// RemoveRule removes the first rule whose phrase equals the argument
// case-insensitively. Returns false when no rule matched; that is a
// reported no-op, not an error.
func (s *Service) RemoveRule(guildID, phrase string) (bool, error) {
	removed, err := s.repo.RemoveByPhrase(guildID, phrase)
	if err != nil {
		return false, err
	}
	if removed {
		s.log.Info().
			Str("guild_id", guildID).
			Str("phrase", phrase).
			Msg("Trigger rule removed")
	}
	return removed, nil
}

// List returns the guild's rules in evaluation order.
func (s *Service) List(guildID string) ([]models.TriggerRule, error) {
	return s.repo.ListByGuild(guildID)
}
