// Package economy owns the points ledger: balances, the daily claim
// window and wager resolution. Every read-modify-write runs under a
// per-guild lock so concurrent operations on one guild cannot lose
// updates; operations on different guilds never block each other.
package economy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pointsbot/pointsbot/internal/cache"
	"github.com/pointsbot/pointsbot/internal/metrics"
	"github.com/pointsbot/pointsbot/internal/models"
	"github.com/pointsbot/pointsbot/internal/repository"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

// Validation errors reported to callers before any balance mutation.
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidWager        = errors.New("wager must be positive")
	ErrInvalidColor        = errors.New("color must be red or black")
	ErrInsufficientBalance = errors.New("wager exceeds balance")
)

// AccountRepository interface for balance and claim storage.
type AccountRepository interface {
	GetOrCreate(guildID, userID string) (*models.Account, error)
	UpdateBalance(guildID, userID string, balance int64) error
	LastClaim(guildID, userID string) (*time.Time, error)
	RecordClaim(guildID, userID string, at time.Time) error
}

// SettingsProvider interface for per-guild tunables.
type SettingsProvider interface {
	GetOrCreate(guildID string) (*models.GuildSettings, error)
}

// Service handles all balance mutations.
type Service struct {
	accounts AccountRepository
	settings SettingsProvider
	cache    cache.Cache // optional, nil disables the claim cache
	rng      Rand
	log      *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new economy service with concrete repository types.
func NewService(
	accounts *repository.AccountRepository,
	settings *repository.SettingsRepository,
	c cache.Cache,
	rng Rand,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(accounts, settings, c, rng, log)
}

// NewServiceWithInterfaces creates a new economy service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	accounts AccountRepository,
	settings SettingsProvider,
	c cache.Cache,
	rng Rand,
	log *logger.Logger,
) *Service {
	if rng == nil {
		rng = SystemRand{}
	}
	return &Service{
		accounts: accounts,
		settings: settings,
		cache:    c,
		rng:      rng,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockGuild serializes read-modify-write sequences per guild.
func (s *Service) lockGuild(guildID string) func() {
	s.mu.Lock()
	l, ok := s.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[guildID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Balance returns the user's current balance, creating the account at
// zero on first reference.
func (s *Service) Balance(guildID, userID string) (int64, error) {
	account, err := s.accounts.GetOrCreate(guildID, userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Credit adds amount to the user's balance and returns the new balance.
func (s *Service) Credit(guildID, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	unlock := s.lockGuild(guildID)
	defer unlock()
	return s.applyDelta(guildID, userID, amount)
}

// Debit subtracts amount from the user's balance, flooring at zero,
// and returns the new balance. It never fails on overdraft; callers
// that must prevent it (gambling) pre-check the balance themselves.
func (s *Service) Debit(guildID, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	unlock := s.lockGuild(guildID)
	defer unlock()
	return s.applyDelta(guildID, userID, -amount)
}

// SetBalance sets the balance to value, clamping negatives to zero.
func (s *Service) SetBalance(guildID, userID string, value int64) (int64, error) {
	if value < 0 {
		value = 0
	}
	unlock := s.lockGuild(guildID)
	defer unlock()

	if _, err := s.accounts.GetOrCreate(guildID, userID); err != nil {
		return 0, err
	}
	if err := s.accounts.UpdateBalance(guildID, userID, value); err != nil {
		return 0, err
	}
	return value, nil
}

// Reset is the administrative balance reset.
func (s *Service) Reset(guildID, userID string) (int64, error) {
	balance, err := s.SetBalance(guildID, userID, 0)
	if err != nil {
		return 0, err
	}
	s.log.Info().
		Str("guild_id", guildID).
		Str("user_id", userID).
		Msg("Balance reset")
	return balance, nil
}

// TriggerResult reports a trigger-driven balance adjustment.
type TriggerResult struct {
	OldBalance int64
	NewBalance int64
	Category   string
	Points     int64
}

// ApplyTrigger applies a matched trigger rule's delta. Removals floor
// at zero.
func (s *Service) ApplyTrigger(guildID, userID string, rule *models.TriggerRule) (*TriggerResult, error) {
	unlock := s.lockGuild(guildID)
	defer unlock()

	account, err := s.accounts.GetOrCreate(guildID, userID)
	if err != nil {
		return nil, err
	}
	newBalance, err := s.persistDelta(guildID, userID, account.Balance, rule.Delta())
	if err != nil {
		return nil, err
	}

	metrics.RecordTriggerFired(guildID, rule.Category)
	s.log.Debug().
		Str("guild_id", guildID).
		Str("user_id", userID).
		Str("phrase", rule.Phrase).
		Int64("balance", newBalance).
		Msg("Trigger applied")

	return &TriggerResult{
		OldBalance: account.Balance,
		NewBalance: newBalance,
		Category:   rule.Category,
		Points:     rule.Points,
	}, nil
}

// DailyResult reports a daily claim attempt.
type DailyResult struct {
	Granted    bool
	Amount     int64
	OldBalance int64
	NewBalance int64
	Remaining  time.Duration // until the window reopens, when not granted
}

// Daily attempts the time-gated daily claim. The window is a rolling
// duration from the previous successful claim, not a calendar-day
// boundary. The claim is recorded only after the reward grant
// succeeded, so a failed grant leaves the window open.
func (s *Service) Daily(ctx context.Context, guildID, userID string) (*DailyResult, error) {
	unlock := s.lockGuild(guildID)
	defer unlock()

	settings, err := s.settings.GetOrCreate(guildID)
	if err != nil {
		return nil, err
	}
	cooldown := settings.CooldownDuration()
	now := time.Now().UTC()

	last, err := s.lastClaim(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		next := last.Add(cooldown)
		if now.Before(next) {
			metrics.RecordDailyClaim(guildID, "cooling_down")
			return &DailyResult{Granted: false, Remaining: next.Sub(now)}, nil
		}
	}

	account, err := s.accounts.GetOrCreate(guildID, userID)
	if err != nil {
		return nil, err
	}
	newBalance, err := s.persistDelta(guildID, userID, account.Balance, settings.DailyReward)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.RecordClaim(guildID, userID, now); err != nil {
		// The reward is already granted; a lost claim record means the
		// user may claim again early, which beats clawing points back.
		s.log.Error().Err(err).
			Str("guild_id", guildID).
			Str("user_id", userID).
			Msg("Failed to record daily claim")
	}
	s.cacheClaim(ctx, guildID, userID, now, cooldown)

	metrics.RecordDailyClaim(guildID, "granted")
	s.log.Info().
		Str("guild_id", guildID).
		Str("user_id", userID).
		Int64("amount", settings.DailyReward).
		Int64("balance", newBalance).
		Msg("Daily reward claimed")

	return &DailyResult{
		Granted:    true,
		Amount:     settings.DailyReward,
		OldBalance: account.Balance,
		NewBalance: newBalance,
	}, nil
}

func claimKey(guildID, userID string) string {
	return fmt.Sprintf("claim:%s:%s", guildID, userID)
}

// lastClaim consults the cache first, then the database. A cached
// value that fails to parse is ignored rather than treated as an
// error; the database remains authoritative.
func (s *Service) lastClaim(ctx context.Context, guildID, userID string) (*time.Time, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, claimKey(guildID, userID))
		if err != nil {
			s.log.Warn().Err(err).Msg("Claim cache read failed, falling back to database")
		} else if cached != "" {
			at, perr := time.Parse(time.RFC3339, cached)
			if perr == nil {
				return &at, nil
			}
			s.log.Warn().Str("value", cached).Msg("Unparsable cached claim timestamp ignored")
		}
	}
	return s.accounts.LastClaim(guildID, userID)
}

func (s *Service) cacheClaim(ctx context.Context, guildID, userID string, at time.Time, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, claimKey(guildID, userID), at.Format(time.RFC3339), ttl); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache claim timestamp")
	}
}

// applyDelta performs a full get-adjust-persist cycle. Callers hold
// the guild lock.
func (s *Service) applyDelta(guildID, userID string, delta int64) (int64, error) {
	account, err := s.accounts.GetOrCreate(guildID, userID)
	if err != nil {
		return 0, err
	}
	return s.persistDelta(guildID, userID, account.Balance, delta)
}

// persistDelta writes balance+delta floored at zero. Callers hold the
// guild lock and have already loaded the current balance.
func (s *Service) persistDelta(guildID, userID string, balance, delta int64) (int64, error) {
	newBalance := balance + delta
	if newBalance < 0 {
		newBalance = 0
	}
	if err := s.accounts.UpdateBalance(guildID, userID, newBalance); err != nil {
		return 0, err
	}
	return newBalance, nil
}
