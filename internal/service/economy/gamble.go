package economy

import (
	"math"
	"math/rand"
	"strings"

	"github.com/pointsbot/pointsbot/internal/metrics"
)

// Rand is the random source behind wager resolution. It is an
// interface so tests can force deterministic outcomes; fairness
// against a determined user is explicitly not a goal.
type Rand interface {
	Float64() float64
}

// SystemRand draws from the process-wide math/rand source.
type SystemRand struct{}

// Float64 returns a uniform value in [0, 1).
func (SystemRand) Float64() float64 {
	return rand.Float64()
}

// Wager colors. The draw is a coin flip; the color only decorates the
// announcement, so on a win the drawn color matches the player's pick
// and on a loss it is the other one.
const (
	ColorRed   = "red"
	ColorBlack = "black"
)

// Outcome is the result of a resolved wager.
type Outcome struct {
	Won   bool
	Delta int64 // net balance change: +round(wager*(m-1)) on win, -wager on loss
}

// ResolveWager draws an outcome for a pre-validated wager. With
// multiplier 2 this is double-or-nothing: the net effect equals
// debiting the wager and crediting wager*2 on a win.
func ResolveWager(wager int64, winProbability, multiplier float64, rng Rand) Outcome {
	if rng.Float64() < winProbability {
		gain := int64(math.Round(float64(wager) * (multiplier - 1)))
		return Outcome{Won: true, Delta: gain}
	}
	return Outcome{Won: false, Delta: -wager}
}

// GambleResult reports an accepted, resolved wager.
type GambleResult struct {
	Won        bool
	Wager      int64
	Choice     string // color the player picked
	Color      string // color the draw landed on
	Delta      int64
	OldBalance int64
	NewBalance int64
}

// normalizeColor folds case and defaults an empty choice to red.
func normalizeColor(choice string) (string, error) {
	switch strings.ToLower(choice) {
	case "", ColorRed:
		return ColorRed, nil
	case ColorBlack:
		return ColorBlack, nil
	default:
		return "", ErrInvalidColor
	}
}

func oppositeColor(color string) string {
	if color == ColorRed {
		return ColorBlack
	}
	return ColorRed
}

// Gamble validates and resolves a wager. Invalid wagers are rejected
// before any balance mutation; a wager is never partially applied.
// The color choice is cosmetic and does not affect the odds.
func (s *Service) Gamble(guildID, userID string, wager int64, choice string) (*GambleResult, error) {
	if wager <= 0 {
		metrics.RecordWagerRejected(guildID, "non_positive")
		return nil, ErrInvalidWager
	}
	choice, err := normalizeColor(choice)
	if err != nil {
		metrics.RecordWagerRejected(guildID, "invalid_color")
		return nil, err
	}

	unlock := s.lockGuild(guildID)
	defer unlock()

	settings, err := s.settings.GetOrCreate(guildID)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetOrCreate(guildID, userID)
	if err != nil {
		return nil, err
	}
	if wager > account.Balance {
		metrics.RecordWagerRejected(guildID, "insufficient_balance")
		return nil, ErrInsufficientBalance
	}

	outcome := ResolveWager(
		wager,
		float64(settings.GambleWinChance)/100,
		float64(settings.GambleMultiplier),
		s.rng,
	)

	newBalance, err := s.persistDelta(guildID, userID, account.Balance, outcome.Delta)
	if err != nil {
		return nil, err
	}

	drawn := choice
	if !outcome.Won {
		drawn = oppositeColor(choice)
	}

	result := "lost"
	if outcome.Won {
		result = "won"
	}
	metrics.RecordWager(guildID, result, wager)
	s.log.Info().
		Str("guild_id", guildID).
		Str("user_id", userID).
		Int64("wager", wager).
		Bool("won", outcome.Won).
		Str("color", drawn).
		Int64("balance", newBalance).
		Msg("Wager resolved")

	return &GambleResult{
		Won:        outcome.Won,
		Wager:      wager,
		Choice:     choice,
		Color:      drawn,
		Delta:      outcome.Delta,
		OldBalance: account.Balance,
		NewBalance: newBalance,
	}, nil
}
