package economy

import (
	"errors"
	"testing"
)

func TestResolveWagerForcedOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		wager      int64
		p          float64
		multiplier float64
		draw       float64
		wantWon    bool
		wantDelta  int64
	}{
		{"forced win doubles the stake", 50, 1.0, 2, 0.99, true, 50},
		{"forced loss costs the stake", 50, 0.0, 2, 0.0, false, -50},
		{"draw below probability wins", 10, 0.5, 2, 0.49, true, 10},
		{"draw at probability loses", 10, 0.5, 2, 0.5, false, -10},
		{"triple multiplier nets twice the stake", 10, 1.0, 3, 0.0, true, 20},
		{"fractional multiplier rounds", 10, 1.0, 1.5, 0.0, true, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := ResolveWager(tt.wager, tt.p, tt.multiplier, fixedRand{v: tt.draw})
			if outcome.Won != tt.wantWon {
				t.Errorf("Expected won=%v, got %v", tt.wantWon, outcome.Won)
			}
			if outcome.Delta != tt.wantDelta {
				t.Errorf("Expected delta %d, got %d", tt.wantDelta, outcome.Delta)
			}
		})
	}
}

func TestGambleRejectsInvalidWagers(t *testing.T) {
	svc, accounts, _ := setupTestService()

	if _, err := svc.Credit("g", "u", 20); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	tests := []struct {
		name    string
		wager   int64
		wantErr error
	}{
		{"zero wager", 0, ErrInvalidWager},
		{"negative wager", -5, ErrInvalidWager},
		{"wager above balance", 21, ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Gamble("g", "u", tt.wager, ColorRed)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			// Rejection must leave the balance untouched.
			if balance := accounts.balances[key("g", "u")]; balance != 20 {
				t.Errorf("Balance mutated on rejected wager: %d", balance)
			}
		})
	}
}

func TestGambleColorFollowsOutcome(t *testing.T) {
	tests := []struct {
		name       string
		winChance  int
		choice     string
		wantWon    bool
		wantChoice string
		wantColor  string
	}{
		{"win lands on the picked color", 100, "black", true, ColorBlack, ColorBlack},
		{"loss lands on the other color", 0, "black", false, ColorBlack, ColorRed},
		{"choice is case-insensitive", 100, "RED", true, ColorRed, ColorRed},
		{"empty choice defaults to red", 0, "", false, ColorRed, ColorBlack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := newMockAccountRepository()
			settings := &mockSettingsProvider{settings: defaultTestSettings()}
			settings.settings.GambleWinChance = tt.winChance
			svc := NewServiceWithInterfaces(accounts, settings, nil, fixedRand{v: 0.5}, testLogger())

			if _, err := svc.Credit("g", "u", 100); err != nil {
				t.Fatalf("Credit failed: %v", err)
			}
			result, err := svc.Gamble("g", "u", 10, tt.choice)
			if err != nil {
				t.Fatalf("Gamble failed: %v", err)
			}
			if result.Won != tt.wantWon {
				t.Errorf("Expected won=%v, got %v", tt.wantWon, result.Won)
			}
			if result.Choice != tt.wantChoice {
				t.Errorf("Expected choice %q, got %q", tt.wantChoice, result.Choice)
			}
			if result.Color != tt.wantColor {
				t.Errorf("Expected color %q, got %q", tt.wantColor, result.Color)
			}
		})
	}
}

func TestGambleRejectsUnknownColor(t *testing.T) {
	svc, accounts, _ := setupTestService()

	if _, err := svc.Credit("g", "u", 20); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if _, err := svc.Gamble("g", "u", 5, "green"); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("Expected ErrInvalidColor, got %v", err)
	}
	if balance := accounts.balances[key("g", "u")]; balance != 20 {
		t.Errorf("Balance mutated on rejected wager: %d", balance)
	}
}

func TestGambleForcedLossSubtractsExactly(t *testing.T) {
	accounts := newMockAccountRepository()
	settings := &mockSettingsProvider{settings: defaultTestSettings()}
	settings.settings.GambleWinChance = 0
	svc := NewServiceWithInterfaces(accounts, settings, nil, fixedRand{v: 0.0}, testLogger())

	if _, err := svc.Credit("g", "u", 100); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	result, err := svc.Gamble("g", "u", 30, ColorBlack)
	if err != nil {
		t.Fatalf("Gamble failed: %v", err)
	}
	if result.Won {
		t.Fatal("Expected a loss at zero win chance")
	}
	if result.NewBalance != 70 {
		t.Errorf("Expected 70, got %d", result.NewBalance)
	}
}

func TestGambleAllInLossReachesZero(t *testing.T) {
	accounts := newMockAccountRepository()
	settings := &mockSettingsProvider{settings: defaultTestSettings()}
	settings.settings.GambleWinChance = 0
	svc := NewServiceWithInterfaces(accounts, settings, nil, fixedRand{v: 0.9}, testLogger())

	if _, err := svc.Credit("g", "u", 40); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	result, err := svc.Gamble("g", "u", 40, "")
	if err != nil {
		t.Fatalf("Gamble failed: %v", err)
	}
	if result.NewBalance != 0 {
		t.Errorf("Expected 0 after all-in loss, got %d", result.NewBalance)
	}
}
