package repository

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pointsbot/pointsbot/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Account{},
		&models.ClaimRecord{},
		&models.TriggerRule{},
		&models.Milestone{},
		&models.GuildSettings{},
	)
	if err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return &DB{db}
}

func TestGetOrCreateStartsAtZero(t *testing.T) {
	repo := NewAccountRepository(setupTestDB(t))

	account, err := repo.GetOrCreate("guild-1", "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if account.Balance != 0 {
		t.Errorf("Expected zero starting balance, got %d", account.Balance)
	}

	// A second call must return the same row, not a duplicate.
	again, err := repo.GetOrCreate("guild-1", "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate failed on second call: %v", err)
	}
	if again.ID != account.ID {
		t.Errorf("Expected same account row, got id %d and %d", account.ID, again.ID)
	}
}

func TestAccountsAreGuildScoped(t *testing.T) {
	repo := NewAccountRepository(setupTestDB(t))

	a, err := repo.GetOrCreate("guild-1", "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if err := repo.UpdateBalance("guild-1", "user-1", 42); err != nil {
		t.Fatalf("UpdateBalance failed: %v", err)
	}

	b, err := repo.GetOrCreate("guild-2", "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if b.ID == a.ID {
		t.Error("Expected a distinct account per guild")
	}
	if b.Balance != 0 {
		t.Errorf("Expected zero balance in second guild, got %d", b.Balance)
	}
}

func TestUpdateBalanceMissingAccount(t *testing.T) {
	repo := NewAccountRepository(setupTestDB(t))

	if err := repo.UpdateBalance("guild-1", "ghost", 10); err == nil {
		t.Error("Expected error updating a nonexistent account")
	}
}

func TestTopOrdersByBalanceDescending(t *testing.T) {
	repo := NewAccountRepository(setupTestDB(t))

	balances := map[string]int64{"alice": 30, "bob": 10, "carol": 20}
	for user, balance := range balances {
		if _, err := repo.GetOrCreate("guild-1", user); err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		if err := repo.UpdateBalance("guild-1", user, balance); err != nil {
			t.Fatalf("UpdateBalance failed: %v", err)
		}
	}
	// A member of another guild must not appear.
	if _, err := repo.GetOrCreate("guild-2", "mallory"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if err := repo.UpdateBalance("guild-2", "mallory", 999); err != nil {
		t.Fatalf("UpdateBalance failed: %v", err)
	}

	top, err := repo.Top("guild-1", 2)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(top))
	}
	if top[0].UserID != "alice" || top[1].UserID != "carol" {
		t.Errorf("Unexpected order: %s, %s", top[0].UserID, top[1].UserID)
	}
}

func TestClaimRecordRoundTrip(t *testing.T) {
	repo := NewAccountRepository(setupTestDB(t))

	last, err := repo.LastClaim("guild-1", "user-1")
	if err != nil {
		t.Fatalf("LastClaim failed: %v", err)
	}
	if last != nil {
		t.Error("Expected nil for a user that never claimed")
	}

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.RecordClaim("guild-1", "user-1", first); err != nil {
		t.Fatalf("RecordClaim failed: %v", err)
	}

	last, err = repo.LastClaim("guild-1", "user-1")
	if err != nil {
		t.Fatalf("LastClaim failed: %v", err)
	}
	if last == nil || !last.Equal(first) {
		t.Errorf("Expected %v, got %v", first, last)
	}

	// A later claim overwrites the prior timestamp.
	second := first.Add(25 * time.Hour)
	if err := repo.RecordClaim("guild-1", "user-1", second); err != nil {
		t.Fatalf("RecordClaim failed: %v", err)
	}
	last, err = repo.LastClaim("guild-1", "user-1")
	if err != nil {
		t.Fatalf("LastClaim failed: %v", err)
	}
	if last == nil || !last.Equal(second) {
		t.Errorf("Expected %v, got %v", second, last)
	}
}
