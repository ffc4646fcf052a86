package repository

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pointsbot/pointsbot/internal/models"
)

func addRule(t *testing.T, repo *TriggerRepository, guildID, phrase string, points int64, category string) {
	t.Helper()
	rule := &models.TriggerRule{GuildID: guildID, Phrase: phrase, Points: points, Category: category}
	if err := repo.Append(rule); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	repo := NewTriggerRepository(setupTestDB(t))

	addRule(t, repo, "guild-1", "good bot", 1, models.TriggerAdd)
	addRule(t, repo, "guild-1", "bad bot", 2, models.TriggerRemove)
	addRule(t, repo, "guild-1", "thanks", 5, models.TriggerAdd)

	rules, err := repo.ListByGuild("guild-1")
	if err != nil {
		t.Fatalf("ListByGuild failed: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("Expected 3 rules, got %d", len(rules))
	}
	for i, phrase := range []string{"good bot", "bad bot", "thanks"} {
		if rules[i].Phrase != phrase {
			t.Errorf("Position %d: expected %q, got %q", i, phrase, rules[i].Phrase)
		}
	}
}

func TestConcurrentAppendsGetDistinctPositions(t *testing.T) {
	repo := NewTriggerRepository(setupTestDB(t))

	const rules = 8
	var wg sync.WaitGroup
	for n := 0; n < rules; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rule := &models.TriggerRule{
				GuildID:  "guild-1",
				Phrase:   fmt.Sprintf("phrase %d", n),
				Points:   1,
				Category: models.TriggerAdd,
			}
			if err := repo.Append(rule); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}(n)
	}
	wg.Wait()

	stored, err := repo.ListByGuild("guild-1")
	if err != nil {
		t.Fatalf("ListByGuild failed: %v", err)
	}
	if len(stored) != rules {
		t.Fatalf("Expected %d rules, got %d", rules, len(stored))
	}
	seen := make(map[int]bool, rules)
	for _, rule := range stored {
		if seen[rule.Position] {
			t.Errorf("Position %d assigned twice", rule.Position)
		}
		seen[rule.Position] = true
	}
}

func TestDuplicatePhrasesArePermitted(t *testing.T) {
	repo := NewTriggerRepository(setupTestDB(t))

	addRule(t, repo, "guild-1", "gg", 1, models.TriggerAdd)
	addRule(t, repo, "guild-1", "gg", 3, models.TriggerAdd)

	rules, err := repo.ListByGuild("guild-1")
	if err != nil {
		t.Fatalf("ListByGuild failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("Expected both duplicate rules stored, got %d", len(rules))
	}
}

func TestRemoveByPhraseIsCaseInsensitiveExactMatch(t *testing.T) {
	repo := NewTriggerRepository(setupTestDB(t))

	addRule(t, repo, "guild-1", "Good Bot", 1, models.TriggerAdd)

	// Substrings must not remove.
	removed, err := repo.RemoveByPhrase("guild-1", "good")
	if err != nil {
		t.Fatalf("RemoveByPhrase failed: %v", err)
	}
	if removed {
		t.Error("Substring must not match for removal")
	}

	removed, err = repo.RemoveByPhrase("guild-1", "gOOd bOT")
	if err != nil {
		t.Fatalf("RemoveByPhrase failed: %v", err)
	}
	if !removed {
		t.Error("Expected case-insensitive exact match to remove the rule")
	}

	// Removing again is a reported no-op.
	removed, err = repo.RemoveByPhrase("guild-1", "good bot")
	if err != nil {
		t.Fatalf("RemoveByPhrase failed: %v", err)
	}
	if removed {
		t.Error("Expected no-op removing an absent rule")
	}
}

func TestRemoveByPhraseOnlyRemovesFirst(t *testing.T) {
	repo := NewTriggerRepository(setupTestDB(t))

	addRule(t, repo, "guild-1", "gg", 1, models.TriggerAdd)
	addRule(t, repo, "guild-1", "gg", 3, models.TriggerAdd)

	removed, err := repo.RemoveByPhrase("guild-1", "gg")
	if err != nil {
		t.Fatalf("RemoveByPhrase failed: %v", err)
	}
	if !removed {
		t.Fatal("Expected a removal")
	}

	rules, err := repo.ListByGuild("guild-1")
	if err != nil {
		t.Fatalf("ListByGuild failed: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("Expected 1 remaining rule, got %d", len(rules))
	}
	if rules[0].Points != 3 {
		t.Errorf("Expected the later duplicate to survive, got points %d", rules[0].Points)
	}
}
