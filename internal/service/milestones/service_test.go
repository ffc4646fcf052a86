package milestones

import (
	"errors"
	"testing"

	"github.com/pointsbot/pointsbot/internal/models"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

type mockMilestoneRepository struct {
	milestones map[string][]models.Milestone
}

func newMockMilestoneRepository() *mockMilestoneRepository {
	return &mockMilestoneRepository{milestones: make(map[string][]models.Milestone)}
}

func (m *mockMilestoneRepository) ListByGuild(guildID string) ([]models.Milestone, error) {
	out := make([]models.Milestone, len(m.milestones[guildID]))
	copy(out, m.milestones[guildID])
	return out, nil
}

func (m *mockMilestoneRepository) Create(ms *models.Milestone) error {
	m.milestones[ms.GuildID] = append(m.milestones[ms.GuildID], *ms)
	return nil
}

func (m *mockMilestoneRepository) RemoveByThreshold(guildID string, threshold int64) (bool, error) {
	var kept []models.Milestone
	removed := false
	for _, ms := range m.milestones[guildID] {
		if ms.Threshold == threshold {
			removed = true
			continue
		}
		kept = append(kept, ms)
	}
	m.milestones[guildID] = kept
	return removed, nil
}

func testLogger() *logger.Logger {
	return logger.New("error", "json", "stdout")
}

func milestonesAt(thresholds ...int64) []models.Milestone {
	out := make([]models.Milestone, len(thresholds))
	for i, th := range thresholds {
		out[i] = models.Milestone{GuildID: "g1", Threshold: th, RoleName: "role"}
	}
	return out
}

func TestNewlyUnlocked(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []int64
		old        int64
		new        int64
		want       []int64
	}{
		{"crosses one of two", []int64{25, 50}, 20, 30, []int64{25}},
		{"crosses second later without repeating first", []int64{25, 50}, 30, 60, []int64{50}},
		{"crosses both at once", []int64{25, 50}, 0, 100, []int64{25, 50}},
		{"lands exactly on threshold", []int64{25}, 20, 25, []int64{25}},
		{"starts exactly on threshold", []int64{25}, 25, 30, nil},
		{"decrease unlocks nothing", []int64{25}, 30, 10, nil},
		{"no change unlocks nothing", []int64{25}, 25, 25, nil},
		{"no thresholds", nil, 0, 100, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewlyUnlocked(milestonesAt(tt.thresholds...), tt.old, tt.new)
			if len(got) != len(tt.want) {
				t.Fatalf("unlocked %d milestones, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if m.Threshold != tt.want[i] {
					t.Errorf("unlocked[%d].Threshold = %d, want %d", i, m.Threshold, tt.want[i])
				}
			}
		})
	}
}

func TestEvaluateLoadsGuildMilestones(t *testing.T) {
	repo := newMockMilestoneRepository()
	svc := NewServiceWithInterfaces(repo, testLogger())

	if err := svc.Add("g1", 25, "Bronze"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := svc.Add("g2", 10, "Other"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	unlocked, err := svc.Evaluate("g1", 20, 30)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(unlocked) != 1 || unlocked[0].RoleName != "Bronze" {
		t.Errorf("expected only g1 Bronze milestone, got %v", unlocked)
	}
}

func TestAddRejectsNonPositiveThreshold(t *testing.T) {
	repo := newMockMilestoneRepository()
	svc := NewServiceWithInterfaces(repo, testLogger())

	for _, th := range []int64{0, -5} {
		if err := svc.Add("g1", th, "role"); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("Add(%d) = %v, want ErrInvalidThreshold", th, err)
		}
	}
	if len(repo.milestones["g1"]) != 0 {
		t.Error("invalid milestones must not be stored")
	}
}

func TestRemove(t *testing.T) {
	repo := newMockMilestoneRepository()
	svc := NewServiceWithInterfaces(repo, testLogger())

	if err := svc.Add("g1", 25, "Bronze"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	removed, err := svc.Remove("g1", 25)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Error("expected removal to succeed")
	}

	removed, err = svc.Remove("g1", 25)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed {
		t.Error("second removal should report not found")
	}
}
