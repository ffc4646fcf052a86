package repository

import (
	"sort"
	"testing"

	"github.com/pointsbot/pointsbot/internal/models"
)

func TestMilestoneListOrderedByThreshold(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMilestoneRepository(db)

	for _, m := range []models.Milestone{
		{GuildID: "g1", Threshold: 50, RoleName: "Silver"},
		{GuildID: "g1", Threshold: 25, RoleName: "Bronze"},
		{GuildID: "g2", Threshold: 10, RoleName: "Other"},
	} {
		milestone := m
		if err := repo.Create(&milestone); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	milestones, err := repo.ListByGuild("g1")
	if err != nil {
		t.Fatalf("ListByGuild: %v", err)
	}
	if len(milestones) != 2 {
		t.Fatalf("got %d milestones, want 2", len(milestones))
	}
	if milestones[0].Threshold != 25 || milestones[1].Threshold != 50 {
		t.Errorf("milestones not ordered by threshold: %v", milestones)
	}
}

func TestMilestoneRemoveByThreshold(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMilestoneRepository(db)

	// Two roles at the same threshold are both removed in one call.
	for _, role := range []string{"Bronze", "Helper"} {
		if err := repo.Create(&models.Milestone{GuildID: "g1", Threshold: 25, RoleName: role}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	removed, err := repo.RemoveByThreshold("g1", 25)
	if err != nil {
		t.Fatalf("RemoveByThreshold: %v", err)
	}
	if !removed {
		t.Error("expected removal to report success")
	}

	milestones, err := repo.ListByGuild("g1")
	if err != nil {
		t.Fatalf("ListByGuild: %v", err)
	}
	if len(milestones) != 0 {
		t.Errorf("expected no milestones left, got %v", milestones)
	}

	removed, err = repo.RemoveByThreshold("g1", 25)
	if err != nil {
		t.Fatalf("RemoveByThreshold: %v", err)
	}
	if removed {
		t.Error("second removal should report nothing deleted")
	}
}

func TestMilestoneGuildIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMilestoneRepository(db)

	for _, m := range []models.Milestone{
		{GuildID: "g1", Threshold: 25, RoleName: "Bronze"},
		{GuildID: "g1", Threshold: 50, RoleName: "Silver"},
		{GuildID: "g2", Threshold: 10, RoleName: "Other"},
	} {
		milestone := m
		if err := repo.Create(&milestone); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	ids, err := repo.GuildIDs()
	if err != nil {
		t.Fatalf("GuildIDs: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "g1" || ids[1] != "g2" {
		t.Errorf("GuildIDs = %v, want [g1 g2]", ids)
	}
}
