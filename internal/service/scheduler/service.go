// Package scheduler runs the periodic milestone sweep that reconciles
// role grants with current balances.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pointsbot/pointsbot/internal/config"
	prommetrics "github.com/pointsbot/pointsbot/internal/metrics"
	"github.com/pointsbot/pointsbot/internal/models"
	"github.com/pointsbot/pointsbot/internal/service/milestones"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

// AccountRepository interface for account operations.
type AccountRepository interface {
	ListByGuild(guildID string) ([]models.Account, error)
}

// MilestoneRepository interface for milestone operations.
type MilestoneRepository interface {
	GuildIDs() ([]string, error)
	ListByGuild(guildID string) ([]models.Milestone, error)
}

// RoleGranter applies a milestone role to a guild member. The Discord
// adapter implements it; grants are idempotent there.
type RoleGranter interface {
	GrantRole(ctx context.Context, guildID, userID, roleName string) error
}

// Service handles milestone sweep scheduling.
type Service struct {
	config        *config.Config
	accountRepo   AccountRepository
	milestoneRepo MilestoneRepository
	granter       RoleGranter
	log           *logger.Logger
	cron          *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(
	cfg *config.Config,
	accountRepo AccountRepository,
	milestoneRepo MilestoneRepository,
	granter RoleGranter,
	log *logger.Logger,
) *Service {
	return &Service{
		config:        cfg,
		accountRepo:   accountRepo,
		milestoneRepo: milestoneRepo,
		granter:       granter,
		log:           log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Scheduler.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := time.LoadLocation(s.config.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Scheduler.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	_, err = s.cron.AddFunc(s.config.Scheduler.MilestoneSweep, func() {
		s.RunSweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to register milestone sweep job: %w", err)
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("schedule", s.config.Scheduler.MilestoneSweep).
		Str("timezone", s.config.Scheduler.Timezone).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// RunSweep walks every guild with milestones and grants any role a
// member's balance has earned. Missed grants happen when a role grant
// fails at unlock time or milestones are added after balances already
// crossed them; the sweep repairs both.
func (s *Service) RunSweep(ctx context.Context) {
	start := time.Now()
	defer func() {
		prommetrics.ObserveSweepDuration(time.Since(start).Seconds())
	}()

	s.log.Info().Msg("Running milestone sweep job")

	guildIDs, err := s.milestoneRepo.GuildIDs()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list guilds with milestones")
		prommetrics.RecordSweepJobRun("error")
		return
	}

	granted := 0
	failed := 0
	for _, guildID := range guildIDs {
		g, f := s.sweepGuild(ctx, guildID)
		granted += g
		failed += f
	}

	status := "success"
	if failed > 0 {
		status = "partial"
	}
	prommetrics.RecordSweepJobRun(status)

	s.log.Info().
		Int("guilds", len(guildIDs)).
		Int("roles_granted", granted).
		Int("grant_failures", failed).
		Dur("duration", time.Since(start)).
		Msg("Milestone sweep job completed")
}

// sweepGuild grants earned roles for one guild and refreshes its top
// balance gauge. Returns grant and failure counts.
func (s *Service) sweepGuild(ctx context.Context, guildID string) (granted, failed int) {
	guildMilestones, err := s.milestoneRepo.ListByGuild(guildID)
	if err != nil {
		s.log.Error().Err(err).Str("guild_id", guildID).Msg("Failed to list milestones")
		return 0, 1
	}
	if len(guildMilestones) == 0 {
		return 0, 0
	}

	accounts, err := s.accountRepo.ListByGuild(guildID)
	if err != nil {
		s.log.Error().Err(err).Str("guild_id", guildID).Msg("Failed to list accounts")
		return 0, 1
	}

	if len(accounts) > 0 {
		prommetrics.SetTopBalance(guildID, accounts[0].Balance)
	}

	for _, acc := range accounts {
		earned := milestones.NewlyUnlocked(guildMilestones, 0, acc.Balance)
		for _, m := range earned {
			if err := s.granter.GrantRole(ctx, guildID, acc.UserID, m.RoleName); err != nil {
				s.log.Warn().
					Err(err).
					Str("guild_id", guildID).
					Str("user_id", acc.UserID).
					Str("role", m.RoleName).
					Msg("Failed to grant milestone role")
				failed++
				continue
			}
			granted++
		}
	}
	return granted, failed
}
