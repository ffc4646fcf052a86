// Package bot is the Discord adapter. It connects the gateway session
// to the economy services: slash commands for explicit operations and
// the message stream for trigger scanning.
package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/pointsbot/pointsbot/internal/config"
	"github.com/pointsbot/pointsbot/internal/service/economy"
	"github.com/pointsbot/pointsbot/internal/service/leaderboard"
	"github.com/pointsbot/pointsbot/internal/service/milestones"
	"github.com/pointsbot/pointsbot/internal/service/settings"
	"github.com/pointsbot/pointsbot/internal/service/triggers"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

// Bot wraps the Discord session and routes gateway events to the
// services.
type Bot struct {
	session *discordgo.Session
	config  *config.Config
	log     *logger.Logger

	economyService     *economy.Service
	triggerService     *triggers.Service
	milestoneService   *milestones.Service
	settingsService    *settings.Service
	leaderboardService *leaderboard.Service

	registeredCommands []*discordgo.ApplicationCommand
}

// New creates the bot without opening the gateway connection.
func New(
	cfg *config.Config,
	economyService *economy.Service,
	triggerService *triggers.Service,
	milestoneService *milestones.Service,
	settingsService *settings.Service,
	leaderboardService *leaderboard.Service,
	log *logger.Logger,
) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// MessageContent is privileged but required to scan messages for
	// trigger phrases.
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session:            session,
		config:             cfg,
		log:                log,
		economyService:     economyService,
		triggerService:     triggerService,
		milestoneService:   milestoneService,
		settingsService:    settingsService,
		leaderboardService: leaderboardService,
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteractionCreate)
	session.AddHandler(b.onMessageCreate)

	return b, nil
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	for _, cmd := range commandDefinitions() {
		created, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("failed to register command %q: %w", cmd.Name, err)
		}
		b.registeredCommands = append(b.registeredCommands, created)
	}

	b.log.Info().
		Int("commands", len(b.registeredCommands)).
		Msg("Bot started and commands registered")
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() {
	if err := b.session.Close(); err != nil {
		b.log.Warn().Err(err).Msg("Failed to close Discord session")
	}
	b.log.Info().Msg("Bot stopped")
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().
		Str("username", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Logged in to Discord")

	if b.config.Discord.Status != "" {
		if err := s.UpdateGameStatus(0, b.config.Discord.Status); err != nil {
			b.log.Warn().Err(err).Msg("Failed to set presence")
		}
	}
}

// GrantRole assigns the named role to a guild member. Creating roles
// is out of scope; unknown role names are an error so the operator
// notices the misconfiguration. Discord treats re-adding a held role
// as a no-op, so repeated grants are safe.
func (b *Bot) GrantRole(_ context.Context, guildID, userID, roleName string) error {
	roleID, err := b.roleIDByName(guildID, roleName)
	if err != nil {
		return err
	}
	if err := b.session.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("failed to add role %q: %w", roleName, err)
	}
	return nil
}

func (b *Bot) roleIDByName(guildID, roleName string) (string, error) {
	roles, err := b.session.GuildRoles(guildID)
	if err != nil {
		return "", fmt.Errorf("failed to list guild roles: %w", err)
	}
	for _, role := range roles {
		if role.Name == roleName {
			return role.ID, nil
		}
	}
	return "", fmt.Errorf("role %q not found in guild %s", roleName, guildID)
}
