package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/pointsbot/pointsbot/internal/models"
	"github.com/pointsbot/pointsbot/internal/service/economy"
	"github.com/pointsbot/pointsbot/internal/service/settings"
)

// commandDefinitions lists every slash command the bot registers.
func commandDefinitions() []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)

	return []*discordgo.ApplicationCommand{
		{
			Name:        "points",
			Description: "Show a member's point balance",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to look up, defaults to you",
					Required:    false,
				},
			},
		},
		{
			Name:        "daily",
			Description: "Claim your daily points",
		},
		{
			Name:        "gamble",
			Description: "Wager points on a coin flip",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "wager",
					Description: "Points to stake",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "color",
					Description: "Color to bet on, defaults to red",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "red", Value: economy.ColorRed},
						{Name: "black", Value: economy.ColorBlack},
					},
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the top balances in this server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "limit",
					Description: "Number of entries to show",
					Required:    false,
				},
			},
		},
		{
			Name:                     "addmessage",
			Description:              "Add a trigger phrase that awards or removes points",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "phrase",
					Description: "Phrase to watch for",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "points",
					Description: "Points to apply",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "category",
					Description: "Whether the phrase adds or removes points",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "add", Value: models.TriggerAdd},
						{Name: "remove", Value: models.TriggerRemove},
					},
				},
			},
		},
		{
			Name:                     "removemessage",
			Description:              "Remove a trigger phrase",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "phrase",
					Description: "Exact phrase to remove",
					Required:    true,
				},
			},
		},
		{
			Name:                     "listmessages",
			Description:              "List the configured trigger phrases",
			DefaultMemberPermissions: &adminOnly,
		},
		{
			Name:                     "setchannel",
			Description:              "Set the channel the bot operates in",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Channel to activate the bot in",
					Required:    true,
				},
			},
		},
		{
			Name:                     "setconfig",
			Description:              "Change a server economy setting",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "key",
					Description: "Setting to change",
					Required:    true,
					Choices:     configKeyChoices(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "New value",
					Required:    true,
				},
			},
		},
		{
			Name:                     "currentconfig",
			Description:              "Show the server's economy settings",
			DefaultMemberPermissions: &adminOnly,
		},
		{
			Name:                     "reset",
			Description:              "Reset a member's balance to zero",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to reset",
					Required:    true,
				},
			},
		},
		{
			Name:                     "addmilestone",
			Description:              "Grant a role when a balance reaches a threshold",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "threshold",
					Description: "Balance that unlocks the role",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Role to grant",
					Required:    true,
				},
			},
		},
		{
			Name:                     "removemilestone",
			Description:              "Remove the milestone at a threshold",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "threshold",
					Description: "Threshold to remove",
					Required:    true,
				},
			},
		},
	}
}

func configKeyChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(settings.Keys))
	for _, key := range settings.Keys {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: key, Value: key})
	}
	return choices
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	if i.GuildID == "" {
		b.respondEphemeral(s, i, "This bot only works inside a server.")
		return
	}

	name := i.ApplicationCommandData().Name
	b.log.Debug().
		Str("command", name).
		Str("guild_id", i.GuildID).
		Str("user_id", interactionUserID(i)).
		Msg("Handling slash command")

	switch name {
	case "points":
		b.handlePoints(s, i)
	case "daily":
		b.handleDaily(s, i)
	case "gamble":
		b.handleGamble(s, i)
	case "leaderboard":
		b.handleLeaderboard(s, i)
	case "addmessage":
		b.handleAddMessage(s, i)
	case "removemessage":
		b.handleRemoveMessage(s, i)
	case "listmessages":
		b.handleListMessages(s, i)
	case "setchannel":
		b.handleSetChannel(s, i)
	case "setconfig":
		b.handleSetConfig(s, i)
	case "currentconfig":
		b.handleCurrentConfig(s, i)
	case "reset":
		b.handleReset(s, i)
	case "addmilestone":
		b.handleAddMilestone(s, i)
	case "removemilestone":
		b.handleRemoveMilestone(s, i)
	default:
		b.respondEphemeral(s, i, "Unknown command.")
	}
}

// checkChannel enforces the guild's active channel for player-facing
// commands. Returns false when the command must not proceed; the user
// is told why unless the guild muted wrong-channel responses.
func (b *Bot) checkChannel(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	guildSettings, err := b.settingsService.Get(i.GuildID)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to load guild settings")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return false
	}

	if guildSettings.ChannelID == "" {
		b.respondEphemeral(s, i, "The bot is not set up yet. An admin needs to run /setchannel first.")
		return false
	}
	if i.ChannelID != guildSettings.ChannelID {
		if guildSettings.RespondWrongChannel {
			b.respondEphemeral(s, i, fmt.Sprintf("Please use <#%s> for point commands.", guildSettings.ChannelID))
		} else {
			b.acknowledgeSilently(s, i)
		}
		return false
	}
	return true
}

// acknowledgeSilently closes an interaction without posting anything.
// Discord requires a response, so we defer ephemerally and delete it.
func (b *Bot) acknowledgeSilently(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("Failed to acknowledge interaction")
		return
	}
	if err := s.InteractionResponseDelete(i.Interaction); err != nil {
		b.log.Warn().Err(err).Msg("Failed to delete deferred response")
	}
}

func (b *Bot) handlePoints(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.checkChannel(s, i) {
		return
	}

	userID := interactionUserID(i)
	display := "You have"
	if opt := findOption(i, "member"); opt != nil {
		target := opt.UserValue(s)
		userID = target.ID
		display = fmt.Sprintf("<@%s> has", target.ID)
	}

	balance, err := b.economyService.Balance(i.GuildID, userID)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Str("user_id", userID).Msg("Failed to read balance")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}
	b.respond(s, i, fmt.Sprintf("%s **%d** points.", display, balance))
}

func (b *Bot) handleDaily(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.checkChannel(s, i) {
		return
	}

	userID := interactionUserID(i)
	result, err := b.economyService.Daily(context.Background(), i.GuildID, userID)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Str("user_id", userID).Msg("Daily claim failed")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}

	if !result.Granted {
		b.respondEphemeral(s, i, fmt.Sprintf(
			"You already claimed today. Try again in %s.", formatDuration(result.Remaining)))
		return
	}

	b.respond(s, i, fmt.Sprintf(
		"Daily claimed! You received **%d** points and now have **%d**.",
		result.Amount, result.NewBalance))
	b.afterBalanceIncrease(s, i.GuildID, userID, result.OldBalance, result.NewBalance)
}

func (b *Bot) handleGamble(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.checkChannel(s, i) {
		return
	}

	userID := interactionUserID(i)
	wager := findOption(i, "wager").IntValue()
	choice := ""
	if opt := findOption(i, "color"); opt != nil {
		choice = opt.StringValue()
	}

	result, err := b.economyService.Gamble(i.GuildID, userID, wager, choice)
	if err != nil {
		switch {
		case errors.Is(err, economy.ErrInvalidWager):
			b.respondEphemeral(s, i, "The wager must be a positive number of points.")
		case errors.Is(err, economy.ErrInvalidColor):
			b.respondEphemeral(s, i, "You can only bet on red or black.")
		case errors.Is(err, economy.ErrInsufficientBalance):
			b.respondEphemeral(s, i, "You don't have enough points for that wager.")
		default:
			b.log.Error().Err(err).Str("guild_id", i.GuildID).Str("user_id", userID).Msg("Gamble failed")
			b.respondEphemeral(s, i, "Something went wrong, try again later.")
		}
		return
	}

	if result.Won {
		b.respond(s, i, fmt.Sprintf(
			"The wheel landed on **%s**. You won **%d** points! New balance: **%d**.",
			result.Color, result.Delta, result.NewBalance))
		b.afterBalanceIncrease(s, i.GuildID, userID, result.OldBalance, result.NewBalance)
	} else {
		b.respond(s, i, fmt.Sprintf(
			"The wheel landed on **%s**. You lost **%d** points. New balance: **%d**.",
			result.Color, result.Wager, result.NewBalance))
	}
}

func (b *Bot) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.checkChannel(s, i) {
		return
	}

	limit := 0
	if opt := findOption(i, "limit"); opt != nil {
		limit = int(opt.IntValue())
	}

	entries, err := b.leaderboardService.Top(i.GuildID, limit)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to build leaderboard")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}
	if len(entries) == 0 {
		b.respond(s, i, "Nobody has any points yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("**Leaderboard**\n")
	for _, entry := range entries {
		fmt.Fprintf(&sb, "%d. <@%s> — %d points\n", entry.Rank, entry.UserID, entry.Balance)
	}
	b.respond(s, i, sb.String())
}

func (b *Bot) handleAddMessage(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	phrase := data.Options[0].StringValue()
	points := data.Options[1].IntValue()
	category := data.Options[2].StringValue()

	if err := b.triggerService.AddRule(i.GuildID, phrase, points, category); err != nil {
		b.respondEphemeral(s, i, fmt.Sprintf("Could not add trigger: %v", err))
		return
	}
	b.respond(s, i, fmt.Sprintf("Trigger added: %q will %s %d points.", phrase, category, points))
}

func (b *Bot) handleRemoveMessage(s *discordgo.Session, i *discordgo.InteractionCreate) {
	phrase := i.ApplicationCommandData().Options[0].StringValue()

	removed, err := b.triggerService.RemoveRule(i.GuildID, phrase)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to remove trigger")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}
	if !removed {
		b.respondEphemeral(s, i, fmt.Sprintf("No trigger matches %q.", phrase))
		return
	}
	b.respond(s, i, fmt.Sprintf("Trigger %q removed.", phrase))
}

func (b *Bot) handleListMessages(s *discordgo.Session, i *discordgo.InteractionCreate) {
	rules, err := b.triggerService.List(i.GuildID)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to list triggers")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}
	if len(rules) == 0 {
		b.respondEphemeral(s, i, "No triggers configured.")
		return
	}

	var sb strings.Builder
	sb.WriteString("**Triggers** (checked in order)\n")
	for n, rule := range rules {
		fmt.Fprintf(&sb, "%d. %q → %s %d points\n", n+1, rule.Phrase, rule.Category, rule.Points)
	}
	b.respondEphemeral(s, i, sb.String())
}

func (b *Bot) handleSetChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channel := i.ApplicationCommandData().Options[0].ChannelValue(s)

	if err := b.settingsService.SetChannel(i.GuildID, channel.ID); err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to set channel")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}
	b.respond(s, i, fmt.Sprintf("The bot is now active in <#%s>.", channel.ID))
}

func (b *Bot) handleSetConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	key := data.Options[0].StringValue()
	value := data.Options[1].StringValue()

	if err := b.settingsService.SetKey(i.GuildID, key, value); err != nil {
		if errors.Is(err, settings.ErrUnknownConfigKey) || errors.Is(err, settings.ErrInvalidValue) {
			b.respondEphemeral(s, i, fmt.Sprintf("Could not update config: %v", err))
			return
		}
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to set config")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}
	b.respond(s, i, fmt.Sprintf("%s set to %s.", key, value))
}

func (b *Bot) handleCurrentConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildSettings, err := b.settingsService.Get(i.GuildID)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to load guild settings")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}

	channel := "not set"
	if guildSettings.ChannelID != "" {
		channel = fmt.Sprintf("<#%s>", guildSettings.ChannelID)
	}

	b.respondEphemeral(s, i, fmt.Sprintf(
		"**Current configuration**\n"+
			"Channel: %s\n"+
			"%s: %d\n%s: %d\n%s: %d\n%s: %d\n%s: %d\n%s: %t",
		channel,
		settings.KeyDailyReward, guildSettings.DailyReward,
		settings.KeyDailyCooldownHours, guildSettings.DailyCooldownHours,
		settings.KeyGambleWinChance, guildSettings.GambleWinChance,
		settings.KeyGambleMultiplier, guildSettings.GambleMultiplier,
		settings.KeyLeaderboardTop, guildSettings.LeaderboardTop,
		settings.KeyRespondWrongChannel, guildSettings.RespondWrongChannel))
}

func (b *Bot) handleReset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := i.ApplicationCommandData().Options[0].UserValue(s)

	if _, err := b.economyService.Reset(i.GuildID, target.ID); err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Str("user_id", target.ID).Msg("Failed to reset balance")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}
	b.respond(s, i, fmt.Sprintf("<@%s>'s balance has been reset to 0.", target.ID))
}

func (b *Bot) handleAddMilestone(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	threshold := data.Options[0].IntValue()
	role := data.Options[1].RoleValue(s, i.GuildID)

	if err := b.milestoneService.Add(i.GuildID, threshold, role.Name); err != nil {
		b.respondEphemeral(s, i, fmt.Sprintf("Could not add milestone: %v", err))
		return
	}
	b.respond(s, i, fmt.Sprintf("Members reaching **%d** points will now receive the %s role.", threshold, role.Name))
}

func (b *Bot) handleRemoveMilestone(s *discordgo.Session, i *discordgo.InteractionCreate) {
	threshold := i.ApplicationCommandData().Options[0].IntValue()

	removed, err := b.milestoneService.Remove(i.GuildID, threshold)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to remove milestone")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}
	if !removed {
		b.respondEphemeral(s, i, fmt.Sprintf("No milestone at %d points.", threshold))
		return
	}
	b.respond(s, i, fmt.Sprintf("Milestone at **%d** points removed.", threshold))
}

// afterBalanceIncrease evaluates milestone unlocks following a balance
// gain and grants any earned roles. Grant failures are logged and left
// for the sweep job to repair.
func (b *Bot) afterBalanceIncrease(s *discordgo.Session, guildID, userID string, oldBalance, newBalance int64) {
	unlocked, err := b.milestoneService.Evaluate(guildID, oldBalance, newBalance)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", guildID).Msg("Milestone evaluation failed")
		return
	}
	for _, m := range unlocked {
		if err := b.GrantRole(context.Background(), guildID, userID, m.RoleName); err != nil {
			b.log.Warn().
				Err(err).
				Str("guild_id", guildID).
				Str("user_id", userID).
				Str("role", m.RoleName).
				Msg("Failed to grant milestone role")
		}
	}
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("Failed to respond to interaction")
	}
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("Failed to respond to interaction")
	}
}

// interactionUserID works for both guild and DM interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func findOption(i *discordgo.InteractionCreate, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
