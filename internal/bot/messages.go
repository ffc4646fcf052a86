package bot

import (
	"github.com/bwmarrin/discordgo"
)

// onMessageCreate scans guild messages for trigger phrases. Failures
// never surface to the channel; a chat bot that errors on every
// message is worse than one that silently misses a trigger.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID == "" {
		return
	}

	guildSettings, err := b.settingsService.Get(m.GuildID)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", m.GuildID).Msg("Failed to load guild settings")
		return
	}
	// Triggers only fire in the configured channel.
	if guildSettings.ChannelID == "" || m.ChannelID != guildSettings.ChannelID {
		return
	}

	rule, err := b.triggerService.Match(m.GuildID, m.Content)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", m.GuildID).Msg("Trigger matching failed")
		return
	}
	if rule == nil {
		return
	}

	result, err := b.economyService.ApplyTrigger(m.GuildID, m.Author.ID, rule)
	if err != nil {
		b.log.Error().
			Err(err).
			Str("guild_id", m.GuildID).
			Str("user_id", m.Author.ID).
			Str("phrase", rule.Phrase).
			Msg("Failed to apply trigger")
		return
	}

	b.log.Debug().
		Str("guild_id", m.GuildID).
		Str("user_id", m.Author.ID).
		Str("phrase", rule.Phrase).
		Int64("old_balance", result.OldBalance).
		Int64("new_balance", result.NewBalance).
		Msg("Trigger applied")

	b.afterBalanceIncrease(s, m.GuildID, m.Author.ID, result.OldBalance, result.NewBalance)
}
