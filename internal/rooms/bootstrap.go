package rooms

import (
	"context"

	"github.com/eldtechnologies/makeroom/internal/metrics"
	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform"
)

// EnsureManagedCategory replaces any managed category of the invoker's guild
// with a fresh one holding a single trigger channel. It always sends exactly
// one reply, deferred up front since clearing a category takes one delete per
// channel. A forbidden step aborts the sequence; the next invocation starts
// over from whatever was left.
func (o *Orchestrator) EnsureManagedCategory(ctx context.Context, in models.ComponentInteraction) {
	log := o.logger.With().Str("guild_id", in.GuildID).Str("member_id", in.Invoker.ID).Logger()

	o.deferReply(ctx, &in)

	removed, err := o.clearManagedCategories(ctx, in.GuildID)
	if err != nil {
		o.replyBootstrapError(ctx, in, err, msgNoPermDelete)
		return
	}
	recreated := removed > 0

	category, err := o.platform.CreateCategory(ctx, in.GuildID, o.conv.CategoryName)
	if err != nil {
		o.replyBootstrapError(ctx, in, err, msgNoPermCategory)
		return
	}

	trigger, err := o.platform.CreateVoiceChannel(ctx, in.GuildID, o.conv.TriggerName, category.ID)
	if err != nil {
		o.replyBootstrapError(ctx, in, err, msgNoPermVoice)
		return
	}

	// The trigger is for joining only.
	err = o.platform.SetPermissionOverwrite(ctx, trigger.ID, models.Overwrite{
		TargetID:   models.DefaultScopeID(in.GuildID),
		TargetType: models.OverwriteRole,
		Deny:       models.PermSendMessages,
	})
	if err != nil {
		o.replyBootstrapError(ctx, in, err, msgNoPermVoice)
		return
	}

	kind, result := models.EventCategoryCreated, "created"
	if recreated {
		kind, result = models.EventCategoryRecreated, "recreated"
	}
	metrics.Bootstraps.WithLabelValues(result).Inc()
	o.record(ctx, kind, in.GuildID, category.ID, in.Invoker.ID, "")

	log.Info().
		Str("category_id", category.ID).
		Str("trigger_id", trigger.ID).
		Bool("recreated", recreated).
		Msg("managed category ready")

	o.reply(ctx, in, categoryReadyMessage(o.conv.CategoryName, recreated))
}

// RemoveManagedCategory deletes the managed category and everything in it.
func (o *Orchestrator) RemoveManagedCategory(ctx context.Context, in models.ComponentInteraction) {
	o.deferReply(ctx, &in)

	removed, err := o.clearManagedCategories(ctx, in.GuildID)
	if err != nil {
		o.replyBootstrapError(ctx, in, err, msgNoPermDelete)
		return
	}

	if removed == 0 {
		metrics.Bootstraps.WithLabelValues("absent").Inc()
		o.reply(ctx, in, categoryMissingMessage(o.conv.CategoryName))
		return
	}

	metrics.Bootstraps.WithLabelValues("removed").Inc()
	o.record(ctx, models.EventCategoryRemoved, in.GuildID, "", in.Invoker.ID, "")
	o.logger.Info().Str("guild_id", in.GuildID).Int("categories", removed).Msg("managed category removed")
	o.reply(ctx, in, categoryRemovedMessage(o.conv.CategoryName))
}

// clearManagedCategories deletes every managed category of a guild together
// with its channels and returns how many categories it found. Channels that
// vanished in the meantime are skipped.
func (o *Orchestrator) clearManagedCategories(ctx context.Context, guildID string) (int, error) {
	channels, err := o.platform.Channels(ctx, guildID)
	if err != nil {
		return 0, err
	}

	categories := o.managedCategories(channels)
	for _, category := range categories {
		for _, ch := range channels {
			if ch.ParentID != category.ID {
				continue
			}
			if err := o.deleteIgnoringMissing(ctx, ch.ID); err != nil {
				return 0, err
			}
			if err := o.owners.Unbind(ctx, ch.ID); err != nil {
				o.logger.Warn().Err(err).Str("channel_id", ch.ID).Msg("owner unbind failed")
			}
		}
		if err := o.deleteIgnoringMissing(ctx, category.ID); err != nil {
			return 0, err
		}
	}
	return len(categories), nil
}

func (o *Orchestrator) deleteIgnoringMissing(ctx context.Context, channelID string) error {
	err := o.platform.DeleteChannel(ctx, channelID)
	if err != nil && platform.IsNotFound(err) {
		return nil
	}
	return err
}

// replyBootstrapError reports a failed bootstrap step to the invoker.
func (o *Orchestrator) replyBootstrapError(ctx context.Context, in models.ComponentInteraction, err error, forbiddenText string) {
	o.platformError(err).Str("guild_id", in.GuildID).Msg("category bootstrap failed")

	if platform.IsForbidden(err) {
		metrics.Bootstraps.WithLabelValues("forbidden").Inc()
		o.reply(ctx, in, models.Text(forbiddenText))
		return
	}
	metrics.Bootstraps.WithLabelValues("failed").Inc()
	o.reply(ctx, in, models.Text(msgFailed))
}

// SendGreeting posts the setup controls to the guild's moderator channel,
// falling back to its system channel.
func (o *Orchestrator) SendGreeting(ctx context.Context, guildID string) {
	log := o.logger.With().Str("guild_id", guildID).Logger()

	guild, err := o.platform.Guild(ctx, guildID)
	if err != nil {
		o.platformError(err).Str("guild_id", guildID).Msg("guild lookup failed")
		return
	}

	channels, err := o.platform.Channels(ctx, guildID)
	if err != nil {
		o.platformError(err).Str("guild_id", guildID).Msg("channel listing failed")
		return
	}

	target := guild.SystemChannelID
	for _, ch := range channels {
		if ch.Type == models.ChannelText && ch.Name == o.conv.ModChannelName {
			target = ch.ID
			break
		}
	}
	if target == "" {
		log.Warn().Msg("no moderator or system channel to greet in")
		return
	}

	if err := o.platform.SendMessage(ctx, target, greetingMessage()); err != nil {
		o.platformError(err).Str("guild_id", guildID).Str("channel_id", target).Msg("greeting failed")
		return
	}

	o.record(ctx, models.EventGreetingSent, guildID, target, "", guild.Name)
	log.Info().Str("guild", guild.Name).Str("channel_id", target).Msg("joined guild, greeting sent")
}
