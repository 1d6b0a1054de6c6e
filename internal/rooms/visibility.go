package rooms

import (
	"context"

	"github.com/eldtechnologies/makeroom/internal/metrics"
	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform"
)

// OnToggleInvoked flips a personal room between public and private. Only
// the member bound as the room's creator may do so; everyone else gets an
// ephemeral denial and the room is left untouched.
//
// The current state is read from the room's overwrites: the room is private
// when the guild's default role is denied view access.
func (o *Orchestrator) OnToggleInvoked(ctx context.Context, in models.ComponentInteraction) {
	log := o.logger.With().
		Str("guild_id", in.GuildID).
		Str("room_id", in.ChannelID).
		Str("member_id", in.Invoker.ID).
		Logger()

	owner, err := o.owners.Owner(ctx, in.ChannelID)
	if err != nil {
		metrics.VisibilityToggles.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("owner lookup failed")
		o.reply(ctx, in, models.Text(msgFailed))
		return
	}
	if owner == nil || owner.CreatorID != in.Invoker.ID {
		metrics.VisibilityToggles.WithLabelValues("denied").Inc()
		o.reply(ctx, in, deniedMessage("You can only manage the room you created."))
		return
	}

	room, err := o.platform.Channel(ctx, in.ChannelID)
	if err != nil {
		metrics.VisibilityToggles.WithLabelValues("failed").Inc()
		o.platformError(err).Str("room_id", in.ChannelID).Msg("room lookup failed")
		o.reply(ctx, in, models.Text(msgFailed))
		return
	}
	if !room.IsVoice() {
		metrics.VisibilityToggles.WithLabelValues("rejected").Inc()
		o.reply(ctx, in, models.Text(msgVoiceOnly))
		return
	}

	scope := models.DefaultScopeID(in.GuildID)
	if isPrivate(room, scope) {
		err = o.makePublic(ctx, room, scope)
	} else {
		err = o.makePrivate(ctx, room, scope, owner.CreatorID)
	}
	if err != nil {
		metrics.VisibilityToggles.WithLabelValues("failed").Inc()
		o.platformError(err).Str("room_id", room.ID).Msg("visibility change failed")
		if platform.IsForbidden(err) {
			o.reply(ctx, in, models.Text(msgNoPermOverwrites))
			return
		}
		o.reply(ctx, in, models.Text(msgFailed))
		return
	}

	if isPrivate(room, scope) {
		metrics.VisibilityToggles.WithLabelValues("private").Inc()
		o.record(ctx, models.EventRoomPrivate, in.GuildID, room.ID, in.Invoker.ID, "")
		log.Info().Msg("room is now private")
		o.reply(ctx, in, privateMessage())
		return
	}
	metrics.VisibilityToggles.WithLabelValues("public").Inc()
	o.record(ctx, models.EventRoomPublic, in.GuildID, room.ID, in.Invoker.ID, "")
	log.Info().Msg("room is now public")
	o.reply(ctx, in, publicMessage())
}

func isPrivate(room *models.Channel, scope string) bool {
	ow, ok := room.Overwrite(scope)
	return ok && ow.Deny.Has(models.PermViewChannel)
}

// makePrivate grants the creator view access before revoking it from the
// default role, so a failure between the two calls cannot lock them out.
// room's overwrites are updated to match.
func (o *Orchestrator) makePrivate(ctx context.Context, room *models.Channel, scope, creatorID string) error {
	creator := withView(room, creatorID, models.OverwriteMember, true)
	if err := o.platform.SetPermissionOverwrite(ctx, room.ID, creator); err != nil {
		return err
	}
	setOverwrite(room, creator)

	everyone := withView(room, scope, models.OverwriteRole, false)
	if err := o.platform.SetPermissionOverwrite(ctx, room.ID, everyone); err != nil {
		return err
	}
	setOverwrite(room, everyone)
	return nil
}

func (o *Orchestrator) makePublic(ctx context.Context, room *models.Channel, scope string) error {
	everyone := withView(room, scope, models.OverwriteRole, true)
	if err := o.platform.SetPermissionOverwrite(ctx, room.ID, everyone); err != nil {
		return err
	}
	setOverwrite(room, everyone)
	return nil
}

// withView returns the target's current overwrite with only the view bit changed.
func withView(room *models.Channel, targetID string, typ models.OverwriteTarget, allow bool) models.Overwrite {
	ow, ok := room.Overwrite(targetID)
	if !ok {
		ow = models.Overwrite{TargetID: targetID, TargetType: typ}
	}
	if allow {
		ow.Allow |= models.PermViewChannel
		ow.Deny &^= models.PermViewChannel
	} else {
		ow.Deny |= models.PermViewChannel
		ow.Allow &^= models.PermViewChannel
	}
	return ow
}

func setOverwrite(room *models.Channel, ow models.Overwrite) {
	for i := range room.Overwrites {
		if room.Overwrites[i].TargetID == ow.TargetID {
			room.Overwrites[i] = ow
			return
		}
	}
	room.Overwrites = append(room.Overwrites, ow)
}
