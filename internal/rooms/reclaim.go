package rooms

import (
	"context"

	"github.com/eldtechnologies/makeroom/internal/metrics"
	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform"
)

// OnLeave deletes the channel a member just left if it is a personal room
// with nobody left in it. There is no grace period: a member who reconnects
// right away gets a fresh room.
func (o *Orchestrator) OnLeave(ctx context.Context, channelID string) {
	ch, err := o.platform.Channel(ctx, channelID)
	if err != nil {
		// Usually deleted by hand or by an earlier event.
		o.platformError(err).Str("channel_id", channelID).Msg("lookup of left channel failed")
		return
	}
	if !ch.IsVoice() || !o.conv.IsRoomName(ch.Name) {
		return
	}

	n, err := o.platform.VoiceMemberCount(ctx, ch.GuildID, ch.ID)
	if err != nil {
		o.platformError(err).Str("room_id", ch.ID).Msg("member count failed")
		return
	}
	if n > 0 {
		return
	}

	if err := o.platform.DeleteChannel(ctx, ch.ID); err != nil {
		if !platform.IsNotFound(err) {
			o.platformError(err).Str("room_id", ch.ID).Msg("room deletion failed")
			return
		}
		o.logger.Debug().Str("room_id", ch.ID).Msg("room already deleted")
	} else {
		metrics.RoomsReclaimed.Inc()
		o.record(ctx, models.EventRoomReclaimed, ch.GuildID, ch.ID, "", ch.Name)
		o.logger.Info().Str("guild_id", ch.GuildID).Str("room_id", ch.ID).Msg("empty room reclaimed")
	}

	if err := o.owners.Unbind(ctx, ch.ID); err != nil {
		o.logger.Warn().Err(err).Str("room_id", ch.ID).Msg("owner unbind failed")
	}
}
