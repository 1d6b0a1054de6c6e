package rooms

import (
	"context"
	"time"

	"github.com/eldtechnologies/makeroom/internal/metrics"
	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform"
)

// provisionKey identifies the (guild, member) pair provisioning is serialized on.
func provisionKey(guildID, memberID string) string {
	return "provision:" + guildID + ":" + memberID
}

// OnEnterTrigger moves a member who entered the trigger channel into their
// personal room, creating it first if it does not exist, and returns the ID
// of the room the member ended up in. It returns "" when the member was not
// moved. There is no one to reply to, so failures only reach the logs.
func (o *Orchestrator) OnEnterTrigger(ctx context.Context, member models.Member, trigger *models.Channel) string {
	log := o.logger.With().
		Str("guild_id", trigger.GuildID).
		Str("member_id", member.ID).
		Logger()

	// Without the lock two quick entries could both miss the lookup and
	// create two rooms with the same name.
	lockCtx, cancel := context.WithTimeout(ctx, o.lockWait)
	unlock, err := o.locker.Lock(lockCtx, provisionKey(trigger.GuildID, member.ID))
	cancel()
	if err != nil {
		metrics.RoomsProvisioned.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Msg("provisioning lock unavailable")
		return ""
	}
	defer unlock()

	name := o.conv.RoomName(member.Name)

	room, err := o.FindRoomByNameInCategory(ctx, trigger.GuildID, trigger.ParentID, name)
	if err != nil {
		metrics.RoomsProvisioned.WithLabelValues("failed").Inc()
		o.platformError(err).Str("guild_id", trigger.GuildID).Msg("room lookup failed")
		return ""
	}

	if room != nil {
		return o.reuseRoom(ctx, member, room)
	}

	room, err = o.platform.CreateVoiceChannel(ctx, trigger.GuildID, name, trigger.ParentID)
	if err != nil {
		metrics.RoomsProvisioned.WithLabelValues("failed").Inc()
		if platform.IsForbidden(err) {
			o.platformError(err).Str("guild_id", trigger.GuildID).Msg("no permission to create voice channels")
			return ""
		}
		o.platformError(err).Str("guild_id", trigger.GuildID).Msg("room creation failed")
		return ""
	}

	o.bindOwner(ctx, member, room)

	if err := o.platform.MoveMember(ctx, trigger.GuildID, member.ID, room.ID); err != nil {
		// Nobody will ever leave the new room, so reclaim it now.
		metrics.RoomsProvisioned.WithLabelValues("failed").Inc()
		o.platformError(err).Str("room_id", room.ID).Msg("move into new room failed")
		o.discardRoom(ctx, room.ID)
		return ""
	}

	if err := o.platform.SendMessage(ctx, room.ID, roomControlMessage()); err != nil {
		o.platformError(err).Str("room_id", room.ID).Msg("room control message failed")
	}

	metrics.RoomsProvisioned.WithLabelValues("created").Inc()
	o.record(ctx, models.EventRoomCreated, trigger.GuildID, room.ID, member.ID, name)
	log.Info().Str("room_id", room.ID).Str("room", name).Msg("room created")
	return room.ID
}

// reuseRoom moves a member back into their existing room.
func (o *Orchestrator) reuseRoom(ctx context.Context, member models.Member, room *models.Channel) string {
	if err := o.platform.MoveMember(ctx, room.GuildID, member.ID, room.ID); err != nil {
		metrics.RoomsProvisioned.WithLabelValues("failed").Inc()
		o.platformError(err).Str("room_id", room.ID).Msg("move into existing room failed")
		return ""
	}

	// A restart with in-process bindings forgets owners; the room's name
	// still says whose it is.
	owner, err := o.owners.Owner(ctx, room.ID)
	if err != nil {
		o.logger.Warn().Err(err).Str("room_id", room.ID).Msg("owner lookup failed")
	} else if owner == nil {
		o.bindOwner(ctx, member, room)
	}

	metrics.RoomsProvisioned.WithLabelValues("reused").Inc()
	o.record(ctx, models.EventRoomReused, room.GuildID, room.ID, member.ID, room.Name)
	o.logger.Info().
		Str("guild_id", room.GuildID).
		Str("member_id", member.ID).
		Str("room_id", room.ID).
		Msg("room reused")
	return room.ID
}

func (o *Orchestrator) bindOwner(ctx context.Context, member models.Member, room *models.Channel) {
	err := o.owners.Bind(ctx, models.RoomOwner{
		RoomID:    room.ID,
		GuildID:   room.GuildID,
		CreatorID: member.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		o.logger.Error().Err(err).Str("room_id", room.ID).Msg("owner bind failed")
	}
}

// discardRoom deletes a room that was never handed to its creator.
func (o *Orchestrator) discardRoom(ctx context.Context, roomID string) {
	if err := o.deleteIgnoringMissing(ctx, roomID); err != nil {
		o.platformError(err).Str("room_id", roomID).Msg("discarding room failed")
	}
	if err := o.owners.Unbind(ctx, roomID); err != nil {
		o.logger.Warn().Err(err).Str("room_id", roomID).Msg("owner unbind failed")
	}
}
