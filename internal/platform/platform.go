// Package platform defines the boundary between the room orchestrator and the
// chat platform it drives. The platform's live channel graph is the only state
// the orchestrator relies on; every decision re-queries it through this
// interface.
package platform

import (
	"context"

	"github.com/eldtechnologies/makeroom/internal/models"
)

// Operation names carried by *Error.
const (
	OpGuild          = "guild"
	OpChannels       = "channels"
	OpChannel        = "channel"
	OpVoiceMembers   = "voice_members"
	OpCreateCategory = "create_category"
	OpCreateVoice    = "create_voice_channel"
	OpDeleteChannel  = "delete_channel"
	OpSetPermissions = "set_permission_overwrite"
	OpMoveMember     = "move_member"
	OpSendMessage    = "send_message"
	OpReplyEphemeral = "reply_ephemeral"
	OpDeferReply     = "defer_reply"
	OpEditReply      = "edit_reply"
)

// Platform is the set of imperative operations the orchestrator needs.
// Every call is a suspension point and may fail; failures are returned as
// *Error so callers can classify them with IsForbidden and IsNotFound.
type Platform interface {
	// Guild returns the guild with the given ID.
	Guild(ctx context.Context, guildID string) (*models.Guild, error)
	// Channels returns every channel of a guild, categories included.
	Channels(ctx context.Context, guildID string) ([]models.Channel, error)
	// Channel returns a single channel.
	Channel(ctx context.Context, channelID string) (*models.Channel, error)
	// VoiceMemberCount returns how many members are connected to a voice channel.
	VoiceMemberCount(ctx context.Context, guildID, channelID string) (int, error)

	CreateCategory(ctx context.Context, guildID, name string) (*models.Channel, error)
	CreateVoiceChannel(ctx context.Context, guildID, name, parentID string) (*models.Channel, error)
	// DeleteChannel deletes a channel or a category.
	DeleteChannel(ctx context.Context, channelID string) error
	// SetPermissionOverwrite replaces the overwrite for ow.TargetID on a channel.
	SetPermissionOverwrite(ctx context.Context, channelID string, ow models.Overwrite) error
	MoveMember(ctx context.Context, guildID, memberID, channelID string) error

	SendMessage(ctx context.Context, channelID string, msg models.Message) error
	// ReplyEphemeral answers an interaction with a message only the invoker sees.
	ReplyEphemeral(ctx context.Context, interaction models.ComponentInteraction, msg models.Message) error
	// DeferReply acknowledges an interaction with a pending ephemeral reply.
	// Slow handlers call it first and answer later with EditReply.
	DeferReply(ctx context.Context, interaction models.ComponentInteraction) error
	// EditReply fills in the pending reply of a deferred interaction.
	EditReply(ctx context.Context, interaction models.ComponentInteraction, msg models.Message) error
}
