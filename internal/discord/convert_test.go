package discord

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform"
)

func restError(status, code int) *discordgo.RESTError {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want platform.Kind
	}{
		{"missing permissions", restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions), platform.KindForbidden},
		{"missing access", restError(http.StatusForbidden, discordgo.ErrCodeMissingAccess), platform.KindForbidden},
		{"bare 403", restError(http.StatusForbidden, 0), platform.KindForbidden},
		{"unknown channel", restError(http.StatusNotFound, discordgo.ErrCodeUnknownChannel), platform.KindNotFound},
		{"unknown guild", restError(http.StatusNotFound, discordgo.ErrCodeUnknownGuild), platform.KindNotFound},
		{"unknown member", restError(http.StatusNotFound, discordgo.ErrCodeUnknownMember), platform.KindNotFound},
		{"bare 404", restError(http.StatusNotFound, 0), platform.KindNotFound},
		{"state miss", discordgo.ErrStateNotFound, platform.KindNotFound},
		{"server error", restError(http.StatusInternalServerError, 0), platform.KindUnknown},
		{"transport", errors.New("connection reset"), platform.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(platform.OpDeleteChannel, tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.want, platform.KindOf(err))
			assert.Equal(t, platform.OpDeleteChannel, platform.OpOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, classify(platform.OpChannel, nil))
}

func TestToChannel(t *testing.T) {
	ch := toChannel(&discordgo.Channel{
		ID:       "c1",
		GuildID:  "g1",
		ParentID: "cat",
		Name:     "🏠 Alice's Room",
		Type:     discordgo.ChannelTypeGuildVoice,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{ID: "g1", Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
			{ID: "u1", Type: discordgo.PermissionOverwriteTypeMember, Allow: discordgo.PermissionViewChannel},
		},
	})

	assert.Equal(t, "c1", ch.ID)
	assert.Equal(t, "cat", ch.ParentID)
	assert.True(t, ch.IsVoice())
	require.Len(t, ch.Overwrites, 2)

	everyone, ok := ch.Overwrite("g1")
	require.True(t, ok)
	assert.Equal(t, models.OverwriteRole, everyone.TargetType)
	assert.True(t, everyone.Deny.Has(models.PermViewChannel))

	member, ok := ch.Overwrite("u1")
	require.True(t, ok)
	assert.Equal(t, models.OverwriteMember, member.TargetType)
	assert.True(t, member.Allow.Has(models.PermViewChannel))
}

func TestChannelType(t *testing.T) {
	assert.Equal(t, models.ChannelText, channelType(discordgo.ChannelTypeGuildText))
	assert.Equal(t, models.ChannelVoice, channelType(discordgo.ChannelTypeGuildVoice))
	assert.Equal(t, models.ChannelCategory, channelType(discordgo.ChannelTypeGuildCategory))
	assert.Equal(t, models.ChannelOther, channelType(discordgo.ChannelTypeGuildStageVoice))
}

func TestPermissionBitsMatch(t *testing.T) {
	assert.Equal(t, int64(discordgo.PermissionAdministrator), int64(models.PermAdministrator))
	assert.Equal(t, int64(discordgo.PermissionManageChannels), int64(models.PermManageChannels))
	assert.Equal(t, int64(discordgo.PermissionViewChannel), int64(models.PermViewChannel))
	assert.Equal(t, int64(discordgo.PermissionSendMessages), int64(models.PermSendMessages))
	assert.Equal(t, int64(discordgo.PermissionVoiceConnect), int64(models.PermConnect))
}

func TestToMessageSend(t *testing.T) {
	send := toMessageSend(models.Message{
		Embed: &models.Embed{Title: "🪄 Room Control", Footer: "footer", Color: models.ColorBlurple},
		Buttons: []models.Button{
			{CustomID: "toggle_visibility", Label: "Toggle Visibility", Style: models.ButtonPrimary},
		},
	})

	require.Len(t, send.Embeds, 1)
	assert.Equal(t, "🪄 Room Control", send.Embeds[0].Title)
	require.NotNil(t, send.Embeds[0].Footer)
	assert.Equal(t, "footer", send.Embeds[0].Footer.Text)
	assert.Nil(t, send.Embeds[0].Author)

	require.Len(t, send.Components, 1)
	row, ok := send.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 1)
	button, ok := row.Components[0].(discordgo.Button)
	require.True(t, ok)
	assert.Equal(t, "toggle_visibility", button.CustomID)
	assert.Equal(t, discordgo.PrimaryButton, button.Style)

	plain := toMessageSend(models.Text("hello"))
	assert.Equal(t, "hello", plain.Content)
	assert.Empty(t, plain.Embeds)
	assert.Empty(t, plain.Components)
}

func TestToEphemeralResponse(t *testing.T) {
	resp := toEphemeralResponse(models.Text("denied"))

	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "denied", resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
}

func TestDeferredEphemeralResponse(t *testing.T) {
	resp := deferredEphemeralResponse()

	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, resp.Type)
	require.NotNil(t, resp.Data)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Empty(t, resp.Data.Content)
}

func TestToWebhookEdit(t *testing.T) {
	edit := toWebhookEdit(models.Message{
		Embed: &models.Embed{Title: "✅ Category Ready", Color: models.ColorGreen},
	})

	require.NotNil(t, edit.Content)
	assert.Empty(t, *edit.Content, "stale placeholder text is cleared")
	require.NotNil(t, edit.Embeds)
	require.Len(t, *edit.Embeds, 1)
	assert.Equal(t, "✅ Category Ready", (*edit.Embeds)[0].Title)
	require.NotNil(t, edit.Components)
	assert.Empty(t, *edit.Components)

	plain := toWebhookEdit(models.Text("done"))
	assert.Equal(t, "done", *plain.Content)
	assert.Empty(t, *plain.Embeds)
}

func TestToInteractionCarriesAppID(t *testing.T) {
	i := toInteraction(models.ComponentInteraction{ID: "i1", AppID: "app", Token: "tok", GuildID: "g1"})

	assert.Equal(t, "app", i.AppID)
	assert.Equal(t, "tok", i.Token)
	assert.Equal(t, discordgo.InteractionMessageComponent, i.Type)
}

func TestToVoiceStateChange(t *testing.T) {
	change := toVoiceStateChange(&discordgo.VoiceStateUpdate{
		VoiceState: &discordgo.VoiceState{
			GuildID:   "g1",
			ChannelID: "trigger",
			UserID:    "u1",
			Member:    &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "alice"}},
		},
		BeforeUpdate: &discordgo.VoiceState{GuildID: "g1", ChannelID: "general", UserID: "u1"},
	})

	assert.Equal(t, "g1", change.GuildID)
	assert.Equal(t, "u1", change.Member.ID)
	assert.Equal(t, "alice", change.Member.Name)
	assert.Equal(t, "general", change.BeforeChannelID)
	assert.Equal(t, "trigger", change.AfterChannelID)

	// First sighting of a member: no previous state, no member object.
	change = toVoiceStateChange(&discordgo.VoiceStateUpdate{
		VoiceState: &discordgo.VoiceState{GuildID: "g1", ChannelID: "trigger", UserID: "u2"},
	})
	assert.Equal(t, "u2", change.Member.ID)
	assert.Empty(t, change.BeforeChannelID)
}

func TestToComponentInteraction(t *testing.T) {
	in, ok := toComponentInteraction(&discordgo.Interaction{
		ID:        "i1",
		AppID:     "app",
		Token:     "tok",
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "g1",
		ChannelID: "room",
		Data:      discordgo.MessageComponentInteractionData{CustomID: "toggle_visibility"},
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "u1", Username: "alice"},
			Permissions: discordgo.PermissionManageChannels,
		},
	})

	require.True(t, ok)
	assert.Equal(t, "i1", in.ID)
	assert.Equal(t, "app", in.AppID)
	assert.Equal(t, "tok", in.Token)
	assert.Equal(t, "room", in.ChannelID)
	assert.Equal(t, "toggle_visibility", in.CustomID)
	assert.Equal(t, "u1", in.Invoker.ID)
	assert.True(t, in.Invoker.Permissions.Has(models.PermManageChannels))
	assert.False(t, in.Deferred)

	_, ok = toComponentInteraction(&discordgo.Interaction{Type: discordgo.InteractionApplicationCommand, GuildID: "g1"})
	assert.False(t, ok, "slash commands are not controls")

	_, ok = toComponentInteraction(&discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: "create_category"},
		User: &discordgo.User{ID: "u1"},
	})
	assert.False(t, ok, "direct messages carry no guild")
}

func TestGuildJoinDetection(t *testing.T) {
	g, err := New("test-token", zerolog.Nop())
	require.NoError(t, err)

	g.ready([]*discordgo.Guild{{ID: "g1", Unavailable: true}, {ID: "g2", Unavailable: true}})

	assert.False(t, g.isJoin(&discordgo.Guild{ID: "g1"}), "initial load")
	assert.False(t, g.isJoin(&discordgo.Guild{ID: "g3", Unavailable: true}), "outage")
	assert.True(t, g.isJoin(&discordgo.Guild{ID: "g3"}))
	assert.True(t, g.isJoin(&discordgo.Guild{ID: "g1"}), "added again after removal")
	assert.False(t, g.isJoin(&discordgo.Guild{ID: "g2"}))
}
