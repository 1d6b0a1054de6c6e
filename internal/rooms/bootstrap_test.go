package rooms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform"
)

func TestBootstrapCreatesCategoryAndTrigger(t *testing.T) {
	f := newFixture(t)

	id := f.click(ComponentCreateCategory, "", admin)

	reply := f.onlyReply(id)
	require.NotNil(t, reply.Embed)
	assert.Equal(t, "Category Created", reply.Embed.Title)
	assert.Equal(t, models.ColorGreen, reply.Embed.Color)

	categories := f.graph.Named(testGuild, "MakeRoom")
	require.Len(t, categories, 1)
	assert.Equal(t, models.ChannelCategory, categories[0].Type)

	triggers := f.graph.Children(categories[0].ID)
	require.Len(t, triggers, 1)
	trigger := triggers[0]
	assert.Equal(t, "+ Create Room", trigger.Name)
	assert.Equal(t, models.ChannelVoice, trigger.Type)

	ow, ok := trigger.Overwrite(testGuild)
	require.True(t, ok, "default scope overwrite on trigger")
	assert.True(t, ow.Deny.Has(models.PermSendMessages))
	assert.False(t, ow.Deny.Has(models.PermViewChannel))
	assert.False(t, ow.Deny.Has(models.PermConnect))

	assert.Equal(t, []models.EventKind{models.EventCategoryCreated}, f.audit.kinds())
}

func TestBootstrapTwiceLeavesOneCategory(t *testing.T) {
	f := newFixture(t)

	f.click(ComponentCreateCategory, "", admin)
	second := f.click(ComponentCreateCategory, "", admin)

	reply := f.onlyReply(second)
	require.NotNil(t, reply.Embed)
	assert.Equal(t, "Category Recreated", reply.Embed.Title)

	categories := f.graph.Named(testGuild, "MakeRoom")
	require.Len(t, categories, 1)
	assert.Len(t, f.graph.Named(testGuild, "+ Create Room"), 1)
	assert.Equal(t, 2, f.graph.ChannelCount(testGuild))
}

func TestBootstrapReplacesLeftoverChannels(t *testing.T) {
	f := newFixture(t)

	oldCategory := f.graph.AddChannel(testGuild, "MakeRoom", models.ChannelCategory, "")
	oldTrigger := f.graph.AddChannel(testGuild, "+ Create Room", models.ChannelVoice, oldCategory)
	oldRoom := f.graph.AddChannel(testGuild, "🏠 Carol's Room", models.ChannelVoice, oldCategory)
	stray := f.graph.AddChannel(testGuild, "notes", models.ChannelText, oldCategory)
	general := f.graph.AddChannel(testGuild, "general", models.ChannelText, "")
	require.NoError(t, f.owners.Bind(f.ctx, models.RoomOwner{RoomID: oldRoom, GuildID: testGuild, CreatorID: "u-carol"}))

	id := f.click(ComponentCreateCategory, "", admin)

	reply := f.onlyReply(id)
	require.NotNil(t, reply.Embed)
	assert.Equal(t, "Category Recreated", reply.Embed.Title)
	assert.Equal(t, models.ColorBlue, reply.Embed.Color)

	for _, id := range []string{oldCategory, oldTrigger, oldRoom, stray} {
		assert.False(t, f.graph.Exists(id), "leftover %s deleted", id)
	}
	assert.True(t, f.graph.Exists(general), "unrelated channels survive")

	owner, err := f.owners.Owner(f.ctx, oldRoom)
	require.NoError(t, err)
	assert.Nil(t, owner)

	categories := f.graph.Named(testGuild, "MakeRoom")
	require.Len(t, categories, 1)
	assert.NotEqual(t, oldCategory, categories[0].ID)
	assert.Len(t, f.graph.Find(testGuild, "+ Create Room", categories[0].ID), 1)
}

func TestBootstrapRemovesDuplicateCategories(t *testing.T) {
	f := newFixture(t)
	f.graph.AddChannel(testGuild, "MakeRoom", models.ChannelCategory, "")
	f.graph.AddChannel(testGuild, "MakeRoom", models.ChannelCategory, "")

	f.click(ComponentCreateCategory, "", admin)

	assert.Len(t, f.graph.Named(testGuild, "MakeRoom"), 1)
}

func TestBootstrapNeedsNoPermissionsOfItsOwn(t *testing.T) {
	f := newFixture(t)

	id := f.click(ComponentCreateCategory, "", alice)

	assert.Equal(t, "Category Created", f.onlyReply(id).Embed.Title)
	assert.Len(t, f.graph.Named(testGuild, "MakeRoom"), 1)

	id = f.click(ComponentDeleteCategory, "", bob)

	assert.Equal(t, "Category Removed", f.onlyReply(id).Embed.Title)
	assert.Empty(t, f.graph.Named(testGuild, "MakeRoom"))
}

func TestBootstrapDefersBeforeTouchingChannels(t *testing.T) {
	for _, customID := range []string{ComponentCreateCategory, ComponentDeleteCategory} {
		t.Run(customID, func(t *testing.T) {
			f := newFixture(t)
			category := f.graph.AddChannel(testGuild, "MakeRoom", models.ChannelCategory, "")
			f.graph.AddChannel(testGuild, "🏠 Carol's Room", models.ChannelVoice, category)

			id := f.click(customID, "", admin)

			ops := f.graph.Ops()
			require.NotEmpty(t, ops)
			assert.Equal(t, platform.OpDeferReply, ops[0])
			assert.Equal(t, platform.OpEditReply, ops[len(ops)-1])
			assert.True(t, f.graph.Deferred(id))
			assert.Zero(t, f.graph.Calls(platform.OpReplyEphemeral))

			replies := f.graph.Replies()
			require.Len(t, replies, 1)
			assert.True(t, replies[0].Edited)
			assert.Equal(t, id, replies[0].Interaction.ID)
		})
	}
}

func TestBootstrapRepliesDirectlyWhenDeferFails(t *testing.T) {
	f := newFixture(t)
	f.graph.FailOn(platform.OpDeferReply, errors.New("connection reset"))

	id := f.click(ComponentCreateCategory, "", admin)

	reply := f.onlyReply(id)
	assert.Equal(t, "Category Created", reply.Embed.Title)
	assert.Zero(t, f.graph.Calls(platform.OpEditReply))
	assert.Equal(t, 1, f.graph.Calls(platform.OpReplyEphemeral))
	assert.Len(t, f.graph.Named(testGuild, "MakeRoom"), 1)
}

func TestBootstrapFailureEditsDeferredReply(t *testing.T) {
	f := newFixture(t)
	f.graph.FailOn(platform.OpCreateCategory, platform.Forbidden(platform.OpCreateCategory, nil))

	id := f.click(ComponentCreateCategory, "", admin)

	replies := f.graph.Replies()
	require.Len(t, replies, 1)
	assert.True(t, replies[0].Edited)
	assert.Equal(t, msgNoPermCategory, f.onlyReply(id).Content)
}

func TestBootstrapForbidden(t *testing.T) {
	tests := []struct {
		name string
		op   string
		want string
	}{
		{"create category", platform.OpCreateCategory, msgNoPermCategory},
		{"create trigger", platform.OpCreateVoice, msgNoPermVoice},
		{"restrict trigger", platform.OpSetPermissions, msgNoPermVoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.graph.FailOn(tt.op, platform.Forbidden(tt.op, errors.New("missing permissions")))

			id := f.click(ComponentCreateCategory, "", admin)

			assert.Equal(t, tt.want, f.onlyReply(id).Content)
		})
	}
}

func TestBootstrapForbiddenDelete(t *testing.T) {
	f := newFixture(t)
	f.graph.AddChannel(testGuild, "MakeRoom", models.ChannelCategory, "")
	f.graph.FailOn(platform.OpDeleteChannel, platform.Forbidden(platform.OpDeleteChannel, nil))

	id := f.click(ComponentCreateCategory, "", admin)

	assert.Equal(t, msgNoPermDelete, f.onlyReply(id).Content)
	assert.Equal(t, 0, f.graph.Calls(platform.OpCreateCategory))
}

func TestBootstrapRecoversFromPartialState(t *testing.T) {
	f := newFixture(t)
	f.graph.FailOn(platform.OpCreateVoice, platform.Forbidden(platform.OpCreateVoice, nil))
	f.click(ComponentCreateCategory, "", admin)

	// A category without a trigger is left behind.
	categories := f.graph.Named(testGuild, "MakeRoom")
	require.Len(t, categories, 1)
	assert.Empty(t, f.graph.Children(categories[0].ID))

	f.graph.ClearFailures()
	id := f.click(ComponentCreateCategory, "", admin)

	assert.Equal(t, "Category Recreated", f.onlyReply(id).Embed.Title)
	categories = f.graph.Named(testGuild, "MakeRoom")
	require.Len(t, categories, 1)
	assert.Len(t, f.graph.Children(categories[0].ID), 1)
}

func TestBootstrapUnexpectedFailure(t *testing.T) {
	f := newFixture(t)
	f.graph.FailOn(platform.OpChannels, errors.New("connection reset"))

	id := f.click(ComponentCreateCategory, "", admin)

	assert.Equal(t, msgFailed, f.onlyReply(id).Content)
}

func TestRemoveManagedCategory(t *testing.T) {
	f := newFixture(t)
	categoryID, triggerID := f.bootstrap()

	id := f.click(ComponentDeleteCategory, "", admin)

	assert.Equal(t, "Category Removed", f.onlyReply(id).Embed.Title)
	assert.False(t, f.graph.Exists(categoryID))
	assert.False(t, f.graph.Exists(triggerID))
}

func TestRemoveManagedCategoryWhenAbsent(t *testing.T) {
	f := newFixture(t)

	id := f.click(ComponentDeleteCategory, "", admin)

	assert.Equal(t, "No category named 'MakeRoom' found.", f.onlyReply(id).Content)
}

func TestGuildJoinGreetsModeratorChannel(t *testing.T) {
	f := newFixture(t)
	system := f.graph.AddChannel(testGuild, "welcome", models.ChannelText, "")
	f.graph.SetSystemChannel(testGuild, system)
	mod := f.graph.AddChannel(testGuild, "moderator-only", models.ChannelText, "")

	f.o.HandleGuildJoin(f.ctx, testGuild)

	sent := f.graph.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, mod, sent[0].ChannelID)
	require.NotNil(t, sent[0].Message.Embed)
	assert.Equal(t, "Greeting! 🤩", sent[0].Message.Embed.Title)

	var ids []string
	for _, b := range sent[0].Message.Buttons {
		ids = append(ids, b.CustomID)
	}
	assert.Equal(t, []string{ComponentCreateCategory, ComponentDeleteCategory}, ids)
}

func TestGuildJoinFallsBackToSystemChannel(t *testing.T) {
	f := newFixture(t)
	system := f.graph.AddChannel(testGuild, "welcome", models.ChannelText, "")
	f.graph.SetSystemChannel(testGuild, system)
	// A voice channel with the moderator name does not count.
	f.graph.AddChannel(testGuild, "moderator-only", models.ChannelVoice, "")

	f.o.HandleGuildJoin(f.ctx, testGuild)

	sent := f.graph.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, system, sent[0].ChannelID)
}

func TestGuildJoinWithoutTargetSendsNothing(t *testing.T) {
	f := newFixture(t)

	f.o.HandleGuildJoin(f.ctx, testGuild)

	assert.Empty(t, f.graph.SentMessages())
}
