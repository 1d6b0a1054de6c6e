package discord

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform"
)

// classify wraps a discordgo error into a *platform.Error for op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) {
		if rerr.Message != nil {
			switch rerr.Message.Code {
			case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
				return platform.Forbidden(op, err)
			case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownGuild, discordgo.ErrCodeUnknownMember:
				return platform.NotFound(op, err)
			}
		}
		if rerr.Response != nil {
			switch rerr.Response.StatusCode {
			case http.StatusForbidden:
				return platform.Forbidden(op, err)
			case http.StatusNotFound:
				return platform.NotFound(op, err)
			}
		}
	}
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return platform.NotFound(op, err)
	}
	return &platform.Error{Op: op, Kind: platform.KindUnknown, Err: err}
}

func channelType(t discordgo.ChannelType) models.ChannelType {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return models.ChannelText
	case discordgo.ChannelTypeGuildVoice:
		return models.ChannelVoice
	case discordgo.ChannelTypeGuildCategory:
		return models.ChannelCategory
	default:
		return models.ChannelOther
	}
}

func toChannel(c *discordgo.Channel) models.Channel {
	ch := models.Channel{
		ID:       c.ID,
		GuildID:  c.GuildID,
		ParentID: c.ParentID,
		Name:     c.Name,
		Type:     channelType(c.Type),
	}
	for _, ow := range c.PermissionOverwrites {
		target := models.OverwriteRole
		if ow.Type == discordgo.PermissionOverwriteTypeMember {
			target = models.OverwriteMember
		}
		ch.Overwrites = append(ch.Overwrites, models.Overwrite{
			TargetID:   ow.ID,
			TargetType: target,
			Allow:      models.Permission(ow.Allow),
			Deny:       models.Permission(ow.Deny),
		})
	}
	return ch
}

func overwriteType(t models.OverwriteTarget) discordgo.PermissionOverwriteType {
	if t == models.OverwriteMember {
		return discordgo.PermissionOverwriteTypeMember
	}
	return discordgo.PermissionOverwriteTypeRole
}

func toGuild(g *discordgo.Guild) *models.Guild {
	return &models.Guild{ID: g.ID, Name: g.Name, SystemChannelID: g.SystemChannelID}
}

// toMember converts a guild member. user is used when m carries no user,
// as in voice states of members the state cache has not seen yet.
func toMember(guildID string, m *discordgo.Member, user *discordgo.User) models.Member {
	out := models.Member{GuildID: guildID}
	if m != nil {
		out.Permissions = models.Permission(m.Permissions)
		if m.User != nil {
			user = m.User
		}
	}
	if user != nil {
		out.ID = user.ID
		out.Name = user.Username
	}
	return out
}

func toEmbed(e *models.Embed) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	if e.Author != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: e.Author}
	}
	return embed
}

func toComponents(buttons []models.Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return nil
	}
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		row.Components = append(row.Components, discordgo.Button{
			CustomID: b.CustomID,
			Label:    b.Label,
			Style:    discordgo.ButtonStyle(b.Style),
		})
	}
	return []discordgo.MessageComponent{row}
}

func toMessageSend(msg models.Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content:    msg.Content,
		Components: toComponents(msg.Buttons),
	}
	if msg.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{toEmbed(msg.Embed)}
	}
	return send
}

func toEphemeralResponse(msg models.Message) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{
		Content:    msg.Content,
		Components: toComponents(msg.Buttons),
		Flags:      discordgo.MessageFlagsEphemeral,
	}
	if msg.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{toEmbed(msg.Embed)}
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

func deferredEphemeralResponse() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}
}

// toWebhookEdit replaces the whole pending reply, clearing fields msg leaves
// empty.
func toWebhookEdit(msg models.Message) *discordgo.WebhookEdit {
	content := msg.Content
	embeds := []*discordgo.MessageEmbed{}
	if msg.Embed != nil {
		embeds = append(embeds, toEmbed(msg.Embed))
	}
	components := toComponents(msg.Buttons)
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}
}

// toVoiceStateChange converts a voice state update. The previous channel is
// only known when the state cache saw the member before.
func toVoiceStateChange(e *discordgo.VoiceStateUpdate) models.VoiceStateChange {
	change := models.VoiceStateChange{
		GuildID:        e.GuildID,
		Member:         toMember(e.GuildID, e.Member, nil),
		AfterChannelID: e.ChannelID,
	}
	if change.Member.ID == "" {
		change.Member.ID = e.UserID
	}
	if e.BeforeUpdate != nil {
		change.BeforeChannelID = e.BeforeUpdate.ChannelID
	}
	return change
}

// toComponentInteraction converts a button click. Other interaction types
// and clicks outside a guild report false.
func toComponentInteraction(i *discordgo.Interaction) (models.ComponentInteraction, bool) {
	if i.Type != discordgo.InteractionMessageComponent || i.GuildID == "" {
		return models.ComponentInteraction{}, false
	}
	return models.ComponentInteraction{
		ID:        i.ID,
		AppID:     i.AppID,
		Token:     i.Token,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		CustomID:  i.MessageComponentData().CustomID,
		Invoker:   toMember(i.GuildID, i.Member, i.User),
	}, true
}

// toInteraction rebuilds the minimal interaction needed to respond to one.
// Edits address the reply through the application's webhook, hence AppID.
func toInteraction(in models.ComponentInteraction) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        in.ID,
		AppID:     in.AppID,
		Token:     in.Token,
		GuildID:   in.GuildID,
		ChannelID: in.ChannelID,
		Type:      discordgo.InteractionMessageComponent,
	}
}
