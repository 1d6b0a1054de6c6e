// Package discord connects the room orchestrator to Discord through discordgo.
package discord

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/makeroom/internal/metrics"
	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform"
)

// Intents the bot needs: guild and channel events plus voice states.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

// Handler receives translated gateway events. *rooms.Orchestrator implements it.
type Handler interface {
	HandleVoiceState(ctx context.Context, change models.VoiceStateChange)
	HandleComponent(ctx context.Context, in models.ComponentInteraction)
	HandleGuildJoin(ctx context.Context, guildID string)
}

// Gateway is a platform.Platform backed by a discordgo session.
type Gateway struct {
	session   *discordgo.Session
	logger    zerolog.Logger
	connected atomic.Bool

	mu sync.Mutex
	// Guilds listed in the last READY. Their GUILD_CREATE is the initial
	// load, not a join.
	pending map[string]struct{}
}

var _ platform.Platform = (*Gateway)(nil)

// New creates a Gateway for a bot token. Call Open to connect.
func New(token string, logger zerolog.Logger) (*Gateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = Intents
	session.StateEnabled = true
	session.State.TrackVoice = true
	session.State.TrackChannels = true

	g := &Gateway{
		session: session,
		logger:  logger.With().Str("component", "discord").Logger(),
		pending: make(map[string]struct{}),
	}
	session.AddHandler(g.onConnect)
	session.AddHandler(g.onDisconnect)
	session.AddHandler(g.onReady)
	return g, nil
}

// Bind routes gateway events to h. It must be called before Open.
func (g *Gateway) Bind(ctx context.Context, h Handler) {
	g.session.AddHandler(func(_ *discordgo.Session, e *discordgo.VoiceStateUpdate) {
		h.HandleVoiceState(ctx, toVoiceStateChange(e))
	})
	g.session.AddHandler(func(_ *discordgo.Session, e *discordgo.InteractionCreate) {
		in, ok := toComponentInteraction(e.Interaction)
		if !ok {
			return
		}
		h.HandleComponent(ctx, in)
	})
	g.session.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildCreate) {
		if g.isJoin(e.Guild) {
			g.logger.Info().Str("guild_id", e.ID).Str("guild", e.Name).Msg("joined guild")
			h.HandleGuildJoin(ctx, e.ID)
		}
	})
}

// Open connects to the gateway.
func (g *Gateway) Open() error {
	return g.session.Open()
}

// Close disconnects from the gateway.
func (g *Gateway) Close() error {
	return g.session.Close()
}

// Connected reports whether the gateway websocket is up.
func (g *Gateway) Connected() bool {
	return g.connected.Load()
}

func (g *Gateway) onConnect(_ *discordgo.Session, _ *discordgo.Connect) {
	g.connected.Store(true)
	metrics.GatewayConnected.Set(1)
	g.logger.Info().Msg("gateway connected")
}

func (g *Gateway) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	g.connected.Store(false)
	metrics.GatewayConnected.Set(0)
	g.logger.Warn().Msg("gateway disconnected")
}

func (g *Gateway) onReady(_ *discordgo.Session, e *discordgo.Ready) {
	g.ready(e.Guilds)
	g.logger.Info().
		Str("user", e.User.Username).
		Int("guilds", len(e.Guilds)).
		Msg("gateway ready")
}

func (g *Gateway) ready(guilds []*discordgo.Guild) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = make(map[string]struct{}, len(guilds))
	for _, guild := range guilds {
		g.pending[guild.ID] = struct{}{}
	}
}

// isJoin reports whether a GUILD_CREATE means the bot was just added.
func (g *Gateway) isJoin(guild *discordgo.Guild) bool {
	if guild.Unavailable {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[guild.ID]; ok {
		delete(g.pending, guild.ID)
		return false
	}
	return true
}

func (g *Gateway) Guild(ctx context.Context, guildID string) (*models.Guild, error) {
	if guild, err := g.session.State.Guild(guildID); err == nil {
		return toGuild(guild), nil
	}
	guild, err := g.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(platform.OpGuild, err)
	}
	return toGuild(guild), nil
}

// Channels lists a guild's channels over REST so reconciliation never acts
// on a stale cache.
func (g *Gateway) Channels(ctx context.Context, guildID string) ([]models.Channel, error) {
	channels, err := g.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(platform.OpChannels, err)
	}
	out := make([]models.Channel, 0, len(channels))
	for _, c := range channels {
		out = append(out, toChannel(c))
	}
	return out, nil
}

func (g *Gateway) Channel(ctx context.Context, channelID string) (*models.Channel, error) {
	c, err := g.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(platform.OpChannel, err)
	}
	ch := toChannel(c)
	return &ch, nil
}

// VoiceMemberCount counts connected members from the voice states the
// gateway streams into the state cache.
func (g *Gateway) VoiceMemberCount(ctx context.Context, guildID, channelID string) (int, error) {
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		return 0, classify(platform.OpVoiceMembers, err)
	}

	g.session.State.RLock()
	defer g.session.State.RUnlock()
	n := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

func (g *Gateway) CreateCategory(ctx context.Context, guildID, name string) (*models.Channel, error) {
	c, err := g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(platform.OpCreateCategory, err)
	}
	ch := toChannel(c)
	return &ch, nil
}

func (g *Gateway) CreateVoiceChannel(ctx context.Context, guildID, name, parentID string) (*models.Channel, error) {
	c, err := g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: parentID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(platform.OpCreateVoice, err)
	}
	ch := toChannel(c)
	return &ch, nil
}

func (g *Gateway) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := g.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return classify(platform.OpDeleteChannel, err)
}

func (g *Gateway) SetPermissionOverwrite(ctx context.Context, channelID string, ow models.Overwrite) error {
	err := g.session.ChannelPermissionSet(
		channelID,
		ow.TargetID,
		overwriteType(ow.TargetType),
		int64(ow.Allow),
		int64(ow.Deny),
		discordgo.WithContext(ctx),
	)
	return classify(platform.OpSetPermissions, err)
}

func (g *Gateway) MoveMember(ctx context.Context, guildID, memberID, channelID string) error {
	err := g.session.GuildMemberMove(guildID, memberID, &channelID, discordgo.WithContext(ctx))
	return classify(platform.OpMoveMember, err)
}

func (g *Gateway) SendMessage(ctx context.Context, channelID string, msg models.Message) error {
	_, err := g.session.ChannelMessageSendComplex(channelID, toMessageSend(msg), discordgo.WithContext(ctx))
	return classify(platform.OpSendMessage, err)
}

func (g *Gateway) ReplyEphemeral(ctx context.Context, in models.ComponentInteraction, msg models.Message) error {
	err := g.session.InteractionRespond(toInteraction(in), toEphemeralResponse(msg), discordgo.WithContext(ctx))
	return classify(platform.OpReplyEphemeral, err)
}

// DeferReply answers within the interaction deadline with a "thinking"
// placeholder that only the invoker sees.
func (g *Gateway) DeferReply(ctx context.Context, in models.ComponentInteraction) error {
	err := g.session.InteractionRespond(toInteraction(in), deferredEphemeralResponse(), discordgo.WithContext(ctx))
	return classify(platform.OpDeferReply, err)
}

func (g *Gateway) EditReply(ctx context.Context, in models.ComponentInteraction, msg models.Message) error {
	_, err := g.session.InteractionResponseEdit(toInteraction(in), toWebhookEdit(msg), discordgo.WithContext(ctx))
	return classify(platform.OpEditReply, err)
}
