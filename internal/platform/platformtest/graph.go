// Package platformtest provides an in-memory platform graph for tests.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform"
)

// Sent is a message posted to a channel.
type Sent struct {
	ChannelID string
	Message   models.Message
}

// Reply is an ephemeral interaction response. Edited is set when it filled
// in a deferred reply.
type Reply struct {
	Interaction models.ComponentInteraction
	Message     models.Message
	Edited      bool
}

// Graph is a fake platform.Platform holding guilds, channels and voice
// connections in memory. It is safe for concurrent use.
type Graph struct {
	mu       sync.Mutex
	nextID   int
	guilds   map[string]*models.Guild
	channels map[string]*models.Channel
	order    []string          // channel IDs in creation order
	voice    map[string]string // member ID -> voice channel ID
	failures map[string]error
	calls    map[string]int
	ops      []string // every call in order

	sent     []Sent
	replies  []Reply
	deferred map[string]bool // interaction ID -> acknowledged
}

var _ platform.Platform = (*Graph)(nil)

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		guilds:   make(map[string]*models.Guild),
		channels: make(map[string]*models.Channel),
		voice:    make(map[string]string),
		failures: make(map[string]error),
		calls:    make(map[string]int),
		deferred: make(map[string]bool),
	}
}

func (g *Graph) newID() string {
	g.nextID++
	return strconv.Itoa(1000 + g.nextID)
}

// AddGuild registers a guild.
func (g *Graph) AddGuild(id, name string) *models.Guild {
	g.mu.Lock()
	defer g.mu.Unlock()
	guild := &models.Guild{ID: id, Name: name}
	g.guilds[id] = guild
	return guild
}

// SetSystemChannel sets the guild's system channel.
func (g *Graph) SetSystemChannel(guildID, channelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.guilds[guildID].SystemChannelID = channelID
}

// AddChannel inserts a channel and returns its ID.
func (g *Graph) AddChannel(guildID, name string, typ models.ChannelType, parentID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.insert(guildID, name, typ, parentID).ID
}

func (g *Graph) insert(guildID, name string, typ models.ChannelType, parentID string) *models.Channel {
	ch := &models.Channel{
		ID:       g.newID(),
		GuildID:  guildID,
		ParentID: parentID,
		Name:     name,
		Type:     typ,
	}
	g.channels[ch.ID] = ch
	g.order = append(g.order, ch.ID)
	return ch
}

// Connect puts a member into a voice channel, as if they joined it themselves.
func (g *Graph) Connect(memberID, channelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voice[memberID] = channelID
}

// Disconnect removes a member from voice.
func (g *Graph) Disconnect(memberID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.voice, memberID)
}

// VoiceChannelOf returns the channel a member is connected to.
func (g *Graph) VoiceChannelOf(memberID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.voice[memberID]
}

// FailOn makes every later call of op return err until ClearFailures.
func (g *Graph) FailOn(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = err
}

// ClearFailures removes every injected failure.
func (g *Graph) ClearFailures() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = make(map[string]error)
}

// Calls returns how many times op was invoked.
func (g *Graph) Calls(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

// Ops returns the name of every call made so far, in order.
func (g *Graph) Ops() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.ops...)
}

// Deferred reports whether an interaction was acknowledged with DeferReply.
func (g *Graph) Deferred(interactionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deferred[interactionID]
}

// Find returns the channels of a guild with the given name and parent.
func (g *Graph) Find(guildID, name, parentID string) []models.Channel {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.Channel
	for _, id := range g.order {
		ch, ok := g.channels[id]
		if ok && ch.GuildID == guildID && ch.Name == name && ch.ParentID == parentID {
			out = append(out, clone(ch))
		}
	}
	return out
}

// Named returns the channels of a guild with the given name, in any parent.
func (g *Graph) Named(guildID, name string) []models.Channel {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.Channel
	for _, id := range g.order {
		ch, ok := g.channels[id]
		if ok && ch.GuildID == guildID && ch.Name == name {
			out = append(out, clone(ch))
		}
	}
	return out
}

// Children returns the channels whose parent is parentID.
func (g *Graph) Children(parentID string) []models.Channel {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.Channel
	for _, id := range g.order {
		ch, ok := g.channels[id]
		if ok && ch.ParentID == parentID {
			out = append(out, clone(ch))
		}
	}
	return out
}

// Exists reports whether a channel is still present.
func (g *Graph) Exists(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.channels[channelID]
	return ok
}

// ChannelCount returns the number of channels in a guild.
func (g *Graph) ChannelCount(guildID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, ch := range g.channels {
		if ch.GuildID == guildID {
			n++
		}
	}
	return n
}

// SentMessages returns every message posted so far.
func (g *Graph) SentMessages() []Sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Sent(nil), g.sent...)
}

// Replies returns every ephemeral reply so far, deferred ones included.
func (g *Graph) Replies() []Reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Reply(nil), g.replies...)
}

// RepliesTo returns the ephemeral replies to one interaction.
func (g *Graph) RepliesTo(interactionID string) []models.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.Message
	for _, r := range g.replies {
		if r.Interaction.ID == interactionID {
			out = append(out, r.Message)
		}
	}
	return out
}

// begin counts the call and returns an injected failure, if any.
// Callers must hold g.mu.
func (g *Graph) begin(op string) error {
	g.calls[op]++
	g.ops = append(g.ops, op)
	if err, ok := g.failures[op]; ok {
		return err
	}
	return nil
}

func clone(ch *models.Channel) models.Channel {
	out := *ch
	out.Overwrites = append([]models.Overwrite(nil), ch.Overwrites...)
	return out
}

func errUnknownChannel(op, id string) error {
	return platform.NotFound(op, fmt.Errorf("unknown channel %s", id))
}

func (g *Graph) Guild(ctx context.Context, guildID string) (*models.Guild, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpGuild); err != nil {
		return nil, err
	}
	guild, ok := g.guilds[guildID]
	if !ok {
		return nil, platform.NotFound(platform.OpGuild, fmt.Errorf("unknown guild %s", guildID))
	}
	out := *guild
	return &out, nil
}

func (g *Graph) Channels(ctx context.Context, guildID string) ([]models.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpChannels); err != nil {
		return nil, err
	}
	var out []models.Channel
	for _, id := range g.order {
		if ch, ok := g.channels[id]; ok && ch.GuildID == guildID {
			out = append(out, clone(ch))
		}
	}
	return out, nil
}

func (g *Graph) Channel(ctx context.Context, channelID string) (*models.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpChannel); err != nil {
		return nil, err
	}
	ch, ok := g.channels[channelID]
	if !ok {
		return nil, errUnknownChannel(platform.OpChannel, channelID)
	}
	out := clone(ch)
	return &out, nil
}

func (g *Graph) VoiceMemberCount(ctx context.Context, guildID, channelID string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpVoiceMembers); err != nil {
		return 0, err
	}
	n := 0
	for _, id := range g.voice {
		if id == channelID {
			n++
		}
	}
	return n, nil
}

func (g *Graph) CreateCategory(ctx context.Context, guildID, name string) (*models.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpCreateCategory); err != nil {
		return nil, err
	}
	out := clone(g.insert(guildID, name, models.ChannelCategory, ""))
	return &out, nil
}

func (g *Graph) CreateVoiceChannel(ctx context.Context, guildID, name, parentID string) (*models.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpCreateVoice); err != nil {
		return nil, err
	}
	if parentID != "" {
		if _, ok := g.channels[parentID]; !ok {
			return nil, errUnknownChannel(platform.OpCreateVoice, parentID)
		}
	}
	out := clone(g.insert(guildID, name, models.ChannelVoice, parentID))
	return &out, nil
}

// DeleteChannel removes a channel. Deleting a category orphans its
// children, as the real platform does.
func (g *Graph) DeleteChannel(ctx context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpDeleteChannel); err != nil {
		return err
	}
	ch, ok := g.channels[channelID]
	if !ok {
		return errUnknownChannel(platform.OpDeleteChannel, channelID)
	}
	delete(g.channels, channelID)
	if ch.IsCategory() {
		for _, child := range g.channels {
			if child.ParentID == channelID {
				child.ParentID = ""
			}
		}
	}
	for member, id := range g.voice {
		if id == channelID {
			delete(g.voice, member)
		}
	}
	return nil
}

func (g *Graph) SetPermissionOverwrite(ctx context.Context, channelID string, ow models.Overwrite) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpSetPermissions); err != nil {
		return err
	}
	ch, ok := g.channels[channelID]
	if !ok {
		return errUnknownChannel(platform.OpSetPermissions, channelID)
	}
	for i := range ch.Overwrites {
		if ch.Overwrites[i].TargetID == ow.TargetID {
			ch.Overwrites[i] = ow
			return nil
		}
	}
	ch.Overwrites = append(ch.Overwrites, ow)
	return nil
}

func (g *Graph) MoveMember(ctx context.Context, guildID, memberID, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpMoveMember); err != nil {
		return err
	}
	if _, ok := g.channels[channelID]; !ok {
		return errUnknownChannel(platform.OpMoveMember, channelID)
	}
	if _, ok := g.voice[memberID]; !ok {
		return &platform.Error{Op: platform.OpMoveMember, Err: errors.New("target user is not connected to voice")}
	}
	g.voice[memberID] = channelID
	return nil
}

func (g *Graph) SendMessage(ctx context.Context, channelID string, msg models.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpSendMessage); err != nil {
		return err
	}
	if _, ok := g.channels[channelID]; !ok {
		return errUnknownChannel(platform.OpSendMessage, channelID)
	}
	g.sent = append(g.sent, Sent{ChannelID: channelID, Message: msg})
	return nil
}

func (g *Graph) ReplyEphemeral(ctx context.Context, interaction models.ComponentInteraction, msg models.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpReplyEphemeral); err != nil {
		return err
	}
	if g.deferred[interaction.ID] {
		return &platform.Error{Op: platform.OpReplyEphemeral, Err: errors.New("interaction has already been acknowledged")}
	}
	g.replies = append(g.replies, Reply{Interaction: interaction, Message: msg})
	return nil
}

func (g *Graph) DeferReply(ctx context.Context, interaction models.ComponentInteraction) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpDeferReply); err != nil {
		return err
	}
	if g.deferred[interaction.ID] {
		return &platform.Error{Op: platform.OpDeferReply, Err: errors.New("interaction has already been acknowledged")}
	}
	g.deferred[interaction.ID] = true
	return nil
}

// EditReply records the answer to a deferred interaction. Editing an
// interaction that was never deferred fails like an unknown webhook message.
func (g *Graph) EditReply(ctx context.Context, interaction models.ComponentInteraction, msg models.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(platform.OpEditReply); err != nil {
		return err
	}
	if !g.deferred[interaction.ID] {
		return platform.NotFound(platform.OpEditReply, fmt.Errorf("unknown interaction %s", interaction.ID))
	}
	g.replies = append(g.replies, Reply{Interaction: interaction, Message: msg, Edited: true})
	return nil
}
