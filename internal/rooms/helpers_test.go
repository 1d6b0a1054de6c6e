package rooms

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform/platformtest"
	"github.com/eldtechnologies/makeroom/internal/store"
)

const testGuild = "g1"

var (
	alice = models.Member{ID: "u-alice", GuildID: testGuild, Name: "Alice"}
	bob   = models.Member{ID: "u-bob", GuildID: testGuild, Name: "Bob"}
	admin = models.Member{ID: "u-admin", GuildID: testGuild, Name: "Admin", Permissions: models.PermManageChannels}
)

// recordingAudit is an in-memory store.DataStore.
type recordingAudit struct {
	mu     sync.Mutex
	events []models.LifecycleEvent
}

func (a *recordingAudit) Close() {}
func (a *recordingAudit) Ping(ctx context.Context) error { return nil }

func (a *recordingAudit) RecordEvent(ctx context.Context, ev *models.LifecycleEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, *ev)
	return nil
}

func (a *recordingAudit) CountEventsByKind(ctx context.Context) (map[models.EventKind]int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	counts := make(map[models.EventKind]int64)
	for _, ev := range a.events {
		counts[ev.Kind]++
	}
	return counts, nil
}

func (a *recordingAudit) RecentEvents(ctx context.Context, limit int) ([]models.LifecycleEvent, error) {
	return nil, nil
}

func (a *recordingAudit) LastEventTime(ctx context.Context) (*time.Time, error) {
	return nil, nil
}

func (a *recordingAudit) kinds() []models.EventKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.EventKind, len(a.events))
	for i, ev := range a.events {
		out[i] = ev.Kind
	}
	return out
}

var _ store.DataStore = (*recordingAudit)(nil)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	graph  *platformtest.Graph
	owners *store.MemoryOwnerStore
	audit  *recordingAudit
	o      *Orchestrator
	clicks int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	graph := platformtest.NewGraph()
	graph.AddGuild(testGuild, "Test Guild")

	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		graph:  graph,
		owners: store.NewMemoryOwnerStore(),
		audit:  &recordingAudit{},
	}

	o, err := New(Options{
		Platform:    graph,
		Owners:      f.owners,
		Audit:       f.audit,
		Conventions: DefaultConventions(),
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	f.o = o
	return f
}

// click invokes a control and returns the interaction ID.
func (f *fixture) click(customID, channelID string, invoker models.Member) string {
	f.clicks++
	id := fmt.Sprintf("interaction-%d", f.clicks)
	f.o.HandleComponent(f.ctx, models.ComponentInteraction{
		ID:        id,
		Token:     "token-" + id,
		GuildID:   testGuild,
		ChannelID: channelID,
		CustomID:  customID,
		Invoker:   invoker,
	})
	return id
}

// onlyReply asserts an interaction got exactly one reply and returns it.
func (f *fixture) onlyReply(interactionID string) models.Message {
	f.t.Helper()
	replies := f.graph.RepliesTo(interactionID)
	require.Len(f.t, replies, 1, "every human-initiated action gets exactly one reply")
	return replies[0]
}

// bootstrap sets up the managed category and returns its ID and the trigger's.
func (f *fixture) bootstrap() (categoryID, triggerID string) {
	f.t.Helper()
	f.click(ComponentCreateCategory, "", admin)

	categories := f.graph.Named(testGuild, "MakeRoom")
	require.Len(f.t, categories, 1)
	triggers := f.graph.Find(testGuild, "+ Create Room", categories[0].ID)
	require.Len(f.t, triggers, 1)
	return categories[0].ID, triggers[0].ID
}

// join connects a member to a channel and delivers the matching event.
func (f *fixture) join(member models.Member, channelID string) {
	before := f.graph.VoiceChannelOf(member.ID)
	f.graph.Connect(member.ID, channelID)
	f.o.HandleVoiceState(f.ctx, models.VoiceStateChange{
		GuildID:         testGuild,
		Member:          member,
		BeforeChannelID: before,
		AfterChannelID:  channelID,
	})
}

// leave disconnects a member from voice and delivers the matching event.
func (f *fixture) leave(member models.Member) {
	before := f.graph.VoiceChannelOf(member.ID)
	f.graph.Disconnect(member.ID)
	f.o.HandleVoiceState(f.ctx, models.VoiceStateChange{
		GuildID:         testGuild,
		Member:          member,
		BeforeChannelID: before,
	})
}

// roomsOf returns the personal rooms of a member inside a category.
func (f *fixture) roomsOf(member models.Member, categoryID string) []models.Channel {
	return f.graph.Find(testGuild, "🏠 "+member.Name+"'s Room", categoryID)
}

// laggingGraph acknowledges moves without updating voice states, like a
// gateway cache that has not seen the move echoed back yet.
type laggingGraph struct {
	*platformtest.Graph

	mu    sync.Mutex
	moves map[string]string // member ID -> channel ID
}

func newLaggingGraph(g *platformtest.Graph) *laggingGraph {
	return &laggingGraph{Graph: g, moves: make(map[string]string)}
}

func (g *laggingGraph) MoveMember(ctx context.Context, guildID, memberID, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.moves[memberID] = channelID
	return nil
}

func (g *laggingGraph) movedTo(memberID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moves[memberID]
}
