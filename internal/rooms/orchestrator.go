// Package rooms implements the dynamic room lifecycle: a managed category
// with a trigger channel per guild, personal rooms spawned on entry into the
// trigger, owner-only visibility control and reclamation of empty rooms.
//
// The orchestrator keeps no state of its own between events. Channels,
// categories and permission overwrites are read live from the platform on
// every decision; only the room owner bindings and provisioning locks live in
// the injected stores.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/makeroom/internal/metrics"
	"github.com/eldtechnologies/makeroom/internal/models"
	"github.com/eldtechnologies/makeroom/internal/platform"
	"github.com/eldtechnologies/makeroom/internal/store"
)

const (
	defaultLockWait = 5 * time.Second
	defaultTimeout  = 10 * time.Second
)

// ComponentHandler runs when an interactive control is invoked.
type ComponentHandler func(ctx context.Context, in models.ComponentInteraction)

// Options configures an Orchestrator. Platform is required; nil stores fall
// back to in-process implementations and a nil Audit disables the audit log.
type Options struct {
	Platform    platform.Platform
	Owners      store.OwnerStore
	Locker      store.Locker
	Audit       store.DataStore
	Conventions Conventions
	Logger      zerolog.Logger
	LockWait    time.Duration // Longest wait for a provisioning lock
	Timeout     time.Duration // Budget for one event
}

// Orchestrator routes gateway events to the room lifecycle behaviors.
type Orchestrator struct {
	platform platform.Platform
	owners   store.OwnerStore
	locker   store.Locker
	audit    store.DataStore
	conv     Conventions
	logger   zerolog.Logger
	lockWait time.Duration
	timeout  time.Duration

	components map[string]ComponentHandler
}

// New creates an Orchestrator and registers the built-in controls.
func New(opts Options) (*Orchestrator, error) {
	if opts.Platform == nil {
		return nil, errors.New("rooms: platform is required")
	}
	if err := opts.Conventions.validate(); err != nil {
		return nil, fmt.Errorf("rooms: %w", err)
	}

	o := &Orchestrator{
		platform:   opts.Platform,
		owners:     opts.Owners,
		locker:     opts.Locker,
		audit:      opts.Audit,
		conv:       opts.Conventions,
		logger:     opts.Logger.With().Str("component", "rooms").Logger(),
		lockWait:   opts.LockWait,
		timeout:    opts.Timeout,
		components: make(map[string]ComponentHandler),
	}
	if o.owners == nil {
		o.owners = store.NewMemoryOwnerStore()
	}
	if o.locker == nil {
		o.locker = store.NewKeyedMutex()
	}
	if o.lockWait <= 0 {
		o.lockWait = defaultLockWait
	}
	if o.timeout <= 0 {
		o.timeout = defaultTimeout
	}

	builtin := []struct {
		id      string
		handler ComponentHandler
	}{
		{ComponentCreateCategory, o.EnsureManagedCategory},
		{ComponentDeleteCategory, o.RemoveManagedCategory},
		{ComponentToggleVisibility, o.OnToggleInvoked},
	}
	for _, c := range builtin {
		if err := o.Register(c.id, c.handler); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Register binds a control's custom ID to a handler.
// Each custom ID may be registered once.
func (o *Orchestrator) Register(customID string, handler ComponentHandler) error {
	if customID == "" {
		return errors.New("rooms: empty component id")
	}
	if handler == nil {
		return fmt.Errorf("rooms: nil handler for component %q", customID)
	}
	if _, exists := o.components[customID]; exists {
		return fmt.Errorf("rooms: component %q registered twice", customID)
	}
	o.components[customID] = handler
	return nil
}

// Conventions returns the reserved names in use.
func (o *Orchestrator) Conventions() Conventions {
	return o.conv
}

// HandleVoiceState reacts to a member moving between voice channels:
// entering the trigger channel provisions a room, then leaving a channel
// reclaims it if it became an empty personal room.
func (o *Orchestrator) HandleVoiceState(ctx context.Context, change models.VoiceStateChange) {
	defer o.guard("voice_state", time.Now())
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// Mute, deafen and stream toggles arrive with an unchanged channel.
	if change.BeforeChannelID == change.AfterChannelID {
		return
	}

	var movedInto string
	if change.AfterChannelID != "" {
		after, err := o.platform.Channel(ctx, change.AfterChannelID)
		if err != nil {
			o.platformError(err).Str("channel_id", change.AfterChannelID).Msg("lookup of joined channel failed")
		} else if o.isTrigger(ctx, after) {
			movedInto = o.OnEnterTrigger(ctx, change.Member, after)
		}
	}

	// A member who left their own room for the trigger was just moved back
	// into it; the occupant count has not caught up with that move yet.
	if change.BeforeChannelID != "" && change.BeforeChannelID != movedInto {
		o.OnLeave(ctx, change.BeforeChannelID)
	}
}

// HandleComponent dispatches an interactive control invocation.
func (o *Orchestrator) HandleComponent(ctx context.Context, in models.ComponentInteraction) {
	defer o.guard("component", time.Now())
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	handler, ok := o.components[in.CustomID]
	if !ok {
		o.logger.Warn().
			Str("custom_id", in.CustomID).
			Str("guild_id", in.GuildID).
			Msg("unknown component invoked")
		return
	}
	handler(ctx, in)
}

// HandleGuildJoin greets a guild the bot was just added to.
func (o *Orchestrator) HandleGuildJoin(ctx context.Context, guildID string) {
	defer o.guard("guild_join", time.Now())
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	o.SendGreeting(ctx, guildID)
}

// FindManagedCategories returns every category with the reserved name.
// Normally there is at most one; drift can leave more.
func (o *Orchestrator) FindManagedCategories(ctx context.Context, guildID string) ([]models.Channel, error) {
	channels, err := o.platform.Channels(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return o.managedCategories(channels), nil
}

func (o *Orchestrator) managedCategories(channels []models.Channel) []models.Channel {
	var out []models.Channel
	for _, ch := range channels {
		if ch.IsCategory() && ch.Name == o.conv.CategoryName {
			out = append(out, ch)
		}
	}
	return out
}

// FindRoomByNameInCategory returns the voice channel with the given name
// inside a category, or nil when there is none.
func (o *Orchestrator) FindRoomByNameInCategory(ctx context.Context, guildID, categoryID, name string) (*models.Channel, error) {
	channels, err := o.platform.Channels(ctx, guildID)
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if ch.IsVoice() && ch.ParentID == categoryID && ch.Name == name {
			found := ch
			return &found, nil
		}
	}
	return nil, nil
}

// isTrigger reports whether ch is a trigger channel inside a managed category.
func (o *Orchestrator) isTrigger(ctx context.Context, ch *models.Channel) bool {
	if !ch.IsVoice() || ch.Name != o.conv.TriggerName || ch.ParentID == "" {
		return false
	}
	parent, err := o.platform.Channel(ctx, ch.ParentID)
	if err != nil {
		o.platformError(err).Str("channel_id", ch.ParentID).Msg("lookup of trigger category failed")
		return false
	}
	return parent.IsCategory() && parent.Name == o.conv.CategoryName
}

// deferReply acknowledges an interaction before slow work starts. On failure
// the interaction stays unanswered and reply falls back to a direct response.
func (o *Orchestrator) deferReply(ctx context.Context, in *models.ComponentInteraction) {
	if err := o.platform.DeferReply(ctx, *in); err != nil {
		o.platformError(err).
			Str("interaction_id", in.ID).
			Str("custom_id", in.CustomID).
			Msg("deferring reply failed")
		return
	}
	in.Deferred = true
}

// reply answers a human-initiated action, filling in the pending reply of a
// deferred interaction. Delivery failures are only logged since there is
// nowhere else to report them.
func (o *Orchestrator) reply(ctx context.Context, in models.ComponentInteraction, msg models.Message) {
	send := o.platform.ReplyEphemeral
	if in.Deferred {
		send = o.platform.EditReply
	}
	if err := send(ctx, in, msg); err != nil {
		o.platformError(err).
			Str("interaction_id", in.ID).
			Str("custom_id", in.CustomID).
			Msg("reply failed")
	}
}

// record appends an audit event. Audit failures never affect the lifecycle.
func (o *Orchestrator) record(ctx context.Context, kind models.EventKind, guildID, channelID, memberID, detail string) {
	if o.audit == nil {
		return
	}
	ev := &models.LifecycleEvent{
		GuildID:   guildID,
		ChannelID: channelID,
		MemberID:  memberID,
		Kind:      kind,
		Detail:    detail,
	}
	if err := o.audit.RecordEvent(ctx, ev); err != nil {
		o.logger.Warn().Err(err).Str("kind", string(kind)).Msg("audit write failed")
	}
}

// platformError counts a failed platform call and starts its log line.
func (o *Orchestrator) platformError(err error) *zerolog.Event {
	kind := platform.KindOf(err)
	metrics.PlatformErrors.WithLabelValues(platform.OpOf(err), kind.String()).Inc()

	ev := o.logger.Error()
	if kind == platform.KindNotFound {
		ev = o.logger.Debug()
	} else if kind == platform.KindForbidden {
		ev = o.logger.Warn()
	}
	return ev.Err(err)
}

// guard is deferred by every event handler: it records the handling time
// and keeps a panicking handler from taking down the event loop.
func (o *Orchestrator) guard(event string, start time.Time) {
	if r := recover(); r != nil {
		metrics.HandlerPanics.WithLabelValues(event).Inc()
		o.logger.Error().
			Str("event", event).
			Interface("panic", r).
			Str("stack", string(debug.Stack())).
			Msg("recovered from handler panic")
	}
	metrics.EventDuration.WithLabelValues(event).Observe(time.Since(start).Seconds())
}
