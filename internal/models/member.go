package models

// Guild is a top-level community on the platform.
type Guild struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	SystemChannelID string `json:"system_channel_id,omitempty"`
}

// DefaultScopeID returns the ID of a guild's everyone role, which the
// platform gives the guild's own ID.
func DefaultScopeID(guildID string) string {
	return guildID
}

// Member is a guild member as seen in an event.
type Member struct {
	ID          string     `json:"id"`
	GuildID     string     `json:"guild_id"`
	Name        string     `json:"name"`
	Permissions Permission `json:"permissions,omitempty"` // Only populated on interactions
}

// VoiceStateChange is a member moving between voice channels.
// An empty channel ID means "not in voice".
type VoiceStateChange struct {
	GuildID         string `json:"guild_id"`
	Member          Member `json:"member"`
	BeforeChannelID string `json:"before_channel_id,omitempty"`
	AfterChannelID  string `json:"after_channel_id,omitempty"`
}

// ComponentInteraction is a click on an interactive control.
type ComponentInteraction struct {
	ID        string `json:"id"`
	AppID     string `json:"app_id"`
	Token     string `json:"token"`
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	CustomID  string `json:"custom_id"`
	Invoker   Member `json:"invoker"`

	// Deferred is set once the interaction was acknowledged without a
	// message; the answer then replaces the pending response.
	Deferred bool `json:"-"`
}
