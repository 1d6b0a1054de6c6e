package models

// ChannelType distinguishes the kinds of guild channels the bot works with.
type ChannelType int

const (
	ChannelText ChannelType = iota
	ChannelVoice
	ChannelCategory
	ChannelOther // Stage, forum, thread and other kinds the bot ignores
)

func (t ChannelType) String() string {
	switch t {
	case ChannelText:
		return "text"
	case ChannelVoice:
		return "voice"
	case ChannelCategory:
		return "category"
	default:
		return "unknown"
	}
}

// Permission is a bit set of channel rights, using the platform's bit values.
type Permission int64

const (
	PermAdministrator  Permission = 1 << 3
	PermManageChannels Permission = 1 << 4
	PermViewChannel    Permission = 1 << 10
	PermSendMessages   Permission = 1 << 11
	PermConnect        Permission = 1 << 20
)

// Has reports whether every bit of p is set.
func (perm Permission) Has(p Permission) bool {
	return perm&p == p
}

// OverwriteTarget says whether an overwrite applies to a role or a single member.
type OverwriteTarget int

const (
	OverwriteRole OverwriteTarget = iota
	OverwriteMember
)

// Overwrite is a per-channel, per-scope override of rights.
type Overwrite struct {
	TargetID   string          `json:"target_id"`
	TargetType OverwriteTarget `json:"target_type"`
	Allow      Permission      `json:"allow"`
	Deny       Permission      `json:"deny"`
}

// Channel is a guild channel: text, voice or category.
type Channel struct {
	ID         string      `json:"id"`
	GuildID    string      `json:"guild_id"`
	ParentID   string      `json:"parent_id,omitempty"` // Category ID, empty at top level
	Name       string      `json:"name"`
	Type       ChannelType `json:"type"`
	Overwrites []Overwrite `json:"overwrites,omitempty"`
}

// Overwrite returns the overwrite for targetID, if any.
func (c *Channel) Overwrite(targetID string) (Overwrite, bool) {
	for _, ow := range c.Overwrites {
		if ow.TargetID == targetID {
			return ow, true
		}
	}
	return Overwrite{}, false
}

// IsVoice reports whether the channel is a voice channel.
func (c *Channel) IsVoice() bool {
	return c.Type == ChannelVoice
}

// IsCategory reports whether the channel is a category.
func (c *Channel) IsCategory() bool {
	return c.Type == ChannelCategory
}
