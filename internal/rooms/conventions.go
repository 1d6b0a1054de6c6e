package rooms

import (
	"errors"
	"strings"
)

// Conventions holds the reserved names the orchestrator recognizes.
// They are group-independent: every guild uses the same names.
type Conventions struct {
	CategoryName   string // Managed category, e.g. "MakeRoom"
	TriggerName    string // Trigger voice channel, e.g. "+ Create Room"
	RoomPrefix     string // Prepended to the creator's name
	RoomSuffix     string // Appended to the creator's name; identifies personal rooms
	ModChannelName string // Text channel that receives the greeting
}

// DefaultConventions returns the stock MakeRoom names.
func DefaultConventions() Conventions {
	return Conventions{
		CategoryName:   "MakeRoom",
		TriggerName:    "+ Create Room",
		RoomPrefix:     "🏠 ",
		RoomSuffix:     "'s Room",
		ModChannelName: "moderator-only",
	}
}

// RoomName returns the deterministic personal room name of a member.
func (c Conventions) RoomName(memberName string) string {
	return c.RoomPrefix + memberName + c.RoomSuffix
}

// IsRoomName reports whether a channel name follows the personal room convention.
func (c Conventions) IsRoomName(name string) bool {
	return strings.HasSuffix(name, c.RoomSuffix)
}

func (c Conventions) validate() error {
	switch {
	case c.CategoryName == "":
		return errors.New("category name is required")
	case c.TriggerName == "":
		return errors.New("trigger channel name is required")
	case c.RoomSuffix == "":
		return errors.New("room suffix is required")
	case strings.HasSuffix(c.TriggerName, c.RoomSuffix):
		// The trigger would be reclaimed as soon as it emptied.
		return errors.New("trigger channel name must not look like a personal room")
	}
	return nil
}
