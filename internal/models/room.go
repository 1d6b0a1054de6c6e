package models

import "time"

// RoomOwner binds a personal room to the member who created it.
type RoomOwner struct {
	RoomID    string    `json:"room_id"`
	GuildID   string    `json:"guild_id"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EventKind names a lifecycle event recorded in the audit log.
type EventKind string

const (
	EventRoomCreated       EventKind = "room_created"
	EventRoomReused        EventKind = "room_reused"
	EventRoomReclaimed     EventKind = "room_reclaimed"
	EventRoomPrivate       EventKind = "room_private"
	EventRoomPublic        EventKind = "room_public"
	EventCategoryCreated   EventKind = "category_created"
	EventCategoryRecreated EventKind = "category_recreated"
	EventCategoryRemoved   EventKind = "category_removed"
	EventGreetingSent      EventKind = "greeting_sent"
)

// LifecycleEvent is one entry of the audit log.
type LifecycleEvent struct {
	ID        string    `json:"id"` // ULID
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	MemberID  string    `json:"member_id,omitempty"`
	Kind      EventKind `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp int64     `json:"ts"` // Unix ms
}
