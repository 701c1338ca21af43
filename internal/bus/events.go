// Package bus carries the two transport shapes spec.md §4.1 calls for: a
// Kafka pub/sub side for the three inbound event topics, and a Redis list
// for the durable "queue:worldgen" job queue that needs atomic, ordered
// removal semantics a pub/sub topic can't give you.
package bus

import "time"

const (
	TopicDiscordChannel  = "events:discord:channel"
	TopicMinecraftPlayer = "events:minecraft:player"
	TopicWorldActivity   = "events:world:activity"

	QueueWorldgen = "queue:worldgen"
)

// ChannelEventType enumerates the chat-platform category/channel lifecycle
// events carried on TopicDiscordChannel (spec.md §4.2).
type ChannelEventType string

// The set is closed per spec.md §4.1: GroupCreated, GroupDeleted,
// ChannelCreated, ChannelDeleted, ChannelUpdated. Any other eventType is
// logged and dropped by the consumer's default case.
const (
	EventGroupCreated   ChannelEventType = "GroupCreated"
	EventGroupDeleted   ChannelEventType = "GroupDeleted"
	EventChannelCreated ChannelEventType = "ChannelCreated"
	EventChannelUpdated ChannelEventType = "ChannelUpdated"
	EventChannelDeleted ChannelEventType = "ChannelDeleted"
)

// ChannelEvent is the unified envelope for every category/channel mutation
// the consumer sees on TopicDiscordChannel. Unknown fields are tolerated by
// design (spec.md §4.1): the consumer only reads the fields its handler for
// EventType cares about, since the upstream bridge may carry platform fields
// townforge has no use for.
type ChannelEvent struct {
	EventType   ChannelEventType `json:"eventType"`
	ExternalID  string           `json:"externalId"`
	GuildID     string           `json:"guildId,omitempty"`
	ParentID    string           `json:"parentId,omitempty"`
	Name        string           `json:"name,omitempty"`
	Topic       *string          `json:"topic,omitempty"`
	Position    int              `json:"position"`
	// MemberCount is a pointer because spec.md §4.7 distinguishes "not
	// supplied" from "supplied as zero": an omitted field must default to
	// the Medium building tier, which a plain int can't represent, since
	// Go's zero value for a missing JSON field is indistinguishable from
	// an explicit 0. catalogue.Store.UpsertChannel resolves the nil case.
	MemberCount *int      `json:"memberCount,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// PlayerEventType enumerates the presence transitions carried on
// TopicMinecraftPlayer (spec.md §4.1's player-presence event).
type PlayerEventType string

const (
	EventPlayerJoined PlayerEventType = "PlayerJoined"
	EventPlayerLeft   PlayerEventType = "PlayerLeft"
)

// PlayerEvent reports a player join/leave on the game server. The
// consumer's router receives it and only logs it; no other package reads it.
type PlayerEvent struct {
	EventType PlayerEventType `json:"eventType"`
	PlayerID  string          `json:"playerId"`
	Username  string          `json:"username"`
	Timestamp time.Time       `json:"timestamp"`
}

// ActivityEvent reports a broadcastable world event (building completed,
// village founded) for anything downstream that wants a live feed. The
// query API has no route that serves these events.
type ActivityEvent struct {
	Kind      string    `json:"kind"`
	Summary   string    `json:"summary"`
	CenterX   int       `json:"centerX"`
	CenterZ   int       `json:"centerZ"`
	Timestamp time.Time `json:"timestamp"`
}
