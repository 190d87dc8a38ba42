// Package bus carries the ephemeral side of the game: drawing
// operations and presence. Messages are fire-and-forget broadcasts with
// no durability; a client joining mid-stream has missed whatever came
// before.
package bus

import "context"

// Event is one broadcast message on a named channel.
type Event struct {
	Channel string `json:"channel"`
	Kind    string `json:"kind"`
	Payload []byte `json:"payload"`
}

type Bus interface {
	Publish(ctx context.Context, channel, kind string, payload []byte) error
	// Subscribe returns a channel of events plus a cancel func that
	// tears the subscription down.
	Subscribe(ctx context.Context, channel string) (<-chan Event, func(), error)
}

// Presence tracks live membership on a channel. Watch delivers the full
// member-id set on every membership change; disconnection and genuine
// departure are indistinguishable by design.
type Presence interface {
	Track(ctx context.Context, channel, memberID string) error
	Leave(ctx context.Context, channel, memberID string) error
	Watch(ctx context.Context, channel string) (<-chan []string, func(), error)
}
