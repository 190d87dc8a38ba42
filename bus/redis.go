package bus

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	presenceTTL       = 15 * time.Second
	heartbeatInterval = 5 * time.Second
	watchInterval     = 2 * time.Second
)

// RedisBus implements Bus and Presence on a redis deployment: pub/sub
// for broadcasts, TTL heartbeat keys for presence. Presence membership
// is the set of unexpired heartbeat keys, so a silently dropped client
// falls out within one TTL.
type RedisBus struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisBus(client *redis.Client, log zerolog.Logger) *RedisBus {
	return &RedisBus{client: client, log: log}
}

type wireEvent struct {
	Kind    string `json:"kind"`
	Payload []byte `json:"payload"`
}

func (b *RedisBus) Publish(ctx context.Context, channel, kind string, payload []byte) error {
	raw, err := json.Marshal(wireEvent{Kind: kind, Payload: payload})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, raw).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) (<-chan Event, func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	sub := b.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		return nil, nil, err
	}

	out := make(chan Event, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var we wireEvent
				if err := json.Unmarshal([]byte(msg.Payload), &we); err != nil {
					b.log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed bus event")
					continue
				}
				select {
				case out <- Event{Channel: channel, Kind: we.Kind, Payload: we.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, cancel, nil
}

func presenceKey(channel, memberID string) string {
	return "presence:" + channel + ":" + memberID
}

// Track registers the member and keeps its heartbeat key refreshed
// until ctx is cancelled or Leave is called.
func (b *RedisBus) Track(ctx context.Context, channel, memberID string) error {
	key := presenceKey(channel, memberID)
	if err := b.client.Set(ctx, key, "1", presenceTTL).Err(); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := b.client.Set(ctx, key, "1", presenceTTL).Err(); err != nil && ctx.Err() == nil {
					b.log.Warn().Err(err).Str("member", memberID).Msg("presence heartbeat failed")
				}
			}
		}
	}()

	return nil
}

func (b *RedisBus) Leave(ctx context.Context, channel, memberID string) error {
	return b.client.Del(ctx, presenceKey(channel, memberID)).Err()
}

// Watch polls the heartbeat keyspace and emits the member set whenever
// it changes, plus once immediately on subscribe.
func (b *RedisBus) Watch(ctx context.Context, channel string) (<-chan []string, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []string, 8)

	go func() {
		defer close(out)
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		var last []string
		emit := func() {
			members, err := b.members(ctx, channel)
			if err != nil {
				if ctx.Err() == nil {
					b.log.Warn().Err(err).Msg("presence scan failed")
				}
				return
			}
			if equalSets(members, last) && last != nil {
				return
			}
			last = members
			select {
			case out <- members:
			case <-ctx.Done():
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				emit()
			}
		}
	}()

	return out, cancel, nil
}

func (b *RedisBus) members(ctx context.Context, channel string) ([]string, error) {
	prefix := "presence:" + channel + ":"
	members := []string{}

	iter := b.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		members = append(members, iter.Val()[len(prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(members)
	return members, nil
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
