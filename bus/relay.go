package bus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	relayWriteWait = 10 * time.Second
	relayPongWait  = time.Minute
	relayPingEvery = 30 * time.Second
)

// RelayBus implements Bus and Presence over a single websocket to a
// dumb fan-out relay. The relay holds no game state: it mirrors
// broadcast frames to every subscriber of a topic and maintains the
// per-topic presence roster from track/leave frames.
type RelayBus struct {
	conn *websocket.Conn
	log  zerolog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	subs     map[string][]chan Event
	watchers map[string][]chan []string
	joined   map[string]bool
}

type relayFrame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

const (
	frameJoin          = "join"
	frameBroadcast     = "broadcast"
	framePresenceTrack = "presence_track"
	framePresenceLeave = "presence_leave"
	framePresenceState = "presence_state"
)

func DialRelay(ctx context.Context, url string, log zerolog.Logger) (*RelayBus, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	conn.SetReadDeadline(time.Now().Add(relayPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(relayPongWait))
		return nil
	})

	b := &RelayBus{
		conn:     conn,
		log:      log,
		subs:     make(map[string][]chan Event),
		watchers: make(map[string][]chan []string),
		joined:   make(map[string]bool),
	}
	go b.readPump()
	go b.pingLoop(ctx)
	return b, nil
}

func (b *RelayBus) Close() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
	b.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return b.conn.Close()
}

func (b *RelayBus) write(frame relayFrame) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
	return b.conn.WriteJSON(frame)
}

func (b *RelayBus) join(topic string) error {
	b.mu.Lock()
	already := b.joined[topic]
	b.joined[topic] = true
	b.mu.Unlock()
	if already {
		return nil
	}
	return b.write(relayFrame{Topic: topic, Event: frameJoin})
}

func (b *RelayBus) Publish(_ context.Context, channel, kind string, payload []byte) error {
	raw, err := json.Marshal(wireEvent{Kind: kind, Payload: payload})
	if err != nil {
		return err
	}
	if err := b.join(channel); err != nil {
		return err
	}
	return b.write(relayFrame{Topic: channel, Event: frameBroadcast, Payload: raw})
}

func (b *RelayBus) Subscribe(ctx context.Context, channel string) (<-chan Event, func(), error) {
	if err := b.join(channel); err != nil {
		return nil, nil, err
	}

	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		b.subs[channel] = removeChan(b.subs[channel], ch)
		b.mu.Unlock()
	}
	return ch, cancel, nil
}

type presencePayload struct {
	Member  string   `json:"member,omitempty"`
	Members []string `json:"members,omitempty"`
}

func (b *RelayBus) Track(ctx context.Context, channel, memberID string) error {
	if err := b.join(channel); err != nil {
		return err
	}
	raw, err := json.Marshal(presencePayload{Member: memberID})
	if err != nil {
		return err
	}
	return b.write(relayFrame{Topic: channel, Event: framePresenceTrack, Payload: raw})
}

func (b *RelayBus) Leave(ctx context.Context, channel, memberID string) error {
	raw, err := json.Marshal(presencePayload{Member: memberID})
	if err != nil {
		return err
	}
	return b.write(relayFrame{Topic: channel, Event: framePresenceLeave, Payload: raw})
}

func (b *RelayBus) Watch(ctx context.Context, channel string) (<-chan []string, func(), error) {
	if err := b.join(channel); err != nil {
		return nil, nil, err
	}

	ch := make(chan []string, 8)
	b.mu.Lock()
	b.watchers[channel] = append(b.watchers[channel], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		b.watchers[channel] = removeChan(b.watchers[channel], ch)
		b.mu.Unlock()
	}
	return ch, cancel, nil
}

func (b *RelayBus) readPump() {
	defer b.closeAll()
	for {
		var frame relayFrame
		if err := b.conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Event {
		case frameBroadcast:
			var we wireEvent
			if err := json.Unmarshal(frame.Payload, &we); err != nil {
				b.log.Warn().Err(err).Str("topic", frame.Topic).Msg("dropping malformed relay event")
				continue
			}
			b.mu.Lock()
			for _, ch := range b.subs[frame.Topic] {
				select {
				case ch <- Event{Channel: frame.Topic, Kind: we.Kind, Payload: we.Payload}:
				default:
					// Slow consumer: drop rather than stall the pump.
				}
			}
			b.mu.Unlock()

		case framePresenceState:
			var pp presencePayload
			if err := json.Unmarshal(frame.Payload, &pp); err != nil {
				b.log.Warn().Err(err).Str("topic", frame.Topic).Msg("dropping malformed presence state")
				continue
			}
			b.mu.Lock()
			for _, ch := range b.watchers[frame.Topic] {
				select {
				case ch <- pp.Members:
				default:
				}
			}
			b.mu.Unlock()
		}
	}
}

func (b *RelayBus) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(relayPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.writeMu.Lock()
			b.conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
			err := b.conn.WriteMessage(websocket.PingMessage, nil)
			b.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (b *RelayBus) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
		delete(b.subs, topic)
	}
	for topic, chans := range b.watchers {
		for _, ch := range chans {
			close(ch)
		}
		delete(b.watchers, topic)
	}
}

func removeChan[T any](chans []chan T, target chan T) []chan T {
	out := chans[:0]
	for _, ch := range chans {
		if ch != target {
			out = append(out, ch)
		}
	}
	return out
}
