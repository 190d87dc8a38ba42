package bus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRelay is the minimal fan-out server the relay transport expects:
// it mirrors broadcast frames back to every connection joined to the
// topic and rebuilds the presence roster from track/leave frames.
type fakeRelay struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    map[*websocket.Conn]map[string]bool
	presence map[string]map[string]bool
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{
		conns:    make(map[*websocket.Conn]map[string]bool),
		presence: make(map[string]map[string]bool),
	}
}

func (fr *fakeRelay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := fr.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	fr.mu.Lock()
	fr.conns[conn] = make(map[string]bool)
	fr.mu.Unlock()

	defer func() {
		fr.mu.Lock()
		delete(fr.conns, conn)
		fr.mu.Unlock()
		conn.Close()
	}()

	for {
		var frame relayFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Event {
		case frameJoin:
			fr.mu.Lock()
			fr.conns[conn][frame.Topic] = true
			fr.mu.Unlock()
		case frameBroadcast:
			fr.fanOut(frame)
		case framePresenceTrack, framePresenceLeave:
			var pp presencePayload
			if err := json.Unmarshal(frame.Payload, &pp); err != nil {
				continue
			}
			fr.mu.Lock()
			if fr.presence[frame.Topic] == nil {
				fr.presence[frame.Topic] = make(map[string]bool)
			}
			if frame.Event == framePresenceTrack {
				fr.presence[frame.Topic][pp.Member] = true
			} else {
				delete(fr.presence[frame.Topic], pp.Member)
			}
			members := make([]string, 0, len(fr.presence[frame.Topic]))
			for m := range fr.presence[frame.Topic] {
				members = append(members, m)
			}
			fr.mu.Unlock()

			raw, _ := json.Marshal(presencePayload{Members: members})
			fr.fanOut(relayFrame{Topic: frame.Topic, Event: framePresenceState, Payload: raw})
		}
	}
}

func (fr *fakeRelay) fanOut(frame relayFrame) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	for conn, topics := range fr.conns {
		if topics[frame.Topic] {
			conn.WriteJSON(frame)
		}
	}
}

func dialTestRelay(t *testing.T) *RelayBus {
	t.Helper()
	srv := httptest.NewServer(newFakeRelay())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	b, err := DialRelay(context.Background(), url, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestRelayPublishReachesSubscriber(t *testing.T) {
	b := dialTestRelay(t)
	ctx := context.Background()

	events, cancel, err := b.Subscribe(ctx, "room:1:draw")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, b.Publish(ctx, "room:1:draw", "draw", []byte(`{"x":1}`)))

	select {
	case ev := <-events:
		assert.Equal(t, "room:1:draw", ev.Channel)
		assert.Equal(t, "draw", ev.Kind)
		assert.JSONEq(t, `{"x":1}`, string(ev.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestRelaySubscriberDoesNotReceiveOtherTopics(t *testing.T) {
	b := dialTestRelay(t)
	ctx := context.Background()

	events, cancel, err := b.Subscribe(ctx, "room:1:draw")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, b.Publish(ctx, "room:2:draw", "draw", []byte(`{}`)))

	select {
	case ev := <-events:
		t.Fatalf("unexpected cross-topic event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRelayPresenceTrackAndLeave(t *testing.T) {
	b := dialTestRelay(t)
	ctx := context.Background()

	members, cancel, err := b.Watch(ctx, "room:1:presence")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, b.Track(ctx, "room:1:presence", "p0"))
	select {
	case got := <-members:
		assert.Equal(t, []string{"p0"}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no presence sync after track")
	}

	require.NoError(t, b.Leave(ctx, "room:1:presence", "p0"))
	select {
	case got := <-members:
		assert.Empty(t, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no presence sync after leave")
	}
}

func TestRelayCancelledSubscriptionStopsDelivery(t *testing.T) {
	b := dialTestRelay(t)
	ctx := context.Background()

	events, cancel, err := b.Subscribe(ctx, "room:1:draw")
	require.NoError(t, err)
	cancel()

	require.NoError(t, b.Publish(ctx, "room:1:draw", "draw", []byte(`{}`)))

	select {
	case ev, ok := <-events:
		if ok {
			t.Fatalf("event after cancel: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRemoveChan(t *testing.T) {
	a, b, c := make(chan int), make(chan int), make(chan int)
	got := removeChan([]chan int{a, b, c}, b)
	assert.Len(t, got, 2)
	assert.NotContains(t, got, b)
}
