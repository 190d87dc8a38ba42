package game

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HemantKumar822/doodle-party/domain"
	"github.com/HemantKumar822/doodle-party/words"
)

func newTestSession(t *testing.T, store Store, room domain.Room, selfID string) *Session {
	t.Helper()
	return NewSession(SessionDeps{
		Store:  store,
		Picker: words.NewPicker(1),
		Log:    zerolog.Nop(),
	}, room, selfID)
}

func drainNotices(s *Session) []Notice {
	var out []Notice
	for {
		select {
		case n := <-s.Notices():
			out = append(out, n)
		default:
			return out
		}
	}
}

func noticeKinds(ns []Notice) []NoticeKind {
	kinds := make([]NoticeKind, len(ns))
	for i, n := range ns {
		kinds[i] = n.Kind
	}
	return kinds
}

func TestHandleRoomUpdateTurnBoundaryResetsCanvas(t *testing.T) {
	players := []domain.Player{
		{ID: "p0", TurnOrder: 0, IsHost: true},
		{ID: "p1", TurnOrder: 1},
	}
	store := &MockStore{}
	store.On("ListPlayers", mock.Anything, "room-1").Return(players, nil)

	room := domain.Room{ID: "room-1", Status: domain.RoomPlaying, MaxRounds: 3}
	s := newTestSession(t, store, room, "p1")
	s.roster.SetPlayers(players)
	s.history.Push(s.canvas.Snapshot())
	require.Equal(t, 1, s.history.Len())

	selectedAt := time.Now()
	endsAt := selectedAt.Add(80 * time.Second)
	word := "guitar"
	next := room
	next.CurrentWord = &word
	next.WordSelectedAt = &selectedAt
	next.TurnEndsAt = &endsAt

	s.handleRoomUpdate(context.Background(), next)

	assert.Equal(t, 0, s.history.Len())
	assert.Contains(t, noticeKinds(drainNotices(s)), NoticeCanvasChanged)
	assert.Equal(t, next, s.room)
}

func TestHandleRoomUpdateEmitsGameOverOnce(t *testing.T) {
	store := &MockStore{}
	store.On("ListPlayers", mock.Anything, "room-1").Return([]domain.Player{}, nil)

	room := domain.Room{ID: "room-1", Status: domain.RoomPlaying}
	s := newTestSession(t, store, room, "p0")

	finished := room
	finished.Status = domain.RoomFinished
	s.handleRoomUpdate(context.Background(), finished)
	assert.Contains(t, noticeKinds(drainNotices(s)), NoticeGameOver)

	// A later update of the already-finished room does not repeat it.
	s.handleRoomUpdate(context.Background(), finished)
	assert.NotContains(t, noticeKinds(drainNotices(s)), NoticeGameOver)
}

func TestHandleRoomUpdateOffersWordsToDrawer(t *testing.T) {
	players := []domain.Player{
		{ID: "p0", TurnOrder: 0, IsHost: true},
		{ID: "p1", TurnOrder: 1},
	}
	store := &MockStore{}
	store.On("ListPlayers", mock.Anything, "room-1").Return(players, nil)

	room := domain.Room{
		ID:                 "room-1",
		Status:             domain.RoomWaiting,
		MaxRounds:          3,
		CurrentDrawerIndex: 1,
		Settings:           domain.DefaultSettings(),
	}
	s := newTestSession(t, store, room, "p1")
	s.roster.SetPlayers(players)

	playing := room
	playing.Status = domain.RoomPlaying
	s.handleRoomUpdate(context.Background(), playing)

	require.Len(t, s.choices, room.Settings.WordChoiceCount)
	kinds := noticeKinds(drainNotices(s))
	assert.Contains(t, kinds, NoticeWordChoices)
	assert.Contains(t, kinds, NoticeYourTurn)
}

func TestHandleRoomUpdateNoWordsForGuesser(t *testing.T) {
	players := []domain.Player{
		{ID: "p0", TurnOrder: 0, IsHost: true},
		{ID: "p1", TurnOrder: 1},
	}
	store := &MockStore{}
	store.On("ListPlayers", mock.Anything, "room-1").Return(players, nil)

	room := domain.Room{ID: "room-1", Status: domain.RoomWaiting, Settings: domain.DefaultSettings()}
	s := newTestSession(t, store, room, "p1")
	s.roster.SetPlayers(players)

	playing := room
	playing.Status = domain.RoomPlaying
	s.handleRoomUpdate(context.Background(), playing)

	assert.Nil(t, s.choices)
	assert.NotContains(t, noticeKinds(drainNotices(s)), NoticeWordChoices)
}

func TestHandleGuessInsertEmitsChat(t *testing.T) {
	s := newTestSession(t, &MockStore{}, domain.Room{ID: "room-1"}, "p0")

	s.handleGuessInsert(domain.Guess{PlayerID: "p1", GuessText: "banana"})

	ns := drainNotices(s)
	require.Len(t, ns, 1)
	assert.Equal(t, NoticeChat, ns[0].Kind)
	assert.Equal(t, "banana", ns[0].Guess.GuessText)
}

func TestSyncHostRoleTogglesPoller(t *testing.T) {
	players := []domain.Player{
		{ID: "p0", TurnOrder: 0, IsHost: true},
		{ID: "p1", TurnOrder: 1},
	}
	store := &MockStore{}
	s := newTestSession(t, store, domain.Room{ID: "room-1"}, "p0")
	s.roster.SetPlayers(players)
	s.roster.SetPresent([]string{"p0", "p1"})

	s.syncHostRole(context.Background())
	assert.True(t, s.isHost)
	select {
	case <-s.poller.start:
	default:
		t.Fatal("poller not started for acting host")
	}

	// Losing the flag stops the poller.
	demoted := []domain.Player{
		{ID: "p0", TurnOrder: 0},
		{ID: "p1", TurnOrder: 1, IsHost: true},
	}
	s.roster.SetPlayers(demoted)
	s.syncHostRole(context.Background())
	assert.False(t, s.isHost)
	select {
	case <-s.poller.stop:
	default:
		t.Fatal("poller not stopped after demotion")
	}
}

func TestLocalTickAutoSelectsAfterDeadline(t *testing.T) {
	selectedNow := time.Now()
	store := &MockStore{}
	store.On("SetTurnWord", mock.Anything, "room-1", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	room := domain.Room{
		ID:       "room-1",
		Status:   domain.RoomPlaying,
		Settings: domain.DefaultSettings(),
	}
	players := []domain.Player{
		{ID: "p0", TurnOrder: 0, IsHost: true},
		{ID: "p1", TurnOrder: 1},
	}
	s := newTestSession(t, store, room, "p0")
	s.roster.SetPlayers(players)
	s.roster.SetPresent([]string{"p0", "p1"})
	s.isHost = true
	s.choices = []words.Word{{Text: "cat", Difficulty: words.Easy}}
	s.selectDeadline = selectedNow.Add(-time.Second)

	s.localTick(context.Background(), selectedNow)

	assert.Nil(t, s.choices)
	store.AssertExpectations(t)
}
