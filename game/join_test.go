package game

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HemantKumar822/doodle-party/domain"
)

func TestNewRoomCode(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		code, err := NewRoomCode()
		require.NoError(t, err)
		assert.Len(t, code, roomCodeLength)
		for _, r := range code {
			assert.Contains(t, roomCodeAlphabet, string(r))
		}
		seen[code] = struct{}{}
	}
	// 32^6 codes; 50 draws colliding would mean a broken generator.
	assert.Len(t, seen, 50)
}

func TestCreateRoom(t *testing.T) {
	settings := domain.DefaultSettings()
	avatar := json.RawMessage(`{"color":"#e74c3c"}`)

	t.Run("creator becomes host at turn order zero", func(t *testing.T) {
		store := &MockStore{}
		store.On("CreateRoom", mock.Anything, mock.Anything, settings).
			Return(domain.Room{ID: "room-1", RoomCode: "ABC234"}, nil).Once()
		store.On("CreatePlayer", mock.Anything, "room-1", "ada", 0, true, avatar).
			Return(domain.Player{ID: "p0", RoomID: "room-1", DisplayName: "ada", IsHost: true}, nil).Once()

		room, player, err := CreateRoom(context.Background(), store, "ada", avatar, settings)

		require.NoError(t, err)
		assert.Equal(t, "room-1", room.ID)
		assert.True(t, player.IsHost)
		store.AssertExpectations(t)
	})

	t.Run("retries on a code collision", func(t *testing.T) {
		store := &MockStore{}
		store.On("CreateRoom", mock.Anything, mock.Anything, settings).
			Return(domain.Room{}, domain.ErrDuplicateCode).Twice()
		store.On("CreateRoom", mock.Anything, mock.Anything, settings).
			Return(domain.Room{ID: "room-1"}, nil).Once()
		store.On("CreatePlayer", mock.Anything, "room-1", "ada", 0, true, avatar).
			Return(domain.Player{ID: "p0"}, nil).Once()

		_, _, err := CreateRoom(context.Background(), store, "ada", avatar, settings)

		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("gives up after persistent collisions", func(t *testing.T) {
		store := &MockStore{}
		store.On("CreateRoom", mock.Anything, mock.Anything, settings).
			Return(domain.Room{}, domain.ErrDuplicateCode).Times(3)

		_, _, err := CreateRoom(context.Background(), store, "ada", avatar, settings)

		assert.ErrorIs(t, err, domain.ErrDuplicateCode)
	})
}

func TestJoinRoom(t *testing.T) {
	avatar := json.RawMessage(`{"color":"#3498db"}`)
	room := domain.Room{ID: "room-1", RoomCode: "ABC234", Settings: domain.DefaultSettings()}
	roster := []domain.Player{
		{ID: "p0", TurnOrder: 0, IsHost: true},
		{ID: "p1", TurnOrder: 1},
	}

	t.Run("takes the next turn order", func(t *testing.T) {
		store := &MockStore{}
		store.On("GetRoomByCode", mock.Anything, "ABC234").Return(room, nil).Once()
		store.On("ListPlayers", mock.Anything, "room-1").Return(roster, nil).Once()
		store.On("CreatePlayer", mock.Anything, "room-1", "bob", 2, false, avatar).
			Return(domain.Player{ID: "p2", TurnOrder: 2}, nil).Once()

		_, player, err := JoinRoom(context.Background(), store, "ABC234", "bob", avatar)

		require.NoError(t, err)
		assert.Equal(t, 2, player.TurnOrder)
		store.AssertExpectations(t)
	})

	t.Run("retries upward when a concurrent join took the ordinal", func(t *testing.T) {
		store := &MockStore{}
		store.On("GetRoomByCode", mock.Anything, "ABC234").Return(room, nil).Once()
		store.On("ListPlayers", mock.Anything, "room-1").Return(roster, nil).Once()
		store.On("CreatePlayer", mock.Anything, "room-1", "bob", 2, false, avatar).
			Return(domain.Player{}, domain.ErrTurnOrderTaken).Once()
		store.On("CreatePlayer", mock.Anything, "room-1", "bob", 3, false, avatar).
			Return(domain.Player{ID: "p3", TurnOrder: 3}, nil).Once()

		_, player, err := JoinRoom(context.Background(), store, "ABC234", "bob", avatar)

		require.NoError(t, err)
		assert.Equal(t, 3, player.TurnOrder)
		store.AssertExpectations(t)
	})

	t.Run("room full", func(t *testing.T) {
		small := room
		small.Settings.MaxPlayers = 2
		store := &MockStore{}
		store.On("GetRoomByCode", mock.Anything, "ABC234").Return(small, nil).Once()
		store.On("ListPlayers", mock.Anything, "room-1").Return(roster, nil).Once()

		_, _, err := JoinRoom(context.Background(), store, "ABC234", "bob", avatar)

		assert.ErrorIs(t, err, domain.ErrRoomFull)
		store.AssertNotCalled(t, "CreatePlayer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown code", func(t *testing.T) {
		store := &MockStore{}
		store.On("GetRoomByCode", mock.Anything, "ZZZZZZ").Return(domain.Room{}, domain.ErrCodeNotFound).Once()

		_, _, err := JoinRoom(context.Background(), store, "ZZZZZZ", "bob", avatar)

		assert.ErrorIs(t, err, domain.ErrCodeNotFound)
	})
}
