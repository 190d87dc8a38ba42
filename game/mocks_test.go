package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/HemantKumar822/doodle-party/domain"
)

// --- Store ---

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockStore) GetRoomByCode(ctx context.Context, code string) (domain.Room, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockStore) CreateRoom(ctx context.Context, code string, settings domain.Settings) (domain.Room, error) {
	args := m.Called(ctx, code, settings)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockStore) SetRoomStatus(ctx context.Context, id string, status domain.RoomStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockStore) SetTurnWord(ctx context.Context, id, word string, selectedAt, endsAt time.Time) error {
	return m.Called(ctx, id, word, selectedAt, endsAt).Error(0)
}

func (m *MockStore) ForceTurnEnd(ctx context.Context, id string, now time.Time) error {
	return m.Called(ctx, id, now).Error(0)
}

func (m *MockStore) AdvanceTurn(ctx context.Context, id string, drawerIndex, round int, status domain.RoomStatus) error {
	return m.Called(ctx, id, drawerIndex, round, status).Error(0)
}

func (m *MockStore) ResetRoom(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) DeleteRoomIfEmpty(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) ListPlayers(ctx context.Context, roomID string) ([]domain.Player, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).([]domain.Player), args.Error(1)
}

func (m *MockStore) CreatePlayer(ctx context.Context, roomID, displayName string, turnOrder int, isHost bool, avatar json.RawMessage) (domain.Player, error) {
	args := m.Called(ctx, roomID, displayName, turnOrder, isHost, avatar)
	return args.Get(0).(domain.Player), args.Error(1)
}

func (m *MockStore) DeletePlayer(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) SetHost(ctx context.Context, playerID string, isHost bool) error {
	return m.Called(ctx, playerID, isHost).Error(0)
}

func (m *MockStore) AddScore(ctx context.Context, playerID string, delta int) error {
	return m.Called(ctx, playerID, delta).Error(0)
}

func (m *MockStore) InsertGuess(ctx context.Context, g domain.Guess) (domain.Guess, error) {
	args := m.Called(ctx, g)
	return args.Get(0).(domain.Guess), args.Error(1)
}

func (m *MockStore) CorrectGuessesSince(ctx context.Context, roomID string, since time.Time) ([]domain.Guess, error) {
	args := m.Called(ctx, roomID, since)
	return args.Get(0).([]domain.Guess), args.Error(1)
}

func (m *MockStore) ListGuesses(ctx context.Context, roomID string, limit int) ([]domain.Guess, error) {
	args := m.Called(ctx, roomID, limit)
	return args.Get(0).([]domain.Guess), args.Error(1)
}
