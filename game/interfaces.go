package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/HemantKumar822/doodle-party/domain"
)

type RoomStore interface {
	GetRoom(ctx context.Context, id string) (domain.Room, error)
	GetRoomByCode(ctx context.Context, code string) (domain.Room, error)
	CreateRoom(ctx context.Context, code string, settings domain.Settings) (domain.Room, error)
	SetRoomStatus(ctx context.Context, id string, status domain.RoomStatus) error
	SetTurnWord(ctx context.Context, id, word string, selectedAt, endsAt time.Time) error
	ForceTurnEnd(ctx context.Context, id string, now time.Time) error
	AdvanceTurn(ctx context.Context, id string, drawerIndex, round int, status domain.RoomStatus) error
	ResetRoom(ctx context.Context, id string) error
	DeleteRoomIfEmpty(ctx context.Context, id string) error
}

type PlayerStore interface {
	ListPlayers(ctx context.Context, roomID string) ([]domain.Player, error)
	CreatePlayer(ctx context.Context, roomID, displayName string, turnOrder int, isHost bool, avatar json.RawMessage) (domain.Player, error)
	DeletePlayer(ctx context.Context, id string) error
	SetHost(ctx context.Context, playerID string, isHost bool) error
	AddScore(ctx context.Context, playerID string, delta int) error
}

type GuessStore interface {
	InsertGuess(ctx context.Context, g domain.Guess) (domain.Guess, error)
	CorrectGuessesSince(ctx context.Context, roomID string, since time.Time) ([]domain.Guess, error)
	ListGuesses(ctx context.Context, roomID string, limit int) ([]domain.Guess, error)
}

type Store interface {
	RoomStore
	PlayerStore
	GuessStore
}

// ChangeFeed surfaces store row changes as channels: row updates on the
// room row and row inserts on the guess log.
type ChangeFeed interface {
	RoomUpdates(ctx context.Context, roomID string, log zerolog.Logger) (<-chan domain.Room, func(), error)
	GuessInserts(ctx context.Context, roomID string, log zerolog.Logger) (<-chan domain.Guess, func(), error)
}
