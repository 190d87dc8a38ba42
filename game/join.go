package game

import (
	"context"
	"encoding/json"
	"errors"

	nanoid "github.com/jaevor/go-nanoid"

	"github.com/HemantKumar822/doodle-party/domain"
)

// Join codes avoid lookalike characters so they survive being read out
// loud across the room.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 6

func NewRoomCode() (string, error) {
	gen, err := nanoid.CustomASCII(roomCodeAlphabet, roomCodeLength)
	if err != nil {
		return "", err
	}
	return gen(), nil
}

// CreateRoom creates the room row and joins the creator as player 0
// with the host flag.
func CreateRoom(ctx context.Context, store Store, displayName string, avatar json.RawMessage, settings domain.Settings) (domain.Room, domain.Player, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		code, err := NewRoomCode()
		if err != nil {
			return domain.Room{}, domain.Player{}, err
		}
		room, err := store.CreateRoom(ctx, code, settings)
		if errors.Is(err, domain.ErrDuplicateCode) {
			lastErr = err
			continue
		}
		if err != nil {
			return domain.Room{}, domain.Player{}, err
		}
		player, err := store.CreatePlayer(ctx, room.ID, displayName, 0, true, avatar)
		if err != nil {
			return domain.Room{}, domain.Player{}, err
		}
		return room, player, nil
	}
	return domain.Room{}, domain.Player{}, lastErr
}

// JoinRoom adds a player to an existing room by join code. The new
// player's turn order starts at the current player count; on an ordinal
// collision with a concurrent join it retries upward, so the uniqueness
// invariant holds without a lock.
func JoinRoom(ctx context.Context, store Store, code, displayName string, avatar json.RawMessage) (domain.Room, domain.Player, error) {
	room, err := store.GetRoomByCode(ctx, code)
	if err != nil {
		return domain.Room{}, domain.Player{}, err
	}

	players, err := store.ListPlayers(ctx, room.ID)
	if err != nil {
		return domain.Room{}, domain.Player{}, err
	}
	if len(players) >= room.Settings.MaxPlayers {
		return domain.Room{}, domain.Player{}, domain.ErrRoomFull
	}

	order := len(players)
	for attempt := 0; attempt < room.Settings.MaxPlayers+1; attempt++ {
		player, err := store.CreatePlayer(ctx, room.ID, displayName, order, len(players) == 0, avatar)
		if errors.Is(err, domain.ErrTurnOrderTaken) {
			order++
			continue
		}
		if err != nil {
			return domain.Room{}, domain.Player{}, err
		}
		return room, player, nil
	}
	return domain.Room{}, domain.Player{}, domain.ErrTurnOrderTaken
}
