package domain

import "errors"

var (
	DatabaseError    = errors.New("database-error")
	ErrRoomNotFound  = errors.New("room-not-found")
	ErrRoomFull      = errors.New("room-full")
	ErrCodeNotFound  = errors.New("room-code-not-found")
	ErrDuplicateCode = errors.New("duplicate-room-code")
)

var (
	ErrPlayerNotFound  = errors.New("player-not-found")
	ErrTurnOrderTaken  = errors.New("turn-order-taken")
	ErrNotHost         = errors.New("not-host")
	ErrNotDrawer       = errors.New("not-drawer")
	ErrTooFewPlayers   = errors.New("too-few-players")
	ErrGameNotWaiting  = errors.New("game-not-waiting")
	ErrGameNotFinished = errors.New("game-not-finished")
)

var ErrInconsistentTurnState = errors.New("inconsistent-turn-state")
