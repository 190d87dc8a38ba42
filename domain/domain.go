package domain

import (
	"encoding/json"
	"time"
)

type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

type GameMode string

const (
	ModeClassic GameMode = "classic"
	ModeFast    GameMode = "fast"
	ModeRelay   GameMode = "relay"
)

// Settings is stored as the settings_json column on the room row.
type Settings struct {
	MaxPlayers      int      `json:"max_players"`
	DrawTimeSeconds int      `json:"draw_time"`
	Rounds          int      `json:"rounds"`
	WordChoiceCount int      `json:"word_count"`
	GameMode        GameMode `json:"game_mode"`
	HintsEnabled    bool     `json:"hints"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:      8,
		DrawTimeSeconds: 80,
		Rounds:          3,
		WordChoiceCount: 3,
		GameMode:        ModeClassic,
		HintsEnabled:    true,
	}
}

// TurnPhase is never stored; it is derived from the two nullable
// turn fields on the room row.
type TurnPhase int

const (
	PhaseIdle TurnPhase = iota
	PhaseSelecting
	PhaseDrawing
	PhaseReveal
)

type Room struct {
	ID                 string
	RoomCode           string
	Status             RoomStatus
	CurrentRound       int
	MaxRounds          int
	CurrentDrawerIndex int
	CurrentWord        *string
	WordSelectedAt     *time.Time
	TurnEndsAt         *time.Time
	Settings           Settings
}

// Validate checks the turn-field invariant: a word is selected iff a
// turn deadline exists.
func (r Room) Validate() error {
	if (r.CurrentWord == nil) != (r.TurnEndsAt == nil) {
		return ErrInconsistentTurnState
	}
	return nil
}

func (r Room) Phase(now time.Time) TurnPhase {
	if r.Status != RoomPlaying {
		return PhaseIdle
	}
	if r.CurrentWord == nil {
		return PhaseSelecting
	}
	if r.TurnEndsAt != nil && now.Before(*r.TurnEndsAt) {
		return PhaseDrawing
	}
	return PhaseReveal
}

type Player struct {
	ID          string
	RoomID      string
	DisplayName string
	Score       int
	IsHost      bool
	// Connected is derived from presence, never read back from the store.
	Connected bool
	TurnOrder int
	Avatar    json.RawMessage
}

// Guess rows are append-only; they double as the chat log and as the
// source of truth for "who solved this turn" queries.
type Guess struct {
	ID            string
	RoomID        string
	PlayerID      string
	GuessText     string
	IsCorrect     bool
	PointsAwarded int
	GuessedAt     time.Time
}
