package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }

func TestRoomValidate(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		desc string
		room Room
		err  error
	}{
		{desc: "no word, no deadline", room: Room{}, err: nil},
		{
			desc: "word and deadline",
			room: Room{CurrentWord: strPtr("apple"), TurnEndsAt: timePtr(now)},
			err:  nil,
		},
		{
			desc: "word without deadline",
			room: Room{CurrentWord: strPtr("apple")},
			err:  ErrInconsistentTurnState,
		},
		{
			desc: "deadline without word",
			room: Room{TurnEndsAt: timePtr(now)},
			err:  ErrInconsistentTurnState,
		},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.ErrorIs(t, tC.room.Validate(), tC.err)
		})
	}
}

func TestRoomPhase(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		desc  string
		room  Room
		phase TurnPhase
	}{
		{desc: "waiting room is idle", room: Room{Status: RoomWaiting}, phase: PhaseIdle},
		{desc: "finished room is idle", room: Room{Status: RoomFinished}, phase: PhaseIdle},
		{
			desc:  "playing without word is selecting",
			room:  Room{Status: RoomPlaying},
			phase: PhaseSelecting,
		},
		{
			desc: "deadline in future is drawing",
			room: Room{
				Status:      RoomPlaying,
				CurrentWord: strPtr("apple"),
				TurnEndsAt:  timePtr(now.Add(30 * time.Second)),
			},
			phase: PhaseDrawing,
		},
		{
			desc: "deadline in past is reveal",
			room: Room{
				Status:      RoomPlaying,
				CurrentWord: strPtr("apple"),
				TurnEndsAt:  timePtr(now.Add(-time.Second)),
			},
			phase: PhaseReveal,
		},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.phase, tC.room.Phase(now))
		})
	}
}
