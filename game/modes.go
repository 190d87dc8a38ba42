package game

import (
	"time"

	"github.com/HemantKumar822/doodle-party/domain"
)

// ModeParams are the per-game-mode knobs applied on top of the room
// settings.
type ModeParams struct {
	TimeMultiplier   float64
	PointsMultiplier float64
	SelectionTimeout time.Duration
	// RelayPasses is how many drawer segments one turn is split into.
	// 1 means the drawer keeps the whole turn.
	RelayPasses int
}

func ParamsFor(mode domain.GameMode) ModeParams {
	switch mode {
	case domain.ModeFast:
		return ModeParams{
			TimeMultiplier:   0.5,
			PointsMultiplier: 1.5,
			SelectionTimeout: 5 * time.Second,
			RelayPasses:      1,
		}
	case domain.ModeRelay:
		return ModeParams{
			TimeMultiplier:   1.0,
			PointsMultiplier: 1.0,
			SelectionTimeout: 10 * time.Second,
			RelayPasses:      3,
		}
	default:
		return ModeParams{
			TimeMultiplier:   1.0,
			PointsMultiplier: 1.0,
			SelectionTimeout: 10 * time.Second,
			RelayPasses:      1,
		}
	}
}

// EffectiveDrawTime is the full turn length: configured draw time
// scaled by the mode's time multiplier. In relay mode the turn is
// additionally split into RelayPasses equal segments (see SegmentLength),
// not shortened.
func EffectiveDrawTime(s domain.Settings) time.Duration {
	p := ParamsFor(s.GameMode)
	return time.Duration(float64(s.DrawTimeSeconds) * p.TimeMultiplier * float64(time.Second)).Round(time.Millisecond)
}

func SegmentLength(s domain.Settings) time.Duration {
	p := ParamsFor(s.GameMode)
	return EffectiveDrawTime(s) / time.Duration(p.RelayPasses)
}
