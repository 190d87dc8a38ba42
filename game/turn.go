package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/HemantKumar822/doodle-party/domain"
	"github.com/HemantKumar822/doodle-party/words"
)

// settleDelay gives a just-written guess time to become visible before
// the post-guess "has everyone solved" re-check runs. The poll loop is
// the pull-based safety net behind this push-based fast path.
const settleDelay = 400 * time.Millisecond

// revealDuration is how long the reveal phase lingers before the host
// advances to the next turn.
const revealDuration = 5 * time.Second

// TurnController drives the per-turn phases and round progression. All
// of its writes go through the store's last-write-wins room row; it is
// only ever invoked by the acting host (turn end, advancement) or the
// current drawer (word selection).
type TurnController struct {
	store  Store
	picker *words.Picker
	log    zerolog.Logger
	now    func() time.Time
}

func NewTurnController(store Store, picker *words.Picker, log zerolog.Logger) *TurnController {
	return &TurnController{store: store, picker: picker, log: log, now: time.Now}
}

// StartGame is the host-only waiting -> playing transition.
func (tc *TurnController) StartGame(ctx context.Context, room domain.Room, roster *Roster, selfID string) error {
	self, ok := roster.Get(selfID)
	if !ok || !self.IsHost {
		return domain.ErrNotHost
	}
	if room.Status != domain.RoomWaiting {
		return domain.ErrGameNotWaiting
	}
	if roster.Len() < 2 {
		return domain.ErrTooFewPlayers
	}
	return tc.store.SetRoomStatus(ctx, room.ID, domain.RoomPlaying)
}

// WordChoices draws the drawer's candidate words for this turn.
func (tc *TurnController) WordChoices(room domain.Room) []words.Word {
	return tc.picker.Choices(room.Settings.WordChoiceCount)
}

// SelectionDeadline is when an unselected word is auto-picked.
func (tc *TurnController) SelectionDeadline(room domain.Room, from time.Time) time.Time {
	return from.Add(ParamsFor(room.Settings.GameMode).SelectionTimeout)
}

// SelectWord records the drawer's choice and opens the drawing window.
func (tc *TurnController) SelectWord(ctx context.Context, room domain.Room, w words.Word) error {
	if room.Phase(tc.now()) != domain.PhaseSelecting {
		return domain.ErrInconsistentTurnState
	}
	tc.picker.MarkUsed(w.Text)
	now := tc.now()
	return tc.store.SetTurnWord(ctx, room.ID, w.Text, now, now.Add(EffectiveDrawTime(room.Settings)))
}

// AutoSelect picks the lowest-difficulty candidate once the selection
// deadline has elapsed.
func (tc *TurnController) AutoSelect(ctx context.Context, room domain.Room, choices []words.Word) error {
	w, ok := words.Lowest(choices)
	if !ok {
		return domain.ErrInconsistentTurnState
	}
	tc.log.Debug().Str("word", w.Text).Msg("selection deadline elapsed, auto-selecting")
	return tc.SelectWord(ctx, room, w)
}

// CheckTurnEnd is the host-only early-end check: when every currently
// connected non-drawer player has a correct guess this turn, the
// deadline is pulled to now. Safe to invoke repeatedly; missed or
// duplicate triggers are tolerated by re-polling.
func (tc *TurnController) CheckTurnEnd(ctx context.Context, room domain.Room, roster *Roster) (bool, error) {
	now := tc.now()
	if room.Phase(now) != domain.PhaseDrawing || room.WordSelectedAt == nil {
		return false, nil
	}

	guesses, err := tc.store.CorrectGuessesSince(ctx, room.ID, *room.WordSelectedAt)
	if err != nil {
		return false, err
	}
	solved := make(map[string]struct{}, len(guesses))
	for _, g := range guesses {
		solved[g.PlayerID] = struct{}{}
	}

	drawer, _ := tc.EffectiveDrawer(room, roster, now)
	guessers := 0
	for _, p := range roster.Online() {
		if p.ID == drawer.ID {
			continue
		}
		guessers++
		if _, ok := solved[p.ID]; !ok {
			return false, nil
		}
	}
	if guessers == 0 {
		return false, nil
	}

	tc.log.Info().Str("room", room.ID).Msg("everyone guessed, ending turn early")
	if err := tc.store.ForceTurnEnd(ctx, room.ID, now); err != nil {
		return false, err
	}
	return true, nil
}

// AdvanceTurn moves to the next drawer after the reveal phase: drawer
// bonus awarded, rotation by turn-order ordinal with wraparound
// incrementing the round, and the game finishing once the round counter
// passes max rounds.
func (tc *TurnController) AdvanceTurn(ctx context.Context, room domain.Room, roster *Roster) error {
	if room.CurrentWord != nil {
		if d, ok := words.DifficultyOf(*room.CurrentWord); ok {
			if drawer, found := tc.EffectiveDrawer(room, roster, tc.now()); found {
				if err := tc.store.AddScore(ctx, drawer.ID, DrawerBonus(d)); err != nil {
					tc.log.Warn().Err(err).Str("player", drawer.ID).Msg("failed to award drawer bonus")
				}
			}
		}
	}

	next, wrapped, ok := roster.NextOrdinal(room.CurrentDrawerIndex)
	if !ok {
		return domain.ErrTooFewPlayers
	}

	round := room.CurrentRound
	status := domain.RoomPlaying
	if wrapped {
		round++
		if round > room.MaxRounds {
			status = domain.RoomFinished
		}
	}

	return tc.store.AdvanceTurn(ctx, room.ID, next, round, status)
}

// Reset is the explicit host-triggered finished -> waiting transition.
func (tc *TurnController) Reset(ctx context.Context, room domain.Room, roster *Roster, selfID string) error {
	self, ok := roster.Get(selfID)
	if !ok || !self.IsHost {
		return domain.ErrNotHost
	}
	if room.Status != domain.RoomFinished {
		return domain.ErrGameNotFinished
	}
	return tc.store.ResetRoom(ctx, room.ID)
}

// EffectiveDrawer resolves who may draw right now. Outside relay mode
// that is the player at the current drawer ordinal; in relay mode the
// pen rotates through fixed time segments within the turn.
func (tc *TurnController) EffectiveDrawer(room domain.Room, roster *Roster, now time.Time) (domain.Player, bool) {
	segment := 0
	params := ParamsFor(room.Settings.GameMode)
	if params.RelayPasses > 1 && room.Phase(now) == domain.PhaseDrawing && room.WordSelectedAt != nil {
		segment = RelaySegment(now.Sub(*room.WordSelectedAt), SegmentLength(room.Settings), params.RelayPasses)
	}
	return resolveDrawer(roster, room.CurrentDrawerIndex, segment)
}

// RelaySegment is min(floor(elapsed/segmentLength), passes-1).
func RelaySegment(elapsed, segmentLength time.Duration, passes int) int {
	if segmentLength <= 0 || passes <= 1 {
		return 0
	}
	seg := int(elapsed / segmentLength)
	if seg < 0 {
		seg = 0
	}
	if seg > passes-1 {
		seg = passes - 1
	}
	return seg
}

// resolveDrawer matches (baseOrdinal + segment) mod playerCount against
// turn order, falling back to position in the ordinal-sorted list when
// departed players left gaps.
func resolveDrawer(roster *Roster, baseOrdinal, segment int) (domain.Player, bool) {
	if segment == 0 {
		if p, ok := roster.ByOrdinal(baseOrdinal); ok {
			return p, true
		}
	}
	players := roster.Players()
	if len(players) == 0 {
		return domain.Player{}, false
	}
	target := (baseOrdinal + segment) % len(players)
	if p, ok := roster.ByOrdinal(target); ok {
		return p, true
	}
	return players[target], true
}
