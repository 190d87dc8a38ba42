package game

import (
	"context"
	"encoding/json"

	"github.com/HemantKumar822/doodle-party/canvas"
	"github.com/HemantKumar822/doodle-party/domain"
)

// Public command methods enqueue work onto the actor loop; nothing here
// touches session state directly.

func (s *Session) StartGame() {
	s.enqueue(func(ctx context.Context) {
		if err := s.tc.StartGame(ctx, s.room, s.roster, s.selfID); err != nil {
			s.fail("start game", err)
		}
	})
}

func (s *Session) ResetGame() {
	s.enqueue(func(ctx context.Context) {
		if err := s.tc.Reset(ctx, s.room, s.roster, s.selfID); err != nil {
			s.fail("reset game", err)
		}
	})
}

func (s *Session) SelectWord(index int) {
	s.enqueue(func(ctx context.Context) {
		if index < 0 || index >= len(s.choices) {
			return
		}
		if err := s.tc.SelectWord(ctx, s.room, s.choices[index]); err != nil {
			s.fail("select word", err)
			return
		}
		s.choices = nil
	})
}

func (s *Session) SubmitGuess(text string) {
	s.enqueue(func(ctx context.Context) {
		if !s.guessLimiter.Allow() {
			s.log.Debug().Msg("guess rate limited")
			return
		}
		s.submitGuess(ctx, text)
	})
}

func (s *Session) submitGuess(ctx context.Context, text string) {
	now := s.now()
	guess := domain.Guess{RoomID: s.room.ID, PlayerID: s.selfID, GuessText: text}

	drawing := s.room.Phase(now) == domain.PhaseDrawing && s.room.WordSelectedAt != nil
	drawer, _ := s.tc.EffectiveDrawer(s.room, s.roster, now)

	if drawing && drawer.ID != s.selfID && IsCorrect(text, *s.room.CurrentWord) {
		prior, err := s.store.CorrectGuessesSince(ctx, s.room.ID, *s.room.WordSelectedAt)
		if err != nil {
			s.fail("submit guess", err)
			return
		}
		already := false
		solvers := make(map[string]struct{}, len(prior))
		for _, g := range prior {
			solvers[g.PlayerID] = struct{}{}
			if g.PlayerID == s.selfID {
				already = true
			}
		}
		if !already {
			rank := len(solvers) + 1
			elapsed := now.Sub(*s.room.WordSelectedAt).Seconds()
			guess.IsCorrect = true
			guess.PointsAwarded = GuesserPoints(elapsed, rank, ParamsFor(s.room.Settings.GameMode))
		}
	}

	if _, err := s.store.InsertGuess(ctx, guess); err != nil {
		s.fail("submit guess", err)
		return
	}
	if guess.IsCorrect {
		if err := s.store.AddScore(ctx, s.selfID, guess.PointsAwarded); err != nil {
			s.fail("award points", err)
		}
	}
}

// KickPlayer removes a player optimistically: the roster drops the row
// immediately and restores it if the delete fails.
func (s *Session) KickPlayer(playerID string) {
	s.enqueue(func(ctx context.Context) {
		self, _ := s.roster.Get(s.selfID)
		if !self.IsHost || playerID == s.selfID {
			s.fail("kick player", domain.ErrNotHost)
			return
		}

		before := s.roster.Players()
		remaining := make([]domain.Player, 0, len(before))
		for _, p := range before {
			if p.ID != playerID {
				remaining = append(remaining, p)
			}
		}
		s.roster.SetPlayers(remaining)
		s.emit(Notice{Kind: NoticeRosterChanged, Players: s.roster.Players()})

		if err := s.store.DeletePlayer(ctx, playerID); err != nil {
			s.roster.SetPlayers(before)
			s.emit(Notice{Kind: NoticeRosterChanged, Players: s.roster.Players()})
			s.fail("kick player", err)
		}
	})
}

// Leave deletes the local player row, garbage-collects the room if it
// emptied, and shuts the session down.
func (s *Session) Leave() {
	s.enqueue(func(ctx context.Context) {
		if err := s.store.DeletePlayer(ctx, s.selfID); err != nil {
			s.log.Warn().Err(err).Msg("failed to delete own player row on leave")
		}
		if err := s.store.DeleteRoomIfEmpty(ctx, s.room.ID); err != nil {
			s.log.Warn().Err(err).Msg("failed to garbage-collect empty room")
		}
		s.leave()
	})
}

// --- drawer commands ---

func (s *Session) BeginStroke(tool canvas.Tool, color string, thickness float64) {
	s.enqueue(func(ctx context.Context) {
		if !s.isDrawer() {
			return
		}
		s.seedBaseline()
		s.batcher.Begin(tool, color, thickness)
	})
}

// seedBaseline records the pre-first-op snapshot so the turn's first
// operation can be undone back to the blank canvas.
func (s *Session) seedBaseline() {
	if s.history.Len() == 0 {
		s.history.Push(s.canvas.Snapshot())
	}
}

func (s *Session) AddStrokePoint(p canvas.Point) {
	s.enqueue(func(ctx context.Context) {
		if s.isDrawer() {
			s.batcher.Add(p)
		}
	})
}

func (s *Session) EndStroke() {
	s.enqueue(func(ctx context.Context) {
		if !s.isDrawer() {
			return
		}
		s.batcher.End()
		s.history.Push(s.canvas.Snapshot())
	})
}

func (s *Session) Fill(seed canvas.Point, color string) {
	s.enqueue(func(ctx context.Context) {
		if !s.isDrawer() {
			return
		}
		s.seedBaseline()
		s.applyAndBroadcast(ctx, canvas.Op{Kind: canvas.OpFill, Seed: &seed, Color: color})
		s.history.Push(s.canvas.Snapshot())
	})
}

func (s *Session) ClearCanvas() {
	s.enqueue(func(ctx context.Context) {
		if !s.isDrawer() {
			return
		}
		s.seedBaseline()
		s.applyAndBroadcast(ctx, canvas.Op{Kind: canvas.OpClear})
		s.history.Push(s.canvas.Snapshot())
	})
}

// Undo restores the previous snapshot and re-broadcasts it as its own
// op so observers stay in sync.
func (s *Session) Undo() {
	s.enqueue(func(ctx context.Context) {
		if !s.isDrawer() {
			return
		}
		if snap, ok := s.history.Undo(); ok {
			s.applyAndBroadcast(ctx, canvas.Op{Kind: canvas.OpSnapshot, Pixels: snap})
		}
	})
}

func (s *Session) Redo() {
	s.enqueue(func(ctx context.Context) {
		if !s.isDrawer() {
			return
		}
		if snap, ok := s.history.Redo(); ok {
			s.applyAndBroadcast(ctx, canvas.Op{Kind: canvas.OpSnapshot, Pixels: snap})
		}
	})
}

func (s *Session) isDrawer() bool {
	now := s.now()
	if s.room.Phase(now) != domain.PhaseDrawing {
		return false
	}
	drawer, ok := s.tc.EffectiveDrawer(s.room, s.roster, now)
	return ok && drawer.ID == s.selfID
}

func (s *Session) applyAndBroadcast(ctx context.Context, op canvas.Op) {
	if err := s.canvas.Apply(op); err != nil {
		s.log.Warn().Err(err).Msg("failed to apply local draw op")
		return
	}
	s.emit(Notice{Kind: NoticeCanvasChanged})
	s.broadcast(ctx, op)
}

func (s *Session) broadcast(ctx context.Context, op canvas.Op) {
	payload, err := json.Marshal(drawMsg{From: s.selfID, Op: op})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode draw op")
		return
	}
	if err := s.bus.Publish(ctx, s.drawChannel(), string(op.Kind), payload); err != nil {
		s.log.Warn().Err(err).Msg("failed to broadcast draw op")
	}
}

// fail logs a failed operation and surfaces it to the initiating user.
func (s *Session) fail(op string, err error) {
	s.log.Error().Err(err).Str("op", op).Msg("operation failed")
	s.emit(Notice{Kind: NoticeError, Message: op + " failed: " + err.Error()})
}
