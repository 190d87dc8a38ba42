package game

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/HemantKumar822/doodle-party/bus"
	"github.com/HemantKumar822/doodle-party/canvas"
	"github.com/HemantKumar822/doodle-party/domain"
	"github.com/HemantKumar822/doodle-party/words"
)

const (
	canvasWidth  = 800
	canvasHeight = 600
	undoDepth    = 20
	chatReplay   = 50

	uiTickInterval = 500 * time.Millisecond
)

// NoticeKind enumerates what the session surfaces to its UI.
type NoticeKind int

const (
	NoticeChat NoticeKind = iota
	NoticeWordChoices
	NoticeYourTurn
	NoticeRoomChanged
	NoticeRosterChanged
	NoticeCanvasChanged
	NoticeGameOver
	NoticeError
)

type Notice struct {
	Kind    NoticeKind
	Guess   *domain.Guess
	Choices []words.Word
	Room    *domain.Room
	Players []domain.Player
	Message string
}

// drawMsg wraps a canvas op on the wire with its sender, so clients can
// skip replaying their own broadcasts.
type drawMsg struct {
	From string    `json:"from"`
	Op   canvas.Op `json:"op"`
}

// Session is the per-client actor: one goroutine owns all mutable game
// state and consumes store changes, bus events, presence syncs, poller
// ticks and local commands from channels. Every client runs the same
// loop and independently derives the same shared state; the elected
// host additionally performs the turn-advancing writes.
type Session struct {
	store    Store
	feed     ChangeFeed
	bus      bus.Bus
	presence bus.Presence
	log      zerolog.Logger

	selfID string
	room   domain.Room
	roster *Roster

	hc     *HostCoordinator
	tc     *TurnController
	poller *Poller
	isHost bool

	canvas  *canvas.Canvas
	history *canvas.History
	batcher *canvas.Batcher

	guessLimiter *rate.Limiter

	// Drawer-local turn state.
	choices        []words.Word
	selectDeadline time.Time
	lastSegment    int

	cmds    chan func(ctx context.Context)
	notices chan Notice
	leave   context.CancelFunc
	now     func() time.Time
}

type SessionDeps struct {
	Store    Store
	Feed     ChangeFeed
	Bus      bus.Bus
	Presence bus.Presence
	Picker   *words.Picker
	Log      zerolog.Logger
}

func NewSession(deps SessionDeps, room domain.Room, selfID string) *Session {
	s := &Session{
		store:        deps.Store,
		feed:         deps.Feed,
		bus:          deps.Bus,
		presence:     deps.Presence,
		log:          deps.Log.With().Str("room", room.ID).Str("player", selfID).Logger(),
		selfID:       selfID,
		room:         room,
		roster:       NewRoster(),
		hc:           NewHostCoordinator(deps.Store, selfID, deps.Log),
		tc:           NewTurnController(deps.Store, deps.Picker, deps.Log),
		poller:       NewPoller(DefaultPollInterval),
		canvas:       canvas.New(canvasWidth, canvasHeight),
		history:      canvas.NewHistory(undoDepth),
		guessLimiter: rate.NewLimiter(1, 5),
		cmds:         make(chan func(ctx context.Context), 64),
		notices:      make(chan Notice, 128),
		now:          time.Now,
	}
	s.batcher = canvas.NewBatcher(func(op canvas.Op) {
		s.applyAndBroadcast(context.Background(), op)
	})
	return s
}

func (s *Session) Notices() <-chan Notice { return s.notices }

func (s *Session) drawChannel() string     { return "room:" + s.room.ID + ":draw" }
func (s *Session) presenceChannel() string { return "room:" + s.room.ID + ":presence" }

// Run subscribes everything and drives the actor loop until ctx is
// cancelled or the player leaves. All subscriptions and the poller are
// torn down on the way out.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.leave = cancel
	defer cancel()

	roomCh, cancelRoom, err := s.feed.RoomUpdates(ctx, s.room.ID, s.log)
	if err != nil {
		return err
	}
	defer cancelRoom()

	guessCh, cancelGuess, err := s.feed.GuessInserts(ctx, s.room.ID, s.log)
	if err != nil {
		return err
	}
	defer cancelGuess()

	drawCh, cancelDraw, err := s.bus.Subscribe(ctx, s.drawChannel())
	if err != nil {
		return err
	}
	defer cancelDraw()

	presCh, cancelPres, err := s.presence.Watch(ctx, s.presenceChannel())
	if err != nil {
		return err
	}
	defer cancelPres()

	if err := s.presence.Track(ctx, s.presenceChannel(), s.selfID); err != nil {
		return err
	}
	defer func() {
		leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer leaveCancel()
		s.presence.Leave(leaveCtx, s.presenceChannel(), s.selfID)
	}()

	if err := s.refreshRoster(ctx); err != nil {
		return err
	}
	if chat, err := s.store.ListGuesses(ctx, s.room.ID, chatReplay); err == nil {
		for i := range chat {
			s.emit(Notice{Kind: NoticeChat, Guess: &chat[i]})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.poller.Run(ctx) })
	g.Go(func() error { return s.loop(ctx, roomCh, guessCh, drawCh, presCh) })

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Session) loop(
	ctx context.Context,
	roomCh <-chan domain.Room,
	guessCh <-chan domain.Guess,
	drawCh <-chan bus.Event,
	presCh <-chan []string,
) error {
	uiTicker := time.NewTicker(uiTickInterval)
	defer uiTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case room, ok := <-roomCh:
			if !ok {
				return domain.ErrRoomNotFound
			}
			s.handleRoomUpdate(ctx, room)
		case guess, ok := <-guessCh:
			if !ok {
				guessCh = nil
				continue
			}
			s.handleGuessInsert(guess)
		case ev, ok := <-drawCh:
			if !ok {
				drawCh = nil
				continue
			}
			s.handleDrawEvent(ev)
		case members, ok := <-presCh:
			if !ok {
				presCh = nil
				continue
			}
			s.handlePresenceSync(ctx, members)
		case now := <-s.poller.Ticks():
			s.hostTick(ctx, now)
		case now := <-uiTicker.C:
			s.localTick(ctx, now)
		case cmd := <-s.cmds:
			cmd(ctx)
		}
	}
}

func (s *Session) enqueue(cmd func(ctx context.Context)) {
	select {
	case s.cmds <- cmd:
	default:
		s.log.Warn().Msg("command queue full, dropping command")
	}
}

func (s *Session) emit(n Notice) {
	select {
	case s.notices <- n:
	default:
	}
}

// --- event handlers (actor goroutine only) ---

func (s *Session) handleRoomUpdate(ctx context.Context, room domain.Room) {
	prev := s.room
	s.room = room

	// A change in word_selected_at is the turn boundary: the canvas is
	// rebuilt from blank and the drawer's undo ring is discarded.
	if !equalTimePtr(prev.WordSelectedAt, room.WordSelectedAt) {
		s.canvas.Clear()
		s.history.Reset()
		s.choices = nil
		s.lastSegment = 0
		s.emit(Notice{Kind: NoticeCanvasChanged})
	}
	if room.CurrentWord != nil {
		s.tc.picker.MarkUsed(*room.CurrentWord)
	}

	s.maybeOfferWords(room)

	if prev.Status != domain.RoomFinished && room.Status == domain.RoomFinished {
		s.emit(Notice{Kind: NoticeGameOver, Room: &room})
	}
	s.emit(Notice{Kind: NoticeRoomChanged, Room: &room})

	if err := s.refreshRoster(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to refresh roster")
	}
}

// maybeOfferWords generates the drawer's word candidates when a new
// selecting phase starts and the local player is the drawer.
func (s *Session) maybeOfferWords(room domain.Room) {
	now := s.now()
	if room.Phase(now) != domain.PhaseSelecting || s.choices != nil {
		return
	}
	drawer, ok := s.tc.EffectiveDrawer(room, s.roster, now)
	if !ok || drawer.ID != s.selfID {
		return
	}
	s.choices = s.tc.WordChoices(room)
	s.selectDeadline = s.tc.SelectionDeadline(room, now)
	s.emit(Notice{Kind: NoticeWordChoices, Choices: s.choices})
	s.emit(Notice{Kind: NoticeYourTurn})
}

func (s *Session) handleGuessInsert(guess domain.Guess) {
	s.emit(Notice{Kind: NoticeChat, Guess: &guess})

	// Push-based fast path: after a correct guess the host re-checks
	// "has everyone solved" once the write has had time to settle.
	if guess.IsCorrect && s.isHost {
		time.AfterFunc(settleDelay, func() {
			s.enqueue(func(ctx context.Context) {
				if _, err := s.tc.CheckTurnEnd(ctx, s.room, s.roster); err != nil {
					s.log.Warn().Err(err).Msg("post-guess turn-end check failed")
				}
			})
		})
	}
}

func (s *Session) handleDrawEvent(ev bus.Event) {
	var msg drawMsg
	if err := json.Unmarshal(ev.Payload, &msg); err != nil {
		s.log.Warn().Err(err).Msg("dropping malformed draw event")
		return
	}
	if msg.From == s.selfID {
		return
	}
	if err := s.canvas.Apply(msg.Op); err != nil {
		s.log.Warn().Err(err).Msg("failed to replay draw op")
		return
	}
	s.emit(Notice{Kind: NoticeCanvasChanged})
}

func (s *Session) handlePresenceSync(ctx context.Context, members []string) {
	s.roster.SetPresent(members)
	s.syncHostRole(ctx)
	s.emit(Notice{Kind: NoticeRosterChanged, Players: s.roster.Players()})
}

// hostTick is the pull-based safety net behind the poller: only the
// acting host receives these.
func (s *Session) hostTick(ctx context.Context, now time.Time) {
	room, err := s.store.GetRoom(ctx, s.room.ID)
	if err != nil {
		s.log.Warn().Err(err).Msg("host poll failed to read room")
		return
	}
	if !equalTimePtr(room.WordSelectedAt, s.room.WordSelectedAt) {
		s.handleRoomUpdate(ctx, room)
	} else {
		s.room = room
	}

	switch room.Phase(now) {
	case domain.PhaseDrawing:
		if _, err := s.tc.CheckTurnEnd(ctx, room, s.roster); err != nil {
			s.log.Warn().Err(err).Msg("turn-end check failed")
		}
	case domain.PhaseReveal:
		if room.TurnEndsAt != nil && now.Sub(*room.TurnEndsAt) >= revealDuration {
			s.advanceTurn(ctx, room)
		}
	}
}

func (s *Session) advanceTurn(ctx context.Context, room domain.Room) {
	if err := s.tc.AdvanceTurn(ctx, room, s.roster); err != nil {
		s.log.Error().Err(err).Msg("turn advancement failed")
		s.emit(Notice{Kind: NoticeError, Message: "turn advancement failed"})
		return
	}
	// Canvas clear is broadcast unconditionally on advancement.
	s.broadcast(ctx, canvas.Op{Kind: canvas.OpClear})
}

func (s *Session) localTick(ctx context.Context, now time.Time) {
	s.syncHostRole(ctx)

	// Auto-select once the drawer let the selection deadline lapse.
	if s.choices != nil && s.room.Phase(now) == domain.PhaseSelecting && now.After(s.selectDeadline) {
		if err := s.tc.AutoSelect(ctx, s.room, s.choices); err != nil {
			s.log.Warn().Err(err).Msg("word auto-select failed")
		}
		s.choices = nil
	}

	// Relay segment rotation: notify the newly active drawer.
	params := ParamsFor(s.room.Settings.GameMode)
	if params.RelayPasses > 1 && s.room.Phase(now) == domain.PhaseDrawing && s.room.WordSelectedAt != nil {
		seg := RelaySegment(now.Sub(*s.room.WordSelectedAt), SegmentLength(s.room.Settings), params.RelayPasses)
		if seg != s.lastSegment {
			s.lastSegment = seg
			if drawer, ok := s.tc.EffectiveDrawer(s.room, s.roster, now); ok && drawer.ID == s.selfID {
				s.emit(Notice{Kind: NoticeYourTurn})
			}
		}
	}
}

// syncHostRole evaluates the election predicate and keeps the poller
// running exactly while this client is the acting host.
func (s *Session) syncHostRole(ctx context.Context) {
	promoted, err := s.hc.EnsureHost(ctx, s.roster)
	if err != nil {
		s.log.Warn().Err(err).Msg("host promotion failed")
	}
	if promoted {
		if err := s.refreshRoster(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to refresh roster after promotion")
		}
	}

	self, _ := s.roster.Get(s.selfID)
	wasHost := s.isHost
	s.isHost = self.IsHost
	if s.isHost && !wasHost {
		s.poller.Start()
	}
	if !s.isHost && wasHost {
		s.poller.Stop()
	}
}

func (s *Session) refreshRoster(ctx context.Context) error {
	players, err := s.store.ListPlayers(ctx, s.room.ID)
	if err != nil {
		return err
	}
	s.roster.SetPlayers(players)
	return nil
}

func equalTimePtr(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}
