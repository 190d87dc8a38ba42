package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/HemantKumar822/doodle-party/bus"
	"github.com/HemantKumar822/doodle-party/config"
	"github.com/HemantKumar822/doodle-party/domain"
	"github.com/HemantKumar822/doodle-party/game"
	"github.com/HemantKumar822/doodle-party/storage"
	"github.com/HemantKumar822/doodle-party/storage/migrations"
	"github.com/HemantKumar822/doodle-party/words"
)

type busConn interface {
	bus.Bus
	bus.Presence
}

func newCmd(cfg *config.Config) *cobra.Command {
	v := config.New()
	cfg.Defaults = domain.DefaultSettings()

	root := &cobra.Command{
		Use:           "doodle-party",
		Short:         "Headless client for a drawing-and-guessing party game.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loaded := config.Load(v)
			mergeUnsetFlags(cmd.Flags(), cfg, loaded)
		},
	}

	pf := root.PersistentFlags()
	pf.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	pf.StringVar(&cfg.PostgresDSN, "postgres-dsn", "", "postgres connection string (env: DOODLE_POSTGRES_DSN)")
	pf.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "redis address for the broadcast bus (env: DOODLE_REDIS_ADDR)")
	pf.StringVar(&cfg.RelayURL, "relay-url", "", "websocket relay URL; overrides redis when set (env: DOODLE_RELAY_URL)")
	pf.StringVarP(&cfg.Profile.DisplayName, "name", "n", "", "display name (env: DOODLE_NAME)")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", false, "debug logging (env: DOODLE_VERBOSE)")

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and play as its first player",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd.Context(), cfg)
		},
	}
	cf := createCmd.Flags()
	cf.IntVar(&cfg.Defaults.MaxPlayers, "max-players", cfg.Defaults.MaxPlayers, "room capacity")
	cf.IntVar(&cfg.Defaults.DrawTimeSeconds, "draw-time", cfg.Defaults.DrawTimeSeconds, "drawing time per turn in seconds")
	cf.IntVar(&cfg.Defaults.Rounds, "rounds", cfg.Defaults.Rounds, "rounds per game")
	cf.IntVar(&cfg.Defaults.WordChoiceCount, "word-count", cfg.Defaults.WordChoiceCount, "word choices offered to the drawer")
	cf.StringVar((*string)(&cfg.Defaults.GameMode), "mode", string(cfg.Defaults.GameMode), "game mode: classic, fast or relay")
	cf.BoolVar(&cfg.Defaults.HintsEnabled, "hints", cfg.Defaults.HintsEnabled, "reveal letter hints while drawing")

	joinCmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join an existing room by its join code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoin(cmd.Context(), cfg, strings.ToUpper(args[0]))
		},
	}

	root.AddCommand(createCmd, joinCmd)
	root.CompletionOptions.HiddenDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	root.SetVersionTemplate("doodle-party v{{.Version}}\n")

	bindEnv(v, pf)
	return root
}

// bindEnv lets DOODLE_* environment variables back every persistent
// flag the user did not set explicitly.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

// mergeUnsetFlags backfills cfg with cached values for anything the
// user left at the flag default.
func mergeUnsetFlags(fs *pflag.FlagSet, cfg *config.Config, cached config.Config) {
	if !fs.Changed("postgres-dsn") && cached.PostgresDSN != "" {
		cfg.PostgresDSN = cached.PostgresDSN
	}
	if !fs.Changed("redis-addr") && cached.RedisAddr != "" {
		cfg.RedisAddr = cached.RedisAddr
	}
	if !fs.Changed("relay-url") && cached.RelayURL != "" {
		cfg.RelayURL = cached.RelayURL
	}
	if !fs.Changed("name") && cached.Profile.DisplayName != "" {
		cfg.Profile.DisplayName = cached.Profile.DisplayName
	}
	cfg.Profile.Avatar = cached.Profile.Avatar

	// Cached room defaults apply wherever the create flags were left
	// untouched (join has no settings flags at all).
	if f := fs.Lookup("max-players"); f == nil || !f.Changed {
		cfg.Defaults.MaxPlayers = cached.Defaults.MaxPlayers
	}
	if f := fs.Lookup("draw-time"); f == nil || !f.Changed {
		cfg.Defaults.DrawTimeSeconds = cached.Defaults.DrawTimeSeconds
	}
	if f := fs.Lookup("rounds"); f == nil || !f.Changed {
		cfg.Defaults.Rounds = cached.Defaults.Rounds
	}
	if f := fs.Lookup("word-count"); f == nil || !f.Changed {
		cfg.Defaults.WordChoiceCount = cached.Defaults.WordChoiceCount
	}
	if f := fs.Lookup("mode"); f == nil || !f.Changed {
		cfg.Defaults.GameMode = cached.Defaults.GameMode
	}
	if f := fs.Lookup("hints"); f == nil || !f.Changed {
		cfg.Defaults.HintsEnabled = cached.Defaults.HintsEnabled
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func runCreate(ctx context.Context, cfg *config.Config) error {
	log := newLogger(cfg.Verbose)
	store, conn, err := dial(ctx, cfg, log)
	if err != nil {
		return err
	}

	room, player, err := game.CreateRoom(ctx, store, playerName(cfg), cfg.Profile.Avatar, cfg.Defaults)
	if err != nil {
		return err
	}
	log.Info().Str("code", room.RoomCode).Msg("room created, share the code to invite players")
	return play(ctx, log, store, conn, room, player)
}

func runJoin(ctx context.Context, cfg *config.Config, code string) error {
	log := newLogger(cfg.Verbose)
	store, conn, err := dial(ctx, cfg, log)
	if err != nil {
		return err
	}

	room, player, err := game.JoinRoom(ctx, store, code, playerName(cfg), cfg.Profile.Avatar)
	if err != nil {
		return err
	}
	log.Info().Str("code", room.RoomCode).Msg("joined room")
	return play(ctx, log, store, conn, room, player)
}

func playerName(cfg *config.Config) string {
	if cfg.Profile.DisplayName != "" {
		return cfg.Profile.DisplayName
	}
	return "anonymous"
}

// dial connects the store and the broadcast bus. A relay URL selects
// the websocket relay transport; otherwise the bus rides on redis.
func dial(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage.PostgresStore, busConn, error) {
	if cfg.PostgresDSN == "" {
		return nil, nil, fmt.Errorf("no postgres DSN configured")
	}
	if err := migrations.Migrate(cfg.PostgresDSN); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	store, err := storage.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}

	if cfg.RelayURL != "" {
		conn, err := bus.DialRelay(ctx, cfg.RelayURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("relay: %w", err)
		}
		return store, conn, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return store, bus.NewRedisBus(client, log), nil
}

// play runs the session actor and a minimal line-based console on top
// of it: plain lines are guesses, slash commands drive the game.
func play(ctx context.Context, log zerolog.Logger, store *storage.PostgresStore, conn busConn, room domain.Room, player domain.Player) error {
	session := game.NewSession(game.SessionDeps{
		Store:    store,
		Feed:     store,
		Bus:      conn,
		Presence: conn,
		Picker:   words.NewPicker(time.Now().UnixNano()),
		Log:      log,
	}, room, player.ID)

	go printNotices(log, session, player.ID)
	go readCommands(session, os.Stdin)

	return session.Run(ctx)
}

func printNotices(log zerolog.Logger, session *game.Session, selfID string) {
	for n := range session.Notices() {
		switch n.Kind {
		case game.NoticeChat:
			ev := log.Info().Str("player", n.Guess.PlayerID).Str("guess", n.Guess.GuessText)
			if n.Guess.IsCorrect {
				ev = ev.Int("points", n.Guess.PointsAwarded)
			}
			ev.Msg("guess")
		case game.NoticeWordChoices:
			texts := make([]string, len(n.Choices))
			for i, w := range n.Choices {
				texts[i] = fmt.Sprintf("%d:%s(%s)", i, w.Text, w.Difficulty)
			}
			log.Info().Strs("choices", texts).Msg("your word choices, pick with /word <n>")
		case game.NoticeYourTurn:
			log.Info().Msg("you have the pen")
		case game.NoticeRoomChanged:
			log.Debug().Str("status", string(n.Room.Status)).Int("round", n.Room.CurrentRound).Msg("room updated")
		case game.NoticeRosterChanged:
			names := make([]string, 0, len(n.Players))
			for _, p := range n.Players {
				label := p.DisplayName
				if p.ID == selfID {
					label += "*"
				}
				if p.IsHost {
					label += " (host)"
				}
				names = append(names, fmt.Sprintf("%s %d", label, p.Score))
			}
			log.Info().Strs("players", names).Msg("roster")
		case game.NoticeGameOver:
			log.Info().Msg("game over, /reset to play again")
		case game.NoticeError:
			log.Warn().Str("reason", n.Message).Msg("action failed")
		}
	}
}

func readCommands(session *game.Session, in *os.File) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			session.SubmitGuess(line)
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "/start":
			session.StartGame()
		case "/reset":
			session.ResetGame()
		case "/word":
			if len(fields) == 2 {
				if i, err := strconv.Atoi(fields[1]); err == nil {
					session.SelectWord(i)
				}
			}
		case "/kick":
			if len(fields) == 2 {
				session.KickPlayer(fields[1])
			}
		case "/clear":
			session.ClearCanvas()
		case "/undo":
			session.Undo()
		case "/redo":
			session.Redo()
		case "/leave":
			session.Leave()
			return
		}
	}
}
