// Package config loads the locally cached player profile and room
// defaults. The cache is best-effort: anything missing or malformed
// falls back to defaults without failing the session.
package config

import (
	"encoding/json"
	"strings"

	"github.com/spf13/viper"

	"github.com/HemantKumar822/doodle-party/domain"
)

const envPrefix = "DOODLE"

// Profile is the locally cached identity presented when creating or
// joining a room.
type Profile struct {
	DisplayName string          `mapstructure:"display_name"`
	Avatar      json.RawMessage `mapstructure:"-"`
}

// Config is everything the entrypoint needs that is not a per-room
// setting: where the store and bus live, plus the cached profile and
// room defaults.
type Config struct {
	PostgresDSN string
	RedisAddr   string
	RelayURL    string
	Verbose     bool

	Profile  Profile
	Defaults domain.Settings
}

// New builds a viper instance with the env bindings the loader
// expects. Kept separate so tests can point it at a scratch directory.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("doodle-party")
	v.SetConfigType("yaml")
	v.AddConfigPath("$XDG_CONFIG_HOME/doodle-party")
	v.AddConfigPath("$HOME/.config/doodle-party")
	v.AddConfigPath(".")
	return v
}

// Load reads the cached config through v. A missing or unparseable
// cache file is not an error; every field falls back independently.
func Load(v *viper.Viper) Config {
	// ReadInConfig failing just means no usable cache.
	_ = v.ReadInConfig()

	cfg := Config{
		PostgresDSN: v.GetString("postgres_dsn"),
		RedisAddr:   v.GetString("redis_addr"),
		RelayURL:    v.GetString("relay_url"),
		Verbose:     v.GetBool("verbose"),
		Profile: Profile{
			DisplayName: v.GetString("profile.display_name"),
			Avatar:      sanitizeAvatar(v.GetString("profile.avatar")),
		},
		Defaults: sanitizeSettings(v),
	}
	return cfg
}

// sanitizeAvatar keeps a cached avatar only when it is a well-formed
// JSON object; anything else is dropped.
func sanitizeAvatar(raw string) json.RawMessage {
	if raw == "" {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil
	}
	return json.RawMessage(raw)
}

// sanitizeSettings maps cached room defaults onto domain.Settings,
// falling back per field when a cached value is out of range.
func sanitizeSettings(v *viper.Viper) domain.Settings {
	s := domain.DefaultSettings()

	if n := v.GetInt("defaults.max_players"); n >= 2 && n <= 16 {
		s.MaxPlayers = n
	}
	if n := v.GetInt("defaults.draw_time"); n >= 15 && n <= 300 {
		s.DrawTimeSeconds = n
	}
	if n := v.GetInt("defaults.rounds"); n >= 1 && n <= 10 {
		s.Rounds = n
	}
	if n := v.GetInt("defaults.word_count"); n >= 1 && n <= 5 {
		s.WordChoiceCount = n
	}
	if mode := domain.GameMode(v.GetString("defaults.game_mode")); validMode(mode) {
		s.GameMode = mode
	}
	if v.IsSet("defaults.hints") {
		s.HintsEnabled = v.GetBool("defaults.hints")
	}
	return s
}

func validMode(m domain.GameMode) bool {
	switch m {
	case domain.ModeClassic, domain.ModeFast, domain.ModeRelay:
		return true
	}
	return false
}
