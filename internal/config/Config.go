package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Mshel/llmsnake/internal/agent"
	"github.com/Mshel/llmsnake/internal/game"
)

const EnvPrefix = "LLMSNAKE"

const (
	ModeManual = "manual"
	ModeAgent  = "agent"
	ModeScript = "script"
	ModeBot    = "bot"
)

var (
	ErrMissingAPIKey = errors.New("agent mode needs an API key (set LLMSNAKE_API_KEY or OPENAI_API_KEY)")
	ErrUnknownMode   = errors.New("unknown mode")
)

type Config struct {
	Mode    string
	APIKey  string
	Model   string
	BaseURL string
	Verbose bool

	OnServiceError  game.ErrorPolicy
	Width           int
	Height          int
	Tick            time.Duration
	Seed            uint64
	MaxTicks        int
	MaxAttempts     int
	MinWait         time.Duration
	MaxWait         time.Duration
	ReasoningTokens int

	Script       string
	Headless     bool
	LogFile      string
	SpectateAddr string

	Serve ServeConfig
}

type ServeConfig struct {
	Host           string
	Port           string
	HostKeyPath    string
	MaxConnsPerIP  int
	AllowAgentMode bool
}

// Addr is the listen address of the SSH server.
func (s ServeConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// SetDefaults registers every key with its default so env lookups work without a flag.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeAgent)
	v.SetDefault("manual", false)
	v.SetDefault("api-key", "")
	v.SetDefault("model", agent.DefaultModel)
	v.SetDefault("base-url", "")
	v.SetDefault("verbose", false)
	v.SetDefault("on-service-error", game.SkipTick.String())
	v.SetDefault("width", game.DefaultBoardWidth)
	v.SetDefault("height", game.DefaultBoardHeight)
	v.SetDefault("tick", game.GameTickDuration)
	v.SetDefault("seed", 0)
	v.SetDefault("max-ticks", 0)
	v.SetDefault("max-attempts", agent.DefaultMaxAttempts)
	v.SetDefault("min-wait", agent.DefaultMinWait)
	v.SetDefault("max-wait", agent.DefaultMaxWait)
	v.SetDefault("reasoning-tokens", agent.DefaultReasoningTokens)
	v.SetDefault("script", "")
	v.SetDefault("headless", false)
	v.SetDefault("log-file", "llmsnake.log")
	v.SetDefault("spectate-addr", "")

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "6996")
	v.SetDefault("host-key", ".ssh/llmsnake_ed25519")
	v.SetDefault("max-conns-per-ip", 2)
	v.SetDefault("allow-agent", false)
}

// NewViper returns a viper instance reading LLMSNAKE_* variables, with OPENAI_API_KEY
// as a fallback for the key.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api-key", EnvPrefix+"_API_KEY", "OPENAI_API_KEY")
	return v
}

// BindFlags makes flags override env and defaults.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

func Load(v *viper.Viper) (Config, error) {
	policy, err := game.ParseErrorPolicy(v.GetString("on-service-error"))
	if err != nil {
		return Config{}, err
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("mode")))
	if v.GetBool("manual") {
		mode = ModeManual
	}

	cfg := Config{
		Mode:            mode,
		APIKey:          strings.TrimSpace(v.GetString("api-key")),
		Model:           v.GetString("model"),
		BaseURL:         v.GetString("base-url"),
		Verbose:         v.GetBool("verbose"),
		OnServiceError:  policy,
		Width:           v.GetInt("width"),
		Height:          v.GetInt("height"),
		Tick:            v.GetDuration("tick"),
		Seed:            v.GetUint64("seed"),
		MaxTicks:        v.GetInt("max-ticks"),
		MaxAttempts:     v.GetInt("max-attempts"),
		MinWait:         v.GetDuration("min-wait"),
		MaxWait:         v.GetDuration("max-wait"),
		ReasoningTokens: v.GetInt("reasoning-tokens"),
		Script:          v.GetString("script"),
		Headless:        v.GetBool("headless"),
		LogFile:         v.GetString("log-file"),
		SpectateAddr:    v.GetString("spectate-addr"),
		Serve: ServeConfig{
			Host:           v.GetString("host"),
			Port:           v.GetString("port"),
			HostKeyPath:    v.GetString("host-key"),
			MaxConnsPerIP:  v.GetInt("max-conns-per-ip"),
			AllowAgentMode: v.GetBool("allow-agent"),
		},
	}
	return cfg, nil
}

// Validate checks a local play configuration. The API key is only required for agent
// mode and is checked last, so callers that ask for a key later still see every other
// mistake first.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeManual, ModeAgent, ModeScript, ModeBot:
	default:
		return fmt.Errorf("%w %q (want %s, %s, %s or %s)", ErrUnknownMode, c.Mode, ModeManual, ModeAgent, ModeScript, ModeBot)
	}

	if _, err := game.NewBoard(c.Width, c.Height); err != nil {
		return err
	}
	if c.MaxTicks < 0 {
		return fmt.Errorf("max-ticks must not be negative, got %d", c.MaxTicks)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max-attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.MinWait < 0 || c.MaxWait < c.MinWait {
		return fmt.Errorf("retry waits must satisfy 0 <= min-wait <= max-wait, got %v and %v", c.MinWait, c.MaxWait)
	}

	if c.Mode == ModeAgent && c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ValidateServe checks the settings the SSH server needs.
func (c Config) ValidateServe() error {
	if _, err := game.NewBoard(c.Width, c.Height); err != nil {
		return err
	}
	if c.Serve.MaxConnsPerIP < 1 {
		return fmt.Errorf("max-conns-per-ip must be at least 1, got %d", c.Serve.MaxConnsPerIP)
	}
	return nil
}

func (c Config) Settings() game.Settings {
	return game.Settings{
		Board:        game.Board{Width: c.Width, Height: c.Height},
		TickDuration: c.Tick,
		Seed:         c.Seed,
		ErrorPolicy:  c.OnServiceError,
		MaxTicks:     c.MaxTicks,
	}
}

func (c Config) RetryPolicy() agent.RetryPolicy {
	return agent.RetryPolicy{
		MaxAttempts: c.MaxAttempts,
		MinWait:     c.MinWait,
		MaxWait:     c.MaxWait,
		Multiplier:  agent.DefaultMultiplier,
	}
}

func (c Config) AgentOptions() agent.Options {
	return agent.Options{
		Model:           c.Model,
		ReasoningTokens: c.ReasoningTokens,
		Verbose:         c.Verbose,
	}
}
