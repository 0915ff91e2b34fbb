package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/rand"

	"github.com/Mshel/llmsnake/internal/agent"
	"github.com/Mshel/llmsnake/internal/config"
	"github.com/Mshel/llmsnake/internal/game"
)

// Session is one running game: the manager, its decision source and the frame
// channel the renderer listens on.
type Session struct {
	Mode    string
	Manager *game.GameManager
	// Manual is set in manual mode so the input side can push key intents.
	Manual *game.ManualStrategy
	Frames *game.ChannelSink

	closers []func()
	logger  *log.Logger
}

// Options lets callers swap the completion backend, mostly for tests.
type Options struct {
	Completer agent.Completer
	Sinks     []game.FrameSink
}

func NewSession(cfg config.Config, logger *log.Logger, opts Options) (*Session, error) {
	if logger == nil {
		logger = log.Default()
	}

	s := &Session{
		Mode:   cfg.Mode,
		Frames: game.NewChannelSink(game.DefaultFrameBuffer),
		logger: logger,
	}

	strategy, err := s.buildStrategy(cfg, opts)
	if err != nil {
		return nil, err
	}

	gm, err := game.NewGameManager(cfg.Settings(), strategy, logger)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("new session: %w", err)
	}
	gm.AddSink(s.Frames)
	for _, sink := range opts.Sinks {
		gm.AddSink(sink)
	}
	s.Manager = gm

	return s, nil
}

func (s *Session) buildStrategy(cfg config.Config, opts Options) (game.Strategy, error) {
	switch cfg.Mode {
	case config.ModeManual:
		s.Manual = game.NewManualStrategy(0)
		return s.Manual, nil

	case config.ModeBot:
		return game.GreedyStrategy{}, nil

	case config.ModeScript:
		ls, err := game.LoadLuaStrategy(cfg.Script)
		if err != nil {
			return nil, fmt.Errorf("load script: %w", err)
		}
		s.closers = append(s.closers, ls.Close)
		return ls, nil

	case config.ModeAgent:
		completer := opts.Completer
		if completer == nil {
			if cfg.APIKey == "" {
				return nil, config.ErrMissingAPIKey
			}
			completer = agent.NewOpenAICompleter(cfg.APIKey, cfg.BaseURL)
		}
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		client := agent.NewRetryingClient(completer, cfg.RetryPolicy(), rand.New(rand.NewSource(seed)), s.logger)
		return agent.NewAgentStrategy(client, cfg.AgentOptions(), s.logger), nil
	}
	return nil, fmt.Errorf("%w %q", config.ErrUnknownMode, cfg.Mode)
}

// Run drives the loop until ctx is done, MaxTicks is reached or the session halts,
// then closes the frame channel. Cancellation is a normal end and returns nil.
func (s *Session) Run(ctx context.Context) error {
	defer s.close()
	defer s.Frames.Close()

	err := s.Manager.StartGameLoop(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Session) close() {
	for _, closeFn := range s.closers {
		closeFn()
	}
	s.closers = nil
}
