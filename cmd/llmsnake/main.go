package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Mshel/llmsnake/internal/agent"
	"github.com/Mshel/llmsnake/internal/app"
	"github.com/Mshel/llmsnake/internal/config"
	"github.com/Mshel/llmsnake/internal/game"
	"github.com/Mshel/llmsnake/internal/spectate"
	"github.com/Mshel/llmsnake/internal/ui"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "llmsnake:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := config.NewViper()

	play := &cobra.Command{
		Use:   "play",
		Short: "Play a local session in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlay(cmd.Context(), v)
		},
	}
	addPlayFlags(play)

	root := &cobra.Command{
		Use:           "llmsnake",
		Short:         "Snake on a wrapping board, steered by you, a Lua script or a language model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is fine.
			_ = godotenv.Load()
			return config.BindFlags(v, cmd.Flags())
		},
		RunE: play.RunE,
	}
	addPlayFlags(root)

	root.AddCommand(play, newServeCommand(v))
	return root
}

func addPlayFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("mode", config.ModeAgent, "who steers: manual, agent, script or bot")
	f.Bool("manual", false, "shortcut for --mode manual")
	f.String("api-key", "", "completion service key (or LLMSNAKE_API_KEY / OPENAI_API_KEY)")
	f.String("model", agent.DefaultModel, "completion model")
	f.String("base-url", "", "OpenAI compatible endpoint")
	f.Bool("verbose", false, "log every prompt and reply, and debug output")
	f.String("on-service-error", game.SkipTick.String(), "what a failed decision does: skip or halt")
	f.Int("width", game.DefaultBoardWidth, "board width in cells")
	f.Int("height", game.DefaultBoardHeight, "board height in cells")
	f.Duration("tick", game.GameTickDuration, "time between ticks")
	f.Uint64("seed", 0, "random seed, 0 picks one")
	f.Int("max-ticks", 0, "stop after this many ticks, 0 runs until quit")
	f.Int("max-attempts", agent.DefaultMaxAttempts, "completion attempts per decision step")
	f.Duration("min-wait", agent.DefaultMinWait, "shortest retry wait")
	f.Duration("max-wait", agent.DefaultMaxWait, "longest retry wait")
	f.Int("reasoning-tokens", agent.DefaultReasoningTokens, "token cap for the reasoning step")
	f.String("script", "", "Lua script for script mode, empty uses the built-in one")
	f.Bool("headless", false, "log frames instead of drawing the board")
	f.String("log-file", "llmsnake.log", "where the TUI writes its log")
	f.String("spectate-addr", "", "serve a websocket spectator feed on this address, e.g. :8080")
}

func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, err
	}
	// The TUI asks for a missing key itself.
	if err := cfg.Validate(); err != nil && !(errors.Is(err, config.ErrMissingAPIKey) && !cfg.Headless) {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "llmsnake",
	})
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func runPlay(ctx context.Context, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg)
	if !cfg.Headless {
		logFile, err := tea.LogToFile(cfg.LogFile, "")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
		logger.SetOutput(logFile)
	}

	g, ctx := errgroup.WithContext(ctx)
	var opts app.Options
	if cfg.SpectateAddr != "" {
		hub := spectate.NewHub(logger)
		opts.Sinks = append(opts.Sinks, hub)
		g.Go(func() error { return spectate.Serve(ctx, cfg.SpectateAddr, hub) })
	}

	g.Go(func() error {
		// Ending the session also stops the spectator feed.
		defer stop()
		if cfg.Headless {
			return runHeadless(ctx, cfg, logger, opts)
		}
		return runTUI(ctx, cfg, logger, opts)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Session ended with an error.", "err", err)
		return err
	}
	return nil
}

func runHeadless(ctx context.Context, cfg config.Config, logger *log.Logger, opts app.Options) error {
	opts.Sinks = append(opts.Sinks, app.NewLogSink(logger))
	session, err := app.NewSession(cfg, logger, opts)
	if err != nil {
		return err
	}

	// Nobody reads the TUI channel here; drain it so it never holds stale frames.
	go func() {
		for range session.Frames.Frames() {
		}
	}()

	logger.Info("Headless session started.", "mode", cfg.Mode, "session", session.Manager.ID, "max_ticks", cfg.MaxTicks)
	err = session.Run(ctx)
	logger.Info("Headless session finished.", "score", session.Manager.Score, "ticks", session.Manager.Ticks)
	return err
}

func runTUI(ctx context.Context, cfg config.Config, logger *log.Logger, opts app.Options) error {
	modes := []string{config.ModeAgent, config.ModeManual, config.ModeScript, config.ModeBot}
	model := ui.NewControllerModel(ctx, cfg, modes, opts, logger, 0, 0)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}
