package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Mshel/llmsnake/internal/app"
	"github.com/Mshel/llmsnake/internal/config"
	"github.com/Mshel/llmsnake/internal/game"
	"github.com/Mshel/llmsnake/internal/ui"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(v *viper.Viper) *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Host one independent session per SSH connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	f := serve.Flags()
	f.String("host", "0.0.0.0", "listen host")
	f.String("port", "6996", "listen port")
	f.String("host-key", ".ssh/llmsnake_ed25519", "SSH host key path, created when missing")
	f.Int("max-conns-per-ip", 2, "concurrent sessions allowed per remote IP")
	f.Bool("allow-agent", false, "offer agent mode to SSH players (they type their own key)")
	f.Bool("verbose", false, "debug logging")
	f.String("on-service-error", game.SkipTick.String(), "what a failed decision does: skip or halt")
	f.Int("width", game.DefaultBoardWidth, "board width in cells")
	f.Int("height", game.DefaultBoardHeight, "board height in cells")
	f.Duration("tick", game.GameTickDuration, "time between ticks")
	f.String("script", "", "Lua script for script mode, empty uses the built-in one")
	return serve
}

// ConnectionLimiter caps concurrent sessions per remote IP.
type ConnectionLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int
	logger *log.Logger
}

func NewConnectionLimiter(limit int, logger *log.Logger) *ConnectionLimiter {
	return &ConnectionLimiter{counts: make(map[string]int), limit: limit, logger: logger}
}

func getIP(s ssh.Session) string {
	if addr, ok := s.RemoteAddr().(*net.TCPAddr); ok {
		return addr.IP.String()
	}
	return s.RemoteAddr().String()
}

// acquire reserves a slot for ip. It reports the count the caller would have had when refused.
func (l *ConnectionLimiter) acquire(ip string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[ip] >= l.limit {
		return l.counts[ip] + 1, false
	}
	l.counts[ip]++
	return l.counts[ip], true
}

func (l *ConnectionLimiter) release(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[ip]--
	if l.counts[ip] <= 0 {
		delete(l.counts, ip)
	}
	return l.counts[ip]
}

func (l *ConnectionLimiter) Middleware(next ssh.Handler) ssh.Handler {
	return func(s ssh.Session) {
		ip := getIP(s)

		count, ok := l.acquire(ip)
		if !ok {
			l.logger.Warn("Connection denied: IP limit exceeded", "ip", ip, "attempted_count", count, "current_limit", l.limit)
			errorMessage := fmt.Sprintf("Too many active connections from your IP (%d/%d). Please try again later.\r\n", count, l.limit)
			_, _ = s.Write([]byte(errorMessage))
			_ = s.Close()
			return
		}
		defer func() {
			after := l.release(ip)
			l.logger.Info("Connection closed", "ip", ip, "count_after", after)
		}()

		l.logger.Info("Connection accepted", "ip", ip, "current_count", count, "limit", l.limit)
		next(s)
	}
}

func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	// Server side keys are never shared with SSH players.
	cfg.APIKey = ""

	logger := newLogger(cfg)
	limiter := NewConnectionLimiter(cfg.Serve.MaxConnsPerIP, logger)

	modes := []string{config.ModeManual, config.ModeScript, config.ModeBot}
	if cfg.Serve.AllowAgentMode {
		modes = append([]string{config.ModeAgent}, modes...)
	}

	sshServer, err := wish.NewServer(
		wish.WithAddress(cfg.Serve.Addr()),
		wish.WithHostKeyPath(cfg.Serve.HostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(viewHandler(cfg, modes, logger)),
			logging.Middleware(),
			activeterm.Middleware(),
			limiter.Middleware,
		),
	)
	if err != nil {
		return fmt.Errorf("create ssh server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	logger.Info("Starting SSH server", "addr", cfg.Serve.Addr(), "modes", modes)
	go func() {
		if err := sshServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("ssh server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Stopping SSH server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sshServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return fmt.Errorf("stop ssh server: %w", err)
	}
	return nil
}

func viewHandler(cfg config.Config, modes []string, logger *log.Logger) bubbletea.Handler {
	return func(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, _ := sshSession.Pty()
		sessionLogger := logger.With("user", sshSession.User(), "remote", getIP(sshSession))
		model := ui.NewControllerModel(sshSession.Context(), cfg, modes, app.Options{}, sessionLogger,
			pty.Window.Width, pty.Window.Height)

		return model, []tea.ProgramOption{tea.WithAltScreen()}
	}
}
