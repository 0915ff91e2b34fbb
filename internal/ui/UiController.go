package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Mshel/llmsnake/internal/app"
	"github.com/Mshel/llmsnake/internal/config"
)

type Screen int

const (
	IntroScreen Screen = iota
	SetupScreen
	GameScreen
)

// Messages for state transitions
type IntroSubmitMsg struct {
	Mode string
}

type SetupSubmitMsg struct {
	APIKey string
}

type SessionFailedMsg struct {
	Err error
}

type RestartMsg struct{}

type ControllerModel struct {
	CurrentScreen Screen

	IntroModel tea.Model
	SetupModel tea.Model
	GameModel  tea.Model

	ScreenWidth  int
	ScreenHeight int

	ctx            context.Context
	cancelSession  context.CancelFunc
	cfg            config.Config
	mode           string
	sessionOptions app.Options
	logger         *log.Logger
}

// NewControllerModel builds the screen flow for one player. Sessions started from it
// stop when ctx is done or the player quits.
func NewControllerModel(ctx context.Context, cfg config.Config, modes []string, opts app.Options,
	logger *log.Logger, screenWidth int, screenHeight int,
) ControllerModel {
	return ControllerModel{
		CurrentScreen: IntroScreen,

		IntroModel: NewIntroModel(modes, cfg.Mode, screenWidth, screenHeight),
		SetupModel: NewInitialSetupModel(screenWidth, screenHeight),

		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,

		ctx:            ctx,
		cfg:            cfg,
		sessionOptions: opts,
		logger:         logger,
	}
}

func (m ControllerModel) Init() tea.Cmd {
	return m.IntroModel.Init()
}

func (m ControllerModel) View() string {
	switch m.CurrentScreen {
	case IntroScreen:
		return m.IntroModel.View()
	case SetupScreen:
		return m.SetupModel.View()
	case GameScreen:
		if m.GameModel != nil {
			return m.GameModel.View()
		}
		return "Game Loading..."
	default:
		return "Unknown Screen"
	}
}

func (m ControllerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		// q is a valid character of an API key, so it only quits outside the form.
		if msg.String() == "ctrl+c" || (msg.String() == "q" && m.CurrentScreen != SetupScreen) {
			m.stopSession()
			return m, tea.Quit
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ScreenWidth, m.ScreenHeight = msg.Width, msg.Height
		m.IntroModel, cmd = m.IntroModel.Update(msg)
		cmds = append(cmds, cmd)
		m.SetupModel, cmd = m.SetupModel.Update(msg)
		cmds = append(cmds, cmd)
		if m.GameModel != nil {
			m.GameModel, cmd = m.GameModel.Update(msg)
			cmds = append(cmds, cmd)
		}

	case IntroSubmitMsg:
		m.mode = msg.Mode
		if msg.Mode == config.ModeAgent && m.cfg.APIKey == "" {
			m.CurrentScreen = SetupScreen
			return m, m.SetupModel.Init()
		}
		return m.startSession()

	case SetupSubmitMsg:
		m.cfg.APIKey = msg.APIKey
		return m.startSession()

	case RestartMsg:
		m.stopSession()
		return m.startSession()

	default:
		switch m.CurrentScreen {
		case IntroScreen:
			m.IntroModel, cmd = m.IntroModel.Update(msg)
			cmds = append(cmds, cmd)
		case SetupScreen:
			m.SetupModel, cmd = m.SetupModel.Update(msg)
			cmds = append(cmds, cmd)
		case GameScreen:
			if m.GameModel != nil {
				m.GameModel, cmd = m.GameModel.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	}

	return m, tea.Batch(cmds...)
}

func (m ControllerModel) startSession() (tea.Model, tea.Cmd) {
	cfg := m.cfg
	cfg.Mode = m.mode

	session, err := app.NewSession(cfg, m.logger, m.sessionOptions)
	if err != nil {
		m.logger.Error("Could not start session.", "mode", cfg.Mode, "err", err)
		m.CurrentScreen = IntroScreen
		return m, func() tea.Msg { return SessionFailedMsg{Err: err} }
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelSession = cancel
	m.CurrentScreen = GameScreen
	m.GameModel = NewGameModel(session, cfg.Tick, m.ScreenWidth, m.ScreenHeight)

	return m, tea.Batch(m.GameModel.Init(), runSession(ctx, session))
}

func (m ControllerModel) stopSession() {
	if m.cancelSession != nil {
		m.cancelSession()
	}
}
