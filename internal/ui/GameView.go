package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/Mshel/llmsnake/internal/app"
	"github.com/Mshel/llmsnake/internal/config"
	"github.com/Mshel/llmsnake/internal/game"
)

type GameState int

const (
	StatePlaying GameState = iota
	StateGameOver
)

var (
	voidColor    = "233"
	mapViewStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 0)

	statusPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("8")).
				Padding(1, 2)

	voidStyle = lipgloss.NewStyle().Background(lipgloss.Color(voidColor)).Render(" ")
	bodyStyle = lipgloss.NewStyle().Background(lipgloss.Color(voidColor)).Foreground(lipgloss.Color("84")).Render("█")
	headStyle = lipgloss.NewStyle().Background(lipgloss.Color(voidColor)).Foreground(lipgloss.Color("46")).Bold(true)
	foodStyle = lipgloss.NewStyle().Background(lipgloss.Color(voidColor)).Foreground(lipgloss.Color("203")).Render("●")

	headRunes = map[game.Direction]rune{
		game.Up:    '▲',
		game.Down:  '▼',
		game.Left:  '◀',
		game.Right: '▶',
	}

	keyDirections = map[string]game.Direction{
		"w": game.Up, "up": game.Up,
		"s": game.Down, "down": game.Down,
		"a": game.Left, "left": game.Left,
		"d": game.Right, "right": game.Right,
	}
)

const (
	mapViewPercentage  = 0.70
	statusPanelPadding = 4
)

type frameMsg struct {
	session uuid.UUID
	frame   game.Frame
}

type framesClosedMsg struct {
	session uuid.UUID
}

// SessionEndedMsg is sent once Session.Run returns.
type SessionEndedMsg struct {
	Session uuid.UUID
	Err     error
}

type GameViewModel struct {
	ScreenWidth  int
	ScreenHeight int

	session      *app.Session
	tickDuration time.Duration
	frame        game.Frame
	hasFrame     bool
	lastFrameAt  time.Time
	spinner      spinner.Model

	gameState     GameState
	gameOverState GameOverState
}

func NewGameModel(session *app.Session, tickDuration time.Duration, screenWidth int, screenHeight int) GameViewModel {
	return GameViewModel{
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		session:      session,
		tickDuration: tickDuration,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
		),
		gameState: StatePlaying,
		gameOverState: GameOverState{
			Mode:         session.Mode,
			ScreenWidth:  screenWidth,
			ScreenHeight: screenHeight,
		},
	}
}

func (m GameViewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForFrames())
}

func (m GameViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ScreenWidth, m.ScreenHeight = msg.Width, msg.Height
		m.gameOverState.ScreenWidth, m.gameOverState.ScreenHeight = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case frameMsg:
		if msg.session != m.session.Manager.ID {
			return m, nil
		}
		m.frame = msg.frame
		m.hasFrame = true
		m.lastFrameAt = time.Now()
		return m, m.listenForFrames()

	case framesClosedMsg:
		return m, nil

	case SessionEndedMsg:
		if msg.Session != m.session.Manager.ID {
			return m, nil
		}
		m.gameState = StateGameOver
		m.gameOverState.FinalScore = m.frame.Score
		m.gameOverState.FinalLength = m.frame.Length
		m.gameOverState.Ticks = m.frame.Tick
		m.gameOverState.SelectedButton = 0
		if msg.Err != nil {
			m.gameOverState.Reason = msg.Err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if m.gameState == StateGameOver {
			switch msg.String() {
			case "left", "h":
				m.gameOverState.SelectedButton = max(0, m.gameOverState.SelectedButton-1)
			case "right", "l":
				m.gameOverState.SelectedButton = min(1, m.gameOverState.SelectedButton+1)
			case "enter":
				if m.gameOverState.SelectedButton == 0 {
					return m, tea.Quit
				}
				return m, func() tea.Msg { return RestartMsg{} }
			}
			return m, nil
		}

		if m.session.Manual == nil {
			return m, nil
		}
		if dir, ok := keyDirections[msg.String()]; ok {
			m.session.Manual.Push(dir)
		}
		return m, nil
	}

	return m, nil
}

func (m GameViewModel) View() string {
	if m.gameState == StateGameOver {
		return m.gameOverState.RenderGameOverScreen()
	}
	if !m.hasFrame {
		return lipgloss.Place(m.ScreenWidth, m.ScreenHeight, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Waiting for the first frame...")
	}

	mapWidth := int(float64(m.ScreenWidth) * mapViewPercentage)
	statusPanelWidth := max(0, m.ScreenWidth-mapWidth-statusPanelPadding)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		mapViewStyle.Render(RenderBoard(m.frame)),
		statusPanelStyle.Width(statusPanelWidth).Render(m.renderStatusPanel()),
	)
}

// RenderBoard draws one frame as a grid, one character per cell.
func RenderBoard(frame game.Frame) string {
	body := make(map[game.Point]struct{}, len(frame.Snake))
	for _, p := range frame.Snake {
		body[p] = struct{}{}
	}
	head := frame.Head()

	var sb strings.Builder
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			p := game.Point{X: x, Y: y}
			switch {
			case len(frame.Snake) > 0 && p == head:
				r, ok := headRunes[frame.Direction]
				if !ok {
					r = '■'
				}
				sb.WriteString(headStyle.Render(string(r)))
			case isBody(body, p):
				sb.WriteString(bodyStyle)
			case p == frame.Food:
				sb.WriteString(foodStyle)
			default:
				sb.WriteString(voidStyle)
			}
		}
		if y < frame.Height-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func isBody(body map[game.Point]struct{}, p game.Point) bool {
	_, ok := body[p]
	return ok
}

func (m GameViewModel) renderStatusPanel() string {
	var statusContent strings.Builder
	f := m.frame

	statusContent.WriteString(lipgloss.NewStyle().Bold(true).Render("--- Session ---") + "\n")
	statusContent.WriteString(fmt.Sprintf("Mode: %s\n", modeLabels[m.session.Mode]))
	statusContent.WriteString(fmt.Sprintf("Score: %d\n", f.Score))
	statusContent.WriteString(fmt.Sprintf("Length: %d\n", f.Length))
	statusContent.WriteString(fmt.Sprintf("Tick: %d\n", f.Tick))
	statusContent.WriteString(fmt.Sprintf("Direction: %c\n", headRunes[f.Direction]))
	statusContent.WriteString(fmt.Sprintf("Last decision: %s\n", f.Decision))

	if m.session.Mode == config.ModeAgent && m.thinking() {
		statusContent.WriteString(m.spinner.View() + " agent is thinking\n")
	}
	if f.Err != "" {
		statusContent.WriteString("\n" + errorStyle.Render("Last error: "+f.Err) + "\n")
	}

	statusContent.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("--- Controls ---") + "\n")
	if m.session.Manual != nil {
		statusContent.WriteString("WASD / Arrows: Move\n")
	}
	statusContent.WriteString("Q / Ctrl+C: Quit Game\n")

	return statusContent.String()
}

// thinking reports whether the loop has gone quiet for longer than a couple of ticks,
// which in agent mode means a completion is in flight.
func (m GameViewModel) thinking() bool {
	return time.Since(m.lastFrameAt) > 2*m.tickDuration
}

func (m GameViewModel) listenForFrames() tea.Cmd {
	id := m.session.Manager.ID
	frames := m.session.Frames.Frames()
	return func() tea.Msg {
		frame, ok := <-frames
		if !ok {
			return framesClosedMsg{session: id}
		}
		return frameMsg{session: id, frame: frame}
	}
}

func runSession(ctx context.Context, session *app.Session) tea.Cmd {
	return func() tea.Msg {
		err := session.Run(ctx)
		return SessionEndedMsg{Session: session.Manager.ID, Err: err}
	}
}
