package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Mshel/llmsnake/internal/config"
)

// IntroModel holds the state for the main menu: which decision source drives the snake.
type IntroModel struct {
	modes    []string
	selected int
	err      string
	width    int
	height   int
}

var modeLabels = map[string]string{
	config.ModeAgent:  "Watch the Agent",
	config.ModeManual: "Play Yourself",
	config.ModeScript: "Run a Lua Script",
	config.ModeBot:    "Watch the Bot",
}

func NewIntroModel(modes []string, preferred string, w, h int) IntroModel {
	selected := 0
	for i, mode := range modes {
		if mode == preferred {
			selected = i
		}
	}
	return IntroModel{modes: modes, selected: selected, width: w, height: h}
}

func (m IntroModel) Init() tea.Cmd { return nil }

func (m IntroModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case SessionFailedMsg:
		m.err = msg.Err.Error()

	case tea.KeyMsg:
		if len(m.modes) == 0 {
			return m, nil
		}
		switch msg.String() {
		case "left", "h":
			m.selected = (m.selected - 1 + len(m.modes)) % len(m.modes)
		case "right", "l":
			m.selected = (m.selected + 1) % len(m.modes)
		case "enter":
			mode := m.modes[m.selected]
			m.err = ""
			return m, func() tea.Msg { return IntroSubmitMsg{Mode: mode} }
		}
	}
	return m, nil
}

var snakeAscii = `
 ██      ██      ███    ███     ███████ ███    ██  █████  ██   ██ ███████
 ██      ██      ████  ████     ██      ████   ██ ██   ██ ██  ██  ██
 ██      ██      ██ ████ ██     ███████ ██ ██  ██ ███████ █████   █████
 ██      ██      ██  ██  ██          ██ ██  ██ ██ ██   ██ ██  ██  ██
 ███████ ███████ ██      ██     ███████ ██   ████ ██   ██ ██   ██ ███████
`

var (
	asciiStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("84"))

	introButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Padding(0, 3).
				Margin(1, 2).
				Border(lipgloss.RoundedBorder())

	introSelectedButtonStyle = introButtonStyle.
					Background(lipgloss.Color("84")).
					Foreground(lipgloss.Color("0"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (m IntroModel) View() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(asciiStyle.Render(snakeAscii))
	sb.WriteString("\n")

	buttons := make([]string, 0, len(m.modes))
	for i, mode := range m.modes {
		label := modeLabels[mode]
		if i == m.selected {
			buttons = append(buttons, introSelectedButtonStyle.Render(label))
		} else {
			buttons = append(buttons, introButtonStyle.Render(label))
		}
	}

	parts := []string{sb.String(), lipgloss.JoinHorizontal(lipgloss.Center, buttons...)}
	if m.err != "" {
		parts = append(parts, errorStyle.Render(m.err))
	}
	parts = append(parts, helpStyle.Render("(left/right to choose, enter to start, q to quit)"))

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, parts...),
	)
}
