package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	focusedColor = lipgloss.Color("205")
	blurredColor = lipgloss.Color("240")
	focusedStyle = lipgloss.NewStyle().Foreground(focusedColor)
	blurredStyle = lipgloss.NewStyle().Foreground(blurredColor)
	helpStyle    = blurredStyle

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder())

	submitButtonStyle = buttonStyle.
				BorderForeground(focusedColor).
				Padding(0, 1)

	blurredButtonStyle = buttonStyle.
				BorderForeground(blurredColor).
				Padding(0, 1)
)

// SetupModel asks for the completion service key when none was configured.
type SetupModel struct {
	keyInput   textinput.Model
	focusIndex int // 0: key input, 1: submit
	err        string
	width      int
	height     int
}

func NewInitialSetupModel(w, h int) SetupModel {
	ti := textinput.New()
	ti.Placeholder = "sk-..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Width = 48
	ti.Focus()
	ti.PromptStyle = focusedStyle
	ti.TextStyle = focusedStyle

	return SetupModel{
		keyInput: ti,
		width:    w,
		height:   h,
	}
}

func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab":
			m.focusIndex = 1 - m.focusIndex
			if m.focusIndex == 0 {
				return m, m.keyInput.Focus()
			}
			m.keyInput.Blur()
			return m, nil

		case "enter":
			key := strings.TrimSpace(m.keyInput.Value())
			if key == "" {
				m.err = "The agent needs an API key to play."
				m.focusIndex = 0
				return m, m.keyInput.Focus()
			}
			m.err = ""
			return m, func() tea.Msg { return SetupSubmitMsg{APIKey: key} }
		}

		if m.focusIndex == 0 {
			var cmd tea.Cmd
			m.keyInput, cmd = m.keyInput.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) View() string {
	center := func(s string) string {
		return lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center).Render(s)
	}

	var b strings.Builder

	prompt := "Completion service API key"
	if m.focusIndex == 0 {
		b.WriteString(center(focusedStyle.Render(prompt)))
	} else {
		b.WriteString(center(blurredStyle.Render(prompt)))
	}
	b.WriteString("\n")
	b.WriteString(center(m.keyInput.View()))
	b.WriteString("\n\n")

	if m.focusIndex == 1 {
		b.WriteString(center(submitButtonStyle.Render("Start")))
	} else {
		b.WriteString(center(blurredButtonStyle.Render("Start")))
	}
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString(center(errorStyle.Render(m.err)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(center(helpStyle.Render("(the key is only kept in memory; set LLMSNAKE_API_KEY to skip this, ctrl+c to quit)")))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}
