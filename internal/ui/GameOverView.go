package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// GameOverState holds what the end screen shows once a session stops.
type GameOverState struct {
	Mode           string
	FinalScore     int
	FinalLength    int
	Ticks          int
	Reason         string
	SelectedButton int
	ScreenWidth    int
	ScreenHeight   int
}

var (
	GameOverbuttonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Padding(0, 3).
				Margin(1, 1).
				Bold(true)

	selectedButtonStyle = GameOverbuttonStyle.
				Background(lipgloss.Color("4")).
				Foreground(lipgloss.Color("15"))
)

// RenderGameOverScreen draws the final stats, why the session stopped and the buttons.
func (g *GameOverState) RenderGameOverScreen() string {
	messageStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("9")).
		Padding(1, 5).
		Align(lipgloss.Center)

	heading := "S E S S I O N   O V E R"
	if g.Reason != "" {
		heading = "S E S S I O N   H A L T E D"
	}
	title := messageStyle.Render(heading)

	stats := fmt.Sprintf("\nMode: %s\nFinal score: %d\nFinal length: %d\nTicks played: %d\n",
		modeLabels[g.Mode], g.FinalScore, g.FinalLength, g.Ticks)

	parts := []string{title, stats}
	if g.Reason != "" {
		parts = append(parts, errorStyle.Width(max(20, g.ScreenWidth/2)).Render(g.Reason))
	}

	exitButton := GameOverbuttonStyle.Render("EXIT")
	againButton := GameOverbuttonStyle.Render("PLAY AGAIN")
	if g.SelectedButton == 0 {
		exitButton = selectedButtonStyle.Render("EXIT")
	} else {
		againButton = selectedButtonStyle.Render("PLAY AGAIN")
	}
	parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Center, exitButton, againButton))

	return lipgloss.Place(g.ScreenWidth, g.ScreenHeight,
		lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Render(lipgloss.JoinVertical(lipgloss.Center, parts...)),
	)
}
