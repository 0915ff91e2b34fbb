package agent

import (
	"fmt"
	"strings"

	"github.com/Mshel/llmsnake/internal/game"
)

// ObservationText renders the tick's state as the fixed text block embedded in the prompt.
// The same observation always yields the same text.
func ObservationText(obs game.Observation) string {
	var b strings.Builder

	b.WriteString("Coordinates of the snake: [")
	for i, p := range obs.Snake {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%d, %d)", p.X, p.Y)
	}
	b.WriteString("].\n")

	fmt.Fprintf(&b, "Coordinates of food: (%d, %d).\n", obs.Food.X, obs.Food.Y)
	fmt.Fprintf(&b, "Current direction of the snake: %s.\n", obs.PrevDirection)
	fmt.Fprintf(&b, "Width of the map: %d. Height of the map: %d.", obs.Width, obs.Height)

	return b.String()
}
