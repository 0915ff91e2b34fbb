package game

import (
	"context"
	"math"
)

// GreedyStrategy is the built-in bot. Moves are ranked by a strict priority:
// never reverse or step onto the body, eat food next to the head, otherwise
// close the distance to the food, keeping straight and staying in open space on ties.
type GreedyStrategy struct{}

var _ Strategy = GreedyStrategy{}

func (s GreedyStrategy) NextDirection(_ context.Context, obs Observation) (Direction, error) {
	board, err := NewBoard(obs.Width, obs.Height)
	if err != nil {
		return NoChange, err
	}
	head := obs.Head()

	// --- 1. Filter valid moves with the same rule Move uses for collisions ---
	blocked := make(map[Point]struct{}, len(obs.Snake))
	for i := 2; i < len(obs.Snake); i++ {
		blocked[obs.Snake[i]] = struct{}{}
	}

	validMoves := make([]Direction, 0, len(Directions))
	for _, dir := range Directions {
		if len(obs.Snake) > 1 && dir == obs.PrevDirection.Reverse() {
			continue
		}
		if _, hit := blocked[board.Wrap(head.Add(dir))]; hit {
			continue
		}
		validMoves = append(validMoves, dir)
	}

	if len(validMoves) == 0 {
		return NoChange, nil // Trapped
	}

	// P1: Food is adjacent
	for _, dir := range validMoves {
		if board.Wrap(head.Add(dir)) == obs.Food {
			return dir, nil
		}
	}

	// P2: Approach the food. One step closer always outweighs inertia and open space.
	bestDir := validMoves[0]
	bestScore := math.MaxInt
	for _, dir := range validMoves {
		next := board.Wrap(head.Add(dir))
		score := 6 * board.ManhattanDistance(next, obs.Food)
		if dir == obs.PrevDirection {
			score--
		}
		score -= s.openNeighbours(board, next, blocked)

		if score < bestScore {
			bestScore = score
			bestDir = dir
		}
	}
	return bestDir, nil
}

func (s GreedyStrategy) openNeighbours(board Board, p Point, blocked map[Point]struct{}) int {
	open := 0
	for _, dir := range Directions {
		if _, hit := blocked[board.Wrap(p.Add(dir))]; !hit {
			open++
		}
	}
	return open
}
