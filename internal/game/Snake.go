package game

import (
	"golang.org/x/exp/rand"
)

type MoveResult int

const (
	Continue MoveResult = iota
	SelfCollision
)

func (r MoveResult) String() string {
	if r == SelfCollision {
		return "self-collision"
	}
	return "continue"
}

// Snake is the body (head first), the length it is allowed to reach and its heading.
type Snake struct {
	Body      []Point
	Length    int
	Direction Direction

	board Board
	rng   *rand.Rand
}

func NewSnake(board Board, rng *rand.Rand) *Snake {
	s := &Snake{board: board, rng: rng}
	s.Reset()
	return s
}

func (s *Snake) Head() Point {
	return s.Body[0]
}

// Turn changes heading. Reversing into the body is ignored once the snake is longer than one cell.
func (s *Snake) Turn(newDir Direction) {
	if canTurn(s.Direction, newDir, s.Length) {
		s.Direction = newDir
	}
}

// canTurn reports whether a snake of the given length heading current may take next.
// Reversing is only allowed while the snake is a single segment.
func canTurn(current, next Direction, length int) bool {
	if !next.IsValid() {
		return false
	}
	return length <= 1 || next != current.Reverse()
}

// Move advances the head one cell. The cell the head leaves and the one right behind it
// are not checked, so a short body can fold back onto its own tail cell.
func (s *Snake) Move() MoveResult {
	newHead := s.board.Wrap(s.Head().Add(s.Direction))

	if len(s.Body) > 2 {
		for _, segment := range s.Body[2:] {
			if segment == newHead {
				return SelfCollision
			}
		}
	}

	s.Body = append(s.Body, Point{})
	copy(s.Body[1:], s.Body)
	s.Body[0] = newHead
	if len(s.Body) > s.Length {
		s.Body = s.Body[:s.Length]
	}
	return Continue
}

func (s *Snake) Grow() {
	s.Length++
}

// Reset puts a single segment back at the board centre with a random heading.
func (s *Snake) Reset() {
	s.Length = 1
	s.Body = []Point{s.board.Center()}
	s.Direction = Directions[s.rng.Intn(len(Directions))]
}

func (s *Snake) Occupies(p Point) bool {
	for _, segment := range s.Body {
		if segment == p {
			return true
		}
	}
	return false
}

func (s *Snake) Cells() map[Point]struct{} {
	cells := make(map[Point]struct{}, len(s.Body))
	for _, segment := range s.Body {
		cells[segment] = struct{}{}
	}
	return cells
}
