package game

import "strings"

type Direction struct {
	Dx int `msgpack:"dx"`
	Dy int `msgpack:"dy"`
}

var (
	Up    = Direction{Dx: 0, Dy: -1}
	Down  = Direction{Dx: 0, Dy: 1}
	Left  = Direction{Dx: -1, Dy: 0}
	Right = Direction{Dx: 1, Dy: 0}

	// NoChange keeps whatever direction the snake already has.
	NoChange = Direction{}
)

// Directions lists the four movement vectors in decision priority order.
var Directions = []Direction{Up, Down, Left, Right}

func (d Direction) Reverse() Direction {
	return Direction{Dx: -d.Dx, Dy: -d.Dy}
}

func (d Direction) IsValid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	case NoChange:
		return "NONE"
	}
	return "INVALID"
}

// ParseDirection accepts the symbolic names (any case, surrounding space ignored).
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UP":
		return Up, true
	case "DOWN":
		return Down, true
	case "LEFT":
		return Left, true
	case "RIGHT":
		return Right, true
	}
	return NoChange, false
}
