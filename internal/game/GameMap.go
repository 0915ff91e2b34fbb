package game

import (
	"errors"
	"fmt"
)

var ErrInvalidBoard = errors.New("board dimensions must be positive")

// Point is a cell coordinate on the board.
type Point struct {
	X int `msgpack:"x"`
	Y int `msgpack:"y"`
}

func (p Point) Add(d Direction) Point {
	return Point{X: p.X + d.Dx, Y: p.Y + d.Dy}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Board holds the grid size. Movement on it is toroidal.
type Board struct {
	Width  int
	Height int
}

func NewBoard(width, height int) (Board, error) {
	if width <= 0 || height <= 0 {
		return Board{}, fmt.Errorf("%w: got %dx%d", ErrInvalidBoard, width, height)
	}
	return Board{Width: width, Height: height}, nil
}

// Wrap reduces p onto the board so that leaving one edge re-enters on the opposite edge.
func (b Board) Wrap(p Point) Point {
	return Point{X: mod(p.X, b.Width), Y: mod(p.Y, b.Height)}
}

func (b Board) Contains(p Point) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

func (b Board) Center() Point {
	return Point{X: b.Width / 2, Y: b.Height / 2}
}

func (b Board) CellCount() int {
	return b.Width * b.Height
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

// Delta is the shortest signed offset from a to c on each axis, crossing an edge when that is shorter.
func (b Board) Delta(a, c Point) (dx, dy int) {
	return wrappedDelta(a.X, c.X, b.Width), wrappedDelta(a.Y, c.Y, b.Height)
}

// ManhattanDistance counts moves between two cells on the wrapping board.
func (b Board) ManhattanDistance(a, c Point) int {
	dx, dy := b.Delta(a, c)
	return abs(dx) + abs(dy)
}

func wrappedDelta(from, to, size int) int {
	d := mod(to-from, size)
	if d > size/2 {
		d -= size
	}
	return d
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
