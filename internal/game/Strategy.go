package game

import "context"

// Strategy decides where the snake goes next. Returning NoChange keeps the current heading.
type Strategy interface {
	NextDirection(ctx context.Context, obs Observation) (Direction, error)
}

// Observation is the read-only view of one tick handed to a Strategy.
type Observation struct {
	Snake         []Point
	Length        int
	Food          Point
	Width         int
	Height        int
	PrevDirection Direction
	Score         int
	Tick          int
}

func (o Observation) Head() Point {
	if len(o.Snake) == 0 {
		return Point{}
	}
	return o.Snake[0]
}

// StrategyFunc adapts a plain function to a Strategy.
type StrategyFunc func(ctx context.Context, obs Observation) (Direction, error)

func (f StrategyFunc) NextDirection(ctx context.Context, obs Observation) (Direction, error) {
	return f(ctx, obs)
}
