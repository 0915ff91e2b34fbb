package game

import (
	"golang.org/x/exp/rand"
)

// foodDraws is the first draw plus one re-draw when it lands on the snake.
const foodDraws = 2

type FoodSpawner struct {
	rng *rand.Rand
}

func NewFoodSpawner(rng *rand.Rand) *FoodSpawner {
	return &FoodSpawner{rng: rng}
}

// Spawn picks a uniformly random cell, trying to stay off the excluded cells.
// It gives up after foodDraws attempts and keeps the last draw.
func (fs *FoodSpawner) Spawn(board Board, excluded map[Point]struct{}) Point {
	var p Point
	for range foodDraws {
		p = Point{
			X: fs.rng.Intn(board.Width),
			Y: fs.rng.Intn(board.Height),
		}
		if _, taken := excluded[p]; !taken {
			return p
		}
	}
	return p
}
