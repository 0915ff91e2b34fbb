package game

import (
	"context"
	"testing"
)

func TestGreedyStrategy(t *testing.T) {
	cases := []struct {
		name string
		obs  Observation
		want Direction
	}{
		{
			name: "eats adjacent food",
			obs:  Observation{Snake: []Point{{X: 5, Y: 5}}, Food: Point{X: 6, Y: 5}, Width: 32, Height: 24, PrevDirection: Up},
			want: Right,
		},
		{
			name: "goes across the edge when shorter",
			obs:  Observation{Snake: []Point{{X: 0, Y: 5}}, Food: Point{X: 29, Y: 5}, Width: 32, Height: 24, PrevDirection: Down},
			want: Left,
		},
		{
			name: "trapped keeps direction",
			obs: Observation{
				Snake: []Point{
					{X: 5, Y: 5}, {X: 4, Y: 5}, {X: 4, Y: 4}, {X: 5, Y: 4},
					{X: 6, Y: 4}, {X: 6, Y: 5}, {X: 6, Y: 6}, {X: 5, Y: 6},
				},
				Food:          Point{X: 20, Y: 20},
				Width:         32,
				Height:        24,
				PrevDirection: Right,
			},
			want: NoChange,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GreedyStrategy{}.NextDirection(context.Background(), tc.obs)
			if err != nil {
				t.Fatalf("NextDirection: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGreedyStrategyAvoidsBody(t *testing.T) {
	obs := Observation{
		Snake:         []Point{{X: 5, Y: 5}, {X: 4, Y: 5}, {X: 4, Y: 4}, {X: 5, Y: 4}, {X: 6, Y: 4}},
		Food:          Point{X: 5, Y: 0},
		Width:         32,
		Height:        24,
		PrevDirection: Right,
	}
	got, err := GreedyStrategy{}.NextDirection(context.Background(), obs)
	if err != nil {
		t.Fatalf("NextDirection: %v", err)
	}
	if got == Up || got == Left {
		t.Errorf("got %v, which runs into the body", got)
	}
}

func TestGreedyStrategyReachesFood(t *testing.T) {
	gm := newTestManager(t, GreedyStrategy{}, SkipTick)
	eaten := 0
	for i := 0; i < 100; i++ {
		frame, err := gm.Tick(context.Background())
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if frame.Event == EventAte {
			eaten++
		}
	}
	if eaten == 0 {
		t.Error("bot never reached food in 100 ticks")
	}
}

func TestBoardManhattanDistanceWraps(t *testing.T) {
	b := Board{Width: 32, Height: 24}
	if d := b.ManhattanDistance(Point{X: 0, Y: 0}, Point{X: 31, Y: 23}); d != 2 {
		t.Errorf("corner to corner = %d, want 2", d)
	}
	if dx, dy := b.Delta(Point{X: 2, Y: 2}, Point{X: 5, Y: 1}); dx != 3 || dy != -1 {
		t.Errorf("Delta = (%d, %d), want (3, -1)", dx, dy)
	}
}
