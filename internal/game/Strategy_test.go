package game

import (
	"context"
	"errors"
	"testing"
)

func TestManualStrategyReturnsLatestIntent(t *testing.T) {
	ms := NewManualStrategy(0)
	ctx := context.Background()

	if dir, _ := ms.NextDirection(ctx, Observation{}); dir != NoChange {
		t.Fatalf("empty queue gave %v, want NoChange", dir)
	}

	ms.Push(Up)
	ms.Push(Left)
	if dir, _ := ms.NextDirection(ctx, Observation{}); dir != Left {
		t.Errorf("got %v, want latest intent LEFT", dir)
	}
	if dir, _ := ms.NextDirection(ctx, Observation{}); dir != NoChange {
		t.Errorf("queue was not drained, got %v", dir)
	}
}

func TestManualStrategySkipsReversalIntent(t *testing.T) {
	rightward := Observation{
		Snake:         []Point{{X: 10, Y: 10}, {X: 9, Y: 10}, {X: 8, Y: 10}},
		Length:        3,
		PrevDirection: Right,
	}
	cases := []struct {
		name    string
		intents []Direction
		obs     Observation
		want    Direction
	}{
		{"up then left keeps up", []Direction{Up, Left}, rightward, Up},
		{"left alone is ignored", []Direction{Left}, rightward, NoChange},
		{"left then down keeps down", []Direction{Left, Down}, rightward, Down},
		{"single segment may reverse", []Direction{Up, Left}, Observation{
			Snake: []Point{{X: 10, Y: 10}}, Length: 1, PrevDirection: Right,
		}, Left},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ms := NewManualStrategy(0)
			for _, dir := range tc.intents {
				ms.Push(dir)
			}
			if dir, _ := ms.NextDirection(context.Background(), tc.obs); dir != tc.want {
				t.Errorf("got %v, want %v", dir, tc.want)
			}
		})
	}
}

func TestManualStrategyRejectsInvalidAndOverflow(t *testing.T) {
	ms := NewManualStrategy(2)
	if ms.Push(NoChange) {
		t.Error("Push accepted NoChange")
	}
	if !ms.Push(Up) || !ms.Push(Down) {
		t.Fatal("Push refused while the queue had room")
	}
	if ms.Push(Right) {
		t.Error("Push accepted an intent into a full queue")
	}
	if dir, _ := ms.NextDirection(context.Background(), Observation{}); dir != Down {
		t.Errorf("got %v, want DOWN", dir)
	}
}

func luaObservation(head, food Point, dir Direction) Observation {
	return Observation{
		Snake:         []Point{head},
		Food:          food,
		Width:         32,
		Height:        24,
		PrevDirection: dir,
	}
}

func TestDefaultLuaStrategyChasesFood(t *testing.T) {
	ls, err := LoadLuaStrategy("")
	if err != nil {
		t.Fatalf("LoadLuaStrategy: %v", err)
	}
	defer ls.Close()

	cases := []struct {
		name string
		obs  Observation
		want Direction
	}{
		{"food to the right", luaObservation(Point{X: 5, Y: 5}, Point{X: 8, Y: 5}, Up), Right},
		{"food above", luaObservation(Point{X: 5, Y: 5}, Point{X: 5, Y: 2}, Left), Up},
		{"shorter across the edge", luaObservation(Point{X: 1, Y: 5}, Point{X: 30, Y: 5}, Up), Left},
		{"longer axis first", luaObservation(Point{X: 5, Y: 5}, Point{X: 6, Y: 10}, Up), Down},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ls.NextDirection(context.Background(), tc.obs)
			if err != nil {
				t.Fatalf("NextDirection: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDefaultLuaStrategyDoesNotReverse(t *testing.T) {
	ls, err := LoadLuaStrategy("")
	if err != nil {
		t.Fatalf("LoadLuaStrategy: %v", err)
	}
	defer ls.Close()

	obs := Observation{
		Snake:         []Point{{X: 5, Y: 5}, {X: 4, Y: 5}},
		Food:          Point{X: 2, Y: 5},
		Width:         32,
		Height:        24,
		PrevDirection: Right,
	}
	got, err := ls.NextDirection(context.Background(), obs)
	if err != nil {
		t.Fatalf("NextDirection: %v", err)
	}
	if got == Right.Reverse() {
		t.Errorf("strategy reversed into its own body")
	}
}

func TestLuaStrategyReturnShapes(t *testing.T) {
	cases := []struct {
		name    string
		script  string
		want    Direction
		wantErr bool
	}{
		{"name", `function next_direction(obs) return "down" end`, Down, false},
		{"table", `function next_direction(obs) return {Dx=-1, Dy=0} end`, Left, false},
		{"nil", `function next_direction(obs) return nil end`, NoChange, false},
		{"unknown name", `function next_direction(obs) return "north" end`, NoChange, true},
		{"runtime error", `function next_direction(obs) error("boom") end`, NoChange, true},
		{"reads observation", `function next_direction(obs) if obs.width == 32 and obs.direction == "UP" then return "LEFT" end end`, Left, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ls, err := NewLuaStrategy(tc.name, tc.script)
			if err != nil {
				t.Fatalf("NewLuaStrategy: %v", err)
			}
			defer ls.Close()

			got, err := ls.NextDirection(context.Background(), luaObservation(Point{X: 1, Y: 1}, Point{}, Up))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewLuaStrategyNeedsEntryPoint(t *testing.T) {
	_, err := NewLuaStrategy("empty", `local x = 1`)
	if !errors.Is(err, ErrLuaEntryPointMissing) {
		t.Errorf("err = %v, want ErrLuaEntryPointMissing", err)
	}
	if _, err := NewLuaStrategy("broken", `function (`); err == nil {
		t.Error("syntax error was accepted")
	}
}
