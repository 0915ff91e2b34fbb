package game

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// --- Test environment ---

const testSeed = 7

func newTestManager(t *testing.T, strategy Strategy, policy ErrorPolicy) *GameManager {
	t.Helper()
	settings := Settings{
		Board:        Board{Width: 32, Height: 24},
		TickDuration: time.Millisecond,
		Seed:         testSeed,
		ErrorPolicy:  policy,
	}
	gm, err := NewGameManager(settings, strategy, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewGameManager: %v", err)
	}
	return gm
}

func always(dir Direction) Strategy {
	return StrategyFunc(func(context.Context, Observation) (Direction, error) {
		return dir, nil
	})
}

func failing(err error) Strategy {
	return StrategyFunc(func(context.Context, Observation) (Direction, error) {
		return NoChange, err
	})
}

func TestNewGameManagerStartsCentered(t *testing.T) {
	gm := newTestManager(t, always(NoChange), SkipTick)
	if gm.Snake.Head() != (Point{X: 16, Y: 12}) || gm.Snake.Length != 1 {
		t.Errorf("start snake = %v length %d", gm.Snake.Body, gm.Snake.Length)
	}
	if gm.Snake.Occupies(gm.Food) {
		t.Errorf("initial food %v placed on the snake", gm.Food)
	}
	if !gm.Board.Contains(gm.Food) {
		t.Errorf("initial food %v off the board", gm.Food)
	}
}

func TestFiveTicksRightAdvanceFiveCells(t *testing.T) {
	gm := newTestManager(t, NewManualStrategy(0), SkipTick)
	gm.Snake.Direction = Right
	gm.Food = Point{X: 0, Y: 0}
	start := gm.Snake.Head()

	for i := 0; i < 5; i++ {
		if _, err := gm.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	want := Point{X: (start.X + 5) % 32, Y: start.Y}
	if gm.Snake.Head() != want {
		t.Errorf("head = %v, want %v", gm.Snake.Head(), want)
	}
	if gm.Snake.Length != 1 || len(gm.Snake.Body) != 1 {
		t.Errorf("length = %d (%d segments), want 1", gm.Snake.Length, len(gm.Snake.Body))
	}
	if gm.Ticks != 5 {
		t.Errorf("ticks = %d, want 5", gm.Ticks)
	}
}

func TestTickEatsFoodGrowsAndRespawns(t *testing.T) {
	gm := newTestManager(t, always(Right), SkipTick)
	gm.Food = gm.Snake.Head().Add(Right)

	frame, err := gm.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if frame.Event != EventAte {
		t.Errorf("event = %v, want ate", frame.Event)
	}
	if gm.Score != 1 || gm.Snake.Length != 2 {
		t.Errorf("score %d length %d, want 1 and 2", gm.Score, gm.Snake.Length)
	}
	if gm.Snake.Occupies(gm.Food) {
		t.Errorf("respawned food %v is on the snake %v", gm.Food, gm.Snake.Body)
	}

	// The grown snake keeps its tail on the next move.
	gm.Food = Point{X: 0, Y: 0}
	if _, err := gm.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(gm.Snake.Body) != 2 {
		t.Errorf("body has %d segments after growing, want 2", len(gm.Snake.Body))
	}
}

func TestTickSelfCollisionResetsSnakeAndScore(t *testing.T) {
	gm := newTestManager(t, always(NoChange), SkipTick)
	gm.Snake.Body = []Point{{X: 2, Y: 2}, {X: 2, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}}
	gm.Snake.Length = 5
	gm.Snake.Direction = Right
	gm.Score = 4
	gm.Food = Point{X: 20, Y: 20}

	frame, err := gm.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if frame.Event != EventCollided {
		t.Errorf("event = %v, want collided", frame.Event)
	}
	if gm.Score != 0 || frame.Score != 0 {
		t.Errorf("score = %d, want 0", gm.Score)
	}
	if gm.Snake.Length != 1 || len(gm.Snake.Body) != 1 || gm.Snake.Head() != gm.Board.Center() {
		t.Errorf("snake after reset = %v length %d", gm.Snake.Body, gm.Snake.Length)
	}
}

func TestTickKeepsEarlierKeyWhenLaterOneReverses(t *testing.T) {
	ms := NewManualStrategy(0)
	gm := newTestManager(t, ms, SkipTick)
	gm.Snake.Body = []Point{{X: 10, Y: 10}, {X: 9, Y: 10}, {X: 8, Y: 10}}
	gm.Snake.Length = 3
	gm.Snake.Direction = Right
	gm.Food = Point{X: 0, Y: 0}

	ms.Push(Up)
	ms.Push(Left)
	if _, err := gm.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if gm.Snake.Direction != Up || gm.Snake.Head() != (Point{X: 10, Y: 9}) {
		t.Errorf("direction %v head %v, want UP at (10, 9)", gm.Snake.Direction, gm.Snake.Head())
	}
}

func TestTickSkipPolicyKeepsDirection(t *testing.T) {
	gm := newTestManager(t, failing(errors.New("remote down")), SkipTick)
	gm.Snake.Direction = Down
	gm.Food = Point{X: 0, Y: 0}
	start := gm.Snake.Head()

	frame, err := gm.Tick(context.Background())
	if err != nil {
		t.Fatalf("skip policy returned %v", err)
	}
	if frame.Event != EventSkipped {
		t.Errorf("event = %v, want skipped", frame.Event)
	}
	if frame.Err == "" {
		t.Error("frame does not carry the decision error")
	}
	if gm.Snake.Head() != start.Add(Down) {
		t.Errorf("head = %v, want %v", gm.Snake.Head(), start.Add(Down))
	}
}

func TestTickHaltPolicyStopsSession(t *testing.T) {
	cause := errors.New("remote down")
	gm := newTestManager(t, failing(cause), HaltSession)
	start := gm.Snake.Head()

	frame, err := gm.Tick(context.Background())
	if !errors.Is(err, ErrSessionHalted) || !errors.Is(err, cause) {
		t.Fatalf("err = %v, want halted wrapping the cause", err)
	}
	if frame.Event != EventHalted || !gm.Halted {
		t.Errorf("event %v halted %v", frame.Event, gm.Halted)
	}
	if gm.Snake.Head() != start {
		t.Errorf("halted tick still moved the snake to %v", gm.Snake.Head())
	}
	if _, err := gm.Tick(context.Background()); !errors.Is(err, ErrSessionHalted) {
		t.Errorf("tick after halt returned %v", err)
	}
}

func TestTickCancelledContextIsNotSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gm := newTestManager(t, StrategyFunc(func(ctx context.Context, _ Observation) (Direction, error) {
		return NoChange, ctx.Err()
	}), SkipTick)
	start := gm.Snake.Head()

	if _, err := gm.Tick(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if gm.Snake.Head() != start || gm.Ticks != 0 {
		t.Error("cancelled tick changed the state")
	}
}

func TestStartGameLoopStopsAtMaxTicks(t *testing.T) {
	settings := Settings{
		Board:        Board{Width: 32, Height: 24},
		TickDuration: time.Millisecond,
		Seed:         testSeed,
		MaxTicks:     3,
	}
	gm, err := NewGameManager(settings, always(NoChange), log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewGameManager: %v", err)
	}
	sink := NewChannelSink(10)
	gm.AddSink(sink)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gm.StartGameLoop(ctx); err != nil {
		t.Fatalf("StartGameLoop: %v", err)
	}
	sink.Close()

	var ticks []int
	for frame := range sink.Frames() {
		ticks = append(ticks, frame.Tick)
	}
	if len(ticks) != 4 || ticks[0] != 0 || ticks[3] != 3 {
		t.Errorf("published ticks %v, want [0 1 2 3]", ticks)
	}
}

func TestStartGameLoopReturnsOnCancel(t *testing.T) {
	gm := newTestManager(t, always(NoChange), SkipTick)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gm.StartGameLoop(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestChannelSinkKeepsNewestFrame(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Publish(Frame{Tick: 1})
	sink.Publish(Frame{Tick: 2})

	if got := <-sink.Frames(); got.Tick != 2 {
		t.Errorf("got tick %d, want 2", got.Tick)
	}
}

func TestObservationIsACopy(t *testing.T) {
	gm := newTestManager(t, always(NoChange), SkipTick)
	obs := gm.Observation()
	obs.Snake[0] = Point{X: -1, Y: -1}
	if gm.Snake.Head() == obs.Snake[0] {
		t.Error("observation shares the snake body")
	}
	if obs.Width != 32 || obs.Height != 24 || obs.PrevDirection != gm.Snake.Direction {
		t.Errorf("observation %+v does not mirror the board", obs)
	}
}
