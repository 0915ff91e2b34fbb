package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

var ErrSessionHalted = errors.New("session halted")

// GameManager owns one session: the snake, the food and the score. Only the goroutine
// running StartGameLoop (or calling Tick) may touch them.
type GameManager struct {
	ID     uuid.UUID
	Board  Board
	Snake  *Snake
	Food   Point
	Score  int
	Ticks  int
	Halted bool

	strategy  Strategy
	spawner   *FoodSpawner
	settings  Settings
	sinks     []FrameSink
	logger    *log.Logger
	lastError string
}

func NewGameManager(settings Settings, strategy Strategy, logger *log.Logger) (*GameManager, error) {
	board, err := NewBoard(settings.Board.Width, settings.Board.Height)
	if err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, errors.New("game manager needs a strategy")
	}
	if settings.TickDuration <= 0 {
		settings.TickDuration = GameTickDuration
	}
	if settings.Seed == 0 {
		settings.Seed = uint64(time.Now().UnixNano())
	}
	if logger == nil {
		logger = log.Default()
	}

	id := uuid.New()
	rng := rand.New(rand.NewSource(settings.Seed))

	gm := &GameManager{
		ID:       id,
		Board:    board,
		Snake:    NewSnake(board, rng),
		strategy: strategy,
		spawner:  NewFoodSpawner(rng),
		settings: settings,
		logger:   logger.With("session", id.String()),
	}
	gm.Food = gm.spawner.Spawn(board, gm.Snake.Cells())

	return gm, nil
}

func (gm *GameManager) AddSink(sink FrameSink) {
	gm.sinks = append(gm.sinks, sink)
}

func (gm *GameManager) Settings() Settings {
	return gm.settings
}

// StartGameLoop ticks at the configured cadence until ctx is done, MaxTicks is reached
// or the session halts. A slow strategy simply delays the next tick.
func (gm *GameManager) StartGameLoop(ctx context.Context) error {
	gm.logger.Info("Game loop started.", "tick", gm.settings.TickDuration, "board",
		fmt.Sprintf("%dx%d", gm.Board.Width, gm.Board.Height), "policy", gm.settings.ErrorPolicy)
	defer func() {
		gm.logger.Info("Game loop stopped.", "ticks", gm.Ticks, "score", gm.Score)
	}()

	gm.publish(gm.frame(EventMoved, NoChange))

	ticker := time.NewTicker(gm.settings.TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := gm.Tick(ctx); err != nil {
				return err
			}
			if gm.settings.MaxTicks > 0 && gm.Ticks >= gm.settings.MaxTicks {
				return nil
			}
		}
	}
}

// Tick runs one step: ask the strategy, turn, move, then resolve collision or food.
func (gm *GameManager) Tick(ctx context.Context) (Frame, error) {
	if gm.Halted {
		return gm.frame(EventHalted, NoChange), ErrSessionHalted
	}

	skipped := false
	decision, err := gm.strategy.NextDirection(ctx, gm.Observation())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return gm.frame(EventMoved, NoChange), ctxErr
		}
		gm.lastError = err.Error()

		if gm.settings.ErrorPolicy == HaltSession {
			gm.Halted = true
			gm.logger.Error("Decision failed, halting session.", "tick", gm.Ticks, "error", err)
			frame := gm.frame(EventHalted, NoChange)
			gm.publish(frame)
			return frame, fmt.Errorf("%w at tick %d: %w", ErrSessionHalted, gm.Ticks, err)
		}

		gm.logger.Warn("Decision failed, keeping direction.", "tick", gm.Ticks, "direction", gm.Snake.Direction, "error", err)
		decision = NoChange
		skipped = true
	} else {
		gm.lastError = ""
	}

	gm.Snake.Turn(decision)

	event := EventMoved
	switch gm.Snake.Move() {
	case SelfCollision:
		gm.logger.Info("Snake ran into itself.", "tick", gm.Ticks, "length", gm.Snake.Length, "score", gm.Score)
		gm.Snake.Reset()
		gm.Score = 0
		event = EventCollided
	case Continue:
		if gm.Snake.Head() == gm.Food {
			gm.Snake.Grow()
			gm.Score++
			gm.Food = gm.spawner.Spawn(gm.Board, gm.Snake.Cells())
			gm.logger.Debug("Food eaten.", "tick", gm.Ticks, "score", gm.Score, "food", gm.Food)
			event = EventAte
		}
	}
	if skipped && event == EventMoved {
		event = EventSkipped
	}

	gm.Ticks++
	frame := gm.frame(event, decision)
	gm.publish(frame)
	return frame, nil
}

func (gm *GameManager) Observation() Observation {
	body := make([]Point, len(gm.Snake.Body))
	copy(body, gm.Snake.Body)
	return Observation{
		Snake:         body,
		Length:        gm.Snake.Length,
		Food:          gm.Food,
		Width:         gm.Board.Width,
		Height:        gm.Board.Height,
		PrevDirection: gm.Snake.Direction,
		Score:         gm.Score,
		Tick:          gm.Ticks,
	}
}

func (gm *GameManager) frame(event Event, decision Direction) Frame {
	body := make([]Point, len(gm.Snake.Body))
	copy(body, gm.Snake.Body)
	return Frame{
		Tick:      gm.Ticks,
		Snake:     body,
		Food:      gm.Food,
		Score:     gm.Score,
		Length:    gm.Snake.Length,
		Direction: gm.Snake.Direction,
		Width:     gm.Board.Width,
		Height:    gm.Board.Height,
		Event:     event,
		Decision:  decision,
		Err:       gm.lastError,
	}
}

func (gm *GameManager) publish(frame Frame) {
	for _, sink := range gm.sinks {
		sink.Publish(frame)
	}
}
