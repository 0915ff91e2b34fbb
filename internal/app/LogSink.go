package app

import (
	"github.com/charmbracelet/log"

	"github.com/Mshel/llmsnake/internal/game"
)

// LogSink reports frames to the log for headless runs. Plain moves go to debug so an
// info level log only shows food, collisions and decision failures.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger.WithPrefix("frame")}
}

func (ls *LogSink) Publish(frame game.Frame) {
	fields := []interface{}{
		"tick", frame.Tick,
		"head", frame.Head(),
		"direction", frame.Direction,
		"decision", frame.Decision,
		"length", frame.Length,
		"score", frame.Score,
		"food", frame.Food,
	}

	switch frame.Event {
	case game.EventAte, game.EventCollided:
		ls.logger.Info(frame.Event.String(), fields...)
	case game.EventSkipped:
		ls.logger.Warn(frame.Event.String(), append(fields, "err", frame.Err)...)
	case game.EventHalted:
		ls.logger.Error(frame.Event.String(), append(fields, "err", frame.Err)...)
	default:
		ls.logger.Debug(frame.Event.String(), fields...)
	}
}
