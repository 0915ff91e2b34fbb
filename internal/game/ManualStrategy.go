package game

import "context"

const defaultIntentBuffer = 10

// ManualStrategy is fed by the keyboard. Intents queue up between ticks and the latest
// one the snake can actually take is applied.
type ManualStrategy struct {
	DirectionChannel chan Direction
}

func NewManualStrategy(buffer int) *ManualStrategy {
	if buffer <= 0 {
		buffer = defaultIntentBuffer
	}
	return &ManualStrategy{
		DirectionChannel: make(chan Direction, buffer),
	}
}

// Push queues an intent without blocking the input loop. When the queue is full the
// intent is dropped.
func (ms *ManualStrategy) Push(dir Direction) bool {
	if !dir.IsValid() {
		return false
	}
	select {
	case ms.DirectionChannel <- dir:
		return true
	default:
		return false
	}
}

// NextDirection drains the queue. Intents the snake would reject as a reversal of its
// current heading are skipped, so an earlier valid press is not lost to a later one.
func (ms *ManualStrategy) NextDirection(_ context.Context, obs Observation) (Direction, error) {
	length := obs.Length
	if length == 0 {
		length = len(obs.Snake)
	}
	latest := NoChange
	for {
		select {
		case dir := <-ms.DirectionChannel:
			if canTurn(obs.PrevDirection, dir, length) {
				latest = dir
			}
		default:
			return latest, nil
		}
	}
}
