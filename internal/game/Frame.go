package game

import "sync"

type Event int

const (
	EventMoved Event = iota
	EventAte
	EventCollided
	EventSkipped
	EventHalted
)

func (e Event) String() string {
	switch e {
	case EventMoved:
		return "moved"
	case EventAte:
		return "ate"
	case EventCollided:
		return "collided"
	case EventSkipped:
		return "skipped"
	case EventHalted:
		return "halted"
	}
	return "unknown"
}

// Frame is the render-ready copy of the state at the end of a tick.
type Frame struct {
	Tick      int       `msgpack:"tick"`
	Snake     []Point   `msgpack:"snake"`
	Food      Point     `msgpack:"food"`
	Score     int       `msgpack:"score"`
	Length    int       `msgpack:"length"`
	Direction Direction `msgpack:"direction"`
	Width     int       `msgpack:"width"`
	Height    int       `msgpack:"height"`
	Event     Event     `msgpack:"event"`
	// Decision holds what the strategy answered this tick, NoChange included.
	Decision Direction `msgpack:"decision"`
	Err      string    `msgpack:"err,omitempty"`
}

func (f Frame) Head() Point {
	if len(f.Snake) == 0 {
		return Point{}
	}
	return f.Snake[0]
}

type FrameSink interface {
	Publish(frame Frame)
}

// ChannelSink hands frames to a single reader. A slow reader only ever misses stale frames:
// when the buffer is full the oldest frame is discarded.
type ChannelSink struct {
	frames    chan Frame
	closeOnce sync.Once
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{frames: make(chan Frame, buffer)}
}

func (cs *ChannelSink) Frames() <-chan Frame {
	return cs.frames
}

// Publish must only be called from the game loop goroutine.
func (cs *ChannelSink) Publish(frame Frame) {
	for {
		select {
		case cs.frames <- frame:
			return
		default:
		}
		select {
		case <-cs.frames:
		default:
		}
	}
}

func (cs *ChannelSink) Close() {
	cs.closeOnce.Do(func() { close(cs.frames) })
}
