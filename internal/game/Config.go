package game

import (
	"fmt"
	"strings"
	"time"
)

const (
	GameTickDuration   = 100 * time.Millisecond
	DefaultBoardWidth  = 32
	DefaultBoardHeight = 24
	DefaultFrameBuffer = 4
)

// ErrorPolicy says what the loop does when the strategy fails to produce a decision.
type ErrorPolicy int

const (
	// SkipTick logs the failure and keeps moving in the previous direction.
	SkipTick ErrorPolicy = iota
	// HaltSession stops the loop and reports the failure.
	HaltSession
)

func (p ErrorPolicy) String() string {
	if p == HaltSession {
		return "halt"
	}
	return "skip"
}

func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipTick, nil
	case "halt":
		return HaltSession, nil
	}
	return SkipTick, fmt.Errorf("unknown service error policy %q (want skip or halt)", s)
}

// Settings is everything a session needs that used to live in package globals.
type Settings struct {
	Board        Board
	TickDuration time.Duration
	// Seed drives food placement and reset headings. Zero picks a time based seed.
	Seed        uint64
	ErrorPolicy ErrorPolicy
	// MaxTicks stops the loop after that many ticks. Zero runs until cancelled.
	MaxTicks int
}

func DefaultSettings() Settings {
	return Settings{
		Board:        Board{Width: DefaultBoardWidth, Height: DefaultBoardHeight},
		TickDuration: GameTickDuration,
		ErrorPolicy:  SkipTick,
	}
}
