package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/Mshel/llmsnake/internal/game"
)

type recordedCall struct {
	prompt string
	opts   CompletionOptions
}

type scriptedCompleter struct {
	replies []string
	calls   []recordedCall
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt string, opts CompletionOptions) (string, error) {
	s.calls = append(s.calls, recordedCall{prompt: prompt, opts: opts})
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func testObservation() game.Observation {
	return game.Observation{
		Snake:         []game.Point{{X: 10, Y: 10}, {X: 9, Y: 10}},
		Food:          game.Point{X: 3, Y: 7},
		Width:         32,
		Height:        24,
		PrevDirection: game.Right,
	}
}

func TestObservationText(t *testing.T) {
	want := "Coordinates of the snake: [(10, 10), (9, 10)].\n" +
		"Coordinates of food: (3, 7).\n" +
		"Current direction of the snake: RIGHT.\n" +
		"Width of the map: 32. Height of the map: 24."
	if got := ObservationText(testObservation()); got != want {
		t.Errorf("ObservationText =\n%s\nwant\n%s", got, want)
	}
}

func TestParseDecision(t *testing.T) {
	cases := []struct {
		reply string
		want  game.Direction
	}{
		{" LEFT.", game.Left},
		{" RIGHT", game.Right},
		{"DOWN, then LEFT", game.Down},
		{"LEFT or UP", game.Up},
		{"nowhere in particular", game.NoChange},
		{"left", game.NoChange},
	}
	for _, tc := range cases {
		if got := ParseDecision(tc.reply); got != tc.want {
			t.Errorf("ParseDecision(%q) = %v, want %v", tc.reply, got, tc.want)
		}
	}
}

func TestAgentStrategyTwoStepPrompt(t *testing.T) {
	fake := &scriptedCompleter{replies: []string{" going left reaches the food.", " LEFT"}}
	strategy := NewAgentStrategy(fake, Options{Model: "test-model"}, log.New(io.Discard))

	dir, err := strategy.NextDirection(context.Background(), testObservation())
	if err != nil {
		t.Fatalf("NextDirection: %v", err)
	}
	if dir != game.Left {
		t.Errorf("dir = %v, want LEFT", dir)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("made %d completion calls, want 2", len(fake.calls))
	}

	first, second := fake.calls[0], fake.calls[1]
	if !strings.HasSuffix(first.prompt, "\nLet's break down each possible move:") {
		t.Error("reasoning prompt does not end with the reasoning cue")
	}
	if !strings.Contains(first.prompt, ObservationText(testObservation())) {
		t.Error("reasoning prompt is missing the observation")
	}
	if first.opts.MaxTokens != DefaultReasoningTokens || first.opts.Model != "test-model" {
		t.Errorf("reasoning options = %+v", first.opts)
	}

	wantSecond := first.prompt + " going left reaches the food." +
		"\nTherefore out of LEFT, RIGHT, UP, DOWN, the best option is to go"
	if second.prompt != wantSecond {
		t.Errorf("decision prompt =\n%q\nwant\n%q", second.prompt, wantSecond)
	}
	if second.opts.MaxTokens != 0 {
		t.Errorf("decision call capped at %d tokens", second.opts.MaxTokens)
	}
}

func TestAgentStrategyWrapsServiceError(t *testing.T) {
	fake := CompleterFunc(func(context.Context, string, CompletionOptions) (string, error) {
		return "", &ServiceError{Attempts: 5, Err: errors.New("503")}
	})
	strategy := NewAgentStrategy(fake, Options{}, log.New(io.Discard))

	dir, err := strategy.NextDirection(context.Background(), testObservation())
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) || dir != game.NoChange {
		t.Errorf("got %v, %v; want NoChange and a ServiceError", dir, err)
	}
}

func TestAgentStrategyVerboseLogsEachPhase(t *testing.T) {
	calls := 0
	decisionErr := &ServiceError{Attempts: 5, Err: errors.New("503")}
	fake := CompleterFunc(func(context.Context, string, CompletionOptions) (string, error) {
		calls++
		if calls == 1 {
			return "going up avoids the tail", nil
		}
		if calls == 2 {
			return "", decisionErr
		}
		return "LEFT", nil
	})

	var buf bytes.Buffer
	strategy := NewAgentStrategy(fake, Options{Verbose: true}, log.New(&buf))

	if _, err := strategy.NextDirection(context.Background(), testObservation()); !errors.Is(err, decisionErr) {
		t.Fatalf("err = %v, want the decision step error", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Coordinates of the snake") || !strings.Contains(out, "going up avoids the tail") {
		t.Errorf("reasoning phase not logged before the decision failed:\n%s", out)
	}
	if strings.Contains(out, "Decision") {
		t.Errorf("failed decision phase logged as a reply:\n%s", out)
	}

	buf.Reset()
	calls = 2
	if dir, err := strategy.NextDirection(context.Background(), testObservation()); err != nil || dir != game.Left {
		t.Fatalf("got %v, %v; want LEFT", dir, err)
	}
	if !strings.Contains(buf.String(), "Decision") {
		t.Errorf("decision reply not logged:\n%s", buf.String())
	}
}
