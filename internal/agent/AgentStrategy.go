package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Mshel/llmsnake/internal/game"
)

const DefaultReasoningTokens = 512

type Options struct {
	Model string
	// ReasoningTokens caps the first completion. The decision completion is left uncapped.
	ReasoningTokens int
	// Verbose logs each phase's prompt and reply as soon as the phase returns.
	Verbose bool
}

// AgentStrategy asks a language model where to go in two steps: it first has the model
// reason about each move, then appends that reasoning and asks for the final choice.
type AgentStrategy struct {
	client  Completer
	options Options
	logger  *log.Logger
}

var _ game.Strategy = (*AgentStrategy)(nil)

func NewAgentStrategy(client Completer, options Options, logger *log.Logger) *AgentStrategy {
	if options.Model == "" {
		options.Model = DefaultModel
	}
	if options.ReasoningTokens <= 0 {
		options.ReasoningTokens = DefaultReasoningTokens
	}
	if logger == nil {
		logger = log.Default()
	}
	return &AgentStrategy{
		client:  client,
		options: options,
		logger:  logger.WithPrefix("agent"),
	}
}

func (a *AgentStrategy) NextDirection(ctx context.Context, obs game.Observation) (game.Direction, error) {
	prompt := ReasoningPrompt(obs)

	reasoning, err := a.client.Complete(ctx, prompt, CompletionOptions{
		Model:     a.options.Model,
		MaxTokens: a.options.ReasoningTokens,
	})
	if err != nil {
		return game.NoChange, fmt.Errorf("reasoning step: %w", err)
	}
	if a.options.Verbose {
		a.logger.Info("Reasoning", "tick", obs.Tick, "prompt", prompt, "reply", reasoning)
	}

	prompt = DecisionPrompt(prompt, reasoning)
	reply, err := a.client.Complete(ctx, prompt, CompletionOptions{Model: a.options.Model})
	if err != nil {
		return game.NoChange, fmt.Errorf("decision step: %w", err)
	}
	if a.options.Verbose {
		a.logger.Info("Decision", "tick", obs.Tick, "reply", reply)
	}

	dir := ParseDecision(reply)
	if dir == game.NoChange {
		a.logger.Debug("Reply names no direction, keeping heading.", "tick", obs.Tick, "reply", reply)
	}
	return dir, nil
}

// ReasoningPrompt is the instructions, the observation and the cue to weigh each move.
func ReasoningPrompt(obs game.Observation) string {
	return basePrompt + "\n" + ObservationText(obs) + reasoningCue
}

// DecisionPrompt extends the reasoning prompt with the model's reasoning and the final question.
func DecisionPrompt(reasoningPrompt, reasoning string) string {
	return reasoningPrompt + reasoning + decisionCue()
}

// ParseDecision returns the first direction named in reply, checking UP, DOWN, LEFT, RIGHT
// in that order. A reply naming none of them yields NoChange.
func ParseDecision(reply string) game.Direction {
	for _, dir := range game.Directions {
		if strings.Contains(reply, dir.String()) {
			return dir
		}
	}
	return game.NoChange
}
