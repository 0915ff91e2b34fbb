package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"golang.org/x/exp/rand"
)

const (
	DefaultMaxAttempts = 5
	DefaultMinWait     = time.Second
	DefaultMaxWait     = 60 * time.Second
	DefaultMultiplier  = time.Second
)

// CompletionOptions are the per-request knobs. MaxTokens of zero leaves the provider default.
type CompletionOptions struct {
	Model     string
	MaxTokens int
}

// Completer turns a prompt into a completion.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// CompleterFunc adapts a plain function to a Completer.
type CompleterFunc func(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// ServiceError is returned once every attempt at a completion has failed.
type ServiceError struct {
	Attempts int
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("completion service failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

type RetryPolicy struct {
	MaxAttempts int
	MinWait     time.Duration
	MaxWait     time.Duration
	Multiplier  time.Duration
	// Retryable reports whether a failed attempt is worth repeating. Nil uses IsRetryable.
	Retryable func(error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		MinWait:     DefaultMinWait,
		MaxWait:     DefaultMaxWait,
		Multiplier:  DefaultMultiplier,
	}
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsRetryable(err)
}

// RetryingClient wraps a Completer with randomized exponential backoff.
// It is meant for one session goroutine at a time.
type RetryingClient struct {
	completer Completer
	policy    RetryPolicy
	rng       *rand.Rand
	logger    *log.Logger
}

func NewRetryingClient(completer Completer, policy RetryPolicy, rng *rand.Rand, logger *log.Logger) *RetryingClient {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RetryingClient{
		completer: completer,
		policy:    policy,
		rng:       rng,
		logger:    logger,
	}
}

func (c *RetryingClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	attempts := 0
	operation := func() (string, error) {
		attempts++
		text, err := c.completer.Complete(ctx, prompt, opts)
		if err != nil && !c.policy.retryable(err) {
			return "", backoff.Permanent(err)
		}
		return text, err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("Completion failed, backing off.",
			"attempt", attempts,
			"max_attempts", c.policy.MaxAttempts,
			"wait", wait,
			"err", err,
		)
	}

	schedule := backoff.WithContext(
		backoff.WithMaxRetries(NewRandomExponentialBackOff(c.policy, c.rng), uint64(c.policy.MaxAttempts-1)),
		ctx,
	)
	text, err := backoff.RetryNotifyWithData(operation, schedule, notify)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &ServiceError{Attempts: attempts, Err: err}
	}
	return text, nil
}
