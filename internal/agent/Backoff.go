package agent

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/exp/rand"
)

// RandomExponentialBackOff waits a uniformly random duration between MinWait and
// Multiplier*2^(n-1) for the n-th retry, with the upper bound clamped to [MinWait, MaxWait].
type RandomExponentialBackOff struct {
	MinWait    time.Duration
	MaxWait    time.Duration
	Multiplier time.Duration

	rng   *rand.Rand
	retry int
}

var _ backoff.BackOff = (*RandomExponentialBackOff)(nil)

func NewRandomExponentialBackOff(policy RetryPolicy, rng *rand.Rand) *RandomExponentialBackOff {
	return &RandomExponentialBackOff{
		MinWait:    policy.MinWait,
		MaxWait:    policy.MaxWait,
		Multiplier: policy.Multiplier,
		rng:        rng,
	}
}

func (b *RandomExponentialBackOff) Reset() {
	b.retry = 0
}

func (b *RandomExponentialBackOff) NextBackOff() time.Duration {
	b.retry++
	high := b.upperBound(b.retry)
	if high <= b.MinWait {
		return b.MinWait
	}
	return b.MinWait + time.Duration(b.rng.Int63n(int64(high-b.MinWait)+1))
}

func (b *RandomExponentialBackOff) upperBound(retry int) time.Duration {
	maxWait := b.MaxWait
	if maxWait < b.MinWait {
		maxWait = b.MinWait
	}

	grown := float64(b.Multiplier) * math.Pow(2, float64(retry-1))
	switch {
	case grown >= float64(maxWait):
		return maxWait
	case grown <= float64(b.MinWait):
		return b.MinWait
	}
	return time.Duration(grown)
}
