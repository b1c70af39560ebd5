package publish

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

var ErrOpen = errors.New("circuit breaker is open")

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker stops calling a sink after MaxFailures consecutive failures and lets a single trial call
// through once ResetTimeout has passed.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	log          zerolog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	now      func() time.Time
}

func NewBreaker(name string, maxFailures int, resetTimeout time.Duration, log zerolog.Logger) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}

	return &Breaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		log:          log,
		state:        Closed,
		now:          time.Now,
	}
}

func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			b.mu.Unlock()
			return ErrOpen
		}

		b.state = HalfOpen
		b.log.Info().Str("sink", b.name).Msg("breaker half-open")

	case HalfOpen:
		b.mu.Unlock()
		return ErrOpen
	}
	b.mu.Unlock()

	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state != Closed {
			b.log.Info().Str("sink", b.name).Msg("breaker closed")
		}

		b.state = Closed
		b.failures = 0

		return nil
	}

	b.failures++
	if b.state == HalfOpen || b.failures >= b.maxFailures {
		b.state = Open
		b.openedAt = b.now()
		b.log.Warn().Str("sink", b.name).Int("failures", b.failures).Msg("breaker opened")
	}

	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}
