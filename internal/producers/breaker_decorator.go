package producers

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

type emitter interface {
	Emit(ctx context.Context, userID, eventName, extra string) error
}

// BreakerEmitter stops publishing analytics while the broker keeps failing,
// so settings changes do not wait on a dead connection.
type BreakerEmitter struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped emitter
}

func NewBreakerEmitter(name string, wrapped emitter, maxFailures uint32, interval, timeout time.Duration) *BreakerEmitter {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}
	return &BreakerEmitter{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerEmitter) Emit(ctx context.Context, userID, eventName, extra string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.wrapped.Emit(ctx, userID, eventName, extra)
	})
	if err != nil {
		return errors.New(b.name + " unavailable: " + err.Error())
	}
	return nil
}

func (b *BreakerEmitter) State() gobreaker.State {
	return b.cb.State()
}
