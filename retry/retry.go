// Package retry runs flaky extractions with bounded attempts and backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"time"

	"go.uber.org/zap"
)

type Backoff int

const (
	Fixed Backoff = iota
	Exponential
)

// ErrEmpty marks an attempt that returned no error but an empty value.
var ErrEmpty = errors.New("empty result")

// Policy controls one call site. Cheap DOM reads use short fixed delays,
// page loads use exponential ones.
type Policy struct {
	Name        string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Backoff     Backoff
	Factor      float64
	Jitter      bool
	Logger      *zap.Logger
}

func FieldPolicy() Policy {
	return Policy{
		Name:        "field",
		MaxAttempts: 2,
		BaseDelay:   50 * time.Millisecond,
		Backoff:     Fixed,
		Logger:      zap.NewNop(),
	}
}

func PagePolicy() Policy {
	return Policy{
		Name:        "page",
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Backoff:     Exponential,
		Factor:      2,
		Jitter:      true,
		Logger:      zap.NewNop(),
	}
}

// Delay returns how long to wait before the given attempt (1-based).
// The first attempt never waits.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 || p.BaseDelay <= 0 {
		return 0
	}

	d := p.BaseDelay
	if p.Backoff == Exponential {
		factor := p.Factor
		if factor <= 1 {
			factor = 2
		}
		d = time.Duration(float64(p.BaseDelay) * math.Pow(factor, float64(attempt-2)))
	}

	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}

	if p.Jitter {
		// ±10%
		spread := int64(d) / 5
		if spread > 0 {
			d = d - time.Duration(spread/2) + time.Duration(rand.Int63n(spread))
		}
	}

	return d
}

func (p Policy) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Run calls fn until it returns a non-empty value. Errors, panics and empty
// values all consume an attempt. On exhaustion or cancellation it returns
// def and never the underlying error.
func Run[T any](ctx context.Context, p Policy, def T, fn func(context.Context) (T, error)) T {
	var v T
	err := Do(ctx, p, func(ctx context.Context) error {
		r, err := fn(ctx)
		if err != nil {
			return err
		}
		if IsEmpty(r) {
			return ErrEmpty
		}
		v = r
		return nil
	})
	if err != nil {
		return def
	}
	return v
}

// Do calls fn until it returns nil and reports the last error on exhaustion.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	var (
		lastErr error
		max     = p.attempts()
		logger  = p.logger()
	)

	for attempt := 1; attempt <= max; attempt++ {
		if delay := p.Delay(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		err := call(ctx, fn)
		if err == nil {
			if attempt > 1 {
				logger.Debug("succeeded after retry",
					zap.String("op", p.Name),
					zap.Int("attempt", attempt))
			}
			return nil
		}

		lastErr = err
		if attempt < max {
			logger.Debug("attempt failed, retrying",
				zap.String("op", p.Name),
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", max))
		}
	}

	if !errors.Is(lastErr, ErrEmpty) {
		logger.Warn("all attempts failed",
			zap.String("op", p.Name),
			zap.Error(lastErr),
			zap.Int("max_attempts", max))
	}

	return fmt.Errorf("%s failed after %d attempts: %w", p.Name, max, lastErr)
}

func call(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// IsEmpty reports whether v is nil, a blank string, or an empty collection.
func IsEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return len(s) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String, reflect.Chan:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}
