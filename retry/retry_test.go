package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(attempts int) Policy {
	p := FieldPolicy()
	p.MaxAttempts = attempts
	p.BaseDelay = 0
	return p
}

func TestRunExhaustionReturnsDefault(t *testing.T) {
	calls := 0
	v := Run(context.Background(), fast(3), "n/a", func(context.Context) (string, error) {
		calls++
		return "", nil
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, "n/a", v)
}

func TestRunFailureKinds(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(int) ([]string, error)
		want  []string
		calls int
	}{
		{
			name:  "first attempt",
			fn:    func(int) ([]string, error) { return []string{"a"}, nil },
			want:  []string{"a"},
			calls: 1,
		},
		{
			name: "error then value",
			fn: func(i int) ([]string, error) {
				if i == 1 {
					return nil, errors.New("stale element")
				}
				return []string{"b"}, nil
			},
			want:  []string{"b"},
			calls: 2,
		},
		{
			name: "empty collection counts as failure",
			fn: func(i int) ([]string, error) {
				if i < 3 {
					return []string{}, nil
				}
				return []string{"c"}, nil
			},
			want:  []string{"c"},
			calls: 3,
		},
		{
			name: "panic is a failed attempt",
			fn: func(i int) ([]string, error) {
				if i == 1 {
					panic("boom")
				}
				return []string{"d"}, nil
			},
			want:  []string{"d"},
			calls: 2,
		},
		{
			name:  "always errors",
			fn:    func(int) ([]string, error) { return nil, errors.New("gone") },
			want:  nil,
			calls: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got := Run(context.Background(), fast(3), nil, func(context.Context) ([]string, error) {
				calls++
				return tt.fn(calls)
			})
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.calls, calls)
		})
	}
}

func TestDoReturnsLastError(t *testing.T) {
	want := errors.New("timeout")
	calls := 0
	err := Do(context.Background(), fast(2), func(context.Context) error {
		calls++
		return want
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, want)
	assert.Equal(t, 2, calls)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := fast(5)
	p.BaseDelay = time.Hour

	calls := 0
	err := Do(ctx, p, func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDelay(t *testing.T) {
	exp := Policy{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Backoff: Exponential, Factor: 2}
	assert.Equal(t, time.Duration(0), exp.Delay(1))
	assert.Equal(t, time.Second, exp.Delay(2))
	assert.Equal(t, 2*time.Second, exp.Delay(3))
	assert.Equal(t, 4*time.Second, exp.Delay(4))
	assert.Equal(t, 5*time.Second, exp.Delay(5))

	fixed := Policy{BaseDelay: 300 * time.Millisecond}
	assert.Equal(t, 300*time.Millisecond, fixed.Delay(2))
	assert.Equal(t, 300*time.Millisecond, fixed.Delay(6))

	jittered := Policy{BaseDelay: time.Second, Jitter: true}
	for i := 0; i < 20; i++ {
		d := jittered.Delay(2)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.Less(t, d, 1100*time.Millisecond)
	}
}

func TestIsEmpty(t *testing.T) {
	var nilPtr *int
	one := 1
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty([]string{}))
	assert.True(t, IsEmpty(map[string]string{}))
	assert.True(t, IsEmpty(nilPtr))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty(0))
	assert.False(t, IsEmpty(&one))
}
