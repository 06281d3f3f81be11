package limiter

import (
	"context"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

type RateLimiter interface {
	Wait(context.Context) error
	Limit() rate.Limit
}

// Config allows EventCount fetches every EventDur seconds with bursts of Bucket.
type Config struct {
	EventCount int `json:"eventCount"`
	EventDur   int `json:"eventDur"`
	Bucket     int `json:"bucket"`
}

func Per(eventCount int, duration time.Duration) rate.Limit {
	return rate.Every(duration / time.Duration(eventCount))
}

// New builds a limiter that satisfies every config at once. Invalid entries
// are skipped; with none left the limiter never blocks.
func New(cfgs ...Config) RateLimiter {
	var limits []RateLimiter
	for _, c := range cfgs {
		if c.EventCount <= 0 || c.EventDur <= 0 {
			continue
		}
		bucket := c.Bucket
		if bucket <= 0 {
			bucket = 1
		}
		limits = append(limits, rate.NewLimiter(Per(c.EventCount, time.Duration(c.EventDur)*time.Second), bucket))
	}
	if len(limits) == 0 {
		return Unlimited()
	}
	return Multi(limits...)
}

func Unlimited() RateLimiter {
	return rate.NewLimiter(rate.Inf, 0)
}

func Multi(limiters ...RateLimiter) *MultiLimiter {
	byLimit := func(i, j int) bool {
		return limiters[i].Limit() < limiters[j].Limit()
	}
	sort.Slice(limiters, byLimit)

	return &MultiLimiter{limiters: limiters}
}

type MultiLimiter struct {
	limiters []RateLimiter
}

func (l *MultiLimiter) Wait(ctx context.Context) error {
	for _, l := range l.limiters {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Limit is the most restrictive limit.
func (l *MultiLimiter) Limit() rate.Limit {
	return l.limiters[0].Limit()
}
