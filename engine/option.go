package engine

import (
	"time"

	"github.com/dreamerjackson/shopcrawler/challenge"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/generator"
	"github.com/dreamerjackson/shopcrawler/limiter"
	"github.com/dreamerjackson/shopcrawler/retry"
	"github.com/dreamerjackson/shopcrawler/session"
	"github.com/dreamerjackson/shopcrawler/spider"
	"go.uber.org/zap"
)

type Option func(opts *options)

type options struct {
	logger      *zap.Logger
	fetcher     spider.Fetcher
	sink        Sink
	sessions    session.Store
	monitor     *challenge.Monitor
	storage     spider.Storage
	metrics     Metrics
	limit       limiter.RateLimiter
	pagePolicy  retry.Policy
	fieldPolicy retry.Policy
	limits      field.Limits
	minDelay    time.Duration
	maxDelay    time.Duration
	sessionID   func(site string) string
}

var defaultOptions = options{
	logger:      zap.NewNop(),
	metrics:     nopMetrics{},
	limit:       limiter.Unlimited(),
	pagePolicy:  retry.PagePolicy(),
	fieldPolicy: retry.FieldPolicy(),
	limits:      field.DefaultLimits,
	minDelay:    time.Second,
	maxDelay:    3 * time.Second,
	sessionID:   generator.SessionID,
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithFetcher(fetcher spider.Fetcher) Option {
	return func(opts *options) {
		opts.fetcher = fetcher
	}
}

func WithSink(s Sink) Option {
	return func(opts *options) {
		opts.sink = s
	}
}

func WithSessionStore(s session.Store) Option {
	return func(opts *options) {
		opts.sessions = s
	}
}

// WithMonitor replaces the challenge monitor built from the site markers.
func WithMonitor(m *challenge.Monitor) Option {
	return func(opts *options) {
		opts.monitor = m
	}
}

func WithStorage(s spider.Storage) Option {
	return func(opts *options) {
		opts.storage = s
	}
}

func WithMetrics(m Metrics) Option {
	return func(opts *options) {
		opts.metrics = m
	}
}

func WithLimiter(l limiter.RateLimiter) Option {
	return func(opts *options) {
		opts.limit = l
	}
}

func WithPagePolicy(p retry.Policy) Option {
	return func(opts *options) {
		opts.pagePolicy = p
	}
}

func WithFieldPolicy(p retry.Policy) Option {
	return func(opts *options) {
		opts.fieldPolicy = p
	}
}

func WithLimits(l field.Limits) Option {
	return func(opts *options) {
		opts.limits = l
	}
}

// WithDelay sets the random pause between items and between pages.
// Zero disables it.
func WithDelay(min, max time.Duration) Option {
	return func(opts *options) {
		opts.minDelay = min
		opts.maxDelay = max
	}
}

func WithSessionIDFunc(f func(site string) string) Option {
	return func(opts *options) {
		opts.sessionID = f
	}
}
