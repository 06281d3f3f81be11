package browser

import (
	"net/url"
	"time"

	"go.uber.org/zap"
)

type options struct {
	logger    *zap.Logger
	headless  bool
	bin       string
	proxy     *url.URL
	timeout   time.Duration
	settle    time.Duration
	userAgent string
	width     int
	height    int
}

var defaultOptions = options{
	logger:   zap.NewNop(),
	headless: true,
	timeout:  45 * time.Second,
	settle:   time.Second,
	width:    1920,
	height:   1080,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithHeadless(headless bool) Option {
	return func(opts *options) {
		opts.headless = headless
	}
}

// WithBin points at a browser binary. Empty lets rod download one.
func WithBin(bin string) Option {
	return func(opts *options) {
		opts.bin = bin
	}
}

func WithProxy(u *url.URL) Option {
	return func(opts *options) {
		opts.proxy = u
	}
}

// WithTimeout bounds every navigation and UI action.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

// WithSettle is how long to wait after load for lazy content.
func WithSettle(settle time.Duration) Option {
	return func(opts *options) {
		opts.settle = settle
	}
}

func WithUserAgent(ua string) Option {
	return func(opts *options) {
		opts.userAgent = ua
	}
}
