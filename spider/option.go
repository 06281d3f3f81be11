package spider

import (
	"time"

	"github.com/dreamerjackson/shopcrawler/proxy"
	"go.uber.org/zap"
)

type options struct {
	logger    *zap.Logger
	timeout   time.Duration
	proxy     proxy.Func
	userAgent string
	headers   map[string]string
}

var defaultOptions = options{
	logger:  zap.NewNop(),
	timeout: 30 * time.Second,
	headers: map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	},
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

func WithProxy(p proxy.Func) Option {
	return func(opts *options) {
		opts.proxy = p
	}
}

// WithUserAgent pins the user agent. By default each request picks one at random.
func WithUserAgent(ua string) Option {
	return func(opts *options) {
		opts.userAgent = ua
	}
}
