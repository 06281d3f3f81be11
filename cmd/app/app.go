// Package app builds the collaborators shared by the scrape and resume
// commands from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dreamerjackson/shopcrawler/browser"
	"github.com/dreamerjackson/shopcrawler/config"
	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/limiter"
	"github.com/dreamerjackson/shopcrawler/log"
	"github.com/dreamerjackson/shopcrawler/metrics"
	"github.com/dreamerjackson/shopcrawler/proxy"
	"github.com/dreamerjackson/shopcrawler/session"
	"github.com/dreamerjackson/shopcrawler/sink"
	"github.com/dreamerjackson/shopcrawler/spider"
	"github.com/dreamerjackson/shopcrawler/storage/sqlstorage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/dreamerjackson/shopcrawler/sitelib"
)

type App struct {
	Config config.Config
	Logger *zap.Logger
	Sink   *sink.Sink

	store   session.Store
	closers []io.Closer
}

// Override adjusts the loaded config, typically from command line flags.
type Override func(cfg *config.Config)

// New loads the config at path and builds the logger and the controller sink.
// Nothing it does touches the network.
func New(path string, out, errOut io.Writer, overrides ...Override) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	logger, closer, err := log.Build(log.Config{Level: cfg.LogLevel, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		closers: []io.Closer{closer},
	}
	a.Sink = sink.New(out, errOut,
		sink.WithLogger(logger.Named("sink")),
		sink.WithDir(cfg.Output.Dir))

	return a, nil
}

func (a *App) onClose(c io.Closer) {
	a.closers = append(a.closers, c)
}

// Close releases everything in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.Logger.Sync()
}

// Sessions builds the configured store once and hands out the same instance.
func (a *App) Sessions() (session.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	c := a.Config.Session
	opts := []session.Option{
		session.WithLogger(a.Logger.Named("session")),
		session.WithTTL(a.Config.SessionTTL()),
	}

	switch c.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		a.onClose(rdb)
		a.store = session.NewRedisStore(rdb, opts...)
	default:
		fs, err := session.NewFileStore(c.Dir, opts...)
		if err != nil {
			return nil, err
		}
		a.store = fs
	}

	return a.store, nil
}

// Fetcher starts the configured page loader. It is closed with the App.
func (a *App) Fetcher(ctx context.Context) (spider.Fetcher, error) {
	c := a.Config.Fetcher
	kind := c.Type

	var sw *proxy.Switcher
	if len(c.Proxy) > 0 {
		var err error
		if sw, err = proxy.RoundRobin(c.Proxy...); err != nil {
			return nil, err
		}
	}

	var (
		f   spider.Fetcher
		err error
	)
	switch kind {
	case "http":
		opts := []spider.Option{
			spider.WithLogger(a.Logger.Named("fetcher")),
			spider.WithTimeout(a.Config.FetchTimeout()),
		}
		if sw != nil {
			opts = append(opts, spider.WithProxy(sw.Func()))
		}
		f, err = spider.NewHTTPFetcher(opts...)
	case "browser":
		opts := []browser.Option{
			browser.WithLogger(a.Logger.Named("browser")),
			browser.WithHeadless(c.Headless),
			browser.WithBin(c.BinPath),
			browser.WithTimeout(a.Config.FetchTimeout()),
			browser.WithUserAgent(spider.RandomUA()),
		}
		if sw != nil {
			opts = append(opts, browser.WithProxy(sw.Next()))
		}
		f, err = browser.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown fetcher %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("start %s fetcher: %w", kind, err)
	}

	a.onClose(f)
	return f, nil
}

// Storage is nil unless a database is configured.
func (a *App) Storage() (spider.Storage, error) {
	c := a.Config.Storage
	if c.Type != "mysql" {
		return nil, nil
	}

	s, err := sqlstorage.New(
		sqlstorage.WithSQLURL(c.SQLURL),
		sqlstorage.WithLogger(a.Logger.Named("sqlDB")),
		sqlstorage.WithBatchCount(c.BatchCount),
	)
	if err != nil {
		return nil, fmt.Errorf("create sqlstorage: %w", err)
	}
	a.Logger.Info("start mysql storage")

	return s, nil
}

// Metrics serves the site counters while ctx lives, when an address is set.
func (a *App) Metrics(ctx context.Context, site string) engine.Metrics {
	m := metrics.New(site)
	if a.Config.Metrics.Addr != "" {
		m.Serve(ctx, a.Config.Metrics.Addr, a.Logger.Named("metrics"))
	}
	return m
}

// Crawler wires a crawler for site around an already started fetcher.
func (a *App) Crawler(ctx context.Context, site *engine.Site, f spider.Fetcher, retries int) (*engine.Crawler, error) {
	store, err := a.Sessions()
	if err != nil {
		return nil, err
	}

	min, max := a.Config.DelayRange()
	opts := []engine.Option{
		engine.WithLogger(a.Logger.Named("engine").With(zap.String("site", site.Name))),
		engine.WithFetcher(f),
		engine.WithSink(a.Sink),
		engine.WithSessionStore(store),
		engine.WithLimiter(limiter.New(a.Config.Limits...)),
		engine.WithPagePolicy(a.Config.PagePolicy(retries)),
		engine.WithFieldPolicy(a.Config.FieldPolicy()),
		engine.WithDelay(min, max),
		engine.WithMetrics(a.Metrics(ctx, site.Name)),
	}

	st, err := a.Storage()
	if err != nil {
		return nil, err
	}
	if st != nil {
		opts = append(opts, engine.WithStorage(st))
	}

	return engine.New(site, opts...)
}

// Reported marks an error already written to the controller error stream.
type Reported struct {
	Err error
}

func (r Reported) Error() string { return r.Err.Error() }

func (r Reported) Unwrap() error { return r.Err }

// Fail reports err on the error stream and returns it for the exit code.
func (a *App) Fail(err error) error {
	if e := a.Sink.Error(err.Error()); e != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	a.Logger.Error("run failed", zap.Error(err))
	return Reported{Err: err}
}
