package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/limiter"
	"github.com/dreamerjackson/shopcrawler/retry"
	"github.com/go-micro/plugins/v4/config/encoder/toml"
	"go-micro.dev/v4/config"
	"go-micro.dev/v4/config/reader"
	"go-micro.dev/v4/config/reader/json"
	"go-micro.dev/v4/config/source"
	"go-micro.dev/v4/config/source/file"
)

// DefaultPath is read when no --config is given. It may be absent.
const DefaultPath = "config.toml"

type Config struct {
	LogLevel string                     `json:"logLevel"`
	Log      LogConfig                  `json:"log"`
	Fetcher  FetcherConfig              `json:"fetcher"`
	Delay    DelayConfig                `json:"delay"`
	Limits   []limiter.Config           `json:"limits"`
	Retry    RetryConfig                `json:"retry"`
	Session  SessionConfig              `json:"session"`
	Storage  StorageConfig              `json:"storage"`
	Output   OutputConfig               `json:"output"`
	Metrics  MetricsConfig              `json:"metrics"`
	Sites    map[string]engine.Override `json:"sites"`
}

type LogConfig struct {
	File string `json:"file"`
}

type FetcherConfig struct {
	// Type is "browser" or "http".
	Type     string   `json:"type"`
	Timeout  int      `json:"timeout"` // ms
	Headless bool     `json:"headless"`
	Proxy    []string `json:"proxy"`
	BinPath  string   `json:"binPath"`
}

type DelayConfig struct {
	Min int `json:"min"` // ms
	Max int `json:"max"`
}

type RetryConfig struct {
	PageAttempts  int `json:"pageAttempts"`
	PageDelay     int `json:"pageDelay"` // ms
	FieldAttempts int `json:"fieldAttempts"`
	FieldDelay    int `json:"fieldDelay"`
}

type SessionConfig struct {
	// Store is "file" or "redis".
	Store     string `json:"store"`
	Dir       string `json:"dir"`
	RedisAddr string `json:"redisAddr"`
	TTL       int    `json:"ttl"` // seconds
}

type StorageConfig struct {
	// Type is "" for none or "mysql".
	Type       string `json:"type"`
	SQLURL     string `json:"sqlURL"`
	BatchCount int    `json:"batchCount"`
}

type OutputConfig struct {
	Dir string `json:"dir"`
}

type MetricsConfig struct {
	// Addr enables the /metrics endpoint when set.
	Addr string `json:"addr"`
}

func Default() Config {
	page, field := retry.PagePolicy(), retry.FieldPolicy()
	return Config{
		LogLevel: "INFO",
		Fetcher: FetcherConfig{
			Type:     "browser",
			Timeout:  45000,
			Headless: true,
		},
		Delay: DelayConfig{Min: 1000, Max: 3000},
		Retry: RetryConfig{
			PageAttempts:  page.MaxAttempts,
			PageDelay:     int(page.BaseDelay / time.Millisecond),
			FieldAttempts: field.MaxAttempts,
			FieldDelay:    int(field.BaseDelay / time.Millisecond),
		},
		Session: SessionConfig{
			Store: "file",
			Dir:   "sessions",
			TTL:   3600,
		},
		Storage: StorageConfig{BatchCount: 50},
		Output:  OutputConfig{Dir: "output"},
	}
}

// Load reads a toml file over the defaults. An empty path means DefaultPath,
// which is allowed to be missing; an explicit path must exist.
func Load(path string) (Config, error) {
	c := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		path = DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}

	enc := toml.NewEncoder()
	cfg, err := config.NewConfig(config.WithReader(json.NewReader(reader.WithEncoder(enc))))
	if err != nil {
		return c, err
	}
	defer cfg.Close()

	if err := cfg.Load(file.NewSource(
		file.WithPath(path),
		source.WithEncoder(enc),
	)); err != nil {
		return c, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := cfg.Scan(&c); err != nil {
		return c, fmt.Errorf("scan config %s: %w", path, err)
	}

	return c, c.Check()
}

func (c Config) Check() error {
	switch c.Fetcher.Type {
	case "browser", "http":
	default:
		return fmt.Errorf("config: unknown fetcher type %q", c.Fetcher.Type)
	}
	switch c.Session.Store {
	case "file", "redis":
	default:
		return fmt.Errorf("config: unknown session store %q", c.Session.Store)
	}
	switch c.Storage.Type {
	case "", "mysql":
	default:
		return fmt.Errorf("config: unknown storage type %q", c.Storage.Type)
	}
	if c.Delay.Min < 0 || c.Delay.Max < c.Delay.Min {
		return fmt.Errorf("config: bad delay range %d..%d", c.Delay.Min, c.Delay.Max)
	}
	return nil
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (c Config) FetchTimeout() time.Duration {
	return ms(c.Fetcher.Timeout)
}

func (c Config) DelayRange() (time.Duration, time.Duration) {
	return ms(c.Delay.Min), ms(c.Delay.Max)
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTL) * time.Second
}

// PagePolicy is retry.PagePolicy with configured attempts and base delay.
// retries, when positive, overrides the attempt count.
func (c Config) PagePolicy(retries int) retry.Policy {
	p := retry.PagePolicy()
	if c.Retry.PageAttempts > 0 {
		p.MaxAttempts = c.Retry.PageAttempts
	}
	if retries > 0 {
		p.MaxAttempts = retries
	}
	if c.Retry.PageDelay > 0 {
		p.BaseDelay = ms(c.Retry.PageDelay)
	}
	return p
}

func (c Config) FieldPolicy() retry.Policy {
	p := retry.FieldPolicy()
	if c.Retry.FieldAttempts > 0 {
		p.MaxAttempts = c.Retry.FieldAttempts
	}
	if c.Retry.FieldDelay > 0 {
		p.BaseDelay = ms(c.Retry.FieldDelay)
	}
	return p
}

// Site returns the registered site with its configured override applied.
func (c Config) Site(name string) (*engine.Site, error) {
	s, ok := engine.Sites.Get(name)
	if !ok {
		return nil, fmt.Errorf("unsupported site %q, choose one of %v", name, engine.Sites.Names())
	}
	o, ok := c.Sites[name]
	if !ok {
		return s, nil
	}
	return s.Apply(o)
}
