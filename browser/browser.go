// Package browser drives a stealth Chromium through go-rod.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/dreamerjackson/shopcrawler/session"
	"github.com/dreamerjackson/shopcrawler/spider"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// Fetcher owns one browser and one tab for the lifetime of a run.
type Fetcher struct {
	options
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func New(ctx context.Context, opts ...Option) (*Fetcher, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	l := launcher.New().
		Headless(options.headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("window-size", fmt.Sprintf("%d,%d", options.width, options.height))

	if options.bin != "" {
		l = l.Bin(options.bin)
	}
	if options.proxy != nil {
		l = l.Proxy(options.proxy.Scheme + "://" + options.proxy.Host)
	}

	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	ua := options.userAgent
	if ua == "" {
		ua = spider.RandomUA()
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		options.logger.Warn("set user agent failed", zap.Error(err))
	}

	options.logger.Info("browser started",
		zap.Bool("headless", options.headless),
		zap.Bool("proxy", options.proxy != nil))

	return &Fetcher{options: options, launcher: l, browser: b, page: page}, nil
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*spider.Page, error) {
	p := f.page.Context(ctx).Timeout(f.timeout)

	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %w", url, err)
	}

	// lazy listings render further cards on scroll
	if _, err := p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		f.logger.Debug("scroll failed", zap.Error(err))
	}
	if err := sleep(ctx, f.settle); err != nil {
		return nil, err
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("read html %s: %w", url, err)
	}

	final := url
	if info, err := p.Info(); err == nil && info.URL != "" {
		final = info.URL
	}

	return spider.NewPage(final, []byte(html))
}

func (f *Fetcher) Perform(ctx context.Context, a spider.Action) error {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}
	p := f.page.Context(ctx).Timeout(timeout)

	switch a.Kind {
	case spider.Scroll:
		_, err := p.Eval(`() => window.scrollBy(0, window.innerHeight)`)
		return err
	case spider.Click, spider.Type, spider.WaitVisible:
		el, err := p.Element(a.Selector)
		if err != nil {
			return fmt.Errorf("%s %s: %w", a.Kind, a.Selector, err)
		}
		switch a.Kind {
		case spider.Click:
			return el.Click(proto.InputMouseButtonLeft, 1)
		case spider.Type:
			return el.Input(a.Text)
		default:
			return el.WaitVisible()
		}
	}

	return fmt.Errorf("%s: %w", a.Kind, spider.ErrUnsupportedAction)
}

func (f *Fetcher) Cookies(ctx context.Context) ([]session.Cookie, error) {
	cs, err := f.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	return fromProto(cs), nil
}

func (f *Fetcher) SetCookies(ctx context.Context, cookies []session.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	if err := f.page.Context(ctx).SetCookies(toProto(cookies)); err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}
	return nil
}

// Close quits the browser and removes its profile directory.
func (f *Fetcher) Close() error {
	err := f.browser.Close()
	f.launcher.Kill()
	f.launcher.Cleanup()
	f.logger.Info("browser closed")
	return err
}

func fromProto(cs []*proto.NetworkCookie) []session.Cookie {
	out := make([]session.Cookie, 0, len(cs))
	for _, c := range cs {
		sc := session.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			sc.Expires = time.Unix(int64(c.Expires), 0).UTC()
		}
		out = append(out, sc)
	}
	return out
}

func toProto(cs []session.Cookie) []*proto.NetworkCookieParam {
	out := make([]*proto.NetworkCookieParam, 0, len(cs))
	for _, c := range cs {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if !c.Expires.IsZero() {
			p.Expires = proto.TimeSinceEpoch(c.Expires.Unix())
		}
		out = append(out, p)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
