package spider

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/dreamerjackson/shopcrawler/session"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// HTTPFetcher fetches server-rendered pages without a browser. It cannot
// click or type; scrolling and waiting are no-ops on a static document.
type HTTPFetcher struct {
	options
	client *http.Client
	jar    *cookiejar.Jar

	mu   sync.Mutex
	last *url.URL
}

func NewHTTPFetcher(opts ...Option) (*HTTPFetcher, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if options.proxy != nil {
		transport.Proxy = options.proxy
	}

	return &HTTPFetcher{
		options: options,
		jar:     jar,
		client: &http.Client{
			Timeout:   options.timeout,
			Transport: transport,
			Jar:       jar,
		},
	}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get url failed:%w", err)
	}

	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	ua := f.userAgent
	if ua == "" {
		ua = RandomUA()
	}
	req.Header.Set("User-Agent", ua)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	f.mu.Lock()
	f.last = resp.Request.URL
	f.mu.Unlock()

	if resp.StatusCode != http.StatusOK {
		f.logger.Debug("unexpected status", zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("error status code:%d", resp.StatusCode)
	}

	bodyReader := bufio.NewReader(resp.Body)
	e := DeterminEncoding(bodyReader)
	utf8Reader := transform.NewReader(bodyReader, e.NewDecoder())

	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page, err := NewPage(resp.Request.URL.String(), body)
	if err != nil {
		return nil, err
	}
	page.Status = resp.StatusCode
	return page, nil
}

func (f *HTTPFetcher) Perform(_ context.Context, a Action) error {
	switch a.Kind {
	case Scroll, WaitVisible:
		return nil
	}
	return fmt.Errorf("%s: %w", a.Kind, ErrUnsupportedAction)
}

// Cookies returns the jar's cookies for the last fetched URL.
func (f *HTTPFetcher) Cookies(context.Context) ([]session.Cookie, error) {
	f.mu.Lock()
	last := f.last
	f.mu.Unlock()

	if last == nil {
		return nil, nil
	}

	var out []session.Cookie
	for _, c := range f.jar.Cookies(last) {
		out = append(out, session.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: last.Hostname(),
			Path:   "/",
			Secure: last.Scheme == "https",
		})
	}
	return out, nil
}

func (f *HTTPFetcher) SetCookies(_ context.Context, cookies []session.Cookie) error {
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			continue
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		u := &url.URL{Scheme: "https", Host: host, Path: path}
		if !c.Secure {
			u.Scheme = "http"
		}
		f.jar.SetCookies(u, []*http.Cookie{{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}})
	}
	return nil
}

func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

func DeterminEncoding(r *bufio.Reader) encoding.Encoding {
	bytes, err := r.Peek(1024)

	if err != nil && len(bytes) == 0 {
		zap.L().Debug("peek body failed", zap.Error(err))

		return unicode.UTF8
	}

	e, _, _ := charset.DetermineEncoding(bytes, "")

	return e
}
