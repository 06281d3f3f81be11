package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

type Func func(*http.Request) (*url.URL, error)

type roundRobinSwitcher struct {
	proxyURLs []*url.URL
	index     uint32
}

func (r *roundRobinSwitcher) GetProxy(pr *http.Request) (*url.URL, error) {
	if len(r.proxyURLs) == 0 {
		return nil, errors.New("empty proxy urls")
	}
	index := atomic.AddUint32(&r.index, 1) - 1
	u := r.proxyURLs[index%uint32(len(r.proxyURLs))]
	return u, nil
}

// Switcher rotates proxies for both the HTTP transport and browser launches.
type Switcher struct {
	rr *roundRobinSwitcher
}

// RoundRobin parses the proxy list. The scheme decides the proxy type:
// "http", "https" and "socks5" are supported, empty means "http".
func RoundRobin(proxyURLs ...string) (*Switcher, error) {
	if len(proxyURLs) < 1 {
		return nil, errors.New("proxy URL list is empty")
	}
	urls := make([]*url.URL, len(proxyURLs))
	for i, u := range proxyURLs {
		if !strings.Contains(u, "://") {
			u = "http://" + u
		}
		parsed, err := url.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", u, err)
		}
		if parsed.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", u)
		}
		switch parsed.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", parsed.Scheme)
		}
		urls[i] = parsed
	}
	return &Switcher{rr: &roundRobinSwitcher{proxyURLs: urls}}, nil
}

// Func is suitable for http.Transport.Proxy.
func (s *Switcher) Func() Func {
	return s.rr.GetProxy
}

// Next returns the next proxy. Browsers take one proxy per launch.
func (s *Switcher) Next() *url.URL {
	u, _ := s.rr.GetProxy(nil)
	return u
}
