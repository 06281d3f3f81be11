package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/retry"
	"github.com/dreamerjackson/shopcrawler/selector"
	"github.com/dreamerjackson/shopcrawler/session"
	"github.com/dreamerjackson/shopcrawler/sink"
	"github.com/dreamerjackson/shopcrawler/spider"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fails   map[string]int
	fetched []string
	cookies []session.Cookie
	set     [][]session.Cookie
	actions []spider.Action
	// perform runs under the lock and may rewrite pages.
	perform func(f *fakeFetcher, a spider.Action)
}

func newFake(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, fails: map[string]int{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, u string) (*spider.Page, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, u)
	if f.fails[u] > 0 {
		f.fails[u]--
		f.mu.Unlock()
		return nil, errors.New("navigation timeout")
	}
	body, ok := f.pages[u]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("error status code:%d", 404)
	}
	return spider.NewPage(u, []byte(body))
}

func (f *fakeFetcher) Perform(_ context.Context, a spider.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
	if f.perform != nil {
		f.perform(f, a)
	}
	return nil
}

func (f *fakeFetcher) Cookies(context.Context) ([]session.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Cookie(nil), f.cookies...), nil
}

func (f *fakeFetcher) SetCookies(_ context.Context, cs []session.Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = append(f.set, cs)
	return nil
}

func (f *fakeFetcher) Close() error { return nil }

func (f *fakeFetcher) count(u string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.fetched {
		if v == u {
			n++
		}
	}
	return n
}

type fakeStorage struct {
	cells   []*spider.DataCell
	flushes int
}

func (s *fakeStorage) Save(cells ...*spider.DataCell) error {
	s.cells = append(s.cells, cells...)
	return nil
}

func (s *fakeStorage) Flush() error {
	s.flushes++
	return nil
}

type fakeMetrics struct {
	pages      map[string]int
	emitted    int
	rejected   int
	challenges map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{pages: map[string]int{}, challenges: map[string]int{}}
}

func (m *fakeMetrics) PageFetched(status string) { m.pages[status]++ }
func (m *fakeMetrics) ItemEmitted()              { m.emitted++ }
func (m *fakeMetrics) ItemRejected()             { m.rejected++ }
func (m *fakeMetrics) Challenge(kind string)     { m.challenges[kind]++ }

func testSite() *Site {
	return &Site{
		Name:         "testshop",
		DisplayName:  "TestShop",
		BaseURL:      "https://shop.test",
		SearchURL:    "https://shop.test/s?k={query}&page={page}",
		Cards:        selector.List("div.s-card", "div.card"),
		ItemsPerPage: 2,
		CardFields: []field.Spec{
			{Name: field.URL, Locators: []selector.Locator{selector.Attr("a.link", "href")}, Cleanup: field.Link, Required: true},
			{Name: field.Title, Locators: selector.List("h2.title", "h2"), Required: true},
			{Name: field.ExactPrice, Locators: selector.List(".price"), Cleanup: field.Amount},
			{Name: field.Currency, Locators: selector.List(".price"), Cleanup: field.CurrencyOf},
		},
		DetailFields: []field.Spec{
			{Name: field.Description, Locators: selector.List("#desc"), Cleanup: field.Paragraph},
		},
		Captcha: CaptchaForm{Input: "#captchacharacters", Submit: "button[type=submit]"},
	}
}

func card(href, title, price string) string {
	var b strings.Builder
	b.WriteString(`<div class="card">`)
	fmt.Fprintf(&b, `<a class="link" href="%s">view</a>`, href)
	if title != "" {
		fmt.Fprintf(&b, `<h2>%s</h2>`, title)
	}
	if price != "" {
		fmt.Fprintf(&b, `<span class="price">%s</span>`, price)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func listing(cards ...string) string {
	return `<html><head><title>Results</title></head><body><div id="results">` +
		strings.Join(cards, "") + `</div></body></html>`
}

const captchaPage = `<html><head><title>Robot check</title></head><body>
<form action="/errors/check"><img src="/img/captcha/abc.jpg">
<input id="captchacharacters" name="field-keywords">
<button type="submit">Continue shopping</button></form>
<p>Type the characters you see in this image.</p></body></html>`

func pageURL(q string, n int) string {
	return testSite().PageURL(q, n)
}

func newTestCrawler(t *testing.T, site *Site, f spider.Fetcher, extra ...Option) (*Crawler, *bytes.Buffer, *sink.Sink) {
	t.Helper()
	var out bytes.Buffer
	s := sink.New(&out, io.Discard, sink.WithDir(t.TempDir()))
	opts := []Option{
		WithFetcher(f),
		WithSink(s),
		WithDelay(0, 0),
		WithPagePolicy(retry.Policy{Name: "page", MaxAttempts: 2}),
		WithFieldPolicy(retry.Policy{Name: "field", MaxAttempts: 1}),
	}
	c, err := New(site, append(opts, extra...)...)
	require.NoError(t, err)
	return c, &out, s
}

var basicFields = []field.Name{field.URL, field.WebsiteName, field.Title, field.ExactPrice}
