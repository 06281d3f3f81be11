package spider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dreamerjackson/shopcrawler/session"
)

var ErrUnsupportedAction = errors.New("action not supported by fetcher")

// Page is a rendered document. URL is where the fetch ended up after
// redirects, which is what challenge detection looks at.
type Page struct {
	URL    string
	Status int
	Body   []byte
	Doc    *goquery.Document
}

func NewPage(url string, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return &Page{URL: url, Body: body, Doc: doc}, nil
}

type ActionKind int

const (
	Scroll ActionKind = iota
	Click
	Type
	WaitVisible
)

func (k ActionKind) String() string {
	switch k {
	case Scroll:
		return "scroll"
	case Click:
		return "click"
	case Type:
		return "type"
	case WaitVisible:
		return "wait"
	}
	return "unknown"
}

// Action is one bounded UI interaction on the current page.
type Action struct {
	Kind     ActionKind
	Selector string
	Text     string
	Timeout  time.Duration
}

// Fetcher is everything the crawler needs from a browser: rendered pages,
// small UI actions, and cookie replay for resumed sessions.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Perform(ctx context.Context, a Action) error
	Cookies(ctx context.Context) ([]session.Cookie, error)
	SetCookies(ctx context.Context, cookies []session.Cookie) error
	Close() error
}
