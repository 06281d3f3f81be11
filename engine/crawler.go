// Package engine runs one search over one site: it walks result pages,
// extracts cards and detail pages, deduplicates, and streams records out.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dreamerjackson/shopcrawler/challenge"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/retry"
	"github.com/dreamerjackson/shopcrawler/selector"
	"github.com/dreamerjackson/shopcrawler/session"
	"github.com/dreamerjackson/shopcrawler/sink"
	"github.com/dreamerjackson/shopcrawler/spider"
	"go.uber.org/zap"
)

var ErrNoCards = errors.New("no cards on page")

// Sink is the controller side of a run.
type Sink interface {
	Progress(scraped, total int) error
	Item(rec field.Record, url string, index int) error
	Suspend(sessionID string, d challenge.Details) error
}

type Metrics interface {
	PageFetched(status string)
	ItemEmitted()
	ItemRejected()
	Challenge(kind string)
}

type nopMetrics struct{}

func (nopMetrics) PageFetched(string) {}
func (nopMetrics) ItemEmitted()       {}
func (nopMetrics) ItemRejected()      {}
func (nopMetrics) Challenge(string)   {}

type Quota struct {
	MaxItems int
	// MaxPages of zero is derived from MaxItems and the site page size.
	MaxPages int
}

type Job struct {
	ID     string
	Query  string
	Fields []field.Name
	Quota  Quota
	// Resume continues a suspended run from its saved page and cookies.
	Resume *session.Session
}

type Suspension struct {
	SessionID string
	Details   challenge.Details
}

type Result struct {
	Records []field.Record
	Skipped []sink.Skip
	// Pages counts page visits, failed ones included.
	Pages    int
	Messages []string
	// Suspended is set when the run stopped on a challenge.
	Suspended *Suspension
}

type Crawler struct {
	options
	site *Site
}

func New(site *Site, opts ...Option) (*Crawler, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	if site == nil {
		return nil, errors.New("no site")
	}
	if err := site.Check(); err != nil {
		return nil, err
	}
	if options.fetcher == nil {
		return nil, errors.New("no fetcher")
	}
	if options.sink == nil {
		return nil, errors.New("no sink")
	}
	if options.monitor == nil {
		options.monitor = challenge.New(
			challenge.WithLogger(options.logger),
			challenge.WithMarkers(challenge.DefaultMarkers.Merge(site.Markers)))
	}
	options.pagePolicy.Logger = options.logger

	return &Crawler{options: options, site: site}, nil
}

func (c *Crawler) Site() *Site {
	return c.site
}

// run is the state owned by one Run call.
type run struct {
	job      Job
	logger   *zap.Logger
	pipe     *field.Pipeline
	fields   []field.Name
	seen     *spider.SeenSet
	res      *Result
	maxPages int
	page     int
	current  string
}

// Run crawls until the quota is met, the listing ends or a challenge is hit.
// The returned Result is never nil and holds whatever was emitted, even when
// err is not. A panic in a collaborator is returned as an error.
func (c *Crawler) Run(ctx context.Context, job Job) (res *Result, err error) {
	res = &Result{}
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("crawl panicked", zap.Any("panic", p), zap.Int("scraped", len(res.Records)))
			err = fmt.Errorf("crawl panicked: %v", p)
		}
	}()
	if job.Quota.MaxItems <= 0 {
		return res, fmt.Errorf("max items must be positive, got %d", job.Quota.MaxItems)
	}

	fields := job.Fields
	if len(fields) == 0 {
		fields = c.site.Supported()
	}
	fields = withAlways(fields)

	logger := c.logger.With(
		zap.String("job_id", job.ID),
		zap.String("site", c.site.Name),
		zap.String("query", job.Query))

	pipe, err := field.NewPipeline(c.site.BaseURL, fields, c.site.Specs(),
		field.WithLogger(logger),
		field.WithRetry(c.fieldPolicy),
		field.WithLimits(c.limits),
		field.WithKeepParams(c.site.KeepParams...),
		field.WithKeyword(job.Query))
	if err != nil {
		return res, err
	}

	r := &run{
		job:      job,
		logger:   logger,
		pipe:     pipe,
		fields:   fields,
		seen:     spider.NewSeenSet(),
		res:      res,
		maxPages: job.Quota.MaxPages,
		page:     1,
		current:  c.site.PageURL(job.Query, 1),
	}
	if r.maxPages <= 0 {
		r.maxPages = c.site.PageBudget(job.Quota.MaxItems)
	}

	if c.storage != nil {
		defer func() {
			if ferr := c.storage.Flush(); ferr != nil {
				logger.Error("flush storage failed", zap.Error(ferr))
			}
		}()
	}

	if s := job.Resume; s != nil {
		if err := c.fetcher.SetCookies(ctx, s.Cookies); err != nil {
			return res, fmt.Errorf("restore cookies: %w", err)
		}
		if s.URL != "" {
			r.current = s.URL
		}
		if s.Page > 0 {
			r.page = s.Page
		}
		logger.Info("resuming session", zap.String("session_id", s.ID), zap.Int("page", r.page))
	}

	logger.Info("crawl started",
		zap.Int("max_items", job.Quota.MaxItems),
		zap.Int("max_pages", r.maxPages),
		zap.Strings("fields", field.Names(fields)))

	if err := c.loop(ctx, r); err != nil {
		logger.Error("crawl failed", zap.Error(err), zap.Int("scraped", len(res.Records)))
		return res, err
	}

	if job.Resume != nil && res.Suspended == nil && c.sessions != nil {
		if err := c.sessions.Delete(ctx, job.Resume.ID); err != nil {
			logger.Warn("delete resumed session failed", zap.Error(err))
		}
	}

	logger.Info("crawl finished",
		zap.Int("scraped", len(res.Records)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("pages", res.Pages),
		zap.Bool("suspended", res.Suspended != nil))

	return res, nil
}

func (c *Crawler) loop(ctx context.Context, r *run) error {
	first := true
	for ; r.page <= r.maxPages && r.current != ""; r.page++ {
		if len(r.res.Records) >= r.job.Quota.MaxItems {
			return nil
		}
		if !first {
			if err := c.pause(ctx); err != nil {
				return err
			}
		}
		first = false

		next, err := c.crawlPage(ctx, r)
		switch {
		case errors.Is(err, ErrNoCards):
			r.logger.Info("listing exhausted", zap.Int("page", r.page))
			return nil
		case err != nil:
			return err
		case r.res.Suspended != nil:
			return nil
		}
		r.current = next
	}
	return nil
}

// crawlPage handles one listing page and returns the url of the next one.
func (c *Crawler) crawlPage(ctx context.Context, r *run) (string, error) {
	r.res.Pages++

	p, err := c.fetch(ctx, r.current)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := fmt.Sprintf("page %d skipped: %v", r.page, err)
		r.res.Messages = append(r.res.Messages, msg)
		r.logger.Warn("page failed", zap.Int("page", r.page), zap.Error(err))
		c.metrics.PageFetched("failed")
		if c.site.Paged() {
			return c.site.PageURL(r.job.Query, r.page+1), nil
		}
		return "", nil
	}
	c.metrics.PageFetched("ok")

	if d, state := c.monitor.Inspect(p.Doc, p.URL); state == challenge.Challenged {
		return "", c.suspend(ctx, r, d)
	}

	cards, ok := selector.Resolve(p.Doc.Selection, c.site.Cards)
	if !ok {
		return "", ErrNoCards
	}
	r.logger.Info("page loaded",
		zap.Int("page", r.page),
		zap.Int("cards", cards.Nodes.Length()),
		zap.String("selector", cards.Locator.String()))

	next := c.nextURL(p, r)

	for i := 0; i < cards.Nodes.Length(); i++ {
		if len(r.res.Records) >= r.job.Quota.MaxItems {
			break
		}
		if i > 0 {
			if err := c.pause(ctx); err != nil {
				return "", err
			}
		}
		if err := c.crawlCard(ctx, r, cards.Nodes.Eq(i), i+1); err != nil {
			return "", err
		}
		if r.res.Suspended != nil {
			return "", nil
		}
	}

	return next, nil
}

func (c *Crawler) crawlCard(ctx context.Context, r *run, card *goquery.Selection, index int) error {
	known := field.Record{field.WebsiteName: c.site.DisplayName}

	rec, err := r.pipe.Extract(ctx, card, c.site.CardFields, known)
	if err != nil {
		return c.reject(r, err, index, c.cardTitle(card))
	}

	key := rec.String(field.URL)
	if r.seen.Has(key) {
		r.logger.Debug("duplicate card", zap.String("url", key))
		return nil
	}

	if c.needsDetail(r.pipe, rec) {
		d, err := c.fetch(ctx, key)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			r.res.Messages = append(r.res.Messages, fmt.Sprintf("detail %s skipped: %v", key, err))
			r.logger.Warn("detail page failed", zap.String("url", key), zap.Error(err))
			c.metrics.PageFetched("failed")
		default:
			c.metrics.PageFetched("ok")
			if det, state := c.monitor.Inspect(d.Doc, d.URL); state == challenge.Challenged {
				return c.suspend(ctx, r, det)
			}
			full, err := r.pipe.Extract(ctx, d.Doc.Selection, c.site.DetailFields, rec)
			if err != nil {
				return c.reject(r, err, index, rec.String(field.Title))
			}
			rec = full
		}
	}

	if !r.seen.Add(key) {
		return nil
	}
	return c.emit(r, rec.Project(r.fields), key)
}

func (c *Crawler) emit(r *run, rec field.Record, key string) error {
	r.res.Records = append(r.res.Records, rec)
	n := len(r.res.Records)
	c.metrics.ItemEmitted()

	if c.storage != nil {
		cell := &spider.DataCell{Site: c.site.Name, Fields: r.fields, Data: rec, Time: time.Now()}
		if err := c.storage.Save(cell); err != nil {
			r.logger.Error("store record failed", zap.String("url", key), zap.Error(err))
		}
	}

	// items are numbered from zero, progress counts from one
	if err := c.sink.Item(rec, key, n-1); err != nil {
		return fmt.Errorf("emit item: %w", err)
	}
	if err := c.sink.Progress(n, r.job.Quota.MaxItems); err != nil {
		return fmt.Errorf("emit progress: %w", err)
	}
	r.logger.Info("item scraped", zap.Int("index", n-1), zap.String("url", key))
	return nil
}

// reject records a dropped card. Anything other than a rejection is fatal.
func (c *Crawler) reject(r *run, err error, index int, title string) error {
	rej, ok := field.IsRejected(err)
	if !ok {
		return err
	}
	r.res.Skipped = append(r.res.Skipped, sink.Skip{
		Page:   r.page,
		Index:  index,
		Title:  title,
		Reason: rej.Reason,
	})
	c.metrics.ItemRejected()
	r.logger.Info("card skipped", zap.Int("page", r.page), zap.Int("index", index), zap.String("reason", rej.Reason))
	return nil
}

func (c *Crawler) suspend(ctx context.Context, r *run, d challenge.Details) error {
	if c.sessions == nil {
		return fmt.Errorf("challenge on page %d but no session store", r.page)
	}

	cookies, err := c.fetcher.Cookies(ctx)
	if err != nil {
		r.logger.Warn("read cookies failed", zap.Error(err))
	}

	s := &session.Session{
		ID:        c.sessionID(c.site.Name),
		URL:       r.current,
		Cookies:   cookies,
		CreatedAt: time.Now().UTC(),
		Site:      c.site.Name,
		Query:     r.job.Query,
		Page:      r.page,
		Fields:    field.Names(r.fields),
	}
	if err := c.sessions.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	c.metrics.Challenge(string(d.Kind))
	r.res.Suspended = &Suspension{SessionID: s.ID, Details: d}
	r.logger.Warn("challenge detected, suspending",
		zap.String("session_id", s.ID),
		zap.String("kind", string(d.Kind)),
		zap.String("marker", d.Marker),
		zap.Int("page", r.page))

	if err := c.sink.Suspend(s.ID, d); err != nil {
		return fmt.Errorf("emit suspend: %w", err)
	}
	return nil
}

func (c *Crawler) fetch(ctx context.Context, u string) (*spider.Page, error) {
	var page *spider.Page
	err := retry.Do(ctx, c.pagePolicy, func(ctx context.Context) error {
		if err := c.limit.Wait(ctx); err != nil {
			return err
		}
		p, err := c.fetcher.Fetch(ctx, u)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	return page, err
}

func (c *Crawler) needsDetail(pipe *field.Pipeline, rec field.Record) bool {
	for _, s := range c.site.DetailFields {
		if pipe.Wants(s.Name) && retry.IsEmpty(rec[s.Name]) {
			return true
		}
	}
	return false
}

func (c *Crawler) nextURL(p *spider.Page, r *run) string {
	if c.site.Paged() {
		return c.site.PageURL(r.job.Query, r.page+1)
	}
	m, ok := selector.Resolve(p.Doc.Selection, c.site.Next)
	if !ok {
		return ""
	}
	base, err := url.Parse(p.URL)
	if err != nil {
		return ""
	}
	next, err := field.Absolute(m.First(), base)
	if err != nil {
		return ""
	}
	return next
}

func (c *Crawler) cardTitle(card *goquery.Selection) string {
	for _, s := range c.site.CardFields {
		if s.Name != field.Title {
			continue
		}
		if m, ok := selector.Resolve(card, s.Locators); ok {
			return selector.Clean(m.First())
		}
	}
	return ""
}

func (c *Crawler) pause(ctx context.Context) error {
	d := c.minDelay
	if c.maxDelay > c.minDelay {
		d += time.Duration(rand.Int63n(int64(c.maxDelay - c.minDelay)))
	}
	if d <= 0 {
		return ctx.Err()
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

func withAlways(fields []field.Name) []field.Name {
	out := make([]field.Name, 0, len(fields)+len(field.Always))
	seen := map[field.Name]bool{}
	for _, n := range append(append([]field.Name{}, field.Always...), fields...) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
