package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dreamerjackson/shopcrawler/challenge"
	"github.com/dreamerjackson/shopcrawler/session"
	"github.com/dreamerjackson/shopcrawler/spider"
	"go.uber.org/zap"
)

// Validation is the answer to a resume request.
type Validation struct {
	Valid   bool
	Message string
	// Next is a fresh session carrying the verified cookies, for
	// `scrape --session-id`. Empty unless Valid.
	Next string
}

// Validate replays a suspended session into the current fetcher, submits
// input to the site's captcha form and checks whether the challenge is gone.
// A consumed session is deleted. Unknown ids are reported, not returned as
// errors.
func (c *Crawler) Validate(ctx context.Context, sessionID, input string) Validation {
	logger := c.logger.With(zap.String("session_id", sessionID), zap.String("site", c.site.Name))

	if c.sessions == nil {
		return Validation{Message: "no session store configured"}
	}
	if !session.ValidID(sessionID) {
		return Validation{Message: session.ErrInvalidID.Error()}
	}

	s, err := c.sessions.Load(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		logger.Info("validate: unknown session")
		return Validation{Message: "session not found or expired"}
	}
	if err != nil {
		logger.Error("validate: load session failed", zap.Error(err))
		return Validation{Message: fmt.Sprintf("load session: %v", err)}
	}
	if s.Site != "" && s.Site != c.site.Name {
		return Validation{Message: fmt.Sprintf("session belongs to site %s", s.Site)}
	}

	if err := c.fetcher.SetCookies(ctx, s.Cookies); err != nil {
		return Validation{Message: fmt.Sprintf("restore cookies: %v", err)}
	}

	p, err := c.fetch(ctx, s.URL)
	if err != nil {
		return Validation{Message: fmt.Sprintf("reload page: %v", err)}
	}

	_, state := c.monitor.Inspect(p.Doc, p.URL)
	if state == challenge.Challenged && input != "" {
		if p, err = c.submit(ctx, s.URL, input); err != nil {
			logger.Warn("validate: submit failed", zap.Error(err))
			return Validation{Message: fmt.Sprintf("submit captcha: %v", err)}
		}
		_, state = c.monitor.Inspect(p.Doc, p.URL)
	}

	if state == challenge.Challenged {
		logger.Info("validate: challenge still present")
		return Validation{Message: "challenge still present"}
	}

	if err := c.sessions.Delete(ctx, s.ID); err != nil {
		logger.Warn("validate: delete session failed", zap.Error(err))
	}

	v := Validation{Valid: true, Message: "challenge cleared"}

	cookies, err := c.fetcher.Cookies(ctx)
	if err != nil {
		logger.Warn("validate: read cookies failed", zap.Error(err))
		return v
	}
	next := *s
	next.ID = c.sessionID(c.site.Name)
	next.Cookies = cookies
	next.CreatedAt = time.Now().UTC()
	if err := c.sessions.Save(ctx, &next); err != nil {
		logger.Warn("validate: save resumable session failed", zap.Error(err))
		return v
	}

	v.Next = next.ID
	v.Message = "challenge cleared, resume with session " + next.ID
	logger.Info("validate: challenge cleared", zap.String("next_session_id", next.ID))
	return v
}

func (c *Crawler) submit(ctx context.Context, url, input string) (*spider.Page, error) {
	form := c.site.Captcha
	if form.Input == "" || form.Submit == "" {
		return nil, fmt.Errorf("site %s has no captcha form", c.site.Name)
	}

	actions := []spider.Action{
		{Kind: spider.WaitVisible, Selector: form.Input},
		{Kind: spider.Type, Selector: form.Input, Text: input},
		{Kind: spider.Click, Selector: form.Submit},
	}
	for _, a := range actions {
		if err := c.fetcher.Perform(ctx, a); err != nil {
			return nil, err
		}
	}

	return c.fetch(ctx, url)
}
