package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/dreamerjackson/shopcrawler/challenge"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/session"
	"github.com/dreamerjackson/shopcrawler/spider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func(string) string {
	n := 0
	return func(site string) string {
		n++
		return fmt.Sprintf("%s_%d", site, n)
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)

	first := pageURL("bag", 1)
	solved := listing(card("/p/1", "Bag 1", ""), card("/p/2", "Bag 2", ""))
	f := newFake(map[string]string{
		first:             captchaPage,
		pageURL("bag", 2): listing(),
	})
	f.cookies = []session.Cookie{{Name: "session-id", Value: "262-1", Domain: "shop.test", Path: "/"}}

	var typed string
	f.perform = func(f *fakeFetcher, a spider.Action) {
		switch a.Kind {
		case spider.Type:
			typed = a.Text
		case spider.Click:
			if typed == "abc123" {
				f.pages[first] = solved
				f.cookies = append(f.cookies, session.Cookie{Name: "csm-hit", Value: "ok", Domain: "shop.test"})
			}
		}
	}

	m := newFakeMetrics()
	c, out, _ := newTestCrawler(t, testSite(), f,
		WithSessionStore(store),
		WithSessionIDFunc(sequentialIDs()),
		WithMetrics(m))

	res, err := c.Run(ctx, Job{Query: "bag", Fields: basicFields, Quota: Quota{MaxItems: 2}})
	require.NoError(t, err)
	require.NotNil(t, res.Suspended)
	assert.Empty(t, res.Records)
	assert.Equal(t, "testshop_1", res.Suspended.SessionID)
	assert.Equal(t, challenge.KindImage, res.Suspended.Details.Kind)
	assert.Equal(t, "https://shop.test/img/captcha/abc.jpg", res.Suspended.Details.ProbeURL)
	assert.Equal(t, 1, m.challenges["image"])

	msgs := messages(t, out)
	require.Len(t, msgs, 1)
	assert.Equal(t, "captcha_required", msgs[0]["status"])
	assert.Equal(t, "testshop_1", msgs[0]["sessionId"])

	saved, err := store.Load(ctx, "testshop_1")
	require.NoError(t, err)
	assert.Equal(t, first, saved.URL)
	assert.Equal(t, 1, saved.Page)
	assert.Equal(t, "bag", saved.Query)
	assert.Equal(t, []string{"url", "website_name", "title", "exact_price"}, saved.Fields)
	assert.Len(t, saved.Cookies, 1)

	v := c.Validate(ctx, "testshop_999", "abc123")
	assert.False(t, v.Valid)
	assert.Contains(t, v.Message, "not found")

	v = c.Validate(ctx, "testshop_1", "wrong")
	assert.False(t, v.Valid)
	assert.Equal(t, "challenge still present", v.Message)
	_, err = store.Load(ctx, "testshop_1")
	require.NoError(t, err, "failed attempt keeps the session")

	v = c.Validate(ctx, "testshop_1", "abc123")
	require.True(t, v.Valid, v.Message)
	assert.Equal(t, "testshop_2", v.Next)
	_, err = store.Load(ctx, "testshop_1")
	assert.ErrorIs(t, err, session.ErrNotFound)

	v = c.Validate(ctx, "testshop_1", "abc123")
	assert.False(t, v.Valid, "sessions are single use")

	next, err := store.Load(ctx, "testshop_2")
	require.NoError(t, err)
	assert.Len(t, next.Cookies, 2)

	res, err = c.Run(ctx, Job{Query: next.Query, Fields: basicFields, Quota: Quota{MaxItems: 2}, Resume: next})
	require.NoError(t, err)
	assert.Nil(t, res.Suspended)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, next.Cookies, f.set[len(f.set)-1])

	_, err = store.Load(ctx, "testshop_2")
	assert.ErrorIs(t, err, session.ErrNotFound, "completed resume deletes its session")
}

func TestChallengeOnDetailPage(t *testing.T) {
	ctx := context.Background()
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)

	f := newFake(map[string]string{
		pageURL("bag", 1):       listing(card("/p/1", "Bag 1", ""), card("/p/2", "Bag 2", "")),
		"https://shop.test/p/1": `<html><body><div id="desc">ok</div></body></html>`,
		"https://shop.test/p/2": `<html><body><div class="g-recaptcha"></div></body></html>`,
	})
	c, _, _ := newTestCrawler(t, testSite(), f, WithSessionStore(store), WithSessionIDFunc(sequentialIDs()))

	res, err := c.Run(ctx, Job{Query: "bag", Fields: []field.Name{field.Title, field.Description}, Quota: Quota{MaxItems: 5}})
	require.NoError(t, err)
	require.NotNil(t, res.Suspended)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, challenge.KindInteractive, res.Suspended.Details.Kind)

	s, err := store.Load(ctx, res.Suspended.SessionID)
	require.NoError(t, err)
	assert.Equal(t, pageURL("bag", 1), s.URL, "resume restarts the listing page")
}

func TestChallengeWithoutStore(t *testing.T) {
	f := newFake(map[string]string{pageURL("bag", 1): captchaPage})
	c, _, _ := newTestCrawler(t, testSite(), f)

	_, err := c.Run(context.Background(), Job{Query: "bag", Fields: basicFields, Quota: Quota{MaxItems: 2}})
	assert.Error(t, err)
}

func TestValidateRejectsForeignSite(t *testing.T) {
	ctx := context.Background()
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &session.Session{ID: "amazon_7", URL: "https://www.amazon.in/s?k=x", Site: "amazon"}))

	c, _, _ := newTestCrawler(t, testSite(), newFake(nil), WithSessionStore(store))
	v := c.Validate(ctx, "amazon_7", "abc")
	assert.False(t, v.Valid)
	assert.Contains(t, v.Message, "amazon")

	v = c.Validate(ctx, "../etc/passwd", "abc")
	assert.False(t, v.Valid)
}
