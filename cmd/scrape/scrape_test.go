package scrape

import (
	"testing"

	"github.com/dreamerjackson/shopcrawler/config"
	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/selector"
	"github.com/dreamerjackson/shopcrawler/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSite() *engine.Site {
	return &engine.Site{
		Name:         "testshop",
		DisplayName:  "TestShop",
		BaseURL:      "https://shop.test",
		SearchURL:    "https://shop.test/s?k={query}&page={page}",
		ItemsPerPage: 10,
		Cards:        selector.List("div.card"),
		CardFields: []field.Spec{
			{Name: field.URL, Locators: []selector.Locator{selector.Attr("a", "href")}, Cleanup: field.Link, Required: true},
			{Name: field.Title, Locators: selector.List("h2"), Required: true},
			{Name: field.ExactPrice, Locators: selector.List(".price"), Cleanup: field.Amount},
		},
	}
}

func TestPositional(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Flags
		wantErr string
	}{
		{name: "none", args: nil, want: Flags{}},
		{name: "keyword", args: []string{"leather bag"}, want: Flags{Query: "leather bag"}},
		{
			name: "full",
			args: []string{"leather bag", "2", "3", "title,price"},
			want: Flags{Query: "leather bag", MaxPages: 2, Retries: 3, Fields: "title,price"},
		},
		{name: "bad pages", args: []string{"bag", "two"}, wantErr: `page_count must be an integer, got "two"`},
		{name: "bad retries", args: []string{"bag", "2", "3x"}, wantErr: `retries must be an integer, got "3x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Flags
			err := f.positional(tt.args)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestJob(t *testing.T) {
	site := testSite()

	job, err := Flags{Query: "bag", Fields: "title,price", MaxItems: 5}.job(site, nil)
	require.NoError(t, err)
	assert.Equal(t, []field.Name{field.URL, field.WebsiteName, field.Title, field.ExactPrice}, job.Fields)
	assert.Equal(t, engine.Quota{MaxItems: 5}, job.Quota)
	assert.NotEmpty(t, job.ID)

	job, err = Flags{Query: "bag", MaxPages: 3, JobID: "job-1"}.job(site, nil)
	require.NoError(t, err)
	assert.Equal(t, engine.Quota{MaxItems: 30, MaxPages: 3}, job.Quota)
	assert.Equal(t, "job-1", job.ID)

	_, err = Flags{Query: "bag", Fields: "title,colour"}.job(site, nil)
	assert.Error(t, err)

	_, err = Flags{}.job(site, nil)
	assert.EqualError(t, err, "a search keyword is required")

	_, err = Flags{Query: "bag", MaxItems: -1}.job(site, nil)
	assert.Error(t, err)
}

func TestJobFromSession(t *testing.T) {
	s := &session.Session{ID: "testshop_1", Site: "testshop", Query: "usb hub", Page: 3, Fields: []string{"url", "website_name", "title"}}

	job, err := Flags{MaxItems: 10}.job(testSite(), s)
	require.NoError(t, err)
	assert.Equal(t, "usb hub", job.Query)
	assert.Equal(t, []field.Name{field.URL, field.WebsiteName, field.Title}, job.Fields)
	assert.Same(t, s, job.Resume)
}

func TestOverrides(t *testing.T) {
	cfg := config.Default()
	Flags{Output: "out", Fetcher: "http", Headless: false, headlessSet: true}.overrides(&cfg)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "http", cfg.Fetcher.Type)
	assert.False(t, cfg.Fetcher.Headless)

	cfg = config.Default()
	Flags{Headless: false}.overrides(&cfg)
	assert.True(t, cfg.Fetcher.Headless)
}
