package selector

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<div class="card">
  <h2 class="b-title">  Leather
     Bag </h2>
  <span class="c-title">Generic title</span>
  <span class="empty">   </span>
  <img class="thumb" data-src="//img.example.com/1.jpg">
  <img class="thumb" src="/2.jpg">
  <img class="thumb" data-src="//img.example.com/3.jpg">
</div>
</body></html>`

func doc(t *testing.T) *goquery.Selection {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return d.Selection
}

func TestResolveFirstMatchWins(t *testing.T) {
	locators := []Locator{CSS("h1.a-title"), CSS("h2.b-title"), CSS("span.c-title")}

	m, ok := Resolve(doc(t), locators)
	require.True(t, ok)
	assert.Equal(t, "h2.b-title", m.Locator.Selector)
	assert.Equal(t, "Leather Bag", m.First())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		locators []Locator
		wantOK   bool
		wantLoc  string
		wantVals []string
	}{
		{name: "none", locators: nil},
		{name: "no match", locators: List("#missing", ".nothing")},
		{name: "empty text skipped", locators: List("span.empty", "span.c-title"), wantOK: true, wantLoc: "span.c-title", wantVals: []string{"Generic title"}},
		{name: "derived skipped", locators: []Locator{Derived(), CSS("span.c-title")}, wantOK: true, wantLoc: "span.c-title", wantVals: []string{"Generic title"}},
		{
			name:     "attribute keeps only nodes carrying it",
			locators: []Locator{Attr("img.thumb", "data-src")},
			wantOK:   true,
			wantLoc:  "img.thumb@data-src",
			wantVals: []string{"//img.example.com/1.jpg", "//img.example.com/3.jpg"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Resolve(doc(t), tt.locators)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantLoc, m.Locator.String())
			assert.Equal(t, tt.wantVals, m.Values)
			assert.Equal(t, len(tt.wantVals), m.Nodes.Length())
		})
	}
}

func TestResolveNilRoot(t *testing.T) {
	_, ok := Resolve(nil, List("div"))
	assert.False(t, ok)
}
