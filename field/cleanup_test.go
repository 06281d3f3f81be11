package field

import (
	"net/url"
	"testing"

	"github.com/dreamerjackson/shopcrawler/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecPairs(t *testing.T) {
	html := `<div class="basic-info-list">
  <div class="bsc-item cf"><div class="bac-item-label">Material:</div><div class="bac-item-value">PU Leather</div></div>
  <div class="bsc-item cf"><div class="bac-item-label">Origin</div><div class="bac-item-value"> Guangzhou,  China </div></div>
  <div class="bsc-item cf"><div class="bac-item-label">Empty</div></div>
  <div class="bsc-item cf"><div class="bac-item-label">Size</div><div class="bac-item-value">30cm</div></div>
</div>`
	m, ok := selector.Resolve(scope(t, html), selector.List(".basic-info-list .bsc-item"))
	require.True(t, ok)

	env := &Env{Limits: Limits{MaxSpecifications: 2, MaxSpecKey: 100, MaxSpecValue: 500}}
	got := SpecPairs(".bac-item-label", ".bac-item-value")(Raw{Match: m, Env: env})
	assert.Equal(t, map[string]string{"Material": "PU Leather", "Origin": "Guangzhou, China"}, got)

	m, _ = selector.Resolve(scope(t, `<div class="x"></div>`), selector.List(".x"))
	assert.Nil(t, SpecPairs(".k", ".v")(Raw{Match: m, Env: env}))
}

func TestJSONLinks(t *testing.T) {
	html := `<div class="swiper-wrapper">
  <script type="text/data-video">{"videoUrl":"//video.test/a.mp4","cover":"x.jpg"}</script>
  <script type="text/data-video">not json</script>
  <script type="text/data-video">{"videoUrl":"https://video.test/b.mp4"}</script>
  <script type="text/data-video">{"videoUrl":"https://video.test/b.mp4"}</script>
</div>`
	m, ok := selector.Resolve(scope(t, html), selector.List(`script[type="text/data-video"]`))
	require.True(t, ok)

	base, _ := url.Parse("https://shop.test/")
	env := &Env{Base: base, Limits: DefaultLimits}
	got := JSONLinks("videoUrl")(Raw{Match: m, Env: env})
	assert.Equal(t, []string{"https://video.test/a.mp4", "https://video.test/b.mp4"}, got)
}
