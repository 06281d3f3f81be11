package field

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dreamerjackson/shopcrawler/retry"
	"github.com/dreamerjackson/shopcrawler/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardHTML = `<div class="card">
  <a class="title" href="/Gucci-Leather-Bag/dp/B0G1/ref=sr_1_1?qid=1">Gucci Leather Bag</a>
  <span class="price">₹2,000</span>
  <span class="mrp">₹2,500</span>
  <span class="stars">4.3 out of 5 stars (1,204)</span>
  <img src="//m.media.com/a.jpg"><img src="/placeholder.png"><img src="https://m.media.com/b.jpg">
  <img src="https://m.media.com/c.jpg"><img src="https://m.media.com/d.jpg">
  <img src="https://m.media.com/e.jpg"><img src="https://m.media.com/f.jpg">
  <table class="specs">
    <tr><th>Material</th><td>Leather</td></tr>
    <tr><th>Colour</th><td> Brown </td></tr>
    <tr><td>lonely cell</td></tr>
  </table>
  <ul class="facts"><li>Weight: 1 kg</li><li>no separator</li></ul>
  <div class="moq">Min. order: 10 Pieces</div>
</div>`

func scope(t *testing.T, html string) *goquery.Selection {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d.Selection
}

func quick() retry.Policy {
	p := retry.FieldPolicy()
	p.BaseDelay = 0
	return p
}

func cardSpecs() []Spec {
	return []Spec{
		{Name: URL, Locators: []selector.Locator{selector.Attr("a.title", "href")}, Cleanup: Link, Required: true},
		{Name: Title, Locators: selector.List("h2.title", "a.title"), Required: true, Relevance: RelevanceTokens},
		{Name: ExactPrice, Locators: selector.List("span.price"), Cleanup: Amount},
		{Name: Currency, Locators: selector.List("span.price"), Cleanup: CurrencyOf},
		{Name: Feedback, Locators: selector.List("span.stars"), Cleanup: FeedbackPair},
		{Name: Images, Locators: []selector.Locator{selector.Attr("img", "src")}, Cleanup: ImageList},
		{Name: ImageURL, Locators: []selector.Locator{selector.Attr("img", "src")}, Cleanup: ImageLink},
		{Name: Specifications, Locators: selector.List("table.specs", "ul.facts"), Cleanup: SpecTable},
		{Name: MinOrder, Locators: selector.List("div.moq"), Cleanup: MinimumOrder},
		{Name: Supplier, Locators: selector.List("span.seller")},
		{Name: BrandName, Locators: []selector.Locator{selector.Derived()}, Derive: BrandFromTitle([]string{"gucci", "prada"}, false), DependsOn: []Name{Title}},
		{
			Name:      DiscountInformation,
			Locators:  []selector.Locator{selector.CSS("span.discount"), selector.Derived()},
			Derive:    DiscountFromMRP(selector.List("span.mrp")),
			DependsOn: []Name{ExactPrice},
		},
		{Name: WebsiteName, Locators: []selector.Locator{selector.Derived()}, Derive: Const("Amazon.in")},
	}
}

func newPipeline(t *testing.T, requested []Name, keyword string) *Pipeline {
	p, err := NewPipeline("https://www.amazon.in", requested, cardSpecs(),
		WithRetry(quick()), WithKeyword(keyword))
	require.NoError(t, err)
	return p
}

func TestExtractCard(t *testing.T) {
	p := newPipeline(t, All, "leather bag")

	rec, err := p.Extract(context.Background(), scope(t, cardHTML), cardSpecs(), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://www.amazon.in/Gucci-Leather-Bag/dp/B0G1", rec[URL])
	assert.Equal(t, "Gucci Leather Bag", rec[Title])
	assert.Equal(t, 2000.0, rec[ExactPrice])
	assert.Equal(t, "₹", rec[Currency])
	assert.Equal(t, "Amazon.in", rec[WebsiteName])
	assert.Equal(t, "Gucci", rec[BrandName])
	assert.Equal(t, "20.00% off", rec[DiscountInformation])
	assert.Equal(t, "10 Pieces", rec[MinOrder])

	fb, ok := rec[Feedback].(*Rating)
	require.True(t, ok)
	assert.Equal(t, 4.3, *fb.Rating)
	assert.Equal(t, 1204, *fb.Review)

	images := rec[Images].([]string)
	assert.Len(t, images, DefaultLimits.MaxImages)
	assert.Equal(t, "https://m.media.com/a.jpg", images[0])
	assert.Equal(t, "https://m.media.com/a.jpg", rec[ImageURL])

	assert.Equal(t, map[string]string{"Material": "Leather", "Colour": "Brown"}, rec[Specifications])

	v, present := rec[Supplier]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestExtractFallsPastUncleanLocator(t *testing.T) {
	specs := []Spec{
		{Name: ExactPrice, Locators: selector.List("span.a", "span.b", "span.c"), Cleanup: Amount},
		{Name: Currency, Locators: selector.List("span.a", "span.b"), Cleanup: CurrencyOf},
	}
	p, err := NewPipeline("https://shop.test", []Name{ExactPrice, Currency}, specs, WithRetry(quick()))
	require.NoError(t, err)

	tests := []struct {
		name     string
		html     string
		price    interface{}
		currency interface{}
	}{
		{
			name:     "contact supplier then price",
			html:     `<div><span class="a">Contact Supplier</span><span class="b">US$12.50</span></div>`,
			price:    12.5,
			currency: "US$",
		},
		{
			name:  "two unclean locators",
			html:  `<div><span class="a">Negotiable</span><span class="b">Ask</span><span class="c">$3.99</span></div>`,
			price: 3.99,
		},
		{
			name: "nothing cleans",
			html: `<div><span class="a">Negotiable</span><span class="b">Ask</span></div>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := p.Extract(context.Background(), scope(t, tt.html), specs, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.price, rec[ExactPrice])
			assert.Equal(t, tt.currency, rec[Currency])
		})
	}
}

func TestExtractRequiredMissing(t *testing.T) {
	p := newPipeline(t, []Name{Title}, "")

	_, err := p.Extract(context.Background(), scope(t, `<div><span class="price">$5</span></div>`), cardSpecs(), nil)
	require.Error(t, err)

	rej, ok := IsRejected(err)
	require.True(t, ok)
	assert.Equal(t, URL, rej.Field)
}

func TestExtractRelevanceRejects(t *testing.T) {
	p := newPipeline(t, []Name{Title}, "water bottle")

	_, err := p.Extract(context.Background(), scope(t, cardHTML), cardSpecs(), nil)
	rej, ok := IsRejected(err)
	require.True(t, ok)
	assert.Equal(t, Title, rej.Field)
	assert.Contains(t, rej.Reason, "does not match search keyword")
}

func TestExtractOnlyWantedAndUnknown(t *testing.T) {
	p := newPipeline(t, []Name{BrandName}, "")
	assert.True(t, p.Wants(Title), "dependency of brand")
	assert.False(t, p.Wants(Images))

	known := Record{Title: "Prada Tote Leather Bag", URL: "https://www.amazon.in/dp/KNOWN"}
	rec, err := p.Extract(context.Background(), scope(t, cardHTML), cardSpecs(), known)
	require.NoError(t, err)

	assert.Equal(t, "https://www.amazon.in/dp/KNOWN", rec[URL])
	assert.Equal(t, "Prada", rec[BrandName])
	assert.NotContains(t, rec, Images)
	assert.Equal(t, "Prada Tote Leather Bag", known[Title], "input untouched")
	assert.NotContains(t, known, BrandName)
}

func TestScriptDerive(t *testing.T) {
	specs := []Spec{
		{Name: Title, Locators: selector.List("a.title")},
		{Name: Origin, Locators: []selector.Locator{selector.Derived()}, Derive: Script(`title.indexOf("Leather") >= 0 ? "IN-" + text("span.price") : null`)},
		{Name: Supplier, Locators: []selector.Locator{selector.Derived()}, Derive: Script(`undefined`)},
	}
	p, err := NewPipeline("https://www.amazon.in", []Name{Title, Origin, Supplier}, specs, WithRetry(quick()))
	require.NoError(t, err)

	rec, err := p.Extract(context.Background(), scope(t, cardHTML), specs, nil)
	require.NoError(t, err)
	assert.Equal(t, "IN-₹2,000", rec[Origin])
	assert.Nil(t, rec[Supplier])
}

func TestParagraphCap(t *testing.T) {
	env := &Env{Limits: Limits{MaxDescription: 10}}
	m, ok := selector.Resolve(scope(t, `<p>abcdefghij klmnop</p>`), selector.List("p"))
	require.True(t, ok)

	assert.Equal(t, "abcdefghij", Paragraph(Raw{Match: m, Env: env}))
}

func TestParseFeedback(t *testing.T) {
	tests := []struct {
		text   string
		rating interface{}
		review interface{}
		ok     bool
	}{
		{text: "4.5 out of 5 stars 2,311 ratings", rating: 4.5, review: 2311, ok: true},
		{text: "4.1★ (87)", rating: 4.1, review: 87, ok: true},
		{text: "12 reviews", rating: nil, review: 12, ok: true},
		{text: "no reviews yet", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			fb, ok := ParseFeedback(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.rating == nil {
				assert.Nil(t, fb.Rating)
			} else if assert.NotNil(t, fb.Rating) {
				assert.Equal(t, tt.rating, *fb.Rating)
			}
			if tt.review == nil {
				assert.Nil(t, fb.Review)
			} else if assert.NotNil(t, fb.Review) {
				assert.Equal(t, tt.review, *fb.Review)
			}
		})
	}
}
