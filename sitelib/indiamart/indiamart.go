// Package indiamart reads IndiaMART listings. Everything comes from the
// search card; listing pages are never visited.
package indiamart

import (
	"regexp"
	"strings"

	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/selector"
)

var price = selector.List("p.price", "div.price", "span.price", "div.mprice", "span.mrp", `[class*="price"]`)

var Site = &engine.Site{
	Name:         "indiamart",
	DisplayName:  "IndiaMart",
	BaseURL:      "https://www.indiamart.com",
	SearchURL:    "https://dir.indiamart.com/search.mp?ss={query}&page={page}",
	ItemsPerPage: 28,
	Cards:        selector.List("div.card", "div.product-card", "div.listing", `div[class*="product"]`),
	CardFields: []field.Spec{
		{
			Name: field.URL,
			Locators: []selector.Locator{
				selector.Attr("div.titleAskPriceImageNavigation a", "href"),
				selector.Attr("a.product-title", "href"),
				selector.Attr("a.cardlinks", "href"),
				selector.Attr("a[href]", "href"),
			},
			Cleanup:  field.Link,
			Required: true,
		},
		{
			Name:     field.Title,
			Locators: selector.List("div.producttitle", "div.titleAskPriceImageNavigation a", "a.product-title", "h2.product-name"),
			Cleanup:  title,
			Required: true,
		},
		{Name: field.Currency, Locators: price, Cleanup: field.CurrencyOf},
		{Name: field.ExactPrice, Locators: price, Cleanup: field.Amount},
		{Name: field.Description, Locators: selector.List("div.description", "p.description", "div.prod-desc"), Cleanup: field.Paragraph},
		{
			Name:     field.MinOrder,
			Locators: append(selector.List("span.unit", "div.moq", `[class*="moq"]`), selector.Derived()),
			Cleanup:  field.MinimumOrder,
			Derive:   field.Const("1 unit"),
		},
		{Name: field.Supplier, Locators: selector.List("div.companyname a", "div.companyname", "p.company-name")},
		{Name: field.Origin, Locators: selector.List("span.origin", `div[class*="origin"]`)},
		{Name: field.Feedback, Locators: selector.List("div.rating", "span.rating", `[class*="rating"]`), Cleanup: field.FeedbackPair},
		{Name: field.ImageURL, Locators: images, Cleanup: field.ImageLink},
		{Name: field.Images, Locators: images, Cleanup: field.ImageList},
	},
}

var images = []selector.Locator{
	selector.Attr(`img[class*="product-img"]`, "src"),
	selector.Attr(`img[class*="product-img"]`, "data-src"),
	selector.Attr(`img[src*="product"]`, "src"),
	selector.Attr("img[src]", "src"),
}

var titleNoise = regexp.MustCompile(`[^\w\s,()&-]`)

const maxTitle = 100

// title drops symbols and repeated comma-separated phrases, which sellers
// stuff into listing names for search ranking.
func title(r field.Raw) interface{} {
	t := titleNoise.ReplaceAllString(selector.Clean(r.First()), "")

	var parts []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(t, ",") {
		p = strings.TrimSpace(p)
		k := strings.ToLower(p)
		if p == "" || seen[k] {
			continue
		}
		seen[k] = true
		parts = append(parts, p)
	}

	t = selector.Clean(strings.Join(parts, " "))
	if t == "" {
		return nil
	}
	if len(t) > maxTitle {
		t = t[:maxTitle-3] + "..."
	}
	return t
}
