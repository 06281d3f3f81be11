package dhgate

import (
	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/selector"
)

const specRow = `div[class*="prodSpecifications_showLayer"] ul li`

var titleLinks = []string{
	"div.gallery-pro-name a",
	"a.title",
	"div.item-title a",
	`a[href*="/product/"]`,
}

func links(attr string) []selector.Locator {
	ls := make([]selector.Locator, 0, len(titleLinks))
	for _, s := range titleLinks {
		ls = append(ls, selector.Attr(s, attr))
	}
	return ls
}

var price = selector.List(".gallery-pro-price", "span.price", "div.item-price", `[class*="price"]`)

var Site = &engine.Site{
	Name:         "dhgate",
	DisplayName:  "DHgate",
	BaseURL:      "https://www.dhgate.com",
	SearchURL:    "https://www.dhgate.com/wholesale/search.do?act=search&searchkey={query}&pageNo={page}",
	ItemsPerPage: 40,
	Cards: selector.List(
		".gallery-pro",
		".item-box",
		".product-item",
		`div[class*="product-list"] > div`,
	),
	CardFields: []field.Spec{
		{Name: field.URL, Locators: links("href"), Cleanup: field.Link, Required: true},
		{
			Name:     field.Title,
			Locators: append(links("title"), selector.List(titleLinks...)...),
			Required: true,
		},
		{Name: field.Currency, Locators: price, Cleanup: field.CurrencyOf},
		{Name: field.ExactPrice, Locators: price, Cleanup: field.Amount},
		{Name: field.DiscountInformation, Locators: selector.List(".discount", ".promo-info", `span[class*="discount"]`)},
	},
	DetailFields: []field.Spec{
		{
			Name:     field.MinOrder,
			Locators: append(selector.List("span.moq", "div.moq", `[class*="min-order"]`), selector.Derived()),
			Cleanup:  field.MinimumOrder,
			Derive:   field.Const("1 unit"),
		},
		{Name: field.Supplier, Locators: selector.List("a.store-name", `a[href*="/store/"]`, "div.seller-info a", "span.seller-name")},
		{Name: field.Origin, Locators: selector.List(specRow + `:contains("Origin") div[class*="prodSpecifications_deswrap"]`)},
		{
			Name: field.Feedback,
			Locators: selector.List(
				`div[class*="starWarp"], span[class*="reviewsCount"]`,
				"span.star-rating, span.review-count",
			),
			Cleanup: field.FeedbackPair,
		},
		{
			Name:     field.Specifications,
			Locators: selector.List(specRow),
			Cleanup:  field.SpecPairs("span", `div[class*="prodSpecifications_deswrap"]`),
		},
		{
			Name: field.Images,
			Locators: []selector.Locator{
				selector.Attr(`ul[class*="smallMapList"] img`, "data-zoom-image"),
				selector.Attr(`ul[class*="smallMapList"] img`, "src"),
				selector.Attr(".product-image img", "src"),
				selector.Attr("div.image-gallery img", "src"),
			},
			Cleanup: field.ImageList,
		},
		{
			Name:     field.Videos,
			Locators: []selector.Locator{selector.Attr(`video source, [class*="video"] source`, "src")},
			Cleanup:  field.VideoList,
		},
		{
			Name: field.BrandName,
			Locators: []selector.Locator{
				selector.CSS(specRow + `:contains("Brand") div[class*="prodSpecifications_deswrap"]`),
				selector.Derived(),
			},
			Derive:    field.BrandFromTitle([]string{"dior", "nike", "adidas", "rolex", "gucci", "prada"}, false),
			DependsOn: []field.Name{field.Title},
		},
	},
}
