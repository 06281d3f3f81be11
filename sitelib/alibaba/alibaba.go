package alibaba

import (
	"github.com/dreamerjackson/shopcrawler/challenge"
	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/selector"
)

var Site = &engine.Site{
	Name:         "alibaba",
	DisplayName:  "Alibaba",
	BaseURL:      "https://www.alibaba.com",
	SearchURL:    "https://www.alibaba.com/trade/search?SearchText={query}&page={page}",
	ItemsPerPage: 40,
	Cards: selector.List(
		".m-gallery-product-item-v2",
		".m-gallery-product-item-wrap",
		".search-card",
		".organic-gallery-offer-outter",
		".list-outter",
		".offer-item",
		".product-card",
		`[data-content="item"]`,
	),
	Next: []selector.Locator{
		selector.Attr("a.next", "href"),
		selector.Attr(`a[rel="next"]`, "href"),
		selector.Attr(`a[class*="next"]`, "href"),
	},
	CardFields: []field.Spec{
		{
			Name: field.URL,
			Locators: []selector.Locator{
				selector.Attr("a.elements-title-normal", "href"),
				selector.Attr("a.organic-gallery-title__link", "href"),
				selector.Attr(`a[href*="product-detail"]`, "href"),
				selector.Attr(`a[class*="card-main"]`, "href"),
			},
			Cleanup:  field.Link,
			Required: true,
		},
		{
			Name: field.Title,
			Locators: selector.List(
				"h2.elements-title-normal__content",
				"a.organic-gallery-title__link",
				"h2",
				`a[class*="title"]`,
				`div[class*="title"]`,
			),
			Required: true,
		},
		{
			Name: field.Currency,
			Locators: selector.List(".m-gallery-product-item-price", ".price-main",
				"span.elements-offer-price-normal__price", `div[class*="price"]`),
			Cleanup: field.CurrencyOf,
		},
		{
			Name: field.ExactPrice,
			Locators: selector.List(".m-gallery-product-item-price", ".price-main",
				"span.elements-offer-price-normal__price", `div[class*="price"]`, `span[class*="price"]`),
			Cleanup: field.Amount,
		},
		{
			Name: field.MinOrder,
			Locators: selector.List(
				".element-offer-minorder-normal__value",
				`.search-card-m-sale-features__item:contains("Min. order")`,
				`[class*="moq"]`,
				`[class*="min-order"]`,
			),
			Cleanup: field.MinimumOrder,
		},
		{
			Name: field.Supplier,
			Locators: selector.List(".m-gallery-product-item-supplier", "a.search-card-e-company", ".company-name",
				"div.supplier-name", `div[class*="company-name"]`, `[class*="supplier"]`),
		},
		{Name: field.Origin, Locators: selector.List("span.origin", `[class*="origin"]`, `[class*="location"]`)},
		{
			Name:     field.Feedback,
			Locators: selector.List(".rating-value", `span[class*="rating"]`, `[class*="review"]`),
			Cleanup:  field.FeedbackPair,
		},
		{
			Name:     field.DiscountInformation,
			Locators: selector.List("span.discount", `span[class*="discount"]`, `div[class*="discount"]`, `[class*="promo"]`),
		},
		{
			Name: field.ImageURL,
			Locators: []selector.Locator{
				selector.Attr("img.m-gallery-product-item-img", "src"),
				selector.Attr("img[data-src]", "data-src"),
				selector.Attr("img[data-lazy-src]", "data-lazy-src"),
				selector.Attr("img[src]", "src"),
			},
			Cleanup: field.ImageLink,
		},
	},
	DetailFields: []field.Spec{
		{
			Name: field.Description,
			Locators: selector.List(
				"div.ife-detail-decorate-table div.magic-3",
				"div.product-detail-description",
				`div[class*="description"]`,
				`div[class*="detail-content"]`,
			),
			Cleanup: field.Paragraph,
		},
		{
			Name: field.Images,
			Locators: []selector.Locator{
				selector.Attr(".detail-gallery img", "src"),
				selector.Attr(".thumb-list img", "src"),
				selector.Attr(".main-image img", "src"),
			},
			Cleanup: field.ImageList,
		},
		{
			Name:     field.Specifications,
			Locators: selector.List(".attribute-list .attribute-item"),
			Cleanup:  field.SpecPairs(".left", ".right span"),
		},
		{
			Name:     field.Videos,
			Locators: []selector.Locator{selector.Attr("video source", "src"), selector.Attr("video[src]", "src")},
			Cleanup:  field.VideoList,
		},
		{
			Name:     field.BrandName,
			Locators: selector.List(`.attribute-item:contains("Brand Name") .right span`, `.attribute-item:contains("Brand") .right`),
		},
	},
	Markers: challenge.Markers{
		Selectors: []string{`div[class*="captcha"]`, `iframe[src*="captcha"]`, `[id*="captcha"]`, `div[class*="verify"]`, ".baxia-dialog"},
		URL:       []string{"_____tmd_____/punish"},
	},
}
