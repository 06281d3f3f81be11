package madeinchina

import (
	"github.com/dreamerjackson/shopcrawler/challenge"
	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/selector"
)

var Site = &engine.Site{
	Name:         "madeinchina",
	DisplayName:  "MadeinChina",
	BaseURL:      "https://www.made-in-china.com",
	SearchURL:    "https://www.made-in-china.com/multi-search/{query}/F1/{page}.html",
	ItemsPerPage: 20,
	Cards: selector.List(
		".sr-srpList .sr-srpItem",
		".prod-list .prod-info",
		".search-result-list .item",
		`div[data-component="ProductList"] .item`,
	),
	CardFields: []field.Spec{
		{
			Name: field.URL,
			Locators: []selector.Locator{
				selector.Attr(".product-name a", "href"),
				selector.Attr(`a[href*="made-in-china.com"]`, "href"),
			},
			Cleanup:  field.Link,
			Required: true,
		},
		{
			Name: field.Title,
			Locators: []selector.Locator{
				selector.Attr(".product-name a", "title"),
				selector.CSS(".product-name"),
				selector.CSS(".sr-srpItem-title"),
				selector.CSS(".title"),
			},
			Required: true,
		},
		{Name: field.Currency, Locators: selector.List(".price", ".price-info", ".sr-srpItem-price"), Cleanup: field.CurrencyOf},
		{Name: field.ExactPrice, Locators: selector.List(".price", ".price-info", ".sr-srpItem-price"), Cleanup: field.Amount},
		{Name: field.MinOrder, Locators: selector.List(`.info:contains("(MOQ)")`, `div:contains("(MOQ)")`), Cleanup: field.MinimumOrder},
		{Name: field.Supplier, Locators: selector.List(".company-name", ".supplier-name", ".compnay-name span")},
		{
			Name:     field.ImageURL,
			Locators: []selector.Locator{selector.Attr(".prod-image img", "data-original"), selector.Attr(".prod-image img", "src"), selector.Attr("img", "src")},
			Cleanup:  field.ImageLink,
		},
	},
	DetailFields: []field.Spec{
		{
			Name:     field.Origin,
			Locators: selector.List(`.basic-info-list .bsc-item:contains("Origin") .bac-item-value`, ".basic-info-list .bsc-item .bac-item-value"),
		},
		{Name: field.Feedback, Locators: selector.List("a.J-company-review .review-score", ".review-score"), Cleanup: field.FeedbackPair},
		{
			Name:     field.Specifications,
			Locators: selector.List(".basic-info-list .bsc-item"),
			Cleanup:  field.SpecPairs(".bac-item-label", ".bac-item-value"),
		},
		{
			Name: field.Images,
			Locators: []selector.Locator{
				selector.Attr(".sr-proMainInfo-slide-container .swiper-wrapper img", "src"),
				selector.Attr(".product-media .swiper-wrapper img", "src"),
			},
			Cleanup: field.ImageList,
		},
		{
			Name:     field.Videos,
			Locators: selector.List(`.swiper-wrapper script[type="text/data-video"]`),
			Cleanup:  field.JSONLinks("videoUrl"),
		},
		{Name: field.Description, Locators: selector.List(".detail-desc", ".rich-text"), Cleanup: field.Paragraph},
	},
	Markers: challenge.Markers{
		Selectors: []string{"div.captcha-container"},
	},
}
