package amazon

import (
	"github.com/dreamerjackson/shopcrawler/challenge"
	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/selector"
)

var (
	css  = selector.CSS
	attr = selector.Attr
)

var titleLink = []selector.Locator{
	css("a.a-link-normal.s-line-clamp-2"),
	css("h2 a.a-link-normal"),
	css("h2 span"),
}

var Site = &engine.Site{
	Name:         "amazon",
	DisplayName:  "Amazon",
	BaseURL:      "https://www.amazon.in",
	SearchURL:    "https://www.amazon.in/s?k={query}&page={page}",
	ItemsPerPage: 16,
	Cards: selector.List(
		`div[data-component-type="s-search-result"]`,
		`div.s-result-item[data-asin]:not([data-asin=""])`,
	),
	CardFields: []field.Spec{
		{
			Name: field.URL,
			Locators: []selector.Locator{
				attr("a.a-link-normal.s-line-clamp-2", "href"),
				attr("h2 a.a-link-normal", "href"),
				attr("a.a-link-normal.s-no-outline", "href"),
			},
			Cleanup:  field.Link,
			Required: true,
		},
		{Name: field.Title, Locators: titleLink, Required: true},
		{Name: field.Currency, Locators: selector.List("span.a-price-symbol"), Cleanup: field.Text},
		{
			Name:     field.ExactPrice,
			Locators: selector.List("span.a-price-whole", "span.a-price span.a-offscreen"),
			Cleanup:  field.Amount,
		},
		{Name: field.ImageURL, Locators: []selector.Locator{attr("img.s-image", "src")}, Cleanup: field.ImageLink},
		{
			Name:     field.MinOrder,
			Locators: []selector.Locator{selector.Derived()},
			Derive:   field.Const("1 unit"),
		},
	},
	DetailFields: []field.Spec{
		{
			Name:     field.Description,
			Locators: selector.List("#feature-bullets li.a-spacing-mini", "#feature-bullets li", "#productDescription"),
			Cleanup:  field.Paragraph,
		},
		{
			Name: field.DiscountInformation,
			Locators: []selector.Locator{
				css("span.savingsPercentage"),
				selector.Derived(),
			},
			Derive:    field.DiscountFromMRP(selector.List("span.a-price.a-text-price span.a-offscreen", "#listPrice")),
			DependsOn: []field.Name{field.ExactPrice},
		},
		{
			Name: field.Specifications,
			Locators: selector.List(
				"ul.detail-bullet-list",
				"table#productDetails_detailBullets_sections1",
				"table#productDetails_techSpec_section_1",
			),
			Cleanup: field.SpecTable,
		},
		{
			Name:     field.Feedback,
			Locators: selector.List("#acrPopover span.a-size-base.a-color-base, #acrCustomerReviewText", "#averageCustomerReviews"),
			Cleanup:  field.FeedbackPair,
		},
		{Name: field.Supplier, Locators: selector.List("#sellerProfileTriggerId", "span.tabular-buybox-text")},
		{
			Name:     field.Images,
			Locators: []selector.Locator{attr("#altImages li.imageThumbnail img", "src"), attr("#landingImage", "src")},
			Cleanup:  field.ImageList,
		},
		{
			Name:     field.Videos,
			Locators: []selector.Locator{attr("video source", "src"), attr("video", "src")},
			Cleanup:  field.VideoList,
		},
		{
			Name:      field.BrandName,
			Locators:  []selector.Locator{css("a#bylineInfo"), selector.Derived()},
			Cleanup:   brand,
			Derive:    field.BrandFromTitle(nil, true),
			DependsOn: []field.Name{field.Title},
		},
	},
	Markers: challenge.Markers{
		Text: []string{"sorry, we just need to make sure you're not a robot"},
		URL:  []string{"/errors/validatecaptcha"},
	},
	Captcha: engine.CaptchaForm{
		Input:  "#captchacharacters",
		Submit: `button[type="submit"]`,
	},
}
