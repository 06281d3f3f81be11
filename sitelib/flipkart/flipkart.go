package flipkart

import (
	"github.com/dreamerjackson/shopcrawler/challenge"
	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/selector"
)

// Flipkart rotates its obfuscated class names; each list keeps the old name
// first and the current one after it.
var Site = &engine.Site{
	Name:         "flipkart",
	DisplayName:  "Flipkart",
	BaseURL:      "https://www.flipkart.com",
	SearchURL:    "https://www.flipkart.com/search?q={query}&page={page}",
	ItemsPerPage: 24,
	Cards:        selector.List("div._2kHMtA", "div.tUxRFH", "div._1AtVbE", "div[data-id]"),
	KeepParams:   []string{"pid"},
	CardFields: []field.Spec{
		{
			Name: field.URL,
			Locators: []selector.Locator{
				selector.Attr("a.CGtC98", "href"),
				selector.Attr("a._1fQZEK", "href"),
				selector.Attr("a.wjcEIp", "href"),
				selector.Attr(`a[href*="/p/"]`, "href"),
			},
			Cleanup:  field.Link,
			Required: true,
		},
		{
			Name: field.Title,
			Locators: []selector.Locator{
				selector.CSS("div._4rR01T"),
				selector.CSS("div.KzDlHZ"),
				selector.Attr("a.wjcEIp", "title"),
				selector.CSS("a.wjcEIp"),
			},
			Required: true,
		},
		{Name: field.Currency, Locators: selector.List("div._30jeq3", "div.Nx9bqj"), Cleanup: field.CurrencyOf},
		{Name: field.ExactPrice, Locators: selector.List("div._30jeq3", "div.Nx9bqj"), Cleanup: field.Amount},
		{Name: field.DiscountInformation, Locators: selector.List("div._3Ay6Sb", "div.UkUFwK")},
		{
			Name:     field.ImageURL,
			Locators: []selector.Locator{selector.Attr("img._396cs4", "src"), selector.Attr("img.DByuf4", "src")},
			Cleanup:  field.ImageLink,
		},
		{
			Name:     field.Feedback,
			Locators: selector.List("div._3LWZlK, span._2_R_DZ", "div.XQDdHH, span.Wphh3N"),
			Cleanup:  field.FeedbackPair,
		},
		{
			Name:      field.BrandName,
			Locators:  []selector.Locator{selector.CSS("div._2WkVRV"), selector.CSS("div.syl9yP"), selector.Derived()},
			Derive:    field.BrandFromTitle(nil, true),
			DependsOn: []field.Name{field.Title},
		},
	},
	DetailFields: []field.Spec{
		{Name: field.Description, Locators: selector.List("div._1mXcCf", `div[class="yN_+oW"] p`, "div._1AN87F"), Cleanup: field.Paragraph},
		{Name: field.Supplier, Locators: selector.List("#sellerName span span", "div._2VRS5M", "div.cvCpHS")},
		{
			Name:     field.Images,
			Locators: []selector.Locator{selector.Attr("div._2r_T1I img", "src"), selector.Attr("div.qOPjUY img", "src")},
			Cleanup:  field.ImageList,
		},
		{
			Name:     field.Specifications,
			Locators: selector.List("div._1UhVsV table", "div.GNDEQ- table", "div._1UhVsV", "div.GNDEQ-"),
			Cleanup:  field.SpecTable,
		},
		{Name: field.MinOrder, Locators: []selector.Locator{selector.Derived()}, Derive: field.Const("1 unit")},
	},
	Markers: challenge.Markers{
		Selectors: []string{"div#recaptcha-container"},
	},
}
