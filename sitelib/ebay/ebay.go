package ebay

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/selector"
)

var carousel = []selector.Locator{
	selector.Attr("div.ux-image-carousel-item img", "data-zoom-src"),
	selector.Attr("div.ux-image-carousel-item img", "src"),
}

var Site = &engine.Site{
	Name:         "ebay",
	DisplayName:  "eBay.com",
	BaseURL:      "https://www.ebay.com",
	SearchURL:    "https://www.ebay.com/sch/i.html?_nkw={query}&_sacat=0&_pgn={page}",
	ItemsPerPage: 60,
	Cards:        selector.List("div.s-item__wrapper", "ul.srp-results li.s-item"),
	CardFields: []field.Spec{
		{
			Name:     field.URL,
			Locators: []selector.Locator{selector.Attr("a.s-item__link", "href")},
			Cleanup:  field.Link,
			Required: true,
		},
		{Name: field.Title, Locators: selector.List(`a.s-item__link span[role="heading"]`, ".s-item__title"), Required: true},
		{Name: field.Currency, Locators: selector.List("span.s-item__price"), Cleanup: field.CurrencyOf},
		{Name: field.ExactPrice, Locators: selector.List("span.s-item__price"), Cleanup: field.Amount},
		{Name: field.Origin, Locators: selector.List("span.s-item__location"), Cleanup: location},
		{
			Name:     field.MinOrder,
			Locators: []selector.Locator{selector.Derived()},
			Derive:   field.Const("1 unit"),
		},
	},
	DetailFields: []field.Spec{
		{Name: field.Description, Locators: selector.List("div#viTabs_0_is"), Cleanup: field.Paragraph},
		{Name: field.Supplier, Locators: selector.List(`a[href*="ebay.com/str/"] span.ux-textspans--BOLD`)},
		{Name: field.Feedback, Locators: selector.List("div.ux-seller-card"), Cleanup: sellerFeedback},
		{Name: field.ImageURL, Locators: carousel, Cleanup: largestImage},
		{Name: field.Images, Locators: carousel, Cleanup: bySize},
		{
			Name:     field.Videos,
			Locators: []selector.Locator{selector.Attr("video source", "src"), selector.Attr("video", "src")},
			Cleanup:  field.VideoList,
		},
		{
			Name:      field.DiscountInformation,
			Locators:  []selector.Locator{selector.Derived()},
			Derive:    field.DiscountFromMRP(selector.List("span.ux-textspans--STRIKETHROUGH")),
			DependsOn: []field.Name{field.ExactPrice},
		},
		{
			Name:     field.BrandName,
			Locators: selector.List(`div.ux-labels-values__labels:contains("Brand") + div span.ux-textspans`),
		},
	},
}

// location keeps the place out of "from China".
func location(r field.Raw) interface{} {
	v := selector.Clean(r.First())
	if !strings.HasPrefix(v, "from ") {
		return nil
	}
	if v = strings.TrimSpace(strings.TrimPrefix(v, "from ")); v != "" {
		return v
	}
	return nil
}

var (
	positiveRe = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
	countRe    = regexp.MustCompile(`\((\d[\d,]*)\)`)
	sizeRe     = regexp.MustCompile(`s-l(\d+)`)
)

// sellerFeedback maps the seller card's positive percentage onto a 1-5
// rating and reads the feedback count.
func sellerFeedback(r field.Raw) interface{} {
	if r.Nodes == nil {
		return nil
	}
	var fb field.Rating

	if m := positiveRe.FindStringSubmatch(r.Nodes.Find("span.ux-textspans--PSEUDOLINK").First().Text()); m != nil {
		if p, err := strconv.ParseFloat(m[1], 64); err == nil {
			v := math.Round((1+4*p/100)*10) / 10
			fb.Rating = &v
		}
	}
	if m := countRe.FindStringSubmatch(r.Nodes.Find("span.SECONDARY").First().Text()); m != nil {
		if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			fb.Review = &n
		}
	}

	if fb.Rating == nil && fb.Review == nil {
		return nil
	}
	return &fb
}

func size(u string) int {
	if m := sizeRe.FindStringSubmatch(u); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// bySize orders carousel images largest first, going by the s-l<px> path
// segment eBay puts in image URLs.
func bySize(r field.Raw) interface{} {
	v := field.ImageList(r)
	imgs, ok := v.([]string)
	if !ok {
		return nil
	}
	sort.SliceStable(imgs, func(i, j int) bool {
		return size(imgs[i]) > size(imgs[j])
	})
	return imgs
}

func largestImage(r field.Raw) interface{} {
	if imgs, ok := bySize(r).([]string); ok {
		return imgs[0]
	}
	return nil
}
