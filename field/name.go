package field

import (
	"fmt"
	"strings"
)

// Name is one of the fixed output fields a caller may request.
type Name string

const (
	URL                 Name = "url"
	Title               Name = "title"
	Currency            Name = "currency"
	ExactPrice          Name = "exact_price"
	Description         Name = "description"
	MinOrder            Name = "min_order"
	Supplier            Name = "supplier"
	Origin              Name = "origin"
	Feedback            Name = "feedback"
	ImageURL            Name = "image_url"
	Images              Name = "images"
	Videos              Name = "videos"
	Specifications      Name = "specifications"
	WebsiteName         Name = "website_name"
	DiscountInformation Name = "discount_information"
	BrandName           Name = "brand_name"
)

var All = []Name{
	URL, Title, Currency, ExactPrice, Description, MinOrder, Supplier, Origin,
	Feedback, ImageURL, Images, Videos, Specifications, WebsiteName,
	DiscountInformation, BrandName,
}

// Always is projected onto every record regardless of what was asked for.
var Always = []Name{URL, WebsiteName}

var aliases = map[string]Name{
	"price":     ExactPrice,
	"seller":    Supplier,
	"rating":    Feedback,
	"reviews":   Feedback,
	"specs":     Specifications,
	"brand":     BrandName,
	"discount":  DiscountInformation,
	"image":     ImageURL,
	"video_url": Videos,
	"video":     Videos,
	"moq":       MinOrder,
}

func Names(ns []Name) []string {
	ss := make([]string, 0, len(ns))
	for _, n := range ns {
		ss = append(ss, string(n))
	}
	return ss
}

// Lookup resolves a field name or alias.
func Lookup(s string) (Name, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if a, ok := aliases[s]; ok {
		return a, true
	}
	for _, n := range All {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

// Parse turns a comma-separated list into field names drawn from supported.
// url and website_name always come first. An empty list selects every
// supported field. Unknown names are reported together.
func Parse(list string, supported []Name) ([]Name, error) {
	allowed := make(map[Name]bool, len(supported))
	for _, n := range supported {
		allowed[n] = true
	}

	var (
		requested []Name
		invalid   []string
	)
	for _, raw := range strings.Split(list, ",") {
		s := strings.ToLower(strings.TrimSpace(raw))
		if s == "" {
			continue
		}
		n := Name(s)
		if a, ok := aliases[s]; ok {
			n = a
		}
		if !allowed[n] {
			invalid = append(invalid, strings.TrimSpace(raw))
			continue
		}
		requested = append(requested, n)
	}

	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid fields: %s. Supported fields: %s",
			strings.Join(invalid, ", "), strings.Join(Names(supported), ", "))
	}

	if len(requested) == 0 {
		requested = supported
	}

	out := make([]Name, 0, len(requested)+len(Always))
	seen := make(map[Name]bool)
	for _, n := range append(append([]Name{}, Always...), requested...) {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}

	return out, nil
}
