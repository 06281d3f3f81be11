package amazon

import (
	"regexp"
	"strings"

	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/selector"
)

// byline reads "Visit the Puma Store" or "Brand: Puma".
var byline = regexp.MustCompile(`(?i)^(?:visit the\s+(.+?)\s+store|brand:\s*(.+))$`)

func brand(r field.Raw) interface{} {
	s := selector.Clean(r.First())
	if s == "" {
		return nil
	}
	if m := byline.FindStringSubmatch(s); m != nil {
		if m[1] != "" {
			return m[1]
		}
		return strings.TrimSpace(m[2])
	}
	return s
}
