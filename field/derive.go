package field

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dreamerjackson/shopcrawler/selector"
	"github.com/robertkrimen/otto"
)

// Const always yields v, e.g. the website name.
func Const(v interface{}) DeriveFunc {
	return func(*goquery.Selection, Record, *Env) (interface{}, error) {
		return v, nil
	}
}

// BrandFromTitle matches the title against known brands as whole words. With
// firstWord set, the first title word is used when no brand matches.
func BrandFromTitle(brands []string, firstWord bool) DeriveFunc {
	patterns := make([]*regexp.Regexp, 0, len(brands))
	for _, b := range brands {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(b)+`\b`))
	}

	return func(_ *goquery.Selection, known Record, _ *Env) (interface{}, error) {
		title := known.String(Title)
		if title == "" {
			return nil, nil
		}
		for i, p := range patterns {
			if p.MatchString(title) {
				return strings.Title(strings.ToLower(brands[i])), nil
			}
		}
		if firstWord {
			if ws := strings.Fields(title); len(ws) > 0 {
				return strings.Trim(ws[0], ",.-|"), nil
			}
		}
		return nil, nil
	}
}

// DiscountFromMRP formats "<pct>% off" from a list price found by mrp and the
// already extracted exact_price.
func DiscountFromMRP(mrp []selector.Locator) DeriveFunc {
	return func(scope *goquery.Selection, known Record, _ *Env) (interface{}, error) {
		price, ok := known.Float(ExactPrice)
		if !ok || price <= 0 {
			return nil, nil
		}
		m, ok := selector.Resolve(scope, mrp)
		if !ok {
			return nil, nil
		}
		list, ok := ParseAmount(m.First())
		if !ok || list <= price {
			return nil, nil
		}
		return fmt.Sprintf("%.2f%% off", (list-price)/list*100), nil
	}
}

// Script evaluates a JavaScript expression. Known scalar fields are bound as
// variables of the same name, the search keyword as `keyword`, and
// `text(sel)` / `attr(sel, name)` read the current scope.
func Script(src string) DeriveFunc {
	return func(scope *goquery.Selection, known Record, env *Env) (interface{}, error) {
		vm := otto.New()

		for k, v := range known {
			switch v.(type) {
			case string, float64, int, bool, []string:
				if err := vm.Set(string(k), v); err != nil {
					return nil, err
				}
			}
		}

		keyword := ""
		if env != nil {
			keyword = env.Keyword
		}
		if err := vm.Set("keyword", keyword); err != nil {
			return nil, err
		}
		if err := vm.Set("text", func(sel string) string {
			if scope == nil {
				return ""
			}
			return selector.Clean(scope.Find(sel).First().Text())
		}); err != nil {
			return nil, err
		}
		if err := vm.Set("attr", func(sel, name string) string {
			if scope == nil {
				return ""
			}
			v, _ := scope.Find(sel).First().Attr(name)
			return v
		}); err != nil {
			return nil, err
		}

		v, err := vm.Run(src)
		if err != nil {
			return nil, fmt.Errorf("run derive script: %w", err)
		}
		if v.IsUndefined() || v.IsNull() {
			return nil, nil
		}

		e, err := v.Export()
		if err != nil {
			return nil, err
		}
		if s, ok := e.(string); ok {
			e = strings.TrimSpace(s)
		}
		return e, nil
	}
}
