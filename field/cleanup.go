package field

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dreamerjackson/shopcrawler/selector"
)

// Text keeps the first value as-is.
func Text(r Raw) interface{} {
	if s := selector.Clean(r.First()); s != "" {
		return s
	}
	return nil
}

// Paragraph joins every matched value and caps it at Limits.MaxDescription runes.
func Paragraph(r Raw) interface{} {
	s := selector.Clean(strings.Join(r.Values, " "))
	if s == "" {
		return nil
	}
	max := r.Env.Limits.MaxDescription
	if rs := []rune(s); max > 0 && len(rs) > max {
		s = string(rs[:max])
	}
	return s
}

func Amount(r Raw) interface{} {
	for _, v := range r.Values {
		if f, ok := ParseAmount(v); ok {
			return f
		}
	}
	return nil
}

func CurrencyOf(r Raw) interface{} {
	for _, v := range r.Values {
		if c, _, ok := SplitPrice(v); ok && c != "" {
			return c
		}
	}
	return nil
}

// Link normalizes the first value into an identity URL.
func Link(r Raw) interface{} {
	for _, v := range r.Values {
		if u, err := Normalize(v, r.Env.Base, r.Env.KeepParams...); err == nil {
			return u
		}
	}
	return nil
}

var placeholderHints = []string{"placeholder", "noimage", "no-image", "blank.gif", ".svg", "data:image", "default"}

func assetURLs(r Raw, max int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range r.Values {
		low := strings.ToLower(v)
		skip := false
		for _, h := range placeholderHints {
			if strings.Contains(low, h) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		u, err := Absolute(v, r.Env.Base)
		if err != nil || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func ImageLink(r Raw) interface{} {
	if us := assetURLs(r, 1); len(us) > 0 {
		return us[0]
	}
	return nil
}

func ImageList(r Raw) interface{} {
	if us := assetURLs(r, r.Env.Limits.MaxImages); len(us) > 0 {
		return us
	}
	return nil
}

func VideoList(r Raw) interface{} {
	if us := assetURLs(r, r.Env.Limits.MaxVideos); len(us) > 0 {
		return us
	}
	return nil
}

var (
	outOfRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:out of|/)\s*5`)
	decimalRe  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	parenRe    = regexp.MustCompile(`\(([\d,]+)\)`)
	reviewRe   = regexp.MustCompile(`(?i)([\d,]+)\s*(?:global\s+)?(?:ratings?|reviews?)`)
	minOrderRe = regexp.MustCompile(`(\d[\d,]*)\s*([A-Za-z]+(?:\([A-Za-z]+\))?)`)
)

// ParseFeedback reads a rating out of five and a review count from free text.
func ParseFeedback(text string) (Rating, bool) {
	var fb Rating

	if m := outOfRe.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			fb.Rating = &f
		}
	} else {
		for _, m := range decimalRe.FindAllString(text, -1) {
			if f, err := strconv.ParseFloat(m, 64); err == nil && f <= 5 {
				fb.Rating = &f
				break
			}
		}
	}

	var count string
	if m := parenRe.FindStringSubmatch(text); m != nil {
		count = m[1]
	} else if m := reviewRe.FindStringSubmatch(text); m != nil {
		count = m[1]
	}
	if count != "" {
		if n, err := strconv.Atoi(strings.ReplaceAll(count, ",", "")); err == nil {
			fb.Review = &n
		}
	}

	return fb, fb.Rating != nil || fb.Review != nil
}

func FeedbackPair(r Raw) interface{} {
	if fb, ok := ParseFeedback(strings.Join(r.Values, " ")); ok {
		return &fb
	}
	return nil
}

// MinimumOrder keeps "<qty> <unit>", e.g. "10 Pieces".
func MinimumOrder(r Raw) interface{} {
	for _, v := range r.Values {
		if m := minOrderRe.FindStringSubmatch(v); m != nil {
			return strings.ReplaceAll(m[1], ",", "") + " " + m[2]
		}
	}
	return nil
}

type specs struct {
	lim Limits
	m   map[string]string
}

func newSpecs(lim Limits) *specs {
	return &specs{lim: lim, m: make(map[string]string)}
}

func (s *specs) full() bool {
	return s.lim.MaxSpecifications > 0 && len(s.m) >= s.lim.MaxSpecifications
}

// add reports whether more pairs are accepted.
func (s *specs) add(k, v string) bool {
	if s.full() {
		return false
	}
	k, v = selector.Clean(k), selector.Clean(v)
	k = strings.TrimSpace(strings.TrimSuffix(k, ":"))
	if k == "" || v == "" {
		return true
	}
	if s.lim.MaxSpecKey > 0 && len(k) >= s.lim.MaxSpecKey {
		return true
	}
	if s.lim.MaxSpecValue > 0 && len(v) >= s.lim.MaxSpecValue {
		return true
	}
	if _, ok := s.m[k]; !ok {
		s.m[k] = v
	}
	return !s.full()
}

func (s *specs) result() interface{} {
	if len(s.m) == 0 {
		return nil
	}
	return s.m
}

// SpecTable reads key/value pairs from table rows, definition lists and
// "key: value" list items under every matched node.
func SpecTable(r Raw) interface{} {
	if r.Nodes == nil {
		return nil
	}
	sp := newSpecs(r.Env.Limits)

	r.Nodes.Each(func(_ int, n *goquery.Selection) {
		n.Find("tr").AddSelection(n.Filter("tr")).EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.Find("th, td")
			if cells.Length() < 2 {
				return true
			}
			return sp.add(cells.Eq(0).Text(), cells.Eq(1).Text())
		})
		n.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
			return sp.add(dt.Text(), dt.NextFiltered("dd").Text())
		})
		n.Find("li").AddSelection(n.Filter("li")).EachWithBreak(func(_ int, li *goquery.Selection) bool {
			k, v, ok := strings.Cut(selector.Clean(li.Text()), ":")
			if !ok {
				return true
			}
			return sp.add(k, v)
		})
	})

	return sp.result()
}

// SpecPairs reads one pair per matched node from its key and value children.
func SpecPairs(key, value string) Cleanup {
	return func(r Raw) interface{} {
		if r.Nodes == nil {
			return nil
		}
		sp := newSpecs(r.Env.Limits)
		r.Nodes.EachWithBreak(func(_ int, n *goquery.Selection) bool {
			return sp.add(n.Find(key).First().Text(), n.Find(value).First().Text())
		})
		return sp.result()
	}
}

// JSONLinks collects key from JSON objects embedded in the matched nodes,
// as players do with <script type="text/data-video">. Capped like videos.
func JSONLinks(key string) Cleanup {
	return func(r Raw) interface{} {
		var links []string
		for _, v := range r.Values {
			var obj map[string]interface{}
			if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &obj); err != nil {
				continue
			}
			if s, ok := obj[key].(string); ok && s != "" {
				links = append(links, s)
			}
		}
		return VideoList(Raw{Match: selector.Match{Values: links}, Env: r.Env})
	}
}
