package engine

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dreamerjackson/shopcrawler/challenge"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/selector"
)

// CaptchaForm is where a solved captcha answer is typed and submitted.
type CaptchaForm struct {
	Input  string
	Submit string
}

// Site is everything that differs between shops. The crawl loop and field
// pipeline are shared; a site only contributes data.
type Site struct {
	Name string
	// DisplayName is written to website_name.
	DisplayName string
	BaseURL     string
	// SearchURL holds {query} and usually {page}. Without {page} the Next
	// locators are followed instead.
	SearchURL    string
	Cards        []selector.Locator
	Next         []selector.Locator
	ItemsPerPage int
	CardFields   []field.Spec
	// DetailFields are read from the product page, which is only fetched
	// when one of them is wanted and still unknown after the card.
	DetailFields []field.Spec
	KeepParams   []string
	Markers      challenge.Markers
	Captcha      CaptchaForm
}

func (s *Site) Check() error {
	if s.Name == "" {
		return errors.New("site name is empty")
	}
	if !strings.Contains(s.SearchURL, "{query}") {
		return fmt.Errorf("site %s: search url has no {query} placeholder", s.Name)
	}
	if !strings.Contains(s.SearchURL, "{page}") && len(s.Next) == 0 {
		return fmt.Errorf("site %s: search url has no {page} and no next locators", s.Name)
	}
	if len(s.Cards) == 0 {
		return fmt.Errorf("site %s: no card locators", s.Name)
	}
	if _, err := url.Parse(s.BaseURL); err != nil {
		return fmt.Errorf("site %s: %w", s.Name, err)
	}
	var hasURL bool
	for _, f := range s.CardFields {
		if f.Name == field.URL {
			hasURL = true
		}
	}
	if !hasURL {
		return fmt.Errorf("site %s: cards do not yield a url", s.Name)
	}
	return nil
}

func (s *Site) Specs() []field.Spec {
	specs := make([]field.Spec, 0, len(s.CardFields)+len(s.DetailFields))
	specs = append(specs, s.CardFields...)
	return append(specs, s.DetailFields...)
}

// Supported lists the fields a caller may request, in vocabulary order.
func (s *Site) Supported() []field.Name {
	has := map[field.Name]bool{field.WebsiteName: true}
	for _, f := range s.Specs() {
		has[f.Name] = true
	}
	var out []field.Name
	for _, n := range field.All {
		if has[n] {
			out = append(out, n)
		}
	}
	return out
}

func (s *Site) PageURL(query string, page int) string {
	r := strings.NewReplacer(
		"{query}", url.QueryEscape(query),
		"{page}", strconv.Itoa(page))
	return r.Replace(s.SearchURL)
}

// Paged reports whether page n can be addressed directly.
func (s *Site) Paged() bool {
	return strings.Contains(s.SearchURL, "{page}")
}

// PageBudget derives a page limit from an item limit.
func (s *Site) PageBudget(maxItems int) int {
	per := s.ItemsPerPage
	if per <= 0 {
		per = 20
	}
	n := maxItems/per + 1
	if n > 10 {
		n = 10
	}
	return n
}

// Override is the per-site configuration a deployment may change.
type Override struct {
	SearchURL string            `json:"searchURL"`
	Relevance string            `json:"relevance"`
	Scripts   map[string]string `json:"scripts"`
}

// Apply returns a copy of s with o applied. Scripts become derived card
// fields evaluated after every selector-based field.
func (s *Site) Apply(o Override) (*Site, error) {
	c := *s
	c.CardFields = append([]field.Spec(nil), s.CardFields...)
	c.DetailFields = append([]field.Spec(nil), s.DetailFields...)

	if o.SearchURL != "" {
		c.SearchURL = o.SearchURL
	}

	if o.Relevance != "" {
		r, err := field.ParseRelevance(o.Relevance)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", s.Name, err)
		}
		for _, specs := range [][]field.Spec{c.CardFields, c.DetailFields} {
			for i := range specs {
				if specs[i].Name == field.Title {
					specs[i].Relevance = r
				}
			}
		}
	}

	names := make([]string, 0, len(o.Scripts))
	for n := range o.Scripts {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		name, ok := field.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("site %s: script for unknown field %q", s.Name, n)
		}
		spec := field.Spec{
			Name:     name,
			Locators: []selector.Locator{selector.Derived()},
			Derive:   field.Script(o.Scripts[n]),
		}
		c.CardFields = replaceSpec(c.CardFields, spec)
		c.DetailFields = removeSpec(c.DetailFields, name)
	}

	return &c, c.Check()
}

func replaceSpec(specs []field.Spec, s field.Spec) []field.Spec {
	out := removeSpec(specs, s.Name)
	return append(out, s)
}

func removeSpec(specs []field.Spec, n field.Name) []field.Spec {
	out := specs[:0:0]
	for _, s := range specs {
		if s.Name != n {
			out = append(out, s)
		}
	}
	return out
}
