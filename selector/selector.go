// Package selector resolves an ordered list of candidate locators against a
// parsed document. The first locator that yields content wins.
package selector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Locator describes one place a value may live on a page.
type Locator struct {
	// CSS selector. Empty for derived locators.
	Selector string
	// Attribute to read from matched nodes. Empty means node text.
	Attr string
	// Derived locators are computed from other fields and are never
	// resolved against the document.
	Derived bool
}

func CSS(sel string) Locator {
	return Locator{Selector: sel}
}

func Attr(sel, attr string) Locator {
	return Locator{Selector: sel, Attr: attr}
}

func Derived() Locator {
	return Locator{Derived: true}
}

// List builds text locators from selectors, keeping their order.
func List(sels ...string) []Locator {
	ls := make([]Locator, 0, len(sels))
	for _, s := range sels {
		ls = append(ls, CSS(s))
	}
	return ls
}

func (l Locator) String() string {
	switch {
	case l.Derived:
		return "derived"
	case l.Attr != "":
		return l.Selector + "@" + l.Attr
	default:
		return l.Selector
	}
}

// Match is the winning locator and the nodes that carried content,
// in document order.
type Match struct {
	Locator Locator
	Nodes   *goquery.Selection
	Values  []string
}

// First returns the first value of the match.
func (m Match) First() string {
	if len(m.Values) == 0 {
		return ""
	}
	return m.Values[0]
}

// Resolve tries locators strictly in order and returns the first one that
// matches at least one node with non-empty content. It never fails; the
// boolean reports whether anything matched.
func Resolve(root *goquery.Selection, locators []Locator) (Match, bool) {
	if root == nil {
		return Match{}, false
	}

	for _, l := range locators {
		if l.Derived || l.Selector == "" {
			continue
		}

		var (
			values []string
			nodes  []*goquery.Selection
		)

		root.Find(l.Selector).Each(func(_ int, s *goquery.Selection) {
			if v := Read(s, l.Attr); v != "" {
				values = append(values, v)
				nodes = append(nodes, s)
			}
		})

		if len(values) == 0 {
			continue
		}

		sel := nodes[0]
		for _, n := range nodes[1:] {
			sel = sel.AddSelection(n)
		}

		return Match{Locator: l, Nodes: sel, Values: values}, true
	}

	return Match{}, false
}

// Read returns the trimmed attribute value, or the collapsed text when attr
// is empty.
func Read(s *goquery.Selection, attr string) string {
	if attr == "" {
		return Clean(s.Text())
	}
	v, _ := s.Attr(attr)
	return strings.TrimSpace(v)
}

// Clean collapses runs of whitespace into single spaces.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
