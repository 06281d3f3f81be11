package field

import (
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/dreamerjackson/shopcrawler/selector"
)

// Limits bounds composite fields so records stay small downstream.
type Limits struct {
	MaxImages         int
	MaxVideos         int
	MaxSpecifications int
	MaxSpecKey        int
	MaxSpecValue      int
	MaxDescription    int
}

var DefaultLimits = Limits{
	MaxImages:         5,
	MaxVideos:         5,
	MaxSpecifications: 50,
	MaxSpecKey:        100,
	MaxSpecValue:      500,
	MaxDescription:    500,
}

// Env is the per-run context shared by cleanups and derivations.
type Env struct {
	Base       *url.URL
	KeepParams []string
	Keyword    string
	Limits     Limits
}

// Raw is what a cleanup receives: the winning match plus run context.
type Raw struct {
	selector.Match
	Env *Env
}

// Cleanup turns a raw match into a typed value. nil means absent.
type Cleanup func(Raw) interface{}

// DeriveFunc computes a value from already known fields or the scope itself.
type DeriveFunc func(scope *goquery.Selection, known Record, env *Env) (interface{}, error)

// Spec describes how one field is found on a card or detail page.
type Spec struct {
	Name     Name
	Locators []selector.Locator
	Cleanup  Cleanup
	// Derive runs when the locator list reaches a derived locator without a
	// selector match.
	Derive    DeriveFunc
	DependsOn []Name
	Required  bool
	Relevance Relevance
}

func (s Spec) derived() bool {
	for _, l := range s.Locators {
		if l.Derived {
			return true
		}
	}
	return false
}

// ItemRejected is returned when a required field cannot be resolved or the
// title fails the relevance policy.
type ItemRejected struct {
	Field  Name
	Reason string
}

func (e *ItemRejected) Error() string {
	return fmt.Sprintf("item rejected (%s): %s", e.Field, e.Reason)
}
