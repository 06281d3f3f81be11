package field

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/dreamerjackson/shopcrawler/retry"
	"github.com/dreamerjackson/shopcrawler/selector"
	"go.uber.org/zap"
)

type options struct {
	logger     *zap.Logger
	policy     retry.Policy
	limits     Limits
	keepParams []string
	keyword    string
}

var defaultOptions = options{
	logger: zap.NewNop(),
	policy: retry.FieldPolicy(),
	limits: DefaultLimits,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithRetry(p retry.Policy) Option {
	return func(opts *options) {
		opts.policy = p
	}
}

func WithLimits(l Limits) Option {
	return func(opts *options) {
		opts.limits = l
	}
}

// WithKeepParams lists query parameters that are part of a product identity.
func WithKeepParams(params ...string) Option {
	return func(opts *options) {
		opts.keepParams = params
	}
}

func WithKeyword(keyword string) Option {
	return func(opts *options) {
		opts.keyword = keyword
	}
}

// Pipeline extracts the requested fields, plus whatever they depend on and
// every required field, from cards and detail pages.
type Pipeline struct {
	options
	env       *Env
	requested []Name
	wanted    map[Name]bool
}

func NewPipeline(base string, requested []Name, specs []Spec, opts ...Option) (*Pipeline, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	b, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !b.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", base)
	}

	p := &Pipeline{
		options:   options,
		requested: requested,
		wanted:    make(map[Name]bool),
		env: &Env{
			Base:       b,
			KeepParams: options.keepParams,
			Keyword:    options.keyword,
			Limits:     options.limits,
		},
	}
	p.policy.Logger = p.logger

	for _, n := range Always {
		p.wanted[n] = true
	}
	for _, n := range requested {
		p.wanted[n] = true
	}
	for _, s := range specs {
		if s.Required {
			p.wanted[s.Name] = true
		}
	}

	// dependencies may themselves depend on other fields
	for changed := true; changed; {
		changed = false
		for _, s := range specs {
			if !p.wanted[s.Name] {
				continue
			}
			for _, d := range s.DependsOn {
				if !p.wanted[d] {
					p.wanted[d] = true
					changed = true
				}
			}
		}
	}

	return p, nil
}

func (p *Pipeline) Wants(n Name) bool {
	return p.wanted[n]
}

func (p *Pipeline) Requested() []Name {
	return p.requested
}

func (p *Pipeline) Env() *Env {
	return p.env
}

// Extract fills every wanted field of specs that is not already known and
// returns the merged record. A required field that stays unresolved, or a
// title rejected by its relevance policy, yields *ItemRejected.
func (p *Pipeline) Extract(ctx context.Context, scope *goquery.Selection, specs []Spec, known Record) (Record, error) {
	rec := known.Clone()
	if rec == nil {
		rec = make(Record)
	}

	for _, s := range specs {
		if !p.wanted[s.Name] {
			continue
		}
		if v, ok := rec[s.Name]; ok && !retry.IsEmpty(v) {
			continue
		}

		s := s
		v := retry.Run(ctx, p.policy, nil, func(context.Context) (interface{}, error) {
			return p.value(scope, s, rec)
		})

		if retry.IsEmpty(v) {
			if s.Required {
				return nil, &ItemRejected{Field: s.Name, Reason: "missing " + string(s.Name)}
			}
			rec[s.Name] = nil
			continue
		}

		if s.Relevance != RelevanceNone {
			str, _ := v.(string)
			if !s.Relevance.Match(str, p.env.Keyword) {
				return nil, &ItemRejected{Field: s.Name, Reason: "does not match search keyword: " + p.env.Keyword}
			}
		}

		rec[s.Name] = v
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return rec, nil
}

func (p *Pipeline) value(scope *goquery.Selection, s Spec, rec Record) (interface{}, error) {
	cleanup := s.Cleanup
	if cleanup == nil {
		cleanup = Text
	}

	// A locator whose content cleans to nothing, e.g. "Contact Supplier" as
	// a price, does not stop the fallback chain.
	for rest := s.Locators; len(rest) > 0; {
		m, ok := selector.Resolve(scope, rest)
		if !ok {
			break
		}
		if v := cleanup(Raw{Match: m, Env: p.env}); !retry.IsEmpty(v) {
			return v, nil
		}
		rest = after(rest, m.Locator)
	}

	if s.Derive != nil && (s.derived() || len(s.Locators) == 0) {
		v, err := s.Derive(scope, rec, p.env)
		if err != nil {
			p.logger.Debug("derive failed", zap.String("field", string(s.Name)), zap.Error(err))
			return nil, err
		}
		return v, nil
	}

	return nil, nil
}

// after returns the locators following l.
func after(locators []selector.Locator, l selector.Locator) []selector.Locator {
	for i := range locators {
		if locators[i] == l {
			return locators[i+1:]
		}
	}
	return nil
}

// IsRejected reports whether err is an item rejection.
func IsRejected(err error) (*ItemRejected, bool) {
	var r *ItemRejected
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
