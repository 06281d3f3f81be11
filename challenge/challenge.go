// Package challenge recognises anti-bot interstitials on a fetched page.
// Detection is best effort: markers can miss new challenge pages and can
// fire on ordinary content that happens to mention them.
package challenge

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

type State int

const (
	Clear State = iota
	Challenged
)

func (s State) String() string {
	if s == Challenged {
		return "challenged"
	}
	return "clear"
}

// Kind tells the controller what the operator will have to solve.
type Kind string

const (
	KindImage       Kind = "image"
	KindInteractive Kind = "interactive"
)

type Details struct {
	Kind Kind
	// ProbeURL is the captcha image for image challenges and the
	// challenged page otherwise.
	ProbeURL string
	// Marker is the token or selector that fired.
	Marker string
}

type Markers struct {
	Text      []string
	Selectors []string
	// Images match captcha pictures; finding one makes the challenge KindImage.
	Images []string
	URL    []string
}

var DefaultMarkers = Markers{
	Text: []string{
		"captcha",
		"verify you are not a robot",
		"verify you are human",
		"please verify",
		"type the characters you see",
		"enter the characters you see below",
		"checking your browser",
		"just a moment",
		"unusual traffic",
	},
	Selectors: []string{
		"div.g-recaptcha",
		"div.h-captcha",
		".cf-turnstile",
		"form#challenge-form",
		"#challenge-running",
		`iframe[src*="captcha"]`,
		`iframe[src*="challenges.cloudflare.com"]`,
		"div.captcha-container",
		`[id*="captcha"]`,
		`div[class*="captcha"]`,
		`div[class*="verify"] [class*="slider"]`,
		"#nc_1_wrapper",
	},
	Images: []string{
		`img[src*="captcha"]`,
		`img[src*="Captcha"]`,
		`form[action*="validateCaptcha"] img`,
	},
	URL: []string{
		"captcha",
		"/errors/validatecaptcha",
		"punish",
		"/challenge",
		"sec.",
	},
}

// Merge appends extra markers to m.
func (m Markers) Merge(extra Markers) Markers {
	return Markers{
		Text:      append(append([]string{}, m.Text...), extra.Text...),
		Selectors: append(append([]string{}, m.Selectors...), extra.Selectors...),
		Images:    append(append([]string{}, m.Images...), extra.Images...),
		URL:       append(append([]string{}, m.URL...), extra.URL...),
	}
}

type options struct {
	logger  *zap.Logger
	markers Markers
}

var defaultOptions = options{
	logger:  zap.NewNop(),
	markers: DefaultMarkers,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithMarkers replaces the default marker set.
func WithMarkers(m Markers) Option {
	return func(opts *options) {
		opts.markers = m
	}
}

type Monitor struct {
	options
}

func New(opts ...Option) *Monitor {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	text := make([]string, 0, len(options.markers.Text))
	for _, t := range options.markers.Text {
		text = append(text, strings.ToLower(t))
	}
	options.markers.Text = text
	return &Monitor{options: options}
}

// Inspect checks the page URL, challenge widgets and visible text, in that
// order. It never tries to solve anything.
func (m *Monitor) Inspect(doc *goquery.Document, pageURL string) (Details, State) {
	d, ok := m.inspect(doc, pageURL)
	if !ok {
		return Details{}, Clear
	}

	if d.Kind == "" {
		d.Kind = KindInteractive
		if img, ok := m.captchaImage(doc, pageURL); ok {
			d.Kind = KindImage
			d.ProbeURL = img
		}
	}
	if d.ProbeURL == "" {
		d.ProbeURL = pageURL
	}

	m.logger.Warn("challenge detected",
		zap.String("url", pageURL),
		zap.String("kind", string(d.Kind)),
		zap.String("marker", d.Marker))

	return d, Challenged
}

func (m *Monitor) inspect(doc *goquery.Document, pageURL string) (Details, bool) {
	lowURL := strings.ToLower(pageURL)
	if u, err := url.Parse(pageURL); err == nil {
		lowURL = strings.ToLower(u.Host + u.Path)
	}
	for _, marker := range m.markers.URL {
		if marker != "" && strings.Contains(lowURL, strings.ToLower(marker)) {
			return Details{Marker: "url:" + marker}, true
		}
	}

	if doc == nil {
		return Details{}, false
	}

	if img, ok := m.captchaImage(doc, pageURL); ok {
		return Details{Kind: KindImage, ProbeURL: img, Marker: "image"}, true
	}

	for _, sel := range m.markers.Selectors {
		if doc.Find(sel).Length() > 0 {
			return Details{Marker: "dom:" + sel}, true
		}
	}

	text := visibleText(doc)
	for _, marker := range m.markers.Text {
		if marker != "" && strings.Contains(text, marker) {
			return Details{Marker: "text:" + marker}, true
		}
	}

	return Details{}, false
}

func (m *Monitor) captchaImage(doc *goquery.Document, pageURL string) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, sel := range m.markers.Images {
		src, ok := doc.Find(sel).First().Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			continue
		}
		if base, err := url.Parse(pageURL); err == nil {
			if ref, err := url.Parse(strings.TrimSpace(src)); err == nil {
				return base.ResolveReference(ref).String(), true
			}
		}
		return src, true
	}
	return "", false
}

// visibleText is the lower-cased title and body text without scripts and styles.
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.ToLower(doc.Find("title").Text() + " " + body.Text())
}
