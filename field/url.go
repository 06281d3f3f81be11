package field

import (
	"errors"
	"net/url"
	"strings"
)

var errEmptyURL = errors.New("empty url")

// Absolute rewrites protocol-relative and relative references against base.
func Absolute(raw string, base *url.URL) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "javascript:") || raw == "#" {
		return "", errEmptyURL
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if !u.IsAbs() && base != nil {
		u = base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return "", errors.New("relative url without base: " + raw)
	}
	return u.String(), nil
}

// Normalize produces the identity form of a product URL: absolute, lower-case
// scheme and host, no fragment, no query parameters except those in keep,
// no "ref=" tracking path segments and no trailing slash.
func Normalize(raw string, base *url.URL, keep ...string) (string, error) {
	abs, err := Absolute(raw, base)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(abs)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	kept := url.Values{}
	for _, k := range keep {
		if v, ok := q[k]; ok {
			kept[k] = v
		}
	}
	u.RawQuery = kept.Encode()

	segs := strings.Split(u.Path, "/")
	clean := segs[:0]
	for _, s := range segs {
		if strings.HasPrefix(s, "ref=") {
			continue
		}
		clean = append(clean, s)
	}
	u.Path = strings.Join(clean, "/")
	u.RawPath = ""
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
	}

	return u.String(), nil
}
