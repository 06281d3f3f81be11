package field

import (
	"regexp"
	"strconv"
	"strings"
)

// Longest symbols first so "US$" wins over "$".
var currencies = []string{"US$", "Rs.", "CNY", "INR", "USD", "EUR", "GBP", "$", "€", "£", "¥", "₹"}

var (
	amountRe   = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	prefixRe   = regexp.MustCompile(`^([^0-9]+)[0-9]`)
	unpricedRe = regexp.MustCompile(`(?i)contact supplier|negotiable|ask price|price on request`)
)

// SplitPrice separates the currency from the first numeric amount. For a
// range like "US$1.20-3.50" the lower bound is returned.
func SplitPrice(raw string) (currency string, amount float64, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || unpricedRe.MatchString(raw) {
		return "", 0, false
	}

	m := amountRe.FindString(raw)
	if m == "" {
		return "", 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return "", 0, false
	}

	for _, c := range currencies {
		if strings.Contains(raw, c) {
			return c, f, true
		}
	}

	if p := prefixRe.FindStringSubmatch(raw); p != nil {
		c := strings.TrimSpace(p[1])
		if c != "" && len([]rune(c)) <= 4 {
			return c, f, true
		}
	}

	return "", f, true
}

// ParseAmount is SplitPrice without the currency.
func ParseAmount(raw string) (float64, bool) {
	_, f, ok := SplitPrice(raw)
	return f, ok
}
