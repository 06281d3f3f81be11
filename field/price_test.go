package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPrice(t *testing.T) {
	tests := []struct {
		raw      string
		currency string
		amount   float64
		ok       bool
	}{
		{raw: "₹1,299", currency: "₹", amount: 1299, ok: true},
		{raw: "US$1.20-3.50", currency: "US$", amount: 1.2, ok: true},
		{raw: "$ 45.99", currency: "$", amount: 45.99, ok: true},
		{raw: "Rs. 2,500.50", currency: "Rs.", amount: 2500.5, ok: true},
		{raw: "CHF 12", currency: "CHF", amount: 12, ok: true},
		{raw: "1,000", currency: "", amount: 1000, ok: true},
		{raw: "Contact Supplier", ok: false},
		{raw: "Negotiable", ok: false},
		{raw: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, a, ok := SplitPrice(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.currency, c)
			assert.InDelta(t, tt.amount, a, 0.0001)
		})
	}
}

func TestRelevance(t *testing.T) {
	tests := []struct {
		policy Relevance
		title  string
		want   bool
	}{
		{RelevanceNone, "Steel Water Bottle", true},
		{RelevanceExact, "Genuine LEATHER Bag for men", true},
		{RelevanceExact, "Leather wallet and bag", false},
		{RelevanceTokens, "Leather wallet", true},
		{RelevanceTokens, "Canvas bags set", true},
		{RelevanceTokens, "Steel Water Bottle", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.policy.Match(tt.title, "leather-bag"), tt.title)
	}

	_, err := ParseRelevance("strict")
	assert.Error(t, err)
	r, err := ParseRelevance("Tokens")
	assert.NoError(t, err)
	assert.Equal(t, RelevanceTokens, r)
}
