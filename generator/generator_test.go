package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDbyIP(t *testing.T) {
	assert.Equal(t, uint32(0xC0A80001), IDbyIP("192.168.0.1"))
	assert.Equal(t, uint32(0), IDbyIP("not-an-ip"))
}

func TestSessionID(t *testing.T) {
	g, err := New("10.0.3.7")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.SessionID("amazon")
		require.True(t, strings.HasPrefix(id, "amazon_"))
		require.False(t, seen[id], id)
		seen[id] = true
	}

	assert.True(t, strings.HasPrefix(SessionID("flipkart"), "flipkart_"))
}
