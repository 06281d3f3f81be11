package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := New("amazon")
	c.PageFetched("ok")
	c.PageFetched("ok")
	c.PageFetched("failed")
	c.ItemEmitted()
	c.ItemRejected()
	c.Challenge("image")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.pages.WithLabelValues("amazon", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pages.WithLabelValues("amazon", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.items.WithLabelValues("amazon")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rejected.WithLabelValues("amazon")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.challenges.WithLabelValues("amazon", "image")))
}

func TestHandler(t *testing.T) {
	c := New("flipkart")
	c.ItemEmitted()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `shopcrawler_items_emitted_total{site="flipkart"} 1`), body)
}
