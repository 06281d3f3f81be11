package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "shopcrawler"

// Collector counts crawl events for one process. Labels carry the site so a
// long-lived exporter can serve several runs.
type Collector struct {
	site     string
	registry *prometheus.Registry

	pages      *prometheus.CounterVec
	items      *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	challenges *prometheus.CounterVec
}

func New(site string) *Collector {
	c := &Collector{
		site:     site,
		registry: prometheus.NewRegistry(),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Listing and detail pages fetched, by outcome.",
		}, []string{"site", "status"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_emitted_total",
			Help:      "Records emitted to the controller.",
		}, []string{"site"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_rejected_total",
			Help:      "Cards dropped for a missing required field.",
		}, []string{"site"}),
		challenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_total",
			Help:      "Anti-bot challenges that suspended a run.",
		}, []string{"site", "kind"}),
	}
	c.registry.MustRegister(c.pages, c.items, c.rejected, c.challenges)

	return c
}

func (c *Collector) PageFetched(status string) {
	c.pages.WithLabelValues(c.site, status).Inc()
}

func (c *Collector) ItemEmitted() {
	c.items.WithLabelValues(c.site).Inc()
}

func (c *Collector) ItemRejected() {
	c.rejected.WithLabelValues(c.site).Inc()
}

func (c *Collector) Challenge(kind string) {
	c.challenges.WithLabelValues(c.site, kind).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("metrics server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			logger.Error("metrics shutdown", zap.Error(err))
		}
	}()
}
