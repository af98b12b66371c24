// Package metrics exposes Prometheus instrumentation for the configurator.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ResolveTotal counts configuration resolutions by outcome (valid/invalid).
	ResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "configurator",
		Name:      "resolve_total",
		Help:      "Configuration resolutions processed, by outcome.",
	}, []string{"outcome"})

	// CommitTotal counts commit attempts by outcome (committed/blocked/failed).
	CommitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "configurator",
		Name:      "commit_total",
		Help:      "Commit attempts processed, by outcome.",
	}, []string{"outcome"})

	// CatalogBuildErrors counts catalogs rejected as invalid at load time.
	CatalogBuildErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "configurator",
		Name:      "catalog_build_errors_total",
		Help:      "Stored configurations that failed catalog validation.",
	})
)

// Handler returns the /metrics endpoint handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
