// Package metrics exposes Prometheus metrics for the playlist core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogChannels tracks the number of channels in the aggregated catalog
	CatalogChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptv_catalog_channels",
		Help: "Number of channels in the aggregated catalog",
	})

	// Playlists tracks the number of stored playlist definitions
	Playlists = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptv_playlists",
		Help: "Number of stored playlist definitions",
	})

	// Configured tracks the configured flag (0=unconfigured, 1=configured)
	Configured = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptv_configured",
		Help: "Whether at least one playlist is configured (0 or 1)",
	})

	// AggregationRuns counts completed aggregation runs by result
	AggregationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_aggregation_runs_total",
		Help: "Total number of aggregation runs by result",
	}, []string{"result"})

	// AggregationDuration observes how long full catalog rebuilds take
	AggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iptv_aggregation_duration_seconds",
		Help:    "Duration of full catalog rebuilds",
		Buckets: prometheus.DefBuckets,
	})

	// PlaylistFetchFailures counts per-playlist source load failures
	PlaylistFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_playlist_fetch_failures_total",
		Help: "Total number of playlist source load failures",
	}, []string{"playlist"})

	// StaleCacheServed counts background reloads served from stale cache
	StaleCacheServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_stale_cache_served_total",
		Help: "Total number of playlist loads served from stale cache",
	}, []string{"playlist"})
)

// Aggregation run results.
const (
	ResultCompleted  = "completed"
	ResultSuperseded = "superseded"
)

// SetCatalogSize updates the catalog and playlist gauges
func SetCatalogSize(channels, playlists int) {
	CatalogChannels.Set(float64(channels))
	Playlists.Set(float64(playlists))
}

// SetConfigured updates the configured gauge
func SetConfigured(configured bool) {
	if configured {
		Configured.Set(1)
	} else {
		Configured.Set(0)
	}
}

// RecordAggregationRun records a finished aggregation run and its duration
func RecordAggregationRun(result string, seconds float64) {
	AggregationRuns.WithLabelValues(result).Inc()
	AggregationDuration.Observe(seconds)
}

// RecordFetchFailure increments the fetch failure counter for a playlist
func RecordFetchFailure(playlistName string) {
	PlaylistFetchFailures.WithLabelValues(playlistName).Inc()
}

// RecordStaleCacheServed increments the stale cache counter for a playlist
func RecordStaleCacheServed(playlistName string) {
	StaleCacheServed.WithLabelValues(playlistName).Inc()
}
