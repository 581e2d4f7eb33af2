// Package metrics provides Prometheus metrics for the filedeck core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Listing metrics
	listingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_listings_total",
			Help: "Total number of directory listings",
		},
		[]string{"origin", "status"},
	)

	listingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filedeck_listing_duration_seconds",
			Help:    "Directory listing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Search metrics
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_searches_total",
			Help: "Total number of searches by outcome",
		},
		[]string{"outcome"},
	)

	// Folder size cache metrics
	sizeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_size_cache_hits_total",
			Help: "Folder size cache hits",
		},
	)

	sizeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_size_cache_misses_total",
			Help: "Folder size cache misses",
		},
	)

	// Batch operation metrics
	copiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_copies_total",
			Help: "Total number of item copies",
		},
		[]string{"status"},
	)

	deviceTransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_device_transfers_total",
			Help: "Total number of device transfers",
		},
		[]string{"direction", "status"},
	)

	// Tag store metrics
	tagMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_tag_mutations_total",
			Help: "Total number of tag store mutations",
		},
		[]string{"op"},
	)

	taggedFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filedeck_tagged_files",
			Help: "Number of path/color tag pairs currently stored",
		},
	)

	// Selection metrics
	selectionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filedeck_selection_size",
			Help: "Number of items in the current selection",
		},
	)
)

// RecordListing records a directory listing with its outcome.
func RecordListing(origin, status string, duration time.Duration) {
	listingsTotal.WithLabelValues(origin, status).Inc()
	listingDuration.Observe(duration.Seconds())
}

// RecordSearch records a search outcome ("completed", "canceled", "failed").
func RecordSearch(outcome string) {
	searchesTotal.WithLabelValues(outcome).Inc()
}

// RecordSizeCacheHit records a folder size cache hit.
func RecordSizeCacheHit() { sizeCacheHits.Inc() }

// RecordSizeCacheMiss records a folder size cache miss.
func RecordSizeCacheMiss() { sizeCacheMisses.Inc() }

// RecordCopy records an item copy with status ("ok" or "error").
func RecordCopy(status string) {
	copiesTotal.WithLabelValues(status).Inc()
}

// RecordDeviceTransfer records a device transfer.
// Direction is "upload", "download" or "delete"; status is "ok" or "error".
func RecordDeviceTransfer(direction, status string) {
	deviceTransfersTotal.WithLabelValues(direction, status).Inc()
}

// RecordTagMutation records a tag store mutation ("add" or "remove").
func RecordTagMutation(op string) {
	tagMutationsTotal.WithLabelValues(op).Inc()
}

// SetTaggedFiles sets the current tagged-file gauge.
func SetTaggedFiles(n int) {
	taggedFiles.Set(float64(n))
}

// SetSelectionSize sets the current selection size gauge.
func SetSelectionSize(n int) {
	selectionSize.Set(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts a metrics HTTP server on addr. Blocks until the server exits.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
