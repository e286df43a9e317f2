// Package metrics provides Prometheus metrics for sync runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/gonzalop/ftpsync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements ftpsync.MetricsCollector on top of Prometheus.
type Collector struct {
	listingsTotal    *prometheus.CounterVec
	listingEntries   prometheus.Counter
	listingDuration  prometheus.Histogram
	transfersTotal   *prometheus.CounterVec
	bytesDownloaded  prometheus.Counter
	transferDuration prometheus.Histogram
	skipsTotal       *prometheus.CounterVec
}

var _ ftpsync.MetricsCollector = (*Collector)(nil)

// New registers the sync metrics with reg and returns the collector.
// Registering twice with the same registry panics.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		listingsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftpsync_listings_total",
				Help: "Total number of directory listings",
			},
			[]string{"status"},
		),
		listingEntries: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ftpsync_listing_entries_total",
				Help: "Total number of parsed listing entries",
			},
		),
		listingDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ftpsync_listing_duration_seconds",
				Help:    "Directory listing duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		transfersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftpsync_transfers_total",
				Help: "Total number of file downloads",
			},
			[]string{"status"},
		),
		bytesDownloaded: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ftpsync_bytes_downloaded_total",
				Help: "Total bytes written to the download directory",
			},
		),
		transferDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ftpsync_transfer_duration_seconds",
				Help:    "File download duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 4, 8),
			},
		),
		skipsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftpsync_skips_total",
				Help: "Total number of listed files that were not downloaded",
			},
			[]string{"reason"},
		),
	}
}

// Handler returns the metrics HTTP handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordListing records a directory listing.
func (c *Collector) RecordListing(_ string, entries int, success bool, duration time.Duration) {
	c.listingsTotal.WithLabelValues(status(success)).Inc()
	c.listingEntries.Add(float64(entries))
	c.listingDuration.Observe(duration.Seconds())
}

// RecordTransfer records a download attempt.
func (c *Collector) RecordTransfer(_ ftpsync.Entry, bytes int64, success bool, duration time.Duration) {
	c.transfersTotal.WithLabelValues(status(success)).Inc()
	c.bytesDownloaded.Add(float64(bytes))
	c.transferDuration.Observe(duration.Seconds())
}

// RecordSkip records a file that was not downloaded.
func (c *Collector) RecordSkip(_ ftpsync.Entry, reason string) {
	c.skipsTotal.WithLabelValues(reason).Inc()
}
