package ftpsync

import "time"

// Skip reasons passed to MetricsCollector.RecordSkip.
const (
	SkipFiltered   = "filtered"
	SkipDownloaded = "downloaded"
)

// MetricsCollector is an optional interface for collecting sync metrics.
// Implementations can forward them to Prometheus, StatsD, etc.
//
// Methods are called synchronously from the Syncer and should return
// quickly. The Syncer checks for a nil collector before calling them.
type MetricsCollector interface {
	// RecordListing records a LIST request for path.
	// entries is the number of parsed entries (zero on failure).
	RecordListing(path string, entries int, success bool, duration time.Duration)

	// RecordTransfer records a download attempt.
	// bytes is the number of bytes written locally, even on failure.
	RecordTransfer(entry Entry, bytes int64, success bool, duration time.Duration)

	// RecordSkip records an entry that was not downloaded and why
	// (SkipFiltered or SkipDownloaded).
	RecordSkip(entry Entry, reason string)
}
