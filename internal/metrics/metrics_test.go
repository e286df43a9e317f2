package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gonzalop/ftpsync"
	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestCollector(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	c := New(reg)

	entry := ftpsync.Entry{Name: "a.csv", Size: 10, ModifiedDate: "Jan 01 12:00"}

	c.RecordListing("/pub", 3, true, 20*time.Millisecond)
	c.RecordListing("/nope", 0, false, time.Millisecond)
	c.RecordTransfer(entry, 10, true, time.Second)
	c.RecordTransfer(entry, 4, false, time.Second)
	c.RecordSkip(entry, ftpsync.SkipDownloaded)
	c.RecordSkip(entry, ftpsync.SkipDownloaded)
	c.RecordSkip(entry, ftpsync.SkipFiltered)

	out := scrape(t, reg)
	for _, want := range []string{
		`ftpsync_listings_total{status="success"} 1`,
		`ftpsync_listings_total{status="error"} 1`,
		`ftpsync_listing_entries_total 3`,
		`ftpsync_listing_duration_seconds_count 2`,
		`ftpsync_transfers_total{status="success"} 1`,
		`ftpsync_transfers_total{status="error"} 1`,
		`ftpsync_bytes_downloaded_total 14`,
		`ftpsync_transfer_duration_seconds_count 2`,
		`ftpsync_skips_total{reason="downloaded"} 2`,
		`ftpsync_skips_total{reason="filtered"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic registering twice")
		}
	}()
	New(reg)
}
