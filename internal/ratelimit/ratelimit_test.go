package ratelimit

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		bytesPerSecond int64
		expectNil      bool
	}{
		{"Valid rate", 1024, false},
		{"Zero rate (unlimited)", 0, true},
		{"Negative rate (unlimited)", -1, true},
		{"Very low rate", 1, false},
		{"High rate", 10 * 1024 * 1024, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.bytesPerSecond)
			if tt.expectNil != (limiter == nil) {
				t.Fatalf("New(%d) = %v, expectNil %v", tt.bytesPerSecond, limiter, tt.expectNil)
			}
			if limiter != nil && limiter.Rate() != tt.bytesPerSecond {
				t.Errorf("Rate() = %d, want %d", limiter.Rate(), tt.bytesPerSecond)
			}
		})
	}

	var nilLimiter *Limiter
	if nilLimiter.Rate() != 0 {
		t.Error("nil limiter should report rate 0")
	}
}

func TestChunkNeverExceedsBurst(t *testing.T) {
	if got := New(100).chunk; got != 100 {
		t.Errorf("chunk = %d, want 100", got)
	}
	if got := New(10 * 1024 * 1024).chunk; got != maxChunk {
		t.Errorf("chunk = %d, want %d", got, maxChunk)
	}
}

func TestNewReader(t *testing.T) {
	reader := bytes.NewReader([]byte("test data"))

	if limited := NewReader(reader, nil); limited != reader {
		t.Error("Expected original reader when limiter is nil")
	}
	if limited := NewReader(reader, New(1024)); limited == reader {
		t.Error("Expected wrapped reader when limiter is non-nil")
	}
}

func TestReaderDeliversAllBytes(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 100*1024)
	limited := NewReader(bytes.NewReader(data), New(1024*1024*1024))

	got, err := io.ReadAll(limited)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("read %d bytes, want %d", len(got), len(data))
	}
}

func TestReaderThrottles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}

	// The first second is covered by the burst, the rest must wait.
	const rate = 4 * 1024
	data := make([]byte, 2*rate)
	limited := NewReader(bytes.NewReader(data), New(rate))

	start := time.Now()
	if _, err := io.Copy(io.Discard, limited); err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)

	if elapsed < 800*time.Millisecond {
		t.Errorf("copy of %d bytes at %d B/s took %v, expected about 1s", len(data), rate, elapsed)
	}
	if elapsed > 3*time.Second {
		t.Errorf("copy took %v, limiter is too slow", elapsed)
	}
}
