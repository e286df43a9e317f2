// Package ratelimit throttles data connections to a bytes-per-second
// budget.
package ratelimit

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// maxChunk bounds a single read so waits stay short at low rates.
const maxChunk = 32 * 1024

// Limiter is a token bucket holding one second worth of bytes.
// A nil *Limiter means unlimited. It is safe for concurrent use, so one
// Limiter can cap the combined speed of several connections.
type Limiter struct {
	lim   *rate.Limiter
	chunk int
}

// New returns a limiter for bytesPerSecond, or nil when bytesPerSecond is
// zero or negative.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	burst := int(min(bytesPerSecond, int64(^uint(0)>>1)))
	return &Limiter{
		lim:   rate.NewLimiter(rate.Limit(bytesPerSecond), burst),
		chunk: min(burst, maxChunk),
	}
}

// Rate returns the configured bytes per second.
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return int64(l.lim.Limit())
}

// wait blocks until n bytes may pass. n never exceeds the burst.
func (l *Limiter) wait(n int) error {
	return l.lim.WaitN(context.Background(), n)
}

type reader struct {
	r       io.Reader
	limiter *Limiter
}

// NewReader wraps r so reads obey limiter. A nil limiter returns r as is.
func NewReader(r io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &reader{r: r, limiter: limiter}
}

// Read reads at most one chunk and then pays for the bytes it got, so
// a short read is never charged for the full buffer.
func (r *reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) > r.limiter.chunk {
		p = p[:r.limiter.chunk]
	}

	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.limiter.wait(n); werr != nil && err == nil {
			err = werr
		}
	}
	return n, err
}
