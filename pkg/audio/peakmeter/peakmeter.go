// Package peakmeter throttles a stream of per-block peak amplitudes down
// to a rate a UI or telemetry consumer can absorb.
package peakmeter

import (
	"context"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// DefaultThrottle is the minimum interval between two forwarded peaks.
const DefaultThrottle = 10 * time.Millisecond

// Sink receives the forwarded peaks.
type Sink func(peak int16)

// Meter forwards at most one peak per throttle interval to the sink and
// discards the rest. This is decimation, not averaging: the forwarded value
// is whichever peak happens to arrive on or after the throttle boundary.
type Meter struct {
	sink     Sink
	throttle time.Duration

	now          func() time.Time
	lastEmit     time.Time
	emittedFirst bool
}

func New(sink Sink) *Meter {
	return NewWithThrottle(sink, DefaultThrottle)
}

func NewWithThrottle(sink Sink, throttle time.Duration) *Meter {
	return &Meter{
		sink:     sink,
		throttle: throttle,
		now:      time.Now,
	}
}

// Run consumes peaks until the channel is closed. Arrival order is
// preserved; the forwarded values are a strict subsequence of the input.
func (m *Meter) Run(ctx context.Context, peaks <-chan int16) {
	logger.Debugf(ctx, "peakmeter.Run")
	defer logger.Debugf(ctx, "/peakmeter.Run")

	for peak := range peaks {
		m.consider(m.now(), peak)
	}
}

// consider forwards the peak if the throttle window has elapsed (the very
// first peak is always forwarded) and reports whether it did.
func (m *Meter) consider(now time.Time, peak int16) bool {
	if m.emittedFirst && now.Sub(m.lastEmit) < m.throttle {
		return false
	}
	m.emittedFirst = true
	m.lastEmit = now
	m.sink(peak)
	return true
}
