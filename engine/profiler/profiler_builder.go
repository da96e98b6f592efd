package profiler

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pano/engine/panorama"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often a Sample is reported. Values <= 0 are ignored.
//
// Parameters:
//   - d: the report interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithSession adds the session's streaming counters to every report.
//
// Parameters:
//   - s: the session
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithSession(s panorama.Session) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.session = s
	}
}

// WithClock replaces time.Now.
//
// Parameters:
//   - now: the clock
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}
