package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ic-timon/nnbench/bench/metrics"
)

// Timer times repeated calls of one configuration.
type Timer struct {
	Reps int
	Log  zerolog.Logger
	Rec  *metrics.Recorder
}

// Time calls fn once to warm up, then Reps more times, and returns the timing
// statistics. A failure or panic in any call, or cancellation of ctx, yields nil;
// failures are logged and counted.
func (t *Timer) Time(ctx context.Context, name string, fn func() error) *metrics.LatencyStats {
	if err := call(fn); err != nil {
		t.fail(name, "warm-up", err)
		return nil
	}
	durations := make([]time.Duration, 0, t.Reps)
	for i := 0; i < t.Reps; i++ {
		if err := ctx.Err(); err != nil {
			t.Log.Warn().Str("method", name).Int("completed", i).Msg("timing cancelled")
			return nil
		}
		start := time.Now()
		err := call(fn)
		d := time.Since(start)
		if err != nil {
			t.fail(name, "timed call", err)
			return nil
		}
		durations = append(durations, d)
		if t.Rec != nil {
			t.Rec.Observe(name, d)
		}
	}
	stats := metrics.LatencyStatsFromDurations(durations)
	t.Log.Debug().Str("method", name).
		Float64("mean_s", stats.Mean).
		Float64("std_s", stats.Std).
		Float64("p50_s", stats.P50).
		Float64("p99_s", stats.P99).
		Msg("timed")
	return &stats
}

func (t *Timer) fail(name, phase string, err error) {
	t.Log.Error().Err(err).Str("method", name).Str("phase", phase).Msg("configuration failed")
	if t.Rec != nil {
		t.Rec.Fail(name)
	}
}

// call runs fn, converting a panic into an error.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// mean extracts the mean for a table cell; nil stays nil.
func mean(s *metrics.LatencyStats) *float64 {
	if s == nil {
		return nil
	}
	return metrics.Value(s.Mean)
}
