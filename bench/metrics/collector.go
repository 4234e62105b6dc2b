// Package metrics collects runtime and timing measurements for the benchmark and
// writes the result tables.
package metrics

import (
	"runtime"
	"runtime/debug"
	"time"
)

// Snapshot is a point-in-time view of the Go runtime.
type Snapshot struct {
	TS           time.Time
	HeapAlloc    uint64
	HeapSys      uint64
	TotalAlloc   uint64
	NumGC        uint32
	NumGoroutine int
}

// Take reads the current runtime statistics.
func Take() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Snapshot{
		TS:           time.Now(),
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		TotalAlloc:   m.TotalAlloc,
		NumGC:        m.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
	}
}

// GC forces a collection and returns freed memory to the OS, so the next
// configuration starts from a comparable heap.
func GC() {
	runtime.GC()
	debug.FreeOSMemory()
}

// Delta is the runtime activity between two snapshots.
type Delta struct {
	Elapsed    time.Duration
	AllocBytes uint64
	GCs        uint32
}

// AllocRate returns allocated bytes per second.
func (d Delta) AllocRate() float64 {
	if d.Elapsed <= 0 {
		return 0
	}
	return float64(d.AllocBytes) / d.Elapsed.Seconds()
}

// Diff computes the activity from before to after.
func Diff(before, after Snapshot) Delta {
	d := Delta{Elapsed: after.TS.Sub(before.TS)}
	if after.TotalAlloc >= before.TotalAlloc {
		d.AllocBytes = after.TotalAlloc - before.TotalAlloc
	}
	if after.NumGC >= before.NumGC {
		d.GCs = after.NumGC - before.NumGC
	}
	return d
}

// HeapAllocMB returns the live heap in MiB.
func (s Snapshot) HeapAllocMB() float64 {
	return float64(s.HeapAlloc) / 1024 / 1024
}
