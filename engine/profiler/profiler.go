package profiler

import (
	"log"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-html5/engine/overlay"
	"github.com/dustin/go-humanize"
)

// StatsSource reports cumulative overlay upload counters. overlay.RenderBridge implements it.
type StatsSource interface {
	Stats() overlay.UploadStats
}

// Report is one interval of measurements.
type Report struct {
	FPS        float64
	HeapBytes  uint64
	AllocRate  float64 // bytes per second
	GCCount    uint32
	LastPause  time.Duration
	MaxPause   time.Duration
	SysBytes   uint64
	Uploads    uint64 // overlay uploads during the interval
	UploadRate float64 // overlay upload bytes per second
	Failures   uint64 // overlay upload failures during the interval
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	source    StatsSource
	lastStats overlay.UploadStats
	last      Report
	silent    bool
}

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often a report is produced. Values <= 0 keep the default of 1 second.
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

// WithUploadStats adds overlay upload counters to each report.
//
// Parameters:
//   - source: the upload counter source, usually the overlay render bridge
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithUploadStats(source StatsSource) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.source = source
	}
}

// WithSilent disables the log line; reports are still available from Last.
func WithSilent(silent bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.silent = silent
	}
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		frameCount:     0,
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
	for _, opt := range options {
		opt(p)
	}
	if p.source != nil {
		p.lastStats = p.source.Stats()
	}
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory
// and, with an upload stats source, overlay upload count and throughput.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	return p.tickAt(time.Now())
}

func (p *Profiler) tickAt(currentTime time.Time) bool {
	p.frameCount++
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	seconds := elapsed.Seconds()
	r := Report{FPS: float64(p.frameCount) / seconds}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	r.HeapBytes = p.memStats.Alloc
	r.SysBytes = p.memStats.Sys
	r.AllocRate = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / seconds

	// Calculate GC pause stats (last pause and max recent pause)
	gcCount := p.memStats.NumGC
	r.GCCount = gcCount
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		r.LastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])

		// Find max pause since last tick
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := time.Duration(p.memStats.PauseNs[i%256]); pause > r.MaxPause {
				r.MaxPause = pause
			}
		}
	}

	if p.source != nil {
		s := p.source.Stats()
		r.Uploads = s.Uploads - p.lastStats.Uploads
		r.Failures = s.Failures - p.lastStats.Failures
		r.UploadRate = float64(s.Bytes-p.lastStats.Bytes) / seconds
		p.lastStats = s
	}

	if !p.silent {
		log.Print(r.String(p.source != nil))
	}

	p.last = r
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recent report.
func (p *Profiler) Last() Report {
	return p.last
}

// String formats the report as a log line. withUploads adds the overlay counters.
func (r Report) String(withUploads bool) string {
	line := "[Profiler] FPS: " + humanize.FtoaWithDigits(r.FPS, 2) +
		" | Heap: " + humanize.IBytes(r.HeapBytes) +
		" | Alloc Rate: " + humanize.IBytes(uint64(r.AllocRate)) + "/s" +
		" | GC: " + humanize.Comma(int64(r.GCCount)) +
		" (last: " + r.LastPause.Round(time.Microsecond).String() +
		", max: " + r.MaxPause.Round(time.Microsecond).String() + ")" +
		" | Sys: " + humanize.IBytes(r.SysBytes)
	if withUploads {
		line += " | Uploads: " + humanize.Comma(int64(r.Uploads)) +
			" (" + humanize.IBytes(uint64(r.UploadRate)) + "/s, failed " + humanize.Comma(int64(r.Failures)) + ")"
	}
	return line
}
