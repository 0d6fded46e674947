package profiler

import (
	"bytes"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-html5/engine/overlay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	stats overlay.UploadStats
}

func (s *fakeSource) Stats() overlay.UploadStats { return s.stats }

func TestTickReportsInterval(t *testing.T) {
	p := NewProfiler(WithInterval(time.Second), WithSilent(true))
	start := p.lastTime

	for i := 1; i < 60; i++ {
		assert.False(t, p.tickAt(start.Add(time.Duration(i)*10*time.Millisecond)))
	}
	require.True(t, p.tickAt(start.Add(2*time.Second)))
	assert.InDelta(t, 30.0, p.Last().FPS, 1e-9)
	assert.NotZero(t, p.Last().SysBytes)

	// The frame counter restarts after a report.
	assert.False(t, p.tickAt(start.Add(2500*time.Millisecond)))
}

func TestUploadStatsDelta(t *testing.T) {
	src := &fakeSource{stats: overlay.UploadStats{Uploads: 5, Bytes: 1000}}
	p := NewProfiler(WithUploadStats(src), WithSilent(true))
	start := p.lastTime

	src.stats = overlay.UploadStats{Uploads: 15, Bytes: 5000, Failures: 1}
	require.True(t, p.tickAt(start.Add(2*time.Second)))

	r := p.Last()
	assert.Equal(t, uint64(10), r.Uploads)
	assert.Equal(t, uint64(1), r.Failures)
	assert.InDelta(t, 2000.0, r.UploadRate, 1e-9)
}

func TestTickLogs(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	p := NewProfiler(WithUploadStats(&fakeSource{}))
	require.True(t, p.tickAt(p.lastTime.Add(time.Second)))
	assert.Contains(t, buf.String(), "[Profiler] FPS: 1")
	assert.Contains(t, buf.String(), "Uploads: 0")
}

func TestReportString(t *testing.T) {
	r := Report{FPS: 59.94, HeapBytes: 3 << 20, GCCount: 1200, LastPause: 150 * time.Microsecond}
	line := r.String(false)
	assert.Contains(t, line, "FPS: 59.94")
	assert.Contains(t, line, "Heap: 3.0 MiB")
	assert.Contains(t, line, "GC: 1,200")
	assert.Contains(t, line, "last: 150µs")
	assert.NotContains(t, line, "Uploads")
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}
