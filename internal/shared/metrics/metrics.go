// Package metrics keeps process-local counters and renders them in Prometheus text format.
package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

type counter struct {
	name, help string
	v          atomic.Uint64
}

// labeledCounter is a counter family keyed by a single label.
type labeledCounter struct {
	name, help, label string
	mu                sync.Mutex
	values            map[string]uint64
}

func (c *labeledCounter) inc(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]uint64)
	}
	c.values[value]++
}

func (c *labeledCounter) snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

var (
	ingestStarted   = &counter{name: "ingest_started_total", help: "Total ingests started"}
	ingestCompleted = &counter{name: "ingest_completed_total", help: "Total ingests completed"}
	ingestFailed    = &labeledCounter{name: "ingest_failed_total", help: "Total ingests failed, by stage", label: "stage"}

	retireTotal   = &counter{name: "retire_total", help: "Total retire attempts"}
	retirePartial = &counter{name: "retire_partial_failure_total", help: "Retires with at least one failed deletion"}

	counters = []*counter{ingestStarted, ingestCompleted, retireTotal, retirePartial}

	ingestDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncIngestStarted increments the started counter.
func IncIngestStarted() { ingestStarted.v.Add(1) }

// IncIngestCompleted increments the completed counter.
func IncIngestCompleted() { ingestCompleted.v.Add(1) }

// IncIngestFailed counts a failed ingest under the stage that failed.
func IncIngestFailed(stage string) {
	if stage == "" {
		stage = "unknown"
	}
	ingestFailed.inc(stage)
}

// IncRetire counts a retire attempt, and a partial failure when partial is true.
func IncRetire(partial bool) {
	retireTotal.v.Add(1)
	if partial {
		retirePartial.v.Add(1)
	}
}

// ObserveIngestDurationMs records an ingest duration in milliseconds.
func ObserveIngestDurationMs(value float64) {
	ingestDuration.Observe(max(value, 0))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/plain; version=0.0.4", []byte(Render()))
	}
}

// Render renders every series.
func Render() string {
	var buf bytes.Buffer
	for _, c := range counters {
		writeHeader(&buf, c.name, c.help, "counter")
		fmt.Fprintf(&buf, "%s %d\n", c.name, c.v.Load())
	}

	writeHeader(&buf, ingestFailed.name, ingestFailed.help, "counter")
	values := ingestFailed.snapshot()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s{%s=%q} %d\n", ingestFailed.name, ingestFailed.label, k, values[k])
	}

	writeHistogram(&buf, "ingest_duration_ms", "Ingest duration in milliseconds", ingestDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu     sync.Mutex
	bounds []float64
	// counts[i] holds observations in (bounds[i-1], bounds[i]]; the last slot is +Inf.
	counts []uint64
	sum    float64
}

type histogramSnapshot struct {
	bounds     []float64
	cumulative []uint64
	sum        float64
	count      uint64
}

func newHistogram(bounds []float64) *histogram {
	return &histogram{bounds: bounds, counts: make([]uint64, len(bounds)+1)}
}

func (h *histogram) Observe(value float64) {
	i := sort.SearchFloat64s(h.bounds, value)
	h.mu.Lock()
	h.counts[i]++
	h.sum += value
	h.mu.Unlock()
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	snap := histogramSnapshot{
		bounds:     append([]float64(nil), h.bounds...),
		cumulative: make([]uint64, len(h.bounds)),
		sum:        h.sum,
	}
	var running uint64
	for i, n := range h.counts {
		running += n
		if i < len(h.bounds) {
			snap.cumulative[i] = running
		}
	}
	snap.count = running
	return snap
}

func writeHeader(buf *bytes.Buffer, name, help, kind string) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	writeHeader(buf, name, help, "histogram")
	for i, bound := range snap.bounds {
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", name, strconv.FormatFloat(bound, 'f', -1, 64), snap.cumulative[i])
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, strconv.FormatFloat(snap.sum, 'f', -1, 64))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}
