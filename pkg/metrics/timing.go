// Package metrics records how long each stage of the task pipeline takes:
// reading the todo file, parsing lines, matching queries, sorting, facet
// aggregation, saved view access and UI rendering.
//
// Samples are kept in memory with atomic counters, so stages running on
// different goroutines (the workspace loader, the watcher) can record
// concurrently. Collection is on unless TQ_METRICS=0.
//
//	func Filter(tasks []*model.Task, q string) []*model.Task {
//	    defer metrics.Timer(metrics.QueryMatch)()
//	    ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TQ_METRICS") != "0")
}

// Enabled reports whether samples are being recorded.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled turns collection on or off.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric accumulates durations for one pipeline stage.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 until the first sample
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	for {
		old := m.max.Load()
		if ns <= old || m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.min.Load()
		if (old != 0 && ns >= old) || m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the stage name used in reports.
func (m *TimingMetric) Name() string {
	return m.name
}

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 {
	return m.count.Load()
}

// Reset drops all samples.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// TimingStats is a point-in-time report for one stage, in milliseconds.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Stats reports the samples recorded so far.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.total.Load()
	s := TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: ms(total),
		MaxMs:   ms(m.max.Load()),
		MinMs:   ms(m.min.Load()),
	}
	if count > 0 {
		s.AvgMs = ms(total / count)
	}
	return s
}

func ms(ns int64) float64 {
	return float64(ns) / float64(time.Millisecond)
}

// Timer starts timing m and returns the function that records the sample.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Pipeline stages, in the order a CLI run passes through them.
var (
	FileLoad       = newTimingMetric("file_load")
	Parse          = newTimingMetric("parse")
	QueryMatch     = newTimingMetric("query_match")
	Sort           = newTimingMetric("sort")
	FacetAggregate = newTimingMetric("facet_aggregate")
	ViewStore      = newTimingMetric("view_store")
	UIRender       = newTimingMetric("ui_render")
)

var stages = []*TimingMetric{FileLoad, Parse, QueryMatch, Sort, FacetAggregate, ViewStore, UIRender}

// AllTimingMetrics returns every stage in pipeline order.
func AllTimingMetrics() []*TimingMetric {
	return append([]*TimingMetric(nil), stages...)
}

// ResetAll drops the samples of every stage.
func ResetAll() {
	for _, m := range stages {
		m.Reset()
	}
}

// AllTimingStats reports the stages that recorded at least one sample.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range stages {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
