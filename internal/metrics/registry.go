// Package metrics is a tiny in-process counter/timer registry exposing the
// names enumerated in the harvester's metrics surface. It has no exporter:
// shipping these numbers to Prometheus or any other backend is out of scope.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Names of the counters and timers the orchestrator and upsert pipeline
// increment/record. Kept as constants so call sites can't typo a metric name.
const (
	RunsTotal   = "scraping.runs.total"
	RunsSuccess = "scraping.runs.success"
	RunsFailure = "scraping.runs.failure"
	ErrorsTotal = "scraping.errors.total"

	Duration           = "scraping.duration"
	SemesterDuration   = "scraping.semester.duration"
	ProgramDuration    = "scraping.program.duration"
	RowPersistDuration = "scraping.row.persist.duration"
)

type timerStat struct {
	count int64
	sum   time.Duration
	last  time.Duration
}

// Registry holds atomic counters and accumulating timer stats, keyed by name.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*int64
	timers   map[string]*timerStat
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{counters: make(map[string]*int64), timers: make(map[string]*timerStat)}
}

// Inc increments the named counter by one, creating it on first use.
func (r *Registry) Inc(name string) {
	r.Add(name, 1)
}

// Add increments the named counter by delta, creating it on first use.
func (r *Registry) Add(name string, delta int64) {
	r.mu.Lock()
	p, ok := r.counters[name]
	if !ok {
		v := int64(0)
		p = &v
		r.counters[name] = p
	}
	r.mu.Unlock()
	atomic.AddInt64(p, delta)
}

// Observe records one duration sample against the named timer.
func (r *Registry) Observe(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.timers[name]
	if !ok {
		t = &timerStat{}
		r.timers[name] = t
	}
	t.count++
	t.sum += d
	t.last = d
}

// Time starts a timer and returns a func that records the elapsed duration
// against name when called, for use as `defer reg.Time(name)()`.
func (r *Registry) Time(name string) func() {
	start := time.Now()
	return func() { r.Observe(name, time.Since(start)) }
}

// CounterValue is one named counter's current value.
type CounterValue struct {
	Name  string
	Value int64
}

// TimerValue is one named timer's accumulated stats.
type TimerValue struct {
	Name  string
	Count int64
	Sum   time.Duration
	Last  time.Duration
}

// Snapshot is an immutable copy of the registry's current state, sorted by name.
type Snapshot struct {
	Counters []CounterValue
	Timers   []TimerValue
}

// Snapshot returns a sorted, point-in-time copy of every counter and timer.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Counters: make([]CounterValue, 0, len(r.counters)),
		Timers:   make([]TimerValue, 0, len(r.timers)),
	}
	for name, p := range r.counters {
		snap.Counters = append(snap.Counters, CounterValue{Name: name, Value: atomic.LoadInt64(p)})
	}
	for name, t := range r.timers {
		snap.Timers = append(snap.Timers, TimerValue{Name: name, Count: t.count, Sum: t.sum, Last: t.last})
	}
	sort.Slice(snap.Counters, func(i, j int) bool { return snap.Counters[i].Name < snap.Counters[j].Name })
	sort.Slice(snap.Timers, func(i, j int) bool { return snap.Timers[i].Name < snap.Timers[j].Name })
	return snap
}
