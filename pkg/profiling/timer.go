package profiling

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

// Stat aggregates every completed span sharing one name.
type Stat struct {
	Name  string
	Count int
	Total time.Duration
	Max   time.Duration
}

// Mean returns the average span duration.
func (s Stat) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Profiler collects span durations by name. Spans may overlap and may be
// started from any goroutine.
type Profiler struct {
	mu      sync.Mutex
	enabled bool
	started time.Time
	stats   map[string]*Stat
}

// NewProfiler returns a disabled profiler.
func NewProfiler() *Profiler {
	return &Profiler{stats: make(map[string]*Stat)}
}

var defaultProfiler = NewProfiler()

// Enable turns on the global profiler.
func Enable() {
	defaultProfiler.Enable()
}

// Start begins a span on the global profiler.
func Start(name string) Stopper {
	return defaultProfiler.Start(name)
}

// Summarize writes the global profiler's summary to w.
func Summarize(w io.Writer) {
	defaultProfiler.Summarize(w)
}

// Enable turns the profiler on. Calling it again keeps collected stats.
func (p *Profiler) Enable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		return
	}
	p.enabled = true
	p.started = time.Now()
}

// Start begins a span. The returned Stopper records it when stopped; it is
// a no-op while the profiler is disabled.
func (p *Profiler) Start(name string) Stopper {
	p.mu.Lock()
	enabled := p.enabled
	p.mu.Unlock()
	if !enabled {
		return noopStopper{}
	}
	return &span{name: name, start: time.Now(), profiler: p}
}

// Stats returns a snapshot of all stats ordered by total time, longest first.
func (p *Profiler) Stats() []Stat {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Stat, 0, len(p.stats))
	for _, s := range p.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Summarize writes a table of span stats to w.
func (p *Profiler) Summarize(w io.Writer) {
	p.mu.Lock()
	enabled, started := p.enabled, p.started
	p.mu.Unlock()
	if !enabled {
		return
	}

	wall := time.Since(started)
	fmt.Fprintln(w, "\n--- Timing Profile ---")
	for _, s := range p.Stats() {
		share := 0.0
		if wall > 0 {
			share = float64(s.Total) / float64(wall) * 100
		}
		fmt.Fprintf(w, "- %s x%d (total %v, mean %v, max %v, %.1f%%)\n",
			s.Name, s.Count,
			s.Total.Round(100*time.Microsecond),
			s.Mean().Round(100*time.Microsecond),
			s.Max.Round(100*time.Microsecond),
			share)
	}
	fmt.Fprintf(w, "wall %v\n", wall.Round(time.Millisecond))
	fmt.Fprintln(w, "--------------------")
}

func (p *Profiler) record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.stats[name]
	if !ok {
		s = &Stat{Name: name}
		p.stats[name] = s
	}
	s.Count++
	s.Total += d
	if d > s.Max {
		s.Max = d
	}
}

type span struct {
	name     string
	start    time.Time
	once     sync.Once
	profiler *Profiler
}

func (s *span) Stop() {
	s.once.Do(func() {
		s.profiler.record(s.name, time.Since(s.start))
	})
}

type noopStopper struct{}

func (noopStopper) Stop() {}
