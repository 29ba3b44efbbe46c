package router

import (
	"fmt"
	"sync"
	"time"

	"github.com/grovetools/ckanconsole/pkg/observe"
)

// DefaultHistoryLimit bounds the number of transitions kept for Back.
const DefaultHistoryLimit = 32

// Transition records one screen change.
type Transition struct {
	From Screen    `json:"from"`
	To   Screen    `json:"to"`
	At   time.Time `json:"at"`
}

// Router is the screen state machine. Every screen may navigate to every
// other screen; Navigate is the only mutator besides Back.
type Router struct {
	mu        sync.RWMutex
	current   Screen
	history   []Transition
	limit     int
	observers observe.List[Transition]
	now       func() time.Time
}

// New returns a router showing start.
func New(start Screen) *Router {
	if !start.Valid() {
		start = InstanceSelector
	}
	return &Router{
		current: start,
		limit:   DefaultHistoryLimit,
		now:     time.Now,
	}
}

// Current returns the active screen.
func (r *Router) Current() Screen {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Navigate switches to target. Navigating to the active screen changes
// nothing and notifies no one.
func (r *Router) Navigate(target Screen) error {
	if !target.Valid() {
		return fmt.Errorf("unknown screen %q", target)
	}

	r.mu.Lock()
	if target == r.current {
		r.mu.Unlock()
		return nil
	}
	t := Transition{From: r.current, To: target, At: r.now()}
	r.current = target
	r.history = append(r.history, t)
	if len(r.history) > r.limit {
		r.history = r.history[len(r.history)-r.limit:]
	}
	r.mu.Unlock()

	r.observers.Notify(t)
	return nil
}

// Back returns to the screen active before the last transition. It reports
// false when there is no history.
func (r *Router) Back() bool {
	r.mu.Lock()
	if len(r.history) == 0 {
		r.mu.Unlock()
		return false
	}
	last := r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	t := Transition{From: r.current, To: last.From, At: r.now()}
	r.current = last.From
	r.mu.Unlock()

	r.observers.Notify(t)
	return true
}

// History returns the recorded transitions, oldest first.
func (r *Router) History() []Transition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Transition(nil), r.history...)
}

// Watch registers fn to be called after every screen change.
func (r *Router) Watch(fn func(Transition)) (cancel func()) {
	return r.observers.Add(fn)
}
