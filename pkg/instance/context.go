// Package instance holds the process-wide current instance.
package instance

import (
	"sync"

	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/observe"
)

// Context holds the currently selected instance, or none. Select is the
// only mutator.
type Context struct {
	mu        sync.RWMutex
	current   *models.Instance
	observers observe.List[*models.Instance]
}

// NewContext returns a context with no instance selected.
func NewContext() *Context {
	return &Context{}
}

// Select replaces the current instance. nil means no instance is chosen.
// Observers are notified on every call.
func (c *Context) Select(inst *models.Instance) {
	var stored *models.Instance
	if inst != nil {
		cp := *inst
		stored = &cp
	}

	c.mu.Lock()
	c.current = stored
	c.mu.Unlock()

	c.observers.Notify(copyOf(stored))
}

// Current returns a copy of the current instance, or nil.
func (c *Context) Current() *models.Instance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyOf(c.current)
}

// Name returns the current instance's name, or "" when none is selected.
func (c *Context) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.Name
}

// HasInstance reports whether an instance is selected.
func (c *Context) HasInstance() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}

// Watch registers fn to be called with each newly selected instance.
func (c *Context) Watch(fn func(*models.Instance)) (cancel func()) {
	return c.observers.Add(fn)
}

func copyOf(inst *models.Instance) *models.Instance {
	if inst == nil {
		return nil
	}
	cp := *inst
	return &cp
}
