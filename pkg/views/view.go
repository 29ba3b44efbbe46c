// Package views holds the controllers behind each console screen. A view
// is mounted while its screen is shown; resources it acquires are released
// on Teardown, and results of calls that finish after Teardown are dropped.
package views

import (
	"sync"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/grovetools/ckanconsole/pkg/instance"
	"github.com/grovetools/ckanconsole/pkg/observe"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/sirupsen/logrus"
)

// Deps are the shared collaborators every view is built from.
type Deps struct {
	Host      *bridge.Host
	Instances *instance.Context
	Router    *router.Router
	Logger    *logrus.Entry
}

func (d Deps) logger(view string) *logrus.Entry {
	if d.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger()).WithField("view", view)
	}
	return d.Logger.WithField("view", view)
}

// View is the lifecycle shared by all screen controllers.
type View interface {
	Mount()
	Teardown()
	Alive() bool
	Status() string
	WatchStatus(fn func(string)) (cancel func())
}

// base implements the liveness flag, the status line and owned resources.
type base struct {
	mu       sync.Mutex
	live     bool
	status   string
	releases []func()
	statusCh observe.List[string]
}

// Mount marks the view live.
func (b *base) Mount() {
	b.mu.Lock()
	b.live = true
	b.mu.Unlock()
}

// Teardown marks the view dead and releases everything it owns, most
// recently acquired first.
func (b *base) Teardown() {
	b.mu.Lock()
	b.live = false
	releases := b.releases
	b.releases = nil
	b.mu.Unlock()

	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}

// Alive reports whether the view is mounted.
func (b *base) Alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Status returns the view's status line.
func (b *base) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// WatchStatus registers fn to be called when the status line changes.
func (b *base) WatchStatus(fn func(string)) (cancel func()) {
	return b.statusCh.Add(fn)
}

// own registers release to run on Teardown.
func (b *base) own(release func()) {
	b.mu.Lock()
	b.releases = append(b.releases, release)
	b.mu.Unlock()
}

// setStatus updates the status line if the view is still live.
func (b *base) setStatus(s string) {
	b.mu.Lock()
	if !b.live {
		b.mu.Unlock()
		return
	}
	b.status = s
	b.mu.Unlock()

	b.statusCh.Notify(s)
}

// whileAlive runs fn under the view's lock if it is still mounted and
// reports whether it ran.
func (b *base) whileAlive(fn func()) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.live {
		return false
	}
	fn()
	return true
}

// errorText renders err for the status line.
func errorText(err error) string {
	if ce, ok := errors.As(err); ok {
		return ce.Message
	}
	return err.Error()
}
