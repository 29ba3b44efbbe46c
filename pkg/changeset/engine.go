// Package changeset accumulates install and uninstall decisions for the
// current instance into one batch and commits it to the host.
package changeset

import (
	"context"
	"sync"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/grovetools/ckanconsole/pkg/instance"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/observe"
	"github.com/sirupsen/logrus"
)

// Engine holds the pending changeset for the current instance. At most one
// entry exists per package identifier; toggling the opposite action on a
// pending entry removes it.
type Engine struct {
	host      *bridge.Host
	instances *instance.Context
	logger    *logrus.Entry

	mu        sync.Mutex
	entries   map[models.PackageIdentifier]models.ChangeEntry
	order     []models.PackageIdentifier
	installed models.IdentifierSet
	instName  string

	observers observe.List[[]models.ChangeEntry]
	stopWatch func()
	closeOnce sync.Once
}

// New creates an engine bound to the instance context. Selecting a
// different instance discards the pending changeset.
func New(host *bridge.Host, instances *instance.Context, logger *logrus.Entry) *Engine {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	e := &Engine{
		host:      host,
		instances: instances,
		logger:    logger,
		entries:   make(map[models.PackageIdentifier]models.ChangeEntry),
		installed: models.IdentifierSet{},
		instName:  instances.Name(),
	}
	e.stopWatch = instances.Watch(e.instanceChanged)
	return e
}

// Close stops following the instance context.
func (e *Engine) Close() {
	e.closeOnce.Do(e.stopWatch)
}

// ToggleInstall marks pkg for installation, or cancels a pending
// uninstall of it.
func (e *Engine) ToggleInstall(pkg models.Package) error {
	return e.toggle(pkg, models.Install)
}

// ToggleUninstall marks pkg for removal, or cancels a pending install of it.
func (e *Engine) ToggleUninstall(pkg models.Package) error {
	return e.toggle(pkg, models.Uninstall)
}

func (e *Engine) toggle(pkg models.Package, action models.Action) error {
	if !e.instances.HasInstance() {
		return errors.NoInstance()
	}

	e.mu.Lock()
	id := pkg.Identifier
	if existing, ok := e.entries[id]; ok && existing.Action != action {
		e.removeLocked(id)
	} else {
		if !ok {
			e.order = append(e.order, id)
		}
		e.entries[id] = models.ChangeEntry{Identifier: id, Package: pkg, Action: action}
	}
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.observers.Notify(snapshot)
	return nil
}

// Remove drops the pending entry for id, if any.
func (e *Engine) Remove(id models.PackageIdentifier) {
	e.mu.Lock()
	if _, ok := e.entries[id]; !ok {
		e.mu.Unlock()
		return
	}
	e.removeLocked(id)
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.observers.Notify(snapshot)
}

func (e *Engine) removeLocked(id models.PackageIdentifier) {
	delete(e.entries, id)
	for i, other := range e.order {
		if other == id {
			e.order = append(e.order[:i:i], e.order[i+1:]...)
			break
		}
	}
}

// SetInstalled replaces the installed-package set used by
// IsPackageAlreadyInstalled.
func (e *Engine) SetInstalled(pkgs []models.Package) {
	set := models.NewIdentifierSet(pkgs)
	e.mu.Lock()
	e.installed = set
	e.mu.Unlock()
}

// IsPackageAlreadyInstalled reports whether id is installed in the current
// instance.
func (e *Engine) IsPackageAlreadyInstalled(id models.PackageIdentifier) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.installed.Has(id)
}

// IsIdentifierInstalled reports whether any version of the named package
// is installed.
func (e *Engine) IsIdentifierInstalled(identifier string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.installed.HasIdentifier(identifier)
}

// Action returns the pending action for id.
func (e *Engine) Action(id models.PackageIdentifier) (models.Action, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.entries[id]
	return entry.Action, ok
}

// Entries returns the pending entries in insertion order.
func (e *Engine) Entries() []models.ChangeEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Len returns the number of pending entries.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Reset discards every pending entry.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()

	e.observers.Notify(nil)
}

func (e *Engine) resetLocked() {
	e.entries = make(map[models.PackageIdentifier]models.ChangeEntry)
	e.order = nil
}

// Watch registers fn to be called with the entries after every change.
func (e *Engine) Watch(fn func([]models.ChangeEntry)) (cancel func()) {
	return e.observers.Add(fn)
}

// Commit submits the pending changeset as one change_packages command.
// On success the committed entries are cleared; on failure the changeset
// is left as it was and the error is returned. An empty changeset is still
// submitted.
func (e *Engine) Commit(ctx context.Context) error {
	name := e.instances.Name()
	if name == "" {
		return errors.NoInstance()
	}

	e.mu.Lock()
	committed := e.snapshotLocked()
	e.mu.Unlock()

	add, remove := Partition(committed)
	log := e.logger.WithFields(logrus.Fields{
		"instance": name,
		"add":      len(add),
		"remove":   len(remove),
	})
	log.Info("Committing changeset")

	err := e.host.ChangePackages(ctx, bridge.ChangePackagesArgs{
		InstanceName: name,
		Add:          add,
		Remove:       remove,
	})
	if err != nil {
		log.WithError(err).Warn("Changeset commit failed")
		return err
	}

	// Entries toggled while the command was in flight stay pending.
	e.mu.Lock()
	for _, entry := range committed {
		if current, ok := e.entries[entry.Identifier]; ok && current.Action == entry.Action {
			e.removeLocked(entry.Identifier)
		}
	}
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.observers.Notify(snapshot)
	return nil
}

// Partition splits entries into identifiers to add and to remove,
// preserving order.
func Partition(entries []models.ChangeEntry) (add, remove []models.PackageIdentifier) {
	add = []models.PackageIdentifier{}
	remove = []models.PackageIdentifier{}
	for _, entry := range entries {
		switch entry.Action {
		case models.Install:
			add = append(add, entry.Identifier)
		case models.Uninstall:
			remove = append(remove, entry.Identifier)
		}
	}
	return add, remove
}

func (e *Engine) snapshotLocked() []models.ChangeEntry {
	out := make([]models.ChangeEntry, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.entries[id])
	}
	return out
}

func (e *Engine) instanceChanged(inst *models.Instance) {
	name := ""
	if inst != nil {
		name = inst.Name
	}

	e.mu.Lock()
	if name == e.instName {
		e.mu.Unlock()
		return
	}
	e.instName = name
	hadEntries := len(e.entries) > 0
	e.resetLocked()
	e.installed = models.IdentifierSet{}
	e.mu.Unlock()

	if hadEntries {
		e.logger.WithField("instance", name).Debug("Instance changed, discarding pending changes")
	}
	e.observers.Notify(nil)
}
