package views

import (
	"context"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/sirupsen/logrus"
)

// Status texts shown by the instance selector.
const (
	StatusNoInstances        = "No instances found."
	StatusNoInstanceSelected = "No Instance Selected."
)

// InstanceSelector lists the host's instances and sets the current one.
type InstanceSelector struct {
	base
	deps   Deps
	logger *logrus.Entry

	instances []models.Instance
}

// NewInstanceSelector creates the selector view.
func NewInstanceSelector(deps Deps) *InstanceSelector {
	return &InstanceSelector{deps: deps, logger: deps.logger("instance-selector")}
}

// Load fetches the instance list.
func (v *InstanceSelector) Load(ctx context.Context) error {
	instances, err := v.deps.Host.Instances(ctx)
	if err != nil {
		v.logger.WithError(err).Warn("Failed to load instances")
		v.setStatus(errorText(err))
		return err
	}

	applied := v.whileAlive(func() { v.instances = instances })
	if !applied {
		v.logger.Debug("Dropping instance list loaded after teardown")
		return nil
	}
	if len(instances) == 0 {
		v.setStatus(StatusNoInstances)
	} else {
		v.setStatus("")
	}
	return nil
}

// Instances returns the last loaded instance list.
func (v *InstanceSelector) Instances() []models.Instance {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Instance(nil), v.instances...)
}

// Select makes the named instance current.
func (v *InstanceSelector) Select(name string) error {
	inst, ok := models.FindInstance(v.Instances(), name)
	if !ok {
		return errors.InvalidInput("instance", "no instance named "+name)
	}
	v.deps.Instances.Select(&inst)
	v.logger.WithField("instance", name).Info("Instance selected")
	return nil
}

// Clear deselects the current instance.
func (v *InstanceSelector) Clear() {
	v.deps.Instances.Select(nil)
}

// SelectionText describes the current selection.
func (v *InstanceSelector) SelectionText() string {
	name := v.deps.Instances.Name()
	if name == "" {
		return StatusNoInstanceSelected
	}
	return "Selected: " + name
}

// CreateNew switches to the instance creator.
func (v *InstanceSelector) CreateNew() error {
	return v.deps.Router.Navigate(router.InstanceCreator)
}

// Open switches to the package installer for the current instance.
func (v *InstanceSelector) Open() error {
	return v.deps.Router.Navigate(router.PackageInstaller)
}
