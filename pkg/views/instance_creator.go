package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/grovetools/ckanconsole/pkg/picker"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/sirupsen/logrus"
)

// Picker field names of the instance creator.
const (
	FieldPath       = "path"
	FieldDeployment = "deployment"
)

// InstanceCreator registers a new instance from a name and two directories.
// Both directory pickers live from Mount to Teardown.
type InstanceCreator struct {
	base
	deps   Deps
	logger *logrus.Entry

	path       *picker.Session
	deployment *picker.Session
}

// NewInstanceCreator creates the creator view.
func NewInstanceCreator(deps Deps) *InstanceCreator {
	return &InstanceCreator{deps: deps, logger: deps.logger("instance-creator")}
}

// Mount subscribes the directory pickers.
func (v *InstanceCreator) Mount() {
	if v.Alive() {
		return
	}
	path := picker.New(v.deps.Host, picker.EventName(FieldPath), v.logger)
	deployment := picker.New(v.deps.Host, picker.EventName(FieldDeployment), v.logger)

	v.mu.Lock()
	v.path = path
	v.deployment = deployment
	v.mu.Unlock()

	v.own(path.Close)
	v.own(deployment.Close)
	v.base.Mount()
}

// PathPicker returns the game directory picker, or nil before Mount.
func (v *InstanceCreator) PathPicker() *picker.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.path
}

// DeploymentPicker returns the deployment directory picker, or nil before Mount.
func (v *InstanceCreator) DeploymentPicker() *picker.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deployment
}

// Submit asks the host to create the instance. The outcome is also written
// to the status line.
func (v *InstanceCreator) Submit(ctx context.Context, name string) error {
	pathPicker, deploymentPicker := v.PathPicker(), v.DeploymentPicker()
	if pathPicker == nil || deploymentPicker == nil {
		return errors.New(errors.ErrCodeInternal, "instance creator is not mounted")
	}

	name = strings.TrimSpace(name)
	args := bridge.CreateInstanceArgs{
		Name:               name,
		InstanceRoot:       pathPicker.Value(),
		InstanceDeployment: deploymentPicker.Value(),
	}

	if err := validateCreate(args); err != nil {
		v.setStatus(failedCreateText(args, err))
		return err
	}

	log := v.logger.WithFields(logrus.Fields{"instance": name, "path": args.InstanceRoot})
	if err := v.deps.Host.CreateInstance(ctx, args); err != nil {
		log.WithError(err).Warn("Failed to create instance")
		v.setStatus(failedCreateText(args, err))
		return err
	}

	log.Info("Instance created")
	v.setStatus(fmt.Sprintf("Created new instance %s at %s", args.Name, args.InstanceRoot))
	return nil
}

// Cancel returns to the instance selector.
func (v *InstanceCreator) Cancel() error {
	return v.deps.Router.Navigate(router.InstanceSelector)
}

func validateCreate(args bridge.CreateInstanceArgs) error {
	switch {
	case args.Name == "":
		return errors.InvalidInput("name", "instance name is required")
	case args.InstanceRoot == "":
		return errors.InvalidInput("path", "game directory is required")
	case args.InstanceDeployment == "":
		return errors.InvalidInput("deployment", "deployment directory is required")
	}
	return nil
}

func failedCreateText(args bridge.CreateInstanceArgs, err error) string {
	return fmt.Sprintf("Failed to create new instance %q at %q: %s", args.Name, args.InstanceRoot, errorText(err))
}
