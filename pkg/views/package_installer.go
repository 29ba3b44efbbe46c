package views

import (
	"context"
	"fmt"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/changeset"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"
)

// PackageRow is one line of the package list.
type PackageRow struct {
	Package   models.Package
	Installed bool
	// Pending is the queued action for the package, if any.
	Pending *models.Action
}

// PackageInstaller browses compatible packages for the current instance
// and queues changes on a shared changeset engine.
type PackageInstaller struct {
	base
	deps   Deps
	engine *changeset.Engine
	logger *logrus.Entry

	packages []models.Package
	filter   *patternmatcher.PatternMatcher
}

// NewPackageInstaller creates the installer view over engine.
func NewPackageInstaller(deps Deps, engine *changeset.Engine) *PackageInstaller {
	return &PackageInstaller{deps: deps, engine: engine, logger: deps.logger("package-installer")}
}

// Engine returns the changeset engine the view queues changes on.
func (v *PackageInstaller) Engine() *changeset.Engine {
	return v.engine
}

// Load fetches the compatible packages and the packages installed in the
// current instance. Without an instance the list is left empty.
func (v *PackageInstaller) Load(ctx context.Context) error {
	name := v.deps.Instances.Name()
	if name == "" {
		v.whileAlive(func() { v.packages = nil })
		v.setStatus(StatusNoInstanceSelected)
		return nil
	}

	pkgs, err := v.deps.Host.CompatiblePackages(ctx)
	if err != nil {
		v.logger.WithError(err).Warn("Failed to load compatible packages")
		v.setStatus(errorText(err))
		return err
	}

	if err := v.loadInstalled(ctx, name); err != nil {
		return err
	}

	if !v.whileAlive(func() { v.packages = pkgs }) {
		v.logger.Debug("Dropping package list loaded after teardown")
		return nil
	}
	v.setStatus(fmt.Sprintf("%d compatible packages for %s", len(pkgs), name))
	return nil
}

func (v *PackageInstaller) loadInstalled(ctx context.Context, name string) error {
	installed, err := v.deps.Host.InstalledPackages(ctx, name)
	if err != nil {
		v.logger.WithError(err).WithField("instance", name).Warn("Failed to load installed packages")
		v.setStatus(errorText(err))
		return err
	}
	if !v.Alive() || v.deps.Instances.Name() != name {
		return nil
	}
	v.engine.SetInstalled(installed)
	return nil
}

// Filter narrows the list to package identifiers matching patterns.
// Patterns use gitignore syntax; "!" excludes. No patterns clears the filter.
func (v *PackageInstaller) Filter(patterns []string) error {
	var pm *patternmatcher.PatternMatcher
	if len(patterns) > 0 {
		var err error
		pm, err = patternmatcher.New(patterns)
		if err != nil {
			return errors.InvalidInput("filter", err.Error())
		}
	}
	v.mu.Lock()
	v.filter = pm
	v.mu.Unlock()
	return nil
}

// Rows returns the filtered package list with install state.
func (v *PackageInstaller) Rows() []PackageRow {
	v.mu.Lock()
	pkgs := append([]models.Package(nil), v.packages...)
	pm := v.filter
	v.mu.Unlock()

	rows := make([]PackageRow, 0, len(pkgs))
	for _, p := range pkgs {
		if pm != nil {
			ok, err := pm.MatchesOrParentMatches(p.Identifier.Identifier)
			if err != nil || !ok {
				continue
			}
		}
		row := PackageRow{
			Package:   p,
			Installed: v.engine.IsPackageAlreadyInstalled(p.Identifier),
		}
		if action, ok := v.engine.Action(p.Identifier); ok {
			row.Pending = &action
		}
		rows = append(rows, row)
	}
	return rows
}

// Install queues (or cancels the removal of) the package with id.
func (v *PackageInstaller) Install(id models.PackageIdentifier) error {
	return v.toggle(id, v.engine.ToggleInstall)
}

// Uninstall queues (or cancels the installation of) the package with id.
func (v *PackageInstaller) Uninstall(id models.PackageIdentifier) error {
	return v.toggle(id, v.engine.ToggleUninstall)
}

func (v *PackageInstaller) toggle(id models.PackageIdentifier, fn func(models.Package) error) error {
	pkg, ok := v.find(id)
	if !ok {
		return errors.InvalidInput("package", "unknown package "+id.String())
	}
	if err := fn(pkg); err != nil {
		v.setStatus(errorText(err))
		return err
	}
	return nil
}

// OpenDetail asks the host to show the detail surface for the package.
func (v *PackageInstaller) OpenDetail(ctx context.Context, id models.PackageIdentifier) error {
	pkg, ok := v.find(id)
	if !ok {
		return errors.InvalidInput("package", "unknown package "+id.String())
	}
	if err := v.deps.Host.OpenPackageDetail(ctx, pkg); err != nil {
		v.setStatus(errorText(err))
		return err
	}
	return nil
}

// Changes returns the pending changeset.
func (v *PackageInstaller) Changes() []models.ChangeEntry {
	return v.engine.Entries()
}

// Commit submits the pending changeset. On success the installed set is
// reloaded; on failure the changeset is kept for another attempt.
func (v *PackageInstaller) Commit(ctx context.Context) error {
	n := v.engine.Len()
	if err := v.engine.Commit(ctx); err != nil {
		v.setStatus("Commit failed: " + errorText(err))
		return err
	}
	v.setStatus(fmt.Sprintf("Committed %d changes", n))

	if name := v.deps.Instances.Name(); name != "" {
		// The commit itself succeeded; a failed refresh only shows in the status line.
		_ = v.loadInstalled(ctx, name)
	}
	return nil
}

// Back returns to the instance selector.
func (v *PackageInstaller) Back() error {
	return v.deps.Router.Navigate(router.InstanceSelector)
}

func (v *PackageInstaller) find(id models.PackageIdentifier) (models.Package, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range v.packages {
		if p.Identifier == id {
			return p, true
		}
	}
	return models.Package{}, false
}
