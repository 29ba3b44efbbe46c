package views

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/grovetools/ckanconsole/pkg/bridge/bridgetest"
	"github.com/grovetools/ckanconsole/pkg/changeset"
	"github.com/grovetools/ckanconsole/pkg/instance"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	fake   *bridgetest.FakeHost
	deps   Deps
	engine *changeset.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := bridgetest.NewFakeHost()
	host, err := bridge.NewHost(fake)
	require.NoError(t, err)

	deps := Deps{
		Host:      host,
		Instances: instance.NewContext(),
		Router:    router.New(router.InstanceSelector),
	}
	engine := changeset.New(host, deps.Instances, nil)
	t.Cleanup(engine.Close)
	return &fixture{fake: fake, deps: deps, engine: engine}
}

var (
	ksp1 = models.Instance{Name: "KSP1", Path: "/games/ksp", DeploymentPath: "/games/ksp/GameData"}
	pkgA = models.Package{Identifier: models.PackageIdentifier{Identifier: "PkgA", Version: models.NewVersion("1.0")}, Name: "Package A", Author: []string{"alice"}}
	pkgB = models.Package{Identifier: models.PackageIdentifier{Identifier: "PkgB", Version: models.NewVersion("2.1")}, Name: "Package B", Author: []string{"bob"}}
)

func TestSelectAndInstallScenario(t *testing.T) {
	f := newFixture(t)
	f.fake.Respond(bridge.CmdGetInstances, []models.Instance{ksp1})
	f.fake.Respond(bridge.CmdGetCompatiblePackages, []models.Package{pkgA, pkgB})
	f.fake.Respond(bridge.CmdGetInstalledPackages, []models.Package{pkgA})
	ctx := context.Background()

	selector := NewInstanceSelector(f.deps)
	selector.Mount()
	defer selector.Teardown()

	require.NoError(t, selector.Load(ctx))
	require.Len(t, selector.Instances(), 1)

	require.NoError(t, selector.Select("KSP1"))
	require.NotNil(t, f.deps.Instances.Current())
	assert.Equal(t, ksp1, *f.deps.Instances.Current())
	assert.Equal(t, "Selected: KSP1", selector.SelectionText())

	require.NoError(t, selector.Open())
	assert.Equal(t, router.PackageInstaller, f.deps.Router.Current())

	installer := NewPackageInstaller(f.deps, f.engine)
	installer.Mount()
	defer installer.Teardown()
	require.NoError(t, installer.Load(ctx))

	assert.True(t, f.engine.IsPackageAlreadyInstalled(pkgA.Identifier))
	assert.False(t, f.engine.IsPackageAlreadyInstalled(pkgB.Identifier))

	calls := f.fake.CallsTo(bridge.CmdGetInstalledPackages)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"instanceName":"KSP1"}`, string(calls[0].Args))

	rows := installer.Rows()
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Installed)
	assert.False(t, rows[1].Installed)
}

func TestInstanceSelectorEmpty(t *testing.T) {
	f := newFixture(t)
	f.fake.Respond(bridge.CmdGetInstances, []models.Instance{})

	v := NewInstanceSelector(f.deps)
	v.Mount()
	defer v.Teardown()

	require.NoError(t, v.Load(context.Background()))
	assert.Equal(t, StatusNoInstances, v.Status())
	assert.Equal(t, StatusNoInstanceSelected, v.SelectionText())

	err := v.Select("KSP1")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestInstanceSelectorLoadFailure(t *testing.T) {
	f := newFixture(t)
	f.fake.Fail(bridge.CmdGetInstances, "registry unavailable")

	v := NewInstanceSelector(f.deps)
	v.Mount()
	defer v.Teardown()

	require.Error(t, v.Load(context.Background()))
	assert.Equal(t, "registry unavailable", v.Status())
}

func TestLateResultAfterTeardownIsDropped(t *testing.T) {
	f := newFixture(t)
	v := NewInstanceSelector(f.deps)
	v.Mount()

	f.fake.Handle(bridge.CmdGetInstances, func(json.RawMessage) (any, error) {
		// The user leaves the screen while the call is in flight.
		v.Teardown()
		return []models.Instance{ksp1}, nil
	})

	require.NoError(t, v.Load(context.Background()))
	assert.Empty(t, v.Instances())
	assert.Equal(t, "", v.Status())
}

func TestInstanceSelectorNavigation(t *testing.T) {
	f := newFixture(t)
	v := NewInstanceSelector(f.deps)

	require.NoError(t, v.CreateNew())
	assert.Equal(t, router.InstanceCreator, f.deps.Router.Current())

	// Opening the installer without an instance is allowed.
	require.NoError(t, v.Open())
	assert.Equal(t, router.PackageInstaller, f.deps.Router.Current())
}

func TestInstanceCreatorSubmit(t *testing.T) {
	f := newFixture(t)
	f.fake.Respond(bridge.CmdCreateInstance, nil)
	f.fake.Respond(bridge.CmdSelectDirectory, nil)

	v := NewInstanceCreator(f.deps)
	v.Mount()
	defer v.Teardown()

	require.NoError(t, v.PathPicker().Open(context.Background()))
	f.fake.Emit("path-directory-selected", "/games/ksp")
	f.fake.Emit("deployment-directory-selected", "/games/ksp/GameData")

	require.NoError(t, v.Submit(context.Background(), " KSP2 "))
	assert.Equal(t, "Created new instance KSP2 at /games/ksp", v.Status())

	calls := f.fake.CallsTo(bridge.CmdCreateInstance)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"name":"KSP2","instanceRoot":"/games/ksp","instanceDeployment":"/games/ksp/GameData"}`, string(calls[0].Args))
}

func TestInstanceCreatorFailure(t *testing.T) {
	f := newFixture(t)
	f.fake.Fail(bridge.CmdCreateInstance, "directory is not a game install")

	v := NewInstanceCreator(f.deps)
	v.Mount()
	defer v.Teardown()

	v.PathPicker().Set("/tmp/nothing")
	v.DeploymentPicker().Set("/tmp/nothing/GameData")

	err := v.Submit(context.Background(), "KSP2")
	require.Error(t, err)
	assert.Equal(t, `Failed to create new instance "KSP2" at "/tmp/nothing": directory is not a game install`, v.Status())
}

func TestInstanceCreatorValidation(t *testing.T) {
	tests := []struct {
		name       string
		instance   string
		path       string
		deployment string
	}{
		{"missing name", "", "/games/ksp", "/games/ksp/GameData"},
		{"missing path", "KSP2", "", "/games/ksp/GameData"},
		{"missing deployment", "KSP2", "/games/ksp", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			v := NewInstanceCreator(f.deps)
			v.Mount()
			defer v.Teardown()

			v.PathPicker().Set(tt.path)
			v.DeploymentPicker().Set(tt.deployment)

			err := v.Submit(context.Background(), tt.instance)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
			assert.Empty(t, f.fake.CallsTo(bridge.CmdCreateInstance))
			assert.Contains(t, v.Status(), "Failed to create new instance")
		})
	}
}

func TestInstanceCreatorReleasesPickers(t *testing.T) {
	f := newFixture(t)
	v := NewInstanceCreator(f.deps)

	v.Mount()
	v.Mount()
	assert.Equal(t, 1, f.fake.Subscribers("path-directory-selected"))
	assert.Equal(t, 1, f.fake.Subscribers("deployment-directory-selected"))

	v.Teardown()
	assert.Equal(t, 0, f.fake.Subscribers("path-directory-selected"))
	assert.Equal(t, 0, f.fake.Subscribers("deployment-directory-selected"))

	f.fake.Emit("path-directory-selected", "/late")
	assert.Equal(t, "", v.PathPicker().Value())
}

func TestPackageInstallerWithoutInstance(t *testing.T) {
	f := newFixture(t)
	v := NewPackageInstaller(f.deps, f.engine)
	v.Mount()
	defer v.Teardown()

	require.NoError(t, v.Load(context.Background()))
	assert.Empty(t, v.Rows())
	assert.Equal(t, StatusNoInstanceSelected, v.Status())
	assert.Empty(t, f.fake.Calls())

	err := v.Commit(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeNoInstance))
}

func loadedInstaller(t *testing.T, f *fixture) *PackageInstaller {
	t.Helper()
	f.fake.Respond(bridge.CmdGetCompatiblePackages, []models.Package{pkgA, pkgB})
	f.fake.Respond(bridge.CmdGetInstalledPackages, []models.Package{pkgA})
	f.deps.Instances.Select(&ksp1)

	v := NewPackageInstaller(f.deps, f.engine)
	v.Mount()
	t.Cleanup(v.Teardown)
	require.NoError(t, v.Load(context.Background()))
	return v
}

func TestPackageInstallerCommit(t *testing.T) {
	f := newFixture(t)
	v := loadedInstaller(t, f)
	f.fake.Respond(bridge.CmdChangePackages, nil)

	require.NoError(t, v.Install(pkgB.Identifier))
	require.NoError(t, v.Uninstall(pkgA.Identifier))

	rows := v.Rows()
	require.NotNil(t, rows[0].Pending)
	assert.Equal(t, models.Uninstall, *rows[0].Pending)
	require.NotNil(t, rows[1].Pending)
	assert.Equal(t, models.Install, *rows[1].Pending)
	assert.Len(t, v.Changes(), 2)

	require.NoError(t, v.Commit(context.Background()))
	assert.Equal(t, "Committed 2 changes", v.Status())
	assert.Empty(t, v.Changes())

	// Installed set refreshed after the commit
	assert.Len(t, f.fake.CallsTo(bridge.CmdGetInstalledPackages), 2)
}

func TestPackageInstallerCommitFailure(t *testing.T) {
	f := newFixture(t)
	v := loadedInstaller(t, f)
	f.fake.Fail(bridge.CmdChangePackages, "conflicts with PkgA")

	require.NoError(t, v.Install(pkgB.Identifier))
	require.Error(t, v.Commit(context.Background()))
	assert.Equal(t, "Commit failed: conflicts with PkgA", v.Status())
	assert.Len(t, v.Changes(), 1)
}

func TestPackageInstallerUnknownPackage(t *testing.T) {
	f := newFixture(t)
	v := loadedInstaller(t, f)

	err := v.Install(models.PackageIdentifier{Identifier: "Nope", Version: models.NewVersion("1")})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.Empty(t, v.Changes())
}

func TestPackageInstallerFilter(t *testing.T) {
	f := newFixture(t)
	v := loadedInstaller(t, f)

	require.NoError(t, v.Filter([]string{"PkgA"}))
	rows := v.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, pkgA.Identifier, rows[0].Package.Identifier)

	require.NoError(t, v.Filter([]string{"Pkg*", "!PkgA"}))
	rows = v.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, pkgB.Identifier, rows[0].Package.Identifier)

	require.NoError(t, v.Filter(nil))
	assert.Len(t, v.Rows(), 2)
}

func TestPackageInstallerOpenDetail(t *testing.T) {
	f := newFixture(t)
	v := loadedInstaller(t, f)
	f.fake.Respond(bridge.CmdOpenPackageDetail, nil)

	require.NoError(t, v.OpenDetail(context.Background(), pkgB.Identifier))

	calls := f.fake.CallsTo(bridge.CmdOpenPackageDetail)
	require.Len(t, calls, 1)
	var args bridge.PackageDetailArgs
	require.NoError(t, calls[0].Decode(&args))
	assert.Equal(t, pkgB.Identifier, args.Package.Identifier)
}

func TestPackageDetail(t *testing.T) {
	f := newFixture(t)
	v := NewPackageDetail(f.deps)
	v.Mount()

	f.fake.Emit(bridge.EventShowModDetail, map[string]any{
		"name":     "Package A",
		"abstract": nil,
		"size":     1024,
	})

	rows := v.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, models.DetailRow{Property: "abstract", Value: ""}, rows[0])
	assert.Equal(t, models.DetailRow{Property: "name", Value: "Package A"}, rows[1])
	assert.Equal(t, models.DetailRow{Property: "size", Value: "1024"}, rows[2])

	v.Teardown()
	assert.Equal(t, 0, f.fake.Subscribers(bridge.EventShowModDetail))

	f.fake.Emit(bridge.EventShowModDetail, map[string]any{"name": "Package B"})
	assert.Equal(t, "Package A", v.Detail()["name"])
}

func TestPackageDetailWatch(t *testing.T) {
	f := newFixture(t)
	v := NewPackageDetail(f.deps)
	v.Mount()

	var got []models.PackageDetail
	cancel := v.Watch(func(d models.PackageDetail) { got = append(got, d) })

	f.fake.Emit(bridge.EventShowModDetail, map[string]any{"name": "Package A"})
	cancel()
	f.fake.Emit(bridge.EventShowModDetail, map[string]any{"name": "Package B"})

	require.Len(t, got, 1)
	assert.Equal(t, "Package A", got[0]["name"])
	assert.Equal(t, "Package B", v.Detail()["name"])
	v.Teardown()
}
