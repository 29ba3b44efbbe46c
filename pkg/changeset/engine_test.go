package changeset

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/grovetools/ckanconsole/pkg/bridge/bridgetest"
	"github.com/grovetools/ckanconsole/pkg/instance"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pkg(id, version string) models.Package {
	return models.Package{
		Identifier: models.PackageIdentifier{Identifier: id, Version: models.NewVersion(version)},
		Name:       id,
	}
}

func setup(t *testing.T) (*Engine, *bridgetest.FakeHost, *instance.Context) {
	t.Helper()
	fake := bridgetest.NewFakeHost()
	fake.Respond(bridge.CmdChangePackages, nil)
	host, err := bridge.NewHost(fake)
	require.NoError(t, err)

	ctx := instance.NewContext()
	ctx.Select(&models.Instance{Name: "KSP1", Path: "/games/ksp"})

	e := New(host, ctx, nil)
	t.Cleanup(e.Close)
	return e, fake, ctx
}

func TestToggleSingle(t *testing.T) {
	tests := []struct {
		name   string
		toggle func(e *Engine, p models.Package) error
		want   models.Action
	}{
		{"install", (*Engine).ToggleInstall, models.Install},
		{"uninstall", (*Engine).ToggleUninstall, models.Uninstall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := setup(t)
			a := pkg("A", "1.0")

			require.NoError(t, tt.toggle(e, a))

			entries := e.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Action)
			assert.Equal(t, a.Identifier, entries[0].Identifier)
		})
	}
}

func TestCancelOut(t *testing.T) {
	t.Run("install then uninstall", func(t *testing.T) {
		e, _, _ := setup(t)
		a := pkg("A", "1.0")
		require.NoError(t, e.ToggleInstall(a))
		require.NoError(t, e.ToggleUninstall(a))
		assert.Equal(t, 0, e.Len())
	})

	t.Run("uninstall then install", func(t *testing.T) {
		e, _, _ := setup(t)
		a := pkg("A", "1.0")
		require.NoError(t, e.ToggleUninstall(a))
		require.NoError(t, e.ToggleInstall(a))
		assert.Equal(t, 0, e.Len())
	})

	t.Run("same action twice keeps one entry", func(t *testing.T) {
		e, _, _ := setup(t)
		a := pkg("A", "1.0")
		require.NoError(t, e.ToggleInstall(a))
		require.NoError(t, e.ToggleInstall(a))
		assert.Equal(t, 1, e.Len())
		action, ok := e.Action(a.Identifier)
		assert.True(t, ok)
		assert.Equal(t, models.Install, action)
	})

	t.Run("different versions are different identifiers", func(t *testing.T) {
		e, _, _ := setup(t)
		require.NoError(t, e.ToggleInstall(pkg("A", "1.0")))
		require.NoError(t, e.ToggleUninstall(pkg("A", "2.0")))
		assert.Equal(t, 2, e.Len())
	})
}

func TestUniquenessOverRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pkgs := []models.Package{pkg("A", "1"), pkg("B", "1"), pkg("C", "2")}

	for run := 0; run < 50; run++ {
		t.Run(fmt.Sprintf("run-%d", run), func(t *testing.T) {
			e, _, _ := setup(t)
			for step := 0; step < 40; step++ {
				p := pkgs[rng.Intn(len(pkgs))]
				if rng.Intn(2) == 0 {
					require.NoError(t, e.ToggleInstall(p))
				} else {
					require.NoError(t, e.ToggleUninstall(p))
				}

				seen := map[models.PackageIdentifier]int{}
				for _, entry := range e.Entries() {
					seen[entry.Identifier]++
				}
				for id, n := range seen {
					assert.Equal(t, 1, n, "duplicate entry for %s", id)
				}
				assert.LessOrEqual(t, e.Len(), len(pkgs))
			}
		})
	}
}

func TestInsertionOrder(t *testing.T) {
	e, _, _ := setup(t)
	require.NoError(t, e.ToggleInstall(pkg("C", "1")))
	require.NoError(t, e.ToggleUninstall(pkg("A", "1")))
	require.NoError(t, e.ToggleInstall(pkg("B", "1")))
	require.NoError(t, e.ToggleInstall(pkg("C", "1")))

	var order []string
	for _, entry := range e.Entries() {
		order = append(order, entry.Identifier.Identifier)
	}
	assert.Equal(t, []string{"C", "A", "B"}, order)
}

func TestCommitPartition(t *testing.T) {
	e, fake, _ := setup(t)
	a, b := pkg("A", "1.0"), pkg("B", "2.0")
	require.NoError(t, e.ToggleInstall(a))
	require.NoError(t, e.ToggleUninstall(b))

	require.NoError(t, e.Commit(context.Background()))

	calls := fake.CallsTo(bridge.CmdChangePackages)
	require.Len(t, calls, 1)
	var args bridge.ChangePackagesArgs
	require.NoError(t, calls[0].Decode(&args))
	assert.Equal(t, "KSP1", args.InstanceName)
	assert.Equal(t, []models.PackageIdentifier{a.Identifier}, args.Add)
	assert.Equal(t, []models.PackageIdentifier{b.Identifier}, args.Remove)
	assert.Equal(t, 0, e.Len())
}

func TestCommitFailureKeepsChangeset(t *testing.T) {
	e, fake, _ := setup(t)
	fake.Fail(bridge.CmdChangePackages, "dependency conflict")
	a, b := pkg("A", "1.0"), pkg("B", "2.0")
	require.NoError(t, e.ToggleInstall(a))
	require.NoError(t, e.ToggleUninstall(b))
	before := e.Entries()

	err := e.Commit(context.Background())
	require.Error(t, err)
	assert.Equal(t, bridge.CmdChangePackages, errors.CommandOf(err))
	assert.Contains(t, err.Error(), "dependency conflict")
	assert.Equal(t, before, e.Entries())

	// The user can retry once the host accepts the batch.
	fake.Respond(bridge.CmdChangePackages, nil)
	require.NoError(t, e.Commit(context.Background()))
	assert.Equal(t, 0, e.Len())
	assert.Len(t, fake.CallsTo(bridge.CmdChangePackages), 2)
}

func TestCommitEmptyStillCallsHost(t *testing.T) {
	e, fake, _ := setup(t)

	require.NoError(t, e.Commit(context.Background()))

	calls := fake.CallsTo(bridge.CmdChangePackages)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"instanceName":"KSP1","add":[],"remove":[]}`, string(calls[0].Args))
}

func TestCommitKeepsEntriesToggledInFlight(t *testing.T) {
	e, fake, _ := setup(t)
	a, b := pkg("A", "1"), pkg("B", "1")
	require.NoError(t, e.ToggleInstall(a))

	fake.Handle(bridge.CmdChangePackages, func(json.RawMessage) (any, error) {
		require.NoError(t, e.ToggleInstall(b))
		return nil, nil
	})
	require.NoError(t, e.Commit(context.Background()))

	entries := e.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, b.Identifier, entries[0].Identifier)
}

func TestNoInstance(t *testing.T) {
	e, fake, ctx := setup(t)
	ctx.Select(nil)

	err := e.ToggleInstall(pkg("A", "1"))
	assert.True(t, errors.Is(err, errors.ErrCodeNoInstance))
	err = e.ToggleUninstall(pkg("A", "1"))
	assert.True(t, errors.Is(err, errors.ErrCodeNoInstance))
	assert.Equal(t, 0, e.Len())

	err = e.Commit(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeNoInstance))
	assert.Empty(t, fake.CallsTo(bridge.CmdChangePackages))
}

func TestInstanceChangeDiscardsChangeset(t *testing.T) {
	e, _, ctx := setup(t)
	e.SetInstalled([]models.Package{pkg("A", "1")})
	require.NoError(t, e.ToggleInstall(pkg("B", "1")))

	// Reselecting the same instance keeps everything
	ctx.Select(&models.Instance{Name: "KSP1"})
	assert.Equal(t, 1, e.Len())
	assert.True(t, e.IsPackageAlreadyInstalled(pkg("A", "1").Identifier))

	ctx.Select(&models.Instance{Name: "KSP2"})
	assert.Equal(t, 0, e.Len())
	assert.False(t, e.IsPackageAlreadyInstalled(pkg("A", "1").Identifier))
}

func TestInstalledMembership(t *testing.T) {
	e, _, _ := setup(t)
	a, b := pkg("A", "1.0"), pkg("B", "1.0")
	e.SetInstalled([]models.Package{a})

	assert.True(t, e.IsPackageAlreadyInstalled(a.Identifier))
	assert.False(t, e.IsPackageAlreadyInstalled(b.Identifier))
	assert.False(t, e.IsPackageAlreadyInstalled(pkg("A", "2.0").Identifier))
	assert.True(t, e.IsIdentifierInstalled("A"))
	assert.False(t, e.IsIdentifierInstalled("B"))
}

func TestWatchAndRemove(t *testing.T) {
	e, _, _ := setup(t)
	var lens []int
	cancel := e.Watch(func(entries []models.ChangeEntry) { lens = append(lens, len(entries)) })
	defer cancel()

	a := pkg("A", "1")
	require.NoError(t, e.ToggleInstall(a))
	require.NoError(t, e.ToggleInstall(pkg("B", "1")))
	e.Remove(a.Identifier)
	e.Remove(a.Identifier)
	e.Reset()

	assert.Equal(t, []int{1, 2, 1, 0}, lens)
}

func TestPartition(t *testing.T) {
	add, remove := Partition(nil)
	assert.NotNil(t, add)
	assert.NotNil(t, remove)
	assert.Empty(t, add)
	assert.Empty(t, remove)
}
