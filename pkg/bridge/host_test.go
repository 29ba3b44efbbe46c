package bridge_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/grovetools/ckanconsole/pkg/bridge/bridgetest"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHost(t *testing.T) (*bridge.Host, *bridgetest.FakeHost) {
	t.Helper()
	fake := bridgetest.NewFakeHost()
	h, err := bridge.NewHost(fake)
	require.NoError(t, err)
	return h, fake
}

func TestHostInstances(t *testing.T) {
	h, fake := newHost(t)
	fake.Respond(bridge.CmdGetInstances, json.RawMessage(`[
		{"name": "KSP1", "path": "/games/ksp", "deployment_dir": "/games/ksp/GameData"}
	]`))

	instances, err := h.Instances(context.Background())
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, models.Instance{Name: "KSP1", Path: "/games/ksp", DeploymentPath: "/games/ksp/GameData"}, instances[0])
}

func TestHostRejectsInvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		command string
		raw     string
		call    func(h *bridge.Host) error
	}{
		{
			name:    "instances not an array",
			command: bridge.CmdGetInstances,
			raw:     `{"name": "KSP1"}`,
			call: func(h *bridge.Host) error {
				_, err := h.Instances(context.Background())
				return err
			},
		},
		{
			name:    "package without identifier",
			command: bridge.CmdGetCompatiblePackages,
			raw:     `[{"name": "Mechjeb"}]`,
			call: func(h *bridge.Host) error {
				_, err := h.CompatiblePackages(context.Background())
				return err
			},
		},
		{
			name:    "version of the wrong type",
			command: bridge.CmdGetInstalledPackages,
			raw:     `[{"identifier": {"identifier": "A", "version": 3}, "name": "A"}]`,
			call: func(h *bridge.Host) error {
				_, err := h.InstalledPackages(context.Background(), "KSP1")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fake := newHost(t)
			fake.Respond(tt.command, json.RawMessage(tt.raw))

			err := tt.call(h)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidPayload))
		})
	}
}

func TestHostPackagesAcceptBothVersionForms(t *testing.T) {
	h, fake := newHost(t)
	fake.Respond(bridge.CmdGetCompatiblePackages, json.RawMessage(`[
		{"identifier": {"identifier": "A", "version": "1.0"}, "name": "Pkg A", "author": ["x"]},
		{"identifier": {"identifier": "B", "version": {"epoch": 1, "version": "2.0"}}, "name": "Pkg B", "download_size": 1024}
	]`))

	pkgs, err := h.CompatiblePackages(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, models.PackageIdentifier{Identifier: "A", Version: models.NewVersion("1.0")}, pkgs[0].Identifier)
	assert.Equal(t, models.PackageIdentifier{Identifier: "B", Version: models.EpochVersion(1, "2.0")}, pkgs[1].Identifier)
	assert.Contains(t, pkgs[1].Extra, "download_size")
}

func TestHostCommandArgs(t *testing.T) {
	h, fake := newHost(t)
	fake.Respond(bridge.CmdGetInstalledPackages, []models.Package{})
	fake.Respond(bridge.CmdChangePackages, nil)
	fake.Respond(bridge.CmdCreateInstance, nil)
	fake.Respond(bridge.CmdSelectDirectory, nil)
	ctx := context.Background()

	_, err := h.InstalledPackages(ctx, "KSP1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"instanceName":"KSP1"}`, string(fake.CallsTo(bridge.CmdGetInstalledPackages)[0].Args))

	require.NoError(t, h.ChangePackages(ctx, bridge.ChangePackagesArgs{InstanceName: "KSP1"}))
	assert.JSONEq(t, `{"instanceName":"KSP1","add":[],"remove":[]}`, string(fake.CallsTo(bridge.CmdChangePackages)[0].Args))

	require.NoError(t, h.CreateInstance(ctx, bridge.CreateInstanceArgs{Name: "KSP2", InstanceRoot: "/r", InstanceDeployment: "/d"}))
	assert.JSONEq(t, `{"name":"KSP2","instanceRoot":"/r","instanceDeployment":"/d"}`, string(fake.CallsTo(bridge.CmdCreateInstance)[0].Args))

	require.NoError(t, h.SelectDirectory(ctx, "path-directory-selected"))
	assert.JSONEq(t, `{"event":"path-directory-selected"}`, string(fake.CallsTo(bridge.CmdSelectDirectory)[0].Args))
}

func TestHostCommandArgsKeepVersionForm(t *testing.T) {
	h, fake := newHost(t)
	fake.Respond(bridge.CmdGetCompatiblePackages, json.RawMessage(`[
		{"identifier": {"identifier": "Kopernicus", "version": {"epoch": 2, "version": "1.0"}}, "name": "Kopernicus"},
		{"identifier": {"identifier": "MechJeb2", "version": "2.14"}, "name": "MechJeb 2"}
	]`))
	fake.Respond(bridge.CmdChangePackages, nil)
	fake.Respond(bridge.CmdOpenPackageDetail, nil)
	ctx := context.Background()

	pkgs, err := h.CompatiblePackages(ctx)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)

	require.NoError(t, h.ChangePackages(ctx, bridge.ChangePackagesArgs{
		InstanceName: "KSP1",
		Add:          []models.PackageIdentifier{pkgs[0].Identifier},
		Remove:       []models.PackageIdentifier{pkgs[1].Identifier},
	}))
	assert.JSONEq(t, `{
		"instanceName": "KSP1",
		"add": [{"identifier": "Kopernicus", "version": {"epoch": 2, "version": "1.0"}}],
		"remove": [{"identifier": "MechJeb2", "version": "2.14"}]
	}`, string(fake.CallsTo(bridge.CmdChangePackages)[0].Args))

	require.NoError(t, h.OpenPackageDetail(ctx, pkgs[0]))
	var args struct {
		Package struct {
			Identifier json.RawMessage `json:"identifier"`
		} `json:"package"`
	}
	require.NoError(t, json.Unmarshal(fake.CallsTo(bridge.CmdOpenPackageDetail)[0].Args, &args))
	assert.JSONEq(t, `{"identifier": "Kopernicus", "version": {"epoch": 2, "version": "1.0"}}`, string(args.Package.Identifier))
}

func TestDecodeDirectory(t *testing.T) {
	h, _ := newHost(t)

	path, ok, err := h.DecodeDirectory(json.RawMessage(`"/games/ksp"`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/games/ksp", path)

	_, ok, err = h.DecodeDirectory(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = h.DecodeDirectory(json.RawMessage(`42`))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPayload))
}

func TestDecodePackageDetail(t *testing.T) {
	h, _ := newHost(t)

	detail, err := h.DecodePackageDetail(json.RawMessage(`{"name": "MechJeb", "license": null}`))
	require.NoError(t, err)
	assert.Equal(t, "MechJeb", detail["name"])

	_, err = h.DecodePackageDetail(json.RawMessage(`["not", "an", "object"]`))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPayload))
}
