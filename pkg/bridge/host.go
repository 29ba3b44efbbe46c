package bridge

import (
	"context"
	"encoding/json"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/schema"
)

// CreateInstanceArgs are the arguments of create_instance.
type CreateInstanceArgs struct {
	Name               string `json:"name"`
	InstanceRoot       string `json:"instanceRoot"`
	InstanceDeployment string `json:"instanceDeployment"`
}

// SelectDirectoryArgs are the arguments of select_directory.
type SelectDirectoryArgs struct {
	Event string `json:"event"`
}

// InstanceArgs names the instance a command applies to.
type InstanceArgs struct {
	InstanceName string `json:"instanceName"`
}

// ChangePackagesArgs are the arguments of change_packages.
type ChangePackagesArgs struct {
	InstanceName string                     `json:"instanceName"`
	Add          []models.PackageIdentifier `json:"add"`
	Remove       []models.PackageIdentifier `json:"remove"`
}

// PackageDetailArgs are the arguments of open_package_detail_window.
type PackageDetailArgs struct {
	Package models.Package `json:"package"`
}

// Host is a typed client over a Bridge. Every response is validated before
// it is decoded into the model.
type Host struct {
	bridge   Bridge
	payloads *schema.Payloads
}

// NewHost creates a typed client over b.
func NewHost(b Bridge) (*Host, error) {
	payloads, err := schema.DefaultPayloads()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to compile payload schemas")
	}
	return &Host{bridge: b, payloads: payloads}, nil
}

// Bridge returns the underlying bridge.
func (h *Host) Bridge() Bridge {
	return h.bridge
}

// Instances returns every instance known to the host.
func (h *Host) Instances(ctx context.Context) ([]models.Instance, error) {
	var instances []models.Instance
	if err := h.query(ctx, CmdGetInstances, nil, schema.PayloadInstances, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

// CreateInstance registers a new instance with the host.
func (h *Host) CreateInstance(ctx context.Context, args CreateInstanceArgs) error {
	_, err := h.bridge.Call(ctx, CmdCreateInstance, args)
	return err
}

// SelectDirectory asks the host to open a directory dialog. The result
// arrives later as the named event.
func (h *Host) SelectDirectory(ctx context.Context, event string) error {
	_, err := h.bridge.Call(ctx, CmdSelectDirectory, SelectDirectoryArgs{Event: event})
	return err
}

// CompatiblePackages returns the packages compatible with the host's game version.
func (h *Host) CompatiblePackages(ctx context.Context) ([]models.Package, error) {
	var pkgs []models.Package
	if err := h.query(ctx, CmdGetCompatiblePackages, nil, schema.PayloadPackages, &pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// InstalledPackages returns the packages installed in the named instance.
func (h *Host) InstalledPackages(ctx context.Context, instanceName string) ([]models.Package, error) {
	var pkgs []models.Package
	args := InstanceArgs{InstanceName: instanceName}
	if err := h.query(ctx, CmdGetInstalledPackages, args, schema.PayloadPackages, &pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// ChangePackages submits one batch of installs and removals.
func (h *Host) ChangePackages(ctx context.Context, args ChangePackagesArgs) error {
	if args.Add == nil {
		args.Add = []models.PackageIdentifier{}
	}
	if args.Remove == nil {
		args.Remove = []models.PackageIdentifier{}
	}
	_, err := h.bridge.Call(ctx, CmdChangePackages, args)
	return err
}

// OpenPackageDetail asks the host to show the detail surface for pkg.
func (h *Host) OpenPackageDetail(ctx context.Context, pkg models.Package) error {
	_, err := h.bridge.Call(ctx, CmdOpenPackageDetail, PackageDetailArgs{Package: pkg})
	return err
}

// DecodeDirectory validates a directory-selected payload. ok is false when
// the dialog was cancelled.
func (h *Host) DecodeDirectory(raw json.RawMessage) (path string, ok bool, err error) {
	if err := h.payloads.Validate(schema.PayloadDirectory, raw); err != nil {
		return "", false, errors.InvalidPayload(schema.PayloadDirectory, err)
	}
	var p *string
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", false, errors.InvalidPayload(schema.PayloadDirectory, err)
	}
	if p == nil {
		return "", false, nil
	}
	return *p, true, nil
}

// DecodePackageDetail validates a show-mod-detail payload.
func (h *Host) DecodePackageDetail(raw json.RawMessage) (models.PackageDetail, error) {
	if err := h.payloads.Validate(schema.PayloadPackageDetail, raw); err != nil {
		return nil, errors.InvalidPayload(EventShowModDetail, err)
	}
	var detail models.PackageDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, errors.InvalidPayload(EventShowModDetail, err)
	}
	return detail, nil
}

func (h *Host) query(ctx context.Context, command string, args any, payload string, out any) error {
	raw, err := h.bridge.Call(ctx, command, args)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := h.payloads.Validate(payload, raw); err != nil {
		return errors.InvalidPayload(command, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.InvalidPayload(command, err)
	}
	return nil
}
