package views

import (
	"encoding/json"

	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/observe"
	"github.com/sirupsen/logrus"
)

// PackageDetail shows the description the host pushes with show-mod-detail.
type PackageDetail struct {
	base
	deps   Deps
	logger *logrus.Entry

	detail   models.PackageDetail
	watchers observe.List[models.PackageDetail]
}

// NewPackageDetail creates the detail view.
func NewPackageDetail(deps Deps) *PackageDetail {
	return &PackageDetail{deps: deps, logger: deps.logger("package-detail")}
}

// Mount subscribes to show-mod-detail until Teardown.
func (v *PackageDetail) Mount() {
	if v.Alive() {
		return
	}
	unsubscribe := v.deps.Host.Bridge().Subscribe(bridge.EventShowModDetail, v.handle)
	v.own(unsubscribe)
	v.base.Mount()
}

func (v *PackageDetail) handle(payload json.RawMessage) {
	detail, err := v.deps.Host.DecodePackageDetail(payload)
	if err != nil {
		v.logger.WithError(err).Warn("Ignoring malformed package detail")
		v.setStatus(errorText(err))
		return
	}
	if v.whileAlive(func() { v.detail = detail }) {
		v.watchers.Notify(detail)
	}
}

// Watch calls fn with every description received while the view is live.
func (v *PackageDetail) Watch(fn func(models.PackageDetail)) (cancel func()) {
	return v.watchers.Add(fn)
}

// Detail returns the last received description.
func (v *PackageDetail) Detail() models.PackageDetail {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.detail
}

// Rows returns the description as sorted property/value rows.
func (v *PackageDetail) Rows() []models.DetailRow {
	return v.Detail().Rows()
}
