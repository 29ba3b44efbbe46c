// Package console assembles the host bridge, the shared state holders and
// the screen views into one running console.
package console

import (
	"context"
	"sync"

	"github.com/grovetools/ckanconsole/config"
	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/logging"
	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/grovetools/ckanconsole/pkg/changeset"
	"github.com/grovetools/ckanconsole/pkg/instance"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/grovetools/ckanconsole/pkg/views"
	"github.com/grovetools/ckanconsole/state"
	"github.com/sirupsen/logrus"
)

// Console owns every long-lived component. The view of the active screen
// is mounted; the others are torn down.
type Console struct {
	Config    *config.Config
	Bridge    bridge.Bridge
	Host      *bridge.Host
	Instances *instance.Context
	Router    *router.Router
	Engine    *changeset.Engine

	Selector  *views.InstanceSelector
	Creator   *views.InstanceCreator
	Installer *views.PackageInstaller
	Detail    *views.PackageDetail

	logger  *logrus.Entry
	persist bool

	mu         sync.Mutex
	stops      []func()
	closed     bool
	restored   string
	lastScreen router.Screen
}

// Dial connects to the host named in cfg and builds a console over it.
// Read commands are retried according to cfg.Retry.
func Dial(ctx context.Context, cfg *config.Config) (*Console, error) {
	logger := logging.NewLogger("console")

	ws, err := bridge.Dial(ctx, cfg.Host.URL,
		bridge.WithLogger(logging.NewLogger("bridge")),
		bridge.WithCommandTimeout(cfg.CommandTimeout()),
	)
	if err != nil {
		return nil, err
	}

	initial, max := cfg.RetryIntervals()
	b := bridge.WithRetry(ws, bridge.RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: initial,
		MaxInterval:     max,
	}, logger)

	c, err := New(b, cfg, logger)
	if err != nil {
		ws.Close()
		return nil, err
	}
	return c, nil
}

// New builds a console over an existing bridge.
func New(b bridge.Bridge, cfg *config.Config, logger *logrus.Entry) (*Console, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	host, err := bridge.NewHost(b)
	if err != nil {
		return nil, err
	}

	start, err := router.ParseScreen(cfg.UI.StartScreen)
	if err != nil {
		start = router.InstanceSelector
	}

	c := &Console{
		Config:    cfg,
		Bridge:    b,
		Host:      host,
		Instances: instance.NewContext(),
		Router:    router.New(start),
		logger:    logger,
		persist:   cfg.ShouldRememberSelection(),
	}
	c.Engine = changeset.New(host, c.Instances, logger.WithField("component", "changeset"))

	deps := views.Deps{
		Host:      host,
		Instances: c.Instances,
		Router:    c.Router,
		Logger:    logger,
	}
	c.Selector = views.NewInstanceSelector(deps)
	c.Creator = views.NewInstanceCreator(deps)
	c.Installer = views.NewPackageInstaller(deps, c.Engine)
	c.Detail = views.NewPackageDetail(deps)

	if c.persist {
		if f, err := state.Load(); err == nil {
			c.restored = f.UI.LastInstance
			c.lastScreen = router.Screen(f.UI.LastScreen)
		} else {
			logger.WithError(err).Debug("Ignoring unreadable state file")
		}
	}

	c.stops = append(c.stops,
		c.Router.Watch(c.screenChanged),
		c.Instances.Watch(c.instanceChanged),
		c.Engine.Close,
	)

	c.Detail.Mount()
	c.viewFor(c.Router.Current()).Mount()
	return c, nil
}

// Start restores the last selected instance when it still exists, reopens
// the package installer if that was the last screen, and loads the data of
// the active screen.
func (c *Console) Start(ctx context.Context) error {
	if c.Restore(ctx) && c.lastScreen == router.PackageInstaller {
		_ = c.Router.Navigate(router.PackageInstaller)
	}
	return c.Load(ctx)
}

// Restore selects the instance remembered from the last run, if any and if
// it still exists. It reports whether an instance was restored.
func (c *Console) Restore(ctx context.Context) bool {
	if c.restored == "" || c.Instances.HasInstance() {
		return false
	}
	if _, err := c.SelectInstance(ctx, c.restored); err != nil {
		c.logger.WithError(err).WithField("instance", c.restored).Debug("Could not restore last instance")
		return false
	}
	return true
}

// Load refreshes the data shown by the active screen.
func (c *Console) Load(ctx context.Context) error {
	switch c.Router.Current() {
	case router.InstanceSelector:
		return c.Selector.Load(ctx)
	case router.PackageInstaller:
		return c.Installer.Load(ctx)
	}
	return nil
}

// ActiveView returns the view of the active screen.
func (c *Console) ActiveView() views.View {
	return c.viewFor(c.Router.Current())
}

// SelectInstance selects name from the loaded instance list, asking the
// host again when the list is empty or does not contain it.
func (c *Console) SelectInstance(ctx context.Context, name string) (models.Instance, error) {
	if _, ok := models.FindInstance(c.Selector.Instances(), name); ok {
		if err := c.Selector.Select(name); err != nil {
			return models.Instance{}, err
		}
		return *c.Instances.Current(), nil
	}

	instances, err := c.Host.Instances(ctx)
	if err != nil {
		return models.Instance{}, err
	}
	inst, ok := models.FindInstance(instances, name)
	if !ok {
		return models.Instance{}, errors.InvalidInput("instance", "no instance named "+name)
	}
	if c.Selector.Alive() {
		if err := c.Selector.Load(ctx); err != nil {
			c.logger.WithError(err).Debug("Failed to refresh instance list")
		}
	}
	c.Instances.Select(&inst)
	return inst, nil
}

// Close tears down every view and closes the bridge.
func (c *Console) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	stops := c.stops
	c.stops = nil
	c.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	c.Selector.Teardown()
	c.Creator.Teardown()
	c.Installer.Teardown()
	c.Detail.Teardown()
	return c.Bridge.Close()
}

func (c *Console) viewFor(s router.Screen) views.View {
	switch s {
	case router.InstanceCreator:
		return c.Creator
	case router.PackageInstaller:
		return c.Installer
	default:
		return c.Selector
	}
}

func (c *Console) screenChanged(t router.Transition) {
	c.viewFor(t.From).Teardown()
	c.viewFor(t.To).Mount()
	c.logger.WithFields(logrus.Fields{"from": t.From, "to": t.To}).Debug("Screen changed")

	if c.persist {
		if err := state.RememberScreen(string(t.To)); err != nil {
			c.logger.WithError(err).Debug("Failed to persist last screen")
		}
	}
}

func (c *Console) instanceChanged(inst *models.Instance) {
	if !c.persist {
		return
	}
	name := ""
	if inst != nil {
		name = inst.Name
	}
	if err := state.RememberInstance(name); err != nil {
		c.logger.WithError(err).Debug("Failed to persist last instance")
	}
}
