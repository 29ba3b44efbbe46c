// Package bridge is the console's channel to the host process. Commands are
// one-shot request/response calls; events are named pushes from the host
// delivered to subscribers.
package bridge

import (
	"context"
	"encoding/json"
)

// Host command names.
const (
	CmdGetInstances          = "get_instances"
	CmdCreateInstance        = "create_instance"
	CmdSelectDirectory       = "select_directory"
	CmdGetCompatiblePackages = "get_compatiable_packages"
	CmdGetInstalledPackages  = "get_installed_packages"
	CmdChangePackages        = "change_packages"
	CmdOpenPackageDetail     = "open_package_detail_window"
)

// EventShowModDetail is pushed by the host with the description of one package.
const EventShowModDetail = "show-mod-detail"

// Handler receives the raw payload of one event.
type Handler func(payload json.RawMessage)

// Unsubscribe stops delivery to a handler. It is safe to call more than once,
// including from inside the handler, and does not wait for a call that is
// already running.
type Unsubscribe func()

// Bridge defines the operations the console needs from the host.
type Bridge interface {
	// Call sends a command and waits for its result. Failures are returned
	// as *errors.ConsoleError with code HOST_COMMAND; Call never panics.
	Call(ctx context.Context, command string, args any) (json.RawMessage, error)

	// Subscribe registers handler for every future occurrence of event.
	// Events for one name are delivered in the order the host sent them.
	Subscribe(event string, handler Handler) Unsubscribe

	// Close releases the connection. Pending calls fail.
	Close() error
}
