package errors

import "fmt"

// HostCommandError creates the error reported when the host rejects a
// command or cannot be reached while serving it.
func HostCommandError(command, message string, cause error) *ConsoleError {
	return Wrap(cause, ErrCodeHostCommand, message).
		WithDetail("command", command)
}

// HostUnreachable creates an error for a host connection that could not be
// established or was lost.
func HostUnreachable(url string, cause error) *ConsoleError {
	return Wrap(cause, ErrCodeHostUnreachable, fmt.Sprintf("host unreachable at %s", url)).
		WithDetail("url", url)
}

// InvalidPayload creates an error for a host response or event that failed
// boundary validation.
func InvalidPayload(source string, cause error) *ConsoleError {
	return Wrap(cause, ErrCodeInvalidPayload, fmt.Sprintf("invalid payload from %s", source)).
		WithDetail("source", source)
}

// NoInstance is returned by package operations attempted before an
// instance has been selected.
func NoInstance() *ConsoleError {
	return New(ErrCodeNoInstance, "no instance selected")
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *ConsoleError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *ConsoleError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// InvalidInput creates an error for user input rejected before reaching the host.
func InvalidInput(field, reason string) *ConsoleError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("%s: %s", field, reason)).
		WithDetail("field", field)
}

// CommandOf returns the host command name carried by a HostCommandError,
// or "" when err is not one.
func CommandOf(err error) string {
	ce, ok := As(err)
	if !ok || ce.Code != ErrCodeHostCommand {
		return ""
	}
	cmd, _ := ce.Details["command"].(string)
	return cmd
}
