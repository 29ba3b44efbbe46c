package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/logging"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	pretty  *logging.PrettyLogger
	out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return NewErrorHandlerTo(os.Stderr, verbose)
}

// NewErrorHandlerTo creates an error handler writing to w
func NewErrorHandlerTo(w io.Writer, verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		pretty:  logging.NewPrettyLogger().WithWriter(w),
		out:     w,
	}
}

// Handle prints a hint for the error's code and returns err unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	ce, _ := errors.As(err)
	switch errors.GetCode(err) {
	case errors.ErrCodeNoInstance:
		h.pretty.ErrorPretty("No instance selected", nil)
		h.pretty.Hint("Pass --instance or pick one with 'ckan-console instances --select <name>'")

	case errors.ErrCodeHostUnreachable:
		h.pretty.ErrorPretty("Cannot reach the host", ce.Cause)
		h.pretty.Hint("Check that the host is running and listening on %v", ce.Details["url"])

	case errors.ErrCodeHostCommand:
		h.pretty.ErrorPretty(fmt.Sprintf("Host command %q failed", errors.CommandOf(err)), fmt.Errorf("%s", ce.Message))

	case errors.ErrCodeInvalidPayload:
		h.pretty.ErrorPretty("The host sent a response the console does not understand", ce.Cause)

	case errors.ErrCodeConfigNotFound:
		h.pretty.ErrorPretty(fmt.Sprintf("Configuration not found: %v", ce.Details["path"]), nil)

	case errors.ErrCodeConfigInvalid:
		h.pretty.ErrorPretty(ce.Message, ce.Cause)
		h.pretty.Hint("Run 'ckan-console config validate' for details")

	case errors.ErrCodeInvalidInput:
		h.pretty.ErrorPretty(ce.Message, nil)

	default:
		h.pretty.ErrorPretty("Error", err)
	}

	if h.Verbose && ce != nil {
		fmt.Fprintf(h.out, "\nError details:\n%s\n", ce.ToJSON())
	}
	return err
}
