// Package bridgetest provides an in-memory host for tests.
package bridgetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/bridge"
)

// CommandFunc serves one command. A non-nil error is reported to the caller
// as a rejection.
type CommandFunc func(args json.RawMessage) (any, error)

// Call records one command received by the fake host.
type Call struct {
	Command string
	Args    json.RawMessage
}

// Decode unmarshals the recorded arguments into v.
func (c Call) Decode(v any) error {
	return json.Unmarshal(c.Args, v)
}

// FakeHost is a scriptable Bridge. Unscripted commands are rejected.
type FakeHost struct {
	mu       sync.Mutex
	handlers map[string]CommandFunc
	calls    []Call
	subs     *bridge.Subscriptions
	closed   bool
}

// NewFakeHost returns a host with no commands scripted.
func NewFakeHost() *FakeHost {
	return &FakeHost{
		handlers: make(map[string]CommandFunc),
		subs:     bridge.NewSubscriptions(),
	}
}

// Handle scripts command with fn.
func (h *FakeHost) Handle(command string, fn CommandFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[command] = fn
}

// Respond scripts command to always return result.
func (h *FakeHost) Respond(command string, result any) {
	h.Handle(command, func(json.RawMessage) (any, error) { return result, nil })
}

// Fail scripts command to always be rejected with message.
func (h *FakeHost) Fail(command, message string) {
	h.Handle(command, func(json.RawMessage) (any, error) { return nil, fmt.Errorf("%s", message) })
}

// FailTimes rejects command n times, then returns result.
func (h *FakeHost) FailTimes(command string, n int, result any) {
	var mu sync.Mutex
	remaining := n
	h.Handle(command, func(json.RawMessage) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		if remaining > 0 {
			remaining--
			return nil, fmt.Errorf("transient failure")
		}
		return result, nil
	})
}

// Call implements bridge.Bridge.
func (h *FakeHost) Call(ctx context.Context, command string, args any) (json.RawMessage, error) {
	var raw json.RawMessage
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, errors.HostCommandError(command, "failed to encode arguments", err)
		}
		raw = data
	}

	result, err := h.Serve(command, raw)
	if err != nil {
		return nil, errors.HostCommandError(command, err.Error(), nil)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.HostCommandError(command, "no response from host", ctxErr)
	}
	return result, nil
}

// Serve records and runs one command, returning the encoded result.
func (h *FakeHost) Serve(command string, args json.RawMessage) (json.RawMessage, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, fmt.Errorf("connection closed")
	}
	h.calls = append(h.calls, Call{Command: command, Args: args})
	fn, ok := h.handlers[command]
	h.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown command %q", command)
	}
	result, err := fn(args)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	if raw, ok := result.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return data, nil
}

// Subscribe implements bridge.Bridge.
func (h *FakeHost) Subscribe(event string, handler bridge.Handler) bridge.Unsubscribe {
	return h.subs.Add(event, handler)
}

// Close implements bridge.Bridge.
func (h *FakeHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Emit pushes event to subscribers synchronously. payload is JSON-encoded
// unless it is already a json.RawMessage.
func (h *FakeHost) Emit(event string, payload any) {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		data, err := json.Marshal(payload)
		if err != nil {
			panic(fmt.Sprintf("bridgetest: encode payload for %s: %v", event, err))
		}
		raw = data
	}
	h.subs.Dispatch(event, raw)
}

// Subscribers returns the number of live handlers for event.
func (h *FakeHost) Subscribers(event string) int {
	return h.subs.Count(event)
}

// Calls returns every command received so far.
func (h *FakeHost) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

// CallsTo returns the recorded calls of one command.
func (h *FakeHost) CallsTo(command string) []Call {
	var out []Call
	for _, c := range h.Calls() {
		if c.Command == command {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (h *FakeHost) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = nil
}

var _ bridge.Bridge = (*FakeHost)(nil)
