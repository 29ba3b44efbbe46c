// Package picker correlates a "select a directory" request with the named
// event the host answers it with.
package picker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/sirupsen/logrus"
)

// EventName returns the result event for a picker field, for example
// EventName("path") == "path-directory-selected".
func EventName(field string) string {
	return field + "-directory-selected"
}

// Session tracks the selected directory for one field. A Session is
// subscribed from New until Close; two sessions open at the same time must
// use different event names.
type Session struct {
	host      *bridge.Host
	eventName string
	logger    *logrus.Entry

	mu       sync.Mutex
	value    string
	closed   bool
	onChange func(string)

	unsubscribe bridge.Unsubscribe
}

// New creates a session and subscribes it to eventName.
func New(host *bridge.Host, eventName string, logger *logrus.Entry) *Session {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Session{
		host:      host,
		eventName: eventName,
		logger:    logger.WithField("picker", eventName),
	}
	s.unsubscribe = host.Bridge().Subscribe(eventName, s.handle)
	return s
}

// EventName returns the event this session listens to.
func (s *Session) EventName() string {
	return s.eventName
}

// Open asks the host to show a directory dialog. It returns once the host
// has accepted the request; the selection arrives later.
func (s *Session) Open(ctx context.Context) error {
	return s.host.SelectDirectory(ctx, s.eventName)
}

// Value returns the most recently selected or typed directory.
func (s *Session) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the value, as when the user types a path by hand. The
// OnChange callback is not called for values set here.
func (s *Session) Set(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.value = v
	}
}

// OnChange registers fn to be called with each directory chosen in the host
// dialog. Passing nil removes it.
func (s *Session) OnChange(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Close unsubscribes the session. After Close returns the value no longer
// changes, even if the host delivers a late event.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.onChange = nil
	s.mu.Unlock()

	s.unsubscribe()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) handle(payload json.RawMessage) {
	path, ok, err := s.host.DecodeDirectory(payload)
	if err != nil {
		s.logger.WithError(err).Warn("Ignoring malformed directory selection")
		return
	}
	if !ok {
		s.logger.Debug("Directory dialog cancelled")
		return
	}
	s.update(path)
}

func (s *Session) update(v string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.value = v
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(v)
	}
}
