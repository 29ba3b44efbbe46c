package bridge

import (
	"encoding/json"
	"sync"
)

type subscription struct {
	id      uint64
	handler Handler
	active  bool
}

// Subscriptions is a registry of event handlers keyed by event name. It is
// shared by every Bridge implementation.
type Subscriptions struct {
	mu     sync.Mutex
	nextID uint64
	byName map[string][]*subscription
}

// NewSubscriptions returns an empty registry.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{byName: make(map[string][]*subscription)}
}

// Add registers handler for event.
func (s *Subscriptions) Add(event string, handler Handler) Unsubscribe {
	s.mu.Lock()
	s.nextID++
	sub := &subscription{id: s.nextID, handler: handler, active: true}
	s.byName[event] = append(s.byName[event], sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(event, sub) })
	}
}

func (s *Subscriptions) remove(event string, sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.active = false
	subs := s.byName[event]
	for i, other := range subs {
		if other == sub {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(s.byName, event)
	} else {
		s.byName[event] = subs
	}
}

// Dispatch delivers payload to every handler registered for event, in
// registration order. A handler removed while dispatch is running is skipped
// if dispatch has not reached it yet. A call that already started is not
// interrupted, so owners guard their own state against a late call.
func (s *Subscriptions) Dispatch(event string, payload json.RawMessage) {
	s.mu.Lock()
	subs := append([]*subscription(nil), s.byName[event]...)
	s.mu.Unlock()

	for _, sub := range subs {
		s.mu.Lock()
		active := sub.active
		s.mu.Unlock()
		if active {
			sub.handler(payload)
		}
	}
}

// Count returns the number of handlers registered for event.
func (s *Subscriptions) Count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byName[event])
}
