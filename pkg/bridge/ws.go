package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/profiling"
	"github.com/grovetools/ckanconsole/version"
	"github.com/sirupsen/logrus"
)

// DefaultCommandTimeout bounds a call whose context carries no deadline.
const DefaultCommandTimeout = 30 * time.Second

const eventQueueSize = 256

type pendingCall struct {
	command string
	ch      chan Envelope
}

// WSBridge implements Bridge over a WebSocket connection to the host.
type WSBridge struct {
	url     string
	conn    *websocket.Conn
	logger  *logrus.Entry
	timeout time.Duration
	subs    *Subscriptions

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]pendingCall
	closed  bool
	err     error

	events chan Envelope
	done   chan struct{}
}

// Option configures a WSBridge.
type Option func(*WSBridge)

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(logger *logrus.Entry) Option {
	return func(b *WSBridge) { b.logger = logger }
}

// WithCommandTimeout sets the deadline applied to calls whose context has none.
func WithCommandTimeout(d time.Duration) Option {
	return func(b *WSBridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// Dial connects to the host bridge at url.
func Dial(ctx context.Context, url string, opts ...Option) (*WSBridge, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{
		"User-Agent": []string{version.GetInfo().UserAgent()},
	})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, errors.HostUnreachable(url, err)
	}
	return newWSBridge(url, conn, opts...), nil
}

func newWSBridge(url string, conn *websocket.Conn, opts ...Option) *WSBridge {
	b := &WSBridge{
		url:     url,
		conn:    conn,
		logger:  logrus.NewEntry(logrus.StandardLogger()),
		timeout: DefaultCommandTimeout,
		subs:    NewSubscriptions(),
		pending: make(map[string]pendingCall),
		events:  make(chan Envelope, eventQueueSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.readLoop()
	go b.dispatchLoop()
	return b
}

// Call sends command to the host and waits for the matching response.
func (b *WSBridge) Call(ctx context.Context, command string, args any) (json.RawMessage, error) {
	defer profiling.Start("host " + command).Stop()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	var rawArgs json.RawMessage
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, errors.HostCommandError(command, "failed to encode arguments", err)
		}
		rawArgs = data
	}

	id := uuid.NewString()
	ch := make(chan Envelope, 1)

	b.mu.Lock()
	if b.closed {
		err := b.err
		b.mu.Unlock()
		return nil, errors.HostCommandError(command, "connection closed", err)
	}
	b.pending[id] = pendingCall{command: command, ch: ch}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	start := time.Now()
	b.logger.WithFields(logrus.Fields{"command": command, "id": id}).Debug("Sending host command")

	if err := b.write(Envelope{Kind: KindRequest, ID: id, Command: command, Args: rawArgs}); err != nil {
		return nil, errors.HostCommandError(command, "failed to send command", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			b.mu.Lock()
			err := b.err
			b.mu.Unlock()
			return nil, errors.HostCommandError(command, "connection lost", err)
		}
		b.logger.WithFields(logrus.Fields{
			"command":  command,
			"id":       id,
			"ok":       resp.OK,
			"duration": time.Since(start),
		}).Debug("Host command finished")
		if !resp.OK {
			msg := resp.Error
			if msg == "" {
				msg = "command rejected"
			}
			return nil, errors.HostCommandError(command, msg, nil)
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, errors.HostCommandError(command, "no response from host", ctx.Err())
	}
}

// Subscribe registers handler for event. Handlers run on the bridge's
// dispatch goroutine, in the order events arrived.
func (b *WSBridge) Subscribe(event string, handler Handler) Unsubscribe {
	return b.subs.Add(event, handler)
}

// Done is closed when the connection has terminated.
func (b *WSBridge) Done() <-chan struct{} {
	return b.done
}

// Close closes the connection. Pending calls fail with a connection error.
func (b *WSBridge) Close() error {
	b.writeMu.Lock()
	_ = b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	b.writeMu.Unlock()

	err := b.conn.Close()
	<-b.done
	return err
}

func (b *WSBridge) write(env Envelope) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteJSON(env)
}

func (b *WSBridge) readLoop() {
	defer close(b.events)

	for {
		var env Envelope
		if err := b.conn.ReadJSON(&env); err != nil {
			b.fail(err)
			return
		}

		switch env.Kind {
		case KindResponse:
			b.mu.Lock()
			call, ok := b.pending[env.ID]
			if ok {
				delete(b.pending, env.ID)
			}
			b.mu.Unlock()
			if !ok {
				b.logger.WithField("id", env.ID).Debug("Dropping response for unknown or abandoned call")
				continue
			}
			call.ch <- env
		case KindEvent:
			b.events <- env
		default:
			b.logger.WithField("kind", env.Kind).Warn("Ignoring unknown envelope kind")
		}
	}
}

func (b *WSBridge) dispatchLoop() {
	defer close(b.done)
	for env := range b.events {
		b.subs.Dispatch(env.Event, env.Payload)
	}
}

// fail marks the connection closed and fails every pending call.
func (b *WSBridge) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		err = fmt.Errorf("host closed the connection")
	} else {
		b.logger.WithError(err).Debug("Host connection ended")
	}
	b.closed = true
	b.err = err
	for id, call := range b.pending {
		close(call.ch)
		delete(b.pending, id)
	}
}

var _ Bridge = (*WSBridge)(nil)
