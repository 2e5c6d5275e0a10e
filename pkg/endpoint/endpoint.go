// Package endpoint implements the connection-local endpoint that owns one
// transport and one protocol stack, receives read and timeout events, and
// dispatches fully parsed application messages to a handler.
package endpoint

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/leemit/actor-framework/internal/metrics"
	"github.com/leemit/actor-framework/pkg/netbuf"
	"github.com/leemit/actor-framework/pkg/proto"
	"github.com/leemit/actor-framework/pkg/transport"
)

// Handler consumes the application messages an endpoint produces.
type Handler[M any] interface {
	Handle(msg M)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc[M any] func(M)

// Handle calls f.
func (f HandlerFunc[M]) Handle(msg M) { f(msg) }

// Endpoint routes bytes between one transport and one protocol stack and
// dispatches parsed messages to its handler.
//
// An endpoint is single-threaded: the runtime delivering its events must
// serialize ReadEvent, TimeoutEvent and all writes on one execution
// context.
type Endpoint[M any] struct {
	id      uuid.UUID
	tp      transport.Transport
	stack   *proto.Stack[M]
	handler Handler[M]
	timer   Timer
	log     logrus.FieldLogger
	metrics *metrics.Endpoint
}

// Option configures an Endpoint.
type Option[M any] func(*Endpoint[M])

// WithLogger sets the endpoint's logger.
func WithLogger[M any](log logrus.FieldLogger) Option[M] {
	return func(e *Endpoint[M]) { e.log = log }
}

// WithTimer sets the timer collaborator timeouts are scheduled through.
func WithTimer[M any](t Timer) Option[M] {
	return func(e *Endpoint[M]) { e.timer = t }
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics[M any](m *metrics.Endpoint) Option[M] {
	return func(e *Endpoint[M]) { e.metrics = m }
}

// New constructs an endpoint over tp and stack, dispatching to h. Without
// WithTimer, timeouts fire through time.AfterFunc directly back into
// TimeoutEvent; runtimes serializing events must supply their own timer.
func New[M any](tp transport.Transport, stack *proto.Stack[M], h Handler[M], opts ...Option[M]) *Endpoint[M] {
	e := &Endpoint[M]{
		id:      uuid.New(),
		tp:      tp,
		stack:   stack,
		handler: h,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logrus.StandardLogger().WithField("endpoint", e.id.String()[:8])
	}
	if e.timer == nil {
		e.timer = &afterFuncTimer[M]{ep: e}
	}
	return e
}

// ID returns the endpoint's identity.
func (e *Endpoint[M]) ID() uuid.UUID { return e.id }

// Transport returns the owned transport.
func (e *Endpoint[M]) Transport() transport.Transport { return e.tp }

// ReadEvent refills the receive buffer and feeds it through the stack. A
// produced message is handed to the handler; a deferred, stale or
// malformed read is returned as an error without tearing the endpoint
// down.
func (e *Endpoint[M]) ReadEvent() error {
	msg, err := transport.ReadMessage(e.tp, e, e.stack)
	if err != nil {
		if e.metrics != nil && err == proto.ErrDeferred {
			e.metrics.Deferred.Inc()
		}
		return err
	}
	e.Deliver(msg)
	return nil
}

// TimeoutEvent re-enters the stack with a timeout message previously armed
// via SetTimeout. A released message is handed to the handler.
func (e *Endpoint[M]) TimeoutEvent(msg any) error {
	if e.metrics != nil {
		e.metrics.TimeoutsFired.Inc()
	}
	m, err := e.stack.Timeout(e, msg)
	if err != nil {
		return err
	}
	e.Deliver(m)
	return nil
}

// WriteEvent transmits the send buffer.
func (e *Endpoint[M]) WriteEvent() error {
	return e.tp.WriteSome()
}

// Flush transmits the send buffer. Write handles do not flush on their
// own; sending is always explicit.
func (e *Endpoint[M]) Flush() error {
	return e.tp.WriteSome()
}

// WrBuf reserves every layer's header at the end of the send buffer, with
// hw producing the innermost application header, and returns a handle
// positioned past the reserved headers so the caller can append payload.
func (e *Endpoint[M]) WrBuf(hw proto.HeaderWriter) (WriteHandle, error) {
	buf := e.tp.WrBuf()
	n, err := e.stack.WriteHeader(buf, hw)
	if err != nil {
		return WriteHandle{}, err
	}
	return WriteHandle{Buf: buf, HeaderOffset: n}, nil
}

// SetTimeout schedules msg for redelivery through TimeoutEvent after d.
// Part of the proto.Dispatcher contract.
func (e *Endpoint[M]) SetTimeout(d time.Duration, msg any) {
	e.timer.Schedule(d, msg)
}

// Deliver hands msg to the handler. Part of the proto.Dispatcher contract;
// layers use it when one event releases more than one message.
func (e *Endpoint[M]) Deliver(msg M) {
	if e.metrics != nil {
		e.metrics.Delivered.Inc()
	}
	e.handler.Handle(msg)
}

// Close releases the transport.
func (e *Endpoint[M]) Close() error {
	return e.tp.Close()
}

// WriteHandle exposes the send buffer positioned past all reserved
// headers: every byte appended after WrBuf returns is payload. A handle is
// valid for one call chain and must not outlive the flush that sends it.
type WriteHandle struct {
	Buf          *netbuf.Buffer
	HeaderOffset int
}
