package endpoint

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/leemit/actor-framework/pkg/proto"
	"github.com/leemit/actor-framework/pkg/transport"
)

// SpawnFunc constructs a fresh endpoint for an accepted connection.
type SpawnFunc[M any] func(conn net.Conn, tp transport.Transport) (*Endpoint[M], error)

// InitFunc installs additional per-connection state on a freshly spawned
// endpoint before it starts serving.
type InitFunc[M any] func(*Endpoint[M]) error

// Acceptor listens for incoming connections and runs a fresh endpoint per
// connection. Each endpoint gets its own serving goroutine, which is its
// single execution context.
type Acceptor[M any] struct {
	lis          net.Listener
	spawn        SpawnFunc[M]
	init         InitFunc[M]
	newTransport func(net.Conn) transport.Transport
	log          logrus.FieldLogger
}

// AcceptorOption configures an Acceptor.
type AcceptorOption[M any] func(*Acceptor[M])

// WithAcceptorLogger sets the acceptor's logger.
func WithAcceptorLogger[M any](log logrus.FieldLogger) AcceptorOption[M] {
	return func(a *Acceptor[M]) { a.log = log }
}

// WithTransportFactory sets how accepted connections are wrapped into
// transports. The default is the framed transport.
func WithTransportFactory[M any](f func(net.Conn) transport.Transport) AcceptorOption[M] {
	return func(a *Acceptor[M]) { a.newTransport = f }
}

// NewAcceptor constructs an acceptor over lis. init may be nil.
func NewAcceptor[M any](lis net.Listener, spawn SpawnFunc[M], init InitFunc[M], opts ...AcceptorOption[M]) *Acceptor[M] {
	a := &Acceptor[M]{
		lis:   lis,
		spawn: spawn,
		init:  init,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.newTransport == nil {
		a.newTransport = func(conn net.Conn) transport.Transport {
			return transport.NewFramed(conn)
		}
	}
	if a.log == nil {
		a.log = logrus.StandardLogger().WithField("module", "acceptor")
	}
	return a
}

// Accept waits for the next connection and wraps it into a transport.
func (a *Acceptor[M]) Accept() (net.Conn, transport.Transport, error) {
	conn, err := a.lis.Accept()
	if err != nil {
		return nil, nil, errors.Wrap(err, "accept")
	}
	return conn, a.newTransport(conn), nil
}

// Serve accepts connections until ctx is cancelled or the listener fails,
// spawning and serving an endpoint per connection.
func (a *Acceptor[M]) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		if err := a.lis.Close(); err != nil {
			a.log.WithError(err).Debug("listener close")
		}
	}()

	for {
		conn, tp, err := a.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		ep, err := a.spawn(conn, tp)
		if err != nil {
			a.log.WithError(err).Warn("failed to spawn endpoint")
			if err := tp.Close(); err != nil {
				a.log.WithError(err).Debug("transport close")
			}
			continue
		}
		if a.init != nil {
			if err := a.init(ep); err != nil {
				a.log.WithError(err).Warn("failed to init endpoint")
				if err := ep.Close(); err != nil {
					a.log.WithError(err).Debug("endpoint close")
				}
				continue
			}
		}
		go a.serveConn(ep)
	}
}

// Close stops accepting.
func (a *Acceptor[M]) Close() error {
	return a.lis.Close()
}

func (a *Acceptor[M]) serveConn(ep *Endpoint[M]) {
	log := a.log.WithField("endpoint", ep.ID().String()[:8])
	log.Info("serving connection")
	defer log.Info("stopped serving connection")
	defer func() {
		if err := ep.Close(); err != nil {
			log.WithError(err).Debug("endpoint close")
		}
	}()

	for {
		err := ep.ReadEvent()
		switch {
		case err == nil:
		case errors.Is(err, proto.ErrDeferred), errors.Is(err, proto.ErrStaleMessage):
			// No delivery this round; the stack is waiting or dropped a
			// duplicate.
		case errors.Is(err, proto.ErrMalformedHeader), errors.Is(err, proto.ErrUnexpectedMessage):
			log.WithError(err).Warn("discarding unreadable frame")
		case errors.Is(err, transport.ErrPeerClosed):
			return
		default:
			log.WithError(err).Warn("read failed")
			return
		}
	}
}
