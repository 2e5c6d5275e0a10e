// Command stack-echo runs a demo echo service over the canonical
// ordering-over-basp stack: serve accepts framed TCP connections and
// echoes every payload back; send dials a server, sends one payload and
// prints the echo.
package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/leemit/actor-framework/internal/metrics"
	"github.com/leemit/actor-framework/pkg/endpoint"
	"github.com/leemit/actor-framework/pkg/proto"
	"github.com/leemit/actor-framework/pkg/transport"
)

var log = logrus.New()

type config struct {
	Addr           string `toml:"addr"`
	From           uint32 `toml:"from"`
	To             uint32 `toml:"to"`
	PendingTimeout string `toml:"pending_timeout"`
}

var (
	configPath  string
	metricsAddr string
	conf        = config{
		Addr: "localhost:7330",
		From: 13,
		To:   42,
	}
)

func pendingTimeout() (time.Duration, error) {
	if conf.PendingTimeout == "" {
		return proto.DefaultPendingTimeout, nil
	}
	return time.ParseDuration(conf.PendingTimeout)
}

func newStack() (*proto.Stack[proto.Message], error) {
	d, err := pendingTimeout()
	if err != nil {
		return nil, err
	}
	ordering := proto.NewOrdering[proto.Message](proto.Basp{})
	ordering.PendingTimeout = d
	return proto.NewStack[proto.Message](ordering), nil
}

var rootCmd = &cobra.Command{
	Use:   "stack-echo",
	Short: "Echo demo over the ordering-over-basp protocol stack",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if configPath == "" {
			return nil
		}
		_, err := toml.DecodeFile(configPath, &conf)
		return err
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept connections and echo every payload back",
	RunE: func(_ *cobra.Command, _ []string) error {
		lis, err := net.Listen("tcp", conf.Addr)
		if err != nil {
			return err
		}
		log.Infof("listening on %s", lis.Addr())

		m := metrics.NewEndpoint("stack_echo")
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, nil); err != nil {
				log.WithError(err).Warn("failed to start metrics API")
			}
		}()

		spawn := func(_ net.Conn, tp transport.Transport) (*endpoint.Endpoint[proto.Message], error) {
			stack, err := newStack()
			if err != nil {
				return nil, err
			}
			var ep *endpoint.Endpoint[proto.Message]
			echo := endpoint.HandlerFunc[proto.Message](func(msg proto.Message) {
				reply := proto.Header{From: msg.Header.To, To: msg.Header.From}
				whdl, err := ep.WrBuf(reply.Writer())
				if err != nil {
					log.WithError(err).Warn("failed to reserve headers")
					return
				}
				whdl.Buf.PushBack(msg.Payload...)
				if err := ep.Flush(); err != nil {
					log.WithError(err).Warn("failed to flush echo")
				}
			})
			ep = endpoint.New(tp, stack, echo,
				endpoint.WithMetrics[proto.Message](m))
			return ep, nil
		}

		acceptor := endpoint.NewAcceptor(lis, spawn, nil,
			endpoint.WithAcceptorLogger[proto.Message](log))
		return acceptor.Serve(context.Background())
	},
}

var payload string

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one payload and print the echo",
	RunE: func(_ *cobra.Command, _ []string) error {
		conn, err := net.Dial("tcp", conf.Addr)
		if err != nil {
			return err
		}
		stack, err := newStack()
		if err != nil {
			return err
		}

		done := make(chan struct{})
		ep := endpoint.New(transport.NewFramed(conn), stack,
			endpoint.HandlerFunc[proto.Message](func(msg proto.Message) {
				log.Infof("echo from(%d) to(%d): %s", msg.Header.From, msg.Header.To, msg.Payload)
				close(done)
			}))
		defer func() {
			if err := ep.Close(); err != nil {
				log.WithError(err).Debug("endpoint close")
			}
		}()

		hdr := proto.Header{From: proto.ActorID(conf.From), To: proto.ActorID(conf.To)}
		whdl, err := ep.WrBuf(hdr.Writer())
		if err != nil {
			return err
		}
		whdl.Buf.PushBack([]byte(payload)...)
		if err := ep.Flush(); err != nil {
			return err
		}

		go func() {
			for {
				if err := ep.ReadEvent(); err != nil {
					log.WithError(err).Debug("read event")
					return
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()

		select {
		case <-done:
			return nil
		case <-time.After(10 * time.Second):
			return context.DeadlineExceeded
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file")
	serveCmd.Flags().StringVarP(&metricsAddr, "metrics", "m", ":2121", "address to bind metrics API to")
	rootCmd.PersistentFlags().StringVar(&conf.Addr, "addr", conf.Addr, "address to listen on or dial")
	sendCmd.Flags().Uint32Var(&conf.From, "from", conf.From, "sending actor id")
	sendCmd.Flags().Uint32Var(&conf.To, "to", conf.To, "receiving actor id")
	sendCmd.Flags().StringVar(&payload, "payload", "hello", "payload to send")
	rootCmd.AddCommand(serveCmd, sendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
