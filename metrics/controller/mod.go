// Package controller implements the initializer that exposes the Prometheus
// collectors of the node over HTTP.
package controller

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/node"
	"golang.org/x/xerrors"
)

const (
	// AddrFlag is the name of the start flag with the address of the HTTP
	// server. The server is not started when the address is empty.
	AddrFlag = "promaddr"

	// Path is the path of the metrics handler.
	Path = "/metrics"

	shutdownTimeout = 5 * time.Second
)

// Server is the HTTP server that exposes the metrics.
type Server struct {
	srv      *http.Server
	listener net.Listener
}

// GetAddr returns the address the server is listening on.
func (s *Server) GetAddr() net.Addr {
	return s.listener.Addr()
}

// minimal is an initializer that registers the collectors of the components
// and serves them.
//
// - implements node.Initializer
type minimal struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// NewController returns a new initializer using the default Prometheus
// registry.
func NewController() node.Initializer {
	return minimal{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
}

// SetCommands implements node.Initializer. It adds the address flag to the
// start command.
func (m minimal) SetCommands(builder node.Builder) {
	builder.SetStartFlags(cli.StringFlag{
		Name:  AddrFlag,
		Usage: "address of the Prometheus endpoint, disabled if empty",
	})
}

// OnStart implements node.Initializer. It registers the collectors and starts
// the HTTP server when an address is given.
func (m minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	addr := flags.String(AddrFlag)
	if addr == "" {
		return nil
	}

	for _, c := range ballot.PromCollectors {
		err := m.registerer.Register(c)
		if err != nil && !xerrors.As(err, &prometheus.AlreadyRegisteredError{}) {
			return xerrors.Errorf("failed to register: %v", err)
		}
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return xerrors.Errorf("failed to listen: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle(Path, promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))

	server := &Server{
		srv:      &http.Server{Handler: mux},
		listener: lis,
	}

	go func() {
		err := server.srv.Serve(lis)
		if err != nil && err != http.ErrServerClosed {
			ballot.Logger.Err(err).Msg("metrics server stopped")
		}
	}()

	ballot.Logger.Info().Stringer("addr", lis.Addr()).Msg("metrics server started")

	inj.Inject(server)

	return nil
}

// OnStop implements node.Initializer. It stops the HTTP server if it was
// started.
func (m minimal) OnStop(inj node.Injector) error {
	var server *Server
	err := inj.Resolve(&server)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = server.srv.Shutdown(ctx)
	if err != nil {
		return xerrors.Errorf("failed to shutdown: %v", err)
	}

	return nil
}
