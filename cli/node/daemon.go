// This file contains the client and the daemon exchanging the commands
// through a UNIX socket.

package node

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/cli"
	"golang.org/x/xerrors"
)

// SocketName is the name of the socket file in the configuration directory.
const SocketName = "daemon.sock"

const ioTimeout = 30 * time.Second

var promCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ballot_daemon_commands_total",
	Help: "number of commands handled by the daemon",
}, []string{"status"})

func init() {
	ballot.PromCollectors = append(ballot.PromCollectors, promCommands)
}

// request is the message sent by the client to run an action on the daemon.
type request struct {
	Action uint16
	Flags  FlagSet
}

// reply is a message streamed by the daemon back to the client. The last reply
// of a failed command carries the error.
type reply struct {
	Err  bool   `json:",omitempty"`
	Text string
}

// socketClient dials the daemon for every command.
//
// - implements node.Client
type socketClient struct {
	socketpath  string
	out         io.Writer
	dialTimeout time.Duration
	dialFn      func(network, addr string, timeout time.Duration) (net.Conn, error)
}

// Send implements node.Client. It writes the request to the daemon, then
// copies the replies to the output until the daemon closes the connection.
func (c socketClient) Send(data []byte) error {
	conn, err := c.dialFn("unix", c.socketpath, c.dialTimeout)
	if err != nil {
		return xerrors.Errorf("couldn't open connection: %v", err)
	}

	defer conn.Close()

	_, err = conn.Write(data)
	if err != nil {
		return xerrors.Errorf("couldn't write to daemon: %v", err)
	}

	dec := json.NewDecoder(conn)

	for {
		var rep reply

		err = dec.Decode(&rep)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return xerrors.Errorf("fail to decode reply: %v", err)
		}

		if rep.Err {
			return xerrors.New(rep.Text)
		}

		fmt.Fprint(c.out, rep.Text)
	}
}

// socketDaemon is a daemon listening on a UNIX socket, so that the access is
// granted by the permissions of the file.
//
// - implements node.Daemon
type socketDaemon struct {
	sync.WaitGroup

	logger      zerolog.Logger
	socketpath  string
	injector    Injector
	actions     *actionMap
	closing     chan struct{}
	readTimeout time.Duration
	listenFn    func(network, addr string) (net.Listener, error)
}

// Listen implements node.Daemon. It binds the socket and serves the
// connections in the background until the daemon is closed.
func (d *socketDaemon) Listen() error {
	err := d.cleanStaleSocket()
	if err != nil {
		return xerrors.Errorf("stale socket: %v", err)
	}

	socket, err := d.listenFn("unix", d.socketpath)
	if err != nil {
		return xerrors.Errorf("couldn't bind socket: %v", err)
	}

	d.Add(2)

	go func() {
		defer d.Done()

		<-d.closing
		socket.Close()
	}()

	go func() {
		defer d.Done()

		d.serve(socket)
	}()

	return nil
}

func (d *socketDaemon) serve(socket net.Listener) {
	for {
		conn, err := socket.Accept()
		if err != nil {
			select {
			case <-d.closing:
			default:
				d.logger.Err(err).Msg("daemon closed unexpectedly")
			}

			return
		}

		d.Add(1)

		go func() {
			defer d.Done()

			d.handleConn(conn)
		}()
	}
}

// cleanStaleSocket removes the socket file left by a daemon that did not stop
// properly. A socket that accepts connections belongs to a running daemon and
// is left untouched.
func (d *socketDaemon) cleanStaleSocket() error {
	_, err := os.Stat(d.socketpath)
	if os.IsNotExist(err) {
		return nil
	}

	conn, err := net.DialTimeout("unix", d.socketpath, time.Second)
	if err == nil {
		conn.Close()
		return xerrors.Errorf("daemon already running at '%s'", d.socketpath)
	}

	d.logger.Warn().Msg("removing stale socket")

	err = os.Remove(d.socketpath)
	if err != nil {
		return xerrors.Errorf("failed to remove: %v", err)
	}

	return nil
}

func (d *socketDaemon) handleConn(conn net.Conn) {
	defer conn.Close()

	logger := d.logger.With().Str("session", xid.New().String()).Logger()

	conn.SetReadDeadline(time.Now().Add(d.readTimeout))

	var req request

	err := json.NewDecoder(conn).Decode(&req)
	if err == io.EOF {
		// Connectivity check of a client or of another daemon.
		return
	}
	if err != nil {
		d.sendError(logger, conn, xerrors.Errorf("failed to decode request: %v", err))
		return
	}

	logger.Debug().
		Uint16("action", req.Action).
		Str("flags", fmt.Sprintf("%v", req.Flags)).
		Msg("received command on the daemon")

	action := d.actions.Get(req.Action)
	if action == nil {
		d.sendError(logger, conn, xerrors.Errorf("unknown command '%d'", req.Action))
		return
	}

	if req.Flags == nil {
		req.Flags = FlagSet{}
	}

	actx := Context{
		Injector: d.injector,
		Flags:    req.Flags,
		Out:      newClientWriter(conn),
	}

	err = action.Execute(actx)
	if err != nil {
		d.sendError(logger, conn, xerrors.Errorf("command error: %v", err))
		return
	}

	promCommands.WithLabelValues("success").Inc()

	logger.Trace().Msg("command executed")
}

// sendError replies the error to the client, which turns it into the error of
// the command.
func (d *socketDaemon) sendError(logger zerolog.Logger, conn net.Conn, err error) {
	promCommands.WithLabelValues("error").Inc()

	logger.Debug().Err(err).Msg("sending error to client")

	err = json.NewEncoder(conn).Encode(reply{Err: true, Text: err.Error()})
	if err != nil {
		logger.Warn().Err(err).Msg("connection to daemon has error")
	}
}

// Close implements node.Daemon. It closes the socket and waits for the
// listener and the commands in progress to return.
func (d *socketDaemon) Close() error {
	close(d.closing)
	d.Wait()

	return nil
}

// clientWriter wraps every write of an action into a reply.
//
// - implements io.Writer
type clientWriter struct {
	enc *json.Encoder
}

func newClientWriter(w io.Writer) *clientWriter {
	return &clientWriter{
		enc: json.NewEncoder(w),
	}
}

// Write implements io.Writer.
func (w *clientWriter) Write(data []byte) (int, error) {
	err := w.enc.Encode(reply{Text: string(data)})
	if err != nil {
		return 0, xerrors.Errorf("while packing data: %v", err)
	}

	return len(data), nil
}

// socketFactory creates the daemon and the clients of a configuration
// directory.
//
// - implements node.DaemonFactory
type socketFactory struct {
	injector Injector
	actions  *actionMap
	out      io.Writer
}

// ClientFromContext implements node.DaemonFactory.
func (f socketFactory) ClientFromContext(ctx cli.Flags) (Client, error) {
	client := socketClient{
		socketpath:  socketPath(ctx),
		out:         f.out,
		dialTimeout: ioTimeout,
		dialFn:      net.DialTimeout,
	}

	return client, nil
}

// DaemonFromContext implements node.DaemonFactory.
func (f socketFactory) DaemonFromContext(ctx cli.Flags) (Daemon, error) {
	path := socketPath(ctx)

	daemon := &socketDaemon{
		logger:      ballot.Logger.With().Str("daemon", path).Logger(),
		socketpath:  path,
		injector:    f.injector,
		actions:     f.actions,
		closing:     make(chan struct{}),
		readTimeout: ioTimeout,
		listenFn:    net.Listen,
	}

	return daemon, nil
}

func socketPath(ctx cli.Flags) string {
	return filepath.Join(ctx.Path("config"), SocketName)
}
