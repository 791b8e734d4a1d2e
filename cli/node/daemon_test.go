package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestSocketClient_Send(t *testing.T) {
	out := new(bytes.Buffer)
	client := newTestClient(t.TempDir(), out)

	received := serveOnce(t, client.socketpath,
		reply{Text: "Fireball: 2\n"},
		reply{Text: "Invisibility: 1\n"})

	err := client.Send([]byte("show"))
	require.NoError(t, err)
	require.Equal(t, "Fireball: 2\nInvisibility: 1\n", out.String())
	require.Equal(t, "show", <-received)
}

func TestSocketClient_ErrorReply_Send(t *testing.T) {
	out := new(bytes.Buffer)
	client := newTestClient(t.TempDir(), out)

	serveOnce(t, client.socketpath,
		reply{Text: "partial\n"},
		reply{Err: true, Text: "Has no right to vote."})

	err := client.Send([]byte("vote"))
	require.EqualError(t, err, "Has no right to vote.")
	require.Equal(t, "partial\n", out.String())
}

func TestSocketClient_Failures_Send(t *testing.T) {
	client := socketClient{
		dialFn: func(string, string, time.Duration) (net.Conn, error) {
			return nil, fake.GetError()
		},
	}

	err := client.Send(nil)
	require.EqualError(t, err, fake.Err("couldn't open connection"))

	client.dialFn = func(string, string, time.Duration) (net.Conn, error) {
		return badConn{}, nil
	}

	err = client.Send([]byte("vote"))
	require.EqualError(t, err, fake.Err("couldn't write to daemon"))

	client.dialFn = func(string, string, time.Duration) (net.Conn, error) {
		return badConn{counter: fake.NewCounter(1)}, nil
	}

	err = client.Send(nil)
	require.EqualError(t, err, fake.Err("fail to decode reply"))
}

func TestSocketDaemon_Listen(t *testing.T) {
	actions := &actionMap{}
	actions.Set(fakeAction{intFlags: map[string]int{"index": 1}})
	actions.Set(fakeAction{err: fake.GetError()})

	daemon := newTestDaemon(t.TempDir(), actions)
	require.NoError(t, daemon.Listen())

	defer daemon.Close()

	out := new(bytes.Buffer)
	client := newTestClient(filepath.Dir(daemon.socketpath), out)

	testCases := []struct {
		name string
		data []byte
		err  string
	}{
		{"success", makeRequest(t, 0, FlagSet{"index": 1}), ""},
		{"missing flag", makeRequest(t, 0, nil), "command error: missing flag index"},
		{"action error", makeRequest(t, 1, nil), fake.Err("command error")},
		{"unknown action", makeRequest(t, 7, nil), "unknown command '7'"},
		{"bad action type", []byte(`{"Action":"vote"}`), "failed to decode request: "},
		{"empty request", []byte{}, "failed to decode request: "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out.Reset()

			err := client.Send(tc.data)
			if tc.err == "" {
				require.NoError(t, err)
				require.Equal(t, "Fireball\n", out.String())
				return
			}

			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestSocketDaemon_MultipleLines_Listen(t *testing.T) {
	actions := &actionMap{}
	actions.Set(linesAction{"ballot dragons created", "vote cast"})

	daemon := newTestDaemon(t.TempDir(), actions)
	require.NoError(t, daemon.Listen())

	defer daemon.Close()

	out := new(bytes.Buffer)
	client := newTestClient(filepath.Dir(daemon.socketpath), out)

	require.NoError(t, client.Send(makeRequest(t, 0, nil)))
	require.Equal(t, "ballot dragons created\nvote cast\n", out.String())
}

func TestSocketDaemon_CommandInProgress_Close(t *testing.T) {
	action := &slowAction{started: make(chan struct{})}

	actions := &actionMap{}
	actions.Set(action)

	daemon := newTestDaemon(t.TempDir(), actions)
	require.NoError(t, daemon.Listen())

	client := newTestClient(filepath.Dir(daemon.socketpath), new(bytes.Buffer))

	go client.Send(makeRequest(t, 0, nil))

	<-action.started

	require.NoError(t, daemon.Close())
	require.Equal(t, int32(1), atomic.LoadInt32(&action.done))
}

func TestSocketDaemon_Connectivity_Listen(t *testing.T) {
	daemon := newTestDaemon(t.TempDir(), &actionMap{})
	require.NoError(t, daemon.Listen())

	defer daemon.Close()

	conn, err := net.DialTimeout("unix", daemon.socketpath, time.Second)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestSocketDaemon_StaleSocket_Listen(t *testing.T) {
	dir := t.TempDir()

	// A file that no daemon listens to is removed.
	path := filepath.Join(dir, SocketName)
	require.NoError(t, os.WriteFile(path, nil, 0600))

	daemon := newTestDaemon(dir, &actionMap{})
	require.NoError(t, daemon.Listen())

	defer daemon.Close()

	other := newTestDaemon(dir, &actionMap{})

	err := other.Listen()
	require.EqualError(t, err, "stale socket: daemon already running at '"+path+"'")
}

func TestSocketDaemon_FailBindSocket_Listen(t *testing.T) {
	daemon := &socketDaemon{
		listenFn: func(string, string) (net.Listener, error) {
			return nil, fake.GetError()
		},
	}

	err := daemon.Listen()
	require.EqualError(t, err, fake.Err("couldn't bind socket"))
}

func TestSocketDaemon_BrokenConn_HandleConn(t *testing.T) {
	logger, check := fake.CheckLog("connection to daemon has error")

	daemon := newTestDaemon("", &actionMap{})
	daemon.logger = logger

	daemon.handleConn(badConn{})

	check(t)
}

func TestClientWriter_Write(t *testing.T) {
	buffer := new(bytes.Buffer)

	n, err := newClientWriter(buffer).Write([]byte("Teleportation"))
	require.NoError(t, err)
	require.Equal(t, 13, n)
	require.Equal(t, "{\"Text\":\"Teleportation\"}\n", buffer.String())

	n, err = newClientWriter(fake.NewBadHash()).Write([]byte("Teleportation"))
	require.Equal(t, 0, n)
	require.EqualError(t, err, fake.Err("while packing data"))
}

func TestSocketFactory_DaemonFromContext(t *testing.T) {
	factory := socketFactory{actions: &actionMap{}}

	daemon, err := factory.DaemonFromContext(fakeContext{path: ".ballot"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(".ballot", SocketName), daemon.(*socketDaemon).socketpath)
}

func TestSocketFactory_ClientFromContext(t *testing.T) {
	client, err := socketFactory{}.ClientFromContext(fakeContext{path: ".ballot"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(".ballot", SocketName), client.(socketClient).socketpath)
}

// -----------------------------------------------------------------------------
// Utility functions

func newTestClient(dir string, out *bytes.Buffer) socketClient {
	return socketClient{
		socketpath:  filepath.Join(dir, SocketName),
		out:         out,
		dialTimeout: time.Second,
		dialFn:      net.DialTimeout,
	}
}

func newTestDaemon(dir string, actions *actionMap) *socketDaemon {
	return &socketDaemon{
		socketpath:  filepath.Join(dir, SocketName),
		actions:     actions,
		closing:     make(chan struct{}),
		readTimeout: 50 * time.Millisecond,
		listenFn:    net.Listen,
	}
}

// serveOnce accepts a single connection on the path, sends the replies and
// returns the data received from the client.
func serveOnce(t *testing.T, path string, replies ...reply) <-chan string {
	socket, err := net.Listen("unix", path)
	require.NoError(t, err)

	received := make(chan string, 1)

	go func() {
		defer socket.Close()

		conn, err := socket.Accept()
		if err != nil {
			return
		}

		defer conn.Close()

		buffer := make([]byte, 128)
		n, _ := conn.Read(buffer)
		received <- string(buffer[:n])

		enc := json.NewEncoder(conn)
		for _, rep := range replies {
			enc.Encode(rep)
		}
	}()

	return received
}

func makeRequest(t *testing.T, action uint16, flags FlagSet) []byte {
	data, err := json.Marshal(request{Action: action, Flags: flags})
	require.NoError(t, err)

	return data
}

type fakeInitializer struct {
	err     error
	errStop error
}

func (fakeInitializer) SetCommands(Builder) {}

func (i fakeInitializer) OnStart(cli.Flags, Injector) error {
	return i.err
}

func (i fakeInitializer) OnStop(Injector) error {
	return i.errStop
}

type fakeClient struct {
	err   error
	calls *fake.Call
}

func (c fakeClient) Send(data []byte) error {
	c.calls.Add(data)
	return c.err
}

type fakeDaemon struct {
	Daemon
	err      error
	errClose error
	calls    *fake.Call
}

func (d fakeDaemon) Listen() error {
	return d.err
}

func (d fakeDaemon) Close() error {
	d.calls.Add("close")
	return d.errClose
}

type fakeFactory struct {
	DaemonFactory
	err       error
	errClient error
	errDaemon error
	errClose  error
	calls     *fake.Call
}

func (f fakeFactory) ClientFromContext(cli.Flags) (Client, error) {
	return fakeClient{err: f.errClient, calls: f.calls}, f.err
}

func (f fakeFactory) DaemonFromContext(cli.Flags) (Daemon, error) {
	return fakeDaemon{err: f.errDaemon, errClose: f.errClose, calls: f.calls}, f.err
}

// fakeAction writes the name of the first proposal on its own line when the
// integer flags match.
type fakeAction struct {
	err      error
	intFlags map[string]int
}

func (a fakeAction) Execute(ctx Context) error {
	if a.err != nil {
		return a.err
	}

	for name, value := range a.intFlags {
		if ctx.Flags.Int(name) != value {
			return xerrors.Errorf("missing flag %s", name)
		}
	}

	fmt.Fprintln(ctx.Out, "Fireball")

	return nil
}

type linesAction []string

func (a linesAction) Execute(ctx Context) error {
	for _, line := range a {
		fmt.Fprintln(ctx.Out, line)
	}

	return nil
}

// slowAction signals when it starts and finishes after a delay.
type slowAction struct {
	started chan struct{}
	done    int32
}

func (a *slowAction) Execute(ctx Context) error {
	close(a.started)

	time.Sleep(100 * time.Millisecond)
	atomic.StoreInt32(&a.done, 1)

	return nil
}

type fakeContext struct {
	cli.Flags
	path string
}

func (ctx fakeContext) Path(string) string {
	return ctx.path
}

type badConn struct {
	net.Conn

	counter *fake.Counter
}

func (conn badConn) Read(data []byte) (int, error) {
	if !conn.counter.Done() {
		conn.counter.Decrease()
		return len(data), nil
	}

	return 0, fake.GetError()
}

func (conn badConn) Write(data []byte) (int, error) {
	if !conn.counter.Done() {
		conn.counter.Decrease()
		return len(data), nil
	}

	return 0, fake.GetError()
}

func (badConn) SetReadDeadline(time.Time) error {
	return nil
}

func (badConn) Close() error {
	return nil
}
