package conn

import (
	"fmt"
	"net"
	"testing"

	"eqlwire/buf"
	"eqlwire/codec"
	"eqlwire/config"
	"eqlwire/wire"
)

// fakeTransport adapts a net.Conn (typically one half of a net.Pipe)
// to Transport for tests, where there is no real TCP socket to toggle
// Nagle's algorithm on.
type fakeTransport struct {
	net.Conn
}

func (fakeTransport) SetNoDelay(bool) error { return nil }

func newTestConnection(conn net.Conn) *Connection {
	return &Connection{
		transport:      fakeTransport{conn},
		wbuf:           buf.NewWriteMessageBuffer(),
		rbuf:           buf.NewReadMessageBuffer(),
		registry:       codec.NewRegistry(),
		logger:         DefaultLogger,
		phase:          wire.TCPConnected,
		serverSettings: map[string]string{},
		statements:     map[string]*preparedStatement{},
	}
}

func mustResolveConfig(t *testing.T) *config.ResolvedConfig {
	t.Helper()
	cfg, err := config.Resolve(config.Options{Host: "127.0.0.1", Port: 5656, User: "eqldb", Database: "eqldb"})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	return cfg
}

// readFullFrame drains one message from conn into r using the same
// blocking-read-then-feed loop production code uses.
func readFullFrame(conn net.Conn, r *buf.ReadMessageBuffer) error {
	for !r.TakeMessage() {
		chunk := make([]byte, 4096)
		n, err := conn.Read(chunk)
		if n > 0 {
			r.Feed(chunk[:n])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func runFakeHandshakeServer(conn net.Conn, authStatus int32, sendError bool) error {
	r := buf.NewReadMessageBuffer()

	if err := readFullFrame(conn, r); err != nil {
		return err
	}
	if r.GetMessageType() != wire.MsgClientHandshake {
		return fmt.Errorf("expected ClientHandshake, got %q", r.GetMessageType())
	}
	if err := r.DiscardMessage(); err != nil {
		return err
	}

	if err := readFullFrame(conn, r); err != nil {
		return err
	}
	if r.GetMessageType() != wire.MsgAuthenticationReq {
		return fmt.Errorf("expected AuthenticationRequest, got %q", r.GetMessageType())
	}
	if err := r.DiscardMessage(); err != nil {
		return err
	}

	w := buf.NewWriteMessageBuffer()
	if err := w.BeginMessage(wire.MsgServerHandshake); err != nil {
		return err
	}
	w.WriteU16(wire.ProtocolVersionMajor)
	w.WriteU16(wire.ProtocolVersionMinor)
	if err := w.EndMessage(); err != nil {
		return err
	}

	if err := w.BeginMessage(wire.MsgServerKeyData); err != nil {
		return err
	}
	w.WriteBytes([]byte{1, 2, 3, 4})
	if err := w.EndMessage(); err != nil {
		return err
	}

	if err := w.BeginMessage(wire.MsgAuthentication); err != nil {
		return err
	}
	w.WriteI32(authStatus)
	if err := w.EndMessage(); err != nil {
		return err
	}

	if sendError {
		if err := w.BeginMessage(wire.MsgErrorResponse); err != nil {
			return err
		}
		w.WriteString("FATAL")
		w.WriteU32(1)
		w.WriteString("authentication failed")
		w.WriteU16(0)
		if err := w.EndMessage(); err != nil {
			return err
		}
	} else if authStatus == wire.AuthOK {
		if err := w.BeginMessage(wire.MsgReadyForCommand); err != nil {
			return err
		}
		w.WriteU16(0)
		w.WriteU8('I')
		if err := w.EndMessage(); err != nil {
			return err
		}
	}

	data, err := w.Unwrap()
	if err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}

func TestHandshakeSuccess(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	serverDone := make(chan error, 1)
	go func() { serverDone <- runFakeHandshakeServer(server, wire.AuthOK, false) }()

	c := newTestConnection(client)
	if err := c.handshake(mustResolveConfig(t)); err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if c.txStatus != wire.TxIdle {
		t.Fatalf("tx status = %v, want idle", c.txStatus)
	}
	if len(c.serverSecret) == 0 {
		t.Fatal("expected server key data to be captured")
	}
	if err := <-serverDone; err != nil {
		t.Fatalf("fake server: %v", err)
	}
}

func TestHandshakeUnsupportedAuthMethod(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	serverDone := make(chan error, 1)
	go func() { serverDone <- runFakeHandshakeServer(server, wire.AuthSASL, false) }()

	c := newTestConnection(client)
	err := c.handshake(mustResolveConfig(t))
	if err == nil {
		t.Fatal("expected an error for an unsupported SASL auth method")
	}
	<-serverDone
}

func TestHandshakeServerError(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	serverDone := make(chan error, 1)
	go func() { serverDone <- runFakeHandshakeServer(server, wire.AuthOK, true) }()

	c := newTestConnection(client)
	err := c.handshake(mustResolveConfig(t))
	if err == nil {
		t.Fatal("expected the ErrorResponse to abort the handshake")
	}
	var se *wire.ServerError
	if !asServerError(err, &se) {
		t.Fatalf("got %T, want *wire.ServerError", err)
	}
	<-serverDone
}

func asServerError(err error, target **wire.ServerError) bool {
	se, ok := err.(*wire.ServerError)
	if !ok {
		return false
	}
	*target = se
	return true
}
