package conn

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"

	"eqlwire/config"
	"eqlwire/wire"
)

// Transport is the byte-stream collaborator a Connection drives: dial,
// read, write, close, and toggle Nagle's algorithm. The default
// implementation below wraps a TCP socket wrapped in TLS; tests
// substitute an in-memory pipe via a no-op SetNoDelay.
type Transport interface {
	io.ReadWriteCloser
	SetNoDelay(bool) error
}

// tlsTransport adapts a *tls.Conn (which has no SetNoDelay of its own)
// to Transport by delegating to the raw connection underneath it when
// that connection supports Nagle toggling, and doing nothing otherwise.
type tlsTransport struct {
	*tls.Conn
	raw net.Conn
}

func (t *tlsTransport) SetNoDelay(on bool) error {
	if tc, ok := t.raw.(*net.TCPConn); ok {
		return tc.SetNoDelay(on)
	}
	return nil
}

// Dial opens a TLS-wrapped TCP connection to the endpoint described by
// cfg, negotiating the edgedb-binary ALPN protocol, the way the
// teacher's server accepts raw net.Conn but flipped to the client
// side of the handshake.
func Dial(ctx context.Context, cfg *config.ResolvedConfig) (Transport, error) {
	addr := net.JoinHostPort(cfg.HostString(), strconv.Itoa(cfg.PortNumber()))

	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &wire.TransportError{Cause: err}
	}
	if tc, ok := raw.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	tlsCfg, err := config.BuildTLSConfig(cfg)
	if err != nil {
		raw.Close()
		return nil, err
	}
	tlsConn := tls.Client(raw, tlsCfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, &wire.TransportError{Cause: err}
	}
	return &tlsTransport{Conn: tlsConn, raw: raw}, nil
}
