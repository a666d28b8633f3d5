// Package conn drives the connection lifecycle described in spec
// section 4.3: transport dial, handshake, and the parse/describe/
// execute/sync cycle, dispatching frames through the byte-buffer and
// codec layers. It plays the role the teacher's server.Connection
// plays on the accept side, flipped to speak the client half of the
// same kind of framed protocol.
package conn

import (
	"context"

	"eqlwire/buf"
	"eqlwire/codec"
	"eqlwire/config"
	"eqlwire/wire"
)

// preparedStatement caches the codecs and cardinality the server
// returned for a query string, so a repeated FetchAll/FetchOne on the
// same query text skips Parse+Describe on the wire.
type preparedStatement struct {
	cardinality byte
	inputCodec  codec.Codec
	outputCodec codec.Codec
}

// Connection drives one end-to-end session against the server: a
// single transport, its framing buffers, a per-connection codec
// registry, and the phase/transaction bookkeeping spec section 3
// describes.
type Connection struct {
	transport Transport
	wbuf      *buf.WriteMessageBuffer
	rbuf      *buf.ReadMessageBuffer
	registry  *codec.Registry
	logger    Logger

	phase          wire.Phase
	txStatus       wire.TransactionStatus
	serverSettings map[string]string
	serverSecret   []byte
	lastStatus     string

	statements map[string]*preparedStatement
}

// Connect resolves opts into an endpoint, dials it, and runs the
// handshake, returning a ready connection.
func Connect(ctx context.Context, opts config.Options) (*Connection, error) {
	cfg, err := config.Resolve(opts)
	if err != nil {
		return nil, err
	}
	return ConnectResolved(ctx, cfg, DefaultLogger)
}

// ConnectResolved is Connect for callers that have already produced a
// ResolvedConfig (e.g. to inspect or override it) and optionally want
// a non-default Logger.
func ConnectResolved(ctx context.Context, cfg *config.ResolvedConfig, logger Logger) (*Connection, error) {
	if logger == nil {
		logger = DefaultLogger
	}
	transport, err := Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := &Connection{
		transport:      transport,
		wbuf:           buf.NewWriteMessageBuffer(),
		rbuf:           buf.NewReadMessageBuffer(),
		registry:       codec.NewRegistry(),
		logger:         logger,
		phase:          wire.TCPConnected,
		serverSettings: map[string]string{},
		statements:     map[string]*preparedStatement{},
	}
	if err := c.handshake(cfg); err != nil {
		c.transport.Close()
		c.phase = wire.Closed
		return nil, err
	}
	c.phase = wire.Ready
	return c, nil
}

// Close releases the underlying transport. It is safe to call more
// than once.
func (c *Connection) Close() error {
	if c.phase == wire.Closed {
		return nil
	}
	c.phase = wire.Closed
	return c.transport.Close()
}

// Phase reports the connection's current lifecycle phase.
func (c *Connection) Phase() wire.Phase {
	return c.phase
}

// TransactionStatus reports the status recorded by the most recent
// ReadyForCommand frame.
func (c *Connection) TransactionStatus() wire.TransactionStatus {
	return c.txStatus
}

// ServerSettings returns the accumulated ParameterStatus map. The
// returned map is owned by the connection and must not be mutated.
func (c *Connection) ServerSettings() map[string]string {
	return c.serverSettings
}

// flush writes the pending write buffer to the transport and resets
// it for reuse.
func (c *Connection) flush() error {
	data, err := c.wbuf.Unwrap()
	if err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := c.transport.Write(data); err != nil {
			c.phase = wire.Closed
			return &wire.TransportError{Cause: err}
		}
	}
	c.wbuf.Reset()
	return nil
}

// waitForMessage blocks until a complete frame is available in the
// read buffer, feeding it from the transport as needed. Together with
// the transport write in flush it is one of the connection's two
// suspension points, matching spec section 5's scheduling model.
func (c *Connection) waitForMessage() error {
	for !c.rbuf.TakeMessage() {
		chunk := make([]byte, 4096)
		n, err := c.transport.Read(chunk)
		if n > 0 {
			c.rbuf.Feed(chunk[:n])
		}
		if err != nil {
			c.phase = wire.Closed
			return &wire.TransportError{Cause: err}
		}
	}
	return nil
}

// readHeaders reads a `u16 count | count × (u16 key, len-prefixed
// value)` header block, the shape spec section 6 assigns to every
// frame's headers field.
func (c *Connection) readHeaders() (map[uint16][]byte, error) {
	count, err := c.rbuf.ReadU16()
	if err != nil {
		return nil, err
	}
	headers := make(map[uint16][]byte, count)
	for i := 0; i < int(count); i++ {
		key, err := c.rbuf.ReadU16()
		if err != nil {
			return nil, err
		}
		val, err := c.rbuf.ReadLenPrefixedBytes()
		if err != nil {
			return nil, err
		}
		headers[key] = val
	}
	return headers, nil
}

// handleReadyForCommand reads a ReadyForCommand frame's headers and
// status byte and updates the transaction status.
func (c *Connection) handleReadyForCommand() error {
	if _, err := c.readHeaders(); err != nil {
		return err
	}
	status, err := c.rbuf.ReadU8()
	if err != nil {
		return err
	}
	if err := c.rbuf.DiscardMessage(); err != nil {
		return err
	}
	c.txStatus = wire.ParseTransactionStatus(status)
	return nil
}

// readErrorResponse decodes an ErrorResponse frame into a
// *wire.ServerError, draining any remaining payload.
func (c *Connection) readErrorResponse() (*wire.ServerError, error) {
	severity, err := c.rbuf.ReadString()
	if err != nil {
		return nil, err
	}
	code, err := c.rbuf.ReadU32()
	if err != nil {
		return nil, err
	}
	msg, err := c.rbuf.ReadString()
	if err != nil {
		return nil, err
	}
	headers, err := c.readHeaders()
	if err != nil {
		return nil, err
	}
	if err := c.rbuf.DiscardMessage(); err != nil {
		return nil, err
	}
	attrs := make(map[uint16]string, len(headers))
	for k, v := range headers {
		attrs[k] = string(v)
	}
	return &wire.ServerError{Severity: severity, Code: code, Message: msg, Attributes: attrs}, nil
}

// fallthroughHandle applies spec section 4.3.4's shared handler to any
// frame tag not explicitly matched by the caller's own switch:
// ParameterStatus updates the settings map, LogMessage goes through
// the logging hook, and anything else is a fatal protocol error.
func (c *Connection) fallthroughHandle(tag byte) error {
	switch tag {
	case wire.MsgParameterStatus:
		name, err := c.rbuf.ReadString()
		if err != nil {
			return err
		}
		value, err := c.rbuf.ReadString()
		if err != nil {
			return err
		}
		if err := c.rbuf.DiscardMessage(); err != nil {
			return err
		}
		c.serverSettings[name] = value
		return nil

	case wire.MsgLogMessage:
		severity, err := c.rbuf.ReadString()
		if err != nil {
			return err
		}
		code, err := c.rbuf.ReadU32()
		if err != nil {
			return err
		}
		message, err := c.rbuf.ReadString()
		if err != nil {
			return err
		}
		if err := c.rbuf.DiscardMessage(); err != nil {
			return err
		}
		c.logger.Printf("eqlwire: server %s (code %#x): %s", severity, code, message)
		return nil

	default:
		c.phase = wire.Closed
		return &wire.ProtocolError{Msg: "unexpected frame tag " + string(rune(tag))}
	}
}
