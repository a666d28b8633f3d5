package conn

import (
	"fmt"

	"eqlwire/config"
	"eqlwire/wire"
)

// handshake sends ClientHandshake + AuthenticationRequest and reads
// frames until ReadyForCommand, per spec section 4.3.2.
func (c *Connection) handshake(cfg *config.ResolvedConfig) error {
	if err := c.sendClientHandshake(); err != nil {
		return err
	}
	if err := c.sendAuthenticationRequest(cfg); err != nil {
		return err
	}

	for {
		if err := c.waitForMessage(); err != nil {
			return err
		}
		switch c.rbuf.GetMessageType() {
		case wire.MsgServerHandshake:
			if err := c.handleServerHandshake(); err != nil {
				return err
			}
		case wire.MsgServerKeyData:
			if err := c.handleServerKeyData(); err != nil {
				return err
			}
		case wire.MsgAuthentication:
			if err := c.handleAuthentication(); err != nil {
				return err
			}
		case wire.MsgErrorResponse:
			se, err := c.readErrorResponse()
			if err != nil {
				return err
			}
			c.phase = wire.Closed
			return se
		case wire.MsgReadyForCommand:
			return c.handleReadyForCommand()
		default:
			if err := c.fallthroughHandle(c.rbuf.GetMessageType()); err != nil {
				return err
			}
		}
	}
}

func (c *Connection) sendClientHandshake() error {
	if err := c.wbuf.BeginMessage(wire.MsgClientHandshake); err != nil {
		return err
	}
	c.wbuf.WriteU16(wire.ProtocolVersionMajor)
	c.wbuf.WriteU16(wire.ProtocolVersionMinor)
	c.wbuf.WriteU16(0) // extension headers
	c.wbuf.WriteU16(0) // params
	if err := c.wbuf.EndMessage(); err != nil {
		return err
	}
	return c.flush()
}

func (c *Connection) sendAuthenticationRequest(cfg *config.ResolvedConfig) error {
	if err := c.wbuf.BeginMessage(wire.MsgAuthenticationReq); err != nil {
		return err
	}
	c.wbuf.WriteString(cfg.UserName())
	c.wbuf.WriteString(cfg.DatabaseName())
	if err := c.wbuf.EndMessage(); err != nil {
		return err
	}
	return c.flush()
}

func (c *Connection) handleServerHandshake() error {
	major, err := c.rbuf.ReadU16()
	if err != nil {
		return err
	}
	minor, err := c.rbuf.ReadU16()
	if err != nil {
		return err
	}
	if err := c.rbuf.DiscardMessage(); err != nil {
		return err
	}
	if major != wire.ProtocolVersionMajor || minor != wire.ProtocolVersionMinor {
		c.phase = wire.Closed
		return &wire.ProtocolError{Msg: fmt.Sprintf("server proposed protocol %d.%d, only %d.%d is supported",
			major, minor, wire.ProtocolVersionMajor, wire.ProtocolVersionMinor)}
	}
	return nil
}

func (c *Connection) handleServerKeyData() error {
	secret, err := c.rbuf.ConsumeMessage()
	if err != nil {
		return err
	}
	c.serverSecret = secret
	return nil
}

func (c *Connection) handleAuthentication() error {
	status, err := c.rbuf.ReadI32()
	if err != nil {
		return err
	}
	if err := c.rbuf.DiscardMessage(); err != nil {
		return err
	}
	if status == wire.AuthOK {
		return nil
	}
	c.phase = wire.Closed
	switch status {
	case wire.AuthSASL, wire.AuthSASLContinue, wire.AuthSASLFinal:
		return &wire.ProtocolError{Msg: fmt.Sprintf("SASL authentication (status %d) is not supported by this client", status)}
	default:
		return &wire.ProtocolError{Msg: fmt.Sprintf("unsupported authentication status %d", status)}
	}
}
