package conn

import (
	"context"
	"encoding/json"
	"fmt"

	"eqlwire/buf"
	"eqlwire/codec"
	"eqlwire/wire"

	"github.com/google/uuid"
)

// FetchAll runs query in binary mode expecting any number of rows and
// returns every decoded row.
func (c *Connection) FetchAll(ctx context.Context, query string, args ...any) ([]any, error) {
	return c.fetch(ctx, query, args, wire.IOFormatBinary, wire.CardinalityMany)
}

// FetchOne runs query in binary mode expecting exactly one row and
// returns it, failing if the server returned zero or more than one.
func (c *Connection) FetchOne(ctx context.Context, query string, args ...any) (any, error) {
	rows, err := c.fetch(ctx, query, args, wire.IOFormatBinary, wire.CardinalityOne)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &wire.ProtocolError{Msg: "fetch_one: query returned no rows"}
	}
	if len(rows) > 1 {
		return nil, &wire.ProtocolError{Msg: "fetch_one: query returned more than one row"}
	}
	return rows[0], nil
}

// FetchAllJSON runs query in JSON mode and returns the server's JSON
// array of results as a single string.
func (c *Connection) FetchAllJSON(ctx context.Context, query string, args ...any) (string, error) {
	rows, err := c.fetch(ctx, query, args, wire.IOFormatJSON, wire.CardinalityMany)
	if err != nil {
		return "", err
	}
	return unwrapJSONRow(rows, true)
}

// FetchOneJSON runs query in JSON mode expecting a single JSON
// document and returns it as a string.
func (c *Connection) FetchOneJSON(ctx context.Context, query string, args ...any) (string, error) {
	rows, err := c.fetch(ctx, query, args, wire.IOFormatJSON, wire.CardinalityOne)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", &wire.ProtocolError{Msg: "fetch_one_json: query returned no rows"}
	}
	return unwrapJSONRow(rows, false)
}

// unwrapJSONRow extracts the JSON text the server wraps its JSON-mode
// result in: a single-element result of the built-in JSON scalar. For
// fetch_all_json the result is wrapped a second time as an array.
func unwrapJSONRow(rows []any, asArray bool) (string, error) {
	if !asArray {
		if len(rows) == 0 {
			return "", nil
		}
		b, ok := asJSONBytes(rows[0])
		if !ok {
			return "", &wire.ProtocolError{Msg: "expected JSON scalar result"}
		}
		return string(b), nil
	}
	parts := make([]json.RawMessage, len(rows))
	for i, r := range rows {
		b, ok := asJSONBytes(r)
		if !ok {
			return "", &wire.ProtocolError{Msg: "expected JSON scalar result"}
		}
		parts[i] = json.RawMessage(b)
	}
	out, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("eqlwire: assembling JSON array result: %w", err)
	}
	return string(out), nil
}

// asJSONBytes accepts the value shapes a JSON-mode result row can
// arrive as: JSONCodec.Decode returns json.RawMessage, but a plain
// []byte or string is accepted too for callers that hand-construct
// rows (e.g. tests).
func asJSONBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case json.RawMessage:
		return b, true
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	default:
		return nil, false
	}
}

// LastStatus returns the status string of the most recently completed
// command (e.g. "SELECT", "INSERT 1").
func (c *Connection) LastStatus() string {
	return c.lastStatus
}

// fetch runs the full Parse/Describe/Execute/Sync cycle for query,
// per spec section 4.3.3.
func (c *Connection) fetch(ctx context.Context, query string, args []any, format, cardinality byte) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.phase != wire.Ready {
		return nil, &wire.ProtocolError{Msg: "connection is not ready for a query"}
	}
	c.phase = wire.Busy
	defer func() {
		if c.phase == wire.Busy {
			c.phase = wire.Ready
		}
	}()

	stmt, err := c.parseAndDescribe(query, format, cardinality)
	if err != nil {
		return nil, err
	}
	return c.executeStatement(stmt, args)
}

func (c *Connection) parseAndDescribe(query string, format, cardinality byte) (*preparedStatement, error) {
	if cached, ok := c.statements[query]; ok && cached.cardinality == cardinality {
		return cached, nil
	}
	if err := c.sendParse(query, format, cardinality); err != nil {
		return nil, err
	}

	var inputID, outputID uuid.UUID
	var stmtCardinality byte
	var parseErr error
readLoop:
	for {
		if err := c.waitForMessage(); err != nil {
			return nil, err
		}
		switch c.rbuf.GetMessageType() {
		case wire.MsgPrepareComplete:
			var err error
			stmtCardinality, inputID, outputID, err = c.handlePrepareComplete()
			if err != nil {
				return nil, err
			}
		case wire.MsgErrorResponse:
			se, err := c.readErrorResponse()
			if err != nil {
				return nil, err
			}
			parseErr = se
		case wire.MsgReadyForCommand:
			if err := c.handleReadyForCommand(); err != nil {
				return nil, err
			}
			break readLoop
		default:
			if err := c.fallthroughHandle(c.rbuf.GetMessageType()); err != nil {
				return nil, err
			}
		}
	}
	if parseErr != nil {
		return nil, parseErr
	}

	inputCodec, inOK := c.registry.Get(inputID)
	outputCodec, outOK := c.registry.Get(outputID)
	if !inOK || !outOK {
		var err error
		inputCodec, outputCodec, err = c.describeStatement()
		if err != nil {
			return nil, err
		}
	}

	stmt := &preparedStatement{
		cardinality: stmtCardinality,
		inputCodec:  inputCodec,
		outputCodec: outputCodec,
	}
	c.statements[query] = stmt
	return stmt, nil
}

func (c *Connection) sendParse(query string, format, cardinality byte) error {
	if err := c.wbuf.BeginMessage(wire.MsgParse); err != nil {
		return err
	}
	c.wbuf.WriteU16(0) // headers
	c.wbuf.WriteU8(format)
	c.wbuf.WriteU8(cardinality)
	c.wbuf.WriteString("") // statement name
	c.wbuf.WriteString(query)
	if err := c.wbuf.EndMessage(); err != nil {
		return err
	}
	if err := c.wbuf.WriteSync(); err != nil {
		return err
	}
	return c.flush()
}

func (c *Connection) handlePrepareComplete() (cardinality byte, inputID, outputID uuid.UUID, err error) {
	if _, err = c.readHeaders(); err != nil {
		return
	}
	if cardinality, err = c.rbuf.ReadU8(); err != nil {
		return
	}
	var inRaw, outRaw [16]byte
	if inRaw, err = c.rbuf.ReadUUID(); err != nil {
		return
	}
	if outRaw, err = c.rbuf.ReadUUID(); err != nil {
		return
	}
	if err = c.rbuf.DiscardMessage(); err != nil {
		return
	}
	inputID = uuid.UUID(inRaw)
	outputID = uuid.UUID(outRaw)
	return
}

func (c *Connection) describeStatement() (codec.Codec, codec.Codec, error) {
	if err := c.sendDescribeStatement(); err != nil {
		return nil, nil, err
	}

	var inputCodec, outputCodec codec.Codec
	var descErr error
readLoop:
	for {
		if err := c.waitForMessage(); err != nil {
			return nil, nil, err
		}
		switch c.rbuf.GetMessageType() {
		case wire.MsgCommandDataDescription:
			var err error
			inputCodec, outputCodec, err = c.handleCommandDataDescription()
			if err != nil {
				return nil, nil, err
			}
		case wire.MsgErrorResponse:
			se, err := c.readErrorResponse()
			if err != nil {
				return nil, nil, err
			}
			descErr = se
		case wire.MsgReadyForCommand:
			if err := c.handleReadyForCommand(); err != nil {
				return nil, nil, err
			}
			break readLoop
		default:
			if err := c.fallthroughHandle(c.rbuf.GetMessageType()); err != nil {
				return nil, nil, err
			}
		}
	}
	if descErr != nil {
		return nil, nil, descErr
	}
	if inputCodec == nil || outputCodec == nil {
		return nil, nil, &wire.ProtocolError{Msg: "server did not describe input/output types"}
	}
	return inputCodec, outputCodec, nil
}

func (c *Connection) sendDescribeStatement() error {
	if err := c.wbuf.BeginMessage(wire.MsgDescribeStatement); err != nil {
		return err
	}
	c.wbuf.WriteU16(0)
	c.wbuf.WriteU8(wire.DescribeAspectStatement)
	c.wbuf.WriteString("")
	if err := c.wbuf.EndMessage(); err != nil {
		return err
	}
	if err := c.wbuf.WriteSync(); err != nil {
		return err
	}
	return c.flush()
}

func (c *Connection) handleCommandDataDescription() (codec.Codec, codec.Codec, error) {
	if _, err := c.readHeaders(); err != nil {
		return nil, nil, err
	}
	if _, err := c.rbuf.ReadU8(); err != nil { // cardinality, already known from PrepareComplete
		return nil, nil, err
	}
	if _, err := c.rbuf.ReadUUID(); err != nil { // input type id, redundant with the descriptor's own id
		return nil, nil, err
	}
	inBlob, err := c.rbuf.ReadLenPrefixedBytes()
	if err != nil {
		return nil, nil, err
	}
	if _, err := c.rbuf.ReadUUID(); err != nil { // output type id
		return nil, nil, err
	}
	outBlob, err := c.rbuf.ReadLenPrefixedBytes()
	if err != nil {
		return nil, nil, err
	}
	if err := c.rbuf.DiscardMessage(); err != nil {
		return nil, nil, err
	}

	inputCodec, err := codec.BuildCodec(c.registry, inBlob)
	if err != nil {
		return nil, nil, err
	}
	outputCodec, err := codec.BuildCodec(c.registry, outBlob)
	if err != nil {
		return nil, nil, err
	}
	return inputCodec, outputCodec, nil
}

func (c *Connection) executeStatement(stmt *preparedStatement, args []any) ([]any, error) {
	if err := c.sendExecute(stmt, args); err != nil {
		return nil, err
	}

	var rows []any
	var execErr error
readLoop:
	for {
		if err := c.waitForMessage(); err != nil {
			return nil, err
		}
		switch c.rbuf.GetMessageType() {
		case wire.MsgData:
			row, err := c.handleDataFrame(stmt.outputCodec)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		case wire.MsgCommandComplete:
			status, err := c.handleCommandComplete()
			if err != nil {
				return nil, err
			}
			c.lastStatus = status
		case wire.MsgErrorResponse:
			se, err := c.readErrorResponse()
			if err != nil {
				return nil, err
			}
			execErr = se
		case wire.MsgReadyForCommand:
			if err := c.handleReadyForCommand(); err != nil {
				return nil, err
			}
			break readLoop
		default:
			if err := c.fallthroughHandle(c.rbuf.GetMessageType()); err != nil {
				return nil, err
			}
		}
	}
	if execErr != nil {
		return nil, execErr
	}
	return rows, nil
}

func (c *Connection) sendExecute(stmt *preparedStatement, args []any) error {
	scratch := buf.NewWriteBuffer()
	if err := stmt.inputCodec.Encode(scratch, args); err != nil {
		return fmt.Errorf("eqlwire: encoding query arguments: %w", err)
	}
	if err := c.wbuf.BeginMessage(wire.MsgExecute); err != nil {
		return err
	}
	c.wbuf.WriteU16(0)
	c.wbuf.WriteString("")
	c.wbuf.WriteBytes(scratch.Unwrap())
	if err := c.wbuf.EndMessage(); err != nil {
		return err
	}
	if err := c.wbuf.WriteSync(); err != nil {
		return err
	}
	return c.flush()
}

// handleDataFrame decodes one row from a Data frame. The value is
// always a one-element tuple wrapping the row, so the 2-byte element
// count and 4-byte tuple length prefixing it are discarded before the
// output codec ever sees the bytes.
func (c *Connection) handleDataFrame(outputCodec codec.Codec) (any, error) {
	flat, err := c.rbuf.ConsumeMessageInto()
	if err != nil {
		return nil, err
	}
	if err := flat.Discard(6); err != nil {
		return nil, err
	}
	return outputCodec.Decode(flat)
}

func (c *Connection) handleCommandComplete() (string, error) {
	if _, err := c.readHeaders(); err != nil {
		return "", err
	}
	status, err := c.rbuf.ReadString()
	if err != nil {
		return "", err
	}
	if err := c.rbuf.DiscardMessage(); err != nil {
		return "", err
	}
	return status, nil
}
