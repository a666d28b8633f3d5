package conn

import (
	"context"
	"net"
	"testing"

	"eqlwire/buf"
	"eqlwire/codec"
	"eqlwire/wire"

	"github.com/google/uuid"
)

var testTupleID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// readAndDiscardFrame reads one full frame off conn into r, asserts its
// tag, and discards the payload. r is shared across calls because the
// client flushes several frames (e.g. Parse+Sync) in one write, so a
// single transport read can carry more than one frame.
func readAndDiscardFrame(conn net.Conn, r *buf.ReadMessageBuffer, wantTag byte) error {
	if err := readFullFrame(conn, r); err != nil {
		return err
	}
	if r.GetMessageType() != wantTag {
		return &wire.ProtocolError{Msg: "unexpected frame tag while faking the server side"}
	}
	return r.DiscardMessage()
}

// runFakeQueryServer answers one Parse/Sync + Execute/Sync round trip
// with a single int32 row, skipping the describe cycle by returning
// type ids the client is expected to already have registered.
func runFakeQueryServer(conn net.Conn, outputID uuid.UUID, resultValue int32) error {
	r := buf.NewReadMessageBuffer()
	if err := readAndDiscardFrame(conn, r, wire.MsgParse); err != nil {
		return err
	}
	if err := readAndDiscardFrame(conn, r, wire.MsgSync); err != nil {
		return err
	}

	w := buf.NewWriteMessageBuffer()
	if err := w.BeginMessage(wire.MsgPrepareComplete); err != nil {
		return err
	}
	w.WriteU16(0)
	w.WriteU8(wire.CardinalityOne)
	w.WriteBytes(testTupleID[:])
	w.WriteBytes(outputID[:])
	if err := w.EndMessage(); err != nil {
		return err
	}
	if err := w.BeginMessage(wire.MsgReadyForCommand); err != nil {
		return err
	}
	w.WriteU16(0)
	w.WriteU8('I')
	if err := w.EndMessage(); err != nil {
		return err
	}
	data, err := w.Unwrap()
	if err != nil {
		return err
	}
	if _, err := conn.Write(data); err != nil {
		return err
	}

	if err := readAndDiscardFrame(conn, r, wire.MsgExecute); err != nil {
		return err
	}
	if err := readAndDiscardFrame(conn, r, wire.MsgSync); err != nil {
		return err
	}

	w.Reset()
	if err := w.BeginMessage(wire.MsgData); err != nil {
		return err
	}
	w.WriteU16(1) // element count, per the server's hardcoded 1-tuple wrapper
	w.WriteI32(4) // wrapper tuple length, unused by the client
	w.WriteI32(resultValue)
	if err := w.EndMessage(); err != nil {
		return err
	}
	if err := w.BeginMessage(wire.MsgCommandComplete); err != nil {
		return err
	}
	w.WriteU16(0)
	w.WriteString("SELECT")
	if err := w.EndMessage(); err != nil {
		return err
	}
	if err := w.BeginMessage(wire.MsgReadyForCommand); err != nil {
		return err
	}
	w.WriteU16(0)
	w.WriteU8('I')
	if err := w.EndMessage(); err != nil {
		return err
	}
	data, err = w.Unwrap()
	if err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}

// runFakeJSONQueryServer is runFakeQueryServer's JSON-mode counterpart:
// the Data frame payload wraps a std::json value (a one-byte format
// tag followed by raw text) instead of a plain scalar.
func runFakeJSONQueryServer(conn net.Conn, outputID uuid.UUID, resultJSON string) error {
	r := buf.NewReadMessageBuffer()
	if err := readAndDiscardFrame(conn, r, wire.MsgParse); err != nil {
		return err
	}
	if err := readAndDiscardFrame(conn, r, wire.MsgSync); err != nil {
		return err
	}

	w := buf.NewWriteMessageBuffer()
	if err := w.BeginMessage(wire.MsgPrepareComplete); err != nil {
		return err
	}
	w.WriteU16(0)
	w.WriteU8(wire.CardinalityOne)
	w.WriteBytes(testTupleID[:])
	w.WriteBytes(outputID[:])
	if err := w.EndMessage(); err != nil {
		return err
	}
	if err := w.BeginMessage(wire.MsgReadyForCommand); err != nil {
		return err
	}
	w.WriteU16(0)
	w.WriteU8('I')
	if err := w.EndMessage(); err != nil {
		return err
	}
	data, err := w.Unwrap()
	if err != nil {
		return err
	}
	if _, err := conn.Write(data); err != nil {
		return err
	}

	if err := readAndDiscardFrame(conn, r, wire.MsgExecute); err != nil {
		return err
	}
	if err := readAndDiscardFrame(conn, r, wire.MsgSync); err != nil {
		return err
	}

	w.Reset()
	if err := w.BeginMessage(wire.MsgData); err != nil {
		return err
	}
	w.WriteU16(1)                          // element count, per the server's hardcoded 1-tuple wrapper
	w.WriteI32(int32(1 + len(resultJSON))) // wrapper tuple length, unused by the client
	w.WriteU8(1)                           // json wire format tag
	w.WriteBytes([]byte(resultJSON))
	if err := w.EndMessage(); err != nil {
		return err
	}
	if err := w.BeginMessage(wire.MsgCommandComplete); err != nil {
		return err
	}
	w.WriteU16(0)
	w.WriteString("SELECT")
	if err := w.EndMessage(); err != nil {
		return err
	}
	if err := w.BeginMessage(wire.MsgReadyForCommand); err != nil {
		return err
	}
	w.WriteU16(0)
	w.WriteU8('I')
	if err := w.EndMessage(); err != nil {
		return err
	}
	data, err = w.Unwrap()
	if err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}

func TestFetchOneJSONRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	c := newTestConnection(client)
	c.phase = wire.Ready
	c.registry.Register(testTupleID, codec.NewTupleCodec(testTupleID, nil))
	outputID := codec.JSONCodec.ID()

	serverDone := make(chan error, 1)
	go func() { serverDone <- runFakeJSONQueryServer(server, outputID, `{"a":1}`) }()

	result, err := c.FetchOneJSON(context.Background(), "SELECT <json>{a: 1}")
	if err != nil {
		t.Fatalf("FetchOneJSON: %v", err)
	}
	if result != `{"a":1}` {
		t.Fatalf("result = %q, want %q", result, `{"a":1}`)
	}
	if err := <-serverDone; err != nil {
		t.Fatalf("fake server: %v", err)
	}
}

func TestFetchAllJSONRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	c := newTestConnection(client)
	c.phase = wire.Ready
	c.registry.Register(testTupleID, codec.NewTupleCodec(testTupleID, nil))
	outputID := codec.JSONCodec.ID()

	serverDone := make(chan error, 1)
	go func() { serverDone <- runFakeJSONQueryServer(server, outputID, `{"a":1}`) }()

	result, err := c.FetchAllJSON(context.Background(), "SELECT <json>{a: 1}")
	if err != nil {
		t.Fatalf("FetchAllJSON: %v", err)
	}
	if result != `[{"a":1}]` {
		t.Fatalf("result = %q, want %q", result, `[{"a":1}]`)
	}
	if err := <-serverDone; err != nil {
		t.Fatalf("fake server: %v", err)
	}
}

func TestFetchOneRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	c := newTestConnection(client)
	c.phase = wire.Ready
	c.registry.Register(testTupleID, codec.NewTupleCodec(testTupleID, nil))
	outputID := codec.Int32Codec.ID()

	serverDone := make(chan error, 1)
	go func() { serverDone <- runFakeQueryServer(server, outputID, 42) }()

	row, err := c.FetchOne(context.Background(), "SELECT 42")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	n, ok := row.(int32)
	if !ok || n != 42 {
		t.Fatalf("row = %#v, want int32(42)", row)
	}
	if c.LastStatus() != "SELECT" {
		t.Fatalf("last status = %q, want SELECT", c.LastStatus())
	}
	if c.Phase() != wire.Ready {
		t.Fatalf("phase = %v, want ready", c.Phase())
	}
	if err := <-serverDone; err != nil {
		t.Fatalf("fake server: %v", err)
	}
}

func TestFetchOneCachesPreparedStatement(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	c := newTestConnection(client)
	c.phase = wire.Ready
	c.registry.Register(testTupleID, codec.NewTupleCodec(testTupleID, nil))
	outputID := codec.Int32Codec.ID()

	serverDone := make(chan error, 1)
	go func() { serverDone <- runFakeQueryServer(server, outputID, 7) }()

	if _, err := c.FetchOne(context.Background(), "SELECT 7"); err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if err := <-serverDone; err != nil {
		t.Fatalf("fake server: %v", err)
	}
	if _, ok := c.statements["SELECT 7"]; !ok {
		t.Fatal("expected the query to be cached after a successful fetch")
	}
}

func TestFetchRejectsWhenNotReady(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := newTestConnection(client)
	c.phase = wire.Busy

	if _, err := c.FetchAll(context.Background(), "SELECT 1"); err == nil {
		t.Fatal("expected an error when the connection is not ready")
	}
}
