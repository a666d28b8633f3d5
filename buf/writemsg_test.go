package buf

import "testing"

func TestWriteMessageBufferFraming(t *testing.T) {
	w := NewWriteMessageBuffer()
	if err := w.BeginMessage('P'); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := w.WriteString("select 1"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.EndMessage(); err != nil {
		t.Fatalf("end: %v", err)
	}
	out, err := w.Unwrap()
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}

	if out[0] != 'P' {
		t.Fatalf("tag = %q, want 'P'", out[0])
	}
	total := len(out)
	gotLen := int32(out[1])<<24 | int32(out[2])<<16 | int32(out[3])<<8 | int32(out[4])
	if int(gotLen) != total-1 {
		t.Fatalf("length = %d, want %d (total-1)", gotLen, total-1)
	}
}

func TestWriteMessageBufferRejectsNestedBegin(t *testing.T) {
	w := NewWriteMessageBuffer()
	if err := w.BeginMessage('P'); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := w.BeginMessage('E'); err == nil {
		t.Fatal("expected error beginning a message while one is open")
	}
}

func TestWriteMessageBufferRejectsWriteWithoutOpen(t *testing.T) {
	w := NewWriteMessageBuffer()
	if err := w.WriteU8(1); err == nil {
		t.Fatal("expected error writing with no open message")
	}
}

func TestWriteMessageBufferRejectsUnwrapWhileOpen(t *testing.T) {
	w := NewWriteMessageBuffer()
	if err := w.BeginMessage('P'); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := w.Unwrap(); err == nil {
		t.Fatal("expected error unwrapping with an open message")
	}
}

func TestWriteSyncAndFlushFrames(t *testing.T) {
	w := NewWriteMessageBuffer()
	if err := w.WriteSync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := w.WriteFlush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	out, _ := w.Unwrap()
	want := []byte{'S', 0, 0, 0, 4, 'H', 0, 0, 0, 4}
	if string(out) != string(want) {
		t.Fatalf("out = %v, want %v", out, want)
	}
}

func TestWriteSyncFailsWithOpenMessage(t *testing.T) {
	w := NewWriteMessageBuffer()
	w.BeginMessage('P')
	if err := w.WriteSync(); err == nil {
		t.Fatal("expected error writing sync with an open message")
	}
}

func TestWriteBufferGrowth(t *testing.T) {
	w := NewWriteBuffer()
	big := make([]byte, growIncrement*3+7)
	for i := range big {
		big[i] = byte(i)
	}
	w.WriteBytes(big)
	out := w.Unwrap()
	if len(out) != len(big) {
		t.Fatalf("len = %d, want %d", len(out), len(big))
	}
	for i := range big {
		if out[i] != big[i] {
			t.Fatalf("byte %d = %d, want %d", i, out[i], big[i])
		}
	}
}
