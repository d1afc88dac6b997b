package canbridge

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestSendDeviceUnavailable(t *testing.T) {
	b := New("zcan0", nil)
	err := b.Send(StackFrame{ID: 0x123, DLC: 1, Data: [8]byte{0xFF}}, time.Second, nil)
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Send() error = %v, want ErrDeviceUnavailable", err)
	}
}

func TestSendWritesOneWireFrame(t *testing.T) {
	lb := NewLoopback(0)
	b := New("zcan0", lb)

	f := StackFrame{ID: 0x123, DLC: 2, Data: [8]byte{0xAA, 0xBB}}
	// Timeout and callback are contract parameters the bridge ignores.
	if err := b.Send(f, 100*time.Millisecond, func(error) {}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	sent := lb.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	var w WireFrame
	if err := w.UnmarshalBinary(sent[0]); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	if got := ToStack(w); got != f {
		t.Fatalf("wire frame decodes to %+v, want %+v", got, f)
	}
}

func TestSendWriteFailure(t *testing.T) {
	lb := NewLoopback(0)
	cause := errors.New("bus fault")
	lb.FailWrites(cause)
	b := New("zcan0", lb)

	err := b.Send(StackFrame{ID: 0x42, DLC: 3, Data: [8]byte{1, 2, 3}}, 0, nil)
	var terr *TransmitError
	if !errors.As(err, &terr) {
		t.Fatalf("Send() error = %v, want *TransmitError", err)
	}
	if terr.DLC != 3 {
		t.Fatalf("TransmitError.DLC = %d, want 3", terr.DLC)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("TransmitError does not wrap the transport error: %v", err)
	}
	// A write failure is surfaced, never retried.
	if lb.Writes() != 1 {
		t.Fatalf("write attempts = %d, want 1", lb.Writes())
	}
}

func TestSendInvalidFrame(t *testing.T) {
	lb := NewLoopback(0)
	b := New("zcan0", lb)
	if err := b.Send(StackFrame{ID: 0x800}, 0, nil); err != ErrInvalidID {
		t.Fatalf("Send() error = %v, want ErrInvalidID", err)
	}
	if lb.Writes() != 0 {
		t.Fatalf("write attempts = %d, want 0", lb.Writes())
	}
}

func TestSetOptionLevelAndName(t *testing.T) {
	filt, _ := WireFilter{ID: 0x10, Mask: 0x7FF}.MarshalBinary()
	cases := []struct {
		name  string
		level int
		opt   int
	}{
		{"wrong level", SolCANRaw + 1, CANRawFilter},
		{"wrong name", SolCANRaw, CANRawFilter + 1},
		{"both wrong", 0, 0},
	}
	for _, tc := range cases {
		lb := NewLoopback(0)
		b := New("zcan0", lb)
		if err := b.SetOption(tc.level, tc.opt, filt); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%s: SetOption() error = %v, want ErrInvalidArgument", tc.name, err)
		}
		if len(lb.Options()) != 0 {
			t.Fatalf("%s: transport option-install called", tc.name)
		}
	}
}

func TestSetOptionRejectsBadLengths(t *testing.T) {
	for _, n := range []int{0, 4, 7, 9, 11, 13, 32} {
		lb := NewLoopback(0)
		b := New("zcan0", lb)
		err := b.SetOption(SolCANRaw, CANRawFilter, make([]byte, n))
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("len=%d: SetOption() error = %v, want ErrInvalidArgument", n, err)
		}
		if len(lb.Options()) != 0 {
			t.Fatalf("len=%d: transport option-install called", n)
		}
	}
}

func TestSetOptionSmallEncoding(t *testing.T) {
	lb := NewLoopback(0)
	b := New("zcan0", lb)

	want := WireFilter{ID: 0x10, Mask: 0x7FF}
	raw, _ := want.MarshalBinary()
	if err := b.SetOption(SolCANRaw, CANRawFilter, raw); err != nil {
		t.Fatalf("SetOption() error = %v", err)
	}

	opts := lb.Options()
	if len(opts) != 1 {
		t.Fatalf("option-install calls = %d, want 1", len(opts))
	}
	if opts[0].Level != SolCANRaw || opts[0].Name != CANRawFilter {
		t.Fatalf("forwarded level/name = %d/%d", opts[0].Level, opts[0].Name)
	}
	var got WireFilter
	if err := got.UnmarshalBinary(opts[0].Value); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	if got != want {
		t.Fatalf("installed filter = %+v, want %+v", got, want)
	}
}

func TestSetOptionLargeEncodingConverts(t *testing.T) {
	lb := NewLoopback(0)
	b := New("zcan0", lb)

	sf := StackFilter{ID: 0x1ABCDEFF, IDMask: 0x1FFFFFFF, Extended: true}
	raw, _ := sf.MarshalBinary()
	if err := b.SetOption(SolCANRaw, CANRawFilter, raw); err != nil {
		t.Fatalf("SetOption() error = %v", err)
	}

	opts := lb.Options()
	if len(opts) != 1 {
		t.Fatalf("option-install calls = %d, want 1", len(opts))
	}
	if len(opts[0].Value) != WireFilterSize {
		t.Fatalf("installed %d bytes, want canonical %d", len(opts[0].Value), WireFilterSize)
	}
	var got WireFilter
	if err := got.UnmarshalBinary(opts[0].Value); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	if want := FilterToWire(sf); got != want {
		t.Fatalf("installed filter = %+v, want %+v", got, want)
	}
}

func TestSetOptionPropagatesTransportError(t *testing.T) {
	lb := NewLoopback(0)
	cause := errors.New("no such device")
	lb.FailOptions(cause)
	b := New("zcan0", lb)

	raw, _ := WireFilter{ID: 1, Mask: 1}.MarshalBinary()
	if err := b.SetOption(SolCANRaw, CANRawFilter, raw); !errors.Is(err, cause) {
		t.Fatalf("SetOption() error = %v, want %v", err, cause)
	}
}

func TestAttachOnce(t *testing.T) {
	b := New("zcan0", NewLoopback(0))
	ifc := NewChanInterface(4)
	if err := b.Attach(ifc); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := b.Attach(NewChanInterface(4)); err != ErrAlreadyAttached {
		t.Fatalf("second Attach() error = %v, want ErrAlreadyAttached", err)
	}
	if err := b.Attach(nil); err == nil {
		t.Fatalf("Attach(nil) succeeded")
	}
}

func TestFilterCapabilityNoops(t *testing.T) {
	b := New("zcan0", NewLoopback(0))
	id := b.AttachFilter(StackFilter{ID: 0x10, IDMask: 0x7FF})
	b.Detach(id)
	b.CloseFilter(id)
}

func TestSendPayloadBytes(t *testing.T) {
	lb := NewLoopback(0)
	b := New("zcan0", lb)
	f := StackFrame{ID: 0x7FF, DLC: 8, Data: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}}
	if err := b.Send(f, 0, nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	sent := lb.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	if !bytes.Equal(sent[0][8:16], f.Data[:]) {
		t.Fatalf("payload = % X, want % X", sent[0][8:16], f.Data[:])
	}
}
