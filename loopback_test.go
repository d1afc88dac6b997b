package canbridge

import (
	"testing"
	"time"
)

func TestLoopbackReadWrite(t *testing.T) {
	lb := NewLoopback(5 * time.Millisecond)

	buf := make([]byte, WireFrameSize)
	if n, err := lb.Read(buf); n != 0 || err != nil {
		t.Fatalf("Read() on empty = %d, %v, want 0, nil", n, err)
	}
	if ready, err := lb.WaitReady(); ready || err != nil {
		t.Fatalf("WaitReady() on empty = %v, %v", ready, err)
	}

	frame, _ := ToWire(StackFrame{ID: 0x42, DLC: 1, Data: [8]byte{0x99}}).MarshalBinary()
	lb.Push(frame)
	if ready, err := lb.WaitReady(); !ready || err != nil {
		t.Fatalf("WaitReady() = %v, %v, want true, nil", ready, err)
	}
	n, err := lb.Read(buf)
	if err != nil || n != WireFrameSize {
		t.Fatalf("Read() = %d, %v", n, err)
	}

	if _, err := lb.Write(frame); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := lb.Sent(); len(got) != 1 || len(got[0]) != WireFrameSize {
		t.Fatalf("Sent() = %v", got)
	}
}

func TestLoopbackWaitReadyWakesOnPush(t *testing.T) {
	lb := NewLoopback(time.Second)
	go func() {
		time.Sleep(10 * time.Millisecond)
		lb.PushFrame(WireFrame{ID: 0x1, DLC: 0})
	}()
	start := time.Now()
	ready, err := lb.WaitReady()
	if !ready || err != nil {
		t.Fatalf("WaitReady() = %v, %v", ready, err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("WaitReady() did not wake on push")
	}
}

func TestLoopbackClose(t *testing.T) {
	lb := NewLoopback(0)
	if err := lb.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := lb.Read(make([]byte, WireFrameSize)); err != ErrClosed {
		t.Fatalf("Read() after close error = %v, want ErrClosed", err)
	}
	if _, err := lb.Write(nil); err != ErrClosed {
		t.Fatalf("Write() after close error = %v, want ErrClosed", err)
	}
	if _, err := lb.WaitReady(); err != ErrClosed {
		t.Fatalf("WaitReady() after close error = %v, want ErrClosed", err)
	}
	if err := lb.SetOption(SolCANRaw, CANRawFilter, nil); err != ErrClosed {
		t.Fatalf("SetOption() after close error = %v, want ErrClosed", err)
	}
}
