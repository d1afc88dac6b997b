package canbridge

import (
	"errors"
	"testing"
	"time"
)

func TestRegistryAddAndGet(t *testing.T) {
	r := NewRegistry()
	b0 := New("zcan0", NewLoopback(0))
	b1 := New("zcan1", NewLoopback(0))

	if err := r.Add(b0); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := r.Add(b1); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := r.Add(New("zcan0", nil)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("duplicate Add() error = %v, want ErrInvalidArgument", err)
	}

	got, ok := r.Get("zcan1")
	if !ok || got != b1 {
		t.Fatalf("Get(zcan1) = %v, %v", got, ok)
	}
	if _, ok := r.Get("zcan9"); ok {
		t.Fatalf("Get(zcan9) found a bridge")
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "zcan0" || names[1] != "zcan1" {
		t.Fatalf("Names() = %v", names)
	}
}

func TestRegistryStartStopAll(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zcan0", "zcan1"} {
		b := New(name, NewLoopback(5*time.Millisecond), WithBackoff(2*time.Millisecond))
		ifc := NewChanInterface(4)
		ifc.SetUp(true)
		if err := b.Attach(ifc); err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
		if err := r.Add(b); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	r.StartAll()

	done := make(chan struct{})
	go func() {
		r.StopAll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("StopAll() did not return")
	}
}

// Pollers for different interfaces share no state: frames pushed on one
// transport only ever surface on its own interface.
func TestRegistryIndependentBridges(t *testing.T) {
	r := NewRegistry()
	lbs := make(map[string]*Loopback)
	ifcs := make(map[string]*ChanInterface)
	for _, name := range []string{"zcan0", "zcan1"} {
		lb := NewLoopback(5 * time.Millisecond)
		b := New(name, lb, WithBackoff(2*time.Millisecond))
		ifc := NewChanInterface(4)
		ifc.SetUp(true)
		if err := b.Attach(ifc); err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
		if err := r.Add(b); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		lbs[name] = lb
		ifcs[name] = ifc
	}
	r.StartAll()
	defer r.StopAll()

	lbs["zcan0"].PushFrame(ToWire(StackFrame{ID: 0x111, DLC: 0}))
	f := recvFrame(t, ifcs["zcan0"].Frames(), time.Second)
	if f.ID != 0x111 {
		t.Fatalf("frame = %+v, want id 0x111", f)
	}
	if n := len(ifcs["zcan1"].Frames()); n != 0 {
		t.Fatalf("frame leaked to the wrong interface")
	}
}
