package canbridge

import (
	"errors"
	"sync"
)

// Packet is one inbound packet buffer obtained from the stack.
type Packet interface {
	// Write appends payload bytes into the buffer.
	Write(p []byte) error

	// Release returns the buffer to the stack without delivering it.
	Release()
}

// Interface is the bridge's view of the network stack interface it feeds.
// The bridge queries administrative state, allocates receive buffers and
// hands filled packets to the stack's receive path through it.
type Interface interface {
	// IsUp reports whether the interface is administratively up.
	IsUp() bool

	// AllocPacket obtains a receive buffer able to hold size bytes.
	// ErrNoBufs when the stack is out of buffers.
	AllocPacket(size int) (Packet, error)

	// Deliver hands a filled packet to the stack's receive path. On
	// success the stack takes ownership; on failure the caller must
	// release the packet.
	Deliver(Packet) error
}

// ErrDeliveryRejected is returned by ChanInterface when its receive queue
// is full and a frame cannot be accepted.
var ErrDeliveryRejected = errors.New("canbridge: delivery rejected")

// ChanInterface is a minimal stack interface delivering injected frames to
// a channel. It serves tests and host-connectivity tooling in place of a
// real embedded stack. Buffer allocation draws from a bounded pool so
// exhaustion is an observable condition.
type ChanInterface struct {
	mu     sync.Mutex
	up     bool
	credit int
	frames chan StackFrame
}

// NewChanInterface creates an interface that queues up to buffer frames
// and allows the same number of outstanding packet allocations.
func NewChanInterface(buffer int) *ChanInterface {
	if buffer < 1 {
		buffer = 1
	}
	return &ChanInterface{
		credit: buffer,
		frames: make(chan StackFrame, buffer),
	}
}

// SetUp changes the administrative state.
func (c *ChanInterface) SetUp(up bool) {
	c.mu.Lock()
	c.up = up
	c.mu.Unlock()
}

// IsUp reports the administrative state.
func (c *ChanInterface) IsUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

// Frames returns the channel carrying delivered frames.
func (c *ChanInterface) Frames() <-chan StackFrame { return c.frames }

// AllocPacket takes one buffer credit. ErrNoBufs when the pool is empty.
func (c *ChanInterface) AllocPacket(size int) (Packet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.credit <= 0 {
		return nil, ErrNoBufs
	}
	c.credit--
	return &chanPacket{owner: c, buf: make([]byte, 0, size)}, nil
}

// Deliver decodes the packet as a StackFrame and queues it. The packet is
// consumed on success; a full queue rejects the delivery.
func (c *ChanInterface) Deliver(p Packet) error {
	cp, ok := p.(*chanPacket)
	if !ok {
		return ErrDeliveryRejected
	}
	var f StackFrame
	if err := f.UnmarshalBinary(cp.buf); err != nil {
		return err
	}
	select {
	case c.frames <- f:
		cp.Release()
		return nil
	default:
		return ErrDeliveryRejected
	}
}

func (c *ChanInterface) release() {
	c.mu.Lock()
	c.credit++
	c.mu.Unlock()
}

type chanPacket struct {
	owner    *ChanInterface
	buf      []byte
	released bool
}

// Write appends into the buffer; exceeding the allocated capacity fails
// with ErrNoBufs, mirroring a stack-side copy failure.
func (p *chanPacket) Write(b []byte) error {
	if len(p.buf)+len(b) > cap(p.buf) {
		return ErrNoBufs
	}
	p.buf = append(p.buf, b...)
	return nil
}

// Release returns the buffer credit to the pool. Idempotent.
func (p *chanPacket) Release() {
	if p.released {
		return
	}
	p.released = true
	p.owner.release()
}
