package canbridge

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBackoff is the delay between poll cycles while the attached
// interface is down.
const DefaultBackoff = 10 * time.Millisecond

// TxCallback is the stack's transmit completion callback type. The bridge
// accepts it for contract compatibility but never invokes it: the
// underlying transport write blocks until the frame is accepted.
type TxCallback func(err error)

// Bridge connects one host transport to one network stack interface. It
// owns the receive poller goroutine for its transport and exposes the
// send/set-option/attach-filter capability set the stack drives.
//
// The transport is fixed at construction; the interface is attached at
// most once, during bring-up. The wire scratch buffer is touched only by
// the poller within a single read-convert-inject sequence, so no field
// needs a lock beyond the attach handshake.
type Bridge struct {
	name      string
	transport Transport
	logger    *zap.Logger
	backoff   time.Duration

	mu    sync.Mutex
	iface Interface

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}

	scratch [WireFrameSize]byte
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge's logger. Defaults to a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithBackoff sets the poll back-off used while the interface is down.
func WithBackoff(d time.Duration) Option {
	return func(b *Bridge) { b.backoff = d }
}

// New creates a bridge for the named interface over the given transport.
// A nil transport is allowed and models a device that failed to open: the
// poller never starts and sends fail with ErrDeviceUnavailable.
func New(name string, t Transport, opts ...Option) *Bridge {
	b := &Bridge{
		name:      name,
		transport: t,
		logger:    zap.NewNop(),
		backoff:   DefaultBackoff,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the bridge's interface name.
func (b *Bridge) Name() string { return b.name }

// ErrAlreadyAttached is returned when Attach is called twice.
var ErrAlreadyAttached = errors.New("canbridge: interface already attached")

// Attach binds the network stack interface. It may be called at most once,
// during interface bring-up.
func (b *Bridge) Attach(ifc Interface) error {
	if ifc == nil {
		return ErrInvalidArgument
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.iface != nil {
		return ErrAlreadyAttached
	}
	b.iface = ifc
	b.logger.Debug("interface attached", zap.String("iface", b.name))
	return nil
}

func (b *Bridge) attached() Interface {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.iface
}

// Send converts the frame and writes it to the host transport. The
// timeout and completion callback are accepted from the stack's calling
// contract and intentionally unused; the transport write itself blocks
// until the frame is accepted, so the call is fire-and-forget.
//
// An unopened transport fails with ErrDeviceUnavailable before any I/O.
// A failed write surfaces as a *TransmitError and is never retried here.
func (b *Bridge) Send(frame StackFrame, _ time.Duration, _ TxCallback) error {
	if b.transport == nil {
		return ErrDeviceUnavailable
	}
	if err := frame.Validate(); err != nil {
		return err
	}
	buf, err := ToWire(frame).MarshalBinary()
	if err != nil {
		return err
	}
	n, err := b.transport.Write(buf)
	if err == nil && n < len(buf) {
		err = ErrShortWrite
	}
	if err != nil {
		b.logger.Error("cannot send CAN frame",
			zap.String("iface", b.name),
			zap.Uint8("dlc", frame.DLC),
			zap.Error(err))
		return &TransmitError{DLC: frame.DLC, Err: err}
	}
	return nil
}

// SetOption installs a receive filter on the host transport. Only the raw
// CAN level with the filter option name is understood. The payload must be
// exactly one of the two legacy filter encodings, selected by length: the
// canonical size is forwarded verbatim, the stack size is converted first.
// The transport's result is propagated unchanged.
func (b *Bridge) SetOption(level, name int, value []byte) error {
	if level != SolCANRaw || name != CANRawFilter {
		return ErrInvalidArgument
	}
	filt, err := filterFromRaw(value)
	if err != nil {
		return err
	}
	if b.transport == nil {
		return ErrDeviceUnavailable
	}
	buf, err := filt.MarshalBinary()
	if err != nil {
		return err
	}
	if err := b.transport.SetOption(level, name, buf); err != nil {
		b.logger.Error("cannot install CAN filter",
			zap.String("iface", b.name),
			zap.Uint32("id", filt.ID),
			zap.Uint32("mask", filt.Mask),
			zap.Error(err))
		return err
	}
	return nil
}

// AttachFilter accepts a stack-side acceptance filter. Host-side filtering
// happens through SetOption; per-filter callbacks have no effect on this
// bridge, so the filter is accepted and ignored. The returned id is valid
// for Detach.
func (b *Bridge) AttachFilter(_ StackFilter) int { return 0 }

// Detach removes a filter installed via AttachFilter. No-op.
func (b *Bridge) Detach(_ int) {}

// CloseFilter is the stack's close entry point for a filter id. It
// forwards to Detach.
func (b *Bridge) CloseFilter(id int) { b.Detach(id) }
