package canbridge

import (
	"sync"
	"time"
)

// OptionCall records one SetOption invocation on a Loopback transport.
type OptionCall struct {
	Level int
	Name  int
	Value []byte
}

// Loopback is an in-memory host transport for tests and simulations. The
// host side pushes frames for the bridge to read and collects frames the
// bridge writes. Option installs are recorded for inspection.
type Loopback struct {
	mu      sync.Mutex
	closed  bool
	pending [][]byte
	sent    [][]byte
	options []OptionCall
	writes  int
	wait    time.Duration

	writeErr error
	optErr   error

	notify chan struct{}
}

// NewLoopback creates a loopback transport. The readiness wait is bounded
// by the given duration.
func NewLoopback(wait time.Duration) *Loopback {
	if wait <= 0 {
		wait = 10 * time.Millisecond
	}
	return &Loopback{
		wait:   wait,
		notify: make(chan struct{}, 1),
	}
}

// Push queues a frame on the host side for the bridge to read.
func (l *Loopback) Push(frame []byte) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	buf := make([]byte, len(frame))
	copy(buf, frame)
	l.pending = append(l.pending, buf)
	l.mu.Unlock()
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// PushFrame marshals and queues a wire frame.
func (l *Loopback) PushFrame(f WireFrame) error {
	buf, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	l.Push(buf)
	return nil
}

// Sent returns copies of all frames written by the bridge side.
func (l *Loopback) Sent() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.sent))
	for i, b := range l.sent {
		c := make([]byte, len(b))
		copy(c, b)
		out[i] = c
	}
	return out
}

// Writes returns the number of Write calls attempted, successful or not.
func (l *Loopback) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}

// Options returns all recorded SetOption calls.
func (l *Loopback) Options() []OptionCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]OptionCall, len(l.options))
	copy(out, l.options)
	return out
}

// FailWrites makes subsequent Write calls return err. Pass nil to restore.
func (l *Loopback) FailWrites(err error) {
	l.mu.Lock()
	l.writeErr = err
	l.mu.Unlock()
}

// FailOptions makes subsequent SetOption calls return err.
func (l *Loopback) FailOptions(err error) {
	l.mu.Lock()
	l.optErr = err
	l.mu.Unlock()
}

// Read pops the next queued frame, or returns zero bytes when none is
// immediately available.
func (l *Loopback) Read(buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	if len(l.pending) == 0 {
		return 0, nil
	}
	frame := l.pending[0]
	l.pending = l.pending[1:]
	n := copy(buf, frame)
	return n, nil
}

// Write records the frame on the host side.
func (l *Loopback) Write(buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writes++
	if l.closed {
		return 0, ErrClosed
	}
	if l.writeErr != nil {
		return 0, l.writeErr
	}
	c := make([]byte, len(buf))
	copy(c, buf)
	l.sent = append(l.sent, c)
	return len(buf), nil
}

// WaitReady reports whether a frame is queued, waiting up to the bounded
// readiness timeout for one to arrive.
func (l *Loopback) WaitReady() (bool, error) {
	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return false, ErrClosed
		}
		if len(l.pending) > 0 {
			l.mu.Unlock()
			return true, nil
		}
		l.mu.Unlock()
		select {
		case <-l.notify:
		case <-deadline.C:
			return false, nil
		}
	}
}

// SetOption records the option install.
func (l *Loopback) SetOption(level, name int, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.optErr != nil {
		return l.optErr
	}
	c := make([]byte, len(value))
	copy(c, value)
	l.options = append(l.options, OptionCall{Level: level, Name: name, Value: c})
	return nil
}

// Close marks the transport closed. Idempotent.
func (l *Loopback) Close() error {
	l.mu.Lock()
	l.closed = true
	l.pending = nil
	l.mu.Unlock()
	return nil
}
