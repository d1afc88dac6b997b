package canbridge

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable indicates the host transport was never opened
	// (or failed to open) for this bridge.
	ErrDeviceUnavailable = errors.New("canbridge: device unavailable")

	// ErrInvalidArgument indicates a malformed or mis-sized filter request
	// or a wrong option level/name.
	ErrInvalidArgument = errors.New("canbridge: invalid argument")

	// ErrNoBufs indicates the stack could not allocate a receive buffer.
	ErrNoBufs = errors.New("canbridge: no buffers available")

	// ErrShortWrite indicates the transport accepted fewer bytes than one
	// full frame.
	ErrShortWrite = errors.New("canbridge: short write")

	// ErrClosed indicates the transport or endpoint has been closed.
	ErrClosed = errors.New("canbridge: closed")
)

// TransmitError reports a failed transport write on the send path. It
// carries the frame's data length and the underlying transport error; the
// caller decides on retry, the bridge never does.
type TransmitError struct {
	DLC uint8
	Err error
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("canbridge: cannot send frame len %d: %v", e.DLC, e.Err)
}

func (e *TransmitError) Unwrap() error { return e.Err }
