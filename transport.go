package canbridge

// Transport is the host-side byte channel carrying raw CAN frames.
// Implementations should be safe for concurrent use: the receive poller
// calls WaitReady/Read while the stack's transmit and control paths call
// Write/SetOption.
type Transport interface {
	// Read fills buf with at most one frame and returns the byte count.
	// A zero count with a nil error means no data was immediately
	// available; it is not an error.
	Read(buf []byte) (int, error)

	// Write sends one frame. It may block until the transport accepts
	// the frame.
	Write(buf []byte) (int, error)

	// WaitReady blocks until data is readable or a bounded internal wait
	// elapses. It reports whether data is ready; a false result with a
	// nil error means the wait timed out and may simply be repeated.
	WaitReady() (bool, error)

	// SetOption installs a transport option, such as a receive filter.
	SetOption(level, name int, value []byte) error

	// Close releases the transport. Further calls may return an error.
	Close() error
}
