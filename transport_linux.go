//go:build linux

package canbridge

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// socketCAN implements Transport over a Linux raw CAN socket. The socket
// is kept non-blocking; readiness is observed through a bounded poll so
// the caller's stop signal stays responsive.
type socketCAN struct {
	fd     int
	waitMs int
}

// SocketCANOption configures OpenSocketCAN.
type SocketCANOption func(*socketCAN)

// WithWaitTimeout bounds the WaitReady poll. Default 100ms.
func WithWaitTimeout(d time.Duration) SocketCANOption {
	return func(s *socketCAN) { s.waitMs = int(d / time.Millisecond) }
}

// OpenSocketCAN opens a raw CAN socket bound to the named host interface
// (e.g. "zcan0").
func OpenSocketCAN(name string, opts ...SocketCANOption) (Transport, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("canbridge: socket(AF_CAN): %w", err)
	}
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canbridge: interface %q: %w", name, err)
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: ifi.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canbridge: bind(can@%s): %w", name, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canbridge: set nonblock: %w", err)
	}
	s := &socketCAN{fd: fd, waitMs: 100}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Read fetches at most one frame. EAGAIN maps to a zero count.
func (s *socketCAN) Read(buf []byte) (int, error) {
	n, err := unix.Read(s.fd, buf)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Write sends one frame, retrying while the kernel queue is full. The
// call blocks until the frame is accepted.
func (s *socketCAN) Write(buf []byte) (int, error) {
	for {
		n, err := unix.Write(s.fd, buf)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLOUT}}
			unix.Poll(fds, s.waitMs)
			continue
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

// WaitReady polls the socket for readable data, bounded by the configured
// wait timeout.
func (s *socketCAN) WaitReady() (bool, error) {
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, s.waitMs)
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return false, fmt.Errorf("canbridge: poll: revents %#x", fds[0].Revents)
	}
	return fds[0].Revents&unix.POLLIN != 0, nil
}

// SetOption installs a socket option, typically a receive filter at
// (SolCANRaw, CANRawFilter).
func (s *socketCAN) SetOption(level, name int, value []byte) error {
	if err := unix.SetsockoptString(s.fd, level, name, string(value)); err != nil {
		return fmt.Errorf("canbridge: setsockopt(%d,%d): %w", level, name, err)
	}
	return nil
}

// Close releases the socket.
func (s *socketCAN) Close() error {
	return unix.Close(s.fd)
}
