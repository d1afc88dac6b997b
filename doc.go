// Package canbridge bridges a host-side CAN transport to a network
// stack's CAN interface.
//
// Frames read from the host transport are converted to the stack's
// internal representation and injected into its receive path by a
// per-interface poller goroutine; frames emitted by the stack are
// converted back and written out. Receive filters arrive in either of
// two legacy encodings, distinguished by size alone, and are normalized
// before being installed on the transport.
//
// The package ships a Linux SocketCAN transport, an in-memory loopback
// transport for tests and simulations, and a channel-backed stack
// interface for host-connectivity tooling.
package canbridge
