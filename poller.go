package canbridge

import (
	"time"

	"go.uber.org/zap"
)

// Start launches the receive poller goroutine. It is a no-op for a bridge
// whose transport never opened. Safe to call once per bridge.
func (b *Bridge) Start() {
	b.startOnce.Do(func() {
		if b.transport == nil {
			close(b.done)
			return
		}
		go b.run()
	})
}

// Stop signals the poller to exit and waits for it. Steady-state behavior
// is unchanged: the stop channel is checked once per poll cycle. Stopping
// a bridge that was never started is allowed.
func (b *Bridge) Stop() {
	b.startOnce.Do(func() { close(b.done) })
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.done
}

// run is the receive poll loop: while the attached interface is up, wait
// for transport readiness and inject every immediately available frame
// into the stack; otherwise back off briefly and re-check. Receive-path
// errors drop the frame and never stop the loop.
func (b *Bridge) run() {
	defer close(b.done)
	b.logger.Debug("rx poller started", zap.String("iface", b.name))

	for {
		select {
		case <-b.stop:
			b.logger.Debug("rx poller stopped", zap.String("iface", b.name))
			return
		default:
		}

		ifc := b.attached()
		if ifc == nil || !ifc.IsUp() {
			b.sleep()
			continue
		}

		ready, err := b.transport.WaitReady()
		if err != nil {
			b.logger.Debug("transport wait failed",
				zap.String("iface", b.name), zap.Error(err))
			b.sleep()
			continue
		}
		if ready {
			b.readOne(ifc)
		}
	}
}

// readOne performs one step of a drain cycle: read a frame, convert it and
// inject it into the stack's receive path. A zero-byte read is a transient
// miss and ends the step silently. Allocation failure drops the frame;
// copy failure or delivery rejection releases the buffer and drops the
// frame. None of these stop the poller.
func (b *Bridge) readOne(ifc Interface) {
	n, err := b.transport.Read(b.scratch[:])
	if err != nil {
		b.logger.Debug("transport read failed",
			zap.String("iface", b.name), zap.Error(err))
		return
	}
	if n <= 0 {
		return
	}

	var wf WireFrame
	if err := wf.UnmarshalBinary(b.scratch[:n]); err != nil {
		b.logger.Debug("malformed frame dropped",
			zap.String("iface", b.name), zap.Error(err))
		return
	}
	payload, err := ToStack(wf).MarshalBinary()
	if err != nil {
		b.logger.Debug("unconvertible frame dropped",
			zap.String("iface", b.name), zap.Error(err))
		return
	}

	pkt, err := ifc.AllocPacket(len(payload))
	if err != nil {
		// Back-pressure is implicit; the next cycle picks up later frames.
		b.logger.Debug("rx buffer allocation failed",
			zap.String("iface", b.name), zap.Error(err))
		return
	}
	if err := pkt.Write(payload); err != nil {
		pkt.Release()
		b.logger.Debug("rx buffer write failed",
			zap.String("iface", b.name), zap.Error(err))
		return
	}
	if err := ifc.Deliver(pkt); err != nil {
		pkt.Release()
		b.logger.Debug("rx delivery rejected",
			zap.String("iface", b.name), zap.Error(err))
	}
}

// sleep waits out the back-off delay, returning early on Stop.
func (b *Bridge) sleep() {
	select {
	case <-b.stop:
	case <-time.After(b.backoff):
	}
}
