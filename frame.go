package canbridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Identifier flag bits as used by the host transport's frame layout
// (Linux SocketCAN struct can_frame).
const (
	EFFFlag uint32 = 0x80000000 // extended frame format
	RTRFlag uint32 = 0x40000000 // remote transmission request

	StdIDMask uint32 = 0x7FF
	ExtIDMask uint32 = 0x1FFFFFFF
)

// WireFrameSize is the binary size of a WireFrame on the host transport
// (the classical CAN MTU).
const WireFrameSize = 16

// StackFrameSize is the binary size of a StackFrame as written into a
// receive packet for the network stack.
const StackFrameSize = 16

var (
	ErrInvalidID  = errors.New("canbridge: invalid identifier")
	ErrInvalidDLC = errors.New("canbridge: invalid data length")
)

// WireFrame is the host transport's on-wire frame: a 32-bit identifier with
// the EFF/RTR flags folded in, a data length code (0..8) and up to 8 payload
// bytes. Immutable once read from the transport.
type WireFrame struct {
	ID   uint32 // raw identifier word including flag bits
	DLC  uint8
	Data [8]byte
}

// Extended reports whether the EFF flag is set in the identifier word.
func (f WireFrame) Extended() bool { return f.ID&EFFFlag != 0 }

// RTR reports whether the RTR flag is set in the identifier word.
func (f WireFrame) RTR() bool { return f.ID&RTRFlag != 0 }

// MarshalBinary encodes the frame to the transport's 16-byte layout
// (little-endian):
//
//	0..3  id (with EFF/RTR flags)
//	4     dlc
//	5..7  padding (zero)
//	8..15 data bytes
func (f WireFrame) MarshalBinary() ([]byte, error) {
	if f.DLC > 8 {
		return nil, ErrInvalidDLC
	}
	buf := make([]byte, WireFrameSize)
	binary.LittleEndian.PutUint32(buf[0:4], f.ID)
	buf[4] = f.DLC
	copy(buf[8:16], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a frame from the transport's 16-byte layout.
func (f *WireFrame) UnmarshalBinary(data []byte) error {
	if len(data) < WireFrameSize {
		return fmt.Errorf("canbridge: need %d bytes, got %d", WireFrameSize, len(data))
	}
	f.ID = binary.LittleEndian.Uint32(data[0:4])
	f.DLC = data[4]
	copy(f.Data[:], data[8:16])
	if f.DLC > 8 {
		return ErrInvalidDLC
	}
	return nil
}

// StackFrame is the network stack's internal frame representation: the
// identifier carries no flag bits, the identifier kind and RTR are explicit
// fields.
type StackFrame struct {
	ID       uint32 // 11-bit (std) or 29-bit (ext)
	Extended bool   // true for 29-bit identifier
	RTR      bool   // remote transmission request
	DLC      uint8  // 0..8
	Data     [8]byte
}

// Validate returns an error if the frame is not valid.
func (f StackFrame) Validate() error {
	if f.DLC > 8 {
		return ErrInvalidDLC
	}
	if f.Extended {
		if f.ID > ExtIDMask {
			return ErrInvalidID
		}
	} else {
		if f.ID > StdIDMask {
			return ErrInvalidID
		}
	}
	return nil
}

// String renders the frame in candump-like form, e.g. "123 [2] DE AD".
func (f StackFrame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%X [%d]", f.ID, f.DLC)
	if f.RTR {
		b.WriteString(" RTR")
		return b.String()
	}
	for i := 0; i < int(f.DLC) && i < 8; i++ {
		fmt.Fprintf(&b, " %02X", f.Data[i])
	}
	return b.String()
}

// MarshalBinary encodes the frame to the 16-byte stack packet layout
// (little-endian):
//
//	0..3  id (no flags)
//	4     flags (bit 0 extended, bit 1 RTR)
//	5     dlc
//	6..7  padding (zero)
//	8..15 data bytes
func (f StackFrame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, StackFrameSize)
	binary.LittleEndian.PutUint32(buf[0:4], f.ID)
	if f.Extended {
		buf[4] |= 0x01
	}
	if f.RTR {
		buf[4] |= 0x02
	}
	buf[5] = f.DLC
	copy(buf[8:16], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a frame from the 16-byte stack packet layout.
func (f *StackFrame) UnmarshalBinary(data []byte) error {
	if len(data) < StackFrameSize {
		return fmt.Errorf("canbridge: need %d bytes, got %d", StackFrameSize, len(data))
	}
	f.ID = binary.LittleEndian.Uint32(data[0:4])
	f.Extended = data[4]&0x01 != 0
	f.RTR = data[4]&0x02 != 0
	f.DLC = data[5]
	copy(f.Data[:], data[8:16])
	return f.Validate()
}

// ToStack converts a transport frame to the stack's representation. The
// conversion is total for DLC 0..8 and both identifier kinds, and lossless
// on identifier, identifier kind, RTR, DLC and payload bytes 0..DLC-1.
func ToStack(w WireFrame) StackFrame {
	s := StackFrame{
		Extended: w.Extended(),
		RTR:      w.RTR(),
		DLC:      w.DLC,
		Data:     w.Data,
	}
	if s.Extended {
		s.ID = w.ID & ExtIDMask
	} else {
		s.ID = w.ID & StdIDMask
	}
	return s
}

// ToWire converts a stack frame to the transport's representation. Inverse
// of ToStack on the semantic fields.
func ToWire(s StackFrame) WireFrame {
	w := WireFrame{DLC: s.DLC, Data: s.Data}
	if s.Extended {
		w.ID = s.ID&ExtIDMask | EFFFlag
	} else {
		w.ID = s.ID & StdIDMask
	}
	if s.RTR {
		w.ID |= RTRFlag
	}
	return w
}
