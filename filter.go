package canbridge

import (
	"encoding/binary"
	"fmt"
)

// Raw CAN socket option constants understood by SetOption. They mirror the
// host's SOL_CAN_RAW level and CAN_RAW_FILTER option name.
const (
	SolCANRaw    = 101
	CANRawFilter = 1
)

// Binary sizes of the two historically coexisting filter encodings.
// Disambiguation in SetOption is by length alone, so the two must never
// share a size.
const (
	WireFilterSize  = 8  // legacy-small: already canonical
	StackFilterSize = 12 // legacy-large: stack layout, needs conversion
)

// WireFilter is the transport's canonical acceptance filter: a frame is
// accepted when received_id & Mask == ID & Mask. The EFF/RTR flag bits
// participate like identifier bits.
type WireFilter struct {
	ID   uint32
	Mask uint32
}

// MarshalBinary encodes the filter to its canonical 8-byte layout.
func (f WireFilter) MarshalBinary() ([]byte, error) {
	buf := make([]byte, WireFilterSize)
	binary.LittleEndian.PutUint32(buf[0:4], f.ID)
	binary.LittleEndian.PutUint32(buf[4:8], f.Mask)
	return buf, nil
}

// UnmarshalBinary decodes the canonical 8-byte layout.
func (f *WireFilter) UnmarshalBinary(data []byte) error {
	if len(data) != WireFilterSize {
		return fmt.Errorf("canbridge: need %d bytes, got %d: %w", WireFilterSize, len(data), ErrInvalidArgument)
	}
	f.ID = binary.LittleEndian.Uint32(data[0:4])
	f.Mask = binary.LittleEndian.Uint32(data[4:8])
	return nil
}

// StackFilter is the network stack's acceptance filter: identifier kind,
// RTR matching and the identifier mask are explicit fields. Semantically
// equivalent to WireFilter, only the layout differs.
type StackFilter struct {
	ID       uint32
	IDMask   uint32
	Extended bool
	RTR      bool
	RTRMask  bool
}

// MarshalBinary encodes the filter to the 12-byte stack layout
// (little-endian):
//
//	0..3  id
//	4..7  id mask
//	8     identifier kind (1 = extended)
//	9     rtr
//	10    rtr mask
//	11    padding (zero)
func (f StackFilter) MarshalBinary() ([]byte, error) {
	buf := make([]byte, StackFilterSize)
	binary.LittleEndian.PutUint32(buf[0:4], f.ID)
	binary.LittleEndian.PutUint32(buf[4:8], f.IDMask)
	if f.Extended {
		buf[8] = 1
	}
	if f.RTR {
		buf[9] = 1
	}
	if f.RTRMask {
		buf[10] = 1
	}
	return buf, nil
}

// UnmarshalBinary decodes the 12-byte stack layout.
func (f *StackFilter) UnmarshalBinary(data []byte) error {
	if len(data) != StackFilterSize {
		return fmt.Errorf("canbridge: need %d bytes, got %d: %w", StackFilterSize, len(data), ErrInvalidArgument)
	}
	f.ID = binary.LittleEndian.Uint32(data[0:4])
	f.IDMask = binary.LittleEndian.Uint32(data[4:8])
	f.Extended = data[8] != 0
	f.RTR = data[9] != 0
	f.RTRMask = data[10] != 0
	return nil
}

// FilterToWire converts a stack filter to the transport's canonical form.
// The identifier kind and RTR bits fold into the flag positions of the id
// and mask words.
func FilterToWire(f StackFilter) WireFilter {
	var w WireFilter
	if f.Extended {
		w.ID = f.ID&ExtIDMask | EFFFlag
		w.Mask = f.IDMask&ExtIDMask | EFFFlag
	} else {
		w.ID = f.ID & StdIDMask
		w.Mask = f.IDMask & StdIDMask
	}
	if f.RTR {
		w.ID |= RTRFlag
	}
	if f.RTRMask {
		w.Mask |= RTRFlag
	}
	return w
}

// FilterFromWire converts a canonical filter back to the stack's form.
// Inverse of FilterToWire on the semantic fields.
func FilterFromWire(w WireFilter) StackFilter {
	f := StackFilter{
		Extended: w.ID&EFFFlag != 0,
		RTR:      w.ID&RTRFlag != 0,
		RTRMask:  w.Mask&RTRFlag != 0,
	}
	if f.Extended {
		f.ID = w.ID & ExtIDMask
		f.IDMask = w.Mask & ExtIDMask
	} else {
		f.ID = w.ID & StdIDMask
		f.IDMask = w.Mask & StdIDMask
	}
	return f
}

// filterFromRaw normalizes a caller-supplied filter payload to the
// canonical form. The encoding is selected by length alone: the canonical
// size is copied verbatim, the stack size is decoded and converted. Any
// other length is ErrInvalidArgument; content is never inspected to decide.
func filterFromRaw(value []byte) (WireFilter, error) {
	switch len(value) {
	case WireFilterSize:
		var w WireFilter
		if err := w.UnmarshalBinary(value); err != nil {
			return WireFilter{}, err
		}
		return w, nil
	case StackFilterSize:
		var s StackFilter
		if err := s.UnmarshalBinary(value); err != nil {
			return WireFilter{}, err
		}
		return FilterToWire(s), nil
	default:
		return WireFilter{}, fmt.Errorf("canbridge: filter payload of %d bytes: %w", len(value), ErrInvalidArgument)
	}
}
