package wire

import "strconv"

// FrameSize is the fixed wire size of a datalink frame: 2-byte preamble +
// 15-byte network payload + 2-byte decimal checksum.
const FrameSize = 19

// PacketSize is the fixed size of the network-layer payload carried inside
// a frame.
const PacketSize = 15

const preamble = "XX"

// Frame is a view over a 19-byte datalink frame, in the style of
// lneto's EthFrame/IPv4Frame: a thin wrapper around a byte slice with
// accessor methods, rather than ad-hoc index math at every call site.
type Frame struct {
	buf []byte
}

// NewFrame wraps buf as a Frame. buf must be exactly FrameSize bytes.
func NewFrame(buf []byte) (Frame, error) {
	var v Validator
	v.ValidateFrameSize(buf)
	if err := v.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{buf: buf}, nil
}

// RawData returns the underlying 19-byte slice.
func (f Frame) RawData() []byte { return f.buf }

// Preamble returns the 2-byte frame-sync marker.
func (f Frame) Preamble() []byte { return f.buf[0:2] }

// Payload returns the 15-byte network-layer packet carried by the frame.
func (f Frame) Payload() []byte { return f.buf[2:17] }

// ChecksumDigits returns the trailing 2 ASCII decimal checksum digits.
func (f Frame) ChecksumDigits() []byte { return f.buf[17:19] }

// Checksum parses the trailing checksum digits as a decimal integer.
func (f Frame) Checksum() (int, error) {
	v, err := strconv.Atoi(string(f.ChecksumDigits()))
	if err != nil {
		return 0, ErrBadChecksum
	}
	return v, nil
}

// Validate checks the preamble and checksum against the recomputed value of
// Payload, per spec.md §4.1. It does not check PacketSize-related framing;
// callers construct a Frame from an exactly FrameSize buffer already.
//
// Both checks run unconditionally and any failures are accumulated via
// Validator, so a frame with a mangled preamble AND a mismatched checksum
// (the common case once corruption has touched more than one byte) reports
// both instead of only the first one found -- the caller decides once
// (drop the frame, request a NACK) off the combined result.
func (f Frame) Validate() error {
	var v Validator
	if string(f.Preamble()) != preamble {
		v.gotErr(ErrBadPreamble)
	}
	if got, err := f.Checksum(); err != nil {
		v.gotErr(err)
	} else if want := Checksum(f.Payload()); got != want {
		v.gotErr(ErrBadChecksum)
	}
	return v.Err()
}

// EncodeFrame builds the 19-byte wire representation of a 15-byte network
// payload: preamble, payload, zero-padded mod-100 checksum.
func EncodeFrame(payload []byte) ([]byte, error) {
	var v Validator
	v.ValidatePacketSize(payload)
	if err := v.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, FrameSize)
	copy(buf[0:2], preamble)
	copy(buf[2:17], payload)
	cs := Checksum(payload)
	csDigits := strconv.Itoa(cs)
	if len(csDigits) == 1 {
		buf[17] = '0'
		buf[18] = csDigits[0]
	} else {
		copy(buf[17:19], csDigits[len(csDigits)-2:])
	}
	return buf, nil
}

// DecodeFrame validates buf as a complete frame and returns a copy of its
// 15-byte network payload.
func DecodeFrame(buf []byte) ([]byte, error) {
	frm, err := NewFrame(buf)
	if err != nil {
		return nil, err
	}
	if err := frm.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, PacketSize)
	copy(out, frm.Payload())
	return out, nil
}

// PadPayload right-pads p with spaces to PacketSize bytes. p must already be
// at most PacketSize bytes long.
func PadPayload(p []byte) []byte {
	if len(p) >= PacketSize {
		return p[:PacketSize]
	}
	out := make([]byte, PacketSize)
	copy(out, p)
	for i := len(p); i < PacketSize; i++ {
		out[i] = ' '
	}
	return out
}
