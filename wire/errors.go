package wire

// errKind is a small sentinel-error enum, mirroring the teacher's
// errGeneric pattern (lneto/errors.go) rather than a pile of package-level
// errors.New values.
type errKind uint8

const (
	_ errKind = iota // zero value is never a valid error
	// ErrBadPreamble is returned when a frame's first two bytes are not "XX".
	ErrBadPreamble
	// ErrBadChecksum is returned when a frame's trailing checksum digits do
	// not match the recomputed checksum of its payload.
	ErrBadChecksum
	// ErrFrameSize is returned when a buffer is not exactly FrameSize bytes.
	ErrFrameSize
	// ErrPacketSize is returned when a buffer is not exactly PacketSize bytes.
	ErrPacketSize
	// ErrMessageTooLong is returned when an encoded transport message would
	// not fit in a network packet's data payload.
	ErrMessageTooLong
	// ErrUnknownPacketType is returned when a packet's discriminator byte is
	// neither 'D' nor 'L'.
	ErrUnknownPacketType
	// ErrUnknownMessageType is returned when a message's discriminator byte
	// is neither 'D' nor 'N'.
	ErrUnknownMessageType
	// ErrInvalidNodeID is returned when a digit is out of the [0..9] node
	// address space.
	ErrInvalidNodeID
	// ErrInvalidSeq is returned when a sequence number is out of [0..99].
	ErrInvalidSeq
	// ErrTruncated is returned when a buffer is shorter than a field it is
	// asked to contain.
	ErrTruncated
)

func (e errKind) Error() string {
	switch e {
	case ErrBadPreamble:
		return "wire: bad frame preamble"
	case ErrBadChecksum:
		return "wire: checksum mismatch"
	case ErrFrameSize:
		return "wire: frame is not exactly 19 bytes"
	case ErrPacketSize:
		return "wire: packet is not exactly 15 bytes"
	case ErrMessageTooLong:
		return "wire: encoded message exceeds packet data capacity"
	case ErrUnknownPacketType:
		return "wire: unknown packet discriminator"
	case ErrUnknownMessageType:
		return "wire: unknown message discriminator"
	case ErrInvalidNodeID:
		return "wire: node id out of range [0..9]"
	case ErrInvalidSeq:
		return "wire: sequence number out of range [0..99]"
	case ErrTruncated:
		return "wire: buffer shorter than expected field"
	default:
		return "wire: unspecified error"
	}
}
