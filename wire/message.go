package wire

import "strconv"

// MessageKind discriminates a transport-layer message by its first byte.
type MessageKind byte

const (
	MessageKindData MessageKind = 'D'
	MessageKindNack MessageKind = 'N'
)

// MaxFragment is the largest application-text fragment a single data
// message carries.
const MaxFragment = 5

// DataMessage is the transport-layer "D" message: one sequence-numbered
// fragment of application text.
type DataMessage struct {
	Source   NodeID
	Dest     NodeID
	Seq      int
	Fragment []byte
}

// NackMessage is the transport-layer "N" message: a request from Source
// (the NACKing node) to Dest (the original sender) for sequence number Seq.
type NackMessage struct {
	Source NodeID
	Dest   NodeID
	Seq    int
}

// MessageKindOf returns the discriminator of an encoded transport message.
func MessageKindOf(encoded []byte) (MessageKind, error) {
	if len(encoded) == 0 {
		return 0, ErrTruncated
	}
	switch MessageKind(encoded[0]) {
	case MessageKindData, MessageKindNack:
		return MessageKind(encoded[0]), nil
	default:
		return 0, ErrUnknownMessageType
	}
}

// Encode serializes m as "D"<source><dest><seq:02><fragment>.
func (m DataMessage) Encode() ([]byte, error) {
	if !m.Source.Valid() || !m.Dest.Valid() {
		return nil, ErrInvalidNodeID
	}
	if m.Seq < 0 || m.Seq > 99 {
		return nil, ErrInvalidSeq
	}
	if len(m.Fragment) > MaxFragment {
		return nil, ErrMessageTooLong
	}
	out := make([]byte, 0, 5+len(m.Fragment))
	out = append(out, byte(MessageKindData), m.Source.Digit(), m.Dest.Digit())
	out = append(out, []byte(zeroPad2(m.Seq))...)
	out = append(out, m.Fragment...)
	return out, nil
}

// ParseDataMessage parses an encoded "D" transport message.
func ParseDataMessage(encoded []byte) (DataMessage, error) {
	if len(encoded) < 5 {
		return DataMessage{}, ErrTruncated
	}
	if MessageKind(encoded[0]) != MessageKindData {
		return DataMessage{}, ErrUnknownMessageType
	}
	source, err := ParseNodeID(encoded[1])
	if err != nil {
		return DataMessage{}, err
	}
	dest, err := ParseNodeID(encoded[2])
	if err != nil {
		return DataMessage{}, err
	}
	seq, err := strconv.Atoi(string(encoded[3:5]))
	if err != nil {
		return DataMessage{}, ErrInvalidSeq
	}
	frag := make([]byte, len(encoded)-5)
	copy(frag, encoded[5:])
	return DataMessage{Source: source, Dest: dest, Seq: seq, Fragment: frag}, nil
}

// Encode serializes m as "N"<source><dest><seq:02>.
func (m NackMessage) Encode() ([]byte, error) {
	if !m.Source.Valid() || !m.Dest.Valid() {
		return nil, ErrInvalidNodeID
	}
	if m.Seq < 0 || m.Seq > 99 {
		return nil, ErrInvalidSeq
	}
	out := make([]byte, 0, 5)
	out = append(out, byte(MessageKindNack), m.Source.Digit(), m.Dest.Digit())
	out = append(out, []byte(zeroPad2(m.Seq))...)
	return out, nil
}

// ParseNackMessage parses an encoded "N" transport message.
func ParseNackMessage(encoded []byte) (NackMessage, error) {
	if len(encoded) != 5 {
		return NackMessage{}, ErrTruncated
	}
	if MessageKind(encoded[0]) != MessageKindNack {
		return NackMessage{}, ErrUnknownMessageType
	}
	source, err := ParseNodeID(encoded[1])
	if err != nil {
		return NackMessage{}, err
	}
	dest, err := ParseNodeID(encoded[2])
	if err != nil {
		return NackMessage{}, err
	}
	seq, err := strconv.Atoi(string(encoded[3:5]))
	if err != nil {
		return NackMessage{}, ErrInvalidSeq
	}
	return NackMessage{Source: source, Dest: dest, Seq: seq}, nil
}
