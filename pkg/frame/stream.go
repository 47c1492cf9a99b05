package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/m17-go/m17/pkg/crc"
	"github.com/m17-go/m17/pkg/m17err"
)

// StreamSize is the fixed RF stream-frame length.
const StreamSize = 26

// eotFlag is frame_number bit 15, the end-of-transmission marker.
const eotFlag = 1 << 15

// StreamFrame is the 26-byte RF frame: LICH-chunk ‖ frame_number ‖
// payload ‖ CRC. The CRC covers the first 24 bytes.
type StreamFrame struct {
	LICHChunk   [6]byte
	FrameNumber uint16 // bit 15 is EOT; low 15 bits are the sequence number
	Payload     [16]byte
}

// EOT reports whether the end-of-transmission flag is set.
func (f *StreamFrame) EOT() bool {
	return f.FrameNumber&eotFlag != 0
}

// SequenceNumber returns the frame number with the EOT bit masked off.
func (f *StreamFrame) SequenceNumber() uint16 {
	return f.FrameNumber &^ eotFlag
}

// SetEOT sets or clears the end-of-transmission flag.
func (f *StreamFrame) SetEOT(eot bool) {
	if eot {
		f.FrameNumber |= eotFlag
	} else {
		f.FrameNumber &^= eotFlag
	}
}

// ToBytes serializes the frame to its 26-byte wire form.
func (f *StreamFrame) ToBytes() []byte {
	out := make([]byte, StreamSize)
	copy(out[0:6], f.LICHChunk[:])
	binary.BigEndian.PutUint16(out[6:8], f.FrameNumber)
	copy(out[8:24], f.Payload[:])
	binary.BigEndian.PutUint16(out[24:26], crc.Checksum(out[0:24]))
	return out
}

// StreamFrameFromBytes parses and validates a 26-byte RF stream frame.
func StreamFrameFromBytes(data []byte) (*StreamFrame, error) {
	if len(data) != StreamSize {
		return nil, fmt.Errorf("%w: stream frame must be %d bytes, got %d", m17err.ErrInvalidInput, StreamSize, len(data))
	}
	if !crc.Verify(data) {
		return nil, m17err.ErrChecksum
	}

	f := &StreamFrame{FrameNumber: binary.BigEndian.Uint16(data[6:8])}
	copy(f.LICHChunk[:], data[0:6])
	copy(f.Payload[:], data[8:24])
	return f, nil
}
