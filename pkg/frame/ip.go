// Package frame implements the three M17 wire frames: the reflector
// IP frame, the RF stream frame, and the packet-mode chunk format
// (§4.K).
package frame

import (
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/m17-go/m17/pkg/address"
	"github.com/m17-go/m17/pkg/crc"
	"github.com/m17-go/m17/pkg/m17err"
)

// Magic is the 4-byte IP-frame signature "M17 ".
var Magic = [4]byte{0x4D, 0x31, 0x37, 0x20}

// IPSize is the fixed IP-frame length.
const IPSize = 54

const (
	ipNonceSize   = 14
	ipPayloadSize = 16
)

// IPFrame is the 54-byte datagram exchanged with a reflector: magic ‖
// stream_id ‖ DST ‖ SRC ‖ TYPE ‖ META ‖ frame_number ‖ payload ‖ CRC.
type IPFrame struct {
	StreamID    uint16
	Dst         address.Address
	Src         address.Address
	TypeField   uint16
	Meta        [14]byte
	FrameNumber uint16
	Payload     [16]byte
}

// CreateIPFrame builds an IPFrame from callsign strings, randomizing
// streamID in [1, 0xFFFF] when zero and padding/truncating nonce and
// payload to 14 and 16 bytes.
func CreateIPFrame(dst, src string, streamID uint16, typeField uint16, frameNumber uint16, nonce, payload []byte) (*IPFrame, error) {
	dstAddr, err := address.Encode(dst)
	if err != nil {
		return nil, err
	}
	srcAddr, err := address.Encode(src)
	if err != nil {
		return nil, err
	}
	if streamID == 0 {
		streamID = uint16(1 + rand.Intn(0xFFFF))
	}
	f := &IPFrame{
		StreamID:    streamID,
		Dst:         dstAddr,
		Src:         srcAddr,
		TypeField:   typeField,
		FrameNumber: frameNumber,
	}
	copy(f.Meta[:], padOrTruncate(nonce, ipNonceSize))
	copy(f.Payload[:], padOrTruncate(payload, ipPayloadSize))
	return f, nil
}

func padOrTruncate(data []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, data)
	return out
}

// ToBytes serializes the frame to its 54-byte wire form, computing
// the CRC over DST..payload (bytes 6..52).
func (f *IPFrame) ToBytes() []byte {
	out := make([]byte, IPSize)
	copy(out[0:4], Magic[:])
	binary.BigEndian.PutUint16(out[4:6], f.StreamID)

	dstBytes := f.Dst.Bytes()
	srcBytes := f.Src.Bytes()
	copy(out[6:12], dstBytes[:])
	copy(out[12:18], srcBytes[:])
	binary.BigEndian.PutUint16(out[18:20], f.TypeField)
	copy(out[20:34], f.Meta[:])
	binary.BigEndian.PutUint16(out[34:36], f.FrameNumber)
	copy(out[36:52], f.Payload[:])

	binary.BigEndian.PutUint16(out[52:54], crc.Checksum(out[6:52]))
	return out
}

// IPFrameFromBytes parses and validates a 54-byte IP frame.
func IPFrameFromBytes(data []byte) (*IPFrame, error) {
	if len(data) != IPSize {
		return nil, fmt.Errorf("%w: IP frame must be %d bytes, got %d", m17err.ErrWireFormat, IPSize, len(data))
	}
	if string(data[0:4]) != string(Magic[:]) {
		return nil, fmt.Errorf("%w: bad IP frame magic", m17err.ErrWireFormat)
	}
	got := binary.BigEndian.Uint16(data[52:54])
	want := crc.Checksum(data[6:52])
	if got != want {
		return nil, m17err.ErrChecksum
	}

	dst, err := address.FromBytes(data[6:12])
	if err != nil {
		return nil, err
	}
	src, err := address.FromBytes(data[12:18])
	if err != nil {
		return nil, err
	}

	f := &IPFrame{
		StreamID:    binary.BigEndian.Uint16(data[4:6]),
		Dst:         dst,
		Src:         src,
		TypeField:   binary.BigEndian.Uint16(data[18:20]),
		FrameNumber: binary.BigEndian.Uint16(data[34:36]),
	}
	copy(f.Meta[:], data[20:34])
	copy(f.Payload[:], data[36:52])
	return f, nil
}
