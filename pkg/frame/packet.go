package frame

import (
	"bytes"
	"fmt"

	"github.com/m17-go/m17/pkg/crc"
	"github.com/m17-go/m17/pkg/m17err"
)

// ProtocolID names the logical-packet content type, prepended to the
// payload before chunking.
type ProtocolID uint8

const (
	ProtocolRAW ProtocolID = iota
	ProtocolAX25
	ProtocolAPRS
	Protocol6LoWPAN
	ProtocolIPv4
	ProtocolSMS
	ProtocolWinlink
	ProtocolTLE
)

const (
	// ChunkSize is the fixed size of a packet-mode wire chunk.
	ChunkSize = 26
	// ChunkDataSize is the payload portion of a chunk; the final byte
	// is the control byte.
	ChunkDataSize = 25
	// MaxFinalBytes is the maximum valid-byte count in a final chunk.
	MaxFinalBytes = 25

	eopFlag = 1 << 7
)

// PacketChunk is one 26-byte packet-mode wire chunk: data(25) ‖
// control(1), where control is EOP(1)|BC(5)|reserved(2).
type PacketChunk struct {
	Data      [ChunkDataSize]byte
	EOP       bool
	ByteCount uint8 // valid byte count in Data; 25 on all non-final chunks
}

// ToBytes serializes the chunk to its 26-byte wire form.
func (c *PacketChunk) ToBytes() []byte {
	out := make([]byte, ChunkSize)
	copy(out[0:ChunkDataSize], c.Data[:])
	control := (c.ByteCount & 0x1F) << 2
	if c.EOP {
		control |= eopFlag
	}
	out[ChunkDataSize] = control
	return out
}

// PacketChunkFromBytes parses a 26-byte packet-mode wire chunk.
func PacketChunkFromBytes(data []byte) (*PacketChunk, error) {
	if len(data) != ChunkSize {
		return nil, fmt.Errorf("%w: packet chunk must be %d bytes, got %d", m17err.ErrInvalidInput, ChunkSize, len(data))
	}
	control := data[ChunkDataSize]
	c := &PacketChunk{
		EOP:       control&eopFlag != 0,
		ByteCount: (control >> 2) & 0x1F,
	}
	copy(c.Data[:], data[0:ChunkDataSize])
	return c, nil
}

// BuildPacketChunks splits a complete logical packet — protocol ID ‖
// payload ‖ null terminator ‖ CRC-16 — into 26-byte wire chunks.
func BuildPacketChunks(protocolID ProtocolID, payload []byte) ([][]byte, error) {
	body := make([]byte, 0, len(payload)+2)
	body = append(body, byte(protocolID))
	body = append(body, payload...)
	body = append(body, 0)
	body = append(body, crc.Bytes(body)...)

	var chunks [][]byte
	for i := 0; i < len(body); i += ChunkDataSize {
		end := i + ChunkDataSize
		final := end >= len(body)
		if final {
			end = len(body)
		}
		c := &PacketChunk{EOP: final, ByteCount: uint8(end - i)}
		copy(c.Data[:], body[i:end])
		if !final {
			c.ByteCount = ChunkDataSize
		}
		chunks = append(chunks, c.ToBytes())
	}
	if len(chunks) == 0 {
		c := &PacketChunk{EOP: true, ByteCount: 0}
		chunks = append(chunks, c.ToBytes())
	}
	return chunks, nil
}

// ReassemblePacketChunks concatenates wire chunks in order, validates
// the trailing CRC, and strips the protocol ID and null terminator,
// returning the protocol ID and the payload.
func ReassemblePacketChunks(chunkBytes [][]byte) (ProtocolID, []byte, error) {
	var body []byte
	for i, raw := range chunkBytes {
		c, err := PacketChunkFromBytes(raw)
		if err != nil {
			return 0, nil, err
		}
		final := i == len(chunkBytes)-1
		if c.EOP != final {
			return 0, nil, fmt.Errorf("%w: EOP must be set only on the final chunk", m17err.ErrWireFormat)
		}
		n := int(c.ByteCount)
		if final {
			if n > MaxFinalBytes {
				return 0, nil, fmt.Errorf("%w: final chunk byte count %d exceeds %d", m17err.ErrWireFormat, n, MaxFinalBytes)
			}
		} else if n != ChunkDataSize {
			return 0, nil, fmt.Errorf("%w: non-final chunk must carry %d bytes, got %d", m17err.ErrWireFormat, ChunkDataSize, n)
		}
		body = append(body, c.Data[:n]...)
	}

	if len(body) < 3 {
		return 0, nil, fmt.Errorf("%w: reassembled packet too short", m17err.ErrWireFormat)
	}
	payloadAndTail := body[:len(body)-2]
	if !crc.Verify(body) {
		return 0, nil, m17err.ErrChecksum
	}

	protocolID := ProtocolID(payloadAndTail[0])
	rest := payloadAndTail[1:]
	if idx := bytes.IndexByte(rest, 0); idx >= 0 {
		rest = rest[:idx]
	}
	return protocolID, rest, nil
}
