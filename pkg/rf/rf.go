// Package rf composes the per-frame FEC pipelines into the 368-bit
// on-air payloads exchanged with the symbol mapper: convolutional
// encoding, puncturing, interleaving, and randomization on the
// transmit side; their soft-decision inverses on the receive side.
// Modulation to and from 4-FSK symbols happens outside this library.
package rf

import (
	"encoding/binary"
	"fmt"

	"github.com/m17-go/m17/pkg/convolution"
	"github.com/m17-go/m17/pkg/frame"
	"github.com/m17-go/m17/pkg/golay"
	"github.com/m17-go/m17/pkg/interleave"
	"github.com/m17-go/m17/pkg/lsf"
	"github.com/m17-go/m17/pkg/m17err"
	"github.com/m17-go/m17/pkg/puncture"
	"github.com/m17-go/m17/pkg/randomize"
	"github.com/m17-go/m17/pkg/viterbi"
)

// The 16-bit sync words that precede each frame type on air.
const (
	SyncLSF    uint16 = 0x55F7
	SyncStream uint16 = 0xFF5D
	SyncPacket uint16 = 0x75FF
	SyncBERT   uint16 = 0xDF55
	SyncEOT    uint16 = 0x555D
)

// PayloadBits is the fixed FEC payload length of every frame type.
const PayloadBits = 368

// lichBits is the Golay-protected LICH portion of a stream frame.
const lichBits = 96

// BytesToBits unpacks bytes MSB-first into one bit per output byte.
func BytesToBits(data []byte) []uint8 {
	out := make([]uint8, len(data)*8)
	for i := range out {
		out[i] = (data[i/8] >> uint(7-(i%8))) & 1
	}
	return out
}

// BitsToBytes packs hard bits MSB-first; the last byte is zero-padded.
func BitsToBytes(bits []uint8) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 1 << uint(7-(i%8))
		}
	}
	return out
}

// SyncBits unpacks a 16-bit sync word into 16 hard bits, MSB first.
func SyncBits(word uint16) []uint8 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], word)
	return BytesToBits(b[:])
}

// WithSync prepends the sync word to a 368-bit FEC payload, yielding
// the full 384-bit on-air frame.
func WithSync(word uint16, payload []uint8) ([]uint8, error) {
	if len(payload) != PayloadBits {
		return nil, m17err.ErrInvalidInput
	}
	return append(SyncBits(word), payload...), nil
}

// scrambleBits runs hard bits through interleave then randomize, the
// final two transmit-side stages shared by every frame type.
func scrambleBits(bits []uint8) ([]uint8, error) {
	il, err := interleave.ApplyBits(bits)
	if err != nil {
		return nil, err
	}
	return randomize.Randomize(il)
}

// descrambleSoft reverses scrambleBits on received soft bits.
func descrambleSoft(soft []uint16) ([]uint16, error) {
	derand, err := randomize.DerandomizeSoft(soft)
	if err != nil {
		return nil, err
	}
	return interleave.Deinterleave(derand)
}

// EncodeLSF runs a Link Setup Frame through conv/P1/interleave/
// randomize, producing its 368-bit FEC payload.
func EncodeLSF(l *lsf.LSF) ([]uint8, error) {
	enc, err := convolution.EncodeLSF(BytesToBits(l.ToBytes()))
	if err != nil {
		return nil, err
	}
	return scrambleBits(puncture.Puncture(enc, puncture.P1))
}

// DecodeLSF soft-decodes a received 368-bit LSF payload, verifying
// the embedded CRC. The returned cost is the Viterbi path metric.
func DecodeLSF(soft []uint16) (*lsf.LSF, uint32, error) {
	if len(soft) != PayloadBits {
		return nil, 0, m17err.ErrInvalidInput
	}
	clean, err := descrambleSoft(soft)
	if err != nil {
		return nil, 0, err
	}
	data, cost, err := viterbi.DecodeLSF(clean)
	if err != nil {
		return nil, 0, err
	}
	l, err := lsf.FromBytes(data[:lsf.WireSize], true)
	if err != nil {
		return nil, cost, err
	}
	return l, cost, nil
}

// EncodeStream builds the 368-bit payload of one RF stream frame: a
// 96-bit Golay-protected LICH chunk followed by the P2-punctured
// convolutional encoding of frame_number ‖ payload, the whole block
// interleaved and randomized.
func EncodeStream(lichChunk [6]byte, frameNumber uint16, payload [16]byte) ([]uint8, error) {
	protected, err := golay.EncodeLICH(lichChunk[:])
	if err != nil {
		return nil, err
	}

	data := make([]byte, 18)
	binary.BigEndian.PutUint16(data[0:2], frameNumber)
	copy(data[2:], payload[:])
	enc, err := convolution.EncodeStream(BytesToBits(data))
	if err != nil {
		return nil, err
	}

	bits := append(BytesToBits(protected), puncture.Puncture(enc, puncture.P2)...)
	return scrambleBits(bits)
}

// DecodeStream soft-decodes a received 368-bit stream-frame payload
// into its LICH chunk, frame number, and 16-byte payload.
func DecodeStream(soft []uint16) (lichChunk [6]byte, frameNumber uint16, payload [16]byte, cost uint32, err error) {
	if len(soft) != PayloadBits {
		err = m17err.ErrInvalidInput
		return
	}
	clean, derr := descrambleSoft(soft)
	if derr != nil {
		err = derr
		return
	}

	chunk, gerr := golay.DecodeLICH(clean[:lichBits])
	if gerr != nil {
		err = fmt.Errorf("%w: LICH", gerr)
		return
	}
	copy(lichChunk[:], chunk)

	data, c, verr := viterbi.DecodeStream(clean[lichBits:])
	if verr != nil {
		err = verr
		return
	}
	cost = c
	frameNumber = binary.BigEndian.Uint16(data[0:2])
	copy(payload[:], data[2:18])
	return
}

// EncodePacket builds the 368-bit payload of one RF packet frame from
// a 26-byte chunk. The chunk's two reserved control bits are not
// transmitted.
func EncodePacket(chunk []byte) ([]uint8, error) {
	if len(chunk) != frame.ChunkSize {
		return nil, m17err.ErrInvalidInput
	}
	enc, err := convolution.EncodePacket(BytesToBits(chunk)[:206])
	if err != nil {
		return nil, err
	}
	return scrambleBits(puncture.Puncture(enc, puncture.P3))
}

// DecodePacket soft-decodes a received 368-bit packet-frame payload
// into its 26-byte chunk; the untransmitted reserved control bits come
// back zero.
func DecodePacket(soft []uint16) ([]byte, uint32, error) {
	if len(soft) != PayloadBits {
		return nil, 0, m17err.ErrInvalidInput
	}
	clean, err := descrambleSoft(soft)
	if err != nil {
		return nil, 0, err
	}
	data, cost, err := viterbi.DecodePacket(clean)
	if err != nil {
		return nil, 0, err
	}
	chunk := make([]byte, frame.ChunkSize)
	copy(chunk, data[:frame.ChunkSize])
	chunk[frame.ChunkSize-1] &^= 0x03
	return chunk, cost, nil
}

// EncodeBERT builds the 368-bit payload of a BERT frame from the
// first 197 bits of a 25-byte PRBS block.
func EncodeBERT(prbs []byte) ([]uint8, error) {
	if len(prbs) != 25 {
		return nil, m17err.ErrInvalidInput
	}
	enc, err := convolution.EncodeBERT(BytesToBits(prbs)[:197])
	if err != nil {
		return nil, err
	}
	// P2 keeps 369 of the 402 encoded bits; the last kept bit belongs
	// to the flush pair and is dropped to fit the 368-bit frame. The
	// receive side restores it as an erasure.
	return scrambleBits(puncture.Puncture(enc, puncture.P2)[:PayloadBits])
}

// HardToSoft maps hard bits onto strong soft confidences, for feeding
// loopback or simulated channels into the soft decoders.
func HardToSoft(bits []uint8) []uint16 {
	out := make([]uint16, len(bits))
	for i, b := range bits {
		if b != 0 {
			out[i] = 0xFFFF
		}
	}
	return out
}
