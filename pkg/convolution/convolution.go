// Package convolution implements the M17 K=5, rate-1/2 convolutional
// code (generator polynomials G1=0x19, G2=0x17) used to protect LSF,
// stream, packet, and BERT payloads, plus the per-frame-type framing
// wrappers around it.
package convolution

import "github.com/m17-go/m17/pkg/m17err"

// G1 and G2 are the two K=5 generator polynomials, MSB-first with the
// newest bit in the low position of the 5-bit shift register.
const (
	G1 = 0x19 // 0b11001
	G2 = 0x17 // 0b10111
)

// Encode runs the bits in (MSB-first, one bit per byte: 0 or 1) through
// the K=5 rate-1/2 encoder, flushing the shift register with 4 zero
// bits when flush is true. The output has 2*(len(in)+4) bits when
// flushed, 2*len(in) otherwise.
//
// history[4] holds the current input bit, history[0] the bit from 4
// steps back; history[1..3] the bits in between. The two generator
// taps are:
//
//	g1 = history[4] ^ history[1] ^ history[0]
//	g2 = history[4] ^ history[3] ^ history[2] ^ history[0]
func Encode(in []uint8, flush bool) []uint8 {
	n := len(in)
	total := n
	if flush {
		total += 4
	}
	out := make([]uint8, 0, 2*total)

	var history [5]uint8
	for i := 0; i < total; i++ {
		var bit uint8
		if i < n {
			bit = in[i] & 1
		}
		copy(history[0:4], history[1:5])
		history[4] = bit

		g1 := history[4] ^ history[1] ^ history[0]
		g2 := history[4] ^ history[3] ^ history[2] ^ history[0]
		out = append(out, g1, g2)
	}
	return out
}

// frame wraps Encode for a fixed-size payload, validating the input
// length and returning the exact expected output length.
func frame(in []uint8, expectIn, expectOut int) ([]uint8, error) {
	if len(in) != expectIn {
		return nil, m17err.ErrInvalidInput
	}
	out := Encode(in, true)
	if len(out) != expectOut {
		return nil, m17err.ErrInvalidInput
	}
	return out, nil
}

// EncodeLSF encodes the 240-bit LSF payload into 488 bits.
func EncodeLSF(in []uint8) ([]uint8, error) {
	return frame(in, 240, 488)
}

// EncodeStream encodes a 144-bit stream payload into 296 bits.
func EncodeStream(in []uint8) ([]uint8, error) {
	return frame(in, 144, 296)
}

// EncodePacket encodes a 206-bit packet payload into 420 bits.
func EncodePacket(in []uint8) ([]uint8, error) {
	return frame(in, 206, 420)
}

// EncodeBERT encodes a 197-bit BERT payload into 402 bits.
func EncodeBERT(in []uint8) ([]uint8, error) {
	return frame(in, 197, 402)
}
