// Package viterbi implements a 16-state soft-decision Viterbi decoder
// for the M17 K=5 rate-1/2 convolutional code, including the
// puncture-aware wrappers used to decode LSF, stream, and packet
// frames.
package viterbi

import (
	"github.com/m17-go/m17/pkg/m17err"
	"github.com/m17-go/m17/pkg/puncture"
)

// States is the trellis state count, 2^(K-1) for K=5.
const States = 16

// HistLen bounds the number of bit-pair decode steps a Decoder can
// hold before chainback; it covers the largest M17 frame payload.
const HistLen = 244

// costTable0 and costTable1 are the expected soft G1/G2 outputs for
// each of the 8 butterfly branches in the trellis.
var (
	costTable0 = [8]uint32{0, 0, 0, 0, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF}
	costTable1 = [8]uint32{0, 0xFFFF, 0xFFFF, 0, 0, 0xFFFF, 0xFFFF, 0}
)

func qAbsDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// Decoder is a stateful soft-decision Viterbi decoder: feed it bit
// pairs with DecodeBit, then recover the most likely path with
// Chainback.
type Decoder struct {
	history     [HistLen]uint16
	prevMetrics [States]uint32
	currMetrics [States]uint32
	pos         int
}

// NewDecoder returns a Decoder ready to decode from the trellis's zero
// state.
func NewDecoder() *Decoder {
	d := &Decoder{}
	d.Reset()
	return d
}

// Reset returns the decoder to its initial state, ready for a new
// frame.
func (d *Decoder) Reset() {
	for i := range d.prevMetrics {
		d.prevMetrics[i] = 0x3FFFFFFF
	}
	d.prevMetrics[0] = 0
	for i := range d.currMetrics {
		d.currMetrics[i] = 0
	}
	for i := range d.history {
		d.history[i] = 0
	}
	d.pos = 0
}

// DecodeBit processes one soft bit pair (s0 for the G1 output, s1 for
// G2) and advances the trellis by one step.
func (d *Decoder) DecodeBit(s0, s1 uint32) error {
	if d.pos >= HistLen {
		return m17err.ErrDecodeFailure
	}

	for i := 0; i < States/2; i++ {
		e0 := costTable0[i]
		e1 := costTable1[i]

		bm0 := qAbsDiff(e0, s0) + qAbsDiff(e1, s1)
		bm1 := 0x1FFFE - bm0

		m0 := d.prevMetrics[i] + bm0
		m1 := d.prevMetrics[i+States/2] + bm1

		m2 := d.prevMetrics[i] + bm1
		m3 := d.prevMetrics[i+States/2] + bm0

		i0 := 2 * i
		i1 := i0 + 1

		if m0 >= m1 {
			d.history[d.pos] |= 1 << uint(i0)
			d.currMetrics[i0] = m1
		} else {
			d.history[d.pos] &^= 1 << uint(i0)
			d.currMetrics[i0] = m0
		}

		if m2 >= m3 {
			d.history[d.pos] |= 1 << uint(i1)
			d.currMetrics[i1] = m3
		} else {
			d.history[d.pos] &^= 1 << uint(i1)
			d.currMetrics[i1] = m2
		}
	}

	d.prevMetrics, d.currMetrics = d.currMetrics, d.prevMetrics
	d.pos++
	return nil
}

// Chainback walks the recorded history back from state 0, recovering
// outputBits decoded bits (plus the 4 flush bits) and the minimum path
// cost.
func (d *Decoder) Chainback(outputBits int) ([]byte, uint32) {
	state := uint16(0)
	bitPos := outputBits + 4
	out := make([]byte, (bitPos+7)/8)
	pos := d.pos

	for pos > 0 {
		bitPos--
		pos--
		bit := d.history[pos] & (1 << (state >> 4))
		state >>= 1
		if bit != 0 {
			state |= 0x80
			// The decision read at a step is the input bit from 4 steps
			// earlier, so it is written 4 positions back.
			if b := bitPos - 4; b >= 0 {
				out[b/8] |= 1 << uint(7-(b%8))
			}
		}
	}

	cost := d.prevMetrics[0]
	for _, m := range d.prevMetrics {
		if m < cost {
			cost = m
		}
	}
	return out, cost
}

// Decode runs unpunctured soft bits (even length, 0 = strong 0,
// 0xFFFF = strong 1, 0x7FFF = erasure) through a fresh Decoder and
// returns the decoded bytes plus path cost.
func Decode(softBits []uint32) ([]byte, uint32, error) {
	if len(softBits)%2 != 0 {
		return nil, 0, m17err.ErrInvalidInput
	}
	if len(softBits)/2 > HistLen {
		return nil, 0, m17err.ErrInvalidInput
	}

	if len(softBits)/2 < 4 {
		return nil, 0, m17err.ErrInvalidInput
	}

	d := NewDecoder()
	for i := 0; i < len(softBits); i += 2 {
		if err := d.DecodeBit(softBits[i], softBits[i+1]); err != nil {
			return nil, 0, err
		}
	}

	// len/2 trellis steps cover the message plus the 4 flush bits;
	// Chainback accounts for the flush itself.
	outputBits := len(softBits)/2 - 4
	data, cost := d.Chainback(outputBits)
	return data, cost, nil
}

// DecodeLSF depunctures and decodes a 368-soft-bit punctured LSF block
// into its 30-byte (240-bit + CRC) payload.
func DecodeLSF(softBits []uint16) ([]byte, uint32, error) {
	if len(softBits) != 368 {
		return nil, 0, m17err.ErrInvalidInput
	}
	return decodePuncturedSoft(softBits, puncture.P1, 488)
}

// DecodeStream depunctures and decodes a 272-soft-bit punctured stream
// frame into its 18-byte payload.
func DecodeStream(softBits []uint16) ([]byte, uint32, error) {
	if len(softBits) != 272 {
		return nil, 0, m17err.ErrInvalidInput
	}
	return decodePuncturedSoft(softBits, puncture.P2, 296)
}

// DecodePacket depunctures and decodes a 368-soft-bit punctured packet
// frame into its 26-byte chunk.
func DecodePacket(softBits []uint16) ([]byte, uint32, error) {
	if len(softBits) != 368 {
		return nil, 0, m17err.ErrInvalidInput
	}
	return decodePuncturedSoft(softBits, puncture.P3, 420)
}

// decodePuncturedSoft depunctures with full 16-bit soft fill values
// directly (no 8-bit truncation), then Viterbi-decodes.
func decodePuncturedSoft(softBits []uint16, pattern []uint8, depuncturedLen int) ([]byte, uint32, error) {
	const erasure = 0x7FFF

	full := make([]uint32, depuncturedLen)
	pos := 0
	for i := 0; i < depuncturedLen; i++ {
		if pattern[i%len(pattern)] != 0 {
			if pos >= len(softBits) {
				return nil, 0, m17err.ErrInvalidInput
			}
			full[i] = uint32(softBits[pos])
			pos++
		} else {
			full[i] = erasure
		}
	}

	data, cost, err := Decode(full)
	if err != nil {
		return nil, 0, err
	}
	inserted := uint32(depuncturedLen - len(softBits))
	adjusted := cost - inserted*erasure
	return data, adjusted, nil
}
