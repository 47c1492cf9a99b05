// Package crypto implements the M17 payload-encryption primitives:
// the LFSR scrambler (§4.N) and AES-CTR with the META-IV composition
// rule it shares with stream mode.
package crypto

import (
	"fmt"

	"github.com/m17-go/m17/pkg/m17err"
)

// ScramblerMode names the LFSR width, which also fixes the seed size
// in bytes (mode / 8).
type ScramblerMode int

const (
	Scrambler8  ScramblerMode = 8
	Scrambler16 ScramblerMode = 16
	Scrambler24 ScramblerMode = 24
)

// tapMask gives the Fibonacci LFSR tap positions (0-indexed bits) for
// each mode's generator polynomial, per §4.N:
//
//	8-bit:  x^8  + x^6  + x^5  + x^4  + 1
//	16-bit: x^16 + x^14 + x^13 + x^11 + 1
//	24-bit: x^24 + x^23 + x^22 + x^17 + 1
var tapMask = map[ScramblerMode]uint32{
	Scrambler8:  1<<7 | 1<<5 | 1<<4 | 1<<3,
	Scrambler16: 1<<15 | 1<<13 | 1<<12 | 1<<10,
	Scrambler24: 1<<23 | 1<<22 | 1<<21 | 1<<16,
}

// SeedBytes returns the number of seed bytes a mode expects.
func (m ScramblerMode) SeedBytes() int {
	return int(m) / 8
}

func (m ScramblerMode) valid() bool {
	_, ok := tapMask[m]
	return ok
}

func seedToState(mode ScramblerMode, seed []byte) (uint32, error) {
	if !mode.valid() {
		return 0, fmt.Errorf("%w: unknown scrambler mode %d", m17err.ErrInvalidInput, mode)
	}
	n := mode.SeedBytes()
	padded := make([]byte, n)
	copy(padded, seed)
	if len(seed) > n {
		padded = seed[:n]
	}
	var state uint32
	for _, b := range padded {
		state = state<<8 | uint32(b)
	}
	if state == 0 {
		state = 1
	}
	return state, nil
}

// lfsrStep performs one Fibonacci LFSR step: feedback is the XOR of
// the tapped bits, output is the current LSB, and the register shifts
// right with feedback entering at the MSB.
func lfsrStep(mode ScramblerMode, state uint32) (next uint32, output uint32) {
	taps := tapMask[mode]
	var feedback uint32
	masked := state & taps
	for masked != 0 {
		feedback ^= masked & 1
		masked >>= 1
	}
	output = state & 1
	next = (state >> 1) | (feedback << (uint(mode) - 1))
	return next, output
}

func generateByte(mode ScramblerMode, state uint32) (uint32, byte) {
	var b byte
	for i := 0; i < 8; i++ {
		var bit uint32
		state, bit = lfsrStep(mode, state)
		b |= byte(bit) << uint(i)
	}
	return state, b
}

// Keystream generates length bytes of LFSR keystream from seed.
func Keystream(mode ScramblerMode, seed []byte, length int) ([]byte, error) {
	state, err := seedToState(mode, seed)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	for i := range out {
		var b byte
		state, b = generateByte(mode, state)
		out[i] = b
	}
	return out, nil
}

// Apply XORs data with the mode/seed keystream; encryption and
// decryption are the same operation.
func Apply(mode ScramblerMode, data, seed []byte) ([]byte, error) {
	ks, err := Keystream(mode, seed, len(data))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ ks[i]
	}
	return out, nil
}
