// Package interleave implements the M17 368-bit interleaver: a fixed,
// self-inverse (involutive) bit permutation applied after puncturing
// and before randomization.
package interleave

import (
	"fmt"

	"github.com/m17-go/m17/pkg/m17err"
)

// Size is the fixed interleaver block length in bits.
const Size = 368

// Seq is the interleaver's permutation table: Seq[i] names the input
// position that feeds output position i. It is generated from the
// M17 quadratic permutation polynomial P(i) = (45*i + 92*i^2) mod 368,
// which is involutive over Z/368Z (P(P(i)) == i for all i).
var Seq [Size]int

func init() {
	for i := 0; i < Size; i++ {
		Seq[i] = (45*i + 92*i*i) % Size
	}
	seen := make([]bool, Size)
	for i, v := range Seq {
		if seen[v] {
			panic(fmt.Sprintf("interleave: Seq is not a permutation, duplicate at %d", v))
		}
		seen[v] = true
		if Seq[Seq[i]] != i {
			panic(fmt.Sprintf("interleave: Seq is not involutive at index %d", i))
		}
	}
}

// Apply permutes a 368-element slice: out[i] = in[Seq[i]]. Being an
// involution, calling Apply on its own output recovers the original
// input, so Interleave and Deinterleave are the same operation.
func Apply(in []uint16) ([]uint16, error) {
	if len(in) != Size {
		return nil, m17err.ErrInvalidInput
	}
	out := make([]uint16, Size)
	for i := 0; i < Size; i++ {
		out[i] = in[Seq[i]]
	}
	return out, nil
}

// ApplyBits permutes a 368-entry hard-bit slice (one byte per bit:
// 0 or 1), for the transmit side of the FEC pipeline.
func ApplyBits(in []uint8) ([]uint8, error) {
	if len(in) != Size {
		return nil, m17err.ErrInvalidInput
	}
	out := make([]uint8, Size)
	for i := 0; i < Size; i++ {
		out[i] = in[Seq[i]]
	}
	return out, nil
}

// Interleave permutes a 368-entry soft-bit block (one uint16 per bit).
func Interleave(in []uint16) ([]uint16, error) {
	return Apply(in)
}

// Deinterleave reverses Interleave. Since the permutation is an
// involution, this is identical to Interleave.
func Deinterleave(in []uint16) ([]uint16, error) {
	return Apply(in)
}
