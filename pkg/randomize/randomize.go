// Package randomize implements the M17 46-byte (368-bit) randomizing
// sequence, applied after interleaving to ensure DC balance and aid
// receiver synchronization.
package randomize

import "github.com/m17-go/m17/pkg/m17err"

// Size is the fixed randomizer block length in bits.
const Size = 368

// Seq is the fixed 46-byte randomizing mask.
var Seq = [46]byte{
	0xD6, 0xB5, 0xE2, 0x30, 0x82, 0xFF, 0x84, 0x62, 0xBA, 0x4E,
	0x96, 0x90, 0xD8, 0x98, 0xDD, 0x5D, 0x0C, 0xC8, 0x52, 0x43,
	0x91, 0x1D, 0xF8, 0x6E, 0x68, 0x2F, 0x35, 0xDA, 0x14, 0xEA,
	0xCD, 0x76, 0x19, 0x8D, 0xD5, 0x80, 0xD1, 0x33, 0x87, 0x13,
	0x57, 0x18, 0x2D, 0x29, 0x78, 0xC3,
}

var bits [Size]uint8

func init() {
	for i := 0; i < Size; i++ {
		bits[i] = (Seq[i/8] >> uint(7-(i%8))) & 1
	}
}

// Bit reports the randomizing mask's bit at index (0..367).
func Bit(index int) (uint8, error) {
	if index < 0 || index >= Size {
		return 0, m17err.ErrInvalidInput
	}
	return bits[index], nil
}

// Randomize XORs a 368-bit hard sequence with the randomizing mask.
// Being an XOR, this is its own inverse, so Derandomize is identical.
func Randomize(in []uint8) ([]uint8, error) {
	if len(in) != Size {
		return nil, m17err.ErrInvalidInput
	}
	out := make([]uint8, Size)
	for i, b := range in {
		out[i] = b ^ bits[i]
	}
	return out, nil
}

// Derandomize reverses Randomize. Since XOR is self-inverse, this is
// the same operation.
func Derandomize(in []uint8) ([]uint8, error) {
	return Randomize(in)
}

// RandomizeSoft inverts a 368-entry soft-bit sequence (0 = strong 0,
// 0xFFFF = strong 1) at every masked position via 0xFFFF - value.
func RandomizeSoft(in []uint16) ([]uint16, error) {
	if len(in) != Size {
		return nil, m17err.ErrInvalidInput
	}
	out := make([]uint16, Size)
	for i, v := range in {
		if bits[i] != 0 {
			out[i] = 0xFFFF - v
		} else {
			out[i] = v
		}
	}
	return out, nil
}

// DerandomizeSoft reverses RandomizeSoft. The inversion is its own
// inverse, so this is the same operation.
func DerandomizeSoft(in []uint16) ([]uint16, error) {
	return RandomizeSoft(in)
}
