// Package golay implements the Golay(24,12) code used to protect M17
// LICH chunks: a 12-bit data word encodes to a 24-bit codeword able to
// correct up to 3 bit errors, in both hard- and soft-decision form.
package golay

import "github.com/m17-go/m17/pkg/m17err"

// encodeMatrix and decodeMatrix are the fixed 12x12 generator and
// transpose-decode sub-matrices for the M17 Golay(24,12) code.
var encodeMatrix = [12]uint16{
	0x8EB, 0x93E, 0xA97, 0xDC6, 0x367, 0x6CD, 0xD99, 0x3DA, 0x7B4, 0xF68, 0x63B, 0xC75,
}

var decodeMatrix = [12]uint16{
	0xC75, 0x49F, 0x93E, 0x6E3, 0xDC6, 0xF13, 0xAB9, 0x1ED, 0x3DA, 0x7B4, 0xF68, 0xA4F,
}

// UncorrectableData is the sentinel returned by Decode when the
// codeword is beyond the code's correction capacity.
const UncorrectableData uint16 = 0xFFFF

func popcount12(n uint16) int {
	count := 0
	for n != 0 {
		count += int(n & 1)
		n >>= 1
	}
	return count
}

func calcSyndrome(data uint16) uint16 {
	var checksum uint16
	for i := 0; i < 12; i++ {
		if data&(1<<uint(i)) != 0 {
			checksum ^= encodeMatrix[i]
		}
	}
	return checksum
}

// Encode encodes a 12-bit value (right-justified) into a 24-bit Golay
// codeword: data in the upper 12 bits, parity in the lower 12.
func Encode(data uint16) uint32 {
	checksum := calcSyndrome(data & 0xFFF)
	return (uint32(data&0xFFF) << 12) | uint32(checksum)
}

// Decode performs hard-decision decoding of a 24-bit Golay codeword.
// It returns the corrected 12-bit data and the number of bit errors
// corrected, or (UncorrectableData, -1) if the codeword is beyond
// repair.
func Decode(codeword uint32) (uint16, int) {
	data := uint16((codeword >> 12) & 0xFFF)
	parity := uint16(codeword & 0xFFF)

	syndrome := parity ^ calcSyndrome(data)
	weight := popcount12(syndrome)

	if weight <= 3 {
		return data, weight
	}

	for i := 0; i < 12; i++ {
		e := uint16(1 << uint(i))
		test := syndrome ^ encodeMatrix[i]
		if w := popcount12(test); w <= 2 {
			return data ^ e, w + 1
		}
	}

	for i := 0; i < 11; i++ {
		for j := i + 1; j < 12; j++ {
			e := uint16(1<<uint(i)) | uint16(1<<uint(j))
			test := syndrome ^ encodeMatrix[i] ^ encodeMatrix[j]
			if w := popcount12(test); w <= 1 {
				return data ^ e, w + 2
			}
		}
	}

	var invSyndrome uint16
	for i := 0; i < 12; i++ {
		if syndrome&(1<<uint(i)) != 0 {
			invSyndrome ^= decodeMatrix[i]
		}
	}
	if w := popcount12(invSyndrome); w <= 3 {
		return data ^ invSyndrome, w
	}

	for i := 0; i < 12; i++ {
		test := invSyndrome ^ decodeMatrix[i]
		if w := popcount12(test); w <= 2 {
			return data ^ test, w + 1
		}
	}

	return UncorrectableData, -1
}

// EncodeLICH encodes a 6-byte LICH chunk into 12 bytes via four
// independent Golay(24,12) codewords.
func EncodeLICH(data []byte) ([]byte, error) {
	if len(data) != 6 {
		return nil, m17err.ErrInvalidInput
	}
	result := make([]byte, 12)

	pack := func(val uint32, off int) {
		result[off] = byte(val >> 16)
		result[off+1] = byte(val >> 8)
		result[off+2] = byte(val)
	}

	pack(Encode((uint16(data[0])<<4)|(uint16(data[1])>>4)), 0)
	pack(Encode(((uint16(data[1])&0x0F)<<8)|uint16(data[2])), 3)
	pack(Encode((uint16(data[3])<<4)|(uint16(data[4])>>4)), 6)
	pack(Encode(((uint16(data[4])&0x0F)<<8)|uint16(data[5])), 9)

	return result, nil
}
