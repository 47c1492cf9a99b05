package golay

import "github.com/m17-go/m17/pkg/m17err"

// SoftBit is a 16-bit confidence: 0 = strong 0, 0xFFFF = strong 1,
// 0x7FFF = erasure.
type SoftBit = uint16

const erasure SoftBit = 0x7FFF

func softToHard(soft []SoftBit) uint16 {
	var result uint16
	for i, s := range soft {
		if s > 0x7FFF {
			result |= 1 << uint(i)
		}
	}
	return result
}

func softPopcount(soft []SoftBit) int64 {
	var sum int64
	for _, s := range soft {
		sum += int64(s)
	}
	return sum
}

func intToSoft(value uint16, bits int) []SoftBit {
	out := make([]SoftBit, bits)
	for i := 0; i < bits; i++ {
		if (value>>uint(i))&1 != 0 {
			out[i] = 0xFFFF
		}
	}
	return out
}

// softXOR combines two soft-bit vectors: the hard parity is the XOR of
// each side's hard bit, and the resulting confidence is the lesser of
// the two input confidences (the less-certain operand dominates).
func softXOR(a, b []SoftBit) []SoftBit {
	out := make([]SoftBit, len(a))
	for i := range a {
		x, y := a[i], b[i]
		xBit := x > 0x7FFF
		yBit := y > 0x7FFF

		xConf := confidence(x)
		yConf := confidence(y)
		minConf := xConf
		if yConf < minConf {
			minConf = yConf
		}
		if minConf > int64(erasure) {
			minConf = int64(erasure)
		}

		if xBit != yBit {
			out[i] = erasure + SoftBit(minConf)
		} else {
			out[i] = erasure - SoftBit(minConf)
		}
	}
	return out
}

func confidence(v SoftBit) int64 {
	d := int64(v) - int64(erasure)
	if d < 0 {
		return -d
	}
	return d
}

// SDecode performs soft-decision decoding of a 24-soft-bit Golay
// codeword (MSB-first, as carried on the M17 wire) into its corrected
// 12-bit data, or UncorrectableData if decoding fails.
func SDecode(codeword []SoftBit) uint16 {
	if len(codeword) != 24 {
		return UncorrectableData
	}

	// Reverse to data-then-parity order.
	cw := make([]SoftBit, 24)
	for i, v := range codeword {
		cw[23-i] = v
	}
	dataSoft := cw[12:24]
	paritySoft := cw[0:12]

	dataHard := softToHard(dataSoft)
	checksum := calcSyndrome(dataHard)
	checksumSoft := intToSoft(checksum, 12)
	syndromeSoft := softXOR(paritySoft, checksumSoft)

	if softPopcount(syndromeSoft) < 4*0xFFFE {
		return dataHard
	}

	for i := 0; i < 12; i++ {
		e := uint16(1 << uint(i))
		codedErrorSoft := intToSoft(encodeMatrix[i], 12)
		sc := softXOR(syndromeSoft, codedErrorSoft)
		if softPopcount(sc) < 3*0xFFFE {
			return dataHard ^ e
		}
	}

	for i := 0; i < 11; i++ {
		for j := i + 1; j < 12; j++ {
			e := uint16(1<<uint(i)) | uint16(1<<uint(j))
			codedErrorSoft := intToSoft(encodeMatrix[i]^encodeMatrix[j], 12)
			sc := softXOR(syndromeSoft, codedErrorSoft)
			if softPopcount(sc) < 2*0xFFFF {
				return dataHard ^ e
			}
		}
	}

	syndromeHard := softToHard(syndromeSoft)
	var invSyndrome uint16
	for i := 0; i < 12; i++ {
		if syndromeHard&(1<<uint(i)) != 0 {
			invSyndrome ^= decodeMatrix[i]
		}
	}
	invSyndromeSoft := intToSoft(invSyndrome, 12)
	if softPopcount(invSyndromeSoft) < 4*0xFFFF {
		return dataHard ^ invSyndrome
	}

	for i := 0; i < 12; i++ {
		codingErrorSoft := intToSoft(decodeMatrix[i], 12)
		tmp := softXOR(invSyndromeSoft, codingErrorSoft)
		if softPopcount(tmp) < 3*(0xFFFF+2) {
			return dataHard ^ (invSyndrome ^ decodeMatrix[i])
		}
	}

	return UncorrectableData
}

// DecodeLICH soft-decodes a 96-soft-bit encoded LICH into its
// original 6-byte chunk.
func DecodeLICH(soft []SoftBit) ([]byte, error) {
	if len(soft) != 96 {
		return nil, m17err.ErrInvalidInput
	}
	result := make([]byte, 6)

	tmp := SDecode(soft[0:24])
	result[0] = byte((tmp >> 4) & 0xFF)
	result[1] = byte((tmp & 0x0F) << 4)

	tmp = SDecode(soft[24:48])
	result[1] |= byte((tmp >> 8) & 0x0F)
	result[2] = byte(tmp & 0xFF)

	tmp = SDecode(soft[48:72])
	result[3] = byte((tmp >> 4) & 0xFF)
	result[4] = byte((tmp & 0x0F) << 4)

	tmp = SDecode(soft[72:96])
	result[4] |= byte((tmp >> 8) & 0x0F)
	result[5] = byte(tmp & 0xFF)

	return result, nil
}
