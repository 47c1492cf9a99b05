// Package typefield parses and builds the M17 16-bit LSF TYPE field,
// in both its v2 and v3 layouts, with version autodetection.
package typefield

import (
	"fmt"

	"github.com/m17-go/m17/pkg/m17err"
)

// Version names which TYPE-field layout a 16-bit value uses.
type Version int

const (
	VersionV2 Version = iota
	VersionV3
)

// v2 data type values.
const (
	DataTypeReserved uint8 = iota
	DataTypeData
	DataTypeVoice
	DataTypeVoiceData
)

// v2 encryption type values (also shared by v3's 3-bit encryption field
// for the none/scrambler/AES cases; v3 additionally distinguishes key
// sizes within scrambler/AES).
const (
	EncryptionNone uint8 = iota
	EncryptionScrambler
	EncryptionAES
	EncryptionReserved
)

// V2 is the legacy TYPE-field layout.
type V2 struct {
	Stream            bool  // bit 0
	DataType          uint8 // bits 1..2
	EncryptionType    uint8 // bits 3..4
	EncryptionSubtype uint8 // bits 5..6 (also META interpretation when EncryptionType == none)
	CAN               uint8 // bits 7..10
	Reserved          uint8 // bits 11..15
}

// V3 is the v3.0.0 TYPE-field layout.
type V3 struct {
	Payload    uint8 // byte0 bits 7..4
	Encryption uint8 // byte0 bits 3..1
	Signed     bool  // byte0 bit 0
	MetaType   uint8 // byte1 bits 15..12
	CAN        uint8 // byte1 bits 11..8
}

// v3 PAYLOAD field value denoting packet mode.
const PayloadPacket uint8 = 0xF

// DetectVersion reports which layout t uses: the high nibble of the
// low byte names the v3 PAYLOAD; zero there means v2.
func DetectVersion(t uint16) Version {
	if (t>>4)&0xF != 0 {
		return VersionV3
	}
	return VersionV2
}

// ParseV2 decodes t as a v2 TYPE field.
func ParseV2(t uint16) V2 {
	return V2{
		Stream:            t&0x1 != 0,
		DataType:          uint8((t >> 1) & 0x3),
		EncryptionType:    uint8((t >> 3) & 0x3),
		EncryptionSubtype: uint8((t >> 5) & 0x3),
		CAN:               uint8((t >> 7) & 0xF),
		Reserved:          uint8((t >> 11) & 0x1F),
	}
}

// BuildV2 validates and encodes a v2 TYPE field.
func BuildV2(f V2) (uint16, error) {
	if f.CAN > 0xF {
		return 0, fmt.Errorf("%w: CAN %d out of range 0..15", m17err.ErrInvalidInput, f.CAN)
	}
	var t uint16
	if f.Stream {
		t |= 0x1
	}
	t |= uint16(f.DataType&0x3) << 1
	t |= uint16(f.EncryptionType&0x3) << 3
	t |= uint16(f.EncryptionSubtype&0x3) << 5
	t |= uint16(f.CAN&0xF) << 7
	t |= uint16(f.Reserved&0x1F) << 11
	return t, nil
}

// ParseV3 decodes t as a v3 TYPE field.
func ParseV3(t uint16) V3 {
	return V3{
		Payload:    uint8((t >> 4) & 0xF),
		Encryption: uint8((t >> 1) & 0x7),
		Signed:     t&0x1 != 0,
		MetaType:   uint8((t >> 12) & 0xF),
		CAN:        uint8((t >> 8) & 0xF),
	}
}

// BuildV3 validates and encodes a v3 TYPE field. Packet mode
// (Payload == PayloadPacket) forbids non-none encryption and the
// signed flag.
func BuildV3(f V3) (uint16, error) {
	if f.CAN > 0xF {
		return 0, fmt.Errorf("%w: CAN %d out of range 0..15", m17err.ErrInvalidInput, f.CAN)
	}
	if f.Payload == PayloadPacket {
		if f.Encryption != 0 {
			return 0, fmt.Errorf("%w: packet mode forbids non-none encryption", m17err.ErrInvalidInput)
		}
		if f.Signed {
			return 0, fmt.Errorf("%w: packet mode forbids the signed flag", m17err.ErrInvalidInput)
		}
	}

	var t uint16
	t |= uint16(f.Payload&0xF) << 4
	t |= uint16(f.Encryption&0x7) << 1
	if f.Signed {
		t |= 0x1
	}
	t |= uint16(f.MetaType&0xF) << 12
	t |= uint16(f.CAN&0xF) << 8
	return t, nil
}
