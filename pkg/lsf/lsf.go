// Package lsf implements the M17 Link Setup Frame: addressing, TYPE
// field, and the META field variants (GNSS position, extended
// callsign, encryption nonce, text, AES IV) it carries.
package lsf

import (
	"encoding/binary"

	"github.com/m17-go/m17/pkg/address"
	"github.com/m17-go/m17/pkg/crc"
	"github.com/m17-go/m17/pkg/m17err"
	"github.com/m17-go/m17/pkg/typefield"
)

// MetaSize is the fixed META field length in bytes.
const MetaSize = 14

// Size is the LSF length without CRC; WireSize includes it.
const (
	Size     = 28
	WireSize = 30
)

// LSF is a Link Setup Frame: destination and source addressing, a
// 16-bit TYPE field, and a 14-byte META field.
type LSF struct {
	Dst       address.Address
	Src       address.Address
	TypeField uint16
	Meta      [MetaSize]byte
}

// New builds an LSF from callsign strings, defaulting TypeField to
// v2 voice stream (0x0005) and padding/truncating meta to 14 bytes.
func New(dst, src string, typeField uint16, meta []byte) (*LSF, error) {
	dstAddr, err := address.Encode(dst)
	if err != nil {
		return nil, err
	}
	srcAddr, err := address.Encode(src)
	if err != nil {
		return nil, err
	}
	l := &LSF{Dst: dstAddr, Src: srcAddr, TypeField: typeField}
	copy(l.Meta[:], padOrTruncate(meta, MetaSize))
	return l, nil
}

func padOrTruncate(data []byte, size int) []byte {
	if len(data) == size {
		return data
	}
	out := make([]byte, size)
	copy(out, data)
	return out
}

// V2 returns the v2.0.3 interpretation of the TYPE field.
func (l *LSF) V2() typefield.V2 {
	return typefield.ParseV2(l.TypeField)
}

// V3 returns the v3.0.0 interpretation of the TYPE field.
func (l *LSF) V3() typefield.V3 {
	return typefield.ParseV3(l.TypeField)
}

// Version reports which TYPE field layout is in use.
func (l *LSF) Version() typefield.Version {
	return typefield.DetectVersion(l.TypeField)
}

// SetTypeV2 builds and installs a v2.0.3 TYPE field.
func (l *LSF) SetTypeV2(f typefield.V2) error {
	t, err := typefield.BuildV2(f)
	if err != nil {
		return err
	}
	l.TypeField = t
	return nil
}

// SetTypeV3 builds and installs a v3.0.0 TYPE field.
func (l *LSF) SetTypeV3(f typefield.V3) error {
	t, err := typefield.BuildV3(f)
	if err != nil {
		return err
	}
	l.TypeField = t
	return nil
}

// ToBytesWithoutCRC serializes the LSF's 28 bytes: dst, src, TYPE,
// META.
func (l *LSF) ToBytesWithoutCRC() []byte {
	out := make([]byte, Size)
	dstBytes := l.Dst.Bytes()
	srcBytes := l.Src.Bytes()
	copy(out[0:6], dstBytes[:])
	copy(out[6:12], srcBytes[:])
	binary.BigEndian.PutUint16(out[12:14], l.TypeField)
	copy(out[14:28], l.Meta[:])
	return out
}

// CRC computes the LSF's CRC-16 over its 28-byte payload.
func (l *LSF) CRC() uint16 {
	return crc.Checksum(l.ToBytesWithoutCRC())
}

// ToBytes serializes the LSF with its trailing CRC-16 (30 bytes).
func (l *LSF) ToBytes() []byte {
	data := l.ToBytesWithoutCRC()
	return append(data, crc.Bytes(data)...)
}

// FromBytes parses an LSF from 28 (no CRC) or 30 (with CRC) bytes,
// verifying the CRC in the latter case.
func FromBytes(data []byte, hasCRC bool) (*LSF, error) {
	expected := Size
	if hasCRC {
		expected = WireSize
	}
	if len(data) != expected {
		return nil, m17err.ErrInvalidInput
	}
	if hasCRC {
		if !crc.Verify(data) {
			return nil, m17err.ErrChecksum
		}
		data = data[:Size]
	}

	dst, err := address.FromBytes(data[0:6])
	if err != nil {
		return nil, err
	}
	src, err := address.FromBytes(data[6:12])
	if err != nil {
		return nil, err
	}
	typeField := binary.BigEndian.Uint16(data[12:14])

	l := &LSF{Dst: dst, Src: src, TypeField: typeField}
	copy(l.Meta[:], data[14:28])
	return l, nil
}

// Chunks splits the LSF's wire bytes (padded to 30) into 5 chunks of
// chunkSize bytes each, for LICH transmission.
func (l *LSF) Chunks(chunkSize int) [][]byte {
	data := l.ToBytesWithoutCRC()
	data = append(data, 0, 0) // pad to 30 bytes for even 5-way split
	var chunks [][]byte
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}
	return chunks
}
