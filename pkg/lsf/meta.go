package lsf

import (
	"bytes"
	"strings"

	"github.com/m17-go/m17/pkg/address"
	"github.com/m17-go/m17/pkg/m17err"
)

// DataSource names the origin of a GNSS position META field.
type DataSource uint8

const (
	DataSourceNone DataSource = iota
	DataSourceGNSSFix
	DataSourceGNSSDR
	DataSourceGNSSLast
	DataSourceUserInput
	DataSourceExternal
)

// StationType names the kind of station transmitting a position.
type StationType uint8

const (
	StationFixed StationType = iota
	StationMobile
	StationPortable
)

// Validity flags which fields of a MetaPosition are trustworthy.
type Validity uint8

const (
	ValidityNone             Validity = 0
	ValidityPosition         Validity = 1
	ValidityAltitude         Validity = 2
	ValidityPositionAltitude Validity = 3
	ValiditySpeed            Validity = 4
	ValidityPositionSpeed    Validity = 5
	ValidityAltitudeSpeed    Validity = 6
	ValidityAll              Validity = 7
)

var radiusLUT = [8]float64{1, 2, 4, 8, 16, 32, 64, 128}

// MetaPosition is the GNSS position META field layout: latitude,
// longitude, altitude, speed, and bearing packed into 14 bytes.
type MetaPosition struct {
	DataSource  DataSource
	StationType StationType
	Validity    Validity
	Latitude    float64 // degrees, -90..90
	Longitude   float64 // degrees, -180..180
	Altitude    float64 // meters, -500..32267.5
	Speed       float64 // km/h, 0..2047.5
	Bearing     uint16  // degrees, 0..511
	Radius      float64 // position uncertainty in meters
}

func clampInt(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToBytes encodes the position into a 14-byte META field.
func (m MetaPosition) ToBytes() [MetaSize]byte {
	var out [MetaSize]byte

	out[0] = (uint8(m.DataSource&0x0F) << 4) | uint8(m.StationType&0x0F)

	logR := 7
	for i, r := range radiusLUT {
		if m.Radius <= r {
			logR = i
			break
		}
	}
	out[1] = (uint8(m.Validity&0x0F) << 4) | (uint8(logR&0x07) << 1) | uint8((m.Bearing>>8)&0x01)
	out[2] = uint8(m.Bearing & 0xFF)

	latScaled := clampInt(int64(m.Latitude/90.0*8388607.0), -8388608, 8388607)
	out[3] = byte(latScaled >> 16)
	out[4] = byte(latScaled >> 8)
	out[5] = byte(latScaled)

	lonScaled := clampInt(int64(m.Longitude/180.0*8388607.0), -8388608, 8388607)
	out[6] = byte(lonScaled >> 16)
	out[7] = byte(lonScaled >> 8)
	out[8] = byte(lonScaled)

	altScaled := clampInt(int64((500.0+m.Altitude)*2.0), 0, 65535)
	out[9] = byte(altScaled >> 8)
	out[10] = byte(altScaled)

	spdScaled := clampInt(int64(m.Speed*2.0), 0, 4095)
	out[11] = byte(spdScaled >> 4)
	out[12] = byte((spdScaled & 0x0F) << 4)

	out[13] = 0
	return out
}

// MetaPositionFromBytes decodes a 14-byte META field into a
// MetaPosition.
func MetaPositionFromBytes(data []byte) (MetaPosition, error) {
	if len(data) != MetaSize {
		return MetaPosition{}, m17err.ErrInvalidInput
	}

	logR := (data[1] >> 1) & 0x07
	bearing := (uint16(data[1]&0x01) << 8) | uint16(data[2])

	latScaled := sign24(uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5]))
	lonScaled := sign24(uint32(data[6])<<16 | uint32(data[7])<<8 | uint32(data[8]))

	altScaled := int64(data[9])<<8 | int64(data[10])
	spdScaled := (int64(data[11]) << 4) | int64((data[12]>>4)&0x0F)

	return MetaPosition{
		DataSource:  DataSource((data[0] >> 4) & 0x0F),
		StationType: StationType(data[0] & 0x0F),
		Validity:    Validity((data[1] >> 4) & 0x0F),
		Latitude:    float64(latScaled) / 8388607.0 * 90.0,
		Longitude:   float64(lonScaled) / 8388607.0 * 180.0,
		Altitude:    float64(altScaled)/2.0 - 500.0,
		Speed:       float64(spdScaled) / 2.0,
		Bearing:     bearing,
		Radius:      radiusLUT[logR],
	}, nil
}

func sign24(v uint32) int32 {
	if v&0x800000 != 0 {
		return int32(v) - 0x1000000
	}
	return int32(v)
}

// MetaExtendedCallsign holds two auxiliary callsign fields routed in
// the META when no encryption/text/GNSS use is active.
type MetaExtendedCallsign struct {
	CallsignField1 string
	CallsignField2 string
}

// ToBytes encodes the two callsigns into a 14-byte META field.
func (m MetaExtendedCallsign) ToBytes() ([MetaSize]byte, error) {
	var out [MetaSize]byte

	cf1 := m.CallsignField1
	if cf1 == "" {
		cf1 = " "
	}
	cf2 := m.CallsignField2
	if cf2 == "" {
		cf2 = " "
	}

	a1, err := address.Encode(cf1)
	if err != nil {
		return out, err
	}
	a2, err := address.Encode(cf2)
	if err != nil {
		return out, err
	}

	b1 := a1.Bytes()
	b2 := a2.Bytes()
	copy(out[0:6], b1[:])
	copy(out[6:12], b2[:])
	return out, nil
}

// MetaExtendedCallsignFromBytes decodes a 14-byte META field into two
// callsigns.
func MetaExtendedCallsignFromBytes(data []byte) (MetaExtendedCallsign, error) {
	if len(data) != MetaSize {
		return MetaExtendedCallsign{}, m17err.ErrInvalidInput
	}
	a1, err := address.FromBytes(data[0:6])
	if err != nil {
		return MetaExtendedCallsign{}, err
	}
	a2, err := address.FromBytes(data[6:12])
	if err != nil {
		return MetaExtendedCallsign{}, err
	}
	cf1, _ := address.Decode(a1)
	cf2, _ := address.Decode(a2)
	return MetaExtendedCallsign{
		CallsignField1: strings.TrimSpace(cf1),
		CallsignField2: strings.TrimSpace(cf2),
	}, nil
}

// epoch2020 is the Unix timestamp of 2020-01-01T00:00:00Z, the nonce
// META field's timestamp epoch.
const epoch2020 = 1577836800

// MetaNonce carries an encryption nonce: a 2020-epoch timestamp and
// 10 bytes of random data.
type MetaNonce struct {
	Timestamp  int64 // Unix timestamp
	RandomData [10]byte
}

// ToBytes encodes the nonce into a 14-byte META field.
func (m MetaNonce) ToBytes() [MetaSize]byte {
	var out [MetaSize]byte

	ts2020 := m.Timestamp - epoch2020
	if ts2020 < 0 {
		ts2020 = 0
	}
	out[0] = byte(ts2020 >> 24)
	out[1] = byte(ts2020 >> 16)
	out[2] = byte(ts2020 >> 8)
	out[3] = byte(ts2020)
	copy(out[4:14], m.RandomData[:])
	return out
}

// MetaNonceFromBytes decodes a 14-byte META field into a MetaNonce.
func MetaNonceFromBytes(data []byte) (MetaNonce, error) {
	if len(data) != MetaSize {
		return MetaNonce{}, m17err.ErrInvalidInput
	}
	ts2020 := int64(data[0])<<24 | int64(data[1])<<16 | int64(data[2])<<8 | int64(data[3])
	var m MetaNonce
	m.Timestamp = ts2020 + epoch2020
	copy(m.RandomData[:], data[4:14])
	return m, nil
}

const (
	maxTextPerBlock = 13
	maxTextBlocks   = 15
)

// MetaText carries up to 13 bytes of UTF-8 text per block, with up to
// 15 blocks chained across successive LSFs in stream mode.
type MetaText struct {
	Text       string
	BlockCount uint8
	BlockIndex uint8
}

// ToBytes encodes a single text block into a 14-byte META field.
func (m MetaText) ToBytes() [MetaSize]byte {
	var out [MetaSize]byte
	out[0] = (m.BlockCount&0x0F)<<4 | (m.BlockIndex & 0x0F)

	textBytes := []byte(m.Text)
	if len(textBytes) > maxTextPerBlock {
		textBytes = textBytes[:maxTextPerBlock]
	}
	copy(out[1:1+len(textBytes)], textBytes)
	return out
}

// MetaTextFromBytes decodes a 14-byte META field into a text block,
// stopping at the first null byte.
func MetaTextFromBytes(data []byte) (MetaText, error) {
	if len(data) != MetaSize {
		return MetaText{}, m17err.ErrInvalidInput
	}
	blockCount := (data[0] >> 4) & 0x0F
	blockIndex := data[0] & 0x0F

	textData := data[1:14]
	if idx := bytes.IndexByte(textData, 0); idx >= 0 {
		textData = textData[:idx]
	}

	return MetaText{Text: string(textData), BlockCount: blockCount, BlockIndex: blockIndex}, nil
}

// EncodeMultiBlockText splits text into as many 14-byte META blocks as
// needed (up to maxTextBlocks), returning ErrInvalidInput if it
// doesn't fit.
func EncodeMultiBlockText(text string) ([][MetaSize]byte, error) {
	textBytes := []byte(text)
	if len(textBytes) > maxTextPerBlock*maxTextBlocks {
		return nil, m17err.ErrInvalidInput
	}

	blockCount := (len(textBytes) + maxTextPerBlock - 1) / maxTextPerBlock
	if blockCount < 1 {
		blockCount = 1
	}

	blocks := make([][MetaSize]byte, 0, blockCount)
	for i := 0; i < blockCount; i++ {
		start := i * maxTextPerBlock
		end := start + maxTextPerBlock
		if end > len(textBytes) {
			end = len(textBytes)
		}
		m := MetaText{
			Text:       string(textBytes[start:end]),
			BlockCount: uint8(blockCount),
			BlockIndex: uint8(i + 1),
		}
		blocks = append(blocks, m.ToBytes())
	}
	return blocks, nil
}

// DecodeMultiBlockText reassembles text from its META blocks, sorted
// by block index.
func DecodeMultiBlockText(blocks [][]byte) (string, error) {
	parsed := make([]MetaText, 0, len(blocks))
	for _, b := range blocks {
		m, err := MetaTextFromBytes(b)
		if err != nil {
			return "", err
		}
		parsed = append(parsed, m)
	}
	for i := 1; i < len(parsed); i++ {
		j := i
		for j > 0 && parsed[j-1].BlockIndex > parsed[j].BlockIndex {
			parsed[j-1], parsed[j] = parsed[j], parsed[j-1]
			j--
		}
	}
	var sb strings.Builder
	for _, p := range parsed {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// MetaAesIV carries the 14-byte portion of an AES initialization
// vector; the remaining 2 bytes come from the frame number.
type MetaAesIV struct {
	IV [MetaSize]byte
}

// ToBytes returns the 14-byte META field.
func (m MetaAesIV) ToBytes() [MetaSize]byte {
	return m.IV
}

// MetaAesIVFromBytes decodes a 14-byte META field into a MetaAesIV.
func MetaAesIVFromBytes(data []byte) (MetaAesIV, error) {
	if len(data) != MetaSize {
		return MetaAesIV{}, m17err.ErrInvalidInput
	}
	var m MetaAesIV
	copy(m.IV[:], data)
	return m, nil
}
