package lsf

import "testing"

func TestMetaPositionRoundTrip(t *testing.T) {
	pos := MetaPosition{
		DataSource:  DataSourceGNSSFix,
		StationType: StationMobile,
		Validity:    ValidityAll,
		Latitude:    40.7128,
		Longitude:   -74.0060,
		Altitude:    10.5,
		Speed:       55.5,
		Bearing:     270,
		Radius:      4,
	}
	encoded := pos.ToBytes()
	decoded, err := MetaPositionFromBytes(encoded[:])
	if err != nil {
		t.Fatalf("MetaPositionFromBytes: %v", err)
	}

	if decoded.Bearing != pos.Bearing {
		t.Errorf("Bearing = %d, want %d", decoded.Bearing, pos.Bearing)
	}
	if decoded.Radius != pos.Radius {
		t.Errorf("Radius = %v, want %v", decoded.Radius, pos.Radius)
	}
	if diff := decoded.Latitude - pos.Latitude; diff > 0.001 || diff < -0.001 {
		t.Errorf("Latitude = %v, want ~%v", decoded.Latitude, pos.Latitude)
	}
	if diff := decoded.Longitude - pos.Longitude; diff > 0.001 || diff < -0.001 {
		t.Errorf("Longitude = %v, want ~%v", decoded.Longitude, pos.Longitude)
	}
	if decoded.Altitude != 10.5 {
		t.Errorf("Altitude = %v, want 10.5", decoded.Altitude)
	}
	if decoded.Speed != 55.5 {
		t.Errorf("Speed = %v, want 55.5", decoded.Speed)
	}
}

func TestMetaPositionClampsOutOfRange(t *testing.T) {
	pos := MetaPosition{Latitude: 1000, Longitude: -1000, Altitude: 1e9, Speed: 1e9}
	encoded := pos.ToBytes()
	decoded, err := MetaPositionFromBytes(encoded[:])
	if err != nil {
		t.Fatalf("MetaPositionFromBytes: %v", err)
	}
	if decoded.Latitude > 90.01 || decoded.Latitude < -90.01 {
		t.Errorf("Latitude = %v, want clamped to +-90", decoded.Latitude)
	}
	if decoded.Speed != 2047.5 {
		t.Errorf("Speed = %v, want clamped to 2047.5", decoded.Speed)
	}
}

func TestMetaExtendedCallsignRoundTrip(t *testing.T) {
	m := MetaExtendedCallsign{CallsignField1: "W2FBI", CallsignField2: "N0CALL"}
	encoded, err := m.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	decoded, err := MetaExtendedCallsignFromBytes(encoded[:])
	if err != nil {
		t.Fatalf("MetaExtendedCallsignFromBytes: %v", err)
	}
	if decoded.CallsignField1 != "W2FBI" || decoded.CallsignField2 != "N0CALL" {
		t.Errorf("decoded = %+v, want W2FBI/N0CALL", decoded)
	}
}

func TestMetaNonceRoundTrip(t *testing.T) {
	n := MetaNonce{Timestamp: epoch2020 + 12345, RandomData: [10]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}
	encoded := n.ToBytes()
	decoded, err := MetaNonceFromBytes(encoded[:])
	if err != nil {
		t.Fatalf("MetaNonceFromBytes: %v", err)
	}
	if decoded.Timestamp != n.Timestamp {
		t.Errorf("Timestamp = %d, want %d", decoded.Timestamp, n.Timestamp)
	}
	if decoded.RandomData != n.RandomData {
		t.Errorf("RandomData = %v, want %v", decoded.RandomData, n.RandomData)
	}
}

func TestMetaNonceClampsNegative(t *testing.T) {
	n := MetaNonce{Timestamp: 0}
	encoded := n.ToBytes()
	decoded, _ := MetaNonceFromBytes(encoded[:])
	if decoded.Timestamp != epoch2020 {
		t.Errorf("Timestamp = %d, want clamped to epoch %d", decoded.Timestamp, int64(epoch2020))
	}
}

func TestMetaTextRoundTrip(t *testing.T) {
	m := MetaText{Text: "hello", BlockCount: 1, BlockIndex: 1}
	encoded := m.ToBytes()
	decoded, err := MetaTextFromBytes(encoded[:])
	if err != nil {
		t.Fatalf("MetaTextFromBytes: %v", err)
	}
	if decoded.Text != "hello" || decoded.BlockCount != 1 || decoded.BlockIndex != 1 {
		t.Errorf("decoded = %+v, want text=hello count=1 index=1", decoded)
	}
}

func TestMultiBlockTextRoundTrip(t *testing.T) {
	longText := ""
	for i := 0; i < 15; i++ {
		longText += "0123456789"
	}
	blocks, err := EncodeMultiBlockText(longText)
	if err != nil {
		t.Fatalf("EncodeMultiBlockText: %v", err)
	}
	if len(blocks) < 2 {
		t.Fatalf("expected multiple blocks, got %d", len(blocks))
	}

	raw := make([][]byte, len(blocks))
	for i, b := range blocks {
		raw[i] = append([]byte{}, b[:]...)
	}
	// Shuffle to confirm reassembly sorts by block index.
	raw[0], raw[len(raw)-1] = raw[len(raw)-1], raw[0]

	recovered, err := DecodeMultiBlockText(raw)
	if err != nil {
		t.Fatalf("DecodeMultiBlockText: %v", err)
	}
	if recovered != longText {
		t.Errorf("recovered length = %d, want %d", len(recovered), len(longText))
	}
}

func TestMultiBlockTextTooLong(t *testing.T) {
	tooLong := make([]byte, maxTextPerBlock*maxTextBlocks+1)
	if _, err := EncodeMultiBlockText(string(tooLong)); err == nil {
		t.Error("EncodeMultiBlockText with oversized text should fail")
	}
}

func TestMetaAesIVRoundTrip(t *testing.T) {
	var iv [MetaSize]byte
	for i := range iv {
		iv[i] = byte(i)
	}
	m := MetaAesIV{IV: iv}
	encoded := m.ToBytes()
	decoded, err := MetaAesIVFromBytes(encoded[:])
	if err != nil {
		t.Fatalf("MetaAesIVFromBytes: %v", err)
	}
	if decoded.IV != iv {
		t.Errorf("IV = %v, want %v", decoded.IV, iv)
	}
}
