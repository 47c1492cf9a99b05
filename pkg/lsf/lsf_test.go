package lsf

import (
	"testing"

	"github.com/m17-go/m17/pkg/typefield"
)

func TestNewAndRoundTrip(t *testing.T) {
	l, err := New("@ALL", "W2FBI", 0x0005, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wire := l.ToBytes()
	if len(wire) != WireSize {
		t.Fatalf("len(ToBytes()) = %d, want %d", len(wire), WireSize)
	}

	parsed, err := FromBytes(wire, true)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if parsed.Dst != l.Dst || parsed.Src != l.Src || parsed.TypeField != l.TypeField {
		t.Errorf("FromBytes(ToBytes()) mismatch: got %+v, want %+v", parsed, l)
	}
}

func TestSerializedLayout(t *testing.T) {
	l, err := New("@ALL", "W2FBI", 0x0005, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	wire := l.ToBytes()

	want := []byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // DST @ALL
		0x00, 0x00, 0x01, 0x61, 0xAE, 0x1F, // SRC W2FBI
		0x00, 0x05, // TYPE v2 voice stream
	}
	for i, b := range want {
		if wire[i] != b {
			t.Errorf("byte %d = %02X, want %02X", i, wire[i], b)
		}
	}
	for i := 14; i < 28; i++ {
		if wire[i] != 0 {
			t.Errorf("META byte %d = %02X, want 00", i, wire[i])
		}
	}
	gotCRC := uint16(wire[28])<<8 | uint16(wire[29])
	if gotCRC != l.CRC() {
		t.Errorf("trailing CRC = %04X, want %04X", gotCRC, l.CRC())
	}
}

func TestFromBytesWithoutCRC(t *testing.T) {
	l, err := New("N0CALL", "W2FBI", 0x0005, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := l.ToBytesWithoutCRC()
	if len(data) != Size {
		t.Fatalf("len = %d, want %d", len(data), Size)
	}
	parsed, err := FromBytes(data, false)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if parsed.TypeField != l.TypeField {
		t.Errorf("TypeField = 0x%04X, want 0x%04X", parsed.TypeField, l.TypeField)
	}
}

func TestFromBytesBadCRC(t *testing.T) {
	l, _ := New("N0CALL", "W2FBI", 0x0005, nil)
	wire := l.ToBytes()
	wire[29] ^= 0xFF
	if _, err := FromBytes(wire, true); err == nil {
		t.Error("FromBytes with corrupted CRC should fail")
	}
}

func TestChunksFiveWaySplit(t *testing.T) {
	l, _ := New("N0CALL", "W2FBI", 0x0005, nil)
	chunks := l.Chunks(6)
	if len(chunks) != 5 {
		t.Fatalf("len(chunks) = %d, want 5", len(chunks))
	}
	for i, c := range chunks {
		if len(c) != 6 {
			t.Errorf("chunk %d length = %d, want 6", i, len(c))
		}
	}
}

func TestV2AndV3Accessors(t *testing.T) {
	l, _ := New("N0CALL", "W2FBI", 0, nil)
	if err := l.SetTypeV2(typefield.V2{Stream: true, DataType: typefield.DataTypeVoice, CAN: 2}); err != nil {
		t.Fatalf("SetTypeV2: %v", err)
	}
	if l.Version() != typefield.VersionV2 {
		t.Errorf("Version() should be V2 after SetTypeV2")
	}
	got := l.V2()
	if !got.Stream || got.DataType != typefield.DataTypeVoice || got.CAN != 2 {
		t.Errorf("V2() = %+v, want stream=true dataType=voice can=2", got)
	}

	if err := l.SetTypeV3(typefield.V3{Payload: 2, CAN: 5}); err != nil {
		t.Fatalf("SetTypeV3: %v", err)
	}
	if l.Version() != typefield.VersionV3 {
		t.Errorf("Version() should be V3 after SetTypeV3")
	}
	v3 := l.V3()
	if v3.Payload != 2 || v3.CAN != 5 {
		t.Errorf("V3() = %+v, want payload=2 can=5", v3)
	}
}
