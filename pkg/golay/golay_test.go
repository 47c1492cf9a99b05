package golay

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for data := uint16(0); data < 0x1000; data += 0x137 {
		cw := Encode(data)
		got, errs := Decode(cw)
		if got != data || errs != 0 {
			t.Errorf("Decode(Encode(0x%03X)) = (0x%03X, %d), want (0x%03X, 0)", data, got, errs, data)
		}
	}
}

// TestS7SingleBitErrorCorrection matches the spec's S7 scenario: data
// 0x123, every single-bit error in the 24-bit codeword corrects back
// to 0x123 with an error count of 1.
func TestS7SingleBitErrorCorrection(t *testing.T) {
	const data = 0x123
	cw := Encode(data)

	for i := 0; i < 24; i++ {
		corrupted := cw ^ (1 << uint(i))
		got, errs := Decode(corrupted)
		if got != data {
			t.Errorf("bit %d: Decode(0x%06X) data = 0x%03X, want 0x%03X", i, corrupted, got, data)
		}
		if errs != 1 {
			t.Errorf("bit %d: Decode(0x%06X) errs = %d, want 1", i, corrupted, errs)
		}
	}
}

func TestDoubleBitErrorCorrection(t *testing.T) {
	const data = 0x123
	cw := Encode(data)

	for i := 0; i < 23; i++ {
		for j := i + 1; j < 24; j++ {
			corrupted := cw ^ (1 << uint(i)) ^ (1 << uint(j))
			got, _ := Decode(corrupted)
			if got != data {
				t.Errorf("bits %d,%d: Decode data = 0x%03X, want 0x%03X", i, j, got, data)
			}
		}
	}
}

func TestEncodeLICHRoundTripHard(t *testing.T) {
	chunk := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB}
	encoded, err := EncodeLICH(chunk)
	if err != nil {
		t.Fatalf("EncodeLICH: %v", err)
	}
	if len(encoded) != 12 {
		t.Fatalf("EncodeLICH length = %d, want 12", len(encoded))
	}

	// Re-decode hard, reconstructing the soft-bit stream from the
	// encoded hard bytes for DecodeLICH (which works on soft bits).
	soft := make([]SoftBit, 96)
	for i := 0; i < 96; i++ {
		byteIdx := i / 8
		bitIdx := 7 - (i % 8)
		if encoded[byteIdx]&(1<<uint(bitIdx)) != 0 {
			soft[i] = 0xFFFF
		}
	}

	decoded, err := DecodeLICH(soft)
	if err != nil {
		t.Fatalf("DecodeLICH: %v", err)
	}
	for i := range chunk {
		if decoded[i] != chunk[i] {
			t.Errorf("DecodeLICH byte %d = 0x%02X, want 0x%02X", i, decoded[i], chunk[i])
		}
	}
}

func TestEncodeLICHWrongLength(t *testing.T) {
	if _, err := EncodeLICH([]byte{1, 2, 3}); err == nil {
		t.Error("EncodeLICH with wrong length should fail")
	}
}
