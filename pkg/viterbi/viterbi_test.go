package viterbi

import (
	"testing"

	"github.com/m17-go/m17/pkg/convolution"
	"github.com/m17-go/m17/pkg/puncture"
)

// toSoft converts hard 0/1 bits into strong soft values.
func toSoft(bits []uint8) []uint32 {
	out := make([]uint32, len(bits))
	for i, b := range bits {
		if b != 0 {
			out[i] = 0xFFFF
		}
	}
	return out
}

func toSoft16(bits []uint8) []uint16 {
	out := make([]uint16, len(bits))
	for i, b := range bits {
		if b != 0 {
			out[i] = 0xFFFF
		}
	}
	return out
}

func TestEncodeDecodeRoundTripUnpunctured(t *testing.T) {
	in := make([]uint8, 240)
	for i := range in {
		in[i] = uint8((i * 7) % 2)
	}
	encoded := convolution.Encode(in, true)
	soft := toSoft(encoded)

	decoded, _, err := Decode(soft)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	for i := 0; i < len(in); i++ {
		bit := (decoded[i/8] >> uint(7-i%8)) & 1
		if bit != in[i] {
			t.Errorf("bit %d = %d, want %d", i, bit, in[i])
		}
	}
}

func TestDecodeLSFRoundTrip(t *testing.T) {
	in := make([]uint8, 240)
	for i := range in {
		in[i] = uint8((i * 3) % 2)
	}
	encoded := convolution.Encode(in, true)
	punctured := puncture.Puncture(encoded, puncture.P1)
	if len(punctured) != 368 {
		t.Fatalf("punctured length = %d, want 368", len(punctured))
	}

	soft := toSoft16(punctured)
	decoded, _, err := DecodeLSF(soft)
	if err != nil {
		t.Fatalf("DecodeLSF: %v", err)
	}

	for i := 0; i < len(in); i++ {
		bit := (decoded[i/8] >> uint(7-i%8)) & 1
		if bit != in[i] {
			t.Errorf("bit %d = %d, want %d", i, bit, in[i])
		}
	}
}

func TestDecodeStreamRoundTrip(t *testing.T) {
	in := make([]uint8, 144)
	for i := range in {
		in[i] = uint8((i * 5) % 2)
	}
	encoded := convolution.Encode(in, true)
	punctured := puncture.Puncture(encoded, puncture.P2)
	if len(punctured) != 272 {
		t.Fatalf("punctured length = %d, want 272", len(punctured))
	}

	soft := toSoft16(punctured)
	decoded, _, err := DecodeStream(soft)
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}

	for i := 0; i < len(in); i++ {
		bit := (decoded[i/8] >> uint(7-i%8)) & 1
		if bit != in[i] {
			t.Errorf("bit %d = %d, want %d", i, bit, in[i])
		}
	}
}

func TestWrongLength(t *testing.T) {
	if _, _, err := DecodeLSF(make([]uint16, 100)); err == nil {
		t.Error("DecodeLSF with wrong length should fail")
	}
	if _, _, err := Decode(make([]uint32, 3)); err == nil {
		t.Error("Decode with odd length should fail")
	}
}
