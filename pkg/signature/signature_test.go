package signature

import (
	"bytes"
	"testing"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	sk, pk, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	message := []byte("CQ CQ CQ DE W2FBI")

	sig, err := Sign(sk, message)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != Size {
		t.Fatalf("expected %d-byte signature, got %d", Size, len(sig))
	}
	if !Verify(pk, message, sig) {
		t.Fatal("expected signature to verify")
	}
}

func TestVerify_FailsOnTamperedMessage(t *testing.T) {
	sk, pk, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	message := []byte{0x01, 0x02, 0x03, 0x04}
	sig, err := Sign(sk, message)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	for i := range message {
		tampered := bytes.Clone(message)
		tampered[i] ^= 0x01
		if Verify(pk, tampered, sig) {
			t.Fatalf("expected verify to fail on single-bit flip at byte %d", i)
		}
	}
}

func TestSign_RejectsWrongKeyLength(t *testing.T) {
	if _, err := Sign(make([]byte, 16), []byte("msg")); err == nil {
		t.Fatal("expected error for wrong-length private key")
	}
}

func TestVerify_RejectsMalformedInputsWithoutPanicking(t *testing.T) {
	_, pk, _ := GenerateKey()

	if Verify(pk, []byte("msg"), make([]byte, 10)) {
		t.Fatal("expected false for wrong-length signature")
	}
	if Verify(make([]byte, 10), []byte("msg"), make([]byte, Size)) {
		t.Fatal("expected false for malformed public key")
	}
	if Verify(nil, nil, nil) {
		t.Fatal("expected false for nil inputs")
	}
}

func TestVerify_AcceptsCompressedAndUncompressedPublicKeys(t *testing.T) {
	sk, pk, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	message := []byte("hello")
	sig, err := Sign(sk, message)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	uncompressed := append([]byte{0x04}, pk...)
	if !Verify(uncompressed, message, sig) {
		t.Fatal("expected 65-byte uncompressed key to verify")
	}

	compressed := compress(pk)
	if !Verify(compressed, message, sig) {
		t.Fatal("expected 33-byte compressed key to verify")
	}
}

// compress builds the 33-byte compressed form (02/03‖x) from a
// 64-byte raw x‖y public key, for exercising decodePublicKey's
// compressed path from outside the package.
func compress(pk []byte) []byte {
	x := pk[0:32]
	y := pk[32:64]
	prefix := byte(0x02)
	if y[len(y)-1]&1 == 1 {
		prefix = 0x03
	}
	return append([]byte{prefix}, x...)
}
