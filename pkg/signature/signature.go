// Package signature implements M17 v3.0.0 frame authentication:
// ECDSA over NIST P-256 with SHA-256, signatures carried on the wire
// as a 64-byte r‖s pair (§4.O).
package signature

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/m17-go/m17/pkg/m17err"
)

// Size is the wire signature length: 32-byte r plus 32-byte s.
const Size = 64

// PrivateKeySize is the raw scalar length of a signing key.
const PrivateKeySize = 32

var curve = elliptic.P256()

// Sign produces a 64-byte r‖s signature over message using the
// 32-byte big-endian private scalar sk. Signing is nondeterministic.
func Sign(sk []byte, message []byte) ([]byte, error) {
	if len(sk) != PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", m17err.ErrInvalidInput, PrivateKeySize, len(sk))
	}
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = curve
	priv.D = new(big.Int).SetBytes(sk)
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(sk)

	digest := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", m17err.ErrInvalidInput, err)
	}

	out := make([]byte, Size)
	r.FillBytes(out[0:32])
	s.FillBytes(out[32:64])
	return out, nil
}

// Verify checks a 64-byte r‖s signature over message against a public
// key accepted in 33-byte compressed, 64-byte raw x‖y, or 65-byte
// uncompressed-with-prefix form. It returns false (not an error) on
// any malformed input, never panicking and not distinguishing timing
// on the signature content.
func Verify(pub []byte, message, sig []byte) bool {
	if len(sig) != Size {
		return false
	}
	x, y, err := decodePublicKey(pub)
	if err != nil {
		return false
	}

	r := new(big.Int).SetBytes(sig[0:32])
	s := new(big.Int).SetBytes(sig[32:64])

	pk := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	digest := sha256.Sum256(message)
	return ecdsa.Verify(pk, digest[:], r, s)
}

// decodePublicKey accepts 33-byte compressed (02/03‖x), 64-byte raw
// x‖y, or 65-byte uncompressed-with-0x04-prefix public keys.
func decodePublicKey(pub []byte) (*big.Int, *big.Int, error) {
	switch len(pub) {
	case 64:
		x := new(big.Int).SetBytes(pub[0:32])
		y := new(big.Int).SetBytes(pub[32:64])
		if !curve.IsOnCurve(x, y) {
			return nil, nil, m17err.ErrInvalidInput
		}
		return x, y, nil
	case 65:
		if pub[0] != 0x04 {
			return nil, nil, m17err.ErrInvalidInput
		}
		return decodePublicKey(pub[1:])
	case 33:
		x, y := elliptic.UnmarshalCompressed(curve, pub)
		if x == nil {
			return nil, nil, m17err.ErrInvalidInput
		}
		return x, y, nil
	default:
		return nil, nil, fmt.Errorf("%w: public key must be 33, 64, or 65 bytes, got %d", m17err.ErrInvalidInput, len(pub))
	}
}

// GenerateKey returns a new random (privateKey, publicKey) pair; the
// public key is returned in 64-byte raw x‖y form.
func GenerateKey() (sk, pk []byte, err error) {
	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	sk = make([]byte, PrivateKeySize)
	priv.D.FillBytes(sk)
	pk = make([]byte, 64)
	priv.PublicKey.X.FillBytes(pk[0:32])
	priv.PublicKey.Y.FillBytes(pk[32:64])
	return sk, pk, nil
}
