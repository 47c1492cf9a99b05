package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/m17-go/m17/pkg/m17err"
)

// AESIVSize is the full CTR IV length: 14 bytes of META material plus
// the 2-byte frame number in stream mode.
const AESIVSize = 16

// MetaIVSize is the META-field contribution to the stream-mode IV.
const MetaIVSize = 14

// BuildStreamIV composes the 16-byte CTR IV for stream mode from the
// 14-byte META IV and the current frame number.
func BuildStreamIV(metaIV []byte, frameNumber uint16) ([]byte, error) {
	if len(metaIV) != MetaIVSize {
		return nil, fmt.Errorf("%w: meta IV must be %d bytes, got %d", m17err.ErrInvalidInput, MetaIVSize, len(metaIV))
	}
	iv := make([]byte, AESIVSize)
	copy(iv, metaIV)
	iv[14] = byte(frameNumber >> 8)
	iv[15] = byte(frameNumber)
	return iv, nil
}

// AESCTR encrypts or decrypts data with AES-CTR; the operation is its
// own inverse. key must be 16, 24, or 32 bytes (AES-128/192/256); iv
// must be exactly 16 bytes.
func AESCTR(key, iv, data []byte) ([]byte, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: AES key must be 16, 24, or 32 bytes, got %d", m17err.ErrInvalidInput, len(key))
	}
	if len(iv) != AESIVSize {
		return nil, fmt.Errorf("%w: AES-CTR IV must be %d bytes, got %d", m17err.ErrInvalidInput, AESIVSize, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", m17err.ErrInvalidInput, err)
	}
	stream := cipher.NewCTR(block, iv)
	out := make([]byte, len(data))
	stream.XORKeyStream(out, data)
	return out, nil
}

// AESCTRStream encrypts/decrypts a stream-mode payload: the IV is
// derived from the 14-byte META IV and the frame number.
func AESCTRStream(key, metaIV []byte, frameNumber uint16, data []byte) ([]byte, error) {
	iv, err := BuildStreamIV(metaIV, frameNumber)
	if err != nil {
		return nil, err
	}
	return AESCTR(key, iv, data)
}
