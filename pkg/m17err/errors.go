// Package m17err defines the error taxonomy shared by every codec and
// protocol package in this module: callers type-switch (via errors.Is)
// on these sentinels rather than parsing message text.
package m17err

import "errors"

var (
	// ErrInvalidInput covers malformed caller-supplied values: bad
	// callsign characters, out-of-range addresses, wrong-length
	// payloads/nonces/IVs/keys, invalid CAN or module letters.
	ErrInvalidInput = errors.New("m17: invalid input")

	// ErrWireFormat covers malformed wire data: wrong frame length,
	// bad magic, invalid control-byte fields.
	ErrWireFormat = errors.New("m17: wire format error")

	// ErrChecksum covers a CRC that fails to verify.
	ErrChecksum = errors.New("m17: checksum failure")

	// ErrDecodeFailure covers an error-correcting decoder (Golay,
	// Viterbi) exhausting its correction capacity.
	ErrDecodeFailure = errors.New("m17: decode failure")

	// ErrConnection covers reflector-client connection failures:
	// refusal, timeout, or use while not connected.
	ErrConnection = errors.New("m17: connection error")

	// ErrCancelled covers an externally cancelled operation.
	ErrCancelled = errors.New("m17: cancelled")
)
