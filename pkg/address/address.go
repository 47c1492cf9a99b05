// Package address implements the M17 48-bit address: base-40 callsign
// encoding, hash-prefixed callsigns, and the broadcast address.
package address

import (
	"fmt"
	"strings"

	"github.com/m17-go/m17/pkg/m17err"
)

// Alphabet is the 40-symbol base-40 alphabet, SPACE at index 0.
const Alphabet = " ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-/."

// MaxCallsignValue is 40^9 - 1, the top of the regular (non-hash) range.
const MaxCallsignValue uint64 = 262144000000000 - 1

// Broadcast is the reserved all-stations address, printed "@ALL".
const Broadcast uint64 = 0xFFFFFFFFFFFF

var (
	maxCallsignValue uint64
	hashAddressMin   uint64
	hashAddressMax   uint64
)

func pow40(n int) uint64 {
	v := uint64(1)
	for i := 0; i < n; i++ {
		v *= 40
	}
	return v
}

func init() {
	maxCallsignValue = MaxCallsignValue
	hashAddressMin = pow40(9)
	hashAddressMax = pow40(9) + pow40(8) - 1
}

// Address is a 48-bit M17 address value.
type Address uint64

// Encode converts a callsign (or "@ALL", or a "#"-prefixed hash form)
// into its numeric address value.
func Encode(callsign string) (Address, error) {
	cs := strings.ToUpper(strings.TrimSpace(callsign))

	if cs == "@ALL" {
		return Address(Broadcast), nil
	}

	if strings.HasPrefix(cs, "#") {
		return encodeHash(cs[1:])
	}

	if len(cs) > 9 {
		return 0, fmt.Errorf("%w: callsign %q longer than 9 characters", m17err.ErrInvalidInput, callsign)
	}

	num, err := encodeBase40(cs)
	if err != nil {
		return 0, err
	}
	if num > maxCallsignValue {
		return 0, fmt.Errorf("%w: callsign %q out of range", m17err.ErrInvalidInput, callsign)
	}
	return Address(num), nil
}

func encodeHash(cs string) (Address, error) {
	if len(cs) > 8 {
		return 0, fmt.Errorf("%w: hash callsign %q longer than 8 characters", m17err.ErrInvalidInput, cs)
	}
	num, err := encodeBase40(cs)
	if err != nil {
		return 0, err
	}
	return Address(hashAddressMin + num), nil
}

func encodeBase40(cs string) (uint64, error) {
	var num uint64
	for i := len(cs) - 1; i >= 0; i-- {
		idx := strings.IndexByte(Alphabet, cs[i])
		if idx < 0 {
			return 0, fmt.Errorf("%w: character %q not in base-40 alphabet", m17err.ErrInvalidInput, cs[i])
		}
		num = num*40 + uint64(idx)
	}
	return num, nil
}

// Decode converts a numeric address value back into its string form.
func Decode(v Address) (string, error) {
	val := uint64(v)

	if val == Broadcast {
		return "@ALL", nil
	}
	if val >= hashAddressMin && val <= hashAddressMax {
		return "#" + decodeBase40(val-hashAddressMin), nil
	}
	if val > maxCallsignValue {
		return "", fmt.Errorf("%w: address 0x%012X falls in the invalid gap", m17err.ErrInvalidInput, val)
	}
	return decodeBase40(val), nil
}

func decodeBase40(num uint64) string {
	if num == 0 {
		return ""
	}
	var b strings.Builder
	for num > 0 {
		idx := num % 40
		b.WriteByte(Alphabet[idx])
		num /= 40
	}
	return b.String()
}

// Bytes returns the big-endian 6-byte wire encoding of the address.
func (a Address) Bytes() [6]byte {
	var out [6]byte
	v := uint64(a)
	for i := 5; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// FromBytes parses a big-endian 6-byte address.
func FromBytes(b []byte) (Address, error) {
	if len(b) != 6 {
		return 0, fmt.Errorf("%w: address must be 6 bytes, got %d", m17err.ErrInvalidInput, len(b))
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return Address(v), nil
}

// String renders the address as its callsign form, or a hex fallback
// if it falls in the invalid gap.
func (a Address) String() string {
	s, err := Decode(a)
	if err != nil {
		return fmt.Sprintf("0x%012X", uint64(a))
	}
	return s
}

// Equal compares the address against a callsign string, treating an
// unparsable string as unequal rather than propagating the error.
func (a Address) Equal(callsign string) bool {
	enc, err := Encode(callsign)
	if err != nil {
		return false
	}
	return a == enc
}

// IsBroadcast reports whether a is the @ALL address.
func (a Address) IsBroadcast() bool {
	return uint64(a) == Broadcast
}

// IsHash reports whether a is in the hash-prefixed range.
func (a Address) IsHash() bool {
	v := uint64(a)
	return v >= hashAddressMin && v <= hashAddressMax
}

// IsRegular reports whether a is a regular (non-hash, non-broadcast)
// callsign address.
func (a Address) IsRegular() bool {
	return uint64(a) <= maxCallsignValue
}
