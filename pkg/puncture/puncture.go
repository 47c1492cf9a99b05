// Package puncture implements the three M17 puncture patterns applied
// to convolutionally-encoded LSF, stream, and packet frames.
package puncture

import "github.com/m17-go/m17/pkg/m17err"

// P1, P2, and P3 are the fixed puncture patterns used for LSF/BERT,
// stream, and packet frames respectively: a 1 keeps the corresponding
// bit, a 0 drops it.
var (
	P1 = []uint8{
		1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1,
		1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1,
		1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1,
		1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1,
	}
	P2 = []uint8{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0}
	P3 = []uint8{1, 1, 1, 1, 1, 1, 1, 0}
)

func popcount(pattern []uint8) int {
	n := 0
	for _, b := range pattern {
		if b != 0 {
			n++
		}
	}
	return n
}

// Puncture drops every bit of in at a position whose pattern entry
// (cycled) is 0.
func Puncture(in []uint8, pattern []uint8) []uint8 {
	out := make([]uint8, 0, len(in))
	for i, b := range in {
		if pattern[i%len(pattern)] != 0 {
			out = append(out, b)
		}
	}
	return out
}

// Depuncture reinserts fillValue at every position outLen's pattern
// punctured away, reconstructing a full-length sequence from a
// punctured one. outLen is normally one of the fixed frame sizes
// (488/296/420/402); use ExpectedOutLen when it isn't known up front.
//
// The reference decoder derives outLen by walking the pattern until
// len(in) kept-positions have been consumed and then padding out any
// partial trailing cycle, which for P2/P3 can leave the output one bit
// short of a whole number of bytes. Not every M17 frame is a whole
// number of pattern cycles (296 bits under P2 and 420 under P3 stop
// partway through one), so Depuncture instead requires outLen
// explicitly and fills every punctured slot up to it, which is always
// an exact, deterministic length.
func Depuncture(in []uint8, pattern []uint8, outLen int, fillValue uint8) ([]uint8, error) {
	kept := popcount(pattern)
	if kept == 0 {
		return nil, m17err.ErrInvalidInput
	}
	out := make([]uint8, outLen)
	for i := range out {
		out[i] = fillValue
	}

	pos := 0
	for i := 0; i < outLen && pos < len(in); i++ {
		if pattern[i%len(pattern)] != 0 {
			out[i] = in[pos]
			pos++
		}
	}
	return out, nil
}

// ExpectedOutLen returns the deterministic depunctured length for an
// inLen-bit punctured sequence under pattern: the shortest length whose
// kept positions number exactly inLen, so no trailing erasures follow
// the last kept bit (272 under P2 gives 296; 368 under P3 gives 420).
func ExpectedOutLen(inLen int, pattern []uint8) int {
	kept := popcount(pattern)
	if kept == 0 {
		return 0
	}
	plen := len(pattern)
	cycles := inLen / kept
	out := cycles * plen
	for rem := inLen - cycles*kept; rem > 0; out++ {
		if pattern[out%plen] != 0 {
			rem--
		}
	}
	return out
}
