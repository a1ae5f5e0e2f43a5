// Package notefreq parses note-name strings (e.g. "A4", "C#4", "Db2")
// into frequencies in Hz.
package notefreq

import (
	"math"
	"strconv"
	"strings"

	"github.com/Servus-Altissimi/Boomie/pkg/scoreerr"
)

// baseFreq holds the octave-0 frequency for each of the seven natural
// note letters, in Hz.
var baseFreq = map[byte]float64{
	'C': 16.35,
	'D': 18.35,
	'E': 20.60,
	'F': 21.83,
	'G': 24.50,
	'A': 27.50,
	'B': 30.87,
}

const (
	sharpRatio = 1.0594630943592953 // 2^(1/12)
	flatRatio  = 0.9438743126816935 // 2^(-1/12)
)

// Parse converts a note-name string of shape L[A][O] (letter, optional
// accidental, optional octave digits) into a frequency in Hz.
//
// The letters B and F double as note names and as flat-accidental
// markers. When the letter is itself B or F, a second-character B or F
// is rejected outright — e.g. "BF4" (and likewise "Bb2") is an error
// rather than silently read as "B, flat, octave 4" or as two note
// letters, since there is no way to tell which the caller meant. After
// any other letter, a B or F flat marker is only accepted when
// everything after it is plain digits (an octave) or nothing at all.
func Parse(note string) (float64, error) {
	if note == "" {
		return 0, scoreerr.NewParseError("empty note string")
	}
	s := strings.ToUpper(note)
	letter := s[0]
	base, ok := baseFreq[letter]
	if !ok {
		return 0, scoreerr.NewParseError("Invalid note: unrecognized letter %q", string(letter))
	}

	rest := s[1:]
	ratio := 1.0
	if len(rest) > 0 {
		switch rest[0] {
		case '#', 'S':
			ratio = sharpRatio
			rest = rest[1:]
		case 'B', 'F':
			// B and F double as note letters AND flat markers. When the
			// letter itself is also B or F, position alone can't tell
			// whether the second character is an accidental or a second,
			// mistyped note letter ("BF4"). Reject rather than silently
			// pick a reading.
			if letter == 'B' || letter == 'F' {
				return 0, scoreerr.NewParseError("Invalid note: ambiguous accidental in %q", note)
			}
			// Otherwise only consume as an accidental if the remainder
			// is a valid octave (digits) or empty.
			tail := rest[1:]
			if tail == "" || isAllDigits(tail) {
				ratio = flatRatio
				rest = tail
			} else {
				return 0, scoreerr.NewParseError("Invalid note: ambiguous accidental in %q", note)
			}
		}
	}

	octave := 0
	if rest != "" {
		if !isAllDigits(rest) {
			return 0, scoreerr.NewParseError("Invalid note: bad octave in %q", note)
		}
		o, err := strconv.Atoi(rest)
		if err != nil {
			return 0, scoreerr.WrapParseError(err, "Invalid note: bad octave in %q", note)
		}
		octave = o
	}

	return base * ratio * math.Pow(2.0, float64(octave)), nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
