// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// Common ECI assignment numbers.
const (
	ECIISO8859_1 = 3
	ECIShiftJIS  = 20
	ECIUTF8      = 26
)

// ECI assignment numbers of character sets.
var eciCharsets = map[uint32]encoding.Encoding{
	0:  charmap.CodePage437,
	1:  charmap.ISO8859_1,
	2:  charmap.CodePage437,
	3:  charmap.ISO8859_1,
	4:  charmap.ISO8859_2,
	5:  charmap.ISO8859_3,
	6:  charmap.ISO8859_4,
	7:  charmap.ISO8859_5,
	8:  charmap.ISO8859_6,
	9:  charmap.ISO8859_7,
	10: charmap.ISO8859_8,
	11: charmap.ISO8859_9,
	12: charmap.ISO8859_10,
	13: charmap.Windows874,
	15: charmap.ISO8859_13,
	16: charmap.ISO8859_14,
	17: charmap.ISO8859_15,
	18: charmap.ISO8859_16,
	20: japanese.ShiftJIS,
	21: charmap.Windows1250,
	22: charmap.Windows1251,
	23: charmap.Windows1252,
	24: charmap.Windows1256,
	25: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	26: unicode.UTF8,
	27: unicode.UTF8, // US-ASCII
	28: traditionalchinese.Big5,
	29: simplifiedchinese.GB18030,
	30: korean.EUCKR,
	32: simplifiedchinese.GB18030,

	170: unicode.UTF8,      // ISO 646 invariant
	899: charmap.ISO8859_1, // binary
}

// ECICharset returns the character set of the ECI assignment number
// eci.
func ECICharset(eci uint32) (encoding.Encoding, bool) {
	e, ok := eciCharsets[eci]
	return e, ok
}

// decodeText converts byte mode data in the character set of ECI
// assignment eci to UTF-8.  If eci is negative or unknown, the
// character set is guessed.
func decodeText(b []byte, eci int) (string, error) {
	var e encoding.Encoding
	ok := eci >= 0
	if ok {
		e, ok = ECICharset(uint32(eci))
	}
	if !ok {
		return guessText(b), nil
	}
	if e == unicode.UTF8 {
		if !utf8.Valid(b) {
			return "", fmt.Errorf("%w: invalid utf-8", ErrDataFormat)
		}
		return string(b), nil
	}
	s, err := e.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDataFormat, err)
	}
	return string(s), nil
}

// guessText converts byte mode data without ECI to UTF-8, trying
// UTF-8, Shift JIS and ISO 8859-1 in that order.
func guessText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	if isShiftJIS(b) {
		if s, err := japanese.ShiftJIS.NewDecoder().Bytes(b); err == nil &&
			!containsRuneError(s) {
			return string(s)
		}
	}
	s, _ := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return string(s)
}

func containsRuneError(b []byte) bool {
	for len(b) > 0 {
		r, n := utf8.DecodeRune(b)
		if r == utf8.RuneError {
			return true
		}
		b = b[n:]
	}
	return false
}

// isShiftJIS reports whether b is well-formed Shift JIS with at least
// one double byte character.
func isShiftJIS(b []byte) bool {
	double := false
	for i := 0; i < len(b); i++ {
		switch c := b[i]; {
		case c < 0x80 || 0xa1 <= c && c <= 0xdf:
		case 0x81 <= c && c <= 0x9f || 0xe0 <= c && c <= 0xfc:
			if i++; i == len(b) {
				return false
			}
			if t := b[i]; t < 0x40 || t == 0x7f || t > 0xfc {
				return false
			}
			double = true
		default:
			return false
		}
	}
	return double
}
