// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// A Mode is a QR segment encoding mode.
type Mode int8

// Encoding modes.
const (
	Numeric      Mode = iota // numeric mode, ASCII-compatible text
	Alphanumeric             // alphanumeric mode, ASCII-compatible text
	Byte                     // byte mode, any data
	Kanji                    // kanji mode, UTF-8 text
	Hanzi                    // hanzi mode (GB 2312), UTF-8 text
	Latin1                   // byte mode, UTF-8 text encoded as ISO 8859-1
	ECI                      // eci mode, raw designator
	StructAppend             // structured append, raw segment
	FNC1First                // FNC1 in 1st position
	FNC1Second               // FNC1 in 2nd position, application indicator

	numModes
)

var modes = [numModes]struct {
	name      string
	indicator byte
	count     [3]byte // character count length by size class
}{
	Numeric:      {"numeric", 0x1, [3]byte{10, 12, 14}},
	Alphanumeric: {"alphanumeric", 0x2, [3]byte{9, 11, 13}},
	Byte:         {"byte", 0x4, [3]byte{8, 16, 16}},
	Kanji:        {"kanji", 0x8, [3]byte{8, 10, 12}},
	Hanzi:        {"hanzi", 0xd, [3]byte{8, 10, 12}},
	Latin1:       {"latin1", 0x4, [3]byte{8, 16, 16}},
	ECI:          {"eci", 0x7, [3]byte{}},
	StructAppend: {"structured append", 0x3, [3]byte{}},
	FNC1First:    {"fnc1 first", 0x5, [3]byte{}},
	FNC1Second:   {"fnc1 second", 0x9, [3]byte{}},
}

// hanziGB2312 is the hanzi mode subset indicator for GB 2312.
const hanziGB2312 = 1

// ModeFor returns the Mode of a decoded mode indicator.  Byte mode
// indicator yields Byte.
func ModeFor(indicator byte) (Mode, bool) {
	switch indicator {
	case 0x1:
		return Numeric, true
	case 0x2:
		return Alphanumeric, true
	case 0x3:
		return StructAppend, true
	case 0x4:
		return Byte, true
	case 0x5:
		return FNC1First, true
	case 0x7:
		return ECI, true
	case 0x8:
		return Kanji, true
	case 0x9:
		return FNC1Second, true
	case 0xd:
		return Hanzi, true
	}
	return 0, false
}

func (m Mode) valid() bool { return 0 <= m && m < numModes }

func (m Mode) String() string {
	if m.valid() {
		return modes[m].name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Indicator returns the 4 bit mode indicator.
func (m Mode) Indicator() byte { return modes[m].indicator }

// CountLength returns the length of the character count field in the
// given size class, 0 for modes without one.
func (m Mode) CountLength(class int) int { return int(modes[m].count[class]) }

// Raw reports whether m is a mode without text: ECI, StructAppend,
// FNC1First and FNC1Second.
func (m Mode) Raw() bool { return m >= ECI }

// Length returns the encoded length in bits of a segment of count
// characters in the given size class, including the header.
// Characters are bytes in Numeric, Alphanumeric, Byte and raw modes,
// and runes in Kanji, Hanzi and Latin1 modes.
func (m Mode) Length(count, class int) int {
	n := 4 + m.CountLength(class)
	switch m {
	case Numeric:
		n += (count*10 + 2) / 3
	case Alphanumeric:
		n += (count*11 + 1) / 2
	case Kanji:
		n += count * 13
	case Hanzi:
		n += 4 + count*13
	default:
		n += count * 8
	}
	return n
}

// Accepts reports whether the text mode m can encode the rune r.
func (m Mode) Accepts(r rune) bool {
	switch m {
	case Numeric:
		return '0' <= r && r <= '9'
	case Alphanumeric:
		return r < 0x80 && alphaIndex[r] >= 0
	case Byte:
		return true
	case Kanji:
		_, ok := kanjiRune(r)
		return ok
	case Hanzi:
		_, ok := hanziRune(r)
		return ok
	case Latin1:
		return r < 0x100
	}
	return false
}

// Valid reports whether s is valid for m.
func (m Mode) Valid(s string) bool {
	switch m {
	case Numeric, Alphanumeric:
		for i := 0; i < len(s); i++ {
			if !m.Accepts(rune(s[i])) {
				return false
			}
		}
		return true
	case Byte:
		return true
	case Kanji, Hanzi, Latin1:
		if !utf8.ValidString(s) {
			return false
		}
		for _, r := range s {
			if !m.Accepts(r) {
				return false
			}
		}
		return true
	case ECI:
		_, ok := ECIValue(s)
		return ok
	case StructAppend:
		return len(s) == 2 && s[0]>>4 <= s[0]&0xf
	case FNC1First:
		return s == ""
	case FNC1Second:
		return len(s) == 1
	}
	return false
}

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

var alphaIndex [0x80]int8

func init() {
	for i := range alphaIndex {
		alphaIndex[i] = int8(strings.IndexByte(alphabet, byte(i)))
	}
}

// encodeRune returns the double byte encoding of r in e.
func encodeRune(e encoding.Encoding, r rune) (uint16, bool) {
	var src [utf8.UTFMax]byte
	var dst [8]byte
	n := utf8.EncodeRune(src[:], r)
	ndst, _, err := e.NewEncoder().Transform(dst[:], src[:n], true)
	if err != nil || ndst != 2 {
		return 0, false
	}
	return uint16(dst[0])<<8 | uint16(dst[1]), true
}

// kanjiValue returns the 13 bit kanji mode value of a Shift JIS
// character.
func kanjiValue(c uint16) (uint32, bool) {
	if lo := c & 0xff; lo < 0x40 || lo == 0x7f || lo > 0xfc {
		return 0, false
	}
	switch {
	case 0x8140 <= c && c <= 0x9ffc:
		c -= 0x8140
	case 0xe040 <= c && c <= 0xebbf:
		c -= 0xc140
	default:
		return 0, false
	}
	return uint32(c>>8)*0xc0 + uint32(c&0xff), true
}

// kanjiChar is the inverse of kanjiValue.
func kanjiChar(v uint32) (uint16, bool) {
	c := uint16(v/0xc0)<<8 | uint16(v%0xc0)
	if c < 0x1f00 {
		c += 0x8140
	} else {
		c += 0xc140
	}
	if w, ok := kanjiValue(c); !ok || w != v {
		return 0, false
	}
	return c, true
}

func kanjiRune(r rune) (uint32, bool) {
	c, ok := encodeRune(japanese.ShiftJIS, r)
	if !ok {
		return 0, false
	}
	return kanjiValue(c)
}

// hanziValue returns the 13 bit hanzi mode value of a GB 2312
// character.
func hanziValue(c uint16) (uint32, bool) {
	if lo := c & 0xff; lo < 0xa1 || lo > 0xfe {
		return 0, false
	}
	switch {
	case 0xa1a1 <= c && c <= 0xaafe:
		c -= 0xa1a1
	case 0xb0a1 <= c && c <= 0xfafe:
		c -= 0xa6a1
	default:
		return 0, false
	}
	return uint32(c>>8)*0x60 + uint32(c&0xff), true
}

// hanziChar is the inverse of hanziValue.
func hanziChar(v uint32) (uint16, bool) {
	if v%0x60 > 0xfe-0xa1 {
		return 0, false
	}
	c := uint16(v/0x60)<<8 | uint16(v%0x60)
	if c < 0x0a00 {
		c += 0xa1a1
	} else {
		c += 0xa6a1
	}
	if w, ok := hanziValue(c); !ok || w != v {
		return 0, false
	}
	return c, true
}

func hanziRune(r rune) (uint32, bool) {
	c, ok := encodeRune(simplifiedchinese.GBK, r)
	if !ok {
		return 0, false
	}
	return hanziValue(c)
}

// ECIDesignator returns the ECI segment text for the assignment
// number eci.
func ECIDesignator(eci uint32) (string, error) {
	switch {
	case eci < 1<<7:
		return string([]byte{byte(eci)}), nil
	case eci < 1<<14:
		return string([]byte{0x80 | byte(eci>>8), byte(eci)}), nil
	case eci < 1e6:
		return string([]byte{0xc0 | byte(eci>>16), byte(eci >> 8), byte(eci)}), nil
	}
	return "", ErrECI
}

// ECIValue returns the assignment number of an ECI designator.
func ECIValue(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	var n int
	switch c := s[0]; {
	case c&0x80 == 0:
		n = 1
	case c&0xc0 == 0x80:
		n = 2
	case c&0xe0 == 0xc0:
		n = 3
	default:
		return 0, false
	}
	if len(s) != n {
		return 0, false
	}
	v := uint32(s[0]) & (0xff >> n)
	for i := 1; i < n; i++ {
		v = v<<8 | uint32(s[i])
	}
	return v, v < 1e6
}

// A Segment describes a QR code segment.
type Segment struct {
	Text string // data to encode
	Mode Mode   // encoding mode
}

// SegmentError represents an invalid Segment.
type SegmentError Segment

func (e SegmentError) Error() string {
	return fmt.Sprintf("qr: non-%s string %#q", e.Mode, e.Text)
}

func (e SegmentError) Is(target error) bool { return target == ErrEncoding }

// ModeError represents an invalid Mode.
type ModeError Mode

func (e ModeError) Error() string {
	return fmt.Sprintf("qr: invalid mode %d", int(e))
}

func (e ModeError) Is(target error) bool { return target == ErrEncoding }

// ModeIndicatorError represents an unknown mode indicator in a
// decoded bit stream.
type ModeIndicatorError byte

func (e ModeIndicatorError) Error() string {
	return fmt.Sprintf("qr: invalid mode indicator %#x", byte(e))
}

func (e ModeIndicatorError) Is(target error) bool { return target == ErrBitstream }

// IsValid reports whether seg is encodable.
func (seg Segment) IsValid() bool {
	return seg.Mode.valid() && seg.Mode.Valid(seg.Text)
}

// count returns the number of characters in seg, as defined under
// Mode.Length.
func (seg Segment) count() int {
	switch seg.Mode {
	case Kanji, Hanzi, Latin1:
		return utf8.RuneCountInString(seg.Text)
	}
	return len(seg.Text)
}

// EncodedLength returns the encoded length in bits of seg in the
// given QR version size class.  EncodedLength returns 0 if and only
// if the mode is invalid.  The segment is not validated.
func (seg Segment) EncodedLength(class int) int {
	if !seg.Mode.valid() {
		return 0
	}
	return seg.Mode.Length(seg.count(), class)
}

// Bytes returns the bytes seg carries in the symbol: Latin1 text in
// ISO 8859-1, kanji in Shift JIS and hanzi in GB 2312.
func (seg Segment) Bytes() ([]byte, error) {
	if !seg.IsValid() {
		return nil, SegmentError(seg)
	}
	switch seg.Mode {
	case Kanji, Hanzi:
		b := make([]byte, 0, len(seg.Text))
		for _, r := range seg.Text {
			c, _ := encodeRune(modeCharset(seg.Mode), r)
			b = append(b, byte(c>>8), byte(c))
		}
		return b, nil
	case Latin1:
		b := make([]byte, 0, len(seg.Text))
		for _, r := range seg.Text {
			b = append(b, byte(r))
		}
		return b, nil
	}
	return []byte(seg.Text), nil
}

func modeCharset(m Mode) encoding.Encoding {
	if m == Hanzi {
		return simplifiedchinese.GBK
	}
	return japanese.ShiftJIS
}

// Encode writes seg encoded for the given QR version size class to b.
// Nothing is written if seg is invalid.
func (seg Segment) Encode(b *Bits, class int) error {
	m, s := seg.Mode, seg.Text
	if !m.valid() {
		return ModeError(m)
	}
	if class < Class0 || class > Class2 {
		return ErrVersion
	}
	if !m.Valid(s) {
		return SegmentError(seg)
	}
	n := seg.count()
	if cl := m.CountLength(class); cl > 0 && n >= 1<<cl {
		return fmt.Errorf("%w: %d characters in %v segment", ErrCapacity, n, m)
	}

	// kanji and hanzi values, validated before writing
	var vals []uint32
	switch m {
	case Kanji:
		vals = make([]uint32, 0, n)
		for _, r := range s {
			v, _ := kanjiRune(r)
			vals = append(vals, v)
		}
	case Hanzi:
		vals = make([]uint32, 0, n)
		for _, r := range s {
			v, _ := hanziRune(r)
			vals = append(vals, v)
		}
	}

	b.Write(uint32(m.Indicator()), 4)
	if m == Hanzi {
		b.Write(hanziGB2312, 4)
	}
	if cl := m.CountLength(class); cl > 0 {
		b.Write(uint32(n), cl)
	}
	switch m {
	case Numeric:
		for ; len(s) >= 3; s = s[3:] {
			b.Write(uint32(s[0]-'0')*100+uint32(s[1]-'0')*10+uint32(s[2]-'0'), 10)
		}
		switch len(s) {
		case 2:
			b.Write(uint32(s[0]-'0')*10+uint32(s[1]-'0'), 7)
		case 1:
			b.Write(uint32(s[0]-'0'), 4)
		}
	case Alphanumeric:
		for ; len(s) >= 2; s = s[2:] {
			b.Write(uint32(alphaIndex[s[0]])*45+uint32(alphaIndex[s[1]]), 11)
		}
		if len(s) == 1 {
			b.Write(uint32(alphaIndex[s[0]]), 6)
		}
	case Kanji, Hanzi:
		for _, v := range vals {
			b.Write(v, 13)
		}
	case Latin1:
		for _, r := range s {
			b.Write(uint32(r), 8)
		}
	default:
		for i := 0; i < len(s); i++ {
			b.Write(uint32(s[i]), 8)
		}
	}
	return nil
}

// DecodeSegment reads the body of an m segment following its mode
// indicator from b, for the given QR version size class.  Text mode
// segments are returned as UTF-8 except for Byte, which is returned
// as is.
func (m Mode) DecodeSegment(b *Bits, class int) (Segment, error) {
	seg := Segment{Mode: m}
	if !m.valid() || m == Latin1 {
		return seg, ModeError(m)
	}
	if class < Class0 || class > Class2 {
		return seg, ErrVersion
	}
	switch m {
	case ECI:
		v, err := b.Read(8)
		if err != nil {
			return seg, err
		}
		buf := []byte{byte(v)}
		switch {
		case v&0x80 == 0:
		case v&0xc0 == 0x80:
			v, err = b.Read(8)
			buf = append(buf, byte(v))
		case v&0xe0 == 0xc0:
			v, err = b.Read(16)
			buf = append(buf, byte(v>>8), byte(v))
		default:
			return seg, fmt.Errorf("%w: eci designator %#x", ErrBitstream, buf[0])
		}
		if err != nil {
			return seg, err
		}
		seg.Text = string(buf)
		if _, ok := ECIValue(seg.Text); !ok {
			return seg, fmt.Errorf("%w: eci designator %x", ErrBitstream, buf)
		}
		return seg, nil
	case StructAppend:
		v, err := b.Read(16)
		if err != nil {
			return seg, err
		}
		seg.Text = string([]byte{byte(v >> 8), byte(v)})
		if !m.Valid(seg.Text) {
			return seg, fmt.Errorf("%w: structured append header %#04x", ErrBitstream, v)
		}
		return seg, nil
	case FNC1First:
		return seg, nil
	case FNC1Second:
		v, err := b.Read(8)
		seg.Text = string([]byte{byte(v)})
		return seg, err
	case Hanzi:
		subset, err := b.Read(4)
		if err != nil {
			return seg, err
		}
		if subset != hanziGB2312 {
			return seg, fmt.Errorf("%w: hanzi subset %d", ErrDataFormat, subset)
		}
	}

	count, err := b.Read(m.CountLength(class))
	if err != nil {
		return seg, err
	}
	n := int(count)
	switch m {
	case Numeric:
		buf := make([]byte, 0, n)
		for n > 0 {
			k, nbit := min(n, 3), [4]int{0, 4, 7, 10}[min(n, 3)]
			v, err := b.Read(nbit)
			if err != nil {
				return seg, err
			}
			if v >= [4]uint32{1, 10, 100, 1000}[k] {
				return seg, fmt.Errorf("%w: numeric value %d", ErrDataFormat, v)
			}
			buf = fmt.Appendf(buf, "%0*d", k, v)
			n -= k
		}
		seg.Text = string(buf)
	case Alphanumeric:
		buf := make([]byte, 0, n)
		for ; n >= 2; n -= 2 {
			v, err := b.Read(11)
			if err != nil {
				return seg, err
			}
			if v >= 45*45 {
				return seg, fmt.Errorf("%w: alphanumeric value %d", ErrDataFormat, v)
			}
			buf = append(buf, alphabet[v/45], alphabet[v%45])
		}
		if n == 1 {
			v, err := b.Read(6)
			if err != nil {
				return seg, err
			}
			if v >= 45 {
				return seg, fmt.Errorf("%w: alphanumeric value %d", ErrDataFormat, v)
			}
			buf = append(buf, alphabet[v])
		}
		seg.Text = string(buf)
	case Byte:
		if b.Available() < n*8 {
			return seg, ErrUnderflow
		}
		buf := make([]byte, n)
		for i := range buf {
			v, _ := b.Read(8)
			buf[i] = byte(v)
		}
		seg.Text = string(buf)
	case Kanji, Hanzi:
		buf := make([]byte, 0, n*2)
		for ; n > 0; n-- {
			v, err := b.Read(13)
			if err != nil {
				return seg, err
			}
			var c uint16
			var ok bool
			if m == Kanji {
				c, ok = kanjiChar(v)
			} else {
				c, ok = hanziChar(v)
			}
			if !ok {
				return seg, fmt.Errorf("%w: %v value %#x", ErrDataFormat, m, v)
			}
			buf = append(buf, byte(c>>8), byte(c))
		}
		text, err := modeCharset(m).NewDecoder().Bytes(buf)
		if err != nil {
			return seg, fmt.Errorf("%w: %v", ErrDataFormat, err)
		}
		seg.Text = string(text)
	}
	return seg, nil
}
