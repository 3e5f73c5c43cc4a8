// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package split splits strings into QR code segments.

Split chooses segment modes minimising the encoded length and the
smallest QR version fitting the result.  SplitMulti spreads text over
several structured append symbols.
*/
package split // import "github.com/unixdj/qrcodec/split"

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/unixdj/qrcodec/coding"
)

// QR error correction levels.
const (
	L = coding.L // 20% redundant
	M = coding.M // 38% redundant
	Q = coding.Q // 55% redundant
	H = coding.H // 65% redundant
)

/*
Predefined modes.

	Mode           QR segment mode       Character encoding
	Numeric        numeric               any ASCII-compatible encoding
	Alphanumeric   alphanumeric          any ASCII-compatible encoding
	Byte           byte                  any data
	Kanji          kanji                 UTF-8 input encoded as Shift JIS
	Hanzi          hanzi                 UTF-8 input encoded as GB 2312
	Latin1         byte                  UTF-8 input encoded as ISO 8859-1
	ECI            eci                   N/A
	StructAppend   structured append     N/A
	FNC1First      fnc1 first position   N/A
	FNC1Second     fnc1 second position  N/A

Disabled is used in Charset.
*/
const (
	Numeric      = coding.Numeric
	Alphanumeric = coding.Alphanumeric
	Byte         = coding.Byte
	Kanji        = coding.Kanji
	Hanzi        = coding.Hanzi
	Latin1       = coding.Latin1
	ECI          = coding.ECI
	StructAppend = coding.StructAppend
	FNC1First    = coding.FNC1First
	FNC1Second   = coding.FNC1Second
	Disabled     = coding.Mode(-1)
)

var (
	ErrLongHeader   = fmt.Errorf("%w: header too long", coding.ErrCapacity)
	ErrLongText     = fmt.Errorf("%w: text too long", coding.ErrCapacity)
	ErrNotEncodable = fmt.Errorf("%w: text not encodable in given modes", coding.ErrEncoding)
	ErrCharset      = errors.New("qr: invalid charset")
	ErrFNC1         = fmt.Errorf("%w: invalid application indicator", coding.ErrEncoding)
)

// A Data is data encodable in a QR code.
//
// Data is implemented by String, Segment and List.
type Data interface {
	// Split returns the segments for the given QR version size
	// class and their encoded length in bits.
	Split(class int) ([]coding.Segment, int, error)
}

// minVersion and maxVersion by size class.
var sizeClass = [3]struct{ min, max coding.Version }{
	{1, 9}, {10, 26}, {27, 40},
}

/*
Split returns segments and the QR code version for data at the given
error correction level.  If version is coding.Auto, the smallest
version fitting the data is chosen; otherwise Split returns a
*coding.CapacityError if the data does not fit.

Using String{Text: text} as data returns parameters for encoding bare
UTF-8 text.  The Text function constructs Data for common scenarios.
*/
func Split(data Data, version coding.Version, level coding.Level) ([]coding.Segment, coding.Version, error) {
	if !level.Valid() {
		return nil, 0, coding.ErrLevel
	}
	if version != coding.Auto {
		if !version.Valid() {
			return nil, 0, coding.ErrVersion
		}
		segs, bits, err := data.Split(version.SizeClass())
		if err != nil {
			return nil, 0, err
		}
		if c := version.DataBits(level); bits > c {
			return nil, 0, &coding.CapacityError{
				Bits: bits, Capacity: c, Version: version, Level: level,
			}
		}
		return segs, version, nil
	}

	var bits int
	for class, sc := range sizeClass {
		segs, n, err := data.Split(class)
		if err != nil {
			return nil, 0, err
		}
		bits = n
		if sc.max.DataBits(level) < bits {
			continue
		}
		// find the smallest version in the size class
		v, max := sc.min, sc.max
		for v < max {
			if mid := (v + max) / 2; mid.DataBits(level) < bits {
				v = mid + 1
			} else {
				max = mid
			}
		}
		return segs, v, nil
	}
	return nil, 0, &coding.CapacityError{
		Bits:     bits,
		Capacity: coding.MaxVersion.DataBits(level),
		Version:  coding.MaxVersion,
		Level:    level,
	}
}

// Segment describes a QR code segment.  It implements Data.
type Segment coding.Segment

// Split returns seg and its encoded length at the given QR version
// size class, or an error if seg is not encodable.
func (seg Segment) Split(class int) ([]coding.Segment, int, error) {
	cs := coding.Segment(seg)
	if !cs.IsValid() {
		return nil, 0, coding.SegmentError(seg)
	}
	return []coding.Segment{cs}, cs.EncodedLength(class), nil
}

// List is a slice of Data that implements Data.
type List []Data

func (l List) Split(class int) ([]coding.Segment, int, error) {
	var segs []coding.Segment
	var bits int
	for _, d := range l {
		s, n, err := d.Split(class)
		if err != nil {
			return nil, 0, err
		}
		segs = append(segs, s...)
		bits += n
	}
	return segs, bits, nil
}

// A Charset selects the modes String uses for encoding text.
//
// Byte is Byte or Latin1, Multi is Kanji, Hanzi or Disabled.  If
// Runes is false, text is any ASCII-compatible data and is split
// in bytes; Latin1, Kanji and Hanzi require Runes.  The zero Charset
// is UTF8.
type Charset struct {
	Byte  coding.Mode
	Multi coding.Mode
	Runes bool
}

// Predefined Charsets.
var (
	// UTF8 is the UTF-8 Charset with kanji mode.
	UTF8 = Charset{Byte: Byte, Multi: Kanji, Runes: true}

	// UTF8Hanzi is the UTF-8 Charset with hanzi mode.
	UTF8Hanzi = Charset{Byte: Byte, Multi: Hanzi, Runes: true}

	// UTF8AsLatin1 is a Charset for UTF-8 input encoding byte mode
	// segments as ISO 8859-1.
	UTF8AsLatin1 = Charset{Byte: Latin1, Multi: Kanji, Runes: true}

	// ASCIICompat is a Charset for ASCII-compatible eight bit
	// character encodings.
	ASCIICompat = Charset{Byte: Byte, Multi: Disabled}
)

func (c Charset) valid() bool {
	switch {
	case c.Byte != Byte && c.Byte != Latin1:
		return false
	case c.Multi != Kanji && c.Multi != Hanzi && c.Multi != Disabled:
		return false
	}
	return c.Runes || c.Byte == Byte && c.Multi == Disabled
}

// String describes a string to encode.  It implements Data.
//
// Text is split into numeric, alphanumeric, byte and kanji or hanzi
// mode segments to minimise the encoded length, as determined by
// Charset.
type String struct {
	Text    string
	Charset Charset
}

// Mode slots in a split, in order of preference for equal cost.
const (
	numSlot = iota
	alphaSlot
	multiSlot
	byteSlot
	numSlots
)

// unit is a character of a String: a byte, or a rune if the Charset
// has Runes set.
type unit struct {
	len   int  // length in bytes
	slots byte // bit n set if encodable in slot n
}

// units classifies the characters of s.
func (s String) units() ([]unit, [numSlots]coding.Mode, error) {
	c := s.Charset
	if c == (Charset{}) {
		c = UTF8
	}
	modes := [numSlots]coding.Mode{Numeric, Alphanumeric, c.Multi, c.Byte}
	if !c.valid() {
		return nil, modes, ErrCharset
	}
	u := make([]unit, 0, len(s.Text))
	for i := 0; i < len(s.Text); {
		r, sz := rune(s.Text[i]), 1
		if c.Runes {
			r, sz = utf8.DecodeRuneInString(s.Text[i:])
		}
		valid := sz > 1 || r < utf8.RuneSelf
		var m byte
		if Numeric.Accepts(r) {
			m |= 1 << numSlot
		}
		if Alphanumeric.Accepts(r) {
			m |= 1 << alphaSlot
		}
		if c.Multi != Disabled && valid && c.Multi.Accepts(r) {
			m |= 1 << multiSlot
		}
		if c.Byte == Byte || valid && Latin1.Accepts(r) {
			m |= 1 << byteSlot
		}
		if m == 0 {
			return nil, modes, fmt.Errorf("%w: %q at offset %d", ErrNotEncodable, r, i)
		}
		u = append(u, unit{sz, m})
		i += sz
	}
	return u, modes, nil
}

// Split splits s into segments with the smallest encoded length for
// the size class, within a rounding margin.
//
// Costs are kept in sixths of a bit, so that numeric (3⅓ bits per
// digit) and alphanumeric (5½ bits per character) are exact.  For
// each character and slot, the cheapest split of the prefix ending in
// a segment of that slot is extended from the previous character in
// the same slot, or from the other slots rounded up to whole bits
// plus a new segment header.
func (s String) Split(class int) ([]coding.Segment, int, error) {
	u, modes, err := s.units()
	if err != nil || len(u) == 0 {
		return nil, 0, err
	}
	const inf = 1 << 60
	var head, cost [numSlots]int
	for i, m := range modes {
		if m != Disabled {
			head[i] = m.Length(0, class) * 6
		}
		cost[i] = head[i]
	}
	// from[i][k] is the slot of character i-1 in the best split
	// with character i in slot k; -1 for none.
	from := make([][numSlots]int8, len(u))
	for i, ch := range u {
		var next [numSlots]int
		for k := range next {
			next[k] = inf
			from[i][k] = -1
			if ch.slots&(1<<k) == 0 {
				continue
			}
			var add int
			switch k {
			case numSlot:
				add = 20
			case alphaSlot:
				add = 33
			case multiSlot:
				add = 78
			case byteSlot:
				add = 48
				if modes[k] == Byte {
					add *= ch.len
				}
			}
			for j, c := range cost {
				if c >= inf {
					continue
				}
				if i == 0 && j != k {
					continue
				}
				if j != k {
					c = (c+5)/6*6 + head[k]
				}
				if c+add < next[k] {
					next[k] = c + add
					from[i][k] = int8(j)
				}
			}
		}
		cost = next
	}

	best := 0
	for k := range cost {
		if cost[k] < cost[best] {
			best = k
		}
	}
	slot := make([]int8, len(u))
	for i, k := len(u)-1, int8(best); i >= 0; i-- {
		slot[i] = k
		k = from[i][k]
	}

	var segs []coding.Segment
	bits, start, off := 0, 0, 0
	for i, ch := range u {
		off += ch.len
		if i+1 == len(u) || slot[i+1] != slot[i] {
			seg := coding.Segment{Text: s.Text[start:off], Mode: modes[slot[i]]}
			segs = append(segs, seg)
			bits += seg.EncodedLength(class)
			start = off
		}
	}
	return segs, bits, nil
}

// Extended Channel Interpretation assignment numbers.
const (
	Latin1ECI   = coding.ECIISO8859_1 // ISO 8859-1
	ShiftJISECI = coding.ECIShiftJIS  // Shift JIS
	UTF8ECI     = coding.ECIUTF8      // UTF-8
	BinaryECI   = 899                 // 8-bit binary data
)

// SetECI returns an ECI Mode Segment setting the Extended Channel
// Interpretation assignment number to eci.  It returns an empty List
// if eci is 0 and an error if it's 1000000 or greater.
func SetECI(eci uint32) (Data, error) {
	if eci == 0 {
		return List{}, nil
	}
	s, err := coding.ECIDesignator(eci)
	if err != nil {
		return nil, err
	}
	return Segment{Text: s, Mode: ECI}, nil
}

// MustSetECI is like SetECI but panics on error.
func MustSetECI(eci uint32) Data {
	d, err := SetECI(eci)
	if err != nil {
		panic(err)
	}
	return d
}

// Text returns a List containing an ECI Mode Segment and a String.
// If eci is 0, only the String is returned.  An invalid eci is
// reported when the List is split.
func Text(text string, c Charset, eci uint32) Data {
	var d Data = String{Text: text, Charset: c}
	if eci != 0 {
		seg, err := SetECI(eci)
		if err != nil {
			seg = Segment{Text: "\xff", Mode: ECI}
		}
		d = List{seg, d}
	}
	return d
}

// SetFNC1 returns an FNC1 Mode Segment.  If ai is empty, the segment
// marks GS1 data (FNC1 in the first position).  Otherwise ai is the
// application indicator, two digits or a single ASCII letter, and
// FNC1 is in the second position.
func SetFNC1(ai string) (Data, error) {
	switch {
	case ai == "":
		return Segment{Mode: FNC1First}, nil
	case len(ai) == 2 && Numeric.Valid(ai):
		return Segment{Text: string([]byte{(ai[0]-'0')*10 + ai[1] - '0'}), Mode: FNC1Second}, nil
	case len(ai) == 1 && ('a' <= ai[0] && ai[0] <= 'z' || 'A' <= ai[0] && ai[0] <= 'Z'):
		return Segment{Text: string([]byte{ai[0] + 100}), Mode: FNC1Second}, nil
	}
	return nil, ErrFNC1
}

// fnc1 is a Data with FNC1 escaping in alphanumeric segments.
type fnc1 struct {
	seg Data
	d   Data
}

func (f fnc1) Split(class int) ([]coding.Segment, int, error) {
	segs, _, err := List{f.seg, f.d}.Split(class)
	if err != nil {
		return nil, 0, err
	}
	bits := 0
	for i, seg := range segs {
		if seg.Mode == Alphanumeric {
			segs[i].Text = escapePercent(seg.Text)
		}
		bits += segs[i].EncodedLength(class)
	}
	return segs, bits, nil
}

func escapePercent(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			b = append(b, '%')
		}
		b = append(b, s[i])
	}
	return string(b)
}

// FNC1Text returns Data for text in an FNC1 symbol with the
// application indicator ai, as documented under SetFNC1.  "%" in
// alphanumeric segments is written as "%%", since a lone "%" stands
// for the GS1 separator.
func FNC1Text(text string, c Charset, ai string) (Data, error) {
	seg, err := SetFNC1(ai)
	if err != nil {
		return nil, err
	}
	return fnc1{seg, String{Text: text, Charset: c}}, nil
}

// parity returns the Structured Append Parity Data (xor of all bytes)
// for a text mode segment, or 0 for any other segment.
func parity(seg coding.Segment) (byte, error) {
	var par byte
	if seg.Mode.Raw() {
		return 0, nil
	}
	b, err := seg.Bytes()
	for _, c := range b {
		par ^= c
	}
	return par, err
}

// SplitMulti returns segments for text split across up to 16 QR codes
// ("Structured Append symbols") of the given version and error
// correction level, with header at the beginning of each code.
// header may be nil.
func SplitMulti(header Data, text String, ver coding.Version, level coding.Level) ([][]coding.Segment, error) {
	if !ver.Valid() {
		return nil, coding.ErrVersion
	}
	if !level.Valid() {
		return nil, coding.ErrLevel
	}
	const (
		maxCodes = 16      // maximum Structured Append Symbols
		sabits   = 4 + 2*8 // Structured Append Header bit size
	)
	if header == nil {
		header = List{}
	}
	class := ver.SizeClass()
	hsegs, hbits, err := header.Split(class)
	if err != nil {
		return nil, err
	}
	dsize := ver.DataBits(level) - sabits - hbits
	if dsize <= 0 {
		return nil, ErrLongHeader
	}
	u, _, err := text.units()
	if err != nil {
		return nil, err
	}

	// greedily take the longest prefix fitting each code
	var parts [][]coding.Segment
	for rest := text.Text; rest != "" || len(parts) == 0; {
		if len(parts) == maxCodes {
			return nil, ErrLongText
		}
		prefix := func(n int) int {
			off := 0
			for _, ch := range u[:n] {
				off += ch.len
			}
			return off
		}
		fit := func(n int) ([]coding.Segment, bool) {
			segs, bits, err := String{Text: rest[:prefix(n)], Charset: text.Charset}.Split(class)
			return segs, err == nil && bits <= dsize
		}
		b, e := 0, len(u)
		for b < e {
			mid := (b + e + 1) / 2
			if _, ok := fit(mid); ok {
				b = mid
			} else {
				e = mid - 1
			}
		}
		if b == 0 && rest != "" {
			return nil, ErrLongHeader
		}
		segs, _ := fit(b)
		parts = append(parts, segs)
		off := prefix(b)
		rest, u = rest[off:], u[b:]
	}

	var par byte
	for i := range parts {
		for _, seg := range hsegs {
			p, err := parity(seg)
			if err != nil {
				return nil, err
			}
			par ^= p
		}
		for _, seg := range parts[i] {
			p, err := parity(seg)
			if err != nil {
				return nil, err
			}
			par ^= p
		}
	}

	out := make([][]coding.Segment, len(parts))
	num := byte(len(parts) - 1)
	for i, p := range parts {
		segs := make([]coding.Segment, 0, 1+len(hsegs)+len(p))
		segs = append(segs, coding.Segment{
			Text: string([]byte{byte(i)<<4 | num, par}),
			Mode: StructAppend,
		})
		segs = append(segs, hsegs...)
		out[i] = append(segs, p...)
	}
	return out, nil
}
