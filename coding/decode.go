// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"math/bits"
	"strings"
)

// StructuredAppend is the structured append header of a symbol.
type StructuredAppend struct {
	Seq    int  // 0-based position of the symbol
	Total  int  // number of symbols, 0 if not structured append
	Parity byte // XOR of the data bytes of all symbols
}

// Result is a decoded QR code.
type Result struct {
	Version Version
	Level   Level
	Mask    Mask

	RawBytes []byte    // corrected data codewords
	Segments []Segment // decoded segments
	Text     string    // concatenated text in UTF-8
	Data     []byte    // concatenated segment data, byte mode undecoded

	ErrorsCorrected int // number of corrected codewords

	StructuredAppend StructuredAppend
	FNC1             int  // 1 or 2 if FNC1 is in the 1st or 2nd position
	AppIndicator     byte // FNC1 application indicator
	ECI              int  // first ECI assignment number, -1 if none

	Mirrored bool // the symbol was read transposed
}

// maxFormatDistance is the number of bit errors tolerated in format
// and version information.
const maxFormatDistance = 3

// readFormat returns the level and mask from the format information
// of c, whichever copy is closer to a valid code word.
func readFormat(c *Code) (Level, Mask, error) {
	var f1, f2 uint16
	for i := 0; i < 15; i++ {
		x1, y1, x2, y2 := formatPos(i, c.Size)
		if c.Black(x1, y1) {
			f1 |= 1 << i
		}
		if c.Black(x2, y2) {
			f2 |= 1 << i
		}
	}
	best, bl, bm := maxFormatDistance+1, L, Mask(0)
	for l := range ftab {
		for m, fb := range ftab[l] {
			d := min(bits.OnesCount16(f1^fb), bits.OnesCount16(f2^fb))
			if d < best {
				best, bl, bm = d, Level(l), Mask(m)
			}
		}
	}
	if best > maxFormatDistance {
		return 0, 0, fmt.Errorf("%w: format bits %#04x, %#04x", ErrFormatInfo, f1, f2)
	}
	return bl, bm, nil
}

// readVersion returns the version from the version information of c.
func readVersion(c *Code) (Version, error) {
	siz := c.Size
	var v1, v2 uint32
	for k := 0; k < 18; k++ {
		if c.Black(k/3, siz-11+k%3) {
			v1 |= 1 << k
		}
		if c.Black(siz-11+k%3, k/3) {
			v2 |= 1 << k
		}
	}
	v, ok := VersionFromInfo(v1, v2)
	if !ok {
		return 0, fmt.Errorf("%w: version bits %#05x, %#05x", ErrFormatInfo, v1, v2)
	}
	return v, nil
}

// VersionFromInfo returns the version whose 18-bit version information
// is closest to either of two read copies, bit k of the information
// being module k of the version block.  It fails if both copies have
// more than 3 bit errors.
func VersionFromInfo(v1, v2 uint32) (Version, bool) {
	best, bv := maxFormatDistance+1, Version(0)
	for v := Version(7); v <= MaxVersion; v++ {
		pv := vtab[v].pattern
		d := min(bits.OnesCount32(v1^pv), bits.OnesCount32(v2^pv))
		if d < best {
			best, bv = d, v
		}
	}
	return bv, best <= maxFormatDistance
}

// Decode decodes the sampled module grid c.  Only c.Bitmap, c.Size
// and c.Stride are used.
func Decode(c *Code) (*Result, error) {
	v, ok := VersionForSize(c.Size)
	if !ok || c.Stride != (c.Size+7)>>3 || len(c.Bitmap) < c.Size*c.Stride {
		return nil, fmt.Errorf("%w: %d pixel grid", ErrFormatInfo, c.Size)
	}
	l, m, err := readFormat(c)
	if err != nil {
		return nil, err
	}
	if v >= 7 {
		vv, err := readVersion(c)
		if err != nil {
			return nil, err
		}
		if vv != v {
			return nil, fmt.Errorf("%w: version %v in %d pixel grid",
				ErrFormatInfo, vv, c.Size)
		}
	}
	p, err := makePlan(v, l)
	if err != nil {
		return nil, err
	}
	data, n, err := p.correct(p.read(c, m))
	if err != nil {
		return nil, err
	}
	r := &Result{
		Version:         v,
		Level:           l,
		Mask:            m,
		RawBytes:        data,
		ErrorsCorrected: n,
		ECI:             -1,
	}
	if err := r.parse(FromBytes(data), v.SizeClass()); err != nil {
		return nil, err
	}
	return r, nil
}

// parse reads segments from b up to the terminator or the end of
// data.
func (r *Result) parse(b *Bits, class int) error {
	var text strings.Builder
	eci := -1
	for b.Available() >= 4 {
		ind, _ := b.Read(4)
		if ind == 0 {
			break
		}
		m, ok := ModeFor(byte(ind))
		if !ok {
			return ModeIndicatorError(ind)
		}
		seg, err := m.DecodeSegment(b, class)
		if err != nil {
			return err
		}
		r.Segments = append(r.Segments, seg)
		switch m {
		case ECI:
			v, _ := ECIValue(seg.Text)
			eci = int(v)
			if r.ECI < 0 {
				r.ECI = eci
			}
		case StructAppend:
			r.StructuredAppend = StructuredAppend{
				Seq:    int(seg.Text[0] >> 4),
				Total:  int(seg.Text[0]&0xf) + 1,
				Parity: seg.Text[1],
			}
		case FNC1First:
			r.FNC1 = 1
		case FNC1Second:
			r.FNC1 = 2
			r.AppIndicator = seg.Text[0]
		case Byte:
			s, err := decodeText([]byte(seg.Text), eci)
			if err != nil {
				return err
			}
			text.WriteString(s)
			r.Data = append(r.Data, seg.Text...)
		case Alphanumeric:
			if r.FNC1 != 0 {
				text.WriteString(FNC1Text(seg.Text))
			} else {
				text.WriteString(seg.Text)
			}
			r.Data = append(r.Data, seg.Text...)
		default:
			text.WriteString(seg.Text)
			r.Data = append(r.Data, seg.Text...)
		}
	}
	r.Text = text.String()
	return nil
}

// FNC1Text converts alphanumeric text of an FNC1 symbol: "%%" stands
// for "%" and a lone "%" for the GS1 separator, ASCII GS.
func FNC1Text(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
		} else if i+1 < len(s) && s[i+1] == '%' {
			b.WriteByte('%')
			i++
		} else {
			b.WriteByte(0x1d)
		}
	}
	return b.String()
}
