// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"sync"

	"github.com/unixdj/qrcodec/gf256"
)

// A Plan describes how to construct a QR code
// with a specific version and level.
type Plan struct {
	Version Version // QR code version
	Level   Level   // QR error correction Level

	DataBits int // number of data bits
	Size     int // number of pixels on a side

	Map     []byte    // pixel map: 0 is data or checksum, 1 is other
	Pattern [8][]byte // function patterns, format and mask per mask
}

// NewPlan returns a Plan for a QR code with the given version and
// level.  The Plan is a copy the caller may modify.
func NewPlan(version Version, level Level) (*Plan, error) {
	pp, err := makePlan(version, level)
	if err != nil {
		return nil, err
	}
	p := *pp
	n := len(pp.Map)
	buf := make([]byte, n*(1+len(p.Pattern)))
	p.Map = buf[:n:n]
	copy(p.Map, pp.Map)
	for i := range p.Pattern {
		p.Pattern[i] = buf[n*(i+1) : n*(i+2) : n*(i+2)]
		copy(p.Pattern[i], pp.Pattern[i])
	}
	return &p, nil
}

// Pre-allocated Plans.  A Plan is created the first time a
// combination of version and level is used and never modified
// afterwards.  Each plan carries a bitmap the size of 9 Code bitmaps,
// from 567 bytes for version 1 to 36 KB for version 40.
var plans [MaxVersion + 1][H + 1]struct {
	once sync.Once
	p    *Plan
}

// makePlan returns plans[version][level].
// If it doesn't exist, it is created.
func makePlan(version Version, level Level) (*Plan, error) {
	if !version.Valid() {
		return nil, ErrVersion
	}
	if !level.Valid() {
		return nil, ErrLevel
	}
	p := &plans[version][level]
	p.once.Do(func() { p.p = vplan(version, level) })
	return p.p, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// formatPos returns the positions of format bit i, counting from the
// least significant, in the two copies of format information.
func formatPos(i, siz int) (x1, y1, x2, y2 int) {
	switch {
	case i < 6:
		x1, y1 = 8, i
	case i < 8:
		x1, y1 = 8, i+1 // skip timing row
	case i == 8:
		x1, y1 = 7, 8
	default:
		x1, y1 = 14-i, 8
	}
	if i < 8 {
		x2, y2 = siz-1-i, 8
	} else {
		x2, y2 = 8, siz-15+i
	}
	return
}

// vplan builds the plan for version v and level l: function patterns
// in Map and, for each mask, the function patterns, format
// information and mask bits in Pattern.
func vplan(v Version, l Level) *Plan {
	siz := v.Size()
	stride := (siz + 7) >> 3
	n := siz * stride
	buf := make([]byte, n*9)
	p := &Plan{
		Version:  v,
		Level:    l,
		DataBits: v.DataBits(l),
		Size:     siz,
		Map:      buf[:n:n],
	}
	for i := range p.Pattern {
		p.Pattern[i] = buf[n*(i+1) : n*(i+2) : n*(i+2)]
	}
	pat := p.Pattern[0]
	set := func(x, y int, black bool) {
		off, bit := y*stride+x>>3, byte(0x80)>>(x&7)
		p.Map[off] |= bit
		if black {
			pat[off] |= bit
		} else {
			pat[off] &^= bit
		}
	}

	// timing
	for i := 8; i < siz-8; i++ {
		set(i, 6, i&1 == 0)
		set(6, i, i&1 == 0)
	}

	// finder patterns and separators
	for _, o := range [3][2]int{{0, 0}, {siz - 7, 0}, {0, siz - 7}} {
		for dy := -1; dy <= 7; dy++ {
			for dx := -1; dx <= 7; dx++ {
				x, y := o[0]+dx, o[1]+dy
				if x < 0 || x >= siz || y < 0 || y >= siz {
					continue
				}
				d := max(abs(dx-3), abs(dy-3))
				set(x, y, d != 2 && d != 4)
			}
		}
	}

	// alignment patterns
	apos := v.Alignment()
	last := siz - 7
	for _, cy := range apos {
		for _, cx := range apos {
			if cx == 6 && (cy == 6 || cy == last) || cy == 6 && cx == last {
				continue
			}
			for dy := -2; dy <= 2; dy++ {
				for dx := -2; dx <= 2; dx++ {
					set(cx+dx, cy+dy, max(abs(dx), abs(dy)) != 1)
				}
			}
		}
	}

	// format information, filled in per mask below
	for i := 0; i < 15; i++ {
		x1, y1, x2, y2 := formatPos(i, siz)
		set(x1, y1, false)
		set(x2, y2, false)
	}
	set(8, siz-8, true) // dark module

	// version information
	if pv := vtab[v].pattern; pv != 0 {
		for k := 0; k < 18; k++ {
			black := pv>>k&1 != 0
			set(k/3, siz-11+k%3, black)
			set(siz-11+k%3, k/3, black)
		}
	}

	for _, pm := range p.Pattern[1:] {
		copy(pm, pat)
	}
	for m, pm := range p.Pattern {
		for y := 0; y < siz; y++ {
			for x := 0; x < siz; x++ {
				off, bit := y*stride+x>>3, byte(0x80)>>(x&7)
				if p.Map[off]&bit == 0 && Mask(m).Black(x, y) {
					pm[off] |= bit
				}
			}
		}
		fb := ftab[l][m]
		for i := 0; i < 15; i++ {
			if fb>>i&1 == 0 {
				continue
			}
			x1, y1, x2, y2 := formatPos(i, siz)
			pm[y1*stride+x1>>3] |= 0x80 >> (x1 & 7)
			pm[y2*stride+x2>>3] |= 0x80 >> (x2 & 7)
		}
	}
	return p
}

// scan calls f with the bitmap offset and bit of each data module in
// zigzag placement order: column pairs from the right, alternately
// upwards and downwards, skipping the vertical timing column.
func (p *Plan) scan(f func(off int, bit byte)) {
	siz := p.Size
	stride := (siz + 7) >> 3
	for right := siz - 1; right >= 1; right -= 2 {
		if right == 6 {
			right = 5
		}
		upward := (right+1)&2 == 0
		for vert := 0; vert < siz; vert++ {
			y := vert
			if upward {
				y = siz - 1 - vert
			}
			for x := right; x >= right-1; x-- {
				off, bit := y*stride+x>>3, byte(0x80)>>(x&7)
				if p.Map[off]&bit == 0 {
					f(off, bit)
				}
			}
		}
	}
}

// place returns an unmasked bitmap with codewords cw in the data
// modules.  Remainder modules are white.
func (p *Plan) place(cw []byte) []byte {
	bm := make([]byte, len(p.Map))
	i, n := 0, len(cw)*8
	p.scan(func(off int, bit byte) {
		if i < n && cw[i>>3]&(0x80>>(i&7)) != 0 {
			bm[off] |= bit
		}
		i++
	})
	return bm
}

// read returns the codewords in the data modules of c unmasked with
// mask m.
func (p *Plan) read(c *Code, m Mask) []byte {
	pat := p.Pattern[m]
	cw := make([]byte, p.Version.Codewords())
	i, n := 0, len(cw)*8
	p.scan(func(off int, bit byte) {
		if i < n && (c.Bitmap[off]^pat[off])&bit != 0 {
			cw[i>>3] |= 0x80 >> (i & 7)
		}
		i++
	})
	return cw
}

// codewords returns the data bits in b followed by terminator,
// padding and error correction, with blocks interleaved.
func (p *Plan) codewords(b *Bits) []byte {
	v, l := p.Version, p.Level
	nd := v.DataBytes(l)
	data := make([]byte, nd)
	copy(data, b.Bytes())
	// terminator of up to 4 bits and zero bits to a byte boundary
	// are already in place; pad with alternating codewords
	for i, pad := (min(b.Bits()+4, nd*8)+7)>>3, byte(0xec); i < nd; i++ {
		data[i] = pad
		pad ^= 0xec ^ 0x11
	}

	nblock, check := v.Blocks(l)
	ecc := make([]byte, nblock*check)
	rs := gf256.NewRSEncoder(Field, check)
	db := nd / nblock
	short := nblock - nd%nblock
	for i, off := 0, 0; i < nblock; i++ {
		n := db
		if i >= short {
			n++
		}
		rs.ECC(data[off:off+n], ecc[i*check:(i+1)*check])
		off += n
	}

	cw := make([]byte, v.Codewords())
	interleave(cw[:nd], data, nblock)
	interleave(cw[nd:], ecc, nblock)
	return cw
}

// correct de-interleaves codewords cw and corrects each error
// correction block, returning the data codewords and the number of
// corrected codewords.
func (p *Plan) correct(cw []byte) ([]byte, int, error) {
	v, l := p.Version, p.Level
	nd := v.DataBytes(l)
	nblock, check := v.Blocks(l)
	data := make([]byte, nd)
	ecc := make([]byte, nblock*check)
	deinterleave(data, cw[:nd], nblock)
	deinterleave(ecc, cw[nd:], nblock)

	rs := gf256.NewRSDecoder(Field, check)
	db := nd / nblock
	short := nblock - nd%nblock
	block := make([]byte, 0, db+1+check)
	total := 0
	for i, off := 0, 0; i < nblock; i++ {
		n := db
		if i >= short {
			n++
		}
		block = append(block[:0], data[off:off+n]...)
		block = append(block, ecc[i*check:(i+1)*check]...)
		k, err := rs.Correct(block)
		if err != nil {
			return nil, 0, &BlockError{Block: i, Err: err}
		}
		copy(data[off:off+n], block)
		off += n
		total += k
	}
	return data, total, nil
}

// interleave interleaves nblock blocks from src to dst, which must be
// of equal length.  Blocks are consecutive in src, shorter blocks
// first, differing in length by at most one.
func interleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	extra := dst[db*nblock:]
	normal := nblock - len(extra)
	for i := 0; i < nblock; i++ {
		for j, v := range src[:db] {
			dst[j*nblock+i] = v
		}
		src = src[db:]
		if i >= normal {
			extra[i-normal] = src[0]
			src = src[1:]
		}
	}
}

// deinterleave is the inverse of interleave.
func deinterleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	extra := src[db*nblock:]
	normal := nblock - len(extra)
	for i := 0; i < nblock; i++ {
		for j := range dst[:db] {
			dst[j] = src[j*nblock+i]
		}
		dst = dst[db:]
		if i >= normal {
			dst[0] = extra[i-normal]
			dst = dst[1:]
		}
	}
}

// Encoder encodes a QR code.
type Encoder struct {
	p *Plan
	b *Bits
}

func newEncoder(p *Plan) *Encoder {
	return &Encoder{p: p, b: NewBits(p.Version, p.Level)}
}

// NewEncoder returns an Encoder for the given version and level.
func NewEncoder(version Version, level Level) (*Encoder, error) {
	p, err := makePlan(version, level)
	if err != nil {
		return nil, err
	}
	return newEncoder(p), nil
}

// Write adds text to e.  If a segment is invalid, segments before it
// remain written.
func (e *Encoder) Write(text ...Segment) error {
	class := e.p.Version.SizeClass()
	for _, t := range text {
		if err := t.Encode(e.b, class); err != nil {
			return err
		}
	}
	return nil
}

// Bits returns the number of data bits written to e.
func (e *Encoder) Bits() int { return e.b.Bits() }

func (e *Encoder) Reset() { e.b.Reset() }

// xor xors a and b into dst.  a and b may not be shorter than dst.
func xor(dst, a, b []byte) {
	a = a[:len(dst)]
	b = b[:len(dst)]
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// Code returns a QR code containing data written to e, masked with
// the lowest penalty mask.  Ties go to the lower mask number.
func (e *Encoder) Code() (*Code, error) {
	p := e.p
	if e.b.Bits() > p.DataBits {
		return nil, &CapacityError{
			Bits:     e.b.Bits(),
			Capacity: p.DataBits,
			Version:  p.Version,
			Level:    p.Level,
		}
	}
	data := p.place(p.codewords(e.b))

	c := &Code{
		Bitmap:  make([]byte, len(data)),
		Size:    p.Size,
		Stride:  (p.Size + 7) >> 3,
		Version: p.Version,
		Level:   p.Level,
	}
	best := make([]byte, len(data)) // best bitmap so far
	pen := 1 << 30
	for m, pat := range p.Pattern {
		xor(c.Bitmap, data, pat)
		if pp := c.Penalty(); pp < pen {
			best, pen, c.Bitmap = c.Bitmap, pp, best
			c.Mask = Mask(m)
		}
	}
	c.Bitmap = best
	return c, nil
}

// CodeMask is like Code, but uses mask m.
func (e *Encoder) CodeMask(m Mask) (*Code, error) {
	if m < 0 || m > 7 {
		return nil, ErrRange
	}
	p := e.p
	if e.b.Bits() > p.DataBits {
		return nil, &CapacityError{e.b.Bits(), p.DataBits, p.Version, p.Level}
	}
	data := p.place(p.codewords(e.b))
	xor(data, data, p.Pattern[m])
	return &Code{
		Bitmap:  data,
		Size:    p.Size,
		Stride:  (p.Size + 7) >> 3,
		Version: p.Version,
		Level:   p.Level,
		Mask:    m,
	}, nil
}

// Encode is a wrapper around Write and Code.
func (e *Encoder) Encode(text ...Segment) (*Code, error) {
	if err := e.Write(text...); err != nil {
		return nil, err
	}
	return e.Code()
}

func (p *Plan) Encode(text ...Segment) (*Code, error) {
	return newEncoder(p).Encode(text...)
}

// Encode encodes segments into a QR code of the given version and
// level.
func Encode(version Version, level Level, text ...Segment) (*Code, error) {
	e, err := NewEncoder(version, level)
	if err != nil {
		return nil, err
	}
	return e.Encode(text...)
}
