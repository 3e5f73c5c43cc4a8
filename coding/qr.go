// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements low-level QR coding details: bit buffers,
// segment modes, version tables, symbol construction and masking, and
// decoding of a sampled module grid.
package coding // import "github.com/unixdj/qrcodec/coding"

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/unixdj/qrcodec/gf256"
)

// Error kinds.  Errors returned by this package match one of these
// with errors.Is.
var (
	ErrEncoding   = errors.New("qr: encoding error")
	ErrCapacity   = errors.New("qr: data too long")
	ErrBitstream  = errors.New("qr: malformed bit stream")
	ErrFormatInfo = errors.New("qr: unreadable format information")
)

var (
	ErrLevel      = fmt.Errorf("%w: invalid level", ErrEncoding)
	ErrVersion    = fmt.Errorf("%w: invalid version", ErrEncoding)
	ErrECI        = fmt.Errorf("%w: invalid eci number", ErrEncoding)
	ErrRange      = fmt.Errorf("%w: value out of range", ErrEncoding)
	ErrUnderflow  = fmt.Errorf("%w: bit buffer underflow", ErrBitstream)
	ErrDataFormat = fmt.Errorf("%w: undecodable text", ErrBitstream)
)

// Field is the field for QR error correction.
var Field = gf256.NewField(0x11d, 2)

// A Version represents a QR version.
// The version specifies the size of the QR code:
// a QR code with version v has 4v+17 pixels on a side.
// Versions run from 1 to 40: the larger the version, the more
// information the code can store.
type Version int

const (
	Auto       Version = 0  // chosen by the encoder
	MinVersion Version = 1  // Minimum QR version
	MaxVersion Version = 40 // Maximum QR version
)

func (v Version) String() string {
	if v == Auto {
		return "auto"
	}
	return strconv.Itoa(int(v))
}

// QR version size classes.  The size class determines the length of
// the character count field of data segments.
const (
	Class0 = iota // QR versions 1 to 9
	Class1        // QR versions 10 to 26
	Class2        // QR versions 27 to 40
)

// SizeClass returns the size class of v, as documented under Class0.
func (v Version) SizeClass() int {
	if v <= 9 {
		return Class0
	}
	if v <= 26 {
		return Class1
	}
	return Class2
}

// Valid reports whether v is a version between MinVersion and
// MaxVersion.
func (v Version) Valid() bool { return MinVersion <= v && v <= MaxVersion }

// Size returns the number of modules on a side of a version v code.
func (v Version) Size() int { return int(v)*4 + 17 }

// VersionForSize returns the version of a code with siz modules on a
// side.
func VersionForSize(siz int) (Version, bool) {
	v := Version((siz - 17) / 4)
	return v, v.Valid() && v.Size() == siz
}

// Codewords returns the total number of data and error correction
// codewords in a version v code.
func (v Version) Codewords() int { return vtab[v].bytes }

// Blocks returns the number of error correction blocks and the
// number of error correction codewords in each block.
func (v Version) Blocks(l Level) (nblock, check int) {
	lev := vtab[v].level[l]
	return lev.nblock, lev.check
}

// Alignment returns the centre coordinates of alignment patterns,
// both across and down.  It returns nil for version 1.
func (v Version) Alignment() []int { return vtab[v].align }

// DataBytes returns the number of data bytes that can be
// stored in a QR code with the given version and level.
func (v Version) DataBytes(l Level) int {
	vt := &vtab[v]
	lev := vt.level[l]
	return vt.bytes - lev.nblock*lev.check
}

// DataBits returns the number of data bits that can be
// stored in a QR code with the given version and level.
func (v Version) DataBits(l Level) int { return v.DataBytes(l) * 8 }

// A Level represents a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // 20% redundant
	M              // 38% redundant
	Q              // 55% redundant
	H              // 65% redundant
)

func (l Level) String() string {
	if L <= l && l <= H {
		return "LMQH"[l : l+1]
	}
	return strconv.Itoa(int(l))
}

// Valid reports whether l is one of L, M, Q and H.
func (l Level) Valid() bool { return L <= l && l <= H }

// A Mask is one of the eight QR data mask patterns.
type Mask int

// Black reports whether m inverts the module at column x, row y.
func (m Mask) Black(x, y int) bool {
	switch m {
	case 0:
		return (y+x)%2 == 0
	case 1:
		return y%2 == 0
	case 2:
		return x%3 == 0
	case 3:
		return (y+x)%3 == 0
	case 4:
		return (y/2+x/3)%2 == 0
	case 5:
		return y*x%2+y*x%3 == 0
	case 6:
		return (y*x%2+y*x%3)%2 == 0
	case 7:
		return ((y+x)%2+y*x%3)%2 == 0
	}
	return false
}

// Bits is a bit buffer with a write and a read cursor.
// The zero value is an empty buffer ready to use.
type Bits struct {
	b    []byte
	nbit int // write cursor
	rpos int // read cursor
}

// NewBits returns Bits with enough capacity for a QR code of the
// given version and level.
func NewBits(v Version, l Level) *Bits {
	return &Bits{b: make([]byte, 0, vtab[v].bytes)}
}

// FromBytes returns Bits for reading the bits of b.
func FromBytes(b []byte) *Bits {
	return &Bits{b: b, nbit: len(b) * 8}
}

func (b *Bits) Reset() {
	b.b = b.b[:0]
	b.nbit = 0
	b.rpos = 0
}

// Bits returns the number of bits written.
func (b *Bits) Bits() int { return b.nbit }

// Available returns the number of bits not yet read.
func (b *Bits) Available() int { return b.nbit - b.rpos }

// Bytes returns the written bits.  A fractional last byte is padded
// with zero bits.
func (b *Bits) Bytes() []byte { return b.b }

// Write appends the low nbit bits of v, most significant first.
// Higher bits of v are ignored.
func (b *Bits) Write(v uint32, nbit int) {
	v <<= 32 - nbit
	if rem := -b.nbit & 7; rem != 0 {
		b.b[len(b.b)-1] |= byte(v >> (32 - rem))
		if rem >= nbit {
			b.nbit += nbit
			return
		}
		b.nbit += rem
		nbit -= rem
		v <<= rem
	}
	for n := nbit; n > 0; n -= 8 {
		b.b = append(b.b, byte(v>>24))
		v <<= 8
	}
	b.nbit += nbit
}

// Put is like Write, but returns ErrRange if nbit is not between 1
// and 32 or v does not fit in nbit bits.
func (b *Bits) Put(v uint32, nbit int) error {
	if nbit < 1 || nbit > 32 || nbit < 32 && v>>nbit != 0 {
		return ErrRange
	}
	b.Write(v, nbit)
	return nil
}

// Read consumes nbit bits and returns them as an unsigned integer.
// It returns ErrUnderflow if fewer than nbit bits are available and
// ErrRange if nbit is not between 0 and 32.
func (b *Bits) Read(nbit int) (uint32, error) {
	if nbit < 0 || nbit > 32 {
		return 0, ErrRange
	}
	if b.Available() < nbit {
		return 0, ErrUnderflow
	}
	var v uint32
	for nbit > 0 {
		off := b.rpos & 7
		n := min(8-off, nbit)
		v = v<<n | uint32(b.b[b.rpos>>3])>>(8-off-n)&(1<<n-1)
		b.rpos += n
		nbit -= n
	}
	return v, nil
}

// A Code is a square pixel grid.  Codes returned by the encoder are
// not modified afterwards; a Code may be shared between goroutines.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row

	Version Version // 0 if unknown
	Level   Level
	Mask    Mask
}

// NewCode returns a Code with siz pixels on a side, with pixels set
// where black returns true.
func NewCode(siz int, black func(x, y int) bool) *Code {
	stride := (siz + 7) >> 3
	c := &Code{Bitmap: make([]byte, stride*siz), Size: siz, Stride: stride}
	if v, ok := VersionForSize(siz); ok {
		c.Version = v
	}
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			if black(x, y) {
				c.Bitmap[y*stride+x>>3] |= 0x80 >> (x & 7)
			}
		}
	}
	return c
}

// Black reports whether the pixel at (x, y) is black.
// Pixels outside the code are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x>>3]&(0x80>>(x&7)) != 0
}

// Transpose returns a copy of c mirrored along the main diagonal.
func (c *Code) Transpose() *Code {
	t := NewCode(c.Size, func(x, y int) bool { return c.Black(y, x) })
	t.Version, t.Level, t.Mask = c.Version, c.Level, c.Mask
	return t
}

// CapacityError is returned when data does not fit into a code.
type CapacityError struct {
	Bits     int // encoded data length
	Capacity int // data capacity of the code
	Version  Version
	Level    Level
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("qr: cannot encode %d bits into %d-bit %v-%v code",
		e.Bits, e.Capacity, e.Version, e.Level)
}

// Is matches ErrCapacity, and ErrEncoding when a larger version
// exists.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity ||
		target == ErrEncoding && e.Version < MaxVersion
}

// BlockError reports an uncorrectable error correction block.
type BlockError struct {
	Block int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("qr: block %d: %v", e.Block, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }
