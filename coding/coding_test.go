// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/qrcodec/gf256"
)

func TestBits(t *testing.T) {
	var b Bits
	require.NoError(t, b.Put(0b101, 3))
	require.NoError(t, b.Put(0x1234, 16))
	b.Write(0xffffffff, 1)
	assert.Equal(t, 20, b.Bits())
	assert.Equal(t, []byte{0xa2, 0x46, 0x90}, b.Bytes())
	assert.ErrorIs(t, b.Put(8, 3), ErrRange)
	assert.ErrorIs(t, b.Put(0, 33), ErrRange)
	assert.Equal(t, 20, b.Bits())

	v, err := b.Read(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), v)
	v, err = b.Read(16)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), v)
	assert.Equal(t, 1, b.Available())
	_, err = b.Read(2)
	assert.ErrorIs(t, err, ErrUnderflow)
	assert.ErrorIs(t, err, ErrBitstream)
	v, err = b.Read(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)

	b.Reset()
	assert.Zero(t, b.Bits())
	assert.Zero(t, b.Available())
}

func TestTables(t *testing.T) {
	assert.Equal(t, 26, Version(1).Codewords())
	assert.Equal(t, 3706, Version(40).Codewords())
	assert.Equal(t, 16, Version(1).DataBytes(M))
	assert.Equal(t, 2956, Version(40).DataBytes(L))
	nb, check := Version(5).Blocks(Q)
	assert.Equal(t, 4, nb)
	assert.Equal(t, 18, check)

	assert.Nil(t, Version(1).Alignment())
	assert.Equal(t, []int{6, 18}, Version(2).Alignment())
	assert.Equal(t, []int{6, 22, 38}, Version(7).Alignment())
	assert.Equal(t, []int{6, 34, 60, 86, 112, 138}, Version(32).Alignment())
	assert.Equal(t, []int{6, 30, 58, 86, 114, 142, 170}, Version(40).Alignment())

	assert.Equal(t, uint32(0x07c94), vtab[7].pattern)
	assert.Equal(t, uint32(0x085bc), vtab[8].pattern)
	assert.Equal(t, uint32(0x28c69), vtab[40].pattern)
	assert.Zero(t, vtab[6].pattern)

	assert.Equal(t, uint16(0x5412), ftab[M][0])
	assert.Equal(t, uint16(0x77c4), ftab[L][0])

	for v := MinVersion; v <= MaxVersion; v++ {
		siz := v.Size()
		got, ok := VersionForSize(siz)
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}
	_, ok := VersionForSize(22)
	assert.False(t, ok)
}

func TestMaskFormulas(t *testing.T) {
	// pixel (x, y) = (1, 0), i.e. row 0, column 1
	want := [8]bool{false, true, false, false, true, true, true, false}
	for m, w := range want {
		assert.Equal(t, w, Mask(m).Black(1, 0), "mask %d", m)
	}
	for m := Mask(0); m < 8; m++ {
		assert.True(t, m.Black(0, 0), "mask %d", m)
	}
}

func TestEncodedLength(t *testing.T) {
	for _, tt := range []struct {
		seg   Segment
		class int
		want  int
	}{
		{Segment{Text: "12345", Mode: Numeric}, Class0, 31},
		{Segment{Text: "HELLO WORLD", Mode: Alphanumeric}, Class0, 74},
		{Segment{Text: "HELLO WORLD", Mode: Alphanumeric}, Class2, 78},
		{Segment{Text: "hello", Mode: Byte}, Class1, 60},
		{Segment{Text: "点茗", Mode: Kanji}, Class0, 38},
		{Segment{Text: "中文", Mode: Hanzi}, Class0, 42},
		{Segment{Text: "café", Mode: Latin1}, Class0, 44},
		{Segment{Text: "\x1a", Mode: ECI}, Class0, 12},
		{Segment{Text: "", Mode: FNC1First}, Class2, 4},
		{Segment{Text: "ab", Mode: Mode(42)}, Class0, 0},
	} {
		assert.Equal(t, tt.want, tt.seg.EncodedLength(tt.class), "%+v", tt.seg)
	}
}

func TestValid(t *testing.T) {
	for _, tt := range []struct {
		seg  Segment
		want bool
	}{
		{Segment{Text: "0123456789", Mode: Numeric}, true},
		{Segment{Text: "12a", Mode: Numeric}, false},
		{Segment{Text: "HTTP://X.ORG/$%*+-", Mode: Alphanumeric}, true},
		{Segment{Text: "http", Mode: Alphanumeric}, false},
		{Segment{Text: "\xff\x00", Mode: Byte}, true},
		{Segment{Text: "点茗", Mode: Kanji}, true},
		{Segment{Text: "点a", Mode: Kanji}, false},
		{Segment{Text: "中文", Mode: Hanzi}, true},
		{Segment{Text: "ｱ", Mode: Kanji}, false}, // single byte in Shift JIS
		{Segment{Text: "café", Mode: Latin1}, true},
		{Segment{Text: "€", Mode: Latin1}, false},
		{Segment{Text: "\xe9", Mode: Latin1}, false},
		{Segment{Text: "\x03", Mode: ECI}, true},
		{Segment{Text: "\x83\xe8", Mode: ECI}, true},
		{Segment{Text: "\x83", Mode: ECI}, false},
		{Segment{Text: "\x12\x00", Mode: StructAppend}, true},
		{Segment{Text: "\x21\x00", Mode: StructAppend}, false},
		{Segment{Text: "", Mode: FNC1First}, true},
		{Segment{Text: "%", Mode: FNC1Second}, true},
		{Segment{Text: "x", Mode: Mode(-1)}, false},
	} {
		assert.Equal(t, tt.want, tt.seg.IsValid(), "%+v", tt.seg)
	}
}

func TestKanjiHanziValues(t *testing.T) {
	v, ok := kanjiRune('点') // 0x935f
	assert.True(t, ok)
	assert.Equal(t, uint32(0xd9f), v)
	v, ok = kanjiRune('茗') // 0xe4aa
	assert.True(t, ok)
	assert.Equal(t, uint32(0x1aaa), v)
	c, ok := kanjiChar(0x1aaa)
	assert.True(t, ok)
	assert.Equal(t, uint16(0xe4aa), c)
	_, ok = kanjiChar(0xbf) // second byte 0xff
	assert.False(t, ok)

	v, ok = hanziRune('啊') // 0xb0a1
	assert.True(t, ok)
	assert.Equal(t, uint32(960), v)
	v, ok = hanziRune('、') // 0xa1a2
	assert.True(t, ok)
	assert.Equal(t, uint32(1), v)
	c, ok = hanziChar(960)
	assert.True(t, ok)
	assert.Equal(t, uint16(0xb0a1), c)
	_, ok = hanziChar(0x5e) // second byte 0xff
	assert.False(t, ok)

	// every valid value maps back to itself
	for v := uint32(0); v < 1<<13; v++ {
		if c, ok := kanjiChar(v); ok {
			w, _ := kanjiValue(c)
			require.Equal(t, v, w)
		}
		if c, ok := hanziChar(v); ok {
			w, _ := hanziValue(c)
			require.Equal(t, v, w)
		}
	}
}

func TestECIDesignator(t *testing.T) {
	for _, tt := range []struct {
		eci  uint32
		want string
	}{
		{3, "\x03"},
		{127, "\x7f"},
		{128, "\x80\x80"},
		{1000, "\x83\xe8"},
		{16383, "\xbf\xff"},
		{100000, "\xc1\x86\xa0"},
		{999999, "\xcf\x42\x3f"},
	} {
		s, err := ECIDesignator(tt.eci)
		require.NoError(t, err)
		assert.Equal(t, tt.want, s)
		v, ok := ECIValue(s)
		assert.True(t, ok)
		assert.Equal(t, tt.eci, v)
	}
	_, err := ECIDesignator(1e6)
	assert.ErrorIs(t, err, ErrECI)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestHelloWorldCodewords(t *testing.T) {
	p, err := makePlan(1, M)
	require.NoError(t, err)
	b := NewBits(1, M)
	require.NoError(t, Segment{Text: "HELLO WORLD", Mode: Alphanumeric}.Encode(b, Class0))
	assert.Equal(t, 74, b.Bits())
	want := []byte{
		0x20, 0x5b, 0x0b, 0x78, 0xd1, 0x72, 0xdc, 0x4d,
		0x43, 0x40, 0xec, 0x11, 0xec, 0x11, 0xec, 0x11,
		0xc4, 0x23, 0x27, 0x77, 0xeb, 0xd7, 0xe7, 0xe2, 0x5d, 0x17,
	}
	assert.Equal(t, want, p.codewords(b))
}

func TestInterleave(t *testing.T) {
	// two blocks of 2 and two of 3
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	dst := make([]byte, len(src))
	interleave(dst, src, 4)
	assert.Equal(t, []byte{1, 3, 5, 8, 2, 4, 6, 9, 7, 10}, dst)
	back := make([]byte, len(src))
	deinterleave(back, dst, 4)
	assert.Equal(t, src, back)
}

// maxDigits returns the length of the longest numeric segment that
// fits into version v at level l.
func maxDigits(v Version, l Level) int {
	class := v.SizeClass()
	n := min(v.DataBits(l)*3/10, 1<<Numeric.CountLength(class)-1)
	for Numeric.Length(n, class) > v.DataBits(l) {
		n--
	}
	return n
}

func TestRoundTripAllVersions(t *testing.T) {
	digits := strings.Repeat("3141592653589793238462643383279502884197", 200)
	for v := MinVersion; v <= MaxVersion; v++ {
		for l := L; l <= H; l++ {
			text := digits[:maxDigits(v, l)]
			c, err := Encode(v, l, Segment{Text: text, Mode: Numeric})
			require.NoError(t, err, "%v-%v", v, l)
			assert.Equal(t, v.Size(), c.Size)
			r, err := Decode(c)
			require.NoError(t, err, "%v-%v", v, l)
			assert.Equal(t, text, r.Text, "%v-%v", v, l)
			assert.Equal(t, v, r.Version)
			assert.Equal(t, l, r.Level)
			assert.Equal(t, c.Mask, r.Mask)
			assert.Zero(t, r.ErrorsCorrected)
		}
	}
}

func TestCapacity(t *testing.T) {
	n := maxDigits(1, H)
	_, err := Encode(1, H, Segment{Text: strings.Repeat("7", n+1), Mode: Numeric})
	var ce *CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, Version(1).DataBits(H), ce.Capacity)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = Encode(40, L, Segment{Text: strings.Repeat("x", 2954), Mode: Byte})
	assert.ErrorIs(t, err, ErrCapacity)
	assert.False(t, errors.Is(err, ErrEncoding))

	_, err = Encode(41, L)
	assert.ErrorIs(t, err, ErrVersion)
	_, err = Encode(1, Level(4))
	assert.ErrorIs(t, err, ErrLevel)
	_, err = Encode(1, L, Segment{Text: "abc", Mode: Numeric})
	assert.ErrorIs(t, err, ErrEncoding)
	var se SegmentError
	assert.ErrorAs(t, err, &se)
}

func TestMixedRoundTrip(t *testing.T) {
	eci, err := ECIDesignator(ECIUTF8)
	require.NoError(t, err)
	segs := []Segment{
		{Text: "\x12\x5a", Mode: StructAppend},
		{Text: "0123456", Mode: Numeric},
		{Text: "ABC-", Mode: Alphanumeric},
		{Text: "点茗", Mode: Kanji},
		{Text: "中文", Mode: Hanzi},
		{Text: "café", Mode: Latin1},
		{Text: eci, Mode: ECI},
		{Text: "Grüße", Mode: Byte},
	}
	c, err := Encode(5, Q, segs...)
	require.NoError(t, err)
	r, err := Decode(c)
	require.NoError(t, err)
	assert.Equal(t, "0123456ABC-点茗中文caféGrüße", r.Text)
	assert.Equal(t, ECIUTF8, r.ECI)
	assert.Equal(t, StructuredAppend{Seq: 1, Total: 3, Parity: 0x5a}, r.StructuredAppend)
	require.Len(t, r.Segments, len(segs))
	assert.Equal(t, Byte, r.Segments[5].Mode)
	assert.Equal(t, "caf\xe9", r.Segments[5].Text)
	assert.Equal(t, segs[3], r.Segments[3])
	assert.Equal(t, segs[4], r.Segments[4])
}

func TestFNC1(t *testing.T) {
	assert.Equal(t, "01\x1d10%", FNC1Text("01%10%%"))
	assert.Equal(t, "ABC", FNC1Text("ABC"))

	c, err := Encode(2, M, Segment{Text: "", Mode: FNC1First}, Segment{Text: "01%10", Mode: Alphanumeric})
	require.NoError(t, err)
	r, err := Decode(c)
	require.NoError(t, err)
	assert.Equal(t, 1, r.FNC1)
	assert.Equal(t, "01\x1d10", r.Text)

	c, err = Encode(2, M, Segment{Text: "\x25", Mode: FNC1Second}, Segment{Text: "AB", Mode: Alphanumeric})
	require.NoError(t, err)
	r, err = Decode(c)
	require.NoError(t, err)
	assert.Equal(t, 2, r.FNC1)
	assert.Equal(t, byte(0x25), r.AppIndicator)
}

func TestMasks(t *testing.T) {
	e, err := NewEncoder(3, L)
	require.NoError(t, err)
	require.NoError(t, e.Write(Segment{Text: "MASK TEST 123", Mode: Alphanumeric}))
	c1, err := e.Code()
	require.NoError(t, err)
	c2, err := e.Code()
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	lowest := c1.Penalty()
	for m := Mask(0); m < 8; m++ {
		c, err := e.CodeMask(m)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, c.Penalty(), lowest)
		r, err := Decode(c)
		require.NoError(t, err)
		assert.Equal(t, m, r.Mask)
		assert.Equal(t, "MASK TEST 123", r.Text)
	}
	_, err = e.CodeMask(8)
	assert.ErrorIs(t, err, ErrRange)
}

// corruptCode returns a code with the first k codewords of every
// block of data replaced.
func corruptCode(t *testing.T, v Version, l Level, text string, k int) *Code {
	p, err := makePlan(v, l)
	require.NoError(t, err)
	b := NewBits(v, l)
	require.NoError(t, Segment{Text: text, Mode: Byte}.Encode(b, v.SizeClass()))
	cw := p.codewords(b)
	nblock, _ := v.Blocks(l)
	for i := range cw[:k*nblock] {
		cw[i] ^= 0x5a
	}
	bm := p.place(cw)
	xor(bm, bm, p.Pattern[3])
	return &Code{Bitmap: bm, Size: p.Size, Stride: (p.Size + 7) >> 3}
}

func TestErrorCorrection(t *testing.T) {
	const text = "error correction test"
	nblock, check := Version(5).Blocks(Q)

	r, err := Decode(corruptCode(t, 5, Q, text, check/2))
	require.NoError(t, err)
	assert.Equal(t, text, r.Text)
	assert.Equal(t, nblock*check/2, r.ErrorsCorrected)

	_, err = Decode(corruptCode(t, 5, Q, text, check/2+1))
	var be *BlockError
	require.ErrorAs(t, err, &be)
	assert.ErrorIs(t, err, gf256.ErrUncorrectable)
}

func TestFormatErrors(t *testing.T) {
	c, err := Encode(8, H, Segment{Text: "FORMAT", Mode: Alphanumeric})
	require.NoError(t, err)
	// three errors in the first copy of format information and in
	// the first copy of version information
	flip := func(x, y int) { c.Bitmap[y*c.Stride+x>>3] ^= 0x80 >> (x & 7) }
	flip(8, 0)
	flip(8, 1)
	flip(3, 8)
	flip(0, c.Size-11)
	flip(1, c.Size-10)
	flip(5, c.Size-9)
	r, err := Decode(c)
	require.NoError(t, err)
	assert.Equal(t, "FORMAT", r.Text)
	assert.Equal(t, H, r.Level)

	_, err = Decode(&Code{Bitmap: make([]byte, 22*3), Size: 22, Stride: 3})
	assert.ErrorIs(t, err, ErrFormatInfo)
}

func TestParseErrors(t *testing.T) {
	r := &Result{ECI: -1}
	err := r.parse(FromBytes([]byte{0x60}), Class0)
	assert.ErrorIs(t, err, ErrBitstream)
	var me ModeIndicatorError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, ModeIndicatorError(6), me)

	r = &Result{ECI: -1}
	err = r.parse(FromBytes([]byte{0x40, 0x50, 0x41}), Class0)
	assert.ErrorIs(t, err, ErrUnderflow)

	// numeric group of 3 digits with value 1000
	b := &Bits{}
	b.Write(1, 4)
	b.Write(3, 10)
	b.Write(1000, 10)
	r = &Result{ECI: -1}
	assert.ErrorIs(t, r.parse(b, Class0), ErrDataFormat)
}

func TestGuessText(t *testing.T) {
	assert.Equal(t, "Grüße", guessText([]byte("Grüße")))
	assert.Equal(t, "café", guessText([]byte("caf\xe9")))
	assert.Equal(t, "点茗", guessText([]byte{0x93, 0x5f, 0xe4, 0xaa}))

	s, err := decodeText([]byte{0x93, 0x5f}, ECIShiftJIS)
	require.NoError(t, err)
	assert.Equal(t, "点", s)
	_, err = decodeText([]byte{0xff}, ECIUTF8)
	assert.ErrorIs(t, err, ErrDataFormat)
	s, err = decodeText([]byte("caf\xe9"), 899)
	require.NoError(t, err)
	assert.Equal(t, "café", s)
	s, err = decodeText([]byte("caf\xe9"), 500)
	require.NoError(t, err)
	assert.Equal(t, "café", s)
}

func TestVersionFromInfo(t *testing.T) {
	for v := Version(7); v <= MaxVersion; v++ {
		pv := vtab[v].pattern
		got, ok := VersionFromInfo(pv, pv)
		assert.True(t, ok, "%d", v)
		assert.Equal(t, v, got)

		// three flipped bits in one copy, the other unreadable
		got, ok = VersionFromInfo(pv^0x10204, 0x3ffff^pv)
		assert.True(t, ok, "%d", v)
		assert.Equal(t, v, got)
		got, ok = VersionFromInfo(0, pv^0x00421)
		assert.True(t, ok, "%d", v)
		assert.Equal(t, v, got)
	}
	_, ok := VersionFromInfo(0, 0)
	assert.False(t, ok)
}

func TestTranspose(t *testing.T) {
	c, err := Encode(2, L, Segment{Text: "MIRROR", Mode: Alphanumeric})
	require.NoError(t, err)
	tc := c.Transpose()
	for y := 0; y < c.Size; y++ {
		for x := 0; x < c.Size; x++ {
			require.Equal(t, c.Black(x, y), tc.Black(y, x))
		}
	}
	assert.Equal(t, c, tc.Transpose())
}

func BenchmarkEncode(b *testing.B) {
	text := strings.Repeat("0123456789", 100)
	for i := 0; i < b.N; i++ {
		Encode(25, M, Segment{Text: text, Mode: Numeric})
	}
}
