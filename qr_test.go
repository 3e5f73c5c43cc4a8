// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/qrcodec/coding"
	"github.com/unixdj/qrcodec/detect"
	"github.com/unixdj/qrcodec/split"
)

func TestEncodeHelloWorld(t *testing.T) {
	c, err := Encode("HELLO WORLD", Q)
	require.NoError(t, err)
	assert.Equal(t, coding.Version(1), c.Version)
	assert.Equal(t, 21, c.Size)

	r, err := DecodeCode(c.Code)
	require.NoError(t, err)
	want := []coding.Segment{{Text: "HELLO WORLD", Mode: coding.Alphanumeric}}
	if diff := cmp.Diff(want, r.Segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "HELLO WORLD", r.Text)
	assert.False(t, r.Mirrored)
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode("determinism 12345", M)
	require.NoError(t, err)
	b, err := Encode("determinism 12345", M)
	require.NoError(t, err)
	assert.Equal(t, a.Bitmap, b.Bitmap)
	assert.Equal(t, a.Mask, b.Mask)
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(strings.Repeat("1", 7090), L)
	assert.ErrorIs(t, err, coding.ErrCapacity)
	_, err = EncodeText("x", split.UTF8, 0, 41, L)
	assert.ErrorIs(t, err, coding.ErrVersion)
	_, err = EncodeText("x", split.UTF8, 1000000, coding.Auto, L)
	assert.ErrorIs(t, err, coding.ErrEncoding)
}

func TestEncodeTextECI(t *testing.T) {
	c, err := EncodeText("Grüße", split.UTF8AsLatin1, Latin1ECI, coding.Auto, M)
	require.NoError(t, err)
	r, err := DecodeCode(c.Code)
	require.NoError(t, err)
	assert.Equal(t, Latin1ECI, r.ECI)
	assert.Equal(t, "Grüße", r.Text)
	assert.Equal(t, []byte("Gr\xfc\xdfe"), r.Data)
}

func decodeImage(t *testing.T, img image.Image) *coding.Result {
	t.Helper()
	r, err := Decode(NewImageSource(img))
	require.NoError(t, err)
	return r
}

func TestDecodeImage(t *testing.T) {
	for _, text := range []string{
		"HELLO WORLD",
		"https://example.com/qr?id=0123456789",
		strings.Repeat("The quick brown fox jumps over the lazy dog. ", 3),
	} {
		c, err := Encode(text, M)
		require.NoError(t, err)
		for _, scale := range []int{3, 8} {
			c.Scale = scale
			r := decodeImage(t, c.Image())
			assert.Equal(t, text, r.Text)
			assert.Equal(t, c.Version, r.Version)
			assert.Equal(t, M, r.Level)
			assert.Equal(t, c.Mask, r.Mask)
			assert.Zero(t, r.ErrorsCorrected)
			assert.False(t, r.Mirrored)
		}
	}
}

func TestDecodeRotated(t *testing.T) {
	c, err := Encode("ROTATED 90", H)
	require.NoError(t, err)
	for _, img := range []image.Image{
		imaging.Rotate90(c.Image()),
		imaging.Rotate180(c.Image()),
		imaging.Rotate270(c.Image()),
	} {
		r := decodeImage(t, img)
		assert.Equal(t, "ROTATED 90", r.Text)
		assert.False(t, r.Mirrored)
	}
}

func TestDecodeAngles(t *testing.T) {
	for _, v := range []coding.Version{2, 5, 10, 15, 20, 30} {
		text := fmt.Sprintf("VERSION %d AT AN ANGLE", v)
		c, err := EncodeText(text, split.UTF8, 0, v, M)
		require.NoError(t, err)
		require.Equal(t, v, c.Version)
		c.Scale = 6
		for _, angle := range []float64{-40, -25, -10, 10, 25, 40} {
			t.Run(fmt.Sprintf("%d/%g", v, angle), func(t *testing.T) {
				r := decodeImage(t, imaging.Rotate(c.Image(), angle, color.White))
				assert.Equal(t, text, r.Text)
				assert.Equal(t, v, r.Version)
				assert.False(t, r.Mirrored)
			})
		}
	}
}

func TestDecodeNarrow(t *testing.T) {
	c, err := Encode("NARROW", L)
	require.NoError(t, err)
	// rows are scanned 30 pixels apart, missing the finder patterns;
	// columns are scanned one by one
	w := (c.Size + 2*4) * 2
	b := NewBitmap(w, 7080)
	for y := 0; y < w; y++ {
		for x := 0; x < w; x++ {
			b.Set(x, y, c.Black(x/2-4, y/2-4))
		}
	}
	r, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "NARROW", r.Text)
	assert.False(t, r.Mirrored)
}

func TestOtsu(t *testing.T) {
	for _, tc := range []struct {
		name string
		hist map[int]int
		want uint8
	}{
		{"black and white", map[int]int{0: 600, 255: 400}, 127},
		{"greys", map[int]int{40: 10, 200: 90}, 119},
		{"dark cluster", map[int]int{10: 50, 20: 50, 230: 100}, 124},
		{"white", map[int]int{255: 100}, 0},
		{"black", map[int]int{0: 100}, 255},
	} {
		var hist [256]int
		for l, n := range tc.hist {
			hist[l] = n
		}
		assert.Equal(t, tc.want, otsu(&hist), tc.name)
	}
}

func TestImageSourceGrey(t *testing.T) {
	// dark grey modules on a light grey background
	c, err := Encode("GREY", M)
	require.NoError(t, err)
	src := c.Image()
	img := image.NewGray(src.Bounds())
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.Pix[img.PixOffset(x, y)] = 0xd0
			if color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y < 0x80 {
				img.Pix[img.PixOffset(x, y)] = 0x90
			}
		}
	}
	assert.Equal(t, "GREY", decodeImage(t, img).Text)
}

func TestDecodeMirrored(t *testing.T) {
	c, err := Encode("mirror, mirror", Q)
	require.NoError(t, err)
	r := decodeImage(t, imaging.Transpose(c.Image()))
	assert.Equal(t, "mirror, mirror", r.Text)
	assert.True(t, r.Mirrored)

	r, err = DecodeCode(c.Transpose())
	require.NoError(t, err)
	assert.True(t, r.Mirrored)
}

func TestDecodeReverse(t *testing.T) {
	c, err := Encode("REVERSE", L)
	require.NoError(t, err)
	c.Reverse = true
	// reversed images are inverted back before decoding
	img := imaging.Invert(c.Image())
	assert.Equal(t, "REVERSE", decodeImage(t, img).Text)
}

func TestDecodeNothing(t *testing.T) {
	_, err := Decode(NewBitmap(100, 100))
	assert.ErrorIs(t, err, ErrDetection)
	assert.ErrorIs(t, err, detect.ErrNotFound)
}

func TestPBM(t *testing.T) {
	c, err := Encode("PBM 0123", M)
	require.NoError(t, err)
	c.Scale = 3
	var buf bytes.Buffer
	require.NoError(t, c.EncodePBM(&buf))
	n := (c.Size + 2*DefaultBorder) * 3
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("P4\n87 87\n")), "%d", n)
	assert.Equal(t, len("P4\n87 87\n")+(n+7)/8*n, buf.Len())

	b, err := ReadPBM(&buf)
	require.NoError(t, err)
	assert.Equal(t, n, b.Width())
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			require.Equal(t, c.Black(x/3-4, y/3-4), b.IsDark(x, y), "(%d,%d)", x, y)
		}
	}
	r, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "PBM 0123", r.Text)
}

func TestReadPBMPlain(t *testing.T) {
	b, err := ReadPBM(strings.NewReader("P1\n# comment\n3 2\n1 0 1\n010\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, b.Width())
	assert.Equal(t, 2, b.Height())
	assert.Equal(t, []byte{0xa0, 0x40}, b.Bits)

	for _, s := range []string{"", "P2\n1 1\n", "P1\n0 1\n", "P1\n2 1\n1 2\n", "P4\n8 2\n\xff"} {
		_, err := ReadPBM(strings.NewReader(s))
		assert.ErrorIs(t, err, ErrPBM, "%q", s)
	}
}

func TestEncodePBMInvalid(t *testing.T) {
	c, err := Encode("1", L)
	require.NoError(t, err)
	c.Scale = 0
	assert.ErrorIs(t, c.EncodePBM(new(bytes.Buffer)), ErrArgs)
}

func TestString(t *testing.T) {
	c, err := Encode("HELLO WORLD", Q)
	require.NoError(t, err)
	c.Border = 0
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	require.Len(t, lines, 11)
	assert.True(t, strings.HasPrefix(lines[0], "█▀▀▀▀▀█"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "█▀▀▀▀▀█"), lines[0])
	// the last line holds the bottom row only
	assert.True(t, strings.HasPrefix(lines[10], "▀▀▀▀▀▀▀"), lines[10])

	c.Reverse = true
	lines = strings.Split(c.String(), "\n")
	assert.True(t, strings.HasPrefix(lines[0], " ▄▄▄▄▄ "), lines[0])
}

func TestJoin(t *testing.T) {
	text := strings.Repeat("abcdefghij", 4)
	codes, err := EncodeTextMulti(text, split.UTF8, 0, 1, L)
	require.NoError(t, err)
	require.Len(t, codes, 3)
	rs := make([]*coding.Result, len(codes))
	for i, c := range codes {
		rs[i], err = DecodeCode(c.Code)
		require.NoError(t, err)
		assert.Equal(t, coding.StructuredAppend{Seq: i, Total: 3, Parity: rs[0].StructuredAppend.Parity},
			rs[i].StructuredAppend)
	}
	s, err := Join(rs[2], rs[0], rs[1])
	require.NoError(t, err)
	assert.Equal(t, text, s)

	_, err = Join(rs[0], rs[1])
	assert.ErrorIs(t, err, ErrStructuredAppend)
	_, err = Join(rs[0], rs[1], rs[1])
	assert.ErrorIs(t, err, ErrStructuredAppend)
	_, err = Join()
	assert.ErrorIs(t, err, ErrStructuredAppend)

	bad := *rs[1]
	bad.Text = "x"
	bad.Segments = []coding.Segment{{Text: "x", Mode: coding.Byte}}
	_, err = Join(rs[0], &bad, rs[2])
	assert.ErrorIs(t, err, ErrStructuredAppend)
}

func TestJoinECI(t *testing.T) {
	text := strings.Repeat("Grüße aus 東京 ", 5)
	codes, err := EncodeTextMulti(text, split.UTF8, UTF8ECI, 3, M)
	require.NoError(t, err)
	rs := make([]*coding.Result, len(codes))
	for i, c := range codes {
		rs[i], err = DecodeCode(c.Code)
		require.NoError(t, err)
		assert.Equal(t, UTF8ECI, rs[i].ECI)
	}
	s, err := Join(rs...)
	require.NoError(t, err)
	assert.Equal(t, text, s)
}

func TestRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	ascii := gen.SliceOf(gen.RuneRange(' ', '~')).Map(func(r []rune) string {
		return string(r)
	})
	properties.Property("decode(encode(s)) == s", prop.ForAll(
		func(s string, level int) bool {
			c, err := Encode(s, Level(level))
			if err != nil {
				return false
			}
			r, err := DecodeCode(c.Code)
			return err == nil && r.Text == s && !r.Mirrored
		},
		gen.OneGenOf(ascii, gen.NumString(), gen.AlphaString()),
		gen.IntRange(int(L), int(H)),
	))
	properties.TestingRun(t)
}
