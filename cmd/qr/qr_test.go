package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qr "github.com/unixdj/qrcodec"
	"github.com/unixdj/qrcodec/split"
)

func TestRGBA(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want rgba
	}{
		{"navy blue", rgba{0x00, 0x00, 0x80, 0xff}},
		{"f80", rgba{0xff, 0x88, 0x00, 0xff}},
		{"f808", rgba{0xff, 0x88, 0x00, 0x88}},
		{"123456", rgba{0x12, 0x34, 0x56, 0xff}},
		{"12345678", rgba{0x12, 0x34, 0x56, 0x78}},
	} {
		var c rgba
		require.NoError(t, c.Set(tc.in, nil), tc.in)
		assert.Equal(t, tc.want, c, tc.in)
	}
	var c rgba
	assert.Error(t, c.Set("12345", nil))
	assert.Error(t, c.Set("nocolour", nil))
	assert.Equal(t, "white", (&rgba{0xff, 0xff, 0xff, 0xff}).String())
	assert.Equal(t, "123456", (&rgba{0x12, 0x34, 0x56, 0xff}).String())
}

func TestRandr(t *testing.T) {
	c, err := qr.Encode("RANDR", qr.L)
	require.NoError(t, err)
	siz := c.Size

	f := randr(c, 0, [2]int{-1, 1})
	r := randr(c, 1, [2]int{-1, 1})
	rr := randr(r, 1, [2]int{-1, 1})
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			assert.Equal(t, c.Black(siz-1-x, y), f.Black(x, y), "flip")
			assert.Equal(t, c.Black(y, siz-1-x), r.Black(x, y), "rotate")
			assert.Equal(t, c.Black(siz-1-x, siz-1-y), rr.Black(x, y), "rotate twice")
		}
	}
	assert.Same(t, c, randr(c, 0, [2]int{1, 1}))

	// rotated and flipped images still decode
	res, err := qr.Decode(qr.NewImageSource(r.Image()))
	require.NoError(t, err)
	assert.Equal(t, "RANDR", res.Text)
	assert.False(t, res.Mirrored)
	res, err = qr.Decode(qr.NewImageSource(f.Image()))
	require.NoError(t, err)
	assert.Equal(t, "RANDR", res.Text)
	assert.True(t, res.Mirrored)
}

func TestASCII(t *testing.T) {
	c, err := qr.Encode("1", qr.L)
	require.NoError(t, err)
	c.Border = 1
	var b bytes.Buffer
	require.NoError(t, ascii(c, &b))
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	require.Len(t, lines, 23)
	assert.Equal(t, strings.Repeat(" ", 46), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  ##############  "), lines[1])
}

func TestEPS(t *testing.T) {
	c, err := qr.Encode("EPS", qr.M)
	require.NoError(t, err)
	var b bytes.Buffer
	require.NoError(t, eps(c, &b))
	s := b.String()
	assert.True(t, strings.HasPrefix(s, "%!PS-Adobe-2.0 EPSF-2.0\n%%Creator: "), s)
	assert.True(t, strings.HasSuffix(s, "\nstroke grestore\nend\n%%Trailer\n"), s)
	assert.Equal(t, c.Size, strings.Count(s, " r\n")+strings.Count(s, "\nr\n"))
}

func TestCharset(t *testing.T) {
	defer func(save bool) { g.nokanji = save }(g.nokanji)
	g.nokanji = true
	cs := charset()
	assert.Equal(t, split.Disabled, cs.Multi)
	assert.True(t, cs.Runes)
}

func TestDecodeFiles(t *testing.T) {
	dir := t.TempDir()
	text := strings.Repeat("0123456789abcdef", 4)
	codes, err := qr.EncodeTextMulti(text, split.UTF8, 0, 2, qr.M)
	require.NoError(t, err)
	require.Greater(t, len(codes), 1)
	var files []string
	for i, c := range codes {
		fn := filepath.Join(dir, "part"+string(rune('a'+i)))
		var b bytes.Buffer
		if i%2 == 0 {
			require.NoError(t, c.EncodePBM(&b))
		} else {
			require.NoError(t, png.Encode(&b, c.Image()))
		}
		require.NoError(t, os.WriteFile(fn, b.Bytes(), 0666))
		// out of order
		files = append([]string{fn}, files...)
	}

	single, err := qr.Encode("single", qr.H)
	require.NoError(t, err)
	sfn := filepath.Join(dir, "single.png")
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, single.Image()))
	require.NoError(t, os.WriteFile(sfn, b.Bytes(), 0666))
	files = append(files, sfn)

	var out bytes.Buffer
	require.NoError(t, decodeFiles(&out, files))
	assert.Equal(t, "single\n"+text+"\n", out.String())

	assert.Error(t, decodeFiles(&out, []string{filepath.Join(dir, "missing")}))
}
