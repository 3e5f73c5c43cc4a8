// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Image returns an Image displaying the code.
func (c *Code) Image() image.Image {
	return &codeImage{c}
}

// codeImage implements image.Image
type codeImage struct {
	*Code
}

var (
	whiteColor color.Color = color.Gray{0xFF}
	blackColor color.Color = color.Gray{0x00}
)

func (c *codeImage) Bounds() image.Rectangle {
	d := (c.Size + c.Border*2) * c.Scale
	return image.Rect(0, 0, d, d)
}

func (c *codeImage) At(x, y int) color.Color {
	if c.dark(x/c.Scale-c.Border, y/c.Scale-c.Border) {
		return blackColor
	}
	return whiteColor
}

func (c *codeImage) ColorModel() color.Model {
	return color.GrayModel
}

// halfBlocks[top][bottom] draws two vertically adjacent modules.
var halfBlocks = [2][2]string{{" ", "▄"}, {"▀", "█"}}

// String returns the code as lines of UTF-8 half block characters,
// two modules per character cell, dark modules drawn.
// Scale is ignored.
func (c *Code) String() string {
	if !c.isValid() {
		return ""
	}
	lo, hi := -c.Border, c.Size+c.Border
	var b strings.Builder
	b.Grow((hi - lo + 1) / 2 * ((hi-lo)*3 + 1))
	for y := lo; y < hi; y += 2 {
		for x := lo; x < hi; x++ {
			top := c.dark(x, y)
			bottom := y+1 < hi && c.dark(x, y+1)
			b.WriteString(halfBlocks[b2i(top)][b2i(bottom)])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Bitmap is a binarised image.  It implements Source.
type Bitmap struct {
	W, H   int
	Stride int    // number of bytes per row
	Bits   []byte // 1 is dark, most significant bit first
}

// NewBitmap returns a light w×h Bitmap.
func NewBitmap(w, h int) *Bitmap {
	stride := (w + 7) >> 3
	return &Bitmap{W: w, H: h, Stride: stride, Bits: make([]byte, stride*h)}
}

func (b *Bitmap) Width() int  { return b.W }
func (b *Bitmap) Height() int { return b.H }

// IsDark reports whether the pixel at (x, y) is dark.
func (b *Bitmap) IsDark(x, y int) bool {
	return b.Bits[y*b.Stride+x>>3]&(0x80>>(x&7)) != 0
}

// Set sets the pixel at (x, y).
func (b *Bitmap) Set(x, y int, dark bool) {
	if dark {
		b.Bits[y*b.Stride+x>>3] |= 0x80 >> (x & 7)
	} else {
		b.Bits[y*b.Stride+x>>3] &^= 0x80 >> (x & 7)
	}
}

// NewImageSource binarises img.  The threshold between dark and light
// is chosen by Otsu's method from the luminance histogram; transparent
// pixels are composed over white.
func NewImageSource(img image.Image) *Bitmap {
	gray := imaging.Grayscale(img)
	r := gray.Bounds()
	w, h := r.Dx(), r.Dy()
	b := NewBitmap(w, h)
	if w == 0 || h == 0 {
		return b
	}
	lum := make([]uint8, w*h)
	var hist [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := gray.PixOffset(r.Min.X+x, r.Min.Y+y)
			l, a := int(gray.Pix[i]), int(gray.Pix[i+3])
			l = (l*a + 0xff*(0xff-a)) / 0xff
			lum[y*w+x] = uint8(l)
			hist[l]++
		}
	}
	t := otsu(&hist)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if lum[y*w+x] <= t {
				b.Set(x, y, true)
			}
		}
	}
	return b
}

// otsu returns the luminance threshold maximising the variance between
// the classes at or below it and above it.  Of equal maxima the middle
// one is returned.
func otsu(hist *[256]int) uint8 {
	var n, sum float64
	for l, c := range hist {
		n += float64(c)
		sum += float64(l * c)
	}
	var (
		n0, sum0 float64
		best     = -1.0
		lo, hi   int
	)
	for t := 0; t < 255; t++ {
		n0 += float64(hist[t])
		sum0 += float64(t * hist[t])
		n1 := n - n0
		if n0 == 0 || n1 == 0 {
			continue
		}
		d := sum0/n0 - (sum-sum0)/n1
		v := n0 * n1 * d * d
		switch {
		case v > best:
			best, lo, hi = v, t, t
		case v == best:
			hi = t
		}
	}
	if best < 0 {
		// a single luminance: dark only if below mid grey
		for l, c := range hist {
			if c != 0 {
				if l < 0x80 {
					return 0xff
				}
				return 0
			}
		}
	}
	return uint8((lo + hi) / 2)
}
