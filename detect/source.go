// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package detect locates QR codes in binarised images.

The Detector finds the three finder patterns, estimates the module
size and the symbol dimension, looks for the bottom right alignment
pattern and samples the module grid through a perspective transform.
*/
package detect // import "github.com/unixdj/qrcodec/detect"

import (
	"errors"
	"math"
)

// Source is a binarised image.
type Source interface {
	Width() int
	Height() int
	IsDark(x, y int) bool // x and y are within bounds
}

// Detection errors.
var (
	ErrNotFound = errors.New("qr: finder patterns not found")
	ErrGeometry = errors.New("qr: implausible symbol geometry")
)

// Point is a point in image coordinates.  Pixel (x, y) covers
// [x, x+1) × [y, y+1).
type Point struct {
	X, Y float64
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func distance2(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// crossProduct returns the z component of (c-b)×(a-b).
func crossProduct(a, b, c Point) float64 {
	return (c.X-b.X)*(a.Y-b.Y) - (c.Y-b.Y)*(a.X-b.X)
}

func round(x float64) int { return int(x + 0.5) }

// centerFromEnd returns the centre of the middle run of sc, the runs
// ending just before end.
func centerFromEnd(sc []int, end int) float64 {
	n := len(sc)
	c := float64(end)
	for i := n - 1; i > n/2; i-- {
		c -= float64(sc[i])
	}
	return c - float64(sc[n/2])/2
}

func sum(sc []int) int {
	n := 0
	for _, c := range sc {
		n += c
	}
	return n
}

// line returns a function reading the source along row y or column x,
// and the length of the line.
func line(src Source, x, y int, vertical bool) (func(int) bool, int) {
	if vertical {
		return func(i int) bool { return src.IsDark(x, i) }, src.Height()
	}
	return func(i int) bool { return src.IsDark(i, y) }, src.Width()
}
