// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package detect

import (
	"fmt"
	"math"

	"github.com/unixdj/qrcodec/coding"
)

// Detection is a located QR code.
type Detection struct {
	TopLeft, TopRight, BottomLeft FinderPattern

	Alignment  *Point  // bottom right alignment pattern, nil if not used
	ModuleSize float64 // in pixels
	Version    coding.Version
	Transform  Transform // module grid to image
	Code       *coding.Code
}

// Detector detects a QR code in Source.
type Detector struct {
	Source Source
}

// Detect finds a QR code and samples its module grid.  Only Bitmap,
// Size, Stride and Version of the Code are set.
func (d *Detector) Detect() (*Detection, error) {
	src := d.Source
	f := finder{src: src}
	f.scan()
	tl, tr, bl, err := f.best()
	if err != nil {
		return nil, err
	}
	if err := checkGeometry(tl.Point, tr.Point, bl.Point); err != nil {
		return nil, err
	}
	ms := d.moduleSize(tl.Point, tr.Point, bl.Point)
	if ms < 1 || math.IsNaN(ms) {
		ms = (tl.ModuleSize + tr.ModuleSize + bl.ModuleSize) / 3
	}
	dim := dimension(tl.Point, tr.Point, bl.Point, ms)
	if dim >= minInfoSize {
		// the estimate drifts by a few modules in large symbols
		if v, ok := d.readVersion(tl.Point, tr.Point, bl.Point, ms); ok {
			dim = v.Size()
		}
	}
	det := &Detection{
		TopLeft:    tl,
		TopRight:   tr,
		BottomLeft: bl,
		ModuleSize: ms,
	}
	if err := d.grid(det, dim); err != nil {
		return nil, err
	}
	return det, nil
}

// Resample returns det with the module grid sampled again as a
// dim×dim grid, for when the estimated dimension turns out wrong.
func (d *Detector) Resample(det *Detection, dim int) (*Detection, error) {
	nd := &Detection{
		TopLeft:    det.TopLeft,
		TopRight:   det.TopRight,
		BottomLeft: det.BottomLeft,
		ModuleSize: det.ModuleSize,
	}
	if err := d.grid(nd, dim); err != nil {
		return nil, err
	}
	return nd, nil
}

// grid locates the alignment pattern and samples a dim×dim grid.
func (d *Detector) grid(det *Detection, dim int) error {
	v, ok := coding.VersionForSize(dim)
	if !ok {
		return fmt.Errorf("%w: dimension %d", ErrGeometry, dim)
	}
	det.Version = v
	tl, tr, bl := det.TopLeft.Point, det.TopRight.Point, det.BottomLeft.Point
	br := Point{tr.X - tl.X + bl.X, tr.Y - tl.Y + bl.Y}
	corner := float64(dim) - 3.5
	if v >= 2 {
		// the bottom right alignment pattern is 3 modules in from the
		// finder pattern centres
		k := 1 - 3/float64(dim-7)
		est := Point{tl.X + k*(br.X-tl.X), tl.Y + k*(br.Y-tl.Y)}
		for _, allowance := range []int{4, 8, 16} {
			if p, ok := findAlignment(d.Source, det.ModuleSize, est, allowance); ok {
				det.Alignment = &p
				br = p
				corner -= 3
				break
			}
		}
	}
	det.Transform = QuadToQuad(
		[4]Point{{3.5, 3.5}, {float64(dim) - 3.5, 3.5}, {corner, corner}, {3.5, float64(dim) - 3.5}},
		[4]Point{tl, tr, br, bl},
	)
	c, err := sample(d.Source, &det.Transform, dim)
	if err != nil {
		return err
	}
	c.Version = v
	det.Code = c
	return nil
}

// minInfoSize is the smallest estimated dimension at which the version
// information is read: version 7 less one version of slack.
const minInfoSize = 41

// readVersion reads both version information blocks next to the top
// right and bottom left finder patterns, stepping ms pixels per module
// from their centres along the finder pattern axes.
func (d *Detector) readVersion(tl, tr, bl Point, ms float64) (coding.Version, bool) {
	a, b := distance(tl, tr)/ms, distance(tl, bl)/ms
	ux := Point{(tr.X - tl.X) / a, (tr.Y - tl.Y) / a}
	uy := Point{(bl.X - tl.X) / b, (bl.Y - tl.Y) / b}
	w, h := d.Source.Width(), d.Source.Height()
	dark := func(p Point, dx, dy int) bool {
		x := int(p.X + float64(dx)*ux.X + float64(dy)*uy.X)
		y := int(p.Y + float64(dx)*ux.Y + float64(dy)*uy.Y)
		return 0 <= x && x < w && 0 <= y && y < h && d.Source.IsDark(x, y)
	}
	var v1, v2 uint32
	for k := 0; k < 18; k++ {
		// module (k/3, size-11+k%3) and its transpose
		if dark(bl, k/3-3, k%3-7) {
			v1 |= 1 << k
		}
		if dark(tr, k%3-7, k/3-3) {
			v2 |= 1 << k
		}
	}
	return coding.VersionFromInfo(v1, v2)
}

// checkGeometry rejects finder patterns with the angle at the top
// left outside 60° to 120° or sides differing more than twice.
func checkGeometry(tl, tr, bl Point) error {
	a, b := distance(tl, tr), distance(tl, bl)
	if a == 0 || b == 0 || a > 2*b || b > 2*a {
		return fmt.Errorf("%w: finder pattern distances %.1f, %.1f", ErrGeometry, a, b)
	}
	cos := ((tr.X-tl.X)*(bl.X-tl.X) + (tr.Y-tl.Y)*(bl.Y-tl.Y)) / (a * b)
	if math.Abs(cos) > 0.5 {
		return fmt.Errorf("%w: finder pattern angle %.0f°", ErrGeometry,
			math.Acos(cos)*180/math.Pi)
	}
	return nil
}

// dimension returns the symbol size in modules, rounded to the
// nearest valid size.
func dimension(tl, tr, bl Point, ms float64) int {
	a, b := distance(tl, tr)/ms, distance(tl, bl)/ms
	dim := (round(a)+round(b))/2 + 7
	switch dim & 3 {
	case 0:
		dim++
	case 2:
		dim--
	case 3:
		// halfway between two sizes
		if (a+b)/2+7 < float64(dim) {
			dim -= 2
		} else {
			dim += 2
		}
	}
	return dim
}

// moduleSize estimates the module size from the black-white-black
// runs of the finder patterns towards each other.
func (d *Detector) moduleSize(tl, tr, bl Point) float64 {
	return (d.moduleSizeOneWay(tl, tr) + d.moduleSizeOneWay(tl, bl)) / 2
}

func (d *Detector) moduleSizeOneWay(p, q Point) float64 {
	a := d.runBothWays(int(p.X), int(p.Y), int(q.X), int(q.Y))
	b := d.runBothWays(int(q.X), int(q.Y), int(p.X), int(p.Y))
	switch {
	case math.IsNaN(a):
		return b / 7
	case math.IsNaN(b):
		return a / 7
	}
	return (a + b) / 14
}

// runBothWays measures the finder pattern centred at (fx, fy) along
// the line towards (tx, ty) and in the opposite direction.
func (d *Detector) runBothWays(fx, fy, tx, ty int) float64 {
	w, h := d.Source.Width(), d.Source.Height()
	n := d.run(fx, fy, tx, ty)

	scale := 1.0
	ox := fx - (tx - fx)
	if ox < 0 {
		scale = float64(fx) / float64(fx-ox)
		ox = 0
	} else if ox >= w {
		scale = float64(w-1-fx) / float64(ox-fx)
		ox = w - 1
	}
	oy := int(float64(fy) - float64(ty-fy)*scale)
	scale = 1.0
	if oy < 0 {
		scale = float64(fy) / float64(fy-oy)
		oy = 0
	} else if oy >= h {
		scale = float64(h-1-fy) / float64(oy-fy)
		oy = h - 1
	}
	ox = int(float64(fx) + float64(ox-fx)*scale)
	return n + d.run(fx, fy, ox, oy) - 1
}

// run returns the distance from (fx, fy) to the end of the first
// black-white-black run towards (tx, ty), walking the line with
// Bresenham's algorithm, or NaN.
func (d *Detector) run(fx, fy, tx, ty int) float64 {
	steep := abs(ty-fy) > abs(tx-fx)
	if steep {
		fx, fy, tx, ty = fy, fx, ty, tx
	}
	dx, dy := abs(tx-fx), abs(ty-fy)
	e := -dx / 2
	xstep, ystep := 1, 1
	if fx > tx {
		xstep = -1
	}
	if fy > ty {
		ystep = -1
	}
	state := 0
	for x, y := fx, fy; x != tx+xstep; x += xstep {
		rx, ry := x, y
		if steep {
			rx, ry = y, x
		}
		// state 1 looks for black, states 0 and 2 for white
		if (state == 1) == d.Source.IsDark(rx, ry) {
			if state == 2 {
				return math.Hypot(float64(x-fx), float64(y-fy))
			}
			state++
		}
		if e += dy; e > 0 {
			if y == ty {
				break
			}
			y += ystep
			e -= dx
		}
	}
	if state == 2 {
		return math.Hypot(float64(tx+xstep-fx), float64(ty-fy))
	}
	return math.NaN()
}

// sample reads the module centres of a dim×dim grid.
func sample(src Source, t *Transform, dim int) (*coding.Code, error) {
	w, h := float64(src.Width()), float64(src.Height())
	var err error
	c := coding.NewCode(dim, func(x, y int) bool {
		p := t.Apply(Point{float64(x) + 0.5, float64(y) + 0.5})
		if p.X < -1 || p.X > w || p.Y < -1 || p.Y > h || math.IsNaN(p.X) || math.IsNaN(p.Y) {
			if err == nil {
				err = fmt.Errorf("%w: module (%d,%d) outside image", ErrGeometry, x, y)
			}
			return false
		}
		px := min(max(int(p.X), 0), int(w)-1)
		py := min(max(int(p.Y), 0), int(h)-1)
		return src.IsDark(px, py)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
