// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package detect

import "math"

// alignment looks for an alignment pattern in a region of the source.
// The pattern is found by its white-black-white 1:1:1 core, with dark
// modules beyond the white ring.
type alignment struct {
	src        Source
	x, y, w, h int     // region
	ms         float64 // module size
	centers    []FinderPattern
}

func (a *alignment) foundCross(sc []int) bool {
	v := a.ms / 2
	for _, c := range sc {
		if math.Abs(a.ms-float64(c)) >= v {
			return false
		}
	}
	return true
}

// find returns the candidate closest to est, preferring ones confirmed
// by more than one row.  Rows are scanned from the middle of the
// region outwards.
func (a *alignment) find(est Point) (Point, bool) {
	maxX, mid := a.x+a.w, a.y+a.h/2
	for g := 0; g < a.h; g++ {
		y := mid + (g+1)/2
		if g&1 == 1 {
			y = mid - (g+1)/2
		}
		var sc [3]int
		x := a.x
		for x < maxX && !a.src.IsDark(x, y) {
			x++
		}
		state := 0
		for ; x < maxX; x++ {
			if !a.src.IsDark(x, y) {
				if state == 1 {
					state++
				}
				sc[state]++
				continue
			}
			if state == 1 {
				sc[1]++
				continue
			}
			if state != 2 {
				state++
				sc[state]++
				continue
			}
			if a.foundCross(sc[:]) {
				a.check(sc, x, y)
			}
			sc = [3]int{sc[2], 1, 0}
			state = 1
		}
		if a.foundCross(sc[:]) {
			a.check(sc, maxX, y)
		}
	}

	var best *FinderPattern
	for i := range a.centers {
		c := &a.centers[i]
		switch {
		case best == nil, c.Count >= 2 && best.Count < 2:
			best = c
		case c.Count >= 2 == (best.Count >= 2) &&
			distance2(c.Point, est) < distance2(best.Point, est):
			best = c
		}
	}
	if best == nil {
		return Point{}, false
	}
	return best.Point, true
}

// check cross checks a candidate vertically and records it.
func (a *alignment) check(sc [3]int, end, y int) {
	total := sum(sc[:])
	cx := centerFromEnd(sc[:], end)
	cy, ok := a.crossCheck(int(cx), y, 2*sc[1], total)
	if !ok {
		return
	}
	ms := float64(total) / 3
	for i := range a.centers {
		if c := &a.centers[i]; c.about(ms, cx, cy) {
			c.combine(cx, cy, ms)
			return
		}
	}
	a.centers = append(a.centers, FinderPattern{Point{cx, cy}, ms, 1})
}

func (a *alignment) crossCheck(x, start, maxCount, total int) (float64, bool) {
	dark, n := line(a.src, x, start, true)
	var sc [3]int
	i := start
	for ; i >= 0 && dark(i) && sc[1] <= maxCount; i-- {
		sc[1]++
	}
	if i < 0 || sc[1] > maxCount {
		return 0, false
	}
	for ; i >= 0 && !dark(i) && sc[0] <= maxCount; i-- {
		sc[0]++
	}
	if i < 0 || sc[0] > maxCount {
		return 0, false
	}
	for i = start + 1; i < n && dark(i) && sc[1] <= maxCount; i++ {
		sc[1]++
	}
	if i == n || sc[1] > maxCount {
		return 0, false
	}
	for ; i < n && !dark(i) && sc[2] <= maxCount; i++ {
		sc[2]++
	}
	if i == n || sc[2] > maxCount {
		return 0, false
	}
	if 5*abs(sum(sc[:])-total) >= 2*total || !a.foundCross(sc[:]) {
		return 0, false
	}
	return centerFromEnd(sc[:], i), true
}

// findAlignment looks for the alignment pattern near est within
// allowance module sizes.
func findAlignment(src Source, ms float64, est Point, allowance int) (Point, bool) {
	d := int(float64(allowance) * ms)
	ex, ey := int(est.X), int(est.Y)
	left, right := max(0, ex-d), min(src.Width()-1, ex+d)
	top, bottom := max(0, ey-d), min(src.Height()-1, ey+d)
	if float64(right-left) < 3*ms || float64(bottom-top) < 3*ms {
		return Point{}, false
	}
	a := alignment{
		src: src,
		x:   left,
		y:   top,
		w:   right - left,
		h:   bottom - top,
		ms:  ms,
	}
	return a.find(est)
}
