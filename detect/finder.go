// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package detect

import (
	"math"
	"sort"
)

// FinderPattern is a located finder pattern.
type FinderPattern struct {
	Point
	ModuleSize float64
	Count      int // number of scan lines confirming the pattern
}

// about reports whether the pattern at (x, y) with module size ms is
// the same as fp.
func (fp *FinderPattern) about(ms, x, y float64) bool {
	if math.Abs(y-fp.Y) > ms || math.Abs(x-fp.X) > ms {
		return false
	}
	d := math.Abs(ms - fp.ModuleSize)
	return d <= 1 || d <= fp.ModuleSize
}

// combine averages fp with a new observation.
func (fp *FinderPattern) combine(x, y, ms float64) {
	n := float64(fp.Count)
	fp.X = (n*fp.X + x) / (n + 1)
	fp.Y = (n*fp.Y + y) / (n + 1)
	fp.ModuleSize = (n*fp.ModuleSize + ms) / (n + 1)
	fp.Count++
}

const (
	maxModules    = 177 // size of version 40
	minSkip       = 1
	maxCandidates = 12
)

type finder struct {
	src     Source
	centers []FinderPattern
}

// foundFinderCross reports whether run lengths sc are close to
// 1:1:3:1:1, with each run off by less than variance module sizes.
func foundFinderCross(sc []int, variance float64) bool {
	total := sum(sc)
	if total < 7 {
		return false
	}
	for _, c := range sc {
		if c == 0 {
			return false
		}
	}
	ms := float64(total) / 7
	v := ms * variance
	return math.Abs(ms-float64(sc[0])) < v &&
		math.Abs(ms-float64(sc[1])) < v &&
		math.Abs(3*ms-float64(sc[2])) < 3*v &&
		math.Abs(ms-float64(sc[3])) < v &&
		math.Abs(ms-float64(sc[4])) < v
}

// scan looks for finder patterns on every skip'th row.
func (f *finder) scan() {
	w, h := f.src.Width(), f.src.Height()
	skip := max(minSkip, 3*h/(4*maxModules))
	for y := skip - 1; y < h; y += skip {
		var sc [5]int
		state := 0
		for x := 0; x < w; x++ {
			if f.src.IsDark(x, y) {
				if state&1 == 1 {
					state++
				}
				sc[state]++
				continue
			}
			if state&1 == 1 {
				sc[state]++
				continue
			}
			if state != 4 {
				state++
				sc[state]++
				continue
			}
			if foundFinderCross(sc[:], 0.5) && f.check(sc, x, y) {
				state, sc = 0, [5]int{}
				continue
			}
			sc = [5]int{sc[2], sc[3], sc[4], 1, 0}
			state = 3
		}
		if foundFinderCross(sc[:], 0.5) {
			f.check(sc, w, y)
		}
	}
}

// check cross checks a pattern with runs sc ending at (end, y)
// vertically, horizontally and diagonally, and records it.
func (f *finder) check(sc [5]int, end, y int) bool {
	total := sum(sc[:])
	cx := centerFromEnd(sc[:], end)
	dark, n := line(f.src, int(cx), y, true)
	cy, ok := crossCheck(dark, n, y, sc[2], total)
	if !ok {
		return false
	}
	dark, n = line(f.src, int(cx), int(cy), false)
	if cx, ok = crossCheck(dark, n, int(cx), sc[2], total); !ok {
		return false
	}
	if !f.checkDiagonal(int(cx), int(cy)) {
		return false
	}
	ms := float64(total) / 7
	for i := range f.centers {
		if c := &f.centers[i]; c.about(ms, cx, cy) {
			c.combine(cx, cy, ms)
			return true
		}
	}
	f.centers = append(f.centers, FinderPattern{Point{cx, cy}, ms, 1})
	return true
}

// crossCheck counts 1:1:3:1:1 runs on a line through start and
// returns the pattern centre.  maxCount limits the outer runs and total
// is the run length sum observed in the other direction.
func crossCheck(dark func(int) bool, n, start, maxCount, total int) (float64, bool) {
	var sc [5]int
	i := start
	for ; i >= 0 && dark(i); i-- {
		sc[2]++
	}
	if i < 0 {
		return 0, false
	}
	for ; i >= 0 && !dark(i) && sc[1] <= maxCount; i-- {
		sc[1]++
	}
	if i < 0 || sc[1] > maxCount {
		return 0, false
	}
	for ; i >= 0 && dark(i) && sc[0] <= maxCount; i-- {
		sc[0]++
	}
	if sc[0] > maxCount {
		return 0, false
	}
	for i = start + 1; i < n && dark(i); i++ {
		sc[2]++
	}
	if i == n {
		return 0, false
	}
	for ; i < n && !dark(i) && sc[3] < maxCount; i++ {
		sc[3]++
	}
	if i == n || sc[3] >= maxCount {
		return 0, false
	}
	for ; i < n && dark(i) && sc[4] < maxCount; i++ {
		sc[4]++
	}
	if sc[4] >= maxCount {
		return 0, false
	}
	if 5*abs(sum(sc[:])-total) >= 2*total || !foundFinderCross(sc[:], 0.5) {
		return 0, false
	}
	return centerFromEnd(sc[:], i), true
}

// checkDiagonal counts 1:1:3:1:1 runs on the diagonal through (x, y).
func (f *finder) checkDiagonal(x, y int) bool {
	var sc [5]int
	dark := func(i int) bool { return f.src.IsDark(x+i, y+i) }
	i := 0
	for ; y >= -i && x >= -i && dark(i); i-- {
		sc[2]++
	}
	for ; y >= -i && x >= -i && !dark(i); i-- {
		sc[1]++
	}
	for ; y >= -i && x >= -i && dark(i); i-- {
		sc[0]++
	}
	if sc[2] == 0 || sc[1] == 0 || sc[0] == 0 {
		return false
	}
	w, h := f.src.Width(), f.src.Height()
	i = 1
	for ; y+i < h && x+i < w && dark(i); i++ {
		sc[2]++
	}
	for ; y+i < h && x+i < w && !dark(i); i++ {
		sc[3]++
	}
	for ; y+i < h && x+i < w && dark(i); i++ {
		sc[4]++
	}
	return sc[3] != 0 && sc[4] != 0 && foundFinderCross(sc[:], 0.75)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// best returns the three patterns closest to the corners of an
// isosceles right triangle, ordered top left, top right, bottom left.
func (f *finder) best() (tl, tr, bl FinderPattern, err error) {
	cs := f.centers
	var confirmed []FinderPattern
	for _, c := range cs {
		if c.Count >= 2 {
			confirmed = append(confirmed, c)
		}
	}
	if len(confirmed) >= 3 {
		cs = confirmed
	}
	if len(cs) < 3 {
		return tl, tr, bl, ErrNotFound
	}
	cs = append([]FinderPattern(nil), cs...)
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Count > cs[j].Count })
	if len(cs) > maxCandidates {
		cs = cs[:maxCandidates]
	}

	var pick [3]FinderPattern
	best := math.Inf(1)
	for i := 0; i < len(cs); i++ {
		for j := i + 1; j < len(cs); j++ {
			for k := j + 1; k < len(cs); k++ {
				p := [3]FinderPattern{cs[i], cs[j], cs[k]}
				lo := min(p[0].ModuleSize, p[1].ModuleSize, p[2].ModuleSize)
				hi := max(p[0].ModuleSize, p[1].ModuleSize, p[2].ModuleSize)
				if hi > 1.4*lo {
					continue
				}
				d := []float64{
					distance2(p[0].Point, p[1].Point),
					distance2(p[1].Point, p[2].Point),
					distance2(p[0].Point, p[2].Point),
				}
				sort.Float64s(d)
				// finder patterns do not overlap
				if side := 7 * hi; d[0] < side*side {
					continue
				}
				score := (math.Abs(d[2]-2*d[1]) + math.Abs(d[2]-2*d[0])) / d[2]
				if score < best {
					best, pick = score, p
				}
			}
		}
	}
	if math.IsInf(best, 1) {
		return tl, tr, bl, ErrNotFound
	}
	tl, tr, bl = order(pick)
	return tl, tr, bl, nil
}

// order returns the top left pattern, opposite the longest side, and
// the top right and bottom left ones by the direction of the turn.
func order(p [3]FinderPattern) (tl, tr, bl FinderPattern) {
	d01 := distance2(p[0].Point, p[1].Point)
	d12 := distance2(p[1].Point, p[2].Point)
	d02 := distance2(p[0].Point, p[2].Point)
	var a, b, c FinderPattern
	switch {
	case d12 >= d01 && d12 >= d02:
		b, a, c = p[0], p[1], p[2]
	case d02 >= d12 && d02 >= d01:
		b, a, c = p[1], p[0], p[2]
	default:
		b, a, c = p[2], p[0], p[1]
	}
	if crossProduct(a.Point, b.Point, c.Point) < 0 {
		a, c = c, a
	}
	return b, c, a
}
