// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Mask penalty rules:
//
//   - runs of n >= 5 same-colour pixels in a row or column: n-2
//   - 2x2 boxes of the same colour, possibly overlapping: 3
//   - 1:1:3:1:1 finder-like patterns with 4 white pixels on either
//     side, the quiet zone counting as white: 40
//   - 10 for every full 5% the share of black pixels is off 50%
const (
	minRun    = 5
	runDelta  = -2
	boxPP     = 3
	findPP    = 40
	balPP     = 10
	findCore  = 0b1011101 << 4 // bits 4-10 of a 15 pixel window
	findMask  = 0b1111111 << 4
	quietSpan = 4
)

// Penalty returns the mask penalty of c.  The encoder chooses the
// mask with the lowest penalty.
func (c *Code) Penalty() int {
	siz := c.Size
	p, dark := 0, 0
	for i := 0; i < siz; i++ {
		p += linePenalty(siz, func(j int) bool { return c.Black(j, i) })
		p += linePenalty(siz, func(j int) bool { return c.Black(i, j) })
	}
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			b := c.Black(x, y)
			if b {
				dark++
			}
			if x+1 < siz && y+1 < siz && b == c.Black(x+1, y) &&
				b == c.Black(x, y+1) && b == c.Black(x+1, y+1) {
				p += boxPP
			}
		}
	}
	total := siz * siz
	return p + abs(dark*2-total)*10/total*balPP
}

// linePenalty returns run and finder-like pattern penalties for a
// line of n pixels.
func linePenalty(n int, black func(int) bool) int {
	p, run := 0, 0
	var prev bool
	var win uint16 // last 15 pixels, newest in bit 0
	for i := 0; i < n+quietSpan; i++ {
		b := i < n && black(i)
		if i < n {
			if i > 0 && b == prev {
				run++
			} else {
				if run >= minRun {
					p += run + runDelta
				}
				run = 1
			}
			prev = b
		}
		win = win<<1 & 0x7fff
		if b {
			win |= 1
		}
		// the pattern ends at i-4, so it lies within the line
		if i >= 10 && win&findMask == findCore &&
			(win>>11 == 0 || win&0xf == 0) {
			p += findPP
		}
	}
	if run >= minRun {
		p += run + runDelta
	}
	return p
}
