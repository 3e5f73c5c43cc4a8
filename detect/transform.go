// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package detect

// Transform is a plane perspective transform:
//
//	x' = (m[0][0]x + m[0][1]y + m[0][2]) / w
//	y' = (m[1][0]x + m[1][1]y + m[1][2]) / w
//	w  =  m[2][0]x + m[2][1]y + m[2][2]
type Transform [3][3]float64

// Apply transforms p.
func (t *Transform) Apply(p Point) Point {
	w := t[2][0]*p.X + t[2][1]*p.Y + t[2][2]
	return Point{
		(t[0][0]*p.X + t[0][1]*p.Y + t[0][2]) / w,
		(t[1][0]*p.X + t[1][1]*p.Y + t[1][2]) / w,
	}
}

// squareToQuad maps the unit square (0,0), (1,0), (1,1), (0,1) to
// the quadrilateral q.
func squareToQuad(q [4]Point) Transform {
	dx3 := q[0].X - q[1].X + q[2].X - q[3].X
	dy3 := q[0].Y - q[1].Y + q[2].Y - q[3].Y
	var g, h float64
	if dx3 != 0 || dy3 != 0 {
		dx1, dx2 := q[1].X-q[2].X, q[3].X-q[2].X
		dy1, dy2 := q[1].Y-q[2].Y, q[3].Y-q[2].Y
		den := dx1*dy2 - dx2*dy1
		g = (dx3*dy2 - dx2*dy3) / den
		h = (dx1*dy3 - dx3*dy1) / den
	}
	return Transform{
		{q[1].X - q[0].X + g*q[1].X, q[3].X - q[0].X + h*q[3].X, q[0].X},
		{q[1].Y - q[0].Y + g*q[1].Y, q[3].Y - q[0].Y + h*q[3].Y, q[0].Y},
		{g, h, 1},
	}
}

// adjoint returns the adjugate of t, its inverse up to scale.
func (t *Transform) adjoint() Transform {
	return Transform{
		{
			t[1][1]*t[2][2] - t[1][2]*t[2][1],
			t[0][2]*t[2][1] - t[0][1]*t[2][2],
			t[0][1]*t[1][2] - t[0][2]*t[1][1],
		},
		{
			t[1][2]*t[2][0] - t[1][0]*t[2][2],
			t[0][0]*t[2][2] - t[0][2]*t[2][0],
			t[0][2]*t[1][0] - t[0][0]*t[1][2],
		},
		{
			t[1][0]*t[2][1] - t[1][1]*t[2][0],
			t[0][1]*t[2][0] - t[0][0]*t[2][1],
			t[0][0]*t[1][1] - t[0][1]*t[1][0],
		},
	}
}

// mul returns t·u, the transform applying u first.
func (t *Transform) mul(u *Transform) Transform {
	var r Transform
	for i := range r {
		for j := range r[i] {
			for k := 0; k < 3; k++ {
				r[i][j] += t[i][k] * u[k][j]
			}
		}
	}
	return r
}

// QuadToQuad returns the transform mapping the corners of src to the
// corresponding corners of dst.  Corners go around the quadrilateral,
// starting at the top left one.
func QuadToQuad(src, dst [4]Point) Transform {
	to := squareToQuad(dst)
	from := squareToQuad(src)
	from = from.adjoint()
	return to.mul(&from)
}
