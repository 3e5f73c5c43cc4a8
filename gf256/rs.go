// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

import "errors"

// ErrUncorrectable is returned by RSDecoder.Correct when a block has
// more errors than the code can correct.
var ErrUncorrectable = errors.New("gf256: uncorrectable block")

// poly is a polynomial over a Field with the coefficient of x^i at
// index i.  A trimmed poly has no trailing zeros; the zero polynomial
// has length 0 and degree -1.
type poly []byte

func (p poly) trim() poly {
	n := len(p)
	for n > 0 && p[n-1] == 0 {
		n--
	}
	return p[:n]
}

func (p poly) deg() int { return len(p) - 1 }

// lead returns the highest degree coefficient of a trimmed p.
func (p poly) lead() byte {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

func (f *Field) eval(p poly, x byte) byte {
	var y byte
	for i := len(p) - 1; i >= 0; i-- {
		y = f.Mul(y, x) ^ p[i]
	}
	return y
}

func addPoly(p, q poly) poly {
	if len(p) < len(q) {
		p, q = q, p
	}
	r := make(poly, len(p))
	copy(r, p)
	for i, v := range q {
		r[i] ^= v
	}
	return r.trim()
}

// mulMono returns p * c * x^d.
func (f *Field) mulMono(p poly, d int, c byte) poly {
	if c == 0 || len(p) == 0 {
		return nil
	}
	r := make(poly, len(p)+d)
	for i, v := range p {
		r[i+d] = f.Mul(v, c)
	}
	return r.trim()
}

func (f *Field) mulPoly(p, q poly) poly {
	if len(p) == 0 || len(q) == 0 {
		return nil
	}
	r := make(poly, len(p)+len(q)-1)
	for i, a := range p {
		if a == 0 {
			continue
		}
		for j, b := range q {
			r[i+j] ^= f.Mul(a, b)
		}
	}
	return r.trim()
}

// An RSDecoder corrects Reed-Solomon blocks encoded by an RSEncoder
// with the same field and number of error correction bytes.
// An RSDecoder holds no mutable state.
type RSDecoder struct {
	f *Field
	c int
}

// NewRSDecoder returns a new Reed-Solomon decoder over the given
// field and number of error correction bytes.
func NewRSDecoder(f *Field, c int) *RSDecoder {
	return &RSDecoder{f: f, c: c}
}

// syndromes returns the syndrome polynomial of block and whether
// all syndromes are zero.
func (rs *RSDecoder) syndromes(block []byte) (poly, bool) {
	f := rs.f
	s := make(poly, rs.c)
	clean := true
	for i := range s {
		x := f.exp[i]
		var y byte
		for _, b := range block {
			y = f.Mul(y, x) ^ b
		}
		s[i] = y
		if y != 0 {
			clean = false
		}
	}
	return s.trim(), clean
}

// Correct corrects errors in block in place.  block holds data bytes
// followed by error correction bytes, highest degree coefficient
// first.  Correct returns the number of corrected bytes, or
// ErrUncorrectable, in which case the contents of block are
// unspecified.
func (rs *RSDecoder) Correct(block []byte) (int, error) {
	if len(block) <= rs.c || len(block) > 255 {
		return 0, ErrUncorrectable
	}
	s, clean := rs.syndromes(block)
	if clean {
		return 0, nil
	}
	sigma, omega, err := rs.euclid(s)
	if err != nil {
		return 0, err
	}
	n := sigma.deg()
	if n > rs.c/2 {
		return 0, ErrUncorrectable
	}
	loc, err := rs.chien(sigma)
	if err != nil {
		return 0, err
	}
	f := rs.f
	for i, mag := range rs.forney(omega, loc) {
		pos := len(block) - 1 - f.Log(loc[i])
		if pos < 0 {
			return 0, ErrUncorrectable
		}
		block[pos] ^= mag
	}
	if _, clean = rs.syndromes(block); !clean {
		return 0, ErrUncorrectable
	}
	return n, nil
}

// euclid runs the extended Euclidean algorithm on x^c and the
// syndrome polynomial s, returning the error locator σ and the error
// evaluator ω, normalised so that σ(0) = 1.
func (rs *RSDecoder) euclid(s poly) (sigma, omega poly, err error) {
	f := rs.f
	rLast := make(poly, rs.c+1)
	rLast[rs.c] = 1
	r := s
	var tLast poly
	t := poly{1}

	for 2*r.deg() >= rs.c {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = r, t
		if len(rLast) == 0 {
			return nil, nil, ErrUncorrectable
		}
		r = rLastLast
		var q poly
		inv := f.Inv(rLast.lead())
		for r.deg() >= rLast.deg() && len(r) != 0 {
			d := r.deg() - rLast.deg()
			scale := f.Mul(r.lead(), inv)
			q = addPoly(q, f.mulMono(poly{1}, d, scale))
			r = addPoly(r, f.mulMono(rLast, d, scale))
		}
		t = addPoly(f.mulPoly(q, tLast), tLastLast)
		if r.deg() >= rLast.deg() {
			return nil, nil, ErrUncorrectable
		}
	}

	if len(t) == 0 || t[0] == 0 {
		return nil, nil, ErrUncorrectable
	}
	inv := f.Inv(t[0])
	return f.mulMono(t, 0, inv), f.mulMono(r, 0, inv), nil
}

// chien returns the error locations, the inverses of the roots of σ.
func (rs *RSDecoder) chien(sigma poly) ([]byte, error) {
	f := rs.f
	n := sigma.deg()
	loc := make([]byte, 0, n)
	for i := 1; i < 256 && len(loc) < n; i++ {
		if f.eval(sigma, byte(i)) == 0 {
			loc = append(loc, f.Inv(byte(i)))
		}
	}
	if len(loc) != n {
		return nil, ErrUncorrectable
	}
	return loc, nil
}

// forney returns the error magnitudes at the given locations.
func (rs *RSDecoder) forney(omega poly, loc []byte) []byte {
	f := rs.f
	mag := make([]byte, len(loc))
	for i, xi := range loc {
		xiInv := f.Inv(xi)
		var den byte = 1
		for j, xj := range loc {
			if i != j {
				den = f.Mul(den, 1^f.Mul(xj, xiInv))
			}
		}
		mag[i] = f.Mul(f.eval(omega, xiInv), f.Inv(den))
	}
	return mag
}
