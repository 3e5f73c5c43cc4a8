// Copyright 2010 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gf256 implements arithmetic over the Galois Field GF(256)
// and Reed-Solomon coding over it.
package gf256 // import "github.com/unixdj/qrcodec/gf256"

import "strconv"

// A Field represents an instance of GF(256) defined by a specific
// polynomial.  A Field is read-only after NewField returns and may be
// shared between goroutines.
type Field struct {
	log [256]byte // log[0] is unused
	exp [510]byte // exp[i+255] == exp[i]
}

// NewField returns a new field corresponding to the polynomial poly
// and generator α.  The Reed-Solomon encoding in QR codes uses
// polynomial 0x11d with generator 2.
//
// The choice of generator α only matters for the Reed-Solomon
// coders, which evaluate polynomials at powers of α.
func NewField(poly, α int) *Field {
	if poly < 0x100 || poly >= 0x200 {
		panic("gf256: invalid polynomial: " + strconv.Itoa(poly))
	}
	var f Field
	x := 1
	for i := 0; i < 255; i++ {
		if x == 1 && i != 0 {
			panic("gf256: invalid generator " + strconv.Itoa(α) +
				" for polynomial " + strconv.Itoa(poly))
		}
		f.exp[i] = byte(x)
		f.exp[i+255] = byte(x)
		f.log[x] = byte(i)
		x = mul(x, α, poly)
	}
	f.log[0] = 255
	return &f
}

// mul multiplies x and y in the field defined by poly.
func mul(x, y, poly int) int {
	z := 0
	for x > 0 {
		if x&1 != 0 {
			z ^= y
		}
		x >>= 1
		y <<= 1
		if y&0x100 != 0 {
			y ^= poly
		}
	}
	return z
}

// Add returns the sum of x and y in the field.
func (f *Field) Add(x, y byte) byte { return x ^ y }

// Exp returns the base-α exponential of e in the field.
// If e < 0, Exp returns 0.
func (f *Field) Exp(e int) byte {
	if e < 0 {
		return 0
	}
	return f.exp[e%255]
}

// Log returns the base-α logarithm of x in the field.
// If x == 0, Log returns -1.
func (f *Field) Log(x byte) int {
	if x == 0 {
		return -1
	}
	return int(f.log[x])
}

// Inv returns the multiplicative inverse of x in the field.
// If x == 0, Inv returns 0.
func (f *Field) Inv(x byte) byte {
	if x == 0 {
		return 0
	}
	return f.exp[255-int(f.log[x])]
}

// Mul returns the product of x and y in the field.
func (f *Field) Mul(x, y byte) byte {
	if x == 0 || y == 0 {
		return 0
	}
	return f.exp[int(f.log[x])+int(f.log[y])]
}

// gen returns the generator polynomial of degree e, the product of
// (x - α^i) for i in [0, e), with the highest degree coefficient first.
func (f *Field) gen(e int) []byte {
	p := make([]byte, 1, e+1)
	p[0] = 1
	for i := 0; i < e; i++ {
		a := f.exp[i]
		p = append(p, 0)
		for j := len(p) - 1; j > 0; j-- {
			p[j] ^= f.Mul(p[j-1], a)
		}
	}
	return p
}

// An RSEncoder implements Reed-Solomon encoding over a given field
// using a given number of error correction bytes.  An RSEncoder keeps
// a work buffer and must not be used by more than one goroutine at a
// time.
type RSEncoder struct {
	f   *Field
	c   int
	gen []byte
	p   []byte
}

// NewRSEncoder returns a new Reed-Solomon encoder over the given
// field and number of error correction bytes.
func NewRSEncoder(f *Field, c int) *RSEncoder {
	return &RSEncoder{f: f, c: c, gen: f.gen(c)}
}

// ECC writes to check the error correcting code bytes for data
// using the given Reed-Solomon parameters.  check must be at least
// as long as the number of error correction bytes.
func (rs *RSEncoder) ECC(data []byte, check []byte) {
	n := len(data) + rs.c
	if cap(rs.p) < n {
		rs.p = make([]byte, n)
	}
	p := rs.p[:n]
	copy(p, data)
	clear(p[len(data):])
	f, gen := rs.f, rs.gen
	for i := range data {
		c := p[i]
		if c == 0 {
			continue
		}
		q := p[i+1 : i+1+rs.c]
		for j, g := range gen[1:] {
			q[j] ^= f.Mul(c, g)
		}
	}
	copy(check, p[len(data):])
}
