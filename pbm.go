// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var ErrPBM = errors.New("qr: malformed PBM image")

// maxPBMSize limits the side of images read by ReadPBM.
const maxPBMSize = 1 << 15

// EncodePBM writes a Portable Bit Map image displaying the code to w,
// for use with netpbm.
func (c *Code) EncodePBM(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	siz, scale, bord := c.Size, c.Scale, c.Border
	length := scale * (siz + bord*2)
	ls := strconv.Itoa(length)
	if _, err := b.WriteString("P4\n" + ls + " " + ls + "\n"); err != nil {
		return err
	}
	row := make([]byte, (length+7)/8)
	for y := -bord; y < siz+bord; y++ {
		pbmRow(row, func(x int) bool { return c.dark(x-bord, y) }, siz+bord*2, scale)
		for i := 0; i < scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}

// pbmRow encodes a row of n modules, each scale pixels wide.
func pbmRow(row []byte, dark func(x int) bool, n, scale int) {
	clear(row)
	j := 0
	for x := 0; x < n; x++ {
		if !dark(x) {
			j += scale
			continue
		}
		for end := j + scale; j < end; j++ {
			row[j>>3] |= 0x80 >> (j & 7)
		}
	}
}

// ReadPBM reads a plain (P1) or raw (P4) Portable Bit Map image.
func ReadPBM(r io.Reader) (*Bitmap, error) {
	br := bufio.NewReader(r)
	var magic [2]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPBM, err)
	}
	if magic[0] != 'P' || magic[1] != '1' && magic[1] != '4' {
		return nil, fmt.Errorf("%w: bad magic %q", ErrPBM, magic[:])
	}
	w, err := pbmInt(br)
	if err != nil {
		return nil, err
	}
	h, err := pbmInt(br)
	if err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 || w > maxPBMSize || h > maxPBMSize {
		return nil, fmt.Errorf("%w: size %dx%d", ErrPBM, w, h)
	}
	b := NewBitmap(w, h)
	if magic[1] == '4' {
		// single whitespace after the height
		if _, err := br.ReadByte(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPBM, err)
		}
		if _, err := io.ReadFull(br, b.Bits); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPBM, err)
		}
		return b, nil
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c, err := pbmSkip(br)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPBM, err)
			}
			if c != '0' && c != '1' {
				return nil, fmt.Errorf("%w: bad pixel %q", ErrPBM, c)
			}
			b.Set(x, y, c == '1')
		}
	}
	return b, nil
}

// pbmSkip skips whitespace and comments and returns the next byte.
func pbmSkip(br *bufio.Reader) (byte, error) {
	for {
		c, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch c {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		case '#':
			if _, err := br.ReadString('\n'); err != nil {
				return 0, err
			}
		default:
			return c, nil
		}
	}
}

// pbmInt reads a header number.
func pbmInt(br *bufio.Reader) (int, error) {
	c, err := pbmSkip(br)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPBM, err)
	}
	n := 0
	for ; '0' <= c && c <= '9'; c, err = br.ReadByte() {
		if n = n*10 + int(c-'0'); n > maxPBMSize {
			return 0, fmt.Errorf("%w: size too large", ErrPBM)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPBM, err)
	}
	// the byte after the number is whitespace
	br.UnreadByte()
	return n, nil
}
