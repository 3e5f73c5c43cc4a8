// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qr encodes and decodes QR codes.

Encode and EncodeText choose segment modes and the QR version
automatically.  Decode locates a QR code in a binarised image and
returns its contents; DecodeCode decodes an already sampled module
grid.
*/
package qr // import "github.com/unixdj/qrcodec"

import (
	"errors"

	"github.com/unixdj/qrcodec/coding"
	"github.com/unixdj/qrcodec/split"
)

// A Level denotes a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level = coding.Level

const (
	L = coding.L // 20% redundant
	M = coding.M // 38% redundant
	Q = coding.Q // 55% redundant
	H = coding.H // 65% redundant
)

// Extended Channel Interpretation assignment numbers.
const (
	Latin1ECI   = split.Latin1ECI   // ISO 8859-1
	ShiftJISECI = split.ShiftJISECI // Shift JIS
	UTF8ECI     = split.UTF8ECI     // UTF-8
)

// Rendering defaults.
const (
	DefaultScale  = 8
	DefaultBorder = 4
)

var ErrArgs = errors.New("qr: invalid arguments")

// A Code is a QR code with rendering parameters.
// It renders as an image.Image, UTF-8 text and PBM.
type Code struct {
	*coding.Code
	Scale   int  // number of image pixels per QR module
	Border  int  // quiet zone width in modules
	Reverse bool // swap dark and light
}

func newCode(c *coding.Code) *Code {
	return &Code{Code: c, Scale: DefaultScale, Border: DefaultBorder}
}

func (c *Code) isValid() bool {
	return c != nil && c.Code != nil && c.Scale > 0 && c.Border >= 0
}

// dark reports whether the module at (x, y) is rendered dark.
// Modules outside the code are in the quiet zone.
func (c *Code) dark(x, y int) bool {
	return c.Black(x, y) != c.Reverse
}

// Encode returns an encoding of UTF-8 text at the given error
// correction level, in the smallest QR version fitting the text.
func Encode(text string, level Level) (*Code, error) {
	return EncodeText(text, split.UTF8, 0, coding.Auto, level)
}

// EncodeText returns an encoding of text in the charset cs with the
// ECI assignment number eci, or no ECI segment if eci is 0.
// If version is coding.Auto, the smallest fitting version is used.
func EncodeText(text string, cs split.Charset, eci uint32, version coding.Version, level Level) (*Code, error) {
	return EncodeData(split.Text(text, cs, eci), version, level)
}

// EncodeData returns an encoding of d.
func EncodeData(d split.Data, version coding.Version, level Level) (*Code, error) {
	segs, v, err := split.Split(d, version, level)
	if err != nil {
		return nil, err
	}
	c, err := coding.Encode(v, level, segs...)
	if err != nil {
		return nil, err
	}
	return newCode(c), nil
}

// EncodeTextMulti returns text encoded as up to 16 structured
// append symbols of the given version, each starting with an ECI
// segment unless eci is 0.
func EncodeTextMulti(text string, cs split.Charset, eci uint32, version coding.Version, level Level) ([]*Code, error) {
	var header split.Data
	if eci != 0 {
		var err error
		if header, err = split.SetECI(eci); err != nil {
			return nil, err
		}
	}
	parts, err := split.SplitMulti(header, split.String{Text: text, Charset: cs}, version, level)
	if err != nil {
		return nil, err
	}
	codes := make([]*Code, len(parts))
	for i, segs := range parts {
		c, err := coding.Encode(version, level, segs...)
		if err != nil {
			return nil, err
		}
		codes[i] = newCode(c)
	}
	return codes, nil
}
