// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/unixdj/qrcodec/coding"
	"github.com/unixdj/qrcodec/detect"
)

// Source is a binarised image.  Bitmap implements Source.
type Source = detect.Source

var (
	// ErrDetection wraps detect.ErrNotFound and detect.ErrGeometry.
	ErrDetection = errors.New("qr: no QR code detected")

	ErrStructuredAppend = errors.New("qr: inconsistent structured append symbols")
)

// Decode locates a QR code in src and decodes it.  If no code is
// found, src is searched again transposed, scanning its columns.
// If the sampled grid does not decode, it is sampled again one
// version larger and smaller.
func Decode(src Source) (*coding.Result, error) {
	r, err := decode(src)
	if !errors.Is(err, ErrDetection) {
		return r, err
	}
	if r, terr := decode(transposed{src}); terr == nil {
		r.Mirrored = !r.Mirrored
		return r, nil
	}
	return nil, err
}

func decode(src Source) (*coding.Result, error) {
	d := &detect.Detector{Source: src}
	det, err := d.Detect()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetection, err)
	}
	r, err := DecodeCode(det.Code)
	if err == nil {
		return r, nil
	}
	for _, delta := range []int{4, -4} {
		rd, rerr := d.Resample(det, det.Code.Size+delta)
		if rerr != nil {
			continue
		}
		if r, rerr := DecodeCode(rd.Code); rerr == nil {
			return r, nil
		}
	}
	return nil, err
}

// transposed mirrors a Source along its main diagonal.
type transposed struct {
	Source
}

func (t transposed) Width() int           { return t.Source.Height() }
func (t transposed) Height() int          { return t.Source.Width() }
func (t transposed) IsDark(x, y int) bool { return t.Source.IsDark(y, x) }

// DecodeCode decodes a sampled module grid.  If c does not decode,
// DecodeCode tries c mirrored along the main diagonal and sets
// Mirrored in the result; the error for c is returned if both fail.
func DecodeCode(c *coding.Code) (*coding.Result, error) {
	r, err := coding.Decode(c)
	if err == nil {
		return r, nil
	}
	if r, merr := coding.Decode(c.Transpose()); merr == nil {
		r.Mirrored = true
		return r, nil
	}
	return nil, err
}

// Join returns the text of structured append symbols decoded in any
// order.  A single symbol without structured append is returned as
// is.  Join checks that all the symbols are present and the parity
// matches.
func Join(results ...*coding.Result) (string, error) {
	if len(results) == 1 && results[0].StructuredAppend.Total == 0 {
		return results[0].Text, nil
	}
	if len(results) == 0 {
		return "", fmt.Errorf("%w: no symbols", ErrStructuredAppend)
	}
	rs := append([]*coding.Result(nil), results...)
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].StructuredAppend.Seq < rs[j].StructuredAppend.Seq
	})
	first := rs[0].StructuredAppend
	if first.Total != len(rs) {
		return "", fmt.Errorf("%w: %d of %d symbols", ErrStructuredAppend, len(rs), first.Total)
	}
	var (
		text strings.Builder
		par  byte
	)
	for i, r := range rs {
		sa := r.StructuredAppend
		if sa.Seq != i || sa.Total != first.Total || sa.Parity != first.Parity {
			return "", fmt.Errorf("%w: symbol %d: %+v", ErrStructuredAppend, i, sa)
		}
		for _, seg := range r.Segments {
			if seg.Mode.Raw() {
				continue
			}
			b, err := seg.Bytes()
			if err != nil {
				return "", err
			}
			for _, c := range b {
				par ^= c
			}
		}
		text.WriteString(r.Text)
	}
	if par != first.Parity {
		return "", fmt.Errorf("%w: parity %#02x, want %#02x", ErrStructuredAppend, par, first.Parity)
	}
	return text.String(), nil
}
