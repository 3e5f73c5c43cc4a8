package main

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"

	qr "github.com/unixdj/qrcodec"
	"github.com/unixdj/qrcodec/coding"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// readSource reads a PBM or any registered image format from r.
func readSource(r io.Reader) (qr.Source, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil &&
		magic[0] == 'P' && (magic[1] == '1' || magic[1] == '4') {
		return qr.ReadPBM(br)
	}
	img, _, err := image.Decode(br)
	if err != nil {
		return nil, err
	}
	return qr.NewImageSource(img), nil
}

func decodeFile(fn string) (*coding.Result, error) {
	var r io.Reader = os.Stdin
	if fn != "-" {
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	src, err := readSource(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	res, err := qr.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	slog.Debug("decoded", "file", fn, "version", res.Version,
		"level", res.Level, "mask", int(res.Mask),
		"corrected", res.ErrorsCorrected, "mirrored", res.Mirrored,
		"eci", res.ECI, "segments", len(res.Segments))
	for _, seg := range res.Segments {
		slog.Debug("segment", "file", fn, "mode", seg.Mode,
			"text", seg.Text)
	}
	if sa := res.StructuredAppend; sa.Total != 0 {
		slog.Debug("structured append", "file", fn, "seq", sa.Seq+1,
			"total", sa.Total, "parity", sa.Parity)
	}
	return res, nil
}

// decodeFiles decodes the named images, or standard input if none,
// and writes the text to w, one line per code.  Structured append
// symbols are joined into one line.
func decodeFiles(w io.Writer, files []string) error {
	if len(files) == 0 {
		files = []string{"-"}
	}
	var parts []*coding.Result
	for _, fn := range files {
		res, err := decodeFile(fn)
		if err != nil {
			return err
		}
		if res.StructuredAppend.Total != 0 {
			parts = append(parts, res)
			continue
		}
		if _, err := fmt.Fprintln(w, res.Text); err != nil {
			return err
		}
	}
	if len(parts) == 0 {
		return nil
	}
	s, err := qr.Join(parts...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}
