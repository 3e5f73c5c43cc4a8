package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"

	qr "github.com/unixdj/qrcodec"
	"github.com/unixdj/qrcodec/coding"
	"github.com/unixdj/qrcodec/split"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"
	"golang.org/x/text/encoding/japanese"
)

// Environment:
//   QR_LEVEL: default error correction level
//   QR_DEBUG: if not empty, same as -D

var g = struct {
	scale    int            // scale
	border   int            // quiet zone
	rev      bool           // reverse colours
	fn       string         // filename
	fext     string         // filename suffix
	lev      qr.Level       // QR correction level
	ver      coding.Version // QR version
	format   int            // output file format
	cx       int            // randr source X coordinate index in inc
	inc      [2]int         // randr source X,Y coordinate increments
	eci      int            // ECI segment value
	ai       string         // FNC1 application indicator
	bg, fg   rgba           // colour
	colSet   bool           // colour set
	eciflag  bool           // ECI flag
	fnc1flag bool           // FNC1 flag
	latin1   bool           // Latin-1 byte mode
	sjis     bool           // Shift JIS input
	hanzi    bool           // hanzi instead of kanji mode
	nokanji  bool           // kanji mode disabled
	eightBit bool           // 8 bit input
	byteOnly bool           // byte mode only
	upper    bool           // uppercase
	multi    bool           // structured append
	decode   bool           // decode images
	debug    bool           // debug log
}{
	inc: [2]int{1, 1},
	bg:  rgba{0xff, 0xff, 0xff, 0xff},
	fg:  rgba{0x00, 0x00, 0x00, 0xff},
}

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	prog := cl.Program()
	ul := make([]string, 1, 4)
	ul[0] = cl.UsageLine() + " [string ...]"
	ml := max(70-len("Usage: ")-1-len(prog), 0)
	for i := 0; len(ul[i]) > ml; i++ {
		s := ul[i]
		n := ml - 1
		for n > 0 && (s[n] != ' ' || s[n+1] != '[') {
			n--
		}
		ul = append(ul, s[n+1:])
		ul[i] = s[:max(n, 0)]
		ml = 60
	}
	fmt.Fprint(w, "QR code encoder and decoder\nUsage: ", prog, " ",
		strings.Join(ul, "\n          "), `
If no string is given, data is read from standard input and the final
newline is stripped.  Defaults: UTF-8 input, no conversion, kanji mode
segments enabled, no ECI segment.  With -d, the arguments are image
files (PNG, JPEG, GIF, BMP, TIFF, WebP or PBM) to decode; structured
append symbols are joined.

`)
	var b bytes.Buffer
	cl.PrintOptions(&b)
	bb := b.Bytes()
	if n := bytes.Index(bb, []byte(" [-1]")); n > 0 {
		w.Write(bb[:n])
		bb = bb[n+len(" [-1]"):]
	}
	w.Write(bb)
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`qr version 0.9.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2025 Vadim Vygonets`)
	os.Exit(0)
}

func flip() {
	g.inc[0] = -g.inc[0]
}

func rotate() {
	g.cx ^= 1
	m := g.inc[0] * g.inc[1]
	g.inc[0] *= m
	g.inc[1] *= -m
}

func noKanji() {
	g.eightBit = g.nokanji
	g.nokanji = true
}

type rgba struct {
	R, G, B, A uint8
}

func (c *rgba) String() string {
	if *c == (rgba{0x00, 0x00, 0x00, 0xff}) {
		return "black"
	} else if *c == (rgba{0xff, 0xff, 0xff, 0xff}) {
		return "white"
	} else if c.A == 0xff {
		return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
	} else {
		return fmt.Sprintf("%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
	}
}

func (c *rgba) Set(s string, _ getopt.Option) error {
	g.colSet = true
	var ok bool
	if *c, ok = rgb[strings.ToLower(strings.ReplaceAll(s, " ", ""))]; ok {
		return nil
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("%q: bad colour spec", s)
	}
	switch len(s) {
	case 3:
		n = n<<4 | 0xf
		fallthrough
	case 4:
		var nn uint64
		for i := 0; i < 4; i++ {
			nn <<= 8
			nn |= n >> 12 & 0xf * 0x11
			n <<= 4
		}
		n = nn
	case 6:
		n = n<<8 | 0xff
	case 8:
	default:
		return fmt.Errorf("%q: bad colour spec", s)
	}
	c.R, c.G, c.B, c.A = uint8(n>>24), uint8(n>>16), uint8(n>>8), uint8(n)
	return nil
}

var formats = []string{
	"png", "pngi", "pbm", "pbmi", "eps", "epsi",
	"utf8", "utf8i", "ascii", "asciii",
}

var encoders = [...]func(*qr.Code, io.Writer) error{
	encodePNG,
	(*qr.Code).EncodePBM,
	eps,
	func(c *qr.Code, w io.Writer) error {
		_, err := fmt.Fprint(w, c)
		return err
	},
	ascii,
}

// envLevel returns the default correction level from QR_LEVEL.
func envLevel() string {
	if s := strings.ToLower(os.Getenv("QR_LEVEL")); len(s) == 1 &&
		strings.Contains("lmqh", s) {
		return s
	}
	return "l"
}

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.Flag(&g.debug, 'D', "log debug information to standard error")
	getopt.Flag(&g.decode, 'd', "decode QR codes in image files")
	getopt.FlagLong(&g.bg, "background", 'B', `background colour; see -F`,
		"RGB[A]|name")
	getopt.FlagLong(&g.fg, "foreground", 'F', `foreground colour `+
		`as 3, 4, 6 or 8 hex digits or X11 rgb.txt colour name; `+
		`only for types png[i] and eps[i]`, "RGB[A]|name")
	getopt.Flag(opt(flip), 'f', `flip code horizontally; `+
		`to flip vertically, use "-frr"`).SetFlag()
	getopt.Flag(opt(rotate), 'r', `rotate code 90° counterclockwise; `+
		`-r and -f may be given multiple times, `+
		`order matters: "-fr" = "-rfrr" = "-rrrf"`).SetFlag()
	getopt.Flag(opt(noKanji), 'K', "disable kanji mode; "+
		`-KK: treat input as 8 bit`).SetFlag()
	getopt.Flag(&g.hanzi, 'z', "use hanzi mode instead of kanji mode")
	getopt.Flag(&g.latin1, '1',
		"convert byte mode segments to Latin-1")
	getopt.Flag(&g.byteOnly, '8', "encode entire data in byte mode")
	getopt.Flag(&g.sjis, 'k', "Shift JIS input, converted to UTF-8")
	getopt.Flag(&g.upper, 'i', `ignore case, convert input to uppercase`)
	getopt.Flag(&g.multi, 'S', `encode structured append symbols `+
		`(multiple QR codes); -v should be specified`)
	getopt.Flag(&g.border, 'm', `quiet zone modules`, "margin")
	fno := getopt.Flag(&g.fn, 'o', `output file, or "-" for `+
		`standard output; with -S, "-01", "-02" etc. is appended `+
		`to the filename before suffix`, "file")
	getopt.Flag(&g.eciflag, 'e', "encode ECI segment setting "+
		"character encoding according to -1 flag")
	getopt.Flag(&g.fnc1flag, 'c', "set FNC1 in first position")
	ai := getopt.String('C', "", "set FNC1 in second position with "+
		"the given application indicator, two digits or a letter", "ai")
	eci := getopt.Signed('E', -1, &getopt.SignedLimit{Base: 0, Bits: 21, Min: 0, Max: 999999},
		"encode ECI segment with the given value; overrides -e", "eci")
	ver := getopt.Unsigned('v', 1, &getopt.UnsignedLimit{Base: 0, Bits: 8, Min: 1, Max: 40},
		"QR code version; required for -S", "ver")
	lev := getopt.Enum('l',
		[]string{"l", "m", "q", "h", "L", "M", "Q", "H"}, envLevel(),
		"error correction level, lowest to highest", "l|m|q|h")
	scale := getopt.Unsigned('s', qr.DefaultScale,
		&(getopt.UnsignedLimit{Base: 0, Bits: 28, Min: 1, Max: 1 << 28}),
		`image pixels (type eps[i]: points) per QR module; `+
			`ignored for types utf8[i] and ascii[i]`, "scale")
	ff := getopt.Enum('t', formats, "", `output format, one of: `+
		strings.Join(formats, ", ")+
		`; types with "i" appended have colours inverted; `+
		`if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise png`, "type")

	getopt.Parse()
	if g.fnc1flag && getopt.IsSet('C') {
		fmt.Fprintln(os.Stderr, "-c and -C are incompatible")
		usage()
	}
	if g.multi {
		for _, v := range "8cC" {
			if getopt.IsSet(v) {
				fmt.Fprintf(os.Stderr,
					"-S and -%c are incompatible\n", v)
				usage()
			}
		}
	}
	if getopt.IsSet('C') {
		g.ai = *ai
		g.fnc1flag = true
	}
	g.scale = int(*scale)
	g.ver = coding.Auto
	if g.multi || getopt.IsSet('v') {
		g.ver = coding.Version(*ver)
	}
	g.lev = qr.Level(strings.Index("lmqhLMQH", *lev) & 3)
	g.eci = int(*eci)
	if !getopt.IsSet('m') {
		g.border = qr.DefaultBorder
	}
	if *ff == "" {
		if !fno.Seen() && isatty.IsTerminal(os.Stdout.Fd()) {
			*ff = "utf8"
		} else {
			*ff = "png"
		}
	}
	for i, v := range formats {
		if *ff == v {
			g.format = i >> 1
			g.rev = i&1 != 0
			break
		}
	}
	if g.fn == "-" {
		g.fn = ""
	}
	if g.eciflag && !getopt.IsSet('E') {
		if g.latin1 {
			g.eci = qr.Latin1ECI
		} else {
			g.eci = qr.UTF8ECI
		}
	}
	if g.eci < 0 {
		g.eci = 0
	}
	if os.Getenv("QR_DEBUG") != "" {
		g.debug = true
	}
}

// charset returns the segmentation charset for the flags.
//
//	-KK:     8 bit input, byte mode without conversion
//	-1:      byte mode segments in Latin-1
//	-K:      no kanji mode
//	-z:      hanzi mode instead of kanji
//	default: UTF-8, kanji mode
func charset() split.Charset {
	if g.eightBit {
		return split.ASCIICompat
	}
	cs := split.UTF8
	switch {
	case g.latin1:
		cs = split.UTF8AsLatin1
	case g.hanzi:
		cs = split.UTF8Hanzi
	}
	if g.nokanji {
		cs.Multi = split.Disabled
	}
	return cs
}

// data returns the segments to encode for s.
func data(s string, cs split.Charset) (split.Data, error) {
	eci, err := split.SetECI(uint32(g.eci))
	if err != nil {
		return nil, err
	}
	if g.byteOnly {
		t := split.Segment{Text: s, Mode: coding.Byte}
		if g.latin1 && !g.eightBit {
			t.Mode = coding.Latin1
		}
		if !g.fnc1flag {
			return split.List{eci, t}, nil
		}
		fnc1, err := split.SetFNC1(g.ai)
		if err != nil {
			return nil, err
		}
		return split.List{eci, fnc1, t}, nil
	}
	if g.fnc1flag {
		d, err := split.FNC1Text(s, cs, g.ai)
		if err != nil {
			return nil, err
		}
		return split.List{eci, d}, nil
	}
	return split.Text(s, cs, uint32(g.eci)), nil
}

func input() string {
	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			log.Fatalln(err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}
	if g.sjis {
		var err error
		if s, err = japanese.ShiftJIS.NewDecoder().String(s); err != nil {
			log.Fatalln(err)
		}
	}
	if g.upper {
		s = strings.ToUpper(s)
	}
	return s
}

func main() {
	log.SetFlags(0)
	parseFlags()
	level := slog.LevelInfo
	if g.debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level})))

	if g.decode {
		if err := decodeFiles(os.Stdout, getopt.Args()); err != nil {
			log.Fatalln(err)
		}
		return
	}

	s := input()
	cs := charset()
	if g.multi {
		g.fext = path.Ext(g.fn)
		g.fn = g.fn[:len(g.fn)-len(g.fext)]
		cc, err := qr.EncodeTextMulti(s, cs, uint32(g.eci), g.ver, g.lev)
		if err != nil {
			log.Fatalln(err)
		}
		for i := range cc {
			write(i, cc[i])
		}
		return
	}
	d, err := data(s, cs)
	if err != nil {
		log.Fatalln(err)
	}
	c, err := qr.EncodeData(d, g.ver, g.lev)
	if err != nil {
		log.Fatalln(err)
	}
	write(-1, c)
}

func write(i int, c *qr.Code) {
	slog.Debug("encoded", "symbol", i+1, "version", c.Version,
		"level", c.Level, "mask", int(c.Mask), "size", c.Size)
	fn := g.fn
	open := fn != "" || g.fext != ""
	var w = os.Stdout
	if open {
		if i >= 0 {
			fn = fmt.Sprintf("%s-%02d%s", fn, i+1, g.fext)
		}
		var err error
		if w, err = os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
			0666); err != nil {
			log.Fatalln(err)
		}
	}
	c = randr(c, g.cx, g.inc)
	c.Scale = g.scale
	c.Border = g.border
	c.Reverse = g.rev
	err := encoders[g.format](c, w)
	if open && err == nil {
		err = w.Close()
	}
	if err != nil {
		log.Fatalln(err)
	}
}

// randr rotates and reflects c.  inc holds the source X and Y
// increments; cx is the index of the source X coordinate.
func randr(c *qr.Code, cx int, inc [2]int) *qr.Code {
	if cx == 0 && inc == [2]int{1, 1} {
		return c
	}
	siz := c.Size
	start := func(inc int) int {
		if inc < 0 {
			return siz - 1
		}
		return 0
	}
	rc := coding.NewCode(siz, func(x, y int) bool {
		var coord [2]int
		coord[cx] = start(inc[0]) + x*inc[0]
		coord[cx^1] = start(inc[1]) + y*inc[1]
		return c.Black(coord[0], coord[1])
	})
	rc.Version, rc.Level, rc.Mask = c.Version, c.Level, c.Mask
	return &qr.Code{Code: rc, Scale: c.Scale, Border: c.Border,
		Reverse: c.Reverse}
}
