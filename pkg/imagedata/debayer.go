package imagedata

import (
	"strings"

	"astrocore/pkg/fitsheader"
)

// CFA is the 2x2 colour filter layout of a one-shot colour sensor, listed row
// by row starting at the first pixel of the file.
type CFA [4]byte

var (
	RGGB = CFA{'R', 'G', 'G', 'B'}
	BGGR = CFA{'B', 'G', 'G', 'R'}
	GRBG = CFA{'G', 'R', 'B', 'G'}
	GBRG = CFA{'G', 'B', 'R', 'G'}
)

func (c CFA) String() string { return string(c[:]) }

// ParseCFA reads a BAYERPAT value such as "RGGB".
func ParseCFA(s string) (CFA, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 4 {
		return CFA{}, false
	}
	var c CFA
	var r, g, b int
	for i := 0; i < 4; i++ {
		switch s[i] {
		case 'R':
			r++
		case 'G':
			g++
		case 'B':
			b++
		default:
			return CFA{}, false
		}
		c[i] = s[i]
	}
	if r != 1 || g != 2 || b != 1 {
		return CFA{}, false
	}
	return c, true
}

// CFAFromHeader returns the layout named by BAYERPAT shifted by XBAYROFF and
// YBAYROFF. RGGB is assumed when BAYERPAT is missing or unreadable.
func CFAFromHeader(h fitsheader.Header) CFA {
	cfa := RGGB
	if s, ok := h.Text("BAYERPAT"); ok {
		if c, ok := ParseCFA(s); ok {
			cfa = c
		}
	}
	dx, _ := h.Int("XBAYROFF")
	dy, _ := h.Int("YBAYROFF")
	return cfa.Shift(dx, dy)
}

// Shift returns the layout seen from a pixel offset of (dx, dy).
func (c CFA) Shift(dx, dy int) CFA {
	var out CFA
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			out[y*2+x] = c.at(x+dx, y+dy)
		}
	}
	return out
}

func (c CFA) at(x, y int) byte { return c[(y&1)*2+(x&1)] }

func channel(b byte) int {
	switch b {
	case 'R':
		return 0
	case 'G':
		return 1
	}
	return 2
}

// Debayer turns a mosaic with layout c into luminance, the mean of the three
// colour planes. Each plane is filled from the samples of its colour inside
// the 3x3 window around the pixel, which is bilinear interpolation away from
// the borders. The mosaic must be in file row order.
func Debayer(f *Frame, c CFA) *Frame {
	w, h := f.width, f.height
	out := NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum [3]float64
			var n [3]int
			for yy := max(y-1, 0); yy <= min(y+1, h-1); yy++ {
				for xx := max(x-1, 0); xx <= min(x+1, w-1); xx++ {
					ch := channel(c.at(xx, yy))
					sum[ch] += float64(f.pix[yy*w+xx])
					n[ch]++
				}
			}
			var lum float64
			for ch := range sum {
				if n[ch] > 0 {
					lum += sum[ch] / float64(n[ch])
				}
			}
			out.pix[y*w+x] = float32(lum / 3)
		}
	}
	return out
}
