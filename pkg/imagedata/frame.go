// Package imagedata holds single-channel pixel frames and reads them from FITS
// files and ordinary raster images.
package imagedata

import (
	"image"
	"math"
)

// Frame is a single-channel image of float32 samples. Row 0 is the top of the
// displayed image.
type Frame struct {
	width, height int
	pix           []float32
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	return &Frame{width: width, height: height, pix: make([]float32, width*height)}
}

// NewFrameFrom wraps an existing row-major sample slice.
func NewFrameFrom(width, height int, pix []float32) *Frame {
	return &Frame{width: width, height: height, pix: pix}
}

func (f *Frame) Width() int  { return f.width }
func (f *Frame) Height() int { return f.height }

// At returns the sample at column x, row y.
func (f *Frame) At(x, y int) float64 { return float64(f.pix[y*f.width+x]) }

func (f *Frame) Set(x, y int, v float64) { f.pix[y*f.width+x] = float32(v) }

// Pix exposes the backing slice.
func (f *Frame) Pix() []float32 { return f.pix }

// Range returns the minimum and maximum sample, ignoring NaN.
func (f *Frame) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range f.pix {
		if v != v {
			continue
		}
		lo = math.Min(lo, float64(v))
		hi = math.Max(hi, float64(v))
	}
	return lo, hi
}

// FromImage converts a decoded raster image to luminance on a 16-bit scale.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			f.pix[y*f.width+x] = float32((19595*r + 38470*g + 7471*bl + 1<<15) >> 16)
		}
	}
	return f
}
