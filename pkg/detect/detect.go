/*
Extracted from HocusFocus plugin by George Hilios.
Original Copyright © 2021 George Hilios <ghilios+NINA@googlemail.com>
Licensed under Mozilla Public License 2.0.
Ported to Go.
*/

// Package detect finds star candidates in a frame: local maxima of a
// noise-reduced copy that rise above a kappa-sigma background threshold.
package detect

import (
	"context"
	"math"
	"sort"

	"astrocore/pkg/imagedata"
)

// Params controls candidate detection.
type Params struct {
	// HotpixelFiltering applies a 3x3 median before anything else.
	HotpixelFiltering bool
	// NoiseReductionRadius sets a Gaussian blur of 2r+1 pixels; 0 disables.
	NoiseReductionRadius int
	// NoiseClippingMultiplier is the kappa of the background estimate.
	NoiseClippingMultiplier float64
	// Sensitivity is the detection threshold in background sigmas.
	Sensitivity float64
	// MinSeparation drops fainter candidates closer than this many pixels.
	MinSeparation float64
	// Border excludes candidates this close to the frame edge.
	Border int
	// SaturationThreshold skips candidates whose raw peak reaches it; 0 disables.
	SaturationThreshold float64
	// MaxStars caps the result, brightest first; 0 means no cap.
	MaxStars int
}

// DefaultParams are tuned for typical deep-sky frames.
func DefaultParams() Params {
	return Params{
		HotpixelFiltering:       true,
		NoiseReductionRadius:    1,
		NoiseClippingMultiplier: 4,
		Sensitivity:             5,
		MinSeparation:           8,
		Border:                  8,
	}
}

// Candidate is a detected peak in host pixel coordinates (pixel centers at
// integer + 0.5).
type Candidate struct {
	X, Y float64
	// Peak is the noise-reduced value above the background mean.
	Peak float64
}

// Result is the output of Find.
type Result struct {
	Candidates []Candidate
	Noise      Noise
	Threshold  float64
}

// Find scans a frame for star candidates. The scan honours ctx cancellation
// between rows.
func Find(ctx context.Context, f *imagedata.Frame, p Params) (*Result, error) {
	smooth := reduceNoise(f, p)
	noise := EstimateNoise(smooth, p.NoiseClippingMultiplier)
	threshold := noise.BackgroundMean + p.Sensitivity*noise.Sigma

	data := smooth.Pix()
	w, h := smooth.Width(), smooth.Height()
	border := max(p.Border, 1)

	var found []Candidate
	for y := border; y < h-border; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := border; x < w-border; x++ {
			v := data[y*w+x]
			if float64(v) <= threshold || !localMax(data, w, x, y) {
				continue
			}
			if p.SaturationThreshold > 0 && f.At(x, y) >= p.SaturationThreshold {
				continue
			}
			found = append(found, Candidate{
				X:    float64(x) + 0.5,
				Y:    float64(y) + 0.5,
				Peak: float64(v) - noise.BackgroundMean,
			})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Peak > found[j].Peak })
	kept := suppress(found, p.MinSeparation)
	if p.MaxStars > 0 && len(kept) > p.MaxStars {
		kept = kept[:p.MaxStars]
	}
	return &Result{Candidates: kept, Noise: noise, Threshold: threshold}, nil
}

// localMax reports whether (x, y) is the maximum of its 3x3 neighborhood.
// Ties go to the first pixel in scan order.
func localMax(data []float32, w, x, y int) bool {
	v := data[y*w+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := data[(y+dy)*w+x+dx]
			if n > v || (n == v && (dy < 0 || (dy == 0 && dx < 0))) {
				return false
			}
		}
	}
	return true
}

// suppress keeps candidates, brightest first, that are at least sep pixels
// from every brighter candidate already kept.
func suppress(sorted []Candidate, sep float64) []Candidate {
	if sep <= 0 {
		return sorted
	}
	sep2 := sep * sep
	kept := make([]Candidate, 0, len(sorted))
	for _, c := range sorted {
		ok := true
		for _, k := range kept {
			dx, dy := c.X-k.X, c.Y-k.Y
			if dx*dx+dy*dy < sep2 {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, c)
		}
	}
	return kept
}

// apertureHWHM scales a half width at half maximum to the aperture radius at
// which the moment FWHM of a Gaussian matches its true FWHM (2.08 sigma).
const apertureHWHM = 2.08 / 1.1774100225154747

const (
	minRadius = 3.0
	maxRadius = 20.0
)

// Radius suggests a centroid aperture radius for a candidate from the half
// width at half maximum along its row, clamped to [3, 20] pixels.
func Radius(f *imagedata.Frame, c Candidate, background float64) float64 {
	x, y := int(c.X), int(c.Y)
	peak := f.At(x, y) - background
	if peak <= 0 {
		return minRadius
	}
	half := peak / 2
	prev := peak
	hwhm := maxRadius
	for k := 1; k <= int(maxRadius) && x+k < f.Width(); k++ {
		v := f.At(x+k, y) - background
		if v <= half {
			hwhm = float64(k-1) + (prev-half)/(prev-v)
			break
		}
		prev = v
	}
	return math.Min(math.Max(apertureHWHM*hwhm, minRadius), maxRadius)
}
