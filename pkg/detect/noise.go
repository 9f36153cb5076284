package detect

import (
	"gonum.org/v1/gonum/stat"

	"astrocore/pkg/imagedata"
)

const maxNoiseIterations = 5

// Noise is the background level of a frame.
type Noise struct {
	Sigma          float64
	BackgroundMean float64
	// NumIterations counts the statistics passes, the first unclipped one
	// included.
	NumIterations int
}

// EstimateNoise measures the background of f by kappa-sigma clipping. Pixels
// more than kappa sigmas above the mean are set aside and the statistics
// recomputed until a pass clips nothing new.
func EstimateNoise(f *imagedata.Frame, kappa float64) Noise {
	pix := f.Pix()
	if len(pix) == 0 {
		return Noise{}
	}
	kept := make([]float64, len(pix))
	for i, v := range pix {
		kept[i] = float64(v)
	}

	mean, sigma := stat.PopMeanStdDev(kept, nil)
	n := Noise{NumIterations: 1}
	for n.NumIterations < maxNoiseIterations {
		limit := mean + kappa*sigma
		next := kept[:0]
		for _, v := range kept {
			if v <= limit {
				next = append(next, v)
			}
		}
		if len(next) == len(kept) || len(next) == 0 {
			break
		}
		kept = next
		mean, sigma = stat.PopMeanStdDev(kept, nil)
		n.NumIterations++
	}
	n.BackgroundMean, n.Sigma = mean, sigma
	return n
}

// reduceNoise returns a copy of f with hot pixels removed by a 3x3 median and
// the rest smoothed by a Gaussian of 2r+1 pixels, as p asks.
func reduceNoise(f *imagedata.Frame, p Params) *imagedata.Frame {
	w, h := f.Width(), f.Height()
	m := NewMatWithSize(h, w)
	defer m.Close()
	copy(m.DataFloat32(), f.Pix())

	if p.HotpixelFiltering {
		medianBlur(m, &m, 3)
	}
	if r := p.NoiseReductionRadius; r > 0 {
		size := 2*r + 1
		kernel := getGaussianKernel1D(size, 0.159758*float64(size))
		sepFilter2DReflect(m, &m, kernel, kernel)
		kernel.Close()
	}

	pix := make([]float32, w*h)
	copy(pix, m.DataFloat32())
	return imagedata.NewFrameFrom(w, h, pix)
}
