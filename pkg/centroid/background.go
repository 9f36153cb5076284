package centroid

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// sample is one annulus pixel relative to the current center.
type sample struct {
	dx, dy, v float64
}

// background is the sky model subtracted from aperture pixels.
type background struct {
	mean    float64
	plane   *FittedPlane
	samples int
}

func (b background) at(dx, dy float64) float64 {
	if b.plane != nil {
		return b.plane.At(dx, dy)
	}
	return b.mean
}

// window returns the inclusive pixel index range covering a circle of radius
// r around (cx, cy), clipped to the image.
func window(src PixelSource, cx, cy, r float64) (i0, i1, j0, j1 int) {
	i0 = max(0, int(math.Floor(cx-r)))
	i1 = min(src.Width()-1, int(math.Ceil(cx+r)))
	j0 = max(0, int(math.Floor(cy-r)))
	j1 = min(src.Height()-1, int(math.Ceil(cy+r)))
	return i0, i1, j0, j1
}

// annulus collects pixels whose centers lie in [inner, outer] of (cx, cy).
// Both boundaries are inclusive.
func annulus(src PixelSource, cx, cy, inner, outer float64) []sample {
	in2, out2 := inner*inner, outer*outer
	i0, i1, j0, j1 := window(src, cx, cy, outer)
	var out []sample
	for j := j0; j <= j1; j++ {
		dy := float64(j) + 0.5 - cy
		for i := i0; i <= i1; i++ {
			dx := float64(i) + 0.5 - cx
			r2 := dx*dx + dy*dy
			if r2 >= in2 && r2 <= out2 {
				out = append(out, sample{dx, dy, src.At(i, j)})
			}
		}
	}
	return out
}

// disk calls fn for every pixel whose center lies within r of (cx, cy).
func disk(src PixelSource, cx, cy, r float64, fn func(i, j int, dx, dy, v float64)) {
	r2 := r * r
	i0, i1, j0, j1 := window(src, cx, cy, r)
	for j := j0; j <= j1; j++ {
		dy := float64(j) + 0.5 - cy
		for i := i0; i <= i1; i++ {
			dx := float64(i) + 0.5 - cx
			if dx*dx+dy*dy <= r2 {
				fn(i, j, dx, dy, src.At(i, j))
			}
		}
	}
}

func values(s []sample) []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].v
	}
	return out
}

// rejectOutliers drops samples beyond 2 sigma of the mean until the mean
// settles or the pass limit is reached. It returns the kept samples and their
// mean.
func rejectOutliers(s []sample) ([]sample, float64) {
	mean, sd := stat.MeanStdDev(values(s), nil)
	for pass := 0; pass < rejectPasses && len(s) > 1; pass++ {
		kept := s[:0:0]
		for _, p := range s {
			if math.Abs(p.v-mean) <= rejectSigma*sd {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			break
		}
		newMean, newSD := stat.MeanStdDev(values(kept), nil)
		moved := math.Abs(newMean - mean)
		s, mean, sd = kept, newMean, newSD
		if moved < rejectSettle {
			break
		}
	}
	return s, mean
}

// estimateBackground measures the sky around (cx, cy). A non-positive
// annulus width disables background subtraction. usePlane is cleared when the
// plane cannot be fitted.
func estimateBackground(src PixelSource, cx, cy float64, p *Params, usePlane *bool) (background, error) {
	if p.OuterRadius <= p.InnerRadius {
		return background{}, nil
	}
	s := annulus(src, cx, cy, p.InnerRadius, p.OuterRadius)
	if len(s) == 0 {
		return background{}, ErrBackground
	}
	var mean float64
	if p.RemoveBackgroundStars {
		s, mean = rejectOutliers(s)
	} else {
		mean = stat.Mean(values(s), nil)
	}
	bg := background{mean: mean, samples: len(s)}
	if *usePlane {
		plane := &FittedPlane{}
		for _, x := range s {
			plane.Add(x.dx, x.dy, x.v)
		}
		if err := plane.Fit(); err != nil {
			*usePlane = false
		} else {
			bg.plane = plane
		}
	}
	return bg, nil
}
