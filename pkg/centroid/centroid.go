// Package centroid refines the position of a point source from pixel data and
// reports its background, peak and second-moment shape.
//
// Pixel centers sit at integer+0.5; a position (x, y) lies inside pixel
// (floor(x), floor(y)). Aperture and annulus membership compare squared
// distances, with the disk boundary and both annulus boundaries inclusive.
package centroid

import (
	"fmt"
	"math"

	"astrocore/pkg/sphere"
)

// Measure locates the source near (x, y). On failure the returned Result
// keeps the starting position with zeroed statistics and the error wraps one
// of ErrNoSignal, ErrRunaway or ErrBackground.
func Measure(src PixelSource, x, y float64, p *Params) (*Result, error) {
	res := &Result{X: x, Y: y, Radius: p.Radius, InnerRadius: p.InnerRadius, OuterRadius: p.OuterRadius}
	fail := func(err error) (*Result, error) {
		return &Result{X: x, Y: y, Radius: p.Radius, InnerRadius: p.InnerRadius, OuterRadius: p.OuterRadius},
			fmt.Errorf("centroid at %.2f,%.2f: %w", x, y, err)
	}

	usePlane := p.PlaneBackground
	cx, cy := x, y
	bg, err := estimateBackground(src, cx, cy, p, &usePlane)
	if err != nil {
		return fail(err)
	}

	if p.Reposition {
		maxIter := p.MaxIterations
		if maxIter <= 0 {
			maxIter = defaultMaxIterations
		}
		tol := p.Tolerance
		if tol <= 0 {
			tol = defaultTolerance
		}
		for it := 1; it <= maxIter; it++ {
			ox, oy, err := offset(src, cx, cy, p, bg)
			if err != nil {
				return fail(err)
			}
			nx, ny := cx+ox, cy+oy
			if math.Hypot(nx-x, ny-y) > 2*p.Radius {
				return fail(ErrRunaway)
			}
			cx, cy = nx, ny
			res.Iterations = it
			// a step below tolerance keeps the background of the last center
			if math.Abs(ox) < tol && math.Abs(oy) < tol {
				res.Converged = true
				break
			}
			if bg, err = estimateBackground(src, cx, cy, p, &usePlane); err != nil {
				return fail(err)
			}
		}
	}

	res.X, res.Y = cx, cy
	res.Background = bg.at(0, 0)
	res.BackgroundSamples = bg.samples
	res.Plane = bg.plane != nil
	if !finalStats(src, res, p, bg) && p.Reposition {
		return fail(ErrNoSignal)
	}
	return res, nil
}

func offset(src PixelSource, cx, cy float64, p *Params, bg background) (float64, float64, error) {
	if p.Estimator == EstimatorHowell {
		return howellOffset(src, cx, cy, p.Radius, bg)
	}
	return momentOffset(src, cx, cy, p.Radius, bg)
}

func peak(src PixelSource, cx, cy, r float64, bg background) float64 {
	pk := math.Inf(-1)
	disk(src, cx, cy, r, func(_, _ int, dx, dy, v float64) {
		pk = math.Max(pk, v-bg.at(dx, dy))
	})
	return pk
}

func momentOffset(src PixelSource, cx, cy, r float64, bg background) (float64, float64, error) {
	pk := peak(src, cx, cy, r, bg)
	if !(pk > 0) {
		return 0, 0, ErrNoSignal
	}
	var sw, sx, sy float64
	disk(src, cx, cy, r, func(_, _ int, dx, dy, v float64) {
		w := (v - bg.at(dx, dy)) / pk
		sw += w
		sx += w * dx
		sy += w * dy
	})
	if !(sw > 0) {
		return 0, 0, ErrNoSignal
	}
	return sx / sw, sy / sw, nil
}

func howellOffset(src PixelSource, cx, cy, r float64, bg background) (float64, float64, error) {
	i0, i1, j0, j1 := window(src, cx, cy, r)
	if i1 < i0 || j1 < j0 {
		return 0, 0, ErrNoSignal
	}
	cols := newMarginal(i0, i1)
	rows := newMarginal(j0, j1)
	disk(src, cx, cy, r, func(i, j int, dx, dy, v float64) {
		net := v - bg.at(dx, dy)
		cols.add(i, net)
		rows.add(j, net)
	})
	ox, okx := cols.offset(cx)
	oy, oky := rows.offset(cy)
	if !okx || !oky {
		return 0, 0, ErrNoSignal
	}
	return ox, oy, nil
}

// marginal is a row or column sum over the aperture.
type marginal struct {
	first int
	sum   []float64
	used  []bool
}

func newMarginal(first, last int) *marginal {
	n := last - first + 1
	return &marginal{first: first, sum: make([]float64, n), used: make([]bool, n)}
}

func (m *marginal) add(idx int, v float64) {
	m.sum[idx-m.first] += v
	m.used[idx-m.first] = true
}

// offset weights pixel positions by the positive residuals of the marginal
// about its mean and returns the mean position relative to center.
func (m *marginal) offset(center float64) (float64, bool) {
	var total float64
	n := 0
	for k, s := range m.sum {
		if m.used[k] {
			total += s
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	mean := total / float64(n)
	var sw, sp float64
	for k, s := range m.sum {
		if !m.used[k] {
			continue
		}
		if d := s - mean; d > 0 {
			sw += d
			sp += d * (float64(m.first+k) + 0.5 - center)
		}
	}
	if sw <= 0 {
		return 0, false
	}
	return sp / sw, true
}

// finalStats fills peak, flux and shape statistics at the result position.
// It returns false, with the statistics zeroed, when the aperture has no
// net signal.
func finalStats(src PixelSource, res *Result, p *Params, bg background) bool {
	cx, cy := res.X, res.Y
	pk := peak(src, cx, cy, p.Radius, bg)

	var sw, m20, m02, m11 float64
	var ws []float64
	disk(src, cx, cy, p.Radius, func(_, _ int, dx, dy, v float64) {
		w := v - bg.at(dx, dy)
		sw += w
		m20 += w * dx * dx
		m02 += w * dy * dy
		m11 += w * dx * dy
		ws = append(ws, w)
	})
	if !(sw > 0) || !(pk > 0) {
		res.Peak, res.Flux = 0, 0
		res.WidthX, res.WidthY, res.FWHM = 0, 0, 0
		res.Orientation, res.Eccentricity, res.Variance = 0, 0, 0
		return false
	}
	m20 /= sw
	m02 /= sw
	m11 /= sw

	res.Peak = pk
	res.Flux = sw
	res.WidthX = math.Sqrt(math.Max(m20, 0)) / fwhmPerMoment
	res.WidthY = math.Sqrt(math.Max(m02, 0)) / fwhmPerMoment
	res.FWHM = math.Sqrt(math.Max((m20+m02)/2, 0)) / fwhmPerMoment
	res.Orientation = 0.5 * sphere.Atan2D(2*m11, m20-m02)
	if s := m20 + m02; s != 0 {
		d := m20 - m02
		res.Eccentricity = (d*d + 4*m11*m11) / (s * s)
	}

	var mean float64
	for i := range ws {
		ws[i] /= pk
		mean += ws[i]
	}
	mean /= float64(len(ws))
	var v float64
	for _, w := range ws {
		v += (w - mean) * (w - mean)
	}
	res.Variance = v / float64(len(ws))
	return true
}
