package centroid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// FittedPlane accumulates (dx, dy, value) samples and fits
// value = a + b*dx + c*dy by least squares.
type FittedPlane struct {
	dx, dy, v []float64
	a, b, c   float64
	fitted    bool
}

// Add records one sample.
func (p *FittedPlane) Add(dx, dy, v float64) {
	p.dx = append(p.dx, dx)
	p.dy = append(p.dy, dy)
	p.v = append(p.v, v)
	p.fitted = false
}

// Len is the number of samples.
func (p *FittedPlane) Len() int { return len(p.v) }

// Fit solves for the plane coefficients.
func (p *FittedPlane) Fit() error {
	n := len(p.v)
	if n < 3 || collinear(p.dx, p.dy) {
		return ErrDegeneratePlane
	}
	a := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		a.Set(i, 0, 1)
		a.Set(i, 1, p.dx[i])
		a.Set(i, 2, p.dy[i])
	}
	var qr mat.QR
	qr.Factorize(a)
	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, mat.NewVecDense(n, p.v)); err != nil {
		return fmt.Errorf("%w: %v", ErrDegeneratePlane, err)
	}
	p.a, p.b, p.c = x.AtVec(0), x.AtVec(1), x.AtVec(2)
	p.fitted = true
	return nil
}

// At evaluates the fitted plane. It returns NaN before a successful Fit.
func (p *FittedPlane) At(dx, dy float64) float64 {
	if !p.fitted {
		return math.NaN()
	}
	return p.a + p.b*dx + p.c*dy
}

// Coefficients returns a, b and c of value = a + b*dx + c*dy.
func (p *FittedPlane) Coefficients() (float64, float64, float64) { return p.a, p.b, p.c }

// collinear reports whether all sample positions lie on one line.
func collinear(xs, ys []float64) bool {
	n := float64(len(xs))
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n
	var sxx, syy, sxy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	return sxx == 0 || syy == 0 || sxx*syy-sxy*sxy <= 1e-12*sxx*syy
}
