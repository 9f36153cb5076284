// Package lsq fits linear combinations of basis functions to data by weighted
// least squares, solved with a singular value decomposition.
package lsq

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// singularTol is the fraction of the largest singular value below which a
// singular value is treated as zero.
const singularTol = 1e-12

var (
	ErrLength       = errors.New("lsq: x, y and sigma lengths differ")
	ErrTooFewPoints = errors.New("lsq: fewer points than basis terms")
	ErrSigma        = errors.New("lsq: sigma must be positive")
	ErrSVD          = errors.New("lsq: singular value decomposition failed")
)

// Basis is a set of functions evaluated at x.
type Basis interface {
	Terms() int
	Eval(x float64, dst []float64)
}

// Polynomial is the basis 1, x, ..., x^degree.
type Polynomial int

func (p Polynomial) Terms() int { return int(p) + 1 }

func (p Polynomial) Eval(x float64, dst []float64) {
	v := 1.0
	for i := range dst {
		dst[i] = v
		v *= x
	}
}

// Solution is the result of a fit.
type Solution struct {
	Coefficients []float64
	// Covariance is the coefficient covariance matrix; row-major, Terms x Terms.
	Covariance [][]float64
	ChiSquare  float64
	// Rank counts the singular values kept.
	Rank  int
	Basis Basis
}

// Eval evaluates the fitted function at x.
func (s *Solution) Eval(x float64) float64 {
	f := make([]float64, len(s.Coefficients))
	s.Basis.Eval(x, f)
	var y float64
	for i, c := range s.Coefficients {
		y += c * f[i]
	}
	return y
}

// Sigma is the standard error of coefficient i.
func (s *Solution) Sigma(i int) float64 { return math.Sqrt(s.Covariance[i][i]) }

// Fit minimizes sum(((y - f(x)) / sigma)^2). A nil sigma weights every point
// equally.
func Fit(x, y, sigma []float64, basis Basis) (*Solution, error) {
	n, m := len(x), basis.Terms()
	if len(y) != n || (sigma != nil && len(sigma) != n) {
		return nil, ErrLength
	}
	if n < m {
		return nil, fmt.Errorf("%w: %d points, %d terms", ErrTooFewPoints, n, m)
	}

	a := mat.NewDense(n, m, nil)
	b := make([]float64, n)
	row := make([]float64, m)
	for i := 0; i < n; i++ {
		s := 1.0
		if sigma != nil {
			s = sigma[i]
			if !(s > 0) {
				return nil, fmt.Errorf("%w: sigma[%d] = %g", ErrSigma, i, s)
			}
		}
		basis.Eval(x[i], row)
		for j := 0; j < m; j++ {
			a.Set(i, j, row[j]/s)
		}
		b[i] = y[i] / s
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, ErrSVD
	}
	w := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	wmax := 0.0
	for _, s := range w {
		wmax = math.Max(wmax, s)
	}
	thresh := singularTol * wmax

	sol := &Solution{Coefficients: make([]float64, m), Covariance: make([][]float64, m), Basis: basis}
	for j := range sol.Covariance {
		sol.Covariance[j] = make([]float64, m)
	}
	for k, wk := range w {
		if wk <= thresh {
			continue
		}
		sol.Rank++
		var ub float64
		for i := 0; i < n; i++ {
			ub += u.At(i, k) * b[i]
		}
		ub /= wk
		for j := 0; j < m; j++ {
			sol.Coefficients[j] += ub * v.At(j, k)
		}
		for j := 0; j < m; j++ {
			for l := 0; l < m; l++ {
				sol.Covariance[j][l] += v.At(j, k) * v.At(l, k) / (wk * wk)
			}
		}
	}

	for i := 0; i < n; i++ {
		r := y[i] - sol.Eval(x[i])
		if sigma != nil {
			r /= sigma[i]
		}
		sol.ChiSquare += r * r
	}
	return sol, nil
}
