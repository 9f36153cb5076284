package lsq

import (
	"errors"
	"fmt"
)

// ErrNoMinimum is returned when the fitted focus parabola opens downwards.
var ErrNoMinimum = errors.New("lsq: focus curve has no minimum")

// FocusFit is a parabola fitted to star width against focuser position.
type FocusFit struct {
	Best      float64
	MinWidth  float64
	ChiSquare float64
	// Coefficients of width = c0 + c1*(p-Offset) + c2*(p-Offset)^2.
	Coefficients [3]float64
	Offset       float64
}

// Width evaluates the fitted curve at a focuser position.
func (f *FocusFit) Width(pos float64) float64 {
	d := pos - f.Offset
	return f.Coefficients[0] + d*(f.Coefficients[1]+d*f.Coefficients[2])
}

// FitFocusCurve fits width = a + b*p + c*p^2 and returns the position of the
// minimum. Positions are centered on their mean before fitting.
func FitFocusCurve(positions, widths []float64) (*FocusFit, error) {
	if len(positions) != len(widths) {
		return nil, ErrLength
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrTooFewPoints)
	}
	var mean float64
	for _, p := range positions {
		mean += p
	}
	mean /= float64(len(positions))
	centered := make([]float64, len(positions))
	for i, p := range positions {
		centered[i] = p - mean
	}

	sol, err := Fit(centered, widths, nil, Polynomial(2))
	if err != nil {
		return nil, fmt.Errorf("fit focus curve: %w", err)
	}
	c := sol.Coefficients
	if !(c[2] > 0) {
		return nil, ErrNoMinimum
	}
	f := &FocusFit{
		Coefficients: [3]float64{c[0], c[1], c[2]},
		Offset:       mean,
		ChiSquare:    sol.ChiSquare,
	}
	f.Best = mean - c[1]/(2*c[2])
	f.MinWidth = f.Width(f.Best)
	return f, nil
}
