package lsq

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestFitLine(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{2, 5, 8, 11}
	sol, err := Fit(x, y, nil, Polynomial(1))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sol.Coefficients[0]-2) > 1e-10 || math.Abs(sol.Coefficients[1]-3) > 1e-10 {
		t.Fatalf("coefficients %v", sol.Coefficients)
	}
	if sol.ChiSquare > 1e-20 || sol.Rank != 2 {
		t.Fatalf("chi2 %v rank %d", sol.ChiSquare, sol.Rank)
	}
	// closed form for a unit-weight straight line
	want := [][]float64{{0.7, -0.3}, {-0.3, 0.2}}
	for i := range want {
		for j := range want[i] {
			if math.Abs(sol.Covariance[i][j]-want[i][j]) > 1e-10 {
				t.Fatalf("covariance %v", sol.Covariance)
			}
		}
	}
	if math.Abs(sol.Sigma(1)-math.Sqrt(0.2)) > 1e-10 {
		t.Fatalf("sigma %v", sol.Sigma(1))
	}
}

func TestFitWeighted(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{1, 3, 5, 7, 100}
	sigma := []float64{1, 1, 1, 1, 1e6}
	sol, err := Fit(x, y, sigma, Polynomial(1))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sol.Coefficients[0]-1) > 1e-6 || math.Abs(sol.Coefficients[1]-2) > 1e-6 {
		t.Fatalf("outlier with huge sigma pulled the fit: %v", sol.Coefficients)
	}
	if got := sol.Eval(10); math.Abs(got-21) > 1e-5 {
		t.Fatalf("Eval(10) = %v", got)
	}
}

// dup repeats the x column, which makes the design matrix rank deficient.
type dup struct{}

func (dup) Terms() int { return 3 }
func (dup) Eval(x float64, dst []float64) {
	dst[0], dst[1], dst[2] = 1, x, x
}

func TestFitRankDeficient(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{1, 3, 5, 7}
	sol, err := Fit(x, y, nil, dup{})
	if err != nil {
		t.Fatal(err)
	}
	if sol.Rank != 2 {
		t.Fatalf("rank %d", sol.Rank)
	}
	if math.Abs(sol.Coefficients[1]-sol.Coefficients[2]) > 1e-9 || math.Abs(sol.Coefficients[1]+sol.Coefficients[2]-2) > 1e-9 {
		t.Fatalf("minimum norm solution expected, got %v", sol.Coefficients)
	}
	if sol.ChiSquare > 1e-18 {
		t.Fatalf("chi2 %v", sol.ChiSquare)
	}
}

func TestFitErrors(t *testing.T) {
	if _, err := Fit([]float64{1, 2}, []float64{1}, nil, Polynomial(1)); !errors.Is(err, ErrLength) {
		t.Errorf("length: %v", err)
	}
	if _, err := Fit([]float64{1, 2}, []float64{1, 2}, nil, Polynomial(2)); !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("too few: %v", err)
	}
	if _, err := Fit([]float64{1, 2}, []float64{1, 2}, []float64{1, 0}, Polynomial(1)); !errors.Is(err, ErrSigma) {
		t.Errorf("sigma: %v", err)
	}
}

func TestFitFocusCurve(t *testing.T) {
	var pos, width []float64
	for p := 4000.0; p <= 6000; p += 250 {
		pos = append(pos, p)
		width = append(width, 3+1e-6*(p-5123)*(p-5123))
	}
	f, err := FitFocusCurve(pos, width)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(f.Best-5123) > 1e-4 || math.Abs(f.MinWidth-3) > 1e-6 {
		t.Fatalf("best %v width %v", f.Best, f.MinWidth)
	}

	for i := range width {
		width[i] = -width[i]
	}
	if _, err := FitFocusCurve(pos, width); !errors.Is(err, ErrNoMinimum) {
		t.Fatalf("downward parabola: %v", err)
	}
}

func ExampleFitFocusCurve() {
	pos := []float64{1000, 1100, 1200, 1300, 1400}
	hfr := []float64{4.1, 2.9, 2.5, 2.9, 4.1}
	f, _ := FitFocusCurve(pos, hfr)
	fmt.Printf("best focus %.0f, width %.2f\n", f.Best, f.MinWidth)
	// Output: best focus 1200, width 2.50
}
