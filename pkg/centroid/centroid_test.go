package centroid

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
)

type grid struct {
	w, h int
	pix  []float64
}

func (g *grid) Width() int          { return g.w }
func (g *grid) Height() int         { return g.h }
func (g *grid) At(x, y int) float64 { return g.pix[y*g.w+x] }
func (g *grid) set(x, y int, v float64) {
	g.pix[y*g.w+x] = v
}

func newGrid(w, h int, f func(x, y float64) float64) *grid {
	g := &grid{w: w, h: h, pix: make([]float64, w*h)}
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			g.pix[j*w+i] = f(float64(i)+0.5, float64(j)+0.5)
		}
	}
	return g
}

func gaussian(cx, cy, amp, sigma float64) func(x, y float64) float64 {
	return func(x, y float64) float64 {
		dx, dy := x-cx, y-cy
		return amp * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
	}
}

func star(cx, cy float64) *grid {
	g := gaussian(cx, cy, 1000, 5)
	return newGrid(64, 64, func(x, y float64) float64 { return 100 + g(x, y) })
}

// An aperture of about 2.08 sigma makes the moment FWHM match a Gaussian.
func testParams() *Params { return NewParams(10.4, 14.4, 20.4) }

var (
	centers = []Point{{32.3, 31.7}, {32, 32}, {31.5, 32.5}, {32.77, 31.13}}
	starts  = []Point{{2, 0}, {-1.4, 1.4}, {0, -2}, {1, 1}, {0, 0}}
)

func TestGaussianConvergence(t *testing.T) {
	const sigma = 5.0
	for _, est := range []Estimator{EstimatorMoment, EstimatorHowell} {
		for _, c := range centers {
			img := star(c.X, c.Y)
			for _, s := range starts {
				p := testParams()
				p.Estimator = est
				r, err := Measure(img, c.X+s.X, c.Y+s.Y, p)
				if err != nil {
					t.Fatalf("%v from %+v: %v", est, s, err)
				}
				if d := math.Hypot(r.X-c.X, r.Y-c.Y); d > 0.05 {
					t.Errorf("%v center %+v start %+v: off by %.3f px", est, c, s, d)
				}
				if !r.Converged {
					t.Errorf("%v did not converge in %d iterations", est, r.Iterations)
				}
				if est == EstimatorMoment {
					if ratio := r.FWHM / (2.3548 * sigma); math.Abs(ratio-1) > 0.05 {
						t.Errorf("FWHM %.3f is %.3f of expected", r.FWHM, ratio)
					}
				}
			}
		}
	}
}

func TestGaussianWithNoise(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	g := gaussian(48.3, 47.7, 1000, 5)
	img := newGrid(96, 96, func(x, y float64) float64 { return 100 + g(x, y) + rng.NormFloat64()*5 })
	// the annulus starts at 5 sigma so the star wing adds nothing measurable
	r, err := Measure(img, 50.3, 47.7, NewParams(10.4, 25, 35))
	if err != nil {
		t.Fatal(err)
	}
	if d := math.Hypot(r.X-48.3, r.Y-47.7); d > 0.05 {
		t.Errorf("off by %.3f px", d)
	}
	if math.Abs(r.FWHM/(2.3548*5)-1) > 0.05 {
		t.Errorf("FWHM %.3f", r.FWHM)
	}
	if math.Abs(r.Background-100) > 0.5 {
		t.Errorf("background %.2f", r.Background)
	}
}

func TestConvergedStepKeepsBackground(t *testing.T) {
	// On an 8x8 frame an annulus of 6..9 only reaches the far corners while
	// the center is at least 6 px from them, so it is empty around the star.
	img := newGrid(8, 8, gaussian(4, 4, 1000, 1.2))
	tests := []struct {
		name string
		tol  float64
		err  error
	}{
		{"first step converges", 2, nil},
		{"first step moves", 0, ErrBackground},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParams(3, 6, 9)
			p.Tolerance = tt.tol
			r, err := Measure(img, 5.5, 4, p)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if tt.err != nil {
				return
			}
			if !r.Converged || r.Iterations != 1 || r.BackgroundSamples != 2 {
				t.Fatalf("result %+v", r)
			}
			if r.X >= 5.5 || math.Abs(r.Y-4) > 1e-9 || r.Flux <= 0 {
				t.Fatalf("result %+v", r)
			}
		})
	}
}

func TestAnnulusBoundaries(t *testing.T) {
	img := newGrid(32, 32, func(x, y float64) float64 { return math.Floor(x)*1000 + math.Floor(y) })
	in := map[float64]bool{}
	for _, s := range annulus(img, 10.5, 10.5, 3, 5) {
		in[s.v] = true
	}
	cases := []struct {
		i, j int
		want bool
	}{
		{13, 10, true},  // r^2 == inner^2
		{15, 10, true},  // r^2 == outer^2
		{13, 14, true},  // 3-4-5 on the outer edge
		{16, 10, false}, // one unit beyond outer
		{12, 10, false}, // inside inner
		{10, 10, false},
	}
	for _, c := range cases {
		if got := in[float64(c.i*1000+c.j)]; got != c.want {
			t.Errorf("pixel (%d,%d) included = %v, want %v", c.i, c.j, got, c.want)
		}
	}
}

func TestRejectOutliers(t *testing.T) {
	var s []sample
	for i := 0; i < 100; i++ {
		v := 100.0
		if i%20 == 0 {
			v = 1000
		}
		s = append(s, sample{v: v})
	}
	kept, mean := rejectOutliers(s)
	if math.Abs(mean-100) > 1 {
		t.Fatalf("mean %v", mean)
	}
	if len(kept) != 95 {
		t.Fatalf("kept %d samples", len(kept))
	}
}

func TestBackgroundStarsRejected(t *testing.T) {
	g := gaussian(32, 32, 500, 2)
	img := newGrid(64, 64, func(x, y float64) float64 { return 100 + g(x, y) })
	p := testParams()
	p.Reposition = false
	for n, s := range annulus(img, 32, 32, p.InnerRadius, p.OuterRadius) {
		if n%20 == 0 {
			img.set(int(32+s.dx-0.5), int(32+s.dy-0.5), 1000)
		}
	}

	r, err := Measure(img, 32, 32, p)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.Background-100)/100 > 0.01 {
		t.Errorf("background with rejection %.2f", r.Background)
	}

	p.RemoveBackgroundStars = false
	r, _ = Measure(img, 32, 32, p)
	if r.Background < 120 {
		t.Errorf("background without rejection %.2f; contamination not visible", r.Background)
	}
}

func TestPlaneBackground(t *testing.T) {
	g := gaussian(32.3, 31.7, 1000, 5)
	img := newGrid(64, 64, func(x, y float64) float64 {
		return 100 + 2*math.Floor(x) - math.Floor(y) + g(x, y)
	})
	p := testParams()
	p.PlaneBackground = true
	r, err := Measure(img, 33.3, 31.7, p)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Plane {
		t.Fatal("plane background not used")
	}
	if d := math.Hypot(r.X-32.3, r.Y-31.7); d > 0.05 {
		t.Errorf("plane background: off by %.3f px", d)
	}

	p.PlaneBackground = false
	r, _ = Measure(img, 33.3, 31.7, p)
	if d := math.Hypot(r.X-32.3, r.Y-31.7); d < 0.1 {
		t.Errorf("mean background unexpectedly accurate on a gradient: %.3f px", d)
	}
}

func TestFittedPlane(t *testing.T) {
	var p FittedPlane
	for _, xy := range [][2]float64{{0, 0}, {1, 0}, {0, 1}, {3, -2}, {-1, 4}} {
		p.Add(xy[0], xy[1], 5+2*xy[0]-3*xy[1])
	}
	if err := p.Fit(); err != nil {
		t.Fatal(err)
	}
	a, b, c := p.Coefficients()
	if math.Abs(a-5) > 1e-9 || math.Abs(b-2) > 1e-9 || math.Abs(c+3) > 1e-9 {
		t.Fatalf("coefficients %v %v %v", a, b, c)
	}
	if v := p.At(2, 2); math.Abs(v-3) > 1e-9 {
		t.Fatalf("At(2,2) = %v", v)
	}

	var line FittedPlane
	for i := 0; i < 5; i++ {
		line.Add(float64(i), float64(i), 1)
	}
	if err := line.Fit(); !errors.Is(err, ErrDegeneratePlane) {
		t.Fatalf("collinear fit: %v", err)
	}
	var few FittedPlane
	few.Add(0, 0, 1)
	few.Add(1, 0, 1)
	if err := few.Fit(); !errors.Is(err, ErrDegeneratePlane) {
		t.Fatalf("two-sample fit: %v", err)
	}
	if !math.IsNaN(few.At(0, 0)) {
		t.Fatal("unfitted plane evaluated")
	}
}

func TestFailuresRestoreStart(t *testing.T) {
	flat := newGrid(64, 64, func(x, y float64) float64 { return 100 })
	r, err := Measure(flat, 20.25, 30.75, testParams())
	if !errors.Is(err, ErrNoSignal) {
		t.Fatalf("flat image: %v", err)
	}
	if r.X != 20.25 || r.Y != 30.75 || r.FWHM != 0 || r.Peak != 0 {
		t.Fatalf("failed result not reset: %+v", r)
	}

	p := testParams()
	p.Reposition = false
	r, err = Measure(flat, 20, 30, p)
	if err != nil || r.FWHM != 0 {
		t.Fatalf("no-reposition flat image: %+v %v", r, err)
	}

	ramp := newGrid(64, 64, func(x, y float64) float64 { return math.Exp(x / 3) })
	p = NewParams(4, 0, 0)
	r, err = Measure(ramp, 20, 32, p)
	if !errors.Is(err, ErrRunaway) {
		t.Fatalf("ramp: %v", err)
	}
	if r.X != 20 || r.Y != 32 {
		t.Fatalf("runaway result moved: %+v", r)
	}

	if _, err := Measure(flat, -100, -100, testParams()); !errors.Is(err, ErrBackground) {
		t.Fatalf("off image: %v", err)
	}
}

func TestShapeStatistics(t *testing.T) {
	elliptical := func(theta, sx, sy float64) *grid {
		c, s := math.Cos(theta*math.Pi/180), math.Sin(theta*math.Pi/180)
		return newGrid(64, 64, func(x, y float64) float64 {
			dx, dy := x-32, y-32
			u, v := c*dx+s*dy, -s*dx+c*dy
			return 100 + 1000*math.Exp(-(u*u/(2*sx*sx) + v*v/(2*sy*sy)))
		})
	}
	for _, theta := range []float64{0, 45, -30} {
		r, err := Measure(elliptical(theta, 6, 3), 32.5, 32, testParams())
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(r.Orientation-theta) > 1 {
			t.Errorf("theta %v: orientation %.2f", theta, r.Orientation)
		}
		if r.Eccentricity < 0.15 || r.Eccentricity > 0.25 {
			t.Errorf("theta %v: eccentricity %.3f", theta, r.Eccentricity)
		}
		if r.Variance <= 0 {
			t.Errorf("variance %v", r.Variance)
		}
	}
	r, _ := Measure(elliptical(0, 6, 3), 32.5, 32, testParams())
	if r.WidthX <= r.WidthY {
		t.Errorf("widths %.2f %.2f", r.WidthX, r.WidthY)
	}

	round, _ := Measure(star(32, 32), 32, 32, testParams())
	if round.Eccentricity > 1e-6 {
		t.Errorf("round star eccentricity %v", round.Eccentricity)
	}
}

func TestMeasureAllAndTrack(t *testing.T) {
	a, b := gaussian(16.2, 16.4, 1000, 2), gaussian(48.6, 40.1, 800, 2)
	img := newGrid(64, 64, func(x, y float64) float64 { return 50 + a(x, y) + b(x, y) })
	p := NewParams(4.2, 6, 9)
	got := MeasureAll(img, []Point{{17, 16}, {48, 41}, {-50, -50}}, p)
	if len(got) != 3 {
		t.Fatalf("%d results", len(got))
	}
	if got[0].Err != nil || math.Hypot(got[0].Result.X-16.2, got[0].Result.Y-16.4) > 0.1 {
		t.Errorf("first: %+v %v", got[0].Result, got[0].Err)
	}
	if got[1].Err != nil || math.Hypot(got[1].Result.X-48.6, got[1].Result.Y-40.1) > 0.1 {
		t.Errorf("second: %+v %v", got[1].Result, got[1].Err)
	}
	if got[2].Err == nil {
		t.Error("off-image position measured")
	}

	var frames []PixelSource
	for k := 0; k < 5; k++ {
		f := gaussian(20+1.5*float64(k), 30+float64(k), 1000, 2)
		frames = append(frames, newGrid(64, 64, func(x, y float64) float64 { return 50 + f(x, y) }))
	}
	track := Track(frames, 20, 30, p)
	last := track[len(track)-1]
	if last.Err != nil || math.Hypot(last.Result.X-26, last.Result.Y-34) > 0.1 {
		t.Fatalf("track ended at %+v %v", last.Result, last.Err)
	}
}

func ExampleMeasure() {
	g := gaussian(32.3, 31.7, 1000, 5)
	img := newGrid(64, 64, func(x, y float64) float64 { return 100 + g(x, y) })
	r, err := Measure(img, 33, 31, NewParams(10.4, 14.4, 20.4))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%.1f %.1f fwhm=%.1f\n", r.X, r.Y, r.FWHM)
	// Output: 32.3 31.7 fwhm=11.8
}
