package centroid

import "errors"

// PixelSource gives read access to image pixels. Coordinates are 0-based
// column and row indices with row 0 at the top.
type PixelSource interface {
	Width() int
	Height() int
	At(x, y int) float64
}

// Estimator selects how the repositioning offset is computed.
type Estimator int

const (
	// EstimatorMoment weights every aperture pixel by its net signal over the
	// peak.
	EstimatorMoment Estimator = iota
	// EstimatorHowell uses background-subtracted marginal sums and keeps only
	// the positive residuals about their mean.
	EstimatorHowell
)

func (e Estimator) String() string {
	switch e {
	case EstimatorMoment:
		return "moment"
	case EstimatorHowell:
		return "howell"
	default:
		return "unknown"
	}
}

const (
	defaultMaxIterations = 100
	defaultTolerance     = 0.01
	// fwhmPerMoment converts the square root of a flux weighted second moment
	// inside the aperture to a Gaussian FWHM.
	fwhmPerMoment = 0.3602
	rejectSigma   = 2.0
	rejectPasses  = 9
	rejectSettle  = 0.1
)

// Params configures a measurement. Radii are in pixels.
type Params struct {
	Radius      float64
	InnerRadius float64
	OuterRadius float64

	Reposition            bool
	PlaneBackground       bool
	RemoveBackgroundStars bool
	Estimator             Estimator

	MaxIterations int
	Tolerance     float64
}

// NewParams returns parameters for the given aperture and background annulus
// with repositioning and background star rejection enabled.
func NewParams(radius, inner, outer float64) *Params {
	return &Params{
		Radius:                radius,
		InnerRadius:           inner,
		OuterRadius:           outer,
		Reposition:            true,
		RemoveBackgroundStars: true,
		Estimator:             EstimatorMoment,
		MaxIterations:         defaultMaxIterations,
		Tolerance:             defaultTolerance,
	}
}

// Result holds the outcome of one measurement. Widths are Gaussian
// equivalent FWHM in pixels; Orientation is in degrees.
type Result struct {
	X, Y        float64
	Radius      float64
	InnerRadius float64
	OuterRadius float64

	Background        float64
	BackgroundSamples int
	// Plane is true when a fitted plane, not the annulus mean, was subtracted.
	Plane bool
	Peak  float64
	Flux  float64

	WidthX       float64
	WidthY       float64
	FWHM         float64
	Orientation  float64
	Eccentricity float64
	Variance     float64

	Iterations int
	Converged  bool
}

var (
	ErrNoSignal        = errors.New("centroid: no signal in aperture")
	ErrRunaway         = errors.New("centroid: position moved more than one aperture diameter")
	ErrBackground      = errors.New("centroid: no background pixels in annulus")
	ErrDegeneratePlane = errors.New("centroid: background plane needs three non-collinear samples")
)
