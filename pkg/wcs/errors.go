package wcs

import "errors"

// Reasons a Model cannot convert coordinates. Model.Err returns one of these,
// possibly wrapped with detail.
var (
	ErrNoAxes                = errors.New("wcs: header has fewer than two axes")
	ErrNoCelestialAxes       = errors.New("wcs: no RA/DEC coordinate axes")
	ErrNoMatrix              = errors.New("wcs: no linear transform (CD, PC, CROTA or CDELT)")
	ErrSingularMatrix        = errors.New("wcs: linear transform is singular")
	ErrUnsupportedProjection = errors.New("wcs: unsupported projection")
)
