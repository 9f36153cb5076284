package wcs

import (
	"math"

	"astrocore/pkg/sphere"
)

// computeScale derives pixel scale and position angles. Zenithal projections
// are measured numerically around the image center, which folds in SIP and
// precession; anything else reads the matrix.
func (m *Model) computeScale() {
	if m.HasWCS() && m.hasInverse && supported(m.proj.code) && m.numericScale() {
		return
	}
	m.matrixScale()
}

func (m *Model) center() (float64, float64) {
	if m.width > 0 && m.height > 0 {
		return float64(m.width) / 2, float64(m.height) / 2
	}
	return m.fromFITS(m.crpix[0], m.crpix[1])
}

func (m *Model) numericScale() bool {
	cx, cy := m.center()
	ra0, dec0, ok0 := m.PixelToSky(cx, cy)
	raX, decX, okX := m.PixelToSky(cx+1, cy)
	raY, decY, okY := m.PixelToSky(cx, cy+1)
	if !ok0 || !okX || !okY {
		return false
	}
	xs := sphere.Separation(ra0, dec0, raX, decX) * 3600
	ys := sphere.Separation(ra0, dec0, raY, decY) * 3600
	if !(xs > 0) || !(ys > 0) {
		return false
	}

	step := ys / 3600
	sign := 1.0
	if dec0+step > 90 {
		sign = -1
	}
	nx, ny, okN := m.SkyToPixel(ra0, dec0+sign*step)
	cosDec := sphere.CosD(dec0)
	if !okN || cosDec < 1e-9 {
		return false
	}
	ex, ey, okE := m.SkyToPixel(ra0+step/cosDec, dec0)
	if !okE {
		return false
	}

	m.xScale, m.yScale = xs, ys
	m.hasScale = true
	m.northPA = sphere.Normalize180(sphere.Atan2D(-sign*(nx-cx), -sign*(ny-cy)))
	m.eastPA = sphere.Normalize180(sphere.Atan2D(-(ex - cx), -(ey - cy)))
	return true
}

func (m *Model) matrixScale() {
	if m.source == MatrixNone {
		return
	}
	xs := math.Hypot(m.matrix[0][0], m.matrix[1][0]) * 3600
	ys := math.Hypot(m.matrix[0][1], m.matrix[1][1]) * 3600
	if xs > 0 && ys > 0 && !math.IsInf(xs, 0) && !math.IsInf(ys, 0) {
		m.xScale, m.yScale = xs, ys
		m.hasScale = true
	}
	inv, ok := m.matrix.Inverse()
	if !ok {
		return
	}
	offset := m.lonpole - defaultLonPole
	m.northPA = sphere.Normalize180(sphere.Atan2D(-inv[0][1], inv[1][1]) + offset)
	m.eastPA = sphere.Normalize180(sphere.Atan2D(-inv[0][0], inv[1][0]) + offset)
}
