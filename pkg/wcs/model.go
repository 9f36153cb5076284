// Package wcs converts between image pixels and celestial coordinates using
// the World Coordinate System keywords of a FITS header.
//
// Pixel coordinates follow the host convention: pixel centers sit at
// integer+0.5 and Y grows downwards. Sky coordinates are J2000 degrees.
package wcs

import (
	"fmt"
	"math"

	"astrocore/pkg/fitsheader"
	"astrocore/pkg/precession"
)

const (
	defaultLonPole = 180.0
	defaultEpoch   = 2000.0
)

// Model is the coordinate transform built from one header. It is immutable
// after New and safe for concurrent use.
type Model struct {
	opts options

	naxis         int
	width, height int
	suffix        string
	ctype         [2]string
	proj          project
	sipFlag       bool
	sip           *sip

	crpix    [2]float64
	crval    [2]float64
	hasRaDec bool
	cdelt    [2]float64
	rotation float64
	epoch    float64
	lonpole  float64

	matrix     Matrix
	inverse    Matrix
	hasInverse bool
	source     MatrixSource
	euler      euler

	hasScale       bool
	xScale, yScale float64
	northPA        float64
	eastPA         float64

	err   error
	diags []Diagnostic
}

// New builds a model from a header for an image of the given size. Positive
// width and height override the header's dimensions. A model is always
// returned; check HasWCS or Err before converting coordinates.
func New(h fitsheader.Header, width, height int, opts ...Option) *Model {
	m := &Model{lonpole: defaultLonPole, epoch: defaultEpoch}
	for _, o := range opts {
		o(&m.opts)
	}
	m.build(h, width, height)
	return m
}

func (m *Model) fail(err error) {
	if m.err == nil {
		m.err = err
		m.warnf("%v", err)
	}
}

func (m *Model) build(h fitsheader.Header, width, height int) {
	if !m.readAxes(h, width, height) {
		return
	}

	suffix, found := findSuffix(h)
	m.suffix = suffix
	k := keys{h: h, suffix: suffix}
	if found {
		if suffix != "" {
			m.infof("using alternate WCS %q", suffix)
		}
		m.ctype[0], _ = k.text("CTYPE1")
		m.ctype[1], _ = k.text("CTYPE2")
		code, sipFlag := projectionCode(m.ctype[0])
		m.sipFlag = sipFlag
		m.proj = newProject(code, k.float("PV2_1"), k.float("PV2_2"))
		if len(m.ctype[1]) < 4 || m.ctype[1][:4] != "DEC-" {
			m.warnf("CTYPE2%s %q is not a declination axis", suffix, m.ctype[1])
		}
	}

	m.readReference(k)
	m.resolveMatrix(k)

	if m.sipFlag || (m.opts.sipAlways && h.Has("A_ORDER")) {
		m.loadSIP(h)
	}

	if v := k.float("LONPOLE"); !math.IsNaN(v) {
		m.lonpole = v
	}
	if v, ok := h.Float("EPOCH"); ok && v > 0 {
		m.epoch = v
	} else if v, ok := h.Float("EQUINOX"); ok && v > 0 {
		m.epoch = v
	}

	if m.source == MatrixNone {
		m.fail(ErrNoMatrix)
		return
	}
	m.invert()
	m.euler = newEuler(m.crval[0], m.crval[1], m.lonpole)

	if !found {
		m.fail(ErrNoCelestialAxes)
	} else if !m.hasRaDec {
		m.fail(fmt.Errorf("%w: no CRVAL or RA/DEC", ErrNoCelestialAxes))
	} else if !supported(m.proj.code) {
		m.fail(fmt.Errorf("%w: %q", ErrUnsupportedProjection, m.proj.code))
	}
	m.computeScale()
}

func (m *Model) readAxes(h fitsheader.Header, width, height int) bool {
	n, ok := h.Int("NAXIS")
	if !ok {
		n, ok = h.Int("WCSAXES")
	}
	if !ok || n < 2 {
		m.fail(ErrNoAxes)
		return false
	}
	m.naxis = 2

	hw, okw := h.Int("IMAGEW")
	if !okw {
		hw, okw = h.Int("NAXIS1")
	}
	hh, okh := h.Int("IMAGEH")
	if !okh {
		hh, okh = h.Int("NAXIS2")
	}
	m.width, m.height = hw, hh
	if width > 0 && height > 0 {
		if (okw && hw != width) || (okh && hh != height) {
			m.warnf("header size %dx%d differs from image size %dx%d; using image size", hw, hh, width, height)
		}
		m.width, m.height = width, height
	}
	return true
}

func (m *Model) readReference(k keys) {
	m.crpix[0], m.crpix[1] = k.float("CRPIX1"), k.float("CRPIX2")
	if math.IsNaN(m.crpix[0]) || math.IsNaN(m.crpix[1]) {
		m.crpix[0] = float64(m.width)/2 + 0.5
		m.crpix[1] = float64(m.height)/2 + 0.5
		m.warnf("CRPIX missing; using image center %.1f,%.1f", m.crpix[0], m.crpix[1])
	}

	ra, dec := k.float("CRVAL1"), k.float("CRVAL2")
	if math.IsNaN(ra) || math.IsNaN(dec) {
		r, okr := skyCoordinate(k.h, "RA")
		d, okd := skyCoordinate(k.h, "DEC")
		if okr && okd {
			ra, dec = r, d
			m.infof("CRVAL from RA/DEC cards: %.6f %.6f", ra, dec)
		}
	}
	if !math.IsNaN(ra) && !math.IsNaN(dec) {
		m.crval = [2]float64{ra, dec}
		m.hasRaDec = true
	}
	m.cdelt[0], m.cdelt[1] = k.float("CDELT1"), k.float("CDELT2")
}

// sipApplies reports whether distortion terms take part in conversions.
func (m *Model) sipApplies() bool {
	return m.sip != nil && (tangentPlane(m.proj.code) || m.opts.sipAlways)
}

// PixelToSky converts a host pixel position to J2000 RA/Dec in degrees.
func (m *Model) PixelToSky(x, y float64) (ra, dec float64, ok bool) {
	if !m.HasWCS() {
		return 0, 0, false
	}
	fx, fy := m.toFITS(x, y)
	return m.fitsToSky(fx, fy)
}

func (m *Model) fitsToSky(fx, fy float64) (ra, dec float64, ok bool) {
	dx, dy := fx-m.crpix[0], fy-m.crpix[1]
	if m.sipApplies() {
		dx, dy = m.sip.forward(dx, dy)
	}
	xi, eta := m.matrix.Apply(dx, dy)
	phi, theta, ok := m.proj.toNative(xi, eta)
	if !ok {
		return 0, 0, false
	}
	ra, dec = m.euler.toCelestial(phi, theta)
	if m.epoch != precession.J2000 {
		ra, dec = precession.ToJ2000(ra, dec, m.epoch)
	}
	return ra, dec, true
}

// SkyToPixel converts J2000 RA/Dec in degrees to a host pixel position.
func (m *Model) SkyToPixel(ra, dec float64) (x, y float64, ok bool) {
	if !m.HasWCS() || !m.hasInverse {
		return 0, 0, false
	}
	if m.epoch != precession.J2000 {
		ra, dec = precession.FromJ2000(ra, dec, m.epoch)
	}
	phi, theta := m.euler.toNative(ra, dec)
	xi, eta, ok := m.proj.fromNative(phi, theta)
	if !ok {
		return 0, 0, false
	}
	dx, dy := m.inverse.Apply(xi, eta)
	if m.sipApplies() {
		dx, dy = m.sip.inverse(dx, dy)
	}
	x, y = m.fromFITS(dx+m.crpix[0], dy+m.crpix[1])
	return x, y, true
}

// toFITS maps a host position to 1-based FITS pixel coordinates with Y up.
func (m *Model) toFITS(x, y float64) (float64, float64) {
	return x + 0.5, float64(m.height) - y + 0.5
}

func (m *Model) fromFITS(fx, fy float64) (float64, float64) {
	return fx - 0.5, float64(m.height) - fy + 0.5
}

// Err explains why HasWCS is false, or returns nil.
func (m *Model) Err() error { return m.err }

// HasWCS reports whether pixel/sky conversion is available.
func (m *Model) HasWCS() bool { return m.err == nil }

// HasRaDec reports whether the header supplied a reference sky position.
func (m *Model) HasRaDec() bool { return m.hasRaDec }

// HasScale reports whether a pixel scale could be derived.
func (m *Model) HasScale() bool { return m.hasScale }

// XScaleArcSec is the angular size of one pixel along X.
func (m *Model) XScaleArcSec() float64 { return m.xScale }

// YScaleArcSec is the angular size of one pixel along Y.
func (m *Model) YScaleArcSec() float64 { return m.yScale }

// NorthPA is the angle of celestial North, counter-clockwise from image up, in
// degrees.
func (m *Model) NorthPA() float64 { return m.northPA }

// EastPA is the angle of celestial East, counter-clockwise from image up.
func (m *Model) EastPA() float64 { return m.eastPA }

func (m *Model) Projection() string         { return m.proj.code }
func (m *Model) MatrixSource() MatrixSource { return m.source }
func (m *Model) Matrix() Matrix             { return m.matrix }
func (m *Model) Inverse() Matrix            { return m.inverse }
func (m *Model) CRPix() (float64, float64)  { return m.crpix[0], m.crpix[1] }
func (m *Model) CRVal() (float64, float64)  { return m.crval[0], m.crval[1] }
func (m *Model) SIP() bool                  { return m.sip != nil }
func (m *Model) Epoch() float64             { return m.epoch }
func (m *Model) LonPole() float64           { return m.lonpole }
func (m *Model) Width() int                 { return m.width }
func (m *Model) Height() int                { return m.height }
func (m *Model) Suffix() string             { return m.suffix }
func (m *Model) Axes() int                  { return m.naxis }
func (m *Model) CType() (string, string)    { return m.ctype[0], m.ctype[1] }
func (m *Model) CDelt() (float64, float64)  { return m.cdelt[0], m.cdelt[1] }

// Rotation is the CROTA/BPA/PA angle when the matrix came from one.
func (m *Model) Rotation() float64 { return m.rotation }
