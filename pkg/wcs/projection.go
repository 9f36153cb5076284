package wcs

import (
	"math"

	"astrocore/pkg/sphere"
)

// Projection codes understood by the engine. TPV is handled as TAN; its PV
// distortion terms are ignored.
const (
	ProjTAN = "TAN"
	ProjTPV = "TPV"
	ProjSIN = "SIN"
)

const (
	sinSmallAngle = 1.0e-10
	sinTol        = 1.0e-13
)

func supported(code string) bool {
	switch code {
	case ProjTAN, ProjTPV, ProjSIN:
		return true
	}
	return false
}

func tangentPlane(code string) bool { return code == ProjTAN || code == ProjTPV }

// project holds the projection code and SIN slant parameters.
type project struct {
	code     string
	xi, eta  float64 // PV2_1, PV2_2
	slantSum float64 // xi^2 + eta^2
}

func newProject(code string, xi, eta float64) project {
	if math.IsNaN(xi) {
		xi = 0
	}
	if math.IsNaN(eta) {
		eta = 0
	}
	return project{code: code, xi: xi, eta: eta, slantSum: xi*xi + eta*eta}
}

// toNative deprojects intermediate world coordinates (degrees) to native
// spherical (phi, theta).
func (p project) toNative(x, y float64) (phi, theta float64, ok bool) {
	if p.code == ProjSIN {
		return p.sinToNative(x, y)
	}
	r := math.Hypot(x, y)
	if r == 0 {
		phi = 0
	} else {
		phi = sphere.Atan2D(x, -y)
	}
	return phi, sphere.Atan2D(sphere.R2D, r), true
}

// fromNative projects native spherical coordinates onto the plane.
func (p project) fromNative(phi, theta float64) (x, y float64, ok bool) {
	if p.code == ProjSIN {
		return p.sinFromNative(phi, theta)
	}
	s := sphere.SinD(theta)
	if s <= 0 {
		return 0, 0, false
	}
	r := sphere.R2D * sphere.CosD(theta) / s
	return r * sphere.SinD(phi), -r * sphere.CosD(phi), true
}

func (p project) sinToNative(x, y float64) (phi, theta float64, ok bool) {
	x0 := x / sphere.R2D
	y0 := y / sphere.R2D
	r2 := x0*x0 + y0*y0

	if p.slantSum == 0 {
		// orthographic
		if r2 != 0 {
			phi = sphere.Atan2D(x0, -y0)
		}
		switch {
		case r2 < 0.5:
			theta = sphere.AcosD(math.Sqrt(r2))
		case r2 <= 1:
			theta = sphere.AsinD(math.Sqrt(1 - r2))
		default:
			return 0, 0, false
		}
		return phi, theta, true
	}

	xy := x0*p.xi + y0*p.eta
	var z float64
	if r2 < sinSmallAngle {
		z = r2 / 2
		theta = 90 - sphere.R2D*math.Sqrt(r2/(1+xy))
	} else {
		a := 1 + p.slantSum
		b := xy - p.slantSum
		c := r2 - xy - xy + p.slantSum - 1
		d := b*b - a*c
		if d < 0 {
			return 0, 0, false
		}
		d = math.Sqrt(d)
		s1 := (-b + d) / a
		s2 := (-b - d) / a
		sinthe := math.Max(s1, s2)
		if sinthe > 1 {
			if sinthe-1 < sinTol {
				sinthe = 1
			} else {
				sinthe = math.Min(s1, s2)
			}
		}
		if sinthe < -1 && sinthe+1 > -sinTol {
			sinthe = -1
		}
		if sinthe > 1 || sinthe < -1 {
			return 0, 0, false
		}
		theta = sphere.AsinD(sinthe)
		z = 1 - sinthe
	}
	x1 := -y0 + p.eta*z
	y1 := x0 - p.xi*z
	if x1 != 0 || y1 != 0 {
		phi = sphere.Atan2D(y1, x1)
	}
	return phi, theta, true
}

func (p project) sinFromNative(phi, theta float64) (x, y float64, ok bool) {
	var z, costhe float64
	t := (90 - math.Abs(theta)) * sphere.D2R
	if t < 1.0e-5 {
		if theta > 0 {
			z = t * t / 2
		} else {
			z = 2 - t*t/2
		}
		costhe = t
	} else {
		z = 1 - sphere.SinD(theta)
		costhe = sphere.CosD(theta)
	}
	r := sphere.R2D * costhe
	sinphi, cosphi := sphere.SinD(phi), sphere.CosD(phi)

	if p.slantSum == 0 {
		if theta < 0 {
			return 0, 0, false
		}
		return r * sinphi, -r * cosphi, true
	}
	z *= sphere.R2D
	limit := -sphere.AtanD(p.xi*sinphi - p.eta*cosphi)
	if theta < limit {
		return 0, 0, false
	}
	return r*sinphi + p.xi*z, -r*cosphi + p.eta*z, true
}
