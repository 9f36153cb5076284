package wcs

import (
	"math"

	"astrocore/pkg/sphere"
)

const eulerTol = 1.0e-5

// euler holds the celestial longitude of the native pole, the native
// colatitude rotation, the native longitude of the celestial pole, and the
// cosine and sine of the colatitude.
type euler [5]float64

func newEuler(ra, dec, lonpole float64) euler {
	theta := 90 - dec
	return euler{ra, theta, lonpole, sphere.CosD(theta), sphere.SinD(theta)}
}

// toCelestial rotates native (phi, theta) to celestial (ra, dec). RA keeps
// the sign convention of the reference RA.
func (e euler) toCelestial(phi, theta float64) (ra, dec float64) {
	dphi := phi - e[2]
	sinthe, costhe := sphere.SinD(theta), sphere.CosD(theta)
	cosdphi := sphere.CosD(dphi)

	x := sinthe*e[4] - costhe*e[3]*cosdphi
	if math.Abs(x) < eulerTol {
		x = -sphere.CosD(theta+e[1]) + costhe*e[3]*(1-cosdphi)
	}
	y := -costhe * sphere.SinD(dphi)

	var dlng float64
	switch {
	case x != 0 || y != 0:
		dlng = sphere.Atan2D(y, x)
	case e[1] < 90:
		dlng = dphi + 180
	default:
		dlng = -dphi
	}
	ra = e[0] + dlng
	if e[0] >= 0 {
		if ra < 0 {
			ra += 360
		}
	} else if ra > 0 {
		ra -= 360
	}
	if ra > 360 {
		ra -= 360
	} else if ra < -360 {
		ra += 360
	}

	if math.Mod(dphi, 180) == 0 {
		dec = theta + cosdphi*e[1]
		if dec > 90 {
			dec = 180 - dec
		}
		if dec < -90 {
			dec = -180 - dec
		}
		return ra, dec
	}
	z := sinthe*e[3] + costhe*e[4]*cosdphi
	if math.Abs(z) > 0.99 {
		dec = math.Copysign(sphere.AcosD(math.Sqrt(x*x+y*y)), z)
	} else {
		dec = sphere.AsinD(z)
	}
	return ra, dec
}

// toNative rotates celestial (ra, dec) to native (phi, theta).
func (e euler) toNative(ra, dec float64) (phi, theta float64) {
	dlng := ra - e[0]
	sinlat, coslat := sphere.SinD(dec), sphere.CosD(dec)
	cosdlng := sphere.CosD(dlng)

	x := sinlat*e[4] - coslat*e[3]*cosdlng
	if math.Abs(x) < eulerTol {
		x = -sphere.CosD(dec+e[1]) + coslat*e[3]*(1-cosdlng)
	}
	y := -coslat * sphere.SinD(dlng)

	var dphi float64
	switch {
	case x != 0 || y != 0:
		dphi = sphere.Atan2D(y, x)
	case e[1] < 90:
		dphi = dlng - 180
	default:
		dphi = -dlng
	}
	phi = math.Mod(e[2]+dphi, 360)
	if phi > 180 {
		phi -= 360
	} else if phi < -180 {
		phi += 360
	}

	if math.Mod(dlng, 180) == 0 {
		theta = dec + cosdlng*e[1]
		if theta > 90 {
			theta = 180 - theta
		}
		if theta < -90 {
			theta = -180 - theta
		}
		return phi, theta
	}
	z := sinlat*e[3] + coslat*e[4]*cosdlng
	if math.Abs(z) > 0.99 {
		theta = math.Copysign(sphere.AcosD(math.Sqrt(x*x+y*y)), z)
	} else {
		theta = sphere.AsinD(z)
	}
	return phi, theta
}
