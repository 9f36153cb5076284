// Package precession moves equatorial coordinates between the mean equator and
// equinox of a Julian epoch and J2000 using the IAU 1976 precession angles.
package precession

import (
	"math"

	"astrocore/pkg/sphere"
)

// J2000 is the reference epoch of the rotation.
const J2000 = 2000.0

type matrix [3][3]float64

// angles returns zeta, z and theta in degrees for the interval from J2000 to
// epoch (Lieske et al. 1977 with T = 0).
func angles(epoch float64) (zeta, z, theta float64) {
	t := (epoch - J2000) / 100
	t2, t3 := t*t, t*t*t
	zeta = (2306.2181*t + 0.30188*t2 + 0.017998*t3) / 3600
	z = (2306.2181*t + 1.09468*t2 + 0.018203*t3) / 3600
	theta = (2004.3109*t - 0.42665*t2 - 0.041833*t3) / 3600
	return zeta, z, theta
}

// rotation returns the matrix that takes a J2000 unit vector to epoch.
func rotation(epoch float64) matrix {
	zeta, z, theta := angles(epoch)
	cz, sz := sphere.CosD(zeta), sphere.SinD(zeta)
	cZ, sZ := sphere.CosD(z), sphere.SinD(z)
	ct, st := sphere.CosD(theta), sphere.SinD(theta)
	return matrix{
		{cz*ct*cZ - sz*sZ, -sz*ct*cZ - cz*sZ, -st * cZ},
		{cz*ct*sZ + sz*cZ, -sz*ct*sZ + cz*cZ, -st * sZ},
		{cz * st, -sz * st, ct},
	}
}

func toVector(ra, dec float64) [3]float64 {
	cd := sphere.CosD(dec)
	return [3]float64{cd * sphere.CosD(ra), cd * sphere.SinD(ra), sphere.SinD(dec)}
}

// fromVector converts back to degrees. RA follows the range of refRA: [0, 360)
// for an input in that range, otherwise the branch within 180 degrees of refRA
// so that negative right ascensions stay negative.
func fromVector(v [3]float64, refRA float64) (ra, dec float64) {
	ra = sphere.Atan2D(v[1], v[0])
	if refRA >= 0 && refRA < 360 {
		ra = sphere.Normalize360(ra)
	} else {
		ra = refRA + sphere.Normalize180(ra-refRA)
	}
	dec = sphere.Atan2D(v[2], math.Hypot(v[0], v[1]))
	return ra, dec
}

func (m matrix) apply(v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

func (m matrix) applyTransposed(v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = m[0][i]*v[0] + m[1][i]*v[1] + m[2][i]*v[2]
	}
	return out
}

// FromJ2000 precesses J2000 coordinates (degrees) to the given Julian epoch.
func FromJ2000(ra, dec, epoch float64) (float64, float64) {
	if epoch == J2000 {
		return ra, dec
	}
	return fromVector(rotation(epoch).apply(toVector(ra, dec)), ra)
}

// ToJ2000 precesses coordinates referred to the given Julian epoch to J2000.
func ToJ2000(ra, dec, epoch float64) (float64, float64) {
	if epoch == J2000 {
		return ra, dec
	}
	return fromVector(rotation(epoch).applyTransposed(toVector(ra, dec)), ra)
}

// Precess moves coordinates between two arbitrary Julian epochs through J2000.
func Precess(ra, dec, from, to float64) (float64, float64) {
	if from == to {
		return ra, dec
	}
	ra, dec = ToJ2000(ra, dec, from)
	return FromJ2000(ra, dec, to)
}

// JulianEpoch converts a Julian date to a Julian epoch year.
func JulianEpoch(jd float64) float64 {
	return J2000 + (jd-2451545.0)/365.25
}
