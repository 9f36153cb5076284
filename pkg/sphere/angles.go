package sphere

import "math"

// Normalize360 maps an angle into [0, 360).
func Normalize360(angle float64) float64 {
	a := math.Mod(angle, 360.0)
	if a < 0 {
		a += 360.0
	}
	if a >= 360.0 {
		a = 0
	}
	return a
}

// Normalize180 maps an angle into (-180, 180].
func Normalize180(angle float64) float64 {
	a := Normalize360(angle)
	if a > 180.0 {
		a -= 360.0
	}
	return a
}

// Separation returns the great-circle distance in degrees between two points
// given as (ra, dec) in degrees. It uses the haversine form, which stays
// accurate for the sub-arcsecond distances used in scale estimation.
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	sdd := math.Sin((dec2 - dec1) * D2R / 2)
	sda := math.Sin((ra2 - ra1) * D2R / 2)
	h := sdd*sdd + math.Cos(dec1*D2R)*math.Cos(dec2*D2R)*sda*sda
	if h > 1 {
		h = 1
	}
	return 2 * math.Asin(math.Sqrt(h)) * R2D
}

// Bearing returns the position angle of point 2 as seen from point 1,
// measured from North through East, in [0, 360).
func Bearing(ra1, dec1, ra2, dec2 float64) float64 {
	dra := (ra2 - ra1) * D2R
	y := math.Sin(dra) * math.Cos(dec2*D2R)
	x := math.Cos(dec1*D2R)*math.Sin(dec2*D2R) - math.Sin(dec1*D2R)*math.Cos(dec2*D2R)*math.Cos(dra)
	return Normalize360(math.Atan2(y, x) * R2D)
}
