// Package sphere provides degree-based trigonometry for celestial geometry.
//
// The sine and cosine helpers return exact values at multiples of 90 degrees so
// cardinal directions do not pick up floating-point noise.
package sphere

import "math"

const (
	D2R = math.Pi / 180.0
	R2D = 180.0 / math.Pi
)

// SinD returns the sine of an angle in degrees.
func SinD(angle float64) float64 {
	if math.Mod(angle, 90.0) == 0.0 {
		i := int(math.Abs(math.Floor(angle/90.0+0.5))) % 4
		switch i {
		case 0:
			return 0
		case 1:
			if angle > 0 {
				return 1
			}
			return -1
		case 2:
			return 0
		case 3:
			if angle > 0 {
				return -1
			}
			return 1
		}
	}
	return math.Sin(angle * D2R)
}

// CosD returns the cosine of an angle in degrees.
func CosD(angle float64) float64 {
	if math.Mod(angle, 90.0) == 0.0 {
		i := int(math.Abs(math.Floor(angle/90.0+0.5))) % 4
		switch i {
		case 0:
			return 1
		case 1:
			return 0
		case 2:
			return -1
		case 3:
			return 0
		}
	}
	return math.Cos(angle * D2R)
}

// TanD returns the tangent of an angle in degrees.
func TanD(angle float64) float64 {
	resid := math.Mod(angle, 360.0)
	switch resid {
	case 0, 180, -180:
		return 0
	case 45, -135, 225, -315:
		return 1
	case -45, 135, -225, 315:
		return -1
	}
	return math.Tan(angle * D2R)
}

// AsinD returns the inverse sine in degrees, snapping at ±1.
func AsinD(v float64) float64 {
	if v <= -1.0 {
		if v+1.0 > -tol {
			return -90.0
		}
	} else if v == 0.0 {
		return 0.0
	} else if v >= 1.0 {
		if v-1.0 < tol {
			return 90.0
		}
	}
	return math.Asin(v) * R2D
}

// AcosD returns the inverse cosine in degrees, snapping at ±1 and 0.
func AcosD(v float64) float64 {
	if v >= 1.0 {
		if v-1.0 < tol {
			return 0.0
		}
	} else if v == 0.0 {
		return 90.0
	} else if v <= -1.0 {
		if v+1.0 > -tol {
			return 180.0
		}
	}
	return math.Acos(v) * R2D
}

// AtanD returns the inverse tangent in degrees.
func AtanD(v float64) float64 {
	switch v {
	case -1.0:
		return -45.0
	case 0.0:
		return 0.0
	case 1.0:
		return 45.0
	}
	return math.Atan(v) * R2D
}

// Atan2D returns atan2(y, x) in degrees with exact cardinal results.
func Atan2D(y, x float64) float64 {
	if y == 0.0 {
		if x >= 0.0 {
			return 0.0
		}
		return 180.0
	}
	if x == 0.0 {
		if y > 0.0 {
			return 90.0
		}
		return -90.0
	}
	return math.Atan2(y, x) * R2D
}

const tol = 1.0e-13
