// Package field summarizes star shapes across the frame: a 3x3 zone grid of
// median FWHM and eccentricity, sensor tilt and off-axis degradation.
package field

import (
	"math"
	"sort"
)

const (
	fieldEdgeFraction    = 0.25
	minStarsPerZone      = 3
	minTotalStarsForTilt = 20
)

// Zone identifies a cell of the 3x3 field grid.
type Zone int

const (
	ZoneTopLeft Zone = iota
	ZoneTop
	ZoneTopRight
	ZoneLeft
	ZoneCenter
	ZoneRight
	ZoneBottomLeft
	ZoneBottom
	ZoneBottomRight
)

// Zones lists the grid in row-major order.
var Zones = []Zone{
	ZoneTopLeft, ZoneTop, ZoneTopRight,
	ZoneLeft, ZoneCenter, ZoneRight,
	ZoneBottomLeft, ZoneBottom, ZoneBottomRight,
}

var zoneLabels = map[Zone]string{
	ZoneTopLeft:     "TL",
	ZoneTop:         "T",
	ZoneTopRight:    "TR",
	ZoneLeft:        "L",
	ZoneCenter:      "Center",
	ZoneRight:       "R",
	ZoneBottomLeft:  "BL",
	ZoneBottom:      "B",
	ZoneBottomRight: "BR",
}

func (z Zone) String() string { return zoneLabels[z] }

var cornerPositions = []Zone{ZoneTopLeft, ZoneTopRight, ZoneBottomLeft, ZoneBottomRight}

// Star is one measured source.
type Star struct {
	X, Y         float64
	FWHM         float64
	Eccentricity float64
	Flux         float64
}

// ZoneStats holds per-zone medians.
type ZoneStats struct {
	Label              string
	StarCount          int
	MedianFWHM         float64
	MedianEccentricity float64
}

// Analysis is the result of Analyze.
type Analysis struct {
	Zones       map[Zone]ZoneStats
	Stars       int
	MedianFWHM  float64
	TiltPct     float64
	OffAxisPct  float64
	BestCorner  string
	WorstCorner string
	Reliable    bool
}

// Analyze buckets stars into a 3x3 grid over a width x height frame and
// compares the corners and edges with the center. It returns nil for an empty
// star list.
func Analyze(stars []Star, width, height int) *Analysis {
	if len(stars) == 0 {
		return nil
	}

	xLo := float64(width) * fieldEdgeFraction
	xHi := float64(width) * (1.0 - fieldEdgeFraction)
	yLo := float64(height) * fieldEdgeFraction
	yHi := float64(height) * (1.0 - fieldEdgeFraction)

	zoneStars := make(map[Zone][]Star, len(Zones))
	for _, s := range stars {
		pos := classifyZone(s.X, s.Y, xLo, xHi, yLo, yHi)
		zoneStars[pos] = append(zoneStars[pos], s)
	}

	result := &Analysis{Zones: make(map[Zone]ZoneStats, len(Zones)), Stars: len(stars)}
	for _, pos := range Zones {
		result.Zones[pos] = zoneStats(pos, zoneStars[pos])
	}
	all := make([]float64, len(stars))
	for i, s := range stars {
		all[i] = s.FWHM
	}
	result.MedianFWHM = median(all)

	center := result.Zones[ZoneCenter].MedianFWHM
	if center <= 0 {
		return result
	}

	var bestCorner, worstCorner Zone
	best := math.MaxFloat64
	worst := 0.0
	validCorners := 0
	for _, pos := range cornerPositions {
		z := result.Zones[pos]
		if z.StarCount < minStarsPerZone {
			continue
		}
		validCorners++
		if z.MedianFWHM < best {
			best = z.MedianFWHM
			bestCorner = pos
		}
		if z.MedianFWHM > worst {
			worst = z.MedianFWHM
			worstCorner = pos
		}
	}
	if validCorners >= 2 && worst > 0 {
		result.TiltPct = (worst - best) / center * 100.0
		result.BestCorner = bestCorner.String()
		result.WorstCorner = worstCorner.String()
	}

	var offAxisSum float64
	offAxisCount := 0
	for _, pos := range Zones {
		z := result.Zones[pos]
		if pos == ZoneCenter || z.StarCount < minStarsPerZone {
			continue
		}
		offAxisSum += z.MedianFWHM
		offAxisCount++
	}
	if offAxisCount > 0 {
		result.OffAxisPct = (offAxisSum/float64(offAxisCount) - center) / center * 100.0
	}

	result.Reliable = len(stars) >= minTotalStarsForTilt && validCorners >= 4 &&
		result.Zones[ZoneCenter].StarCount >= minStarsPerZone
	return result
}

func classifyZone(x, y, xLo, xHi, yLo, yHi float64) Zone {
	col, row := band(x, xLo, xHi), band(y, yLo, yHi)
	return Zones[row*3+col]
}

func band(v, lo, hi float64) int {
	switch {
	case v < lo:
		return 0
	case v < hi:
		return 1
	}
	return 2
}

func zoneStats(pos Zone, stars []Star) ZoneStats {
	zs := ZoneStats{Label: pos.String(), StarCount: len(stars)}
	if len(stars) == 0 {
		return zs
	}
	fwhm := make([]float64, len(stars))
	ecc := make([]float64, len(stars))
	for i, s := range stars {
		fwhm[i] = s.FWHM
		ecc[i] = s.Eccentricity
	}
	zs.MedianFWHM = median(fwhm)
	zs.MedianEccentricity = median(ecc)
	return zs
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}
