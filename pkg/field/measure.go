package field

import (
	"context"
	"fmt"

	"astrocore/pkg/centroid"
	"astrocore/pkg/detect"
	"astrocore/pkg/imagedata"
)

// Measure detects candidates in f and centroids each of them. A zero
// p.Radius picks the aperture from the median half-maximum extent of the
// candidates, with the background annulus at 2 and 3 times the radius.
// Candidates whose measurement fails are left out.
func Measure(ctx context.Context, f *imagedata.Frame, dp detect.Params, p centroid.Params) ([]Star, *detect.Result, error) {
	found, err := detect.Find(ctx, f, dp)
	if err != nil {
		return nil, nil, fmt.Errorf("detecting stars: %w", err)
	}
	if len(found.Candidates) == 0 {
		return nil, found, nil
	}

	if p.Radius <= 0 {
		radii := make([]float64, len(found.Candidates))
		for i, c := range found.Candidates {
			radii[i] = detect.Radius(f, c, found.Noise.BackgroundMean)
		}
		p.Radius = median(radii)
		p.InnerRadius = 2 * p.Radius
		p.OuterRadius = 3 * p.Radius
	}

	points := make([]centroid.Point, len(found.Candidates))
	for i, c := range found.Candidates {
		points[i] = centroid.Point{X: c.X, Y: c.Y}
	}
	var stars []Star
	for _, m := range centroid.MeasureAll(f, points, &p) {
		if m.Err != nil {
			continue
		}
		stars = append(stars, Star{
			X:            m.Result.X,
			Y:            m.Result.Y,
			FWHM:         m.Result.FWHM,
			Eccentricity: m.Result.Eccentricity,
			Flux:         m.Result.Flux,
		})
	}
	return stars, found, nil
}
