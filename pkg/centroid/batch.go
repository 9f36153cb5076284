package centroid

import "sync"

// Point is a pixel position.
type Point struct {
	X, Y float64
}

// Measurement pairs a result with its error.
type Measurement struct {
	Result *Result
	Err    error
}

// MeasureAll measures independent sources of one image in parallel. Results
// keep the order of positions.
func MeasureAll(src PixelSource, positions []Point, p *Params) []Measurement {
	out := make([]Measurement, len(positions))
	var wg sync.WaitGroup
	for i, pos := range positions {
		wg.Add(1)
		go func(i int, pos Point) {
			defer wg.Done()
			r, err := Measure(src, pos.X, pos.Y, p)
			out[i] = Measurement{Result: r, Err: err}
		}(i, pos)
	}
	wg.Wait()
	return out
}

// Track follows one source through a sequence of frames. Each frame starts
// from the last successful position, so a failed frame does not move the
// track.
func Track(frames []PixelSource, x, y float64, p *Params) []Measurement {
	out := make([]Measurement, 0, len(frames))
	for _, f := range frames {
		r, err := Measure(f, x, y, p)
		if err == nil {
			x, y = r.X, r.Y
		}
		out = append(out, Measurement{Result: r, Err: err})
	}
	return out
}
