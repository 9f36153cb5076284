//go:build js && wasm

package main

import (
	"bytes"
	"context"
	"sort"
	"syscall/js"

	"gonum.org/v1/gonum/stat"

	"astrocore/internal/config"
	"astrocore/pkg/centroid"
	"astrocore/pkg/field"
	"astrocore/pkg/fitsheader"
	"astrocore/pkg/imagedata"
	"astrocore/pkg/wcs"
)

var (
	cfg        = config.Default()
	lastFrame  *imagedata.Frame
	lastHeader fitsheader.Header
	lastField  *field.Analysis
)

func main() {
	js.Global().Set("analyzeFITS", js.FuncOf(analyzeFITS))
	js.Global().Set("renderOverlay", js.FuncOf(renderOverlay))
	js.Global().Set("measureStar", js.FuncOf(measureStar))
	js.Global().Set("pixelToSky", js.FuncOf(pixelToSky))
	js.Global().Set("skyToPixel", js.FuncOf(skyToPixel))
	select {} // block forever
}

// analyzeFITS(fileBytes, {debayer, sensitivity}) decodes a FITS file, measures
// its stars and keeps the frame for the other calls.
func analyzeFITS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: analyzeFITS(fileBytes, options)")
	}
	fileBytes := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(fileBytes, args[0])

	var opts []imagedata.Option
	dp := cfg.DetectParams()
	if len(args) >= 2 && args[1].Type() == js.TypeObject {
		if v := args[1].Get("debayer"); v.Type() == js.TypeBoolean && v.Bool() {
			opts = append(opts, imagedata.WithDebayer())
		}
		if v := args[1].Get("sensitivity"); v.Type() == js.TypeNumber {
			dp.Sensitivity = v.Float()
		}
	}

	img, err := imagedata.Decode(bytes.NewReader(fileBytes), opts...)
	if err != nil {
		return errorResult("FITS parse error: " + err.Error())
	}
	p := cfg.CentroidParams()
	p.Radius = 0
	stars, found, err := field.Measure(context.Background(), img.Frame, dp, p)
	if err != nil {
		return errorResult("Detection error: " + err.Error())
	}
	w, h := img.Frame.Width(), img.Frame.Height()
	lastFrame, lastHeader = img.Frame, img.Header
	lastField = field.Analyze(stars, w, h)

	fwhm := make([]float64, len(stars))
	ecc := make([]float64, len(stars))
	jsStars := make([]interface{}, len(stars))
	for i, s := range stars {
		fwhm[i], ecc[i] = s.FWHM, s.Eccentricity
		jsStars[i] = map[string]interface{}{
			"x":            s.X,
			"y":            s.Y,
			"flux":         s.Flux,
			"fwhm":         s.FWHM,
			"eccentricity": s.Eccentricity,
		}
	}
	meanFWHM, sdFWHM := stat.MeanStdDev(fwhm, nil)

	result := map[string]interface{}{
		"width":              w,
		"height":             h,
		"background":         found.Noise.BackgroundMean,
		"stddev":             found.Noise.Sigma,
		"medianFWHM":         median(fwhm),
		"meanFWHM":           meanFWHM,
		"stddevFWHM":         sdFWHM,
		"medianEccentricity": median(ecc),
		"stars":              jsStars,
	}
	if m := wcs.New(img.Header, w, h, cfg.WCSOptions()...); m.HasWCS() {
		if ra, dec, ok := m.PixelToSky(float64(w)/2, float64(h)/2); ok {
			result["centerRA"], result["centerDec"] = ra, dec
		}
		if m.HasScale() {
			result["scale"] = (m.XScaleArcSec() + m.YScaleArcSec()) / 2
		}
	}
	if lastField != nil {
		zones := make([]interface{}, len(field.Zones))
		for i, z := range field.Zones {
			s := lastField.Zones[z]
			zones[i] = map[string]interface{}{
				"label":      s.Label,
				"starCount":  s.StarCount,
				"medianFWHM": s.MedianFWHM,
			}
		}
		result["field"] = map[string]interface{}{
			"zones":       zones,
			"tiltPct":     lastField.TiltPct,
			"offAxisPct":  lastField.OffAxisPct,
			"bestCorner":  lastField.BestCorner,
			"worstCorner": lastField.WorstCorner,
			"reliable":    lastField.Reliable,
		}
	}
	return js.ValueOf(result)
}

func renderOverlay(this js.Value, args []js.Value) interface{} {
	if lastField == nil {
		return js.Null()
	}
	var buf bytes.Buffer
	if err := field.WriteOverlay(&buf, lastField, lastFrame.Width(), lastFrame.Height()); err != nil {
		return js.Null()
	}
	uint8Array := js.Global().Get("Uint8Array").New(buf.Len())
	js.CopyBytesToJS(uint8Array, buf.Bytes())
	return uint8Array
}

// measureStar(x, y, radius) centroids a star on the last analyzed frame.
func measureStar(this js.Value, args []js.Value) interface{} {
	if lastFrame == nil || len(args) < 3 {
		return errorResult("usage: measureStar(x, y, radius) after analyzeFITS")
	}
	r := args[2].Float()
	p := centroid.NewParams(r, 2*r, 3*r)
	res, err := centroid.Measure(lastFrame, args[0].Float(), args[1].Float(), p)
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(map[string]interface{}{
		"x":            res.X,
		"y":            res.Y,
		"background":   res.Background,
		"peak":         res.Peak,
		"flux":         res.Flux,
		"fwhm":         res.FWHM,
		"eccentricity": res.Eccentricity,
		"converged":    res.Converged,
	})
}

func pixelToSky(this js.Value, args []js.Value) interface{} {
	if lastFrame == nil || len(args) < 2 {
		return errorResult("usage: pixelToSky(x, y) after analyzeFITS")
	}
	m := wcs.New(lastHeader, lastFrame.Width(), lastFrame.Height(), cfg.WCSOptions()...)
	ra, dec, ok := m.PixelToSky(args[0].Float(), args[1].Float())
	if !ok {
		return js.Null()
	}
	return js.ValueOf(map[string]interface{}{"ra": ra, "dec": dec})
}

func skyToPixel(this js.Value, args []js.Value) interface{} {
	if lastFrame == nil || len(args) < 2 {
		return errorResult("usage: skyToPixel(ra, dec) after analyzeFITS")
	}
	m := wcs.New(lastHeader, lastFrame.Width(), lastFrame.Height(), cfg.WCSOptions()...)
	x, y, ok := m.SkyToPixel(args[0].Float(), args[1].Float())
	if !ok {
		return js.Null()
	}
	return js.ValueOf(map[string]interface{}{"x": x, "y": y})
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}
