package wcs

import (
	"math"
	"strings"

	"astrocore/pkg/fitsheader"
)

// suffixes lists the alternate WCS letters in scan order; the primary WCS has
// no suffix.
var suffixes = func() []string {
	out := []string{""}
	for c := 'A'; c <= 'Z'; c++ {
		out = append(out, string(c))
	}
	return out
}()

// keys reads WCS keywords with the alternate suffix resolved at construction.
type keys struct {
	h      fitsheader.Header
	suffix string
}

func (k keys) name(base string) string { return base + k.suffix }

// float returns NaN when the keyword is missing or does not parse.
func (k keys) float(base string) float64 {
	v, ok := k.h.Float(k.name(base))
	if !ok {
		return math.NaN()
	}
	return v
}

func (k keys) has(base string) bool { return k.h.Has(k.name(base)) }

func (k keys) text(base string) (string, bool) { return k.h.Text(k.name(base)) }

// findSuffix returns the first suffix whose CTYPE1 names a right ascension
// axis.
func findSuffix(h fitsheader.Header) (string, bool) {
	for _, s := range suffixes {
		if v, ok := h.Text("CTYPE1" + s); ok && strings.HasPrefix(v, "RA--") {
			return s, true
		}
	}
	return "", false
}

// projectionCode returns the three letter projection code and whether the
// CTYPE carries the -SIP distortion flag.
func projectionCode(ctype string) (string, bool) {
	code := ""
	if len(ctype) >= 8 {
		code = strings.TrimRight(ctype[5:8], " -")
	}
	sip := len(ctype) >= 12 && ctype[8:12] == "-SIP"
	return code, sip
}

// skyCoordinate reads the RA or DEC fallback card. Sexagesimal strings are
// hours (RA) or degrees (DEC); plain numbers are degrees.
func skyCoordinate(h fitsheader.Header, key string) (float64, bool) {
	raw, ok := h.Text(key)
	if !ok {
		return math.NaN(), false
	}
	sexagesimal := h.Type(key) == fitsheader.TypeString && strings.ContainsAny(strings.TrimSpace(raw), ": hmd")
	if key == "RA" {
		if sexagesimal {
			v, ok := fitsheader.ParseSexagesimal(raw, 24)
			return v * 15, ok
		}
		return fitsheader.ParseSexagesimal(raw, 360)
	}
	return fitsheader.ParseSexagesimal(raw, 90)
}
