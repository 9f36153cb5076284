package fitsheader

import (
	"math"
	"strings"
	"time"
)

// Keyword fallback chains for observation metadata. The order is the order in
// which historical FITS producers are tried; the first key present wins.
var (
	DateKeys = []string{"DATE-OBS", "DATEOBS", "DATE_OBS", "UT_DATE"}

	TimeKeys = []string{
		"TIME-OBS", "TIMEOBS", "TIME_OBS", "TM-START", "TM_START", "UT", "UTC",
		"UTSTART", "UT-START", "UT_START", "UT_TIME", "TAIHMS", "UTCSTART",
	}

	// ExposureKeys are tried after TELAPSE.
	ExposureKeys = []string{"EXPTIME", "EXPOSURE", "EXP_TIME"}

	// StartEndPairs give the exposure as end minus start when no exposure
	// keyword is present.
	StartEndPairs = [][2]string{
		{"TM-START", "TM-END"},
		{"TM_START", "TM_END"},
		{"UT-START", "UT-END"},
		{"UT_START", "UT_END"},
	}
)

const secondsPerDay = 86400.0

// FirstText returns the first key of the chain present with a non-empty
// value, and that value.
func (h Header) FirstText(keys []string) (string, string, bool) {
	for _, k := range keys {
		if v, ok := h.Text(k); ok && strings.TrimSpace(v) != "" {
			return k, strings.TrimSpace(v), true
		}
	}
	return "", "", false
}

// ObservationDate returns the observation date as written, without any time
// part carried in an ISO timestamp.
func (h Header) ObservationDate() (string, bool) {
	_, v, ok := h.FirstText(DateKeys)
	if !ok {
		return "", false
	}
	if t := strings.IndexByte(v, 'T'); t >= 0 {
		v = v[:t]
	}
	return v, true
}

// ObservationTime returns the observation start time. A time carried inside
// an ISO date keyword wins over the separate time keywords.
func (h Header) ObservationTime() (string, bool) {
	if _, v, ok := h.FirstText(DateKeys); ok {
		if t := strings.IndexByte(v, 'T'); t >= 0 && t+1 < len(v) {
			return v[t+1:], true
		}
	}
	_, v, ok := h.FirstText(TimeKeys)
	return v, ok
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006-1-2", "02/01/06"}

// ObservationDateTime combines date and time into a UTC timestamp.
func (h Header) ObservationDateTime() (time.Time, bool) {
	ds, ok := h.ObservationDate()
	if !ok {
		return time.Time{}, false
	}
	var date time.Time
	parsed := false
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, ds, time.UTC); err == nil {
			date, parsed = d, true
			break
		}
	}
	if !parsed {
		return time.Time{}, false
	}
	ts, ok := h.ObservationTime()
	if !ok {
		return date, true
	}
	sec, ok := clockSeconds(ts)
	if !ok {
		return date, true
	}
	return date.Add(time.Duration(math.Round(sec*1e6)) * time.Microsecond), true
}

// ExposureTime returns the exposure in seconds.
func (h Header) ExposureTime() (float64, bool) {
	if v, ok := h.Float("TELAPSE"); ok {
		if c, _ := h.Comment("TELAPSE"); strings.Contains(c, "[d]") {
			v *= secondsPerDay
		}
		return v, true
	}
	for _, k := range ExposureKeys {
		if v, ok := h.Float(k); ok {
			return v, true
		}
	}
	for _, pair := range StartEndPairs {
		start, ok1 := h.clockKey(pair[0])
		end, ok2 := h.clockKey(pair[1])
		if !ok1 || !ok2 {
			continue
		}
		d := end - start
		if end < start {
			d += secondsPerDay
		}
		return d, true
	}
	return 0, false
}

func (h Header) clockKey(key string) (float64, bool) {
	v, ok := h.Text(key)
	if !ok {
		return 0, false
	}
	return clockSeconds(v)
}

// clockSeconds reads "hh:mm:ss.s" as seconds after midnight; a plain number
// is taken as seconds already.
func clockSeconds(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if strings.ContainsAny(v, ": ") {
		hours, ok := ParseSexagesimal(v, 0)
		if !ok {
			return 0, false
		}
		return hours * 3600, true
	}
	return parseFloat(v)
}
