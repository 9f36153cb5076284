package fitsheader

import (
	"math"
	"strconv"
	"strings"
)

// ParseSexagesimal parses "12:34:56.7", "12 34 56.7", "12h34m56.7s" or a plain
// signed decimal and maps the result onto base:
//
//	90       clamp to [-90, 90]
//	180, 12  wrap into (-base, base]
//	other    modulo into [0, base); a negative value is counted back from base
//
// A base <= 0 leaves the value unmapped.
func ParseSexagesimal(s string, base float64) (float64, bool) {
	s = strings.TrimSpace(unquote(strings.TrimSpace(s)))
	if s == "" {
		return math.NaN(), false
	}
	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ':', ' ', '\t', 'h', 'm', 's', 'd':
			return true
		}
		return false
	})
	if len(fields) == 0 || len(fields) > 3 {
		return math.NaN(), false
	}
	value := 0.0
	div := 1.0
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return math.NaN(), false
		}
		value += v / div
		div *= 60
	}
	if negative {
		value = -value
	}
	return mapToBase(value, base), true
}

func mapToBase(value, base float64) float64 {
	switch {
	case base <= 0:
		return value
	case base == 90:
		return math.Max(-90, math.Min(90, value))
	case base == 180 || base == 12:
		for value > base {
			value -= 2 * base
		}
		for value <= -base {
			value += 2 * base
		}
		return value
	}
	m := math.Mod(math.Abs(value), base)
	if value < 0 && m != 0 {
		m = base - m
	}
	return m
}

// FormatSexagesimal renders a value as [-]DD:MM:SS.sss with the given number
// of decimals on the seconds field.
func FormatSexagesimal(value float64, decimals int) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	scale := math.Pow(10, float64(decimals))
	totalSec := math.Round(value*3600*scale) / scale
	d := math.Floor(totalSec / 3600)
	m := math.Floor((totalSec - d*3600) / 60)
	sec := totalSec - d*3600 - m*60
	width := 2
	if decimals > 0 {
		width = 3 + decimals
	}
	return sign + pad2(d) + ":" + pad2(m) + ":" + padFloat(sec, width, decimals)
}

func pad2(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}

func padFloat(v float64, width, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
