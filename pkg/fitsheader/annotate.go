package fitsheader

import (
	"math"
	"strconv"
	"strings"
)

const annotateKey = "ANNOTATE"

// Annotation is a non-standard ANNOTATE card marking a circle, a label and an
// optional leader line at a pixel position. Its value is a quoted comma
// separated list: x,y,radius,length,showCircle,label,astrometry.
type Annotation struct {
	X, Y       float64
	Radius     float64
	Length     float64
	ShowCircle bool
	Label      string
	// Astrometry marks annotations written by plate solving.
	Astrometry bool
}

func (a Annotation) value() Value {
	fields := []string{
		strconv.FormatFloat(a.X, 'f', -1, 64),
		strconv.FormatFloat(a.Y, 'f', -1, 64),
		strconv.FormatFloat(a.Radius, 'f', -1, 64),
		strconv.FormatFloat(a.Length, 'f', -1, 64),
		flag(a.ShowCircle),
		strings.ReplaceAll(a.Label, ",", ";"),
		flag(a.Astrometry),
	}
	return Value{text: "'" + strings.ReplaceAll(strings.Join(fields, ","), "'", "''") + "'", quoted: true}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseAnnotation(card string) (Annotation, bool) {
	if CardKey(card) != annotateKey {
		return Annotation{}, false
	}
	raw, ok := CardValue(card)
	if !ok {
		return Annotation{}, false
	}
	fields := strings.Split(unquote(raw), ",")
	if len(fields) < 3 {
		return Annotation{}, false
	}
	var a Annotation
	var okX, okY bool
	a.X, okX = parseFloat(fields[0])
	a.Y, okY = parseFloat(fields[1])
	if !okX || !okY {
		return Annotation{}, false
	}
	if r, ok := parseFloat(fields[2]); ok {
		a.Radius = r
	}
	if len(fields) > 3 {
		if l, ok := parseFloat(fields[3]); ok {
			a.Length = l
		}
	}
	if len(fields) > 4 {
		a.ShowCircle = strings.TrimSpace(fields[4]) == "1"
	}
	if len(fields) > 5 {
		a.Label = strings.TrimSpace(fields[5])
	}
	if len(fields) > 6 {
		a.Astrometry = strings.TrimSpace(fields[6]) == "1"
	}
	return a, true
}

// Annotations returns every parseable ANNOTATE card in header order.
func (h Header) Annotations() []Annotation {
	var out []Annotation
	for _, c := range h.cards {
		if a, ok := parseAnnotation(c); ok {
			out = append(out, a)
		}
	}
	return out
}

// FindAnnotation returns the card index of the annotation closest to (x, y)
// whose radius (at least one pixel) contains the point.
func (h Header) FindAnnotation(x, y float64) (int, Annotation, bool) {
	best := -1
	var bestA Annotation
	bestD2 := math.Inf(1)
	for i, c := range h.cards {
		a, ok := parseAnnotation(c)
		if !ok {
			continue
		}
		r := math.Max(a.Radius, 1)
		dx, dy := a.X-x, a.Y-y
		d2 := dx*dx + dy*dy
		if d2 <= r*r && d2 < bestD2 {
			best, bestA, bestD2 = i, a, d2
		}
	}
	return best, bestA, best >= 0
}

// UpsertAnnotation replaces the annotation found at a's position or appends a
// new ANNOTATE card.
func (h Header) UpsertAnnotation(a Annotation) Header {
	card := formatCard(annotateKey, a.value(), "")
	if i, _, ok := h.FindAnnotation(a.X, a.Y); ok {
		return h.replace(i, card)
	}
	return h.insertBeforeEnd(card)
}

// RemoveAnnotation drops the annotation found at (x, y), if any.
func (h Header) RemoveAnnotation(x, y float64) (Header, bool) {
	i, _, ok := h.FindAnnotation(x, y)
	if !ok {
		return h, false
	}
	return h.removeIndex(i), true
}

// RemoveAstrometryAnnotations drops every annotation flagged as written by
// plate solving.
func (h Header) RemoveAstrometryAnnotations() Header {
	return h.filter(func(c string) bool {
		a, ok := parseAnnotation(c)
		return ok && a.Astrometry
	})
}
