package fitsheader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a formatted FITS value ready to be written into a card.
type Value struct {
	text   string
	quoted bool
}

// Str makes a quoted string value.
func Str(s string) Value {
	s = strings.ReplaceAll(s, "'", "''")
	if len(s) < 8 {
		s += strings.Repeat(" ", 8-len(s))
	}
	return Value{text: "'" + s + "'", quoted: true}
}

// Real makes a floating point value. The text always contains a '.' so the
// card reads back as real.
func Real(f float64) Value {
	s := strconv.FormatFloat(f, 'G', -1, 64)
	if !math.IsInf(f, 0) && !math.IsNaN(f) && !strings.Contains(s, ".") {
		if e := strings.IndexByte(s, 'E'); e >= 0 {
			s = s[:e] + ".0" + s[e:]
		} else {
			s += ".0"
		}
	}
	return Value{text: s}
}

// Integer makes an integer value.
func Integer(i int64) Value { return Value{text: strconv.FormatInt(i, 10)} }

// Logical makes a boolean value.
func Logical(b bool) Value {
	if b {
		return Value{text: "T"}
	}
	return Value{text: "F"}
}

func (v Value) String() string { return v.text }

func formatCard(key string, v Value, comment string) string {
	var card string
	if v.quoted {
		card = fmt.Sprintf("%-8s= %s", key, v.text)
	} else {
		card = fmt.Sprintf("%-8s= %20s", key, v.text)
	}
	if comment != "" {
		card += " / " + comment
	}
	if len(card) > CardWidth {
		card = card[:CardWidth]
	}
	return card
}

// Raw returns the raw value text of the first card with the given keyword.
func (h Header) Raw(key string) (string, bool) {
	i := h.FindKey(key)
	if i < 0 {
		return "", false
	}
	return CardValue(h.cards[i])
}

// Comment returns the comment of the first card with the given keyword.
func (h Header) Comment(key string) (string, bool) {
	i := h.FindKey(key)
	if i < 0 {
		return "", false
	}
	return CardComment(h.cards[i])
}

// Type returns the card type of the first card with the given keyword, or
// TypeOther when the key is absent.
func (h Header) Type(key string) CardType {
	i := h.FindKey(key)
	if i < 0 {
		return TypeOther
	}
	return TypeOf(h.cards[i])
}

// Text returns a string value without its quotes and trailing padding. Non
// string values are returned as written.
func (h Header) Text(key string) (string, bool) {
	raw, ok := h.Raw(key)
	if !ok {
		return "", false
	}
	return unquote(raw), true
}

// Float parses a numeric value. A value that does not parse is reported as
// absent with NaN. Fortran 'D' exponents and quoted numbers are accepted.
func (h Header) Float(key string) (float64, bool) {
	raw, ok := h.Raw(key)
	if !ok {
		return math.NaN(), false
	}
	return parseFloat(unquote(raw))
}

// Int parses an integer value. Integral reals such as 2.0 are accepted.
func (h Header) Int(key string) (int, bool) {
	raw, ok := h.Raw(key)
	if !ok {
		return 0, false
	}
	s := strings.TrimSpace(unquote(raw))
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	f, ok := parseFloat(s)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Bool parses a T/F value.
func (h Header) Bool(key string) (bool, bool) {
	raw, ok := h.Raw(key)
	if !ok {
		return false, false
	}
	switch strings.TrimSpace(raw) {
	case "T":
		return true, true
	case "F":
		return false, true
	}
	return false, false
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), false
	}
	s = strings.Map(func(r rune) rune {
		if r == 'D' || r == 'd' {
			return 'E'
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}
