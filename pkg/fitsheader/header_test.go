package fitsheader

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"
)

func TestCardParsing(t *testing.T) {
	cases := []struct {
		name    string
		card    string
		key     string
		value   string
		comment string
		typ     CardType
	}{
		{"slash inside quotes", "OBJECT  = 'M31/NGC224' / target name", "OBJECT", "'M31/NGC224'", "target name", TypeString},
		{"quoted number", "CRVAL1  = '1.0'", "CRVAL1", "'1.0'", "", TypeString},
		{"integer", "NAXIS   =                    2 / number of axes", "NAXIS", "2", "number of axes", TypeInteger},
		{"real", "CDELT1  =             -0.00027 / deg", "CDELT1", "-0.00027", "deg", TypeReal},
		{"boolean", "SIMPLE  =                    T", "SIMPLE", "T", "", TypeBoolean},
		{"exponent without dot", "EXPTIME =                  1E5", "EXPTIME", "1E5", "", TypeInteger},
		{"double quotes", `FILTER  = "R/G" / x`, "FILTER", `"R/G"`, "x", TypeString},
		{"escaped quote", "OBSERVER= 'O''Neil / B' / who", "OBSERVER", "'O''Neil / B'", "who", TypeString},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CardKey(tc.card); got != tc.key {
				t.Errorf("key = %q, want %q", got, tc.key)
			}
			v, ok := CardValue(tc.card)
			if !ok || v != tc.value {
				t.Errorf("value = %q (%v), want %q", v, ok, tc.value)
			}
			c, _ := CardComment(tc.card)
			if c != tc.comment {
				t.Errorf("comment = %q, want %q", c, tc.comment)
			}
			if got := TypeOf(tc.card); got != tc.typ {
				t.Errorf("type = %v, want %v", got, tc.typ)
			}
		})
	}
}

func TestKeylessCards(t *testing.T) {
	cases := map[string]CardType{
		"COMMENT this = not a key": TypeComment,
		"HISTORY KEY = 1":          TypeHistory,
		"END":                      TypeEnd,
		"END" + strings.Repeat(" ", 77): TypeEnd,
		"        ":                 TypeBlank,
		"ENDTIME = 5":              TypeInteger,
	}
	for card, want := range cases {
		if got := TypeOf(card); got != want {
			t.Errorf("TypeOf(%q) = %v, want %v", card, got, want)
		}
	}
	h := Parse("COMMENT OBJECT = 'x'\nHISTORY OBJECT = 'y'\nOBJECT  = 'M1'\nEND")
	if i := h.FindKey("OBJECT"); i != 2 {
		t.Fatalf("FindKey matched a comment card: %d", i)
	}
	if h.FindKey("object") != -1 {
		t.Fatalf("FindKey must be case-sensitive")
	}
}

func TestParseNormalizesEnd(t *testing.T) {
	h := Parse("A       = 1\nEND\nB       = 2\n")
	if h.Len() != 2 || h.Has("B") {
		t.Fatalf("cards after END kept: %v", h.Cards())
	}
	h = Parse("A       = 1\r\nB       = 2\r\n")
	if h.Len() != 3 || TypeOf(h.Card(2)) != TypeEnd {
		t.Fatalf("END not appended: %q", h.Cards())
	}
	block := padCard("NAXIS   =                    2") + padCard("END")
	h = Parse(block)
	if h.Len() != 2 {
		t.Fatalf("raw block not split: %q", h.Cards())
	}
	if n, ok := h.Int("NAXIS"); !ok || n != 2 {
		t.Fatalf("NAXIS = %d, %v", n, ok)
	}
	for _, line := range strings.Split(h.String(), "\n") {
		if len(line) != CardWidth {
			t.Fatalf("serialized card width %d", len(line))
		}
	}
}

func TestSetInsertsBeforeEndAndReplacesInPlace(t *testing.T) {
	h := Parse("SIMPLE  =                    T\nNAXIS   =                    2 / axes\nEND")
	h2 := h.Set("GAIN", Real(1.5), "e-/ADU")
	if h2.FindKey("GAIN") != 2 || TypeOf(h2.Card(3)) != TypeEnd {
		t.Fatalf("new card not inserted before END: %q", h2.Cards())
	}
	if h.Has("GAIN") {
		t.Fatalf("Set mutated the receiver")
	}
	h3 := h2.Set("NAXIS", Integer(3), "")
	if h3.FindKey("NAXIS") != 1 {
		t.Fatalf("replacement moved the card")
	}
	h4 := h2.Update("NAXIS", Integer(3))
	if c, _ := h4.Comment("NAXIS"); c != "axes" {
		t.Fatalf("Update lost the comment: %q", c)
	}
}

func TestSetComment(t *testing.T) {
	base := Parse("EXPTIME = 30.0 / exposure seconds\nEND")
	tests := []struct {
		name    string
		h       Header
		key     string
		comment string
		want    string
		wantOK  bool
	}{
		{"empty keeps existing", base, "EXPTIME", "", "exposure seconds", true},
		{"explicit replaces", base, "EXPTIME", "integration", "integration", true},
		{"new card without comment", base, "GAIN", "", "", false},
		{"new card with comment", base, "GAIN", "e-/ADU", "e-/ADU", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.h.Set(tt.key, Real(60), tt.comment)
			c, ok := h.Comment(tt.key)
			if c != tt.want || ok != tt.wantOK {
				t.Fatalf("comment = %q, %v; want %q, %v", c, ok, tt.want, tt.wantOK)
			}
			if v, _ := h.Float(tt.key); v != 60 {
				t.Fatalf("value = %v", v)
			}
		})
	}
}

func TestAddDuplicates(t *testing.T) {
	tests := []struct {
		key  string
		want int
	}{
		{"GAIN", 1},
		{"OBJECT", 1},
		{"COMMENT", 2},
		{"HISTORY", 2},
		{"ANNOTATE", 2},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			h := Parse("SIMPLE  =                    T\nEND")
			h = h.Add(tt.key, Str("first"), "")
			h = h.Add(tt.key, Str("second"), "")
			n := 0
			for _, c := range h.Cards() {
				if len(c) >= 8 && strings.TrimSpace(c[:8]) == tt.key {
					n++
				}
			}
			if n != tt.want {
				t.Fatalf("%d %s cards, want %d: %q", n, tt.key, tt.want, h.Cards())
			}
		})
	}
	h := Parse("SIMPLE  =                    T\nEND").Add("GAIN", Real(1.5), "old").Add("GAIN", Real(1.7), "")
	if v, _ := h.Float("GAIN"); v != 1.7 {
		t.Fatalf("GAIN = %v", v)
	}
	if c, _ := h.Comment("GAIN"); c != "old" {
		t.Fatalf("GAIN comment = %q", c)
	}
}

func TestSetAfterRemoveIsIdempotent(t *testing.T) {
	h := Parse("SIMPLE  =                    T\nEND")
	for i := 0; i < 2; i++ {
		h = h.Add("GAIN", Real(1.5), "old")
		h = h.Add("GAIN", Real(1.7), "dup")
		h = h.Remove("GAIN")
		h = h.Set("GAIN", Real(2.5), "e-/ADU")
	}
	n := 0
	for _, c := range h.Cards() {
		if CardKey(c) == "GAIN" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("found %d GAIN cards", n)
	}
	if v, ok := h.Float("GAIN"); !ok || v != 2.5 {
		t.Fatalf("GAIN = %v, %v", v, ok)
	}
	if h.Type("GAIN") != TypeReal {
		t.Fatalf("GAIN type = %v", h.Type("GAIN"))
	}
}

func TestRemoveKeepsOrder(t *testing.T) {
	h := Parse("A       = 1\nB       = 2\nA       = 3\nC       = 4\nHISTORY x\nEND")
	h = h.Remove("A").Remove("HISTORY")
	want := []string{"B", "C", ""}
	for i, c := range h.Cards() {
		if CardKey(c) != want[i] {
			t.Fatalf("card %d = %q", i, c)
		}
	}
	if h.Remove("END").Len() != 3 {
		t.Fatalf("END removed")
	}
}

func TestAddHistoryWraps(t *testing.T) {
	text := strings.Repeat("abcdefghi ", 15)
	h := Parse("END").AddHistory(text)
	cards := h.Cards()
	if len(cards) != 4 {
		t.Fatalf("expected 3 HISTORY cards, got %q", cards)
	}
	if !strings.HasPrefix(cards[0], "HISTORY abcdefghi") {
		t.Errorf("first card %q", cards[0])
	}
	for _, c := range cards[1:3] {
		if !strings.HasPrefix(c, "HISTORY   abcdefghi") {
			t.Errorf("continuation card %q", c)
		}
	}
	for _, c := range cards[:3] {
		if len(strings.TrimSpace(c[8:])) > wrapWidth {
			t.Errorf("segment too long: %q", c)
		}
		if TypeOf(c) != TypeHistory {
			t.Errorf("type %v", TypeOf(c))
		}
	}
	if got := Parse("END").AddComment("short").Card(0); got != "COMMENT short" {
		t.Errorf("comment card %q", got)
	}
}

func TestTypedGetters(t *testing.T) {
	h := Parse(strings.Join([]string{
		"BAD     = 'abc'",
		"FORTRAN =            1.5D+02",
		"QUOTED  = '42.5    '",
		"NAXIS1  =               1024.0",
		"FLAG    =                    F",
		"OBJECT  = 'M 42    ' / nebula",
		"END",
	}, "\n"))
	if v, ok := h.Float("BAD"); ok || !math.IsNaN(v) {
		t.Errorf("unparseable value reported as %v, %v", v, ok)
	}
	if v, ok := h.Float("FORTRAN"); !ok || v != 150 {
		t.Errorf("FORTRAN = %v, %v", v, ok)
	}
	if v, ok := h.Float("QUOTED"); !ok || v != 42.5 {
		t.Errorf("QUOTED = %v, %v", v, ok)
	}
	if v, ok := h.Int("NAXIS1"); !ok || v != 1024 {
		t.Errorf("NAXIS1 = %v, %v", v, ok)
	}
	if v, ok := h.Bool("FLAG"); !ok || v {
		t.Errorf("FLAG = %v, %v", v, ok)
	}
	if v, ok := h.Text("OBJECT"); !ok || v != "M 42" {
		t.Errorf("OBJECT = %q, %v", v, ok)
	}
	if _, ok := h.Float("MISSING"); ok {
		t.Errorf("missing key reported present")
	}
}

func TestRealAlwaysReadsBackAsReal(t *testing.T) {
	for _, f := range []float64{2, -3, 1e20, 1e-7, 0.25} {
		card := formatCard("X", Real(f), "")
		if TypeOf(card) != TypeReal {
			t.Errorf("Real(%v) wrote %q", f, card)
		}
		h := Parse(card)
		if v, ok := h.Float("X"); !ok || v != f {
			t.Errorf("Real(%v) read back %v", f, v)
		}
	}
}

func TestParseSexagesimal(t *testing.T) {
	cases := []struct {
		in   string
		base float64
		want float64
		ok   bool
	}{
		{"12:30:00", 24, 12.5, true},
		{"-45:30:00", 90, -45.5, true},
		{"12 30 00", 24, 12.5, true},
		{"12h30m", 24, 12.5, true},
		{"'+10:15:00'", 90, 10.25, true},
		{"-00:30:00", 90, -0.5, true},
		{"123.25", 360, 123.25, true},
		{"-12.25", 90, -12.25, true},
		{"5.5", 24, 5.5, true},
		{"95", 90, 90, true},
		{"-3.5", 24, 20.5, true},
		{"-3.5", 12, -3.5, true},
		{"13", 12, -11, true},
		{"-180", 180, 180, true},
		{"400", 360, 40, true},
		{"abc", 24, 0, false},
		{"", 24, 0, false},
		{"1:2:3:4", 24, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseSexagesimal(tc.in, tc.base)
		if ok != tc.ok || (ok && math.Abs(got-tc.want) > 1e-12) {
			t.Errorf("ParseSexagesimal(%q, %v) = %v, %v; want %v, %v", tc.in, tc.base, got, ok, tc.want, tc.ok)
		}
	}
}

func TestObservationChains(t *testing.T) {
	h := Parse("DATE-OBS= '2021-03-04T05:06:07.5'\nEND")
	if d, _ := h.ObservationDate(); d != "2021-03-04" {
		t.Errorf("date %q", d)
	}
	if tm, _ := h.ObservationTime(); tm != "05:06:07.5" {
		t.Errorf("time %q", tm)
	}
	ts, ok := h.ObservationDateTime()
	want := time.Date(2021, 3, 4, 5, 6, 7, 500000000, time.UTC)
	if !ok || !ts.Equal(want) {
		t.Errorf("datetime %v, want %v", ts, want)
	}

	h = Parse("DATE_OBS= '2019-12-31'\nUT      = '22:00:00'\nUTC     = '23:00:00'\nEND")
	if tm, _ := h.ObservationTime(); tm != "22:00:00" {
		t.Errorf("time chain order broken: %q", tm)
	}
	ts, _ = h.ObservationDateTime()
	if !ts.Equal(time.Date(2019, 12, 31, 22, 0, 0, 0, time.UTC)) {
		t.Errorf("datetime %v", ts)
	}
}

func TestExposureTime(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   float64
		ok     bool
	}{
		{"telapse days", "TELAPSE =                  0.5 / [d] elapsed", 43200, true},
		{"telapse seconds", "TELAPSE =                 12.0 / elapsed", 12, true},
		{"exptime before exposure", "EXPOSURE=                 20.0\nEXPTIME =                 30.0", 30, true},
		{"exp_time", "EXP_TIME=                  7.5", 7.5, true},
		{"clock rollover", "TM-START= '23:59:30'\nTM-END  = '00:00:30'", 60, true},
		{"numeric start end", "UT_START=                  100\nUT_END  =                  160", 60, true},
		{"none", "OBJECT  = 'x'", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Parse(tc.header).ExposureTime()
			if ok != tc.ok || math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("got %v, %v; want %v, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestAnnotations(t *testing.T) {
	h := Parse("END")
	h = h.UpsertAnnotation(Annotation{X: 100, Y: 200, Radius: 10, ShowCircle: true, Label: "M31, core", Astrometry: true})
	h = h.UpsertAnnotation(Annotation{X: 300, Y: 300, Radius: 5, Label: "target"})
	if n := len(h.Annotations()); n != 2 {
		t.Fatalf("got %d annotations", n)
	}
	_, a, ok := h.FindAnnotation(105, 200)
	if !ok || a.Label != "M31; core" || !a.Astrometry || !a.ShowCircle {
		t.Fatalf("found %+v, %v", a, ok)
	}
	if _, _, ok := h.FindAnnotation(150, 200); ok {
		t.Fatalf("annotation found outside its radius")
	}
	h = h.UpsertAnnotation(Annotation{X: 301, Y: 300, Radius: 5, Label: "moved"})
	if n := len(h.Annotations()); n != 2 {
		t.Fatalf("upsert appended instead of replacing: %d", n)
	}
	h = h.RemoveAstrometryAnnotations()
	as := h.Annotations()
	if len(as) != 1 || as[0].Label != "moved" {
		t.Fatalf("after astrometry removal: %+v", as)
	}
	h, ok = h.RemoveAnnotation(300, 301)
	if !ok || len(h.Annotations()) != 0 {
		t.Fatalf("RemoveAnnotation failed")
	}
}

func ExampleHeader_Set() {
	h := Parse("SIMPLE  =                    T\nEND")
	h = h.Set("OBJECT", Str("M42"), "Orion")
	h = h.Set("EXPTIME", Real(30), "seconds")
	for _, c := range h.Cards() {
		fmt.Println(strings.TrimRight(c, " "))
	}
	// Output:
	// SIMPLE  =                    T
	// OBJECT  = 'M42     ' / Orion
	// EXPTIME =                 30.0 / seconds
	// END
}

func ExampleFormatSexagesimal() {
	fmt.Println(FormatSexagesimal(12.5, 2))
	fmt.Println(FormatSexagesimal(-45.50875, 1))
	// Output:
	// 12:30:00.00
	// -45:30:31.5
}
