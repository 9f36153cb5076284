package precession

import (
	"fmt"
	"math"
	"testing"
)

func TestFromJ2000MeeusExample(t *testing.T) {
	// Meeus, Astronomical Algorithms, example 21.b (theta Persei).
	ra, dec := FromJ2000(41.054063, 49.227750, JulianEpoch(2462088.69))
	if math.Abs(ra-41.547214) > 1e-5 || math.Abs(dec-49.348483) > 1e-5 {
		t.Fatalf("got %.6f %.6f", ra, dec)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, epoch := range []float64{1900, 1950, 2025.5, 2100} {
		for _, c := range [][2]float64{{0, 0}, {83.82, -5.39}, {279.23, 38.78}, {10, 89.9}, {200, -60}} {
			ra, dec := FromJ2000(c[0], c[1], epoch)
			ra, dec = ToJ2000(ra, dec, epoch)
			if math.Abs(math.Remainder(ra-c[0], 360)) > 1e-9 || math.Abs(dec-c[1]) > 1e-9 {
				t.Errorf("epoch %v: (%v,%v) came back as (%v,%v)", epoch, c[0], c[1], ra, dec)
			}
		}
	}
}

func TestRAConvention(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(ra, dec, epoch float64) (float64, float64)
		ra     float64
		lo, hi float64
	}{
		{"to J2000 negative", ToJ2000, -10, -11, -9},
		{"from J2000 negative", FromJ2000, -10, -11, -9},
		{"to J2000 wraps past 360", ToJ2000, 359.9, 0, 1},
		{"to J2000 positive", ToJ2000, 150, 149, 151},
		{"to J2000 above 360", ToJ2000, 370, 369, 371},
	}
	for _, tt := range tests {
		if ra, _ := tt.fn(tt.ra, 20, 1950); ra < tt.lo || ra > tt.hi {
			t.Errorf("%s: RA %v outside [%v, %v]", tt.name, ra, tt.lo, tt.hi)
		}
	}

	ra, dec := FromJ2000(-10, 20, 1950)
	ra, dec = ToJ2000(ra, dec, 1950)
	if math.Abs(ra+10) > 1e-9 || math.Abs(dec-20) > 1e-9 {
		t.Fatalf("round trip from -10: %v %v", ra, dec)
	}
}

func TestJ2000IsIdentity(t *testing.T) {
	ra, dec := ToJ2000(123.4, -56.7, J2000)
	if ra != 123.4 || dec != -56.7 {
		t.Fatalf("got %v %v", ra, dec)
	}
	ra, dec = Precess(1, 2, 1950, 1950)
	if ra != 1 || dec != 2 {
		t.Fatalf("got %v %v", ra, dec)
	}
}

func TestPrecessThroughJ2000(t *testing.T) {
	ra1, dec1 := Precess(150, 20, 1950, 2050)
	r, d := ToJ2000(150, 20, 1950)
	r, d = FromJ2000(r, d, 2050)
	if math.Abs(ra1-r) > 1e-12 || math.Abs(dec1-d) > 1e-12 {
		t.Fatalf("Precess disagrees with explicit path: %v %v vs %v %v", ra1, dec1, r, d)
	}
}

func ExampleFromJ2000() {
	ra, dec := FromJ2000(0, 0, 1950)
	fmt.Printf("%.4f %.4f\n", ra, dec)
	// Output: 359.3595 -0.2784
}
