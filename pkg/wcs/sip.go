package wcs

import (
	"fmt"

	"astrocore/pkg/fitsheader"
)

const (
	minSIPOrder = 2
	maxSIPOrder = 9
)

// sipPoly is a SIP distortion polynomial. coef is dense (order+1)x(order+1);
// only entries with p+q <= order are read from the header, the rest stay 0.
type sipPoly struct {
	order int
	coef  [][]float64
}

// readSIP loads the polynomial with the given prefix ("A", "B", "AP", "BP").
// A missing or out of range order disables the matrix.
func readSIP(h fitsheader.Header, prefix string) (*sipPoly, error) {
	order, ok := h.Int(prefix + "_ORDER")
	if !ok {
		return nil, nil
	}
	if order < minSIPOrder || order > maxSIPOrder {
		return nil, fmt.Errorf("%s_ORDER %d outside %d..%d", prefix, order, minSIPOrder, maxSIPOrder)
	}
	s := &sipPoly{order: order, coef: make([][]float64, order+1)}
	for p := 0; p <= order; p++ {
		s.coef[p] = make([]float64, order+1)
		for q := 0; q+p <= order; q++ {
			if v, ok := h.Float(fmt.Sprintf("%s_%d_%d", prefix, p, q)); ok {
				s.coef[p][q] = v
			}
		}
	}
	return s, nil
}

// eval returns sum of coef[p][q] * u^p * v^q, nested in v inside u.
func (s *sipPoly) eval(u, v float64) float64 {
	if s == nil {
		return 0
	}
	sum := 0.0
	for p := s.order; p >= 0; p-- {
		row := 0.0
		for q := s.order - p; q >= 0; q-- {
			row = row*v + s.coef[p][q]
		}
		sum = sum*u + row
	}
	return sum
}

// sip bundles the forward and inverse polynomial pairs.
type sip struct {
	a, b   *sipPoly
	ap, bp *sipPoly
}

func (s *sip) forward(u, v float64) (float64, float64) {
	if s == nil || s.a == nil || s.b == nil {
		return u, v
	}
	return u + s.a.eval(u, v), v + s.b.eval(u, v)
}

func (s *sip) inverse(u, v float64) (float64, float64) {
	if s == nil || s.ap == nil || s.bp == nil {
		return u, v
	}
	return u + s.ap.eval(u, v), v + s.bp.eval(u, v)
}

func (m *Model) loadSIP(h fitsheader.Header) {
	s := &sip{}
	for _, entry := range []struct {
		prefix string
		dst    **sipPoly
	}{{"A", &s.a}, {"B", &s.b}, {"AP", &s.ap}, {"BP", &s.bp}} {
		p, err := readSIP(h, entry.prefix)
		if err != nil {
			m.warnf("SIP %s matrix disabled: %v", entry.prefix, err)
			continue
		}
		*entry.dst = p
	}
	if s.a == nil || s.b == nil {
		m.warnf("SIP flagged but forward A/B matrices are missing")
	}
	if s.ap == nil || s.bp == nil {
		m.infof("no inverse SIP matrices; sky to pixel ignores distortion")
	}
	if s.a == nil && s.b == nil && s.ap == nil && s.bp == nil {
		return
	}
	m.sip = s
}
