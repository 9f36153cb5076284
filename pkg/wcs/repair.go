package wcs

import (
	"fmt"

	"astrocore/pkg/fitsheader"
)

// Repair rewrites the resolved linear transform of h as an explicit CD matrix,
// drops the CDELT, CROTA and PC keywords it replaces, and rebuilds the model
// from the repaired header.
func Repair(h fitsheader.Header, width, height int, opts ...Option) (fitsheader.Header, *Model, error) {
	m := New(h, width, height, opts...)
	if m.source == MatrixNone {
		if err := m.Err(); err != nil {
			return h, m, fmt.Errorf("repair WCS: %w", err)
		}
		return h, m, fmt.Errorf("repair WCS: %w", ErrNoMatrix)
	}
	if m.source == MatrixCD {
		return h, m, nil
	}

	s := m.suffix
	out := h
	for _, base := range []string{"CDELT1", "CDELT2", "CROTA1", "CROTA2", "PC1_1", "PC1_2", "PC2_1", "PC2_2"} {
		out = out.Remove(base + s)
	}
	for _, row := range legacyPC {
		for _, k := range row {
			out = out.Remove(k)
		}
	}
	names := [2][2]string{{"CD1_1", "CD1_2"}, {"CD2_1", "CD2_2"}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out = out.Set(names[i][j]+s, fitsheader.Real(m.matrix[i][j]), "linear transform")
		}
	}
	out = out.AddHistory(fmt.Sprintf("WCS %s transform rewritten as CD%s matrix", m.source, s))

	rebuilt := New(out, width, height, opts...)
	return out, rebuilt, rebuilt.Err()
}
