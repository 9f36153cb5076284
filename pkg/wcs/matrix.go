package wcs

import (
	"fmt"
	"math"

	"astrocore/pkg/sphere"
)

// MatrixSource records which keywords produced the linear transform.
type MatrixSource int

const (
	MatrixNone MatrixSource = iota
	MatrixCD
	MatrixPC
	MatrixRotation
	MatrixCDELT
)

func (s MatrixSource) String() string {
	switch s {
	case MatrixCD:
		return "CD"
	case MatrixPC:
		return "PC"
	case MatrixRotation:
		return "rotation"
	case MatrixCDELT:
		return "CDELT"
	default:
		return "none"
	}
}

// Matrix is a 2x2 matrix in row-major order.
type Matrix [2][2]float64

// Det returns the determinant.
func (m Matrix) Det() float64 { return m[0][0]*m[1][1] - m[0][1]*m[1][0] }

// Inverse returns the adjugate inverse, or false when the matrix is singular.
func (m Matrix) Inverse() (Matrix, bool) {
	det := m.Det()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Matrix{}, false
	}
	return Matrix{
		{m[1][1] / det, -m[0][1] / det},
		{-m[1][0] / det, m[0][0] / det},
	}, true
}

// Apply multiplies the matrix by the column vector (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0][0]*x + m[0][1]*y, m[1][0]*x + m[1][1]*y
}

// legacyPC are the pre-standard PC keywords, tried when no PCi_j is present.
var legacyPC = [2][2]string{{"PC001001", "PC001002"}, {"PC002001", "PC002002"}}

// resolveScale returns CDELT1/2, substituting the plate scale from
// XPIXSZ/YPIXSZ (microns) and FOCALLEN (mm) when CDELT is missing.
func (m *Model) resolveScale(k keys) (float64, float64, bool) {
	c1, c2 := k.float("CDELT1"), k.float("CDELT2")
	if !math.IsNaN(c1) && !math.IsNaN(c2) && c1 != 0 && c2 != 0 {
		return c1, c2, true
	}
	focal, ok := k.h.Float("FOCALLEN")
	if !ok || focal <= 0 {
		return c1, c2, false
	}
	px, okx := k.h.Float("XPIXSZ")
	py, oky := k.h.Float("YPIXSZ")
	if !okx && !oky {
		return c1, c2, false
	}
	if !okx {
		px = py
	}
	if !oky {
		py = px
	}
	// east left, north up
	c1 = -sphere.AtanD(px*1e-3/focal)
	c2 = sphere.AtanD(py*1e-3/focal)
	m.infof("scale from pixel size %.2fx%.2f um and focal length %.1f mm: %.3f\"/px", px, py, focal, c2*3600)
	return c1, c2, true
}

// resolveMatrix applies the priority CD > PC > rotation keyword > CDELT.
func (m *Model) resolveMatrix(k keys) {
	names := [2][2]string{{"CD1_1", "CD1_2"}, {"CD2_1", "CD2_2"}}
	if anyPresent(k, names) {
		m.matrix = readMatrix(k, names, 0)
		m.source = MatrixCD
		m.infof("linear transform from CD%s matrix", k.suffix)
		return
	}

	c1, c2, scaled := m.resolveScale(k)

	pcNames := [2][2]string{{"PC1_1", "PC1_2"}, {"PC2_1", "PC2_2"}}
	pcKeys := k
	legacy := false
	if !anyPresent(k, pcNames) {
		pcNames = legacyPC
		pcKeys = keys{h: k.h}
		legacy = anyPresent(pcKeys, pcNames)
	}
	if anyPresent(pcKeys, pcNames) {
		if !scaled {
			m.warnf("PC matrix present but no CDELT or plate scale")
			return
		}
		pc := readMatrix(pcKeys, pcNames, 1)
		m.matrix = Matrix{
			{c1 * pc[0][0], c1 * pc[0][1]},
			{c2 * pc[1][0], c2 * pc[1][1]},
		}
		m.source = MatrixPC
		if legacy {
			m.infof("linear transform from legacy PC00i00j matrix")
		} else {
			m.infof("linear transform from PC%s matrix", k.suffix)
		}
		return
	}
	if !scaled {
		return
	}

	if rot, key, ok := m.rotationAngle(k); ok {
		cr, sr := sphere.CosD(rot), sphere.SinD(rot)
		m.matrix = Matrix{
			{c1 * cr, -c2 * sr},
			{c1 * sr, c2 * cr},
		}
		m.source = MatrixRotation
		m.rotation = rot
		m.infof("linear transform from %s = %g", key, rot)
		return
	}

	m.matrix = Matrix{{c1, 0}, {0, c2}}
	m.source = MatrixCDELT
	m.infof("linear transform from CDELT only")
}

// rotationAngle reads CROTA2, CROTA1, then the legacy BPA and PA keywords.
func (m *Model) rotationAngle(k keys) (float64, string, bool) {
	for _, name := range []string{"CROTA2", "CROTA1"} {
		if v := k.float(name); !math.IsNaN(v) {
			return v, k.name(name), true
		}
	}
	for _, name := range []string{"BPA", "PA"} {
		if v, ok := k.h.Float(name); ok {
			return v, name, true
		}
	}
	return 0, "", false
}

func anyPresent(k keys, names [2][2]string) bool {
	for _, row := range names {
		for _, n := range row {
			if k.has(n) {
				return true
			}
		}
	}
	return false
}

// readMatrix reads a keyword matrix; missing diagonal entries take diag and
// missing off-diagonal entries are zero.
func readMatrix(k keys, names [2][2]string, diag float64) Matrix {
	var out Matrix
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v := k.float(names[i][j])
			if math.IsNaN(v) {
				v = 0
				if i == j {
					v = diag
				}
			}
			out[i][j] = v
		}
	}
	return out
}

func (m *Model) invert() {
	inv, ok := m.matrix.Inverse()
	if ok {
		m.inverse = inv
		m.hasInverse = true
		return
	}
	if m.opts.zeroInverse {
		m.warnf("singular linear transform; using zero inverse")
		m.inverse = Matrix{}
		m.hasInverse = true
		return
	}
	m.fail(fmt.Errorf("%w: determinant %g", ErrSingularMatrix, m.matrix.Det()))
}
