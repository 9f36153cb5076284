//go:build purego || js

package detect

import (
	"math"
	"sort"
)

// Mat is a pure Go 2D float32 matrix.
type Mat struct {
	data []float32
	rows int
	cols int
}

func NewMatWithSize(rows, cols int) Mat {
	return Mat{data: make([]float32, rows*cols), rows: rows, cols: cols}
}

func (m *Mat) Close() {
	m.data = nil
	m.rows = 0
	m.cols = 0
}

// DataFloat32 returns the backing float32 slice.
func (m Mat) DataFloat32() []float32 { return m.data }

func reflectIndex(idx, size int) int {
	if size == 1 {
		return 0
	}
	if idx < 0 {
		idx = -idx
	}
	for idx >= size {
		idx = 2*size - 2 - idx
		if idx < 0 {
			idx = -idx
		}
	}
	return idx
}

func sepFilter2DReflect(src Mat, dst *Mat, kernelX, kernelY Mat) {
	rows, cols := src.rows, src.cols
	kx, ky := kernelX.data, kernelY.data
	kxHalf, kyHalf := len(kx)/2, len(ky)/2

	temp := make([]float32, rows*cols)
	for r := 0; r < rows; r++ {
		off := r * cols
		for c := 0; c < cols; c++ {
			var sum float32
			if c >= kxHalf && c < cols-kxHalf {
				base := off + c - kxHalf
				for k, w := range kx {
					sum += src.data[base+k] * w
				}
			} else {
				for k, w := range kx {
					sum += src.data[off+reflectIndex(c+k-kxHalf, cols)] * w
				}
			}
			temp[off+c] = sum
		}
	}

	out := make([]float32, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var sum float32
			for k, w := range ky {
				sum += temp[reflectIndex(r+k-kyHalf, rows)*cols+c] * w
			}
			out[r*cols+c] = sum
		}
	}
	*dst = Mat{data: out, rows: rows, cols: cols}
}

func getGaussianKernel1D(size int, sigma float64) Mat {
	m := NewMatWithSize(size, 1)
	half := size / 2
	sum := 0.0
	for i := 0; i < size; i++ {
		x := float64(i - half)
		val := math.Exp(-x * x / (2 * sigma * sigma))
		m.data[i] = float32(val)
		sum += val
	}
	for i := range m.data {
		m.data[i] = float32(float64(m.data[i]) / sum)
	}
	return m
}

func medianBlur(src Mat, dst *Mat, ksize int) {
	rows, cols := src.rows, src.cols
	half := ksize / 2
	result := make([]float32, rows*cols)
	neighbors := make([]float32, ksize*ksize)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			idx := 0
			for dr := -half; dr <= half; dr++ {
				rr := min(max(r+dr, 0), rows-1)
				for dc := -half; dc <= half; dc++ {
					cc := min(max(c+dc, 0), cols-1)
					neighbors[idx] = src.data[rr*cols+cc]
					idx++
				}
			}
			sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
			result[r*cols+c] = neighbors[len(neighbors)/2]
		}
	}
	*dst = Mat{data: result, rows: rows, cols: cols}
}
