//go:build !purego && !js

package cli

import (
	"fmt"

	"gocv.io/x/gocv"

	"astrocore/pkg/imagedata"
)

func loadNonFitsImage(path string) (*imagedata.Frame, error) {
	src := gocv.IMRead(path, gocv.IMReadGrayScale|gocv.IMReadAnyDepth)
	if src.Empty() {
		return nil, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	floatMat := gocv.NewMat()
	defer floatMat.Close()
	src.ConvertTo(&floatMat, gocv.MatTypeCV32F)

	data, err := floatMat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	pix := make([]float32, len(data))
	copy(pix, data)
	return imagedata.NewFrameFrom(floatMat.Cols(), floatMat.Rows(), pix), nil
}
