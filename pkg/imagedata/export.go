package imagedata

import (
	"fmt"
	"io"
	"os"

	"github.com/astrogo/fitsio"

	"astrocore/pkg/fitsheader"
)

// structural keys are written by the encoder itself.
var structural = map[string]bool{
	"SIMPLE": true, "BITPIX": true, "NAXIS": true, "NAXIS1": true, "NAXIS2": true,
	"NAXIS3": true, "EXTEND": true, "BZERO": true, "BSCALE": true, "END": true,
}

// WriteFITS encodes a frame as a single-HDU float32 FITS image. Keyword cards
// of h other than the structural ones are carried over; rows are flipped back
// to FITS order.
func WriteFITS(w io.Writer, f *Frame, h fitsheader.Header) error {
	out, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("creating FITS stream: %w", err)
	}
	defer out.Close()

	im := fitsio.NewImage(-32, []int{f.width, f.height})
	defer im.Close()
	if err := im.Header().Append(cards(h)...); err != nil {
		return fmt.Errorf("copying header: %w", err)
	}

	pix := make([]float32, len(f.pix))
	for row := 0; row < f.height; row++ {
		copy(pix[row*f.width:(row+1)*f.width], f.pix[(f.height-1-row)*f.width:])
	}
	if err := im.Write(pix); err != nil {
		return fmt.Errorf("writing pixels: %w", err)
	}
	return out.Write(im)
}

// WriteFITSFile is WriteFITS to a new file at path.
func WriteFITSFile(path string, f *Frame, h fitsheader.Header) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFITS(file, f, h); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// cards converts keyword cards to typed fitsio cards. Only the first card of
// a repeated keyword is kept; COMMENT and HISTORY cards are all carried.
func cards(h fitsheader.Header) []fitsio.Card {
	var out []fitsio.Card
	seen := make(map[string]bool)
	for _, c := range h.Cards() {
		key := fitsheader.CardKey(c)
		t := fitsheader.TypeOf(c)
		if t != fitsheader.TypeComment && t != fitsheader.TypeHistory && key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		comment, _ := fitsheader.CardComment(c)
		switch t {
		case fitsheader.TypeComment, fitsheader.TypeHistory:
			name := "COMMENT"
			if t == fitsheader.TypeHistory {
				name = "HISTORY"
			}
			text := ""
			if len(c) > 8 {
				text = c[8:]
			}
			out = append(out, fitsio.Card{Name: name, Comment: text})
		case fitsheader.TypeString:
			if v, ok := h.Text(key); ok && !structural[key] {
				out = append(out, fitsio.Card{Name: key, Value: v, Comment: comment})
			}
		case fitsheader.TypeInteger:
			if v, ok := h.Int(key); ok && !structural[key] {
				out = append(out, fitsio.Card{Name: key, Value: v, Comment: comment})
			}
		case fitsheader.TypeReal:
			if v, ok := h.Float(key); ok && !structural[key] {
				out = append(out, fitsio.Card{Name: key, Value: v, Comment: comment})
			}
		case fitsheader.TypeBoolean:
			if v, ok := h.Bool(key); ok && !structural[key] {
				out = append(out, fitsio.Card{Name: key, Value: v, Comment: comment})
			}
		}
	}
	return out
}
