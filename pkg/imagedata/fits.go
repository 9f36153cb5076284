package imagedata

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/astrogo/fitsio"

	"astrocore/pkg/fitsheader"
)

const (
	blockSize = 2880
	cardWidth = fitsheader.CardWidth
)

var (
	ErrNotFITS        = errors.New("imagedata: not a FITS file")
	ErrNoImage        = errors.New("imagedata: primary HDU has no 2-D image")
	ErrUnsupportedBPP = errors.New("imagedata: unsupported BITPIX")
)

// Image is the primary HDU of a FITS file.
type Image struct {
	Header fitsheader.Header
	Frame  *Frame
	BitPix int
}

type options struct {
	debayer bool
}

// Option adjusts decoding.
type Option func(*options)

// WithDebayer interpolates a colour mosaic into luminance. The layout comes
// from BAYERPAT, RGGB when absent.
func WithDebayer() Option { return func(o *options) { o.debayer = true } }

// ReadFile decodes the primary image of a FITS file.
func ReadFile(path string, opts ...Option) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return Decode(bufio.NewReader(f), opts...)
}

// ReadHeaderFile reads only the primary header of a FITS file.
func ReadHeaderFile(path string) (fitsheader.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return fitsheader.Header{}, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	h, _, err := DecodeHeader(bufio.NewReader(f))
	return h, err
}

// DecodeHeader reads header blocks up to and including the one holding END. It
// returns the header and the number of bytes consumed.
func DecodeHeader(r io.Reader) (fitsheader.Header, int, error) {
	var cards []string
	block := make([]byte, blockSize)
	n := 0
	for {
		if _, err := io.ReadFull(r, block); err != nil {
			if n == 0 {
				return fitsheader.Header{}, 0, fmt.Errorf("%w: %v", ErrNotFITS, err)
			}
			return fitsheader.Header{}, n, fmt.Errorf("reading FITS header record: %w", err)
		}
		if n == 0 && !bytes.HasPrefix(block, []byte("SIMPLE  =")) {
			return fitsheader.Header{}, 0, ErrNotFITS
		}
		n += blockSize
		for i := 0; i < blockSize; i += cardWidth {
			card := strings.TrimRight(string(block[i:i+cardWidth]), " ")
			if fitsheader.TypeOf(card) == fitsheader.TypeEnd {
				return fitsheader.FromCards(cards), n, nil
			}
			cards = append(cards, card)
		}
	}
}

// Decode reads the primary header and the first image plane. Rows are flipped
// so that FITS row 1 becomes the bottom row of the frame.
func Decode(r io.Reader, opts ...Option) (*Image, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading FITS stream: %w", err)
	}
	h, _, err := DecodeHeader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bitpix, _ := h.Int("BITPIX")
	naxis, _ := h.Int("NAXIS")
	width, _ := h.Int("NAXIS1")
	height, _ := h.Int("NAXIS2")
	if naxis < 2 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: NAXIS=%d, NAXIS1=%d, NAXIS2=%d", ErrNoImage, naxis, width, height)
	}
	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBPP, bitpix)
	}
	bscale, ok := h.Float("BSCALE")
	if !ok {
		bscale = 1
	}
	bzero, ok := h.Float("BZERO")
	if !ok {
		bzero = 0
	}

	f, err := fitsio.Open(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding FITS data unit: %w", err)
	}
	defer f.Close()
	if len(f.HDUs()) == 0 {
		return nil, ErrNoImage
	}
	hdu, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return nil, ErrNoImage
	}
	raw, err := readPlane(hdu, width*height)
	if err != nil {
		return nil, err
	}

	// file row order until the flip below
	mosaic := NewFrame(width, height)
	for i, v := range raw {
		mosaic.pix[i] = float32(v*bscale + bzero)
	}
	if o.debayer {
		mosaic = Debayer(mosaic, CFAFromHeader(h))
	}

	frame := NewFrame(width, height)
	for row := 0; row < height; row++ {
		copy(frame.pix[(height-1-row)*width:(height-row)*width], mosaic.pix[row*width:])
	}
	return &Image{Header: h, Frame: frame, BitPix: bitpix}, nil
}

// readPlane reads the first n samples of the data unit. fitsio needs a slice
// whose element size matches BITPIX; scaling is left to the caller.
func readPlane(img fitsio.Image, n int) ([]float64, error) {
	total := 1
	for _, dim := range img.Header().Axes() {
		total *= dim
	}
	if total < n {
		return nil, fmt.Errorf("%w: data unit holds %d samples", ErrNoImage, total)
	}
	out := make([]float64, n)
	var err error
	switch bitpix := img.Header().Bitpix(); bitpix {
	case 8:
		buf := make([]uint8, total)
		if err = img.Read(&buf); err == nil {
			for i := range out {
				out[i] = float64(buf[i])
			}
		}
	case 16:
		buf := make([]int16, total)
		if err = img.Read(&buf); err == nil {
			for i := range out {
				out[i] = float64(buf[i])
			}
		}
	case 32:
		buf := make([]int32, total)
		if err = img.Read(&buf); err == nil {
			for i := range out {
				out[i] = float64(buf[i])
			}
		}
	case 64:
		buf := make([]int64, total)
		if err = img.Read(&buf); err == nil {
			for i := range out {
				out[i] = float64(buf[i])
			}
		}
	case -32:
		buf := make([]float32, total)
		if err = img.Read(&buf); err == nil {
			for i := range out {
				out[i] = float64(buf[i])
			}
		}
	case -64:
		buf := make([]float64, total)
		if err = img.Read(&buf); err == nil {
			copy(out, buf)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBPP, bitpix)
	}
	if err != nil {
		return nil, fmt.Errorf("reading pixel data: %w", err)
	}
	return out, nil
}

// EncodeHeader renders a header as 80-column cards padded with blanks to a
// whole number of FITS blocks.
func EncodeHeader(h fitsheader.Header) []byte {
	var buf bytes.Buffer
	blank := bytes.Repeat([]byte{' '}, cardWidth)
	for _, c := range h.Cards() {
		// width is in bytes; non-ASCII text must not stretch the card
		card := []byte(c)
		if len(card) > cardWidth {
			card = card[:cardWidth]
		}
		buf.Write(card)
		buf.Write(blank[len(card):])
	}
	if rem := buf.Len() % blockSize; rem != 0 {
		buf.Write(bytes.Repeat([]byte{' '}, blockSize-rem))
	}
	return buf.Bytes()
}

// WriteHeader replaces the primary header of a FITS file and keeps every byte
// after it. The file is rewritten through a temporary file in the same
// directory.
func WriteHeader(path string, h fitsheader.Header) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading FITS file: %w", err)
	}
	_, n, err := DecodeHeader(bytes.NewReader(data))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".astrocore-*.fits")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(EncodeHeader(h)); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := tmp.Write(data[n:]); err != nil {
		tmp.Close()
		return fmt.Errorf("writing data unit: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

