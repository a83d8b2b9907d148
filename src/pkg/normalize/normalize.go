// Package normalize turns uploaded blobs into the canonical raster
// format: PDFs are rasterized and composited, raster uploads are
// validated and re-encoded.
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	_ "image/jpeg"
)

var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrConversionFailed  = errors.New("conversion failed")
)

var pdfMagic = []byte("%PDF")

// Config is the normalization policy: the exact raster resolution every
// stored image must have and the pre-decode size limit.
type Config struct {
	Width    int
	Height   int
	MaxBytes int64
}

// Result is the canonical output. Document carries the verbatim
// original bytes when the upload was a PDF.
type Result struct {
	PNG      []byte
	Width    int
	Height   int
	Document []byte
}

type Normalizer struct {
	cfg Config
}

func New(cfg Config) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Normalize validates and converts raw upload bytes into canonical PNG.
// The size limit is enforced before any decoding.
func (n *Normalizer) Normalize(raw []byte) (*Result, error) {
	if int64(len(raw)) > n.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(raw), n.cfg.MaxBytes)
	}

	if bytes.HasPrefix(raw, pdfMagic) {
		canvas, rasterErr := n.rasterizePDF(raw)
		if rasterErr != nil {
			return nil, rasterErr
		}
		encoded, encodeErr := encodePNG(canvas)
		if encodeErr != nil {
			return nil, encodeErr
		}
		return &Result{
			PNG:      encoded,
			Width:    n.cfg.Width,
			Height:   n.cfg.Height,
			Document: raw,
		}, nil
	}

	return n.normalizeRaster(raw)
}

func (n *Normalizer) normalizeRaster(raw []byte) (*Result, error) {
	img, format, decodeErr := image.Decode(bytes.NewReader(raw))
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, decodeErr)
	}

	switch format {
	case "jpeg", "png":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	bounds := img.Bounds()
	if bounds.Dx() != n.cfg.Width || bounds.Dy() != n.cfg.Height {
		return nil, fmt.Errorf("%w: got %dx%d, required %dx%d",
			ErrInvalidDimensions, bounds.Dx(), bounds.Dy(), n.cfg.Width, n.cfg.Height)
	}

	// Bake the EXIF orientation into the pixel data so the stored
	// image carries no orientation metadata dependency.
	img = applyOrientation(img, orientationOf(raw))

	// Any alpha or palette input is composited onto opaque white.
	flattened := image.NewRGBA(img.Bounds())
	draw.Draw(flattened, flattened.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flattened, flattened.Bounds(), img, img.Bounds().Min, draw.Over)

	encoded, encodeErr := encodePNG(flattened)
	if encodeErr != nil {
		return nil, encodeErr
	}

	out := flattened.Bounds()
	return &Result{
		PNG:    encoded,
		Width:  out.Dx(),
		Height: out.Dy(),
	}, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if encodeErr := png.Encode(&buf, img); encodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, encodeErr)
	}
	return buf.Bytes(), nil
}
