package normalize

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	"log/slog"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"
)

// renderDPI gives a 2.0x render scale over the 72 DPI PDF baseline.
const renderDPI = 144

// rasterizePDF renders every page and composites them onto a single
// white canvas of exactly the configured target resolution.
//
// Pages are laid out last-to-first: the document's final page ends up
// leftmost. That order is intentional and load-bearing for consumers.
func (n *Normalizer) rasterizePDF(raw []byte) (stddraw.Image, error) {
	doc, openErr := fitz.NewFromMemory(raw)
	if openErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, openErr)
	}
	defer func() {
		if closeErr := doc.Close(); closeErr != nil {
			slog.Warn("failed to close PDF document", "error", closeErr)
		}
	}()

	numPages := doc.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: PDF has no pages", ErrConversionFailed)
	}

	pages := make([]image.Image, 0, numPages)
	for pageIndex := numPages - 1; pageIndex >= 0; pageIndex-- {
		page, renderErr := doc.ImageDPI(pageIndex, renderDPI)
		if renderErr != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrConversionFailed, pageIndex, renderErr)
		}
		pages = append(pages, page)
	}

	if len(pages) == 1 {
		return n.compositeSingle(pages[0]), nil
	}
	return n.compositeSideBySide(pages)
}

func newCanvas(width, height int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	stddraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, stddraw.Src)
	return canvas
}

// compositeSingle scales one page to fit the target box, preserving
// aspect ratio, and centers it.
func (n *Normalizer) compositeSingle(page image.Image) stddraw.Image {
	canvas := newCanvas(n.cfg.Width, n.cfg.Height)

	bounds := page.Bounds()
	scale := min(
		float64(n.cfg.Width)/float64(bounds.Dx()),
		float64(n.cfg.Height)/float64(bounds.Dy()),
	)
	scaledW := int(float64(bounds.Dx()) * scale)
	scaledH := int(float64(bounds.Dy()) * scale)

	x := (n.cfg.Width - scaledW) / 2
	y := (n.cfg.Height - scaledH) / 2
	target := image.Rect(x, y, x+scaledW, y+scaledH)
	xdraw.CatmullRom.Scale(canvas, target, page, bounds, xdraw.Over, nil)

	return canvas
}

// compositeSideBySide divides the full target width evenly into one
// slot per page (no inter-page margin budget) and scales every page by
// the single factor that fits the largest page into a slot.
func (n *Normalizer) compositeSideBySide(pages []image.Image) (stddraw.Image, error) {
	if len(pages) == 0 {
		return nil, errors.Join(ErrConversionFailed, errors.New("no pages to composite"))
	}

	canvas := newCanvas(n.cfg.Width, n.cfg.Height)
	slotWidth := float64(n.cfg.Width) / float64(len(pages))

	var maxPageW, maxPageH int
	for _, page := range pages {
		maxPageW = max(maxPageW, page.Bounds().Dx())
		maxPageH = max(maxPageH, page.Bounds().Dy())
	}

	scale := min(
		slotWidth/float64(maxPageW),
		float64(n.cfg.Height)/float64(maxPageH),
	)

	scaledMaxH := 0
	scaled := make([]image.Rectangle, len(pages))
	for i, page := range pages {
		w := int(float64(page.Bounds().Dx()) * scale)
		h := int(float64(page.Bounds().Dy()) * scale)
		scaled[i] = image.Rect(0, 0, w, h)
		scaledMaxH = max(scaledMaxH, h)
	}

	vOffset := (n.cfg.Height - scaledMaxH) / 2
	for i, page := range pages {
		w := scaled[i].Dx()
		h := scaled[i].Dy()

		centerX := float64(i)*slotWidth + slotWidth/2
		x := int(centerX - float64(w)/2)
		y := vOffset + (scaledMaxH-h)/2

		target := image.Rect(x, y, x+w, y+h)
		xdraw.CatmullRom.Scale(canvas, target, page, page.Bounds(), xdraw.Over, nil)
	}

	return canvas, nil
}
