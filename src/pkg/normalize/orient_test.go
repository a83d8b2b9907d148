package normalize

import (
	"image"
	"image/color"
	"testing"
)

// The corrections must match the EXIF definition of each orientation
// value: the 0th row of the stored pixels is the visual left-hand side
// for the rotated values, mirrored where the value says so.
func TestApplyOrientationMapping(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, red)
	src.Set(1, 0, blue)

	cases := []struct {
		orientation   int
		width, height int
		redAt         image.Point
	}{
		{1, 2, 1, image.Pt(0, 0)},
		{2, 2, 1, image.Pt(1, 0)},
		{3, 2, 1, image.Pt(1, 0)},
		{4, 2, 1, image.Pt(0, 0)},
		{5, 1, 2, image.Pt(0, 0)},
		{6, 1, 2, image.Pt(0, 0)},
		{7, 1, 2, image.Pt(0, 1)},
		{8, 1, 2, image.Pt(0, 1)},
	}

	for _, tc := range cases {
		out := applyOrientation(src, tc.orientation)
		bounds := out.Bounds()
		if bounds.Dx() != tc.width || bounds.Dy() != tc.height {
			t.Errorf("orientation %d: dims = %dx%d, want %dx%d",
				tc.orientation, bounds.Dx(), bounds.Dy(), tc.width, tc.height)
			continue
		}
		r, _, b, _ := out.At(tc.redAt.X, tc.redAt.Y).RGBA()
		if r>>8 != 255 || b>>8 != 0 {
			t.Errorf("orientation %d: pixel at %v is not the red marker (r=%d b=%d)",
				tc.orientation, tc.redAt, r>>8, b>>8)
		}
	}
}
