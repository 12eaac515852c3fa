package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// Greyscale converts img to an 8-bit greyscale image with its origin at
// (0,0), blurring it first with a Gaussian of radius sigma when sigma > 0.
//
// The detector only compares intensities, so a light blur trades a few
// weak corners for stability against JPEG noise.
func Greyscale(img image.Image, sigma float64) (*image.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if sigma < 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("blur sigma must be a finite value >= 0, got %v", sigma)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("image is empty")
	}

	src := img
	if sigma > 0 {
		src = blur.Gaussian(img, sigma)
	}
	lum := effect.Grayscale(src)

	// Keypoint positions are reported relative to the image origin. The
	// three colour channels of lum carry the same luminance.
	b := lum.Bounds()
	grey := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := lum.Pix[lum.PixOffset(b.Min.X, b.Min.Y+y):]
		out := grey.Pix[y*grey.Stride : y*grey.Stride+b.Dx()]
		for x := range out {
			out[x] = row[4*x]
		}
	}
	return grey, nil
}
