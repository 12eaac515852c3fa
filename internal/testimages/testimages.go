// Package testimages generates synthetic scenes and the rotated and
// translated variants used to exercise feature matching.
package testimages

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Background is the grey level of scene backgrounds and translation
// canvases.
const Background = 100

// Scene draws count random filled triangles and quadrilaterals in random
// grey levels on a grey background. The same seed always draws the same
// scene.
func Scene(width, height, count int, seed int64) image.Image {
	rng := rand.New(rand.NewSource(seed))
	dc := gg.NewContext(width, height)
	dc.SetColor(color.Gray{Y: Background})
	dc.Clear()

	for i := 0; i < count; i++ {
		cx := rng.Float64() * float64(width)
		cy := rng.Float64() * float64(height)
		r := 8 + rng.Float64()*float64(minInt(width, height))/6
		sides := 3 + rng.Intn(2)
		start := rng.Float64() * 2 * math.Pi

		for k := 0; k < sides; k++ {
			a := start + float64(k)*2*math.Pi/float64(sides) + (rng.Float64()-0.5)*0.6
			dc.LineTo(cx+r*math.Cos(a), cy+r*math.Sin(a))
		}
		dc.ClosePath()

		level := uint8(rng.Intn(256))
		dc.SetColor(color.Gray{Y: level})
		dc.Fill()
	}
	return dc.Image()
}

// Rotated returns img rotated by angle degrees around its centre. The
// canvas grows to hold the whole rotated image; uncovered corners are
// transparent.
func Rotated(img image.Image, angle float64) *image.RGBA {
	return transform.Rotate(img, angle, &transform.RotationOptions{ResizeBounds: true})
}

// Translated pastes img onto a canvas margin pixels larger in each
// dimension, filled with the Background grey, with its top-left corner at
// offset.
func Translated(img image.Image, offset image.Point, margin int) (*image.NRGBA, error) {
	b := img.Bounds()
	if margin < 0 || offset.X < 0 || offset.Y < 0 || offset.X > margin || offset.Y > margin {
		return nil, fmt.Errorf("offset %v must lie within the %d pixel margin", offset, margin)
	}
	canvas := imaging.New(b.Dx()+margin, b.Dy()+margin, color.Gray{Y: Background})
	return imaging.Paste(canvas, img, offset), nil
}

// Variant is one generated test image.
type Variant struct {
	Name  string
	Image image.Image

	// Offset is the position of the original's top-left corner in a
	// translated variant. It is zero for rotations.
	Offset image.Point
}

// Angles and Translations are the standard variant parameters.
var (
	Angles       = []float64{-10, -5, -2, 2, 5, 10}
	Translations = []int{10, 20, 50}
)

// TranslationMargin is the canvas growth used for translated variants.
const TranslationMargin = 100

// Variants returns the rotated and translated variants of img. Translated
// variants put the original 50 pixels from the left and t pixels from the
// top.
func Variants(img image.Image) ([]Variant, error) {
	out := make([]Variant, 0, len(Angles)+len(Translations))
	for _, a := range Angles {
		out = append(out, Variant{
			Name:  fmt.Sprintf("rotated%g", a),
			Image: Rotated(img, a),
		})
	}
	for _, t := range Translations {
		offset := image.Pt(50, t)
		translated, err := Translated(img, offset, TranslationMargin)
		if err != nil {
			return nil, err
		}
		out = append(out, Variant{
			Name:   fmt.Sprintf("translated%d", t),
			Image:  translated,
			Offset: offset,
		})
	}
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
