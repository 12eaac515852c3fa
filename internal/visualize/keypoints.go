package visualize

import (
	"image"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/ironsheep/image-features-mcp/internal/features"
)

// DrawKeypointsOptions controls DrawKeypoints. Zero values select the
// defaults.
type DrawKeypointsOptions struct {
	// Color of the markers as "#rrggbb". Default red.
	Color string

	// Radius of the circle drawn around each keypoint. Default 5.
	Radius float64

	// LineWidth of circles and orientation ticks. Default 1.
	LineWidth float64

	// ShowOrientation draws a radius from the centre in the keypoint's
	// orientation.
	ShowOrientation bool

	// ShowIndex labels each keypoint with its position in the slice.
	ShowIndex bool
}

func (o DrawKeypointsOptions) withDefaults() DrawKeypointsOptions {
	if o.Radius <= 0 {
		o.Radius = 5
	}
	if o.LineWidth <= 0 {
		o.LineWidth = 1
	}
	return o
}

// DrawKeypoints returns a copy of img with every keypoint circled.
func DrawKeypoints(img image.Image, keypoints []features.Keypoint, opts DrawKeypointsOptions) (image.Image, error) {
	dc := gg.NewContextForImage(img)
	if err := drawKeypoints(dc, keypoints, image.Point{}, 1, opts); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// drawKeypoints draws keypoints onto dc, shifted by origin. Each position
// is the top-left corner of a block x block square of canvas pixels.
func drawKeypoints(dc *gg.Context, keypoints []features.Keypoint, origin image.Point, block int, opts DrawKeypointsOptions) error {
	opts = opts.withDefaults()
	c, err := parseColor(opts.Color, "#ff0000")
	if err != nil {
		return err
	}

	dc.SetColor(c)
	dc.SetLineWidth(opts.LineWidth)
	if opts.ShowIndex {
		dc.SetFontFace(basicfont.Face7x13)
	}

	for i, kp := range keypoints {
		x, y := pixelCentre(kp.Position, origin, block)
		dc.DrawCircle(x, y, opts.Radius)
		dc.Stroke()

		if opts.ShowOrientation {
			sin, cos := math.Sincos(kp.Orientation)
			dc.DrawLine(x, y, x+opts.Radius*cos, y+opts.Radius*sin)
			dc.Stroke()
		}
		if opts.ShowIndex {
			dc.DrawString(strconv.Itoa(i), x+opts.Radius+2, y-opts.Radius)
		}
	}
	return nil
}

// pixelCentre returns the drawing coordinates of the centre of the
// block x block square whose top-left pixel is p.
func pixelCentre(p features.Point, origin image.Point, block int) (float64, float64) {
	half := float64(block) / 2
	return float64(origin.X+p.X) + half, float64(origin.Y+p.Y) + half
}
