package visualize

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/ironsheep/image-features-mcp/internal/features"
)

// Disposition is how the two images of a Montage are arranged.
type Disposition int

const (
	// Horizontal puts the destination to the right of the source.
	Horizontal Disposition = iota
	// Vertical puts the destination below the source.
	Vertical
)

func (d Disposition) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// ParseDisposition accepts "horizontal" and "vertical" in any case; ""
// means Horizontal.
func ParseDisposition(name string) (Disposition, error) {
	switch strings.ToLower(name) {
	case "", "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	default:
		return 0, fmt.Errorf("unknown disposition %q (want horizontal or vertical)", name)
	}
}

// MontageOptions configures NewMontage.
type MontageOptions struct {
	// Scale is the integer enlargement applied to both images. 0 means 1.
	Scale int

	Disposition Disposition
}

// Montage is a source and a destination image placed next to each other
// on one canvas, each enlarged by Scale.
type Montage struct {
	SourceWidth       int
	SourceHeight      int
	DestinationWidth  int
	DestinationHeight int

	// DestinationOrigin is the top-left corner of the destination image on
	// the canvas. The source always starts at (0,0).
	DestinationOrigin image.Point

	Width       int
	Height      int
	Scale       int
	Disposition Disposition

	image *image.NRGBA
}

// NewMontage builds the canvas. Areas not covered by either image are
// black.
func NewMontage(source, destination image.Image, opts MontageOptions) (*Montage, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	if scale < 1 {
		return nil, fmt.Errorf("scale must be an integer >= 1, got %d", opts.Scale)
	}

	m := &Montage{
		SourceWidth:       scale * source.Bounds().Dx(),
		SourceHeight:      scale * source.Bounds().Dy(),
		DestinationWidth:  scale * destination.Bounds().Dx(),
		DestinationHeight: scale * destination.Bounds().Dy(),
		Scale:             scale,
		Disposition:       opts.Disposition,
	}

	switch opts.Disposition {
	case Horizontal:
		m.DestinationOrigin = image.Pt(m.SourceWidth, 0)
		m.Width = m.SourceWidth + m.DestinationWidth
		m.Height = maxInt(m.SourceHeight, m.DestinationHeight)
	case Vertical:
		m.DestinationOrigin = image.Pt(0, m.SourceHeight)
		m.Width = maxInt(m.SourceWidth, m.DestinationWidth)
		m.Height = m.SourceHeight + m.DestinationHeight
	default:
		return nil, fmt.Errorf("unknown disposition %v", opts.Disposition)
	}

	canvas := imaging.New(m.Width, m.Height, color.Black)
	canvas = imaging.Paste(canvas, enlarge(source, scale), image.Point{})
	canvas = imaging.Paste(canvas, enlarge(destination, scale), m.DestinationOrigin)
	m.image = canvas
	return m, nil
}

func enlarge(img image.Image, scale int) *image.NRGBA {
	if scale == 1 {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)
}

// Image returns the current canvas.
func (m *Montage) Image() image.Image { return m.image }

// DrawKeypoints marks source keypoints on the montage.
func (m *Montage) DrawKeypoints(keypoints []features.Keypoint, opts DrawKeypointsOptions) error {
	return m.drawKeypointsAt(keypoints, image.Point{}, opts)
}

// DrawDestinationKeypoints marks destination keypoints on the montage.
func (m *Montage) DrawDestinationKeypoints(keypoints []features.Keypoint, opts DrawKeypointsOptions) error {
	return m.drawKeypointsAt(keypoints, m.DestinationOrigin, opts)
}

func (m *Montage) drawKeypointsAt(keypoints []features.Keypoint, origin image.Point, opts DrawKeypointsOptions) error {
	scaled, err := features.ScaleKeypoints(keypoints, float64(m.Scale))
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(m.image)
	if err := drawKeypoints(dc, scaled, origin, m.Scale, opts); err != nil {
		return err
	}
	m.image = imaging.Clone(dc.Image())
	return nil
}

// DrawMatchesOptions controls Montage.DrawMatches. Zero values select the
// defaults.
type DrawMatchesOptions struct {
	// Color of every match as "#rrggbb". When empty, each match is coloured
	// from green (distance 0) to red (the largest drawn distance).
	Color string

	// MaxMatches, when > 0, draws only the N matches with the smallest
	// distance.
	MaxMatches int

	// Radius of the circles drawn on both endpoints. Default 3.
	Radius float64

	// LineWidth of lines and circles. Default 1.
	LineWidth float64
}

// DrawMatches draws each match as a line from its source keypoint to its
// destination keypoint, with a circle on both ends.
func (m *Montage) DrawMatches(matches []features.Match, source, destination []features.Keypoint, opts DrawMatchesOptions) error {
	if opts.Radius <= 0 {
		opts.Radius = 3
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 1
	}
	var fixed color.Color
	if opts.Color != "" {
		c, err := parseColor(opts.Color, "")
		if err != nil {
			return err
		}
		fixed = c
	}

	for _, match := range matches {
		if match.SourceIndex < 0 || match.SourceIndex >= len(source) {
			return fmt.Errorf("match source index %d out of range (%d keypoints)", match.SourceIndex, len(source))
		}
		if match.DestinationIndex < 0 || match.DestinationIndex >= len(destination) {
			return fmt.Errorf("match destination index %d out of range (%d keypoints)", match.DestinationIndex, len(destination))
		}
	}

	drawn := BestMatches(matches, opts.MaxMatches)
	limit := 0
	for _, match := range drawn {
		limit = maxInt(limit, match.Distance)
	}

	dc := gg.NewContextForImage(m.image)
	dc.SetLineWidth(opts.LineWidth)
	for _, match := range drawn {
		c := fixed
		if c == nil {
			c = distanceColor(match.Distance, limit)
		}
		dc.SetColor(c)

		sx, sy := pixelCentre(m.scalePoint(source[match.SourceIndex].Position), image.Point{}, m.Scale)
		dx, dy := pixelCentre(m.scalePoint(destination[match.DestinationIndex].Position), m.DestinationOrigin, m.Scale)

		dc.DrawLine(sx, sy, dx, dy)
		dc.Stroke()
		dc.DrawCircle(sx, sy, opts.Radius)
		dc.Stroke()
		dc.DrawCircle(dx, dy, opts.Radius)
		dc.Stroke()
	}
	m.image = imaging.Clone(dc.Image())
	return nil
}

// BestMatches returns up to n matches with the smallest distances, ties
// kept in their original order. n <= 0 returns every match.
func BestMatches(matches []features.Match, n int) []features.Match {
	out := make([]features.Match, len(matches))
	copy(out, matches)
	if n <= 0 || n >= len(out) {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out[:n]
}

// scalePoint places p on the enlarged canvas, as ScaleKeypoints does.
func (m *Montage) scalePoint(p features.Point) features.Point {
	return features.Point{X: p.X * m.Scale, Y: p.Y * m.Scale}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
