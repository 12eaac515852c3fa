package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-features-mcp/internal/features"
)

// DefaultPatchSize is the side of the patch returned by KeypointPatch when
// no size is given. It matches the default descriptor patch.
const DefaultPatchSize = features.DefaultPatchSize

// KeypointPatch returns the size x size square of img centred on kp,
// enlarged by an integer scale with nearest-neighbour resampling so single
// pixels stay visible. The patch is axis aligned; kp's orientation is not
// applied. Parts of the square outside img are black.
func KeypointPatch(img image.Image, kp features.Keypoint, size, scale int) (*image.NRGBA, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("patch size must be a positive odd integer, got %d", size)
	}
	if scale < 1 {
		return nil, fmt.Errorf("scale must be an integer >= 1, got %d", scale)
	}

	bounds := img.Bounds()
	cx := bounds.Min.X + kp.Position.X
	cy := bounds.Min.Y + kp.Position.Y
	if !(image.Point{X: cx, Y: cy}).In(bounds) {
		return nil, fmt.Errorf("keypoint (%d,%d) outside image bounds %dx%d",
			kp.Position.X, kp.Position.Y, bounds.Dx(), bounds.Dy())
	}

	half := size / 2
	window := image.Rect(cx-half, cy-half, cx+half+1, cy+half+1)
	visible := window.Intersect(bounds)

	patch := imaging.New(size, size, color.Black)
	cropped := imaging.Crop(img, visible)
	patch = imaging.Paste(patch, cropped, visible.Min.Sub(window.Min))

	if scale > 1 {
		patch = imaging.Resize(patch, size*scale, size*scale, imaging.NearestNeighbor)
	}
	return patch, nil
}
