package features

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// Surface is read-only access to a single-channel intensity image.
//
// Intensity is only called with 0 <= x < Width() and 0 <= y < Height().
// Implementations must not change while a pipeline call is using them.
type Surface interface {
	Width() int
	Height() int
	Intensity(x, y int) float64
}

// GreySurface adapts an *image.Gray to the Surface interface.
//
// Coordinates are relative to the image bounds, so a sub-image obtained via
// SubImage is addressed from (0,0).
type GreySurface struct {
	img *image.Gray
}

// NewGreySurface wraps img. The image is not copied.
func NewGreySurface(img *image.Gray) *GreySurface {
	return &GreySurface{img: img}
}

// Width returns the surface width in pixels.
func (s *GreySurface) Width() int { return s.img.Bounds().Dx() }

// Height returns the surface height in pixels.
func (s *GreySurface) Height() int { return s.img.Bounds().Dy() }

// Intensity returns the 8-bit grey level at (x, y) as a float64.
func (s *GreySurface) Intensity(x, y int) float64 {
	min := s.img.Rect.Min
	return float64(s.img.Pix[s.img.PixOffset(x+min.X, y+min.Y)])
}

// BorderMode selects how samples outside the surface are resolved.
type BorderMode int

const (
	// BorderClamp replicates the nearest edge pixel.
	BorderClamp BorderMode = iota
	// BorderReflect mirrors around the edge pixel without repeating it
	// (…, 2, 1, |0, 1, 2, …).
	BorderReflect
	// BorderWrap tiles the surface.
	BorderWrap
	// BorderReject refuses any tap outside the surface.
	BorderReject
)

var borderNames = [...]string{"clamp", "reflect", "wrap", "reject"}

func (b BorderMode) String() string {
	if b < 0 || int(b) >= len(borderNames) {
		return fmt.Sprintf("BorderMode(%d)", int(b))
	}
	return borderNames[b]
}

// ParseBorderMode converts a border mode name ("clamp", "reflect", "wrap",
// "reject") to a BorderMode. The empty string yields BorderClamp.
func ParseBorderMode(name string) (BorderMode, error) {
	if name == "" {
		return BorderClamp, nil
	}
	for i, n := range borderNames {
		if strings.EqualFold(n, name) {
			return BorderMode(i), nil
		}
	}
	return 0, configError("sampling", "unknown border mode %q", name)
}

// Interpolation selects how non-integer positions are sampled.
type Interpolation int

const (
	// InterpolationBilinear blends the four surrounding pixels.
	InterpolationBilinear Interpolation = iota
	// InterpolationNearest rounds to the nearest pixel.
	InterpolationNearest
	// InterpolationBicubic fits a Catmull-Rom spline through 4x4 pixels.
	// Results may overshoot the range of the surrounding pixels.
	InterpolationBicubic
)

var interpolationNames = [...]string{"bilinear", "nearest", "bicubic"}

func (i Interpolation) String() string {
	if i < 0 || int(i) >= len(interpolationNames) {
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
	return interpolationNames[i]
}

// ParseInterpolation converts an interpolation name ("bilinear", "nearest",
// "bicubic") to an Interpolation. The empty string yields
// InterpolationBilinear.
func ParseInterpolation(name string) (Interpolation, error) {
	if name == "" {
		return InterpolationBilinear, nil
	}
	for i, n := range interpolationNames {
		if strings.EqualFold(n, name) {
			return Interpolation(i), nil
		}
	}
	return 0, configError("sampling", "unknown interpolation %q", name)
}

// Sampling is the per-call sampling strategy. The zero value means clamped
// borders with bilinear interpolation.
type Sampling struct {
	Border        BorderMode
	Interpolation Interpolation
}

type borderFunc func(i, n int) (int, bool)

type interpolateFunc func(s *Sampler, x, y float64) (float64, bool)

var borderFuncs = [...]borderFunc{
	BorderClamp:   borderClamp,
	BorderReflect: borderReflect,
	BorderWrap:    borderWrap,
	BorderReject:  borderReject,
}

var interpolateFuncs = [...]interpolateFunc{
	InterpolationBilinear: interpolateBilinear,
	InterpolationNearest:  interpolateNearest,
	InterpolationBicubic:  interpolateBicubic,
}

// footprints holds how many pixels beyond floor(position) each
// interpolation may read, in any direction.
var footprints = [...]int{
	InterpolationBilinear: 1,
	InterpolationNearest:  1,
	InterpolationBicubic:  2,
}

// Sampler reads a Surface at arbitrary positions using a fixed Sampling
// strategy. It holds no mutable state and is safe for concurrent use.
type Sampler struct {
	src         Surface
	width       int
	height      int
	sampling    Sampling
	border      borderFunc
	interpolate interpolateFunc
}

// NewSampler validates sampling and returns a Sampler over src.
func NewSampler(src Surface, sampling Sampling) (*Sampler, error) {
	if src == nil {
		return nil, configError("sampling", "nil surface")
	}
	if sampling.Border < 0 || int(sampling.Border) >= len(borderFuncs) {
		return nil, configError("sampling", "invalid border mode %d", int(sampling.Border))
	}
	if sampling.Interpolation < 0 || int(sampling.Interpolation) >= len(interpolateFuncs) {
		return nil, configError("sampling", "invalid interpolation %d", int(sampling.Interpolation))
	}
	return &Sampler{
		src:         src,
		width:       src.Width(),
		height:      src.Height(),
		sampling:    sampling,
		border:      borderFuncs[sampling.Border],
		interpolate: interpolateFuncs[sampling.Interpolation],
	}, nil
}

// Sampling returns the strategy the sampler was built with.
func (s *Sampler) Sampling() Sampling { return s.sampling }

// Pixel returns the intensity of the integer position (x, y) after border
// resolution. ok is false when the border mode rejects the position or the
// surface is empty.
func (s *Sampler) Pixel(x, y int) (float64, bool) {
	if s.width == 0 || s.height == 0 {
		return 0, false
	}
	bx, ok := s.border(x, s.width)
	if !ok {
		return 0, false
	}
	by, ok := s.border(y, s.height)
	if !ok {
		return 0, false
	}
	return s.src.Intensity(bx, by), true
}

// At returns the interpolated intensity at (x, y).
func (s *Sampler) At(x, y float64) (float64, bool) {
	return s.interpolate(s, x, y)
}

// footprint is the number of pixels beyond floor(position) that At may read.
func (s *Sampler) footprint() int {
	return footprints[s.sampling.Interpolation]
}

func borderClamp(i, n int) (int, bool) {
	if i < 0 {
		return 0, true
	}
	if i >= n {
		return n - 1, true
	}
	return i, true
}

func borderReflect(i, n int) (int, bool) {
	if n == 1 {
		return 0, true
	}
	period := 2*n - 2
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i, true
}

func borderWrap(i, n int) (int, bool) {
	i %= n
	if i < 0 {
		i += n
	}
	return i, true
}

func borderReject(i, n int) (int, bool) {
	return i, i >= 0 && i < n
}

func interpolateNearest(s *Sampler, x, y float64) (float64, bool) {
	return s.Pixel(int(math.Floor(x+0.5)), int(math.Floor(y+0.5)))
}

func interpolateBilinear(s *Sampler, x, y float64) (float64, bool) {
	fx, fy := math.Floor(x), math.Floor(y)
	x0, y0 := int(fx), int(fy)
	if fx == x && fy == y {
		return s.Pixel(x0, y0)
	}

	v00, ok0 := s.Pixel(x0, y0)
	v10, ok1 := s.Pixel(x0+1, y0)
	v01, ok2 := s.Pixel(x0, y0+1)
	v11, ok3 := s.Pixel(x0+1, y0+1)
	if !(ok0 && ok1 && ok2 && ok3) {
		return 0, false
	}

	tx, ty := x-fx, y-fy
	top := (1-tx)*v00 + tx*v10
	bottom := (1-tx)*v01 + tx*v11
	return (1-ty)*top + ty*bottom, true
}

func interpolateBicubic(s *Sampler, x, y float64) (float64, bool) {
	fx, fy := math.Floor(x), math.Floor(y)
	x1, y1 := int(fx), int(fy)
	if fx == x && fy == y {
		return s.Pixel(x1, y1)
	}

	tx, ty := x-fx, y-fy
	var rows [4]float64
	for j := 0; j < 4; j++ {
		var taps [4]float64
		for i := 0; i < 4; i++ {
			v, ok := s.Pixel(x1-1+i, y1-1+j)
			if !ok {
				return 0, false
			}
			taps[i] = v
		}
		rows[j] = cubic(taps[0], taps[1], taps[2], taps[3], tx)
	}
	return cubic(rows[0], rows[1], rows[2], rows[3], ty), true
}

// cubic evaluates the Catmull-Rom spline through a, b, c, d at t in [0,1]
// between b and c.
func cubic(a, b, c, d, t float64) float64 {
	return b + 0.5*t*(c-a+t*(2*a-5*b+4*c-d+t*(3*(b-c)+d-a)))
}
