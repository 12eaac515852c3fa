package features

import (
	"image"
	"image/color"
	"math"
	"math/rand"
)

// funcSurface evaluates an intensity function at integer pixels.
type funcSurface struct {
	width, height int
	f             func(x, y float64) float64
}

func (s funcSurface) Width() int                 { return s.width }
func (s funcSurface) Height() int                { return s.height }
func (s funcSurface) Intensity(x, y int) float64 { return s.f(float64(x), float64(y)) }

// createGrey creates a greyscale image filled with a constant level.
func createGrey(width, height int, level uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return img
}

// createSquareImage draws a bright square on a dark background. The square
// covers [x1,x2]x[y1,y2] inclusive.
func createSquareImage(width, height, x1, y1, x2, y2 int) *image.Gray {
	img := createGrey(width, height, 50)
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			img.SetGray(x, y, color.Gray{Y: 200})
		}
	}
	return img
}

// createNoiseImage fills an image with seeded random blocks so the
// detector has plenty of corners to find.
func createNoiseImage(width, height, block int, seed int64) *image.Gray {
	rng := rand.New(rand.NewSource(seed))
	img := createGrey(width, height, 0)
	for by := 0; by < height; by += block {
		for bx := 0; bx < width; bx += block {
			level := uint8(rng.Intn(256))
			for y := by; y < by+block && y < height; y++ {
				for x := bx; x < bx+block && x < width; x++ {
					img.SetGray(x, y, color.Gray{Y: level})
				}
			}
		}
	}
	return img
}

// createBumpImage renders a rounded Gaussian bump centred on (cx, cy).
func createBumpImage(width, height int, cx, cy, amplitude, sigma float64) *image.Gray {
	img := createGrey(width, height, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			v := amplitude * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			img.SetGray(x, y, color.Gray{Y: uint8(math.Round(v))})
		}
	}
	return img
}

// rotatedSurface resamples src rotated by theta around (cx, cy).
func rotatedSurface(src Surface, cx, cy, theta float64) Surface {
	sampler, err := NewSampler(src, Sampling{})
	if err != nil {
		panic(err)
	}
	sin, cos := math.Sincos(-theta)
	return funcSurface{
		width:  src.Width(),
		height: src.Height(),
		f: func(x, y float64) float64 {
			dx, dy := x-cx, y-cy
			v, _ := sampler.At(cx+dx*cos-dy*sin, cy+dx*sin+dy*cos)
			return v
		},
	}
}

// descriptorWithBits builds a descriptor with the given bits set.
func descriptorWithBits(bits int, set ...int) Descriptor {
	d := newDescriptor(bits)
	for _, i := range set {
		d.set(i)
	}
	return d
}

// bitRange returns the integers in [start, start+n).
func bitRange(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func equalBits(a, b Descriptor) int {
	same := 0
	for i := 0; i < a.Bits; i++ {
		if a.Bit(i) == b.Bit(i) {
			same++
		}
	}
	return same
}
