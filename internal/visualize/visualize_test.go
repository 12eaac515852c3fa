package visualize

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/ironsheep/image-features-mcp/internal/features"
)

func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func red(img image.Image, x, y int) uint32 {
	r, _, _, _ := img.At(x, y).RGBA()
	return r >> 8
}

func kp(x, y int, orientation float64) features.Keypoint {
	return features.Keypoint{Position: features.Point{X: x, Y: y}, Orientation: orientation}
}

func TestDrawKeypoints(t *testing.T) {
	black := color.RGBA{0, 0, 0, 255}
	img := createInMemoryImage(40, 40, black)

	out, err := DrawKeypoints(img, []features.Keypoint{kp(20, 20, 0)}, DrawKeypointsOptions{ShowOrientation: true})
	if err != nil {
		t.Fatalf("DrawKeypoints failed: %v", err)
	}
	if out.Bounds() != img.Bounds() {
		t.Fatalf("bounds: got %v, want %v", out.Bounds(), img.Bounds())
	}
	if red(out, 25, 20) < 100 {
		t.Errorf("circle edge should be red, got %d", red(out, 25, 20))
	}
	if red(out, 22, 20) < 100 {
		t.Errorf("orientation tick should be red, got %d", red(out, 22, 20))
	}
	if red(out, 20, 17) != 0 {
		t.Errorf("inside of the circle should stay black, got %d", red(out, 20, 17))
	}
	if red(out, 2, 2) != 0 {
		t.Errorf("far pixel should stay black, got %d", red(out, 2, 2))
	}
	if red(img, 25, 20) != 0 {
		t.Error("DrawKeypoints modified its input")
	}
}

func TestDrawKeypoints_InvalidColor(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)
	if _, err := DrawKeypoints(img, []features.Keypoint{kp(5, 5, 0)}, DrawKeypointsOptions{Color: "purple"}); err == nil {
		t.Error("expected an error for a non-hex color")
	}
}

func TestNewMontage(t *testing.T) {
	src := createInMemoryImage(30, 20, color.RGBA{255, 255, 255, 255})
	dst := createInMemoryImage(10, 40, color.RGBA{128, 0, 0, 255})

	tests := []struct {
		name          string
		opts          MontageOptions
		width, height int
		origin        image.Point
	}{
		{"horizontal", MontageOptions{}, 40, 40, image.Pt(30, 0)},
		{"vertical", MontageOptions{Disposition: Vertical}, 30, 60, image.Pt(0, 20)},
		{"horizontal scaled", MontageOptions{Scale: 2}, 80, 80, image.Pt(60, 0)},
		{"vertical scaled", MontageOptions{Scale: 3, Disposition: Vertical}, 90, 180, image.Pt(0, 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMontage(src, dst, tt.opts)
			if err != nil {
				t.Fatalf("NewMontage failed: %v", err)
			}
			if m.Width != tt.width || m.Height != tt.height {
				t.Errorf("size: got %dx%d, want %dx%d", m.Width, m.Height, tt.width, tt.height)
			}
			if m.DestinationOrigin != tt.origin {
				t.Errorf("origin: got %v, want %v", m.DestinationOrigin, tt.origin)
			}
			if b := m.Image().Bounds(); b.Dx() != tt.width || b.Dy() != tt.height {
				t.Errorf("canvas: got %v", b)
			}

			if red(m.Image(), 0, 0) != 255 {
				t.Error("source should start at the top-left corner")
			}
			o := m.DestinationOrigin
			if got := red(m.Image(), o.X, o.Y); got != 128 {
				t.Errorf("destination origin pixel: got red %d, want 128", got)
			}
			last := image.Pt(o.X+m.DestinationWidth-1, o.Y+m.DestinationHeight-1)
			if got := red(m.Image(), last.X, last.Y); got != 128 {
				t.Errorf("destination corner pixel: got red %d, want 128", got)
			}
		})
	}
}

func TestNewMontage_Invalid(t *testing.T) {
	img := createInMemoryImage(5, 5, color.White)
	if _, err := NewMontage(img, img, MontageOptions{Scale: -1}); err == nil {
		t.Error("negative scale should fail")
	}
	if _, err := NewMontage(img, img, MontageOptions{Disposition: Disposition(7)}); err == nil {
		t.Error("unknown disposition should fail")
	}
}

func TestMontage_DrawMatches(t *testing.T) {
	black := color.RGBA{0, 0, 0, 255}
	src := createInMemoryImage(20, 20, black)
	dst := createInMemoryImage(20, 20, black)

	m, err := NewMontage(src, dst, MontageOptions{Scale: 3})
	if err != nil {
		t.Fatalf("NewMontage failed: %v", err)
	}

	source := []features.Keypoint{kp(5, 10, 0)}
	destination := []features.Keypoint{kp(5, 10, 0)}
	matches := []features.Match{{SourceIndex: 0, DestinationIndex: 0, Distance: 0}}

	if err := m.DrawMatches(matches, source, destination, DrawMatchesOptions{}); err != nil {
		t.Fatalf("DrawMatches failed: %v", err)
	}

	// Pixel (5,10) becomes the block (15..17, 30..32), so the line runs
	// through the middle of row 31 from x=16.5 to x=76.5. Distance 0 is green.
	g := m.Image().At(40, 31)
	r, gr, _, _ := g.RGBA()
	if gr>>8 < 100 || r>>8 > 50 {
		t.Errorf("midpoint of the match line should be green, got %v", g)
	}
	if _, above, _, _ := m.Image().At(40, 30).RGBA(); above>>8 > 50 {
		t.Errorf("the line should be centred on the enlarged block, row 30 has green %d", above>>8)
	}
	if red(src, 10, 10) != 0 {
		t.Error("DrawMatches modified the source image")
	}

	bad := []features.Match{{SourceIndex: 0, DestinationIndex: 3}}
	if err := m.DrawMatches(bad, source, destination, DrawMatchesOptions{}); err == nil {
		t.Error("out of range destination index should fail")
	}
}

func TestMontage_DrawKeypoints(t *testing.T) {
	black := color.RGBA{0, 0, 0, 255}
	m, err := NewMontage(createInMemoryImage(20, 20, black), createInMemoryImage(20, 20, black), MontageOptions{Disposition: Vertical})
	if err != nil {
		t.Fatalf("NewMontage failed: %v", err)
	}

	if err := m.DrawDestinationKeypoints([]features.Keypoint{kp(10, 10, 0)}, DrawKeypointsOptions{Radius: 4}); err != nil {
		t.Fatalf("DrawDestinationKeypoints failed: %v", err)
	}
	if red(m.Image(), 14, 30) < 100 {
		t.Errorf("destination keypoint should be drawn below the source, got red %d", red(m.Image(), 14, 30))
	}
	if red(m.Image(), 14, 10) != 0 {
		t.Error("nothing should be drawn on the source half")
	}
}

func TestPixelCentre(t *testing.T) {
	tests := []struct {
		p      features.Point
		origin image.Point
		block  int
		wantX  float64
		wantY  float64
	}{
		{features.Point{X: 3, Y: 7}, image.Point{}, 1, 3.5, 7.5},
		{features.Point{X: 6, Y: 14}, image.Point{}, 2, 7, 15},
		{features.Point{X: 15, Y: 30}, image.Pt(60, 0), 3, 76.5, 31.5},
	}
	for _, tt := range tests {
		x, y := pixelCentre(tt.p, tt.origin, tt.block)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("pixelCentre(%v, %v, %d): got (%v,%v), want (%v,%v)", tt.p, tt.origin, tt.block, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestBestMatches(t *testing.T) {
	matches := []features.Match{
		{SourceIndex: 0, Distance: 30},
		{SourceIndex: 1, Distance: 10},
		{SourceIndex: 2, Distance: 20},
		{SourceIndex: 3, Distance: 10},
	}

	got := BestMatches(matches, 3)
	want := []features.Match{matches[1], matches[3], matches[2]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if matches[0].Distance != 30 {
		t.Error("BestMatches reordered its input")
	}
	if len(BestMatches(matches, 0)) != 4 {
		t.Error("n <= 0 should keep every match")
	}
}

func TestDistanceColor(t *testing.T) {
	r, g, b, _ := distanceColor(0, 50).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("distance 0: got (%d,%d,%d), want green", r>>8, g>>8, b>>8)
	}
	r, g, _, _ = distanceColor(50, 50).RGBA()
	if r>>8 != 255 || g>>8 != 0 {
		t.Errorf("largest distance: got (%d,%d), want red", r>>8, g>>8)
	}
}

func TestParseDisposition(t *testing.T) {
	tests := []struct {
		input   string
		want    Disposition
		wantErr bool
	}{
		{"", Horizontal, false},
		{"HORIZONTAL", Horizontal, false},
		{"vertical", Vertical, false},
		{"diagonal", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDisposition(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDisposition(%q): error %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDisposition(%q): got %v, want %v", tt.input, got, tt.want)
		}
	}
}
