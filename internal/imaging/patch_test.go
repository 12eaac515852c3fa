package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/ironsheep/image-features-mcp/internal/features"
)

func TestKeypointPatch(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{0, 0, 0, 255})
	img.Set(20, 30, color.RGBA{255, 0, 0, 255})

	kp := features.Keypoint{Position: features.Point{X: 20, Y: 30}}
	patch, err := KeypointPatch(img, kp, 7, 1)
	if err != nil {
		t.Fatalf("KeypointPatch failed: %v", err)
	}
	if patch.Bounds() != image.Rect(0, 0, 7, 7) {
		t.Fatalf("bounds: got %v", patch.Bounds())
	}
	if r, _, _, _ := patch.At(3, 3).RGBA(); r>>8 != 255 {
		t.Errorf("centre pixel should be the keypoint pixel, got red %d", r>>8)
	}
}

func TestKeypointPatch_ScaleAndBorder(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{255, 255, 255, 255})

	kp := features.Keypoint{Position: features.Point{X: 0, Y: 0}}
	patch, err := KeypointPatch(img, kp, 5, 3)
	if err != nil {
		t.Fatalf("KeypointPatch failed: %v", err)
	}
	if patch.Bounds().Dx() != 15 || patch.Bounds().Dy() != 15 {
		t.Fatalf("size: got %v, want 15x15", patch.Bounds())
	}

	// The top-left quarter of the window lies outside the image.
	if r, _, _, _ := patch.At(1, 1).RGBA(); r != 0 {
		t.Errorf("outside pixel should be black, got red %d", r>>8)
	}
	if r, _, _, _ := patch.At(14, 14).RGBA(); r>>8 != 255 {
		t.Errorf("inside pixel should be white, got red %d", r>>8)
	}
}

func TestKeypointPatch_Invalid(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)
	inside := features.Keypoint{Position: features.Point{X: 5, Y: 5}}

	tests := []struct {
		name        string
		kp          features.Keypoint
		size, scale int
		wantErr     string
	}{
		{"even size", inside, 8, 1, "odd"},
		{"zero scale", inside, 7, 0, "scale"},
		{"outside", features.Keypoint{Position: features.Point{X: 10, Y: 2}}, 7, 1, "outside"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := KeypointPatch(img, tt.kp, tt.size, tt.scale)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEncodePNG(t *testing.T) {
	img := createInMemoryImage(12, 9, color.RGBA{10, 20, 30, 255})

	enc, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if enc.Width != 12 || enc.Height != 9 || enc.MimeType != "image/png" {
		t.Errorf("unexpected header: %+v", enc)
	}

	raw, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	decoded, err := png.Decode(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 12 || decoded.Bounds().Dy() != 9 {
		t.Errorf("decoded size: got %v", decoded.Bounds())
	}
}
