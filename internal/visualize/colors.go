package visualize

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// parseColor parses a "#rrggbb" string, returning fallback for "".
func parseColor(hex, fallback string) (color.Color, error) {
	if hex == "" {
		hex = fallback
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// distanceColor maps a match distance onto a green (0) to red (limit) ramp.
func distanceColor(distance, limit int) color.Color {
	t := 0.0
	if limit > 0 {
		t = float64(distance) / float64(limit)
	}
	if t > 1 {
		t = 1
	}
	return colorful.Hsv(120*(1-t), 1, 1)
}
