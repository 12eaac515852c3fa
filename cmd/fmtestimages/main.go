// Command fmtestimages writes the rotated and translated variants used to
// check feature matching by eye.
//
// Usage:
//
//	fmtestimages -input photo.png -output testdata/
//	fmtestimages -output testdata/ -width 320 -height 240 -seed 7   # synthetic scene
//
// Each variant is saved as <name>-<variant>.png next to a copy of the
// source image.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-features-mcp/internal/logger"
	"github.com/ironsheep/image-features-mcp/internal/testimages"
)

var (
	inputFile = flag.String("input", "", "Source image (default: a synthetic scene)")
	outputDir = flag.String("output", ".", "Output directory")
	width     = flag.Int("width", 320, "Synthetic scene width")
	height    = flag.Int("height", 240, "Synthetic scene height")
	shapes    = flag.Int("shapes", 40, "Synthetic scene shape count")
	seed      = flag.Int64("seed", 1, "Synthetic scene seed")
)

func main() {
	flag.Parse()

	src, name, err := source()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	variants, err := testimages.Variants(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	variants = append([]testimages.Variant{{Name: "original", Image: src}}, variants...)

	for _, v := range variants {
		path := filepath.Join(*outputDir, fmt.Sprintf("%s-%s.png", name, v.Name))
		if err := imaging.Save(v.Image, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger.WithFields(logrus.Fields{
			"path":   path,
			"size":   v.Image.Bounds().Size(),
			"offset": v.Offset,
		}).Info("wrote variant")
	}
}

// source returns the image to vary and the base name of the outputs.
func source() (image.Image, string, error) {
	if *inputFile == "" {
		if *width <= 0 || *height <= 0 || *shapes < 0 {
			return nil, "", fmt.Errorf("invalid scene %dx%d with %d shapes", *width, *height, *shapes)
		}
		return testimages.Scene(*width, *height, *shapes, *seed), fmt.Sprintf("scene%d", *seed), nil
	}

	img, err := imaging.Open(*inputFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", *inputFile, err)
	}
	base := filepath.Base(*inputFile)
	return img, strings.TrimSuffix(base, filepath.Ext(base)), nil
}
