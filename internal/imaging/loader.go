package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// greyKey identifies one greyscale conversion of a cached file.
type greyKey struct {
	path  string
	sigma float64
}

// ImageCache keeps decoded images, and their greyscale conversions, keyed
// by file path.
//
// Feature matching usually compares one reference image against many
// others, so the reference is decoded and converted once. Entries stay in
// memory until Evict or Clear is called.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	greys  map[greyKey]*image.Gray
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
		greys:  make(map[greyKey]*image.Gray),
	}
}

// Load returns the decoded image at path, reading it from disk on first
// use. PNG, JPEG and GIF are supported.
//
// The exact path string is the cache key, so a relative and an absolute
// path to the same file are cached separately.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// LoadGrey returns the greyscale conversion of the image at path, blurred
// with a Gaussian of the given sigma when sigma > 0. The conversion is
// cached per (path, sigma).
func (c *ImageCache) LoadGrey(path string, sigma float64) (*image.Gray, error) {
	key := greyKey{path: path, sigma: sigma}

	c.mu.RLock()
	if g, ok := c.greys[key]; ok {
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()

	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	g, err := Greyscale(img, sigma)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.greys[key] = g
	c.mu.Unlock()

	return g, nil
}

// Clear drops every cached image and conversion.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.greys = make(map[greyKey]*image.Gray)
	c.mu.Unlock()
}

// Evict drops the image at path and all of its greyscale conversions.
// Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	for key := range c.greys {
		if key.path == path {
			delete(c.greys, key)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of cached decoded images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo describes an image file.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif" or "unknown", from the file extension.
	Format string `json:"format"`

	// ColorModel is the decoded pixel layout, e.g. "gray", "rgba", "ycbcr".
	ColorModel string `json:"color_model"`

	// ColorDepth is "8-bit" or "16-bit" per channel.
	ColorDepth string `json:"color_depth"`

	HasAlpha      bool  `json:"has_alpha"`
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads the image at path through cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	model, depth, alpha := describeModel(img)
	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorModel:    model,
		ColorDepth:    depth,
		HasAlpha:      alpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

func describeModel(img image.Image) (model, depth string, alpha bool) {
	switch img.(type) {
	case *image.Gray:
		return "gray", "8-bit", false
	case *image.Gray16:
		return "gray", "16-bit", false
	case *image.RGBA:
		return "rgba", "8-bit", true
	case *image.NRGBA:
		return "nrgba", "8-bit", true
	case *image.RGBA64:
		return "rgba", "16-bit", true
	case *image.NRGBA64:
		return "nrgba", "16-bit", true
	case *image.YCbCr:
		return "ycbcr", "8-bit", false
	case *image.Paletted:
		return "paletted", "8-bit", true
	default:
		return "unknown", "8-bit", false
	}
}

// DimensionsResult is the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions loads the image at path through cache and returns its size.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
