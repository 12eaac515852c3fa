// Package imaging loads, converts and encodes the images the feature
// pipeline works on.
//
// It sits between files on disk and the features package: images are
// decoded and cached by ImageCache, converted to 8-bit greyscale (optionally
// pre-blurred) by Greyscale, and results destined for MCP clients are
// encoded as base64 PNG by EncodePNG.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Greyscale images returned
// by this package always have their origin at (0,0), so keypoint positions
// computed on them address the original image directly.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Cached images and greyscale
// conversions are shared between callers and must not be modified.
package imaging
