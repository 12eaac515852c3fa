// Package features implements the keypoint detection, description and matching
// pipeline used to find correspondences between two greyscale images.
//
// The pipeline has four stages, each a pure function over read-only input:
//
//  1. DetectKeypoints scans a Surface with a FAST ring test and assigns each
//     candidate an orientation from the intensity centroid of its window.
//  2. SelectBest keeps the strongest keypoints while enforcing a minimum
//     spacing between them (greedy non-maximum suppression).
//  3. ExtractDescriptor encodes the neighbourhood of a keypoint as a binary
//     signature by comparing pairs of samples from a SamplingTable, with the
//     pairs steered by the keypoint orientation.
//  4. Match pairs two descriptor collections by Hamming distance, with
//     optional distance limit, ratio test and cross-check.
//
// # Coordinate System
//
// Positions are 0-based pixel coordinates with the origin at the top-left
// corner: X is the column and grows rightward, Y is the row and grows
// downward. Orientations are radians in (-π, π], measured from the +X axis
// toward +Y.
//
// # Surfaces and Sampling
//
// The pipeline reads pixels only through the Surface interface. A Sampler
// wraps a Surface with one of a closed set of border modes (clamp, reflect,
// wrap, reject) and interpolations (nearest, bilinear, bicubic) so that the
// descriptor stage can read at rotated, non-integer positions.
//
// # Thread Safety
//
// No function in this package mutates shared state. Scratch buffers are
// allocated per call, so all stages may be called concurrently. The
// detection, batch description and matching stages partition their own work
// across goroutines and assemble results in index order; their output is
// identical to a sequential run.
//
// # Error Handling
//
// Invalid parameters are reported as *Error values whose Kind is one of
// KindConfiguration, KindOutOfBounds or KindIncompatibleDescriptor. They can
// be tested with errors.Is against ErrConfiguration, ErrOutOfBounds and
// ErrIncompatibleDescriptor. Empty inputs are not errors: they produce empty
// results. No stage returns partial output together with an error.
package features
