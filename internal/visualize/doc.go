// Package visualize renders keypoints and matches for inspection.
//
// DrawKeypoints marks keypoints on a copy of an image. A Montage places a
// source and a destination image side by side (or one above the other) at
// an integer scale, so that matches can be drawn as lines between the two.
//
// Drawing never modifies the input images.
package visualize
