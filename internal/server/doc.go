// Package server implements the MCP (Model Context Protocol) server for
// image feature detection and matching.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr so they never interleave with protocol output.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Features:
//   - image_detect_keypoints: FAST corners with orientation and score
//   - image_describe_keypoints: Keypoints plus rotated binary descriptors
//   - image_match_features: Hamming matches between two images, with statistics
//
// Visualisation:
//   - image_draw_keypoints: Keypoint circles, orientations and labels
//   - image_draw_matches: Side-by-side montage with match lines
//   - image_keypoint_patch: The square patch around one keypoint
//
// # Defaults
//
// Every feature tool starts from the configuration passed to New, usually
// loaded from IMAGE_MCP_* environment variables, and applies the per-call
// arguments on top. Absent or zero arguments keep the configured value;
// threshold, select_radius, blur_sigma, max_distance, ratio_threshold and
// cross_check are honoured even when zero or false.
//
// # Image Caching
//
// Loaded images and their greyscale conversions are cached by path, so
// matching the same pair twice decodes each file once.
package server
