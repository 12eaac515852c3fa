package features

import (
	"math"
	"sort"
)

// Point is an integer pixel position. X is the column, Y is the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Keypoint is a distinctive, localisable image point.
//
// Keypoints are produced by DetectKeypoints and are treated as immutable by
// the rest of the pipeline.
type Keypoint struct {
	// Position is the pixel location. It never lies on the detection margin.
	Position Point `json:"position"`

	// Orientation is the angle, in radians, of the intensity-weighted
	// centroid of the keypoint window relative to its centre. It is 0 for a
	// perfectly symmetric window.
	Orientation float64 `json:"orientation"`

	// Score is the corner response; higher is more distinctive.
	Score float64 `json:"score"`
}

// RingRadius is the radius of the FAST sampling circle.
const RingRadius = 3

// RingLength is the number of pixels on the FAST sampling circle.
const RingLength = 16

// ring is the radius-3 Bresenham circle, clockwise from twelve o'clock.
var ring = [RingLength]Point{
	{0, -3}, {1, -3}, {2, -2}, {3, -1},
	{3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1},
	{-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

// DetectOptions configures DetectKeypoints.
type DetectOptions struct {
	// WindowSize is the side of the square window used for the orientation
	// centroid. Must be a positive odd integer. Pixels closer than
	// WindowSize/2 (or the ring radius, whichever is larger) to an edge are
	// never candidates.
	WindowSize int

	// Threshold is the intensity difference above which a ring pixel counts
	// as brighter or darker than the centre. Must be >= 0.
	Threshold float64

	// MinArcLength is the minimum number of contiguous ring pixels that must
	// all be brighter or all be darker. Must be in 1..RingLength.
	MinArcLength int

	// MaxKeypoints, when > 0, keeps only the strongest N candidates.
	MaxKeypoints int
}

// DefaultDetectOptions returns FAST-9 with a 7x7 orientation window.
func DefaultDetectOptions() DetectOptions {
	return DetectOptions{
		WindowSize:   7,
		Threshold:    20,
		MinArcLength: 9,
	}
}

// Margin returns the distance from each edge inside which no keypoint is
// reported.
func (o DetectOptions) Margin() int {
	if half := o.WindowSize / 2; half > RingRadius {
		return half
	}
	return RingRadius
}

func (o DetectOptions) validate() error {
	if o.WindowSize <= 0 || o.WindowSize%2 == 0 {
		return configError("detect", "window size must be a positive odd integer, got %d", o.WindowSize)
	}
	if o.MinArcLength < 1 || o.MinArcLength > RingLength {
		return configError("detect", "min arc length must be in 1..%d, got %d", RingLength, o.MinArcLength)
	}
	if o.Threshold < 0 || math.IsNaN(o.Threshold) {
		return configError("detect", "threshold must be >= 0, got %v", o.Threshold)
	}
	if o.MaxKeypoints < 0 {
		return configError("detect", "max keypoints must be >= 0, got %d", o.MaxKeypoints)
	}
	return nil
}

// DetectKeypoints finds oriented FAST corners on src.
//
// For every pixel at least Margin() away from the edges, the 16 pixels of
// the radius-3 ring are classified as brighter than the centre plus
// Threshold, darker than the centre minus Threshold, or similar. The pixel
// is a keypoint when a contiguous run (wrapping around the ring) of at least
// MinArcLength pixels is all brighter or all darker. Its score is the
// largest sum of absolute differences over such a run, and its orientation
// is atan2(Σ dy·I, Σ dx·I) over the WindowSize x WindowSize window.
//
// Keypoints are returned in row-major scan order, or strongest first when
// MaxKeypoints truncates the result. A surface too small to hold any
// candidate yields an empty slice.
func DetectKeypoints(src Surface, opts DetectOptions) ([]Keypoint, error) {
	if src == nil {
		return nil, configError("detect", "nil surface")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	width, height := src.Width(), src.Height()
	margin := opts.Margin()
	rows := height - 2*margin
	if rows <= 0 || width-2*margin <= 0 {
		return []Keypoint{}, nil
	}

	chunks, _ := chunkPlan(rows)
	parts := make([][]Keypoint, chunks)
	err := parallelRanges(rows, func(chunk, start, end int) error {
		var found []Keypoint
		for y := margin + start; y < margin+end; y++ {
			for x := margin; x < width-margin; x++ {
				score, ok := ringScore(src, x, y, opts.Threshold, opts.MinArcLength)
				if !ok {
					continue
				}
				found = append(found, Keypoint{
					Position:    Point{X: x, Y: y},
					Orientation: centroidOrientation(src, x, y, opts.WindowSize/2),
					Score:       score,
				})
			}
		}
		parts[chunk] = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	keypoints := make([]Keypoint, 0)
	for _, p := range parts {
		keypoints = append(keypoints, p...)
	}

	if opts.MaxKeypoints > 0 && len(keypoints) > opts.MaxKeypoints {
		sortByStrength(keypoints)
		keypoints = keypoints[:opts.MaxKeypoints:opts.MaxKeypoints]
	}
	return keypoints, nil
}

// ringScore runs the segment test at (x, y). It returns the best run score
// and whether any run reached minArc.
func ringScore(src Surface, x, y int, threshold float64, minArc int) (float64, bool) {
	center := src.Intensity(x, y)

	var class [RingLength]int8
	var diff [RingLength]float64
	uniform := true
	for i, off := range ring {
		v := src.Intensity(x+off.X, y+off.Y)
		switch {
		case v > center+threshold:
			class[i] = 1
		case v < center-threshold:
			class[i] = -1
		}
		diff[i] = math.Abs(v - center)
		if class[i] != class[0] {
			uniform = false
		}
	}

	if uniform {
		if class[0] == 0 {
			return 0, false
		}
		var sum float64
		for _, d := range diff {
			sum += d
		}
		return sum, true
	}

	// Start the walk at a class boundary so no run is split by the wrap.
	start := 0
	for i := 0; i < RingLength; i++ {
		if class[i] != class[(i+RingLength-1)%RingLength] {
			start = i
			break
		}
	}

	best, found := 0.0, false
	for k := 0; k < RingLength; {
		c := class[(start+k)%RingLength]
		runLen, runSum := 0, 0.0
		for k < RingLength && class[(start+k)%RingLength] == c {
			runSum += diff[(start+k)%RingLength]
			runLen++
			k++
		}
		if c != 0 && runLen >= minArc {
			found = true
			if runSum > best {
				best = runSum
			}
		}
	}
	return best, found
}

// centroidOrientation returns the angle of the intensity centroid of the
// (2*half+1)² window centred on (x, y). The window must lie inside src.
func centroidOrientation(src Surface, x, y, half int) float64 {
	var mx, my float64
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			v := src.Intensity(x+dx, y+dy)
			mx += float64(dx) * v
			my += float64(dy) * v
		}
	}
	return math.Atan2(my, mx)
}

// sortByStrength orders keypoints by descending score, then ascending row,
// then ascending column.
func sortByStrength(keypoints []Keypoint) {
	sort.SliceStable(keypoints, func(i, j int) bool {
		a, b := keypoints[i], keypoints[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Position.Y != b.Position.Y {
			return a.Position.Y < b.Position.Y
		}
		return a.Position.X < b.Position.X
	})
}
