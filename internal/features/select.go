package features

import "math"

// SelectBest keeps the strongest keypoints such that no two kept keypoints
// are within radius of each other.
//
// Candidates are visited by descending score, ties broken by ascending row
// and then ascending column; a candidate is kept when its Euclidean distance
// to every keypoint kept so far is strictly greater than radius. This greedy
// pass approximates the maximum-score independent set rather than solving
// it exactly. A uniform grid with cells at least radius wide limits each
// check to the 3x3 neighbouring cells, so the cost is dominated by the sort.
//
// The result is in acceptance order (strongest first). The input slice is
// not modified.
func SelectBest(keypoints []Keypoint, radius float64) ([]Keypoint, error) {
	if radius < 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, configError("select", "radius must be a finite value >= 0, got %v", radius)
	}

	ordered := make([]Keypoint, len(keypoints))
	copy(ordered, keypoints)
	sortByStrength(ordered)

	cell := math.Max(radius, 1)
	grid := make(map[[2]int][]Point)
	limit := radius * radius

	selected := make([]Keypoint, 0)
	for _, kp := range ordered {
		cx := int(math.Floor(float64(kp.Position.X) / cell))
		cy := int(math.Floor(float64(kp.Position.Y) / cell))

		if tooClose(grid, cx, cy, kp.Position, limit) {
			continue
		}
		key := [2]int{cx, cy}
		grid[key] = append(grid[key], kp.Position)
		selected = append(selected, kp)
	}
	return selected, nil
}

// tooClose reports whether any point stored in the cells around (cx, cy)
// lies within sqrt(limit) of p.
func tooClose(grid map[[2]int][]Point, cx, cy int, p Point, limit float64) bool {
	for gy := cy - 1; gy <= cy+1; gy++ {
		for gx := cx - 1; gx <= cx+1; gx++ {
			for _, q := range grid[[2]int{gx, gy}] {
				dx := float64(p.X - q.X)
				dy := float64(p.Y - q.Y)
				if dx*dx+dy*dy <= limit {
					return true
				}
			}
		}
	}
	return false
}

// ScaleKeypoints returns copies of keypoints with positions multiplied by
// factor and rounded to the nearest pixel. Orientation and score are left
// unchanged. It is used to place keypoints on a resized canvas.
func ScaleKeypoints(keypoints []Keypoint, factor float64) ([]Keypoint, error) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, configError("scale", "factor must be a finite value > 0, got %v", factor)
	}

	scaled := make([]Keypoint, len(keypoints))
	for i, kp := range keypoints {
		scaled[i] = kp
		scaled[i].Position = Point{
			X: int(math.Round(float64(kp.Position.X) * factor)),
			Y: int(math.Round(float64(kp.Position.Y) * factor)),
		}
	}
	return scaled, nil
}
