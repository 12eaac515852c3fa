// Package pipeline chains the feature stages: greyscale surface, keypoint
// detection, radius selection, descriptor extraction and matching.
package pipeline

import (
	"fmt"
	"image"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/image-features-mcp/internal/config"
	"github.com/ironsheep/image-features-mcp/internal/features"
	"github.com/ironsheep/image-features-mcp/internal/logger"
)

// Params holds every setting of one pipeline run.
type Params struct {
	Detect features.DetectOptions

	// SelectRadius is the minimum distance between kept keypoints.
	SelectRadius float64

	Table    *features.SamplingTable
	Sampling features.Sampling
	Match    features.MatchOptions
}

// ParamsFromConfig builds Params from the loaded configuration.
func ParamsFromConfig(cfg *config.Config) (Params, error) {
	table, err := cfg.SamplingTable()
	if err != nil {
		return Params{}, err
	}
	return Params{
		Detect:       cfg.DetectOptions(),
		SelectRadius: cfg.SelectRadius,
		Table:        table,
		Sampling:     cfg.Sampling(),
		Match:        cfg.MatchOptions(),
	}, nil
}

// Features are the keypoints of one image and, when extracted, their
// descriptors. Descriptors[i] describes Keypoints[i].
type Features struct {
	Width       int
	Height      int
	Keypoints   []features.Keypoint
	Descriptors []features.Descriptor

	// Detected is the number of keypoints before radius selection.
	Detected int
}

// Detect finds and selects keypoints on grey. Keypoints that the
// configured sampling cannot describe are dropped, so Describe never fails
// on them.
func Detect(grey *image.Gray, p Params) (*Features, error) {
	src := features.NewGreySurface(grey)

	detected, err := features.DetectKeypoints(src, p.Detect)
	if err != nil {
		return nil, err
	}
	selected, err := features.SelectBest(detected, p.SelectRadius)
	if err != nil {
		return nil, err
	}
	usable, err := features.FilterDescribable(src, selected, p.Table, p.Sampling)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"width":    src.Width(),
		"height":   src.Height(),
		"detected": len(detected),
		"selected": len(selected),
		"usable":   len(usable),
	}).Debug("keypoints detected")

	return &Features{
		Width:     src.Width(),
		Height:    src.Height(),
		Keypoints: usable,
		Detected:  len(detected),
	}, nil
}

// Extract runs Detect and then describes every kept keypoint.
func Extract(grey *image.Gray, p Params) (*Features, error) {
	f, err := Detect(grey, p)
	if err != nil {
		return nil, err
	}
	f.Descriptors, err = features.ExtractDescriptors(features.NewGreySurface(grey), f.Keypoints, p.Table, p.Sampling)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Summary describes the distances of a set of matches.
type Summary struct {
	Count          int     `json:"count"`
	MinDistance    int     `json:"min_distance"`
	MaxDistance    int     `json:"max_distance"`
	MeanDistance   float64 `json:"mean_distance"`
	StdDevDistance float64 `json:"stddev_distance"`
	MedianDistance float64 `json:"median_distance"`
}

// Summarize computes distance statistics. The median is the lower median
// for an even count. An empty set yields a zero Summary.
func Summarize(matches []features.Match) Summary {
	if len(matches) == 0 {
		return Summary{}
	}
	d := make([]float64, len(matches))
	for i, m := range matches {
		d[i] = float64(m.Distance)
	}
	sort.Float64s(d)

	s := Summary{
		Count:          len(d),
		MinDistance:    int(d[0]),
		MaxDistance:    int(d[len(d)-1]),
		MeanDistance:   stat.Mean(d, nil),
		MedianDistance: stat.Quantile(0.5, stat.Empirical, d, nil),
	}
	if len(d) > 1 {
		s.StdDevDistance = stat.StdDev(d, nil)
	}
	return s
}

// MatchResult is the outcome of matching two feature sets.
type MatchResult struct {
	Matches []features.Match `json:"matches"`
	Summary Summary          `json:"summary"`
}

// Match matches source descriptors against destination descriptors.
func Match(source, destination *Features, opts features.MatchOptions) (*MatchResult, error) {
	if source == nil || destination == nil {
		return nil, fmt.Errorf("both feature sets are required")
	}
	matches, err := features.MatchDescriptors(source.Descriptors, destination.Descriptors, opts)
	if err != nil {
		return nil, err
	}

	summary := Summarize(matches)
	logger.WithFields(logrus.Fields{
		"source":      len(source.Descriptors),
		"destination": len(destination.Descriptors),
		"matches":     summary.Count,
		"mean":        summary.MeanDistance,
	}).Debug("descriptors matched")

	return &MatchResult{Matches: matches, Summary: summary}, nil
}

// MatchImages extracts features from both images and matches them.
func MatchImages(source, destination *image.Gray, p Params) (*Features, *Features, *MatchResult, error) {
	src, err := Extract(source, p)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("source image: %w", err)
	}
	dst, err := Extract(destination, p)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("destination image: %w", err)
	}
	result, err := Match(src, dst, p.Match)
	if err != nil {
		return nil, nil, nil, err
	}
	return src, dst, result, nil
}
