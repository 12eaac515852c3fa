// Package config loads pipeline defaults from IMAGE_MCP_* environment
// variables. Tool arguments override these per call.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-features-mcp/internal/features"
	"github.com/ironsheep/image-features-mcp/internal/logger"
)

type Config struct {
	// Detector
	WindowSize   int
	Threshold    float64
	MinArcLength int
	MaxKeypoints int
	BlurSigma    float64

	// Selector
	SelectRadius float64

	// Descriptor
	DescriptorBits int
	PatchSize      int
	TableSeed      int64
	Border         features.BorderMode
	Interpolation  features.Interpolation

	// Matcher. A negative MaxDistance disables the distance limit.
	MaxDistance    int
	RatioThreshold float64
	CrossCheck     bool
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	detect := features.DefaultDetectOptions()
	return &Config{
		WindowSize:     detect.WindowSize,
		Threshold:      detect.Threshold,
		MinArcLength:   detect.MinArcLength,
		SelectRadius:   10,
		DescriptorBits: features.DefaultDescriptorBits,
		PatchSize:      features.DefaultPatchSize,
		TableSeed:      features.DefaultTableSeed,
		MaxDistance:    -1,
		CrossCheck:     true,
	}
}

func LoadFromEnv() (*Config, error) {
	def := Default()
	cfg := &Config{
		WindowSize:     parseIntOrDefault("IMAGE_MCP_WINDOW_SIZE", def.WindowSize),
		Threshold:      parseFloatOrDefault("IMAGE_MCP_FAST_THRESHOLD", def.Threshold),
		MinArcLength:   parseIntOrDefault("IMAGE_MCP_ARC_LENGTH", def.MinArcLength),
		MaxKeypoints:   parseIntOrDefault("IMAGE_MCP_MAX_KEYPOINTS", def.MaxKeypoints),
		BlurSigma:      parseFloatOrDefault("IMAGE_MCP_BLUR_SIGMA", def.BlurSigma),
		SelectRadius:   parseFloatOrDefault("IMAGE_MCP_SELECT_RADIUS", def.SelectRadius),
		DescriptorBits: parseIntOrDefault("IMAGE_MCP_DESCRIPTOR_BITS", def.DescriptorBits),
		PatchSize:      parseIntOrDefault("IMAGE_MCP_PATCH_SIZE", def.PatchSize),
		TableSeed:      int64(parseIntOrDefault("IMAGE_MCP_TABLE_SEED", int(def.TableSeed))),
		MaxDistance:    parseIntOrDefault("IMAGE_MCP_MAX_DISTANCE", def.MaxDistance),
		RatioThreshold: parseFloatOrDefault("IMAGE_MCP_RATIO_THRESHOLD", def.RatioThreshold),
		CrossCheck:     parseBoolOrDefault("IMAGE_MCP_CROSS_CHECK", def.CrossCheck),
	}

	var err error
	if cfg.Border, err = features.ParseBorderMode(getEnvOrDefault("IMAGE_MCP_BORDER", "clamp")); err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MCP_BORDER: %w", err)
	}
	if cfg.Interpolation, err = features.ParseInterpolation(getEnvOrDefault("IMAGE_MCP_INTERPOLATION", "bilinear")); err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MCP_INTERPOLATION: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the ranges the pipeline accepts.
func (c *Config) Validate() error {
	if c.WindowSize <= 0 || c.WindowSize%2 == 0 {
		return fmt.Errorf("IMAGE_MCP_WINDOW_SIZE must be a positive odd integer (got %d)", c.WindowSize)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("IMAGE_MCP_FAST_THRESHOLD must be >= 0 (got %v)", c.Threshold)
	}
	if c.MinArcLength < 1 || c.MinArcLength > features.RingLength {
		return fmt.Errorf("IMAGE_MCP_ARC_LENGTH must be in 1..%d (got %d)", features.RingLength, c.MinArcLength)
	}
	if c.MaxKeypoints < 0 {
		return fmt.Errorf("IMAGE_MCP_MAX_KEYPOINTS must be >= 0 (got %d)", c.MaxKeypoints)
	}
	if c.BlurSigma < 0 {
		return fmt.Errorf("IMAGE_MCP_BLUR_SIGMA must be >= 0 (got %v)", c.BlurSigma)
	}
	if c.SelectRadius < 0 {
		return fmt.Errorf("IMAGE_MCP_SELECT_RADIUS must be >= 0 (got %v)", c.SelectRadius)
	}
	if c.DescriptorBits <= 0 || c.DescriptorBits%8 != 0 {
		return fmt.Errorf("IMAGE_MCP_DESCRIPTOR_BITS must be a positive multiple of 8 (got %d)", c.DescriptorBits)
	}
	if c.PatchSize < 3 || c.PatchSize%2 == 0 {
		return fmt.Errorf("IMAGE_MCP_PATCH_SIZE must be an odd integer >= 3 (got %d)", c.PatchSize)
	}
	if c.RatioThreshold < 0 {
		return fmt.Errorf("IMAGE_MCP_RATIO_THRESHOLD must be >= 0 (got %v)", c.RatioThreshold)
	}
	return nil
}

// DetectOptions returns the detector settings.
func (c *Config) DetectOptions() features.DetectOptions {
	return features.DetectOptions{
		WindowSize:   c.WindowSize,
		Threshold:    c.Threshold,
		MinArcLength: c.MinArcLength,
		MaxKeypoints: c.MaxKeypoints,
	}
}

// MatchOptions returns the matcher settings.
func (c *Config) MatchOptions() features.MatchOptions {
	return features.MatchOptions{
		LimitDistance:  c.MaxDistance >= 0,
		MaxDistance:    c.MaxDistance,
		RatioThreshold: c.RatioThreshold,
		CrossCheck:     c.CrossCheck,
	}
}

// Sampling returns the descriptor sampling strategy.
func (c *Config) Sampling() features.Sampling {
	return features.Sampling{Border: c.Border, Interpolation: c.Interpolation}
}

// SamplingTable returns the shared default table when the descriptor
// settings are the defaults, and builds a new one otherwise.
func (c *Config) SamplingTable() (*features.SamplingTable, error) {
	if c.DescriptorBits == features.DefaultDescriptorBits &&
		c.PatchSize == features.DefaultPatchSize &&
		c.TableSeed == features.DefaultTableSeed {
		return features.DefaultSamplingTable(), nil
	}
	return features.NewSamplingTable(c.DescriptorBits, c.PatchSize, c.TableSeed)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return intValue
		}
		warnUnparsable(key, value, defaultValue, err)
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err == nil {
			return f
		}
		warnUnparsable(key, value, defaultValue, err)
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err == nil {
			return b
		}
		warnUnparsable(key, value, defaultValue, err)
	}
	return defaultValue
}

func warnUnparsable(key, value string, defaultValue interface{}, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"variable": key,
		"value":    value,
		"default":  defaultValue,
	}).Warn("ignoring unparsable environment variable")
}
