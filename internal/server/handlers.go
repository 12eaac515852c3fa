package server

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/image-features-mcp/internal/features"
	"github.com/ironsheep/image-features-mcp/internal/imaging"
	"github.com/ironsheep/image-features-mcp/internal/pipeline"
	"github.com/ironsheep/image-features-mcp/internal/visualize"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_match_features").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Features
	case "image_detect_keypoints":
		return s.handleDetectKeypoints(args)
	case "image_describe_keypoints":
		return s.handleDescribeKeypoints(args)
	case "image_match_features":
		return s.handleMatchFeatures(args)

	// Visualisation
	case "image_draw_keypoints":
		return s.handleDrawKeypoints(args)
	case "image_draw_matches":
		return s.handleDrawMatches(args)
	case "image_keypoint_patch":
		return s.handleKeypointPatch(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Parameter overrides ===

// detectArgs are the detector and selector overrides shared by every
// feature tool. Zero or absent values keep the server defaults; pointer
// fields are the ones for which zero is a meaningful setting.
type detectArgs struct {
	WindowSize   int      `json:"window_size"`
	Threshold    *float64 `json:"threshold"`
	ArcLength    int      `json:"arc_length"`
	MaxKeypoints int      `json:"max_keypoints"`
	SelectRadius *float64 `json:"select_radius"`
	BlurSigma    *float64 `json:"blur_sigma"`
	Border       string   `json:"border"`
	Interpolate  string   `json:"interpolation"`
}

type matchArgs struct {
	MaxDistance    *int     `json:"max_distance"`
	RatioThreshold *float64 `json:"ratio_threshold"`
	CrossCheck     *bool    `json:"cross_check"`
}

// params returns the server defaults with a's overrides applied.
func (s *Server) params(a detectArgs) (pipeline.Params, error) {
	p := s.defaults
	if a.WindowSize != 0 {
		p.Detect.WindowSize = a.WindowSize
	}
	if a.Threshold != nil {
		p.Detect.Threshold = *a.Threshold
	}
	if a.ArcLength != 0 {
		p.Detect.MinArcLength = a.ArcLength
	}
	if a.MaxKeypoints != 0 {
		p.Detect.MaxKeypoints = a.MaxKeypoints
	}
	if a.SelectRadius != nil {
		p.SelectRadius = *a.SelectRadius
	}
	if a.Border != "" {
		border, err := features.ParseBorderMode(a.Border)
		if err != nil {
			return p, err
		}
		p.Sampling.Border = border
	}
	if a.Interpolate != "" {
		interp, err := features.ParseInterpolation(a.Interpolate)
		if err != nil {
			return p, err
		}
		p.Sampling.Interpolation = interp
	}
	return p, nil
}

func (a detectArgs) sigma(def float64) float64 {
	if a.BlurSigma != nil {
		return *a.BlurSigma
	}
	return def
}

func (a matchArgs) apply(opts features.MatchOptions) features.MatchOptions {
	if a.MaxDistance != nil {
		opts.LimitDistance = *a.MaxDistance >= 0
		opts.MaxDistance = *a.MaxDistance
	}
	if a.RatioThreshold != nil {
		opts.RatioThreshold = *a.RatioThreshold
	}
	if a.CrossCheck != nil {
		opts.CrossCheck = *a.CrossCheck
	}
	return opts
}

// loadGrey returns the cached greyscale surface of path.
func (s *Server) loadGrey(path string, a detectArgs) (*image.Gray, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.cache.LoadGrey(path, a.sigma(s.cfg.BlurSigma))
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Feature Handlers ===

type featuresArgs struct {
	Path string `json:"path"`
	detectArgs
}

// KeypointsResult is returned by image_detect_keypoints.
type KeypointsResult struct {
	Width     int                 `json:"width"`
	Height    int                 `json:"height"`
	Detected  int                 `json:"detected"`
	Count     int                 `json:"count"`
	Keypoints []features.Keypoint `json:"keypoints"`
}

func (s *Server) handleDetectKeypoints(args json.RawMessage) (interface{}, error) {
	var a featuresArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.params(a.detectArgs)
	if err != nil {
		return nil, err
	}
	grey, err := s.loadGrey(a.Path, a.detectArgs)
	if err != nil {
		return nil, err
	}

	f, err := pipeline.Detect(grey, p)
	if err != nil {
		return nil, err
	}
	return &KeypointsResult{
		Width:     f.Width,
		Height:    f.Height,
		Detected:  f.Detected,
		Count:     len(f.Keypoints),
		Keypoints: f.Keypoints,
	}, nil
}

// DescribedKeypoint pairs a keypoint with its descriptor in hex.
type DescribedKeypoint struct {
	features.Keypoint
	Descriptor string `json:"descriptor"`
}

// DescriptorsResult is returned by image_describe_keypoints.
type DescriptorsResult struct {
	Width     int                 `json:"width"`
	Height    int                 `json:"height"`
	Bits      int                 `json:"bits"`
	Count     int                 `json:"count"`
	Keypoints []DescribedKeypoint `json:"keypoints"`
}

func (s *Server) handleDescribeKeypoints(args json.RawMessage) (interface{}, error) {
	var a featuresArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.params(a.detectArgs)
	if err != nil {
		return nil, err
	}
	grey, err := s.loadGrey(a.Path, a.detectArgs)
	if err != nil {
		return nil, err
	}

	f, err := pipeline.Extract(grey, p)
	if err != nil {
		return nil, err
	}
	out := make([]DescribedKeypoint, len(f.Keypoints))
	for i, kp := range f.Keypoints {
		out[i] = DescribedKeypoint{Keypoint: kp, Descriptor: f.Descriptors[i].Hex()}
	}
	return &DescriptorsResult{
		Width:     f.Width,
		Height:    f.Height,
		Bits:      p.Table.Bits(),
		Count:     len(out),
		Keypoints: out,
	}, nil
}

type matchFeaturesArgs struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
	detectArgs
	matchArgs
}

// MatchedPair is one match with the positions of both keypoints.
type MatchedPair struct {
	features.Match
	Source      features.Point `json:"source"`
	Destination features.Point `json:"destination"`
}

// MatchFeaturesResult is returned by image_match_features.
type MatchFeaturesResult struct {
	SourceKeypoints      int              `json:"source_keypoints"`
	DestinationKeypoints int              `json:"destination_keypoints"`
	Summary              pipeline.Summary `json:"summary"`
	Matches              []MatchedPair    `json:"matches"`
}

// matchFeatures runs the full pipeline on both images of a.
func (s *Server) matchFeatures(a matchFeaturesArgs) (*pipeline.Features, *pipeline.Features, *pipeline.MatchResult, error) {
	p, err := s.params(a.detectArgs)
	if err != nil {
		return nil, nil, nil, err
	}
	p.Match = a.matchArgs.apply(p.Match)

	source, err := s.loadGrey(a.SourcePath, a.detectArgs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("source_path: %w", err)
	}
	destination, err := s.loadGrey(a.DestinationPath, a.detectArgs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("destination_path: %w", err)
	}
	return pipeline.MatchImages(source, destination, p)
}

func (s *Server) handleMatchFeatures(args json.RawMessage) (interface{}, error) {
	var a matchFeaturesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, dst, result, err := s.matchFeatures(a)
	if err != nil {
		return nil, err
	}

	pairs := make([]MatchedPair, len(result.Matches))
	for i, m := range result.Matches {
		pairs[i] = MatchedPair{
			Match:       m,
			Source:      src.Keypoints[m.SourceIndex].Position,
			Destination: dst.Keypoints[m.DestinationIndex].Position,
		}
	}
	return &MatchFeaturesResult{
		SourceKeypoints:      len(src.Keypoints),
		DestinationKeypoints: len(dst.Keypoints),
		Summary:              result.Summary,
		Matches:              pairs,
	}, nil
}

// === Visualisation Handlers ===

type drawKeypointsArgs struct {
	Path            string  `json:"path"`
	Color           string  `json:"color"`
	Radius          float64 `json:"radius"`
	LineWidth       float64 `json:"line_width"`
	ShowOrientation bool    `json:"show_orientation"`
	ShowIndex       bool    `json:"show_index"`
	detectArgs
}

// DrawKeypointsResult is returned by image_draw_keypoints.
type DrawKeypointsResult struct {
	Count int `json:"count"`
	*imaging.EncodedImage
}

func (s *Server) handleDrawKeypoints(args json.RawMessage) (interface{}, error) {
	var a drawKeypointsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.params(a.detectArgs)
	if err != nil {
		return nil, err
	}
	grey, err := s.loadGrey(a.Path, a.detectArgs)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	f, err := pipeline.Detect(grey, p)
	if err != nil {
		return nil, err
	}
	drawn, err := visualize.DrawKeypoints(img, f.Keypoints, visualize.DrawKeypointsOptions{
		Color:           a.Color,
		Radius:          a.Radius,
		LineWidth:       a.LineWidth,
		ShowOrientation: a.ShowOrientation,
		ShowIndex:       a.ShowIndex,
	})
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(drawn)
	if err != nil {
		return nil, err
	}
	return &DrawKeypointsResult{Count: len(f.Keypoints), EncodedImage: encoded}, nil
}

type drawMatchesArgs struct {
	matchFeaturesArgs
	Disposition string  `json:"disposition"`
	Scale       int     `json:"scale"`
	MaxMatches  int     `json:"max_matches"`
	Color       string  `json:"color"`
	LineWidth   float64 `json:"line_width"`
}

// DrawMatchesResult is returned by image_draw_matches.
type DrawMatchesResult struct {
	Summary pipeline.Summary `json:"summary"`
	Drawn   int              `json:"drawn"`
	*imaging.EncodedImage
}

func (s *Server) handleDrawMatches(args json.RawMessage) (interface{}, error) {
	var a drawMatchesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	disposition, err := visualize.ParseDisposition(a.Disposition)
	if err != nil {
		return nil, err
	}

	src, dst, result, err := s.matchFeatures(a.matchFeaturesArgs)
	if err != nil {
		return nil, err
	}
	sourceImg, err := s.cache.Load(a.SourcePath)
	if err != nil {
		return nil, err
	}
	destinationImg, err := s.cache.Load(a.DestinationPath)
	if err != nil {
		return nil, err
	}

	montage, err := visualize.NewMontage(sourceImg, destinationImg, visualize.MontageOptions{
		Scale:       a.Scale,
		Disposition: disposition,
	})
	if err != nil {
		return nil, err
	}
	opts := visualize.DrawMatchesOptions{
		Color:      a.Color,
		MaxMatches: a.MaxMatches,
		LineWidth:  a.LineWidth,
	}
	if err := montage.DrawMatches(result.Matches, src.Keypoints, dst.Keypoints, opts); err != nil {
		return nil, err
	}

	encoded, err := imaging.EncodePNG(montage.Image())
	if err != nil {
		return nil, err
	}
	return &DrawMatchesResult{
		Summary:      result.Summary,
		Drawn:        len(visualize.BestMatches(result.Matches, a.MaxMatches)),
		EncodedImage: encoded,
	}, nil
}

type keypointPatchArgs struct {
	Path  string `json:"path"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Size  int    `json:"size"`
	Scale int    `json:"scale"`
}

func (s *Server) handleKeypointPatch(args json.RawMessage) (interface{}, error) {
	var a keypointPatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Size == 0 {
		a.Size = s.cfg.PatchSize
	}
	if a.Scale == 0 {
		a.Scale = 1
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	patch, err := imaging.KeypointPatch(img, features.Keypoint{Position: features.Point{X: a.X, Y: a.Y}}, a.Size, a.Scale)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(patch)
}
