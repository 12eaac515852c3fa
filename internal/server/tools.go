package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// detectProperties are the detector overrides accepted by every feature tool.
func detectProperties() map[string]interface{} {
	return map[string]interface{}{
		"window_size": map[string]interface{}{
			"type":        "integer",
			"description": "Odd side of the orientation window; also sets the border margin (default: 7)",
		},
		"threshold": map[string]interface{}{
			"type":        "number",
			"description": "Intensity difference for a ring pixel to count as brighter or darker (default: 20)",
		},
		"arc_length": map[string]interface{}{
			"type":        "integer",
			"description": "Contiguous ring pixels required, 1-16 (default: 9)",
		},
		"max_keypoints": map[string]interface{}{
			"type":        "integer",
			"description": "Keep only the N strongest detections before selection (default: unlimited)",
		},
		"select_radius": map[string]interface{}{
			"type":        "number",
			"description": "Minimum distance in pixels between kept keypoints (default: 10)",
		},
		"blur_sigma": map[string]interface{}{
			"type":        "number",
			"description": "Gaussian blur applied before detection, 0 disables (default: 0)",
		},
		"border": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"clamp", "reflect", "wrap", "reject"},
			"description": "How descriptor samples outside the image are read (default: clamp)",
		},
		"interpolation": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"bilinear", "nearest", "bicubic"},
			"description": "Descriptor sampling interpolation (default: bilinear)",
		},
	}
}

func matchProperties() map[string]interface{} {
	return map[string]interface{}{
		"source_path":      pathProperty("Absolute path to the source image"),
		"destination_path": pathProperty("Absolute path to the destination image"),
		"max_distance": map[string]interface{}{
			"type":        "integer",
			"description": "Largest accepted Hamming distance, negative disables (default: no limit)",
		},
		"ratio_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Reject a match unless best/second-best distance is below this, 0 disables (default: 0)",
		},
		"cross_check": map[string]interface{}{
			"type":        "boolean",
			"description": "Keep only mutual nearest neighbours (default: true)",
		},
	}
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The image stays cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},

		// Features
		{
			Name:        "image_detect_keypoints",
			Description: "Detect FAST corner keypoints with their orientation and score, thinned so no two are closer than select_radius.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(detectProperties(), map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_describe_keypoints",
			Description: "Detect keypoints and compute a rotated binary descriptor for each, returned as a hex string.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(detectProperties(), map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_match_features",
			Description: "Match keypoints between two images by descriptor Hamming distance. Returns matched positions in both images and distance statistics.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": merge(detectProperties(), matchProperties()),
				"required":   []string{"source_path", "destination_path"},
			},
		},

		// Visualisation
		{
			Name:        "image_draw_keypoints",
			Description: "Draw detected keypoints on the image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(detectProperties(), map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Marker color as #rrggbb (default: #ff0000)",
					},
					"radius": map[string]interface{}{
						"type":        "number",
						"description": "Circle radius in pixels (default: 5)",
					},
					"line_width": map[string]interface{}{
						"type":        "number",
						"description": "Stroke width (default: 1)",
					},
					"show_orientation": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw each keypoint's orientation (default: false)",
					},
					"show_index": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each keypoint with its index (default: false)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_draw_matches",
			Description: "Place both images side by side and draw a line for each match, colored from green (close) to red (far). Returns base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(detectProperties(), matchProperties(), map[string]interface{}{
					"disposition": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"horizontal", "vertical"},
						"description": "Place the destination right of or below the source (default: horizontal)",
					},
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Integer enlargement of both images (default: 1)",
					},
					"max_matches": map[string]interface{}{
						"type":        "integer",
						"description": "Draw only the N closest matches (default: all)",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Single color for every match as #rrggbb (default: by distance)",
					},
					"line_width": map[string]interface{}{
						"type":        "number",
						"description": "Stroke width (default: 1)",
					},
				}),
				"required": []string{"source_path", "destination_path"},
			},
		},
		{
			Name:        "image_keypoint_patch",
			Description: "Crop the square patch around a keypoint, optionally enlarged, and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Keypoint column",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Keypoint row",
					},
					"size": map[string]interface{}{
						"type":        "integer",
						"description": "Odd side of the patch in pixels (default: descriptor patch size, 31)",
					},
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Integer enlargement (default: 1)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
	}
}
