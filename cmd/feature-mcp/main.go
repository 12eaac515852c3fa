package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-features-mcp/internal/config"
	"github.com/ironsheep/image-features-mcp/internal/logger"
	"github.com/ironsheep/image-features-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("feature-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	logger.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("starting image features MCP server")

	if Version != "dev" {
		server.Version = Version
	}
	srv, err := server.New(cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to create server")
	}
	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}

func printHelp() {
	fmt.Println("feature-mcp - MCP server for image keypoint detection and matching")
	fmt.Println()
	fmt.Println("Usage: feature-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  IMAGE_MCP_LOG_LEVEL=debug         Log level (debug, info, warn, error)")
	fmt.Println("  IMAGE_MCP_WINDOW_SIZE=7           Orientation window, odd")
	fmt.Println("  IMAGE_MCP_FAST_THRESHOLD=20       Ring intensity threshold")
	fmt.Println("  IMAGE_MCP_ARC_LENGTH=9            Contiguous ring pixels, 1-16")
	fmt.Println("  IMAGE_MCP_MAX_KEYPOINTS=0         Strongest detections kept, 0 = all")
	fmt.Println("  IMAGE_MCP_BLUR_SIGMA=0            Gaussian pre-blur")
	fmt.Println("  IMAGE_MCP_SELECT_RADIUS=10        Minimum keypoint spacing")
	fmt.Println("  IMAGE_MCP_DESCRIPTOR_BITS=256     Descriptor length, multiple of 8")
	fmt.Println("  IMAGE_MCP_PATCH_SIZE=31           Descriptor patch side, odd")
	fmt.Println("  IMAGE_MCP_TABLE_SEED=24301        Sampling table seed")
	fmt.Println("  IMAGE_MCP_BORDER=clamp            clamp, reflect, wrap or reject")
	fmt.Println("  IMAGE_MCP_INTERPOLATION=bilinear  bilinear, nearest or bicubic")
	fmt.Println("  IMAGE_MCP_MAX_DISTANCE=-1         Largest Hamming distance, -1 = no limit")
	fmt.Println("  IMAGE_MCP_RATIO_THRESHOLD=0       Ratio test, 0 = off")
	fmt.Println("  IMAGE_MCP_CROSS_CHECK=true        Keep mutual matches only")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
