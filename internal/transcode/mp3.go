package transcode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Bitrate is the MP3 encoding bitrate.
const Bitrate = "192k"

// ToMP3 converts an audio file to MP3 using ffmpeg.
func ToMP3(ctx context.Context, inputPath, outputPath string) error {
	// Check if ffmpeg is available
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found: please install ffmpeg to convert audio files")
	}

	// Check if input file exists
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	// Create output directory if needed
	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args(inputPath, outputPath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg conversion failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// args builds the ffmpeg argument list.
// -vn: drop any video stream
// -acodec libmp3lame -b:a 192k: MP3 at a fixed bitrate
// -y: overwrite output file
func args(inputPath, outputPath string) []string {
	return []string{
		"-i", inputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-b:a", Bitrate,
		"-loglevel", "error",
		"-y",
		outputPath,
	}
}
