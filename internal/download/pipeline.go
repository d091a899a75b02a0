package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytmp3/internal/transcode"
	"ytmp3/internal/youtube"
)

// Event is a single progress report emitted by a pipeline.
// Title is non-empty once metadata has been resolved.
type Event struct {
	Percent int
	Title   string
}

// Result is the outcome of a successful pipeline run.
type Result struct {
	Title      string
	OutputPath string
}

// RunOptions are captured from the config at launch time; a config
// change mid-flight does not affect a running job.
type RunOptions struct {
	CustomName       string
	OutputDir        string
	OrganizeByDate   bool
	OrganizeByArtist bool
}

// Pipeline turns a URL into a finished artifact, emitting a finite,
// in-order sequence of progress events along the way.
type Pipeline interface {
	Run(ctx context.Context, url string, opts RunOptions, emit func(Event)) (*Result, error)
}

// MediaPipeline is the real pipeline: resolve metadata, fetch the best
// audio stream, transcode to MP3 with ffmpeg, move into the output
// directory.
type MediaPipeline struct {
	yt *youtube.Client
}

// NewMediaPipeline creates a MediaPipeline.
func NewMediaPipeline(yt *youtube.Client) *MediaPipeline {
	return &MediaPipeline{yt: yt}
}

// Progress milestones: fetching covers 5-90, transcoding ends at 95,
// the final move brings the job to 100.
const (
	progressResolved   = 5
	progressFetched    = 90
	progressTranscoded = 95
)

// Run implements Pipeline.
func (p *MediaPipeline) Run(ctx context.Context, url string, opts RunOptions, emit func(Event)) (*Result, error) {
	info, err := p.yt.Resolve(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve video: %w", err)
	}
	emit(Event{Percent: progressResolved, Title: info.Title})

	tempDir, err := os.MkdirTemp("", "ytmp3-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	audioPath, err := p.yt.FetchAudio(ctx, info, filepath.Join(tempDir, "audio"), func(current, total int64) {
		if total <= 0 {
			return
		}
		span := int64(progressFetched - progressResolved)
		emit(Event{Percent: progressResolved + int(current*span/total)})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}

	mp3Path := filepath.Join(tempDir, "audio.mp3")
	if err := transcode.ToMP3(ctx, audioPath, mp3Path); err != nil {
		return nil, fmt.Errorf("failed to transcode: %w", err)
	}
	emit(Event{Percent: progressTranscoded})

	outputPath, err := placeArtifact(mp3Path, info, opts)
	if err != nil {
		return nil, err
	}

	return &Result{Title: info.Title, OutputPath: outputPath}, nil
}

// placeArtifact moves the finished MP3 into the output directory,
// deriving the final filename and layout from the options.
func placeArtifact(mp3Path string, info *youtube.VideoInfo, opts RunOptions) (string, error) {
	destDir := opts.OutputDir
	switch {
	case opts.OrganizeByDate:
		destDir = filepath.Join(destDir, time.Now().Format("2006-01-02"))
	case opts.OrganizeByArtist && info.Author != "":
		destDir = filepath.Join(destDir, youtube.SanitizeFilename(info.Author))
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	dest := uniquePath(filepath.Join(destDir, outputName(opts.CustomName, info)))
	if err := moveFile(mp3Path, dest); err != nil {
		return "", fmt.Errorf("failed to move artifact: %w", err)
	}
	return dest, nil
}

// outputName derives the final filename: the custom name wins,
// otherwise the sanitized title, otherwise the video id.
func outputName(customName string, info *youtube.VideoInfo) string {
	name := strings.TrimSpace(customName)
	if name == "" {
		name = youtube.SanitizeFilename(info.Title)
	}
	if name == "" {
		name = info.ID
	}
	if !strings.EqualFold(filepath.Ext(name), ".mp3") {
		name += ".mp3"
	}
	return name
}

// uniquePath appends " (n)" before the extension until the path is free.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// moveFile renames src to dest, falling back to copy+remove when the
// temp dir and the download dir are on different filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}
	return os.Remove(src)
}
