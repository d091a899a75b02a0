package youtube

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// AudioFormat は音声フォーマット情報
type AudioFormat struct {
	ItagNo        int
	MimeType      string // "audio/mp4", "audio/webm"
	Bitrate       int    // ビットレート (bps)
	ContentLength int64  // ファイルサイズ (bytes)
}

// Extension はMIMEタイプから拡張子を返す
func (f *AudioFormat) Extension() string {
	if strings.Contains(f.MimeType, "mp4") {
		return ".m4a"
	}
	if strings.Contains(f.MimeType, "webm") {
		return ".webm"
	}
	return ".audio"
}

// AudioFormats は利用可能な音声フォーマット一覧をビットレート降順で返す
func (v *VideoInfo) AudioFormats() []AudioFormat {
	var formats []AudioFormat
	for _, f := range v.video.Formats {
		// 音声のみのフォーマットをフィルタ
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		// 多言語音声はデフォルトトラックのみ
		if f.AudioTrack != nil && !f.AudioTrack.AudioIsDefault {
			continue
		}

		formats = append(formats, AudioFormat{
			ItagNo:        f.ItagNo,
			MimeType:      f.MimeType,
			Bitrate:       f.Bitrate,
			ContentLength: f.ContentLength,
		})
	}

	sort.Slice(formats, func(i, j int) bool {
		return formats[i].Bitrate > formats[j].Bitrate
	})

	return formats
}

// FetchAudio は最高ビットレートの音声ストリームをdestBase+拡張子に保存し、
// 保存先パスを返す。progressにはダウンロード済み/総バイト数が通知される。
func (c *Client) FetchAudio(ctx context.Context, info *VideoInfo, destBase string, progress func(current, total int64)) (string, error) {
	formats := info.AudioFormats()
	if len(formats) == 0 {
		return "", fmt.Errorf("no audio formats available")
	}
	selected := formats[0]

	// 対応するyoutubeライブラリのFormatを見つける
	var targetFormat *ytdl.Format
	for i := range info.video.Formats {
		if info.video.Formats[i].ItagNo == selected.ItagNo {
			targetFormat = &info.video.Formats[i]
			break
		}
	}
	if targetFormat == nil {
		return "", fmt.Errorf("format not found: itag=%d", selected.ItagNo)
	}

	stream, size, err := c.client.GetStreamContext(ctx, info.video, targetFormat)
	if err != nil {
		return "", fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()

	outputPath := destBase + selected.Extension()
	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := copyWithProgress(ctx, file, stream, size, progress); err != nil {
		os.Remove(outputPath) // 失敗時はファイルを削除
		return "", fmt.Errorf("failed to download: %w", err)
	}

	return outputPath, nil
}

// copyWithProgress はプログレスコールバック付きでコピー
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress func(current, total int64)) error {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		nr, err := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			if nw > 0 {
				written += int64(nw)
				if progress != nil {
					progress(written, total)
				}
			}
			if ew != nil {
				return ew
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}

	return nil
}
