package youtube

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
)

// Client はYouTube操作を抽象化するクライアント
type Client struct {
	client youtube.Client
}

// NewClient は新しいYouTubeクライアントを作成
func NewClient() *Client {
	return &Client{
		client: youtube.Client{},
	}
}

// VideoInfo は動画のメタ情報
type VideoInfo struct {
	ID       string
	Title    string
	Author   string
	Duration time.Duration

	video *youtube.Video
}

// Resolve は動画情報を取得
func (c *Client) Resolve(ctx context.Context, videoURL string) (*VideoInfo, error) {
	video, err := c.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	return &VideoInfo{
		ID:       video.ID,
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration,
		video:    video,
	}, nil
}

// IsValidURL は受け付け可能なYouTube URLかどうかを返す
func IsValidURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	switch host {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com":
		return true
	case "youtu.be":
		return u.Path != "" && u.Path != "/"
	}
	return false
}

// SanitizeFilename はファイル名として使えない文字を置換
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return strings.TrimSpace(replacer.Replace(name))
}
