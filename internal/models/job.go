package models

import "time"

// Job はダウンロードジョブの現在状態
type Job struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	CustomName string    `json:"custom_name,omitempty"`
	Status     Status    `json:"status"`
	Title      string    `json:"title,omitempty"`
	Progress   int       `json:"progress"`
	Error      string    `json:"error,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Status はジョブステータス
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// IsTerminal は終了状態（completed / error）かどうかを返す
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// IsActive は実行枠を消費する状態（queued / downloading）かどうかを返す
func (s Status) IsActive() bool {
	return s == StatusQueued || s == StatusDownloading
}
