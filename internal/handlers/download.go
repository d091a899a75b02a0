package handlers

import (
	"errors"
	"net/http"

	"ytmp3/internal/download"
	"ytmp3/internal/store"

	"github.com/labstack/echo/v4"
)

// DownloadHandler はダウンロードAPIのハンドラー
type DownloadHandler struct {
	orch  *download.Orchestrator
	store *store.Store
}

// NewDownloadHandler は新しいDownloadHandlerを作成
func NewDownloadHandler(orch *download.Orchestrator, st *store.Store) *DownloadHandler {
	return &DownloadHandler{orch: orch, store: st}
}

// SubmitRequest はダウンロード登録のリクエストボディ
type SubmitRequest struct {
	URL        string `json:"url"`
	CustomName string `json:"custom_name"`
}

// Submit はダウンロードを登録
// POST /download
func (h *DownloadHandler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	jobID, err := h.orch.Submit(req.URL, req.CustomName)
	if err != nil {
		switch {
		case errors.Is(err, download.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid YouTube URL"})
		case errors.Is(err, store.ErrCapacityExceeded):
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Maximum concurrent downloads reached, try again later"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Download queued successfully",
	})
}

// List はジョブ一覧を取得
// GET /downloads
func (h *DownloadHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.List())
}

// Get はジョブを取得
// GET /downloads/:id
func (h *DownloadHandler) Get(c echo.Context) error {
	job, err := h.store.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Download not found"})
	}
	return c.JSON(http.StatusOK, job)
}

// Delete はジョブを削除（実行中ならパイプラインを停止）
// DELETE /downloads/:id
func (h *DownloadHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	if err := h.store.Delete(id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Download not found"})
	}
	// Best effort: a pipeline that has already finished is a no-op here,
	// and late updates for the deleted id are dropped by the store.
	h.orch.Cancel(id)

	return c.JSON(http.StatusOK, map[string]string{"message": "Download cleared"})
}
