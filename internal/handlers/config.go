package handlers

import (
	"net/http"

	"ytmp3/internal/config"
	"ytmp3/internal/store"

	"github.com/labstack/echo/v4"
)

// ConfigHandler は設定APIのハンドラー
type ConfigHandler struct {
	cfg   *config.Manager
	store *store.Store
}

// NewConfigHandler は新しいConfigHandlerを作成
func NewConfigHandler(cfg *config.Manager, st *store.Store) *ConfigHandler {
	return &ConfigHandler{cfg: cfg, store: st}
}

// Get は現在の設定を取得
// GET /config
func (h *ConfigHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cfg.Get())
}

// Update は設定を部分更新して返す
// POST /config
func (h *ConfigHandler) Update(c echo.Context) error {
	var u config.Update
	if err := c.Bind(&u); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	cfg, err := h.cfg.Apply(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	// New limit applies to future admissions; running jobs keep their slot
	h.store.SetMaxActive(cfg.MaxConcurrentDownloads)

	return c.JSON(http.StatusOK, cfg)
}
