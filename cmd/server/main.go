package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"ytmp3/internal/config"
	"ytmp3/internal/download"
	"ytmp3/internal/handlers"
	"ytmp3/internal/store"
	"ytmp3/internal/version"
	"ytmp3/internal/youtube"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// .envファイルを読み込み（存在しない場合はスキップ）
	_ = godotenv.Load()

	// 環境変数からポート番号を取得（デフォルト: 8080）
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config/config.json"
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st := store.New(cfg.Get().MaxConcurrentDownloads)
	pipeline := download.NewMediaPipeline(youtube.NewClient())
	orch := download.New(st, cfg, pipeline)

	// DOWNLOAD_TIMEOUTが設定されていれば停滞ジョブをエラーにする
	if raw := os.Getenv("DOWNLOAD_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Invalid DOWNLOAD_TIMEOUT %q: %v", raw, err)
		}
		orch.SetTimeout(timeout)
	}

	// Echoインスタンスの作成
	e := echo.New()

	// ミドルウェアの設定
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// ルートの登録
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"version": version.Version,
		})
	})

	configHandler := handlers.NewConfigHandler(cfg, st)
	e.GET("/config", configHandler.Get)
	e.POST("/config", configHandler.Update)

	downloadHandler := handlers.NewDownloadHandler(orch, st)
	e.POST("/download", downloadHandler.Submit)
	e.GET("/downloads", downloadHandler.List)
	e.GET("/downloads/:id", downloadHandler.Get)
	e.DELETE("/downloads/:id", downloadHandler.Delete)

	fileHandler := handlers.NewFileHandler(cfg)
	e.GET("/files", fileHandler.List)
	e.GET("/play/*", fileHandler.Play)
	e.GET("/download-file/*", fileHandler.Fetch)

	// サーバー起動
	log.Printf("Starting ytmp3 v%s on port %s (downloads: %s)", version.Version, port, cfg.Get().DownloadPath)
	if err := e.Start(fmt.Sprintf(":%s", port)); err != nil {
		log.Fatal(err)
	}
}
