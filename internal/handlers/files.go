package handlers

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ytmp3/internal/config"

	"github.com/labstack/echo/v4"
)

// FileHandler serves the finished MP3s in the download directory.
type FileHandler struct {
	cfg *config.Manager
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(cfg *config.Manager) *FileHandler {
	return &FileHandler{cfg: cfg}
}

// FileEntry is one row of the file listing.
type FileEntry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// List walks the download directory for MP3 files, newest first.
// GET /files
func (h *FileHandler) List(c echo.Context) error {
	root := h.cfg.Get().DownloadPath

	files := []FileEntry{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !strings.EqualFold(filepath.Ext(path), ".mp3") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil // file vanished mid-walk
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, FileEntry{
			Name:     d.Name(),
			Path:     rel,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})

	return c.JSON(http.StatusOK, files)
}

// Play streams a file inline; echo's File handles Range requests so the
// browser audio player can seek.
// GET /play/*
func (h *FileHandler) Play(c echo.Context) error {
	path, ok := h.resolve(c.Param("*"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "File not found"})
	}
	return c.File(path)
}

// Fetch serves a file with download disposition.
// GET /download-file/*
func (h *FileHandler) Fetch(c echo.Context) error {
	path, ok := h.resolve(c.Param("*"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "File not found"})
	}
	return c.Attachment(path, filepath.Base(path))
}

// resolve maps a request path to a regular file strictly inside the
// download directory; traversal attempts resolve to not-found.
func (h *FileHandler) resolve(name string) (string, bool) {
	root := h.cfg.Get().DownloadPath

	// Clean relative to a virtual root so ".." cannot escape
	rel := filepath.Clean("/" + name)
	path := filepath.Join(root, rel)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}
