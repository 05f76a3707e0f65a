package handler

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// FileHandler serves /api/files.
type FileHandler struct {
	path   string
	logger *slog.Logger
}

// NewFileHandler serves the single resource at path.
func NewFileHandler(path string, logger *slog.Logger) *FileHandler {
	return &FileHandler{path: path, logger: logger}
}

// HandleGet downloads the configured file.
//
// HTTP: GET /api/files?fileName=...
//
// fileName is accepted but not used to pick a file: every request resolves to
// the one configured resource, so no client input ever reaches the filesystem.
func (h *FileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.logger.WarnContext(r.Context(), "file not found", slog.String("path", h.path))
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeError(w, r, h.logger, fmt.Errorf("reading %s: %w", h.path, err))
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(h.path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(h.path)}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
