package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sitemap-extract/pkg/logger"
)

// FileWriter writes pretty-printed JSON artifacts into a flat directory.
// Re-running over the same URL overwrites the previous file.
type FileWriter struct {
	dir         string
	stripPrefix string
	log         *logger.Logger
}

func NewFileWriter(dir, stripPrefix string) *FileWriter {
	return &FileWriter{
		dir:         dir,
		stripPrefix: stripPrefix,
		log:         logger.GetLogger().WithField("component", "artifact_writer"),
	}
}

func (w *FileWriter) Dir() string {
	return w.dir
}

// PathFor returns the file path an artifact for url would be written to.
func (w *FileWriter) PathFor(url string) string {
	return filepath.Join(w.dir, FilenameFor(url, w.stripPrefix))
}

func (w *FileWriter) Write(ctx context.Context, url string, payload interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("failed to encode artifact for %s: %w", url, err)
	}

	path := w.PathFor(url)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	w.log.WithFields(map[string]interface{}{
		"url":   url,
		"path":  path,
		"bytes": buf.Len(),
	}).Debug("Artifact written")
	return path, nil
}
