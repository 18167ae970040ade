package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sitemap-extract/pkg/utils"
)

// FileCache keeps one JSON file per page, named by the MD5 of its URL.
type FileCache struct {
	dataDir string
}

func NewFileCache(dataDir string) (*FileCache, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dataDir, err)
	}
	return &FileCache{dataDir: dataDir}, nil
}

func (c *FileCache) path(url string) string {
	return filepath.Join(c.dataDir, utils.CalculateURLHash(url)+".json")
}

func (c *FileCache) Get(ctx context.Context, url string) (*Page, bool, error) {
	data, err := os.ReadFile(c.path(url))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		// 损坏的缓存文件按未命中处理
		return nil, false, nil
	}
	if page.URL != url {
		return nil, false, nil
	}
	return &page, true, nil
}

func (c *FileCache) Put(ctx context.Context, page *Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(page.URL), data, 0644)
}
