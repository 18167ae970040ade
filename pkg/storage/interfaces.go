// Package storage persists extraction artifacts and caches fetched pages.
package storage

import (
	"context"
	"time"
)

// ArtifactWriter persists one extraction result per article URL.
type ArtifactWriter interface {
	// Write stores payload for url and returns the file path it was written to.
	Write(ctx context.Context, url string, payload interface{}) (string, error)
}

// Page is a fetched document as kept by a PageCache.
type Page struct {
	URL        string    `json:"url"`
	HTML       string    `json:"html"`
	StatusCode int       `json:"status_code"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// PageCache stores fetched pages by URL.
type PageCache interface {
	Get(ctx context.Context, url string) (*Page, bool, error)
	Put(ctx context.Context, page *Page) error
}

// StorageConfig locates artifacts on disk.
type StorageConfig struct {
	Dir         string `mapstructure:"dir"`
	StripPrefix string `mapstructure:"strip_prefix"`
}
