package storage

import (
	"container/list"
	"context"
	"sync"
)

// MemoryCache is an in-process LRU PageCache used when no cache directory is
// configured.
type MemoryCache struct {
	maxSize int
	items   map[string]*list.Element
	lruList *list.List
	mu      sync.Mutex
}

func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &MemoryCache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lruList: list.New(),
	}
}

func (mc *MemoryCache) Get(ctx context.Context, url string) (*Page, bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	elem, ok := mc.items[url]
	if !ok {
		return nil, false, nil
	}
	mc.lruList.MoveToFront(elem)
	page := *elem.Value.(*Page)
	return &page, true, nil
}

func (mc *MemoryCache) Put(ctx context.Context, page *Page) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	stored := *page
	if elem, ok := mc.items[page.URL]; ok {
		elem.Value = &stored
		mc.lruList.MoveToFront(elem)
		return nil
	}

	mc.items[page.URL] = mc.lruList.PushFront(&stored)
	for mc.lruList.Len() > mc.maxSize {
		oldest := mc.lruList.Back()
		mc.lruList.Remove(oldest)
		delete(mc.items, oldest.Value.(*Page).URL)
	}
	return nil
}

func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.lruList.Len()
}
