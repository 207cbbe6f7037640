// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	containerlist "container/list"
	"sync"
)

// etagCacheSize bounds the number of URLs remembered per client. A
// project's resync touches the label list plus one URL per issue
// page, so a few hundred entries cover a busy repository.
const etagCacheSize = 256

// etagEntry holds a cached response for a URL.
type etagEntry struct {
	url  string
	etag string
	body []byte
}

// etagCache stores ETag and response body per URL for conditional GET
// requests. A 304 Not Modified answer is served from the cache and
// does not consume rate limit quota. Least recently used entries are
// evicted past etagCacheSize.
type etagCache struct {
	mu      sync.Mutex
	order   *containerlist.List
	entries map[string]*containerlist.Element
}

func newETagCache() *etagCache {
	return &etagCache{
		order:   containerlist.New(),
		entries: make(map[string]*containerlist.Element),
	}
}

// get returns the cached ETag for a URL, or empty string if not cached.
func (cache *etagCache) get(url string) string {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	element, ok := cache.entries[url]
	if !ok {
		return ""
	}
	cache.order.MoveToFront(element)
	return element.Value.(*etagEntry).etag
}

// body returns the cached response body for a URL, or nil if not cached.
func (cache *etagCache) body(url string) []byte {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	element, ok := cache.entries[url]
	if !ok {
		return nil
	}
	return element.Value.(*etagEntry).body
}

// put stores an ETag and response body for a URL.
func (cache *etagCache) put(url string, etag string, body []byte) {
	if etag == "" {
		return
	}
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if element, ok := cache.entries[url]; ok {
		entry := element.Value.(*etagEntry)
		entry.etag = etag
		entry.body = body
		cache.order.MoveToFront(element)
		return
	}
	cache.entries[url] = cache.order.PushFront(&etagEntry{url: url, etag: etag, body: body})
	for cache.order.Len() > etagCacheSize {
		oldest := cache.order.Back()
		cache.order.Remove(oldest)
		delete(cache.entries, oldest.Value.(*etagEntry).url)
	}
}

func (cache *etagCache) len() int {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return cache.order.Len()
}
