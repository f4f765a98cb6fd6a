package web

import (
	"html/template"
	"sync"
	"time"
)

type renderedPage struct {
	ModTime time.Time
	HTML    template.HTML
}

// pageCache keeps rendered entry HTML by key. A page is reused only while the
// entry's mtime is unchanged; watcher events and local writes drop it early.
type pageCache struct {
	mu     sync.RWMutex
	pages  map[string]renderedPage
	hits   int
	misses int
}

// PageCacheState is reported under /debug/state.
type PageCacheState struct {
	Size   int `json:"size"`
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

func newPageCache() *pageCache {
	return &pageCache{pages: make(map[string]renderedPage)}
}

func (p *pageCache) Get(key string, modTime time.Time) (template.HTML, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	page, ok := p.pages[key]
	if !ok || !page.ModTime.Equal(modTime) {
		p.misses++
		return "", false
	}
	p.hits++
	return page.HTML, true
}

func (p *pageCache) Set(key string, modTime time.Time, html template.HTML) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[key] = renderedPage{ModTime: modTime, HTML: html}
}

func (p *pageCache) Invalidate(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, key := range keys {
		delete(p.pages, key)
	}
}

func (p *pageCache) State() PageCacheState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PageCacheState{Size: len(p.pages), Hits: p.hits, Misses: p.misses}
}
