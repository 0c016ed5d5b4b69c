package services

import (
	"context"
	"log"
	"time"

	"grabberbot/internal/repository"
)

// CachePruner periodically evicts media_cache rows whose last_used_at fell
// behind the retention window. Eviction is an operator concern; the request
// pipeline never waits on it.
type CachePruner struct {
	cache    *repository.MediaCacheRepo
	ttl      time.Duration
	interval time.Duration
	stopChan chan struct{}
}

func NewCachePruner(cache *repository.MediaCacheRepo, ttl, interval time.Duration) *CachePruner {
	return &CachePruner{
		cache:    cache,
		ttl:      ttl,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (p *CachePruner) Start() {
	go p.loop()
	log.Printf("Cache pruner started (ttl %s, every %s)", p.ttl, p.interval)
}

func (p *CachePruner) Stop() {
	select {
	case <-p.stopChan:
		return
	default:
		close(p.stopChan)
	}
}

func (p *CachePruner) loop() {
	// Run on startup as well as by interval.
	p.prune()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.prune()
		}
	}
}

func (p *CachePruner) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := p.cache.PruneExpired(ctx, p.ttl)
	if err != nil {
		log.Printf("Cache cleanup failed: %v", err)
		return
	}
	log.Printf("Cache cleanup: removed %d expired entries", removed)
}
