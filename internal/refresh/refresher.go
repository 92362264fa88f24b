// Package refresh periodically reloads the images currently on screen.
//
// A new frame is downloaded in full before it replaces the cached one, so a
// reader always gets the previous complete image while a refresh is in
// flight or after it fails.
package refresh

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jengzang/trafficcams/internal/client"
	"github.com/jengzang/trafficcams/internal/models"
)

// DefaultInterval is the image refresh cadence
const DefaultInterval = 2 * time.Second

// ImageFetcher downloads a cache-busted camera image
type ImageFetcher interface {
	GetImage(ctx context.Context, imageURL string) (*client.Image, error)
}

// Config for the refresher
type Config struct {
	Interval    time.Duration
	Concurrency int

	// OnResult is called after every fetch attempt
	OnResult func(cameraID string, err error)
}

// Refresher keeps the latest complete image of each visible camera
type Refresher struct {
	fetcher ImageFetcher
	cfg     Config

	mu       sync.RWMutex
	visible  map[string]map[string]string // group -> camera ID -> base URL
	cache    map[string]*client.Image
	inflight map[string]bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a stopped refresher
func New(fetcher ImageFetcher, cfg Config) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Refresher{
		fetcher:  fetcher,
		cfg:      cfg,
		visible:  make(map[string]map[string]string),
		cache:    make(map[string]*client.Image),
		inflight: make(map[string]bool),
	}
}

// SetVisible replaces the cameras shown by one screen area (gallery grid,
// rotation window, detail panel). Cached images of cameras no longer visible
// anywhere are dropped.
func (r *Refresher) SetVisible(group string, cameras []models.Camera) {
	urls := make(map[string]string, len(cameras))
	for _, cam := range cameras {
		if cam.URL != "" {
			urls[cam.ID] = cam.URL
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(urls) == 0 {
		delete(r.visible, group)
	} else {
		r.visible[group] = urls
	}
	for id := range r.cache {
		if !r.isVisibleLocked(id) {
			delete(r.cache, id)
		}
	}
}

func (r *Refresher) isVisibleLocked(id string) bool {
	for _, urls := range r.visible {
		if _, ok := urls[id]; ok {
			return true
		}
	}
	return false
}

// Visible returns camera ID -> base URL for everything on screen
func (r *Refresher) Visible() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string)
	for _, urls := range r.visible {
		for id, u := range urls {
			out[id] = u
		}
	}
	return out
}

// Start begins periodic refreshing. Starting twice is a no-op.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.RefreshNow(runCtx)
			}
		}
	}()
}

// Stop halts periodic refreshing. Idempotent. Fetches already in flight
// finish in the background and are discarded if their camera went away.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RefreshNow fetches every visible camera once and waits for the results.
// Cameras whose previous fetch is still running are skipped.
func (r *Refresher) RefreshNow(ctx context.Context) {
	targets := r.Visible()

	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	for id, base := range targets {
		if !r.claim(id) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(id, base string) {
			defer wg.Done()
			defer func() { <-sem }()
			r.fetch(ctx, id, base)
		}(id, base)
	}
	wg.Wait()
}

func (r *Refresher) claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[id] {
		return false
	}
	r.inflight[id] = true
	return true
}

func (r *Refresher) fetch(ctx context.Context, id, base string) {
	img, err := r.fetcher.GetImage(ctx, base)

	r.mu.Lock()
	delete(r.inflight, id)
	if err == nil && r.isVisibleLocked(id) {
		r.cache[id] = img
	}
	r.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		log.Printf("refresh: camera %s: %v", id, err)
	}
	if r.cfg.OnResult != nil {
		r.cfg.OnResult(id, err)
	}
}

// Cached returns the latest complete image of a camera, if any
func (r *Refresher) Cached(id string) (*client.Image, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.cache[id]
	return img, ok
}

// Image returns the cached image of cam, fetching it once on a cold cache
func (r *Refresher) Image(ctx context.Context, cam models.Camera) (*client.Image, error) {
	if img, ok := r.Cached(cam.ID); ok {
		return img, nil
	}

	img, err := r.fetcher.GetImage(ctx, cam.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image for camera %s: %w", cam.ID, err)
	}

	r.mu.Lock()
	if r.isVisibleLocked(cam.ID) {
		r.cache[cam.ID] = img
	}
	r.mu.Unlock()

	return img, nil
}
