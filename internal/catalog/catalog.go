// Package catalog holds the camera list loaded from the data feed.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/jengzang/trafficcams/internal/client"
	"github.com/jengzang/trafficcams/internal/models"
	"github.com/jengzang/trafficcams/internal/spatial"
)

// LoadError reports a failed catalog load: fetch or decode
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load cameras from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Fetcher downloads the raw feed body
type Fetcher interface {
	GetFeed(ctx context.Context, feedURL string) ([]byte, error)
}

// Catalog is the in-memory camera list. Records are created at load time and
// only their distances change afterwards.
type Catalog struct {
	mu      sync.RWMutex
	cameras []models.Camera
	index   map[string]int
	loaded  bool
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Load fetches the feed once and replaces the catalog contents. source is an
// http(s) URL or a local file path. On error the catalog is left empty.
func (c *Catalog) Load(ctx context.Context, fetcher Fetcher, source string) error {
	body, err := readSource(ctx, fetcher, source)
	if err != nil {
		c.reset(nil)
		return &LoadError{Source: source, Err: err}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		c.reset(nil)
		return &LoadError{Source: source, Err: fmt.Errorf("invalid feed JSON: %w", err)}
	}
	if elements == nil {
		c.reset(nil)
		return &LoadError{Source: source, Err: errors.New("feed is not a JSON array")}
	}

	cameras := decodeCameras(elements)

	c.reset(cameras)
	return nil
}

// decodeCameras decodes each feed element on its own. Elements that are not
// JSON objects are skipped; fields are not otherwise validated.
func decodeCameras(elements []json.RawMessage) []models.Camera {
	cameras := make([]models.Camera, 0, len(elements))
	for i, raw := range elements {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			log.Printf("Skipping feed element %d: not an object", i)
			continue
		}
		var cam models.Camera
		if err := json.Unmarshal(raw, &cam); err != nil {
			log.Printf("Skipping feed element %d: %v", i, err)
			continue
		}
		cameras = append(cameras, cam)
	}
	return cameras
}

func readSource(ctx context.Context, fetcher Fetcher, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if fetcher == nil {
			fetcher = client.New(client.ClientConfig{})
		}
		return fetcher.GetFeed(ctx, source)
	}
	return os.ReadFile(strings.TrimPrefix(source, "file://"))
}

func (c *Catalog) reset(cameras []models.Camera) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cameras = cameras
	c.index = make(map[string]int, len(cameras))
	for i, cam := range cameras {
		if _, dup := c.index[cam.ID]; !dup {
			c.index[cam.ID] = i
		}
	}
	c.loaded = cameras != nil
}

// ApplyUserDistance recomputes every camera's distance from loc.
// A nil loc clears the distances. Cameras without usable coordinates get
// no distance.
func (c *Catalog) ApplyUserDistance(loc *models.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.cameras {
		cam := &c.cameras[i]
		if loc == nil || !spatial.ValidCoordinate(cam.Latitude, cam.Longitude) {
			cam.DistanceKm = nil
			cam.DistanceMi = nil
			continue
		}
		km := spatial.DistanceKm(loc.Latitude, loc.Longitude, cam.Latitude, cam.Longitude)
		mi := spatial.ToMiles(km)
		cam.DistanceKm = &km
		cam.DistanceMi = &mi
	}
}

// All returns a copy of the cameras in feed order
func (c *Catalog) All() []models.Camera {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Camera, len(c.cameras))
	copy(out, c.cameras)
	return out
}

// Get returns the camera with the given ID
func (c *Catalog) Get(id string) (models.Camera, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return models.Camera{}, false
	}
	return c.cameras[i], true
}

// FindByName returns the first camera with exactly this display name
func (c *Catalog) FindByName(name string) (models.Camera, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cam := range c.cameras {
		if cam.Name == name {
			return cam, true
		}
	}
	return models.Camera{}, false
}

// Regions returns the distinct non-empty region labels, sorted
func (c *Catalog) Regions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, cam := range c.cameras {
		if cam.Region != "" {
			seen[cam.Region] = struct{}{}
		}
	}
	regions := make([]string, 0, len(seen))
	for r := range seen {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}

// Len returns the number of cameras
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cameras)
}

// Loaded reports whether the last Load succeeded
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
