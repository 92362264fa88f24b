package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jengzang/trafficcams/internal/catalog"
	"github.com/jengzang/trafficcams/internal/client"
	"github.com/jengzang/trafficcams/internal/mapview"
	"github.com/jengzang/trafficcams/internal/metrics"
	"github.com/jengzang/trafficcams/internal/models"
	"github.com/jengzang/trafficcams/internal/refresh"
	"github.com/jengzang/trafficcams/internal/repository"
	"github.com/jengzang/trafficcams/internal/rotation"
	"github.com/jengzang/trafficcams/internal/snapshot"
	"github.com/jengzang/trafficcams/internal/view"
)

// ErrCameraNotFound is returned for an unknown camera ID
var ErrCameraNotFound = errors.New("camera not found")

// ErrInvalidRadius is returned for a negative or zero proximity radius
var ErrInvalidRadius = errors.New("radius must be positive")

// Refresh groups: each screen area registers the cameras it shows
const (
	GroupGallery  = "gallery"
	GroupRotation = "rotation"
	GroupDetail   = "detail"
)

// Fetcher downloads the camera feed and camera images
type Fetcher interface {
	catalog.Fetcher
	refresh.ImageFetcher
}

// GalleryOptions configures a GalleryService
type GalleryOptions struct {
	DataURL         string
	BasePath        string
	RefreshInterval time.Duration
	RotationWindow  int
	RotationPeriod  time.Duration
	RotationTick    time.Duration
	GeoTimeout      time.Duration

	MapCenterLat float64
	MapCenterLon float64
	MapZoom      int
}

// GalleryService owns the view state and is the only place where it is
// mutated. Timers, persistence and network calls stay behind this type;
// filtering itself is the pure view.Derive.
type GalleryService struct {
	catalog    *catalog.Catalog
	favourites *repository.FavouritesRepository
	fetcher    Fetcher
	adapter    *mapview.Adapter
	rotation   *rotation.Cycler
	refresher  *refresh.Refresher
	metrics    *metrics.Metrics
	opts       GalleryOptions
	now        func() time.Time

	mu      sync.RWMutex
	baseCtx context.Context
	state   models.ViewState
	status  string
	loadErr error
}

// NewGalleryService creates a gallery service. m may be nil.
func NewGalleryService(favourites *repository.FavouritesRepository, fetcher Fetcher, m *metrics.Metrics, opts GalleryOptions) *GalleryService {
	if opts.GeoTimeout <= 0 {
		opts.GeoTimeout = DefaultLocateOptions.Timeout
	}

	s := &GalleryService{
		catalog:    catalog.New(),
		favourites: favourites,
		fetcher:    fetcher,
		adapter:    mapview.NewAdapter(opts.BasePath),
		metrics:    m,
		opts:       opts,
		now:        time.Now,
		status:     models.StatusLoading,
		baseCtx:    context.Background(),
	}
	if opts.MapCenterLat != 0 || opts.MapCenterLon != 0 {
		s.adapter.CenterLat = opts.MapCenterLat
		s.adapter.CenterLon = opts.MapCenterLon
	}
	if opts.MapZoom > 0 {
		s.adapter.Zoom = opts.MapZoom
	}

	s.refresher = refresh.New(fetcher, refresh.Config{
		Interval: opts.RefreshInterval,
		OnResult: func(id string, err error) {
			if s.metrics != nil {
				s.metrics.ObserveRefresh(id, err)
			}
		},
	})
	s.rotation = rotation.New(s.Filtered, rotation.Config{
		WindowSize: opts.RotationWindow,
		Period:     opts.RotationPeriod,
		Tick:       opts.RotationTick,
		OnFrame:    s.onRotationFrame,
	})

	if m != nil {
		m.RegisterGallery(s)
	}
	return s
}

// Start begins the periodic image refresh. Timers started later, such as
// the rotation, also stop when ctx is cancelled.
func (s *GalleryService) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	s.refresher.Start(ctx)
}

// Close stops every timer
func (s *GalleryService) Close() {
	s.rotation.Stop()
	s.refresher.Stop()
}

// LoadCatalog fetches the camera feed once. On failure the gallery stays
// empty and the status line reports the error.
func (s *GalleryService) LoadCatalog(ctx context.Context) error {
	s.setStatus(models.StatusLoading)

	err := s.catalog.Load(ctx, s.fetcher, s.opts.DataURL)
	if s.metrics != nil {
		s.metrics.ObserveCatalogLoad(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
	if err != nil {
		s.status = models.StatusLoadFailed
		log.Printf("catalog load failed: %v", err)
		return err
	}

	s.catalog.ApplyUserDistance(s.state.UserLocation)
	s.status = models.StatusLoaded
	log.Printf("loaded %d cameras from %s", s.catalog.Len(), s.opts.DataURL)
	return nil
}

func (s *GalleryService) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// State returns a copy of the current view state
func (s *GalleryService) State() models.ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Filtered derives the camera list for the current view state
func (s *GalleryService) Filtered() []models.Camera {
	return s.filteredFor(s.State())
}

func (s *GalleryService) filteredFor(state models.ViewState) []models.Camera {
	favs := s.favourites.Get()

	start := time.Now()
	list := view.Derive(state, s.catalog.All(), favs)
	if s.metrics != nil {
		s.metrics.ObserveDerive(time.Since(start))
	}
	return list
}

// List returns the rendered gallery
func (s *GalleryService) List() models.CameraListResponse {
	return s.ListFor(s.State())
}

// ListFor renders the gallery for state without storing it as the current view
func (s *GalleryService) ListFor(state models.ViewState) models.CameraListResponse {
	list := s.filteredFor(state)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CameraListResponse{
		Data:       list,
		Count:      len(list),
		Total:      s.catalog.Len(),
		NearActive: state.ProximityActive(),
		Status:     s.status,
	}
}

// Status reports the status line and counters
func (s *GalleryService) Status() models.StatusResponse {
	visible := len(s.Filtered())
	favourites := len(s.favourites.Get())

	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := models.StatusResponse{
		Status:     s.status,
		Loaded:     s.catalog.Loaded(),
		Cameras:    s.catalog.Len(),
		Visible:    visible,
		Favourites: favourites,
		RotationOn: s.rotation.State() == rotation.Running,
	}
	if s.loadErr != nil {
		resp.LoadError = s.loadErr.Error()
	}
	return resp
}

// SetQuery sets the free-text filter. Surrounding whitespace is ignored.
func (s *GalleryService) SetQuery(query string) models.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Query = strings.TrimSpace(query)
	return s.state.Clone()
}

// SetRegions replaces the active region set. Empty means all regions.
func (s *GalleryService) SetRegions(regions []string) models.ViewState {
	active := NormalizeRegions(regions)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ActiveRegions = active
	return s.state.Clone()
}

// NormalizeRegions drops empty and duplicate names and sorts the rest
func NormalizeRegions(regions []string) []string {
	seen := make(map[string]struct{}, len(regions))
	active := make([]string, 0, len(regions))
	for _, r := range regions {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		active = append(active, r)
	}
	sort.Strings(active)
	return active
}

// SetFavouritesOnly restricts the gallery to favourites
func (s *GalleryService) SetFavouritesOnly(enabled bool) models.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.FavouritesOnly = enabled
	return s.state.Clone()
}

// SetRadius sets the proximity radius in miles; nil removes it
func (s *GalleryService) SetRadius(radiusMi *float64) (models.ViewState, error) {
	if radiusMi != nil && *radiusMi <= 0 {
		return s.State(), fmt.Errorf("%w, got %v", ErrInvalidRadius, *radiusMi)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if radiusMi == nil {
		s.state.RadiusMi = nil
	} else {
		r := *radiusMi
		s.state.RadiusMi = &r
	}
	return s.state.Clone(), nil
}

// EnableProximity acquires a position from locator and sorts by distance.
// A nil locator means geolocation is not available. On failure proximity
// stays off and the status line says why.
func (s *GalleryService) EnableProximity(ctx context.Context, locator Locator) (models.ViewState, error) {
	if locator == nil {
		s.setStatus(models.StatusNoGeolocation)
		return s.State(), fmt.Errorf("%w: geolocation not supported", ErrLocationUnavailable)
	}

	s.setStatus(models.StatusLocating)

	opts := DefaultLocateOptions
	opts.Timeout = s.opts.GeoTimeout
	locCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	loc, err := locator.Locate(locCtx, opts)
	if err == nil {
		err = ValidateLocation(loc)
	}
	if err != nil {
		s.setStatus(models.StatusLocationDenied)
		log.Printf("locate failed: %v", err)
		if !errors.Is(err, ErrLocationUnavailable) {
			err = fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
		}
		return s.State(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserLocation = &loc
	s.state.NearActive = true
	s.catalog.ApplyUserDistance(&loc)
	s.status = models.StatusSortedByDistance
	return s.state.Clone(), nil
}

// DisableProximity stops sorting by distance. The last position is kept
// and the radius is cleared.
func (s *GalleryService) DisableProximity() models.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.NearActive = false
	s.state.RadiusMi = nil
	s.status = models.StatusShowingAll
	return s.state.Clone()
}

// ToggleProximity switches proximity mode like the "near me" button
func (s *GalleryService) ToggleProximity(ctx context.Context, locator Locator) (models.ViewState, error) {
	if locator == nil {
		return s.EnableProximity(ctx, nil)
	}
	if s.State().NearActive {
		return s.DisableProximity(), nil
	}
	return s.EnableProximity(ctx, locator)
}

// Camera returns one camera by ID
func (s *GalleryService) Camera(id string) (models.Camera, error) {
	cam, ok := s.catalog.Get(id)
	if !ok {
		return models.Camera{}, fmt.Errorf("%w: %s", ErrCameraNotFound, id)
	}
	return cam, nil
}

// FindCamera looks a camera up by ID, then by exact name
func (s *GalleryService) FindCamera(ref string) (models.Camera, error) {
	if cam, ok := s.catalog.Get(ref); ok {
		return cam, nil
	}
	if cam, ok := s.catalog.FindByName(ref); ok {
		return cam, nil
	}
	return models.Camera{}, fmt.Errorf("%w: %s", ErrCameraNotFound, ref)
}

// Detail opens the single-camera view and keeps its image refreshing
func (s *GalleryService) Detail(id string) (models.CameraDetail, error) {
	cam, err := s.Camera(id)
	if err != nil {
		return models.CameraDetail{}, err
	}
	s.refresher.SetVisible(GroupDetail, []models.Camera{cam})
	return s.adapter.ShowDetail(cam, s.favourites.Get().Has(cam.ID)), nil
}

// CloseDetail stops refreshing the detail view
func (s *GalleryService) CloseDetail() {
	s.refresher.SetVisible(GroupDetail, nil)
}

// Regions lists every region with its checkbox state. With no active
// regions every box is checked.
func (s *GalleryService) Regions() []models.RegionOption {
	active := s.State().RegionSet()

	regions := s.catalog.Regions()
	out := make([]models.RegionOption, 0, len(regions))
	for _, r := range regions {
		_, on := active[r]
		out = append(out, models.RegionOption{Name: r, Checked: len(active) == 0 || on})
	}
	return out
}

// Favourites returns the favourite cameras in catalog order
func (s *GalleryService) Favourites() []models.Camera {
	favs := s.favourites.Get()
	out := make([]models.Camera, 0, len(favs))
	for _, cam := range s.catalog.All() {
		if favs.Has(cam.ID) {
			out = append(out, cam)
		}
	}
	return out
}

// FavouriteIDs returns the stored favourite IDs, including IDs no longer
// present in the catalog
func (s *GalleryService) FavouriteIDs() []string {
	return s.favourites.Get().IDs()
}

// ToggleFavourite flips a camera's favourite flag and reports the new value
func (s *GalleryService) ToggleFavourite(id string) (bool, error) {
	if _, err := s.Camera(id); err != nil {
		return false, err
	}
	isFav, err := s.favourites.Toggle(id)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favourite %s: %w", id, err)
	}
	return isFav, nil
}

// Markers plots every camera in the catalog
func (s *GalleryService) Markers() mapview.MarkerLayer {
	return s.adapter.PlotMarkers(s.catalog.All())
}

// Snapshot downloads the current frame of a camera. A *snapshot.FetchError
// carries the direct URL to fall back to.
func (s *GalleryService) Snapshot(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	cam, err := s.Camera(id)
	if err != nil {
		return nil, err
	}

	snap, err := snapshot.Take(ctx, s.fetcher, cam, s.now())
	if s.metrics != nil {
		s.metrics.ObserveSnapshot(err)
	}
	if err != nil {
		log.Printf("snapshot of camera %s failed, falling back to direct URL: %v", id, err)
		return nil, err
	}
	return snap, nil
}

// Image returns the latest complete image of a camera
func (s *GalleryService) Image(ctx context.Context, id string) (*client.Image, error) {
	cam, err := s.Camera(id)
	if err != nil {
		return nil, err
	}
	return s.refresher.Image(ctx, cam)
}

// SetVisible registers the gallery cameras currently on screen. Unknown IDs
// are ignored; the number of registered cameras is returned.
func (s *GalleryService) SetVisible(ids []string) int {
	cams := make([]models.Camera, 0, len(ids))
	for _, id := range ids {
		if cam, ok := s.catalog.Get(id); ok {
			cams = append(cams, cam)
		}
	}
	s.refresher.SetVisible(GroupGallery, cams)
	return len(cams)
}

// RefreshNow reloads every visible image once
func (s *GalleryService) RefreshNow(ctx context.Context) {
	s.refresher.RefreshNow(ctx)
}

// Rotation exposes the rotation cycler
func (s *GalleryService) Rotation() *rotation.Cycler {
	return s.rotation
}

// StartRotation starts the rolling view. It outlives the caller and runs
// until StopRotation or until the context passed to Start is cancelled.
func (s *GalleryService) StartRotation() {
	s.mu.RLock()
	ctx := s.baseCtx
	s.mu.RUnlock()
	s.rotation.Start(ctx)
}

// StopRotation stops the rolling view and its image refresh
func (s *GalleryService) StopRotation() {
	s.rotation.Stop()
	s.refresher.SetVisible(GroupRotation, nil)
}

func (s *GalleryService) onRotationFrame(frame rotation.Frame) {
	cams := make([]models.Camera, 0, len(frame.Slots))
	for _, slot := range frame.Slots {
		if slot != nil {
			cams = append(cams, *slot)
		}
	}
	s.refresher.SetVisible(GroupRotation, cams)
}
