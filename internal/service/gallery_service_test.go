package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jengzang/trafficcams/internal/catalog"
	"github.com/jengzang/trafficcams/internal/client"
	"github.com/jengzang/trafficcams/internal/database"
	"github.com/jengzang/trafficcams/internal/metrics"
	"github.com/jengzang/trafficcams/internal/models"
	"github.com/jengzang/trafficcams/internal/repository"
	"github.com/jengzang/trafficcams/internal/snapshot"
)

const testFeed = `[
	{"id": 1, "camera_name": "Main St", "region": "North", "url": "https://cams.example/1.jpg", "latitude": 54.6, "longitude": -5.9},
	{"id": "2", "camera_name": "Elm Ave", "region": "South", "url": "https://cams.example/2.jpg", "latitude": 54.7, "longitude": -5.8},
	{"id": "3", "camera_name": "Harbour", "region": "North", "url": "https://cams.example/3.jpg", "latitude": "54.65", "longitude": "-5.85", "operator": "port"}
]`

type fakeFetcher struct {
	mu       sync.Mutex
	feed     string
	feedErr  error
	imageErr error
	images   int
}

func (f *fakeFetcher) GetFeed(ctx context.Context, feedURL string) ([]byte, error) {
	if f.feedErr != nil {
		return nil, f.feedErr
	}
	return []byte(f.feed), nil
}

func (f *fakeFetcher) GetImage(ctx context.Context, imageURL string) (*client.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images++
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return &client.Image{Data: []byte("jpeg:" + imageURL), ContentType: "image/jpeg", FetchedAt: time.Now()}, nil
}

func newTestService(t *testing.T, fetcher *fakeFetcher) *GalleryService {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "gallery.db")})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := NewGalleryService(repository.NewFavouritesRepository(db), fetcher, metrics.New(), GalleryOptions{
		DataURL:        "https://cams.example/cam.json",
		BasePath:       "/api/v1",
		RotationPeriod: time.Hour,
		RotationTick:   time.Hour,
	})
	t.Cleanup(svc.Close)
	return svc
}

func loadedService(t *testing.T) (*GalleryService, *fakeFetcher) {
	t.Helper()
	fetcher := &fakeFetcher{feed: testFeed}
	svc := newTestService(t, fetcher)
	if err := svc.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	return svc, fetcher
}

func ids(cams []models.Camera) []string {
	out := make([]string, len(cams))
	for i, c := range cams {
		out[i] = c.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLoadCatalogStatus(t *testing.T) {
	svc, _ := loadedService(t)

	st := svc.Status()
	if st.Status != models.StatusLoaded || !st.Loaded || st.Cameras != 3 || st.Visible != 3 {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestLoadCatalogFailure(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{feedErr: errors.New("503")})

	err := svc.LoadCatalog(context.Background())
	var loadErr *catalog.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}

	st := svc.Status()
	if st.Status != models.StatusLoadFailed || st.Loaded || st.Cameras != 0 || st.LoadError == "" {
		t.Errorf("unexpected status %+v", st)
	}
	if len(svc.List().Data) != 0 {
		t.Error("expected empty gallery after failed load")
	}
}

func TestQueryThenFavouritesScenario(t *testing.T) {
	svc, _ := loadedService(t)

	svc.SetQuery("  elm ")
	if got := ids(svc.Filtered()); !equalIDs(got, []string{"2"}) {
		t.Fatalf("query elm: expected [2], got %v", got)
	}

	svc.SetQuery("")
	if _, err := svc.ToggleFavourite("1"); err != nil {
		t.Fatalf("ToggleFavourite failed: %v", err)
	}
	svc.SetFavouritesOnly(true)
	if got := ids(svc.Filtered()); !equalIDs(got, []string{"1"}) {
		t.Errorf("favourites only: expected [1], got %v", got)
	}
}

func TestSetRegions(t *testing.T) {
	svc, _ := loadedService(t)

	state := svc.SetRegions([]string{"North", "", "North"})
	if len(state.ActiveRegions) != 1 {
		t.Errorf("expected deduplicated regions, got %v", state.ActiveRegions)
	}
	if got := ids(svc.Filtered()); !equalIDs(got, []string{"1", "3"}) {
		t.Errorf("expected [1 3], got %v", got)
	}

	opts := svc.Regions()
	if len(opts) != 2 || !opts[0].Checked || opts[1].Checked {
		t.Errorf("unexpected region options %+v", opts)
	}

	svc.SetRegions(nil)
	for _, o := range svc.Regions() {
		if !o.Checked {
			t.Errorf("empty selection should check every region, got %+v", o)
		}
	}
}

func TestProximityLifecycle(t *testing.T) {
	svc, _ := loadedService(t)
	ctx := context.Background()

	state, err := svc.EnableProximity(ctx, StaticLocator{Location: models.Location{Latitude: 54.7, Longitude: -5.8}})
	if err != nil {
		t.Fatalf("EnableProximity failed: %v", err)
	}
	if !state.ProximityActive() || svc.Status().Status != models.StatusSortedByDistance {
		t.Fatalf("expected proximity active, got %+v", state)
	}

	list := svc.Filtered()
	if list[0].ID != "2" || list[0].DistanceKm == nil || *list[0].DistanceKm != 0 {
		t.Errorf("expected camera 2 first at distance 0, got %+v", list[0])
	}

	r := 3.0
	if _, err := svc.SetRadius(&r); err != nil {
		t.Fatalf("SetRadius failed: %v", err)
	}
	for _, cam := range svc.Filtered() {
		if *cam.DistanceMi > r {
			t.Errorf("camera %s outside radius: %v", cam.ID, *cam.DistanceMi)
		}
	}

	state, err = svc.ToggleProximity(ctx, StaticLocator{})
	if err != nil {
		t.Fatalf("toggle off failed: %v", err)
	}
	if state.NearActive || state.RadiusMi != nil || state.UserLocation == nil {
		t.Errorf("toggle off should keep location and clear radius, got %+v", state)
	}
	if svc.Status().Status != models.StatusShowingAll {
		t.Errorf("unexpected status %q", svc.Status().Status)
	}
	if got := ids(svc.Filtered()); !equalIDs(got, []string{"1", "2", "3"}) {
		t.Errorf("expected catalog order after toggle off, got %v", got)
	}
}

func TestProximityFailures(t *testing.T) {
	svc, _ := loadedService(t)
	ctx := context.Background()

	if _, err := svc.EnableProximity(ctx, nil); !errors.Is(err, ErrLocationUnavailable) {
		t.Errorf("expected ErrLocationUnavailable, got %v", err)
	}
	if svc.Status().Status != models.StatusNoGeolocation {
		t.Errorf("unexpected status %q", svc.Status().Status)
	}

	denied := LocatorFunc(func(ctx context.Context, opts LocateOptions) (models.Location, error) {
		if !opts.HighAccuracy || opts.MaximumAge != 0 || opts.Timeout != 10*time.Second {
			t.Errorf("unexpected locate options %+v", opts)
		}
		return models.Location{}, errors.New("user denied geolocation")
	})
	state, err := svc.EnableProximity(ctx, denied)
	if !errors.Is(err, ErrLocationUnavailable) {
		t.Errorf("expected ErrLocationUnavailable, got %v", err)
	}
	if state.NearActive || svc.Status().Status != models.StatusLocationDenied {
		t.Errorf("proximity must stay off after denial, got %+v", state)
	}
}

func TestSetRadiusRejectsNonPositive(t *testing.T) {
	svc, _ := loadedService(t)
	r := -1.0
	if _, err := svc.SetRadius(&r); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("expected ErrInvalidRadius, got %v", err)
	}
	if _, err := svc.SetRadius(nil); err != nil {
		t.Errorf("clearing radius failed: %v", err)
	}
}

func TestFavourites(t *testing.T) {
	svc, _ := loadedService(t)

	if _, err := svc.ToggleFavourite("missing"); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("expected ErrCameraNotFound, got %v", err)
	}

	for _, id := range []string{"3", "1"} {
		on, err := svc.ToggleFavourite(id)
		if err != nil || !on {
			t.Fatalf("toggle %s: on=%v err=%v", id, on, err)
		}
	}
	if got := ids(svc.Favourites()); !equalIDs(got, []string{"1", "3"}) {
		t.Errorf("expected favourites in catalog order, got %v", got)
	}

	detail, err := svc.Detail("3")
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if !detail.Favourite || detail.SnapshotURL != "/api/v1/cameras/3/snapshot" {
		t.Errorf("unexpected detail %+v", detail)
	}
}

func TestSnapshotAndFallback(t *testing.T) {
	svc, fetcher := loadedService(t)
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx, "1")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.ContentType != "image/jpeg" || len(snap.Data) == 0 {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	fetcher.imageErr = errors.New("timeout")
	_, err = svc.Snapshot(ctx, "1")
	var fe *snapshot.FetchError
	if !errors.As(err, &fe) || fe.DirectURL != "https://cams.example/1.jpg" {
		t.Errorf("expected FetchError with direct URL, got %v", err)
	}

	if _, err := svc.Snapshot(ctx, "nope"); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("expected ErrCameraNotFound, got %v", err)
	}
}

func TestVisibleImagesRefresh(t *testing.T) {
	svc, fetcher := loadedService(t)
	ctx := context.Background()

	if n := svc.SetVisible([]string{"1", "2", "unknown"}); n != 2 {
		t.Errorf("expected 2 visible cameras, got %d", n)
	}
	svc.RefreshNow(ctx)

	img, err := svc.Image(ctx, "2")
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if string(img.Data) == "" {
		t.Error("expected cached image data")
	}

	fetcher.mu.Lock()
	calls := fetcher.images
	fetcher.mu.Unlock()
	if calls != 2 {
		t.Errorf("expected 2 fetches (cached image reused), got %d", calls)
	}
}

func TestRotationFollowsFilteredList(t *testing.T) {
	svc, _ := loadedService(t)

	svc.SetRegions([]string{"North"})
	svc.StartRotation()
	defer svc.StopRotation()

	frame, ok := svc.Rotation().LastFrame()
	if !ok {
		t.Fatal("expected an initial frame")
	}
	if frame.Total != 2 || frame.Slots[0].ID != "1" || frame.Slots[1].ID != "3" || frame.Slots[2].ID != "1" {
		t.Errorf("unexpected frame %+v", frame)
	}
	if !svc.Status().RotationOn {
		t.Error("expected rotation to be running")
	}

	svc.StopRotation()
	svc.StopRotation()
	if svc.Status().RotationOn {
		t.Error("expected rotation stopped")
	}
}
