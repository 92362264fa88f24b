package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jengzang/trafficcams/internal/client"
	"github.com/jengzang/trafficcams/internal/models"
)

const feed = `[
	{"id": 1, "camera_name": "Main St", "region": "North", "url": "http://img/1.jpg", "latitude": 54.6, "longitude": -5.9},
	{"id": 2, "camera_name": "Elm Ave", "region": "South", "url": "http://img/2.jpg", "latitude": 54.7, "longitude": -5.8},
	{"id": 3, "camera_name": "Harbour", "region": "North", "url": "http://img/3.jpg", "latitude": 54.61, "longitude": -5.91},
	{"id": 4, "camera_name": "Lonely", "url": "http://img/4.jpg", "latitude": 54.2, "longitude": -6.1}
]`

type stubFetcher struct {
	body []byte
	err  error
}

func (s stubFetcher) GetFeed(ctx context.Context, feedURL string) ([]byte, error) {
	return s.body, s.err
}

func loaded(t *testing.T) *Catalog {
	t.Helper()
	c := New()
	if err := c.Load(context.Background(), stubFetcher{body: []byte(feed)}, "http://example/cam.json"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return c
}

func TestLoadFromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	c := New()
	if err := c.Load(context.Background(), client.New(client.ClientConfig{}), srv.URL+"/cam.json"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Len() != 4 || !c.Loaded() {
		t.Fatalf("expected 4 loaded cameras, got %d (loaded=%v)", c.Len(), c.Loaded())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam.json")
	if err := os.WriteFile(path, []byte(feed), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New()
	if err := c.Load(context.Background(), nil, path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cam, ok := c.Get("3")
	if !ok || cam.Name != "Harbour" {
		t.Errorf("expected camera 3 Harbour, got %+v (found=%v)", cam, ok)
	}
}

func TestLoadErrorsLeaveCatalogEmpty(t *testing.T) {
	tests := []struct {
		name    string
		fetcher stubFetcher
	}{
		{"fetch failure", stubFetcher{err: errors.New("connection refused")}},
		{"invalid json", stubFetcher{body: []byte(`<html>`)}},
		{"object not array", stubFetcher{body: []byte(`{"cameras": []}`)}},
		{"null", stubFetcher{body: []byte(`null`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := loaded(t)
			err := c.Load(context.Background(), tt.fetcher, "http://example/cam.json")

			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
			if loadErr.Source != "http://example/cam.json" {
				t.Errorf("unexpected source %q", loadErr.Source)
			}
			if c.Len() != 0 || c.Loaded() {
				t.Errorf("expected empty catalog after failure, got %d", c.Len())
			}
		})
	}
}

func TestApplyUserDistance(t *testing.T) {
	c := loaded(t)

	c.ApplyUserDistance(&models.Location{Latitude: 54.6, Longitude: -5.9})
	cam, _ := c.Get("1")
	if !cam.HasDistance() || *cam.DistanceKm != 0 || *cam.DistanceMi != 0 {
		t.Fatalf("expected zero distance for camera 1, got %+v", cam)
	}
	other, _ := c.Get("2")
	if *other.DistanceKm <= 0 || *other.DistanceMi >= *other.DistanceKm {
		t.Errorf("unexpected distances for camera 2: %v km %v mi", *other.DistanceKm, *other.DistanceMi)
	}

	c.ApplyUserDistance(nil)
	for _, cam := range c.All() {
		if cam.DistanceKm != nil || cam.DistanceMi != nil {
			t.Errorf("expected cleared distance for %s", cam.ID)
		}
	}
}

func TestApplyUserDistanceSkipsMissingCoordinates(t *testing.T) {
	c := New()
	body := []byte(`[
		{"id": 1, "camera_name": "Main St", "latitude": 54.6, "longitude": -5.9},
		{"id": 2, "camera_name": "No Fix"},
		{"id": 3, "camera_name": "Half Fix", "latitude": 54.7, "longitude": 0}
	]`)
	if err := c.Load(context.Background(), stubFetcher{body: body}, "http://example/cam.json"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	c.ApplyUserDistance(&models.Location{Latitude: 54.6, Longitude: -5.9})
	for _, id := range []string{"2", "3"} {
		cam, _ := c.Get(id)
		if cam.HasDistance() {
			t.Errorf("camera %s has no coordinates, got distance %v km", id, *cam.DistanceKm)
		}
	}
	if cam, _ := c.Get("1"); !cam.HasDistance() {
		t.Error("expected distance for camera 1")
	}
}

func TestLoadKeepsOddElements(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "object id",
			body: `[{"id": 1, "camera_name": "Main St"}, {"id": {"v": 2}, "camera_name": "Odd"}]`,
			want: []string{"1", `{"v":2}`},
		},
		{
			name: "bare number",
			body: `[{"id": 1, "camera_name": "Main St"}, 5, null, {"id": "3", "camera_name": "Harbour"}]`,
			want: []string{"1", "3"},
		},
		{
			name: "empty array",
			body: `[]`,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cam.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}

			c := New()
			if err := c.Load(context.Background(), nil, path); err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			got := []string{}
			for _, cam := range c.All() {
				got = append(got, cam.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("loaded ids %v, want %v", got, tt.want)
			}
			if !c.Loaded() {
				t.Error("expected catalog to be loaded")
			}
		})
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c := loaded(t)
	all := c.All()
	all[0].Name = "changed"

	cam, _ := c.Get("1")
	if cam.Name != "Main St" {
		t.Error("All must not expose internal storage")
	}
}

func TestRegionsAndLookup(t *testing.T) {
	c := loaded(t)

	if got := c.Regions(); !reflect.DeepEqual(got, []string{"North", "South"}) {
		t.Errorf("unexpected regions %v", got)
	}
	if cam, ok := c.FindByName("Elm Ave"); !ok || cam.ID != "2" {
		t.Errorf("FindByName failed: %+v %v", cam, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("expected missing camera to be absent")
	}
}
