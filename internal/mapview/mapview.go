// Package mapview adapts the camera catalog to map and detail widgets.
package mapview

import (
	"fmt"
	"time"

	"github.com/jengzang/trafficcams/internal/client"
	"github.com/jengzang/trafficcams/internal/models"
	"github.com/jengzang/trafficcams/internal/spatial"
)

// MapPlotter turns cameras into map markers
type MapPlotter interface {
	PlotMarkers(cameras []models.Camera) MarkerLayer
}

// DetailPresenter builds the single-camera view
type DetailPresenter interface {
	ShowDetail(cam models.Camera, favourite bool) models.CameraDetail
}

// MarkerLayer is what a map widget needs: markers plus the initial viewport
type MarkerLayer struct {
	Viewport spatial.Viewport  `json:"viewport"`
	Markers  FeatureCollection `json:"markers"`
}

// Adapter implements MapPlotter and DetailPresenter with GeoJSON markers and
// links into the gallery API.
type Adapter struct {
	BasePath  string // API prefix for "open full view" links, e.g. /api/v1
	CenterLat float64
	CenterLon float64
	Zoom      int
	Now       func() time.Time
}

// NewAdapter creates an adapter centred on the default map view
func NewAdapter(basePath string) *Adapter {
	return &Adapter{
		BasePath:  basePath,
		CenterLat: spatial.DefaultCenterLat,
		CenterLon: spatial.DefaultCenterLon,
		Zoom:      spatial.DefaultZoom,
		Now:       time.Now,
	}
}

// PlotMarkers returns one marker per camera with a valid position. Each
// marker's info panel carries a cache-busted preview and an "open" link to
// the same detail view the gallery uses.
func (a *Adapter) PlotMarkers(cameras []models.Camera) MarkerLayer {
	now := a.Now()
	features := make([]Feature, 0, len(cameras))
	points := make([][2]float64, 0, len(cameras))

	for _, cam := range cameras {
		if !spatial.ValidCoordinate(cam.Latitude, cam.Longitude) {
			continue
		}
		points = append(points, [2]float64{cam.Latitude, cam.Longitude})
		features = append(features, Feature{
			Type: featureType,
			ID:   cam.ID,
			Geometry: Geometry{
				Type:        geometryPointType,
				Coordinates: []float64{cam.Longitude, cam.Latitude},
			},
			Properties: map[string]interface{}{
				"name":     cam.Name,
				"region":   cam.Region,
				"image":    client.Bust(cam.URL, now),
				"open":     a.detailPath(cam.ID),
				"snapshot": a.snapshotPath(cam.ID),
				"cell":     spatial.Geohash(cam.Latitude, cam.Longitude, spatial.MarkerCellPrecision),
			},
		})
	}

	return MarkerLayer{
		Viewport: spatial.NewViewport(a.CenterLat, a.CenterLon, a.Zoom, points),
		Markers: FeatureCollection{
			Type:     featureCollectionType,
			Features: features,
		},
	}
}

// ShowDetail builds the detail panel for cam
func (a *Adapter) ShowDetail(cam models.Camera, favourite bool) models.CameraDetail {
	return models.CameraDetail{
		Camera:      cam,
		Favourite:   favourite,
		ImageURL:    client.Bust(cam.URL, a.Now()),
		SnapshotURL: a.snapshotPath(cam.ID),
	}
}

func (a *Adapter) detailPath(id string) string {
	return fmt.Sprintf("%s/cameras/%s", a.BasePath, id)
}

func (a *Adapter) snapshotPath(id string) string {
	return fmt.Sprintf("%s/cameras/%s/snapshot", a.BasePath, id)
}
