package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// Default map view (Belfast)
const (
	DefaultCenterLat = 54.607868
	DefaultCenterLon = -5.926437
	DefaultZoom      = 8
)

// ValidCoordinate reports whether a camera position can be plotted.
// Zero latitude or longitude is treated as "not set" by the data feed.
func ValidCoordinate(lat, lon float64) bool {
	if lat == 0 || lon == 0 {
		return false
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

// Viewport describes the initial map view over a set of markers
type Viewport struct {
	CenterLat float64    `json:"centerLat"`
	CenterLon float64    `json:"centerLon"`
	Zoom      int        `json:"zoom"`
	Bounds    *BoundsBox `json:"bounds,omitempty"` // nil when there are no markers
}

// BoundsBox is a south-west / north-east bounding box in degrees
type BoundsBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// NewViewport builds a viewport centred on (centerLat, centerLon) with the
// bounding box of all valid points. points are (lat, lon) pairs.
func NewViewport(centerLat, centerLon float64, zoom int, points [][2]float64) Viewport {
	vp := Viewport{
		CenterLat: centerLat,
		CenterLon: centerLon,
		Zoom:      zoom,
	}

	rect := s2.EmptyRect()
	for _, p := range points {
		if !ValidCoordinate(p[0], p[1]) {
			continue
		}
		rect = rect.AddPoint(s2.LatLngFromDegrees(p[0], p[1]))
	}
	if rect.IsEmpty() {
		return vp
	}

	lo, hi := rect.Lo(), rect.Hi()
	vp.Bounds = &BoundsBox{
		South: lo.Lat.Degrees(),
		West:  lo.Lng.Degrees(),
		North: hi.Lat.Degrees(),
		East:  hi.Lng.Degrees(),
	}
	return vp
}
