package mapview

import (
	"encoding/json"
	"io"
	"os"
)

const (
	featureCollectionType = "FeatureCollection"
	featureType           = "Feature"
	geometryPointType     = "Point"
)

// FeatureCollection is a GeoJSON feature collection
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one GeoJSON marker
type Feature struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id,omitempty"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// Geometry holds [lon, lat] for points
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// WriteFeatureCollection writes fc as GeoJSON to path
func WriteFeatureCollection(path string, fc FeatureCollection) error {
	if fc.Type == "" {
		fc.Type = featureCollectionType
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// EncodeFeatureCollection writes fc as indented GeoJSON to w
func EncodeFeatureCollection(w io.Writer, fc FeatureCollection) error {
	if fc.Type == "" {
		fc.Type = featureCollectionType
	}
	if fc.Features == nil {
		fc.Features = []Feature{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}
