package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Camera represents one webcam feed from the data source
type Camera struct {
	ID        string  `json:"id"`
	Name      string  `json:"camera_name"`
	Region    string  `json:"region,omitempty"`
	URL       string  `json:"url"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Derived from the user location, nil when no location is known
	DistanceKm *float64 `json:"distanceKm,omitempty"`
	DistanceMi *float64 `json:"distanceMi,omitempty"`

	// Unknown feed fields, preserved but ignored
	Extra map[string]json.RawMessage `json:"-"`
}

var knownCameraFields = map[string]bool{
	"id":          true,
	"camera_name": true,
	"region":      true,
	"url":         true,
	"latitude":    true,
	"longitude":   true,
	"distanceKm":  true,
	"distanceMi":  true,
}

// UnmarshalJSON accepts ids and coordinates encoded as either numbers or strings
func (c *Camera) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var cam Camera
	var err error
	if cam.ID, err = scalarString(raw["id"]); err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	if cam.Name, err = scalarString(raw["camera_name"]); err != nil {
		return fmt.Errorf("invalid camera_name: %w", err)
	}
	if cam.Region, err = scalarString(raw["region"]); err != nil {
		return fmt.Errorf("invalid region: %w", err)
	}
	if cam.URL, err = scalarString(raw["url"]); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	cam.Latitude = scalarFloat(raw["latitude"])
	cam.Longitude = scalarFloat(raw["longitude"])

	for k, v := range raw {
		if knownCameraFields[k] {
			continue
		}
		if cam.Extra == nil {
			cam.Extra = make(map[string]json.RawMessage)
		}
		cam.Extra[k] = v
	}

	*c = cam
	return nil
}

// MarshalJSON writes the known fields plus any preserved extras
func (c Camera) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Extra)+8)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["id"] = c.ID
	out["camera_name"] = c.Name
	if c.Region != "" {
		out["region"] = c.Region
	}
	out["url"] = c.URL
	out["latitude"] = c.Latitude
	out["longitude"] = c.Longitude
	if c.DistanceKm != nil {
		out["distanceKm"] = *c.DistanceKm
	}
	if c.DistanceMi != nil {
		out["distanceMi"] = *c.DistanceMi
	}
	return json.Marshal(out)
}

// HasDistance reports whether a user distance has been computed
func (c Camera) HasDistance() bool {
	return c.DistanceKm != nil && c.DistanceMi != nil
}

// scalarString decodes a JSON string or number into its text form.
// Missing and null values decode to "". Other values (objects, arrays,
// booleans) keep their compact JSON text.
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("expected a JSON value, got %s", raw)
	}
	return buf.String(), nil
}

// scalarFloat decodes a JSON number or numeric string; anything else is 0
func scalarFloat(raw json.RawMessage) float64 {
	s, err := scalarString(raw)
	if err != nil || s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// Location is a user or camera position in decimal degrees
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
