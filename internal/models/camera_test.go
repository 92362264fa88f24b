package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestCameraUnmarshalMixedTypes(t *testing.T) {
	data := []byte(`[
		{"id": 1, "camera_name": "Main St", "region": "North", "url": "http://img/1.jpg", "latitude": 54.6, "longitude": -5.9, "owner": "DfI"},
		{"id": "cam-2", "camera_name": "Elm Ave", "region": null, "url": "http://img/2.jpg", "latitude": "54.7", "longitude": "-5.8"},
		{"id": 3, "camera_name": "No Coords", "url": "http://img/3.jpg"}
	]`)

	var cams []Camera
	if err := json.Unmarshal(data, &cams); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(cams) != 3 {
		t.Fatalf("expected 3 cameras, got %d", len(cams))
	}

	if cams[0].ID != "1" {
		t.Errorf("expected numeric id to become \"1\", got %q", cams[0].ID)
	}
	if cams[0].Region != "North" || cams[0].Latitude != 54.6 || cams[0].Longitude != -5.9 {
		t.Errorf("unexpected first camera %+v", cams[0])
	}
	if string(cams[0].Extra["owner"]) != `"DfI"` {
		t.Errorf("expected extra field to be preserved, got %v", cams[0].Extra)
	}

	if cams[1].ID != "cam-2" || cams[1].Region != "" {
		t.Errorf("unexpected second camera %+v", cams[1])
	}
	if cams[1].Latitude != 54.7 || cams[1].Longitude != -5.8 {
		t.Errorf("expected string coordinates to parse, got %v,%v", cams[1].Latitude, cams[1].Longitude)
	}
	if cams[1].Extra != nil {
		t.Errorf("expected no extras, got %v", cams[1].Extra)
	}

	if cams[2].Latitude != 0 || cams[2].Longitude != 0 {
		t.Errorf("expected missing coordinates to be zero, got %v,%v", cams[2].Latitude, cams[2].Longitude)
	}
	if cams[0].HasDistance() {
		t.Error("freshly loaded camera should have no distance")
	}
}

func TestCameraUnmarshalNonScalarFields(t *testing.T) {
	var cam Camera
	err := json.Unmarshal([]byte(`{"id": {"nested": true}, "camera_name": "x", "region": ["a", "b"], "url": true}`), &cam)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if cam.ID != `{"nested":true}` || cam.Region != `["a","b"]` || cam.URL != "true" {
		t.Errorf("expected raw text for non-scalar fields, got %+v", cam)
	}
}

func TestCameraUnmarshalRejectsNonObject(t *testing.T) {
	var cam Camera
	if err := json.Unmarshal([]byte(`5`), &cam); err == nil {
		t.Fatal("expected error for non-object camera")
	}
}

func TestCameraMarshalKeepsExtras(t *testing.T) {
	km, mi := 1.5, 0.93
	cam := Camera{
		ID:         "7",
		Name:       "Bridge",
		URL:        "http://img/7.jpg",
		Latitude:   54.1,
		Longitude:  -6.2,
		DistanceKm: &km,
		DistanceMi: &mi,
		Extra:      map[string]json.RawMessage{"owner": json.RawMessage(`"DfI"`)},
	}

	out, err := json.Marshal(cam)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	want := map[string]interface{}{
		"id":          "7",
		"camera_name": "Bridge",
		"url":         "http://img/7.jpg",
		"latitude":    54.1,
		"longitude":   -6.2,
		"distanceKm":  1.5,
		"distanceMi":  0.93,
		"owner":       "DfI",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("marshal output mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestFavouriteSetToggle(t *testing.T) {
	set := NewFavouriteSet("a")
	if set.Toggle("b") != true || !set.Has("b") {
		t.Error("expected b to be added")
	}
	if set.Toggle("a") != false || set.Has("a") {
		t.Error("expected a to be removed")
	}
	if !reflect.DeepEqual(set.IDs(), []string{"b"}) {
		t.Errorf("unexpected ids %v", set.IDs())
	}
}

func TestViewStateCloneIsDeep(t *testing.T) {
	r := 5.0
	s := ViewState{
		ActiveRegions: []string{"North"},
		RadiusMi:      &r,
		UserLocation:  &Location{Latitude: 1, Longitude: 2},
	}
	c := s.Clone()
	c.ActiveRegions[0] = "South"
	*c.RadiusMi = 10
	c.UserLocation.Latitude = 9

	if s.ActiveRegions[0] != "North" || *s.RadiusMi != 5 || s.UserLocation.Latitude != 1 {
		t.Errorf("clone shares memory with original: %+v", s)
	}
}

func TestProximityActive(t *testing.T) {
	if (ViewState{NearActive: true}).ProximityActive() {
		t.Error("proximity must need a location")
	}
	if (ViewState{UserLocation: &Location{}}).ProximityActive() {
		t.Error("proximity must need the flag")
	}
	if !(ViewState{NearActive: true, UserLocation: &Location{}}).ProximityActive() {
		t.Error("expected proximity active")
	}
}
