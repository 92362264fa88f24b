package models

// CameraListResponse is the rendered gallery: the derived list plus counters
type CameraListResponse struct {
	Data       []Camera `json:"data"`
	Count      int      `json:"count"`
	Total      int      `json:"total"`
	NearActive bool     `json:"nearActive"` // cards show distance badges when set
	Status     string   `json:"status"`
}

// CameraDetail is the single-camera view opened from a card, the map, or the CLI
type CameraDetail struct {
	Camera      Camera `json:"camera"`
	Favourite   bool   `json:"favourite"`
	ImageURL    string `json:"imageUrl"`    // cache-busted direct URL
	SnapshotURL string `json:"snapshotUrl"` // local download route
}

// RegionOption is one region checkbox
type RegionOption struct {
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

// StatusResponse reports the gallery status line
type StatusResponse struct {
	Status     string `json:"status"`
	Loaded     bool   `json:"loaded"`
	Cameras    int    `json:"cameras"`
	Visible    int    `json:"visible"`
	Favourites int    `json:"favourites"`
	RotationOn bool   `json:"rotationOn"`
	LoadError  string `json:"loadError,omitempty"`
}

// Status messages shown in the gallery status line
const (
	StatusLoading          = "Loading cameras…"
	StatusLoaded           = "Loaded"
	StatusLoadFailed       = "Error loading cameras"
	StatusLocating         = "Locating…"
	StatusSortedByDistance = "Sorted by distance"
	StatusShowingAll       = "Showing all cameras"
	StatusLocationDenied   = "Location permission denied"
	StatusNoGeolocation    = "Geolocation not supported"
)
