package models

import "sort"

// ViewState holds the current gallery filter and sort criteria
type ViewState struct {
	Query          string    `json:"query"`         // case-insensitive substring on name or region
	ActiveRegions  []string  `json:"activeRegions"` // empty means all regions
	FavouritesOnly bool      `json:"favouritesOnly"`
	NearActive     bool      `json:"nearActive"`
	RadiusMi       *float64  `json:"radiusMi"`     // upper bound in miles, nil for none
	UserLocation   *Location `json:"userLocation"` // last known fix, kept when proximity is switched off
}

// ProximityActive reports whether distance sort/filter applies
func (s ViewState) ProximityActive() bool {
	return s.NearActive && s.UserLocation != nil
}

// RegionSet returns the active regions as a set
func (s ViewState) RegionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.ActiveRegions))
	for _, r := range s.ActiveRegions {
		set[r] = struct{}{}
	}
	return set
}

// Clone returns a deep copy safe to use outside a lock
func (s ViewState) Clone() ViewState {
	out := s
	if s.ActiveRegions != nil {
		out.ActiveRegions = append([]string(nil), s.ActiveRegions...)
	}
	if s.RadiusMi != nil {
		r := *s.RadiusMi
		out.RadiusMi = &r
	}
	if s.UserLocation != nil {
		loc := *s.UserLocation
		out.UserLocation = &loc
	}
	return out
}

// FavouriteSet is an unordered set of camera IDs
type FavouriteSet map[string]struct{}

// NewFavouriteSet builds a set from a list of IDs
func NewFavouriteSet(ids ...string) FavouriteSet {
	set := make(FavouriteSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether id is a favourite
func (f FavouriteSet) Has(id string) bool {
	_, ok := f[id]
	return ok
}

// Toggle adds id if absent and removes it if present.
// It returns true when id is a favourite afterwards.
func (f FavouriteSet) Toggle(id string) bool {
	if f.Has(id) {
		delete(f, id)
		return false
	}
	f[id] = struct{}{}
	return true
}

// IDs returns the members in sorted order
func (f FavouriteSet) IDs() []string {
	ids := make([]string, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
