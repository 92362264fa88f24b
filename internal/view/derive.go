// Package view derives the visible camera list from the gallery view state.
package view

import (
	"math"
	"sort"
	"strings"

	"github.com/jengzang/trafficcams/internal/models"
)

// Derive returns the cameras that pass the current filters, in display order.
//
// Region, text and favourite predicates keep catalog order. When proximity is
// active the survivors are stable-sorted by distance (unknown distances last)
// and, if a radius is set, cameras beyond it or without a distance are dropped.
// The inputs are never modified.
func Derive(state models.ViewState, cameras []models.Camera, favourites models.FavouriteSet) []models.Camera {
	regions := state.RegionSet()
	query := strings.ToLower(state.Query)

	list := make([]models.Camera, 0, len(cameras))
	for _, cam := range cameras {
		if len(regions) > 0 {
			if _, ok := regions[cam.Region]; !ok {
				continue
			}
		}
		if query != "" && !matchesQuery(cam, query) {
			continue
		}
		if state.FavouritesOnly && !favourites.Has(cam.ID) {
			continue
		}
		list = append(list, cam)
	}

	if !state.ProximityActive() {
		return list
	}

	sort.SliceStable(list, func(i, j int) bool {
		return distanceKm(list[i]) < distanceKm(list[j])
	})

	if state.RadiusMi == nil {
		return list
	}
	radius := *state.RadiusMi
	within := list[:0]
	for _, cam := range list {
		if cam.DistanceMi != nil && *cam.DistanceMi <= radius {
			within = append(within, cam)
		}
	}
	return within
}

func matchesQuery(cam models.Camera, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(cam.Name), lowerQuery) ||
		strings.Contains(strings.ToLower(cam.Region), lowerQuery)
}

func distanceKm(cam models.Camera) float64 {
	if cam.DistanceKm == nil {
		return math.Inf(1)
	}
	return *cam.DistanceKm
}
