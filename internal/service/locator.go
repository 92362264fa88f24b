package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jengzang/trafficcams/internal/models"
)

// ErrLocationUnavailable is returned when no position could be acquired
var ErrLocationUnavailable = errors.New("location unavailable")

// LocateOptions mirrors a one-shot position request
type LocateOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration // 0: never reuse a cached fix
}

// DefaultLocateOptions requests a fresh, high-accuracy fix within 10 seconds
var DefaultLocateOptions = LocateOptions{
	HighAccuracy: true,
	Timeout:      10 * time.Second,
	MaximumAge:   0,
}

// Locator acquires the user's current position once
type Locator interface {
	Locate(ctx context.Context, opts LocateOptions) (models.Location, error)
}

// LocatorFunc adapts a function to Locator
type LocatorFunc func(ctx context.Context, opts LocateOptions) (models.Location, error)

func (f LocatorFunc) Locate(ctx context.Context, opts LocateOptions) (models.Location, error) {
	return f(ctx, opts)
}

// StaticLocator always reports the same position: a configured home
// location, CLI flags, or coordinates sent by a browser.
type StaticLocator struct {
	Location models.Location
}

func (l StaticLocator) Locate(ctx context.Context, opts LocateOptions) (models.Location, error) {
	if err := ctx.Err(); err != nil {
		return models.Location{}, err
	}
	if err := ValidateLocation(l.Location); err != nil {
		return models.Location{}, err
	}
	return l.Location, nil
}

// ValidateLocation checks that loc is a finite coordinate on the globe
func ValidateLocation(loc models.Location) error {
	lat, lon := loc.Latitude, loc.Longitude
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("%w: coordinates are not finite", ErrLocationUnavailable)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrLocationUnavailable, lat, lon)
	}
	return nil
}
