package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/jengzang/trafficcams/internal/client"
	"github.com/jengzang/trafficcams/internal/config"
	"github.com/jengzang/trafficcams/internal/database"
	"github.com/jengzang/trafficcams/internal/logging"
	"github.com/jengzang/trafficcams/internal/metrics"
	"github.com/jengzang/trafficcams/internal/repository"
	"github.com/jengzang/trafficcams/internal/service"
)

// app wires config, storage and the gallery service for one command
type app struct {
	cfg     *config.Config
	db      *sql.DB
	metrics *metrics.Metrics
	svc     *service.GalleryService
	logger  *slog.Logger
}

func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(logOut, cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	m := metrics.New()
	fetcher := client.New(client.ClientConfig{Timeout: cfg.FetchTimeout})
	svc := service.NewGalleryService(repository.NewFavouritesRepository(db), fetcher, m, service.GalleryOptions{
		DataURL:         cfg.DataURL,
		BasePath:        cfg.BasePath,
		RefreshInterval: cfg.RefreshInterval,
		RotationWindow:  cfg.RotationWindow,
		RotationPeriod:  cfg.RotationPeriod,
		RotationTick:    cfg.RotationTick,
		GeoTimeout:      cfg.GeoTimeout,
		MapCenterLat:    cfg.MapCenterLat,
		MapCenterLon:    cfg.MapCenterLon,
		MapZoom:         cfg.MapZoom,
	})

	return &app{cfg: cfg, db: db, metrics: m, svc: svc, logger: logger}, nil
}

// loadedApp is newApp plus a catalog load; a failed load is an error here
func loadedApp(ctx context.Context, logOut io.Writer) (*app, error) {
	a, err := newApp(logOut)
	if err != nil {
		return nil, err
	}
	if err := a.svc.LoadCatalog(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	a.svc.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}
