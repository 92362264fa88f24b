// Package metrics exposes gallery metrics to Prometheus.
package metrics

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jengzang/trafficcams/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsSource reports the current gallery status
type StatsSource interface {
	Status() models.StatusResponse
}

// Metrics owns a private registry with gallery counters
type Metrics struct {
	Registry *prometheus.Registry

	refreshes      *prometheus.CounterVec
	snapshots      *prometheus.CounterVec
	catalogLoads   *prometheus.CounterVec
	deriveDuration prometheus.Histogram
}

// New creates and registers the gallery counters
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trafficcams_image_refresh_total",
			Help: "Image refresh attempts by result.",
		}, []string{"result"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trafficcams_snapshot_total",
			Help: "Snapshot downloads by result (ok or fallback).",
		}, []string{"result"}),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trafficcams_catalog_load_total",
			Help: "Catalog loads by result.",
		}, []string{"result"}),
		deriveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trafficcams_derive_duration_seconds",
			Help:    "Time spent deriving the filtered camera list.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
	m.Registry.MustRegister(m.refreshes, m.snapshots, m.catalogLoads, m.deriveDuration)
	return m
}

// RegisterGallery adds gauges read from src at scrape time
func (m *Metrics) RegisterGallery(src StatsSource) {
	m.Registry.MustRegister(&GalleryCollector{Source: src})
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	})
}

func result(err error, failed string) string {
	if err != nil {
		return failed
	}
	return "ok"
}

// ObserveRefresh counts one image refresh attempt
func (m *Metrics) ObserveRefresh(cameraID string, err error) {
	m.refreshes.WithLabelValues(result(err, "error")).Inc()
}

// ObserveSnapshot counts one snapshot, fallback when the direct URL was used
func (m *Metrics) ObserveSnapshot(err error) {
	m.snapshots.WithLabelValues(result(err, "fallback")).Inc()
}

// ObserveCatalogLoad counts one catalog load
func (m *Metrics) ObserveCatalogLoad(err error) {
	m.catalogLoads.WithLabelValues(result(err, "error")).Inc()
}

// ObserveDerive records one filter pipeline run
func (m *Metrics) ObserveDerive(d time.Duration) {
	m.deriveDuration.Observe(d.Seconds())
}

var (
	camerasDesc = prometheus.NewDesc(
		"trafficcams_cameras_total", "Cameras in the catalog.", nil, nil,
	)
	visibleDesc = prometheus.NewDesc(
		"trafficcams_cameras_visible", "Cameras passing the current filters.", nil, nil,
	)
	favouritesDesc = prometheus.NewDesc(
		"trafficcams_favourites_total", "Favourite cameras.", nil, nil,
	)
	rotationDesc = prometheus.NewDesc(
		"trafficcams_rotation_running", "1 when the rotating view is running.", nil, nil,
	)
	loadedDesc = prometheus.NewDesc(
		"trafficcams_catalog_loaded", "1 when the last catalog load succeeded.", nil, nil,
	)
)

// GalleryCollector reports gallery gauges at scrape time
type GalleryCollector struct {
	Source StatsSource
	Mutex  sync.Mutex
}

func (c *GalleryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- camerasDesc
	ch <- visibleDesc
	ch <- favouritesDesc
	ch <- rotationDesc
	ch <- loadedDesc
}

func (c *GalleryCollector) Collect(ch chan<- prometheus.Metric) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()

	st := c.Source.Status()
	ch <- prometheus.MustNewConstMetric(camerasDesc, prometheus.GaugeValue, float64(st.Cameras))
	ch <- prometheus.MustNewConstMetric(visibleDesc, prometheus.GaugeValue, float64(st.Visible))
	ch <- prometheus.MustNewConstMetric(favouritesDesc, prometheus.GaugeValue, float64(st.Favourites))
	ch <- prometheus.MustNewConstMetric(rotationDesc, prometheus.GaugeValue, boolGauge(st.RotationOn))
	ch <- prometheus.MustNewConstMetric(loadedDesc, prometheus.GaugeValue, boolGauge(st.Loaded))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
