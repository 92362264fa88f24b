package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper failed: %v", err)
	}

	if cfg.Port != ":8080" || cfg.BasePath != "/api/v1" {
		t.Errorf("unexpected port/base path %q %q", cfg.Port, cfg.BasePath)
	}
	if cfg.RefreshInterval != 2*time.Second || cfg.RotationPeriod != 10*time.Second || cfg.RotationTick != time.Second {
		t.Errorf("unexpected timer defaults %+v", cfg)
	}
	if cfg.RotationWindow != 4 || cfg.GeoTimeout != 10*time.Second {
		t.Errorf("unexpected rotation/geo defaults %+v", cfg)
	}
	if cfg.HasHome() {
		t.Error("no home location by default")
	}
}

func TestConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.yaml")
	content := []byte("port: 9090\ndata_url: https://example.org/cam.json\nrotation_period: 5s\nhome_lat: 54.6\nhome_lon: -5.9\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRAFFICCAMS_LOG_LEVEL", "debug")

	v := viper.New()
	if err := initViper(v, path); err != nil {
		t.Fatalf("initViper failed: %v", err)
	}
	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper failed: %v", err)
	}

	if cfg.Port != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.Port)
	}
	if cfg.DataURL != "https://example.org/cam.json" || cfg.RotationPeriod != 5*time.Second {
		t.Errorf("config file not applied: %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("env override not applied, got %q", cfg.LogLevel)
	}
	if !cfg.HasHome() {
		t.Error("expected home location")
	}
}

func TestMissingExplicitConfigFileFails(t *testing.T) {
	v := viper.New()
	if err := initViper(v, filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidation(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("rotation_window", 0)
	if _, err := FromViper(v); err == nil {
		t.Error("expected error for zero rotation window")
	}

	v = viper.New()
	SetDefaults(v)
	v.Set("data_url", "")
	if _, err := FromViper(v); err == nil {
		t.Error("expected error for empty data url")
	}
}
