package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Port     string
	DBPath   string
	DataURL  string // camera feed: http(s) URL or local file
	BasePath string // API prefix

	LogLevel  string
	LogFormat string // text or json

	RefreshInterval time.Duration
	RotationPeriod  time.Duration
	RotationTick    time.Duration
	RotationWindow  int
	FetchTimeout    time.Duration
	GeoTimeout      time.Duration

	// Optional fixed location used by StaticLocator
	HomeLat float64
	HomeLon float64

	MapCenterLat float64
	MapCenterLon float64
	MapZoom      int

	RateLimit  int
	RateWindow time.Duration
}

// EnvPrefix is the prefix of environment overrides, e.g. TRAFFICCAMS_PORT
const EnvPrefix = "TRAFFICCAMS"

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", ":8080")
	v.SetDefault("db_path", "./data/trafficcams.db")
	v.SetDefault("data_url", "cam.json")
	v.SetDefault("base_path", "/api/v1")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("refresh_interval", "2s")
	v.SetDefault("rotation_period", "10s")
	v.SetDefault("rotation_tick", "1s")
	v.SetDefault("rotation_window", 4)
	v.SetDefault("fetch_timeout", "15s")
	v.SetDefault("geo_timeout", "10s")
	v.SetDefault("home_lat", 0.0)
	v.SetDefault("home_lon", 0.0)
	v.SetDefault("map_center_lat", 54.607868)
	v.SetDefault("map_center_lon", -5.926437)
	v.SetDefault("map_zoom", 8)
	v.SetDefault("rate_limit", 30)
	v.SetDefault("rate_window", "1m")
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) error {
	return initViper(viper.GetViper(), cfgFile)
}

func initViper(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".trafficcams")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load 加载配置
func Load() (*Config, error) {
	return FromViper(viper.GetViper())
}

// FromViper builds a typed Config from v
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:            v.GetString("port"),
		DBPath:          v.GetString("db_path"),
		DataURL:         v.GetString("data_url"),
		BasePath:        strings.TrimRight(v.GetString("base_path"), "/"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		RefreshInterval: v.GetDuration("refresh_interval"),
		RotationPeriod:  v.GetDuration("rotation_period"),
		RotationTick:    v.GetDuration("rotation_tick"),
		RotationWindow:  v.GetInt("rotation_window"),
		FetchTimeout:    v.GetDuration("fetch_timeout"),
		GeoTimeout:      v.GetDuration("geo_timeout"),
		HomeLat:         v.GetFloat64("home_lat"),
		HomeLon:         v.GetFloat64("home_lon"),
		MapCenterLat:    v.GetFloat64("map_center_lat"),
		MapCenterLon:    v.GetFloat64("map_center_lon"),
		MapZoom:         v.GetInt("map_zoom"),
		RateLimit:       v.GetInt("rate_limit"),
		RateWindow:      v.GetDuration("rate_window"),
	}

	if !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	if cfg.DataURL == "" {
		return nil, fmt.Errorf("data_url must not be empty")
	}
	if cfg.RefreshInterval <= 0 || cfg.RotationPeriod <= 0 || cfg.RotationTick <= 0 {
		return nil, fmt.Errorf("refresh_interval, rotation_period and rotation_tick must be positive")
	}
	if cfg.RotationWindow <= 0 {
		return nil, fmt.Errorf("rotation_window must be positive, got %d", cfg.RotationWindow)
	}
	if cfg.DBPath != ":memory:" {
		cfg.DBPath = filepath.Clean(cfg.DBPath)
	}

	return cfg, nil
}

// HasHome reports whether a fixed home location is configured
func (c *Config) HasHome() bool {
	return c.HomeLat != 0 || c.HomeLon != 0
}
