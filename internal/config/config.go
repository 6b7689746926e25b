package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API      APIConfig
	Orders   OrdersConfig
	Location LocationConfig
	Routing  RoutingConfig
	Database DatabaseConfig
	UI       UIConfig
}

// APIConfig holds the dispatch service endpoint settings.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout time.Duration
}

// OrdersConfig holds refresh settings.
type OrdersConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// LocationConfig holds tracking settings. StaticLat/StaticLng pin the
// position source to a fixed point until a real GPS backend is wired;
// leaving both at 0 disables tracking.
type LocationConfig struct {
	Interval          time.Duration
	MinDistanceMeters float64 `mapstructure:"min_distance_meters"`
	StaticLat         float64 `mapstructure:"static_lat"`
	StaticLng         float64 `mapstructure:"static_lng"`
}

// RoutingConfig holds directions lookup settings.
type RoutingConfig struct {
	MapsAPIKey string `mapstructure:"maps_api_key"`
}

// DatabaseConfig holds the local cache location.
type DatabaseConfig struct {
	Path string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat string `mapstructure:"date_format"`
	Timezone   string
}

// Load reads configuration from file and env. Env var overrides use prefix
// DRIVERMATE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("api.base_url", "http://localhost:3000/api")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("orders.poll_interval", "30s")
	v.SetDefault("location.interval", "10s")
	v.SetDefault("location.min_distance_meters", 10.0)
	v.SetDefault("location.static_lat", 0.0)
	v.SetDefault("location.static_lng", 0.0)
	v.SetDefault("routing.maps_api_key", "")
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "drivermate", "drivermate.db"))
	v.SetDefault("ui.date_format", "02/01 15:04")
	v.SetDefault("ui.timezone", "Local")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("DRIVERMATE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "drivermate"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("DRIVERMATE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.API.BaseURL == "" {
		return Config{}, fmt.Errorf("config: api.base_url required")
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. Used for non-sensitive preferences only; the bearer token lives in
// the credentials file, never here.
func Save(cfg Config) error {
	path := os.Getenv("DRIVERMATE_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "drivermate", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("orders.poll_interval", cfg.Orders.PollInterval.String())
	v.Set("location.interval", cfg.Location.Interval.String())
	v.Set("location.min_distance_meters", cfg.Location.MinDistanceMeters)
	v.Set("location.static_lat", cfg.Location.StaticLat)
	v.Set("location.static_lng", cfg.Location.StaticLng)
	v.Set("routing.maps_api_key", cfg.Routing.MapsAPIKey)
	v.Set("database.path", cfg.Database.Path)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.timezone", cfg.UI.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
