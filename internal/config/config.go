// Package config provides configuration types and loading for townforge.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".townforge"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// Config is the root configuration struct.
// Top-level groups mirror the configuration surface in SPEC_FULL.md §1.3.
type Config struct {
	Rcon    RconConfig    `json:"rcon"`
	Plugin  PluginConfig  `json:"plugin"`
	BlueMap BlueMapConfig `json:"blueMap"`
	Bus     BusConfig     `json:"bus"`
	Store   StoreConfig   `json:"store"`
	World   WorldConfig   `json:"world"`
	Gateway GatewayConfig `json:"gateway"`
}

// RconConfig configures the game-server command channel (C3).
type RconConfig struct {
	Host           string `json:"host" envconfig:"RCON_HOST"`
	Port           int    `json:"port" envconfig:"RCON_PORT"`
	Password       string `json:"password" envconfig:"RCON_PASSWORD"`
	CommandDelayMs int    `json:"commandDelayMs" envconfig:"RCON_COMMAND_DELAY_MS"`
}

// PluginConfig configures the in-process game-server plugin HTTP surface.
type PluginConfig struct {
	BaseURL string `json:"baseUrl" envconfig:"PLUGIN_BASE_URL"`
}

// BlueMapConfig configures the web map renderer link used in deep links.
type BlueMapConfig struct {
	WebURL string `json:"webUrl" envconfig:"BLUEMAP_WEB_URL"`
}

// BusConfig configures the event bus (Kafka topics + Redis queue).
type BusConfig struct {
	KafkaBrokers  string `json:"kafkaBrokers" envconfig:"BUS_KAFKA_BROKERS"`
	ConsumerGroup string `json:"consumerGroup" envconfig:"BUS_CONSUMER_GROUP"`
	RedisURL      string `json:"redisUrl" envconfig:"BUS_REDIS_URL"`
}

// StoreConfig configures the catalogue store connection.
type StoreConfig struct {
	ConnectionString string `json:"connectionString" envconfig:"STORE_CONNECTION_STRING"`
}

// WorldConfig configures world-generation geometry constants.
// Defaults match spec.md §4.4-§4.9 and §6.
type WorldConfig struct {
	VillageSpacing          int `json:"villageSpacing" envconfig:"WORLD_VILLAGE_SPACING"`
	BaseY                   int `json:"baseY" envconfig:"WORLD_BASE_Y"`
	CrossroadsPlazaRadius   int `json:"crossroadsPlazaRadius" envconfig:"WORLD_CROSSROADS_PLAZA_RADIUS"`
	CrossroadsStationSlots  int `json:"crossroadsStationSlots" envconfig:"WORLD_CROSSROADS_STATION_SLOTS"`
	CrossroadsStationRadius int `json:"crossroadsStationRadius" envconfig:"WORLD_CROSSROADS_STATION_RADIUS"`
	VillageStationOffset    int `json:"villageStationOffset" envconfig:"WORLD_VILLAGE_STATION_OFFSET"`
	FenceRadius             int `json:"fenceRadius" envconfig:"WORLD_FENCE_RADIUS"`
	BuildingFootprint       int `json:"buildingFootprint" envconfig:"WORLD_BUILDING_FOOTPRINT"`
	GridColumns             int `json:"gridColumns" envconfig:"WORLD_GRID_COLUMNS"`
	BuildingSpacing         int `json:"buildingSpacing" envconfig:"WORLD_BUILDING_SPACING"`
}

// GatewayConfig configures the query API HTTP listener (C11).
type GatewayConfig struct {
	Host string `json:"host" envconfig:"GATEWAY_HOST"`
	Port int    `json:"port" envconfig:"GATEWAY_PORT"`
}

// DefaultWorldConfig returns the world geometry defaults named in spec.md §6.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		VillageSpacing:          175,
		BaseY:                   -60,
		CrossroadsPlazaRadius:   30,
		CrossroadsStationSlots:  16,
		CrossroadsStationRadius: 35,
		VillageStationOffset:    17,
		FenceRadius:             150,
		BuildingFootprint:       21,
		GridColumns:             10,
		BuildingSpacing:         24,
	}
}

// Default returns a Config with every documented default applied, mirroring
// the way the teacher's scheduler.DefaultConfig() seeds non-zero defaults.
func Default() *Config {
	return &Config{
		Rcon: RconConfig{
			Host:           "localhost",
			Port:           25575,
			CommandDelayMs: 50,
		},
		Bus: BusConfig{
			ConsumerGroup: "townforge",
		},
		World: DefaultWorldConfig(),
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 8085,
		},
	}
}

// ConfigPath returns the path to the config file, honoring the
// TOWNFORGE_CONFIG env override the way the teacher's loader.go honors
// KAFCLAW_CONFIG.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("TOWNFORGE_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load reads the config file if present, then overlays environment
// variables via envconfig, and finally fills any still-zero World fields
// with their documented defaults.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	applyWorldDefaults(&cfg.World)
	if cfg.Rcon.CommandDelayMs <= 0 {
		cfg.Rcon.CommandDelayMs = 50
	}
	if cfg.Rcon.Port <= 0 {
		cfg.Rcon.Port = 25575
	}
	if cfg.Bus.ConsumerGroup == "" {
		cfg.Bus.ConsumerGroup = "townforge"
	}
	if cfg.Gateway.Port <= 0 {
		cfg.Gateway.Port = 8085
	}

	return cfg, nil
}

func applyWorldDefaults(w *WorldConfig) {
	d := DefaultWorldConfig()
	if w.VillageSpacing <= 0 {
		w.VillageSpacing = d.VillageSpacing
	}
	if w.BaseY == 0 {
		w.BaseY = d.BaseY
	}
	if w.CrossroadsPlazaRadius <= 0 {
		w.CrossroadsPlazaRadius = d.CrossroadsPlazaRadius
	}
	if w.CrossroadsStationSlots <= 0 {
		w.CrossroadsStationSlots = d.CrossroadsStationSlots
	}
	if w.CrossroadsStationRadius <= 0 {
		w.CrossroadsStationRadius = d.CrossroadsStationRadius
	}
	if w.VillageStationOffset == 0 {
		w.VillageStationOffset = d.VillageStationOffset
	}
	if w.FenceRadius <= 0 {
		w.FenceRadius = d.FenceRadius
	}
	if w.BuildingFootprint <= 0 {
		w.BuildingFootprint = d.BuildingFootprint
	}
	if w.GridColumns <= 0 {
		w.GridColumns = d.GridColumns
	}
	if w.BuildingSpacing <= 0 {
		w.BuildingSpacing = d.BuildingSpacing
	}
}
