package cli

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/townforge/townforge/internal/bus"
	"github.com/townforge/townforge/internal/catalogue"
	"github.com/townforge/townforge/internal/config"
	"github.com/townforge/townforge/internal/worldgen"
)

// geometryFromConfig builds the shared placement geometry every component
// needs (spec.md §4.4-§4.9): the catalogue for village-center assignment,
// the processor for spawn-proximity scoring, the query API for spawn
// derivation, and the worldgen generators themselves.
func geometryFromConfig(w config.WorldConfig) worldgen.Geometry {
	return worldgen.Geometry{
		VillageSpacing:          w.VillageSpacing,
		BaseY:                   w.BaseY,
		CrossroadsPlazaRadius:   w.CrossroadsPlazaRadius,
		CrossroadsStationSlots:  w.CrossroadsStationSlots,
		CrossroadsStationRadius: w.CrossroadsStationRadius,
		VillageStationOffset:    w.VillageStationOffset,
		FenceRadius:             w.FenceRadius,
		BuildingFootprint:       w.BuildingFootprint,
		GridColumns:             w.GridColumns,
		BuildingSpacing:         w.BuildingSpacing,
	}
}

func openStore(cfg *config.Config) (*catalogue.Store, worldgen.Geometry, error) {
	geo := geometryFromConfig(cfg.World)
	store, err := catalogue.Open(cfg.Store.ConnectionString, geo)
	if err != nil {
		return nil, geo, fmt.Errorf("open catalogue store: %w", err)
	}
	return store, geo, nil
}

func openRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.Bus.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse bus.redisUrl %q: %w", cfg.Bus.RedisURL, err)
	}
	return redis.NewClient(opts), nil
}

func openQueue(cfg *config.Config) (*bus.Queue, *redis.Client, error) {
	client, err := openRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return bus.NewQueue(client, bus.QueueWorldgen), client, nil
}
