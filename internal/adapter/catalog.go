package adapter

import (
	"fmt"

	"github.com/Cyclone1070/beachai/internal/config"
	"github.com/Cyclone1070/beachai/internal/tool"
)

// All builds one adapter per tool from cfg.
func All(cfg config.APIsConfig, opts ...Option) []Adapter {
	return []Adapter{
		NewTideAdapter(cfg, opts...),
		NewWaterTemperatureAdapter(cfg, opts...),
		NewWeatherAdapter(cfg, opts...),
		NewPlacesAdapter(cfg, opts...),
		NewPlaceDetailsAdapter(cfg, opts...),
	}
}

// Register adds the spec of every adapter to reg.
func Register(reg *tool.Registry, adapters ...Adapter) error {
	for _, a := range adapters {
		if err := reg.Register(a.Spec()); err != nil {
			return fmt.Errorf("register adapter: %w", err)
		}
	}
	return nil
}

// NewRegistry returns a registry holding every adapter built from cfg.
func NewRegistry(cfg config.APIsConfig, opts ...Option) (*tool.Registry, error) {
	reg := tool.NewRegistry()
	if err := Register(reg, All(cfg, opts...)...); err != nil {
		return nil, err
	}
	return reg, nil
}
