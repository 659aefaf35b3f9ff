package model

import "strings"

// Version is reported as the bridge firmware revision.
const Version = "0.4.0"

// Temperature unit systems as configured on the hub.
const (
	UnitCelsius    = "°C"
	UnitFahrenheit = "°F"
)

// Switch accessory types selectable per entity.
const (
	TypeSwitch    = "switch"
	TypeOutlet    = "outlet"
	TypeFaucet    = "faucet"
	TypeValve     = "valve"
	TypeSprinkler = "sprinkler"
	TypeShower    = "shower"
)

// Media player features selectable per entity.
const (
	FeatureOnOff      = "on_off"
	FeaturePlayPause  = "play_pause"
	FeaturePlayStop   = "play_stop"
	FeatureToggleMute = "toggle_mute"
)

// EntityConfig carries per-entity options from the config file.
type EntityConfig struct {
	Name string `toml:"name"`
	// Type selects the switch accessory variant (switch domain only).
	Type string `toml:"type"`
	// Code is sent with lock/unlock service calls when set.
	Code string `toml:"code"`
	// FeatureList restricts which media player feature switches are exposed.
	FeatureList []string `toml:"feature_list"`
	// ValueFormula rescales a raw sensor state, e.g. "x / 10".
	ValueFormula string `toml:"value_formula"`
}

// Filter decides which entities are bridged. Exclusions win over
// inclusions; an empty filter allows everything.
type Filter struct {
	IncludeDomains  []string `toml:"include_domains"`
	ExcludeDomains  []string `toml:"exclude_domains"`
	IncludeEntities []string `toml:"include_entities"`
	ExcludeEntities []string `toml:"exclude_entities"`
}

// Allows reports whether the entity passes the filter. An explicitly
// included entity always passes; an explicitly excluded one never does.
// Domain lists apply to the remainder.
func (f Filter) Allows(entityID string) bool {
	if contains(f.ExcludeEntities, entityID) {
		return false
	}
	if contains(f.IncludeEntities, entityID) {
		return true
	}
	domain, _, _ := strings.Cut(entityID, ".")
	if contains(f.ExcludeDomains, domain) {
		return false
	}
	if len(f.IncludeDomains) > 0 || len(f.IncludeEntities) > 0 {
		return contains(f.IncludeDomains, domain)
	}
	return true
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

// Config is the bridge configuration file.
type Config struct {
	Name         string `toml:"name"`
	Port         int    `toml:"port"`
	Pin          string `toml:"pin"`
	DataDir      string `toml:"data_dir"`
	SerialNumber string `toml:"serial_number"`
	// TemperatureUnit is the hub's configured unit system, UnitCelsius or
	// UnitFahrenheit.
	TemperatureUnit string `toml:"temperature_unit"`

	HassURL   string `toml:"hass_url"`
	HassToken string `toml:"hass_token"`

	Filter   Filter                  `toml:"filter"`
	Entities map[string]EntityConfig `toml:"entities"`
}

// EntityOptions returns the per-entity config, zero value when unset.
func (c *Config) EntityOptions(entityID string) EntityConfig {
	return c.Entities[entityID]
}
