package accessories

import (
	"fmt"

	"homekit-bridge/internal/domain/model"
)

// Kind is the closed set of accessory types the bridge can expose. The
// mapper decides the kind; New is the single dispatch point, so adding a
// kind without a constructor fails loudly instead of at runtime lookup.
type Kind int

const (
	KindNone Kind = iota
	KindLock
	KindThermostat
	KindGarageDoor
	KindWindowCovering
	KindWindowCoveringBasic
	KindMediaPlayer
	KindTemperatureSensor
	KindHumiditySensor
	KindLightSensor
	KindSwitch
	KindOutlet
	KindValve
	KindLight
	KindFan
)

func (k Kind) String() string {
	switch k {
	case KindLock:
		return "Lock"
	case KindThermostat:
		return "Thermostat"
	case KindGarageDoor:
		return "GarageDoorOpener"
	case KindWindowCovering:
		return "WindowCovering"
	case KindWindowCoveringBasic:
		return "WindowCoveringBasic"
	case KindMediaPlayer:
		return "MediaPlayer"
	case KindTemperatureSensor:
		return "TemperatureSensor"
	case KindHumiditySensor:
		return "HumiditySensor"
	case KindLightSensor:
		return "LightSensor"
	case KindSwitch:
		return "Switch"
	case KindOutlet:
		return "Outlet"
	case KindValve:
		return "Valve"
	case KindLight:
		return "Lightbulb"
	case KindFan:
		return "Fan"
	default:
		return "None"
	}
}

var switchKinds = map[string]Kind{
	model.TypeSwitch:    KindSwitch,
	model.TypeOutlet:    KindOutlet,
	model.TypeFaucet:    KindValve,
	model.TypeValve:     KindValve,
	model.TypeSprinkler: KindValve,
	model.TypeShower:    KindValve,
}

// Classify decides which accessory type, if any, represents an entity.
// Rules are evaluated in a fixed order per domain; the first match wins.
// KindNone means the entity is not exposed.
func Classify(state model.EntityState, cfg model.EntityConfig) Kind {
	switch state.Domain() {
	case domainClimate, domainWaterHeater:
		return KindThermostat

	case domainLock:
		return KindLock

	case domainLight:
		return KindLight

	case domainFan:
		return KindFan

	case domainCover:
		class := state.AttrString(attrDeviceClass)
		features := state.SupportedFeatures()
		switch {
		case class == classGarage && features&(coverSupportOpen|coverSupportClose) != 0:
			return KindGarageDoor
		case features&coverSupportSetPosition != 0:
			return KindWindowCovering
		case features&(coverSupportOpen|coverSupportClose) != 0:
			return KindWindowCoveringBasic
		}
		return KindNone

	case domainMediaPlayer:
		if state.AttrString(attrDeviceClass) == classTV {
			// Television surfaces are not bridged.
			return KindNone
		}
		if len(supportedMediaFeatures(state, cfg.FeatureList)) == 0 {
			return KindNone
		}
		return KindMediaPlayer

	case domainSensor:
		class := state.AttrString(attrDeviceClass)
		unit := state.AttrString(attrUnitOfMeasurement)
		switch {
		// Device class is authoritative; the unit is a fallback for
		// sensors that never declare one.
		case class == classTemperature || unit == model.UnitCelsius || unit == model.UnitFahrenheit:
			return KindTemperatureSensor
		case class == classHumidity && unit == "%":
			return KindHumiditySensor
		case class == classIlluminance || unit == "lm" || unit == "lx":
			return KindLightSensor
		}
		return KindNone

	case domainSwitch:
		kind, ok := switchKinds[cfg.Type]
		if !ok {
			return KindSwitch
		}
		return kind

	case "automation", "input_boolean", "remote", domainScene, domainScript:
		return KindSwitch
	}
	return KindNone
}

// New constructs the adapter for a classified entity. The state snapshot
// and per-entity config decide the characteristic set once; later changes
// to supported features are not picked up until the adapter is rebuilt.
func New(kind Kind, state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) (Adapter, error) {
	switch kind {
	case KindLock:
		return newLock(state, aid, cfg, deps), nil
	case KindThermostat:
		return newThermostat(state, aid, cfg, deps), nil
	case KindGarageDoor:
		return newGarageDoor(state, aid, cfg, deps), nil
	case KindWindowCovering:
		return newWindowCovering(state, aid, cfg, deps), nil
	case KindWindowCoveringBasic:
		return newWindowCoveringBasic(state, aid, cfg, deps), nil
	case KindMediaPlayer:
		return newMediaPlayer(state, aid, cfg, deps), nil
	case KindTemperatureSensor, KindHumiditySensor, KindLightSensor:
		return newSensor(kind, state, aid, cfg, deps)
	case KindSwitch, KindOutlet:
		return newSwitch(kind, state, aid, cfg, deps), nil
	case KindValve:
		return newValve(state, aid, cfg, deps), nil
	case KindLight:
		return newLight(state, aid, cfg, deps), nil
	case KindFan:
		return newFan(state, aid, cfg, deps), nil
	default:
		return nil, fmt.Errorf("no accessory type for %s", state.EntityID)
	}
}
