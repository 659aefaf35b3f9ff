package accessories

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"homekit-bridge/internal/domain/model"
)

func state(entityID, st string, attrs map[string]any) model.EntityState {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return model.EntityState{EntityID: entityID, State: st, Attributes: attrs}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		state model.EntityState
		cfg   model.EntityConfig
		want  Kind
	}{
		{"climate", state("climate.living", "heat", nil), model.EntityConfig{}, KindThermostat},
		{"water heater", state("water_heater.tank", "on", nil), model.EntityConfig{}, KindThermostat},
		{"lock", state("lock.front", "locked", nil), model.EntityConfig{}, KindLock},

		{"garage cover", state("cover.garage", "closed", map[string]any{
			"device_class": "garage", "supported_features": 3.0,
		}), model.EntityConfig{}, KindGarageDoor},
		{"garage beats set position", state("cover.garage", "closed", map[string]any{
			"device_class": "garage", "supported_features": 7.0,
		}), model.EntityConfig{}, KindGarageDoor},
		{"positionable cover", state("cover.blind", "open", map[string]any{
			"supported_features": 7.0,
		}), model.EntityConfig{}, KindWindowCovering},
		{"open close cover", state("cover.curtain", "open", map[string]any{
			"supported_features": 3.0,
		}), model.EntityConfig{}, KindWindowCoveringBasic},
		{"featureless cover", state("cover.broken", "open", nil), model.EntityConfig{}, KindNone},

		{"media player", state("media_player.speaker", "playing", map[string]any{
			"supported_features": float64(mediaSupportPlay | mediaSupportPause),
		}), model.EntityConfig{}, KindMediaPlayer},
		{"tv excluded", state("media_player.tv", "on", map[string]any{
			"device_class": "tv", "supported_features": float64(mediaSupportPlay),
		}), model.EntityConfig{}, KindNone},
		{"featureless media player", state("media_player.dumb", "on", nil), model.EntityConfig{}, KindNone},

		{"temperature by class", state("sensor.temp", "21.5", map[string]any{
			"device_class": "temperature",
		}), model.EntityConfig{}, KindTemperatureSensor},
		{"temperature by unit", state("sensor.temp", "70.1", map[string]any{
			"unit_of_measurement": "°F",
		}), model.EntityConfig{}, KindTemperatureSensor},
		{"humidity", state("sensor.hum", "45", map[string]any{
			"device_class": "humidity", "unit_of_measurement": "%",
		}), model.EntityConfig{}, KindHumiditySensor},
		{"humidity without unit", state("sensor.hum", "45", map[string]any{
			"device_class": "humidity",
		}), model.EntityConfig{}, KindNone},
		{"light by unit", state("sensor.lux", "120", map[string]any{
			"unit_of_measurement": "lx",
		}), model.EntityConfig{}, KindLightSensor},
		{"plain sensor", state("sensor.power", "230", nil), model.EntityConfig{}, KindNone},

		{"switch default", state("switch.fan", "on", nil), model.EntityConfig{}, KindSwitch},
		{"switch as outlet", state("switch.plug", "on", nil), model.EntityConfig{Type: model.TypeOutlet}, KindOutlet},
		{"switch as sprinkler", state("switch.lawn", "off", nil), model.EntityConfig{Type: model.TypeSprinkler}, KindValve},

		{"automation", state("automation.morning", "on", nil), model.EntityConfig{}, KindSwitch},
		{"input boolean", state("input_boolean.guest", "off", nil), model.EntityConfig{}, KindSwitch},
		{"scene", state("scene.movie", "scening", nil), model.EntityConfig{}, KindSwitch},
		{"script", state("script.alarm", "off", nil), model.EntityConfig{}, KindSwitch},
		{"remote", state("remote.tv", "on", nil), model.EntityConfig{}, KindSwitch},

		{"light", state("light.bed", "on", nil), model.EntityConfig{}, KindLight},
		{"fan", state("fan.ceiling", "on", nil), model.EntityConfig{}, KindFan},

		{"unsupported domain", state("camera.door", "idle", nil), model.EntityConfig{}, KindNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.state, tc.cfg))
		})
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(KindNone, state("camera.door", "idle", nil), 5, model.EntityConfig{}, testDeps(newFakeHub()))
	assert.Error(t, err)
}

func TestNew_SetsIdentity(t *testing.T) {
	hub := newFakeHub()
	adapter, err := New(KindSwitch, state("switch.fan", "on", map[string]any{
		"friendly_name": "Ceiling Fan",
	}), 42, model.EntityConfig{}, testDeps(hub))
	assert.NoError(t, err)
	defer adapter.Stop()

	assert.Equal(t, "switch.fan", adapter.EntityID())
	assert.Equal(t, uint64(42), adapter.Accessory().Id)
	assert.Equal(t, "Ceiling Fan", adapter.Accessory().Info.Name.Value())
}

func TestNew_ConfiguredNameWins(t *testing.T) {
	hub := newFakeHub()
	adapter, err := New(KindSwitch, state("switch.fan", "on", map[string]any{
		"friendly_name": "Ceiling Fan",
	}), 42, model.EntityConfig{Name: "Bedroom Fan"}, testDeps(hub))
	assert.NoError(t, err)
	defer adapter.Stop()

	assert.Equal(t, "Bedroom Fan", adapter.Accessory().Info.Name.Value())
}
