package accessories

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"homekit-bridge/internal/domain/model"
)

func TestConvertToFloat(t *testing.T) {
	v, ok := convertToFloat("21.5")
	assert.True(t, ok)
	assert.Equal(t, 21.5, v)

	_, ok = convertToFloat("unavailable")
	assert.False(t, ok)

	_, ok = convertToFloat("")
	assert.False(t, ok)
}

func TestTemperatureToHomeKit(t *testing.T) {
	assert.Equal(t, 21.5, temperatureToHomeKit(21.5, model.UnitCelsius))
	assert.Equal(t, 21.4, temperatureToHomeKit(21.44, model.UnitCelsius))
	assert.Equal(t, 0.0, temperatureToHomeKit(32, model.UnitFahrenheit))
	assert.Equal(t, 22.2, temperatureToHomeKit(72, model.UnitFahrenheit))
	assert.Equal(t, -40.0, temperatureToHomeKit(-40, model.UnitFahrenheit))
}

func TestTemperatureToStates(t *testing.T) {
	assert.Equal(t, 21.5, temperatureToStates(21.6, model.UnitCelsius))
	assert.Equal(t, 22.0, temperatureToStates(21.8, model.UnitCelsius))
	assert.Equal(t, 72.0, temperatureToStates(22.2, model.UnitFahrenheit))
}

func TestRoundHalf(t *testing.T) {
	assert.Equal(t, 21.5, roundHalf(21.4))
	assert.Equal(t, 21.0, roundHalf(21.2))
	assert.Equal(t, 21.5, roundHalf(21.74))
	assert.Equal(t, 22.0, roundHalf(21.75))
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "Media Player", modelName("media_player"))
	assert.Equal(t, "Lock", modelName("lock"))
	assert.Equal(t, "Water Heater", modelName("water_heater"))
}
