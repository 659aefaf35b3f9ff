package accessories

import (
	"fmt"
	"sort"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"homekit-bridge/internal/domain/model"
)

// Default temperature ranges in Celsius when the entity declares none.
const (
	defaultMinTemp = 7.0
	defaultMaxTemp = 35.0

	defaultMinTempWaterHeater = 40.0
	defaultMaxTempWaterHeater = 60.0
)

// hvacPairs maps hub HVAC modes to protocol heating/cooling states, in
// evaluation order. Two hub modes can collapse onto one protocol value;
// ambiguity is resolved at construction by dropping the less specific hub
// mode (heat_cool loses to auto, fan_only loses to cool), so the reverse
// mapping is deterministic.
var hvacPairs = []struct {
	hass string
	hk   int
}{
	{hvacOff, 0},
	{hvacHeat, 1},
	{hvacCool, 2},
	{hvacAuto, 3},
	{hvacHeatCool, 3},
	{hvacFanOnly, 2},
}

var hvacToHomeKit = map[string]int{
	hvacOff:      0,
	hvacHeat:     1,
	hvacCool:     2,
	hvacAuto:     3,
	hvacHeatCool: 3,
	hvacFanOnly:  2,
}

var actionToHomeKit = map[string]int{
	actionOff:     0,
	actionIdle:    0,
	actionHeating: 1,
	actionCooling: 2,
}

var unitToHomeKit = map[string]int{
	model.UnitCelsius:    0,
	model.UnitFahrenheit: 1,
}

// Suppression-flag attributes.
const (
	attrFlagMode       = "hvac_mode"
	attrFlagTargetTemp = "target_temperature"
	attrFlagTempHigh   = "target_temp_high"
	attrFlagTempLow    = "target_temp_low"
)

// Thermostat bridges a climate or water_heater entity onto a thermostat
// service. The supported feature bits and mode list are read once at
// construction; a restart is needed to pick up changes.
type Thermostat struct {
	*baseAccessory
	th *service.Thermostat

	// Threshold characteristics exist only when the entity supports a
	// target temperature range.
	coolingThreshold *characteristic.CoolingThresholdTemperature
	heatingThreshold *characteristic.HeatingThresholdTemperature

	// homekitToHass picks the hub mode emitted for each protocol value.
	homekitToHass map[int]string

	domain      string
	waterHeater bool
	unit        string
}

func newThermostat(state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) *Thermostat {
	t := &Thermostat{
		baseAccessory: newAccessory(state, aid, cfg, deps, accessory.TypeThermostat),
		th:            service.NewThermostat(),
		domain:        state.Domain(),
		waterHeater:   state.Domain() == domainWaterHeater,
		unit:          deps.Unit,
	}

	minTemp, maxTemp := t.temperatureRange(state)
	step := 0.5
	if s, ok := state.AttrFloat(attrTargetTempStep); ok && s > 0 {
		step = s
	}

	t.homekitToHass = t.buildModeTable(state)
	validModes := make([]int, 0, len(t.homekitToHass))
	for hk := range t.homekitToHass {
		validModes = append(validModes, hk)
	}
	sort.Ints(validModes)
	t.th.TargetHeatingCoolingState.ValidVals = validModes
	t.th.TargetHeatingCoolingState.OnValueRemoteUpdate(t.setMode)

	t.th.TargetTemperature.SetMinValue(minTemp)
	t.th.TargetTemperature.SetMaxValue(maxTemp)
	t.th.TargetTemperature.SetStepValue(step)
	t.th.TargetTemperature.OnValueRemoteUpdate(t.setTargetTemperature)

	if !t.waterHeater && state.SupportedFeatures()&climateSupportTargetTempRange != 0 {
		t.coolingThreshold = characteristic.NewCoolingThresholdTemperature()
		t.coolingThreshold.SetMinValue(minTemp)
		t.coolingThreshold.SetMaxValue(maxTemp)
		t.coolingThreshold.SetStepValue(step)
		t.coolingThreshold.OnValueRemoteUpdate(t.setCoolingThreshold)
		t.th.AddC(t.coolingThreshold.C)

		t.heatingThreshold = characteristic.NewHeatingThresholdTemperature()
		t.heatingThreshold.SetMinValue(minTemp)
		t.heatingThreshold.SetMaxValue(maxTemp)
		t.heatingThreshold.SetStepValue(step)
		t.heatingThreshold.OnValueRemoteUpdate(t.setHeatingThreshold)
		t.th.AddC(t.heatingThreshold.C)
	}

	t.AddS(t.th.S)
	t.UpdateState(state)
	return t
}

// buildModeTable derives the protocol→hub mode table from the entity's
// mode list. Preference when two hub modes share a protocol value: auto
// over heat_cool, cool over fan_only.
func (t *Thermostat) buildModeTable(state model.EntityState) map[int]string {
	if t.waterHeater {
		return map[int]string{1: hvacHeat}
	}
	modes := state.AttrStrings(attrHVACModes)
	if len(modes) == 0 {
		t.deps.Log.Error().Str("entity", t.entityID).
			Msg("HVAC modes not available yet, assuming full mode set")
		modes = []string{hvacHeat, hvacCool, hvacHeatCool, hvacOff}
	}
	has := func(mode string) bool {
		for _, m := range modes {
			if m == mode {
				return true
			}
		}
		return false
	}
	table := make(map[int]string)
	for _, pair := range hvacPairs {
		if !has(pair.hass) {
			continue
		}
		if pair.hass == hvacHeatCool && has(hvacAuto) {
			continue
		}
		if pair.hass == hvacFanOnly && has(hvacCool) {
			continue
		}
		table[pair.hk] = pair.hass
	}
	return table
}

func (t *Thermostat) temperatureRange(state model.EntityState) (float64, float64) {
	minDefault, maxDefault := defaultMinTemp, defaultMaxTemp
	if t.waterHeater {
		minDefault, maxDefault = defaultMinTempWaterHeater, defaultMaxTempWaterHeater
	}
	minTemp := minDefault
	if v, ok := state.AttrFloat(attrMinTemp); ok {
		minTemp = temperatureToHomeKit(v, t.unit)
	}
	maxTemp := maxDefault
	if v, ok := state.AttrFloat(attrMaxTemp); ok {
		maxTemp = temperatureToHomeKit(v, t.unit)
	}
	return roundHalf(minTemp), roundHalf(maxTemp)
}

func (t *Thermostat) setMode(value int) {
	hass, ok := t.homekitToHass[value]
	if !ok {
		return
	}
	t.deps.Log.Debug().Str("entity", t.entityID).Int("value", value).Msg("controller set heat-cool mode")
	t.flags.set(attrFlagMode)
	if t.waterHeater {
		// Heat is the only mode; nothing to tell the hub.
		return
	}
	data := t.serviceData()
	data[attrHVACMode] = hass
	t.callService(domainClimate, serviceSetHVACMode, data, hass)
}

func (t *Thermostat) setTargetTemperature(value float64) {
	t.debounced(attrFlagTargetTemp, func() {
		t.flags.set(attrFlagTargetTemp)
		temp := temperatureToStates(value, t.unit)
		data := t.serviceData()
		data[attrTemperature] = temp
		t.callService(t.domain, serviceSetTemperature, data, fmt.Sprintf("%.1f%s", temp, t.unit))
	})
}

// setCoolingThreshold re-sends the heating bound alongside the new cooling
// bound: the hub's set_temperature requires both halves of the range.
func (t *Thermostat) setCoolingThreshold(value float64) {
	t.debounced(attrFlagTempHigh, func() {
		t.flags.set(attrFlagTempHigh)
		low := t.heatingThreshold.Value()
		data := t.serviceData()
		data[attrTargetTempHigh] = temperatureToStates(value, t.unit)
		data[attrTargetTempLow] = temperatureToStates(low, t.unit)
		t.callService(domainClimate, serviceSetTemperature, data,
			fmt.Sprintf("cooling threshold %.1f", value))
	})
}

func (t *Thermostat) setHeatingThreshold(value float64) {
	t.debounced(attrFlagTempLow, func() {
		t.flags.set(attrFlagTempLow)
		high := t.coolingThreshold.Value()
		data := t.serviceData()
		data[attrTargetTempHigh] = temperatureToStates(high, t.unit)
		data[attrTargetTempLow] = temperatureToStates(value, t.unit)
		t.callService(domainClimate, serviceSetTemperature, data,
			fmt.Sprintf("heating threshold %.1f", value))
	})
}

func (t *Thermostat) UpdateState(state model.EntityState) {
	if t.waterHeater {
		t.updateWaterHeater(state)
		return
	}

	if v, ok := state.AttrFloat(attrCurrentTemp); ok {
		hk := temperatureToHomeKit(v, t.unit)
		if t.th.CurrentTemperature.Value() != hk {
			t.th.CurrentTemperature.SetValue(hk)
		}
	}

	if v, ok := state.AttrFloat(attrTemperature); ok {
		hk := temperatureToHomeKit(v, t.unit)
		if !t.flags.consume(attrFlagTargetTemp) && t.th.TargetTemperature.Value() != hk {
			t.th.TargetTemperature.SetValue(hk)
		}
	}

	if t.coolingThreshold != nil {
		if v, ok := state.AttrFloat(attrTargetTempHigh); ok {
			hk := temperatureToHomeKit(v, t.unit)
			if !t.flags.consume(attrFlagTempHigh) && t.coolingThreshold.Value() != hk {
				t.coolingThreshold.SetValue(hk)
			}
		}
	}
	if t.heatingThreshold != nil {
		if v, ok := state.AttrFloat(attrTargetTempLow); ok {
			hk := temperatureToHomeKit(v, t.unit)
			if !t.flags.consume(attrFlagTempLow) && t.heatingThreshold.Value() != hk {
				t.heatingThreshold.SetValue(hk)
			}
		}
	}

	if hk, ok := unitToHomeKit[t.unit]; ok {
		if t.th.TemperatureDisplayUnits.Value() != hk {
			t.th.TemperatureDisplayUnits.SetValue(hk)
		}
	}

	if hk, ok := hvacToHomeKit[state.State]; ok {
		if !t.flags.consume(attrFlagMode) && t.th.TargetHeatingCoolingState.Value() != hk {
			t.th.TargetHeatingCoolingState.SetValue(hk)
		}
	}

	if hk, ok := actionToHomeKit[state.AttrString(attrHVACAction)]; ok {
		if t.th.CurrentHeatingCoolingState.Value() != hk {
			t.th.CurrentHeatingCoolingState.SetValue(hk)
		}
	}
}

func (t *Thermostat) updateWaterHeater(state model.EntityState) {
	if v, ok := state.AttrFloat(attrTemperature); ok {
		hk := temperatureToHomeKit(v, t.unit)
		if t.th.CurrentTemperature.Value() != hk {
			t.th.CurrentTemperature.SetValue(hk)
		}
		if !t.flags.consume(attrFlagTargetTemp) && t.th.TargetTemperature.Value() != hk {
			t.th.TargetTemperature.SetValue(hk)
		}
	}

	if hk, ok := unitToHomeKit[t.unit]; ok {
		if t.th.TemperatureDisplayUnits.Value() != hk {
			t.th.TemperatureDisplayUnits.SetValue(hk)
		}
	}

	// Heat is the only operation mode a water heater reports.
	if !t.flags.consume(attrFlagMode) && t.th.TargetHeatingCoolingState.Value() != 1 {
		t.th.TargetHeatingCoolingState.SetValue(1)
	}
	if t.th.CurrentHeatingCoolingState.Value() != 1 {
		t.th.CurrentHeatingCoolingState.SetValue(1)
	}
}
