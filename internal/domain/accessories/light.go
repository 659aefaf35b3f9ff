package accessories

import (
	"math"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"homekit-bridge/internal/domain/model"
)

const attrLightState = "light_state"

// Light bridges a light entity as a lightbulb. Brightness, color
// temperature and color characteristics are added only when the entity
// advertises the feature; continuous-value writes are debounced.
type Light struct {
	*baseAccessory
	on         *characteristic.On
	brightness *characteristic.Brightness
	colorTemp  *characteristic.ColorTemperature
	hue        *characteristic.Hue
	saturation *characteristic.Saturation
}

func newLight(state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) *Light {
	l := &Light{
		baseAccessory: newAccessory(state, aid, cfg, deps, accessory.TypeLightbulb),
	}
	bulb := service.NewLightbulb()
	l.on = bulb.On
	l.on.OnValueRemoteUpdate(l.setOn)

	features := state.SupportedFeatures()
	if features&lightSupportBrightness != 0 {
		l.brightness = characteristic.NewBrightness()
		l.brightness.OnValueRemoteUpdate(l.setBrightness)
		bulb.AddC(l.brightness.C)
	}
	// A bulb renders one color surface; full color wins over temperature.
	switch {
	case features&lightSupportColor != 0:
		l.hue = characteristic.NewHue()
		l.saturation = characteristic.NewSaturation()
		l.hue.OnValueRemoteUpdate(l.setColor)
		l.saturation.OnValueRemoteUpdate(l.setColor)
		bulb.AddC(l.hue.C)
		bulb.AddC(l.saturation.C)
	case features&lightSupportColorTemp != 0:
		l.colorTemp = characteristic.NewColorTemperature()
		if min, ok := state.AttrInt(attrMinMireds); ok {
			l.colorTemp.SetMinValue(min)
		}
		if max, ok := state.AttrInt(attrMaxMireds); ok {
			l.colorTemp.SetMaxValue(max)
		}
		l.colorTemp.OnValueRemoteUpdate(l.setColorTemp)
		bulb.AddC(l.colorTemp.C)
	}

	l.AddS(bulb.S)
	l.UpdateState(state)
	return l
}

func (l *Light) setOn(value bool) {
	l.deps.Log.Debug().Str("entity", l.entityID).Bool("value", value).Msg("controller set light state")
	l.flags.set(attrLightState)

	svc := serviceTurnOff
	if value {
		svc = serviceTurnOn
	}
	l.callService(domainLight, svc, l.serviceData(), value)
}

func (l *Light) setBrightness(value int) {
	l.debounced(attrBrightness, func() {
		l.deps.Log.Debug().Str("entity", l.entityID).Int("value", value).Msg("controller set brightness")
		l.flags.set(attrBrightness)

		// The controller expresses "off" as zero brightness.
		if value == 0 {
			l.flags.set(attrLightState)
			l.callService(domainLight, serviceTurnOff, l.serviceData(), value)
			return
		}
		data := l.serviceData()
		data[attrBrightnessPct] = value
		l.callService(domainLight, serviceTurnOn, data, value)
	})
}

func (l *Light) setColorTemp(value int) {
	l.debounced(attrColorTemp, func() {
		l.deps.Log.Debug().Str("entity", l.entityID).Int("value", value).Msg("controller set color temperature")
		l.flags.set(attrColorTemp)
		data := l.serviceData()
		data[attrColorTemp] = value
		l.callService(domainLight, serviceTurnOn, data, value)
	})
}

// setColor handles both hue and saturation writes; the two arrive as
// separate characteristic updates but address one hub attribute, so the
// debounced call reads both current values.
func (l *Light) setColor(float64) {
	l.debounced(attrHSColor, func() {
		hue := l.hue.Value()
		sat := l.saturation.Value()
		l.deps.Log.Debug().Str("entity", l.entityID).
			Float64("hue", hue).Float64("saturation", sat).Msg("controller set color")
		l.flags.set(attrHSColor)
		color := []float64{hue, sat}
		data := l.serviceData()
		data[attrHSColor] = color
		l.callService(domainLight, serviceTurnOn, data, color)
	})
}

func (l *Light) UpdateState(state model.EntityState) {
	on := state.State == stateOn
	if !l.flags.consume(attrLightState) && l.on.Value() != on {
		l.on.SetValue(on)
	}

	if l.brightness != nil {
		if b, ok := state.AttrFloat(attrBrightness); ok {
			pct := int(math.Round(b / 255 * 100))
			if pct == 0 && on {
				// Zero brightness means off to the controller; a lit bulb
				// reports at least the dimmest visible step.
				pct = 1
			}
			if !l.flags.consume(attrBrightness) && l.brightness.Value() != pct {
				l.brightness.SetValue(pct)
			}
		}
	}

	if l.colorTemp != nil {
		if ct, ok := state.AttrInt(attrColorTemp); ok {
			if !l.flags.consume(attrColorTemp) && l.colorTemp.Value() != ct {
				l.colorTemp.SetValue(ct)
			}
		}
	}

	if l.hue != nil {
		if hs := state.AttrFloats(attrHSColor); len(hs) >= 2 && !l.flags.consume(attrHSColor) {
			if l.hue.Value() != hs[0] {
				l.hue.SetValue(hs[0])
			}
			if l.saturation.Value() != hs[1] {
				l.saturation.SetValue(hs[1])
			}
		}
	}
}
