package accessories

import (
	"math"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"homekit-bridge/internal/domain/model"
)

const (
	attrFanActive    = "fan_active"
	attrFanDirection = "fan_direction"
	attrFanSwing     = "fan_swing"
	attrFanSpeed     = "fan_speed"
)

// Fan bridges a fan entity onto a fan v2 service. Direction, oscillation
// and speed are added only when the entity advertises the feature.
type Fan struct {
	*baseAccessory
	active    *characteristic.Active
	direction *characteristic.RotationDirection
	swing     *characteristic.SwingMode
	speed     *characteristic.RotationSpeed
}

func newFan(state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) *Fan {
	f := &Fan{
		baseAccessory: newAccessory(state, aid, cfg, deps, accessory.TypeFan),
	}
	fan := service.NewFanV2()
	f.active = fan.Active
	f.active.OnValueRemoteUpdate(f.setActive)

	features := state.SupportedFeatures()
	if features&fanSupportDirection != 0 {
		f.direction = characteristic.NewRotationDirection()
		f.direction.OnValueRemoteUpdate(f.setDirection)
		fan.AddC(f.direction.C)
	}
	if features&fanSupportOscillate != 0 {
		f.swing = characteristic.NewSwingMode()
		f.swing.OnValueRemoteUpdate(f.setSwing)
		fan.AddC(f.swing.C)
	}
	if features&fanSupportSetSpeed != 0 {
		f.speed = characteristic.NewRotationSpeed()
		f.speed.OnValueRemoteUpdate(f.setSpeed)
		fan.AddC(f.speed.C)
	}

	f.AddS(fan.S)
	f.UpdateState(state)
	return f
}

func (f *Fan) setActive(value int) {
	f.deps.Log.Debug().Str("entity", f.entityID).Int("value", value).Msg("controller set fan state")
	f.flags.set(attrFanActive)

	svc := serviceTurnOff
	if value == characteristic.ActiveActive {
		svc = serviceTurnOn
	}
	f.callService(domainFan, svc, f.serviceData(), value)
}

func (f *Fan) setDirection(value int) {
	f.deps.Log.Debug().Str("entity", f.entityID).Int("value", value).Msg("controller set fan direction")
	f.flags.set(attrFanDirection)

	dir := directionForward
	if value == characteristic.RotationDirectionCounterclockwise {
		dir = directionReverse
	}
	data := f.serviceData()
	data[attrDirection] = dir
	f.callService(domainFan, serviceSetDirection, data, dir)
}

func (f *Fan) setSwing(value int) {
	f.deps.Log.Debug().Str("entity", f.entityID).Int("value", value).Msg("controller set fan oscillation")
	f.flags.set(attrFanSwing)

	oscillating := value == characteristic.SwingModeSwingEnabled
	data := f.serviceData()
	data[attrOscillating] = oscillating
	f.callService(domainFan, serviceOscillate, data, oscillating)
}

func (f *Fan) setSpeed(value float64) {
	f.debounced(attrPercentage, func() {
		pct := int(math.Round(value))
		f.deps.Log.Debug().Str("entity", f.entityID).Int("value", pct).Msg("controller set fan speed")
		f.flags.set(attrFanSpeed)
		// The hub turns the fan off at zero percent itself.
		data := f.serviceData()
		data[attrPercentage] = pct
		f.callService(domainFan, serviceSetPercentage, data, pct)
	})
}

func (f *Fan) UpdateState(state model.EntityState) {
	active := characteristic.ActiveInactive
	if state.State == stateOn {
		active = characteristic.ActiveActive
	}
	if !f.flags.consume(attrFanActive) && f.active.Value() != active {
		f.active.SetValue(active)
	}

	if f.direction != nil {
		if dir := state.AttrString(attrDirection); dir != "" {
			value := characteristic.RotationDirectionClockwise
			if dir == directionReverse {
				value = characteristic.RotationDirectionCounterclockwise
			}
			if !f.flags.consume(attrFanDirection) && f.direction.Value() != value {
				f.direction.SetValue(value)
			}
		}
	}

	if f.swing != nil {
		if oscillating, ok := state.Attributes[attrOscillating].(bool); ok {
			value := characteristic.SwingModeSwingDisabled
			if oscillating {
				value = characteristic.SwingModeSwingEnabled
			}
			if !f.flags.consume(attrFanSwing) && f.swing.Value() != value {
				f.swing.SetValue(value)
			}
		}
	}

	if f.speed != nil {
		if pct, ok := state.AttrFloat(attrPercentage); ok {
			if !f.flags.consume(attrFanSpeed) && f.speed.Value() != pct {
				f.speed.SetValue(pct)
			}
		}
	}
}
