package accessories

import (
	"time"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"homekit-bridge/internal/domain/model"
)

const attrSwitchState = "switch_state"

// activateResetDelay snaps an activate-only switch back to off after the
// controller triggered it.
const activateResetDelay = time.Second

// valveTypes maps the configured switch type to accessory type and the
// protocol's valve type value.
var valveTypes = map[string]struct {
	accessoryType byte
	valveType     int
}{
	model.TypeFaucet:    {accessory.TypeFaucet, 3},
	model.TypeShower:    {accessory.TypeShowerSystem, 2},
	model.TypeSprinkler: {accessory.TypeSprinkler, 1},
	model.TypeValve:     {accessory.TypeFaucet, 0},
}

// Switch bridges on/off style entities (switch, input_boolean, script,
// scene, automation, remote) as a switch or outlet.
type Switch struct {
	*baseAccessory
	on     *characteristic.On
	domain string

	// Activate-only entities (scenes, non-cancelable scripts) have no
	// meaningful off state; the switch springs back after activation.
	activateOnly bool
}

func newSwitch(kind Kind, state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) *Switch {
	s := &Switch{domain: state.Domain()}
	s.activateOnly = isActivateOnly(state)

	if kind == KindOutlet {
		s.baseAccessory = newAccessory(state, aid, cfg, deps, accessory.TypeOutlet)
		outlet := service.NewOutlet()
		outlet.OutletInUse.SetValue(true)
		s.on = outlet.On
		s.AddS(outlet.S)
	} else {
		s.baseAccessory = newAccessory(state, aid, cfg, deps, accessory.TypeSwitch)
		sw := service.NewSwitch()
		s.on = sw.On
		s.AddS(sw.S)
	}
	s.on.OnValueRemoteUpdate(s.setState)
	s.UpdateState(state)
	return s
}

func isActivateOnly(state model.EntityState) bool {
	switch state.Domain() {
	case domainScene:
		return true
	case domainScript:
		canCancel, _ := state.Attributes[attrCanCancel].(bool)
		return !canCancel
	}
	return false
}

func (s *Switch) setState(value bool) {
	if s.activateOnly && !value {
		s.deps.Log.Debug().Str("entity", s.entityID).Msg("ignoring turn_off for activate-only entity")
		return
	}
	s.deps.Log.Debug().Str("entity", s.entityID).Bool("value", value).Msg("controller set switch state")
	s.flags.set(attrSwitchState)

	svc := serviceTurnOff
	if value {
		svc = serviceTurnOn
	}
	s.callService(s.domain, svc, s.serviceData(), value)

	if s.activateOnly {
		s.deps.Exec.Schedule(s.entityID+"/reset", activateResetDelay, func() {
			s.on.SetValue(false)
		})
	}
}

func (s *Switch) UpdateState(state model.EntityState) {
	s.activateOnly = isActivateOnly(state)
	if s.activateOnly {
		// The hub state of an activate-only entity carries no meaning.
		return
	}
	value := state.State == stateOn
	if !s.flags.consume(attrSwitchState) && s.on.Value() != value {
		s.on.SetValue(value)
	}
}

// Valve bridges a switch entity configured as faucet, shower, sprinkler
// or valve onto a valve service.
type Valve struct {
	*baseAccessory
	active *characteristic.Active
	inUse  *characteristic.InUse
}

func newValve(state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) *Valve {
	variant, ok := valveTypes[cfg.Type]
	if !ok {
		variant = valveTypes[model.TypeValve]
	}
	v := &Valve{
		baseAccessory: newAccessory(state, aid, cfg, deps, variant.accessoryType),
	}
	valve := service.NewValve()
	valve.ValveType.SetValue(variant.valveType)
	v.active = valve.Active
	v.inUse = valve.InUse
	v.active.OnValueRemoteUpdate(v.setState)
	v.AddS(valve.S)
	v.UpdateState(state)
	return v
}

func (v *Valve) setState(value int) {
	v.deps.Log.Debug().Str("entity", v.entityID).Int("value", value).Msg("controller set valve state")
	v.flags.set(attrSwitchState)
	v.inUse.SetValue(value)

	svc := serviceTurnOff
	if value == characteristic.ActiveActive {
		svc = serviceTurnOn
	}
	v.callService(domainSwitch, svc, v.serviceData(), value)
}

func (v *Valve) UpdateState(state model.EntityState) {
	value := characteristic.ActiveInactive
	if state.State == stateOn {
		value = characteristic.ActiveActive
	}
	if !v.flags.consume(attrSwitchState) && v.active.Value() != value {
		v.active.SetValue(value)
		v.inUse.SetValue(value)
	}
}
