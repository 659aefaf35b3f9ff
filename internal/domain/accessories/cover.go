package accessories

import (
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"homekit-bridge/internal/domain/model"
)

const (
	attrDoorTarget    = "door_target"
	attrCoverPosition = "cover_position"
)

// Garage door state mapping; the protocol has no value for the hub's
// intermediate states beyond opening/closing.
var doorStateToHomeKit = map[string]int{
	stateOpen:    characteristic.CurrentDoorStateOpen,
	stateClosed:  characteristic.CurrentDoorStateClosed,
	stateOpening: characteristic.CurrentDoorStateOpening,
	stateClosing: characteristic.CurrentDoorStateClosing,
}

// GarageDoor bridges a garage cover onto a garage door opener service.
type GarageDoor struct {
	*baseAccessory
	opener *service.GarageDoorOpener
}

func newGarageDoor(state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) *GarageDoor {
	g := &GarageDoor{
		baseAccessory: newAccessory(state, aid, cfg, deps, accessory.TypeGarageDoorOpener),
		opener:        service.NewGarageDoorOpener(),
	}
	g.opener.TargetDoorState.OnValueRemoteUpdate(g.setState)
	g.AddS(g.opener.S)
	g.UpdateState(state)
	return g
}

func (g *GarageDoor) setState(value int) {
	g.deps.Log.Debug().Str("entity", g.entityID).Int("value", value).Msg("controller set door state")
	g.flags.set(attrDoorTarget)
	data := g.serviceData()
	switch value {
	case characteristic.TargetDoorStateOpen:
		g.opener.CurrentDoorState.SetValue(characteristic.CurrentDoorStateOpening)
		g.callService(domainCover, serviceOpenCover, data, value)
	case characteristic.TargetDoorStateClosed:
		g.opener.CurrentDoorState.SetValue(characteristic.CurrentDoorStateClosing)
		g.callService(domainCover, serviceCloseCover, data, value)
	}
}

func (g *GarageDoor) UpdateState(state model.EntityState) {
	hk, ok := doorStateToHomeKit[state.State]
	if !ok {
		return
	}
	if state.State == stateOpen || state.State == stateClosed {
		target := characteristic.TargetDoorStateOpen
		if state.State == stateClosed {
			target = characteristic.TargetDoorStateClosed
		}
		if !g.flags.consume(attrDoorTarget) && g.opener.TargetDoorState.Value() != target {
			g.opener.TargetDoorState.SetValue(target)
		}
	}
	if g.opener.CurrentDoorState.Value() != hk {
		g.opener.CurrentDoorState.SetValue(hk)
	}
}

// WindowCovering bridges a position-capable cover. Position writes are
// continuous values and therefore debounced.
type WindowCovering struct {
	*baseAccessory
	cover *service.WindowCovering
}

func newWindowCovering(state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) *WindowCovering {
	w := &WindowCovering{
		baseAccessory: newAccessory(state, aid, cfg, deps, accessory.TypeWindowCovering),
		cover:         service.NewWindowCovering(),
	}
	w.cover.TargetPosition.OnValueRemoteUpdate(w.setPosition)
	w.AddS(w.cover.S)
	w.UpdateState(state)
	return w
}

func (w *WindowCovering) setPosition(value int) {
	w.debounced(attrCoverPosition, func() {
		w.deps.Log.Debug().Str("entity", w.entityID).Int("value", value).Msg("controller set cover position")
		w.flags.set(attrCoverPosition)
		data := w.serviceData()
		data[attrPosition] = value
		w.callService(domainCover, serviceSetCoverPosition, data, value)
	})
}

func (w *WindowCovering) UpdateState(state model.EntityState) {
	if pos, ok := state.AttrInt(attrCurrentPosition); ok {
		if w.cover.CurrentPosition.Value() != pos {
			w.cover.CurrentPosition.SetValue(pos)
		}
		if !w.flags.consume(attrCoverPosition) && w.cover.TargetPosition.Value() != pos {
			w.cover.TargetPosition.SetValue(pos)
		}
	}
	switch state.State {
	case stateOpening:
		w.cover.PositionState.SetValue(characteristic.PositionStateIncreasing)
	case stateClosing:
		w.cover.PositionState.SetValue(characteristic.PositionStateDecreasing)
	default:
		w.cover.PositionState.SetValue(characteristic.PositionStateStopped)
	}
}

// WindowCoveringBasic bridges a cover that only knows open and close. The
// protocol still wants positions, so they are synthesized as 0 and 100.
type WindowCoveringBasic struct {
	*baseAccessory
	cover *service.WindowCovering
}

func newWindowCoveringBasic(state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) *WindowCoveringBasic {
	w := &WindowCoveringBasic{
		baseAccessory: newAccessory(state, aid, cfg, deps, accessory.TypeWindowCovering),
		cover:         service.NewWindowCovering(),
	}
	w.cover.TargetPosition.OnValueRemoteUpdate(w.setPosition)
	w.AddS(w.cover.S)
	w.UpdateState(state)
	return w
}

func (w *WindowCoveringBasic) setPosition(value int) {
	w.debounced(attrCoverPosition, func() {
		w.deps.Log.Debug().Str("entity", w.entityID).Int("value", value).Msg("controller set cover position")
		w.flags.set(attrCoverPosition)

		svc := serviceOpenCover
		position := 100
		if value < 50 {
			svc = serviceCloseCover
			position = 0
		}
		w.callService(domainCover, svc, w.serviceData(), value)

		// Snap both positions so the controller sees a settled cover.
		w.cover.CurrentPosition.SetValue(position)
		w.cover.TargetPosition.SetValue(position)
	})
}

func (w *WindowCoveringBasic) UpdateState(state model.EntityState) {
	position := -1
	switch state.State {
	case stateOpen:
		position = 100
	case stateClosed:
		position = 0
	}
	if position >= 0 {
		if w.cover.CurrentPosition.Value() != position {
			w.cover.CurrentPosition.SetValue(position)
		}
		if !w.flags.consume(attrCoverPosition) && w.cover.TargetPosition.Value() != position {
			w.cover.TargetPosition.SetValue(position)
		}
	}
	switch state.State {
	case stateOpening:
		w.cover.PositionState.SetValue(characteristic.PositionStateIncreasing)
	case stateClosing:
		w.cover.PositionState.SetValue(characteristic.PositionStateDecreasing)
	default:
		w.cover.PositionState.SetValue(characteristic.PositionStateStopped)
	}
}
