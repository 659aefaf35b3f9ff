package accessories

import (
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/service"

	"homekit-bridge/internal/domain/model"
)

// Lock state mapping. Total over the protocol values the bridge emits,
// partial over hub states: anything unmapped is ignored.
var lockStateToHomeKit = map[string]int{
	stateUnlocked: 0,
	stateLocked:   1,
	// 2 is Jammed, which the hub has no state for.
	stateUnknown: 3,
}

var lockTargetToService = map[int]string{
	0: serviceUnlock,
	1: serviceLock,
}

const attrLockTarget = "lock_target"

// Lock bridges a lock entity onto a lock mechanism service. The entity
// must support lock and unlock.
type Lock struct {
	*baseAccessory
	mechanism *service.LockMechanism
}

func newLock(state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) *Lock {
	l := &Lock{
		baseAccessory: newAccessory(state, aid, cfg, deps, accessory.TypeDoorLock),
		mechanism:     service.NewLockMechanism(),
	}
	l.mechanism.LockCurrentState.SetValue(lockStateToHomeKit[stateUnknown])
	l.mechanism.LockTargetState.SetValue(lockStateToHomeKit[stateLocked])
	l.mechanism.LockTargetState.OnValueRemoteUpdate(l.setState)
	l.AddS(l.mechanism.S)
	l.UpdateState(state)
	return l
}

func (l *Lock) setState(value int) {
	svc, ok := lockTargetToService[value]
	if !ok {
		return
	}
	l.deps.Log.Debug().Str("entity", l.entityID).Int("value", value).Msg("controller set lock state")
	l.flags.set(attrLockTarget)

	data := l.serviceData()
	if l.config.Code != "" {
		data[attrCode] = l.config.Code
	}
	l.callService(domainLock, svc, data, value)
}

func (l *Lock) UpdateState(state model.EntityState) {
	hk, ok := lockStateToHomeKit[state.State]
	if !ok {
		return
	}
	if l.mechanism.LockCurrentState.Value() != hk {
		l.mechanism.LockCurrentState.SetValue(hk)
	}

	// LockTargetState only supports locked and unlocked. A just-issued
	// controller write keeps its value through the hub's echo.
	if state.State == stateLocked || state.State == stateUnlocked {
		if !l.flags.consume(attrLockTarget) && l.mechanism.LockTargetState.Value() != hk {
			l.mechanism.LockTargetState.SetValue(hk)
		}
	}
}
