package accessories

import (
	"testing"
	"time"

	"github.com/brutella/hap/characteristic"
	"github.com/stretchr/testify/assert"

	"homekit-bridge/internal/domain/model"
)

func fullFan(st string, attrs map[string]any) model.EntityState {
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrs["supported_features"] = float64(fanSupportSetSpeed | fanSupportOscillate | fanSupportDirection)
	return state("fan.ceiling", st, attrs)
}

func TestFan_OnOff(t *testing.T) {
	hub := newFakeHub()
	f := newFan(state("fan.ceiling", "on", nil), 5, model.EntityConfig{}, testDeps(hub))
	defer f.Stop()

	assert.Equal(t, characteristic.ActiveActive, f.active.Value())
	assert.Nil(t, f.direction)
	assert.Nil(t, f.swing)
	assert.Nil(t, f.speed)

	f.setActive(characteristic.ActiveInactive)
	call := hub.waitCall(t)
	assert.Equal(t, "fan", call.domain)
	assert.Equal(t, "turn_off", call.service)
	assert.Equal(t, "fan.ceiling", call.data["entity_id"])
}

func TestFan_Direction(t *testing.T) {
	hub := newFakeHub()
	f := newFan(fullFan("on", map[string]any{"direction": "forward"}), 5, model.EntityConfig{}, testDeps(hub))
	defer f.Stop()

	assert.Equal(t, characteristic.RotationDirectionClockwise, f.direction.Value())

	f.setDirection(characteristic.RotationDirectionCounterclockwise)
	call := hub.waitCall(t)
	assert.Equal(t, "set_direction", call.service)
	assert.Equal(t, "reverse", call.data["direction"])

	f.direction.SetValue(characteristic.RotationDirectionCounterclockwise)
	f.UpdateState(fullFan("on", map[string]any{"direction": "reverse"}))
	assert.Equal(t, characteristic.RotationDirectionCounterclockwise, f.direction.Value())
}

func TestFan_Oscillation(t *testing.T) {
	hub := newFakeHub()
	f := newFan(fullFan("on", map[string]any{"oscillating": false}), 5, model.EntityConfig{}, testDeps(hub))
	defer f.Stop()

	f.setSwing(characteristic.SwingModeSwingEnabled)
	call := hub.waitCall(t)
	assert.Equal(t, "oscillate", call.service)
	assert.Equal(t, true, call.data["oscillating"])

	f.UpdateState(fullFan("on", map[string]any{"oscillating": true}))
	assert.Equal(t, characteristic.SwingModeSwingEnabled, f.swing.Value())
}

func TestFan_SpeedDebounce(t *testing.T) {
	hub := newFakeHub()
	f := newFan(fullFan("on", map[string]any{"percentage": 25.0}), 5, model.EntityConfig{}, testDeps(hub))
	defer f.Stop()

	assert.Equal(t, 25.0, f.speed.Value())

	// A slider drag produces a burst of writes; only the last one lands.
	f.setSpeed(30)
	f.setSpeed(55)
	f.setSpeed(75)

	call := hub.waitCall(t)
	assert.Equal(t, "set_percentage", call.service)
	assert.Equal(t, 75, call.data["percentage"])
	hub.assertNoCall(t, 50*time.Millisecond)
}

func TestFan_EchoSuppression(t *testing.T) {
	hub := newFakeHub()
	f := newFan(fullFan("on", nil), 5, model.EntityConfig{}, testDeps(hub))
	defer f.Stop()

	f.setActive(characteristic.ActiveInactive)
	hub.waitCall(t)
	f.active.SetValue(characteristic.ActiveInactive)

	// The stale echo must not spin the fan back up.
	f.UpdateState(fullFan("on", nil))
	assert.Equal(t, characteristic.ActiveInactive, f.active.Value())

	f.UpdateState(fullFan("on", nil))
	assert.Equal(t, characteristic.ActiveActive, f.active.Value())
}
