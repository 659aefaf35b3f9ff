package accessories

import (
	"fmt"

	"github.com/Knetic/govaluate"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/service"

	"homekit-bridge/internal/domain/model"
)

// Sensor bridges read-only numeric sensors: temperature, humidity and
// light level. An optional per-entity formula rescales the raw state
// before it reaches the characteristic, for sensors reporting in tenths
// or other device-specific encodings.
type Sensor struct {
	*baseAccessory
	kind    Kind
	current interface {
		Value() float64
		SetValue(float64)
	}
	formula *govaluate.EvaluableExpression
	unit    string
}

func newSensor(kind Kind, state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) (*Sensor, error) {
	s := &Sensor{
		baseAccessory: newAccessory(state, aid, cfg, deps, accessory.TypeSensor),
		kind:          kind,
		unit:          deps.Unit,
	}

	if cfg.ValueFormula != "" {
		expr, err := govaluate.NewEvaluableExpression(cfg.ValueFormula)
		if err != nil {
			return nil, fmt.Errorf("value formula for %s: %w", state.EntityID, err)
		}
		s.formula = expr
	}

	switch kind {
	case KindTemperatureSensor:
		svc := service.NewTemperatureSensor()
		// The protocol default floor is 0; hub temperatures go below it.
		svc.CurrentTemperature.SetMinValue(-273)
		s.current = svc.CurrentTemperature
		s.AddS(svc.S)
	case KindHumiditySensor:
		svc := service.NewHumiditySensor()
		s.current = svc.CurrentRelativeHumidity
		s.AddS(svc.S)
	case KindLightSensor:
		svc := service.NewLightSensor()
		s.current = svc.CurrentAmbientLightLevel
		s.AddS(svc.S)
	default:
		return nil, fmt.Errorf("not a sensor kind: %s", kind)
	}

	s.UpdateState(state)
	return s, nil
}

func (s *Sensor) UpdateState(state model.EntityState) {
	v, ok := convertToFloat(state.State)
	if !ok {
		return
	}
	if s.formula != nil {
		result, err := s.formula.Evaluate(map[string]any{"x": v})
		if err != nil {
			s.deps.Log.Debug().Err(err).Str("entity", s.entityID).Msg("value formula failed")
			return
		}
		f, ok := result.(float64)
		if !ok {
			return
		}
		v = f
	}
	if s.kind == KindTemperatureSensor {
		v = temperatureToHomeKit(v, s.unit)
	}
	if s.current.Value() != v {
		s.current.SetValue(v)
	}
}
