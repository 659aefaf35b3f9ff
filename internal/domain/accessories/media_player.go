package accessories

import (
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"homekit-bridge/internal/domain/model"
)

// Media player states that count as "off" for the power switch.
var mediaPlayerOffStates = map[string]bool{
	stateOff:     true,
	stateUnknown: true,
	stateStandby: true,
}

var mediaFeatureNames = map[string]string{
	model.FeatureOnOff:      "Power",
	model.FeaturePlayPause:  "Play-Pause",
	model.FeaturePlayStop:   "Play-Stop",
	model.FeatureToggleMute: "Mute",
}

// mediaFeatureOrder fixes the service order on the accessory.
var mediaFeatureOrder = []string{
	model.FeatureOnOff,
	model.FeaturePlayPause,
	model.FeaturePlayStop,
	model.FeatureToggleMute,
}

// supportedMediaFeatures intersects the configured feature list with what
// the entity's feature bits actually support. An empty configured list
// means every supported feature.
func supportedMediaFeatures(state model.EntityState, configured []string) []string {
	features := state.SupportedFeatures()
	supported := map[string]bool{
		model.FeatureOnOff:      features&(mediaSupportTurnOn|mediaSupportTurnOff) != 0,
		model.FeaturePlayPause:  features&(mediaSupportPlay|mediaSupportPause) != 0,
		model.FeaturePlayStop:   features&(mediaSupportPlay|mediaSupportStop) != 0,
		model.FeatureToggleMute: features&mediaSupportVolumeMute != 0,
	}
	if len(configured) == 0 {
		configured = mediaFeatureOrder
	}
	var out []string
	for _, feature := range mediaFeatureOrder {
		if !supported[feature] {
			continue
		}
		for _, c := range configured {
			if c == feature {
				out = append(out, feature)
				break
			}
		}
	}
	return out
}

// MediaPlayer bridges a media player entity as a group of switches, one
// per exposed feature. Feature bits are read once at construction.
type MediaPlayer struct {
	*baseAccessory
	switches map[string]*characteristic.On
}

func newMediaPlayer(state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps) *MediaPlayer {
	m := &MediaPlayer{
		baseAccessory: newAccessory(state, aid, cfg, deps, accessory.TypeSwitch),
		switches:      make(map[string]*characteristic.On),
	}
	for _, feature := range supportedMediaFeatures(state, cfg.FeatureList) {
		feature := feature
		sw := service.NewSwitch()
		name := characteristic.NewName()
		name.SetValue(m.Info.Name.Value() + " " + mediaFeatureNames[feature])
		sw.AddC(name.C)
		sw.On.OnValueRemoteUpdate(func(value bool) {
			m.setFeature(feature, value)
		})
		m.switches[feature] = sw.On
		m.AddS(sw.S)
	}
	m.UpdateState(state)
	return m
}

func (m *MediaPlayer) setFeature(feature string, value bool) {
	m.deps.Log.Debug().Str("entity", m.entityID).Str("feature", feature).Bool("value", value).
		Msg("controller set media player switch")
	m.flags.set(feature)
	data := m.serviceData()

	var svc string
	switch feature {
	case model.FeatureOnOff:
		svc = serviceTurnOff
		if value {
			svc = serviceTurnOn
		}
	case model.FeaturePlayPause:
		svc = serviceMediaPause
		if value {
			svc = serviceMediaPlay
		}
	case model.FeaturePlayStop:
		svc = serviceMediaStop
		if value {
			svc = serviceMediaPlay
		}
	case model.FeatureToggleMute:
		svc = serviceVolumeMute
		data[attrVolumeMuted] = value
	default:
		return
	}
	m.callService(domainMediaPlayer, svc, data, value)
}

func (m *MediaPlayer) UpdateState(state model.EntityState) {
	set := func(feature string, value bool) {
		char, ok := m.switches[feature]
		if !ok {
			return
		}
		if !m.flags.consume(feature) && char.Value() != value {
			char.SetValue(value)
		}
	}
	set(model.FeatureOnOff, !mediaPlayerOffStates[state.State] && state.State != "")
	set(model.FeaturePlayPause, state.State == statePlaying)
	set(model.FeaturePlayStop, state.State == statePlaying)
	muted, _ := state.Attributes[attrVolumeMuted].(bool)
	set(model.FeatureToggleMute, muted)
}
