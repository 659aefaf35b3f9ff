package accessories

import (
	"math"
	"strconv"
	"strings"

	"homekit-bridge/internal/domain/model"
)

// convertToFloat parses a state string as a number, returning ok=false on
// anything non-numeric ("unavailable", "unknown", ...).
func convertToFloat(state string) (float64, bool) {
	v, err := strconv.ParseFloat(state, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// temperatureToHomeKit converts a hub temperature to Celsius, which is the
// only unit the protocol speaks, rounded to a tenth.
func temperatureToHomeKit(v float64, unit string) float64 {
	if unit == model.UnitFahrenheit {
		v = (v - 32) * 5 / 9
	}
	return math.Round(v*10) / 10
}

// temperatureToStates converts a Celsius protocol value back to the hub's
// unit, rounded to the nearest half degree.
func temperatureToStates(v float64, unit string) float64 {
	if unit == model.UnitFahrenheit {
		v = v*9/5 + 32
	}
	return roundHalf(v)
}

// roundHalf rounds to the protocol's required half-unit granularity.
func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

// modelName turns an entity domain into a presentable model string,
// e.g. "media_player" -> "Media Player".
func modelName(domain string) string {
	words := strings.Split(domain, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
