package model

import "strings"

// EntityState is a snapshot of one Home Assistant entity: its entity id,
// primary state string and attribute map, as delivered by the REST API or
// the state_changed event stream.
type EntityState struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// Domain returns the part of the entity id before the first dot.
func (s EntityState) Domain() string {
	domain, _, _ := strings.Cut(s.EntityID, ".")
	return domain
}

// Name returns the friendly name, falling back to the entity id.
func (s EntityState) Name() string {
	if name, ok := s.Attributes["friendly_name"].(string); ok && name != "" {
		return name
	}
	return s.EntityID
}

// AttrString returns a string attribute, "" when absent or mistyped.
func (s EntityState) AttrString(key string) string {
	v, _ := s.Attributes[key].(string)
	return v
}

// AttrFloat returns a numeric attribute. JSON decoding yields float64 for
// all numbers, so that is the only type accepted.
func (s EntityState) AttrFloat(key string) (float64, bool) {
	v, ok := s.Attributes[key].(float64)
	return v, ok
}

// AttrInt returns a numeric attribute truncated to int.
func (s EntityState) AttrInt(key string) (int, bool) {
	v, ok := s.AttrFloat(key)
	return int(v), ok
}

// SupportedFeatures returns the supported_features bitmask, 0 when absent.
func (s EntityState) SupportedFeatures() int {
	v, _ := s.AttrInt("supported_features")
	return v
}

// AttrFloats returns a list attribute as float64s, nil when the attribute
// is absent or any element is non-numeric.
func (s EntityState) AttrFloats(key string) []float64 {
	raw, ok := s.Attributes[key].([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, e := range raw {
		f, ok := e.(float64)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

// AttrStrings returns a list attribute as strings, skipping non-string
// elements.
func (s EntityState) AttrStrings(key string) []string {
	raw, ok := s.Attributes[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if str, ok := e.(string); ok {
			out = append(out, str)
		}
	}
	return out
}
