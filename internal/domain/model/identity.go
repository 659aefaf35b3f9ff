package model

import (
	"fmt"
	"strings"
)

// RegistryEntry is the entity registry record for an entity. The
// (platform, domain, unique id) triple is the only identity that survives
// entity id renames.
type RegistryEntry struct {
	EntityID string `json:"entity_id"`
	Platform string `json:"platform"`
	UniqueID string `json:"unique_id"`
}

// SystemUniqueID returns the system wide identity string for the entry.
func (e RegistryEntry) SystemUniqueID() string {
	domain, _, _ := strings.Cut(e.EntityID, ".")
	return fmt.Sprintf("%s.%s.%s", e.Platform, domain, e.UniqueID)
}
