package ports

// AidStore persists the accessory id allocation table. Implementations
// own durability and retries; callers only see load and save.
type AidStore interface {
	// Load returns the allocation table. A missing store yields an empty
	// table, a schema version mismatch an error.
	Load() (map[string]uint64, error)
	Save(allocations map[string]uint64) error
}
