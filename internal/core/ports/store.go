package ports

import "github.com/samirrijal/mapcat/internal/core/domain"

// FeatureStore is the authoritative id → feature mapping.
// Every method is a whole unit: no caller can observe or interleave
// with a half-applied mutation.
type FeatureStore interface {
	// Add inserts a feature and returns its id. An empty requestedID asks the
	// store to generate one. A requestedID already in use fails with
	// domain.ErrDuplicateID and leaves the store untouched.
	Add(kind domain.FeatureKind, coords []domain.Coordinate, params domain.Params, requestedID string) (string, error)
	Get(id string) (domain.Feature, bool)
	Remove(id string) bool
	// RemoveByTag deletes every feature whose tag equals tag and returns their
	// ids in store order. No match is an empty result, not an error.
	RemoveByTag(tag string) []string
	// Clear deletes everything and returns the ids that were present.
	Clear() []string
	// List returns copies of all features in store order.
	List() []domain.Feature
	Len() int
	// Version increases on every successful mutation.
	Version() uint64
}
