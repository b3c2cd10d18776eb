package memory

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/samirrijal/mapcat/internal/core/domain"
)

// idBytes random bytes give a 32-bit, 8 hex character id.
const idBytes = 4

// FeatureStore implements ports.FeatureStore in memory.
// The map keys are the id index; order keeps insertion order for listing.
type FeatureStore struct {
	mu       sync.Mutex
	features map[string]domain.Feature
	order    []string
	version  uint64
	random   io.Reader
}

// Option configures a FeatureStore.
type Option func(*FeatureStore)

// WithRandom replaces the id entropy source (crypto/rand by default).
func WithRandom(r io.Reader) Option {
	return func(s *FeatureStore) { s.random = r }
}

// NewFeatureStore creates an empty store.
func NewFeatureStore(opts ...Option) *FeatureStore {
	s := &FeatureStore{
		features: make(map[string]domain.Feature),
		random:   rand.Reader,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *FeatureStore) Add(kind domain.FeatureKind, coords []domain.Coordinate, params domain.Params, requestedID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := requestedID
	if id == "" {
		var err error
		if id, err = s.generateID(); err != nil {
			return "", err
		}
	} else if _, exists := s.features[id]; exists {
		return "", fmt.Errorf("feature id %q already exists: %w", id, domain.ErrDuplicateID)
	}

	s.features[id] = domain.Feature{
		ID:     id,
		Kind:   kind,
		Coords: slices.Clone(coords),
		Params: maps.Clone(params),
	}
	s.order = append(s.order, id)
	s.version++
	return id, nil
}

// GenerateID returns an id not currently in use. It does not reserve it.
func (s *FeatureStore) GenerateID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generateID()
}

// generateID retries until the random token misses the index. Caller holds mu.
func (s *FeatureStore) generateID() (string, error) {
	buf := make([]byte, idBytes)
	for {
		if _, err := io.ReadFull(s.random, buf); err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		id := hex.EncodeToString(buf)
		if _, taken := s.features[id]; !taken {
			return id, nil
		}
	}
}

func (s *FeatureStore) Get(id string) (domain.Feature, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.features[id]
	if !ok {
		return domain.Feature{}, false
	}
	return f.Clone(), true
}

func (s *FeatureStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.features[id]; !ok {
		return false
	}
	delete(s.features, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	s.version++
	return true
}

func (s *FeatureStore) RemoveByTag(tag string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := []string{}
	kept := s.order[:0]
	for _, id := range s.order {
		if t, ok := s.features[id].Tag(); ok && t == tag {
			delete(s.features, id)
			removed = append(removed, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	if len(removed) > 0 {
		s.version++
	}
	return removed
}

func (s *FeatureStore) Clear() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.order
	if removed == nil {
		removed = []string{}
	}
	s.features = make(map[string]domain.Feature)
	s.order = nil
	s.version++
	return removed
}

func (s *FeatureStore) List() []domain.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Feature, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.features[id].Clone())
	}
	return out
}

func (s *FeatureStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.features)
}

func (s *FeatureStore) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}
