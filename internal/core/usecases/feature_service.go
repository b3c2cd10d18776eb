package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/mapcat/internal/core/domain"
	"github.com/samirrijal/mapcat/internal/core/ports"
	"github.com/samirrijal/mapcat/internal/pkg/metrics"
)

// FeatureService is the read side of the store for HTTP and GraphQL clients.
type FeatureService struct {
	store ports.FeatureStore
	cache ports.CacheService
	ttl   int
	epoch string
}

// NewFeatureService creates a new FeatureService. cache may be nil.
//
// Each service gets a random epoch for its cache keys. The store version
// starts at zero in every process, while the cache is shared and outlives it.
func NewFeatureService(store ports.FeatureStore, cache ports.CacheService, ttlSeconds int) *FeatureService {
	if ttlSeconds <= 0 {
		ttlSeconds = 30
	}
	return &FeatureService{store: store, cache: cache, ttl: ttlSeconds, epoch: uuid.NewString()}
}

// List returns all features in store order, optionally only those with tag.
// The epoch and store version are part of the cache key, so neither a
// mutation nor another process sharing the cache can serve a stale listing.
func (s *FeatureService) List(ctx context.Context, tag string) ([]domain.Feature, error) {
	cacheKey := fmt.Sprintf("features:list:%s:v%d:tag:%s", s.epoch, s.store.Version(), tag)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var features []domain.Feature
			if err := json.Unmarshal(data, &features); err == nil {
				metrics.CacheHits.WithLabelValues("features_list").Inc()
				return features, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("features_list").Inc()
	}

	features := s.store.List()
	if tag != "" {
		filtered := features[:0]
		for _, f := range features {
			if t, ok := f.Tag(); ok && t == tag {
				filtered = append(filtered, f)
			}
		}
		features = filtered
	}

	if s.cache != nil {
		if data, err := json.Marshal(features); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.ttl)
		}
	}

	return features, nil
}

// Get returns a single feature.
func (s *FeatureService) Get(ctx context.Context, id string) (domain.Feature, error) {
	f, ok := s.store.Get(id)
	if !ok {
		return domain.Feature{}, fmt.Errorf("feature %q: %w", id, ErrNotFound)
	}
	return f, nil
}

// Count returns the number of stored features.
func (s *FeatureService) Count() int {
	return s.store.Len()
}

// GeoJSON exports the store as a FeatureCollection. GeoJSON positions are
// [lng, lat]; polygon rings are closed.
func (s *FeatureService) GeoJSON(ctx context.Context, tag string) (*geojson.FeatureCollection, error) {
	features, err := s.List(ctx, tag)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(toGeometry(f))
		gf.ID = f.ID
		for k, v := range f.Params {
			gf.Properties[k] = v
		}
		gf.Properties["id"] = f.ID
		gf.Properties["type"] = string(f.Kind)
		fc.Append(gf)
	}
	return fc, nil
}

func toGeometry(f domain.Feature) orb.Geometry {
	points := make([]orb.Point, len(f.Coords))
	for i, c := range f.Coords {
		points[i] = orb.Point{c.Lng, c.Lat}
	}

	switch f.Kind {
	case domain.KindPoint:
		if len(points) == 0 {
			return orb.Point{}
		}
		return points[0]
	case domain.KindPolygon:
		ring := orb.Ring(points)
		if len(ring) > 0 && !ring.Closed() {
			ring = append(ring, ring[0])
		}
		return orb.Polygon{ring}
	default:
		return orb.LineString(points)
	}
}
