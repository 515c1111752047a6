package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GeoQueryMetrics counts spatial query work.
type GeoQueryMetrics struct {
	pointsChecked   prometheus.Counter
	pointsContained prometheus.Counter
	overlapPairs    prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewGeoQueryMetrics registers the spatial query metrics on the provided registerer.
func NewGeoQueryMetrics(reg prometheus.Registerer) *GeoQueryMetrics {
	if reg == nil {
		return &GeoQueryMetrics{}
	}
	pointsChecked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geo_points_checked_total",
		Help: "Coordinates evaluated against current polygons.",
	})
	pointsContained := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geo_points_contained_total",
		Help: "Coordinates found inside at least one polygon.",
	})
	overlapPairs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geo_overlap_pairs_total",
		Help: "Overlapping polygon pairs reported.",
	})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geo_lookup_cache_hits_total",
		Help: "Point lookups answered from the redis cache.",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geo_lookup_cache_misses_total",
		Help: "Point lookups that missed the redis cache.",
	})
	reg.MustRegister(pointsChecked, pointsContained, overlapPairs, cacheHits, cacheMisses)
	return &GeoQueryMetrics{
		pointsChecked:   pointsChecked,
		pointsContained: pointsContained,
		overlapPairs:    overlapPairs,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// AddPointsChecked records evaluated coordinates.
func (g *GeoQueryMetrics) AddPointsChecked(n int) {
	if g == nil || g.pointsChecked == nil || n <= 0 {
		return
	}
	g.pointsChecked.Add(float64(n))
}

// AddPointsContained records coordinates that matched at least one polygon.
func (g *GeoQueryMetrics) AddPointsContained(n int) {
	if g == nil || g.pointsContained == nil || n <= 0 {
		return
	}
	g.pointsContained.Add(float64(n))
}

// AddOverlapPairs records reported overlapping pairs.
func (g *GeoQueryMetrics) AddOverlapPairs(n int) {
	if g == nil || g.overlapPairs == nil || n <= 0 {
		return
	}
	g.overlapPairs.Add(float64(n))
}

// IncCacheHit records a lookup served from cache.
func (g *GeoQueryMetrics) IncCacheHit() {
	if g == nil || g.cacheHits == nil {
		return
	}
	g.cacheHits.Inc()
}

// IncCacheMiss records a lookup that fell through to the store.
func (g *GeoQueryMetrics) IncCacheMiss() {
	if g == nil || g.cacheMisses == nil {
		return
	}
	g.cacheMisses.Inc()
}
