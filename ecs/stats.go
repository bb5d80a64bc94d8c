package ecs

import (
	"cmp"
	"reflect"
	"slices"
)

// StorageStats is a point-in-time summary of a Storage.
type StorageStats struct {
	TotalEntityCount   int
	ComponentTypeCount int
	ComponentBreakdown []ComponentStats
	CachedQueries      int
	CacheHits          uint64
	CacheMisses        uint64
}

// ComponentStats reports how many entities hold one component type.
type ComponentStats struct {
	Type        reflect.Type
	Name        string
	EntityCount int
}

// CollectStats gathers storage statistics. Component types with no holders
// are omitted. The breakdown is ordered by descending entity count, then name.
func (s *Storage) CollectStats() *StorageStats {
	stats := &StorageStats{
		TotalEntityCount: s.records.Len(),
		CachedQueries:    s.queries.len(),
		CacheHits:        s.queries.hits,
		CacheMisses:      s.queries.misses,
	}

	for compType, set := range s.index {
		if set.Len() == 0 {
			continue
		}
		stats.ComponentBreakdown = append(stats.ComponentBreakdown, ComponentStats{
			Type:        compType,
			Name:        compType.String(),
			EntityCount: set.Len(),
		})
	}
	stats.ComponentTypeCount = len(stats.ComponentBreakdown)

	slices.SortFunc(stats.ComponentBreakdown, func(a, b ComponentStats) int {
		if c := cmp.Compare(b.EntityCount, a.EntityCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return stats
}
