package algo

import (
	"cmp"
	"slices"

	"github.com/huangsam/discomfort/schema"
)

// RankSegments sorts scored segments by the selected total in descending order
// and returns the top 'limit' segments. A limit of zero or less keeps all of them.
// Ties keep input order.
func RankSegments(results []schema.ScoredSegment, kind schema.TotalKind, limit int) []schema.ScoredSegment {
	slices.SortStableFunc(results, func(a, b schema.ScoredSegment) int {
		return cmp.Compare(b.Score.Total(kind), a.Score.Total(kind))
	})
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
