package analysis

import (
	"sort"

	"portfoliotracker/src/model"
)

// DefaultRankLimit applies when a caller asks for a non-positive limit.
const DefaultRankLimit = 70

// RankAndLimit returns a copy of valued sorted by pnl_percent ascending,
// worst loss first, truncated to limit. Ties keep their input order.
func RankAndLimit(valued []model.ValuedPosition, limit int) []model.ValuedPosition {
	if limit <= 0 {
		limit = DefaultRankLimit
	}

	ranked := make([]model.ValuedPosition, len(valued))
	copy(ranked, valued)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PNLPercent.LessThan(ranked[j].PNLPercent)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
