package analytics

import (
	"math"
	"sort"

	"MarketDashboard/internal/model"
)

// DefaultTopN is the size of each performer list.
const DefaultTopN = 10

// Performers ranks a table by several measures.
type Performers struct {
	TopGainers          []model.QuoteSnapshot `json:"top_gainers"`
	TopLosers           []model.QuoteSnapshot `json:"top_losers"`
	HighestVolume       []model.QuoteSnapshot `json:"highest_volume"`
	HighestVolumeChange []model.QuoteSnapshot `json:"highest_volume_change"`
	MostVolatile        []model.QuoteSnapshot `json:"most_volatile"`
}

// TopPerformers returns nil for an empty table.
func TopPerformers(rows []model.QuoteSnapshot, n int) *Performers {
	if len(rows) == 0 {
		return nil
	}
	if n <= 0 {
		n = DefaultTopN
	}
	return &Performers{
		TopGainers:          topBy(rows, n, changePct, true),
		TopLosers:           topBy(rows, n, changePct, false),
		HighestVolume:       topBy(rows, n, volume, true),
		HighestVolumeChange: topBy(rows, n, volumeChange, true),
		MostVolatile: topBy(rows, n, func(r model.QuoteSnapshot) float64 {
			return math.Abs(r.DailyChangePct)
		}, true),
	}
}

func topBy(rows []model.QuoteSnapshot, n int, key func(model.QuoteSnapshot) float64, desc bool) []model.QuoteSnapshot {
	sorted := append([]model.QuoteSnapshot(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return key(sorted[i]) > key(sorted[j])
		}
		return key(sorted[i]) < key(sorted[j])
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
