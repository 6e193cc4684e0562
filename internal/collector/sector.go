package collector

import (
	"sort"

	"MarketDashboard/internal/model"
)

// sectorTopN is how many gainers and losers the breakdown keeps per sector.
const sectorTopN = 5

// SectorPerformance summarizes the overview rows of one curated sector.
type SectorPerformance struct {
	Sector       string                `json:"sector"`
	TopGainers   []model.QuoteSnapshot `json:"top_gainers"`
	TopLosers    []model.QuoteSnapshot `json:"top_losers"`
	AvgChangePct float64               `json:"avg_change_pct"`
	TotalVolume  int64                 `json:"total_volume"`
	Count        int                   `json:"company_count"`
}

// SectorBreakdown groups rows by curated sector. Rows for unlisted symbols
// are ignored and sectors without rows are omitted.
func SectorBreakdown(rows []model.QuoteSnapshot) map[string]SectorPerformance {
	grouped := make(map[string][]model.QuoteSnapshot)
	for _, r := range rows {
		if s := SectorOf(r.Symbol); s != "" {
			grouped[s] = append(grouped[s], r)
		}
	}

	out := make(map[string]SectorPerformance, len(grouped))
	for name, members := range grouped {
		byChange := append([]model.QuoteSnapshot(nil), members...)
		sort.SliceStable(byChange, func(i, j int) bool { return byChange[i].DailyChangePct > byChange[j].DailyChangePct })

		byLoss := append([]model.QuoteSnapshot(nil), members...)
		sort.SliceStable(byLoss, func(i, j int) bool { return byLoss[i].DailyChangePct < byLoss[j].DailyChangePct })

		gainers := byChange[:min(sectorTopN, len(byChange))]
		losers := byLoss[:min(sectorTopN, len(byLoss))]

		var sum float64
		var vol int64
		for _, m := range members {
			sum += m.DailyChangePct
			vol += m.Volume
		}
		out[name] = SectorPerformance{
			Sector:       name,
			TopGainers:   gainers,
			TopLosers:    losers,
			AvgChangePct: sum / float64(len(members)),
			TotalVolume:  vol,
			Count:        len(members),
		}
	}
	return out
}
