package analytics

import (
	"sort"

	"MarketDashboard/internal/model"
)

// SectorStat aggregates one sector of a snapshot table. Aggregates are
// rounded to two decimals.
type SectorStat struct {
	Sector           string  `json:"sector"`
	ChangeMean       float64 `json:"daily_change_pct_mean"`
	ChangeMedian     float64 `json:"daily_change_pct_median"`
	ChangeStd        float64 `json:"daily_change_pct_std"`
	Count            int     `json:"daily_change_pct_count"`
	VolumeSum        float64 `json:"volume_sum"`
	VolumeMean       float64 `json:"volume_mean"`
	MarketCapSum     float64 `json:"market_cap_sum"`
	MarketCapMean    float64 `json:"market_cap_mean"`
	VolumeChangeMean float64 `json:"volume_change_pct_mean"`
	Gainers          int     `json:"gainers"`
	Losers           int     `json:"losers"`
	GainerRatio      float64 `json:"gainer_ratio"`
}

// SectorAnalysis groups rows by their Sector field, sorted by sector name.
func SectorAnalysis(rows []model.QuoteSnapshot) []SectorStat {
	groups := make(map[string][]model.QuoteSnapshot)
	for _, r := range rows {
		groups[r.Sector] = append(groups[r.Sector], r)
	}
	names := make([]string, 0, len(groups))
	for s := range groups {
		names = append(names, s)
	}
	sort.Strings(names)

	out := make([]SectorStat, 0, len(names))
	for _, name := range names {
		g := groups[name]
		changes := column(g, changePct)
		vols := column(g, volume)
		caps := column(g, marketCap)
		st := SectorStat{
			Sector:           name,
			ChangeMean:       round2(mean(changes)),
			ChangeMedian:     round2(median(changes)),
			ChangeStd:        round2(stdDev(changes)),
			Count:            len(g),
			VolumeSum:        round2(sum(vols)),
			VolumeMean:       round2(mean(vols)),
			MarketCapSum:     round2(sum(caps)),
			MarketCapMean:    round2(mean(caps)),
			VolumeChangeMean: round2(mean(column(g, volumeChange))),
		}
		for _, c := range changes {
			if c > 0 {
				st.Gainers++
			} else if c < 0 {
				st.Losers++
			}
		}
		st.GainerRatio = float64(st.Gainers) / float64(st.Count)
		out = append(out, st)
	}
	return out
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
