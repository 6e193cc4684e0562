package analytics

import (
	"errors"
	"math"

	"MarketDashboard/internal/model"
)

// CalculateRange scans bars and returns the highest high and lowest low.
func CalculateRange(bars []model.HistoricalBar) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// PerformanceSummary describes one symbol over the selected period.
type PerformanceSummary struct {
	Symbol     string  `json:"symbol"`
	StartPrice float64 `json:"start_price"`
	EndPrice   float64 `json:"end_price"`
	Change     float64 `json:"change"`
	ChangePct  float64 `json:"change_pct"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	AvgVolume  float64 `json:"avg_volume"`
}

// SummarizeHistory returns one summary per symbol with at least two bars,
// in first-seen order.
func SummarizeHistory(bars []model.HistoricalBar) []PerformanceSummary {
	var out []PerformanceSummary
	for _, series := range orderedGroups(bars) {
		if len(series) < 2 {
			continue
		}
		high, low, err := CalculateRange(series)
		if err != nil {
			continue
		}
		start := series[0].Close
		end := series[len(series)-1].Close
		s := PerformanceSummary{
			Symbol:     series[0].Symbol,
			StartPrice: start,
			EndPrice:   end,
			Change:     end - start,
			High:       high,
			Low:        low,
		}
		if start != 0 {
			s.ChangePct = (end - start) / start * 100
		}
		var vol float64
		for _, b := range series {
			vol += float64(b.Volume)
		}
		s.AvgVolume = vol / float64(len(series))
		out = append(out, s)
	}
	return out
}
