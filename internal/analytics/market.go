package analytics

import "MarketDashboard/internal/model"

// MarketMetrics summarizes breadth and activity over a snapshot table.
type MarketMetrics struct {
	TotalCompanies    int     `json:"total_companies"`
	Gainers           int     `json:"gainers"`
	Losers            int     `json:"losers"`
	Unchanged         int     `json:"unchanged"`
	GainersPct        float64 `json:"gainers_pct"`
	LosersPct         float64 `json:"losers_pct"`
	AvgChange         float64 `json:"avg_change"`
	MedianChange      float64 `json:"median_change"`
	WeightedAvgChange float64 `json:"weighted_avg_change"`
	TotalVolume       int64   `json:"total_volume"`
	AvgVolume         float64 `json:"avg_volume"`
	Volatility        float64 `json:"volatility"`
	TotalMarketCap    float64 `json:"total_market_cap"`
}

// CalculateMarketMetrics returns nil for an empty table.
func CalculateMarketMetrics(rows []model.QuoteSnapshot) *MarketMetrics {
	if len(rows) == 0 {
		return nil
	}
	m := &MarketMetrics{TotalCompanies: len(rows)}
	var weighted float64
	for _, r := range rows {
		switch {
		case r.DailyChangePct > 0:
			m.Gainers++
		case r.DailyChangePct < 0:
			m.Losers++
		}
		m.TotalVolume += r.Volume
		m.TotalMarketCap += r.MarketCap
		weighted += r.DailyChangePct * r.MarketCap
	}
	m.Unchanged = m.TotalCompanies - m.Gainers - m.Losers

	n := float64(m.TotalCompanies)
	m.GainersPct = float64(m.Gainers) / n * 100
	m.LosersPct = float64(m.Losers) / n * 100

	changes := column(rows, changePct)
	m.AvgChange = mean(changes)
	m.MedianChange = median(changes)
	m.Volatility = stdDev(changes)
	m.AvgVolume = float64(m.TotalVolume) / n
	if m.TotalMarketCap > 0 {
		m.WeightedAvgChange = weighted / m.TotalMarketCap
	}
	return m
}
