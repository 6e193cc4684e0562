package analytics

import "MarketDashboard/internal/model"

// VolumeStats relates volume to price movement.
type VolumeStats struct {
	PriceVolumeCorrelation   float64 `json:"price_volume_correlation"`
	HighVolumeThreshold      float64 `json:"high_volume_threshold"`
	HighVolumeStocksCount    int     `json:"high_volume_stocks_count"`
	HighVolumeIncreaseCount  int     `json:"high_volume_increase_count"`
	HighVolumeDecreaseCount  int     `json:"high_volume_decrease_count"`
	LowVolumeAvgPerformance  float64 `json:"low_volume_avg_performance"`
	HighVolumeAvgPerformance float64 `json:"high_volume_avg_performance"`
	TotalMarketVolume        int64   `json:"total_market_volume"`
	AvgVolumeChange          float64 `json:"avg_volume_change"`
}

// Volume swings beyond this percentage count as large.
const largeVolumeSwingPct = 50

// VolumeAnalysis returns nil for an empty table. High volume is the top
// quartile, low volume the bottom quartile.
func VolumeAnalysis(rows []model.QuoteSnapshot) *VolumeStats {
	if len(rows) == 0 {
		return nil
	}
	vols := column(rows, volume)
	high := quantile(vols, 0.75)
	low := quantile(vols, 0.25)

	highRows := filter(rows, func(r model.QuoteSnapshot) bool { return float64(r.Volume) >= high })
	lowRows := filter(rows, func(r model.QuoteSnapshot) bool { return float64(r.Volume) < low })

	v := &VolumeStats{
		PriceVolumeCorrelation:   correlation(column(rows, changePct), column(rows, volumeChange)),
		HighVolumeThreshold:      high,
		HighVolumeStocksCount:    len(highRows),
		LowVolumeAvgPerformance:  mean(column(lowRows, changePct)),
		HighVolumeAvgPerformance: mean(column(highRows, changePct)),
		AvgVolumeChange:          mean(column(rows, volumeChange)),
	}
	for _, r := range rows {
		v.TotalMarketVolume += r.Volume
		if r.VolumeChangePct > largeVolumeSwingPct {
			v.HighVolumeIncreaseCount++
		}
		if r.VolumeChangePct < -largeVolumeSwingPct {
			v.HighVolumeDecreaseCount++
		}
	}
	return v
}
