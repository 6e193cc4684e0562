package analytics

import (
	"math"

	"MarketDashboard/internal/model"
)

// UnusualActivity lists rows moving more than two standard deviations.
type UnusualActivity struct {
	PriceThreshold  float64               `json:"price_threshold"`
	VolumeThreshold float64               `json:"volume_threshold"`
	PriceUp         []model.QuoteSnapshot `json:"unusual_price_up"`
	PriceDown       []model.QuoteSnapshot `json:"unusual_price_down"`
	VolumeUp        []model.QuoteSnapshot `json:"unusual_volume_up"`
	VolumeDown      []model.QuoteSnapshot `json:"unusual_volume_down"`
	Combined        []model.QuoteSnapshot `json:"combined_unusual"`
}

// DetectUnusualActivity returns nil for an empty table.
func DetectUnusualActivity(rows []model.QuoteSnapshot) *UnusualActivity {
	if len(rows) == 0 {
		return nil
	}
	pt := stdDev(column(rows, changePct)) * 2
	vt := stdDev(column(rows, volumeChange)) * 2

	return &UnusualActivity{
		PriceThreshold:  pt,
		VolumeThreshold: vt,
		PriceUp:         filter(rows, func(r model.QuoteSnapshot) bool { return r.DailyChangePct > pt }),
		PriceDown:       filter(rows, func(r model.QuoteSnapshot) bool { return r.DailyChangePct < -pt }),
		VolumeUp:        filter(rows, func(r model.QuoteSnapshot) bool { return r.VolumeChangePct > vt }),
		VolumeDown:      filter(rows, func(r model.QuoteSnapshot) bool { return r.VolumeChangePct < -vt }),
		Combined: filter(rows, func(r model.QuoteSnapshot) bool {
			return math.Abs(r.DailyChangePct) > pt && math.Abs(r.VolumeChangePct) > vt
		}),
	}
}
