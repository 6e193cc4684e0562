package collector

import (
	"MarketDashboard/internal/model"
)

// Buy/sell split of daily volume. A non-negative price change credits the
// larger share to buyers. This is a display approximation, not order flow.
const (
	buyShareUp   = 0.6
	buyShareDown = 0.4
)

// EstimateBuySell splits volume into estimated buy and sell volume.
func EstimateBuySell(volume int64, change float64) (buy, sell float64) {
	share := buyShareDown
	if change >= 0 {
		share = buyShareUp
	}
	buy = float64(volume) * share
	return buy, float64(volume) - buy
}

// buildQuote derives a snapshot row from daily bars (oldest first, at least
// one) and the provider info bag.
func buildQuote(symbol string, bars []model.HistoricalBar, info *model.CompanyInfo) model.QuoteSnapshot {
	cur := bars[len(bars)-1]
	prev := cur
	if len(bars) > 1 {
		prev = bars[len(bars)-2]
	}

	change := cur.Close - prev.Close
	changePct := 0.0
	if prev.Close != 0 {
		changePct = change / prev.Close * 100
	}
	volChangePct := 0.0
	if prev.Volume > 0 {
		volChangePct = float64(cur.Volume-prev.Volume) / float64(prev.Volume) * 100
	}
	buy, sell := EstimateBuySell(cur.Volume, change)

	q := model.QuoteSnapshot{
		Symbol:          symbol,
		Company:         symbol,
		CurrentPrice:    cur.Close,
		DailyChange:     change,
		DailyChangePct:  changePct,
		Volume:          cur.Volume,
		PreviousVolume:  prev.Volume,
		VolumeChange:    cur.Volume - prev.Volume,
		VolumeChangePct: volChangePct,
		EstBuyVolume:    buy,
		EstSellVolume:   sell,
		Sector:          "Unknown",
	}
	if info != nil {
		if info.Name != "" {
			q.Company = info.Name
		}
		if info.Sector != "" {
			q.Sector = info.Sector
		}
		q.MarketCap = info.MarketCap
		q.PERatio = info.PERatio()
	}
	return q
}
