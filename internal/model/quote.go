package model

import "github.com/guregu/null/v6"

// QuoteSnapshot is the per-symbol row of a snapshot table.
//
// EstBuyVolume and EstSellVolume split the day's volume by the sign of the
// price change. They are a display approximation, not an order-flow measure.
type QuoteSnapshot struct {
	Symbol          string     `json:"symbol" msgpack:"symbol"`
	Company         string     `json:"company" msgpack:"company"`
	CurrentPrice    float64    `json:"current_price" msgpack:"current_price"`
	DailyChange     float64    `json:"daily_change" msgpack:"daily_change"`
	DailyChangePct  float64    `json:"daily_change_pct" msgpack:"daily_change_pct"`
	Volume          int64      `json:"volume" msgpack:"volume"`
	PreviousVolume  int64      `json:"previous_volume" msgpack:"previous_volume"`
	VolumeChange    int64      `json:"volume_change" msgpack:"volume_change"`
	VolumeChangePct float64    `json:"volume_change_pct" msgpack:"volume_change_pct"`
	EstBuyVolume    float64    `json:"est_buy_volume" msgpack:"est_buy_volume"`
	EstSellVolume   float64    `json:"est_sell_volume" msgpack:"est_sell_volume"`
	MarketCap       float64    `json:"market_cap" msgpack:"market_cap"`
	PERatio         null.Float `json:"pe_ratio" msgpack:"pe_ratio"`
	Sector          string     `json:"sector" msgpack:"sector"`
}

// QuoteColumns lists the flattened column names of a snapshot table.
var QuoteColumns = []string{
	"symbol", "company", "current_price", "daily_change", "daily_change_pct",
	"volume", "previous_volume", "volume_change", "volume_change_pct",
	"est_buy_volume", "est_sell_volume", "market_cap", "pe_ratio", "sector",
}
