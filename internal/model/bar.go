package model

import "time"

// HistoricalBar represents a single OHLCV bar for one symbol.
type HistoricalBar struct {
	Symbol string    `json:"symbol" msgpack:"symbol"`
	Date   time.Time `json:"date" msgpack:"date"`
	Open   float64   `json:"open" msgpack:"open"`
	High   float64   `json:"high" msgpack:"high"`
	Low    float64   `json:"low" msgpack:"low"`
	Close  float64   `json:"close" msgpack:"close"`
	Volume int64     `json:"volume" msgpack:"volume"`
}

// BarColumns lists the flattened column names of a bar table.
var BarColumns = []string{"symbol", "date", "open", "high", "low", "close", "volume"}

// GroupBySymbol splits bars by symbol, keeping the input order within each group.
func GroupBySymbol(bars []HistoricalBar) map[string][]HistoricalBar {
	out := make(map[string][]HistoricalBar)
	for _, b := range bars {
		out[b.Symbol] = append(out[b.Symbol], b)
	}
	return out
}
