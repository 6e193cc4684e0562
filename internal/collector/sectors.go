package collector

// Sector is a named curated symbol list used by the market overview.
type Sector struct {
	Name    string
	Symbols []string
}

// Sectors is the curated overview membership, in display order.
var Sectors = []Sector{
	{"Technology", []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NFLX", "ADBE", "CRM", "ORCL", "CSCO", "INTC", "IBM", "HPQ", "QCOM"}},
	{"Semiconductor/AI", []string{"NVDA", "AMD", "TSM", "AVGO", "TXN", "ADI", "MRVL", "KLAC", "LRCX", "AMAT", "MU", "MCHP", "ON", "SWKS"}},
	{"Finance", []string{"JPM", "BAC", "WFC", "GS", "MS", "C", "V", "MA", "AXP", "BLK", "SPGI", "COF", "USB", "PNC"}},
	{"Healthcare", []string{"UNH", "JNJ", "PFE", "LLY", "ABT", "TMO", "DHR", "BMY", "AMGN", "GILD", "CVS", "MRK", "MDT", "ISRG"}},
	{"Consumer", []string{"TSLA", "HD", "WMT", "PG", "KO", "PEP", "COST", "NKE", "MCD", "SBUX", "TGT", "LOW", "DIS", "AMZN"}},
}

// sectorOf maps each curated symbol to the first sector listing it.
var sectorOf = func() map[string]string {
	m := make(map[string]string)
	for _, s := range Sectors {
		for _, sym := range s.Symbols {
			if _, ok := m[sym]; !ok {
				m[sym] = s.Name
			}
		}
	}
	return m
}()

// SectorOf returns the curated sector of a symbol, or "" if it is unlisted.
func SectorOf(symbol string) string {
	return sectorOf[symbol]
}

// OverviewSymbols returns the de-duplicated union of all sector lists,
// preserving first-seen order.
func OverviewSymbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range Sectors {
		for _, sym := range s.Symbols {
			if !seen[sym] {
				seen[sym] = true
				out = append(out, sym)
			}
		}
	}
	return out
}

// Preset is a quick-select group of symbols.
type Preset struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Symbols []string `json:"symbols"`
}

// Presets are the quick-select groups offered next to the search box.
var Presets = []Preset{
	{"top10", "Top 10 by Market Cap", []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "AVGO", "LLY", "WMT"}},
	{"tech_giants", "Tech Giants", []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META"}},
	{"financials", "Financial Sector", []string{"JPM", "BAC", "WFC", "GS", "MS", "C"}},
}

// FindPreset looks a preset up by name.
func FindPreset(name string) (Preset, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
