package model

// Period is a provider range code such as "1mo" or "ytd".
type Period string

const (
	Period1Day    Period = "2d"
	Period1Week   Period = "1wk"
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	PeriodYTD     Period = "ytd"
	Period1Year   Period = "1y"
	Period5Years  Period = "5y"
)

// PeriodOption pairs a selector label with its range code.
type PeriodOption struct {
	Label  string `json:"label"`
	Period Period `json:"period"`
}

// PeriodOptions is the period selector in display order.
var PeriodOptions = []PeriodOption{
	{"1 Day", Period1Day},
	{"1 Week", Period1Week},
	{"1 Month", Period1Month},
	{"3 Months", Period3Months},
	{"6 Months", Period6Months},
	{"YTD", PeriodYTD},
	{"1 Year", Period1Year},
	{"5 Years", Period5Years},
}

// DefaultPeriod is used when no period is selected.
const DefaultPeriod = Period1Month

// ParsePeriod accepts either a selector label or a range code.
func ParsePeriod(s string) (Period, bool) {
	if s == "" {
		return DefaultPeriod, true
	}
	for _, o := range PeriodOptions {
		if o.Label == s || string(o.Period) == s {
			return o.Period, true
		}
	}
	if s == "1d" {
		return Period("1d"), true
	}
	return "", false
}

// Intraday reports whether the period is served from hourly bars.
func (p Period) Intraday() bool {
	return p == "1d" || p == "2d"
}
