package model

import "github.com/guregu/null/v6"

// CompanyRecord is one member of the index universe.
type CompanyRecord struct {
	Symbol string `json:"symbol" msgpack:"symbol"`
	Name   string `json:"name" msgpack:"name"`
}

// CompanyColumns lists the flattened column names of a company table.
var CompanyColumns = []string{"symbol", "name"}

// CompanyInfo is the descriptive info bag returned by a provider.
type CompanyInfo struct {
	Symbol           string     `json:"symbol" msgpack:"symbol"`
	Name             string     `json:"name" msgpack:"name"`
	CurrentPrice     float64    `json:"current_price" msgpack:"current_price"`
	MarketCap        float64    `json:"market_cap" msgpack:"market_cap"`
	Sector           string     `json:"sector" msgpack:"sector"`
	Industry         string     `json:"industry" msgpack:"industry"`
	Employees        int64      `json:"employees" msgpack:"employees"`
	Website          string     `json:"website" msgpack:"website"`
	Description      string     `json:"description" msgpack:"description"`
	TrailingPE       null.Float `json:"trailing_pe" msgpack:"trailing_pe"`
	ForwardPE        null.Float `json:"forward_pe" msgpack:"forward_pe"`
	DividendYield    null.Float `json:"dividend_yield" msgpack:"dividend_yield"`
	Beta             null.Float `json:"beta" msgpack:"beta"`
	FiftyTwoWeekHigh null.Float `json:"fifty_two_week_high" msgpack:"fifty_two_week_high"`
	FiftyTwoWeekLow  null.Float `json:"fifty_two_week_low" msgpack:"fifty_two_week_low"`
}

// PERatio returns the trailing P/E, falling back to the forward P/E.
func (c *CompanyInfo) PERatio() null.Float {
	if c.TrailingPE.Valid {
		return c.TrailingPE
	}
	return c.ForwardPE
}
