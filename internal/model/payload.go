package model

import (
	"encoding/json"
	"fmt"
)

// PayloadKind tags the body carried by a Payload.
type PayloadKind string

const (
	KindCompanies PayloadKind = "companies"
	KindQuotes    PayloadKind = "quotes"
	KindBars      PayloadKind = "bars"
	KindScalar    PayloadKind = "scalar"
)

// Payload is a cached or snapshotted value. Exactly one body matches Kind.
type Payload struct {
	Kind      PayloadKind     `json:"kind" msgpack:"kind"`
	Companies []CompanyRecord `json:"companies,omitempty" msgpack:"companies,omitempty"`
	Quotes    []QuoteSnapshot `json:"quotes,omitempty" msgpack:"quotes,omitempty"`
	Bars      []HistoricalBar `json:"bars,omitempty" msgpack:"bars,omitempty"`
	Scalar    map[string]any  `json:"scalar,omitempty" msgpack:"scalar,omitempty"`
}

func CompaniesPayload(rows []CompanyRecord) Payload {
	return Payload{Kind: KindCompanies, Companies: rows}
}

func QuotesPayload(rows []QuoteSnapshot) Payload {
	return Payload{Kind: KindQuotes, Quotes: rows}
}

func BarsPayload(rows []HistoricalBar) Payload {
	return Payload{Kind: KindBars, Bars: rows}
}

func ScalarPayload(v map[string]any) Payload {
	return Payload{Kind: KindScalar, Scalar: v}
}

// IsTable reports whether the payload carries rows.
func (p Payload) IsTable() bool {
	return p.Kind == KindCompanies || p.Kind == KindQuotes || p.Kind == KindBars
}

// Len returns the row count for tables and the key count for scalars.
func (p Payload) Len() int {
	switch p.Kind {
	case KindCompanies:
		return len(p.Companies)
	case KindQuotes:
		return len(p.Quotes)
	case KindBars:
		return len(p.Bars)
	case KindScalar:
		return len(p.Scalar)
	}
	return 0
}

// Empty reports whether the payload has no rows or values.
func (p Payload) Empty() bool { return p.Len() == 0 }

// Columns returns the ordered column names of a table payload.
func (p Payload) Columns() []string {
	switch p.Kind {
	case KindCompanies:
		return CompanyColumns
	case KindQuotes:
		return QuoteColumns
	case KindBars:
		return BarColumns
	}
	return nil
}

// Records flattens a table payload into one map per row keyed by column name.
func (p Payload) Records() ([]map[string]any, error) {
	var rows any
	switch p.Kind {
	case KindCompanies:
		rows = p.Companies
	case KindQuotes:
		rows = p.Quotes
	case KindBars:
		rows = p.Bars
	default:
		return nil, fmt.Errorf("payload kind %q is not a table", p.Kind)
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal rows: %w", err)
	}
	records := []map[string]any{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("flatten rows: %w", err)
	}
	return records, nil
}

// TableFromRecords rebuilds a typed table payload from flattened records.
func TableFromRecords(kind PayloadKind, records []map[string]any) (Payload, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return Payload{}, fmt.Errorf("marshal records: %w", err)
	}
	p := Payload{Kind: kind}
	switch kind {
	case KindCompanies:
		err = json.Unmarshal(data, &p.Companies)
	case KindQuotes:
		err = json.Unmarshal(data, &p.Quotes)
	case KindBars:
		err = json.Unmarshal(data, &p.Bars)
	default:
		return Payload{}, fmt.Errorf("payload kind %q is not a table", kind)
	}
	if err != nil {
		return Payload{}, fmt.Errorf("rebuild %s table: %w", kind, err)
	}
	return p, nil
}
