package model

import (
	"testing"

	"github.com/guregu/null/v6"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
		ok   bool
	}{
		{"", Period1Month, true},
		{"1 Day", Period1Day, true},
		{"YTD", PeriodYTD, true},
		{"5y", Period5Years, true},
		{"1d", Period("1d"), true},
		{"10 Years", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePeriod(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePeriod(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if !Period1Day.Intraday() || Period1Week.Intraday() {
		t.Error("only 1d/2d should be intraday")
	}
}

func TestRecordsUseColumnNames(t *testing.T) {
	p := QuotesPayload([]QuoteSnapshot{{Symbol: "AAPL", Company: "Apple Inc.", PERatio: null.FloatFrom(28.5)}})
	records, err := p.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	for _, col := range p.Columns() {
		if _, ok := records[0][col]; !ok {
			t.Errorf("record missing column %q", col)
		}
	}

	back, err := TableFromRecords(KindQuotes, records)
	if err != nil {
		t.Fatalf("TableFromRecords: %v", err)
	}
	if back.Quotes[0].Symbol != "AAPL" || back.Quotes[0].PERatio.Float64 != 28.5 {
		t.Errorf("unexpected rebuilt row: %+v", back.Quotes[0])
	}
}

func TestScalarIsNotTable(t *testing.T) {
	p := ScalarPayload(map[string]any{"a": 1})
	if p.IsTable() {
		t.Error("scalar payload reported as table")
	}
	if _, err := p.Records(); err == nil {
		t.Error("expected error flattening a scalar payload")
	}
	if p.Empty() {
		t.Error("scalar with one key should not be empty")
	}
}
