package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"MarketDashboard/internal/model"
)

// UniverseSource lists the index membership.
type UniverseSource interface {
	FetchUniverse(ctx context.Context) ([]model.CompanyRecord, error)
}

// WikipediaUniverse scrapes the constituents table of an encyclopedia page.
type WikipediaUniverse struct {
	URL    string
	Client *http.Client
}

// FallbackUniverse is served when the universe source is unreachable.
var FallbackUniverse = []model.CompanyRecord{
	{Symbol: "AAPL", Name: "Apple Inc."},
	{Symbol: "MSFT", Name: "Microsoft Corporation"},
	{Symbol: "GOOGL", Name: "Alphabet Inc."},
	{Symbol: "AMZN", Name: "Amazon.com Inc."},
	{Symbol: "NVDA", Name: "NVIDIA Corporation"},
	{Symbol: "META", Name: "Meta Platforms Inc."},
	{Symbol: "TSLA", Name: "Tesla Inc."},
	{Symbol: "UNH", Name: "UnitedHealth Group Inc."},
	{Symbol: "JNJ", Name: "Johnson & Johnson"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co."},
}

func (w *WikipediaUniverse) FetchUniverse(ctx context.Context) ([]model.CompanyRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch universe: status %d", resp.StatusCode)
	}
	return ParseUniverseTable(resp.Body)
}

// ParseUniverseTable reads the first HTML table that has "Symbol" and
// "Security" header cells.
func ParseUniverseTable(r io.Reader) ([]model.CompanyRecord, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse universe html: %w", err)
	}
	for _, table := range findAll(doc, "table") {
		rows := findAll(table, "tr")
		if len(rows) == 0 {
			continue
		}
		symCol, nameCol := -1, -1
		for i, cell := range cells(rows[0]) {
			switch cellText(cell) {
			case "Symbol":
				symCol = i
			case "Security":
				nameCol = i
			}
		}
		if symCol < 0 || nameCol < 0 {
			continue
		}
		var out []model.CompanyRecord
		for _, row := range rows[1:] {
			cs := cells(row)
			if len(cs) <= symCol || len(cs) <= nameCol {
				continue
			}
			sym := strings.ReplaceAll(cellText(cs[symCol]), ".", "-")
			name := cellText(cs[nameCol])
			if sym == "" {
				continue
			}
			out = append(out, model.CompanyRecord{Symbol: sym, Name: name})
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("universe table has no rows")
		}
		return out, nil
	}
	return nil, fmt.Errorf("universe table not found")
}

// SortByName orders records by company name, then symbol.
func SortByName(records []model.CompanyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].Symbol < records[j].Symbol
	})
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
			if tag == "table" {
				return // nested tables are not constituents tables
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func cells(row *html.Node) []*html.Node {
	var out []*html.Node
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			out = append(out, c)
		}
	}
	return out
}

func cellText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
