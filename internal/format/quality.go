package format

import "fmt"

// Completeness is the result of a data quality check on a table.
type Completeness struct {
	Valid          bool     `json:"is_valid"`
	MissingColumns []string `json:"missing_columns"`
	EmptyColumns   []string `json:"empty_columns"`
	QualityScore   float64  `json:"data_quality_score"`
	TotalRows      int      `json:"total_rows"`
	Issues         []string `json:"issues"`
}

// ValidateCompleteness checks that flattened records carry the required
// columns and scores the share of non-null cells among present columns.
func ValidateCompleteness(records []map[string]any, columns, required []string) Completeness {
	res := Completeness{
		Valid:          true,
		MissingColumns: []string{},
		EmptyColumns:   []string{},
		Issues:         []string{},
		TotalRows:      len(records),
	}
	if len(records) == 0 {
		res.Valid = false
		res.Issues = append(res.Issues, "table is empty")
		return res
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var available []string
	for _, col := range required {
		if present[col] {
			available = append(available, col)
		} else {
			res.MissingColumns = append(res.MissingColumns, col)
		}
	}
	if len(res.MissingColumns) > 0 {
		res.Valid = false
		res.Issues = append(res.Issues, fmt.Sprintf("missing required columns: %v", res.MissingColumns))
	}

	nonNull := 0
	for _, col := range available {
		count := 0
		for _, r := range records {
			if v, ok := r[col]; ok && v != nil {
				count++
			}
		}
		if count == 0 {
			res.EmptyColumns = append(res.EmptyColumns, col)
			res.Issues = append(res.Issues, fmt.Sprintf("column %q is completely empty", col))
		}
		nonNull += count
	}
	if total := len(records) * len(available); total > 0 {
		res.QualityScore = float64(nonNull) / float64(total) * 100
	}
	return res
}
