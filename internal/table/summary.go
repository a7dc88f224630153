package table

import (
	"regexp"
	"sort"
	"strings"
)

// summaryPatterns are tested in order against a row's cells joined with
// spaces and lower-cased. A match on any pattern classifies the row as a
// summary (totals/subtotal) row. More specific phrases come first.
var summaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`grand\s+total`),
	regexp.MustCompile(`subtotal`),
	regexp.MustCompile(`total\s+for\b`),
	regexp.MustCompile(`total:`),
	regexp.MustCompile(`^total$`),
	regexp.MustCompile(`summary$`),
	regexp.MustCompile(`sum:`),
}

// IsSummaryRow reports whether the row at index i is a totals/subtotal row.
//
// Resolution order:
//  1. Explicit marks (Table.SummaryRows) decide when present.
//  2. Otherwise the heuristic patterns are tested against the row text.
//  3. No match means not a summary row.
//
// Out-of-range indices are never summary rows.
func IsSummaryRow(t *Table, i int) bool {
	if i < 0 || i >= len(t.Rows) {
		return false
	}
	if t.SummaryRows != nil {
		return t.SummaryRows[i]
	}
	return matchesSummaryHeuristic(t.Rows[i])
}

// matchesSummaryHeuristic tests the joined, lower-cased row text against
// the summary patterns.
func matchesSummaryHeuristic(row []string) bool {
	joined := strings.ToLower(strings.TrimSpace(strings.Join(row, " ")))
	if joined == "" {
		return false
	}
	for _, re := range summaryPatterns {
		if re.MatchString(joined) {
			return true
		}
	}
	return false
}

// SummaryRowIndices returns the indices of all summary rows, sorted
// ascending. Sources are consulted in order and never combined:
// explicit marks first, then server-supplied detection metadata, then a
// full heuristic scan.
func SummaryRowIndices(t *Table) []int {
	if t.SummaryRows != nil {
		indices := make([]int, 0, len(t.SummaryRows))
		for i, marked := range t.SummaryRows {
			if marked && i >= 0 && i < len(t.Rows) {
				indices = append(indices, i)
			}
		}
		sort.Ints(indices)
		return indices
	}

	if t.Detection != nil && len(t.Detection.RemovedIndices) > 0 {
		indices := make([]int, 0, len(t.Detection.RemovedIndices))
		for _, i := range t.Detection.RemovedIndices {
			if i >= 0 && i < len(t.Rows) {
				indices = append(indices, i)
			}
		}
		sort.Ints(indices)
		return indices
	}

	var indices []int
	for i, row := range t.Rows {
		if matchesSummaryHeuristic(row) {
			indices = append(indices, i)
		}
	}
	return indices
}
