// Package table provides the in-memory model for extracted commission
// statement tables and the operations the review UI performs on them:
// structural edits, row selection, summary-row detection, and CSV export.
// This package has no UI or storage dependencies.
package table

// Table is the canonical editable model of one extracted table.
//
// Invariant: len(Rows[i]) == len(Header) for every row i. All operations
// in this package preserve it. Row and column indices are positional and
// valid only until the next structural mutation.
type Table struct {
	// Name is the optional table label supplied by the extraction service.
	Name string `json:"name,omitempty"`

	// Header holds the column names in display order. Names are not
	// required to be unique.
	Header []string `json:"header"`

	// Rows holds the cell data, one string per column.
	Rows [][]string `json:"rows"`

	// SummaryRows holds explicit summary-row marks keyed by row index.
	// When non-nil it is authoritative over heuristic detection.
	SummaryRows map[int]bool `json:"summary_rows,omitempty"`

	// Detection is optional server-supplied summary detection metadata.
	Detection *SummaryDetection `json:"summary_detection,omitempty"`
}

// SummaryDetection describes how the extraction service classified
// summary rows, when it did so.
type SummaryDetection struct {
	Enabled        bool    `json:"enabled"`
	Confidence     float64 `json:"detection_confidence"`
	Method         string  `json:"detection_method"`
	RemovedIndices []int   `json:"removed_indices"`
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return len(t.Rows) }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.Header) }

// Clone returns a deep copy of the table. Mutating the copy never
// affects the original.
func (t *Table) Clone() Table {
	out := Table{Name: t.Name}

	out.Header = make([]string, len(t.Header))
	copy(out.Header, t.Header)

	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = make([]string, len(row))
		copy(out.Rows[i], row)
	}

	if t.SummaryRows != nil {
		out.SummaryRows = make(map[int]bool, len(t.SummaryRows))
		for k, v := range t.SummaryRows {
			out.SummaryRows[k] = v
		}
	}

	if t.Detection != nil {
		d := *t.Detection
		d.RemovedIndices = make([]int, len(t.Detection.RemovedIndices))
		copy(d.RemovedIndices, t.Detection.RemovedIndices)
		out.Detection = &d
	}

	return out
}

// Equal reports whether two tables have the same header and rows.
// Summary marks and detection metadata are not compared.
func (t *Table) Equal(other *Table) bool {
	if len(t.Header) != len(other.Header) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Header {
		if t.Header[i] != other.Header[i] {
			return false
		}
	}
	for i := range t.Rows {
		if len(t.Rows[i]) != len(other.Rows[i]) {
			return false
		}
		for j := range t.Rows[i] {
			if t.Rows[i][j] != other.Rows[i][j] {
				return false
			}
		}
	}
	return true
}
