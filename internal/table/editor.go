package table

// ChangeFunc receives a snapshot of all tables after a mutation.
// It is the only channel by which edits reach persistence.
type ChangeFunc func(tables []Table)

// CellRef identifies a single cell by position.
type CellRef struct {
	Table int
	Row   int
	Col   int
}

// Editor applies structural edits to a set of extracted tables and
// notifies the owning caller after every successful mutation.
//
// All operations are synchronous and in-memory. Operations with invalid
// indices are silent no-ops: call sites are expected to supply indices
// derived from the current state, so there is no failure to surface.
// A no-op does not fire the change notifier.
//
// Editor is not safe for concurrent use; the review flow is
// single-user, event-driven editing.
type Editor struct {
	tables     []Table
	selection  *Selection
	onChange   ChangeFunc
	editTarget *CellRef
}

// NewEditor creates an editor over the given tables. The tables are
// deep-copied so the editor owns its state. onChange may be nil.
func NewEditor(tables []Table, onChange ChangeFunc) *Editor {
	owned := make([]Table, len(tables))
	for i := range tables {
		owned[i] = tables[i].Clone()
	}
	return &Editor{
		tables:    owned,
		selection: NewSelection(),
		onChange:  onChange,
	}
}

// Tables returns a deep copy of the current table state.
func (e *Editor) Tables() []Table {
	out := make([]Table, len(e.tables))
	for i := range e.tables {
		out[i] = e.tables[i].Clone()
	}
	return out
}

// Table returns a deep copy of the table at index ti, and false if the
// index is out of range.
func (e *Editor) Table(ti int) (Table, bool) {
	if ti < 0 || ti >= len(e.tables) {
		return Table{}, false
	}
	return e.tables[ti].Clone(), true
}

// TableCount returns the number of tables under edit.
func (e *Editor) TableCount() int { return len(e.tables) }

// notify fires the change callback with a snapshot. Called exactly once
// per successful mutation.
func (e *Editor) notify() {
	if e.onChange != nil {
		e.onChange(e.Tables())
	}
}

// EditCell replaces a single cell value. Out-of-bounds indices are a
// silent no-op.
func (e *Editor) EditCell(ti, row, col int, value string) {
	if ti < 0 || ti >= len(e.tables) {
		return
	}
	t := &e.tables[ti]
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Header) {
		return
	}
	t.Rows[row][col] = value
	e.notify()
}

// AddRow inserts an empty row at the given index, shifting subsequent
// rows down. at may equal the row count to append.
func (e *Editor) AddRow(ti, at int) {
	if ti < 0 || ti >= len(e.tables) {
		return
	}
	t := &e.tables[ti]
	if at < 0 || at > len(t.Rows) {
		return
	}
	row := make([]string, len(t.Header))
	t.Rows = append(t.Rows, nil)
	copy(t.Rows[at+1:], t.Rows[at:])
	t.Rows[at] = row
	shiftMetadataForInsert(t, at)
	e.selection.Clear(ti)
	e.notify()
}

// DeleteRow removes the row at the given index.
func (e *Editor) DeleteRow(ti, i int) {
	e.DeleteRows(ti, []int{i})
}

// DeleteRows removes a batch of rows. Indices are processed from highest
// to lowest so earlier removals cannot shift the positions of later ones.
// Invalid or duplicate indices within the batch are skipped. The table's
// selection is cleared afterwards; positional selections cannot survive a
// structural change and must be re-derived.
func (e *Editor) DeleteRows(ti int, indices []int) {
	if ti < 0 || ti >= len(e.tables) || len(indices) == 0 {
		return
	}
	t := &e.tables[ti]

	ordered := make([]int, len(indices))
	copy(ordered, indices)
	sortDescending(ordered)

	deleted := 0
	prev := -1
	for _, i := range ordered {
		if i == prev || i < 0 || i >= len(t.Rows) {
			continue
		}
		prev = i
		t.Rows = append(t.Rows[:i], t.Rows[i+1:]...)
		shiftMetadataForRemoval(t, i)
		deleted++
	}

	if deleted == 0 {
		return
	}
	e.selection.Clear(ti)
	e.notify()
}

// shiftMetadataForInsert renumbers row-indexed summary metadata after a
// row is inserted at the given index. Explicit marks and server-detected
// indices must track the rows they classify or the classification lands
// on a neighbor.
func shiftMetadataForInsert(t *Table, at int) {
	if t.SummaryRows != nil {
		shifted := make(map[int]bool, len(t.SummaryRows))
		for i, marked := range t.SummaryRows {
			if i >= at {
				shifted[i+1] = marked
			} else {
				shifted[i] = marked
			}
		}
		t.SummaryRows = shifted
	}
	if t.Detection != nil {
		for j, i := range t.Detection.RemovedIndices {
			if i >= at {
				t.Detection.RemovedIndices[j] = i + 1
			}
		}
	}
}

// shiftMetadataForRemoval drops the summary metadata for a removed row
// and renumbers entries below it.
func shiftMetadataForRemoval(t *Table, removed int) {
	if t.SummaryRows != nil {
		shifted := make(map[int]bool, len(t.SummaryRows))
		for i, marked := range t.SummaryRows {
			switch {
			case i == removed:
				// dropped with the row
			case i > removed:
				shifted[i-1] = marked
			default:
				shifted[i] = marked
			}
		}
		t.SummaryRows = shifted
	}
	if t.Detection != nil && len(t.Detection.RemovedIndices) > 0 {
		kept := t.Detection.RemovedIndices[:0]
		for _, i := range t.Detection.RemovedIndices {
			switch {
			case i == removed:
				// dropped with the row
			case i > removed:
				kept = append(kept, i-1)
			default:
				kept = append(kept, i)
			}
		}
		t.Detection.RemovedIndices = kept
	}
}

// RenameColumn replaces the header label at the given index. Row data is
// untouched.
func (e *Editor) RenameColumn(ti, col int, name string) {
	if ti < 0 || ti >= len(e.tables) {
		return
	}
	t := &e.tables[ti]
	if col < 0 || col >= len(t.Header) {
		return
	}
	t.Header[col] = name
	e.notify()
}

// AddColumn inserts a new column at the given index with the supplied
// header label and an empty cell in every row. at may equal the column
// count to append. An empty name gets a default label.
func (e *Editor) AddColumn(ti, at int, name string) {
	if ti < 0 || ti >= len(e.tables) {
		return
	}
	t := &e.tables[ti]
	if at < 0 || at > len(t.Header) {
		return
	}
	if name == "" {
		name = "New Column"
	}

	t.Header = append(t.Header, "")
	copy(t.Header[at+1:], t.Header[at:])
	t.Header[at] = name

	for i := range t.Rows {
		row := append(t.Rows[i], "")
		copy(row[at+1:], row[at:])
		row[at] = ""
		t.Rows[i] = row
	}
	e.notify()
}

// DeleteColumn removes the header label and the corresponding cell from
// every row.
func (e *Editor) DeleteColumn(ti, col int) {
	if ti < 0 || ti >= len(e.tables) {
		return
	}
	t := &e.tables[ti]
	if col < 0 || col >= len(t.Header) {
		return
	}
	t.Header = append(t.Header[:col], t.Header[col+1:]...)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i][:col], t.Rows[i][col+1:]...)
	}
	e.notify()
}

// StartCellEdit records the cell currently being edited. Starting a new
// edit abandons an unsaved prior one; the last writer wins.
func (e *Editor) StartCellEdit(ti, row, col int) {
	e.editTarget = &CellRef{Table: ti, Row: row, Col: col}
}

// CancelCellEdit abandons the in-flight edit target, if any.
func (e *Editor) CancelCellEdit() {
	e.editTarget = nil
}

// EditTarget returns the cell currently being edited, and false if no
// edit is in flight.
func (e *Editor) EditTarget() (CellRef, bool) {
	if e.editTarget == nil {
		return CellRef{}, false
	}
	return *e.editTarget, true
}

// MarkSummaryRow explicitly marks the row as a summary row. Once any
// explicit mark exists, explicit marks govern classification for the
// whole table.
func (e *Editor) MarkSummaryRow(ti, i int) {
	e.setSummaryMark(ti, i, true)
}

// UnmarkSummaryRow explicitly clears a summary mark.
func (e *Editor) UnmarkSummaryRow(ti, i int) {
	e.setSummaryMark(ti, i, false)
}

func (e *Editor) setSummaryMark(ti, i int, marked bool) {
	if ti < 0 || ti >= len(e.tables) {
		return
	}
	t := &e.tables[ti]
	if i < 0 || i >= len(t.Rows) {
		return
	}
	if t.SummaryRows == nil {
		t.SummaryRows = make(map[int]bool)
	}
	t.SummaryRows[i] = marked
	e.notify()
}

// AutoDetectSummaryRows scans every row of the table with the summary
// heuristics and persists the result as explicit marks, returning the
// number of rows found. After this call explicit marks govern, freezing
// classification even if row text changes later.
func (e *Editor) AutoDetectSummaryRows(ti int) int {
	if ti < 0 || ti >= len(e.tables) {
		return 0
	}
	t := &e.tables[ti]

	marks := make(map[int]bool)
	count := 0
	for i, row := range t.Rows {
		if matchesSummaryHeuristic(row) {
			marks[i] = true
			count++
		}
	}
	t.SummaryRows = marks
	e.notify()
	return count
}

// ToggleRow flips the selection state of one row.
func (e *Editor) ToggleRow(ti, i int) {
	if ti < 0 || ti >= len(e.tables) {
		return
	}
	if i < 0 || i >= len(e.tables[ti].Rows) {
		return
	}
	e.selection.Toggle(ti, i)
}

// ToggleAll selects every row of the table, or clears the selection if
// all rows are already selected. The row count is recomputed from the
// live table, never cached.
func (e *Editor) ToggleAll(ti int) {
	if ti < 0 || ti >= len(e.tables) {
		return
	}
	e.selection.ToggleAll(ti, len(e.tables[ti].Rows))
}

// SelectRange adds the inclusive index range between start and end (in
// either order) to the existing selection.
func (e *Editor) SelectRange(ti, start, end int) {
	if ti < 0 || ti >= len(e.tables) {
		return
	}
	e.selection.SelectRange(ti, start, end, len(e.tables[ti].Rows))
}

// ClearSelection empties the selection for one table.
func (e *Editor) ClearSelection(ti int) {
	e.selection.Clear(ti)
}

// SelectedRows returns the selected row indices for a table, sorted
// ascending.
func (e *Editor) SelectedRows(ti int) []int {
	return e.selection.Selected(ti)
}

// AllSelected reports whether every row of the table is selected.
func (e *Editor) AllSelected(ti int) bool {
	if ti < 0 || ti >= len(e.tables) {
		return false
	}
	return e.selection.AllSelected(ti, len(e.tables[ti].Rows))
}

// Indeterminate reports whether some but not all rows are selected.
func (e *Editor) Indeterminate(ti int) bool {
	if ti < 0 || ti >= len(e.tables) {
		return false
	}
	return e.selection.Indeterminate(ti, len(e.tables[ti].Rows))
}

// DeleteSelectedRows removes every selected row of the table.
func (e *Editor) DeleteSelectedRows(ti int) {
	e.DeleteRows(ti, e.SelectedRows(ti))
}

// sortDescending sorts ints high to low in place.
func sortDescending(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] > s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
