package table

import "sort"

// Selection tracks the set of selected row indices per table, keyed by
// table position. Selections are independent across tables: switching
// the active table never disturbs another table's selection.
//
// Selections are positional and do not survive structural mutations;
// the Editor clears a table's selection whenever its rows change.
type Selection struct {
	sets map[int]map[int]bool
}

// NewSelection creates an empty selection tracker.
func NewSelection() *Selection {
	return &Selection{sets: make(map[int]map[int]bool)}
}

// Toggle flips the membership of one row index. It always succeeds.
func (s *Selection) Toggle(ti, i int) {
	set := s.sets[ti]
	if set == nil {
		set = make(map[int]bool)
		s.sets[ti] = set
	}
	if set[i] {
		delete(set, i)
	} else {
		set[i] = true
	}
}

// ToggleAll selects every row 0..rowCount-1, or clears the selection if
// the current selection size already equals rowCount. rowCount must be
// the live row count of the table.
func (s *Selection) ToggleAll(ti, rowCount int) {
	if len(s.sets[ti]) == rowCount && rowCount > 0 {
		delete(s.sets, ti)
		return
	}
	set := make(map[int]bool, rowCount)
	for i := 0; i < rowCount; i++ {
		set[i] = true
	}
	s.sets[ti] = set
}

// SelectRange adds the inclusive range [min(start,end), max(start,end)]
// to the existing selection, clamped to valid row indices. Additive, not
// a replacement.
func (s *Selection) SelectRange(ti, start, end, rowCount int) {
	lo, hi := start, end
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	if hi >= rowCount {
		hi = rowCount - 1
	}
	if lo > hi {
		return
	}

	set := s.sets[ti]
	if set == nil {
		set = make(map[int]bool)
		s.sets[ti] = set
	}
	for i := lo; i <= hi; i++ {
		set[i] = true
	}
}

// Clear empties the selection for one table.
func (s *Selection) Clear(ti int) {
	delete(s.sets, ti)
}

// ClearAll empties every table's selection.
func (s *Selection) ClearAll() {
	s.sets = make(map[int]map[int]bool)
}

// Selected returns the selected indices for a table, sorted ascending.
func (s *Selection) Selected(ti int) []int {
	set := s.sets[ti]
	if len(set) == 0 {
		return nil
	}
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Count returns the number of selected rows for a table.
func (s *Selection) Count(ti int) int {
	return len(s.sets[ti])
}

// AllSelected reports whether the selection is non-empty and covers
// every row.
func (s *Selection) AllSelected(ti, rowCount int) bool {
	n := len(s.sets[ti])
	return n > 0 && n == rowCount
}

// Indeterminate reports whether some but not all rows are selected.
func (s *Selection) Indeterminate(ti, rowCount int) bool {
	n := len(s.sets[ti])
	return n > 0 && n < rowCount
}
