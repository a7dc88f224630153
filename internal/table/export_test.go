package table

import (
	"strings"
	"testing"
)

func TestExportCSV(t *testing.T) {
	tbl := &Table{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"1", "2"}},
	}

	got := ExportCSV(tbl)
	want := "a,b\n\"1\",\"2\""
	if got != want {
		t.Errorf("ExportCSV = %q, want %q", got, want)
	}
}

func TestExportCSV_EscapesQuotes(t *testing.T) {
	tbl := &Table{
		Header: []string{"Insured", "Amount"},
		Rows:   [][]string{{`Acme "West" Corp`, "42.00"}},
	}

	got := ExportCSV(tbl)
	if !strings.Contains(got, `"Acme ""West"" Corp"`) {
		t.Errorf("embedded quotes must be doubled, got %q", got)
	}
}

func TestExportCSV_EmptyTable(t *testing.T) {
	tbl := &Table{Header: []string{"a", "b"}}
	if got := ExportCSV(tbl); got != "a,b" {
		t.Errorf("expected header only, got %q", got)
	}
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		index int
		want  string
	}{
		{"named", Table{Name: "Commission Detail"}, 0, "Commission-Detail.csv"},
		{"unnamed", Table{}, 1, "table-2.csv"},
		{"whitespace only", Table{Name: "   "}, 0, "table-1.csv"},
		{"special characters stripped", Table{Name: "Q3/2025 (final)"}, 0, "Q32025-final.csv"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExportFileName(&tc.table, tc.index); got != tc.want {
				t.Errorf("ExportFileName = %q, want %q", got, tc.want)
			}
		})
	}
}
