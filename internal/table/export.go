package table

import "strings"

// ExportCSV serializes a table as comma-separated text: the header as a
// plain comma-joined line, then every data cell quoted. Embedded quotes
// are doubled. No trailing newline.
func ExportCSV(t *Table) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Header, ","))

	for _, row := range t.Rows {
		b.WriteByte('\n')
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
		}
	}

	return b.String()
}

// ExportFileName derives a CSV file name from the table name, falling
// back to a positional default.
func ExportFileName(t *Table, index int) string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "table-" + itoa(index+1) + ".csv"
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)
	if safe == "" {
		return "table-" + itoa(index+1) + ".csv"
	}
	return safe + ".csv"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var b [20]byte
	n := len(b)
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
