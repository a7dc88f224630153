// Package extraction models the JSON produced by the external document
// extraction service. This application consumes the schema but never
// produces or validates it beyond defensive field-presence checks; the
// extraction intelligence itself lives server-side in another system.
package extraction

import (
	"encoding/json"
	"fmt"

	"github.com/commissiondesk/commissiondesk/internal/table"
)

// FieldValue is a single extracted metadata field with its confidence.
type FieldValue struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// DocumentMetadata holds the carrier/date/broker fields extracted from a
// statement.
type DocumentMetadata struct {
	Carrier       FieldValue `json:"carrier"`
	StatementDate FieldValue `json:"statement_date"`
	BrokerName    FieldValue `json:"broker_name"`
}

// TablePayload is one table as delivered by the extraction service.
// Some producers emit "header", others "headers"; both are accepted.
type TablePayload struct {
	Name      string                  `json:"name,omitempty"`
	Header    []string                `json:"header,omitempty"`
	Headers   []string                `json:"headers,omitempty"`
	Rows      [][]string              `json:"rows"`
	Detection *table.SummaryDetection `json:"summary_detection,omitempty"`
}

// HeaderRow returns the column names, preferring "header" over "headers".
func (p *TablePayload) HeaderRow() []string {
	if len(p.Header) > 0 {
		return p.Header
	}
	return p.Headers
}

// Result is the complete extraction output for one document. The
// quality, anomaly, and intelligence blocks are carried opaquely; this
// application reads but does not interpret them.
type Result struct {
	DocumentMetadata DocumentMetadata `json:"document_metadata"`
	Tables           []TablePayload   `json:"tables"`
	Quality          json.RawMessage  `json:"extraction_quality,omitempty"`
	Anomalies        json.RawMessage  `json:"extraction_anomalies,omitempty"`
	Intelligence     json.RawMessage  `json:"extraction_intelligence,omitempty"`

	// DetectedCompanies seeds the company-name review list when present.
	DetectedCompanies []string `json:"detected_companies,omitempty"`
}

// Parse decodes an extraction result from JSON.
func Parse(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse extraction result: %w", err)
	}
	return &r, nil
}

// ToTables converts the extraction payload into editable tables. Tables
// with no usable header are dropped. Ragged rows are padded or truncated
// to the header length so the row-length invariant holds from the start.
func (r *Result) ToTables() []table.Table {
	out := make([]table.Table, 0, len(r.Tables))

	for _, payload := range r.Tables {
		header := payload.HeaderRow()
		if len(header) == 0 {
			continue
		}

		t := table.Table{
			Name:      payload.Name,
			Header:    append([]string(nil), header...),
			Rows:      make([][]string, 0, len(payload.Rows)),
			Detection: payload.Detection,
		}

		for _, row := range payload.Rows {
			normalized := make([]string, len(header))
			copy(normalized, row)
			t.Rows = append(t.Rows, normalized)
		}

		out = append(out, t)
	}

	return out
}
