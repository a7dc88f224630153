package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/commissiondesk/commissiondesk/internal/table"
)

func TestExtractedTable_MarksSummaryRows(t *testing.T) {
	tbl := table.Table{
		Name:   "Commissions",
		Header: []string{"Policy", "Amount"},
		Rows: [][]string{
			{"P-1", "100.00"},
			{"Grand Total", "100.00"},
		},
	}

	var b strings.Builder
	if err := ExtractedTable("doc-1", 0, tbl).Render(context.Background(), &b); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	html := b.String()

	if !strings.Contains(html, `class="summary-row"`) {
		t.Error("summary row not flagged")
	}
	if strings.Count(html, `class="summary-row"`) != 1 {
		t.Error("exactly one summary row expected")
	}
	if !strings.Contains(html, "/api/export/doc-1/0") {
		t.Error("export link missing")
	}
}

func TestExtractedTable_EscapesCells(t *testing.T) {
	tbl := table.Table{
		Header: []string{"Policy"},
		Rows:   [][]string{{`<script>alert("x")</script>`}},
	}

	var b strings.Builder
	if err := ExtractedTable("doc-1", 0, tbl).Render(context.Background(), &b); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(b.String(), "<script>") {
		t.Error("cell content not escaped")
	}
}

func TestDashboard_EmptyState(t *testing.T) {
	var b strings.Builder
	if err := Dashboard(nil).Render(context.Background(), &b); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(b.String(), "No statements yet") {
		t.Error("empty state missing")
	}
}

func TestLoginPage_Steps(t *testing.T) {
	var b strings.Builder
	if err := LoginPage("", false).Render(context.Background(), &b); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(b.String(), "/api/auth/otp") {
		t.Error("email step should post to otp endpoint")
	}

	b.Reset()
	if err := LoginPage("agent@example.com", true).Render(context.Background(), &b); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(b.String(), "/api/auth/verify") {
		t.Error("code step should post to verify endpoint")
	}
	if !strings.Contains(b.String(), "agent@example.com") {
		t.Error("email should be carried into the code step")
	}
}

func TestReviewPage_EscapesStorageKey(t *testing.T) {
	var b strings.Builder
	err := ReviewPage(ReviewData{
		ID:         "doc-1",
		FileName:   "july.pdf",
		StorageKey: "statements/july 2025.pdf",
	}).Render(context.Background(), &b)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(b.String(), "gcs_key=statements%2Fjuly+2025.pdf") {
		t.Error("storage key should be query-escaped in proxy URL")
	}
}
