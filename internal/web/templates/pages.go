package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"github.com/commissiondesk/commissiondesk/internal/table"
)

// DocumentCard is the dashboard view of one statement.
type DocumentCard struct {
	ID            string
	FileName      string
	Carrier       string
	StatementDate string
	Status        string
	UploadedAt    time.Time
}

// ReviewData carries everything the review page renders.
type ReviewData struct {
	ID         string
	FileName   string
	Carrier    string
	StorageKey string
	Tables     []table.Table
	Companies  []string
}

// LoginPage renders the email/OTP sign-in form. After a code has been
// issued the form switches to the code entry step.
func LoginPage(email string, codeSent bool) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !codeSent {
			_, err := fmt.Fprintf(w, `<section class="card login">
<h1>Sign in</h1>
<form method="post" action="/api/auth/otp">
<label for="email">Work email</label>
<input type="email" id="email" name="email" value="%s" required autofocus>
<button type="submit">Send code</button>
</form>
</section>`, templ.EscapeString(email))
			return err
		}
		_, err := fmt.Fprintf(w, `<section class="card login">
<h1>Enter your code</h1>
<p>We sent a 6-digit code to <strong>%s</strong>.</p>
<form method="post" action="/api/auth/verify">
<input type="hidden" name="email" value="%s">
<label for="code">Code</label>
<input type="text" id="code" name="code" inputmode="numeric" pattern="[0-9]{6}" required autofocus>
<button type="submit">Verify</button>
</form>
</section>`, templ.EscapeString(email), templ.EscapeString(email))
		return err
	})
	return layout("Sign in", body)
}

// Dashboard renders the statement list with per-document quick actions.
func Dashboard(docs []DocumentCard) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="card">
<h1>Commission statements</h1>
<table class="doc-list">
<thead><tr><th>File</th><th>Carrier</th><th>Statement date</th><th>Status</th><th>Uploaded</th><th></th></tr></thead>
<tbody>`); err != nil {
			return err
		}
		if len(docs) == 0 {
			if _, err := io.WriteString(w, `<tr><td colspan="6" class="empty">No statements yet.</td></tr>`); err != nil {
				return err
			}
		}
		for _, d := range docs {
			if _, err := fmt.Fprintf(w,
				`<tr><td>%s</td><td>%s</td><td>%s</td><td><span class="status status-%s">%s</span></td><td>%s</td><td><a class="btn" href="/review/%s">Review</a></td></tr>`,
				templ.EscapeString(d.FileName),
				templ.EscapeString(d.Carrier),
				templ.EscapeString(d.StatementDate),
				templ.EscapeString(d.Status),
				templ.EscapeString(d.Status),
				templ.EscapeString(d.UploadedAt.Format("Jan 2, 2006 15:04")),
				templ.EscapeString(d.ID),
			); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody>
</table>
</section>`)
		return err
	})
	return layout("Dashboard", body)
}

// ReviewPage renders the three-pane review view: PDF preview, extracted
// tables, and the company-name panel.
func ReviewPage(data ReviewData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section class="review" data-document-id="%s">
<div class="pane pane-preview">
<h2>%s</h2>
<div class="preview-toolbar">
<button data-zoom="out">−</button>
<button data-zoom="in">+</button>
<a class="btn" href="/api/pdf-proxy?gcs_key=%s" download="%s">Download PDF</a>
</div>
<embed class="pdf-frame" src="/api/pdf-proxy?gcs_key=%s" type="application/pdf">
</div>
<div class="pane pane-tables">`,
			templ.EscapeString(data.ID),
			templ.EscapeString(data.FileName),
			url.QueryEscape(data.StorageKey),
			templ.EscapeString(data.FileName),
			url.QueryEscape(data.StorageKey),
		); err != nil {
			return err
		}
		for ti, t := range data.Tables {
			if err := ExtractedTable(data.ID, ti, t).Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</div>
<div class="pane pane-companies">
<h2>Companies</h2>
<ul class="company-list">`); err != nil {
			return err
		}
		for i, name := range data.Companies {
			if _, err := fmt.Fprintf(w,
				`<li><input type="text" data-company-index="%d" value="%s"><button data-validate="%d">Validate</button></li>`,
				i, templ.EscapeString(name), i); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>
<button class="btn" data-company-add>Add company</button>
</div>
</section>`)
		return err
	})
	return layout(data.FileName, body)
}

// ExtractedTable renders one extracted table with summary rows flagged
// and an export link. Rendered standalone for HTMX table refreshes.
func ExtractedTable(docID string, tableIndex int, t table.Table) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("Table %d", tableIndex+1)
		}
		if _, err := fmt.Fprintf(w, `<div class="extracted-table" data-table-index="%d">
<div class="table-header"><h3>%s</h3><a class="btn" href="/api/export/%s/%d">Export CSV</a></div>
<table>
<thead><tr><th class="select-col"><input type="checkbox" data-select-all></th>`,
			tableIndex, templ.EscapeString(name), templ.EscapeString(docID), tableIndex); err != nil {
			return err
		}
		for _, h := range t.Header {
			if _, err := fmt.Fprintf(w, `<th>%s</th>`, templ.EscapeString(h)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tr></thead>
<tbody>`); err != nil {
			return err
		}
		for ri, row := range t.Rows {
			cls := ""
			if table.IsSummaryRow(&t, ri) {
				cls = ` class="summary-row"`
			}
			if _, err := fmt.Fprintf(w, `<tr%s><td class="select-col"><input type="checkbox" data-row="%d"></td>`, cls, ri); err != nil {
				return err
			}
			for ci, cell := range row {
				if _, err := fmt.Fprintf(w, `<td data-cell="%d:%d">%s</td>`, ri, ci, templ.EscapeString(cell)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</tr>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody>
</table>
</div>`)
		return err
	})
}
