// Package templates renders the server-side pages and partials for the
// commission statement review UI as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// layout wraps a page body in the shared HTML shell.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s · CommissionDesk</title>
<link rel="stylesheet" href="/static/app.css">
</head>
<body class="bg-gray-50 text-gray-900">
<header class="topbar">
<a href="/" class="brand">CommissionDesk</a>
<form method="post" action="/api/auth/logout" class="logout"><button type="submit">Sign out</button></form>
</header>
<main class="content">`, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main>
</body>
</html>`)
		return err
	})
}

// ErrorAlert renders an inline error fragment with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><strong>%s</strong> %s <span class="code">%s</span></div>`,
			templ.EscapeString(message), templ.EscapeString(action), templ.EscapeString(code))
		return err
	})
}
