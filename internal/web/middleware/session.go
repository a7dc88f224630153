package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/commissiondesk/commissiondesk/internal/store"
)

// SessionCookie is the name of the session token cookie.
const SessionCookie = "cd_session"

// SessionValidator resolves a session token to the signed-in email.
// Satisfied by *auth.Service.
type SessionValidator interface {
	ValidateSession(token string) (string, error)
}

// RequireSession guards routes behind a live session. API requests get a
// 401 JSON body; page requests are redirected to the sign-in form. The
// signed-in email is placed in the request context for audit logging.
func RequireSession(v SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				reject(w, r)
				return
			}

			email, err := v.ValidateSession(cookie.Value)
			if err != nil {
				slog.Warn("auth: rejected session",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				reject(w, r)
				return
			}

			ctx := store.ContextWithActor(r.Context(), email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"no active session","code":"AUTH003"}`))
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
