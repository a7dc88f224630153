package web

// handlers_auth.go implements the email/OTP sign-in flow. Both the HTML
// form on the login page and JSON API clients use the same endpoints.

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	mw "github.com/commissiondesk/commissiondesk/internal/web/middleware"
	"github.com/commissiondesk/commissiondesk/internal/web/templates"
)

// handleLoginPage renders the sign-in form.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	codeSent := r.URL.Query().Get("sent") == "1"
	templates.LoginPage(email, codeSent).Render(r.Context(), w)
}

// handleIssueOTP sends a one-time code to an authorized email.
func (s *Server) handleIssueOTP(w http.ResponseWriter, r *http.Request) {
	email, _, err := credentialsFromRequest(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.auth.IssueOTP(email); err != nil {
		s.respondError(w, r, err, http.StatusForbidden)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, map[string]string{"status": "code sent"})
		return
	}
	http.Redirect(w, r, "/login?sent=1&email="+url.QueryEscape(email), http.StatusSeeOther)
}

// handleVerifyOTP exchanges a valid code for a session cookie.
func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	email, code, err := credentialsFromRequest(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	token, err := s.auth.VerifyOTP(email, code)
	if err != nil {
		s.respondError(w, r, err, http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Security.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cfg.Auth.SessionTTL.Seconds()),
	})

	if wantsJSON(r) {
		writeJSON(w, map[string]string{"status": "signed in"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout invalidates the session and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(mw.SessionCookie); err == nil {
		s.auth.Logout(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Security.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	if wantsJSON(r) && !isFormPost(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// credentialsFromRequest reads email and code from either a JSON body or
// form values.
func credentialsFromRequest(r *http.Request) (email, code string, err error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		}
		if decodeErr := json.NewDecoder(r.Body).Decode(&body); decodeErr != nil {
			return "", "", errInvalidBody
		}
		email, code = body.Email, body.Code
	} else {
		email = r.FormValue("email")
		code = r.FormValue("code")
	}

	if strings.TrimSpace(email) == "" {
		return "", "", errInvalidBody
	}
	return email, code, nil
}

func isFormPost(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}
