// Package auth implements email/OTP sign-in for the review application.
//
// Access is restricted to a set of authorized email addresses supplied
// by configuration and matched case-insensitively; the list is a policy
// input, not compiled-in data. OTP and session state live in memory for
// the lifetime of the process; durable identity storage is an external
// concern.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Errors returned by the OTP flow.
var (
	ErrNotAuthorized = errors.New("email is not authorized")
	ErrInvalidCode   = errors.New("invalid or expired code")
	ErrNoSession     = errors.New("no active session")
)

// SendCodeFunc delivers an OTP code to an email address. The default
// logs the code; production wires a mail sender here.
type SendCodeFunc func(email, code string) error

// Config holds auth settings.
type Config struct {
	// AllowedEmails is the authorized identifier set, matched by exact
	// case-insensitive comparison.
	AllowedEmails []string

	// OTPTTL is how long an issued code stays valid.
	OTPTTL time.Duration

	// SessionTTL is how long a session stays valid after sign-in.
	SessionTTL time.Duration

	// SendCode delivers codes. Optional.
	SendCode SendCodeFunc
}

type otpEntry struct {
	code      string
	expiresAt time.Time
}

type session struct {
	email     string
	expiresAt time.Time
}

// Service issues and verifies one-time codes and tracks active sessions.
type Service struct {
	mu       sync.Mutex
	allowed  map[string]bool
	otps     map[string]otpEntry
	sessions map[string]session

	otpTTL     time.Duration
	sessionTTL time.Duration
	sendCode   SendCodeFunc
	now        func() time.Time
}

// NewService creates an auth service from config.
func NewService(cfg Config) *Service {
	allowed := make(map[string]bool, len(cfg.AllowedEmails))
	for _, email := range cfg.AllowedEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allowed[email] = true
		}
	}

	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.SendCode == nil {
		cfg.SendCode = func(email, code string) error {
			slog.Info("otp issued", "email", email, "code", code)
			return nil
		}
	}

	return &Service{
		allowed:    allowed,
		otps:       make(map[string]otpEntry),
		sessions:   make(map[string]session),
		otpTTL:     cfg.OTPTTL,
		sessionTTL: cfg.SessionTTL,
		sendCode:   cfg.SendCode,
		now:        time.Now,
	}
}

// IsAllowed reports whether the email is on the authorized list.
// Matching is exact and case-insensitive.
func (s *Service) IsAllowed(email string) bool {
	return s.allowed[normalizeEmail(email)]
}

// IssueOTP generates a 6-digit code for an authorized email, stores it
// with its expiry, and hands it to the code sender. Issuing a new code
// replaces any outstanding one for the same email.
func (s *Service) IssueOTP(email string) error {
	norm := normalizeEmail(email)
	if !s.allowed[norm] {
		return ErrNotAuthorized
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	s.mu.Lock()
	s.otps[norm] = otpEntry{code: code, expiresAt: s.now().Add(s.otpTTL)}
	s.mu.Unlock()

	return s.sendCode(norm, code)
}

// VerifyOTP consumes a valid code and returns a new session token.
// A code can be used only once; wrong or expired codes fail uniformly.
func (s *Service) VerifyOTP(email, code string) (string, error) {
	norm := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.otps[norm]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.otps, norm)
		return "", ErrInvalidCode
	}
	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) != 1 {
		return "", ErrInvalidCode
	}
	delete(s.otps, norm)

	token := uuid.NewString()
	s.sessions[token] = session{email: norm, expiresAt: s.now().Add(s.sessionTTL)}
	return token, nil
}

// ValidateSession returns the email for a live session token.
func (s *Service) ValidateSession(token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return "", ErrNoSession
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return "", ErrNoSession
	}
	return sess.email, nil
}

// Logout invalidates a session token. Unknown tokens are a no-op.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateCode produces a 6-digit numeric code from crypto/rand.
func generateCode() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	n := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return fmt.Sprintf("%06d", n%1000000), nil
}
