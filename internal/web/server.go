// Package web provides the HTTP server and handlers for the commission
// statement review UI.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/commissiondesk/commissiondesk/internal/auth"
	"github.com/commissiondesk/commissiondesk/internal/company"
	"github.com/commissiondesk/commissiondesk/internal/config"
	"github.com/commissiondesk/commissiondesk/internal/preview"
	"github.com/commissiondesk/commissiondesk/internal/store"
	"github.com/commissiondesk/commissiondesk/internal/table"
	mw "github.com/commissiondesk/commissiondesk/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

//go:embed static
var staticFiles embed.FS

// DocumentStore is the persistence surface the handlers need.
// Satisfied by *store.Store; narrowed for tests.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *store.Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*store.Document, error)
	ListDocuments(ctx context.Context) ([]store.Document, error)
	SaveTables(ctx context.Context, id uuid.UUID, tables []table.Table) error
	SaveCompanies(ctx context.Context, id uuid.UUID, companies []string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	RecordEdit(ctx context.Context, entry store.AuditEntry)
	ListEdits(ctx context.Context, documentID uuid.UUID, limit int) ([]store.AuditEntry, error)
}

// Server is the HTTP server for the statement review application.
type Server struct {
	cfg       *config.Config
	store     DocumentStore
	auth      *auth.Service
	proxy     *preview.Proxy
	validator company.Validator
	router    *chi.Mux
	server    *http.Server
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, st DocumentStore, authSvc *auth.Service, proxy *preview.Proxy, validator company.Validator) *Server {
	s := &Server{
		cfg:       cfg,
		store:     st,
		auth:      authSvc,
		proxy:     proxy,
		validator: validator,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Static assets
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatal(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Public: sign-in page and OTP endpoints, rate limited harder than the
	// rest of the app since they gate access.
	s.router.Group(func(r chi.Router) {
		if s.cfg.Rate.Enabled {
			authLimiter := newRateLimiter(s.cfg.Rate.AuthLimit, time.Minute)
			r.Use(authLimiter.middleware)
		}
		r.Get("/login", s.handleLoginPage)
		r.Post("/api/auth/otp", s.handleIssueOTP)
		r.Post("/api/auth/verify", s.handleVerifyOTP)
	})

	// Everything else requires a live session.
	s.router.Group(func(r chi.Router) {
		r.Use(mw.RequireSession(s.auth))

		// Pages
		r.Get("/", s.handleDashboard)
		r.Get("/review/{documentID}", s.handleReviewPage)

		// API routes
		r.Route("/api", func(r chi.Router) {
			r.Post("/auth/logout", s.handleLogout)

			// Statement PDF proxy for the preview pane
			r.Get("/pdf-proxy", s.handlePDFProxy)

			// Company-name validation
			r.Post("/validate-company-name", s.handleValidateCompanyName)

			// Documents and their edited extraction state
			r.Post("/documents", s.handleCreateDocument)
			r.Get("/documents", s.handleListDocuments)
			r.Get("/documents/{documentID}", s.handleGetDocument)
			r.Post("/documents/{documentID}/tables", s.handleSaveTables)
			r.Post("/documents/{documentID}/companies", s.handleSaveCompanies)
			r.Post("/documents/{documentID}/status", s.handleUpdateStatus)
			r.Get("/documents/{documentID}/audit", s.handleAuditTrail)

			// CSV export of one edited table
			r.Get("/export/{documentID}/{tableIndex}", s.handleExportTable)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// The review page embeds the statement PDF from this origin
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")

			// XSS protection (legacy but still useful for older browsers)
			w.Header().Set("X-XSS-Protection", "1; mode=block")

			if enableCSP {
				// Allow inline styles, the embedded PDF viewer needs object-src 'self'
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; object-src 'self'; font-src 'self'")
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	// Start cleanup goroutine
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1, // consume one token
			lastReset: time.Now(),
		}
		return true
	}

	// Reset tokens if window has passed
	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	// Check if we have tokens left
	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			respondErrorJSON(w, mapError(errRateLimited), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}
