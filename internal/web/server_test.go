package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/commissiondesk/commissiondesk/internal/auth"
	"github.com/commissiondesk/commissiondesk/internal/company"
	"github.com/commissiondesk/commissiondesk/internal/config"
	"github.com/commissiondesk/commissiondesk/internal/preview"
	"github.com/commissiondesk/commissiondesk/internal/store"
	"github.com/commissiondesk/commissiondesk/internal/table"
	"github.com/google/uuid"
)

// fakeStore is an in-memory DocumentStore.
type fakeStore struct {
	mu     sync.Mutex
	docs   map[uuid.UUID]*store.Document
	audits []store.AuditEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[uuid.UUID]*store.Document)}
}

func (f *fakeStore) CreateDocument(ctx context.Context, doc *store.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = store.StatusUploaded
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeStore) GetDocument(ctx context.Context, id uuid.UUID) (*store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeStore) ListDocuments(ctx context.Context) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []store.Document
	for _, d := range f.docs {
		docs = append(docs, *d)
	}
	return docs, nil
}

func (f *fakeStore) SaveTables(ctx context.Context, id uuid.UUID, tables []table.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	doc.Tables = tables
	if doc.Status == store.StatusUploaded {
		doc.Status = store.StatusReviewing
	}
	return nil
}

func (f *fakeStore) SaveCompanies(ctx context.Context, id uuid.UUID, companies []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	doc.Companies = companies
	return nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	doc.Status = status
	return nil
}

func (f *fakeStore) RecordEdit(ctx context.Context, entry store.AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, entry)
}

func (f *fakeStore) ListEdits(ctx context.Context, documentID uuid.UUID, limit int) ([]store.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.AuditEntry
	for _, e := range f.audits {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeValidator returns a canned validation verdict.
type fakeValidator struct {
	result *company.ValidationResult
	err    error
}

func (f *fakeValidator) Validate(ctx context.Context, name string) (*company.ValidationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type testEnv struct {
	server *Server
	store  *fakeStore
	cookie *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: 30 * time.Second},
		Auth: config.AuthConfig{
			AllowedEmails: []string{"agent@example.com"},
			OTPTTL:        time.Minute,
			SessionTTL:    time.Hour,
		},
		Rate:     config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{EnableCSP: true, SecureCookies: false},
	}

	var sentCode string
	authSvc := auth.NewService(auth.Config{
		AllowedEmails: cfg.Auth.AllowedEmails,
		OTPTTL:        cfg.Auth.OTPTTL,
		SessionTTL:    cfg.Auth.SessionTTL,
		SendCode: func(email, code string) error {
			sentCode = code
			return nil
		},
	})

	fs := newFakeStore()
	validator := &fakeValidator{result: &company.ValidationResult{IsValid: true, Confidence: 0.97}}
	proxy := preview.NewProxy(nil, "http://storage.invalid", 0)

	srv := NewServer(cfg, fs, authSvc, proxy, validator)

	// Sign in once; reuse the session cookie across requests.
	if err := authSvc.IssueOTP("agent@example.com"); err != nil {
		t.Fatalf("IssueOTP failed: %v", err)
	}
	token, err := authSvc.VerifyOTP("agent@example.com", sentCode)
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	return &testEnv{
		server: srv,
		store:  fs,
		cookie: &http.Cookie{Name: "cd_session", Value: token},
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(e.cookie)

	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	t.Run("page redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("Location = %q, want /login", loc)
		}
	})

	t.Run("api returns 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}

func TestOTPSignIn(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/documents", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated request status = %d, want 200", rec.Code)
	}
}

func TestIssueOTP_UnauthorizedEmail(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/otp",
		strings.NewReader(`{"email":"intruder@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != "AUTH001" {
		t.Errorf("error code = %q, want AUTH001", resp.Code)
	}
}

func TestCreateDocument_WithExtraction(t *testing.T) {
	env := newTestEnv(t)

	extraction := map[string]interface{}{
		"document_metadata": map[string]interface{}{
			"carrier":        map[string]interface{}{"value": "Acme Life", "confidence": 0.93},
			"statement_date": map[string]interface{}{"value": "2025-07-31", "confidence": 0.88},
		},
		"tables": []map[string]interface{}{
			{
				"name":   "Commissions",
				"header": []string{"Policy", "Amount"},
				"rows":   [][]string{{"P-1", "100.00"}, {"Grand Total", "100.00"}},
			},
		},
		"detected_companies": []string{"Acme Life", ""},
	}

	rec := env.request(t, http.MethodPost, "/api/documents", map[string]interface{}{
		"fileName":   "july.pdf",
		"storageKey": "statements/july.pdf",
		"extraction": extraction,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var doc store.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Carrier != "Acme Life" {
		t.Errorf("Carrier = %q, want %q", doc.Carrier, "Acme Life")
	}
	if len(doc.Tables) != 1 || len(doc.Tables[0].Rows) != 2 {
		t.Fatalf("unexpected tables: %+v", doc.Tables)
	}

	// Registration is audited
	entries, _ := env.store.ListEdits(context.Background(), doc.ID, 0)
	if len(entries) != 1 || entries[0].Action != store.ActionDocumentAdded {
		t.Errorf("unexpected audit entries: %+v", entries)
	}
}

func TestCreateDocument_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/documents", map[string]string{"fileName": "x.pdf"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSaveTables(t *testing.T) {
	env := newTestEnv(t)

	doc := &store.Document{FileName: "july.pdf", StorageKey: "k"}
	env.store.CreateDocument(context.Background(), doc)

	t.Run("valid snapshot saved", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/documents/"+doc.ID.String()+"/tables",
			map[string]interface{}{
				"tables": []table.Table{{
					Name:   "Commissions",
					Header: []string{"a", "b"},
					Rows:   [][]string{{"1", "2"}},
				}},
			})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}

		saved, _ := env.store.GetDocument(context.Background(), doc.ID)
		if len(saved.Tables) != 1 {
			t.Fatalf("tables not persisted: %+v", saved.Tables)
		}
		if saved.Status != store.StatusReviewing {
			t.Errorf("status = %q, want reviewing", saved.Status)
		}
	})

	t.Run("ragged row rejected", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/documents/"+doc.ID.String()+"/tables",
			map[string]interface{}{
				"tables": []table.Table{{
					Header: []string{"a", "b"},
					Rows:   [][]string{{"1"}},
				}},
			})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var resp ErrorResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Code != "VAL003" {
			t.Errorf("error code = %q, want VAL003", resp.Code)
		}
	})

	t.Run("unknown document 404", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/documents/"+uuid.NewString()+"/tables",
			map[string]interface{}{"tables": []table.Table{}})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestSaveCompanies_FiltersBlank(t *testing.T) {
	env := newTestEnv(t)

	doc := &store.Document{FileName: "july.pdf", StorageKey: "k"}
	env.store.CreateDocument(context.Background(), doc)

	rec := env.request(t, http.MethodPost, "/api/documents/"+doc.ID.String()+"/companies",
		map[string]interface{}{"companies": []string{"Acme Life", "  ", "Globex"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	saved, _ := env.store.GetDocument(context.Background(), doc.ID)
	want := []string{"Acme Life", "Globex"}
	if len(saved.Companies) != len(want) {
		t.Fatalf("companies = %v, want %v", saved.Companies, want)
	}
	for i := range want {
		if saved.Companies[i] != want[i] {
			t.Errorf("companies[%d] = %q, want %q", i, saved.Companies[i], want[i])
		}
	}
}

func TestExportTable(t *testing.T) {
	env := newTestEnv(t)

	doc := &store.Document{
		FileName:   "july.pdf",
		StorageKey: "k",
		Tables: []table.Table{{
			Name:   "Commissions Q3",
			Header: []string{"a", "b"},
			Rows:   [][]string{{"1", "2"}},
		}},
	}
	env.store.CreateDocument(context.Background(), doc)

	rec := env.request(t, http.MethodGet, "/api/export/"+doc.ID.String()+"/0", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got, want := rec.Body.String(), "a,b\n\"1\",\"2\""; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Commissions-Q3.csv") {
		t.Errorf("Content-Disposition = %q, want Commissions-Q3.csv", cd)
	}

	t.Run("index out of range", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/api/export/"+doc.ID.String()+"/5", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestValidateCompanyName(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/validate-company-name",
		map[string]string{"company_name": "Acme Life"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result company.ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.IsValid || result.Confidence != 0.97 {
		t.Errorf("unexpected result: %+v", result)
	}

	t.Run("blank name rejected", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/validate-company-name",
			map[string]string{"company_name": "  "})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var resp ErrorResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Code != "VAL002" {
			t.Errorf("error code = %q, want VAL002", resp.Code)
		}
	})
}

func TestPDFProxy_MissingKey(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/pdf-proxy", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPDFProxy_UpstreamNotFound(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	env := newTestEnv(t)
	env.server.proxy = preview.NewProxy(upstream.Client(), upstream.URL, 0)

	rec := env.request(t, http.MethodGet, "/api/pdf-proxy?gcs_key=missing.pdf", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "PDF001" {
		t.Errorf("error code = %q, want PDF001", resp.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/documents", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("Content-Security-Policy missing")
	}
}

func TestDocumentNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/documents/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "DOC001" {
		t.Errorf("error code = %q, want DOC001", resp.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("1.2.3.4") || !rl.allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("different IP should not be limited")
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  string
		code string
	}{
		{"email is not authorized", "AUTH001"},
		{"invalid or expired code", "AUTH002"},
		{"document not found", "DOC001"},
		{"object not found", "PDF001"},
		{"object is not a valid PDF: xref", "PDF002"},
		{"Received empty PDF file", "PDF003"},
		{"connection refused", "DB001"},
		{"some novel failure", "ERR000"},
	}

	for _, tc := range tests {
		got := mapError(fmt.Errorf("%s", tc.err))
		if got.Code != tc.code {
			t.Errorf("mapError(%q).Code = %q, want %q", tc.err, got.Code, tc.code)
		}
	}
}
