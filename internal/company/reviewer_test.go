package company

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeValidator returns canned results keyed by name.
type fakeValidator struct {
	mu      sync.Mutex
	results map[string]*ValidationResult
	err     error
	calls   []string
}

func (f *fakeValidator) Validate(_ context.Context, name string) (*ValidationResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if res, ok := f.results[name]; ok {
		return res, nil
	}
	return &ValidationResult{IsValid: true, Confidence: 1}, nil
}

func TestValidate_StoresResult(t *testing.T) {
	fake := &fakeValidator{results: map[string]*ValidationResult{
		"Evergreen Mutual": {IsValid: true, Confidence: 0.95},
	}}
	r := NewReviewer(fake, []string{"Evergreen Mutual", "Harbor Brokerage"})

	if err := r.Validate(context.Background(), 0); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	res := r.Result(0)
	if res == nil || !res.IsValid || res.Confidence != 0.95 {
		t.Errorf("unexpected result: %+v", res)
	}
	if r.Result(1) != nil {
		t.Error("unvalidated entry must have no result")
	}
}

func TestValidate_TransportFailureLeavesEntryUnresolved(t *testing.T) {
	fake := &fakeValidator{err: errors.New("connection refused")}
	r := NewReviewer(fake, []string{"Evergreen Mutual"})

	if err := r.Validate(context.Background(), 0); err == nil {
		t.Fatal("expected transport error to propagate")
	}
	if r.Result(0) != nil {
		t.Error("failed validation must leave the result absent, not store an error state")
	}
}

func TestSetName_KeepsStaleResult(t *testing.T) {
	fake := &fakeValidator{}
	r := NewReviewer(fake, []string{"Evergeen Mutual"})
	r.Validate(context.Background(), 0)

	r.SetName(0, "Evergreen Mutual")

	// Editing the text leaves the prior verdict in place until the entry
	// is re-validated.
	if r.Result(0) == nil {
		t.Error("editing a name must not clear its validation result")
	}
	if r.Names()[0] != "Evergreen Mutual" {
		t.Errorf("name not updated: %v", r.Names())
	}
}

func TestRemove_DropsRemovedResultAndRenumbers(t *testing.T) {
	fake := &fakeValidator{results: map[string]*ValidationResult{
		"A": {IsValid: true, Confidence: 0.1},
		"B": {IsValid: false, Confidence: 0.2},
		"C": {IsValid: true, Confidence: 0.3},
	}}
	r := NewReviewer(fake, []string{"A", "B", "C"})
	r.Validate(context.Background(), 0)
	r.Validate(context.Background(), 2)
	// Index 1 ("B") intentionally left unvalidated.

	r.Remove(1)

	names := r.Names()
	if len(names) != 2 || names[0] != "A" || names[1] != "C" {
		t.Fatalf("expected [A C], got %v", names)
	}

	// A keeps its result; C's result moves from index 2 to index 1.
	// Nothing stale from the removed entry may leak into index 1.
	if res := r.Result(0); res == nil || res.Confidence != 0.1 {
		t.Errorf("index 0 result wrong: %+v", res)
	}
	if res := r.Result(1); res == nil || res.Confidence != 0.3 {
		t.Errorf("index 1 must carry C's remapped result, got %+v", res)
	}
	if res := r.Result(2); res != nil {
		t.Errorf("index 2 must be gone, got %+v", res)
	}
}

func TestRemove_DroppedEntryResultNotReassigned(t *testing.T) {
	fake := &fakeValidator{results: map[string]*ValidationResult{
		"B": {IsValid: false, Confidence: 0.2},
	}}
	r := NewReviewer(fake, []string{"A", "B", "C"})
	r.Validate(context.Background(), 1)

	r.Remove(1)

	// C shifts to index 1 but must not inherit B's verdict.
	if res := r.Result(1); res != nil {
		t.Errorf("shifted entry must not inherit the removed entry's result, got %+v", res)
	}
}

func TestAddAndComplete(t *testing.T) {
	r := NewReviewer(&fakeValidator{}, []string{"Evergreen Mutual"})
	r.Add()
	r.Add()
	r.SetName(1, "  Harbor Brokerage  ")
	r.SetName(2, "   ")

	got := r.Complete()
	if len(got) != 2 {
		t.Fatalf("expected 2 names after filtering blanks, got %v", got)
	}
	if got[0] != "Evergreen Mutual" || got[1] != "  Harbor Brokerage  " {
		t.Errorf("unexpected completed list: %v", got)
	}
}

func TestValidateAll(t *testing.T) {
	fake := &fakeValidator{results: map[string]*ValidationResult{
		"A": {IsValid: true},
		"B": {IsValid: false, Issues: []string{"unknown carrier"}},
	}}
	r := NewReviewer(fake, []string{"A", "B"})

	r.ValidateAll(context.Background())

	if r.Result(0) == nil || r.Result(1) == nil {
		t.Fatal("every entry should be validated")
	}
	if r.Result(1).IsValid {
		t.Error("B should be invalid")
	}
}

func TestClient_Validate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req["company_name"] != "Evergreen Mutual" {
			t.Errorf("unexpected company_name %q", req["company_name"])
		}
		json.NewEncoder(w).Encode(ValidationResult{
			IsValid:    true,
			Confidence: 0.9,
			Issues:     []string{},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/api/validate-company-name")
	res, err := c.Validate(context.Background(), "Evergreen Mutual")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !res.IsValid || res.Confidence != 0.9 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestClient_Validate_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	if _, err := c.Validate(context.Background(), "X"); err == nil {
		t.Fatal("expected error for non-2xx response")
	} else if !strings.Contains(err.Error(), "502") {
		t.Errorf("error should carry the status, got %v", err)
	}
}
