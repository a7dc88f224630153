package company

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxParallelValidations bounds concurrent calls to the validation
// endpoint during a bulk validate.
const maxParallelValidations = 4

// Reviewer tracks the candidate company names for one document and their
// per-entry validation status. Candidates are identified by position;
// removing one renumbers the rest and drops the removed entry's result
// specifically, never reassigning a neighbor's stale verdict.
type Reviewer struct {
	mu        sync.Mutex
	names     []string
	results   map[int]*ValidationResult
	validator Validator
}

// NewReviewer seeds a reviewer with the detected names.
func NewReviewer(validator Validator, detected []string) *Reviewer {
	names := make([]string, len(detected))
	copy(names, detected)
	return &Reviewer{
		names:     names,
		results:   make(map[int]*ValidationResult),
		validator: validator,
	}
}

// Names returns a copy of the current candidate list.
func (r *Reviewer) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Result returns the validation result for the candidate at index i, or
// nil when the entry has not been validated (or validation failed).
func (r *Reviewer) Result(i int) *ValidationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[i]
}

// SetName updates the candidate text at index i. A previously computed
// validation result for the index is deliberately left in place; whether
// an edit should clear the stale verdict is an open behavioral question,
// and the entry can always be re-validated manually.
func (r *Reviewer) SetName(i int, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.names) {
		return
	}
	r.names[i] = value
}

// Validate sends the current text at index i to the validation endpoint
// and stores the verdict. A transport failure is non-fatal: it is
// logged, the entry's result stays absent, and the caller can re-trigger
// validation.
func (r *Reviewer) Validate(ctx context.Context, i int) error {
	r.mu.Lock()
	if i < 0 || i >= len(r.names) {
		r.mu.Unlock()
		return nil
	}
	name := r.names[i]
	r.mu.Unlock()

	result, err := r.validator.Validate(ctx, name)
	if err != nil {
		slog.Error("company name validation failed", "index", i, "error", err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// The list may have shrunk while the call was in flight.
	if i < len(r.names) {
		r.results[i] = result
	}
	return nil
}

// ValidateAll validates every candidate concurrently, at most
// maxParallelValidations at a time. Individual failures are non-fatal
// and simply leave those entries unresolved.
func (r *Reviewer) ValidateAll(ctx context.Context) {
	r.mu.Lock()
	count := len(r.names)
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelValidations)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			r.Validate(gctx, i) // failure already logged, keep going
			return nil
		})
	}
	g.Wait()
}

// Add appends an empty candidate with no validation result.
func (r *Reviewer) Add() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, "")
}

// Remove deletes the candidate at index i, renumbers subsequent indices,
// and drops the validation result keyed to the removed entry.
func (r *Reviewer) Remove(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.names) {
		return
	}
	r.names = append(r.names[:i], r.names[i+1:]...)

	remapped := make(map[int]*ValidationResult, len(r.results))
	for idx, res := range r.results {
		switch {
		case idx == i:
			// dropped with the entry
		case idx > i:
			remapped[idx-1] = res
		default:
			remapped[idx] = res
		}
	}
	r.results = remapped
}

// Complete filters out blank candidates and returns the remaining names.
// Entries are not required to have passed (or even run) validation.
func (r *Reviewer) Complete() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.names))
	for _, name := range r.names {
		if strings.TrimSpace(name) != "" {
			out = append(out, name)
		}
	}
	return out
}
