// Package preview loads PDF statements for display in the review UI.
//
// The Loader fetches the binary through the application's PDF proxy,
// retries transient failures with exponential backoff, and owns at most
// one loaded payload at a time. The Proxy is the server side of the same
// path: it streams objects from the storage upstream and verifies they
// are real PDFs before serving them.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle state of a Loader.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// Zoom bounds and step for the preview display.
const (
	ZoomMin  = 0.5
	ZoomMax  = 2.0
	ZoomStep = 0.2
)

// Error messages surfaced to the user. Missing input is terminal with no
// retry; retrying cannot produce a document that was never referenced.
const (
	ErrMsgNoDocument = "No document to preview"
	ErrMsgEmptyPDF   = "Received empty PDF file"
)

// DocumentRef identifies the document to preview.
type DocumentRef struct {
	StorageKey string
	FileName   string
}

// Document is a loaded PDF payload. It is exclusively owned by the
// Loader that fetched it and is released when replaced or on Close.
type Document struct {
	FileName string
	Data     []byte
}

// LoaderConfig configures a Loader. Zero values get defaults.
type LoaderConfig struct {
	// Client is the HTTP client used for proxy requests.
	Client *http.Client

	// ProxyURL is the PDF proxy endpoint, e.g. "http://host/api/pdf-proxy".
	ProxyURL string

	// MaxRetries is the number of automatic retries after the initial
	// attempt (default: 3, so 4 total attempts).
	MaxRetries int

	// BackoffBase is the first retry delay (default: 1s). Delay for
	// attempt n is min(BackoffBase * 2^n, BackoffCap).
	BackoffBase time.Duration

	// BackoffCap bounds the retry delay (default: 5s).
	BackoffCap time.Duration

	// Sleep waits between retries. Overridable in tests; the default
	// honors context cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Loader drives the preview state machine:
//
//	Idle -> Loading -> {Loaded, Failed}
//
// Failed re-enters Loading via Retry. At most one fetch is in flight per
// Loader: starting a new load cancels the previous one, and a superseded
// request's completion can never overwrite newer state. Cancellation is
// cooperative via context and is not treated as a failure.
type Loader struct {
	client      *http.Client
	proxyURL    string
	maxRetries  int
	backoffBase time.Duration
	backoffCap  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	state      State
	errMsg     string
	retryCount int
	zoom       float64
	doc        *Document
	lastRef    DocumentRef
	cancel     context.CancelFunc
	generation int
}

// NewLoader creates a Loader in the Idle state with zoom 1.0.
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffCap == 0 {
		cfg.BackoffCap = 5 * time.Second
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	return &Loader{
		client:      cfg.Client,
		proxyURL:    cfg.ProxyURL,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		backoffCap:  cfg.BackoffCap,
		sleep:       cfg.Sleep,
		state:       StateIdle,
		zoom:        1.0,
	}
}

// State returns the current lifecycle state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// ErrorMessage returns the last surfaced error message, empty unless the
// loader is Failed.
func (l *Loader) ErrorMessage() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errMsg
}

// RetryCount returns how many automatic retries the last load performed.
func (l *Loader) RetryCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retryCount
}

// Document returns the currently owned payload, or nil.
func (l *Loader) Document() *Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc
}

// Load fetches the referenced document through the proxy, retrying
// transient failures with exponential backoff up to the configured
// retry budget. A missing storage key fails immediately with no network
// access. Any prior in-flight load is cancelled first.
//
// Load blocks until the document is loaded, the attempts are exhausted,
// or the load is superseded or cancelled. Cancellation returns nil and
// leaves visible state untouched.
func (l *Loader) Load(ctx context.Context, ref DocumentRef) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.generation++
	gen := l.generation
	l.lastRef = ref
	l.retryCount = 0

	if ref.StorageKey == "" {
		l.state = StateFailed
		l.errMsg = ErrMsgNoDocument
		l.mu.Unlock()
		cancel()
		return errors.New(ErrMsgNoDocument)
	}

	l.state = StateLoading
	l.errMsg = ""
	l.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		if attempt > 0 {
			if err := l.sleep(loadCtx, l.backoff(attempt-1)); err != nil {
				return nil // superseded or torn down mid-backoff
			}
			l.mu.Lock()
			if gen == l.generation {
				l.retryCount = attempt
			}
			l.mu.Unlock()
		}

		data, err := l.fetchOnce(loadCtx, ref.StorageKey)
		if err == nil {
			l.commitLoaded(gen, ref, data)
			return nil
		}
		if loadCtx.Err() != nil || errors.Is(err, context.Canceled) {
			// Deliberate cancellation: ignored, never surfaced.
			return nil
		}
		lastErr = err
	}

	l.commitFailed(gen, lastErr)
	return lastErr
}

// Retry restarts the load for the last reference with the attempt
// counter back at zero, regardless of prior retry count.
func (l *Loader) Retry(ctx context.Context) error {
	l.mu.Lock()
	ref := l.lastRef
	l.mu.Unlock()
	return l.Load(ctx, ref)
}

// Download writes the currently loaded payload to w and returns its file
// name. A no-op returning false when nothing is loaded.
func (l *Loader) Download(w io.Writer) (string, bool) {
	l.mu.Lock()
	doc := l.doc
	l.mu.Unlock()

	if doc == nil {
		return "", false
	}
	if _, err := w.Write(doc.Data); err != nil {
		return "", false
	}
	return doc.FileName, true
}

// Zoom returns the current zoom factor.
func (l *Loader) Zoom() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.zoom
}

// ZoomIn increases the zoom factor by one step, clamped to ZoomMax.
func (l *Loader) ZoomIn() float64 { return l.SetZoom(l.Zoom() + ZoomStep) }

// ZoomOut decreases the zoom factor by one step, clamped to ZoomMin.
func (l *Loader) ZoomOut() float64 { return l.SetZoom(l.Zoom() - ZoomStep) }

// SetZoom sets the zoom factor, clamped to [ZoomMin, ZoomMax].
func (l *Loader) SetZoom(v float64) float64 {
	if v < ZoomMin {
		v = ZoomMin
	}
	if v > ZoomMax {
		v = ZoomMax
	}
	l.mu.Lock()
	l.zoom = v
	l.mu.Unlock()
	return v
}

// Close cancels any in-flight load and releases the owned payload. Safe
// to call at any point, including mid-retry.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.doc = nil
	l.state = StateIdle
	l.errMsg = ""
}

// commitLoaded stores the fetched payload unless a newer load has
// superseded this one. The previously owned payload is released first.
func (l *Loader) commitLoaded(gen int, ref DocumentRef, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return // superseded; result discarded, retained payload untouched
	}
	l.doc = &Document{FileName: ref.FileName, Data: data}
	l.state = StateLoaded
	l.errMsg = ""
}

// commitFailed records the terminal failure unless superseded.
func (l *Loader) commitFailed(gen int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return
	}
	l.state = StateFailed
	l.errMsg = err.Error()
}

// fetchOnce performs a single proxy request. Non-2xx statuses, non-PDF
// content types, and empty bodies are all failures.
func (l *Loader) fetchOnce(ctx context.Context, storageKey string) ([]byte, error) {
	reqURL := l.proxyURL + "?gcs_key=" + url.QueryEscape(storageKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("PDF fetch failed with status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !isPDFContentType(ct) {
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read PDF body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New(ErrMsgEmptyPDF)
	}
	return data, nil
}

// backoff returns min(base * 2^attempt, cap).
func (l *Loader) backoff(attempt int) time.Duration {
	d := l.backoffBase << uint(attempt)
	if d > l.backoffCap || d <= 0 {
		return l.backoffCap
	}
	return d
}

func isPDFContentType(ct string) bool {
	return strings.HasPrefix(ct, "application/pdf")
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
